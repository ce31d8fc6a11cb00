package config

import (
	"fmt"
	"strings"
	"time"
)

// IST is the exchange time zone. Sessions are wall-clock minutes in it.
var IST = time.FixedZone("IST", 5*3600+1800)

// Clock is a time of day in minutes after midnight.
type Clock int

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

// ClockOf returns the wall-clock minute of t in its own location.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Session is the half-open trading window [Start, End).
type Session struct {
	Start Clock
	End   Clock
}

// ParseSession parses "HH:MM-HH:MM".
func ParseSession(s string) (Session, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return Session{}, fmt.Errorf("invalid session %q: want HH:MM-HH:MM", s)
	}
	start, err := ParseClock(parts[0])
	if err != nil {
		return Session{}, err
	}
	end, err := ParseClock(parts[1])
	if err != nil {
		return Session{}, err
	}
	if end <= start {
		return Session{}, fmt.Errorf("invalid session %q: end not after start", s)
	}
	return Session{Start: start, End: end}, nil
}

func (s Session) Contains(t time.Time) bool {
	c := ClockOf(t)
	return c >= s.Start && c < s.End
}

func (s Session) String() string {
	return s.Start.String() + "-" + s.End.String()
}

func (s Session) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

func (s *Session) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseSession(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type Sessions []Session

// Contains reports whether t falls in any of the windows.
func (ss Sessions) Contains(t time.Time) bool {
	for _, s := range ss {
		if s.Contains(t) {
			return true
		}
	}
	return false
}

// ParseSessions parses a comma separated list of windows.
func ParseSessions(s string) (Sessions, error) {
	var out Sessions
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		sess, err := ParseSession(part)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, nil
}
