package options

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"Spread_Hedger/internal/model"
)

var ErrNoSymbol = errors.New("no matching futures contract")

type Right string

const (
	Call Right = "CE"
	Put  Right = "PE"
)

// RightFor maps a signal direction to the option that profits from it.
func RightFor(dir model.Direction) Right {
	if dir == model.Short {
		return Put
	}
	return Call
}

// RoundStrike rounds price to the nearest multiple of step, halves away
// from zero.
func RoundStrike(price float64, step int) int {
	if step <= 0 {
		return int(math.Round(price))
	}
	return int(math.Round(price/float64(step))) * step
}

// OTMStrike moves an ATM strike away from the money by offset: up for
// calls, down for puts.
func OTMStrike(atm, offset int, right Right) int {
	if offset <= 0 {
		return atm
	}
	if right == Call {
		return atm + offset
	}
	return atm - offset
}

// OptionSymbol builds the option contract on the same expiry as future
// (NIFTY30DEC25FUT -> NIFTY30DEC25<strike>CE).
func OptionSymbol(future string, price float64, dir model.Direction, offset, step int) (string, error) {
	if !strings.HasSuffix(future, "FUT") {
		return "", fmt.Errorf("not a futures symbol: %q", future)
	}
	base := strings.TrimSuffix(future, "FUT")
	right := RightFor(dir)
	strike := OTMStrike(RoundStrike(price, step), offset, right)
	return fmt.Sprintf("%s%d%s", base, strike, right), nil
}

// ParseFutureExpiry extracts the expiry of a PREFIXddMMMyyFUT contract.
func ParseFutureExpiry(symbol, prefix string) (time.Time, error) {
	rest := strings.TrimPrefix(symbol, prefix)
	if rest == symbol || !strings.HasSuffix(rest, "FUT") {
		return time.Time{}, fmt.Errorf("unexpected futures symbol %q", symbol)
	}
	datePart := strings.TrimSuffix(rest, "FUT")
	if len(datePart) != 7 {
		return time.Time{}, fmt.Errorf("unexpected expiry in %q", symbol)
	}
	t, err := time.Parse("02Jan06", datePart)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse expiry of %q: %w", symbol, err)
	}
	return t, nil
}

// MonthQuery is the search query for the monthly contract of month
// ("NIFTY DEC 25").
func MonthQuery(prefix string, month time.Time) string {
	return fmt.Sprintf("%s %s %s", prefix, strings.ToUpper(month.Format("Jan")), month.Format("06"))
}

// ResolveFuture picks the monthly futures contract for month out of search
// results: PREFIX + two-digit day + MMMyy + FUT. Index variants such as
// BANKNIFTY or NIFTYNXT are skipped.
func ResolveFuture(candidates []string, prefix string, month time.Time) (string, error) {
	suffix := strings.ToUpper(month.Format("Jan")) + month.Format("06") + "FUT"
	for _, sym := range candidates {
		if !strings.HasPrefix(sym, prefix) || !strings.HasSuffix(sym, suffix) {
			continue
		}
		if strings.Contains(sym, "BANK") {
			continue
		}
		rest := sym[len(prefix):]
		if len(rest) < 2 || !isDigit(rest[0]) || !isDigit(rest[1]) {
			continue
		}
		return sym, nil
	}
	return "", fmt.Errorf("%w for %s", ErrNoSymbol, MonthQuery(prefix, month))
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
