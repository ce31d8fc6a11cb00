package hedger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Mode is what the bot buys on a signal.
type Mode string

const (
	ModeDebitSpread Mode = "debit_spread" // ATM long + OTM short, same right
	ModeOptionBuy   Mode = "option_buy"   // single ATM option
)

// ParseMode maps a STRATEGY value onto a Mode.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "debit_spread", "spread", "hedge", "hedge_spread":
		return ModeDebitSpread, true
	case "2", "option_buy", "optionbuy", "buy", "naked":
		return ModeOptionBuy, true
	}
	return "", false
}

// ChooseMode resolves the configured strategy; when it is empty or unknown
// and stdin is a terminal the user is asked, otherwise the debit spread is
// used.
func ChooseMode(configured string) Mode {
	if configured != "" {
		if m, ok := ParseMode(configured); ok {
			log.Infof("[STRATEGY] selected=%s (source=STRATEGY=%q)", m, configured)
			return m
		}
		log.Warnf("[STRATEGY] unknown STRATEGY=%q, falling back", configured)
	}
	if isInteractiveStdin() {
		m := PromptMode(os.Stdin, os.Stdout)
		log.Infof("[STRATEGY] selected=%s (interactive)", m)
		return m
	}
	log.Infof("[STRATEGY] selected=%s (default)", ModeDebitSpread)
	return ModeDebitSpread
}

func PromptMode(in io.Reader, out io.Writer) Mode {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Select Strategy:")
	fmt.Fprintln(out, "  1) Debit Spread (hedged)")
	fmt.Fprintln(out, "  2) Option Buying")
	fmt.Fprint(out, "Enter number [Default=1]: ")

	line, _ := bufio.NewReader(in).ReadString('\n')
	if m, ok := ParseMode(line); ok {
		return m
	}
	return ModeDebitSpread
}

func isInteractiveStdin() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
