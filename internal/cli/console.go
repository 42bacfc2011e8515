package cli

import (
	"bufio"
	"io"
	"strings"
)

// consoleNotifier shows operator messages on the terminal and reads
// confirmations from the input stream.
type consoleNotifier struct {
	p       *printer
	in      *bufio.Reader
	autoYes bool
}

func newConsoleNotifier(p *printer, in io.Reader, autoYes bool) *consoleNotifier {
	return &consoleNotifier{p: p, in: bufio.NewReader(in), autoYes: autoYes}
}

// Inform prints msg, one line per message line.
func (n *consoleNotifier) Inform(msg string) {
	for _, line := range strings.Split(msg, "\n") {
		_, _ = infoColor.Fprintf(n.p.out, "  %s\n", line)
	}
}

// Confirm prints msg and waits for an answer. Skipping optional groups is
// the normal course of a run, so an empty answer or end of input proceeds;
// only n or no stops it.
func (n *consoleNotifier) Confirm(msg string) bool {
	n.p.Warning(msg)
	if n.autoYes {
		_, _ = dimColor.Fprintln(n.p.out, "  yes (--yes)")
		return true
	}

	for {
		_, _ = labelColor.Fprint(n.p.out, "  [Y/n]: ")
		line, err := n.in.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "", "y", "yes":
			return true
		case "n", "no":
			return false
		}
		if err != nil {
			return true
		}
	}
}
