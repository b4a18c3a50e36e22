package surface

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/grapher/internal/equation"
)

const consoleHelp = `Enter one equation per line, then a command:
  :apply, :a   plot the buffered equations
  :clear       empty the buffer
  :list        show the buffer
  :quit, :q    close the plotter
`

// Console is a line-oriented equation editor on a reader such as stdin.
type Console struct {
	in      io.Reader
	out     io.Writer
	channel *equation.Channel
	log     *zap.Logger
	buffer  []string
}

// NewConsole creates a console surface.
func NewConsole(in io.Reader, out io.Writer, ch *equation.Channel, log *zap.Logger) *Console {
	return &Console{in: in, out: out, channel: ch, log: log}
}

// SetBuffer replaces the pending buffer, e.g. with the equations already plotted.
func (c *Console) SetBuffer(lines []string) {
	c.buffer = append([]string(nil), lines...)
}

// Buffer returns a copy of the pending lines.
func (c *Console) Buffer() []string {
	return append([]string(nil), c.buffer...)
}

// Run reads lines until EOF, :quit or cancellation.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	errc := make(chan error, 1)

	// The scanner blocks in Read and cannot be interrupted; on cancel it is
	// abandoned and exits with the process.
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	fmt.Fprint(c.out, consoleHelp)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			if err != nil {
				return fmt.Errorf("reading console: %w", err)
			}
			c.log.Info("console input closed")
			return nil
		case line := <-lines:
			if !c.handle(line) {
				return nil
			}
		}
	}
}

// handle processes one input line and reports whether to keep reading.
func (c *Console) handle(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, ":") {
		c.buffer = append(c.buffer, strings.TrimRight(line, "\r"))
		return true
	}

	switch trimmed {
	case ":apply", ":a":
		snap := c.channel.Publish(c.buffer)
		c.log.Debug("equations published", zap.Uint64("seq", snap.Seq), zap.Int("lines", len(snap.Lines)))
		fmt.Fprintf(c.out, "applied %d line(s)\n", len(snap.Lines))
	case ":clear":
		c.buffer = c.buffer[:0]
		fmt.Fprintln(c.out, "buffer cleared")
	case ":list":
		for i, l := range c.buffer {
			fmt.Fprintf(c.out, "%3d  %s\n", i+1, l)
		}
	case ":quit", ":q":
		return false
	case ":help", ":h":
		fmt.Fprint(c.out, consoleHelp)
	default:
		fmt.Fprintf(c.out, "unknown command %q (try :help)\n", trimmed)
	}
	return true
}
