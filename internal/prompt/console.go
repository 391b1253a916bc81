package prompt

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"

	"autotagger/internal/logging"
	"autotagger/internal/services"
	"autotagger/internal/taskqueue"
)

// Option configures a Console.
type Option func(*Console)

// WithAsker replaces the huh renderer (primarily for tests).
func WithAsker(asker Asker) Option {
	return func(c *Console) {
		if asker != nil {
			c.asker = asker
		}
	}
}

// WithOutput redirects notices and previews.
func WithOutput(w io.Writer) Option {
	return func(c *Console) {
		if w != nil {
			c.out = w
		}
	}
}

// WithPager sets the binary used to page subtitle previews.
func WithPager(binary string) Option {
	return func(c *Console) {
		c.pager = strings.TrimSpace(binary)
	}
}

// WithInteractive overrides terminal detection.
func WithInteractive(interactive bool) Option {
	return func(c *Console) {
		c.interactive = interactive
	}
}

// WithLogger attaches a logger for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Console is the process-wide interactive terminal.
type Console struct {
	asker       Asker
	out         io.Writer
	pager       string
	interactive bool
	logger      *slog.Logger
	queue       *taskqueue.Queue
}

// New builds a console reading from stdin and writing to stdout. When stdin is
// not a terminal huh runs in accessible (line based) mode and previews are
// printed instead of paged.
func New(ctx context.Context, opts ...Option) *Console {
	interactive := isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
	c := &Console{
		asker:       HuhAsker{In: os.Stdin, Out: os.Stdout, Accessible: !interactive},
		out:         os.Stdout,
		pager:       "less",
		interactive: interactive,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.queue = taskqueue.New(ctx, taskqueue.WithName("console"), taskqueue.WithLogger(c.logger))
	return c
}

// Close stops the console queue after pending prompts finish.
func (c *Console) Close() {
	c.queue.Close()
	<-c.queue.Done()
}

// Interactive reports whether stdin and stdout are terminals.
func (c *Console) Interactive() bool {
	return c.interactive
}

// Printf writes a notice line.
func (c *Console) Printf(ctx context.Context, format string, args ...any) error {
	line := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	return c.queue.Do(ctx, func(context.Context) error {
		_, err := io.WriteString(c.out, line)
		return err
	})
}

// Input asks for a line of text.
func (c *Console) Input(ctx context.Context, title, value string) (string, error) {
	var answer string
	err := c.queue.Do(ctx, func(context.Context) error {
		var err error
		answer, err = c.asker.Input(ctx, title, value)
		return err
	})
	return strings.TrimSpace(answer), err
}

// Password asks for a secret.
func (c *Console) Password(ctx context.Context, title string) (string, error) {
	var answer string
	err := c.queue.Do(ctx, func(context.Context) error {
		var err error
		answer, err = c.asker.Password(ctx, title)
		return err
	})
	return answer, err
}

// Confirm asks a yes/no question.
func (c *Console) Confirm(ctx context.Context, title string, value bool) (bool, error) {
	var answer bool
	err := c.queue.Do(ctx, func(context.Context) error {
		var err error
		answer, err = c.asker.Confirm(ctx, title, value)
		return err
	})
	return answer, err
}

// Select asks the user to pick one label and returns its index.
func (c *Console) Select(ctx context.Context, title string, labels []string) (int, error) {
	if len(labels) == 0 {
		return -1, services.Wrap(services.ErrNotFound, "prompt", "select", "nothing to choose from", nil)
	}
	var answer int
	err := c.queue.Do(ctx, func(context.Context) error {
		var err error
		answer, err = c.asker.Select(ctx, title, labels)
		return err
	})
	if err != nil {
		return -1, err
	}
	if answer < 0 || answer >= len(labels) {
		return -1, services.Wrap(services.ErrValidation, "prompt", "select", fmt.Sprintf("choice %d out of range", answer), nil)
	}
	return answer, nil
}

// MultiSelect asks the user to pick any number of labels and returns their
// indices in ascending order without duplicates.
func (c *Console) MultiSelect(ctx context.Context, title string, labels []string) ([]int, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	var answer []int
	err := c.queue.Do(ctx, func(context.Context) error {
		var err error
		answer, err = c.asker.MultiSelect(ctx, title, labels)
		return err
	})
	if err != nil {
		return nil, err
	}
	seen := make(map[int]struct{}, len(answer))
	picked := make([]int, 0, len(answer))
	for _, idx := range answer {
		if idx < 0 || idx >= len(labels) {
			return nil, services.Wrap(services.ErrValidation, "prompt", "multiselect", fmt.Sprintf("choice %d out of range", idx), nil)
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		picked = append(picked, idx)
	}
	sort.Ints(picked)
	return picked, nil
}

// Preview shows text in the pager, or prints it when the console is not
// interactive or no pager is configured.
func (c *Console) Preview(ctx context.Context, text string) error {
	return c.queue.Do(ctx, func(context.Context) error {
		if !c.interactive || c.pager == "" {
			_, err := io.WriteString(c.out, text)
			return err
		}
		cmd := exec.CommandContext(ctx, c.pager)
		cmd.Stdin = strings.NewReader(text)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			logging.WarnWithContext(c.logger, "pager failed", "pager_failed",
				logging.String("pager", c.pager),
				logging.Error(err),
				logging.String(logging.FieldImpact, "preview printed without paging"),
			)
			_, werr := io.WriteString(c.out, text)
			return werr
		}
		return nil
	})
}
