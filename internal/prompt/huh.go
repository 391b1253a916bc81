package prompt

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/huh"

	"autotagger/internal/services"
)

// Asker renders a single question and returns the answer.
type Asker interface {
	Input(ctx context.Context, title, value string) (string, error)
	Password(ctx context.Context, title string) (string, error)
	Confirm(ctx context.Context, title string, value bool) (bool, error)
	Select(ctx context.Context, title string, options []string) (int, error)
	MultiSelect(ctx context.Context, title string, options []string) ([]int, error)
}

// HuhAsker renders questions as huh forms.
type HuhAsker struct {
	In         io.Reader
	Out        io.Writer
	Accessible bool
}

var _ Asker = HuhAsker{}

func (h HuhAsker) run(ctx context.Context, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).WithAccessible(h.Accessible)
	if h.In != nil {
		form = form.WithInput(h.In)
	}
	if h.Out != nil {
		form = form.WithOutput(h.Out)
	}
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) {
			return services.Wrap(services.ErrCancelled, "prompt", "ask", "prompt aborted", err)
		}
		return services.Wrap(services.ErrValidation, "prompt", "ask", "read answer", err)
	}
	return nil
}

// Input asks for a line of text, prefilled with value.
func (h HuhAsker) Input(ctx context.Context, title, value string) (string, error) {
	answer := value
	err := h.run(ctx, huh.NewInput().Title(title).Value(&answer))
	return answer, err
}

// Password asks for a secret without echoing it.
func (h HuhAsker) Password(ctx context.Context, title string) (string, error) {
	var answer string
	err := h.run(ctx, huh.NewInput().Title(title).EchoMode(huh.EchoModePassword).Value(&answer))
	return answer, err
}

// Confirm asks a yes/no question with value as the default.
func (h HuhAsker) Confirm(ctx context.Context, title string, value bool) (bool, error) {
	answer := value
	err := h.run(ctx, huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(&answer))
	return answer, err
}

// Select asks for exactly one option and returns its index.
func (h HuhAsker) Select(ctx context.Context, title string, options []string) (int, error) {
	answer := 0
	err := h.run(ctx, huh.NewSelect[int]().Title(title).Options(indexedOptions(options)...).Value(&answer))
	return answer, err
}

// MultiSelect asks for any number of options and returns their indices.
func (h HuhAsker) MultiSelect(ctx context.Context, title string, options []string) ([]int, error) {
	var answer []int
	err := h.run(ctx, huh.NewMultiSelect[int]().Title(title).Options(indexedOptions(options)...).Value(&answer))
	return answer, err
}

func indexedOptions(labels []string) []huh.Option[int] {
	options := make([]huh.Option[int], len(labels))
	for i, label := range labels {
		options[i] = huh.NewOption(label, i)
	}
	return options
}
