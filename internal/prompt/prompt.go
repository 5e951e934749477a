// Package prompt asks the user for the choices a spawn needs.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/starford/bignote/internal/apperr"
)

// Terminal prompts on a terminal using huh forms.
type Terminal struct {
	in         io.Reader
	out        io.Writer
	accessible bool
}

// TerminalOption configures a Terminal.
type TerminalOption func(*Terminal)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) TerminalOption {
	return func(t *Terminal) {
		t.in = in
		t.out = out
	}
}

// WithAccessible switches to line-based prompts that work without a TTY.
func WithAccessible(on bool) TerminalOption {
	return func(t *Terminal) { t.accessible = on }
}

// NewTerminal creates a Terminal prompt.
func NewTerminal(opts ...TerminalOption) *Terminal {
	t := &Terminal{}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Terminal) run(ctx context.Context, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).WithAccessible(t.accessible)
	if t.in != nil {
		form = form.WithInput(t.in)
	}
	if t.out != nil {
		form = form.WithOutput(t.out)
	}
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) {
			return apperr.ErrCancelled
		}
		return fmt.Errorf("prompt: %w", err)
	}
	return nil
}

// SelectOne shows a filterable list of options.
func (t *Terminal) SelectOne(ctx context.Context, title string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("prompt: %s: no options: %w", title, apperr.ErrInvalidSelection)
	}
	var choice string
	sel := huh.NewSelect[string]().
		Title(title).
		Options(huh.NewOptions(options...)...).
		Filtering(true).
		Value(&choice)
	if err := t.run(ctx, sel); err != nil {
		return "", err
	}
	return choice, nil
}

// InputText asks for one line of text. Blank input is rejected.
func (t *Terminal) InputText(ctx context.Context, title string) (string, error) {
	var text string
	in := huh.NewInput().
		Title(title).
		Value(&text).
		Validate(ValidateName)
	if err := t.run(ctx, in); err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// ValidateName rejects note names the vault cannot store as a visible file
// in the category folder. Any other character is accepted.
func ValidateName(s string) error {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return errors.New("name is required")
	case strings.ContainsAny(s, `/\`):
		return errors.New("name must not contain a path separator")
	case strings.HasPrefix(s, "."):
		return errors.New("name must not start with a dot")
	}
	return nil
}

// Scripted answers prompts from a fixed list, in order. It reports
// apperr.ErrCancelled once the answers run out.
type Scripted struct {
	answers []string
	asked   []string
}

// NewScripted returns a Scripted prompt holding answers.
func NewScripted(answers ...string) *Scripted {
	return &Scripted{answers: answers}
}

// Asked returns the titles prompted so far.
func (s *Scripted) Asked() []string {
	return s.asked
}

func (s *Scripted) next(ctx context.Context, title string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.ErrCancelled
	}
	s.asked = append(s.asked, title)
	if len(s.answers) == 0 {
		return "", apperr.ErrCancelled
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

// SelectOne returns the next answer, which must be one of options.
func (s *Scripted) SelectOne(ctx context.Context, title string, options []string) (string, error) {
	a, err := s.next(ctx, title)
	if err != nil {
		return "", err
	}
	for _, o := range options {
		if o == a {
			return a, nil
		}
	}
	return "", fmt.Errorf("prompt: %s: %q is not an option: %w", title, a, apperr.ErrInvalidSelection)
}

// InputText returns the next answer.
func (s *Scripted) InputText(ctx context.Context, title string) (string, error) {
	a, err := s.next(ctx, title)
	if err != nil {
		return "", err
	}
	if err := ValidateName(a); err != nil {
		return "", fmt.Errorf("prompt: %s: %v: %w", title, err, apperr.ErrInvalidSelection)
	}
	return strings.TrimSpace(a), nil
}
