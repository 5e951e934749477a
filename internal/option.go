package internal

import (
	"io"

	"github.com/starford/bignote/internal/spawn"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	in     io.Reader
	out    io.Writer
	logOut io.Writer
	prompt spawn.Prompt
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithIO sets the terminal used by the command-line subcommands.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *application) {
		a.in = in
		a.out = out
	}
}

// WithLogOutput redirects the JSON log stream.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOut = w
	}
}

// WithPrompt replaces the interactive terminal prompt used by spawn.
func WithPrompt(p spawn.Prompt) Option {
	return func(a *application) {
		a.prompt = p
	}
}
