package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
)

var (
	// ErrInvalidDeclaration is returned when a command or sub-command is
	// missing required declaration metadata or a factory.
	ErrInvalidDeclaration = errors.New("invalid command declaration")

	// ErrDuplicateSubcommand is returned when two descriptors share a name.
	ErrDuplicateSubcommand = errors.New("duplicate sub-command")
)

// Recorder receives dispatch and completion measurements.
type Recorder interface {
	RecordDispatch(root, sub, outcome string, elapsed time.Duration)
	RecordCompletion(root string, suggestions int)
	RecordConfigError(root, sub string)
}

type nopRecorder struct{}

func (nopRecorder) RecordDispatch(string, string, string, time.Duration) {}
func (nopRecorder) RecordCompletion(string, int)                          {}
func (nopRecorder) RecordConfigError(string, string)                      {}

// Core is a root command. It owns the declared sub-command descriptors,
// which are fixed once New returns, and routes invocations to them.
type Core struct {
	decl     Declaration
	subs     []Descriptor
	index    map[string]int
	help     HelpRenderer
	logger   *slog.Logger
	recorder Recorder
	tracer   trace.Tracer
}

// Option configures a Core.
type Option func(*Core)

// WithLogger sets the logger used for configuration errors and dispatch
// tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Core) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Core) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithTracer sets the tracer used for dispatch spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Core) {
		if t != nil {
			c.tracer = t
		}
	}
}

// New builds a root command from def. Every descriptor must carry a valid
// declaration and a factory; all problems are reported together.
func New(def Definition, opts ...Option) (*Core, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: definition is nil", ErrInvalidDeclaration)
	}

	decl := def.Declaration()
	var errs error
	if err := decl.Validate(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("root: %w", err))
	}

	declared := def.Subcommands()
	subs := make([]Descriptor, 0, len(declared))
	index := make(map[string]int, len(declared))
	for i, d := range declared {
		if err := d.Validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sub-command #%d: %w", i, err))
			continue
		}
		if d.New == nil {
			errs = multierr.Append(errs, fmt.Errorf("sub-command %q: %w: factory is nil", d.Name, ErrInvalidDeclaration))
			continue
		}
		if _, exists := index[d.Name]; exists {
			errs = multierr.Append(errs, fmt.Errorf("%w: %q", ErrDuplicateSubcommand, d.Name))
			continue
		}
		index[d.Name] = len(subs)
		subs = append(subs, d)
	}
	if errs != nil {
		return nil, fmt.Errorf("command %q: %w", decl.Name, errs)
	}

	c := &Core{
		decl:     decl,
		subs:     subs,
		index:    index,
		help:     def,
		logger:   slog.Default(),
		recorder: nopRecorder{},
		tracer:   otel.Tracer("github.com/haasonsaas/cmdtree/internal/commands"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "commands", "command", decl.Name)
	return c, nil
}

// MustNew is like New but panics on error. Use it for built-in definitions.
func MustNew(def Definition, opts ...Option) *Core {
	c, err := New(def, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the canonical root name.
func (c *Core) Name() string { return c.decl.Name }

// Declaration returns the root declaration.
func (c *Core) Declaration() Declaration { return c.decl }

// PlayerOnly reports whether console senders are rejected for every
// sub-command.
func (c *Core) PlayerOnly() bool { return c.decl.PlayerOnly }

// Usage is the fixed root usage string.
func (c *Core) Usage() string {
	return "/" + c.decl.Name + " <sub> <args>"
}

// SubUsage renders "/<root> <sub> <placeholders>".
func (c *Core) SubUsage(sub SubCommand) string {
	usage := "/" + c.decl.Name + " " + sub.Name()
	if placeholders := sub.Syntax().String(); placeholders != "" {
		usage += " " + placeholders
	}
	return usage
}

// Resolve finds the descriptor whose canonical name equals token exactly.
func (c *Core) Resolve(token string) (Descriptor, bool) {
	i, ok := c.index[token]
	if !ok {
		return Descriptor{}, false
	}
	return c.subs[i], true
}

// Describe returns the declaration of the named sub-command.
func (c *Core) Describe(name string) (Declaration, bool) {
	d, ok := c.Resolve(name)
	return d.Declaration, ok
}

// Descriptors returns the declared descriptors in order.
func (c *Core) Descriptors() []Descriptor {
	out := make([]Descriptor, len(c.subs))
	copy(out, c.subs)
	return out
}

// Names returns the canonical sub-command names in declaration order.
func (c *Core) Names() []string {
	names := make([]string, len(c.subs))
	for i, d := range c.subs {
		names[i] = d.Name
	}
	return names
}

// String implements fmt.Stringer.
func (c *Core) String() string {
	return fmt.Sprintf("/%s [%s]", c.decl.Name, strings.Join(c.Names(), "|"))
}
