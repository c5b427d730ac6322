// Package host provides a reference runtime for root commands: a command map
// that routes chat and console lines to registered roots, and the sender
// types that receive feedback.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"

	"github.com/haasonsaas/cmdtree/internal/chat"
	"github.com/haasonsaas/cmdtree/internal/commands"
	"github.com/haasonsaas/cmdtree/internal/observability"
)

var (
	// ErrCommandExists is returned when a name or alias is already taken.
	ErrCommandExists = errors.New("command already registered")

	// ErrUnknownCommand is returned when a label does not resolve.
	ErrUnknownCommand = errors.New("unknown command")
)

// maxSuggestDistance is the largest edit distance offered as a suggestion.
const maxSuggestDistance = 2

// Command is a root command the map can route to. *commands.Core
// implements it.
type Command interface {
	Name() string
	Declaration() commands.Declaration
	Execute(ctx context.Context, sender commands.Sender, label string, args []string) bool
	TabComplete(ctx context.Context, sender commands.Sender, alias string, args []string) []string
	TabCompleteAt(ctx context.Context, sender commands.Sender, alias string, args []string, loc *commands.Location) []string
}

// Recorder receives host-level measurements.
type Recorder interface {
	RecordUnknownCommand()
	SetRegisteredCommands(n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordUnknownCommand()     {}
func (nopRecorder) SetRegisteredCommands(int) {}

// CommandMap holds the process-wide set of root commands keyed by name and
// alias. Labels resolve case-insensitively.
type CommandMap struct {
	mu       sync.RWMutex
	commands map[string]Command
	aliases  map[string]string

	parser   *commands.Parser
	logger   *slog.Logger
	recorder Recorder
}

// Option configures a CommandMap.
type Option func(*CommandMap)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *CommandMap) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(m *CommandMap) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithPrefixes sets the command prefixes stripped from incoming lines.
func WithPrefixes(prefixes ...string) Option {
	return func(m *CommandMap) {
		m.parser = commands.NewParser(prefixes...)
	}
}

// NewCommandMap creates an empty command map.
func NewCommandMap(opts ...Option) *CommandMap {
	m := &CommandMap{
		commands: make(map[string]Command),
		aliases:  make(map[string]string),
		parser:   commands.NewParser(),
		logger:   slog.Default(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "host")
	return m
}

// Parser returns the line parser used by the map.
func (m *CommandMap) Parser() *commands.Parser {
	return m.parser
}

// Register adds cmd under its name and aliases. Nothing is registered if any
// label is already taken.
func (m *CommandMap) Register(cmd Command) error {
	if cmd == nil {
		return fmt.Errorf("register: %w", commands.ErrInvalidDeclaration)
	}
	decl := cmd.Declaration()
	name := strings.ToLower(decl.Name)
	if err := decl.Validate(); err != nil {
		return fmt.Errorf("register %q: %w", decl.Name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.taken(name) {
		return fmt.Errorf("register %q: %w", decl.Name, ErrCommandExists)
	}
	aliases := make([]string, 0, len(decl.Aliases))
	seen := map[string]bool{name: true}
	for _, alias := range decl.Aliases {
		alias = strings.ToLower(strings.TrimSpace(alias))
		if alias == "" || seen[alias] {
			continue
		}
		if m.taken(alias) {
			return fmt.Errorf("register %q alias %q: %w", decl.Name, alias, ErrCommandExists)
		}
		seen[alias] = true
		aliases = append(aliases, alias)
	}

	m.commands[name] = cmd
	for _, alias := range aliases {
		m.aliases[alias] = name
	}
	m.recorder.SetRegisteredCommands(len(m.commands))
	m.logger.Debug("registered command", "command", name, "aliases", aliases)
	return nil
}

func (m *CommandMap) taken(label string) bool {
	if _, ok := m.commands[label]; ok {
		return true
	}
	_, ok := m.aliases[label]
	return ok
}

// Unregister removes the command named name along with its aliases.
func (m *CommandMap) Unregister(name string) error {
	name = strings.ToLower(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.commands[name]; !ok {
		return fmt.Errorf("unregister %q: %w", name, ErrUnknownCommand)
	}
	delete(m.commands, name)
	for alias, target := range m.aliases {
		if target == name {
			delete(m.aliases, alias)
		}
	}
	m.recorder.SetRegisteredCommands(len(m.commands))
	m.logger.Debug("unregistered command", "command", name)
	return nil
}

// Close unregisters every command.
func (m *CommandMap) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = make(map[string]Command)
	m.aliases = make(map[string]string)
	m.recorder.SetRegisteredCommands(0)
	return nil
}

// Lookup resolves a label (name or alias, any case).
func (m *CommandMap) Lookup(label string) (Command, bool) {
	label = strings.ToLower(label)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if cmd, ok := m.commands[label]; ok {
		return cmd, true
	}
	if target, ok := m.aliases[label]; ok {
		cmd, ok := m.commands[target]
		return cmd, ok
	}
	return nil, false
}

// Commands returns the registered commands sorted by name.
func (m *CommandMap) Commands() []Command {
	m.mu.RLock()
	out := make([]Command, 0, len(m.commands))
	for _, cmd := range m.commands {
		out = append(out, cmd)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name() < out[j].Name()
	})
	return out
}

// labels returns every name and alias.
func (m *CommandMap) labels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.commands)+len(m.aliases))
	for name := range m.commands {
		out = append(out, name)
	}
	for alias := range m.aliases {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// Dispatch parses line and executes the matching root command. The prefix is
// optional. An unknown label is reported to the sender, with a suggestion
// when a registered label is close, and returned as ErrUnknownCommand.
func (m *CommandMap) Dispatch(ctx context.Context, sender commands.Sender, line string) error {
	parsed := m.parser.ParseLine(line)
	if parsed == nil {
		return nil
	}
	ctx = observability.WithSender(ctx, sender.Name())
	args := trimTrailingEmpty(parsed.Args)

	cmd, ok := m.Lookup(parsed.Label)
	if !ok {
		m.recorder.RecordUnknownCommand()
		msg := "Unknown command."
		if suggestion, ok := m.Suggest(parsed.Label); ok {
			msg += " Did you mean /" + suggestion + "?"
		}
		sender.SendMessage(chat.Red.Wrap(msg))
		m.logger.DebugContext(ctx, "unknown command", "label", parsed.Label)
		return fmt.Errorf("%q: %w", parsed.Label, ErrUnknownCommand)
	}

	cmd.Execute(ctx, sender, parsed.Label, args)
	return nil
}

// trimTrailingEmpty drops the empty token Tokenize appends for a trailing
// space; it only matters for completion.
func trimTrailingEmpty(args []string) []string {
	if n := len(args); n > 0 && args[n-1] == "" {
		return args[:n-1]
	}
	return args
}

// Suggest returns the registered label closest to label, if any is within
// a small edit distance.
func (m *CommandMap) Suggest(label string) (string, bool) {
	label = strings.ToLower(label)
	best, bestDist := "", maxSuggestDistance+1
	for _, candidate := range m.labels() {
		if d := levenshtein.ComputeDistance(label, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best, best != ""
}

// Complete returns completions for the last token of line. The first token
// completes against registered labels the sender may use; later tokens are
// delegated to the root command.
func (m *CommandMap) Complete(ctx context.Context, sender commands.Sender, line string) []string {
	body := strings.TrimLeft(line, " \t")
	for _, prefix := range m.parser.Prefixes() {
		if strings.HasPrefix(body, prefix) {
			body = strings.TrimPrefix(body, prefix)
			break
		}
	}

	tokens := commands.Tokenize(body)
	switch len(tokens) {
	case 0:
		return m.completeLabel(sender, "")
	case 1:
		return m.completeLabel(sender, tokens[0])
	}

	cmd, ok := m.Lookup(tokens[0])
	if !ok {
		return []string{}
	}
	if p, ok := sender.(commands.Player); ok {
		loc := p.Location()
		return cmd.TabCompleteAt(ctx, sender, tokens[0], tokens[1:], &loc)
	}
	return cmd.TabComplete(ctx, sender, tokens[0], tokens[1:])
}

func (m *CommandMap) completeLabel(sender commands.Sender, partial string) []string {
	player, isPlayer := sender.(commands.Player)
	out := []string{}
	for _, label := range commands.FilterPrefix(m.labels(), partial) {
		if isPlayer {
			cmd, ok := m.Lookup(label)
			if !ok {
				continue
			}
			if node := cmd.Declaration().Permission; node != "" && !player.HasPermission(node) {
				continue
			}
		}
		out = append(out, label)
	}
	return out
}
