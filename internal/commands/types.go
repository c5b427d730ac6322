// Package commands provides declarative root commands with sub-command
// routing, permission and audience gating, argument validation, help
// rendering and tab completion.
package commands

import (
	"context"
	"fmt"
	"strings"
)

// Declaration is the metadata attached to a root command or sub-command.
type Declaration struct {
	// Name is the canonical name without the leading slash (e.g., "town")
	Name string `json:"name" yaml:"name"`

	// Description is a short description shown in help listings
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Permission is the node a player must hold; empty means none
	Permission string `json:"permission,omitempty" yaml:"permission,omitempty"`

	// PlayerOnly rejects console senders
	PlayerOnly bool `json:"player_only,omitempty" yaml:"player_only,omitempty"`

	// Aliases are alternative labels for root commands
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// Validate checks that the declaration names something.
func (d Declaration) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDeclaration)
	}
	if strings.ContainsAny(d.Name, " \t\n") {
		return fmt.Errorf("%w: name %q contains whitespace", ErrInvalidDeclaration, d.Name)
	}
	return nil
}

// Location is a point in a world, passed to location-aware completers.
type Location struct {
	World string  `json:"world"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
}

// Sender is anything that can invoke a command and receive feedback.
type Sender interface {
	Name() string
	SendMessage(msg string)
}

// Player is a human sender with permissions and a position.
type Player interface {
	Sender
	HasPermission(node string) bool
	Location() Location
}

// Console is the server operator's sender.
type Console interface {
	Sender
	ConsoleSender()
}

// SubCommand is a leaf command instantiated per invocation.
type SubCommand interface {
	// Name is the token that invoked the sub-command
	Name() string

	// Syntax lists the positional arguments the sub-command expects
	Syntax() *Syntax

	OnPlayerUse(ctx context.Context, p Player, args []string)
	OnConsoleUse(ctx context.Context, c Console, args []string)
}

// TabCompleter is implemented by sub-commands that suggest their own
// argument values.
type TabCompleter interface {
	TabComplete(ctx context.Context, sender Sender, alias string, args []string) []string
}

// LocationTabCompleter is the location-aware variant of TabCompleter.
type LocationTabCompleter interface {
	TabCompleteAt(ctx context.Context, sender Sender, alias string, args []string, loc *Location) []string
}

// Factory builds a fresh sub-command instance for the given name token.
type Factory func(name string) SubCommand

// Descriptor is the static registration of a sub-command type.
type Descriptor struct {
	Declaration
	New Factory
}

// Sub pairs a declaration with its factory.
func Sub(decl Declaration, factory Factory) Descriptor {
	return Descriptor{Declaration: decl, New: factory}
}

// HelpRenderer lists sub-commands when no sub-command resolves.
type HelpRenderer interface {
	RenderHelp(ctx context.Context, sender Sender, root *Core, subs []SubCommand)
}

// HelpRendererFunc adapts a function to HelpRenderer.
type HelpRendererFunc func(ctx context.Context, sender Sender, root *Core, subs []SubCommand)

// RenderHelp calls f.
func (f HelpRendererFunc) RenderHelp(ctx context.Context, sender Sender, root *Core, subs []SubCommand) {
	f(ctx, sender, root, subs)
}

// Definition is implemented by each concrete root command.
type Definition interface {
	HelpRenderer
	Declaration() Declaration
	Subcommands() []Descriptor
}

// Outcome describes how a dispatch ended.
type Outcome int

const (
	// OutcomeExecuted means a sub-command handler ran
	OutcomeExecuted Outcome = iota
	// OutcomeUsage means arguments were missing or rejected
	OutcomeUsage
	// OutcomeHelp means no sub-command resolved and help was rendered
	OutcomeHelp
	// OutcomeNoPermission means a permission gate failed
	OutcomeNoPermission
	// OutcomePlayerOnly means a console sender hit a player-only gate
	OutcomePlayerOnly
	// OutcomeUnsupportedSender means the sender is neither player nor console
	OutcomeUnsupportedSender
	// OutcomeConfigError means the sub-command could not be built
	OutcomeConfigError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExecuted:
		return "executed"
	case OutcomeUsage:
		return "usage"
	case OutcomeHelp:
		return "help"
	case OutcomeNoPermission:
		return "no_permission"
	case OutcomePlayerOnly:
		return "player_only"
	case OutcomeUnsupportedSender:
		return "unsupported_sender"
	case OutcomeConfigError:
		return "config_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}
