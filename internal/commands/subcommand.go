package commands

import (
	"context"

	"github.com/haasonsaas/cmdtree/internal/chat"
)

// Base is embedded by sub-command implementations. It supplies Name, Syntax,
// syntax-driven tab completion and a console handler that refuses the call.
type Base struct {
	name   string
	syntax *Syntax
}

// NewBase creates a Base for the invoked name and its syntax.
func NewBase(name string, syntax *Syntax) Base {
	if syntax == nil {
		syntax = NewSyntax()
	}
	return Base{name: name, syntax: syntax}
}

// Name implements SubCommand.
func (b Base) Name() string { return b.name }

// Syntax implements SubCommand.
func (b Base) Syntax() *Syntax { return b.syntax }

// TabComplete implements TabCompleter from the syntax's suggesters.
func (b Base) TabComplete(ctx context.Context, sender Sender, alias string, args []string) []string {
	return b.syntax.Suggest(args)
}

// OnConsoleUse is the default for sub-commands declared player-only.
func (b Base) OnConsoleUse(ctx context.Context, c Console, args []string) {
	c.SendMessage(chat.Red.Wrap(msgPlayerOnly))
}
