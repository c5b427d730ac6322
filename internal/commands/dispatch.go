package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/haasonsaas/cmdtree/internal/chat"
	"github.com/haasonsaas/cmdtree/internal/observability"
)

const (
	msgUsage        = "Invalid usage. Use %s"
	msgNoPermission = "You do not have permission to do that!"
	msgPlayerOnly   = "This command can only be used by a player!"
	msgUnsupported  = "This command cannot be used from here."
)

// Execute is the host entry point. It always reports the invocation as
// handled; failures reach the sender as chat messages.
func (c *Core) Execute(ctx context.Context, sender Sender, label string, args []string) bool {
	if observability.InvocationID(ctx) == "" {
		ctx = observability.WithInvocationID(ctx, uuid.NewString())
	}
	c.Dispatch(ctx, sender, args)
	return true
}

// Dispatch routes args (the tokens after the root label) and reports how the
// invocation ended.
func (c *Core) Dispatch(ctx context.Context, sender Sender, args []string) Outcome {
	start := time.Now()
	ctx = observability.WithSender(ctx, sender.Name())
	ctx, span := c.tracer.Start(ctx, "commands.dispatch",
		trace.WithAttributes(
			attribute.String("command.root", c.decl.Name),
			attribute.Int("command.args", len(args)),
		))
	defer span.End()

	outcome, sub := c.dispatch(ctx, sender, args)

	span.SetAttributes(
		attribute.String("command.sub", sub),
		attribute.String("command.outcome", outcome.String()),
	)
	c.recorder.RecordDispatch(c.decl.Name, sub, outcome.String(), time.Since(start))
	c.logger.DebugContext(ctx, "dispatched command",
		"sub", sub,
		"outcome", outcome.String(),
		"duration", time.Since(start))
	return outcome
}

func (c *Core) dispatch(ctx context.Context, sender Sender, args []string) (Outcome, string) {
	if len(args) == 0 {
		sender.SendMessage(chat.Red.Wrap(fmt.Sprintf(msgUsage, c.Usage())))
		return OutcomeUsage, ""
	}

	desc, ok := c.Resolve(args[0])
	if !ok {
		c.renderHelp(ctx, sender)
		return OutcomeHelp, ""
	}
	subArgs := args[1:]

	switch s := sender.(type) {
	case Player:
		return c.dispatchPlayer(ctx, s, desc, subArgs), desc.Name
	case Console:
		return c.dispatchConsole(ctx, s, desc, subArgs), desc.Name
	default:
		sender.SendMessage(chat.Red.Wrap(msgUnsupported))
		return OutcomeUnsupportedSender, desc.Name
	}
}

func (c *Core) dispatchPlayer(ctx context.Context, p Player, desc Descriptor, args []string) Outcome {
	if !permitted(p, c.decl.Permission) || !permitted(p, desc.Permission) {
		p.SendMessage(chat.Red.Wrap(msgNoPermission))
		return OutcomeNoPermission
	}
	sub, ok := c.instantiate(ctx, desc)
	if !ok {
		return OutcomeConfigError
	}
	if !c.checkSyntax(p, sub, args) {
		return OutcomeUsage
	}
	sub.OnPlayerUse(ctx, p, args)
	return OutcomeExecuted
}

func (c *Core) dispatchConsole(ctx context.Context, console Console, desc Descriptor, args []string) Outcome {
	if c.decl.PlayerOnly || desc.PlayerOnly {
		console.SendMessage(chat.Red.Wrap(msgPlayerOnly))
		return OutcomePlayerOnly
	}
	sub, ok := c.instantiate(ctx, desc)
	if !ok {
		return OutcomeConfigError
	}
	if !c.checkSyntax(console, sub, args) {
		return OutcomeUsage
	}
	sub.OnConsoleUse(ctx, console, args)
	return OutcomeExecuted
}

func permitted(p Player, node string) bool {
	return node == "" || p.HasPermission(node)
}

func (c *Core) checkSyntax(sender Sender, sub SubCommand, args []string) bool {
	if sub.Syntax().Check(args) {
		return true
	}
	sender.SendMessage(chat.Red.Wrap(fmt.Sprintf(msgUsage, c.SubUsage(sub))))
	return false
}

// instantiate builds a sub-command with its canonical name. A factory that
// produces nothing is a programming error: it is logged and counted, and the
// sender is told nothing.
func (c *Core) instantiate(ctx context.Context, desc Descriptor) (SubCommand, bool) {
	return c.instantiateAs(ctx, desc, desc.Name)
}

func (c *Core) instantiateAs(ctx context.Context, desc Descriptor, name string) (SubCommand, bool) {
	sub := desc.New(name)
	if sub == nil {
		c.logger.ErrorContext(ctx, "sub-command factory returned nil",
			"sub", desc.Name,
			"error", ErrInvalidDeclaration)
		c.recorder.RecordConfigError(c.decl.Name, desc.Name)
		return nil, false
	}
	return sub, true
}

// renderHelp instantiates one sub-command per descriptor, each with its own
// canonical name, and hands the list to the definition's renderer.
func (c *Core) renderHelp(ctx context.Context, sender Sender) {
	subs := make([]SubCommand, 0, len(c.subs))
	for _, desc := range c.subs {
		if sub, ok := c.instantiate(ctx, desc); ok {
			subs = append(subs, sub)
		}
	}
	c.help.RenderHelp(ctx, sender, c, subs)
}
