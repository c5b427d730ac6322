package host

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/haasonsaas/cmdtree/internal/chat"
	"github.com/haasonsaas/cmdtree/internal/commands"
)

// ConsoleName is the name reported by the console sender.
const ConsoleName = "CONSOLE"

// ConsoleSender writes feedback to a terminal or log stream.
type ConsoleSender struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

// NewConsoleSender creates a console sender writing to out. When color is
// false, colour codes are stripped.
func NewConsoleSender(out io.Writer, color bool) *ConsoleSender {
	return &ConsoleSender{out: out, color: color}
}

// ColorEnabled reports whether f is a terminal that should receive colour.
func ColorEnabled(f *os.File) bool {
	if f == nil || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Name implements commands.Sender.
func (c *ConsoleSender) Name() string { return ConsoleName }

// SendMessage implements commands.Sender.
func (c *ConsoleSender) SendMessage(msg string) {
	if c.color {
		msg = chat.Render(msg)
	} else {
		msg = chat.Strip(msg)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, msg)
}

// ConsoleSender implements commands.Console.
func (c *ConsoleSender) ConsoleSender() {}

// PermissionChecker answers permission checks for a subject.
type PermissionChecker interface {
	Has(ctx context.Context, subject, node string) bool
}

// PlayerSender is a player backed by a permission checker and a delivery
// function (a terminal, a chat channel).
type PlayerSender struct {
	name    string
	subject string
	perms   PermissionChecker
	deliver func(msg string)

	mu  sync.RWMutex
	loc commands.Location
}

// NewPlayerSender creates a player. subject keys the permission lookup,
// e.g. "player:Steve" or "discord:1234".
func NewPlayerSender(name, subject string, perms PermissionChecker, deliver func(msg string)) *PlayerSender {
	if deliver == nil {
		deliver = func(string) {}
	}
	return &PlayerSender{name: name, subject: subject, perms: perms, deliver: deliver}
}

// Name implements commands.Sender.
func (p *PlayerSender) Name() string { return p.name }

// Subject returns the permission subject.
func (p *PlayerSender) Subject() string { return p.subject }

// SendMessage implements commands.Sender.
func (p *PlayerSender) SendMessage(msg string) { p.deliver(msg) }

// HasPermission implements commands.Player. A player without a checker
// holds no nodes.
func (p *PlayerSender) HasPermission(node string) bool {
	if node == "" {
		return true
	}
	if p.perms == nil {
		return false
	}
	return p.perms.Has(context.Background(), p.subject, node)
}

// Location implements commands.Player.
func (p *PlayerSender) Location() commands.Location {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loc
}

// MoveTo updates the player's location.
func (p *PlayerSender) MoveTo(loc commands.Location) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loc = loc
}

var (
	_ commands.Console = (*ConsoleSender)(nil)
	_ commands.Player  = (*PlayerSender)(nil)
)
