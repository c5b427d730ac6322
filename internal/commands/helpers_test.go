package commands

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/haasonsaas/cmdtree/internal/chat"
)

type testPlayer struct {
	name     string
	perms    map[string]bool
	loc      Location
	messages []string
}

func newTestPlayer(name string, perms ...string) *testPlayer {
	p := &testPlayer{name: name, perms: make(map[string]bool)}
	for _, node := range perms {
		p.perms[node] = true
	}
	return p
}

func (p *testPlayer) Name() string                   { return p.name }
func (p *testPlayer) SendMessage(msg string)         { p.messages = append(p.messages, msg) }
func (p *testPlayer) HasPermission(node string) bool { return p.perms[node] }
func (p *testPlayer) Location() Location             { return p.loc }

type testConsole struct {
	messages []string
}

func (c *testConsole) Name() string           { return "CONSOLE" }
func (c *testConsole) SendMessage(msg string) { c.messages = append(c.messages, msg) }
func (c *testConsole) ConsoleSender()         {}

// commandBlock is neither a player nor the console.
type commandBlock struct {
	messages []string
}

func (b *commandBlock) Name() string           { return "@" }
func (b *commandBlock) SendMessage(msg string) { b.messages = append(b.messages, msg) }

func plain(messages []string) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = chat.Strip(m)
	}
	return out
}

func lastMessage(messages []string) string {
	if len(messages) == 0 {
		return ""
	}
	return chat.Strip(messages[len(messages)-1])
}

// call records what a sub-command handler received.
type call struct {
	audience string
	sender   string
	args     []string
}

type spySub struct {
	Base
	calls *[]call
}

func (s *spySub) OnPlayerUse(ctx context.Context, p Player, args []string) {
	*s.calls = append(*s.calls, call{audience: "player", sender: p.Name(), args: args})
}

func (s *spySub) OnConsoleUse(ctx context.Context, c Console, args []string) {
	*s.calls = append(*s.calls, call{audience: "console", sender: c.Name(), args: args})
}

type testDefinition struct {
	decl  Declaration
	subs  []Descriptor
	helps int
	seen  []string
}

func (d *testDefinition) Declaration() Declaration  { return d.decl }
func (d *testDefinition) Subcommands() []Descriptor { return d.subs }

func (d *testDefinition) RenderHelp(ctx context.Context, sender Sender, root *Core, subs []SubCommand) {
	d.helps++
	d.seen = d.seen[:0]
	for _, s := range subs {
		d.seen = append(d.seen, s.Name())
	}
	sender.SendMessage("help: " + strings.Join(d.seen, ","))
}

// townFixture mirrors a typical plugin root: /town with create (player
// only, one required name), info (optional name) and delete (admin node).
func townFixture(calls *[]call) *testDefinition {
	spy := func(syntax func() *Syntax) Factory {
		return func(name string) SubCommand {
			return &spySub{Base: NewBase(name, syntax()), calls: calls}
		}
	}
	return &testDefinition{
		decl: Declaration{Name: "town", Description: "Manage towns", Permission: "town.use"},
		subs: []Descriptor{
			Sub(Declaration{Name: "create", Description: "Found a town", PlayerOnly: true},
				spy(func() *Syntax { return NewSyntax(NewStringArgument("name", Required).Length(3, 16)) })),
			Sub(Declaration{Name: "info", Description: "Show a town"},
				spy(func() *Syntax { return NewSyntax(NewStringArgument("name", Optional)) })),
			Sub(Declaration{Name: "delete", Description: "Remove a town", Permission: "town.admin"},
				spy(func() *Syntax { return NewSyntax(NewStringArgument("name", Required)) })),
		},
	}
}

type fakeRecorder struct {
	mu          sync.Mutex
	dispatches  []string
	completions int
	configErrs  []string
}

func (r *fakeRecorder) RecordDispatch(root, sub, outcome string, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatches = append(r.dispatches, root+"/"+sub+"/"+outcome)
}

func (r *fakeRecorder) RecordCompletion(root string, suggestions int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completions++
}

func (r *fakeRecorder) RecordConfigError(root, sub string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configErrs = append(r.configErrs, root+"/"+sub)
}
