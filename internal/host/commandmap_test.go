package host

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/haasonsaas/cmdtree/internal/chat"
	"github.com/haasonsaas/cmdtree/internal/commands"
	"github.com/haasonsaas/cmdtree/internal/permissions"
)

type echoSub struct {
	commands.Base
}

func (e *echoSub) OnPlayerUse(ctx context.Context, p commands.Player, args []string) {
	p.SendMessage(e.Name() + ":" + strings.Join(args, ","))
}

func (e *echoSub) OnConsoleUse(ctx context.Context, c commands.Console, args []string) {
	c.SendMessage(e.Name() + ":" + strings.Join(args, ","))
}

type echoDefinition struct {
	decl commands.Declaration
}

func (d echoDefinition) Declaration() commands.Declaration { return d.decl }

func (d echoDefinition) Subcommands() []commands.Descriptor {
	factory := func(name string) commands.SubCommand {
		return &echoSub{Base: commands.NewBase(name, commands.NewSyntax(
			commands.NewChoiceArgument("color", commands.Optional, "red", "green", "blue"),
		))}
	}
	return []commands.Descriptor{
		commands.Sub(commands.Declaration{Name: "say"}, factory),
		commands.Sub(commands.Declaration{Name: "shout"}, factory),
	}
}

func (d echoDefinition) RenderHelp(ctx context.Context, sender commands.Sender, root *commands.Core, subs []commands.SubCommand) {
	sender.SendMessage("help for " + root.Name())
}

func newEcho(t *testing.T, name, perm string, aliases ...string) *commands.Core {
	t.Helper()
	core, err := commands.New(echoDefinition{decl: commands.Declaration{Name: name, Permission: perm, Aliases: aliases}})
	if err != nil {
		t.Fatalf("commands.New() error = %v", err)
	}
	return core
}

type recordingSender struct {
	messages []string
}

func (r *recordingSender) Name() string           { return ConsoleName }
func (r *recordingSender) SendMessage(msg string) { r.messages = append(r.messages, chat.Strip(msg)) }
func (r *recordingSender) ConsoleSender()         {}

type fakeRecorder struct {
	unknown    int
	registered int
}

func (f *fakeRecorder) RecordUnknownCommand()       { f.unknown++ }
func (f *fakeRecorder) SetRegisteredCommands(n int) { f.registered = n }

func TestCommandMap_Register(t *testing.T) {
	rec := &fakeRecorder{}
	m := NewCommandMap(WithRecorder(rec))

	if err := m.Register(newEcho(t, "echo", "", "e", "E", "say")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := m.Register(newEcho(t, "ping", "")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if rec.registered != 2 {
		t.Errorf("registered gauge = %d, want 2", rec.registered)
	}

	tests := []struct {
		name string
		cmd  commands.Definition
	}{
		{"duplicate name", echoDefinition{decl: commands.Declaration{Name: "ECHO"}}},
		{"name collides with alias", echoDefinition{decl: commands.Declaration{Name: "e"}}},
		{"alias collides with name", echoDefinition{decl: commands.Declaration{Name: "other", Aliases: []string{"ping"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Register(commands.MustNew(tt.cmd))
			if !errors.Is(err, ErrCommandExists) {
				t.Errorf("Register() error = %v, want ErrCommandExists", err)
			}
		})
	}

	if _, ok := m.Lookup("other"); ok {
		t.Error("failed registration must not leave a partial entry")
	}
	if err := m.Register(nil); !errors.Is(err, commands.ErrInvalidDeclaration) {
		t.Errorf("Register(nil) error = %v", err)
	}
}

func TestCommandMap_Lookup(t *testing.T) {
	m := NewCommandMap()
	echo := newEcho(t, "echo", "", "e")
	if err := m.Register(echo); err != nil {
		t.Fatal(err)
	}

	for _, label := range []string{"echo", "ECHO", "e", "E"} {
		cmd, ok := m.Lookup(label)
		if !ok || cmd != Command(echo) {
			t.Errorf("Lookup(%q) = %v, %v", label, cmd, ok)
		}
	}
	if _, ok := m.Lookup("nope"); ok {
		t.Error("Lookup(nope) succeeded")
	}
}

func TestCommandMap_UnregisterAndClose(t *testing.T) {
	rec := &fakeRecorder{}
	m := NewCommandMap(WithRecorder(rec))
	_ = m.Register(newEcho(t, "echo", "", "e"))
	_ = m.Register(newEcho(t, "ping", ""))

	if err := m.Unregister("Echo"); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}
	if _, ok := m.Lookup("e"); ok {
		t.Error("alias survived Unregister")
	}
	if err := m.Unregister("echo"); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("second Unregister() error = %v", err)
	}
	if err := m.Register(newEcho(t, "other", "", "e")); err != nil {
		t.Errorf("alias should be free after Unregister: %v", err)
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if len(m.Commands()) != 0 || rec.registered != 0 {
		t.Errorf("Close() left %d commands, gauge %d", len(m.Commands()), rec.registered)
	}
}

func TestCommandMap_Commands(t *testing.T) {
	m := NewCommandMap()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		_ = m.Register(newEcho(t, name, ""))
	}
	var names []string
	for _, cmd := range m.Commands() {
		names = append(names, cmd.Name())
	}
	if !reflect.DeepEqual(names, []string{"alpha", "mid", "zeta"}) {
		t.Errorf("Commands() = %v", names)
	}
}

func TestCommandMap_Dispatch(t *testing.T) {
	rec := &fakeRecorder{}
	m := NewCommandMap(WithRecorder(rec))
	_ = m.Register(newEcho(t, "echo", "", "e"))

	tests := []struct {
		name    string
		line    string
		want    []string
		wantErr error
	}{
		{"plain", "echo say red", []string{"say:red"}, nil},
		{"slash prefix", "/echo shout", []string{"shout:"}, nil},
		{"alias any case", "E say", []string{"say:"}, nil},
		{"trailing space", "echo say ", []string{"say:"}, nil},
		{"root without sub-command", "echo", []string{"Invalid usage. Use /echo <sub> <args>"}, nil},
		{"blank line", "   ", nil, nil},
		{"unknown with suggestion", "ecoh say", []string{"Unknown command. Did you mean /echo?"}, ErrUnknownCommand},
		{"unknown without suggestion", "teleport", []string{"Unknown command."}, ErrUnknownCommand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &recordingSender{}
			err := m.Dispatch(context.Background(), sender, tt.line)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Dispatch() error = %v, want %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(sender.messages, tt.want) {
				t.Errorf("messages = %q, want %q", sender.messages, tt.want)
			}
		})
	}
	if rec.unknown != 2 {
		t.Errorf("unknown counter = %d, want 2", rec.unknown)
	}
}

func TestCommandMap_Suggest(t *testing.T) {
	m := NewCommandMap()
	_ = m.Register(newEcho(t, "town", "", "t"))
	_ = m.Register(newEcho(t, "warp", ""))

	tests := []struct {
		label string
		want  string
		ok    bool
	}{
		{"twon", "town", true},
		{"TOWNS", "town", true},
		{"wrap", "warp", true},
		{"teleport", "", false},
	}
	for _, tt := range tests {
		got, ok := m.Suggest(tt.label)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Suggest(%q) = %q, %v; want %q, %v", tt.label, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCommandMap_Complete(t *testing.T) {
	ctx := context.Background()
	store := permissions.NewMemoryStore()
	_ = store.Grant(ctx, "player:Steve", "echo.use")
	resolver := permissions.NewResolver(store, nil, nil)

	m := NewCommandMap()
	_ = m.Register(newEcho(t, "echo", "echo.use", "e"))
	_ = m.Register(newEcho(t, "admin", "admin.use"))

	steve := NewPlayerSender("Steve", "player:Steve", resolver, nil)
	console := NewConsoleSender(&bytes.Buffer{}, false)

	tests := []struct {
		name   string
		sender commands.Sender
		line   string
		want   []string
	}{
		{"player labels filtered by permission", steve, "", []string{"e", "echo"}},
		{"player label prefix", steve, "/ec", []string{"echo"}},
		{"console sees every label", console, "", []string{"admin", "e", "echo"}},
		{"sub-command names", steve, "echo ", []string{"say", "shout"}},
		{"argument values", steve, "/e say g", []string{"green"}},
		{"console gets no sub-command completion", console, "echo ", []string{}},
		{"unknown root", steve, "nope ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Complete(ctx, tt.sender, tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Complete(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}
