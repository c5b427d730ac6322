package commands

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

// listDefinition uses ListHelp for its help output.
type listDefinition struct {
	ListHelp
	*testDefinition
}

func (d listDefinition) RenderHelp(ctx context.Context, sender Sender, root *Core, subs []SubCommand) {
	d.ListHelp.RenderHelp(ctx, sender, root, subs)
}

func newListCore(help ListHelp) *Core {
	return MustNew(listDefinition{ListHelp: help, testDefinition: townFixture(&[]call{})})
}

func TestListHelp_Player(t *testing.T) {
	core := newListCore(ListHelp{})
	player := newTestPlayer("Steve", "town.use")

	if got := core.Dispatch(context.Background(), player, []string{"?"}); got != OutcomeHelp {
		t.Fatalf("Dispatch() = %v, want help", got)
	}

	want := []string{
		"--- Town Commands ---",
		"/town create <name> - Found a town",
		"/town info [name] - Show a town",
	}
	if got := plain(player.messages); !reflect.DeepEqual(got, want) {
		t.Errorf("help = %q, want %q", got, want)
	}
}

func TestListHelp_ShowAll(t *testing.T) {
	core := newListCore(ListHelp{Header: "Towns", ShowAll: true})
	player := newTestPlayer("Steve")

	core.Dispatch(context.Background(), player, []string{"?"})

	got := plain(player.messages)
	if got[0] != "--- Towns ---" {
		t.Errorf("header = %q", got[0])
	}
	if len(got) != 4 || !strings.HasPrefix(got[3], "/town delete <name>") {
		t.Errorf("help = %q, want all three sub-commands", got)
	}
}

func TestListHelp_Console(t *testing.T) {
	core := newListCore(ListHelp{})
	console := &testConsole{}

	core.Dispatch(context.Background(), console, []string{"?"})

	got := plain(console.messages)
	if len(got) != 4 {
		t.Fatalf("help = %q, want header and three lines", got)
	}
	if got[1] != "/town create <name> - Found a town (player only)" {
		t.Errorf("create line = %q", got[1])
	}
	if strings.Contains(got[2], "player only") {
		t.Errorf("info line = %q should not be marked player only", got[2])
	}
}

func TestListHelp_Empty(t *testing.T) {
	def := &testDefinition{decl: Declaration{Name: "town-hall"}}
	core := MustNew(listDefinition{testDefinition: def})
	player := newTestPlayer("Steve")

	core.Dispatch(context.Background(), player, []string{"x"})

	want := []string{"--- Town Hall Commands ---", "No sub-commands available."}
	if got := plain(player.messages); !reflect.DeepEqual(got, want) {
		t.Errorf("help = %q, want %q", got, want)
	}
}

func TestHelpRendererFunc(t *testing.T) {
	called := false
	var h HelpRenderer = HelpRendererFunc(func(ctx context.Context, sender Sender, root *Core, subs []SubCommand) {
		called = true
	})
	h.RenderHelp(context.Background(), &testConsole{}, nil, nil)
	if !called {
		t.Error("HelpRendererFunc was not called")
	}
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"town":      "Town",
		"town-hall": "Town Hall",
		"":          "",
	}
	for in, want := range tests {
		if got := titleCase(in); got != want {
			t.Errorf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}
