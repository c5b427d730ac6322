package commands

import (
	"reflect"
	"testing"
)

func TestParser_Parse(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name       string
		input      string
		wantNil    bool
		wantLabel  string
		wantArgs   []string
		wantPrefix string
	}{
		{
			name:       "simple command",
			input:      "/town",
			wantLabel:  "town",
			wantArgs:   []string{},
			wantPrefix: "/",
		},
		{
			name:       "command with arguments",
			input:      "/town create Oakvale",
			wantLabel:  "town",
			wantArgs:   []string{"create", "Oakvale"},
			wantPrefix: "/",
		},
		{
			name:       "bang prefix",
			input:      "!town list",
			wantLabel:  "town",
			wantArgs:   []string{"list"},
			wantPrefix: "!",
		},
		{
			name:       "leading whitespace",
			input:      "   /town info",
			wantLabel:  "town",
			wantArgs:   []string{"info"},
			wantPrefix: "/",
		},
		{
			name:       "trailing whitespace starts a new argument",
			input:      "/town create ",
			wantLabel:  "town",
			wantArgs:   []string{"create", ""},
			wantPrefix: "/",
		},
		{
			name:       "collapsed inner whitespace",
			input:      "/town   rename  Old\tNew",
			wantLabel:  "town",
			wantArgs:   []string{"rename", "Old", "New"},
			wantPrefix: "/",
		},
		{name: "plain chat", input: "hello there", wantNil: true},
		{name: "prefix only", input: "/", wantNil: true},
		{name: "prefix then digit", input: "/123", wantNil: true},
		{name: "prefix then space", input: "/ town", wantNil: true},
		{name: "empty", input: "", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.input)
			if tt.wantNil {
				if got != nil {
					t.Errorf("Parse(%q) = %+v, want nil", tt.input, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Parse(%q) = nil", tt.input)
			}
			if got.Label != tt.wantLabel {
				t.Errorf("Label = %q, want %q", got.Label, tt.wantLabel)
			}
			if !reflect.DeepEqual(got.Args, tt.wantArgs) {
				t.Errorf("Args = %q, want %q", got.Args, tt.wantArgs)
			}
			if got.Prefix != tt.wantPrefix {
				t.Errorf("Prefix = %q, want %q", got.Prefix, tt.wantPrefix)
			}
		})
	}
}

func TestParser_ParseLine(t *testing.T) {
	p := NewParser()

	tests := []struct {
		input      string
		wantNil    bool
		wantLabel  string
		wantPrefix string
	}{
		{input: "town list", wantLabel: "town"},
		{input: "/town list", wantLabel: "town", wantPrefix: "/"},
		{input: "   ", wantNil: true},
		{input: "", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := p.ParseLine(tt.input)
			if tt.wantNil {
				if got != nil {
					t.Errorf("ParseLine(%q) = %+v, want nil", tt.input, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseLine(%q) = nil", tt.input)
			}
			if got.Label != tt.wantLabel || got.Prefix != tt.wantPrefix {
				t.Errorf("ParseLine(%q) = %+v", tt.input, got)
			}
		})
	}
}

func TestParser_CustomPrefixes(t *testing.T) {
	p := NewParser(".")
	if p.Parse("/town") != nil {
		t.Error("default prefix should not match when custom prefixes are set")
	}
	if got := p.Parse(".town"); got == nil || got.Label != "town" {
		t.Errorf("Parse(.town) = %+v", got)
	}

	prefixes := p.Prefixes()
	prefixes[0] = "#"
	if p.Prefixes()[0] != "." {
		t.Error("Prefixes() must return a copy")
	}
}

func TestParser_IsCommand(t *testing.T) {
	p := NewParser()
	tests := []struct {
		input string
		want  bool
	}{
		{"/town", true},
		{"  !town", true},
		{"town", false},
		{"/", false},
		{"/9", false},
	}
	for _, tt := range tests {
		if got := p.IsCommand(tt.input); got != tt.want {
			t.Errorf("IsCommand(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{}},
		{"   ", []string{}},
		{"create", []string{"create"}},
		{"create Oakvale", []string{"create", "Oakvale"}},
		{"create ", []string{"create", ""}},
		{"create\t", []string{"create", ""}},
		{" a  b ", []string{"a", "b", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Tokenize(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
