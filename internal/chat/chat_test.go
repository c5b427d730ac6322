package chat

import (
	"strings"
	"testing"
)

func TestStrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"single code", "§cInvalid usage", "Invalid usage"},
		{"multiple codes", "§6Town §eSpringfield§r created", "Town Springfield created"},
		{"trailing prefix", "oops§", "oops"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strip(tt.in); got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestColorWrap(t *testing.T) {
	if got := Red.Wrap("denied"); got != "§cdenied" {
		t.Errorf("Red.Wrap = %q", got)
	}
	if Green.String() != "§a" {
		t.Errorf("Green.String() = %q", Green.String())
	}
}

func TestRender(t *testing.T) {
	t.Run("plain text untouched", func(t *testing.T) {
		if got := Render("hello"); got != "hello" {
			t.Errorf("Render = %q", got)
		}
	})

	t.Run("codes removed", func(t *testing.T) {
		got := Render("§cNo §apermission")
		if strings.ContainsRune(got, '§') {
			t.Errorf("Render left a colour code in %q", got)
		}
		if !strings.Contains(got, "No ") || !strings.Contains(got, "permission") {
			t.Errorf("Render lost text: %q", got)
		}
	})
}
