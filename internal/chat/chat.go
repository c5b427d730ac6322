// Package chat provides legacy chat colour codes and helpers for rendering
// them on terminals or stripping them for plain-text transports.
package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// codePrefix introduces a two-character colour code ("§c").
const codePrefix = '§'

// Color is a legacy chat formatting code.
type Color string

// Colour codes understood by chat clients.
const (
	Black       Color = "§0"
	DarkBlue    Color = "§1"
	DarkGreen   Color = "§2"
	DarkAqua    Color = "§3"
	DarkRed     Color = "§4"
	DarkPurple  Color = "§5"
	Gold        Color = "§6"
	Gray        Color = "§7"
	DarkGray    Color = "§8"
	Blue        Color = "§9"
	Green       Color = "§a"
	Aqua        Color = "§b"
	Red         Color = "§c"
	LightPurple Color = "§d"
	Yellow      Color = "§e"
	White       Color = "§f"
	Reset       Color = "§r"
)

// ansi maps a code character to the 16-colour ANSI index lipgloss accepts.
var ansi = map[rune]string{
	'0': "0",
	'1': "4",
	'2': "2",
	'3': "6",
	'4': "1",
	'5': "5",
	'6': "3",
	'7': "7",
	'8': "8",
	'9': "12",
	'a': "10",
	'b': "14",
	'c': "9",
	'd': "13",
	'e': "11",
	'f': "15",
}

// String returns the raw code.
func (c Color) String() string {
	return string(c)
}

// Wrap prefixes text with the colour code.
func (c Color) Wrap(text string) string {
	return string(c) + text
}

// Strip removes every colour code from text.
func Strip(text string) string {
	if !strings.ContainsRune(text, codePrefix) {
		return text
	}
	var sb strings.Builder
	sb.Grow(len(text))
	skip := false
	for _, r := range text {
		if skip {
			skip = false
			continue
		}
		if r == codePrefix {
			skip = true
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Render converts colour codes into terminal styling. Unknown codes and
// resets fall back to the terminal's default foreground.
func Render(text string) string {
	if !strings.ContainsRune(text, codePrefix) {
		return text
	}

	var (
		out     strings.Builder
		segment strings.Builder
		style   = lipgloss.NewStyle()
	)
	flush := func() {
		if segment.Len() == 0 {
			return
		}
		out.WriteString(style.Render(segment.String()))
		segment.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != codePrefix || i+1 >= len(runes) {
			segment.WriteRune(r)
			continue
		}
		flush()
		i++
		if color, ok := ansi[runes[i]]; ok {
			style = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		} else {
			style = lipgloss.NewStyle()
		}
	}
	flush()
	return out.String()
}
