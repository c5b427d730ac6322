package commands

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Priority says whether an argument must be supplied.
type Priority int

const (
	Required Priority = iota
	Optional
)

func (p Priority) String() string {
	if p == Optional {
		return "optional"
	}
	return "required"
}

// Argument is one positional slot in a sub-command's syntax.
type Argument interface {
	Priority() Priority

	// Placeholder renders the slot for usage strings ("<name>" or "[name]")
	Placeholder() string

	// HandleCorrection validates token and records the corrected value.
	// Returning false rejects the invocation with a usage error.
	HandleCorrection(token string) bool
}

// Suggester is implemented by arguments with a known set of values.
type Suggester interface {
	Suggest() []string
}

type argument struct {
	name     string
	priority Priority
}

func (a argument) Priority() Priority { return a.priority }

func (a argument) Placeholder() string {
	if a.priority == Optional {
		return "[" + a.name + "]"
	}
	return "<" + a.name + ">"
}

// StringArgument accepts free text, optionally bounded by length and pattern.
type StringArgument struct {
	argument
	minLen  int
	maxLen  int
	pattern *regexp.Regexp
	value   string
}

// NewStringArgument creates a free-text argument.
func NewStringArgument(name string, priority Priority) *StringArgument {
	return &StringArgument{argument: argument{name: name, priority: priority}}
}

// Length bounds the token length in runes. A max of zero means unbounded.
func (a *StringArgument) Length(min, max int) *StringArgument {
	a.minLen, a.maxLen = min, max
	return a
}

// Matching requires the token to match pattern.
func (a *StringArgument) Matching(pattern *regexp.Regexp) *StringArgument {
	a.pattern = pattern
	return a
}

// HandleCorrection implements Argument.
func (a *StringArgument) HandleCorrection(token string) bool {
	n := utf8.RuneCountInString(token)
	if n < a.minLen || (a.maxLen > 0 && n > a.maxLen) {
		return false
	}
	if a.pattern != nil && !a.pattern.MatchString(token) {
		return false
	}
	a.value = token
	return true
}

// Value returns the last accepted token.
func (a *StringArgument) Value() string { return a.value }

// IntArgument accepts a base-10 integer within an optional range.
type IntArgument struct {
	argument
	bounded  bool
	min, max int
	value    int
}

// NewIntArgument creates an integer argument.
func NewIntArgument(name string, priority Priority) *IntArgument {
	return &IntArgument{argument: argument{name: name, priority: priority}}
}

// Between restricts the value to [min, max].
func (a *IntArgument) Between(min, max int) *IntArgument {
	a.bounded, a.min, a.max = true, min, max
	return a
}

// HandleCorrection implements Argument.
func (a *IntArgument) HandleCorrection(token string) bool {
	v, err := strconv.Atoi(strings.TrimSpace(token))
	if err != nil {
		return false
	}
	if a.bounded && (v < a.min || v > a.max) {
		return false
	}
	a.value = v
	return true
}

// Value returns the last accepted integer.
func (a *IntArgument) Value() int { return a.value }

// FloatArgument accepts a decimal number within an optional range.
type FloatArgument struct {
	argument
	bounded  bool
	min, max float64
	value    float64
}

// NewFloatArgument creates a decimal argument.
func NewFloatArgument(name string, priority Priority) *FloatArgument {
	return &FloatArgument{argument: argument{name: name, priority: priority}}
}

// Between restricts the value to [min, max].
func (a *FloatArgument) Between(min, max float64) *FloatArgument {
	a.bounded, a.min, a.max = true, min, max
	return a
}

// HandleCorrection implements Argument.
func (a *FloatArgument) HandleCorrection(token string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
	if err != nil {
		return false
	}
	if a.bounded && (v < a.min || v > a.max) {
		return false
	}
	a.value = v
	return true
}

// Value returns the last accepted number.
func (a *FloatArgument) Value() float64 { return a.value }

// BoolArgument accepts true/false and the usual spoken variants.
type BoolArgument struct {
	argument
	value bool
}

// NewBoolArgument creates a boolean argument.
func NewBoolArgument(name string, priority Priority) *BoolArgument {
	return &BoolArgument{argument: argument{name: name, priority: priority}}
}

// HandleCorrection implements Argument.
func (a *BoolArgument) HandleCorrection(token string) bool {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "true", "yes", "on", "1":
		a.value = true
	case "false", "no", "off", "0":
		a.value = false
	default:
		return false
	}
	return true
}

// Value returns the last accepted boolean.
func (a *BoolArgument) Value() bool { return a.value }

// Suggest implements Suggester.
func (a *BoolArgument) Suggest() []string { return []string{"true", "false"} }

// ChoiceArgument accepts one of a fixed set of values, case-insensitively,
// and corrects the token to the declared spelling.
type ChoiceArgument struct {
	argument
	choices []string
	value   string
}

// NewChoiceArgument creates an argument restricted to choices.
func NewChoiceArgument(name string, priority Priority, choices ...string) *ChoiceArgument {
	return &ChoiceArgument{argument: argument{name: name, priority: priority}, choices: choices}
}

// HandleCorrection implements Argument.
func (a *ChoiceArgument) HandleCorrection(token string) bool {
	for _, c := range a.choices {
		if strings.EqualFold(c, token) {
			a.value = c
			return true
		}
	}
	return false
}

// Value returns the canonical spelling of the last accepted choice.
func (a *ChoiceArgument) Value() string { return a.value }

// Suggest implements Suggester.
func (a *ChoiceArgument) Suggest() []string {
	out := make([]string, len(a.choices))
	copy(out, a.choices)
	return out
}

// PlayerLookup resolves a typed player name to its canonical form.
type PlayerLookup interface {
	Lookup(name string) (string, bool)
	Online() []string
}

// PlayerArgument accepts the name of an online player.
type PlayerArgument struct {
	argument
	players PlayerLookup
	value   string
}

// NewPlayerArgument creates an argument resolved against players.
func NewPlayerArgument(name string, priority Priority, players PlayerLookup) *PlayerArgument {
	return &PlayerArgument{argument: argument{name: name, priority: priority}, players: players}
}

// HandleCorrection implements Argument.
func (a *PlayerArgument) HandleCorrection(token string) bool {
	if a.players == nil {
		return false
	}
	canonical, ok := a.players.Lookup(token)
	if !ok {
		return false
	}
	a.value = canonical
	return true
}

// Value returns the canonical name of the last accepted player.
func (a *PlayerArgument) Value() string { return a.value }

// Suggest implements Suggester.
func (a *PlayerArgument) Suggest() []string {
	if a.players == nil {
		return nil
	}
	return a.players.Online()
}

var (
	_ Argument  = (*StringArgument)(nil)
	_ Argument  = (*IntArgument)(nil)
	_ Argument  = (*FloatArgument)(nil)
	_ Argument  = (*BoolArgument)(nil)
	_ Argument  = (*ChoiceArgument)(nil)
	_ Argument  = (*PlayerArgument)(nil)
	_ Suggester = (*ChoiceArgument)(nil)
	_ Suggester = (*PlayerArgument)(nil)
)
