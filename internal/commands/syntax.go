package commands

import (
	"strings"
)

// Syntax is the ordered list of arguments a sub-command expects. Position i
// maps to the raw token at position i after the sub-command name.
type Syntax struct {
	arguments []Argument
}

// NewSyntax creates a syntax from args in order.
func NewSyntax(args ...Argument) *Syntax {
	return &Syntax{arguments: args}
}

// Add appends an argument.
func (s *Syntax) Add(arg Argument) *Syntax {
	s.arguments = append(s.arguments, arg)
	return s
}

// Arguments returns the declared arguments. A nil syntax has none.
func (s *Syntax) Arguments() []Argument {
	if s == nil {
		return nil
	}
	return s.arguments
}

// Required counts the required arguments.
func (s *Syntax) Required() int {
	n := 0
	for _, arg := range s.Arguments() {
		if arg.Priority() == Required {
			n++
		}
	}
	return n
}

// Check validates tokens against the syntax, stopping at the first failure.
// An absent required argument fails. An absent optional argument is skipped
// without calling HandleCorrection. Tokens past the last argument are ignored.
func (s *Syntax) Check(tokens []string) bool {
	for i, arg := range s.Arguments() {
		if i >= len(tokens) {
			if arg.Priority() == Required {
				return false
			}
			continue
		}
		if !arg.HandleCorrection(tokens[i]) {
			return false
		}
	}
	return true
}

// String renders the placeholders, e.g. "<name> [page]".
func (s *Syntax) String() string {
	args := s.Arguments()
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, arg.Placeholder())
	}
	return strings.Join(parts, " ")
}

// Suggest completes the last token in args from the matching argument's
// Suggester, filtered by case-insensitive prefix.
func (s *Syntax) Suggest(args []string) []string {
	idx := len(args) - 1
	arguments := s.Arguments()
	if idx < 0 || idx >= len(arguments) {
		return []string{}
	}
	suggester, ok := arguments[idx].(Suggester)
	if !ok {
		return []string{}
	}
	return FilterPrefix(suggester.Suggest(), args[idx])
}

// FilterPrefix keeps the candidates that start with partial, ignoring case.
func FilterPrefix(candidates []string, partial string) []string {
	out := make([]string, 0, len(candidates))
	lower := strings.ToLower(partial)
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), lower) {
			out = append(out, c)
		}
	}
	return out
}
