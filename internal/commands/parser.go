package commands

import (
	"strings"
	"unicode"
)

// DefaultPrefixes are the default command prefixes.
var DefaultPrefixes = []string{"/", "!"}

// ParsedCommand is a command line split into its root label and arguments.
type ParsedCommand struct {
	// Label is the root command label as typed (without prefix)
	Label string

	// Args are the whitespace-separated tokens after the label. When the
	// line ends in whitespace a trailing empty token marks the start of the
	// next argument.
	Args []string

	// Prefix is the command prefix used (/, !), empty for console lines
	Prefix string

	// Raw is the trimmed original text
	Raw string
}

// Parser detects and splits command lines.
type Parser struct {
	prefixes []string
}

// NewParser creates a new command parser.
func NewParser(prefixes ...string) *Parser {
	if len(prefixes) == 0 {
		prefixes = DefaultPrefixes
	}
	return &Parser{prefixes: prefixes}
}

// Prefixes returns the configured prefixes.
func (p *Parser) Prefixes() []string {
	out := make([]string, len(p.prefixes))
	copy(out, p.prefixes)
	return out
}

// Parse parses a chat message. It returns nil unless the text starts with a
// command prefix followed by a letter.
func (p *Parser) Parse(text string) *ParsedCommand {
	prefix, ok := p.commandPrefix(strings.TrimLeftFunc(text, unicode.IsSpace))
	if !ok {
		return nil
	}
	return p.parse(text, prefix)
}

// ParseLine parses a console line, where the prefix is optional.
func (p *Parser) ParseLine(text string) *ParsedCommand {
	trimmed := strings.TrimLeftFunc(text, unicode.IsSpace)
	prefix, _ := p.commandPrefix(trimmed)
	return p.parse(text, prefix)
}

func (p *Parser) parse(text, prefix string) *ParsedCommand {
	body := strings.TrimLeftFunc(text, unicode.IsSpace)
	body = strings.TrimPrefix(body, prefix)

	tokens := Tokenize(body)
	if len(tokens) == 0 || tokens[0] == "" {
		return nil
	}
	return &ParsedCommand{
		Label:  tokens[0],
		Args:   tokens[1:],
		Prefix: prefix,
		Raw:    strings.TrimSpace(text),
	}
}

// IsCommand checks if text starts with a command.
func (p *Parser) IsCommand(text string) bool {
	_, ok := p.commandPrefix(strings.TrimSpace(text))
	return ok
}

// commandPrefix returns the prefix text starts with. The prefix must be
// followed by a letter.
func (p *Parser) commandPrefix(text string) (string, bool) {
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(text, prefix) && len(text) > len(prefix) {
			next := text[len(prefix)]
			if (next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z') {
				return prefix, true
			}
		}
	}
	return "", false
}

// Tokenize splits text on whitespace. If text is non-blank and ends with
// whitespace, a trailing empty token is appended so completers know a new
// argument has started.
func Tokenize(text string) []string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return tokens
	}
	if last, _ := lastRune(text); unicode.IsSpace(last) {
		tokens = append(tokens, "")
	}
	return tokens
}

func lastRune(s string) (rune, bool) {
	if s == "" {
		return 0, false
	}
	r := []rune(s)
	return r[len(r)-1], true
}
