package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"
)

const (
	includeKey      = "$include"
	includeAlias    = "include"
	maxIncludeDepth = 8
)

// envRef matches ${NAME}. Bare $NAME is left alone so keys like $include and
// literal dollars in secrets survive expansion.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces every ${NAME} in data with the value of NAME.
func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		return []byte(os.Getenv(string(ref[2 : len(ref)-1])))
	})
}

var errIncludeCycle = errors.New("config include cycle")

// LoadRaw reads a configuration file into a raw map, expanding ${NAME}
// environment references. Files named by $include are read first, relative to the including file, and the
// including file's own keys override theirs.
func LoadRaw(path string) (map[string]any, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("config path is required")
	}
	l := &rawLoader{active: map[string]bool{}}
	return l.load(path)
}

// rawLoader tracks the include chain currently being read.
type rawLoader struct {
	active map[string]bool
	depth  int
}

func (l *rawLoader) load(path string) (map[string]any, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if l.active[abs] {
		return nil, fmt.Errorf("%w at %s", errIncludeCycle, abs)
	}
	if l.depth >= maxIncludeDepth {
		return nil, fmt.Errorf("includes nested deeper than %d at %s", maxIncludeDepth, abs)
	}
	l.active[abs] = true
	l.depth++
	defer func() {
		delete(l.active, abs)
		l.depth--
	}()

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	doc, err := parseRaw(expandEnv(data), filepath.Ext(abs))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(abs), err)
	}
	includes, err := takeIncludes(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(abs), err)
	}

	base := map[string]any{}
	for _, inc := range includes {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(filepath.Dir(abs), inc)
		}
		included, err := l.load(inc)
		if err != nil {
			return nil, err
		}
		overlay(base, included)
	}
	overlay(base, doc)
	return base, nil
}

// parseRaw decodes JSON or JSON5 for those extensions and a single YAML
// document for anything else.
func parseRaw(data []byte, ext string) (map[string]any, error) {
	doc := map[string]any{}
	switch strings.ToLower(ext) {
	case ".json", ".json5":
		if err := json5.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if err := dec.Decode(new(any)); !errors.Is(err, io.EOF) {
			return nil, errors.New("expected a single YAML document")
		}
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// takeIncludes removes the include directive ($include, or include) from
// doc and returns the non-blank paths it names.
func takeIncludes(doc map[string]any) ([]string, error) {
	val, ok := doc[includeKey]
	if !ok {
		val, ok = doc[includeAlias]
	}
	delete(doc, includeKey)
	delete(doc, includeAlias)
	if !ok || val == nil {
		return nil, nil
	}

	var entries []any
	switch v := val.(type) {
	case string:
		entries = []any{v}
	case []any:
		entries = v
	default:
		return nil, fmt.Errorf("%s must be a path or a list of paths", includeKey)
	}

	var paths []string
	for _, entry := range entries {
		p, ok := entry.(string)
		if !ok {
			return nil, fmt.Errorf("%s entries must be strings, got %T", includeKey, entry)
		}
		if strings.TrimSpace(p) != "" {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// overlay copies src onto dst. Nested sections merge key by key; any other
// value in src replaces the one in dst.
func overlay(dst, src map[string]any) {
	for key, value := range src {
		section, isSection := value.(map[string]any)
		existing, hasSection := dst[key].(map[string]any)
		if isSection && hasSection {
			overlay(existing, section)
			continue
		}
		dst[key] = value
	}
}

// decode round-trips raw through YAML onto cfg so unknown keys are rejected
// by the strict decoder. Keys absent from raw leave cfg untouched.
func decode(raw map[string]any, cfg *Config) error {
	payload, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("serialize config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(payload))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}
