// Package permissions resolves permission nodes for command senders.
//
// Nodes are dot-separated ("town.admin"). A granted node may be a wildcard:
// "*" matches everything and "town.*" matches "town" and every node below it.
// A node prefixed with "-" negates the match and wins over any grant.
package permissions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

var (
	// ErrEmptySubject is returned when a subject identifier is blank.
	ErrEmptySubject = errors.New("permission subject is required")

	// ErrEmptyNode is returned when a permission node is blank.
	ErrEmptyNode = errors.New("permission node is required")
)

// Store persists the nodes granted to each subject. Subjects are opaque
// identifiers such as "console", "player:Steve" or "discord:1234".
type Store interface {
	// Grant adds node to subject. Granting a node twice is not an error.
	Grant(ctx context.Context, subject, node string) error

	// Revoke removes node from subject. Revoking a missing node is not an error.
	Revoke(ctx context.Context, subject, node string) error

	// Nodes returns the nodes granted to subject, sorted.
	Nodes(ctx context.Context, subject string) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// defaulter is implemented by stores that carry their own default nodes.
type defaulter interface {
	Defaults() []string
}

// Match reports whether node is allowed by granted. Negated grants ("-node")
// take precedence over positive ones.
func Match(granted []string, node string) bool {
	node = normalize(node)
	if node == "" {
		return true
	}
	allowed := false
	for _, g := range granted {
		g = normalize(g)
		if neg, ok := strings.CutPrefix(g, "-"); ok {
			if covers(neg, node) {
				return false
			}
			continue
		}
		if covers(g, node) {
			allowed = true
		}
	}
	return allowed
}

// covers reports whether a single grant pattern matches node.
func covers(pattern, node string) bool {
	switch {
	case pattern == "":
		return false
	case pattern == "*":
		return true
	case strings.HasSuffix(pattern, ".*"):
		base := strings.TrimSuffix(pattern, ".*")
		return node == base || strings.HasPrefix(node, base+".")
	default:
		return pattern == node
	}
}

func normalize(node string) string {
	return strings.ToLower(strings.TrimSpace(node))
}

func validate(subject, node string) error {
	if strings.TrimSpace(subject) == "" {
		return ErrEmptySubject
	}
	if normalize(strings.TrimPrefix(strings.TrimSpace(node), "-")) == "" {
		return ErrEmptyNode
	}
	return nil
}

// Resolver answers permission checks against a Store plus default nodes
// granted to every subject.
type Resolver struct {
	store    Store
	defaults []string
	logger   *slog.Logger
}

// NewResolver creates a resolver. defaults are granted to every subject in
// addition to the store's own defaults, if it has any.
func NewResolver(store Store, defaults []string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:    store,
		defaults: append([]string(nil), defaults...),
		logger:   logger.With("component", "permissions"),
	}
}

// Has reports whether subject holds node. Store errors deny the check.
func (r *Resolver) Has(ctx context.Context, subject, node string) bool {
	granted, err := r.Effective(ctx, subject)
	if err != nil {
		r.logger.WarnContext(ctx, "permission lookup failed",
			"subject", subject,
			"node", node,
			"error", err)
		return false
	}
	return Match(granted, node)
}

// Effective returns the defaults followed by the subject's own nodes.
func (r *Resolver) Effective(ctx context.Context, subject string) ([]string, error) {
	granted := append([]string(nil), r.defaults...)
	if d, ok := r.store.(defaulter); ok {
		granted = append(granted, d.Defaults()...)
	}
	nodes, err := r.store.Nodes(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("nodes for %q: %w", subject, err)
	}
	return append(granted, nodes...), nil
}

// Store returns the underlying store.
func (r *Resolver) Store() Store {
	return r.store
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
