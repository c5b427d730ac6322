// Package town is an example plugin: the /town root command and the
// in-memory registry of towns it manages.
package town

import (
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/haasonsaas/cmdtree/internal/commands"
)

var (
	// ErrTownExists is returned when a town name is already taken.
	ErrTownExists = errors.New("town already exists")

	// ErrTownNotFound is returned when no town has the given name.
	ErrTownNotFound = errors.New("town not found")

	// ErrAlreadyMember is returned when a player already belongs to a town.
	ErrAlreadyMember = errors.New("already a member of a town")
)

// Town is a named settlement with a mayor and members.
type Town struct {
	Name    string
	Mayor   string
	Members []string
	Spawn   commands.Location
	Founded time.Time
}

func (t *Town) clone() Town {
	out := *t
	out.Members = append([]string(nil), t.Members...)
	return out
}

// Registry stores towns keyed by case-insensitive name. It is safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	towns  map[string]*Town
	member map[string]string // lower(player) -> lower(town)
	now    func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		towns:  make(map[string]*Town),
		member: make(map[string]string),
		now:    time.Now,
	}
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Create founds a town with mayor as its first member.
func (r *Registry) Create(name, mayor string, spawn commands.Location) (Town, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.towns[key(name)]; ok {
		return Town{}, ErrTownExists
	}
	if _, ok := r.member[key(mayor)]; ok {
		return Town{}, ErrAlreadyMember
	}
	t := &Town{
		Name:    name,
		Mayor:   mayor,
		Members: []string{mayor},
		Spawn:   spawn,
		Founded: r.now(),
	}
	r.towns[key(name)] = t
	r.member[key(mayor)] = key(name)
	return t.clone(), nil
}

// Get returns the town named name.
func (r *Registry) Get(name string) (Town, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.towns[key(name)]
	if !ok {
		return Town{}, false
	}
	return t.clone(), true
}

// MemberOf returns the town player belongs to.
func (r *Registry) MemberOf(player string) (Town, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	townKey, ok := r.member[key(player)]
	if !ok {
		return Town{}, false
	}
	return r.towns[townKey].clone(), true
}

// Join adds player to the named town.
func (r *Registry) Join(name, player string) (Town, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.towns[key(name)]
	if !ok {
		return Town{}, ErrTownNotFound
	}
	if _, ok := r.member[key(player)]; ok {
		return Town{}, ErrAlreadyMember
	}
	t.Members = append(t.Members, player)
	r.member[key(player)] = key(name)
	return t.clone(), nil
}

// Delete removes the named town and releases its members.
func (r *Registry) Delete(name string) (Town, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.towns[key(name)]
	if !ok {
		return Town{}, ErrTownNotFound
	}
	for _, m := range t.Members {
		delete(r.member, key(m))
	}
	delete(r.towns, key(name))
	return t.clone(), nil
}

// Rename changes a town's name. Changing only the case is allowed.
func (r *Registry) Rename(name, newName string) (Town, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.towns[key(name)]
	if !ok {
		return Town{}, ErrTownNotFound
	}
	if key(name) != key(newName) {
		if _, taken := r.towns[key(newName)]; taken {
			return Town{}, ErrTownExists
		}
	}
	delete(r.towns, key(name))
	t.Name = newName
	r.towns[key(newName)] = t
	for _, m := range t.Members {
		r.member[key(m)] = key(newName)
	}
	return t.clone(), nil
}

// List returns every town sorted by name.
func (r *Registry) List() []Town {
	r.mu.RLock()
	out := make([]Town, 0, len(r.towns))
	for _, t := range r.towns {
		out = append(out, t.clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return key(out[i].Name) < key(out[j].Name)
	})
	return out
}

// Names returns every town name sorted.
func (r *Registry) Names() []string {
	towns := r.List()
	names := make([]string, len(towns))
	for i, t := range towns {
		names[i] = t.Name
	}
	return names
}

// Nearest orders town names by distance from loc. Towns in other worlds
// follow in alphabetical order.
func (r *Registry) Nearest(loc commands.Location) []string {
	towns := r.List()
	sort.SliceStable(towns, func(i, j int) bool {
		di, dj := distance(towns[i].Spawn, loc), distance(towns[j].Spawn, loc)
		return di < dj
	})
	names := make([]string, len(towns))
	for i, t := range towns {
		names[i] = t.Name
	}
	return names
}

func distance(a, b commands.Location) float64 {
	if a.World != b.World {
		return math.Inf(1)
	}
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
