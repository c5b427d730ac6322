package town

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/haasonsaas/cmdtree/internal/commands"
)

func fixedRegistry() *Registry {
	r := NewRegistry()
	r.now = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestRegistry_Create(t *testing.T) {
	r := fixedRegistry()
	spawn := commands.Location{World: "world", X: 10, Y: 64, Z: -5}

	town, err := r.Create("Springfield", "Steve", spawn)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if town.Mayor != "Steve" || !reflect.DeepEqual(town.Members, []string{"Steve"}) || town.Spawn != spawn {
		t.Errorf("Create() = %+v", town)
	}
	if !town.Founded.Equal(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Founded = %v", town.Founded)
	}

	if _, err := r.Create("SPRINGFIELD", "Alex", spawn); !errors.Is(err, ErrTownExists) {
		t.Errorf("duplicate name error = %v, want ErrTownExists", err)
	}
	if _, err := r.Create("Shelbyville", "steve", spawn); !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("second town for mayor error = %v, want ErrAlreadyMember", err)
	}
}

func TestRegistry_JoinAndMemberOf(t *testing.T) {
	r := fixedRegistry()
	_, _ = r.Create("Springfield", "Steve", commands.Location{})

	if _, err := r.Join("nowhere", "Alex"); !errors.Is(err, ErrTownNotFound) {
		t.Errorf("Join(nowhere) error = %v", err)
	}
	town, err := r.Join("springfield", "Alex")
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if !reflect.DeepEqual(town.Members, []string{"Steve", "Alex"}) {
		t.Errorf("Members = %v", town.Members)
	}
	if _, err := r.Join("Springfield", "ALEX"); !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("second Join() error = %v", err)
	}

	got, ok := r.MemberOf("alex")
	if !ok || got.Name != "Springfield" {
		t.Errorf("MemberOf(alex) = %+v, %v", got, ok)
	}
	if _, ok := r.MemberOf("Herobrine"); ok {
		t.Error("MemberOf(Herobrine) succeeded")
	}
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	r := fixedRegistry()
	town, _ := r.Create("Springfield", "Steve", commands.Location{})
	town.Members[0] = "Mallory"

	got, _ := r.Get("Springfield")
	if got.Members[0] != "Steve" {
		t.Errorf("registry state leaked through a returned town: %v", got.Members)
	}
}

func TestRegistry_Rename(t *testing.T) {
	r := fixedRegistry()
	_, _ = r.Create("Springfield", "Steve", commands.Location{})
	_, _ = r.Create("Shelbyville", "Alex", commands.Location{})

	tests := []struct {
		name    string
		from    string
		to      string
		wantErr error
	}{
		{"missing", "Ogdenville", "North", ErrTownNotFound},
		{"taken", "Springfield", "shelbyville", ErrTownExists},
		{"case only", "Springfield", "SpringField", nil},
		{"new name", "springfield", "Capital", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Rename(tt.from, tt.to)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Rename(%q, %q) error = %v, want %v", tt.from, tt.to, err, tt.wantErr)
			}
		})
	}

	if _, ok := r.Get("Springfield"); ok {
		t.Error("old name still resolves")
	}
	if town, ok := r.MemberOf("Steve"); !ok || town.Name != "Capital" {
		t.Errorf("MemberOf(Steve) = %+v, %v", town, ok)
	}
}

func TestRegistry_Delete(t *testing.T) {
	r := fixedRegistry()
	_, _ = r.Create("Springfield", "Steve", commands.Location{})
	_, _ = r.Join("Springfield", "Alex")

	if _, err := r.Delete("springfield"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := r.Delete("Springfield"); !errors.Is(err, ErrTownNotFound) {
		t.Errorf("second Delete() error = %v", err)
	}
	if _, err := r.Create("Ogdenville", "Alex", commands.Location{}); err != nil {
		t.Errorf("former member should be free to found a town: %v", err)
	}
}

func TestRegistry_NamesAndNearest(t *testing.T) {
	r := fixedRegistry()
	_, _ = r.Create("Ogdenville", "a", commands.Location{World: "world", X: 100})
	_, _ = r.Create("brockway", "b", commands.Location{World: "nether"})
	_, _ = r.Create("Springfield", "c", commands.Location{World: "world", X: 5})
	_, _ = r.Create("Capital", "d", commands.Location{World: "world", X: -50})

	if got, want := r.Names(), []string{"brockway", "Capital", "Ogdenville", "Springfield"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	got := r.Nearest(commands.Location{World: "world"})
	want := []string{"Springfield", "Capital", "Ogdenville", "brockway"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Nearest() = %v, want %v", got, want)
	}
}
