package roster

import (
	"reflect"
	"testing"

	"github.com/j-veylop/hpc-usage-report/internal/models"
)

func testResolver() *Resolver {
	groups := []models.Group{
		{GID: "smith", FirstName: "Ann", LastName: "Smith", Department: "Physics", Projects: []string{"fusion"}},
		{GID: "jones", Department: "Biology"},
	}
	users := []models.User{
		{UID: "asmith", GID: "smith"},
		{UID: "postdoc", GID: "fusion"},
		{UID: "stray", GID: "retired"},
	}
	return NewResolver(groups, users)
}

func TestResolveOwner(t *testing.T) {
	r := testResolver()

	tests := []struct {
		name string
		id   string
		want string
	}{
		{"Group", "smith", "smith"},
		{"User", "asmith", "smith"},
		{"UserInProject", "postdoc", "smith"},
		{"Project", "fusion", "smith"},
		{"UserOfUnknownGroup", "stray", models.MiscGroup},
		{"Unknown", "12345", models.MiscGroup},
		{"Empty", "", models.MiscGroup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ResolveOwner(tt.id); got != tt.want {
				t.Errorf("ResolveOwner(%q) = %q, want %q", tt.id, got, tt.want)
			}
			// Deterministic
			if again := r.ResolveOwner(tt.id); again != tt.want {
				t.Errorf("ResolveOwner(%q) second call = %q", tt.id, again)
			}
		})
	}
}

func TestIsKnownOwner(t *testing.T) {
	r := testResolver()

	tests := []struct {
		id   string
		want bool
	}{
		{"asmith", true},
		{"fusion", true},
		{"smith", false},
		{"stray", false},
		{"data-move", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := r.IsKnownOwner(tt.id); got != tt.want {
				t.Errorf("IsKnownOwner(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestResolverAccessors(t *testing.T) {
	r := testResolver()

	if got := r.Groups(); !reflect.DeepEqual(got, []string{"jones", "smith"}) {
		t.Errorf("Groups() = %v", got)
	}
	if got := r.Department("jones"); got != "Biology" {
		t.Errorf("Department() = %q", got)
	}
	if got := r.Label("smith"); got != "Ann Smith" {
		t.Errorf("Label() = %q", got)
	}
	if got := r.Label("jones"); got != "jones" {
		t.Errorf("Label() fallback = %q", got)
	}
	if got := r.Projects("smith"); !reflect.DeepEqual(got, []string{"fusion"}) {
		t.Errorf("Projects() = %v", got)
	}
	if got := r.UserGroups(); len(got) != 2 || got["postdoc"] != "smith" {
		t.Errorf("UserGroups() = %v", got)
	}
}

func TestStore_Resolver(t *testing.T) {
	s, _ := newTestStore(t)
	_ = s.AddGroup(models.Group{GID: "smith"})
	_ = s.AddUser(models.User{UID: "asmith", GID: "smith"})

	r := s.Resolver()
	if got := r.ResolveOwner("asmith"); got != "smith" {
		t.Errorf("ResolveOwner() = %q, want smith", got)
	}

	// Later roster edits do not affect an existing snapshot.
	_ = s.RemoveUser("asmith")
	if got := r.ResolveOwner("asmith"); got != "smith" {
		t.Errorf("snapshot changed after RemoveUser(): %q", got)
	}
}
