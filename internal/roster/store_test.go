package roster

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/j-veylop/hpc-usage-report/internal/models"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "roster.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	return s, path
}

func TestOpen_CreatesFile(t *testing.T) {
	s, path := newTestStore(t)

	if s.Path() != path {
		t.Errorf("Path() = %s, want %s", s.Path(), path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("roster file was not created: %v", err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		t.Fatalf("roster file is not valid JSON: %v", err)
	}
	if file.Version != 1 {
		t.Errorf("Version = %d, want 1", file.Version)
	}
}

func TestOpen_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Error("Open() expected error for invalid JSON")
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("Open(\"\") expected error")
	}
}

func TestAddGroup(t *testing.T) {
	s, path := newTestStore(t)

	if err := s.AddGroup(models.Group{GID: "smith", FirstName: "Ann", LastName: "Smith", Department: "Physics"}); err != nil {
		t.Fatalf("AddGroup() failed: %v", err)
	}
	if err := s.AddGroup(models.Group{GID: "jones", Projects: []string{"climate"}}); err != nil {
		t.Fatalf("AddGroup() failed: %v", err)
	}

	groups := s.Groups()
	if len(groups) != 2 || groups[0].GID != "jones" || groups[1].GID != "smith" {
		t.Errorf("Groups() = %+v, want sorted [jones smith]", groups)
	}

	// Reopen and verify persistence
	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	g, ok := reopened.Group("smith")
	if !ok {
		t.Fatal("group smith not persisted")
	}
	if g.Department != "Physics" {
		t.Errorf("Department = %s, want Physics", g.Department)
	}
}

func TestAddGroup_Duplicate(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.AddGroup(models.Group{GID: "smith", Projects: []string{"p1"}}); err != nil {
		t.Fatalf("AddGroup() failed: %v", err)
	}

	err := s.AddGroup(models.Group{GID: "smith"})
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("AddGroup() duplicate error = %v", err)
	}

	err = s.AddGroup(models.Group{GID: "other", Projects: []string{"p1"}})
	if err == nil || !strings.Contains(err.Error(), "already owned") {
		t.Errorf("AddGroup() shared project error = %v", err)
	}

	if err := s.AddGroup(models.Group{GID: "  "}); err == nil {
		t.Error("AddGroup() expected error for empty gid")
	}

	if len(s.Groups()) != 1 {
		t.Errorf("Groups() length = %d, want 1", len(s.Groups()))
	}
}

func TestRemoveGroup(t *testing.T) {
	s, _ := newTestStore(t)
	_ = s.AddGroup(models.Group{GID: "smith"})

	if err := s.RemoveGroup("smith"); err != nil {
		t.Fatalf("RemoveGroup() failed: %v", err)
	}
	if _, ok := s.Group("smith"); ok {
		t.Error("group still present after RemoveGroup()")
	}
	if err := s.RemoveGroup("smith"); err == nil {
		t.Error("RemoveGroup() expected error for unknown group")
	}
}

func TestUsers(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.AddUser(models.User{UID: "zed", GID: "smith"}); err != nil {
		t.Fatalf("AddUser() failed: %v", err)
	}
	if err := s.AddUser(models.User{UID: "amy", GID: "smith"}); err != nil {
		t.Fatalf("AddUser() failed: %v", err)
	}
	if err := s.AddUser(models.User{UID: "amy"}); err == nil {
		t.Error("AddUser() expected duplicate error")
	}

	users := s.Users()
	if len(users) != 2 || users[0].UID != "amy" {
		t.Errorf("Users() = %+v, want sorted", users)
	}

	if err := s.RemoveUser("amy"); err != nil {
		t.Fatalf("RemoveUser() failed: %v", err)
	}
	if _, ok := s.User("amy"); ok {
		t.Error("user still present after RemoveUser()")
	}
	if err := s.RemoveUser("nobody"); err == nil {
		t.Error("RemoveUser() expected error for unknown user")
	}
}

func TestSave_RollbackOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roster.json")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	// A directory in place of the temp file makes the write fail.
	if err := os.Mkdir(path+".tmp", 0o750); err != nil {
		t.Fatal(err)
	}

	if err := s.AddGroup(models.Group{GID: "smith"}); err == nil {
		t.Fatal("AddGroup() expected save error")
	}
	if len(s.Groups()) != 0 {
		t.Error("AddGroup() did not roll back after save failure")
	}
}
