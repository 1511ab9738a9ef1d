// Package roster manages the group and user roster and resolves accounting
// identifiers to owning groups.
package roster

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/j-veylop/hpc-usage-report/internal/logger"
	"github.com/j-veylop/hpc-usage-report/internal/models"
)

// File represents the JSON file structure for roster storage.
type File struct {
	Groups  []models.Group `json:"groups"`
	Users   []models.User  `json:"users"`
	Version int            `json:"version,omitempty"`
}

// Store is the durable group and user roster.
type Store struct {
	mu       sync.RWMutex
	groups   []models.Group
	users    []models.User
	filePath string
}

// Open loads the roster at filePath, creating an empty roster file if none exists.
func Open(filePath string) (*Store, error) {
	if filePath == "" {
		return nil, fmt.Errorf("roster path is empty")
	}

	s := &Store{filePath: filePath}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create roster directory: %w", err)
	}

	if err := s.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load roster: %w", err)
		}
		if err := s.save(); err != nil {
			return nil, fmt.Errorf("failed to create roster file: %w", err)
		}
	}

	return s, nil
}

// Path returns the roster file path.
func (s *Store) Path() string {
	return s.filePath
}

// Groups returns a copy of all groups sorted by gid.
func (s *Store) Groups() []models.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]models.Group, len(s.groups))
	for i, g := range s.groups {
		groups[i] = g
		groups[i].Projects = slices.Clone(g.Projects)
	}
	return groups
}

// Users returns a copy of all users sorted by uid.
func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users)
}

// Group returns the group with the given gid.
func (s *Store) Group(gid string) (models.Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, g := range s.groups {
		if g.GID == gid {
			g.Projects = slices.Clone(g.Projects)
			return g, true
		}
	}
	return models.Group{}, false
}

// User returns the user with the given uid.
func (s *Store) User(uid string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.UID == uid {
			return u, true
		}
	}
	return models.User{}, false
}

// AddGroup adds a new group. Duplicate gids and projects already owned by
// another group are rejected.
func (s *Store) AddGroup(group models.Group) error {
	group.GID = strings.TrimSpace(group.GID)
	if group.GID == "" {
		return fmt.Errorf("group id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.groups {
		if g.GID == group.GID {
			return fmt.Errorf("group %s already exists", group.GID)
		}
		for _, p := range group.Projects {
			if slices.Contains(g.Projects, p) {
				return fmt.Errorf("project %s is already owned by group %s", p, g.GID)
			}
		}
	}

	previous := s.groups
	s.groups = append(slices.Clone(s.groups), group)
	sortGroups(s.groups)

	if err := s.saveLocked(); err != nil {
		// Rollback
		s.groups = previous
		return fmt.Errorf("failed to save roster: %w", err)
	}
	return nil
}

// RemoveGroup deletes a group by gid.
func (s *Store) RemoveGroup(gid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.groups, func(g models.Group) bool { return g.GID == gid })
	if idx == -1 {
		return fmt.Errorf("group not found: %s", gid)
	}

	previous := s.groups
	s.groups = slices.Delete(slices.Clone(s.groups), idx, idx+1)

	if err := s.saveLocked(); err != nil {
		s.groups = previous
		return fmt.Errorf("failed to save roster: %w", err)
	}
	return nil
}

// AddUser adds a new user. Duplicate uids are rejected.
func (s *Store) AddUser(user models.User) error {
	user.UID = strings.TrimSpace(user.UID)
	if user.UID == "" {
		return fmt.Errorf("user id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.UID == user.UID {
			return fmt.Errorf("user %s already exists", user.UID)
		}
	}

	previous := s.users
	s.users = append(slices.Clone(s.users), user)
	sortUsers(s.users)

	if err := s.saveLocked(); err != nil {
		s.users = previous
		return fmt.Errorf("failed to save roster: %w", err)
	}
	return nil
}

// RemoveUser deletes a user by uid.
func (s *Store) RemoveUser(uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.users, func(u models.User) bool { return u.UID == uid })
	if idx == -1 {
		return fmt.Errorf("user not found: %s", uid)
	}

	previous := s.users
	s.users = slices.Delete(slices.Clone(s.users), idx, idx+1)

	if err := s.saveLocked(); err != nil {
		s.users = previous
		return fmt.Errorf("failed to save roster: %w", err)
	}
	return nil
}

// Resolver returns an immutable resolver over the current roster.
func (s *Store) Resolver() *Resolver {
	return NewResolver(s.Groups(), s.Users())
}

// load reads the roster from disk.
func (s *Store) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse roster file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = file.Groups
	s.users = file.Users
	sortGroups(s.groups)
	sortUsers(s.users)
	return nil
}

func (s *Store) save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// saveLocked writes the roster file (must hold lock).
func (s *Store) saveLocked() error {
	file := File{
		Groups:  s.groups,
		Users:   s.users,
		Version: 1,
	}
	if file.Groups == nil {
		file.Groups = []models.Group{}
	}
	if file.Users == nil {
		file.Users = []models.User{}
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal roster: %w", err)
	}

	// Write to temp file first, then rename
	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpFile, s.filePath); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

func sortGroups(groups []models.Group) {
	slices.SortFunc(groups, func(a, b models.Group) int { return strings.Compare(a.GID, b.GID) })
}

func sortUsers(users []models.User) {
	slices.SortFunc(users, func(a, b models.User) int { return strings.Compare(a.UID, b.UID) })
}
