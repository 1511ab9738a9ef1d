package roster

import (
	"slices"

	"github.com/j-veylop/hpc-usage-report/internal/models"
)

// Resolver maps user ids, project names and group ids to their owning group.
// It is a read-only snapshot and safe for concurrent use.
type Resolver struct {
	groups       map[string]models.Group
	userGroup    map[string]string
	projectOwner map[string]string
	users        map[string]models.User
	sortedGroups []string
}

// NewResolver builds a resolver from roster contents.
func NewResolver(groups []models.Group, users []models.User) *Resolver {
	r := &Resolver{
		groups:       make(map[string]models.Group, len(groups)),
		userGroup:    make(map[string]string, len(users)),
		projectOwner: make(map[string]string),
		users:        make(map[string]models.User, len(users)),
	}

	for _, g := range groups {
		r.groups[g.GID] = g
		r.sortedGroups = append(r.sortedGroups, g.GID)
		for _, p := range g.Projects {
			r.projectOwner[p] = g.GID
		}
	}
	slices.Sort(r.sortedGroups)

	for _, u := range users {
		r.users[u.UID] = u
		switch {
		case r.isGroup(u.GID):
			r.userGroup[u.UID] = u.GID
		case r.projectOwner[u.GID] != "":
			r.userGroup[u.UID] = r.projectOwner[u.GID]
		}
	}

	return r
}

func (r *Resolver) isGroup(id string) bool {
	_, ok := r.groups[id]
	return ok
}

// ResolveOwner returns the group that owns id: a known group resolves to
// itself, a user to its group and a project to its owner. Anything else
// resolves to models.MiscGroup.
func (r *Resolver) ResolveOwner(id string) string {
	if r.isGroup(id) {
		return id
	}
	if gid, ok := r.userGroup[id]; ok {
		return gid
	}
	if gid, ok := r.projectOwner[id]; ok {
		return gid
	}
	return models.MiscGroup
}

// IsKnownOwner reports whether id is an attributable user or a project.
func (r *Resolver) IsKnownOwner(id string) bool {
	if _, ok := r.userGroup[id]; ok {
		return true
	}
	_, ok := r.projectOwner[id]
	return ok
}

// Groups returns all known group ids, sorted.
func (r *Resolver) Groups() []string {
	return slices.Clone(r.sortedGroups)
}

// Projects returns the projects owned by gid.
func (r *Resolver) Projects(gid string) []string {
	return slices.Clone(r.groups[gid].Projects)
}

// Department returns the department of gid, or "" if unknown.
func (r *Resolver) Department(gid string) string {
	return r.groups[gid].Department
}

// Group returns the roster entry for gid.
func (r *Resolver) Group(gid string) (models.Group, bool) {
	g, ok := r.groups[gid]
	return g, ok
}

// Label returns a display label for a group id.
func (r *Resolver) Label(gid string) string {
	if g, ok := r.groups[gid]; ok {
		return g.DisplayName()
	}
	return gid
}

// UserGroups maps every attributable user to its group.
func (r *Resolver) UserGroups() map[string]string {
	out := make(map[string]string, len(r.userGroup))
	for uid, gid := range r.userGroup {
		out[uid] = gid
	}
	return out
}
