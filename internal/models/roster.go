package models

import "strings"

// Group is a principal-investigator-owned accounting unit.
type Group struct {
	GID        string   `json:"gid"`
	NGID       string   `json:"ngid,omitempty"`
	FirstName  string   `json:"firstName,omitempty"`
	LastName   string   `json:"lastName,omitempty"`
	Email      string   `json:"email,omitempty"`
	Department string   `json:"department,omitempty"`
	Projects   []string `json:"projects,omitempty"`
}

// DisplayName returns "First Last", falling back to the gid.
func (g Group) DisplayName() string {
	name := strings.TrimSpace(g.FirstName + " " + g.LastName)
	if name == "" {
		return g.GID
	}
	return name
}

// User is a cluster account. GID names either a group or a project.
type User struct {
	UID       string `json:"uid"`
	GID       string `json:"gid"`
	NUID      string `json:"nuid,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
}

// DisplayName returns "First Last", falling back to the uid.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.UID
	}
	return name
}
