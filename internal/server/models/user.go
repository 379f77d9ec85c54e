// Package models holds the persistence-facing types of the authentication
// service.
package models

import "fmt"

// Role tags which user collection a record came from. The string values are
// returned to clients verbatim in the login response.
type Role string

const (
	RoleStudent Role = "Student"
	RoleTeacher Role = "Teacher"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// ParseRole accepts the canonical role names only.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// User is an immutable credential record read from the students or
// teachers table. Usernames are unique within one collection only.
type User struct {
	ID             string
	UserName       string
	HashedPassword string
	Role           Role
}
