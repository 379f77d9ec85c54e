// Package users provides read-only access to the students and teachers
// collections, one table per role.
package users

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/schoolauth/internal/server/models"
)

type Repository interface {
	// FindByUsername returns every record named userName in the collection
	// for role. An empty slice means no match; errors are store failures.
	FindByUsername(ctx context.Context, role models.Role, userName string) ([]*models.User, error)
}

var tables = map[models.Role]string{
	models.RoleStudent: "students",
	models.RoleTeacher: "teachers",
}

func tableFor(role models.Role) (string, error) {
	t, ok := tables[role]
	if !ok {
		return "", fmt.Errorf("no collection for role %q", role)
	}
	return t, nil
}

func scanUsers(rows *sql.Rows) ([]*models.User, error) {
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u := &models.User{}
		var role string
		if err := rows.Scan(&u.ID, &u.UserName, &u.HashedPassword, &role); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		r, err := models.ParseRole(role)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		u.Role = r
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
