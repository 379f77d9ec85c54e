// Package identity resolves a username to a single credential record by
// asking user collections in a fixed priority order.
package identity

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/schoolauth/internal/common"
	"github.com/dmitrijs2005/schoolauth/internal/server/models"
	"github.com/dmitrijs2005/schoolauth/internal/server/repositories/users"
)

// Provider is one user collection.
type Provider interface {
	Role() models.Role
	FindByUsername(ctx context.Context, userName string) ([]*models.User, error)
}

// Resolver queries its providers in registration order and returns the
// first match.
type Resolver struct {
	providers []Provider
}

func NewResolver(providers ...Provider) *Resolver {
	return &Resolver{providers: providers}
}

// NewStudentFirstResolver registers the student collection ahead of the
// teacher collection, so a name present in both resolves to the student.
func NewStudentFirstResolver(repo users.Repository) *Resolver {
	return NewResolver(
		NewRepositoryProvider(repo, models.RoleStudent),
		NewRepositoryProvider(repo, models.RoleTeacher),
	)
}

// Resolve returns common.ErrorNotFound when no provider knows userName.
// A provider failure stops resolution and is reported as
// common.ErrStoreUnavailable; later providers are not consulted, because a
// lower-priority match could shadow a record the failed provider holds.
func (r *Resolver) Resolve(ctx context.Context, userName string) (*models.User, error) {
	for _, p := range r.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		found, err := p.FindByUsername(ctx, userName)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
		}
		if len(found) > 0 {
			return found[0], nil
		}
	}
	return nil, common.ErrorNotFound
}

// RepositoryProvider adapts a users.Repository to a single collection.
type RepositoryProvider struct {
	repo users.Repository
	role models.Role
}

func NewRepositoryProvider(repo users.Repository, role models.Role) *RepositoryProvider {
	return &RepositoryProvider{repo: repo, role: role}
}

func (p *RepositoryProvider) Role() models.Role { return p.role }

func (p *RepositoryProvider) FindByUsername(ctx context.Context, userName string) ([]*models.User, error) {
	return p.repo.FindByUsername(ctx, p.role, userName)
}
