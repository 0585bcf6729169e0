package sqlite

import (
	"context"
	"strings"

	"github.com/example/standup-bot/internal/persistence"
)

type organizationRepository struct {
	q      querier
	mapper *ErrorMapper
}

const organizationColumns = `id, name, domain, creator_identity, created_at`

func (r organizationRepository) CreateOrganization(ctx context.Context, org persistence.Organization) error {
	if org.ID == "" || strings.TrimSpace(org.Name) == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO organizations (`+organizationColumns+`) VALUES (?, ?, ?, ?, ?)`,
		org.ID, org.Name, org.Domain, org.CreatorIdentity, formatTime(org.CreatedAt),
	)
	return r.mapper.MapError(err)
}

func (r organizationRepository) GetOrganization(ctx context.Context, id string) (persistence.Organization, error) {
	if id == "" {
		return persistence.Organization{}, persistence.ErrNotFound
	}
	return r.scanOne(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE id = ?`, id)
}

func (r organizationRepository) GetOrganizationByName(ctx context.Context, name string) (persistence.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return persistence.Organization{}, persistence.ErrNotFound
	}
	return r.scanOne(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE name = ?`, name)
}

func (r organizationRepository) scanOne(ctx context.Context, query string, args ...any) (persistence.Organization, error) {
	var (
		org     persistence.Organization
		created string
	)
	err := r.q.QueryRowContext(ctx, query, args...).Scan(&org.ID, &org.Name, &org.Domain, &org.CreatorIdentity, &created)
	if err != nil {
		return persistence.Organization{}, r.mapper.MapError(err)
	}
	if org.CreatedAt, err = parseTime("created_at", created); err != nil {
		return persistence.Organization{}, err
	}
	return org, nil
}
