package repository

import (
	"context"

	"github.com/google/uuid"
)

// Organization is the slice of the marketplace's organization record the
// donation flow needs. The organization CRUD itself lives outside this module.
type Organization struct {
	ID   uuid.UUID
	Name string
}

// OrganizationDirectory resolves donation targets. Returns domain.ErrNotFound
// for unknown organizations.
type OrganizationDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*Organization, error)
}
