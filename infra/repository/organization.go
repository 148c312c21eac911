package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/doemais/marketplace/pkg/domain"
	"github.com/doemais/marketplace/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type organizationDirectory struct {
	db *gorm.DB
}

// NewOrganizationDirectory creates a read-only lookup over the organizations
// table.
func NewOrganizationDirectory(db *gorm.DB) repository.OrganizationDirectory {
	return &organizationDirectory{db: db}
}

func (r *organizationDirectory) Get(
	ctx context.Context,
	id uuid.UUID,
) (*repository.Organization, error) {
	var model Organization
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find organization %s: %w", id, err)
	}
	return &repository.Organization{ID: model.ID, Name: model.Name}, nil
}
