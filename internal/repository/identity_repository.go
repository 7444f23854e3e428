package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"couplerecipe/internal/model"
)

// IdentityRepository defines identity persistence operations.
type IdentityRepository interface {
	Create(ctx context.Context, identity *model.Identity) error
	Update(ctx context.Context, identity *model.Identity) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Identity, error)
	FindByEmail(ctx context.Context, email string) (*model.Identity, error)
}

type identityRepository struct {
	db *gorm.DB
}

// NewIdentityRepository builds a GORM-backed repository.
func NewIdentityRepository(db *gorm.DB) IdentityRepository {
	return &identityRepository{db: db}
}

func (r *identityRepository) Create(ctx context.Context, identity *model.Identity) error {
	return r.db.WithContext(ctx).Create(identity).Error
}

func (r *identityRepository) Update(ctx context.Context, identity *model.Identity) error {
	return r.db.WithContext(ctx).Save(identity).Error
}

func (r *identityRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Identity, error) {
	var identity model.Identity
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&identity).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *identityRepository) FindByEmail(ctx context.Context, email string) (*model.Identity, error) {
	var identity model.Identity
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&identity).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}
