package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"couplerecipe/internal/model"
)

// UserRepository defines profile persistence operations. The ForUpdate
// variants take row-level locks and are meant to be used inside
// WithTransaction; the pairing flow depends on them to serialize racers.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByAuthID(ctx context.Context, authID uuid.UUID) (*model.User, error)
	AssignPairCode(ctx context.Context, id uuid.UUID, code string, issuedAt time.Time) error
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByPairCodeForUpdate(ctx context.Context, code string) (*model.User, error)
	SetPaired(ctx context.Context, id, partnerID uuid.UUID) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new profile.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Update updates an existing profile.
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// FindByID finds a profile by ID.
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByAuthID finds a profile by its identity id.
func (r *userRepository) FindByAuthID(ctx context.Context, authID uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("auth_id = ?", authID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// AssignPairCode stores a fresh code on the profile, overwriting any previous
// one. The unique index on pair_code is the uniqueness guarantee: a collision
// surfaces as gorm.ErrDuplicatedKey and the caller retries with a new code.
func (r *userRepository) AssignPairCode(ctx context.Context, id uuid.UUID, code string, issuedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"pair_code":           code,
			"pair_code_issued_at": issuedAt,
		}).Error
}

// WithTransaction executes a function within a database transaction.
func (r *userRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &userRepository{db: tx}
		return fn(ctx, txRepo)
	})
}

// FindByIDForUpdate finds a profile by ID with a row-level lock.
func (r *userRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Set("gorm:query_option", "FOR UPDATE").
		Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByPairCodeForUpdate finds the profile holding a code with a row-level lock.
func (r *userRepository) FindByPairCodeForUpdate(ctx context.Context, code string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Set("gorm:query_option", "FOR UPDATE").
		Where("pair_code = ?", code).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SetPaired links a profile to its partner and consumes any pairing code on
// the row. Refusing rows that are already paired makes the write a
// compare-and-set: a racer that lost the lock cannot overwrite the link.
func (r *userRepository) SetPaired(ctx context.Context, id, partnerID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND paired_with IS NULL", id).
		Updates(map[string]interface{}{
			"paired_with":         partnerID,
			"pair_code":           nil,
			"pair_code_issued_at": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
