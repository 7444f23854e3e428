package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"couplerecipe/internal/model"
)

// TagRepository defines tag persistence operations.
type TagRepository interface {
	ListByOwners(ctx context.Context, ownerIDs []uuid.UUID) ([]model.Tag, error)
	FindByIDForOwners(ctx context.Context, id uuid.UUID, ownerIDs []uuid.UUID) (*model.Tag, error)
	FindByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (*model.Tag, error)
	Create(ctx context.Context, tag *model.Tag) error
	Update(ctx context.Context, tag *model.Tag) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new tag repository.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

// ListByOwners lists tags in creation order.
func (r *tagRepository) ListByOwners(ctx context.Context, ownerIDs []uuid.UUID) ([]model.Tag, error) {
	var tags []model.Tag
	if err := r.db.WithContext(ctx).
		Where("user_id IN ?", ownerIDs).
		Order("created_at ASC").
		Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// FindByIDForOwners finds a tag by id within the owner set.
func (r *tagRepository) FindByIDForOwners(ctx context.Context, id uuid.UUID, ownerIDs []uuid.UUID) (*model.Tag, error) {
	var tag model.Tag
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id IN ?", id, ownerIDs).
		First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// FindByOwnerAndName finds a tag by exact name for one owner. The name
// column's binary collation makes the comparison case-sensitive.
func (r *tagRepository) FindByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (*model.Tag, error) {
	var tag model.Tag
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", ownerID, name).
		First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// Create inserts a tag.
func (r *tagRepository) Create(ctx context.Context, tag *model.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

// Update saves a tag.
func (r *tagRepository) Update(ctx context.Context, tag *model.Tag) error {
	return r.db.WithContext(ctx).Save(tag).Error
}

// Delete removes a tag and cascades to its recipe relations in one transaction.
func (r *tagRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&model.TagRelation{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Tag{}).Error
	})
}
