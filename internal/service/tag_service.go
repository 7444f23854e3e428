package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"couplerecipe/internal/cache"
	"couplerecipe/internal/errors"
	"couplerecipe/internal/model"
	"couplerecipe/internal/repository"
)

// TagService handles couple-scoped tag operations. Tag names are unique per
// owner with a case-sensitive comparison; the check runs before the insert
// and the composite unique index backs it under races.
type TagService interface {
	ListTags(ctx context.Context, identityID uuid.UUID) ([]model.Tag, error)
	CreateTag(ctx context.Context, identityID uuid.UUID, name, color string) (*model.Tag, error)
	UpdateTag(ctx context.Context, identityID, tagID uuid.UUID, name, color string) (*model.Tag, error)
	DeleteTag(ctx context.Context, identityID, tagID uuid.UUID) error
}

type tagService struct {
	profiles ProfileService
	tagRepo  repository.TagRepository
	cache    *cache.Client
}

// NewTagService creates a new tag service.
func NewTagService(profiles ProfileService, tagRepo repository.TagRepository, cache *cache.Client) TagService {
	return &tagService{profiles: profiles, tagRepo: tagRepo, cache: cache}
}

// ListTags lists the couple's tags in creation order.
func (s *tagService) ListTags(ctx context.Context, identityID uuid.UUID) ([]model.Tag, error) {
	_, owners, err := s.profiles.OwnerScope(ctx, identityID)
	if err != nil {
		return nil, err
	}
	tags, err := s.tagRepo.ListByOwners(ctx, owners)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// CreateTag inserts a tag owned by the caller.
func (s *tagService) CreateTag(ctx context.Context, identityID uuid.UUID, name, color string) (*model.Tag, error) {
	if name == "" {
		return nil, errors.ErrValidation
	}

	user, owners, err := s.profiles.OwnerScope(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if err := s.checkNameFree(ctx, user.ID, name); err != nil {
		return nil, err
	}

	tag := &model.Tag{UserID: user.ID, Name: name, Color: color}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		if err == gorm.ErrDuplicatedKey {
			return nil, errors.ErrTagNameTaken
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}

	_ = s.cache.Delete(ctx, recipeListCacheKey(owners))
	return tag, nil
}

// UpdateTag edits a tag within the couple's records.
func (s *tagService) UpdateTag(ctx context.Context, identityID, tagID uuid.UUID, name, color string) (*model.Tag, error) {
	if name == "" {
		return nil, errors.ErrValidation
	}

	_, owners, err := s.profiles.OwnerScope(ctx, identityID)
	if err != nil {
		return nil, err
	}

	tag, err := s.tagRepo.FindByIDForOwners(ctx, tagID, owners)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrTagNotFound
		}
		return nil, fmt.Errorf("find tag: %w", err)
	}

	if name != tag.Name {
		if err := s.checkNameFree(ctx, tag.UserID, name); err != nil {
			return nil, err
		}
	}

	tag.Name = name
	tag.Color = color
	if err := s.tagRepo.Update(ctx, tag); err != nil {
		if err == gorm.ErrDuplicatedKey {
			return nil, errors.ErrTagNameTaken
		}
		return nil, fmt.Errorf("update tag: %w", err)
	}

	_ = s.cache.Delete(ctx, recipeListCacheKey(owners))
	return tag, nil
}

// DeleteTag removes a tag; its recipe relations go with it.
func (s *tagService) DeleteTag(ctx context.Context, identityID, tagID uuid.UUID) error {
	_, owners, err := s.profiles.OwnerScope(ctx, identityID)
	if err != nil {
		return err
	}

	if _, err := s.tagRepo.FindByIDForOwners(ctx, tagID, owners); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrTagNotFound
		}
		return fmt.Errorf("find tag: %w", err)
	}

	if err := s.tagRepo.Delete(ctx, tagID); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	_ = s.cache.Delete(ctx, recipeListCacheKey(owners))
	return nil
}

func (s *tagService) checkNameFree(ctx context.Context, ownerID uuid.UUID, name string) error {
	_, err := s.tagRepo.FindByOwnerAndName(ctx, ownerID, name)
	if err == nil {
		return errors.ErrTagNameTaken
	}
	if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("check tag name: %w", err)
	}
	return nil
}
