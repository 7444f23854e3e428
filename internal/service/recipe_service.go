package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"couplerecipe/internal/cache"
	"couplerecipe/internal/errors"
	"couplerecipe/internal/model"
	"couplerecipe/internal/repository"
)

const recipeListCacheTTL = 5 * time.Minute

// RecipeInput carries the writable recipe fields. TagIDs replaces the full
// tag relation set on every write.
type RecipeInput struct {
	Title              string
	RecipeURL          string
	CookingTimeMinutes int
	Memo               string
	TagIDs             []uuid.UUID
}

// RecipeService handles couple-scoped recipe operations.
type RecipeService interface {
	ListRecipes(ctx context.Context, identityID uuid.UUID) ([]model.Recipe, error)
	CreateRecipe(ctx context.Context, identityID uuid.UUID, input RecipeInput) (*model.Recipe, error)
	UpdateRecipe(ctx context.Context, identityID, recipeID uuid.UUID, input RecipeInput) (*model.Recipe, error)
	DeleteRecipe(ctx context.Context, identityID, recipeID uuid.UUID) error
}

type recipeService struct {
	profiles   ProfileService
	recipeRepo repository.RecipeRepository
	tagRepo    repository.TagRepository
	cache      *cache.Client
}

// NewRecipeService creates a new recipe service.
func NewRecipeService(
	profiles ProfileService,
	recipeRepo repository.RecipeRepository,
	tagRepo repository.TagRepository,
	cache *cache.Client,
) RecipeService {
	return &recipeService{
		profiles:   profiles,
		recipeRepo: recipeRepo,
		tagRepo:    tagRepo,
		cache:      cache,
	}
}

// recipeListCacheKey is shared with the tag service: tag edits change the
// nested tag data inside cached recipe listings.
func recipeListCacheKey(ownerIDs []uuid.UUID) string {
	ids := make([]string, len(ownerIDs))
	for i, id := range ownerIDs {
		ids[i] = id.String()
	}
	sort.Strings(ids)
	return "recipes:" + strings.Join(ids, ":")
}

// ListRecipes lists the couple's recipes newest-first with tags, cached.
func (s *recipeService) ListRecipes(ctx context.Context, identityID uuid.UUID) ([]model.Recipe, error) {
	_, owners, err := s.profiles.OwnerScope(ctx, identityID)
	if err != nil {
		return nil, err
	}

	key := recipeListCacheKey(owners)
	if data, _ := s.cache.Get(ctx, key); data != nil {
		var cached []model.Recipe
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	recipes, err := s.recipeRepo.ListByOwners(ctx, owners)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}

	if payload, err := json.Marshal(recipes); err == nil {
		_ = s.cache.Set(ctx, key, payload, recipeListCacheTTL)
	}
	return recipes, nil
}

// CreateRecipe inserts a recipe owned by the caller.
func (s *recipeService) CreateRecipe(ctx context.Context, identityID uuid.UUID, input RecipeInput) (*model.Recipe, error) {
	if input.Title == "" {
		return nil, errors.ErrValidation
	}

	user, owners, err := s.profiles.OwnerScope(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTags(ctx, input.TagIDs, owners); err != nil {
		return nil, err
	}

	recipe := &model.Recipe{
		UserID:             user.ID,
		Title:              input.Title,
		RecipeURL:          input.RecipeURL,
		CookingTimeMinutes: input.CookingTimeMinutes,
		Memo:               input.Memo,
	}
	if err := s.recipeRepo.Create(ctx, recipe, input.TagIDs); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	_ = s.cache.Delete(ctx, recipeListCacheKey(owners))
	return s.recipeRepo.FindByIDForOwners(ctx, recipe.ID, owners)
}

// UpdateRecipe edits a recipe within the couple's records.
func (s *recipeService) UpdateRecipe(ctx context.Context, identityID, recipeID uuid.UUID, input RecipeInput) (*model.Recipe, error) {
	if input.Title == "" {
		return nil, errors.ErrValidation
	}

	_, owners, err := s.profiles.OwnerScope(ctx, identityID)
	if err != nil {
		return nil, err
	}

	recipe, err := s.recipeRepo.FindByIDForOwners(ctx, recipeID, owners)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("find recipe: %w", err)
	}
	if err := s.checkTags(ctx, input.TagIDs, owners); err != nil {
		return nil, err
	}

	recipe.Title = input.Title
	recipe.RecipeURL = input.RecipeURL
	recipe.CookingTimeMinutes = input.CookingTimeMinutes
	recipe.Memo = input.Memo
	if err := s.recipeRepo.Update(ctx, recipe, input.TagIDs); err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	_ = s.cache.Delete(ctx, recipeListCacheKey(owners))
	return s.recipeRepo.FindByIDForOwners(ctx, recipeID, owners)
}

// DeleteRecipe removes a recipe within the couple's records.
func (s *recipeService) DeleteRecipe(ctx context.Context, identityID, recipeID uuid.UUID) error {
	_, owners, err := s.profiles.OwnerScope(ctx, identityID)
	if err != nil {
		return err
	}

	if _, err := s.recipeRepo.FindByIDForOwners(ctx, recipeID, owners); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrRecipeNotFound
		}
		return fmt.Errorf("find recipe: %w", err)
	}

	if err := s.recipeRepo.Delete(ctx, recipeID); err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	_ = s.cache.Delete(ctx, recipeListCacheKey(owners))
	return nil
}

func (s *recipeService) checkTags(ctx context.Context, tagIDs []uuid.UUID, owners []uuid.UUID) error {
	for _, tagID := range tagIDs {
		if _, err := s.tagRepo.FindByIDForOwners(ctx, tagID, owners); err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrTagNotFound
			}
			return fmt.Errorf("find tag: %w", err)
		}
	}
	return nil
}
