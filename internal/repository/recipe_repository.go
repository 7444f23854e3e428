package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"couplerecipe/internal/model"
)

// RecipeRepository defines recipe persistence operations. Reads are scoped to
// a set of owner ids (the couple); tag relations travel with the recipe.
type RecipeRepository interface {
	ListByOwners(ctx context.Context, ownerIDs []uuid.UUID) ([]model.Recipe, error)
	FindByIDForOwners(ctx context.Context, id uuid.UUID, ownerIDs []uuid.UUID) (*model.Recipe, error)
	Create(ctx context.Context, recipe *model.Recipe, tagIDs []uuid.UUID) error
	Update(ctx context.Context, recipe *model.Recipe, tagIDs []uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type recipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository.
func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

// ListByOwners lists recipes newest-first with tags preloaded.
func (r *recipeRepository) ListByOwners(ctx context.Context, ownerIDs []uuid.UUID) ([]model.Recipe, error) {
	var recipes []model.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Tags").
		Where("user_id IN ?", ownerIDs).
		Order("created_at DESC").
		Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// FindByIDForOwners finds a recipe by id within the owner set.
func (r *recipeRepository) FindByIDForOwners(ctx context.Context, id uuid.UUID, ownerIDs []uuid.UUID) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Tags").
		Where("id = ? AND user_id IN ?", id, ownerIDs).
		First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// Create inserts the recipe and its tag relations in one transaction.
func (r *recipeRepository) Create(ctx context.Context, recipe *model.Recipe, tagIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recipe).Error; err != nil {
			return err
		}
		return replaceTagRelations(tx, recipe.ID, tagIDs)
	})
}

// Update saves the recipe and replaces its tag relation set in one transaction.
func (r *recipeRepository) Update(ctx context.Context, recipe *model.Recipe, tagIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags").Save(recipe).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&model.TagRelation{}).Error; err != nil {
			return err
		}
		return replaceTagRelations(tx, recipe.ID, tagIDs)
	})
}

// Delete removes the recipe, its tag relations, and detaches it from meal
// plans in one transaction.
func (r *recipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&model.TagRelation{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.MealPlan{}).
			Where("recipe_id = ?", id).
			Update("recipe_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Recipe{}).Error
	})
}

func replaceTagRelations(tx *gorm.DB, recipeID uuid.UUID, tagIDs []uuid.UUID) error {
	for _, tagID := range tagIDs {
		rel := model.TagRelation{RecipeID: recipeID, TagID: tagID}
		if err := tx.Create(&rel).Error; err != nil {
			return err
		}
	}
	return nil
}
