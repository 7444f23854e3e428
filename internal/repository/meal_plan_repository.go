package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"couplerecipe/internal/model"
)

// MealPlanRepository defines meal plan persistence operations.
type MealPlanRepository interface {
	ListByOwnersInRange(ctx context.Context, ownerIDs []uuid.UUID, start, end time.Time) ([]model.MealPlan, error)
	FindByIDForOwners(ctx context.Context, id uuid.UUID, ownerIDs []uuid.UUID) (*model.MealPlan, error)
	Create(ctx context.Context, plan *model.MealPlan) error
	Update(ctx context.Context, plan *model.MealPlan) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type mealPlanRepository struct {
	db *gorm.DB
}

// NewMealPlanRepository creates a new meal plan repository.
func NewMealPlanRepository(db *gorm.DB) MealPlanRepository {
	return &mealPlanRepository{db: db}
}

// ListByOwnersInRange lists plans with date in [start, end] inclusive,
// ascending by date, with the referenced recipe preloaded.
func (r *mealPlanRepository) ListByOwnersInRange(ctx context.Context, ownerIDs []uuid.UUID, start, end time.Time) ([]model.MealPlan, error) {
	var plans []model.MealPlan
	if err := r.db.WithContext(ctx).
		Preload("Recipe").
		Where("user_id IN ? AND date >= ? AND date <= ?", ownerIDs, start, end).
		Order("date ASC").
		Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

// FindByIDForOwners finds a plan by id within the owner set.
func (r *mealPlanRepository) FindByIDForOwners(ctx context.Context, id uuid.UUID, ownerIDs []uuid.UUID) (*model.MealPlan, error) {
	var plan model.MealPlan
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id IN ?", id, ownerIDs).
		First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// Create inserts a plan.
func (r *mealPlanRepository) Create(ctx context.Context, plan *model.MealPlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

// Update saves a plan.
func (r *mealPlanRepository) Update(ctx context.Context, plan *model.MealPlan) error {
	return r.db.WithContext(ctx).Omit("Recipe").Save(plan).Error
}

// Delete removes a plan.
func (r *mealPlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.MealPlan{}).Error
}
