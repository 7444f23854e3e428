package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"couplerecipe/internal/errors"
	"couplerecipe/internal/model"
	"couplerecipe/internal/repository"
)

const dateLayout = "2006-01-02"

// MealPlanInput carries the writable meal plan fields.
type MealPlanInput struct {
	Date     string
	MealType string
	RecipeID *uuid.UUID
	Notes    string
}

// MealPlanService handles couple-scoped meal plan operations.
type MealPlanService interface {
	ListMealPlans(ctx context.Context, identityID uuid.UUID, startDate, endDate string) ([]model.MealPlanWithRecipe, error)
	CreateMealPlan(ctx context.Context, identityID uuid.UUID, input MealPlanInput) (*model.MealPlan, error)
	UpdateMealPlan(ctx context.Context, identityID, planID uuid.UUID, input MealPlanInput) (*model.MealPlan, error)
	DeleteMealPlan(ctx context.Context, identityID, planID uuid.UUID) error
}

type mealPlanService struct {
	profiles   ProfileService
	planRepo   repository.MealPlanRepository
	recipeRepo repository.RecipeRepository
}

// NewMealPlanService creates a new meal plan service.
func NewMealPlanService(
	profiles ProfileService,
	planRepo repository.MealPlanRepository,
	recipeRepo repository.RecipeRepository,
) MealPlanService {
	return &mealPlanService{
		profiles:   profiles,
		planRepo:   planRepo,
		recipeRepo: recipeRepo,
	}
}

// ListMealPlans lists plans with date in the inclusive [startDate, endDate]
// range, ascending by date, each with a nested recipe summary.
func (s *mealPlanService) ListMealPlans(ctx context.Context, identityID uuid.UUID, startDate, endDate string) ([]model.MealPlanWithRecipe, error) {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, errors.ErrValidation
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return nil, errors.ErrValidation
	}
	if end.Before(start) {
		return nil, errors.ErrValidation
	}

	_, owners, err := s.profiles.OwnerScope(ctx, identityID)
	if err != nil {
		return nil, err
	}

	plans, err := s.planRepo.ListByOwnersInRange(ctx, owners, start, end)
	if err != nil {
		return nil, fmt.Errorf("list meal plans: %w", err)
	}

	result := make([]model.MealPlanWithRecipe, 0, len(plans))
	for _, plan := range plans {
		item := model.MealPlanWithRecipe{MealPlan: plan}
		if plan.Recipe != nil {
			summary := plan.Recipe.Summary()
			item.RecipeSummary = &summary
		}
		result = append(result, item)
	}
	return result, nil
}

// CreateMealPlan inserts a plan owned by the caller.
func (s *mealPlanService) CreateMealPlan(ctx context.Context, identityID uuid.UUID, input MealPlanInput) (*model.MealPlan, error) {
	date, err := s.validateInput(input)
	if err != nil {
		return nil, err
	}

	user, owners, err := s.profiles.OwnerScope(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRecipe(ctx, input.RecipeID, owners); err != nil {
		return nil, err
	}

	plan := &model.MealPlan{
		UserID:   user.ID,
		Date:     date,
		MealType: input.MealType,
		RecipeID: input.RecipeID,
		Notes:    input.Notes,
	}
	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("create meal plan: %w", err)
	}
	return plan, nil
}

// UpdateMealPlan edits a plan within the couple's records.
func (s *mealPlanService) UpdateMealPlan(ctx context.Context, identityID, planID uuid.UUID, input MealPlanInput) (*model.MealPlan, error) {
	date, err := s.validateInput(input)
	if err != nil {
		return nil, err
	}

	_, owners, err := s.profiles.OwnerScope(ctx, identityID)
	if err != nil {
		return nil, err
	}

	plan, err := s.planRepo.FindByIDForOwners(ctx, planID, owners)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrMealPlanNotFound
		}
		return nil, fmt.Errorf("find meal plan: %w", err)
	}
	if err := s.checkRecipe(ctx, input.RecipeID, owners); err != nil {
		return nil, err
	}

	plan.Date = date
	plan.MealType = input.MealType
	plan.RecipeID = input.RecipeID
	plan.Notes = input.Notes
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("update meal plan: %w", err)
	}
	return plan, nil
}

// DeleteMealPlan removes a plan within the couple's records.
func (s *mealPlanService) DeleteMealPlan(ctx context.Context, identityID, planID uuid.UUID) error {
	_, owners, err := s.profiles.OwnerScope(ctx, identityID)
	if err != nil {
		return err
	}

	if _, err := s.planRepo.FindByIDForOwners(ctx, planID, owners); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrMealPlanNotFound
		}
		return fmt.Errorf("find meal plan: %w", err)
	}
	if err := s.planRepo.Delete(ctx, planID); err != nil {
		return fmt.Errorf("delete meal plan: %w", err)
	}
	return nil
}

func (s *mealPlanService) validateInput(input MealPlanInput) (time.Time, error) {
	date, err := time.Parse(dateLayout, input.Date)
	if err != nil {
		return time.Time{}, errors.ErrValidation
	}
	if !model.ValidMealType(input.MealType) {
		return time.Time{}, errors.ErrValidation
	}
	return date, nil
}

func (s *mealPlanService) checkRecipe(ctx context.Context, recipeID *uuid.UUID, owners []uuid.UUID) error {
	if recipeID == nil {
		return nil
	}
	if _, err := s.recipeRepo.FindByIDForOwners(ctx, *recipeID, owners); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrRecipeNotFound
		}
		return fmt.Errorf("find recipe: %w", err)
	}
	return nil
}
