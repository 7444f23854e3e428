package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Meal slots supported by the planner.
const (
	MealTypeLunch  = "lunch"
	MealTypeDinner = "dinner"
)

// ValidMealType reports whether s names a known meal slot.
func ValidMealType(s string) bool {
	return s == MealTypeLunch || s == MealTypeDinner
}

// MealPlan assigns an optional recipe plus notes to a (date, meal slot) cell.
type MealPlan struct {
	ID        uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID  `json:"user_id" gorm:"type:char(36);not null;index"`
	Date      time.Time  `json:"date" gorm:"type:date;not null;index"`
	MealType  string     `json:"meal_type" gorm:"size:20;not null"`
	RecipeID  *uuid.UUID `json:"recipe_id,omitempty" gorm:"type:char(36);index"`
	Notes     string     `json:"notes" gorm:"type:text"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Relations
	Recipe *Recipe `json:"-" gorm:"foreignKey:RecipeID"`
}

// BeforeCreate sets UUID before creating the record.
func (m *MealPlan) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// MealPlanWithRecipe is the listing projection with the nested recipe summary.
type MealPlanWithRecipe struct {
	MealPlan
	RecipeSummary *RecipeSummary `json:"recipe,omitempty"`
}
