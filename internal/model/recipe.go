package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recipe is an owned record; visibility extends to the owner's partner.
type Recipe struct {
	ID                 uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	UserID             uuid.UUID `json:"user_id" gorm:"type:char(36);not null;index"`
	Title              string    `json:"title" gorm:"size:255;not null"`
	RecipeURL          string    `json:"recipe_url" gorm:"size:2048"`
	CookingTimeMinutes int       `json:"cooking_time_minutes"`
	Memo               string    `json:"memo" gorm:"type:text"`
	CreatedAt          time.Time `json:"created_at" gorm:"index"`
	UpdatedAt          time.Time `json:"updated_at"`

	// Relations
	Tags []Tag `json:"tags,omitempty" gorm:"many2many:recipe_tag_relations;"`
}

// BeforeCreate sets UUID before creating the record.
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RecipeSummary is the projection nested inside meal plan listings.
type RecipeSummary struct {
	ID                 uuid.UUID `json:"id"`
	Title              string    `json:"title"`
	RecipeURL          string    `json:"recipe_url"`
	CookingTimeMinutes int       `json:"cooking_time_minutes"`
}

// Summary returns the nested projection used by meal plan queries.
func (r *Recipe) Summary() RecipeSummary {
	return RecipeSummary{
		ID:                 r.ID,
		Title:              r.Title,
		RecipeURL:          r.RecipeURL,
		CookingTimeMinutes: r.CookingTimeMinutes,
	}
}
