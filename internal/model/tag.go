package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag labels recipes. Names are unique per owner; the column uses a binary
// collation so the uniqueness check is case-sensitive.
type Tag struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:char(36);not null;uniqueIndex:idx_tag_owner_name"`
	Name      string    `json:"name" gorm:"size:100;not null;uniqueIndex:idx_tag_owner_name;collate:utf8mb4_bin"`
	Color     string    `json:"color" gorm:"size:20"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps the reference schema's table name.
func (Tag) TableName() string { return "recipe_tags" }

// BeforeCreate sets UUID before creating the record.
func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TagRelation joins recipes and tags. Rows are removed when either side is
// deleted (cascade on tag delete, same-transaction delete on recipe delete).
type TagRelation struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	RecipeID  uuid.UUID `json:"recipe_id" gorm:"type:char(36);not null;uniqueIndex:idx_recipe_tag"`
	TagID     uuid.UUID `json:"tag_id" gorm:"type:char(36);not null;uniqueIndex:idx_recipe_tag"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the reference schema's table name.
func (TagRelation) TableName() string { return "recipe_tag_relations" }

// BeforeCreate sets UUID before creating the record.
func (tr *TagRelation) BeforeCreate(tx *gorm.DB) error {
	if tr.ID == uuid.Nil {
		tr.ID = uuid.New()
	}
	return nil
}
