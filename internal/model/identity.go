package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Identity is the authentication principal. It starts anonymous and may be
// upgraded in place to an email identity; the id never changes, which is what
// keeps profile ownership stable across conversion.
type Identity struct {
	ID          uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Email       *string   `json:"email,omitempty" gorm:"uniqueIndex;size:255"`
	IsAnonymous bool      `json:"is_anonymous" gorm:"default:true;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (i *Identity) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
