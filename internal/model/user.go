package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Pairing roles. Optional and purely descriptive.
const (
	RoleHusband = "husband"
	RoleWife    = "wife"
)

// User is the application-level profile, bound 1:1 to an Identity via AuthID.
// Pairing is symmetric: after a successful pairing A.PairedWith = B.ID and
// B.PairedWith = A.ID, never one-sided.
type User struct {
	ID               uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	AuthID           uuid.UUID  `json:"auth_id" gorm:"type:char(36);uniqueIndex;not null"`
	DisplayName      string     `json:"display_name" gorm:"size:255;not null"`
	Nickname         *string    `json:"nickname,omitempty" gorm:"size:255"`
	Role             *string    `json:"role,omitempty" gorm:"size:50"`
	PairCode         *string    `json:"pair_code,omitempty" gorm:"uniqueIndex;size:6"`
	PairCodeIssuedAt *time.Time `json:"-"`
	PairedWith       *uuid.UUID `json:"paired_with,omitempty" gorm:"type:char(36);index"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsPaired reports whether the profile has a partner.
func (u *User) IsPaired() bool {
	return u.PairedWith != nil
}

// HasLivePairCode reports whether the profile holds a code issued within ttl.
func (u *User) HasLivePairCode(ttl time.Duration, now time.Time) bool {
	if u.PairCode == nil || u.PairCodeIssuedAt == nil {
		return false
	}
	return now.Sub(*u.PairCodeIssuedAt) <= ttl
}
