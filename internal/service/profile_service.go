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

// PairingStatus is the read-only projection of a profile's pairing state.
type PairingStatus struct {
	PairedWith *uuid.UUID   `json:"paired_with,omitempty"`
	PairCode   *string      `json:"pair_code,omitempty"`
	Nickname   *string      `json:"nickname,omitempty"`
	Role       *string      `json:"role,omitempty"`
	Partner    *PartnerInfo `json:"partner,omitempty"`
}

// PartnerInfo describes the paired profile.
type PartnerInfo struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Nickname    *string   `json:"nickname,omitempty"`
}

// ProfileService maps each identity to exactly one profile, idempotently.
type ProfileService interface {
	EnsureProfile(ctx context.Context, identityID uuid.UUID) (*model.User, error)
	EnsureProfileWithDetails(ctx context.Context, identityID uuid.UUID, nickname, role string) (*model.User, error)
	GetByIdentity(ctx context.Context, identityID uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, identityID uuid.UUID, nickname, role *string) (*model.User, error)
	PairingStatus(ctx context.Context, identityID uuid.UUID) (*PairingStatus, error)
	// OwnerScope resolves the caller's profile and the set of user ids whose
	// records the caller may see: their own, plus the partner's when paired.
	OwnerScope(ctx context.Context, identityID uuid.UUID) (*model.User, []uuid.UUID, error)
}

type profileService struct {
	userRepo repository.UserRepository
	ttl      time.Duration // pairing code lifetime, for status projection
}

// NewProfileService creates a new profile service.
func NewProfileService(userRepo repository.UserRepository, pairCodeTTL time.Duration) ProfileService {
	return &profileService{userRepo: userRepo, ttl: pairCodeTTL}
}

// EnsureProfile looks up the profile for an identity, inserting one with a
// generated display name when absent. A duplicate-insert race on auth_id
// means someone else created it first, so it is resolved by re-fetching.
func (s *profileService) EnsureProfile(ctx context.Context, identityID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByAuthID(ctx, identityID)
	if err == nil {
		return user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("find profile: %w", err)
	}

	user = &model.User{
		AuthID:      identityID,
		DisplayName: fmt.Sprintf("user-%d", time.Now().UnixMilli()),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if err == gorm.ErrDuplicatedKey {
			return s.userRepo.FindByAuthID(ctx, identityID)
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return user, nil
}

// EnsureProfileWithDetails ensures the profile and applies nickname/role
// from a sign-up flow. Provided values win over previous ones.
func (s *profileService) EnsureProfileWithDetails(ctx context.Context, identityID uuid.UUID, nickname, role string) (*model.User, error) {
	user, err := s.EnsureProfile(ctx, identityID)
	if err != nil {
		return nil, err
	}

	changed := false
	if nickname != "" {
		user.Nickname = &nickname
		changed = true
	}
	if role != "" {
		if role != model.RoleHusband && role != model.RoleWife {
			return nil, errors.ErrValidation
		}
		user.Role = &role
		changed = true
	}
	if changed {
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
	}
	return user, nil
}

// GetByIdentity returns the profile for an identity.
func (s *profileService) GetByIdentity(ctx context.Context, identityID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByAuthID(ctx, identityID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrProfileNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return user, nil
}

// UpdateProfile applies a partial edit. At least one field must be present.
func (s *profileService) UpdateProfile(ctx context.Context, identityID uuid.UUID, nickname, role *string) (*model.User, error) {
	if nickname == nil && role == nil {
		return nil, errors.ErrValidation
	}
	if role != nil && *role != model.RoleHusband && *role != model.RoleWife {
		return nil, errors.ErrValidation
	}

	user, err := s.GetByIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}

	if nickname != nil {
		user.Nickname = nickname
	}
	if role != nil {
		user.Role = role
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// PairingStatus returns the pairing projection. Expired codes are omitted so
// the caller never shows a code that can no longer pair.
func (s *profileService) PairingStatus(ctx context.Context, identityID uuid.UUID) (*PairingStatus, error) {
	user, err := s.GetByIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}

	status := &PairingStatus{
		PairedWith: user.PairedWith,
		Nickname:   user.Nickname,
		Role:       user.Role,
	}
	if user.HasLivePairCode(s.ttl, time.Now()) {
		status.PairCode = user.PairCode
	}

	if user.PairedWith != nil {
		partner, err := s.userRepo.FindByID(ctx, *user.PairedWith)
		if err == nil {
			status.Partner = &PartnerInfo{
				ID:          partner.ID,
				DisplayName: partner.DisplayName,
				Nickname:    partner.Nickname,
			}
		}
	}
	return status, nil
}

// OwnerScope resolves the data-access scope for a caller.
func (s *profileService) OwnerScope(ctx context.Context, identityID uuid.UUID) (*model.User, []uuid.UUID, error) {
	user, err := s.GetByIdentity(ctx, identityID)
	if err != nil {
		return nil, nil, err
	}
	owners := []uuid.UUID{user.ID}
	if user.PairedWith != nil {
		owners = append(owners, *user.PairedWith)
	}
	return user, owners, nil
}
