package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"couplerecipe/internal/cache"
	"couplerecipe/internal/errors"
	"couplerecipe/internal/model"
)

// PreferenceService stores per-user UI preferences in Redis. Preferences are
// cache-grade: losing them is acceptable and nothing treats them as the
// source of truth.
type PreferenceService interface {
	HiddenSlots(ctx context.Context, identityID uuid.UUID) ([]string, error)
	SetHiddenSlots(ctx context.Context, identityID uuid.UUID, slots []string) error
}

type preferenceService struct {
	profiles ProfileService
	cache    *cache.Client
}

// NewPreferenceService creates a new preference service.
func NewPreferenceService(profiles ProfileService, cache *cache.Client) PreferenceService {
	return &preferenceService{profiles: profiles, cache: cache}
}

func hiddenSlotsKey(userID uuid.UUID) string {
	return "hidden_slots:" + userID.String()
}

// HiddenSlots returns the caller's hidden meal-slot keys.
func (s *preferenceService) HiddenSlots(ctx context.Context, identityID uuid.UUID) ([]string, error) {
	user, err := s.profiles.GetByIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}

	data, _ := s.cache.Get(ctx, hiddenSlotsKey(user.ID))
	if data == nil {
		return []string{}, nil
	}
	var slots []string
	if err := json.Unmarshal(data, &slots); err != nil {
		return []string{}, nil
	}
	return slots, nil
}

// SetHiddenSlots replaces the caller's hidden meal-slot set. Slot keys are
// "YYYY-MM-DD:mealType".
func (s *preferenceService) SetHiddenSlots(ctx context.Context, identityID uuid.UUID, slots []string) error {
	for _, slot := range slots {
		if !validSlotKey(slot) {
			return errors.ErrValidation
		}
	}

	user, err := s.profiles.GetByIdentity(ctx, identityID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("marshal slots: %w", err)
	}
	return s.cache.Set(ctx, hiddenSlotsKey(user.ID), payload, 0)
}

func validSlotKey(slot string) bool {
	date, mealType, ok := strings.Cut(slot, ":")
	if !ok {
		return false
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return false
	}
	return model.ValidMealType(mealType)
}
