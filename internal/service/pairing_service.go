package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"couplerecipe/internal/errors"
	"couplerecipe/internal/model"
	"couplerecipe/internal/repository"
)

const (
	pairCodeLength = 6
	// No ambiguous characters (0/O, 1/I/L): codes are shared out of band,
	// often read aloud.
	pairCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	// Collisions against the unique index are retried with a fresh code.
	pairCodeMaxAttempts = 5
)

// PairResult reports a completed pairing from the requester's perspective.
type PairResult struct {
	Self    *model.User `json:"self"`
	Partner *model.User `json:"partner"`
}

// PairingService implements the mutual-consent linking protocol:
// Unpaired -> CodeIssued -> Paired. There is no transition out of Paired.
type PairingService interface {
	GeneratePairCode(ctx context.Context, userID uuid.UUID) (string, error)
	PerformPairing(ctx context.Context, userID uuid.UUID, code string) (*PairResult, error)
}

type pairingService struct {
	userRepo repository.UserRepository
	codeTTL  time.Duration
}

// NewPairingService creates a new pairing service.
func NewPairingService(userRepo repository.UserRepository, codeTTL time.Duration) PairingService {
	return &pairingService{userRepo: userRepo, codeTTL: codeTTL}
}

// GeneratePairCode issues a fresh 6-character code on the caller's profile,
// overwriting any previous one. Uniqueness among live codes is owned by the
// database unique index; on a collision the insert is retried with a new
// code, so two profiles can never hold the same code.
func (s *pairingService) GeneratePairCode(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", errors.ErrProfileNotFound
		}
		return "", fmt.Errorf("find profile: %w", err)
	}
	if user.IsPaired() {
		return "", errors.ErrAlreadyPaired
	}

	for attempt := 0; attempt < pairCodeMaxAttempts; attempt++ {
		code, err := randomPairCode()
		if err != nil {
			return "", err
		}
		err = s.userRepo.AssignPairCode(ctx, userID, code, time.Now())
		if err == gorm.ErrDuplicatedKey {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("assign pair code: %w", err)
		}
		return code, nil
	}
	return "", errors.ErrPairingFailed
}

// PerformPairing links the caller to the profile holding the entered code.
// Both paired_with pointers are written inside one transaction under row
// locks, so the link is applied entirely or not at all; a half-applied
// pairing cannot be observed. When two requesters race on the same code the
// locks serialize them and the loser gets a typed failure, never a partial
// link.
func (s *pairingService) PerformPairing(ctx context.Context, userID uuid.UUID, code string) (*PairResult, error) {
	// Length gate before touching storage.
	if len(code) != pairCodeLength {
		return nil, errors.ErrInvalidCode
	}

	var self, partner *model.User
	err := s.userRepo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.UserRepository) error {
		var err error

		self, err = txRepo.FindByIDForUpdate(ctx, userID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrProfileNotFound
			}
			return err
		}
		if self.IsPaired() {
			return errors.ErrAlreadyPaired
		}

		partner, err = txRepo.FindByPairCodeForUpdate(ctx, code)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrInvalidCode
			}
			return err
		}
		if partner.ID == self.ID {
			return errors.ErrSelfPairing
		}
		// Expired codes answer exactly like unknown ones.
		if !partner.HasLivePairCode(s.codeTTL, time.Now()) {
			return errors.ErrInvalidCode
		}
		if partner.IsPaired() {
			return errors.ErrAlreadyPaired
		}

		if err := txRepo.SetPaired(ctx, self.ID, partner.ID); err != nil {
			return errors.ErrPairingFailed
		}
		if err := txRepo.SetPaired(ctx, partner.ID, self.ID); err != nil {
			return errors.ErrPairingFailed
		}

		self.PairedWith = &partner.ID
		self.PairCode = nil
		partner.PairedWith = &self.ID
		partner.PairCode = nil
		return nil
	})
	if err != nil {
		switch err {
		case errors.ErrProfileNotFound, errors.ErrInvalidCode, errors.ErrSelfPairing,
			errors.ErrAlreadyPaired, errors.ErrPairingFailed:
			return nil, err
		}
		// Lock conflicts and aborted transactions land here.
		return nil, errors.ErrPairingFailed
	}

	return &PairResult{Self: self, Partner: partner}, nil
}

func randomPairCode() (string, error) {
	buf := make([]byte, pairCodeLength)
	max := big.NewInt(int64(len(pairCodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate pair code: %w", err)
		}
		buf[i] = pairCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
