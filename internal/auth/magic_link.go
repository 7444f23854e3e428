package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"couplerecipe/internal/cache"
)

const (
	magicLinkKeyPrefix = "magic_link:"
	rateLimitKeyPrefix = "magic_link_rate:"
)

// Magic-link purposes. The purpose decides what verification does with the
// payload: create a session, create a profile, or upgrade an identity.
const (
	PurposeSignIn  = "signin"
	PurposeSignUp  = "signup"
	PurposeConvert = "convert"
)

// MagicLinkPayload is stored server-side for the lifetime of a link.
type MagicLinkPayload struct {
	Purpose    string    `json:"purpose"`
	Email      string    `json:"email"`
	Nickname   string    `json:"nickname,omitempty"`
	Role       string    `json:"role,omitempty"`
	IdentityID uuid.UUID `json:"identity_id,omitempty"` // conversion target
}

// MagicLinkStoreInterface defines one-time token storage plus the per-address
// send rate limit.
type MagicLinkStoreInterface interface {
	Issue(ctx context.Context, payload MagicLinkPayload, ttl time.Duration) (string, error)
	Consume(ctx context.Context, token string) (*MagicLinkPayload, error)
	ReserveSend(ctx context.Context, email string, interval time.Duration) (retryAfter int, ok bool, err error)
}

// MagicLinkStore keeps one-time tokens and rate-limit markers in Redis.
type MagicLinkStore struct {
	cache *cache.Client
}

var _ MagicLinkStoreInterface = (*MagicLinkStore)(nil)

// NewMagicLinkStore creates a new magic-link store.
func NewMagicLinkStore(cache *cache.Client) *MagicLinkStore {
	return &MagicLinkStore{cache: cache}
}

// Issue stores the payload under a fresh random token with TTL and returns
// the token. The token is 256 bits from crypto/rand, hex encoded.
func (s *MagicLinkStore) Issue(ctx context.Context, payload MagicLinkPayload, ttl time.Duration) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(buf)

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal link payload: %w", err)
	}
	if err := s.cache.Set(ctx, magicLinkKeyPrefix+token, raw, ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Consume atomically fetches and invalidates a token. A second call with the
// same token finds nothing, so a link can authenticate at most once.
func (s *MagicLinkStore) Consume(ctx context.Context, token string) (*MagicLinkPayload, error) {
	raw, err := s.cache.GetDel(ctx, magicLinkKeyPrefix+token)
	if err != nil || raw == nil {
		return nil, fmt.Errorf("magic link not found")
	}
	var payload MagicLinkPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal link payload: %w", err)
	}
	return &payload, nil
}

// ReserveSend claims the send slot for an address. When a link was already
// sent within interval it returns ok=false and the remaining whole seconds
// the caller must wait. Fails open when redis is unavailable.
func (s *MagicLinkStore) ReserveSend(ctx context.Context, email string, interval time.Duration) (int, bool, error) {
	key := rateLimitKeyPrefix + email
	set, err := s.cache.SetNX(ctx, key, []byte("1"), interval)
	if err != nil {
		return 0, true, nil
	}
	if set {
		return 0, true, nil
	}

	remaining, _ := s.cache.TTL(ctx, key)
	retryAfter := int(math.Ceil(remaining.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	return retryAfter, false, nil
}
