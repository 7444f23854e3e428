package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"couplerecipe/internal/auth"
	"couplerecipe/internal/errors"
	"couplerecipe/internal/mailer"
	"couplerecipe/internal/model"
	"couplerecipe/internal/repository"
)

// TokenPair is the credential set issued on successful authentication.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SessionService owns the identity lifecycle: anonymous sign-in, passwordless
// email flows, in-place anonymous-to-email conversion, and sign-out.
//
// The passwordless flows are fire-and-forget: Request* returns once the link
// is dispatched, and authentication completes only when the link is verified.
type SessionService interface {
	SignInAnonymously(ctx context.Context) (*model.Identity, *TokenPair, error)
	CheckSession(ctx context.Context, accessToken string) (*model.Identity, error)
	RequestMagicLink(ctx context.Context, email string) error
	RequestSignUpLink(ctx context.Context, email, nickname, role string) error
	RequestConversionLink(ctx context.Context, identityID uuid.UUID, email string) error
	VerifyMagicLink(ctx context.Context, token string) (*model.Identity, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	SignOut(ctx context.Context, refreshToken string) error
}

// SessionConfig carries the tunables of the session service.
type SessionConfig struct {
	VerifyURL    string // base URL of the verification endpoint
	LinkTTL      time.Duration
	SendInterval time.Duration
}

type sessionService struct {
	identities repository.IdentityRepository
	profiles   ProfileService
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	links      auth.MagicLinkStoreInterface
	mail       mailer.Mailer
	cfg        SessionConfig
}

// NewSessionService creates a new session service.
func NewSessionService(
	identities repository.IdentityRepository,
	profiles ProfileService,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	links auth.MagicLinkStoreInterface,
	mail mailer.Mailer,
	cfg SessionConfig,
) SessionService {
	return &sessionService{
		identities: identities,
		profiles:   profiles,
		jwtService: jwtService,
		tokenStore: tokenStore,
		links:      links,
		mail:       mail,
		cfg:        cfg,
	}
}

// SignInAnonymously creates a fresh anonymous identity with its profile and
// issues a token pair.
func (s *sessionService) SignInAnonymously(ctx context.Context) (*model.Identity, *TokenPair, error) {
	identity := &model.Identity{IsAnonymous: true}
	if err := s.identities.Create(ctx, identity); err != nil {
		return nil, nil, fmt.Errorf("create identity: %w", err)
	}

	if _, err := s.profiles.EnsureProfile(ctx, identity.ID); err != nil {
		return nil, nil, err
	}

	pair, err := s.issueTokens(ctx, identity)
	if err != nil {
		return nil, nil, err
	}
	return identity, pair, nil
}

// CheckSession resolves an access token to its identity. Absence of a
// session (missing, malformed, or expired token, or a deleted identity) is
// not an error: it returns nil, nil.
func (s *sessionService) CheckSession(ctx context.Context, accessToken string) (*model.Identity, error) {
	if accessToken == "" {
		return nil, nil
	}
	claims, err := s.jwtService.ValidateToken(accessToken)
	if err != nil {
		return nil, nil
	}
	identity, err := s.identities.FindByID(ctx, claims.IdentityID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return identity, nil
}

// RequestMagicLink dispatches a sign-in link, enforcing the minimum interval
// between sends to the same address.
func (s *sessionService) RequestMagicLink(ctx context.Context, email string) error {
	return s.sendLink(ctx, auth.MagicLinkPayload{
		Purpose: auth.PurposeSignIn,
		Email:   email,
	})
}

// RequestSignUpLink dispatches a sign-up link; nickname and role are applied
// to the profile when the link is verified.
func (s *sessionService) RequestSignUpLink(ctx context.Context, email, nickname, role string) error {
	if role != "" && role != model.RoleHusband && role != model.RoleWife {
		return errors.ErrValidation
	}
	return s.sendLink(ctx, auth.MagicLinkPayload{
		Purpose:  auth.PurposeSignUp,
		Email:    email,
		Nickname: nickname,
		Role:     role,
	})
}

// RequestConversionLink dispatches a link that upgrades the given anonymous
// identity to the email in place. The identity id, the profile, and all
// owned records are preserved.
func (s *sessionService) RequestConversionLink(ctx context.Context, identityID uuid.UUID, email string) error {
	identity, err := s.identities.FindByID(ctx, identityID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrIdentityNotFound
		}
		return fmt.Errorf("find identity: %w", err)
	}
	if !identity.IsAnonymous {
		return errors.ErrNotAnonymous
	}

	if existing, err := s.identities.FindByEmail(ctx, email); err == nil && existing.ID != identityID {
		return errors.ErrEmailTaken
	}

	return s.sendLink(ctx, auth.MagicLinkPayload{
		Purpose:    auth.PurposeConvert,
		Email:      email,
		IdentityID: identityID,
	})
}

// VerifyMagicLink consumes a one-time token and completes the deferred flow.
func (s *sessionService) VerifyMagicLink(ctx context.Context, token string) (*model.Identity, *TokenPair, error) {
	payload, err := s.links.Consume(ctx, token)
	if err != nil {
		return nil, nil, errors.ErrInvalidMagicLink
	}

	var identity *model.Identity
	switch payload.Purpose {
	case auth.PurposeConvert:
		identity, err = s.convertIdentity(ctx, payload)
	case auth.PurposeSignIn, auth.PurposeSignUp:
		identity, err = s.findOrCreateByEmail(ctx, payload.Email)
	default:
		return nil, nil, errors.ErrInvalidMagicLink
	}
	if err != nil {
		return nil, nil, err
	}

	if payload.Purpose == auth.PurposeSignUp {
		if _, err := s.profiles.EnsureProfileWithDetails(ctx, identity.ID, payload.Nickname, payload.Role); err != nil {
			return nil, nil, err
		}
	} else if _, err := s.profiles.EnsureProfile(ctx, identity.ID); err != nil {
		return nil, nil, err
	}

	pair, err := s.issueTokens(ctx, identity)
	if err != nil {
		return nil, nil, err
	}
	return identity, pair, nil
}

// Refresh validates a refresh token against the store and issues a new
// access token.
func (s *sessionService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return "", errors.ErrSessionRequired
	}
	tokenID, err := s.jwtService.ExtractTokenID(refreshToken)
	if err != nil {
		return "", errors.ErrSessionRequired
	}
	stored, err := s.tokenStore.GetRefreshToken(ctx, tokenID)
	if err != nil || stored.IdentityID != claims.IdentityID {
		return "", errors.ErrSessionRequired
	}
	return s.jwtService.GenerateAccessToken(stored.IdentityID, stored.Email, stored.Anonymous)
}

// SignOut invalidates the refresh token. Unknown tokens are treated as
// already signed out.
func (s *sessionService) SignOut(ctx context.Context, refreshToken string) error {
	tokenID, err := s.jwtService.ExtractTokenID(refreshToken)
	if err != nil {
		return nil
	}
	return s.tokenStore.DeleteRefreshToken(ctx, tokenID)
}

func (s *sessionService) sendLink(ctx context.Context, payload auth.MagicLinkPayload) error {
	retryAfter, ok, err := s.links.ReserveSend(ctx, payload.Email, s.cfg.SendInterval)
	if err != nil {
		return fmt.Errorf("reserve send: %w", err)
	}
	if !ok {
		return &errors.RateLimitError{RetryAfter: retryAfter}
	}

	token, err := s.links.Issue(ctx, payload, s.cfg.LinkTTL)
	if err != nil {
		return fmt.Errorf("issue link token: %w", err)
	}

	link := s.cfg.VerifyURL + "?token=" + url.QueryEscape(token)
	if err := s.mail.SendMagicLink(ctx, payload.Email, link); err != nil {
		return fmt.Errorf("dispatch link: %w", err)
	}
	return nil
}

func (s *sessionService) findOrCreateByEmail(ctx context.Context, email string) (*model.Identity, error) {
	identity, err := s.identities.FindByEmail(ctx, email)
	if err == nil {
		return identity, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("find identity: %w", err)
	}

	identity = &model.Identity{Email: &email, IsAnonymous: false}
	if err := s.identities.Create(ctx, identity); err != nil {
		// Someone verified first with the same address; use their identity.
		if err == gorm.ErrDuplicatedKey {
			return s.identities.FindByEmail(ctx, email)
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return identity, nil
}

func (s *sessionService) convertIdentity(ctx context.Context, payload *auth.MagicLinkPayload) (*model.Identity, error) {
	identity, err := s.identities.FindByID(ctx, payload.IdentityID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	if !identity.IsAnonymous {
		return nil, errors.ErrNotAnonymous
	}

	email := payload.Email
	identity.Email = &email
	identity.IsAnonymous = false
	if err := s.identities.Update(ctx, identity); err != nil {
		if err == gorm.ErrDuplicatedKey {
			return nil, errors.ErrEmailTaken
		}
		return nil, fmt.Errorf("update identity: %w", err)
	}
	return identity, nil
}

func (s *sessionService) issueTokens(ctx context.Context, identity *model.Identity) (*TokenPair, error) {
	email := ""
	if identity.Email != nil {
		email = *identity.Email
	}

	access, err := s.jwtService.GenerateAccessToken(identity.ID, email, identity.IsAnonymous)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	tokenID, refresh, err := s.jwtService.GenerateRefreshToken(identity.ID, email, identity.IsAnonymous)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	data := auth.RefreshTokenData{IdentityID: identity.ID, Email: email, Anonymous: identity.IsAnonymous}
	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, data, auth.RefreshTokenExpiry); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
