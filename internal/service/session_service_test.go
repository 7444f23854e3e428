package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"couplerecipe/internal/auth"
	"couplerecipe/internal/errors"
	"couplerecipe/internal/model"
)

// MockIdentityRepository is a mock implementation of IdentityRepository.
type MockIdentityRepository struct {
	mock.Mock
}

func (m *MockIdentityRepository) Create(ctx context.Context, identity *model.Identity) error {
	args := m.Called(ctx, identity)
	if args.Error(0) == nil && identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockIdentityRepository) Update(ctx context.Context, identity *model.Identity) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

func (m *MockIdentityRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Identity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Identity), args.Error(1)
}

func (m *MockIdentityRepository) FindByEmail(ctx context.Context, email string) (*model.Identity, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Identity), args.Error(1)
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefreshToken(ctx context.Context, tokenID string, data auth.RefreshTokenData, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, data, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (*auth.RefreshTokenData, error) {
	args := m.Called(ctx, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.RefreshTokenData), args.Error(1)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

// MockMagicLinkStore is a mock implementation of MagicLinkStoreInterface.
type MockMagicLinkStore struct {
	mock.Mock
}

func (m *MockMagicLinkStore) Issue(ctx context.Context, payload auth.MagicLinkPayload, ttl time.Duration) (string, error) {
	args := m.Called(ctx, payload, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockMagicLinkStore) Consume(ctx context.Context, token string) (*auth.MagicLinkPayload, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.MagicLinkPayload), args.Error(1)
}

func (m *MockMagicLinkStore) ReserveSend(ctx context.Context, email string, interval time.Duration) (int, bool, error) {
	args := m.Called(ctx, email, interval)
	return args.Int(0), args.Bool(1), args.Error(2)
}

// MockMailer is a mock implementation of Mailer.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendMagicLink(ctx context.Context, to, link string) error {
	args := m.Called(ctx, to, link)
	return args.Error(0)
}

// MockProfileService is a mock implementation of ProfileService.
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) EnsureProfile(ctx context.Context, identityID uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockProfileService) EnsureProfileWithDetails(ctx context.Context, identityID uuid.UUID, nickname, role string) (*model.User, error) {
	args := m.Called(ctx, identityID, nickname, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockProfileService) GetByIdentity(ctx context.Context, identityID uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockProfileService) UpdateProfile(ctx context.Context, identityID uuid.UUID, nickname, role *string) (*model.User, error) {
	args := m.Called(ctx, identityID, nickname, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockProfileService) PairingStatus(ctx context.Context, identityID uuid.UUID) (*PairingStatus, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PairingStatus), args.Error(1)
}

func (m *MockProfileService) OwnerScope(ctx context.Context, identityID uuid.UUID) (*model.User, []uuid.UUID, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.User), args.Get(1).([]uuid.UUID), args.Error(2)
}

func newSessionServiceForTest(
	identities *MockIdentityRepository,
	profiles *MockProfileService,
	tokenStore *MockTokenStore,
	links *MockMagicLinkStore,
	mail *MockMailer,
) SessionService {
	return NewSessionService(
		identities,
		profiles,
		auth.NewJWTService("test-secret"),
		tokenStore,
		links,
		mail,
		SessionConfig{
			VerifyURL:    "http://localhost:8080/api/auth/verify",
			LinkTTL:      15 * time.Minute,
			SendInterval: 21 * time.Second,
		},
	)
}

func TestSessionService_SignInAnonymously(t *testing.T) {
	identities := new(MockIdentityRepository)
	profiles := new(MockProfileService)
	tokenStore := new(MockTokenStore)
	links := new(MockMagicLinkStore)
	mail := new(MockMailer)

	identities.On("Create", mock.Anything, mock.AnythingOfType("*model.Identity")).Return(nil)
	profiles.On("EnsureProfile", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(&model.User{ID: uuid.New()}, nil)
	tokenStore.On("StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, auth.RefreshTokenExpiry).Return(nil)

	service := newSessionServiceForTest(identities, profiles, tokenStore, links, mail)
	identity, pair, err := service.SignInAnonymously(context.Background())

	assert.NoError(t, err)
	assert.NotNil(t, identity)
	assert.True(t, identity.IsAnonymous)
	assert.Nil(t, identity.Email)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	identities.AssertExpectations(t)
	profiles.AssertExpectations(t)
	tokenStore.AssertExpectations(t)
}

func TestSessionService_CheckSession(t *testing.T) {
	identityID := uuid.New()

	t.Run("missing token is not an error", func(t *testing.T) {
		service := newSessionServiceForTest(new(MockIdentityRepository), new(MockProfileService), new(MockTokenStore), new(MockMagicLinkStore), new(MockMailer))

		identity, err := service.CheckSession(context.Background(), "")
		assert.NoError(t, err)
		assert.Nil(t, identity)
	})

	t.Run("garbage token is not an error", func(t *testing.T) {
		service := newSessionServiceForTest(new(MockIdentityRepository), new(MockProfileService), new(MockTokenStore), new(MockMagicLinkStore), new(MockMailer))

		identity, err := service.CheckSession(context.Background(), "not-a-jwt")
		assert.NoError(t, err)
		assert.Nil(t, identity)
	})

	t.Run("valid token resolves the identity", func(t *testing.T) {
		identities := new(MockIdentityRepository)
		identities.On("FindByID", mock.Anything, identityID).Return(&model.Identity{ID: identityID, IsAnonymous: true}, nil)
		service := newSessionServiceForTest(identities, new(MockProfileService), new(MockTokenStore), new(MockMagicLinkStore), new(MockMailer))

		token, err := auth.NewJWTService("test-secret").GenerateAccessToken(identityID, "", true)
		assert.NoError(t, err)

		identity, err := service.CheckSession(context.Background(), token)
		assert.NoError(t, err)
		assert.NotNil(t, identity)
		assert.Equal(t, identityID, identity.ID)
		identities.AssertExpectations(t)
	})

	t.Run("deleted identity behaves like no session", func(t *testing.T) {
		identities := new(MockIdentityRepository)
		identities.On("FindByID", mock.Anything, identityID).Return(nil, gorm.ErrRecordNotFound)
		service := newSessionServiceForTest(identities, new(MockProfileService), new(MockTokenStore), new(MockMagicLinkStore), new(MockMailer))

		token, err := auth.NewJWTService("test-secret").GenerateAccessToken(identityID, "", true)
		assert.NoError(t, err)

		identity, err := service.CheckSession(context.Background(), token)
		assert.NoError(t, err)
		assert.Nil(t, identity)
	})
}

func TestSessionService_RequestMagicLink(t *testing.T) {
	email := "taro@example.com"

	t.Run("sends the link", func(t *testing.T) {
		links := new(MockMagicLinkStore)
		mail := new(MockMailer)
		links.On("ReserveSend", mock.Anything, email, 21*time.Second).Return(0, true, nil)
		links.On("Issue", mock.Anything, mock.AnythingOfType("auth.MagicLinkPayload"), 15*time.Minute).Return("tok123", nil)
		mail.On("SendMagicLink", mock.Anything, email, "http://localhost:8080/api/auth/verify?token=tok123").Return(nil)

		service := newSessionServiceForTest(new(MockIdentityRepository), new(MockProfileService), new(MockTokenStore), links, mail)
		err := service.RequestMagicLink(context.Background(), email)

		assert.NoError(t, err)
		links.AssertExpectations(t)
		mail.AssertExpectations(t)
	})

	t.Run("repeat send within the interval is rate limited", func(t *testing.T) {
		links := new(MockMagicLinkStore)
		links.On("ReserveSend", mock.Anything, email, 21*time.Second).Return(17, false, nil)

		service := newSessionServiceForTest(new(MockIdentityRepository), new(MockProfileService), new(MockTokenStore), links, new(MockMailer))
		err := service.RequestMagicLink(context.Background(), email)

		var rateErr *errors.RateLimitError
		assert.ErrorAs(t, err, &rateErr)
		assert.Equal(t, 17, rateErr.RetryAfter)
		assert.Contains(t, err.Error(), "17")
		links.AssertExpectations(t)
	})
}

func TestSessionService_RequestConversionLink(t *testing.T) {
	identityID := uuid.New()
	email := "taro@example.com"

	tests := []struct {
		name          string
		setupMock     func(*MockIdentityRepository, *MockMagicLinkStore, *MockMailer)
		expectedError error
	}{
		{
			name: "sends conversion link for anonymous identity",
			setupMock: func(ids *MockIdentityRepository, links *MockMagicLinkStore, mail *MockMailer) {
				ids.On("FindByID", mock.Anything, identityID).Return(&model.Identity{ID: identityID, IsAnonymous: true}, nil)
				ids.On("FindByEmail", mock.Anything, email).Return(nil, gorm.ErrRecordNotFound)
				links.On("ReserveSend", mock.Anything, email, mock.Anything).Return(0, true, nil)
				links.On("Issue", mock.Anything, mock.MatchedBy(func(p auth.MagicLinkPayload) bool {
					return p.Purpose == auth.PurposeConvert && p.IdentityID == identityID
				}), mock.Anything).Return("tok", nil)
				mail.On("SendMagicLink", mock.Anything, email, mock.Anything).Return(nil)
			},
		},
		{
			name: "non-anonymous identity cannot convert",
			setupMock: func(ids *MockIdentityRepository, links *MockMagicLinkStore, mail *MockMailer) {
				other := "other@example.com"
				ids.On("FindByID", mock.Anything, identityID).Return(&model.Identity{ID: identityID, Email: &other}, nil)
			},
			expectedError: errors.ErrNotAnonymous,
		},
		{
			name: "address already bound to another identity",
			setupMock: func(ids *MockIdentityRepository, links *MockMagicLinkStore, mail *MockMailer) {
				ids.On("FindByID", mock.Anything, identityID).Return(&model.Identity{ID: identityID, IsAnonymous: true}, nil)
				ids.On("FindByEmail", mock.Anything, email).Return(&model.Identity{ID: uuid.New(), Email: &email}, nil)
			},
			expectedError: errors.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identities := new(MockIdentityRepository)
			links := new(MockMagicLinkStore)
			mail := new(MockMailer)
			tt.setupMock(identities, links, mail)

			service := newSessionServiceForTest(identities, new(MockProfileService), new(MockTokenStore), links, mail)
			err := service.RequestConversionLink(context.Background(), identityID, email)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
			} else {
				assert.NoError(t, err)
			}
			identities.AssertExpectations(t)
			links.AssertExpectations(t)
			mail.AssertExpectations(t)
		})
	}
}

func TestSessionService_VerifyMagicLink(t *testing.T) {
	identityID := uuid.New()
	email := "hanako@example.com"

	t.Run("unknown token", func(t *testing.T) {
		links := new(MockMagicLinkStore)
		links.On("Consume", mock.Anything, "gone").Return(nil, assert.AnError)

		service := newSessionServiceForTest(new(MockIdentityRepository), new(MockProfileService), new(MockTokenStore), links, new(MockMailer))
		identity, pair, err := service.VerifyMagicLink(context.Background(), "gone")

		assert.Equal(t, errors.ErrInvalidMagicLink, err)
		assert.Nil(t, identity)
		assert.Nil(t, pair)
	})

	t.Run("sign-in creates the identity on first verification", func(t *testing.T) {
		identities := new(MockIdentityRepository)
		profiles := new(MockProfileService)
		tokenStore := new(MockTokenStore)
		links := new(MockMagicLinkStore)

		links.On("Consume", mock.Anything, "tok").Return(&auth.MagicLinkPayload{Purpose: auth.PurposeSignIn, Email: email}, nil)
		identities.On("FindByEmail", mock.Anything, email).Return(nil, gorm.ErrRecordNotFound)
		identities.On("Create", mock.Anything, mock.AnythingOfType("*model.Identity")).Return(nil)
		profiles.On("EnsureProfile", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(&model.User{ID: uuid.New()}, nil)
		tokenStore.On("StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		service := newSessionServiceForTest(identities, profiles, tokenStore, links, new(MockMailer))
		identity, pair, err := service.VerifyMagicLink(context.Background(), "tok")

		assert.NoError(t, err)
		assert.NotNil(t, identity)
		assert.False(t, identity.IsAnonymous)
		assert.Equal(t, email, *identity.Email)
		assert.NotEmpty(t, pair.AccessToken)
		identities.AssertExpectations(t)
		profiles.AssertExpectations(t)
	})

	t.Run("sign-up applies nickname and role to the profile", func(t *testing.T) {
		identities := new(MockIdentityRepository)
		profiles := new(MockProfileService)
		tokenStore := new(MockTokenStore)
		links := new(MockMagicLinkStore)

		links.On("Consume", mock.Anything, "tok").Return(&auth.MagicLinkPayload{
			Purpose: auth.PurposeSignUp, Email: email, Nickname: "Hana", Role: model.RoleWife,
		}, nil)
		identities.On("FindByEmail", mock.Anything, email).Return(&model.Identity{ID: identityID, Email: &email}, nil)
		profiles.On("EnsureProfileWithDetails", mock.Anything, identityID, "Hana", model.RoleWife).Return(&model.User{ID: uuid.New()}, nil)
		tokenStore.On("StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		service := newSessionServiceForTest(identities, profiles, tokenStore, links, new(MockMailer))
		_, _, err := service.VerifyMagicLink(context.Background(), "tok")

		assert.NoError(t, err)
		profiles.AssertExpectations(t)
	})

	t.Run("conversion keeps the identity id", func(t *testing.T) {
		identities := new(MockIdentityRepository)
		profiles := new(MockProfileService)
		tokenStore := new(MockTokenStore)
		links := new(MockMagicLinkStore)

		links.On("Consume", mock.Anything, "tok").Return(&auth.MagicLinkPayload{
			Purpose: auth.PurposeConvert, Email: email, IdentityID: identityID,
		}, nil)
		identities.On("FindByID", mock.Anything, identityID).Return(&model.Identity{ID: identityID, IsAnonymous: true}, nil)
		identities.On("Update", mock.Anything, mock.AnythingOfType("*model.Identity")).Return(nil)
		profiles.On("EnsureProfile", mock.Anything, identityID).Return(&model.User{ID: uuid.New()}, nil)
		tokenStore.On("StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		service := newSessionServiceForTest(identities, profiles, tokenStore, links, new(MockMailer))
		identity, pair, err := service.VerifyMagicLink(context.Background(), "tok")

		assert.NoError(t, err)
		// The anonymous identity was upgraded in place, so ownership of
		// everything keyed by the id survives the conversion.
		assert.Equal(t, identityID, identity.ID)
		assert.False(t, identity.IsAnonymous)
		assert.Equal(t, email, *identity.Email)
		assert.NotEmpty(t, pair.RefreshToken)
		identities.AssertExpectations(t)
	})

	t.Run("conversion races with a taken email", func(t *testing.T) {
		identities := new(MockIdentityRepository)
		links := new(MockMagicLinkStore)

		links.On("Consume", mock.Anything, "tok").Return(&auth.MagicLinkPayload{
			Purpose: auth.PurposeConvert, Email: email, IdentityID: identityID,
		}, nil)
		identities.On("FindByID", mock.Anything, identityID).Return(&model.Identity{ID: identityID, IsAnonymous: true}, nil)
		identities.On("Update", mock.Anything, mock.AnythingOfType("*model.Identity")).Return(gorm.ErrDuplicatedKey)

		service := newSessionServiceForTest(identities, new(MockProfileService), new(MockTokenStore), links, new(MockMailer))
		_, _, err := service.VerifyMagicLink(context.Background(), "tok")

		assert.Equal(t, errors.ErrEmailTaken, err)
	})
}

func TestSessionService_RefreshAndSignOut(t *testing.T) {
	identityID := uuid.New()
	jwtService := auth.NewJWTService("test-secret")

	t.Run("refresh issues a new access token", func(t *testing.T) {
		tokenID, refresh, err := jwtService.GenerateRefreshToken(identityID, "", true)
		assert.NoError(t, err)

		tokenStore := new(MockTokenStore)
		tokenStore.On("GetRefreshToken", mock.Anything, tokenID).Return(&auth.RefreshTokenData{IdentityID: identityID, Anonymous: true}, nil)

		service := newSessionServiceForTest(new(MockIdentityRepository), new(MockProfileService), tokenStore, new(MockMagicLinkStore), new(MockMailer))
		access, err := service.Refresh(context.Background(), refresh)

		assert.NoError(t, err)
		assert.NotEmpty(t, access)
		tokenStore.AssertExpectations(t)
	})

	t.Run("revoked refresh token is rejected", func(t *testing.T) {
		tokenID, refresh, err := jwtService.GenerateRefreshToken(identityID, "", true)
		assert.NoError(t, err)

		tokenStore := new(MockTokenStore)
		tokenStore.On("GetRefreshToken", mock.Anything, tokenID).Return(nil, assert.AnError)

		service := newSessionServiceForTest(new(MockIdentityRepository), new(MockProfileService), tokenStore, new(MockMagicLinkStore), new(MockMailer))
		_, err = service.Refresh(context.Background(), refresh)

		assert.Equal(t, errors.ErrSessionRequired, err)
	})

	t.Run("sign-out with garbage token is a no-op", func(t *testing.T) {
		service := newSessionServiceForTest(new(MockIdentityRepository), new(MockProfileService), new(MockTokenStore), new(MockMagicLinkStore), new(MockMailer))
		assert.NoError(t, service.SignOut(context.Background(), "not-a-jwt"))
	})

	t.Run("sign-out deletes the stored token", func(t *testing.T) {
		tokenID, refresh, err := jwtService.GenerateRefreshToken(identityID, "", true)
		assert.NoError(t, err)

		tokenStore := new(MockTokenStore)
		tokenStore.On("DeleteRefreshToken", mock.Anything, tokenID).Return(nil)

		service := newSessionServiceForTest(new(MockIdentityRepository), new(MockProfileService), tokenStore, new(MockMagicLinkStore), new(MockMailer))
		assert.NoError(t, service.SignOut(context.Background(), refresh))
		tokenStore.AssertExpectations(t)
	})
}
