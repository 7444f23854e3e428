package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"couplerecipe/internal/errors"
	"couplerecipe/internal/model"
	"couplerecipe/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByAuthID(ctx context.Context, authID uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, authID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) AssignPairCode(ctx context.Context, id uuid.UUID, code string, issuedAt time.Time) error {
	args := m.Called(ctx, id, code, issuedAt)
	return args.Error(0)
}

// WithTransaction runs the callback against the mock itself, standing in for
// the transactional repository.
func (m *MockUserRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.UserRepository) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx, m)
}

func (m *MockUserRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByPairCodeForUpdate(ctx context.Context, code string) (*model.User, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) SetPaired(ctx context.Context, id, partnerID uuid.UUID) error {
	args := m.Called(ctx, id, partnerID)
	return args.Error(0)
}

func TestPairingService_GeneratePairCode(t *testing.T) {
	userID := uuid.New()
	partnerID := uuid.New()

	tests := []struct {
		name          string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name: "successful code generation",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, userID).Return(&model.User{ID: userID}, nil)
				m.On("AssignPairCode", mock.Anything, userID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)
			},
			expectedError: nil,
		},
		{
			name: "retries on code collision",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, userID).Return(&model.User{ID: userID}, nil)
				m.On("AssignPairCode", mock.Anything, userID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
					Return(gorm.ErrDuplicatedKey).Once()
				m.On("AssignPairCode", mock.Anything, userID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
					Return(nil).Once()
			},
			expectedError: nil,
		},
		{
			name: "already paired",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, userID).Return(&model.User{ID: userID, PairedWith: &partnerID}, nil)
			},
			expectedError: errors.ErrAlreadyPaired,
		},
		{
			name: "profile not found",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, userID).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: errors.ErrProfileNotFound,
		},
		{
			name: "gives up after exhausting collision retries",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, userID).Return(&model.User{ID: userID}, nil)
				m.On("AssignPairCode", mock.Anything, userID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
					Return(gorm.ErrDuplicatedKey)
			},
			expectedError: errors.ErrPairingFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			service := NewPairingService(mockRepo, 15*time.Minute)
			code, err := service.GeneratePairCode(context.Background(), userID)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError, err)
				assert.Empty(t, code)
			} else {
				assert.NoError(t, err)
				assert.Len(t, code, 6)
				for _, ch := range code {
					assert.True(t, strings.ContainsRune(pairCodeAlphabet, ch),
						"code %q contains %q outside the alphabet", code, ch)
				}
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestPairingService_PerformPairing(t *testing.T) {
	selfID := uuid.New()
	partnerID := uuid.New()
	thirdID := uuid.New()
	now := time.Now()
	staleIssue := now.Add(-1 * time.Hour)

	code := "ABC234"
	unpairedSelf := func() *model.User { return &model.User{ID: selfID} }
	codeHolder := func() *model.User {
		c := code
		return &model.User{ID: partnerID, PairCode: &c, PairCodeIssuedAt: &now}
	}

	tests := []struct {
		name          string
		code          string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name: "successful pairing writes both links",
			code: code,
			setupMock: func(m *MockUserRepository) {
				m.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
				m.On("FindByIDForUpdate", mock.Anything, selfID).Return(unpairedSelf(), nil)
				m.On("FindByPairCodeForUpdate", mock.Anything, code).Return(codeHolder(), nil)
				m.On("SetPaired", mock.Anything, selfID, partnerID).Return(nil)
				m.On("SetPaired", mock.Anything, partnerID, selfID).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:      "wrong length rejected before any lookup",
			code:      "ABC",
			setupMock: func(m *MockUserRepository) {},
			// The repository must never be touched: no expectations are set.
			expectedError: errors.ErrInvalidCode,
		},
		{
			name: "unknown code",
			code: code,
			setupMock: func(m *MockUserRepository) {
				m.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
				m.On("FindByIDForUpdate", mock.Anything, selfID).Return(unpairedSelf(), nil)
				m.On("FindByPairCodeForUpdate", mock.Anything, code).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: errors.ErrInvalidCode,
		},
		{
			name: "expired code answers like an unknown one",
			code: code,
			setupMock: func(m *MockUserRepository) {
				c := code
				m.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
				m.On("FindByIDForUpdate", mock.Anything, selfID).Return(unpairedSelf(), nil)
				m.On("FindByPairCodeForUpdate", mock.Anything, code).Return(&model.User{
					ID: partnerID, PairCode: &c, PairCodeIssuedAt: &staleIssue,
				}, nil)
			},
			expectedError: errors.ErrInvalidCode,
		},
		{
			name: "own code rejected",
			code: code,
			setupMock: func(m *MockUserRepository) {
				c := code
				m.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
				m.On("FindByIDForUpdate", mock.Anything, selfID).Return(&model.User{
					ID: selfID, PairCode: &c, PairCodeIssuedAt: &now,
				}, nil)
				m.On("FindByPairCodeForUpdate", mock.Anything, code).Return(&model.User{
					ID: selfID, PairCode: &c, PairCodeIssuedAt: &now,
				}, nil)
			},
			expectedError: errors.ErrSelfPairing,
		},
		{
			name: "requester already paired",
			code: code,
			setupMock: func(m *MockUserRepository) {
				m.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
				m.On("FindByIDForUpdate", mock.Anything, selfID).Return(&model.User{
					ID: selfID, PairedWith: &thirdID,
				}, nil)
			},
			expectedError: errors.ErrAlreadyPaired,
		},
		{
			name: "code holder already paired",
			code: code,
			setupMock: func(m *MockUserRepository) {
				c := code
				m.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
				m.On("FindByIDForUpdate", mock.Anything, selfID).Return(unpairedSelf(), nil)
				m.On("FindByPairCodeForUpdate", mock.Anything, code).Return(&model.User{
					ID: partnerID, PairCode: &c, PairCodeIssuedAt: &now, PairedWith: &thirdID,
				}, nil)
			},
			expectedError: errors.ErrAlreadyPaired,
		},
		{
			name: "lost compare-and-set surfaces as pairing failure",
			code: code,
			setupMock: func(m *MockUserRepository) {
				m.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
				m.On("FindByIDForUpdate", mock.Anything, selfID).Return(unpairedSelf(), nil)
				m.On("FindByPairCodeForUpdate", mock.Anything, code).Return(codeHolder(), nil)
				m.On("SetPaired", mock.Anything, selfID, partnerID).Return(gorm.ErrRecordNotFound)
			},
			expectedError: errors.ErrPairingFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			service := NewPairingService(mockRepo, 15*time.Minute)
			result, err := service.PerformPairing(context.Background(), selfID, tt.code)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, result)
				// Symmetry: both sides point at each other and codes are gone.
				assert.Equal(t, partnerID, *result.Self.PairedWith)
				assert.Equal(t, selfID, *result.Partner.PairedWith)
				assert.Nil(t, result.Self.PairCode)
				assert.Nil(t, result.Partner.PairCode)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}
