package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"couplerecipe/internal/errors"
	"couplerecipe/internal/model"
)

func TestRecipeService_ListRecipes(t *testing.T) {
	identityID := uuid.New()
	userID := uuid.New()
	partnerID := uuid.New()

	t.Run("paired caller sees both owners' recipes", func(t *testing.T) {
		profiles := new(MockProfileService)
		profiles.On("OwnerScope", mock.Anything, identityID).
			Return(&model.User{ID: userID, PairedWith: &partnerID}, []uuid.UUID{userID, partnerID}, nil)

		recipeRepo := new(MockRecipeRepository)
		recipeRepo.On("ListByOwners", mock.Anything, []uuid.UUID{userID, partnerID}).
			Return([]model.Recipe{
				{ID: uuid.New(), UserID: partnerID, Title: "Omurice"},
				{ID: uuid.New(), UserID: userID, Title: "Nikujaga"},
			}, nil)

		service := NewRecipeService(profiles, recipeRepo, new(MockTagRepository), nil)
		recipes, err := service.ListRecipes(context.Background(), identityID)

		assert.NoError(t, err)
		assert.Len(t, recipes, 2)
		recipeRepo.AssertExpectations(t)
	})

	t.Run("caller without a profile", func(t *testing.T) {
		profiles := new(MockProfileService)
		profiles.On("OwnerScope", mock.Anything, identityID).Return(nil, nil, errors.ErrProfileNotFound)

		service := NewRecipeService(profiles, new(MockRecipeRepository), new(MockTagRepository), nil)
		_, err := service.ListRecipes(context.Background(), identityID)

		assert.Equal(t, errors.ErrProfileNotFound, err)
	})
}

func TestRecipeService_CreateRecipe(t *testing.T) {
	identityID := uuid.New()
	userID := uuid.New()
	tagID := uuid.New()

	tests := []struct {
		name          string
		input         RecipeInput
		setupMock     func(*MockRecipeRepository, *MockTagRepository)
		expectedError error
	}{
		{
			name:  "creates a recipe with tags",
			input: RecipeInput{Title: "Nikujaga", CookingTimeMinutes: 45, TagIDs: []uuid.UUID{tagID}},
			setupMock: func(recipes *MockRecipeRepository, tags *MockTagRepository) {
				tags.On("FindByIDForOwners", mock.Anything, tagID, []uuid.UUID{userID}).
					Return(&model.Tag{ID: tagID, UserID: userID, Name: "Japanese"}, nil)
				recipes.On("Create", mock.Anything, mock.AnythingOfType("*model.Recipe"), []uuid.UUID{tagID}).Return(nil)
				recipes.On("FindByIDForOwners", mock.Anything, mock.AnythingOfType("uuid.UUID"), []uuid.UUID{userID}).
					Return(&model.Recipe{UserID: userID, Title: "Nikujaga", Tags: []model.Tag{{ID: tagID, Name: "Japanese"}}}, nil)
			},
		},
		{
			name:          "rejects empty title",
			input:         RecipeInput{},
			setupMock:     func(recipes *MockRecipeRepository, tags *MockTagRepository) {},
			expectedError: errors.ErrValidation,
		},
		{
			name:  "rejects tags outside the couple",
			input: RecipeInput{Title: "Nikujaga", TagIDs: []uuid.UUID{tagID}},
			setupMock: func(recipes *MockRecipeRepository, tags *MockTagRepository) {
				tags.On("FindByIDForOwners", mock.Anything, tagID, []uuid.UUID{userID}).
					Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: errors.ErrTagNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipeRepo := new(MockRecipeRepository)
			tagRepo := new(MockTagRepository)
			tt.setupMock(recipeRepo, tagRepo)

			var profiles *MockProfileService
			if tt.expectedError == errors.ErrValidation {
				profiles = new(MockProfileService)
			} else {
				profiles = newProfileMockWithScope(identityID, userID)
			}

			service := NewRecipeService(profiles, recipeRepo, tagRepo, nil)
			recipe, err := service.CreateRecipe(context.Background(), identityID, tt.input)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, recipe)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.input.Title, recipe.Title)
				assert.Equal(t, userID, recipe.UserID)
			}

			recipeRepo.AssertExpectations(t)
			tagRepo.AssertExpectations(t)
		})
	}
}

func TestRecipeService_UpdateRecipe(t *testing.T) {
	identityID := uuid.New()
	userID := uuid.New()
	recipeID := uuid.New()

	t.Run("replaces fields and tag relations", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		recipeRepo.On("FindByIDForOwners", mock.Anything, recipeID, []uuid.UUID{userID}).
			Return(&model.Recipe{ID: recipeID, UserID: userID, Title: "Old"}, nil).Once()
		recipeRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.Recipe"), []uuid.UUID(nil)).Return(nil)
		recipeRepo.On("FindByIDForOwners", mock.Anything, recipeID, []uuid.UUID{userID}).
			Return(&model.Recipe{ID: recipeID, UserID: userID, Title: "New"}, nil).Once()

		service := NewRecipeService(newProfileMockWithScope(identityID, userID), recipeRepo, new(MockTagRepository), nil)
		recipe, err := service.UpdateRecipe(context.Background(), identityID, recipeID, RecipeInput{Title: "New"})

		assert.NoError(t, err)
		assert.Equal(t, "New", recipe.Title)
		recipeRepo.AssertExpectations(t)
	})

	t.Run("recipe outside the couple is invisible", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		recipeRepo.On("FindByIDForOwners", mock.Anything, recipeID, []uuid.UUID{userID}).
			Return(nil, gorm.ErrRecordNotFound)

		service := NewRecipeService(newProfileMockWithScope(identityID, userID), recipeRepo, new(MockTagRepository), nil)
		_, err := service.UpdateRecipe(context.Background(), identityID, recipeID, RecipeInput{Title: "New"})

		assert.Equal(t, errors.ErrRecipeNotFound, err)
	})
}

func TestRecipeService_DeleteRecipe(t *testing.T) {
	identityID := uuid.New()
	userID := uuid.New()
	recipeID := uuid.New()

	t.Run("deletes an owned recipe", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		recipeRepo.On("FindByIDForOwners", mock.Anything, recipeID, []uuid.UUID{userID}).
			Return(&model.Recipe{ID: recipeID, UserID: userID, Title: "Nikujaga"}, nil)
		recipeRepo.On("Delete", mock.Anything, recipeID).Return(nil)

		service := NewRecipeService(newProfileMockWithScope(identityID, userID), recipeRepo, new(MockTagRepository), nil)
		assert.NoError(t, service.DeleteRecipe(context.Background(), identityID, recipeID))
		recipeRepo.AssertExpectations(t)
	})

	t.Run("unknown recipe", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		recipeRepo.On("FindByIDForOwners", mock.Anything, recipeID, []uuid.UUID{userID}).
			Return(nil, gorm.ErrRecordNotFound)

		service := NewRecipeService(newProfileMockWithScope(identityID, userID), recipeRepo, new(MockTagRepository), nil)
		assert.Equal(t, errors.ErrRecipeNotFound, service.DeleteRecipe(context.Background(), identityID, recipeID))
	})
}
