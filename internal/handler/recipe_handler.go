package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"couplerecipe/internal/service"
)

// RecipeHandler handles recipe endpoints.
type RecipeHandler struct {
	recipes service.RecipeService
}

// NewRecipeHandler creates a new recipe handler.
func NewRecipeHandler(recipes service.RecipeService) *RecipeHandler {
	return &RecipeHandler{recipes: recipes}
}

// RecipeRequest carries the writable recipe fields.
type RecipeRequest struct {
	Title              string      `json:"title" validate:"required,max=255"`
	RecipeURL          string      `json:"recipe_url" validate:"omitempty,url"`
	CookingTimeMinutes int         `json:"cooking_time_minutes" validate:"omitempty,min=0"`
	Memo               string      `json:"memo"`
	TagIDs             []uuid.UUID `json:"tag_ids"`
}

func (r *RecipeRequest) toInput() service.RecipeInput {
	return service.RecipeInput{
		Title:              r.Title,
		RecipeURL:          r.RecipeURL,
		CookingTimeMinutes: r.CookingTimeMinutes,
		Memo:               r.Memo,
		TagIDs:             r.TagIDs,
	}
}

// List godoc
// @Summary List the couple's recipes
// @Description Newest first, with nested tags.
// @Tags recipes
// @Produce json
// @Success 200 {array} model.Recipe
// @Security BearerAuth
// @Router /recipes [get]
func (h *RecipeHandler) List(c echo.Context) error {
	identityID, err := identityFromContext(c)
	if err != nil {
		return err
	}

	recipes, err := h.recipes.ListRecipes(c.Request().Context(), identityID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, recipes)
}

// Create godoc
// @Summary Create a recipe
// @Tags recipes
// @Accept json
// @Produce json
// @Param request body RecipeRequest true "Recipe data"
// @Success 201 {object} model.Recipe
// @Failure 400 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /recipes [post]
func (h *RecipeHandler) Create(c echo.Context) error {
	identityID, err := identityFromContext(c)
	if err != nil {
		return err
	}

	var req RecipeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	recipe, err := h.recipes.CreateRecipe(c.Request().Context(), identityID, req.toInput())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, recipe)
}

// Update godoc
// @Summary Update a recipe
// @Tags recipes
// @Accept json
// @Produce json
// @Param id path string true "Recipe ID"
// @Param request body RecipeRequest true "Recipe data"
// @Success 200 {object} model.Recipe
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /recipes/{id} [put]
func (h *RecipeHandler) Update(c echo.Context) error {
	identityID, err := identityFromContext(c)
	if err != nil {
		return err
	}
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req RecipeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	recipe, err := h.recipes.UpdateRecipe(c.Request().Context(), identityID, recipeID, req.toInput())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, recipe)
}

// Delete godoc
// @Summary Delete a recipe
// @Tags recipes
// @Produce json
// @Param id path string true "Recipe ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /recipes/{id} [delete]
func (h *RecipeHandler) Delete(c echo.Context) error {
	identityID, err := identityFromContext(c)
	if err != nil {
		return err
	}
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.recipes.DeleteRecipe(c.Request().Context(), identityID, recipeID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "recipe deleted"})
}
