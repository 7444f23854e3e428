package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"couplerecipe/internal/service"
)

// MealPlanHandler handles meal plan endpoints.
type MealPlanHandler struct {
	plans service.MealPlanService
}

// NewMealPlanHandler creates a new meal plan handler.
func NewMealPlanHandler(plans service.MealPlanService) *MealPlanHandler {
	return &MealPlanHandler{plans: plans}
}

// MealPlanRequest carries the writable meal plan fields.
type MealPlanRequest struct {
	Date     string     `json:"date" validate:"required,datetime=2006-01-02"`
	MealType string     `json:"meal_type" validate:"required,oneof=lunch dinner"`
	RecipeID *uuid.UUID `json:"recipe_id"`
	Notes    string     `json:"notes"`
}

func (r *MealPlanRequest) toInput() service.MealPlanInput {
	return service.MealPlanInput{
		Date:     r.Date,
		MealType: r.MealType,
		RecipeID: r.RecipeID,
		Notes:    r.Notes,
	}
}

// List godoc
// @Summary List meal plans in a date range
// @Description Inclusive range, ascending by date, each with a nested recipe summary.
// @Tags meal-plans
// @Produce json
// @Param start query string true "Start date (YYYY-MM-DD)"
// @Param end query string true "End date (YYYY-MM-DD)"
// @Success 200 {array} model.MealPlanWithRecipe
// @Failure 400 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /meal-plans [get]
func (h *MealPlanHandler) List(c echo.Context) error {
	identityID, err := identityFromContext(c)
	if err != nil {
		return err
	}

	plans, err := h.plans.ListMealPlans(c.Request().Context(), identityID, c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, plans)
}

// Create godoc
// @Summary Create a meal plan entry
// @Tags meal-plans
// @Accept json
// @Produce json
// @Param request body MealPlanRequest true "Meal plan data"
// @Success 201 {object} model.MealPlan
// @Failure 400 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /meal-plans [post]
func (h *MealPlanHandler) Create(c echo.Context) error {
	identityID, err := identityFromContext(c)
	if err != nil {
		return err
	}

	var req MealPlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	plan, err := h.plans.CreateMealPlan(c.Request().Context(), identityID, req.toInput())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, plan)
}

// Update godoc
// @Summary Update a meal plan entry
// @Tags meal-plans
// @Accept json
// @Produce json
// @Param id path string true "Meal plan ID"
// @Param request body MealPlanRequest true "Meal plan data"
// @Success 200 {object} model.MealPlan
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /meal-plans/{id} [put]
func (h *MealPlanHandler) Update(c echo.Context) error {
	identityID, err := identityFromContext(c)
	if err != nil {
		return err
	}
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req MealPlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	plan, err := h.plans.UpdateMealPlan(c.Request().Context(), identityID, planID, req.toInput())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, plan)
}

// Delete godoc
// @Summary Delete a meal plan entry
// @Tags meal-plans
// @Produce json
// @Param id path string true "Meal plan ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /meal-plans/{id} [delete]
func (h *MealPlanHandler) Delete(c echo.Context) error {
	identityID, err := identityFromContext(c)
	if err != nil {
		return err
	}
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.plans.DeleteMealPlan(c.Request().Context(), identityID, planID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "meal plan deleted"})
}
