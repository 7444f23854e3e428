package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"couplerecipe/internal/service"
)

// PreferenceHandler handles per-user UI preference endpoints.
type PreferenceHandler struct {
	prefs service.PreferenceService
}

// NewPreferenceHandler creates a new preference handler.
func NewPreferenceHandler(prefs service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{prefs: prefs}
}

// HiddenSlotsRequest replaces the hidden meal-slot set.
type HiddenSlotsRequest struct {
	Slots []string `json:"slots"`
}

// GetHiddenSlots godoc
// @Summary Get the caller's hidden meal-slot keys
// @Tags preferences
// @Produce json
// @Success 200 {object} map[string][]string
// @Security BearerAuth
// @Router /preferences/hidden-slots [get]
func (h *PreferenceHandler) GetHiddenSlots(c echo.Context) error {
	identityID, err := identityFromContext(c)
	if err != nil {
		return err
	}

	slots, err := h.prefs.HiddenSlots(c.Request().Context(), identityID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"slots": slots})
}

// SetHiddenSlots godoc
// @Summary Replace the caller's hidden meal-slot keys
// @Description Slot keys are "YYYY-MM-DD:mealType". Preference only; never the source of truth.
// @Tags preferences
// @Accept json
// @Produce json
// @Param request body HiddenSlotsRequest true "Slot keys"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /preferences/hidden-slots [put]
func (h *PreferenceHandler) SetHiddenSlots(c echo.Context) error {
	identityID, err := identityFromContext(c)
	if err != nil {
		return err
	}

	var req HiddenSlotsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.prefs.SetHiddenSlots(c.Request().Context(), identityID, req.Slots); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "preferences saved"})
}
