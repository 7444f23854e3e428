package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"couplerecipe/internal/service"
)

// ProfileHandler handles profile endpoints.
type ProfileHandler struct {
	profiles service.ProfileService
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(profiles service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// UpdateProfileRequest is a partial profile edit; at least one field must be set.
type UpdateProfileRequest struct {
	Nickname *string `json:"nickname" validate:"omitempty,min=1,max=255"`
	Role     *string `json:"role" validate:"omitempty,oneof=husband wife"`
}

// Get godoc
// @Summary Get the caller's profile
// @Tags profile
// @Produce json
// @Success 200 {object} model.User
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /profile [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	identityID, err := identityFromContext(c)
	if err != nil {
		return err
	}

	user, err := h.profiles.EnsureProfile(c.Request().Context(), identityID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// Update godoc
// @Summary Update nickname and/or role
// @Tags profile
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Fields to change"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /profile [patch]
func (h *ProfileHandler) Update(c echo.Context) error {
	identityID, err := identityFromContext(c)
	if err != nil {
		return err
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.profiles.UpdateProfile(c.Request().Context(), identityID, req.Nickname, req.Role)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// PairingStatus godoc
// @Summary Get the caller's pairing state
// @Tags profile
// @Produce json
// @Success 200 {object} service.PairingStatus
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /profile/pairing [get]
func (h *ProfileHandler) PairingStatus(c echo.Context) error {
	identityID, err := identityFromContext(c)
	if err != nil {
		return err
	}

	status, err := h.profiles.PairingStatus(c.Request().Context(), identityID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, status)
}
