package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"couplerecipe/internal/service"
)

// PairingHandler handles pairing endpoints.
type PairingHandler struct {
	profiles service.ProfileService
	pairing  service.PairingService
}

// NewPairingHandler creates a new pairing handler.
func NewPairingHandler(profiles service.ProfileService, pairing service.PairingService) *PairingHandler {
	return &PairingHandler{profiles: profiles, pairing: pairing}
}

// PairRequest carries the code entered by the user's partner flow.
type PairRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

// GenerateCode godoc
// @Summary Issue a fresh pairing code
// @Description Overwrites any previous code. The code is shown to the user for out-of-band sharing and expires after the configured TTL.
// @Tags pairing
// @Produce json
// @Success 201 {object} map[string]string
// @Failure 409 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /pairing/code [post]
func (h *PairingHandler) GenerateCode(c echo.Context) error {
	identityID, err := identityFromContext(c)
	if err != nil {
		return err
	}

	user, err := h.profiles.GetByIdentity(c.Request().Context(), identityID)
	if err != nil {
		return httpError(err)
	}

	code, err := h.pairing.GeneratePairCode(c.Request().Context(), user.ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"pair_code": code})
}

// Pair godoc
// @Summary Pair with the profile that issued the entered code
// @Description Links both profiles mutually in one transaction. The response for an unknown code does not reveal whether the code ever existed.
// @Tags pairing
// @Accept json
// @Produce json
// @Param request body PairRequest true "Pairing code"
// @Success 200 {object} service.PairResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /pairing/pair [post]
func (h *PairingHandler) Pair(c echo.Context) error {
	identityID, err := identityFromContext(c)
	if err != nil {
		return err
	}

	var req PairRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.profiles.GetByIdentity(c.Request().Context(), identityID)
	if err != nil {
		return httpError(err)
	}

	result, err := h.pairing.PerformPairing(c.Request().Context(), user.ID, req.Code)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}
