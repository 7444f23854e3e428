package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"couplerecipe/internal/service"
)

// AuthHandler handles session and passwordless authentication endpoints.
type AuthHandler struct {
	sessions   service.SessionService
	appBaseURL string
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(sessions service.SessionService, appBaseURL string) *AuthHandler {
	return &AuthHandler{sessions: sessions, appBaseURL: appBaseURL}
}

// MagicLinkRequest asks for a passwordless sign-in link.
type MagicLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// SignUpRequest asks for a passwordless sign-up link.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Nickname string `json:"nickname" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=husband wife"`
}

// ConvertRequest asks for an anonymous-to-email conversion link.
type ConvertRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest represents a logout request.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse represents an authentication response.
type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	Identity     interface{} `json:"identity,omitempty"`
}

// Anonymous godoc
// @Summary Sign in anonymously
// @Tags auth
// @Produce json
// @Success 201 {object} AuthResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/anonymous [post]
func (h *AuthHandler) Anonymous(c echo.Context) error {
	identity, pair, err := h.sessions.SignInAnonymously(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Identity:     identity,
	})
}

// Session godoc
// @Summary Check the current session
// @Description Returns the identity for a bearer token, or null when no live session exists. Absence of a session is not an error.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	token := bearerToken(c)
	identity, err := h.sessions.CheckSession(c.Request().Context(), token)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"identity": identity})
}

// MagicLink godoc
// @Summary Request a passwordless sign-in link
// @Tags auth
// @Accept json
// @Produce json
// @Param request body MagicLinkRequest true "Email address"
// @Success 202 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /auth/magic-link [post]
func (h *AuthHandler) MagicLink(c echo.Context) error {
	var req MagicLinkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.sessions.RequestMagicLink(c.Request().Context(), req.Email); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"message": "link dispatched"})
}

// SignUp godoc
// @Summary Request a passwordless sign-up link
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignUpRequest true "Registration data"
// @Success 202 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /auth/magic-link/signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req SignUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.sessions.RequestSignUpLink(c.Request().Context(), req.Email, req.Nickname, req.Role); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"message": "link dispatched"})
}

// Convert godoc
// @Summary Upgrade the current anonymous account to an email account
// @Description Sends a link that converts the identity in place; the profile and all owned records are preserved.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ConvertRequest true "Email address"
// @Success 202 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /auth/convert [post]
func (h *AuthHandler) Convert(c echo.Context) error {
	identityID, err := identityFromContext(c)
	if err != nil {
		return err
	}

	var req ConvertRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.sessions.RequestConversionLink(c.Request().Context(), identityID, req.Email); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"message": "link dispatched"})
}

// Verify godoc
// @Summary Complete a magic-link flow
// @Description Consumes the one-time token. With APP_BASE_URL configured the response is a redirect carrying access_token and refresh_token query parameters; otherwise the tokens are returned as JSON.
// @Tags auth
// @Produce json
// @Param token query string true "One-time token from the link"
// @Success 200 {object} AuthResponse
// @Success 302
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/verify [get]
func (h *AuthHandler) Verify(c echo.Context) error {
	token := c.QueryParam("token")
	identity, pair, err := h.sessions.VerifyMagicLink(c.Request().Context(), token)
	if err != nil {
		return httpError(err)
	}

	if h.appBaseURL != "" {
		q := url.Values{}
		q.Set("access_token", pair.AccessToken)
		q.Set("refresh_token", pair.RefreshToken)
		return c.Redirect(http.StatusFound, h.appBaseURL+"?"+q.Encode())
	}
	return c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Identity:     identity,
	})
}

// Refresh godoc
// @Summary Refresh access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	accessToken, err := h.sessions.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, AuthResponse{AccessToken: accessToken})
}

// Logout godoc
// @Summary Sign out
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LogoutRequest true "Refresh token"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req LogoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.sessions.SignOut(c.Request().Context(), req.RefreshToken); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "signed out"})
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
