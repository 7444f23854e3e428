package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrSessionRequired is returned when no authenticated session is present.
	ErrSessionRequired = errors.New("authentication required")
	// ErrIdentityNotFound is returned when an identity is not found.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrEmailTaken is returned when an email is already bound to another identity.
	ErrEmailTaken = errors.New("email already in use")
	// ErrNotAnonymous is returned when converting an identity that already has an email.
	ErrNotAnonymous = errors.New("account is not anonymous")
	// ErrProfileNotFound is returned when a user profile is not found.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrValidation is returned when required input is missing or malformed.
	ErrValidation = errors.New("invalid input")
	// ErrInvalidCode is returned for any pairing code that does not match a
	// live code. Expired and never-issued codes are deliberately
	// indistinguishable to the caller.
	ErrInvalidCode = errors.New("invalid pairing code")
	// ErrAlreadyPaired is returned when either side of a pairing attempt is already paired.
	ErrAlreadyPaired = errors.New("already paired")
	// ErrSelfPairing is returned when a user enters their own pairing code.
	ErrSelfPairing = errors.New("cannot pair with yourself")
	// ErrPairingFailed is returned when the pairing transaction could not complete.
	ErrPairingFailed = errors.New("pairing update failed")
	// ErrTagNameTaken is returned when a tag name collides with an existing tag for the same owner.
	ErrTagNameTaken = errors.New("tag name already exists")
	// ErrRecipeNotFound is returned when a recipe is not found within the couple's records.
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrTagNotFound is returned when a tag is not found within the couple's records.
	ErrTagNotFound = errors.New("tag not found")
	// ErrMealPlanNotFound is returned when a meal plan is not found within the couple's records.
	ErrMealPlanNotFound = errors.New("meal plan not found")
	// ErrInvalidMagicLink is returned when a magic-link token is missing, expired, or already used.
	ErrInvalidMagicLink = errors.New("invalid or expired link")
)

// RateLimitError reports how long the caller must wait before retrying a
// magic-link request for the same address.
type RateLimitError struct {
	RetryAfter int // whole seconds
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting another link", e.RetryAfter)
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var rate *RateLimitError
	if errors.As(err, &rate) {
		return NewHTTPError(http.StatusTooManyRequests, rate.Error(), "RATE_LIMITED")
	}

	switch {
	case errors.Is(err, ErrSessionRequired):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "SESSION_REQUIRED")
	case errors.Is(err, ErrIdentityNotFound):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "IDENTITY_NOT_FOUND")
	case errors.Is(err, ErrEmailTaken):
		return NewHTTPError(http.StatusConflict, err.Error(), "EMAIL_TAKEN")
	case errors.Is(err, ErrNotAnonymous):
		return NewHTTPError(http.StatusConflict, err.Error(), "NOT_ANONYMOUS")
	case errors.Is(err, ErrProfileNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "PROFILE_NOT_FOUND")
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_FAILED")
	case errors.Is(err, ErrInvalidCode):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_CODE")
	case errors.Is(err, ErrAlreadyPaired):
		return NewHTTPError(http.StatusConflict, err.Error(), "ALREADY_PAIRED")
	case errors.Is(err, ErrSelfPairing):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "SELF_PAIRING")
	case errors.Is(err, ErrPairingFailed):
		return NewHTTPError(http.StatusConflict, err.Error(), "PAIRING_FAILED")
	case errors.Is(err, ErrTagNameTaken):
		return NewHTTPError(http.StatusConflict, err.Error(), "TAG_NAME_TAKEN")
	case errors.Is(err, ErrRecipeNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "RECIPE_NOT_FOUND")
	case errors.Is(err, ErrTagNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "TAG_NOT_FOUND")
	case errors.Is(err, ErrMealPlanNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "MEAL_PLAN_NOT_FOUND")
	case errors.Is(err, ErrInvalidMagicLink):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_LINK")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
