package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"couplerecipe/internal/auth"
	"couplerecipe/internal/config"
	"couplerecipe/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	jwtService *auth.JWTService,
	authHandler *handler.AuthHandler,
	profileHandler *handler.ProfileHandler,
	pairingHandler *handler.PairingHandler,
	recipeHandler *handler.RecipeHandler,
	tagHandler *handler.TagHandler,
	mealPlanHandler *handler.MealPlanHandler,
	preferenceHandler *handler.PreferenceHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	// Bounded wait on every request: a stuck backend call must degrade into a
	// typed failure, never an indefinite hang.
	e.Use(middleware.ContextTimeout(cfg.RequestTimeout))

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/anonymous", authHandler.Anonymous)
	api.GET("/auth/session", authHandler.Session)
	api.POST("/auth/magic-link", authHandler.MagicLink)
	api.POST("/auth/magic-link/signup", authHandler.SignUp)
	api.GET("/auth/verify", authHandler.Verify)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return jwtService.ValidateToken(token)
		},
	}))

	secured.POST("/auth/convert", authHandler.Convert)

	// Profile routes
	secured.GET("/profile", profileHandler.Get)
	secured.PATCH("/profile", profileHandler.Update)
	secured.GET("/profile/pairing", profileHandler.PairingStatus)

	// Pairing routes
	secured.POST("/pairing/code", pairingHandler.GenerateCode)
	secured.POST("/pairing/pair", pairingHandler.Pair)

	// Recipe routes
	secured.GET("/recipes", recipeHandler.List)
	secured.POST("/recipes", recipeHandler.Create)
	secured.PUT("/recipes/:id", recipeHandler.Update)
	secured.DELETE("/recipes/:id", recipeHandler.Delete)

	// Tag routes
	secured.GET("/tags", tagHandler.List)
	secured.POST("/tags", tagHandler.Create)
	secured.PUT("/tags/:id", tagHandler.Update)
	secured.DELETE("/tags/:id", tagHandler.Delete)

	// Meal plan routes
	secured.GET("/meal-plans", mealPlanHandler.List)
	secured.POST("/meal-plans", mealPlanHandler.Create)
	secured.PUT("/meal-plans/:id", mealPlanHandler.Update)
	secured.DELETE("/meal-plans/:id", mealPlanHandler.Delete)

	// Preference routes
	secured.GET("/preferences/hidden-slots", preferenceHandler.GetHiddenSlots)
	secured.PUT("/preferences/hidden-slots", preferenceHandler.SetHiddenSlots)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
