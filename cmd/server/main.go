package main

import (
	"log"
	"net/http"

	"couplerecipe/docs"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"couplerecipe/internal/auth"
	"couplerecipe/internal/cache"
	"couplerecipe/internal/config"
	"couplerecipe/internal/db"
	"couplerecipe/internal/handler"
	"couplerecipe/internal/mailer"
	"couplerecipe/internal/model"
	"couplerecipe/internal/repository"
	"couplerecipe/internal/router"
	"couplerecipe/internal/service"
)

// @title Couple Recipe API
// @version 1.0
// @description Shared recipe and meal-planning API for paired accounts, with anonymous and passwordless magic-link authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.Identity{},
		&model.User{},
		&model.Recipe{},
		&model.Tag{},
		&model.TagRelation{},
		&model.MealPlan{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize repositories
	identityRepo := repository.NewIdentityRepository(gormDB)
	userRepo := repository.NewUserRepository(gormDB)
	recipeRepo := repository.NewRecipeRepository(gormDB)
	tagRepo := repository.NewTagRepository(gormDB)
	mealPlanRepo := repository.NewMealPlanRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)
	linkStore := auth.NewMagicLinkStore(cacheClient)

	var mail mailer.Mailer
	if cfg.SMTPAddr != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom)
	} else {
		log.Println("SMTP_ADDR not set, magic links will be logged")
		mail = mailer.LogMailer{}
	}

	verifyURL := cfg.AppBaseURL
	if verifyURL == "" {
		verifyURL = "http://localhost:" + cfg.ServerPort
	}
	verifyURL += "/api/auth/verify"

	// Initialize services
	profileService := service.NewProfileService(userRepo, cfg.PairCodeTTL)
	sessionService := service.NewSessionService(
		identityRepo,
		profileService,
		jwtService,
		tokenStore,
		linkStore,
		mail,
		service.SessionConfig{
			VerifyURL:    verifyURL,
			LinkTTL:      cfg.MagicLinkTTL,
			SendInterval: cfg.MagicLinkWait,
		},
	)
	pairingService := service.NewPairingService(userRepo, cfg.PairCodeTTL)
	recipeService := service.NewRecipeService(profileService, recipeRepo, tagRepo, cacheClient)
	tagService := service.NewTagService(profileService, tagRepo, cacheClient)
	mealPlanService := service.NewMealPlanService(profileService, mealPlanRepo, recipeRepo)
	preferenceService := service.NewPreferenceService(profileService, cacheClient)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(sessionService, cfg.AppBaseURL)
	profileHandler := handler.NewProfileHandler(profileService)
	pairingHandler := handler.NewPairingHandler(profileService, pairingService)
	recipeHandler := handler.NewRecipeHandler(recipeService)
	tagHandler := handler.NewTagHandler(tagService)
	mealPlanHandler := handler.NewMealPlanHandler(mealPlanService)
	preferenceHandler := handler.NewPreferenceHandler(preferenceService)

	// Register routes
	router.Register(
		e,
		cfg,
		jwtService,
		authHandler,
		profileHandler,
		pairingHandler,
		recipeHandler,
		tagHandler,
		mealPlanHandler,
		preferenceHandler,
	)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
