package main

import (
	"log"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/amankumar-in/phantom-stake-sub000/config"
	"github.com/amankumar-in/phantom-stake-sub000/controllers"
	"github.com/amankumar-in/phantom-stake-sub000/middleware"
	"github.com/amankumar-in/phantom-stake-sub000/repositories"
	"github.com/amankumar-in/phantom-stake-sub000/routes"
	"github.com/amankumar-in/phantom-stake-sub000/services"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	logger, err := zap.NewProduction()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "dev" {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	// Connect to Redis (tick locks) and MongoDB
	redisClient := config.ConnectRedis()
	client := config.ConnectDB()

	// Repositories
	memberRepo := repositories.NewMemberRepository(client)
	walletRepo := repositories.NewWalletRepository(client)
	treeRepo := repositories.NewTreeRepository(client)
	stakeRepo := repositories.NewStakeRepository(client)
	bonusRepo := repositories.NewBonusRepository(client)
	poolRepo := repositories.NewPoolRepository(client)
	withdrawalRepo := repositories.NewWithdrawalRepository(client)

	// Services
	placementSvc := services.NewPlacementService(treeRepo, logger)
	overrideSvc := services.NewOverrideService(memberRepo, treeRepo, stakeRepo, bonusRepo, walletRepo, logger)
	poolSvc := services.NewPoolService(poolRepo, memberRepo, walletRepo, stakeRepo, treeRepo, nil, logger)
	stakeSvc := services.NewStakeService(stakeRepo, walletRepo, treeRepo, placementSvc, overrideSvc, poolSvc, logger)
	compoundSvc := services.NewCompoundingService(walletRepo, stakeRepo, overrideSvc, logger)
	matchingSvc := services.NewMatchingService(treeRepo, stakeRepo, bonusRepo, walletRepo, nil, logger)
	memberSvc := services.NewMemberService(memberRepo, walletRepo, treeRepo, placementSvc, logger)
	withdrawalSvc := services.NewWithdrawalService(withdrawalRepo, walletRepo, compoundSvc, logger)

	tickWorkers, _ := strconv.Atoi(os.Getenv("TICK_WORKERS"))
	tickSvc := services.NewTickService(treeRepo, memberRepo, walletRepo, stakeSvc, compoundSvc, matchingSvc, overrideSvc, poolSvc, tickWorkers, logger)

	// Scheduler
	scheduler := services.NewScheduler(tickSvc, redisClient, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("scheduler start failed", zap.Error(err))
	}
	defer scheduler.Stop()

	// Echo
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HideBanner = true

	rateLimiter := middleware.NewRateLimiter()

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeaders())
	e.Use(httpsRedirect())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Phantom Stake engine is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Controllers
	routes.SetupRoutes(e, routes.Controllers{
		Member:      controllers.NewMemberController(memberSvc),
		Tree:        controllers.NewTreeController(placementSvc, treeRepo),
		Stake:       controllers.NewStakeController(stakeSvc),
		Wallet:      controllers.NewWalletController(walletRepo, bonusRepo),
		Compounding: controllers.NewCompoundingController(compoundSvc, memberSvc, walletRepo),
		Withdrawal:  controllers.NewWithdrawalController(withdrawalSvc),
		Admin:       controllers.NewAdminController(tickSvc, poolRepo),
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

func httpsRedirect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Forwarded-Proto") == "http" {
				return c.Redirect(301, "https://"+c.Request().Host+c.Request().RequestURI)
			}
			return next(c)
		}
	}
}
