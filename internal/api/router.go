package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/pugmatch/pugmatch-backend/internal/api/handlers"
	"github.com/pugmatch/pugmatch-backend/internal/api/middleware"
	"github.com/pugmatch/pugmatch-backend/internal/config"
	"github.com/pugmatch/pugmatch-backend/internal/repository"
	"github.com/pugmatch/pugmatch-backend/internal/service"
	"github.com/pugmatch/pugmatch-backend/internal/websocket"
	"github.com/pugmatch/pugmatch-backend/pkg/database"
	"github.com/pugmatch/pugmatch-backend/pkg/distributed"
	"github.com/pugmatch/pugmatch-backend/pkg/logger"
)

// SetupRouter wires repositories, services and handlers. The returned
// sweeper is already started; callers stop it on shutdown.
func SetupRouter(cfg *config.Config, db *database.DB) (*gin.Engine, *service.SweeperService) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	gameRepo := repository.NewGameRepository(db)
	pugRepo := repository.NewPugRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// WebSocket hub doubles as the notification fan-out
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Services
	userService := service.NewUserService(userRepo)
	slotService := service.NewSlotService()
	ratingService := service.NewRatingService(ratingRepo, gameRepo)
	standingsService := service.NewStandingsService(pugRepo, ratingRepo)
	pugService := service.NewPugService(
		pugRepo, userRepo, gameRepo,
		slotService, ratingService, standingsService,
		wsHub,
	)
	commentService := service.NewCommentService(commentRepo, pugRepo, userRepo, wsHub)

	// Cross-process session locks when Redis is configured
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Invalid Redis URL", "error", err)
		}
		redisClient := redis.NewClient(opts)
		pugService.SetSessionLockManager(distributed.NewSessionLockManager(redisClient))
		logger.Info("Session locks backed by Redis")
	}

	// Timeout sweep for waiting sessions
	sweeper := service.NewSweeperService(pugRepo, pugService, cfg.SweepInterval, cfg.PugTimeout)
	sweeper.Start()

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	gameHandler := handlers.NewGameHandler(gameRepo)
	pugHandler := handlers.NewPugHandler(pugService, commentService)
	leaderboardHandler := handlers.NewLeaderboardHandler(standingsService)
	wsHandler := handlers.NewWebSocketHandler(wsHub)

	// Health check
	router.GET("/health", handlers.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		// WebSocket endpoint
		v1.GET("/ws", middleware.Auth(cfg), wsHandler.HandleWebSocket)

		// Auth routes
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// User routes
		users := v1.Group("/users", middleware.Auth(cfg))
		{
			users.GET("/me", userHandler.GetMe)
			users.PUT("/me", userHandler.UpdateMe)
			users.GET("/:id", userHandler.GetUser)
		}

		// Game catalog and leaderboards
		games := v1.Group("/games", middleware.Auth(cfg))
		{
			games.GET("", gameHandler.ListGames)
			games.GET("/:id", gameHandler.GetGame)
			games.GET("/:id/leaderboard", leaderboardHandler.GetLeaderboard)
			games.GET("/:id/form/:userId", leaderboardHandler.GetForm)
		}

		// Pug lifecycle
		pugs := v1.Group("/pugs", middleware.Auth(cfg))
		{
			pugs.GET("", pugHandler.ListPugs)
			pugs.GET("/:id", pugHandler.GetPug)
			pugs.GET("/:id/comments", pugHandler.ListComments)

			// Mutations are rate limited per user
			limited := pugs.Group("", middleware.RateLimit(10, 1))
			{
				limited.POST("", pugHandler.CreatePug)
				limited.POST("/:id/join", pugHandler.JoinPug)
				limited.POST("/:id/leave", pugHandler.LeavePug)
				limited.POST("/:id/finish", pugHandler.FinishPug)
				limited.POST("/:id/cancel", pugHandler.CancelPug)
				limited.PUT("/:id/invites", pugHandler.InvitePug)
				limited.POST("/:id/comments", pugHandler.CreateComment)
			}
		}
	}

	return router, sweeper
}
