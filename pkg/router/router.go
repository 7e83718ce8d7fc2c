package router

import (
	"time"

	"astro-soulmate/backend/internal/api"
	"astro-soulmate/backend/pkg/config"
	"astro-soulmate/backend/pkg/di"
	"astro-soulmate/backend/pkg/errors"
	"astro-soulmate/backend/pkg/health"
	"astro-soulmate/backend/pkg/logger"
	"astro-soulmate/backend/pkg/metrics"
	"astro-soulmate/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
	Checker   *health.Checker
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)

	cfg := config.Get()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Logger middleware first so every request gets a request-scoped logger
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())

	rateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.Security.RateLimit), cfg.Security.RateLimitBurst)
	engine.Use(rateLimiter.Middleware())

	checker := health.NewChecker(container.Logger, 30*time.Second)
	checker.RegisterDatabaseCheck(func() error {
		return container.DB.Exec("SELECT 1").Error
	})
	if container.Redis != nil {
		checker.RegisterRedisCheck(container.Redis)
	}
	if cfg.Services.AIServiceURL != "" {
		checker.RegisterAPICheck("model-service", cfg.Services.AIServiceURL+"/health", nil)
	}
	checker.Start()

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
		Checker:   checker,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.Engine.Use(corsMiddleware())

	jwtAuth := middleware.JWTAuthMiddleware(r.Container.JWTService, r.Logger)

	authHandler := api.NewAuthHandler(r.Container.UserService, r.Logger)
	characterHandler := api.NewCharacterHandler(r.Container.CharacterService)
	chatHandler := api.NewChatHandler(r.Container.ChatService)

	// Operational endpoints
	r.Engine.GET("/health", gin.WrapF(r.Checker.HTTPHandler()))
	r.Engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Engine.Group("/api/v1")

	// Public routes
	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/signup", authHandler.Signup)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/logout", jwtAuth, authHandler.Logout)
		authRoutes.GET("/me", jwtAuth, authHandler.Me)
	}

	// Protected routes
	protected := v1.Group("/")
	protected.Use(jwtAuth)
	{
		characterRoutes := protected.Group("/characters")
		{
			characterRoutes.POST("", characterHandler.CreateCharacter)
			characterRoutes.GET("", characterHandler.ListCharacters)
			characterRoutes.GET("/:id", characterHandler.GetCharacter)
			characterRoutes.DELETE("/:id", characterHandler.DeleteCharacter)
		}

		protected.POST("/chat", chatHandler.SendMessage)

		sessionRoutes := protected.Group("/sessions")
		{
			sessionRoutes.GET("", chatHandler.ListSessions)
			sessionRoutes.GET("/:id", chatHandler.GetSession)
			sessionRoutes.DELETE("/:id", chatHandler.DeleteSession)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, Authorization, Origin")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
