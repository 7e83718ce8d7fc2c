package di

import (
	"context"

	"astro-soulmate/backend/internal/ai"
	"astro-soulmate/backend/internal/service"
	"astro-soulmate/backend/pkg/config"
	"astro-soulmate/backend/pkg/jwt"
	"astro-soulmate/backend/pkg/logger"
	"astro-soulmate/backend/pkg/secrets"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB               *gorm.DB
	Logger           *logger.Logger
	Redis            *redis.Client
	JWTService       *jwt.Service
	Responder        ai.Responder
	UserService      *service.UserService
	CharacterService *service.CharacterService
	ChatService      *service.ChatService
}

// New creates a new dependency injection container
func New(db *gorm.DB, cfg *config.Config, log *logger.Logger) (*Container, error) {
	if log == nil {
		log = logger.GetGlobal()
	}

	ctx := context.Background()

	// Sensitive values resolve through the secrets manager (Vault when
	// enabled, environment otherwise), with the config value as fallback
	jwtSecret := secrets.GetSecretWithDefault(ctx, "jwt_secret", cfg.JWT.Secret)
	jwtService := jwt.NewService(jwtSecret, cfg.JWT.Expiry)

	// A remote model service is optional, fall back to the scripted
	// responder so the app stays usable without one
	var responder ai.Responder
	if cfg.Services.AIServiceURL != "" {
		apiKey := secrets.GetSecretWithDefault(ctx, "ai_service_key", cfg.Services.AIServiceKey)
		responder = ai.NewRemoteResponder(cfg.Services.AIServiceURL, apiKey, log)
	} else {
		log.Warn("AI_SERVICE_URL not set, using scripted responder")
		responder = ai.NewScriptedResponder()
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	userService := service.NewUserService(db, jwtService)
	characterService := service.NewCharacterService(db)
	chatService := service.NewChatService(db, responder)

	return &Container{
		DB:               db,
		Logger:           log,
		Redis:            redisClient,
		JWTService:       jwtService,
		Responder:        responder,
		UserService:      userService,
		CharacterService: characterService,
		ChatService:      chatService,
	}, nil
}
