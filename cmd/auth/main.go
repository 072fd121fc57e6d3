package main

import (
	"stayhub/internal/auth/handler"
	"stayhub/internal/auth/repository"
	"stayhub/internal/auth/service"
	"stayhub/internal/auth/token"
	"stayhub/pkg/app"
	"stayhub/pkg/config"
)

const ServiceName = "auth"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.JWTSecret == "" {
		cfg.Log.Fatal("JWT_SECRET must be set for the auth service")
	}
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Auth service")
	authService := initServices(cfg)
	serverApp := app.NewApplication(cfg, handler.NewAuthHandler(authService, cfg))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.AuthService {
	userRepo := repository.NewMongoUserRepository(cfg)
	tokens := token.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	authService := service.NewAuthService(userRepo, tokens, cfg)

	cfg.Log.Info("Auth service initialized", "database", cfg.MongoDatabaseName)
	return authService
}
