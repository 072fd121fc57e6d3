package main

import (
	"stayhub/internal/properties/handler"
	"stayhub/internal/properties/repository"
	"stayhub/internal/properties/service"
	"stayhub/internal/properties/validator"
	"stayhub/pkg/app"
	"stayhub/pkg/config"
)

const ServiceName = "properties"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Properties service")
	propertyService := initServices(cfg)
	serverApp := app.NewApplication(cfg, handler.NewPropertyHandler(propertyService, cfg))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.PropertyService {
	propertyValidator := validator.NewPropertyValidator(cfg.Log)
	propertyRepo := repository.NewMongoPropertyRepository(cfg)
	propertyService := service.NewPropertyService(propertyRepo, propertyValidator, cfg)

	cfg.Log.Info("Property service initialized", "database", cfg.MongoDatabaseName)
	return propertyService
}
