package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"patient-registration/internal/config"
	"patient-registration/internal/delivery/http/handler"
	domainPatient "patient-registration/internal/domain/patient"
	"patient-registration/internal/infrastructure/database/postgres"
	"patient-registration/internal/logger"
	"patient-registration/internal/middleware"
	"patient-registration/internal/usecase/patient"
)

// Dependencies are the collaborators chosen at startup from configuration.
type Dependencies struct {
	DB       *postgres.DB
	Notifier domainPatient.Notifier
	Events   domainPatient.EventPublisher
	Locker   patient.Locker
}

func SetupRoutes(cfg *config.Config, deps Dependencies) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Order: request ID, recovery, logging, security headers, CORS, request size limit
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))

	router.GET("/health", func(c *gin.Context) {
		if err := deps.DB.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "Database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	})

	patientRepository := postgres.NewPatientRepository(deps.DB)
	patientService := patient.NewService(patientRepository, deps.Notifier, deps.Events, deps.Locker, cfg)
	patientHandler := handler.NewPatientHandler(patientService)

	api := router.Group("/api")
	{
		patientHandler.RegisterRoutes(api)
	}

	logger.Info("All routes initialized")
	return router
}
