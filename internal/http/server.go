package http

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/labstack/echo/v4"

	"github.com/vinceerrol/vuefrontend/internal/config"
	"github.com/vinceerrol/vuefrontend/internal/handlers"
	imw "github.com/vinceerrol/vuefrontend/internal/http/middleware"
	"github.com/vinceerrol/vuefrontend/internal/storage"
	mapmanager "github.com/vinceerrol/vuefrontend/pkg/map_manager"
)

// Register mounts the API. Route order matters in the map group: /active and
// /upload must precede /:id.
func Register(e *echo.Echo, db *gorm.DB, blobs *storage.Store, logger *zap.Logger, otelTracer trace.Tracer, config *config.Config) {
	imw.Apply(e, otelTracer, config.MaxImageBytes)

	// Uploaded images are served under the same prefix the derived
	// image_url points at.
	e.Static("/storage", config.StorageDir)

	maps := mapmanager.NewMapManager(db, blobs, config.PublicBaseURL, logger, otelTracer)

	// Handlers
	health := handlers.NewHealthHandler(db, blobs, otelTracer)
	mapHandler := handlers.NewMapHandler(maps, config, logger, otelTracer)
	building := handlers.NewBuildingHandler(db, otelTracer)
	faculty := handlers.NewFacultyHandler(db, otelTracer)
	auth := handlers.NewAuthHandler(db, config, logger, otelTracer)

	bearer := imw.BearerAuth(db, logger)

	api := e.Group("/api")

	// Health endpoints
	api.GET("/healthz", health.Liveness)
	api.GET("/readyz", health.Readiness)

	api.POST("/auth/login", auth.Login)
	api.GET("/auth/me", auth.Me, bearer)
	api.POST("/auth/logout", auth.Logout, bearer)

	mapGroup := api.Group("/map")
	mapGroup.GET("/active", mapHandler.GetActive) // public display surface
	mapGroup.POST("/upload", mapHandler.Upload, bearer)
	mapGroup.GET("", mapHandler.List, bearer)
	mapGroup.POST("", mapHandler.Create, bearer)
	mapGroup.GET("/:id", mapHandler.Get, bearer)
	mapGroup.PUT("/:id", mapHandler.Update, bearer)
	mapGroup.DELETE("/:id", mapHandler.Delete, bearer)
	mapGroup.PUT("/:id/activate", mapHandler.Activate, bearer)

	buildings := api.Group("/buildings", bearer)
	buildings.GET("", building.List)
	buildings.POST("", building.Create)
	buildings.GET("/:id", building.Get)
	buildings.PUT("/:id", building.Update)
	buildings.DELETE("/:id", building.Delete)

	facultyGroup := api.Group("/faculty", bearer)
	facultyGroup.GET("", faculty.List)
	facultyGroup.POST("", faculty.Create)
	facultyGroup.GET("/building/:id", faculty.ListByBuilding)
	facultyGroup.GET("/:id", faculty.Get)
	facultyGroup.PUT("/:id", faculty.Update)
	facultyGroup.DELETE("/:id", faculty.Delete)
}
