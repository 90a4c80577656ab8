package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/vinceerrol/vuefrontend/internal/storage"
)

type HealthHandler struct {
	db         *gorm.DB
	blobs      *storage.Store
	otelTracer trace.Tracer
}

func NewHealthHandler(db *gorm.DB, blobs *storage.Store, otelTracer trace.Tracer) *HealthHandler {
	return &HealthHandler{db: db, blobs: blobs, otelTracer: otelTracer}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness reports ready only when both backing stores answer: the
// relational store must ping and the image storage root must be usable.
func (h *HealthHandler) Readiness(c echo.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "db error"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "db not ready"})
	}
	if err := h.blobs.Ready(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "storage not ready"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}
