package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	errorz "github.com/vinceerrol/vuefrontend/internal/errors"
	"github.com/vinceerrol/vuefrontend/internal/models"
)

type BuildingHandler struct {
	db         *gorm.DB
	otelTracer trace.Tracer
}

type BuildingRequest struct {
	MapID       *uuid.UUID `json:"map_id"`
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	X           *float64   `json:"x"`
	Y           *float64   `json:"y"`
}

func NewBuildingHandler(db *gorm.DB, otelTracer trace.Tracer) *BuildingHandler {
	return &BuildingHandler{db: db, otelTracer: otelTracer}
}

func (h *BuildingHandler) List(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "BuildingHandler.List")
	defer span.End()

	var buildings []models.Building
	if err := h.db.WithContext(ctx).Order("created_at").Find(&buildings).Error; err != nil {
		return respondError(c, errors.Join(errorz.ErrDatabaseError, err))
	}
	return c.JSON(http.StatusOK, buildings)
}

func (h *BuildingHandler) Create(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "BuildingHandler.Create")
	defer span.End()

	var req BuildingRequest
	if err := c.Bind(&req); err != nil {
		return validationFailed(c, fieldErrors{"body": {"The request body must be valid JSON."}})
	}

	fe := fieldErrors{}
	if req.Name == nil || *req.Name == "" {
		fe.add("name", "The name field is required.")
	} else if len(*req.Name) > 255 {
		fe.add("name", "The name may not be greater than 255 characters.")
	}
	if req.MapID == nil {
		fe.add("map_id", "The map_id field is required.")
	} else {
		var count int64
		if err := h.db.WithContext(ctx).Model(&models.Map{}).Where("id = ?", *req.MapID).Count(&count).Error; err != nil {
			return respondError(c, errors.Join(errorz.ErrDatabaseError, err))
		}
		if count == 0 {
			fe.add("map_id", "The selected map_id is invalid.")
		}
	}
	if len(fe) > 0 {
		return validationFailed(c, fe)
	}

	building := models.Building{MapID: *req.MapID, Name: *req.Name}
	if req.Description != nil {
		building.Description = *req.Description
	}
	if req.X != nil {
		building.X = *req.X
	}
	if req.Y != nil {
		building.Y = *req.Y
	}
	if err := h.db.WithContext(ctx).Create(&building).Error; err != nil {
		return respondError(c, errors.Join(errorz.ErrDatabaseError, err))
	}
	return c.JSON(http.StatusCreated, building)
}

func (h *BuildingHandler) Get(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "BuildingHandler.Get")
	defer span.End()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, errorz.ErrBuildingNotFound)
	}
	var building models.Building
	if err := h.db.WithContext(ctx).Preload("Faculty").First(&building, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, errorz.ErrBuildingNotFound)
		}
		return respondError(c, errors.Join(errorz.ErrDatabaseError, err))
	}
	return c.JSON(http.StatusOK, building)
}

func (h *BuildingHandler) Update(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "BuildingHandler.Update")
	defer span.End()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, errorz.ErrBuildingNotFound)
	}
	var building models.Building
	if err := h.db.WithContext(ctx).First(&building, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, errorz.ErrBuildingNotFound)
		}
		return respondError(c, errors.Join(errorz.ErrDatabaseError, err))
	}

	var req BuildingRequest
	if err := c.Bind(&req); err != nil {
		return validationFailed(c, fieldErrors{"body": {"The request body must be valid JSON."}})
	}

	fe := fieldErrors{}
	fields := map[string]any{}
	if req.Name != nil {
		if *req.Name == "" {
			fe.add("name", "The name field is required.")
		} else if len(*req.Name) > 255 {
			fe.add("name", "The name may not be greater than 255 characters.")
		} else {
			fields["name"] = *req.Name
		}
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.X != nil {
		fields["x"] = *req.X
	}
	if req.Y != nil {
		fields["y"] = *req.Y
	}
	if req.MapID != nil {
		var count int64
		if err := h.db.WithContext(ctx).Model(&models.Map{}).Where("id = ?", *req.MapID).Count(&count).Error; err != nil {
			return respondError(c, errors.Join(errorz.ErrDatabaseError, err))
		}
		if count == 0 {
			fe.add("map_id", "The selected map_id is invalid.")
		} else {
			fields["map_id"] = *req.MapID
		}
	}
	if len(fe) > 0 {
		return validationFailed(c, fe)
	}

	if len(fields) > 0 {
		if err := h.db.WithContext(ctx).Model(&building).Updates(fields).Error; err != nil {
			return respondError(c, errors.Join(errorz.ErrDatabaseError, err))
		}
	}
	return c.JSON(http.StatusOK, building)
}

func (h *BuildingHandler) Delete(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "BuildingHandler.Delete")
	defer span.End()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, errorz.ErrBuildingNotFound)
	}
	var building models.Building
	if err := h.db.WithContext(ctx).First(&building, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, errorz.ErrBuildingNotFound)
		}
		return respondError(c, errors.Join(errorz.ErrDatabaseError, err))
	}
	if err := h.db.WithContext(ctx).Select("Faculty").Delete(&building).Error; err != nil {
		return respondError(c, errors.Join(errorz.ErrDatabaseError, err))
	}
	return c.NoContent(http.StatusNoContent)
}
