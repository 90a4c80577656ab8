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

type FacultyHandler struct {
	db         *gorm.DB
	otelTracer trace.Tracer
}

type FacultyRequest struct {
	BuildingID *uuid.UUID `json:"building_id"`
	Name       *string    `json:"name"`
	Position   *string    `json:"position"`
	Email      *string    `json:"email"`
	Office     *string    `json:"office"`
}

func NewFacultyHandler(db *gorm.DB, otelTracer trace.Tracer) *FacultyHandler {
	return &FacultyHandler{db: db, otelTracer: otelTracer}
}

func (h *FacultyHandler) List(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "FacultyHandler.List")
	defer span.End()

	var faculty []models.Faculty
	if err := h.db.WithContext(ctx).Order("created_at").Find(&faculty).Error; err != nil {
		return respondError(c, errors.Join(errorz.ErrDatabaseError, err))
	}
	return c.JSON(http.StatusOK, faculty)
}

func (h *FacultyHandler) ListByBuilding(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "FacultyHandler.ListByBuilding")
	defer span.End()

	buildingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, errorz.ErrBuildingNotFound)
	}
	var count int64
	if err := h.db.WithContext(ctx).Model(&models.Building{}).Where("id = ?", buildingID).Count(&count).Error; err != nil {
		return respondError(c, errors.Join(errorz.ErrDatabaseError, err))
	}
	if count == 0 {
		return respondError(c, errorz.ErrBuildingNotFound)
	}

	var faculty []models.Faculty
	if err := h.db.WithContext(ctx).Where("building_id = ?", buildingID).Order("created_at").Find(&faculty).Error; err != nil {
		return respondError(c, errors.Join(errorz.ErrDatabaseError, err))
	}
	return c.JSON(http.StatusOK, faculty)
}

func (h *FacultyHandler) Create(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "FacultyHandler.Create")
	defer span.End()

	var req FacultyRequest
	if err := c.Bind(&req); err != nil {
		return validationFailed(c, fieldErrors{"body": {"The request body must be valid JSON."}})
	}

	fe := fieldErrors{}
	if req.Name == nil || *req.Name == "" {
		fe.add("name", "The name field is required.")
	} else if len(*req.Name) > 255 {
		fe.add("name", "The name may not be greater than 255 characters.")
	}
	if req.BuildingID == nil {
		fe.add("building_id", "The building_id field is required.")
	} else {
		var count int64
		if err := h.db.WithContext(ctx).Model(&models.Building{}).Where("id = ?", *req.BuildingID).Count(&count).Error; err != nil {
			return respondError(c, errors.Join(errorz.ErrDatabaseError, err))
		}
		if count == 0 {
			fe.add("building_id", "The selected building_id is invalid.")
		}
	}
	if len(fe) > 0 {
		return validationFailed(c, fe)
	}

	member := models.Faculty{BuildingID: *req.BuildingID, Name: *req.Name}
	if req.Position != nil {
		member.Position = *req.Position
	}
	if req.Email != nil {
		member.Email = *req.Email
	}
	if req.Office != nil {
		member.Office = *req.Office
	}
	if err := h.db.WithContext(ctx).Create(&member).Error; err != nil {
		return respondError(c, errors.Join(errorz.ErrDatabaseError, err))
	}
	return c.JSON(http.StatusCreated, member)
}

func (h *FacultyHandler) Get(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "FacultyHandler.Get")
	defer span.End()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, errorz.ErrFacultyNotFound)
	}
	var member models.Faculty
	if err := h.db.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, errorz.ErrFacultyNotFound)
		}
		return respondError(c, errors.Join(errorz.ErrDatabaseError, err))
	}
	return c.JSON(http.StatusOK, member)
}

func (h *FacultyHandler) Update(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "FacultyHandler.Update")
	defer span.End()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, errorz.ErrFacultyNotFound)
	}
	var member models.Faculty
	if err := h.db.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, errorz.ErrFacultyNotFound)
		}
		return respondError(c, errors.Join(errorz.ErrDatabaseError, err))
	}

	var req FacultyRequest
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
	if req.Position != nil {
		fields["position"] = *req.Position
	}
	if req.Email != nil {
		fields["email"] = *req.Email
	}
	if req.Office != nil {
		fields["office"] = *req.Office
	}
	if req.BuildingID != nil {
		var count int64
		if err := h.db.WithContext(ctx).Model(&models.Building{}).Where("id = ?", *req.BuildingID).Count(&count).Error; err != nil {
			return respondError(c, errors.Join(errorz.ErrDatabaseError, err))
		}
		if count == 0 {
			fe.add("building_id", "The selected building_id is invalid.")
		} else {
			fields["building_id"] = *req.BuildingID
		}
	}
	if len(fe) > 0 {
		return validationFailed(c, fe)
	}

	if len(fields) > 0 {
		if err := h.db.WithContext(ctx).Model(&member).Updates(fields).Error; err != nil {
			return respondError(c, errors.Join(errorz.ErrDatabaseError, err))
		}
	}
	return c.JSON(http.StatusOK, member)
}

func (h *FacultyHandler) Delete(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "FacultyHandler.Delete")
	defer span.End()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, errorz.ErrFacultyNotFound)
	}
	res := h.db.WithContext(ctx).Delete(&models.Faculty{}, "id = ?", id)
	if res.Error != nil {
		return respondError(c, errors.Join(errorz.ErrDatabaseError, res.Error))
	}
	if res.RowsAffected == 0 {
		return respondError(c, errorz.ErrFacultyNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}
