package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/vinceerrol/vuefrontend/internal/config"
	"github.com/vinceerrol/vuefrontend/pkg/imagemeta"
	mapmanager "github.com/vinceerrol/vuefrontend/pkg/map_manager"
)

type MapHandler struct {
	maps       *mapmanager.MapManager
	config     *config.Config
	logger     *zap.Logger
	otelTracer trace.Tracer
}

func NewMapHandler(maps *mapmanager.MapManager, config *config.Config, logger *zap.Logger, otelTracer trace.Tracer) *MapHandler {
	return &MapHandler{maps: maps, config: config, logger: logger, otelTracer: otelTracer}
}

func (h *MapHandler) List(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "MapHandler.List")
	defer span.End()

	maps, err := h.maps.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, maps)
}

func (h *MapHandler) Create(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "MapHandler.Create")
	defer span.End()

	fe := fieldErrors{}
	name := c.FormValue("name")
	if name == "" {
		fe.add("name", "The name field is required.")
	} else if len(name) > 255 {
		fe.add("name", "The name may not be greater than 255 characters.")
	}
	width := h.intField(c, "width", true, fe)
	height := h.intField(c, "height", true, fe)
	isPublished := h.boolField(c, "is_published", fe)

	image := h.imageField(c, fe)
	if len(fe) > 0 {
		return validationFailed(c, fe)
	}

	h.logger.Info("map store request received",
		zap.Bool("has_file", image != nil),
		zap.String("name", name))

	record, err := h.maps.Create(ctx, mapmanager.CreateParams{
		Name:        name,
		Width:       width,
		Height:      height,
		IsPublished: isPublished,
		Image:       image,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, record)
}

func (h *MapHandler) Get(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "MapHandler.Get")
	defer span.End()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return message(c, http.StatusNotFound, "map not found")
	}
	record, err := h.maps.Get(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

func (h *MapHandler) Update(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "MapHandler.Update")
	defer span.End()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return message(c, http.StatusNotFound, "map not found")
	}

	params, _ := c.FormParams()
	fe := fieldErrors{}
	p := mapmanager.UpdateParams{}

	if v, ok := formValue(params, "name"); ok {
		if v == "" {
			fe.add("name", "The name field is required.")
		} else if len(v) > 255 {
			fe.add("name", "The name may not be greater than 255 characters.")
		} else {
			p.Name = &v
		}
	}
	if v, ok := formValue(params, "width"); ok {
		if n, err := strconv.Atoi(v); err != nil {
			fe.add("width", "The width must be an integer.")
		} else {
			p.Width = &n
		}
	}
	if v, ok := formValue(params, "height"); ok {
		if n, err := strconv.Atoi(v); err != nil {
			fe.add("height", "The height must be an integer.")
		} else {
			p.Height = &n
		}
	}
	if v, ok := formValue(params, "is_active"); ok {
		if b, err := strconv.ParseBool(v); err != nil {
			fe.add("is_active", "The is_active field must be a boolean.")
		} else {
			p.IsActive = &b
		}
	}
	if v, ok := formValue(params, "is_published"); ok {
		if b, err := strconv.ParseBool(v); err != nil {
			fe.add("is_published", "The is_published field must be a boolean.")
		} else {
			p.IsPublished = &b
		}
	}
	p.Image = h.imageField(c, fe)

	if len(fe) > 0 {
		return validationFailed(c, fe)
	}

	record, err := h.maps.Update(ctx, id, p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

func (h *MapHandler) Delete(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "MapHandler.Delete")
	defer span.End()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return message(c, http.StatusNotFound, "map not found")
	}
	if err := h.maps.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *MapHandler) Activate(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "MapHandler.Activate")
	defer span.End()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return message(c, http.StatusNotFound, "map not found")
	}
	record, err := h.maps.Activate(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

func (h *MapHandler) GetActive(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "MapHandler.GetActive")
	defer span.End()

	record, err := h.maps.Active(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// Upload replaces the active map's image; dimensions are taken from the
// decoded pixel data.
func (h *MapHandler) Upload(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "MapHandler.Upload")
	defer span.End()

	fe := fieldErrors{}
	image := h.imageField(c, fe)
	if image == nil && len(fe) == 0 {
		fe.add("image", "The image field is required.")
	}
	if len(fe) > 0 {
		return validationFailed(c, fe)
	}

	record, err := h.maps.UploadActiveImage(ctx, *image)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Map image uploaded successfully",
		"map":     record,
	})
}

// imageField reads the optional "image" multipart file, enforcing the size
// bound and sniffing the payload so only real JPEG/PNG bytes pass through.
func (h *MapHandler) imageField(c echo.Context, fe fieldErrors) *mapmanager.Upload {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil
	}
	if fh.Size > h.config.MaxImageBytes {
		fe.add("image", fmt.Sprintf("The image may not be greater than %d MB.", h.config.MaxImageSizeMB))
		return nil
	}

	f, err := fh.Open()
	if err != nil {
		fe.add("image", "The image failed to upload.")
		return nil
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.config.MaxImageBytes+1))
	if err != nil || int64(len(data)) > h.config.MaxImageBytes {
		fe.add("image", "The image failed to upload.")
		return nil
	}
	if _, err := imagemeta.Probe(data); err != nil {
		fe.add("image", "The image must be a JPEG or PNG file.")
		return nil
	}
	return &mapmanager.Upload{Filename: fh.Filename, Data: data}
}

func (h *MapHandler) intField(c echo.Context, field string, required bool, fe fieldErrors) int {
	v := c.FormValue(field)
	if v == "" {
		if required {
			fe.add(field, "The "+field+" field is required.")
		}
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fe.add(field, "The "+field+" must be an integer.")
		return 0
	}
	return n
}

func (h *MapHandler) boolField(c echo.Context, field string, fe fieldErrors) bool {
	v := c.FormValue(field)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		fe.add(field, "The "+field+" field must be a boolean.")
		return false
	}
	return b
}

func formValue(params map[string][]string, key string) (string, bool) {
	vs, ok := params[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}
