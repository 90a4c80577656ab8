package handlers

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vinceerrol/vuefrontend/internal/config"
	errorz "github.com/vinceerrol/vuefrontend/internal/errors"
	"github.com/vinceerrol/vuefrontend/internal/http/middleware"
	"github.com/vinceerrol/vuefrontend/internal/models"
)

type AuthHandler struct {
	db         *gorm.DB
	config     *config.Config
	logger     *zap.Logger
	otelTracer trace.Tracer
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  models.Admin `json:"user"`
}

func NewAuthHandler(db *gorm.DB, config *config.Config, logger *zap.Logger, otelTracer trace.Tracer) *AuthHandler {
	return &AuthHandler{db: db, config: config, logger: logger, otelTracer: otelTracer}
}

// HashPassword is the credential digest stored on admin records.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "AuthHandler.Login")
	defer span.End()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return validationFailed(c, fieldErrors{"body": {"The request body must be valid JSON."}})
	}
	fe := fieldErrors{}
	if req.Email == "" {
		fe.add("email", "The email field is required.")
	}
	if req.Password == "" {
		fe.add("password", "The password field is required.")
	}
	if len(fe) > 0 {
		return validationFailed(c, fe)
	}

	var admin models.Admin
	err := h.db.WithContext(ctx).Where("email = ?", req.Email).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return respondError(c, errorz.ErrInvalidCredentials)
	}
	if err != nil {
		return respondError(c, errors.Join(errorz.ErrDatabaseError, err))
	}
	if subtle.ConstantTimeCompare([]byte(admin.PasswordHash), []byte(HashPassword(req.Password))) != 1 {
		return respondError(c, errorz.ErrInvalidCredentials)
	}

	token := models.AdminToken{
		Token:     uuid.New(),
		AdminID:   admin.ID,
		ExpiresAt: time.Now().Add(h.config.TokenTTL),
	}
	if err := h.db.WithContext(ctx).Create(&token).Error; err != nil {
		return respondError(c, errors.Join(errorz.ErrDatabaseError, err))
	}

	h.logger.Info("admin logged in", zap.String("email", admin.Email), zap.String("role", admin.Role))
	return c.JSON(http.StatusOK, LoginResponse{Token: token.Token.String(), User: admin})
}

func (h *AuthHandler) Me(c echo.Context) error {
	_, span := h.otelTracer.Start(c.Request().Context(), "AuthHandler.Me")
	defer span.End()

	admin, ok := middleware.AdminFrom(c)
	if !ok {
		return respondError(c, errorz.ErrUnauthenticated)
	}
	return c.JSON(http.StatusOK, admin)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "AuthHandler.Logout")
	defer span.End()

	if token, ok := middleware.TokenFrom(c); ok {
		if err := h.db.WithContext(ctx).Delete(&models.AdminToken{}, "token = ?", token).Error; err != nil {
			h.logger.Warn("failed to revoke token", zap.Error(err))
		}
	}
	return message(c, http.StatusOK, "Logged out")
}
