package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vinceerrol/vuefrontend/internal/models"
)

const (
	adminContextKey = "admin"
	tokenContextKey = "admin_token"

	// Audit-only identity headers forwarded by the admin frontend. Their
	// absence never blocks a request.
	HeaderAdminName = "X-Admin-Name"
	HeaderAdminID   = "X-Admin-Id"
)

// BearerAuth validates the Authorization bearer token against admin_tokens
// and stashes the authenticated admin on the request context. Expired tokens
// are deleted on sight.
func BearerAuth(db *gorm.DB, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			token, err := uuid.Parse(raw)
			if err != nil {
				return unauthenticated(c)
			}

			ctx := c.Request().Context()
			var record models.AdminToken
			if err := db.WithContext(ctx).Preload("Admin").First(&record, "token = ?", token).Error; err != nil {
				return unauthenticated(c)
			}
			if time.Now().After(record.ExpiresAt) {
				if err := db.WithContext(ctx).Delete(&models.AdminToken{}, "token = ?", token).Error; err != nil {
					logger.Warn("failed to delete expired token", zap.Error(err))
				}
				return unauthenticated(c)
			}

			c.Set(adminContextKey, record.Admin)
			c.Set(tokenContextKey, token)

			if name := c.Request().Header.Get(HeaderAdminName); name != "" {
				logger.Info("admin request",
					zap.String("admin_name", name),
					zap.String("admin_id", c.Request().Header.Get(HeaderAdminID)),
					zap.String("method", c.Request().Method),
					zap.String("path", c.Request().URL.Path))
			}
			return next(c)
		}
	}
}

func AdminFrom(c echo.Context) (models.Admin, bool) {
	admin, ok := c.Get(adminContextKey).(models.Admin)
	return admin, ok
}

func TokenFrom(c echo.Context) (uuid.UUID, bool) {
	token, ok := c.Get(tokenContextKey).(uuid.UUID)
	return token, ok
}

func unauthenticated(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
}
