package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vinceerrol/vuefrontend/internal/config"
	"github.com/vinceerrol/vuefrontend/internal/db"
	"github.com/vinceerrol/vuefrontend/internal/handlers"
	"github.com/vinceerrol/vuefrontend/internal/models"
	"github.com/vinceerrol/vuefrontend/internal/storage"
)

func newTestServer(t *testing.T) (*echo.Echo, *gorm.DB) {
	t.Helper()
	return newTestServerSized(t, 10)
}

func newTestServerSized(t *testing.T, maxImageMB int) (*echo.Echo, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	blobs, err := storage.New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	cfg := config.Config{
		PublicBaseURL:  "http://maps.test",
		StorageDir:     t.TempDir(),
		MaxImageSizeMB: maxImageMB,
		MaxImageBytes:  int64(maxImageMB) << 20,
		TokenTTL:       time.Hour,
	}

	e := echo.New()
	tracer := noop.NewTracerProvider().Tracer("test")
	Register(e, gdb, blobs, zap.NewNop(), tracer, &cfg)
	return e, gdb
}

func seedAdmin(t *testing.T, gdb *gorm.DB, role string) (models.Admin, string) {
	t.Helper()

	admin := models.Admin{
		Name:         "Test Admin",
		Email:        uuid.NewString() + "@campus.test",
		PasswordHash: handlers.HashPassword("secret123"),
		Role:         role,
	}
	require.NoError(t, gdb.Create(&admin).Error)

	token := models.AdminToken{Token: uuid.New(), AdminID: admin.ID, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, gdb.Create(&token).Error)
	return admin, token.Token.String()
}

func doJSON(e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func doMultipart(t *testing.T, e *echo.Echo, method, path, token string, fields map[string]string, imageName string, imageData []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if imageName != "" {
		fw, err := w.CreateFormFile("image", imageName)
		require.NoError(t, err)
		_, err = fw.Write(imageData)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestLoginMeLogoutFlow(t *testing.T) {
	e, gdb := newTestServer(t)
	admin, _ := seedAdmin(t, gdb, models.RoleSuperAdmin)

	rec := doJSON(e, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": admin.Email, "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": admin.Email, "password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeMap(t, rec)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	rec = doJSON(e, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, admin.Email, decodeMap(t, rec)["email"])

	rec = doJSON(e, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/map", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/buildings", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpiredTokenRejected(t *testing.T) {
	e, gdb := newTestServer(t)
	admin, _ := seedAdmin(t, gdb, models.RoleAdmin)

	expired := models.AdminToken{Token: uuid.New(), AdminID: admin.ID, ExpiresAt: time.Now().Add(-time.Minute)}
	require.NoError(t, gdb.Create(&expired).Error)

	rec := doJSON(e, http.MethodGet, "/api/map", expired.Token.String(), nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMapLifecycle(t *testing.T) {
	e, gdb := newTestServer(t)
	_, token := seedAdmin(t, gdb, models.RoleAdmin)

	// No active map yet; the public endpoint reports 404.
	rec := doJSON(e, http.MethodGet, "/api/map/active", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "No active map found", decodeMap(t, rec)["message"])

	rec = doMultipart(t, e, http.MethodPost, "/api/map", token, map[string]string{
		"name": "Main Campus", "width": "1920", "height": "1080",
	}, "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeMap(t, rec)
	require.Equal(t, false, created["is_active"])
	require.Equal(t, false, created["is_published"])
	require.Nil(t, created["image_path"])
	id := created["id"].(string)

	rec = doJSON(e, http.MethodGet, "/api/map/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Main Campus", decodeMap(t, rec)["name"])

	rec = doMultipart(t, e, http.MethodPut, "/api/map/"+id, token, map[string]string{
		"name": "North Campus", "is_published": "1",
	}, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeMap(t, rec)
	require.Equal(t, "North Campus", updated["name"])
	require.Equal(t, true, updated["is_published"])

	rec = doJSON(e, http.MethodPut, "/api/map/"+id+"/activate", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decodeMap(t, rec)["is_active"])

	rec = doJSON(e, http.MethodGet, "/api/map/active", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, id, decodeMap(t, rec)["id"])

	rec = doJSON(e, http.MethodDelete, "/api/map/"+id, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/map/"+id, token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMapCreateValidation(t *testing.T) {
	e, gdb := newTestServer(t)
	_, token := seedAdmin(t, gdb, models.RoleAdmin)

	rec := doMultipart(t, e, http.MethodPost, "/api/map", token, map[string]string{
		"width": "abc",
	}, "", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decodeMap(t, rec)
	errs := body["errors"].(map[string]any)
	require.Contains(t, errs, "name")
	require.Contains(t, errs, "width")
	require.Contains(t, errs, "height")
}

func TestMapCreateRejectsNonImageUpload(t *testing.T) {
	e, gdb := newTestServer(t)
	_, token := seedAdmin(t, gdb, models.RoleAdmin)

	rec := doMultipart(t, e, http.MethodPost, "/api/map", token, map[string]string{
		"name": "X", "width": "1", "height": "1",
	}, "evil.png", []byte("definitely not a png"))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, decodeMap(t, rec)["errors"].(map[string]any), "image")
}

func TestUploadActiveMapImage(t *testing.T) {
	e, gdb := newTestServer(t)
	_, token := seedAdmin(t, gdb, models.RoleAdmin)

	rec := doMultipart(t, e, http.MethodPost, "/api/map/upload", token, nil, "new.png", testPNG(t, 2, 3))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doMultipart(t, e, http.MethodPost, "/api/map", token, map[string]string{
		"name": "Campus", "width": "999", "height": "999",
	}, "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeMap(t, rec)["id"].(string)

	rec = doJSON(e, http.MethodPut, "/api/map/"+id+"/activate", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doMultipart(t, e, http.MethodPost, "/api/map/upload", token, nil, "new.png", testPNG(t, 2, 3))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeMap(t, rec)
	require.Equal(t, "Map image uploaded successfully", body["message"])
	uploaded := body["map"].(map[string]any)
	require.EqualValues(t, 2, uploaded["width"])
	require.EqualValues(t, 3, uploaded["height"])
	require.NotNil(t, uploaded["image_url"])
	require.True(t, strings.HasPrefix(uploaded["image_url"].(string), "http://maps.test/storage/maps/"))
}

func TestBuildingCRUD(t *testing.T) {
	e, gdb := newTestServer(t)
	_, token := seedAdmin(t, gdb, models.RoleAdmin)

	campus := models.Map{Name: "Campus", Width: 10, Height: 10}
	require.NoError(t, gdb.Create(&campus).Error)

	rec := doJSON(e, http.MethodPost, "/api/buildings", token, map[string]any{
		"name": "Library", "map_id": campus.ID, "x": 12.5, "y": 40.0,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeMap(t, rec)["id"].(string)

	rec = doJSON(e, http.MethodPost, "/api/buildings", token, map[string]any{
		"name": "Orphan", "map_id": uuid.New(),
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(e, http.MethodPut, "/api/buildings/"+id, token, map[string]any{"name": "Main Library"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Main Library", decodeMap(t, rec)["name"])

	rec = doJSON(e, http.MethodGet, "/api/buildings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodDelete, "/api/buildings/"+id, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/buildings/"+id, token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFacultyCRUDAndBuildingFilter(t *testing.T) {
	e, gdb := newTestServer(t)
	_, token := seedAdmin(t, gdb, models.RoleAdmin)

	campus := models.Map{Name: "Campus", Width: 10, Height: 10}
	require.NoError(t, gdb.Create(&campus).Error)
	library := models.Building{MapID: campus.ID, Name: "Library"}
	require.NoError(t, gdb.Create(&library).Error)
	gym := models.Building{MapID: campus.ID, Name: "Gym"}
	require.NoError(t, gdb.Create(&gym).Error)

	rec := doJSON(e, http.MethodPost, "/api/faculty", token, map[string]any{
		"name": "Dr. Reyes", "building_id": library.ID, "position": "Dean",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeMap(t, rec)["id"].(string)

	rec = doJSON(e, http.MethodPost, "/api/faculty", token, map[string]any{
		"building_id": library.ID,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/faculty/building/"+library.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var members []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &members))
	require.Len(t, members, 1)

	rec = doJSON(e, http.MethodGet, "/api/faculty/building/"+gym.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	members = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &members))
	require.Empty(t, members)

	rec = doJSON(e, http.MethodDelete, "/api/faculty/"+id, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(e, http.MethodDelete, "/api/faculty/"+id, token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ready")
}

func TestOversizeImageGetsFieldError(t *testing.T) {
	e, gdb := newTestServerSized(t, 1)
	_, token := seedAdmin(t, gdb, models.RoleAdmin)

	// Just over the 1 MB image bound but under the body limit, so the
	// handler's validation answers rather than a bare 413.
	big := bytes.Repeat([]byte{0xAB}, (1<<20)+1024)
	rec := doMultipart(t, e, http.MethodPost, "/api/map", token, map[string]string{
		"name":  "Huge",
		"width": "10", "height": "10",
	}, "big.png", big)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "The image may not be greater than 1 MB.")
}
