package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *FileSessionStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := NewFileSessionStore(filepath.Join(t.TempDir(), "session.json"))
	return New(srv.URL, store, zap.NewNop()), store
}

func TestLoginPersistsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "admin@campus.test", body["email"])
		json.NewEncoder(w).Encode(Session{
			Token: "tok-123",
			User:  User{ID: "u1", Name: "Admin", Email: "admin@campus.test", Role: "super_admin"},
		})
	})

	c, store := newTestClient(t, mux)
	sess, err := c.Login(context.Background(), "admin@campus.test", "secret")
	require.NoError(t, err)
	require.Equal(t, "tok-123", sess.Token)

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, "super_admin", loaded.User.Role)
	require.True(t, c.IsAuthenticated())
}

func TestRequestsCarryAuthAndIdentityHeaders(t *testing.T) {
	var gotAuth, gotName, gotID string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/map", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotName = r.Header.Get("X-Admin-Name")
		gotID = r.Header.Get("X-Admin-Id")
		json.NewEncoder(w).Encode([]MapRecord{})
	})

	c, store := newTestClient(t, mux)
	require.NoError(t, store.Save(&Session{
		Token: "tok-456",
		User:  User{ID: "u9", Name: "Map Admin", Email: "a@b.c", Role: "admin"},
	}))

	_, err := c.Maps(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer tok-456", gotAuth)
	require.Equal(t, "Map Admin", gotName)
	require.Equal(t, "u9", gotID)
}

func TestUnauthorizedResponseClearsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, store := newTestClient(t, mux)
	require.NoError(t, store.Save(&Session{Token: "stale", User: User{Name: "X"}}))

	_, err := c.Me(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, loaded)
	require.False(t, c.IsAuthenticated())
}

func TestLoginFailureDoesNotClearExistingSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, store := newTestClient(t, mux)
	require.NoError(t, store.Save(&Session{Token: "existing", User: User{Name: "X"}}))

	_, err := c.Login(context.Background(), "a@b.c", "bad")
	require.Error(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
}

func TestActiveMapNotFoundIsNil(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/map/active", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "No active map found"})
	})

	c, _ := newTestClient(t, mux)
	record, err := c.ActiveMap(context.Background())
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestLanding(t *testing.T) {
	require.Equal(t, "/superadmin", Landing("super_admin"))
	require.Equal(t, "/maps", Landing("admin"))
	require.Equal(t, "/maps", Landing(""))
}
