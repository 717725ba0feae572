package admin

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvahub/localspot/internal/directory"
)

func TestSessionLifecycle(t *testing.T) {
	m := NewSessionManager("admin", "secret")

	_, err := m.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = m.Login("root", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, err := m.Login("admin", "secret")
	require.NoError(t, err)
	assert.True(t, m.Validate(token))
	assert.False(t, m.Validate("forged"))
	assert.False(t, m.Validate(""))

	m.Logout(token)
	assert.False(t, m.Validate(token))
}

func TestSessionExpiry(t *testing.T) {
	m := NewSessionManager("admin", "secret")
	token, err := m.Login("admin", "secret")
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(SessionTTL + time.Minute) }
	assert.False(t, m.Validate(token))
}

func newAdminRouter(t *testing.T, resetters ...Resetter) (*gin.Engine, *directory.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := directory.NewMemoryStore()
	h := NewHandler(NewSessionManager("admin", "secret"), directory.NewService(store), false, resetters...)

	r := gin.New()
	v1 := r.Group("/v1")
	h.RegisterPublicRoutes(v1)
	adminGroup := v1.Group("/admin", h.RequireAdmin())
	h.RegisterAdminRoutes(adminGroup)
	return r, store
}

func login(t *testing.T, r *gin.Engine) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/login", strings.NewReader(`{"username":"admin","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatal("no admin session cookie set")
	return nil
}

func TestLoginEndpoint(t *testing.T) {
	r, _ := newAdminRouter(t)

	cookie := login(t, r)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/login", strings.NewReader(`{"username":"admin","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdminBlocksWithoutSession(t *testing.T) {
	r, _ := newAdminRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/admin/reset-demo", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	r, _ := newAdminRouter(t, resetFunc(func() {}))
	cookie := login(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/logout", nil)
	req.AddCookie(cookie)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/admin/reset-demo", nil)
	req.AddCookie(cookie)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type resetFunc func()

func (f resetFunc) Reset() { f() }

func TestResetDemo(t *testing.T) {
	called := false
	r, _ := newAdminRouter(t, resetFunc(func() { called = true }))
	cookie := login(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/reset-demo", nil)
	req.AddCookie(cookie)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestImportEndpoint(t *testing.T) {
	r, store := newAdminRouter(t)
	cookie := login(t, r)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "businesses.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("name,category,neighborhood,address\nPerly's,restaurant,Downtown,111 E Grace St\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"imported":1`)

	n, err := store.Count(req.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
