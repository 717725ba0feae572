package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rvahub/localspot/internal/admin"
	"github.com/rvahub/localspot/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testConfig returns a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Port:              "0",
		Env:               "development",
		LogLevel:          "error",
		AdminUsername:     "admin",
		AdminPassword:     "test-password",
		RateLimitWindow:   time.Minute,
		RateLimitMax:      100,
		ChallengeTTL:      5 * time.Minute,
		ChallengeSweepInt: 0,
	}
}

// newTestServer creates an in-memory server
func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(testConfig())
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return s
}

// adminLogin logs in and returns the session cookie
func adminLogin(t *testing.T, s *Server) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/admin/login",
		strings.NewReader(`{"username":"admin","password":"test-password"}`))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d: %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == admin.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie in login response")
	return nil
}

// ---------------------------------------------------------------------------
// Health endpoint tests
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if resp["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", resp["status"])
	}
}

func TestLivenessEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health/live", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

func TestReadinessEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health/ready", nil)
	s.router.ServeHTTP(w, req)

	// Server hasn't called Run() so ready is false
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 (not ready), got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// Route registration tests
// ---------------------------------------------------------------------------

func TestCoreRoutesRegistered(t *testing.T) {
	s := newTestServer(t)

	routes := s.router.Routes()
	expected := []string{
		"GET:/health",
		"GET:/health/live",
		"GET:/health/ready",
		"GET:/metrics",
		"GET:/ws",
		"GET:/v1/businesses",
		"GET:/v1/businesses/:id",
		"GET:/v1/businesses/:id/reviews",
		"GET:/v1/deals",
		"GET:/v1/challenge",
		"POST:/v1/finder",
		"POST:/v1/reports",
		"POST:/v1/reviews",
		"POST:/v1/profiles",
		"GET:/v1/profiles/me",
		"GET:/v1/favorites",
		"POST:/v1/favorites",
		"DELETE:/v1/favorites",
		"POST:/v1/admin/login",
	}

	routeSet := make(map[string]bool)
	for _, route := range routes {
		routeSet[route.Method+":"+route.Path] = true
	}

	for _, e := range expected {
		if !routeSet[e] {
			t.Errorf("Core route %s not registered", e)
		}
	}
}

func TestAdminRoutesRegistered(t *testing.T) {
	s := newTestServer(t)

	routes := s.router.Routes()
	adminRoutes := map[string]bool{
		"POST:/v1/admin/businesses":       false,
		"PUT:/v1/admin/businesses/:id":    false,
		"DELETE:/v1/admin/businesses/:id": false,
		"GET:/v1/admin/deals":             false,
		"POST:/v1/admin/deals":            false,
		"PUT:/v1/admin/deals/:id":         false,
		"DELETE:/v1/admin/deals/:id":      false,
		"GET:/v1/admin/export/:type":      false,
		"POST:/v1/admin/logout":           false,
		"POST:/v1/admin/import":           false,
		"POST:/v1/admin/reset-demo":       false,
	}

	for _, route := range routes {
		key := route.Method + ":" + route.Path
		if _, ok := adminRoutes[key]; ok {
			adminRoutes[key] = true
		}
	}

	for route, found := range adminRoutes {
		if !found {
			t.Errorf("Admin route %s not registered", route)
		}
	}
}

// ---------------------------------------------------------------------------
// Access control tests
// ---------------------------------------------------------------------------

func TestAdminRoutesRequireSession(t *testing.T) {
	s := newTestServer(t)

	body := `{"name":"Lamplighter","category":"coffee","neighborhood":"Scott's Addition","address":"116 S Addison St"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/admin/businesses", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without session, got %d", w.Code)
	}
}

func TestFavoritesRequireProfile(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/favorites", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without profile cookie, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// Admin flow test
// ---------------------------------------------------------------------------

func TestAdminCreateBusinessFlow(t *testing.T) {
	s := newTestServer(t)
	cookie := adminLogin(t, s)

	body := `{"name":"Lamplighter","category":"coffee","neighborhood":"Scott's Addition","address":"116 S Addison St"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/admin/businesses", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	// The new business shows up in the public listing
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/v1/businesses", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		Businesses []struct {
			Name string `json:"name"`
		} `json:"businesses"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Count != 1 || len(resp.Businesses) != 1 || resp.Businesses[0].Name != "Lamplighter" {
		t.Errorf("Expected the created business in the listing, got %s", w.Body.String())
	}
}

// ---------------------------------------------------------------------------
// 404 test
// ---------------------------------------------------------------------------

func TestNotFoundRoute(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/nonexistent", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}
