package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test helpers ---

func newTestSetup(handler http.Handler) (*Handlers, func()) {
	ts := httptest.NewServer(handler)
	client := NewLocalspotClient(Config{APIURL: ts.URL})
	h := NewHandlers(client)
	return h, ts.Close
}

func makeRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	if args == nil {
		args = map[string]any{}
	}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content block")
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

// ============================================================
// Client tests
// ============================================================

func TestClient_DoRequest_HTTPError_WithAPIMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "business not found"})
	}))
	defer ts.Close()

	client := NewLocalspotClient(Config{APIURL: ts.URL})
	_, err := client.GetBusiness(context.Background(), 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "business not found")
}

func TestClient_DoRequest_HTTPError_NonJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream timeout"))
	}))
	defer ts.Close()

	client := NewLocalspotClient(Config{APIURL: ts.URL})
	_, err := client.ActiveDeals(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream timeout")
}

func TestClient_DoRequest_ConnectionRefused(t *testing.T) {
	client := NewLocalspotClient(Config{APIURL: "http://127.0.0.1:1"})
	_, err := client.ActiveDeals(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestClient_DoRequest_CancelledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	client := NewLocalspotClient(Config{APIURL: ts.URL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately
	_, err := client.ActiveDeals(ctx)
	require.Error(t, err)
}

func TestClient_SearchBusinesses_QueryParams(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "coffee", r.URL.Query().Get("category"))
		assert.Equal(t, "Carytown", r.URL.Query().Get("neighborhood"))
		assert.Equal(t, "roast", r.URL.Query().Get("search"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"businesses":[],"count":0}`))
	}))
	defer ts.Close()

	client := NewLocalspotClient(Config{APIURL: ts.URL})
	_, err := client.SearchBusinesses(context.Background(), "coffee", "Carytown", "roast", 5)
	require.NoError(t, err)
}

func TestClient_SearchBusinesses_EmptyParams(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("category"))
		assert.Empty(t, r.URL.Query().Get("limit"), "limit=0 should not be sent")
		_, _ = w.Write([]byte(`{"businesses":[],"count":0}`))
	}))
	defer ts.Close()

	client := NewLocalspotClient(Config{APIURL: ts.URL})
	_, err := client.SearchBusinesses(context.Background(), "", "", "", 0)
	require.NoError(t, err)
}

func TestClient_TopRated_RequestBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/reports", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		var m map[string]any
		_ = json.Unmarshal(body, &m)
		assert.Equal(t, "top-rated", m["reportType"])
		filters := m["filters"].(map[string]any)
		assert.Equal(t, "restaurant", filters["category"])
		assert.Equal(t, float64(3), filters["minReviews"])

		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer ts.Close()

	client := NewLocalspotClient(Config{APIURL: ts.URL})
	_, err := client.TopRated(context.Background(), "restaurant", "", 3)
	require.NoError(t, err)
}

func TestClient_FindSpots_RequestBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/finder", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		var m map[string]any
		_ = json.Unmarshal(body, &m)
		assert.Equal(t, "search", m["type"])
		assert.Equal(t, "cheap tacos", m["query"])
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer ts.Close()

	client := NewLocalspotClient(Config{APIURL: ts.URL})
	_, err := client.FindSpots(context.Background(), "cheap tacos")
	require.NoError(t, err)
}

// ============================================================
// Handler: search_businesses
// ============================================================

func TestHandleSearchBusinesses(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/businesses", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "coffee", r.URL.Query().Get("category"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"businesses": []map[string]any{
				{"id": 1, "name": "Lamplighter", "category": "coffee", "neighborhood": "Scott's Addition", "address": "116 S Addison St"},
				{"id": 2, "name": "Blanchard's", "category": "coffee", "neighborhood": "The Fan", "address": "3123 W Marshall St"},
			},
			"count": 2,
		})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleSearchBusinesses(context.Background(), makeRequest(map[string]any{
		"category": "coffee",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Found 2 business(es)")
	assert.Contains(t, text, "Lamplighter")
	assert.Contains(t, text, "Blanchard's")
	assert.Contains(t, text, "Scott's Addition")
	assert.Contains(t, text, "ID 1")
}

func TestHandleSearchBusinesses_Empty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/businesses", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"businesses": []map[string]any{}, "count": 0})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleSearchBusinesses(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "No businesses found")
}

func TestHandleSearchBusinesses_APIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/businesses", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "failed to list businesses"})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleSearchBusinesses(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "failed to list businesses")
}

// ============================================================
// Handler: get_business
// ============================================================

func TestHandleGetBusiness(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/businesses/7", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 7, "name": "Perly's", "category": "restaurant",
			"neighborhood": "Downtown", "address": "111 E Grace St",
			"phone": "804-912-1560", "website": "https://perlysrichmond.com",
			"description": "Jewish deli and restaurant", "tagsCsv": "deli,brunch",
		})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleGetBusiness(context.Background(), makeRequest(map[string]any{
		"business_id": float64(7), // JSON numbers come as float64
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Perly's")
	assert.Contains(t, text, "111 E Grace St")
	assert.Contains(t, text, "804-912-1560")
	assert.Contains(t, text, "deli,brunch")
	assert.Contains(t, text, "Jewish deli")
}

func TestHandleGetBusiness_MissingID(t *testing.T) {
	h := NewHandlers(NewLocalspotClient(Config{}))
	result, err := h.HandleGetBusiness(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "business_id is required")
}

func TestHandleGetBusiness_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/businesses/404", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "business not found"})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleGetBusiness(context.Background(), makeRequest(map[string]any{
		"business_id": float64(404),
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "business not found")
}

// ============================================================
// Handler: list_reviews
// ============================================================

func TestHandleListReviews(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/businesses/3/reviews", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"reviews": []map[string]any{
				{"rating": 5, "title": "Best biscuits in town", "body": "Worth the wait", "displayName": "Sam"},
				{"rating": 3, "title": "Decent", "body": "", "displayName": "Alex"},
			},
			"count": 2,
		})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleListReviews(context.Background(), makeRequest(map[string]any{
		"business_id": float64(3),
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "2 review(s)")
	assert.Contains(t, text, "Best biscuits in town")
	assert.Contains(t, text, "(5/5) by Sam")
	assert.Contains(t, text, "(3/5) by Alex")
}

func TestHandleListReviews_Empty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/businesses/3/reviews", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"reviews": []map[string]any{}, "count": 0})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleListReviews(context.Background(), makeRequest(map[string]any{
		"business_id": float64(3),
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "No reviews yet")
}

func TestHandleListReviews_MissingID(t *testing.T) {
	h := NewHandlers(NewLocalspotClient(Config{}))
	result, err := h.HandleListReviews(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "business_id is required")
}

// ============================================================
// Handler: active_deals
// ============================================================

func TestHandleActiveDeals(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/deals", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"deals": []map[string]any{
				{
					"title": "Half-off growlers", "description": "Tuesdays only",
					"couponCode": "TUESDAY", "expiresOn": "2026-10-01T00:00:00Z",
					"businessName": "The Veil", "neighborhood": "Scott's Addition",
				},
			},
			"count": 1,
		})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleActiveDeals(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "1 active deal(s)")
	assert.Contains(t, text, "Half-off growlers")
	assert.Contains(t, text, "The Veil")
	assert.Contains(t, text, "Coupon: TUESDAY")
	assert.Contains(t, text, "Expires: 2026-10-01")
}

func TestHandleActiveDeals_Empty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/deals", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"deals": []map[string]any{}, "count": 0})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleActiveDeals(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "No active deals")
}

// ============================================================
// Handler: top_rated
// ============================================================

func TestHandleTopRated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/reports", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var m map[string]any
		_ = json.Unmarshal(body, &m)
		assert.Equal(t, "top-rated", m["reportType"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"name": "L'Opossum", "category": "restaurant", "neighborhood": "Oregon Hill", "avgRating": 4.9, "reviewCount": 42},
				{"name": "ZZQ", "category": "restaurant", "neighborhood": "Scott's Addition", "avgRating": 4.7, "reviewCount": 31},
			},
		})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleTopRated(context.Background(), makeRequest(map[string]any{
		"category": "restaurant",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "L'Opossum")
	assert.Contains(t, text, "4.9 stars over 42 review(s)")
	assert.Contains(t, text, "ZZQ")
}

func TestHandleTopRated_Empty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/reports", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{}})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleTopRated(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "No rated businesses")
}

// ============================================================
// Handler: find_spots
// ============================================================

func TestHandleFindSpots(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/finder", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var m map[string]any
		_ = json.Unmarshal(body, &m)
		assert.Equal(t, "search", m["type"])
		assert.Equal(t, "cheap coffee with wifi", m["query"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{
					"name": "Lamplighter", "category": "coffee", "neighborhood": "Scott's Addition",
					"avgRating": 4.6, "score": 85.0,
					"reasons": []string{"highly rated (4.6 stars)", "matches your preferences: wifi"},
				},
			},
		})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleFindSpots(context.Background(), makeRequest(map[string]any{
		"query": "cheap coffee with wifi",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "1 suggestion(s)")
	assert.Contains(t, text, "Lamplighter")
	assert.Contains(t, text, "4.6 stars")
	assert.Contains(t, text, "highly rated (4.6 stars); matches your preferences: wifi")
}

func TestHandleFindSpots_MissingQuery(t *testing.T) {
	h := NewHandlers(NewLocalspotClient(Config{}))
	result, err := h.HandleFindSpots(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "query is required")
}

func TestHandleFindSpots_NoSuggestions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/finder", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{}})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleFindSpots(context.Background(), makeRequest(map[string]any{
		"query": "something impossible",
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "no suggestions")
}

// ============================================================
// Formatting unit tests
// ============================================================

func TestFormatBusinessList_MalformedJSON(t *testing.T) {
	_, err := formatBusinessList(json.RawMessage(`not json`))
	assert.Error(t, err)
}

func TestFormatBusiness_OmitsEmptyFields(t *testing.T) {
	raw := json.RawMessage(`{"id":1,"name":"Bare","category":"retail","neighborhood":"Manchester","address":"1 Hull St"}`)
	text, err := formatBusiness(raw)
	require.NoError(t, err)
	assert.Contains(t, text, "Bare")
	assert.NotContains(t, text, "Phone:")
	assert.NotContains(t, text, "Website:")
	assert.NotContains(t, text, "Tags:")
}

func TestFormatDealList_NoExpiry(t *testing.T) {
	raw := json.RawMessage(`{"deals":[{"title":"Open ended","description":"","businessName":"Shop","neighborhood":"Fan"}]}`)
	text, err := formatDealList(raw)
	require.NoError(t, err)
	assert.Contains(t, text, "Open ended")
	assert.NotContains(t, text, "Expires:")
	assert.NotContains(t, text, "Coupon:")
}

func TestFormatFinderResults_ZeroRating(t *testing.T) {
	raw := json.RawMessage(`{"results":[{"name":"New Spot","category":"retail","neighborhood":"Fan","avgRating":0,"score":15,"reasons":["offers deals"]}]}`)
	text, err := formatFinderResults(raw)
	require.NoError(t, err)
	assert.Contains(t, text, "New Spot")
	assert.NotContains(t, text, "stars")
}

// ============================================================
// Server wiring test
// ============================================================

func TestNewMCPServer_RegistersAllTools(t *testing.T) {
	s := NewMCPServer(Config{APIURL: "http://localhost:8080"})
	require.NotNil(t, s)
}

// ============================================================
// Edge cases: handler never returns Go error
// ============================================================

func TestHandlers_NeverReturnGoError(t *testing.T) {
	// All handlers should return (result, nil) even on failures.
	// The failure is encoded in result.IsError, not in the Go error.
	h := NewHandlers(NewLocalspotClient(Config{
		APIURL: "http://127.0.0.1:1", // unreachable
	}))

	tests := []struct {
		name string
		fn   func() (*mcp.CallToolResult, error)
	}{
		{"SearchBusinesses", func() (*mcp.CallToolResult, error) {
			return h.HandleSearchBusinesses(context.Background(), makeRequest(nil))
		}},
		{"GetBusiness", func() (*mcp.CallToolResult, error) {
			return h.HandleGetBusiness(context.Background(), makeRequest(map[string]any{"business_id": float64(1)}))
		}},
		{"ListReviews", func() (*mcp.CallToolResult, error) {
			return h.HandleListReviews(context.Background(), makeRequest(map[string]any{"business_id": float64(1)}))
		}},
		{"ActiveDeals", func() (*mcp.CallToolResult, error) {
			return h.HandleActiveDeals(context.Background(), makeRequest(nil))
		}},
		{"TopRated", func() (*mcp.CallToolResult, error) {
			return h.HandleTopRated(context.Background(), makeRequest(nil))
		}},
		{"FindSpots", func() (*mcp.CallToolResult, error) {
			return h.HandleFindSpots(context.Background(), makeRequest(map[string]any{"query": "tacos"}))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.fn()
			assert.NoError(t, err, "handler should never return Go error")
			assert.NotNil(t, result, "handler should always return a result")
			assert.True(t, result.IsError, "unreachable server should produce isError result")
		})
	}
}
