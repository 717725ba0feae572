package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rvahub/localspot/internal/retry"
)

// Config holds the configuration for connecting to the Localspot API.
type Config struct {
	APIURL string // Base URL, e.g. "http://localhost:8080"
}

// LocalspotClient is a pure HTTP client for the Localspot public API.
type LocalspotClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewLocalspotClient creates a new client for the Localspot API.
func NewLocalspotClient(cfg Config) *LocalspotClient {
	return &LocalspotClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError represents an error response from the API.
type apiError struct {
	Error string `json:"error"`
}

// doRequest makes an HTTP request to the API and returns the response body.
// Transport failures are retried with backoff; anything the API answered,
// including error statuses, is returned as-is.
func (c *LocalspotClient) doRequest(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	var result json.RawMessage
	err = retry.Do(ctx, 3, 200*time.Millisecond, func() error {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
		if err != nil {
			return retry.Permanent(fmt.Errorf("create request: %w", err))
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			var apiErr apiError
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
				return retry.Permanent(fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error))
			}
			return retry.Permanent(fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody)))
		}

		result = json.RawMessage(respBody)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SearchBusinesses lists businesses with optional filters.
func (c *LocalspotClient) SearchBusinesses(ctx context.Context, category, neighborhood, search string, limit int) (json.RawMessage, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	if neighborhood != "" {
		q.Set("neighborhood", neighborhood)
	}
	if search != "" {
		q.Set("search", search)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.doRequest(ctx, http.MethodGet, "/v1/businesses", q, nil)
}

// GetBusiness fetches one business listing.
func (c *LocalspotClient) GetBusiness(ctx context.Context, id int64) (json.RawMessage, error) {
	path := "/v1/businesses/" + strconv.FormatInt(id, 10)
	return c.doRequest(ctx, http.MethodGet, path, nil, nil)
}

// ListReviews fetches a business's reviews, newest first.
func (c *LocalspotClient) ListReviews(ctx context.Context, businessID int64) (json.RawMessage, error) {
	path := "/v1/businesses/" + strconv.FormatInt(businessID, 10) + "/reviews"
	return c.doRequest(ctx, http.MethodGet, path, nil, nil)
}

// ActiveDeals fetches all currently running deals.
func (c *LocalspotClient) ActiveDeals(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/deals", nil, nil)
}

// TopRated runs the top-rated report with optional filters.
func (c *LocalspotClient) TopRated(ctx context.Context, category, neighborhood string, minReviews int) (json.RawMessage, error) {
	body := map[string]any{
		"reportType": "top-rated",
		"filters": map[string]any{
			"category":     category,
			"neighborhood": neighborhood,
			"minReviews":   minReviews,
		},
	}
	return c.doRequest(ctx, http.MethodPost, "/v1/reports", nil, body)
}

// FindSpots sends a free-text request to the recommendation finder.
func (c *LocalspotClient) FindSpots(ctx context.Context, queryText string) (json.RawMessage, error) {
	body := map[string]any{
		"type":  "search",
		"query": queryText,
	}
	return c.doRequest(ctx, http.MethodPost, "/v1/finder", nil, body)
}
