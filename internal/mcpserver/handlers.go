package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *LocalspotClient
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *LocalspotClient) *Handlers {
	return &Handlers{client: client}
}

// HandleSearchBusinesses browses the directory.
func (h *Handlers) HandleSearchBusinesses(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")
	neighborhood := req.GetString("neighborhood", "")
	search := req.GetString("search", "")
	limit := req.GetInt("limit", 20)

	raw, err := h.client.SearchBusinesses(ctx, category, neighborhood, search, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search businesses: %v", err)), nil
	}

	text, err := formatBusinessList(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse businesses: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleGetBusiness fetches one full listing.
func (h *Handlers) HandleGetBusiness(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetInt("business_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("business_id is required"), nil
	}

	raw, err := h.client.GetBusiness(ctx, int64(id))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get business: %v", err)), nil
	}

	text, err := formatBusiness(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse business: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleListReviews reads a business's reviews.
func (h *Handlers) HandleListReviews(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetInt("business_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("business_id is required"), nil
	}

	raw, err := h.client.ListReviews(ctx, int64(id))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list reviews: %v", err)), nil
	}

	text, err := formatReviewList(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse reviews: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleActiveDeals lists running promotions.
func (h *Handlers) HandleActiveDeals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.ActiveDeals(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list deals: %v", err)), nil
	}

	text, err := formatDealList(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse deals: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleTopRated runs the top-rated report.
func (h *Handlers) HandleTopRated(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")
	neighborhood := req.GetString("neighborhood", "")
	minReviews := req.GetInt("min_reviews", 0)

	raw, err := h.client.TopRated(ctx, category, neighborhood, minReviews)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get top rated: %v", err)), nil
	}

	text, err := formatTopRated(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse report: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleFindSpots asks the recommendation finder.
func (h *Handlers) HandleFindSpots(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	queryText := req.GetString("query", "")
	if queryText == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	raw, err := h.client.FindSpots(ctx, queryText)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Finder request failed: %v", err)), nil
	}

	text, err := formatFinderResults(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse finder results: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// --- Formatting helpers ---

type businessInfo struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	Neighborhood string `json:"neighborhood"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	Website      string `json:"website"`
	Description  string `json:"description"`
	TagsCSV      string `json:"tagsCsv"`
}

func formatBusinessList(raw json.RawMessage) (string, error) {
	var resp struct {
		Businesses []businessInfo `json:"businesses"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("unexpected businesses response format")
	}
	if len(resp.Businesses) == 0 {
		return "No businesses found matching your criteria.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d business(es):\n\n", len(resp.Businesses))
	for i, b := range resp.Businesses {
		fmt.Fprintf(&sb, "%d. %s (ID %d)\n", i+1, b.Name, b.ID)
		fmt.Fprintf(&sb, "   %s | %s\n", b.Category, b.Neighborhood)
		if b.Address != "" {
			fmt.Fprintf(&sb, "   %s\n", b.Address)
		}
		if i < len(resp.Businesses)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

func formatBusiness(raw json.RawMessage) (string, error) {
	var b businessInfo
	if err := json.Unmarshal(raw, &b); err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (ID %d)\n", b.Name, b.ID)
	fmt.Fprintf(&sb, "Category: %s\n", b.Category)
	fmt.Fprintf(&sb, "Neighborhood: %s\n", b.Neighborhood)
	fmt.Fprintf(&sb, "Address: %s\n", b.Address)
	if b.Phone != "" {
		fmt.Fprintf(&sb, "Phone: %s\n", b.Phone)
	}
	if b.Website != "" {
		fmt.Fprintf(&sb, "Website: %s\n", b.Website)
	}
	if b.TagsCSV != "" {
		fmt.Fprintf(&sb, "Tags: %s\n", b.TagsCSV)
	}
	if b.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", b.Description)
	}
	return sb.String(), nil
}

func formatReviewList(raw json.RawMessage) (string, error) {
	var resp struct {
		Reviews []struct {
			Rating      int    `json:"rating"`
			Title       string `json:"title"`
			Body        string `json:"body"`
			DisplayName string `json:"displayName"`
		} `json:"reviews"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("unexpected reviews response format")
	}
	if len(resp.Reviews) == 0 {
		return "No reviews yet for this business.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d review(s), newest first:\n\n", len(resp.Reviews))
	for i, r := range resp.Reviews {
		fmt.Fprintf(&sb, "%d. %s (%d/5) by %s\n", i+1, r.Title, r.Rating, r.DisplayName)
		if r.Body != "" {
			fmt.Fprintf(&sb, "   %s\n", r.Body)
		}
	}
	return sb.String(), nil
}

func formatDealList(raw json.RawMessage) (string, error) {
	var resp struct {
		Deals []struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			CouponCode   string `json:"couponCode"`
			ExpiresOn    string `json:"expiresOn"`
			BusinessName string `json:"businessName"`
			Neighborhood string `json:"neighborhood"`
		} `json:"deals"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("unexpected deals response format")
	}
	if len(resp.Deals) == 0 {
		return "No active deals right now.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d active deal(s):\n\n", len(resp.Deals))
	for i, d := range resp.Deals {
		fmt.Fprintf(&sb, "%d. %s at %s (%s)\n", i+1, d.Title, d.BusinessName, d.Neighborhood)
		if d.Description != "" {
			fmt.Fprintf(&sb, "   %s\n", d.Description)
		}
		if d.CouponCode != "" {
			fmt.Fprintf(&sb, "   Coupon: %s\n", d.CouponCode)
		}
		if d.ExpiresOn != "" {
			fmt.Fprintf(&sb, "   Expires: %s\n", d.ExpiresOn)
		}
	}
	return sb.String(), nil
}

func formatTopRated(raw json.RawMessage) (string, error) {
	var resp struct {
		Results []struct {
			Name         string  `json:"name"`
			Category     string  `json:"category"`
			Neighborhood string  `json:"neighborhood"`
			AvgRating    float64 `json:"avgRating"`
			ReviewCount  int     `json:"reviewCount"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("unexpected report response format")
	}
	if len(resp.Results) == 0 {
		return "No rated businesses found.", nil
	}

	var sb strings.Builder
	sb.WriteString("Top rated businesses:\n\n")
	for i, r := range resp.Results {
		fmt.Fprintf(&sb, "%d. %s (%s, %s)\n", i+1, r.Name, r.Category, r.Neighborhood)
		fmt.Fprintf(&sb, "   %.1f stars over %d review(s)\n", r.AvgRating, r.ReviewCount)
	}
	return sb.String(), nil
}

func formatFinderResults(raw json.RawMessage) (string, error) {
	var resp struct {
		Results []struct {
			Name         string   `json:"name"`
			Category     string   `json:"category"`
			Neighborhood string   `json:"neighborhood"`
			AvgRating    float64  `json:"avgRating"`
			Score        float64  `json:"score"`
			Reasons      []string `json:"reasons"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("unexpected finder response format")
	}
	if len(resp.Results) == 0 {
		return "The finder had no suggestions for that request.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d suggestion(s):\n\n", len(resp.Results))
	for i, r := range resp.Results {
		fmt.Fprintf(&sb, "%d. %s (%s, %s)\n", i+1, r.Name, r.Category, r.Neighborhood)
		if r.AvgRating > 0 {
			fmt.Fprintf(&sb, "   %.1f stars\n", r.AvgRating)
		}
		if len(r.Reasons) > 0 {
			fmt.Fprintf(&sb, "   Why: %s\n", strings.Join(r.Reasons, "; "))
		}
	}
	return sb.String(), nil
}
