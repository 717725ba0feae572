package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rvahub/localspot/internal/directory"
)

// Row is one CSV record keyed by column name
type Row map[string]string

// RenderCSV renders rows under the given header order. Values containing
// commas, quotes, or newlines are quoted with doubled quotes.
func RenderCSV(rows []Row, headers []string) string {
	var b strings.Builder
	b.WriteString(strings.Join(headers, ","))
	for _, row := range rows {
		b.WriteByte('\n')
		for i, h := range headers {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(escapeCSV(row[h]))
		}
	}
	return b.String()
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// ExportHeaders maps export types to their CSV column order
var ExportHeaders = map[string][]string{
	"businesses": {"id", "name", "category", "neighborhood", "address", "phone", "website", "description", "tags_csv", "created_at"},
	"reviews":    {"id", "business_id", "rating", "title", "body", "display_name", "created_at"},
	"deals":      {"id", "business_id", "title", "description", "coupon_code", "expires_on", "is_active"},
}

// Export renders a full table as CSV. Supported types are businesses,
// reviews, and deals.
func (s *Service) Export(ctx context.Context, exportType string) (string, error) {
	headers, ok := ExportHeaders[exportType]
	if !ok {
		return "", fmt.Errorf("invalid export type %q", exportType)
	}

	var rows []Row
	switch exportType {
	case "businesses":
		businesses, err := s.businesses.List(ctx, directory.ListOptions{})
		if err != nil {
			return "", err
		}
		for _, b := range businesses {
			rows = append(rows, Row{
				"id":           fmt.Sprintf("%d", b.ID),
				"name":         b.Name,
				"category":     b.Category,
				"neighborhood": b.Neighborhood,
				"address":      b.Address,
				"phone":        b.Phone,
				"website":      b.Website,
				"description":  b.Description,
				"tags_csv":     b.TagsCSV,
				"created_at":   b.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
	case "reviews":
		reviewRows, err := s.reviews.List(ctx)
		if err != nil {
			return "", err
		}
		for _, r := range reviewRows {
			rows = append(rows, Row{
				"id":           fmt.Sprintf("%d", r.ID),
				"business_id":  fmt.Sprintf("%d", r.BusinessID),
				"rating":       fmt.Sprintf("%d", r.Rating),
				"title":        r.Title,
				"body":         r.Body,
				"display_name": r.DisplayName,
				"created_at":   r.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
	case "deals":
		dealRows, err := s.deals.List(ctx)
		if err != nil {
			return "", err
		}
		for _, d := range dealRows {
			expires := ""
			if d.ExpiresOn != nil {
				expires = d.ExpiresOn.UTC().Format(time.RFC3339)
			}
			active := "0"
			if d.IsActive {
				active = "1"
			}
			rows = append(rows, Row{
				"id":          fmt.Sprintf("%d", d.ID),
				"business_id": fmt.Sprintf("%d", d.BusinessID),
				"title":       d.Title,
				"description": d.Description,
				"coupon_code": d.CouponCode,
				"expires_on":  expires,
				"is_active":   active,
			})
		}
	}
	return RenderCSV(rows, headers), nil
}
