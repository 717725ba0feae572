package directory

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// ImportResult summarizes a bulk CSV import
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// csvColumns maps header names (lowercased) to Business fields. Aliases
// cover the export format and common spreadsheet variants.
var csvColumns = map[string]string{
	"name":         "name",
	"category":     "category",
	"neighborhood": "neighborhood",
	"address":      "address",
	"phone":        "phone",
	"website":      "website",
	"description":  "description",
	"tags":         "tags",
	"tags_csv":     "tags",
}

// ImportCSV reads business rows from r and persists the valid ones.
// Invalid rows are skipped and reported, not fatal. The header row is
// matched case-insensitively and unknown columns are ignored.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[int]string, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if field, ok := csvColumns[key]; ok {
			cols[i] = field
		}
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("csv header has no recognized columns")
	}

	result := &ImportResult{}
	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}

		b := &Business{CreatedAt: time.Now()}
		for i, field := range cols {
			if i >= len(record) {
				continue
			}
			value := strings.TrimSpace(record[i])
			switch field {
			case "name":
				b.Name = value
			case "category":
				b.Category = value
			case "neighborhood":
				b.Neighborhood = value
			case "address":
				b.Address = value
			case "phone":
				b.Phone = value
			case "website":
				b.Website = value
			case "description":
				b.Description = value
			case "tags":
				b.TagsCSV = value
			}
		}

		if _, err := s.Create(ctx, b); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		result.Imported++
	}
	return result, nil
}

// ExportCSV writes every business to w as CSV with a header row
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	businesses, err := s.store.List(ctx, ListOptions{Sort: "name"})
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"name", "category", "neighborhood", "address", "phone", "website", "description", "tags"}); err != nil {
		return err
	}
	for _, b := range businesses {
		row := []string{b.Name, b.Category, b.Neighborhood, b.Address, b.Phone, b.Website, b.Description, b.TagsCSV}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
