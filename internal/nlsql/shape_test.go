package nlsql

import (
	"testing"

	"github.com/official-eswaran/DataWhisper/internal/domain"
)

func TestShape(t *testing.T) {
	t.Parallel()

	rows := func(n int, cols ...string) *domain.ResultSet {
		rs := &domain.ResultSet{Columns: cols}
		for i := 0; i < n; i++ {
			row := make(map[string]any, len(cols))
			for _, c := range cols {
				row[c] = i
			}
			rs.Rows = append(rs.Rows, row)
		}
		return rs
	}

	tests := []struct {
		name        string
		rs          *domain.ResultSet
		wantShape   domain.ResultShape
		wantSummary string
	}{
		{
			name:        "single cell",
			rs:          &domain.ResultSet{Columns: []string{"total"}, Rows: []map[string]any{{"total": 42}}},
			wantShape:   domain.ShapeSingleValue,
			wantSummary: "The answer is: 42",
		},
		{
			name:        "single null cell",
			rs:          &domain.ResultSet{Columns: []string{"total"}, Rows: []map[string]any{{"total": nil}}},
			wantShape:   domain.ShapeSingleValue,
			wantSummary: "The answer is: NULL",
		},
		{
			name:        "two columns many rows is a chart",
			rs:          rows(5, "region", "amount"),
			wantShape:   domain.ShapeChart,
			wantSummary: "Found 5 rows across 2 columns.",
		},
		{
			name:        "two columns two rows stays a table",
			rs:          rows(2, "region", "amount"),
			wantShape:   domain.ShapeTable,
			wantSummary: "Found 2 rows across 2 columns.",
		},
		{
			name:        "wide result is a table",
			rs:          rows(10, "a", "b", "c"),
			wantShape:   domain.ShapeTable,
			wantSummary: "Found 10 rows across 3 columns.",
		},
		{
			name:        "one row two columns is a table",
			rs:          rows(1, "region", "amount"),
			wantShape:   domain.ShapeTable,
			wantSummary: "Found 1 rows across 2 columns.",
		},
		{
			name:        "empty result",
			rs:          rows(0, "region", "amount"),
			wantShape:   domain.ShapeTable,
			wantSummary: "No results found for your query.",
		},
		{
			name:        "nil result",
			rs:          nil,
			wantShape:   domain.ShapeTable,
			wantSummary: "No results found for your query.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, summary := Shape(tt.rs)
			if shape != tt.wantShape {
				t.Errorf("shape = %v, want %v", shape, tt.wantShape)
			}
			if summary != tt.wantSummary {
				t.Errorf("summary = %q, want %q", summary, tt.wantSummary)
			}
		})
	}
}
