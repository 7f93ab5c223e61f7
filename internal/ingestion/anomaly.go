package ingestion

import (
	"fmt"
	"sort"
	"strings"
)

// Anomaly is one data-quality finding surfaced at upload time.
type Anomaly struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// DetectAnomalies scans a parsed table for quality problems: heavily
// missing columns, numeric outliers, and duplicate rows.
func DetectAnomalies(t *Table, tableName string) []Anomaly {
	anomalies := []Anomaly{}
	if t.RowCount() == 0 {
		return anomalies
	}

	anomalies = append(anomalies, missingValueAnomalies(t)...)
	anomalies = append(anomalies, outlierAnomalies(t)...)
	anomalies = append(anomalies, duplicateAnomalies(t, tableName)...)
	return anomalies
}

func missingValueAnomalies(t *Table) []Anomaly {
	var out []Anomaly
	total := t.RowCount()
	for ci, col := range t.Columns {
		missing := 0
		for _, row := range t.Rows {
			if row[ci] == nil {
				missing++
			}
		}
		if missing == 0 {
			continue
		}
		pct := float64(missing) / float64(total) * 100
		if pct <= 20 {
			continue
		}
		severity := "medium"
		if pct > 50 {
			severity = "high"
		}
		out = append(out, Anomaly{
			Type:     "missing_data",
			Severity: severity,
			Message:  fmt.Sprintf("Column '%s' has %.1f%% missing values (%d/%d rows)", col.Name, pct, missing, total),
		})
	}
	return out
}

// outlierAnomalies flags numeric values outside the 1.5×IQR fences.
func outlierAnomalies(t *Table) []Anomaly {
	var out []Anomaly
	for ci, col := range t.Columns {
		if col.Type != typeInteger && col.Type != typeReal {
			continue
		}
		values := numericColumn(t, ci)
		if len(values) < 4 {
			continue
		}
		sort.Float64s(values)
		q1 := quantile(values, 0.25)
		q3 := quantile(values, 0.75)
		iqr := q3 - q1
		if iqr == 0 {
			continue
		}
		lower, upper := q1-1.5*iqr, q3+1.5*iqr

		outliers := 0
		for _, v := range values {
			if v < lower || v > upper {
				outliers++
			}
		}
		if outliers > 0 {
			out = append(out, Anomaly{
				Type:     "outlier",
				Severity: "medium",
				Message:  fmt.Sprintf("Column '%s' has %d outlier values (outside %.1f - %.1f)", col.Name, outliers, lower, upper),
			})
		}
	}
	return out
}

func duplicateAnomalies(t *Table, tableName string) []Anomaly {
	seen := make(map[string]bool, t.RowCount())
	dups := 0
	for _, row := range t.Rows {
		key := rowKey(row)
		if seen[key] {
			dups++
		}
		seen[key] = true
	}
	if dups == 0 {
		return nil
	}
	return []Anomaly{{
		Type:     "duplicates",
		Severity: "low",
		Message:  fmt.Sprintf("Found %d duplicate rows in '%s'", dups, tableName),
	}}
}

func numericColumn(t *Table, ci int) []float64 {
	var values []float64
	for _, row := range t.Rows {
		switch v := row[ci].(type) {
		case int64:
			values = append(values, float64(v))
		case float64:
			values = append(values, v)
		}
	}
	return values
}

// quantile computes a linear-interpolated quantile over sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	frac := pos - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func rowKey(row []any) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(parts, "\x1f")
}
