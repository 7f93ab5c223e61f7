package ingestion

import (
	"strings"
	"testing"
)

func TestDetectAnomaliesMissingValues(t *testing.T) {
	t.Parallel()

	table := &Table{
		Columns: []Column{{Name: "region", Type: typeText}, {Name: "amount", Type: typeText}},
		Rows: [][]any{
			{"west", nil},
			{"east", nil},
			{"north", nil},
			{"south", "x"},
		},
	}

	anomalies := DetectAnomalies(table, "sales")
	if len(anomalies) != 1 {
		t.Fatalf("anomalies = %+v", anomalies)
	}
	a := anomalies[0]
	if a.Type != "missing_data" || a.Severity != "high" {
		t.Errorf("anomaly = %+v", a)
	}
	if !strings.Contains(a.Message, "amount") || !strings.Contains(a.Message, "75.0%") {
		t.Errorf("message = %q", a.Message)
	}
}

func TestDetectAnomaliesMissingSeverityThresholds(t *testing.T) {
	t.Parallel()

	// 10 rows with 3 missing: 30% is medium; 20% or less is not reported.
	rows := make([][]any, 10)
	for i := range rows {
		rows[i] = []any{"v", "v"}
	}
	rows[0][0] = nil
	rows[1][0] = nil
	rows[2][0] = nil
	rows[0][1] = nil
	rows[1][1] = nil

	table := &Table{
		Columns: []Column{{Name: "mostly", Type: typeText}, {Name: "fine", Type: typeText}},
		Rows:    rows,
	}

	anomalies := DetectAnomalies(table, "t")
	if len(anomalies) != 1 {
		t.Fatalf("anomalies = %+v", anomalies)
	}
	if anomalies[0].Severity != "medium" || !strings.Contains(anomalies[0].Message, "mostly") {
		t.Errorf("anomaly = %+v", anomalies[0])
	}
}

func TestDetectAnomaliesOutliers(t *testing.T) {
	t.Parallel()

	table := &Table{
		Columns: []Column{{Name: "amount", Type: typeInteger}},
		Rows: [][]any{
			{int64(10)}, {int64(11)}, {int64(12)}, {int64(13)},
			{int64(12)}, {int64(11)}, {int64(10)}, {int64(1000)},
		},
	}

	anomalies := DetectAnomalies(table, "sales")
	if len(anomalies) != 1 {
		t.Fatalf("anomalies = %+v", anomalies)
	}
	a := anomalies[0]
	if a.Type != "outlier" || a.Severity != "medium" {
		t.Errorf("anomaly = %+v", a)
	}
	if !strings.Contains(a.Message, "1 outlier") {
		t.Errorf("message = %q", a.Message)
	}
}

func TestDetectAnomaliesSkipsSmallAndConstantColumns(t *testing.T) {
	t.Parallel()

	table := &Table{
		Columns: []Column{{Name: "tiny", Type: typeInteger}, {Name: "flat", Type: typeInteger}},
		Rows: [][]any{
			{int64(1), int64(5)},
			{int64(2), int64(5)},
			{int64(900), int64(5)},
			{nil, int64(5)},
			{nil, int64(7)},
		},
	}

	// "tiny" has only 3 numeric values and "flat" has a zero IQR, so
	// neither is scanned for outliers; the 40% missing share of "tiny"
	// is the only finding left.
	anomalies := DetectAnomalies(table, "t")
	if len(anomalies) != 1 || anomalies[0].Type != "missing_data" {
		t.Fatalf("anomalies = %+v", anomalies)
	}
}

func TestDetectAnomaliesDuplicates(t *testing.T) {
	t.Parallel()

	table := &Table{
		Columns: []Column{{Name: "a", Type: typeText}, {Name: "b", Type: typeText}},
		Rows: [][]any{
			{"x", "y"},
			{"x", "y"},
			{"x", "z"},
			{"x", "y"},
		},
	}

	anomalies := DetectAnomalies(table, "orders")
	if len(anomalies) != 1 {
		t.Fatalf("anomalies = %+v", anomalies)
	}
	a := anomalies[0]
	if a.Type != "duplicates" || a.Severity != "low" {
		t.Errorf("anomaly = %+v", a)
	}
	if !strings.Contains(a.Message, "2 duplicate rows") || !strings.Contains(a.Message, "orders") {
		t.Errorf("message = %q", a.Message)
	}
}

func TestDetectAnomaliesEmptyTable(t *testing.T) {
	t.Parallel()

	table := &Table{Columns: []Column{{Name: "a", Type: typeText}}}
	if got := DetectAnomalies(table, "t"); len(got) != 0 {
		t.Errorf("anomalies = %+v", got)
	}
}
