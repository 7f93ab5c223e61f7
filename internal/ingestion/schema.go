// Package ingestion parses uploaded data files, cleans up their schema,
// and loads them into a session's dataset database.
package ingestion

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Column is a cleaned column with its inferred SQL type.
type Column struct {
	Name string
	Type string
}

// Table is a parsed, typed dataset ready for loading.
type Table struct {
	Columns []Column
	Rows    [][]any
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int { return len(t.Rows) }

// columnAliases expands common column-name abbreviations so generated SQL
// reads naturally.
var columnAliases = map[string]string{
	"emp_nm": "employee_name",
	"emp":    "employee",
	"amt":    "amount",
	"qty":    "quantity",
	"dt":     "date",
	"dob":    "date_of_birth",
	"sal":    "salary",
	"dept":   "department",
	"addr":   "address",
	"ph":     "phone",
	"mob":    "mobile",
	"no":     "number",
	"num":    "number",
	"desc":   "description",
	"yr":     "year",
	"mon":    "month",
}

var (
	nonIdentRe    = regexp.MustCompile(`[^a-z0-9_]`)
	multiUscoreRe = regexp.MustCompile(`_+`)
)

// CleanColumnName normalizes a messy header to a SQL-safe identifier and
// expands known abbreviations.
func CleanColumnName(col string) string {
	c := strings.ToLower(strings.TrimSpace(col))
	c = nonIdentRe.ReplaceAllString(c, "_")
	c = strings.Trim(multiUscoreRe.ReplaceAllString(c, "_"), "_")

	parts := strings.Split(c, "_")
	for i, p := range parts {
		if full, ok := columnAliases[p]; ok {
			parts[i] = full
		}
	}
	c = strings.Join(parts, "_")
	if c == "" {
		return "column"
	}
	if c[0] >= '0' && c[0] <= '9' {
		c = "c_" + c
	}
	return c
}

// TableNameFromFilename builds a safe SQL identifier from an uploaded
// filename's stem.
func TableNameFromFilename(filename string) string {
	stem := filename
	if idx := strings.LastIndex(stem, "/"); idx >= 0 {
		stem = stem[idx+1:]
	}
	if idx := strings.LastIndex(stem, "."); idx > 0 {
		stem = stem[:idx]
	}
	name := strings.ToLower(stem)
	name = nonIdentRe.ReplaceAllString(name, "_")
	name = strings.Trim(multiUscoreRe.ReplaceAllString(name, "_"), "_")
	if name == "" {
		return "t_data"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "t_" + name
	}
	return name
}

// SQL types assigned by inference.
const (
	typeInteger = "INTEGER"
	typeReal    = "REAL"
	typeText    = "TEXT"
	// Dates are stored as ISO text; SQLite has no native date type.
	typeTimestamp = "TIMESTAMP"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"02-Jan-2006",
}

// inferType picks the narrowest SQL type that fits every non-empty value.
func inferType(values []string) string {
	sawValue := false
	isInt, isReal, isDate := true, true, true

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		sawValue = true
		clean := strings.ReplaceAll(v, ",", "")
		if isInt {
			if _, err := strconv.ParseInt(clean, 10, 64); err != nil {
				isInt = false
			}
		}
		if isReal {
			if _, err := strconv.ParseFloat(clean, 64); err != nil {
				isReal = false
			}
		}
		if isDate && !parseableDate(v) {
			isDate = false
		}
		if !isInt && !isReal && !isDate {
			return typeText
		}
	}
	if !sawValue {
		return typeText
	}
	switch {
	case isInt:
		return typeInteger
	case isReal:
		return typeReal
	case isDate:
		return typeTimestamp
	default:
		return typeText
	}
}

func parseableDate(v string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

// convertValue coerces a raw cell to the column's inferred type. Empty
// cells become NULL.
func convertValue(raw, sqlType string) any {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	clean := strings.ReplaceAll(v, ",", "")
	switch sqlType {
	case typeInteger:
		if n, err := strconv.ParseInt(clean, 10, 64); err == nil {
			return n
		}
	case typeReal:
		if f, err := strconv.ParseFloat(clean, 64); err == nil {
			return f
		}
	}
	return v
}
