package ingestion

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"
)

// AllowedExtensions lists the upload formats the parser understands.
var AllowedExtensions = map[string]bool{
	".csv":  true,
	".tsv":  true,
	".json": true,
}

// SniffText reports whether the first bytes of an upload look like a text
// file. Declared text formats with binary content are rejected before
// parsing.
func SniffText(header []byte) bool {
	if len(header) == 0 {
		return false
	}
	if !utf8.Valid(header) {
		// The slice may end mid-rune; tolerate a trailing partial rune.
		trimmed := header
		for len(trimmed) > 0 && !utf8.Valid(trimmed) {
			trimmed = trimmed[:len(trimmed)-1]
		}
		if len(header)-len(trimmed) >= utf8.UTFMax {
			return false
		}
	}
	for _, b := range header {
		if b == 0 {
			return false
		}
	}
	return true
}

// Parse reads an upload into a cleaned, typed Table.
func Parse(r io.Reader, ext string) (*Table, error) {
	switch strings.ToLower(ext) {
	case ".csv":
		return parseDelimited(r, ',')
	case ".tsv":
		return parseDelimited(r, '\t')
	case ".json":
		return parseJSON(r)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
}

func parseDelimited(r io.Reader, delim rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse delimited file: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("file has no header row")
	}

	header := records[0]
	raw := records[1:]
	return buildTable(header, raw)
}

func parseJSON(r io.Reader) (*Table, error) {
	var objects []map[string]any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&objects); err != nil {
		return nil, fmt.Errorf("parse JSON file: expected an array of objects: %w", err)
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("JSON file contains no records")
	}

	// Column order is not recoverable from JSON objects; sort for
	// determinism.
	keySet := map[string]bool{}
	for _, obj := range objects {
		for k := range obj {
			keySet[k] = true
		}
	}
	header := make([]string, 0, len(keySet))
	for k := range keySet {
		header = append(header, k)
	}
	sort.Strings(header)

	raw := make([][]string, len(objects))
	for i, obj := range objects {
		row := make([]string, len(header))
		for j, k := range header {
			row[j] = stringifyJSONValue(obj[k])
		}
		raw[i] = row
	}
	return buildTable(header, raw)
}

func stringifyJSONValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

// buildTable cleans headers, dedupes collisions, infers types, and
// converts every cell.
func buildTable(header []string, raw [][]string) (*Table, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("file has no columns")
	}

	names := make([]string, len(header))
	seen := map[string]int{}
	for i, h := range header {
		name := CleanColumnName(h)
		if n := seen[name]; n > 0 {
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		seen[CleanColumnName(h)]++
		names[i] = name
	}

	cols := make([]Column, len(names))
	for i, name := range names {
		values := make([]string, 0, len(raw))
		for _, row := range raw {
			if i < len(row) {
				values = append(values, row[i])
			}
		}
		cols[i] = Column{Name: name, Type: inferType(values)}
	}

	rows := make([][]any, len(raw))
	for ri, row := range raw {
		typed := make([]any, len(cols))
		for ci := range cols {
			if ci < len(row) {
				typed[ci] = convertValue(row[ci], cols[ci].Type)
			}
		}
		rows[ri] = typed
	}

	return &Table{Columns: cols, Rows: rows}, nil
}
