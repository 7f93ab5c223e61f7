package nlsql

import (
	"context"
	"fmt"
	"strings"

	"github.com/official-eswaran/DataWhisper/internal/dataset"
	"github.com/official-eswaran/DataWhisper/internal/domain"
)

// sampleRowLimit bounds how many example rows the model sees per table.
const sampleRowLimit = 3

// DescribeSchema renders a compact textual description of every table in
// the session dataset: columns with declared types plus a handful of
// sample rows. Recomputed per turn since uploads may replace the data.
func DescribeSchema(ctx context.Context, eng dataset.Engine) (string, error) {
	tables, err := eng.Tables(ctx)
	if err != nil {
		return "", fmt.Errorf("introspect tables: %w", err)
	}
	if len(tables) == 0 {
		return "", fmt.Errorf("dataset contains no tables")
	}

	var parts []string
	for _, table := range tables {
		cols, err := eng.Columns(ctx, table)
		if err != nil {
			return "", fmt.Errorf("introspect columns of %q: %w", table, err)
		}
		colDescs := make([]string, len(cols))
		for i, c := range cols {
			colDescs[i] = fmt.Sprintf("%s (%s)", c.Name, c.Type)
		}

		sample, err := eng.SampleRows(ctx, table, sampleRowLimit)
		if err != nil {
			return "", fmt.Errorf("sample rows of %q: %w", table, err)
		}

		parts = append(parts, fmt.Sprintf("Table: %s\n  Columns: %s\n  Sample rows:\n%s",
			table, strings.Join(colDescs, ", "), renderSample(sample)))
	}
	return strings.Join(parts, "\n\n"), nil
}

// renderSample renders sample rows as a small pipe-separated block,
// indented to sit under the table heading.
func renderSample(rs *domain.ResultSet) string {
	if rs == nil || len(rs.Rows) == 0 {
		return "  (empty table)"
	}
	var b strings.Builder
	b.WriteString("  " + strings.Join(rs.Columns, " | "))
	for _, row := range rs.Rows {
		cells := make([]string, len(rs.Columns))
		for i, col := range rs.Columns {
			cells[i] = formatCell(row[col])
		}
		b.WriteString("\n  " + strings.Join(cells, " | "))
	}
	return b.String()
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}
