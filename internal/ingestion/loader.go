package ingestion

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/official-eswaran/DataWhisper/internal/dataset"
)

// Load creates (or replaces) tableName in the session dataset and bulk
// inserts every row inside one transaction.
func Load(ctx context.Context, eng *dataset.SQLiteEngine, tableName string, t *Table) error {
	quoted := dataset.QuoteIdentifier(tableName)

	if err := eng.Exec(ctx, "DROP TABLE IF EXISTS "+quoted); err != nil {
		return fmt.Errorf("drop existing table: %w", err)
	}

	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = dataset.QuoteIdentifier(c.Name) + " " + c.Type
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoted, strings.Join(defs, ", "))
	if err := eng.Exec(ctx, create); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoted, placeholders)

	return eng.Tx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, row := range t.Rows {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return fmt.Errorf("insert row: %w", err)
			}
		}
		return nil
	})
}
