package nlsql

import (
	"fmt"

	"github.com/official-eswaran/DataWhisper/internal/domain"
)

// Shape classifies a result set and produces its one-line summary.
// Pure function of (row count, column count); never fails.
func Shape(rs *domain.ResultSet) (domain.ResultShape, string) {
	rows, cols := rs.RowCount(), rs.ColumnCount()

	shape := domain.ShapeTable
	switch {
	case rows == 1 && cols == 1:
		shape = domain.ShapeSingleValue
	case cols == 2 && rows > 2:
		shape = domain.ShapeChart
	}

	switch {
	case rows == 0:
		return shape, "No results found for your query."
	case shape == domain.ShapeSingleValue:
		return shape, fmt.Sprintf("The answer is: %v", singleValue(rs))
	default:
		return shape, fmt.Sprintf("Found %d rows across %d columns.", rows, cols)
	}
}

func singleValue(rs *domain.ResultSet) any {
	v := rs.Rows[0][rs.Columns[0]]
	if v == nil {
		return "NULL"
	}
	return v
}
