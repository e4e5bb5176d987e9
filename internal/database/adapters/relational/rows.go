package relational

import (
	"database/sql"
	"strings"

	"dataviz-sync/internal/database/adapters"
)

// scanRows materializes a result set into normalized row maps. Column values
// land as interface{} via the driver (typically []byte or time.Time) and are
// normalized to transport-safe primitives.
func scanRows(rows *sql.Rows) ([]map[string]interface{}, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]map[string]interface{}, 0)
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		record := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			record[col] = adapters.NormalizeValue(values[i])
		}
		out = append(out, record)
	}

	return out, rows.Err()
}

// quoteIdent quotes a table identifier with the given quote rune, doubling
// any embedded quote characters. Table names reach us from the external
// engine's own catalog or from a caller-specified filter, so they cannot be
// bound as query parameters.
func quoteIdent(name, quote string) string {
	return quote + strings.ReplaceAll(name, quote, quote+quote) + quote
}
