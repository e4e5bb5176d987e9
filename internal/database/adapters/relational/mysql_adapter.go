package relational

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"dataviz-sync/internal/database/adapters"
	"dataviz-sync/internal/model"
)

// MySQLAdapter implements the Adapter contract for MySQL
type MySQLAdapter struct {
	db       *sql.DB
	timeouts adapters.Timeouts
}

// NewMySQLAdapter opens a MySQL adapter for the given target. The connection
// is lazy; the first call that touches the network observes dial failures.
func NewMySQLAdapter(target adapters.Target, timeouts adapters.Timeouts) (*MySQLAdapter, error) {
	db, err := sql.Open("mysql", buildMySQLDSN(target))
	if err != nil {
		return nil, &adapters.ConnectionError{Engine: model.EngineMySQL, Op: "open", Err: err}
	}
	db.SetMaxOpenConns(1)
	return &MySQLAdapter{db: db, timeouts: timeouts.WithDefaults()}, nil
}

func buildMySQLDSN(target adapters.Target) string {
	username := target.Username
	if username == "" {
		username = "root"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		username,
		target.Password,
		target.Host,
		target.Port,
		target.Database,
	)
}

// Ping runs a version query against the server
func (a *MySQLAdapter) Ping(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeouts.Connect)
	defer cancel()

	var version string
	if err := a.db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version); err != nil {
		return "", &adapters.ConnectionError{Engine: model.EngineMySQL, Op: "ping", Err: err}
	}
	return fmt.Sprintf("MySQL connection successful: %s", version), nil
}

// ListTables enumerates base tables in the connected database
func (a *MySQLAdapter) ListTables(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeouts.Query)
	defer cancel()

	rows, err := a.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, &adapters.ConnectionError{Engine: model.EngineMySQL, Op: "list tables", Err: err}
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &adapters.ProtocolError{Engine: model.EngineMySQL, Op: "list tables", Err: err}
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, &adapters.ProtocolError{Engine: model.EngineMySQL, Op: "list tables", Err: err}
	}
	return tables, nil
}

// FetchSchema reads column identities and types from the catalog
func (a *MySQLAdapter) FetchSchema(ctx context.Context, table string) ([]model.Column, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeouts.Query)
	defer cancel()

	rows, err := a.db.QueryContext(ctx, `
		SELECT column_name, column_type
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, &adapters.ConnectionError{Engine: model.EngineMySQL, Op: "fetch schema", Err: err}
	}
	defer rows.Close()

	var columns []model.Column
	for rows.Next() {
		var col model.Column
		if err := rows.Scan(&col.Name, &col.Type); err != nil {
			return nil, &adapters.ProtocolError{Engine: model.EngineMySQL, Op: "fetch schema", Err: err}
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, &adapters.ProtocolError{Engine: model.EngineMySQL, Op: "fetch schema", Err: err}
	}
	return columns, nil
}

// FetchRows bulk-fetches up to limit rows from one table
func (a *MySQLAdapter) FetchRows(ctx context.Context, table string, limit int) ([]map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeouts.Query)
	defer cancel()

	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(table, "`"), limit)
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &adapters.ConnectionError{Engine: model.EngineMySQL, Op: "fetch rows", Err: err}
	}
	defer rows.Close()

	records, err := scanRows(rows)
	if err != nil {
		return nil, &adapters.ProtocolError{Engine: model.EngineMySQL, Op: "fetch rows", Err: err}
	}
	return records, nil
}

// Close releases the underlying connection
func (a *MySQLAdapter) Close() error {
	return a.db.Close()
}
