package relational

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/lib/pq"

	"dataviz-sync/internal/database/adapters"
	"dataviz-sync/internal/model"
)

// PostgresAdapter implements the Adapter contract for PostgreSQL
type PostgresAdapter struct {
	db       *sql.DB
	timeouts adapters.Timeouts
}

// NewPostgresAdapter opens a PostgreSQL adapter for the given target
func NewPostgresAdapter(target adapters.Target, timeouts adapters.Timeouts) (*PostgresAdapter, error) {
	timeouts = timeouts.WithDefaults()
	db, err := sql.Open("postgres", buildPostgresDSN(target, timeouts))
	if err != nil {
		return nil, &adapters.ConnectionError{Engine: model.EnginePostgreSQL, Op: "open", Err: err}
	}
	db.SetMaxOpenConns(1)
	return &PostgresAdapter{db: db, timeouts: timeouts}, nil
}

func buildPostgresDSN(target adapters.Target, timeouts adapters.Timeouts) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", target.Host, target.Port),
		Path:   "/" + target.Database,
	}
	if target.Username != "" {
		u.User = url.UserPassword(target.Username, target.Password)
	}

	q := u.Query()
	q.Set("sslmode", "disable")
	q.Set("connect_timeout", fmt.Sprintf("%d", int(timeouts.Connect.Seconds())))
	u.RawQuery = q.Encode()

	return u.String()
}

// Ping runs a version query against the server
func (a *PostgresAdapter) Ping(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeouts.Connect)
	defer cancel()

	var version string
	if err := a.db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", &adapters.ConnectionError{Engine: model.EnginePostgreSQL, Op: "ping", Err: err}
	}
	if len(version) > 50 {
		version = version[:50] + "..."
	}
	return fmt.Sprintf("PostgreSQL connection successful: %s", version), nil
}

// ListTables enumerates base tables in the public schema
func (a *PostgresAdapter) ListTables(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeouts.Query)
	defer cancel()

	rows, err := a.db.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'`)
	if err != nil {
		return nil, &adapters.ConnectionError{Engine: model.EnginePostgreSQL, Op: "list tables", Err: err}
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &adapters.ProtocolError{Engine: model.EnginePostgreSQL, Op: "list tables", Err: err}
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, &adapters.ProtocolError{Engine: model.EnginePostgreSQL, Op: "list tables", Err: err}
	}
	return tables, nil
}

// FetchSchema reads column identities and types from the catalog
func (a *PostgresAdapter) FetchSchema(ctx context.Context, table string) ([]model.Column, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeouts.Query)
	defer cancel()

	rows, err := a.db.QueryContext(ctx, `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_name = $1 AND table_schema = 'public'
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, &adapters.ConnectionError{Engine: model.EnginePostgreSQL, Op: "fetch schema", Err: err}
	}
	defer rows.Close()

	var columns []model.Column
	for rows.Next() {
		var col model.Column
		if err := rows.Scan(&col.Name, &col.Type); err != nil {
			return nil, &adapters.ProtocolError{Engine: model.EnginePostgreSQL, Op: "fetch schema", Err: err}
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, &adapters.ProtocolError{Engine: model.EnginePostgreSQL, Op: "fetch schema", Err: err}
	}
	return columns, nil
}

// FetchRows bulk-fetches up to limit rows from one table
func (a *PostgresAdapter) FetchRows(ctx context.Context, table string, limit int) ([]map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeouts.Query)
	defer cancel()

	query := fmt.Sprintf(`SELECT * FROM %s LIMIT %d`, quoteIdent(table, `"`), limit)
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &adapters.ConnectionError{Engine: model.EnginePostgreSQL, Op: "fetch rows", Err: err}
	}
	defer rows.Close()

	records, err := scanRows(rows)
	if err != nil {
		return nil, &adapters.ProtocolError{Engine: model.EnginePostgreSQL, Op: "fetch rows", Err: err}
	}
	return records, nil
}

// Close releases the underlying connection
func (a *PostgresAdapter) Close() error {
	return a.db.Close()
}
