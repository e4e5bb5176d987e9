package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dataviz-sync/internal/model"
)

// ErrUnsupportedEngine is returned when a connection names an engine kind no
// adapter is registered for.
var ErrUnsupportedEngine = errors.New("unsupported engine kind")

// Adapter is the uniform contract every engine implements: list tables,
// describe columns, fetch rows. All calls are short-lived network operations
// bounded by the configured timeouts; none of them mutates the external
// engine.
type Adapter interface {
	// Ping opens a short-lived connection and runs a trivial no-op command
	// (ping / version query). Returns a human-readable success message.
	Ping(ctx context.Context) (string, error)

	// ListTables enumerates collections (document store) or base tables in
	// the default schema (relational engines).
	ListTables(ctx context.Context) ([]string, error)

	// FetchSchema derives column identities and best-effort type labels for
	// one table.
	FetchSchema(ctx context.Context, table string) ([]model.Column, error)

	// FetchRows bulk-fetches up to limit rows with all values normalized to
	// transport-safe primitives.
	FetchRows(ctx context.Context, table string, limit int) ([]map[string]interface{}, error)

	// Close releases the underlying connection
	Close() error
}

// Target describes the external engine an adapter connects to. The password
// is resolved from the secret store by the caller; it never comes from the
// durable connection record.
type Target struct {
	Engine   model.EngineKind
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

// Timeouts bounds adapter network operations
type Timeouts struct {
	// Connect bounds dialing and the test ping
	Connect time.Duration
	// Query bounds list/describe/fetch calls
	Query time.Duration
}

// WithDefaults fills unset timeouts
func (t Timeouts) WithDefaults() Timeouts {
	if t.Connect <= 0 {
		t.Connect = 10 * time.Second
	}
	if t.Query <= 0 {
		t.Query = 30 * time.Second
	}
	return t
}

// ConnectionError indicates the external engine could not be reached or
// rejected the credentials. It propagates unchanged to the orchestrator.
type ConnectionError struct {
	Engine model.EngineKind
	Op     string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Engine, e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ProtocolError indicates the external engine replied with something the
// adapter could not interpret.
type ProtocolError struct {
	Engine model.EngineKind
	Op     string
	Err    error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Engine, e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
