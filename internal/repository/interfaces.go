package repository

import (
	"context"
	"time"

	"dataviz-sync/internal/model"
)

// ConnectionRepository defines the interface for connection registry operations.
// The registry is the system of record: every mutation is a single field-set
// operation keyed by connection id.
type ConnectionRepository interface {
	// Create a new connection record
	Create(ctx context.Context, conn *model.Connection) error

	// GetByID retrieves a connection by its UUID
	GetByID(ctx context.Context, id string) (*model.Connection, error)

	// GetAll retrieves all connections, optionally scoped to one org
	GetAll(ctx context.Context, orgID string, limit, offset int) ([]*model.Connection, int64, error)

	// Delete removes a connection record
	Delete(ctx context.Context, id string) error

	// SetStatus sets the connection status and status message
	SetStatus(ctx context.Context, id string, status model.ConnectionStatus, message string) error

	// SetTested records the outcome of a connection test
	SetTested(ctx context.Context, id string, status model.ConnectionStatus, message string, at time.Time) error

	// SetSynced marks a connection as synced at the given time
	SetSynced(ctx context.Context, id string, at time.Time) error

	// SetSchedule persists the schedule descriptor (nil clears it)
	SetSchedule(ctx context.Context, id string, schedule *model.Schedule) error

	// ListScheduled retrieves all connections with an enabled persisted schedule
	ListScheduled(ctx context.Context) ([]*model.Connection, error)
}

// DatasetRepository defines the interface for materialized dataset storage
type DatasetRepository interface {
	// CreateDataset stores a new dataset record
	CreateDataset(ctx context.Context, dataset *model.Dataset) error

	// InsertRows bulk-inserts row records
	InsertRows(ctx context.Context, rows []*model.RowRecord) error

	// DeleteDataset removes one dataset and its row records
	DeleteDataset(ctx context.Context, id string) error

	// DeleteBySource removes all datasets (and their rows) produced by a connection
	DeleteBySource(ctx context.Context, sourceID string) error

	// GetDataset retrieves a dataset by id
	GetDataset(ctx context.Context, id string) (*model.Dataset, error)

	// ListDatasets retrieves datasets, optionally filtered by source connection
	ListDatasets(ctx context.Context, sourceID string, limit, offset int) ([]*model.Dataset, int64, error)

	// GetRows retrieves a page of row records for one dataset
	GetRows(ctx context.Context, datasetID string, limit, offset int) ([]*model.RowRecord, int64, error)
}
