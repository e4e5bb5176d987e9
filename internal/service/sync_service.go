package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"dataviz-sync/internal/database/adapters"
	"dataviz-sync/internal/middleware"
	"dataviz-sync/internal/model"
	"dataviz-sync/internal/repository"
	"dataviz-sync/internal/security"
	"dataviz-sync/internal/utils"
)

var (
	// ErrUnsupportedEngine mirrors the adapter registry error so callers can
	// match it without importing the adapters package.
	ErrUnsupportedEngine = adapters.ErrUnsupportedEngine

	// ErrTableNotFound is returned when a single-table sync names a table the
	// source engine does not have.
	ErrTableNotFound = errors.New("table not found on source")
)

// AdapterOpener opens a live adapter for a target's engine. Satisfied by the
// adapter registry.
type AdapterOpener interface {
	Open(target adapters.Target, timeouts adapters.Timeouts) (adapters.Adapter, error)
}

// SyncLimits caps how much of a source one sync pass will materialize
type SyncLimits struct {
	MaxTables int
	MaxRows   int
}

// WithDefaults fills unset limits
func (l SyncLimits) WithDefaults() SyncLimits {
	if l.MaxTables <= 0 {
		l.MaxTables = 5
	}
	if l.MaxRows <= 0 {
		l.MaxRows = 10000
	}
	return l
}

// SyncedDataset reports one dataset materialized by a sync pass
type SyncedDataset struct {
	DatasetID string `json:"dataset_id"`
	Name      string `json:"name"`
	Table     string `json:"table"`
	RowCount  int    `json:"row_count"`
}

// SyncResult is the outcome of one sync pass over one connection
type SyncResult struct {
	Status          string          `json:"status"`
	DatasetsCreated int             `json:"datasets_created"`
	Datasets        []SyncedDataset `json:"datasets"`
}

type SyncService interface {
	// TestConnection probes the source and records the outcome on the record
	TestConnection(ctx context.Context, id string) (string, error)

	// ListTables enumerates the tables/collections visible on the source
	ListTables(ctx context.Context, id string) ([]string, error)

	// SyncConnection materializes datasets from the source. A non-empty
	// tableName restricts the pass to that one table; replacePrior drops the
	// connection's existing datasets before writing new ones.
	SyncConnection(ctx context.Context, id string, tableName string, replacePrior bool) (*SyncResult, error)
}

type syncService struct {
	repo     repository.ConnectionRepository
	datasets repository.DatasetRepository
	secrets  security.SecretStore
	registry AdapterOpener
	timeouts adapters.Timeouts
	limits   SyncLimits
}

// NewSyncService creates a new instance of SyncService
func NewSyncService(
	repo repository.ConnectionRepository,
	datasets repository.DatasetRepository,
	secrets security.SecretStore,
	registry AdapterOpener,
	timeouts adapters.Timeouts,
	limits SyncLimits,
) SyncService {
	return &syncService{
		repo:     repo,
		datasets: datasets,
		secrets:  secrets,
		registry: registry,
		timeouts: timeouts.WithDefaults(),
		limits:   limits.WithDefaults(),
	}
}

// target assembles the adapter target, resolving the secret from the store
func (s *syncService) target(conn *model.Connection) adapters.Target {
	password, _ := s.secrets.Get(conn.ID)
	return adapters.Target{
		Engine:   conn.Engine,
		Host:     conn.Host,
		Port:     conn.Port,
		Database: conn.Database,
		Username: conn.Username,
		Password: password,
	}
}

func (s *syncService) TestConnection(ctx context.Context, id string) (string, error) {
	conn, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}

	adapter, err := s.registry.Open(s.target(conn), s.timeouts)
	if err != nil {
		s.recordTest(ctx, conn, model.ConnectionStatusError, err.Error())
		middleware.RecordConnectionTest(string(conn.Engine), "error")
		return "", err
	}
	defer adapter.Close()

	message, err := adapter.Ping(ctx)
	if err != nil {
		s.recordTest(ctx, conn, model.ConnectionStatusError, err.Error())
		middleware.RecordConnectionTest(string(conn.Engine), "error")
		return "", err
	}

	s.recordTest(ctx, conn, model.ConnectionStatusConnected, message)
	middleware.RecordConnectionTest(string(conn.Engine), "success")
	return message, nil
}

func (s *syncService) ListTables(ctx context.Context, id string) ([]string, error) {
	conn, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	adapter, err := s.registry.Open(s.target(conn), s.timeouts)
	if err != nil {
		return nil, err
	}
	defer adapter.Close()

	return adapter.ListTables(ctx)
}

func (s *syncService) SyncConnection(ctx context.Context, id string, tableName string, replacePrior bool) (*SyncResult, error) {
	conn, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := s.syncOnce(ctx, conn, tableName, replacePrior)
	if err != nil {
		s.setError(ctx, conn, err)
		middleware.RecordSync(string(conn.Engine), "error", time.Since(start))
		return nil, err
	}

	if err := s.repo.SetSynced(ctx, conn.ID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to mark connection synced: %w", err)
	}

	middleware.RecordSync(string(conn.Engine), "success", time.Since(start))
	for _, ds := range result.Datasets {
		middleware.RecordRowsMaterialized(string(conn.Engine), ds.RowCount)
	}

	log.Printf("sync: connection %s materialized %d dataset(s)", conn.ID, result.DatasetsCreated)
	return result, nil
}

func (s *syncService) syncOnce(ctx context.Context, conn *model.Connection, tableName string, replacePrior bool) (*SyncResult, error) {
	adapter, err := s.registry.Open(s.target(conn), s.timeouts)
	if err != nil {
		return nil, err
	}
	defer adapter.Close()

	tables, err := adapter.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	if tableName != "" {
		found := false
		for _, t := range tables {
			if t == tableName {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrTableNotFound, tableName)
		}
		tables = []string{tableName}
	}

	if len(tables) > s.limits.MaxTables {
		tables = tables[:s.limits.MaxTables]
	}

	if replacePrior {
		if err := s.datasets.DeleteBySource(ctx, conn.ID); err != nil {
			return nil, fmt.Errorf("failed to drop prior datasets: %w", err)
		}
	}

	result := &SyncResult{
		Status:   "success",
		Datasets: make([]SyncedDataset, 0, len(tables)),
	}

	for _, table := range tables {
		synced, err := s.syncTable(ctx, conn, adapter, table)
		if err != nil {
			return nil, err
		}
		if synced == nil {
			continue
		}
		result.Datasets = append(result.Datasets, *synced)
	}

	result.DatasetsCreated = len(result.Datasets)
	return result, nil
}

// syncTable materializes one table into one dataset. The dataset is written
// all-or-nothing: a failed row insert removes the partial dataset.
func (s *syncService) syncTable(ctx context.Context, conn *model.Connection, adapter adapters.Adapter, table string) (*SyncedDataset, error) {
	columns, err := adapter.FetchSchema(ctx, table)
	if err != nil {
		return nil, err
	}

	rows, err := adapter.FetchRows(ctx, table, s.limits.MaxRows)
	if err != nil {
		return nil, err
	}

	// Empty tables produce no dataset
	if len(rows) == 0 {
		return nil, nil
	}

	dataset := &model.Dataset{
		Name:         fmt.Sprintf("%s - %s", conn.Name, table),
		SourceID:     conn.ID,
		SourceEngine: conn.Engine,
		OrgID:        conn.OrgID,
		RowCount:     len(rows),
		Columns:      columns,
	}
	if err := s.datasets.CreateDataset(ctx, dataset); err != nil {
		return nil, fmt.Errorf("failed to create dataset for %s: %w", table, err)
	}

	records := make([]*model.RowRecord, 0, len(rows))
	for _, fields := range rows {
		records = append(records, &model.RowRecord{
			ID:        uuid.New().String(),
			DatasetID: dataset.ID,
			Fields:    fields,
		})
	}

	if err := s.datasets.InsertRows(ctx, records); err != nil {
		if delErr := s.datasets.DeleteDataset(ctx, dataset.ID); delErr != nil {
			log.Printf("sync: failed to roll back dataset %s: %v", dataset.ID, delErr)
		}
		return nil, fmt.Errorf("failed to store rows for %s: %w", table, err)
	}

	return &SyncedDataset{
		DatasetID: dataset.ID,
		Name:      dataset.Name,
		Table:     table,
		RowCount:  len(rows),
	}, nil
}

func (s *syncService) load(ctx context.Context, id string) (*model.Connection, error) {
	if !utils.IsValidUUID(id) {
		return nil, repository.ErrInvalidUUID
	}
	return s.repo.GetByID(ctx, id)
}

func (s *syncService) recordTest(ctx context.Context, conn *model.Connection, status model.ConnectionStatus, message string) {
	if err := s.repo.SetTested(ctx, conn.ID, status, message, time.Now().UTC()); err != nil {
		log.Printf("sync: failed to record test outcome for %s: %v", conn.ID, err)
	}
}

func (s *syncService) setError(ctx context.Context, conn *model.Connection, cause error) {
	if err := s.repo.SetStatus(ctx, conn.ID, model.ConnectionStatusError, cause.Error()); err != nil {
		log.Printf("sync: failed to record error status for %s: %v", conn.ID, err)
	}
}
