package service

import (
	"context"
	"fmt"

	"dataviz-sync/internal/model"
	"dataviz-sync/internal/repository"
	"dataviz-sync/internal/security"
	"dataviz-sync/internal/utils"
)

// TriggerRemover detaches any live sync trigger for a connection. Satisfied by
// the scheduler so connection deletion can tear triggers down without the
// connection service owning the cron runner.
type TriggerRemover interface {
	Remove(connectionID string)
}

type ConnectionService interface {
	CreateConnection(ctx context.Context, req *CreateConnectionRequest) (*model.Connection, error)
	GetConnection(ctx context.Context, id string) (*model.Connection, error)
	ListConnections(ctx context.Context, req *ListConnectionsRequest) (*ListConnectionsResponse, error)
	DeleteConnection(ctx context.Context, id string) error
}

type connectionService struct {
	repo     repository.ConnectionRepository
	datasets repository.DatasetRepository
	secrets  security.SecretStore
	triggers TriggerRemover
}

type CreateConnectionRequest struct {
	Name     string           `json:"name" validate:"required,min=1,max=255"`
	Engine   model.EngineKind `json:"db_type" validate:"required"`
	Host     string           `json:"host" validate:"required"`
	Port     int              `json:"port" validate:"required,min=1,max=65535"`
	Database string           `json:"database" validate:"required"`
	Username string           `json:"username"`
	Password string           `json:"password"`
	OrgID    string           `json:"org_id"`
}

type ListConnectionsRequest struct {
	OrgID  string `json:"org_id,omitempty"`
	Limit  int    `json:"limit,omitempty" validate:"omitempty,min=1,max=200"`
	Offset int    `json:"offset,omitempty" validate:"omitempty,min=0"`
}

type ListConnectionsResponse struct {
	Connections []*model.Connection `json:"connections"`
	Total       int64               `json:"total"`
	Limit       int                 `json:"limit"`
	Offset      int                 `json:"offset"`
}

// NewConnectionService creates a new instance of ConnectionService
func NewConnectionService(
	repo repository.ConnectionRepository,
	datasets repository.DatasetRepository,
	secrets security.SecretStore,
	triggers TriggerRemover,
) ConnectionService {
	return &connectionService{
		repo:     repo,
		datasets: datasets,
		secrets:  secrets,
		triggers: triggers,
	}
}

func (s *connectionService) CreateConnection(ctx context.Context, req *CreateConnectionRequest) (*model.Connection, error) {
	if !req.Engine.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEngine, req.Engine)
	}

	conn := &model.Connection{
		Name:      req.Name,
		Engine:    req.Engine,
		Host:      req.Host,
		Port:      req.Port,
		Database:  req.Database,
		Username:  req.Username,
		OrgID:     req.OrgID,
		Status:    model.ConnectionStatusPending,
		HasSecret: req.Password != "",
	}

	if err := s.repo.Create(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	// The record carries only has_secret; the plaintext goes to the store
	if req.Password != "" {
		if err := s.secrets.Put(conn.ID, req.Password); err != nil {
			return nil, fmt.Errorf("failed to store credential: %w", err)
		}
	}

	return conn, nil
}

func (s *connectionService) GetConnection(ctx context.Context, id string) (*model.Connection, error) {
	if !utils.IsValidUUID(id) {
		return nil, repository.ErrInvalidUUID
	}

	conn, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return conn, nil
}

func (s *connectionService) ListConnections(ctx context.Context, req *ListConnectionsRequest) (*ListConnectionsResponse, error) {
	if req.Limit == 0 {
		req.Limit = 50
	}
	if req.Limit > 200 {
		req.Limit = 200
	}

	connections, total, err := s.repo.GetAll(ctx, req.OrgID, req.Limit, req.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}

	return &ListConnectionsResponse{
		Connections: connections,
		Total:       total,
		Limit:       req.Limit,
		Offset:      req.Offset,
	}, nil
}

func (s *connectionService) DeleteConnection(ctx context.Context, id string) error {
	if !utils.IsValidUUID(id) {
		return repository.ErrInvalidUUID
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	// Tear down the live trigger before the record goes away
	if s.triggers != nil {
		s.triggers.Remove(id)
	}

	// Materialized datasets hang off the connection and go with it
	if err := s.datasets.DeleteBySource(ctx, id); err != nil {
		return fmt.Errorf("failed to drop datasets: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	s.secrets.Delete(id)

	return nil
}
