package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"dataviz-sync/internal/model"
)

type connectionRepository struct {
	db *gorm.DB
}

// NewConnectionRepository creates a new instance of ConnectionRepository
func NewConnectionRepository(db *gorm.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

// Create a new connection record
func (r *connectionRepository) Create(ctx context.Context, conn *model.Connection) error {
	return r.db.WithContext(ctx).Create(conn).Error
}

// GetByID retrieves a connection by its UUID
func (r *connectionRepository) GetByID(ctx context.Context, id string) (*model.Connection, error) {
	var conn model.Connection
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&conn)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, result.Error
	}
	return &conn, nil
}

// GetAll retrieves all connections, optionally scoped to one org
func (r *connectionRepository) GetAll(ctx context.Context, orgID string, limit, offset int) ([]*model.Connection, int64, error) {
	var conns []*model.Connection
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Connection{})
	if orgID != "" {
		query = query.Where("org_id = ?", orgID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := query.Limit(limit).Offset(offset).Order("created_at DESC").Find(&conns)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return conns, total, nil
}

// Delete removes a connection record
func (r *connectionRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Connection{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConnectionNotFound
	}
	return nil
}

// SetStatus sets the connection status and status message
func (r *connectionRepository) SetStatus(ctx context.Context, id string, status model.ConnectionStatus, message string) error {
	return r.db.WithContext(ctx).Model(&model.Connection{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":         status,
		"status_message": message,
	}).Error
}

// SetTested records the outcome of a connection test
func (r *connectionRepository) SetTested(ctx context.Context, id string, status model.ConnectionStatus, message string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Connection{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":         status,
		"status_message": message,
		"last_tested_at": at,
	}).Error
}

// SetSynced marks a connection as synced at the given time
func (r *connectionRepository) SetSynced(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Connection{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":         model.ConnectionStatusSynced,
		"status_message": "",
		"last_sync_at":   at,
	}).Error
}

// SetSchedule persists the schedule descriptor (nil clears it)
func (r *connectionRepository) SetSchedule(ctx context.Context, id string, schedule *model.Schedule) error {
	return r.db.WithContext(ctx).Model(&model.Connection{}).Where("id = ?", id).Update("schedule", schedule).Error
}

// ListScheduled retrieves all connections with an enabled persisted schedule
func (r *connectionRepository) ListScheduled(ctx context.Context) ([]*model.Connection, error) {
	var conns []*model.Connection
	result := r.db.WithContext(ctx).
		Where("schedule IS NOT NULL").
		Find(&conns)
	if result.Error != nil {
		return nil, result.Error
	}

	// Enabled is part of the JSON descriptor; filter after scan to stay
	// portable across MySQL JSON predicate dialects.
	enabled := conns[:0]
	for _, c := range conns {
		if c.Schedule != nil && c.Schedule.Enabled {
			enabled = append(enabled, c)
		}
	}
	return enabled, nil
}
