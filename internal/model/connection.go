package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EngineKind string

const (
	EngineMongoDB    EngineKind = "mongodb"
	EnginePostgreSQL EngineKind = "postgresql"
	EngineMySQL      EngineKind = "mysql"
)

// Valid reports whether the engine kind is one of the supported engines.
func (k EngineKind) Valid() bool {
	switch k {
	case EngineMongoDB, EnginePostgreSQL, EngineMySQL:
		return true
	}
	return false
}

type ConnectionStatus string

const (
	ConnectionStatusPending   ConnectionStatus = "pending"
	ConnectionStatusConnected ConnectionStatus = "connected"
	ConnectionStatusSynced    ConnectionStatus = "synced"
	ConnectionStatusError     ConnectionStatus = "error"
)

// Connection represents one registered external data source.
// The secret credential is never persisted here; only HasSecret is, and the
// plaintext lives exclusively in the secret store keyed by connection id.
type Connection struct {
	ID            string           `gorm:"type:char(36);primaryKey" json:"id"`
	Name          string           `gorm:"size:255;not null" json:"name"`
	Engine        EngineKind       `gorm:"type:enum('mongodb','postgresql','mysql');not null" json:"db_type"`
	Host          string           `gorm:"size:255;not null" json:"host"`
	Port          int              `gorm:"not null" json:"port"`
	Database      string           `gorm:"size:255;not null" json:"database"`
	Username      string           `gorm:"size:255" json:"username,omitempty"`
	OrgID         string           `gorm:"type:char(36);index" json:"org_id,omitempty"`
	Status        ConnectionStatus `gorm:"type:enum('pending','connected','synced','error');default:'pending'" json:"status"`
	StatusMessage string           `gorm:"type:text" json:"status_message,omitempty"`
	HasSecret     bool             `json:"has_secret"`
	LastTestedAt  *time.Time       `json:"last_tested,omitempty"`
	LastSyncAt    *time.Time       `json:"last_sync,omitempty"`
	Schedule      *Schedule        `gorm:"type:json" json:"schedule"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// TableName returns the table name for the Connection model
func (Connection) TableName() string {
	return "database_connections"
}

// BeforeCreate generates a new UUID if ID is empty
func (c *Connection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
