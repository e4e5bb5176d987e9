package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Column is one entry in a dataset's ordered column schema. Type is a
// best-effort label: catalog types for relational engines, inferred runtime
// types for the document store.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ColumnList stores the ordered column schema as a JSON column
type ColumnList []Column

// Value implements driver.Valuer interface for GORM
func (cl ColumnList) Value() (driver.Value, error) {
	return json.Marshal(cl)
}

// Scan implements sql.Scanner interface for GORM
func (cl *ColumnList) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ColumnList", value)
	}

	return json.Unmarshal(bytes, cl)
}

// Dataset is one materialized snapshot of one external table/collection,
// pulled from one Connection at one point in time. Its row records are always
// exactly the rows fetched in the most recent sync for that table.
type Dataset struct {
	ID           string     `gorm:"type:char(36);primaryKey" json:"id"`
	Name         string     `gorm:"size:512;not null" json:"name"`
	SourceID     string     `gorm:"type:char(36);index;not null" json:"source_id"`
	SourceEngine EngineKind `gorm:"size:32" json:"source_type"`
	OrgID        string     `gorm:"type:char(36);index" json:"org_id,omitempty"`
	RowCount     int        `json:"row_count"`
	Columns      ColumnList `gorm:"type:json" json:"columns"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TableName returns the table name for the Dataset model
func (Dataset) TableName() string {
	return "datasets"
}

// BeforeCreate generates a new UUID if ID is empty
func (d *Dataset) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// RowFields is the open field set of one materialized row. Column identities
// come from the owning Dataset's schema, not enforced per row.
type RowFields map[string]interface{}

// Value implements driver.Valuer interface for GORM
func (rf RowFields) Value() (driver.Value, error) {
	return json.Marshal(rf)
}

// Scan implements sql.Scanner interface for GORM
func (rf *RowFields) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into RowFields", value)
	}

	return json.Unmarshal(bytes, rf)
}

// RowRecord is one materialized row tagged with its owning dataset id and a
// synthetic per-row id.
type RowRecord struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"_dataset_row_id"`
	DatasetID string    `gorm:"type:char(36);index;not null" json:"dataset_id"`
	Fields    RowFields `gorm:"type:json" json:"fields"`
}

// TableName returns the table name for the RowRecord model
func (RowRecord) TableName() string {
	return "dataset_data"
}

// BeforeCreate generates a new UUID if ID is empty
func (r *RowRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
