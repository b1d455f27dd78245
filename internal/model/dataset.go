package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// DatasetCatalog is one entry of the government open-data catalog.
// Rows are written only by the ingest worker; the request path reads them.
// Slug is unique and never changes once assigned. SourceAt is the freshness
// timestamp of the data itself, not our ingestion time; (SourceAt, ID)
// together form the total order used for catalog pagination.
type DatasetCatalog struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;index:idx_dataset_source_at_id,priority:2" json:"id"`
	Title          string          `gorm:"not null" json:"title"`
	Description    string          `gorm:"type:text;not null" json:"description"`
	URL            string          `gorm:"not null" json:"url"`
	InfoURL        *string         `json:"info_url,omitempty"`
	Slug           string          `gorm:"uniqueIndex;not null" json:"slug"`
	IsCORSAllowed  bool            `gorm:"not null" json:"is_cors_allowed"`
	DirectSource   string          `gorm:"not null" json:"direct_source"`
	OriginalSource string          `gorm:"not null" json:"original_source"`
	SourceAt       time.Time       `gorm:"not null;index:idx_dataset_source_at_id,priority:1" json:"source_at"`
	Embedding      pgvector.Vector `gorm:"type:vector(768)" json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (DatasetCatalog) TableName() string { return "dataset_catalog" }

func (d *DatasetCatalog) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
