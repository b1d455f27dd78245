package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// ReferenceQuery is a curated example SQL query used as few-shot context
// during generation.
type ReferenceQuery struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string          `gorm:"not null" json:"title"`
	Description string          `gorm:"type:text;not null" json:"description"`
	SQLQuery    string          `gorm:"column:sql_query;type:text;not null" json:"sql_query"`
	Embedding   pgvector.Vector `gorm:"type:vector(768)" json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (ReferenceQuery) TableName() string { return "reference_queries" }

func (q *ReferenceQuery) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
