package repository

import (
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"maindata/internal/model"
)

type ReferenceQueryRepository struct {
	db *gorm.DB
}

func NewReferenceQueryRepository(db *gorm.DB) *ReferenceQueryRepository {
	return &ReferenceQueryRepository{db: db}
}

// NearestByEmbedding returns the limit reference queries closest to the query
// vector by cosine distance, nearest first.
func (r *ReferenceQueryRepository) NearestByEmbedding(vec []float32, limit int) ([]model.ReferenceQuery, error) {
	var rows []model.ReferenceQuery
	err := r.db.
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:  "embedding <=> ?",
			Vars: []interface{}{pgvector.NewVector(vec)},
		}}).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("reference query similarity search failed: %w", err)
	}
	return rows, nil
}

func (r *ReferenceQueryRepository) Create(row *model.ReferenceQuery) error {
	if err := r.db.Create(row).Error; err != nil {
		return fmt.Errorf("create reference query failed: %w", err)
	}
	return nil
}
