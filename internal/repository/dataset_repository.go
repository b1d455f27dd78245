package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"maindata/internal/model"
)

type DatasetRepository struct {
	db *gorm.DB
}

func NewDatasetRepository(db *gorm.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// NearestByEmbedding returns the limit catalog rows closest to the query
// vector by cosine distance, nearest first.
func (r *DatasetRepository) NearestByEmbedding(vec []float32, limit int) ([]model.DatasetCatalog, error) {
	var rows []model.DatasetCatalog
	err := r.db.
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:  "embedding <=> ?",
			Vars: []interface{}{pgvector.NewVector(vec)},
		}}).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("dataset similarity search failed: %w", err)
	}
	return rows, nil
}

func (r *DatasetRepository) GetByID(id uuid.UUID) (*model.DatasetCatalog, error) {
	var row model.DatasetCatalog
	if err := r.db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get dataset failed: %w", err)
	}
	return &row, nil
}

func (r *DatasetRepository) GetBySlug(slug string) (*model.DatasetCatalog, error) {
	var row model.DatasetCatalog
	if err := r.db.Where("slug = ?", slug).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get dataset by slug failed: %w", err)
	}
	return &row, nil
}

// PageFilter describes one keyset-paginated catalog page. Before, when set,
// restricts the page to rows strictly after the cursor row under the
// (source_at DESC, id DESC) order.
type PageFilter struct {
	Search string
	Before *model.DatasetCatalog
	Limit  int
}

// ListPage returns catalog rows ordered by (source_at DESC, id DESC). The
// cursor predicate compares the composite key, not the id alone; source_at is
// not monotonic in insertion order.
func (r *DatasetRepository) ListPage(filter PageFilter) ([]model.DatasetCatalog, error) {
	q := r.db.Model(&model.DatasetCatalog{})

	if filter.Search != "" {
		term := "%" + filter.Search + "%"
		q = q.Where("title ILIKE ? OR description ILIKE ?", term, term)
	}
	if filter.Before != nil {
		q = q.Where(
			"source_at < ? OR (source_at = ? AND id < ?)",
			filter.Before.SourceAt, filter.Before.SourceAt, filter.Before.ID,
		)
	}

	var rows []model.DatasetCatalog
	err := q.Order("source_at DESC, id DESC").Limit(filter.Limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list datasets failed: %w", err)
	}
	return rows, nil
}

// Upsert inserts the row or, when the slug already exists, refreshes every
// column except the slug and the id.
func (r *DatasetRepository) Upsert(row *model.DatasetCatalog) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "description", "url", "info_url", "is_cors_allowed",
			"direct_source", "original_source", "source_at", "embedding",
		}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("upsert dataset failed: %w", err)
	}
	return nil
}
