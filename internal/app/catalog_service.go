package app

import (
	"github.com/google/uuid"

	"maindata/internal/model"
	"maindata/internal/repository"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// CatalogStore is the persistence surface for the dataset catalog listing.
type CatalogStore interface {
	GetByID(id uuid.UUID) (*model.DatasetCatalog, error)
	GetBySlug(slug string) (*model.DatasetCatalog, error)
	ListPage(filter repository.PageFilter) ([]model.DatasetCatalog, error)
}

// CatalogPage is one page of catalog rows. Limit is the effective page size
// after defaulting and clamping. NextCursor is only set on a full page; a
// short page means the listing is exhausted.
type CatalogPage struct {
	Rows       []model.DatasetCatalog
	Limit      int
	NextCursor *uuid.UUID
}

// CatalogService pages through the dataset catalog with a composite-key
// cursor so the order stays stable while rows are being ingested.
type CatalogService struct {
	store CatalogStore
}

func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

// List returns one page. A zero limit means the default; anything else is
// clamped into [1, 100]. A cursor that does not resolve to an existing row
// fails with ErrCursorNotFound; stale and forged cursors must be detected,
// not ignored.
func (s *CatalogService) List(limit int, afterID *uuid.UUID, search string) (*CatalogPage, error) {
	if limit == 0 {
		limit = defaultPageLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	var before *model.DatasetCatalog
	if afterID != nil {
		row, err := s.store.GetByID(*afterID)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, ErrCursorNotFound
		}
		before = row
	}

	rows, err := s.store.ListPage(repository.PageFilter{
		Search: search,
		Before: before,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}

	page := &CatalogPage{Rows: rows, Limit: limit}
	if len(rows) == limit {
		last := rows[len(rows)-1].ID
		page.NextCursor = &last
	}
	return page, nil
}

// GetBySlug resolves a dataset for the download/proxy endpoint.
func (s *CatalogService) GetBySlug(slug string) (*model.DatasetCatalog, error) {
	row, err := s.store.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrDatasetNotFound
	}
	return row, nil
}
