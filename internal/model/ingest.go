package model

import "time"

const (
	IngestKindDataset        = "dataset"
	IngestKindReferenceQuery = "reference_query"
)

// CatalogIngestJob is the wire format published on the catalog ingest queue.
// Kind selects which corpus the record belongs to; SQLQuery is only set for
// reference queries, the catalog fields only for datasets.
type CatalogIngestJob struct {
	Kind           string    `json:"kind"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	URL            string    `json:"url,omitempty"`
	InfoURL        *string   `json:"info_url,omitempty"`
	Slug           string    `json:"slug,omitempty"`
	IsCORSAllowed  bool      `json:"is_cors_allowed,omitempty"`
	DirectSource   string    `json:"direct_source,omitempty"`
	OriginalSource string    `json:"original_source,omitempty"`
	SourceAt       time.Time `json:"source_at,omitempty"`
	SQLQuery       string    `json:"sql_query,omitempty"`
}
