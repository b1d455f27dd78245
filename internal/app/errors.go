package app

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrSessionNotFound    = errors.New("chat session not found")
	ErrCursorNotFound     = errors.New("pagination cursor not found")
	ErrDatasetNotFound    = errors.New("dataset not found")
	ErrNoRelevantDatasets = errors.New("no relevant datasets found for the question")
)
