// Package apperr defines the error taxonomy shared by the API and the
// RAG pipeline. Layers wrap the sentinel that describes the failure with
// %w; the API boundary maps sentinels to HTTP statuses.
package apperr

import "errors"

var (
	// ErrValidation marks malformed or missing required input (HTTP 400).
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a well-formed but unknown identifier (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrStore marks a document-store read/write failure (HTTP 500).
	ErrStore = errors.New("store failure")

	// ErrEmbedding marks an embedding-service failure (HTTP 500).
	ErrEmbedding = errors.New("embedding failure")

	// ErrGeneration marks a completion-service failure (HTTP 500).
	ErrGeneration = errors.New("generation failure")
)
