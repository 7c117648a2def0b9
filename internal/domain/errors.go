package domain

import "errors"

var (
	// ErrNotFound signals a missing resource (file, document).
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals a malformed or unknown input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDocumentWriteFailed signals that a document write was rejected or could not be verified.
	ErrDocumentWriteFailed = errors.New("document write failed")
	// ErrSectionUpsertFailed signals that a section upsert was rejected by the store.
	ErrSectionUpsertFailed = errors.New("section upsert failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
