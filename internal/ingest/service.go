// Package ingest is the intake layer: it lists and reads the raw aggregated
// JSON files the UI browses, and feeds them through the vectorization
// pipeline.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/alkashef/vector-store/internal/domain"
	"github.com/alkashef/vector-store/internal/metrics"
)

// Kind selects a raw data directory.
type Kind string

const (
	// KindCV is the CV directory.
	KindCV Kind = "cv"
	// KindJD is the job description directory.
	KindJD Kind = "jd"
)

// ParseKind validates a kind string from the API surface.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case KindCV:
		return KindCV, nil
	case KindJD:
		return KindJD, nil
	default:
		return "", fmt.Errorf("unknown document kind %q: %w", s, domain.ErrInvalidInput)
	}
}

// vectorizer is the consumer interface for the pipeline (ISP).
type vectorizer interface {
	Run(ctx context.Context, doc domain.AggregatedDocument) (domain.VectorizeResult, error)
}

// Service loads aggregated documents from disk and runs them through the
// pipeline.
type Service struct {
	cvDir    string
	jdDir    string
	pipeline vectorizer
	logger   *zap.Logger
}

// New creates an ingest service over the given raw data directories.
func New(cvDir, jdDir string, pipeline vectorizer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{cvDir: cvDir, jdDir: jdDir, pipeline: pipeline, logger: logger}
}

// ListFiles returns the sorted file names in the kind's raw directory.
// A missing directory yields an empty list, matching the browse UI's
// "no files found" behavior.
func (s *Service) ListFiles(kind Kind) ([]string, error) {
	dir, err := s.dirFor(kind)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ReadFile returns the raw bytes of one file for display. A missing file is
// domain.ErrNotFound.
func (s *Service) ReadFile(kind Kind, name string) ([]byte, error) {
	path, err := s.resolve(kind, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file %s: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// Ingest loads the named aggregated JSON and runs the vectorize-and-upsert
// pipeline on it.
func (s *Service) Ingest(ctx context.Context, kind Kind, name string) (domain.VectorizeResult, error) {
	doc, err := s.loadAggregated(kind, name)
	if err != nil {
		return domain.VectorizeResult{}, err
	}

	s.logger.Info("ingesting document",
		zap.String("kind", string(kind)),
		zap.String("file", name),
		zap.Int("sections", len(doc.Sections)),
	)

	result, err := s.pipeline.Run(ctx, doc)
	if err != nil {
		metrics.IngestFailuresTotal.WithLabelValues(string(kind)).Inc()
		return domain.VectorizeResult{}, fmt.Errorf("vectorize %s: %w", name, err)
	}

	if result.SectionsIndexed > 0 {
		metrics.DocumentsIndexedTotal.WithLabelValues(string(kind)).Inc()
		metrics.SectionsIndexedTotal.WithLabelValues(string(kind)).Add(float64(result.SectionsIndexed))
	}

	s.logger.Info("ingest complete",
		zap.String("kind", string(kind)),
		zap.String("file", name),
		zap.String("document_sha", result.DocumentSHA),
		zap.Int("sections_indexed", result.SectionsIndexed),
	)
	return result, nil
}

// loadAggregated reads and unmarshals an aggregated document file.
func (s *Service) loadAggregated(kind Kind, name string) (domain.AggregatedDocument, error) {
	data, err := s.ReadFile(kind, name)
	if err != nil {
		return domain.AggregatedDocument{}, err
	}

	var doc domain.AggregatedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.AggregatedDocument{}, fmt.Errorf("parse %s: %w: %v", name, domain.ErrInvalidInput, err)
	}
	if doc.Source == "" {
		doc.Source = name
	}
	return doc, nil
}

func (s *Service) dirFor(kind Kind) (string, error) {
	switch kind {
	case KindCV:
		return s.cvDir, nil
	case KindJD:
		return s.jdDir, nil
	default:
		return "", fmt.Errorf("unknown document kind %q: %w", kind, domain.ErrInvalidInput)
	}
}

// resolve joins dir and name, rejecting names that escape the directory.
func (s *Service) resolve(kind Kind, name string) (string, error) {
	dir, err := s.dirFor(kind)
	if err != nil {
		return "", err
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid file name %q: %w", name, domain.ErrInvalidInput)
	}
	return filepath.Join(dir, name), nil
}
