// Package catalog manages the store's collection schema: it loads a JSON
// schema file and can destructively rebuild every managed index and its
// documents from it.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/alkashef/vector-store/internal/db"
)

// store is the consumer interface for schema management (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	ListIndexes(ctx context.Context) ([]string, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, key string) error
}

// Schema is the collection schema file shape.
type Schema struct {
	Classes []Class `json:"classes"`
}

// Class describes one collection: a named, schema-bearing structure holding
// objects of one type.
type Class struct {
	Name       string     `json:"name"`
	Vectorizer string     `json:"vectorizer"` // "none": vectors are attached by the ingest pipeline
	VectorDim  int        `json:"vector_dim"`
	Properties []Property `json:"properties"`
}

// Property is a single field of a class.
type Property struct {
	Name     string   `json:"name"`
	DataType []string `json:"data_type"`
}

// LoadSchema reads and parses a schema JSON file.
func LoadSchema(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("read schema %s: %w", path, err)
	}
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return Schema{}, fmt.Errorf("parse schema %s: %w", path, err)
	}
	if len(s.Classes) == 0 {
		return Schema{}, fmt.Errorf("schema %s defines no classes", path)
	}
	return s, nil
}

// Repo manages collection indexes.
type Repo struct {
	store      store
	prefix     string
	defaultDim int
	logger     *zap.Logger
}

// New creates a catalog repository. keyPrefix namespaces managed indexes and
// document keys; defaultDim is used for classes that omit vector_dim.
func New(s store, keyPrefix string, defaultDim int, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{store: s, prefix: keyPrefix, defaultDim: defaultDim, logger: logger}
}

// RebuildAll drops every managed index together with its documents, then
// recreates indexes from the schema. Destructive: all indexed data is lost.
func (r *Repo) RebuildAll(ctx context.Context, schema Schema) error {
	existing, err := r.store.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("list indexes: %w", err)
	}

	for _, name := range existing {
		if !strings.HasPrefix(name, r.prefix) {
			continue
		}
		r.logger.Info("dropping index", zap.String("index", name))
		if err := r.store.DropIndex(ctx, name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("drop index %s: %w", name, err)
		}
	}

	keys, err := r.store.Keys(ctx, r.prefix+"*")
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}
	for _, key := range keys {
		if err := r.store.Del(ctx, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	if len(keys) > 0 {
		r.logger.Info("deleted stored objects", zap.Int("count", len(keys)))
	}

	for i := range schema.Classes {
		cls := &schema.Classes[i]
		def, err := r.indexDefinition(cls)
		if err != nil {
			return fmt.Errorf("class %s: %w", cls.Name, err)
		}
		r.logger.Info("creating index",
			zap.String("index", def.Name),
			zap.Int("fields", len(def.Fields)),
		)
		if err := r.store.CreateIndex(ctx, def); err != nil {
			return fmt.Errorf("create index %s: %w", def.Name, err)
		}
	}

	return nil
}

// indexDefinition maps a schema class onto an FT index over JSON documents.
func (r *Repo) indexDefinition(cls *Class) (*db.IndexDefinition, error) {
	if cls.Name == "" {
		return nil, errors.New("class name is required")
	}

	keyPrefix := r.prefix + strings.ToLower(cls.Name) + ":"
	def := &db.IndexDefinition{
		Name:        r.IndexName(cls.Name),
		StorageType: db.StorageJSON,
		Prefixes:    []string{keyPrefix},
	}

	for _, p := range cls.Properties {
		if len(p.DataType) == 0 {
			return nil, fmt.Errorf("property %s has no data type", p.Name)
		}
		f := db.IndexField{
			Name:  "$." + p.Name,
			Alias: p.Name,
		}
		switch p.DataType[0] {
		case "text":
			f.Type = db.IndexFieldText
		case "text[]":
			f.Type = db.IndexFieldTag
			f.TagSeparator = ","
		case "number", "int":
			f.Type = db.IndexFieldNumeric
		case "boolean":
			f.Type = db.IndexFieldTag
		default:
			return nil, fmt.Errorf("property %s: unsupported data type %q", p.Name, p.DataType[0])
		}
		def.Fields = append(def.Fields, f)
	}

	// Vectorizer "none": objects carry externally produced vectors, indexed
	// for cosine HNSW search.
	dim := cls.VectorDim
	if dim <= 0 {
		dim = r.defaultDim
	}
	def.Fields = append(def.Fields, db.IndexField{
		Name:           "$.vector",
		Alias:          "vector",
		Type:           db.IndexFieldVector,
		VectorAlgo:     db.VectorHNSW,
		VectorDim:      dim,
		VectorDistance: db.DistanceCosine,
	})

	return def, nil
}

// IndexName returns the managed FT index name for a class.
func (r *Repo) IndexName(className string) string {
	return r.prefix + strings.ToLower(className) + ":idx"
}
