// Package document persists document and section records as RedisJSON
// objects. Keys are content-addressed, so upserting the same content under
// the same embedding model overwrites in place.
package document

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alkashef/vector-store/internal/domain"
)

// store is the consumer interface for document persistence (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Repo writes document and section records.
type Repo struct {
	store  store
	prefix string
}

// New creates a document repository. keyPrefix namespaces all keys.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// docJSON is the persisted document shape. Flat so FT indexes on JSON paths
// can reach every facet field.
type docJSON struct {
	Hash           string         `json:"hash"`
	Filename       string         `json:"filename"`
	FullText       string         `json:"full_text"`
	CandidateID    string         `json:"candidate_id"`
	Source         string         `json:"source"`
	SkillsNorm     []string       `json:"skills_norm"`
	AlmaMater      string         `json:"alma_mater"`
	IndustriesNorm []string       `json:"industries_norm"`
	Extraction     map[string]any `json:"extraction,omitempty"`
	EmbedModel     string         `json:"embed_model"`
	EmbedHash      string         `json:"embed_hash"`
	Vector         []float32      `json:"vector,omitempty"`
}

// sectionJSON is the persisted section shape.
type sectionJSON struct {
	ParentSHA      string    `json:"parent_sha"`
	Section        string    `json:"section"`
	Subsection     string    `json:"subsection"`
	Text           string    `json:"text"`
	PageStart      *int      `json:"page_start,omitempty"`
	PageEnd        *int      `json:"page_end,omitempty"`
	Model          string    `json:"model"`
	EmbedHash      string    `json:"embed_hash"`
	SkillsNorm     []string  `json:"skills_norm"`
	AlmaMater      string    `json:"alma_mater"`
	IndustriesNorm []string  `json:"industries_norm"`
	Vector         []float32 `json:"vector,omitempty"`
}

// WriteDocument persists rec keyed by its content hash and reads it back to
// confirm the write landed. A transport failure is returned as an error; a
// write that cannot be verified is reported as a rejected UpsertResult.
func (r *Repo) WriteDocument(ctx context.Context, rec domain.DocumentRecord) (domain.UpsertResult, error) {
	if rec.Hash == "" {
		return domain.UpsertFailed("document hash is empty"), nil
	}
	key := r.docKey(rec.Hash)

	data, err := json.Marshal(docJSON{
		Hash:           rec.Hash,
		Filename:       rec.Filename,
		FullText:       rec.FullText,
		CandidateID:    rec.CandidateID,
		Source:         rec.Source,
		SkillsNorm:     emptyAsList(rec.Routing.SkillsNorm),
		AlmaMater:      rec.Routing.AlmaMater,
		IndustriesNorm: emptyAsList(rec.Routing.IndustriesNorm),
		Extraction:     rec.Extraction,
		EmbedModel:     rec.EmbedModel,
		EmbedHash:      rec.EmbedHash,
		Vector:         rec.Vector,
	})
	if err != nil {
		return domain.UpsertResult{}, fmt.Errorf("marshal document: %w", err)
	}

	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return domain.UpsertResult{}, fmt.Errorf("json.set %s: %w", key, err)
	}

	// Read-back verification: sections are only attached to documents the
	// store has durably confirmed.
	if _, err := r.store.JSONGet(ctx, key, "$"); err != nil {
		return domain.UpsertFailed(fmt.Sprintf("document %s not readable after write: %v", rec.Hash, err)), nil
	}

	return domain.UpsertOK(), nil
}

// UpsertSection persists one section record keyed by parent hash and the
// section's own embed hash. Rejections carry the store's reason.
func (r *Repo) UpsertSection(ctx context.Context, rec domain.SectionRecord) (domain.UpsertResult, error) {
	if rec.ParentHash == "" || rec.EmbedHash == "" {
		return domain.UpsertFailed("section parent hash or embed hash is empty"), nil
	}
	key := r.sectionKey(rec.ParentHash, rec.EmbedHash)

	data, err := json.Marshal(sectionJSON{
		ParentSHA:      rec.ParentHash,
		Section:        rec.Section,
		Subsection:     rec.Subsection,
		Text:           rec.Text,
		PageStart:      rec.PageStart,
		PageEnd:        rec.PageEnd,
		Model:          rec.Model,
		EmbedHash:      rec.EmbedHash,
		SkillsNorm:     emptyAsList(rec.Routing.SkillsNorm),
		AlmaMater:      rec.Routing.AlmaMater,
		IndustriesNorm: emptyAsList(rec.Routing.IndustriesNorm),
		Vector:         rec.Vector,
	})
	if err != nil {
		return domain.UpsertResult{}, fmt.Errorf("marshal section: %w", err)
	}

	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return domain.UpsertFailed(err.Error()), nil
	}
	return domain.UpsertOK(), nil
}

// HasDocument reports whether a document with the given hash is stored.
func (r *Repo) HasDocument(ctx context.Context, hash string) (bool, error) {
	ok, err := r.store.Exists(ctx, r.docKey(hash))
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", r.docKey(hash), err)
	}
	return ok, nil
}

// GetDocument returns the stored document record for a hash.
func (r *Repo) GetDocument(ctx context.Context, hash string) (domain.DocumentRecord, error) {
	raw, err := r.store.JSONGet(ctx, r.docKey(hash), "$")
	if err != nil {
		return domain.DocumentRecord{}, fmt.Errorf("json.get %s: %w", r.docKey(hash), err)
	}

	// JSON.GET with a $ path returns an array of matches.
	var docs []docJSON
	if err := json.Unmarshal(raw, &docs); err != nil || len(docs) == 0 {
		var single docJSON
		if err2 := json.Unmarshal(raw, &single); err2 != nil {
			return domain.DocumentRecord{}, fmt.Errorf("unmarshal document %s: %w", hash, err2)
		}
		docs = []docJSON{single}
	}

	d := docs[0]
	return domain.DocumentRecord{
		Hash:        d.Hash,
		Filename:    d.Filename,
		FullText:    d.FullText,
		CandidateID: d.CandidateID,
		Source:      d.Source,
		Routing: domain.Routing{
			SkillsNorm:     d.SkillsNorm,
			AlmaMater:      d.AlmaMater,
			IndustriesNorm: d.IndustriesNorm,
		},
		Extraction: d.Extraction,
		EmbedModel: d.EmbedModel,
		EmbedHash:  d.EmbedHash,
		Vector:     d.Vector,
	}, nil
}

func (r *Repo) docKey(hash string) string {
	return r.prefix + "document:" + hash
}

func (r *Repo) sectionKey(parentHash, embedHash string) string {
	return r.prefix + "section:" + parentHash + ":" + embedHash
}

// emptyAsList keeps facet fields as [] rather than null in stored JSON.
func emptyAsList(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
