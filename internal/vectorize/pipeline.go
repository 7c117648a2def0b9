// Package vectorize embeds aggregated CV/JD documents and upserts them into
// the vector store: one content-addressed document record plus one record per
// non-empty section, with normalized routing metadata for faceted search.
package vectorize

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alkashef/vector-store/internal/domain"
)

// DefaultBatchSize bounds the number of texts per embedding API call.
const DefaultBatchSize = 64

// Store is the consumer interface for document and section persistence.
type Store interface {
	WriteDocument(ctx context.Context, rec domain.DocumentRecord) (domain.UpsertResult, error)
	UpsertSection(ctx context.Context, rec domain.SectionRecord) (domain.UpsertResult, error)
}

// Options configures a Pipeline. All knobs are read at construction.
type Options struct {
	Model            string // embedding model; required
	MaxCharsPerChunk int    // default DefaultMaxCharsPerChunk
	BatchSize        int    // default DefaultBatchSize, clamped to >= 1
}

// Pipeline runs the vectorize-and-upsert sequence for one document at a time.
// Single-threaded and synchronous; batching bounds payload size per embedding
// call, not throughput.
type Pipeline struct {
	store     Store
	embedder  domain.Embedder
	logger    *zap.Logger
	model     string
	maxChars  int
	batchSize int
}

// New creates a pipeline with explicit collaborators and options.
func New(store Store, embedder domain.Embedder, logger *zap.Logger, opts Options) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxChars := opts.MaxCharsPerChunk
	if maxChars <= 0 {
		maxChars = DefaultMaxCharsPerChunk
	}
	batchSize := opts.BatchSize
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Pipeline{
		store:     store,
		embedder:  embedder,
		logger:    logger,
		model:     opts.Model,
		maxChars:  maxChars,
		batchSize: batchSize,
	}
}

// Run embeds doc and its sections and writes them to the store.
//
// The document hash is computed over the original (untruncated) section texts
// joined by blank lines, so identical content under the same model re-indexes
// to the same key. Documents with no indexable sections return a zero result
// without touching the store. The coarse document-level vector is optional:
// its embedding failure degrades to an empty vector. Document and section
// writes fail fast; a partial failure leaves earlier writes in place (content
// addressing makes a re-run overwrite them deterministically).
func (p *Pipeline) Run(ctx context.Context, doc domain.AggregatedDocument) (domain.VectorizeResult, error) {
	texts := make([]string, len(doc.Sections))
	for i, s := range doc.Sections {
		texts[i] = s.Text
	}
	docText := strings.Join(texts, "\n\n")
	docHash := Fingerprint(docText, p.model)

	items := PrepareChunks(doc.Sections, p.maxChars)
	if len(items) == 0 {
		p.logger.Info("skipping document with no indexable sections",
			zap.String("source", doc.Source),
			zap.String("document_sha", docHash),
		)
		return domain.VectorizeResult{
			DocumentSHA:     docHash,
			SectionsIndexed: 0,
			Model:           p.model,
		}, nil
	}

	vectors, err := p.embedSections(ctx, items)
	if err != nil {
		return domain.VectorizeResult{}, fmt.Errorf("embed sections: %w", err)
	}

	docVector := p.embedDocument(ctx, docText, docHash)
	routing := NormalizeRouting(doc.Extraction)

	rec := domain.DocumentRecord{
		Hash:        docHash,
		Filename:    filenameFromSource(doc.Source),
		FullText:    docText,
		CandidateID: doc.CandidateID,
		Source:      doc.Source,
		Routing:     routing,
		Extraction:  doc.Extraction,
		EmbedModel:  p.model,
		EmbedHash:   docHash,
		Vector:      docVector,
	}
	res, err := p.store.WriteDocument(ctx, rec)
	if err != nil {
		return domain.VectorizeResult{}, fmt.Errorf("write document %s: %w", docHash, err)
	}
	if !res.OK {
		p.logger.Error("document write rejected",
			zap.String("document_sha", docHash),
			zap.String("error", res.Error),
		)
		return domain.VectorizeResult{}, fmt.Errorf("%w: %s", domain.ErrDocumentWriteFailed, res.Error)
	}

	for i, item := range items {
		vec := vectors[i]
		embedHash := Fingerprint(item.Text, p.model)
		p.logger.Debug("upserting section",
			zap.String("parent_sha", docHash),
			zap.String("section", item.Section),
			zap.Intp("page_start", item.PageStart),
			zap.Int("vector_dim", len(vec)),
		)
		res, err := p.store.UpsertSection(ctx, domain.SectionRecord{
			ParentHash: docHash,
			Section:    item.Section,
			Subsection: item.Subsection,
			Text:       item.Text,
			PageStart:  item.PageStart,
			PageEnd:    item.PageEnd,
			Vector:     vec,
			Model:      p.model,
			EmbedHash:  embedHash,
			Routing:    routing,
		})
		if err == nil && !res.OK {
			err = fmt.Errorf("%w: %s", domain.ErrSectionUpsertFailed, res.Error)
		}
		if err != nil {
			p.logger.Error("section upsert failed",
				zap.String("parent_sha", docHash),
				zap.String("section", item.Section),
				zap.Intp("page_start", item.PageStart),
				zap.Error(err),
			)
			return domain.VectorizeResult{}, fmt.Errorf("upsert section %d of %s: %w", i, docHash, err)
		}
	}

	return domain.VectorizeResult{
		DocumentSHA:       docHash,
		DocumentVectorDim: len(docVector),
		SectionsIndexed:   len(items),
		Model:             p.model,
	}, nil
}

// embedSections embeds chunk texts in batches of batchSize, concatenating
// results so vector i corresponds to chunk i. Any batch failure aborts.
func (p *Pipeline) embedSections(ctx context.Context, items []ChunkItem) ([][]float32, error) {
	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Text
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += p.batchSize {
		end := start + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := p.embedder.EmbedTexts(ctx, texts[start:end], p.model)
		if err != nil {
			return nil, err
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts",
				domain.ErrEmbeddingProviderError, len(vecs), end-start)
		}
		vectors = append(vectors, vecs...)
	}
	return vectors, nil
}

// embedDocument computes the coarse whole-document vector over a
// double-budget truncation. Failure is non-fatal: broad recall is lost but
// section-level retrieval still works, so the pipeline proceeds with an
// empty vector.
func (p *Pipeline) embedDocument(ctx context.Context, docText, docHash string) []float32 {
	vecs, err := p.embedder.EmbedTexts(ctx, []string{Truncate(docText, p.maxChars*2)}, p.model)
	if err != nil || len(vecs) == 0 {
		p.logger.Warn("document-level embedding failed, proceeding without coarse vector",
			zap.String("document_sha", docHash),
			zap.Error(err),
		)
		return nil
	}
	return vecs[0]
}

// filenameFromSource returns the last path segment of source, handling both
// forward- and back-slash separators regardless of host OS.
func filenameFromSource(source string) string {
	name := source
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, `\`); i >= 0 {
		name = name[i+1:]
	}
	return name
}
