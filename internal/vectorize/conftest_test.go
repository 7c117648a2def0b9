package vectorize

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/alkashef/vector-store/internal/domain"
)

// mockStore implements the Store consumer interface for tests.
type mockStore struct {
	writeDocumentFn func(ctx context.Context, rec domain.DocumentRecord) (domain.UpsertResult, error)
	upsertSectionFn func(ctx context.Context, rec domain.SectionRecord) (domain.UpsertResult, error)

	documents []domain.DocumentRecord
	sections  []domain.SectionRecord
}

func (m *mockStore) WriteDocument(ctx context.Context, rec domain.DocumentRecord) (domain.UpsertResult, error) {
	m.documents = append(m.documents, rec)
	if m.writeDocumentFn != nil {
		return m.writeDocumentFn(ctx, rec)
	}
	return domain.UpsertOK(), nil
}

func (m *mockStore) UpsertSection(ctx context.Context, rec domain.SectionRecord) (domain.UpsertResult, error) {
	m.sections = append(m.sections, rec)
	if m.upsertSectionFn != nil {
		return m.upsertSectionFn(ctx, rec)
	}
	return domain.UpsertOK(), nil
}

// mockEmbedder implements domain.Embedder. By default each text embeds to a
// fixed 3-dimensional vector.
type mockEmbedder struct {
	embedFn func(ctx context.Context, texts []string, model string) ([][]float32, error)

	calls [][]string
}

func (m *mockEmbedder) EmbedTexts(ctx context.Context, texts []string, model string) ([][]float32, error) {
	m.calls = append(m.calls, append([]string(nil), texts...))
	if m.embedFn != nil {
		return m.embedFn(ctx, texts, model)
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func newTestPipeline(t *testing.T, opts Options) (*Pipeline, *mockStore, *mockEmbedder) {
	t.Helper()
	if opts.Model == "" {
		opts.Model = "test-embedding-model"
	}
	ms := &mockStore{}
	me := &mockEmbedder{}
	return New(ms, me, zap.NewNop(), opts), ms, me
}

func testDocument() domain.AggregatedDocument {
	start, end := 1, 2
	return domain.AggregatedDocument{
		CandidateID: "cand-42",
		Source:      "store/raw_data/CV/jane_doe.json",
		Sections: []domain.Section{
			{Text: "Experience: 5 years", Section: "Experience", PageStart: &start, PageEnd: &end},
			{Text: "MSc Computer Science", Section: "Education", Subsection: "Degrees"},
		},
		Extraction: map[string]any{
			"skills_norm":     "Python, Go",
			"alma_mater":      "MIT",
			"industries_norm": []any{"Fintech", "Healthcare"},
		},
	}
}
