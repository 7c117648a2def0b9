package embcache

import (
	"context"
	"errors"
	"testing"

	"github.com/alkashef/vector-store/internal/vectorize"
)

func TestEmbedTexts_AllMisses(t *testing.T) {
	ce, ms, inner := newTestCachedEmbedder(t)

	vecs, err := ce.EmbedTexts(context.Background(), []string{"a", "b"}, "test-model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vecs))
	}
	if len(inner.calls) != 1 || len(inner.calls[0]) != 2 {
		t.Fatalf("misses must go to the inner provider in one batch, calls=%v", inner.calls)
	}
	if len(ms.data) != 2 {
		t.Fatalf("expected 2 cache puts, got %d", len(ms.data))
	}
}

func TestEmbedTexts_AllHits(t *testing.T) {
	ce, ms, inner := newTestCachedEmbedder(t)

	key := "vecstore:emb_cache:" + vectorize.Fingerprint("a", "test-model")
	ms.data[key] = vectorToCacheBytes([]float32{0.4, 0.5})

	vecs, err := ce.EmbedTexts(context.Background(), []string{"a"}, "test-model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vecs[0][0] != 0.4 || vecs[0][1] != 0.5 {
		t.Fatalf("expected cached vector, got %v", vecs[0])
	}
	if len(inner.calls) != 0 {
		t.Fatal("cache hit must not call the inner provider")
	}
}

func TestEmbedTexts_MixedHitsPreserveOrder(t *testing.T) {
	ce, ms, inner := newTestCachedEmbedder(t)

	cached := []float32{0.9, 0.9}
	ms.data["vecstore:emb_cache:"+vectorize.Fingerprint("b", "test-model")] = vectorToCacheBytes(cached)
	inner.embedFn = func(ctx context.Context, texts []string, model string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{0.1, 0.1}
		}
		return out, nil
	}

	vecs, err := ce.EmbedTexts(context.Background(), []string{"a", "b", "c"}, "test-model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vecs[1][0] != 0.9 {
		t.Fatalf("cached vector not placed at its input position: %v", vecs)
	}
	if vecs[0][0] != 0.1 || vecs[2][0] != 0.1 {
		t.Fatalf("fresh vectors not placed at miss positions: %v", vecs)
	}
	if len(inner.calls) != 1 || len(inner.calls[0]) != 2 {
		t.Fatalf("expected one inner batch with the 2 misses, calls=%v", inner.calls)
	}
}

func TestEmbedTexts_CacheErrorDegradesToMiss(t *testing.T) {
	ce, ms, inner := newTestCachedEmbedder(t)
	ms.getFn = func(context.Context, string) ([]byte, error) {
		return nil, errors.New("connection reset")
	}
	ms.setFn = func(context.Context, string, []byte) error {
		return errors.New("connection reset")
	}

	vecs, err := ce.EmbedTexts(context.Background(), []string{"a"}, "test-model")
	if err != nil {
		t.Fatalf("cache failures must never fail the call: %v", err)
	}
	if len(vecs) != 1 || len(vecs[0]) != 2 {
		t.Fatalf("unexpected vectors: %v", vecs)
	}
	if len(inner.calls) != 1 {
		t.Fatal("cache failure must fall through to the inner provider")
	}
}

func TestEmbedTexts_CorruptCacheEntryDegradesToMiss(t *testing.T) {
	ce, ms, inner := newTestCachedEmbedder(t)
	ms.data["vecstore:emb_cache:"+vectorize.Fingerprint("a", "test-model")] = []byte{1, 2, 3} // not a multiple of 4

	vecs, err := ce.EmbedTexts(context.Background(), []string{"a"}, "test-model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs[0]) != 2 {
		t.Fatalf("corrupt entry must re-embed, got %v", vecs[0])
	}
	if len(inner.calls) != 1 {
		t.Fatal("corrupt entry must go to the inner provider")
	}
}

func TestEmbedTexts_InnerErrorPropagates(t *testing.T) {
	ce, _, inner := newTestCachedEmbedder(t)
	inner.embedFn = func(context.Context, []string, string) ([][]float32, error) {
		return nil, errors.New("provider down")
	}

	if _, err := ce.EmbedTexts(context.Background(), []string{"a"}, "test-model"); err == nil {
		t.Fatal("expected error from inner provider")
	}
}

func TestEmbedTexts_ModelIsPartOfCacheKey(t *testing.T) {
	ce, _, inner := newTestCachedEmbedder(t)

	if _, err := ce.EmbedTexts(context.Background(), []string{"a"}, "model-a"); err != nil {
		t.Fatalf("first model: %v", err)
	}
	if _, err := ce.EmbedTexts(context.Background(), []string{"a"}, "model-b"); err != nil {
		t.Fatalf("second model: %v", err)
	}
	if len(inner.calls) != 2 {
		t.Fatalf("same text under a different model must miss, calls=%d", len(inner.calls))
	}
}

func TestPurge(t *testing.T) {
	ce, ms, _ := newTestCachedEmbedder(t)

	if _, err := ce.EmbedTexts(context.Background(), []string{"a", "b", "c"}, "test-model"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ms.data["vecstore:document:other"] = []byte("keep")

	deleted, err := ce.Purge(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deletions, got %d", deleted)
	}
	if _, ok := ms.data["vecstore:document:other"]; !ok {
		t.Fatal("purge must only touch cache keys")
	}
}

func TestVectorCacheBytes_RoundTrip(t *testing.T) {
	want := []float32{0.25, -1.5, 3}
	got, err := bytesToVector(vectorToCacheBytes(want))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("round trip mismatch at %d: %v vs %v", i, got, want)
		}
	}
}
