package embcache

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/alkashef/vector-store/internal/db"
)

// mockStore implements the store consumer interface with pluggable behavior
// backed by an in-memory key map.
type mockStore struct {
	getFn  func(ctx context.Context, key string) ([]byte, error)
	setFn  func(ctx context.Context, key string, value []byte) error
	delFn  func(ctx context.Context, key string) error
	keysFn func(ctx context.Context, pattern string) ([]string, error)

	data map[string][]byte
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte)}
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	m.data[key] = value
	return nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	delete(m.data, key)
	return nil
}

func (m *mockStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	if m.keysFn != nil {
		return m.keysFn(ctx, pattern)
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// mockEmbedder is the inner provider. Each text embeds to a fixed vector
// unless embedFn overrides.
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
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func newTestCachedEmbedder(t *testing.T) (*CachedEmbedder, *mockStore, *mockEmbedder) {
	t.Helper()
	ms := newMockStore()
	inner := &mockEmbedder{}
	return New(inner, ms, "vecstore:", nil, zap.NewNop()), ms, inner
}
