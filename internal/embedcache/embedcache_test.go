package embedcache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/insuregenie/internal/model"
)

type countingEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return []float32{float32(len(text)), 1}, nil
}

func (c *countingEmbedder) ModelName() string { return "counting:v1" }

type memStore struct {
	items   map[string][]float32
	readErr error
}

func (m *memStore) Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error) {
	if m.readErr != nil {
		return nil, false, m.readErr
	}
	v, ok := m.items[modelName+"|"+taskType+"|"+contentHash]
	return v, ok, nil
}

func (m *memStore) Save(ctx context.Context, item *model.EmbeddingCache) error {
	m.items[item.ModelName+"|"+item.TaskType+"|"+item.ContentHash] = item.Embedding
	return nil
}

func TestWrapLRU(t *testing.T) {
	base := &countingEmbedder{}
	e := WrapLRU(base, 16, time.Minute)
	ctx := context.Background()

	first, err := e.Embed(ctx, "hello", "q")
	require.NoError(t, err)
	first[0] = 99
	second, err := e.Embed(ctx, "hello", "q")
	require.NoError(t, err)
	require.Equal(t, []float32{5, 1}, second)
	require.Equal(t, 1, base.calls)

	_, err = e.Embed(ctx, "hello", "other")
	require.NoError(t, err)
	require.Equal(t, 2, base.calls)
	require.Equal(t, "counting:v1", e.ModelName())

	require.Same(t, base, WrapLRU(base, 0, time.Minute))
}

func TestWrapDB(t *testing.T) {
	base := &countingEmbedder{}
	store := &memStore{items: map[string][]float32{}}
	e := WrapDB(base, store)
	ctx := context.Background()

	_, err := e.Embed(ctx, "premium", "q")
	require.NoError(t, err)
	_, err = e.Embed(ctx, "premium", "q")
	require.NoError(t, err)
	require.Equal(t, 1, base.calls)
	require.Len(t, store.items, 1)

	store.readErr = errors.New("db down")
	vec, err := e.Embed(ctx, "premium", "q")
	require.NoError(t, err)
	require.Equal(t, []float32{7, 1}, vec)
	require.Equal(t, 2, base.calls)
}

func TestCacheKey(t *testing.T) {
	a := newCacheKey(" m ", "t", "x")
	require.Equal(t, "m", a.model)
	require.Len(t, a.contentHash, 64)
	require.Equal(t, "unknown", newCacheKey("", "t", "x").model)
	require.NotEqual(t, a.String(), newCacheKey("m", "t", "y").String())
}
