package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/viterin/vek/vek32"
)

func TestLocalEmbedderIsDeterministicAndNormalised(t *testing.T) {
	e := NewEmbedder(NewLocalEmbedProvider(64), "hash")
	ctx := context.Background()

	a, err := e.Embed(ctx, "How much is my premium?", TaskTypeSimilarity)
	require.NoError(t, err)
	b, err := e.Embed(ctx, "How much is my premium?", TaskTypeSimilarity)
	require.NoError(t, err)
	require.Len(t, a, 64)
	require.Equal(t, a, b)
	require.InDelta(t, 1.0, vek32.Dot(a, a), 1e-5)
	require.Equal(t, "local:hash", e.ModelName())
}

func TestLocalEmbedderRanksSharedVocabularyCloser(t *testing.T) {
	p := NewLocalEmbedProvider(256)
	ctx := context.Background()
	query, _ := p.Embed(ctx, "", "what is my premium", "")
	near, _ := p.Embed(ctx, "", "what is my monthly premium", "")
	far, _ := p.Embed(ctx, "", "report a stolen vehicle claim", "")
	require.Greater(t, vek32.Dot(query, near), vek32.Dot(query, far))
}

func TestLocalEmbedderEmptyText(t *testing.T) {
	vec, err := NewLocalEmbedProvider(8).Embed(context.Background(), "", "  ", "")
	require.NoError(t, err)
	require.Equal(t, make([]float32, 8), vec)
}

func TestNewEmbedProviderRegistry(t *testing.T) {
	p, err := NewEmbedProvider("LOCAL", map[string]interface{}{"dimension": 16})
	require.NoError(t, err)
	vec, err := p.Embed(context.Background(), "", "hello", "")
	require.NoError(t, err)
	require.Len(t, vec, 16)

	_, err = NewEmbedProvider("", nil)
	require.Error(t, err)
	_, err = NewEmbedProvider("nope", nil)
	require.Error(t, err)

	g, err := NewEmbedProvider("gemini", nil)
	require.NoError(t, err)
	_, err = g.Embed(context.Background(), "text-embedding-004", "hello", TaskTypeSimilarity)
	require.ErrorIs(t, err, ErrUnavailable)
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return nil, errors.New("boom")
}

func (failingEmbedder) ModelName() string { return "failing" }

func TestGroupEmbedderFallsBack(t *testing.T) {
	local := NewEmbedder(NewLocalEmbedProvider(8), "hash")
	g := NewGroupEmbedder([]EmbedderEntry{
		{Name: "failing", Embedder: failingEmbedder{}},
		{Name: "local", Embedder: local},
	})
	vec, err := g.Embed(context.Background(), "hello", "")
	require.NoError(t, err)
	require.Len(t, vec, 8)
	require.Equal(t, "failing|local", g.ModelName())

	only := NewGroupEmbedder([]EmbedderEntry{{Name: "failing", Embedder: failingEmbedder{}}})
	_, err = only.Embed(context.Background(), "hello", "")
	require.Error(t, err)
	require.Nil(t, NewGroupEmbedder(nil))
}

type slowEmbedder struct{}

func (slowEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowEmbedder) ModelName() string { return "slow" }

func TestWithTimeout(t *testing.T) {
	var e IEmbedder = slowEmbedder{}
	require.Equal(t, e, WithTimeout(e, 0))

	wrapped := WithTimeout(e, 10*time.Millisecond)
	_, err := wrapped.Embed(context.Background(), "hi", TaskTypeSimilarity)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, "slow", wrapped.ModelName())
}
