package retrieval

import (
	"context"
	"fmt"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insuregenie/internal/ai"
	"github.com/xxxsen/insuregenie/internal/filestore"
)

// DefaultTopK is the number of neighbours searched per question. Answer
// only uses the closest one.
const DefaultTopK = 5

type Engine struct {
	embedder ai.IEmbedder
	store    filestore.Store
	keys     Keys

	mu    sync.Mutex
	index *Index
}

// NewEngine loads the index from store on first use.
func NewEngine(embedder ai.IEmbedder, store filestore.Store, keys Keys) *Engine {
	return &Engine{embedder: embedder, store: store, keys: keys}
}

// NewEngineWithIndex serves a prebuilt index.
func NewEngineWithIndex(embedder ai.IEmbedder, ix *Index) *Engine {
	return &Engine{embedder: embedder, index: ix}
}

func (e *Engine) loadIndex(ctx context.Context) (*Index, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index != nil {
		return e.index, nil
	}
	ix, err := Load(ctx, e.store, e.keys)
	if err != nil {
		return nil, err
	}
	if name := e.embedder.ModelName(); ix.Model() != "" && ix.Model() != name {
		logutil.GetLogger(ctx).Warn("index was built with a different embedder",
			zap.String("index_model", ix.Model()), zap.String("embedder", name))
	}
	logutil.GetLogger(ctx).Info("embedding index loaded",
		zap.Int("entries", ix.Len()), zap.Int("dimension", ix.Dim()))
	e.index = ix
	return ix, nil
}

// Candidates returns up to k ranked matches with their raw templates.
func (e *Engine) Candidates(ctx context.Context, query string, k int) ([]Match, error) {
	ix, err := e.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	vec, err := e.embedder.Embed(ctx, query, ai.TaskTypeSimilarity)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return ix.Search(vec, k)
}

// Answer returns the closest response template personalised with c.
func (e *Engine) Answer(ctx context.Context, query string, c *Context) (string, error) {
	matches, err := e.Candidates(ctx, query, DefaultTopK)
	if err != nil {
		return "", err
	}
	best := matches[0]
	logutil.GetLogger(ctx).Debug("chat response selected",
		zap.Int("row", best.Row), zap.Float32("distance", best.Distance), zap.Int("candidates", len(matches)))
	return Personalize(best.Response, c), nil
}
