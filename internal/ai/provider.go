// Package ai provides the text embedding backends used to build and query
// the assistant's semantic index.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	appErr "github.com/xxxsen/insuregenie/internal/pkg/errors"
)

// TaskTypeSimilarity is used both when the index is built and when it is
// queried: corpus queries and user queries are compared symmetrically.
const TaskTypeSimilarity = "SEMANTIC_SIMILARITY"

var ErrUnavailable = appErr.ErrUnavailable

type IEmbedProvider interface {
	Name() string
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
}

type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
}

type embedder struct {
	provider IEmbedProvider
	model    string
}

func NewEmbedder(p IEmbedProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text, taskType)
}

func (e *embedder) ModelName() string {
	return e.provider.Name() + ":" + e.model
}

type timeoutEmbedder struct {
	IEmbedder
	timeout time.Duration
}

// WithTimeout bounds every Embed call on e. A non-positive timeout returns e
// unchanged.
func WithTimeout(e IEmbedder, timeout time.Duration) IEmbedder {
	if timeout <= 0 {
		return e
	}
	return &timeoutEmbedder{IEmbedder: e, timeout: timeout}
}

func (t *timeoutEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.IEmbedder.Embed(ctx, text, taskType)
}

type EmbedProviderFactory func(args interface{}) (IEmbedProvider, error)

var embedRegistry = map[string]EmbedProviderFactory{}

func RegisterEmbed(name string, factory EmbedProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	embedRegistry[key] = factory
}

func NewEmbedProvider(name string, args interface{}) (IEmbedProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := embedRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}
