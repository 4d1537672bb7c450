// Package scoring turns encoded features into a risk score, a premium quote
// and a coverage recommendation.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insuregenie/internal/filestore"
	appErr "github.com/xxxsen/insuregenie/internal/pkg/errors"
	"github.com/xxxsen/insuregenie/internal/regress"
)

// modelLoader loads one regressor artifact on first use and keeps it for the
// life of the process. A failed load is not remembered, so the next call
// retries; this lets a freshly trained artifact be picked up without a
// restart when the first attempt raced the trainer.
type modelLoader struct {
	store    filestore.Store
	key      string
	features []string

	mu    sync.Mutex
	model *regress.Model
}

func newModelLoader(store filestore.Store, key string, features []string) *modelLoader {
	return &modelLoader{store: store, key: key, features: features}
}

func (l *modelLoader) get(ctx context.Context) (*regress.Model, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.model != nil {
		return l.model, nil
	}
	m, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("model artifact loaded",
		zap.String("key", l.key),
		zap.String("target", m.Target),
		zap.Int("features", m.NumFeatures()),
	)
	l.model = m
	return m, nil
}

func (l *modelLoader) load(ctx context.Context) (*regress.Model, error) {
	if l.store == nil {
		return nil, fmt.Errorf("%w: no artifact store for %s", appErr.ErrModelNotFound, l.key)
	}
	data, err := filestore.ReadBytes(ctx, l.store, l.key)
	if err != nil {
		if errors.Is(err, filestore.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", appErr.ErrModelNotFound, l.key)
		}
		return nil, fmt.Errorf("read model %s: %w", l.key, err)
	}
	m, err := regress.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", appErr.ErrModelNotFound, l.key, err)
	}
	if err := m.RequireFeatures(l.features); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", appErr.ErrModelNotFound, l.key, err)
	}
	return m, nil
}
