package scoring

import (
	"context"

	"github.com/xxxsen/insuregenie/internal/feature"
	"github.com/xxxsen/insuregenie/internal/filestore"
)

const (
	RiskLevelLow      = "low"
	RiskLevelMedium   = "medium"
	RiskLevelHigh     = "high"
	RiskLevelVeryHigh = "very_high"
)

type RiskModel struct {
	loader *modelLoader
}

func NewRiskModel(store filestore.Store, key string) *RiskModel {
	return &RiskModel{loader: newModelLoader(store, key, feature.NameList())}
}

// Predict scores an encoded asset. Scores are not clamped.
func (m *RiskModel) Predict(ctx context.Context, v feature.Vector) (float64, error) {
	model, err := m.loader.get(ctx)
	if err != nil {
		return 0, err
	}
	return model.Predict(v.Slice())
}

// RiskLevel bands a score for display.
func RiskLevel(score float64) string {
	switch {
	case score <= 30:
		return RiskLevelLow
	case score <= 60:
		return RiskLevelMedium
	case score <= 80:
		return RiskLevelHigh
	default:
		return RiskLevelVeryHigh
	}
}
