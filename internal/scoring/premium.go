package scoring

import (
	"context"
	"math"

	"github.com/xxxsen/insuregenie/internal/filestore"
)

const (
	// MinPremium is the lowest quote ever returned.
	MinPremium = 1.0
	// CoverageRatio is the share of the asset value that is insured.
	CoverageRatio = 0.8
)

// PremiumFeatures is the input order of the premium regressor.
var PremiumFeatures = []string{"risk_score", "coverage_amount", "asset_value"}

type PremiumCalculator struct {
	loader *modelLoader
}

func NewPremiumCalculator(store filestore.Store, key string) *PremiumCalculator {
	return &PremiumCalculator{loader: newModelLoader(store, key, PremiumFeatures)}
}

func (c *PremiumCalculator) Calculate(ctx context.Context, riskScore, coverageAmount, assetValue float64) (float64, error) {
	model, err := c.loader.get(ctx)
	if err != nil {
		return 0, err
	}
	pred, err := model.Predict([]float64{riskScore, coverageAmount, assetValue})
	if err != nil {
		return 0, err
	}
	if math.IsNaN(pred) || pred < MinPremium {
		return MinPremium, nil
	}
	return pred, nil
}

// Quote prices an asset of the given value at the standard coverage ratio.
func (c *PremiumCalculator) Quote(ctx context.Context, riskScore, assetValue float64) (float64, error) {
	return c.Calculate(ctx, riskScore, assetValue*CoverageRatio, assetValue)
}
