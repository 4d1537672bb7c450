package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insuregenie/internal/feature"
	"github.com/xxxsen/insuregenie/internal/model"
	appErr "github.com/xxxsen/insuregenie/internal/pkg/errors"
	"github.com/xxxsen/insuregenie/internal/scoring"
)

// Scorer maps an encoded asset to a risk score.
type Scorer interface {
	Predict(ctx context.Context, v feature.Vector) (float64, error)
}

// Quoter prices cover for a scored asset.
type Quoter interface {
	Calculate(ctx context.Context, riskScore, coverageAmount, assetValue float64) (float64, error)
}

type RiskService struct {
	assets      AssetStore
	assessments AssessmentStore
	areas       feature.AreaLookup
	scorer      Scorer
	quoter      Quoter
	now         func() time.Time
}

func NewRiskService(assets AssetStore, assessments AssessmentStore, areas feature.AreaLookup, scorer Scorer, quoter Quoter) *RiskService {
	return &RiskService{
		assets:      assets,
		assessments: assessments,
		areas:       areas,
		scorer:      scorer,
		quoter:      quoter,
		now:         time.Now,
	}
}

// HistoryItem is a stored assessment with its display band.
type HistoryItem struct {
	model.RiskAssessment
	RiskLevel string `json:"risk_level"`
}

// EnrichedAsset is an asset with its most recent assessment. When the
// assessment could not be fetched, Risk is nil and RiskError says why.
type EnrichedAsset struct {
	Asset     *model.Asset `json:"asset"`
	Risk      *HistoryItem `json:"risk,omitempty"`
	RiskError string       `json:"risk_error,omitempty"`
}

func (s *RiskService) Assess(ctx context.Context, assetID string) (*model.AssessmentResult, error) {
	asset, err := s.assets.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	vec := feature.Encode(asset.RawAttributes(), s.areas)
	score, err := s.scorer.Predict(ctx, vec)
	if err != nil {
		return nil, fmt.Errorf("score asset %s: %w", assetID, err)
	}
	premium, err := s.quoter.Calculate(ctx, score, asset.CurrentValue*scoring.CoverageRatio, asset.CurrentValue)
	if err != nil {
		return nil, fmt.Errorf("quote asset %s: %w", assetID, err)
	}
	factors := vec.Map()
	record := &model.RiskAssessment{
		ID:          newID(),
		AssetID:     assetID,
		RiskScore:   score,
		RiskFactors: factors,
		Ctime:       s.now().Unix(),
	}
	if err := s.assessments.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("save assessment: %w", err)
	}
	coverage := scoring.Recommend(score)
	logutil.GetLogger(ctx).Info("asset assessed",
		zap.String("asset_id", assetID),
		zap.Float64("risk_score", score),
		zap.Float64("premium", premium),
		zap.String("coverage", string(coverage)),
	)
	return &model.AssessmentResult{
		AssetID:                assetID,
		RiskScore:              score,
		RiskLevel:              scoring.RiskLevel(score),
		RiskFactors:            factors,
		PremiumEstimate:        premium,
		CoverageRecommendation: string(coverage),
		AssessmentID:           record.ID,
		Ctime:                  record.Ctime,
	}, nil
}

// History lists the asset's assessments newest first. An asset that was
// never assessed has an empty history.
func (s *RiskService) History(ctx context.Context, assetID string) ([]HistoryItem, error) {
	items, err := s.assessments.ListByAsset(ctx, assetID, 0)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryItem, 0, len(items))
	for _, item := range items {
		out = append(out, HistoryItem{RiskAssessment: item, RiskLevel: scoring.RiskLevel(item.RiskScore)})
	}
	return out, nil
}

// AssetWithRisk fails only when the asset itself cannot be read.
func (s *RiskService) AssetWithRisk(ctx context.Context, assetID string) (*EnrichedAsset, error) {
	asset, err := s.assets.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	out := &EnrichedAsset{Asset: asset}
	latest, err := s.assessments.LatestByAsset(ctx, assetID)
	switch {
	case err == nil:
		out.Risk = &HistoryItem{RiskAssessment: *latest, RiskLevel: scoring.RiskLevel(latest.RiskScore)}
	case errors.Is(err, appErr.ErrNotFound):
		out.RiskError = "not assessed"
	default:
		logutil.GetLogger(ctx).Warn("load latest assessment failed", zap.String("asset_id", assetID), zap.Error(err))
		out.RiskError = "risk data unavailable"
	}
	return out, nil
}
