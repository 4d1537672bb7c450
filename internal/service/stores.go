package service

import (
	"context"

	"github.com/xxxsen/insuregenie/internal/model"
)

// AssetStore is the read-only view of the asset registry.
type AssetStore interface {
	GetByID(ctx context.Context, assetID string) (*model.Asset, error)
	ListByUser(ctx context.Context, userID string) ([]model.Asset, error)
}

// AssessmentStore persists risk assessment history. Append never updates an
// existing record.
type AssessmentStore interface {
	Append(ctx context.Context, item *model.RiskAssessment) error
	ListByAsset(ctx context.Context, assetID string, limit uint) ([]model.RiskAssessment, error)
	LatestByAsset(ctx context.Context, assetID string) (*model.RiskAssessment, error)
}
