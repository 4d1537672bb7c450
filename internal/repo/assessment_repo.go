package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/insuregenie/internal/model"
	"github.com/xxxsen/insuregenie/internal/pkg/dbutil"
	appErr "github.com/xxxsen/insuregenie/internal/pkg/errors"
)

var assessmentColumns = []string{"id", "asset_id", "risk_score", "risk_factors", "ctime"}

// AssessmentRepo stores the append-only risk assessment history. Ordering
// uses the insertion sequence so records created within the same second
// still come back newest first.
type AssessmentRepo struct {
	db *sql.DB
}

func NewAssessmentRepo(db *sql.DB) *AssessmentRepo {
	return &AssessmentRepo{db: db}
}

func (r *AssessmentRepo) Append(ctx context.Context, item *model.RiskAssessment) error {
	factors, err := json.Marshal(item.RiskFactors)
	if err != nil {
		return fmt.Errorf("encode risk factors: %w", err)
	}
	data := map[string]interface{}{
		"id":           item.ID,
		"asset_id":     item.AssetID,
		"risk_score":   item.RiskScore,
		"risk_factors": string(factors),
		"ctime":        item.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("risk_assessments", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// ListByAsset returns up to limit records newest first; limit 0 means all.
func (r *AssessmentRepo) ListByAsset(ctx context.Context, assetID string, limit uint) ([]model.RiskAssessment, error) {
	where := map[string]interface{}{"asset_id": assetID, "_orderby": "seq desc"}
	if limit > 0 {
		where["_limit"] = []uint{0, limit}
	}
	sqlStr, args, err := builder.BuildSelect("risk_assessments", where, assessmentColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.RiskAssessment, 0)
	for rows.Next() {
		var (
			item    model.RiskAssessment
			factors []byte
		)
		if err := rows.Scan(&item.ID, &item.AssetID, &item.RiskScore, &factors, &item.Ctime); err != nil {
			return nil, err
		}
		if len(factors) > 0 {
			if err := json.Unmarshal(factors, &item.RiskFactors); err != nil {
				return nil, fmt.Errorf("decode risk factors of %s: %w", item.ID, err)
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *AssessmentRepo) LatestByAsset(ctx context.Context, assetID string) (*model.RiskAssessment, error) {
	items, err := r.ListByAsset(ctx, assetID, 1)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &items[0], nil
}
