package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/insuregenie/internal/model"
	"github.com/xxxsen/insuregenie/internal/pkg/dbutil"
	appErr "github.com/xxxsen/insuregenie/internal/pkg/errors"
)

var assetColumns = []string{
	"id", "user_id", "name", "asset_type", "current_value", "location", "postcode",
	"verification_status", "make", "model", "year", "mileage", "fuel_type", "ctime", "mtime",
}

// AssetRepo reads the asset registry. Writes belong to the registry itself.
type AssetRepo struct {
	db *sql.DB
}

func NewAssetRepo(db *sql.DB) *AssetRepo {
	return &AssetRepo{db: db}
}

func (r *AssetRepo) GetByID(ctx context.Context, assetID string) (*model.Asset, error) {
	sqlStr, args, err := builder.BuildSelect("assets", map[string]interface{}{"id": assetID}, assetColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, appErr.ErrNotFound
	}
	return scanAsset(rows)
}

// ListByUser returns the user's assets oldest first, so the first element is
// the asset the user registered first.
func (r *AssetRepo) ListByUser(ctx context.Context, userID string) ([]model.Asset, error) {
	where := map[string]interface{}{"user_id": userID, "_orderby": "ctime asc, id asc"}
	sqlStr, args, err := builder.BuildSelect("assets", where, assetColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Asset, 0)
	for rows.Next() {
		item, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func scanAsset(rows *sql.Rows) (*model.Asset, error) {
	var (
		item    model.Asset
		year    sql.NullInt64
		mileage sql.NullFloat64
	)
	if err := rows.Scan(&item.ID, &item.UserID, &item.Name, &item.AssetType, &item.CurrentValue, &item.Location,
		&item.Postcode, &item.VerificationStatus, &item.Make, &item.Model, &year, &mileage, &item.FuelType,
		&item.Ctime, &item.Mtime); err != nil {
		return nil, err
	}
	if year.Valid {
		y := int(year.Int64)
		item.Year = &y
	}
	if mileage.Valid {
		m := mileage.Float64
		item.Mileage = &m
	}
	return &item, nil
}
