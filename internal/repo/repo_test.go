package repo_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/didi/gendry/builder"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/insuregenie/internal/model"
	"github.com/xxxsen/insuregenie/internal/pkg/dbutil"
	appErr "github.com/xxxsen/insuregenie/internal/pkg/errors"
	"github.com/xxxsen/insuregenie/internal/repo"
	"github.com/xxxsen/insuregenie/internal/testutil"
)

func seedAsset(t *testing.T, db *sql.DB, data map[string]interface{}) {
	t.Helper()
	sqlStr, args, err := builder.BuildInsert("assets", []map[string]interface{}{data})
	require.NoError(t, err)
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = db.ExecContext(context.Background(), sqlStr, args...)
	require.NoError(t, err)
}

func TestAssetRepoReads(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()

	seedAsset(t, db, map[string]interface{}{
		"id": "a-2", "user_id": "u-1", "name": "second", "asset_type": "standard",
		"current_value": 9000.0, "ctime": 20, "mtime": 20,
	})
	seedAsset(t, db, map[string]interface{}{
		"id": "a-1", "user_id": "u-1", "name": "first", "asset_type": "luxury",
		"current_value": 50000.0, "postcode": "E1", "make": "Audi", "model": "A8",
		"year": 2022, "mileage": 1200.0, "verification_status": "verified",
		"ctime": 10, "mtime": 10,
	})
	assets := repo.NewAssetRepo(db)

	got, err := assets.GetByID(ctx, "a-1")
	require.NoError(t, err)
	require.Equal(t, "Audi", got.Make)
	require.NotNil(t, got.Year)
	require.Equal(t, 2022, *got.Year)
	require.True(t, got.IsVerified())

	second, err := assets.GetByID(ctx, "a-2")
	require.NoError(t, err)
	require.Nil(t, second.Year)
	require.Nil(t, second.Mileage)

	_, err = assets.GetByID(ctx, "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	list, err := assets.ListByUser(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "a-1", list[0].ID)
}

func TestAssessmentRepoAppendOnlyNewestFirst(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	history := repo.NewAssessmentRepo(db)

	_, err := history.LatestByAsset(ctx, "a-1")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	for i, id := range []string{"r-1", "r-2", "r-3"} {
		require.NoError(t, history.Append(ctx, &model.RiskAssessment{
			ID:          id,
			AssetID:     "a-1",
			RiskScore:   float64(40 + i),
			RiskFactors: map[string]float64{"year": 2020},
			Ctime:       100,
		}))
	}
	items, err := history.ListByAsset(ctx, "a-1", 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, "r-3", items[0].ID)
	require.Equal(t, 2020.0, items[0].RiskFactors["year"])

	latest, err := history.LatestByAsset(ctx, "a-1")
	require.NoError(t, err)
	require.Equal(t, 42.0, latest.RiskScore)

	limited, err := history.ListByAsset(ctx, "a-1", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
}

func TestEmbeddingCacheRepo(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	cache := repo.NewEmbeddingCacheRepo(db)

	_, ok, err := cache.Get(ctx, "local:hash", "SEMANTIC_SIMILARITY", "h1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Save(ctx, &model.EmbeddingCache{
		ModelName: "local:hash", TaskType: "SEMANTIC_SIMILARITY", ContentHash: "h1",
		Embedding: []float32{0.5, -0.5}, Ctime: 10,
	}))
	vec, ok, err := cache.Get(ctx, "local:hash", "SEMANTIC_SIMILARITY", "h1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []float32{0.5, -0.5}, vec)

	n, err := cache.DeleteBefore(ctx, 11)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}
