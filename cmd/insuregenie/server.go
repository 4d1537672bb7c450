package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/insuregenie/internal/ai"
	"github.com/xxxsen/insuregenie/internal/config"
	"github.com/xxxsen/insuregenie/internal/db"
	"github.com/xxxsen/insuregenie/internal/embedcache"
	"github.com/xxxsen/insuregenie/internal/filestore"
	"github.com/xxxsen/insuregenie/internal/handler"
	"github.com/xxxsen/insuregenie/internal/job"
	"github.com/xxxsen/insuregenie/internal/middleware"
	"github.com/xxxsen/insuregenie/internal/reference"
	"github.com/xxxsen/insuregenie/internal/repo"
	"github.com/xxxsen/insuregenie/internal/retrieval"
	"github.com/xxxsen/insuregenie/internal/schedule"
	"github.com/xxxsen/insuregenie/internal/scoring"
	"github.com/xxxsen/insuregenie/internal/service"
)

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logutil.GetLogger(ctx).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	sqlDB, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer sqlDB.Close()
	if err := db.ApplyMigrations(ctx, sqlDB); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	areas, err := reference.LoadFromStore(ctx, store, cfg.Datasets.AreaCrimes)
	if err != nil {
		logutil.GetLogger(ctx).Warn("area crime table unavailable, using defaults",
			zap.String("key", cfg.Datasets.AreaCrimes), zap.Error(err))
		areas = reference.NewTable(nil)
	}

	cacheRepo := repo.NewEmbeddingCacheRepo(sqlDB)
	embedder, err := buildEmbedder(cfg, cacheRepo)
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}

	assetRepo := repo.NewAssetRepo(sqlDB)
	assessmentRepo := repo.NewAssessmentRepo(sqlDB)
	riskModel := scoring.NewRiskModel(store, cfg.Models.RiskModelKey)
	premiumCalc := scoring.NewPremiumCalculator(store, cfg.Models.PremiumModelKey)
	engine := retrieval.NewEngine(embedder, store, indexKeys(cfg))

	riskService := service.NewRiskService(assetRepo, assessmentRepo, areas, riskModel, premiumCalc)
	chatService := service.NewChatService(engine, assetRepo, assessmentRepo, premiumCalc)

	deps := handler.RouterDeps{
		Risk:          handler.NewRiskHandler(riskService),
		Chat:          handler.NewChatHandler(chatService),
		ChatRateLimit: time.Duration(cfg.ChatRateLimitMs) * time.Millisecond,
	}

	scheduler := schedule.NewCronScheduler()
	jobs := []struct {
		task schedule.Job
		spec string
	}{
		{job.NewTrainJob(job.NameRiskTrain, newRiskTrainer(cfg, store)), cfg.Schedule.RiskTrain},
		{job.NewTrainJob(job.NamePremiumTrain, newPremiumTrainer(cfg, store)), cfg.Schedule.PremiumTrain},
		{job.NewTrainJob(job.NameIndexBuild, newIndexBuilder(cfg, store, embedder)), cfg.Schedule.IndexBuild},
		{job.NewEmbeddingCacheCleanupJob(cacheCleaner(cfg, cacheRepo), cfg.EmbeddingCache.MaxAgeDays), cfg.Schedule.EmbeddingCacheClean},
	}
	for _, item := range jobs {
		if err := scheduler.AddJob(item.task, item.spec); err != nil {
			return fmt.Errorf("schedule %s: %w", item.task.Name(), err)
		}
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	web, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORS),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", addr))

	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := web.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

// cacheCleaner returns nil when the DB cache layer is off, which turns the
// cleanup job into a no-op.
func cacheCleaner(cfg *config.Config, r *repo.EmbeddingCacheRepo) job.CacheCleaner {
	if !cfg.EmbeddingCache.DB {
		return nil
	}
	return r
}

func indexKeys(cfg *config.Config) retrieval.Keys {
	return retrieval.Keys{
		Vectors:   cfg.Models.IndexVectorsKey,
		Responses: cfg.Models.IndexResponsesKey,
	}
}

// buildEmbedder assembles provider, fallbacks, timeout and cache layers. The
// DB cache layer is skipped when cache is nil.
func buildEmbedder(cfg *config.Config, cache embedcache.Store) (ai.IEmbedder, error) {
	primary, err := newProviderEmbedder(cfg.AI.Provider, cfg.AI.Model, cfg.AI.Data, cfg)
	if err != nil {
		return nil, err
	}
	entries := []ai.EmbedderEntry{{Name: cfg.AI.Provider, Embedder: primary}}
	for _, fb := range cfg.AI.Fallbacks {
		e, err := newProviderEmbedder(fb.Provider, fb.Model, fb.Data, cfg)
		if err != nil {
			return nil, fmt.Errorf("init fallback %s: %w", fb.Provider, err)
		}
		entries = append(entries, ai.EmbedderEntry{Name: fb.Provider, Embedder: e})
	}
	embedder := ai.NewGroupEmbedder(entries)
	if cfg.EmbeddingCache.DB && cache != nil {
		embedder = embedcache.WrapDB(embedder, cache)
	}
	return embedcache.WrapLRU(embedder, cfg.EmbeddingCache.LRUSize, time.Duration(cfg.EmbeddingCache.TTLSeconds)*time.Second), nil
}

func newProviderEmbedder(name, model string, data interface{}, cfg *config.Config) (ai.IEmbedder, error) {
	if data == nil && name == "local" {
		data = map[string]interface{}{"dimension": cfg.AI.Dimension}
	}
	p, err := ai.NewEmbedProvider(name, data)
	if err != nil {
		return nil, err
	}
	return ai.WithTimeout(ai.NewEmbedder(p, model), time.Duration(cfg.AI.Timeout)*time.Second), nil
}
