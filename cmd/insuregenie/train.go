package main

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insuregenie/internal/ai"
	"github.com/xxxsen/insuregenie/internal/config"
	"github.com/xxxsen/insuregenie/internal/filestore"
	"github.com/xxxsen/insuregenie/internal/job"
	"github.com/xxxsen/insuregenie/internal/trainer"
)

func newRiskTrainer(cfg *config.Config, store filestore.Store) *trainer.RiskTrainer {
	return &trainer.RiskTrainer{
		Source:        store,
		Sink:          store,
		VehiclesKey:   cfg.Datasets.Vehicles,
		AreaCrimesKey: cfg.Datasets.AreaCrimes,
		OutputKey:     cfg.Models.RiskModelKey,
	}
}

func newPremiumTrainer(cfg *config.Config, store filestore.Store) *trainer.PremiumTrainer {
	return &trainer.PremiumTrainer{
		Source:      store,
		Sink:        store,
		VehiclesKey: cfg.Datasets.Vehicles,
		OutputKey:   cfg.Models.PremiumModelKey,
	}
}

func newIndexBuilder(cfg *config.Config, store filestore.Store, embedder ai.IEmbedder) *trainer.IndexBuilder {
	return &trainer.IndexBuilder{
		Source:           store,
		Sink:             store,
		ConversationsKey: cfg.Datasets.Conversations,
		Keys:             indexKeys(cfg),
		Embedder:         embedder,
	}
}

// runTrain runs the selected trainers once, outside the server. The
// embedding cache DB layer is not used here.
func runTrain(ctx context.Context, cfg *config.Config, target string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	var jobs []*job.TrainJob
	if target == trainRisk || target == trainAll {
		jobs = append(jobs, job.NewTrainJob(job.NameRiskTrain, newRiskTrainer(cfg, store)))
	}
	if target == trainPremium || target == trainAll {
		jobs = append(jobs, job.NewTrainJob(job.NamePremiumTrain, newPremiumTrainer(cfg, store)))
	}
	if target == trainIndex || target == trainAll {
		embedder, err := buildEmbedder(cfg, nil)
		if err != nil {
			return fmt.Errorf("init embedder: %w", err)
		}
		jobs = append(jobs, job.NewTrainJob(job.NameIndexBuild, newIndexBuilder(cfg, store, embedder)))
	}
	if len(jobs) == 0 {
		return fmt.Errorf("unknown train target: %s", target)
	}

	for _, j := range jobs {
		logutil.GetLogger(ctx).Info("training", zap.String("job", j.Name()))
		if err := j.Run(ctx); err != nil {
			return fmt.Errorf("%s: %w", j.Name(), err)
		}
	}
	return nil
}
