package job

import (
	"context"

	"github.com/xxxsen/insuregenie/internal/trainer"
)

const (
	NameRiskTrain    = "risk_train"
	NamePremiumTrain = "premium_train"
	NameIndexBuild   = "index_build"
)

// Trainer is satisfied by trainer.RiskTrainer, trainer.PremiumTrainer and
// trainer.IndexBuilder.
type Trainer interface {
	Run(ctx context.Context) (*trainer.Summary, error)
}

// TrainJob reruns an offline trainer on a schedule. The new artifact is
// served after the next restart.
type TrainJob struct {
	name    string
	trainer Trainer
}

func NewTrainJob(name string, t Trainer) *TrainJob {
	return &TrainJob{name: name, trainer: t}
}

func (j *TrainJob) Name() string {
	return j.name
}

func (j *TrainJob) Run(ctx context.Context) error {
	if j.trainer == nil {
		return nil
	}
	_, err := j.trainer.Run(ctx)
	return err
}
