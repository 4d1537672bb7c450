package trainer

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Summary reports what a training run consumed and how well it fits.
type Summary struct {
	Name        string  `json:"name"`
	Rows        int     `json:"rows"`
	Skipped     int     `json:"skipped"`
	TrainRows   int     `json:"train_rows,omitempty"`
	TestRows    int     `json:"test_rows,omitempty"`
	TrainR2     float64 `json:"train_r2,omitempty"`
	TestR2      float64 `json:"test_r2,omitempty"`
	Dimension   int     `json:"dimension,omitempty"`
	SelfHitRate float64 `json:"self_hit_rate,omitempty"`
	Output      string  `json:"output"`
}

func (s *Summary) log(ctx context.Context) {
	fields := []zap.Field{
		zap.String("name", s.Name),
		zap.Int("rows", s.Rows),
		zap.Int("skipped", s.Skipped),
		zap.String("output", s.Output),
	}
	if s.TrainRows > 0 {
		fields = append(fields,
			zap.Int("train_rows", s.TrainRows),
			zap.Int("test_rows", s.TestRows),
			zap.Float64("train_r2", s.TrainR2),
			zap.Float64("test_r2", s.TestR2),
		)
	}
	if s.Dimension > 0 {
		fields = append(fields, zap.Int("dimension", s.Dimension), zap.Float64("self_hit_rate", s.SelfHitRate))
	}
	logutil.GetLogger(ctx).Info("training finished", fields...)
}
