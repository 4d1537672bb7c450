package trainer

import (
	"context"
	"fmt"

	"github.com/xxxsen/insuregenie/internal/feature"
	"github.com/xxxsen/insuregenie/internal/filestore"
	"github.com/xxxsen/insuregenie/internal/reference"
	"github.com/xxxsen/insuregenie/internal/regress"
	"github.com/xxxsen/insuregenie/internal/scoring"
)

const (
	NameRisk    = "risk"
	NamePremium = "premium"
	NameIndex   = "index"

	DefaultTestFraction = 0.2
)

// Options control the split and the regressor. Zero values take the
// defaults.
type Options struct {
	TestFraction float64
	Seed         uint64
	Lambda       float64
}

func (o Options) withDefaults() Options {
	if o.TestFraction <= 0 || o.TestFraction >= 1 {
		o.TestFraction = DefaultTestFraction
	}
	if o.Seed == 0 {
		o.Seed = regress.DefaultSeed
	}
	return o
}

// TrainRisk fits the risk regressor on records labelled with a risk score,
// encoding each with the same encoder used at scoring time.
func TrainRisk(records []VehicleRecord, areas feature.AreaLookup, opts Options) (*regress.Model, *Summary, error) {
	x := make([][]float64, 0, len(records))
	y := make([]float64, 0, len(records))
	skipped := 0
	for _, rec := range records {
		if rec.RiskScore == nil {
			skipped++
			continue
		}
		x = append(x, feature.Encode(rec.Raw, areas).Slice())
		y = append(y, *rec.RiskScore)
	}
	return fitAndScore(NameRisk, x, y, skipped, regress.Options{
		Features: feature.NameList(),
		Target:   ColumnRiskScore,
	}, opts)
}

// TrainPremium fits the premium regressor on [risk, coverage, value] rows.
func TrainPremium(records []VehicleRecord, opts Options) (*regress.Model, *Summary, error) {
	x := make([][]float64, 0, len(records))
	y := make([]float64, 0, len(records))
	skipped := 0
	for _, rec := range records {
		if rec.RiskScore == nil || rec.MonthlyPremium == nil || rec.Raw.CurrentValue == nil {
			skipped++
			continue
		}
		value := *rec.Raw.CurrentValue
		x = append(x, []float64{*rec.RiskScore, value * scoring.CoverageRatio, value})
		y = append(y, *rec.MonthlyPremium)
	}
	return fitAndScore(NamePremium, x, y, skipped, regress.Options{
		Features: scoring.PremiumFeatures,
		Target:   ColumnMonthlyPremium,
	}, opts)
}

func fitAndScore(name string, x [][]float64, y []float64, skipped int, fit regress.Options, opts Options) (*regress.Model, *Summary, error) {
	opts = opts.withDefaults()
	fit.Lambda = opts.Lambda
	if len(x) < regress.MinSplitRows {
		return nil, nil, fmt.Errorf("%s model: %w: need at least %d usable rows, got %d (%d skipped)",
			name, regress.ErrTooFewSamples, regress.MinSplitRows, len(x), skipped)
	}
	trainIdx, testIdx := regress.TrainTestSplit(len(x), opts.TestFraction, opts.Seed)
	xTrain, yTrain := regress.Take(x, y, trainIdx)
	xTest, yTest := regress.Take(x, y, testIdx)
	m, err := regress.Fit(xTrain, yTrain, fit)
	if err != nil {
		return nil, nil, fmt.Errorf("%s model: %w", name, err)
	}
	trainR2, err := m.Score(xTrain, yTrain)
	if err != nil {
		return nil, nil, err
	}
	testR2, err := m.Score(xTest, yTest)
	if err != nil {
		return nil, nil, err
	}
	return m, &Summary{
		Name:      name,
		Rows:      len(x),
		Skipped:   skipped,
		TrainRows: len(xTrain),
		TestRows:  len(xTest),
		TrainR2:   trainR2,
		TestR2:    testR2,
	}, nil
}

// RiskTrainer reads the vehicle and area-crime datasets from Source and
// writes the fitted artifact to Sink.
type RiskTrainer struct {
	Source        filestore.Store
	Sink          filestore.Store
	VehiclesKey   string
	AreaCrimesKey string
	OutputKey     string
	Options       Options
}

func (t *RiskTrainer) Run(ctx context.Context) (*Summary, error) {
	areas, err := reference.LoadFromStore(ctx, t.Source, t.AreaCrimesKey)
	if err != nil {
		return nil, err
	}
	records, parseSkipped, err := loadVehicles(ctx, t.Source, t.VehiclesKey)
	if err != nil {
		return nil, err
	}
	m, summary, err := TrainRisk(records, areas, t.Options)
	if err != nil {
		return nil, err
	}
	summary.Skipped += parseSkipped
	return persistModel(ctx, t.Sink, t.OutputKey, m, summary)
}

// PremiumTrainer reads the vehicle dataset from Source and writes the
// fitted artifact to Sink.
type PremiumTrainer struct {
	Source      filestore.Store
	Sink        filestore.Store
	VehiclesKey string
	OutputKey   string
	Options     Options
}

func (t *PremiumTrainer) Run(ctx context.Context) (*Summary, error) {
	records, parseSkipped, err := loadVehicles(ctx, t.Source, t.VehiclesKey)
	if err != nil {
		return nil, err
	}
	m, summary, err := TrainPremium(records, t.Options)
	if err != nil {
		return nil, err
	}
	summary.Skipped += parseSkipped
	return persistModel(ctx, t.Sink, t.OutputKey, m, summary)
}

func loadVehicles(ctx context.Context, store filestore.Store, key string) ([]VehicleRecord, int, error) {
	t, err := readDataset(ctx, store, key)
	if err != nil {
		return nil, 0, err
	}
	return t.vehicles()
}

func persistModel(ctx context.Context, sink filestore.Store, key string, m *regress.Model, summary *Summary) (*Summary, error) {
	data, err := regress.Marshal(m)
	if err != nil {
		return nil, err
	}
	if err := filestore.WriteBytes(ctx, sink, key, data); err != nil {
		return nil, fmt.Errorf("write %s model: %w", summary.Name, err)
	}
	summary.Output = key
	summary.log(ctx)
	return summary, nil
}
