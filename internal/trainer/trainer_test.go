package trainer

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/insuregenie/internal/ai"
	"github.com/xxxsen/insuregenie/internal/feature"
	"github.com/xxxsen/insuregenie/internal/filestore"
	"github.com/xxxsen/insuregenie/internal/reference"
	"github.com/xxxsen/insuregenie/internal/regress"
	"github.com/xxxsen/insuregenie/internal/retrieval"
	"github.com/xxxsen/insuregenie/internal/scoring"
)

func vehiclesCSV(n int) string {
	var b strings.Builder
	b.WriteString("vehicle_id,year,current_value,mileage,postcode,category,ownership_verified,fuel_type,area_risk_level,insurance_risk_score,monthly_premium_estimate\n")
	categories := []string{"standard", "luxury", "sports"}
	fuels := []string{"Petrol", "Diesel", "Hybrid", "Electric"}
	levels := []string{"low", "medium", "high", "very high"}
	for i := 0; i < n; i++ {
		year := 2010 + i%14
		value := 5000 + float64(i*731%60000)
		mileage := float64(i * 977 % 150000)
		risk := 10 + float64(2024-year)*2 + value*0.0005 + float64(i%4)*3
		premium := 10 + risk*0.5 + value*0.001
		verified := "True"
		if i%3 == 0 {
			verified = "False"
		}
		fmt.Fprintf(&b, "v%d,%d,%.0f,%.0f,E%d,%s,%s,%s,%s,%.2f,%.2f\n",
			i, year, value, mileage, i%4, categories[i%3], verified, fuels[i%4], levels[i%4], risk, premium)
	}
	b.WriteString("bad,notayear,1000,1,E1,standard,True,Petrol,low,50,20\n")
	return b.String()
}

const crimesCSV = `postcode,borough_crime_rate,borough_risk_level
E0,20,low
E1,40,medium
E1,60,medium
E2,70,high
`

const conversationsCSV = `training_conversation,location
"User: ""How much is my car worth?""
Bot: Your vehicle is valued at {value}.",
"User: What is my risk score?
Bot: Your current risk score is {risk_score}.",Leeds
"User: first question
Bot: first answer
User: How much will my premium be?
Bot: Your estimated premium is {premium}.",
"Bot: orphan response",
"User: question without answer",
`

func TestParseVehiclesSkipsMalformedRows(t *testing.T) {
	records, skipped, err := ParseVehicles(strings.NewReader(vehiclesCSV(10)))
	require.NoError(t, err)
	require.Len(t, records, 10)
	require.Equal(t, 1, skipped)
	require.Equal(t, 2010, records[0].Raw.YearOrDefault())
	require.False(t, records[0].Raw.VerifiedOrDefault())
	require.True(t, records[1].Raw.VerifiedOrDefault())
	require.NotNil(t, records[0].RiskScore)
}

func TestTrainRiskUsesEncoderOrder(t *testing.T) {
	records, _, err := ParseVehicles(strings.NewReader(vehiclesCSV(200)))
	require.NoError(t, err)
	areas, err := reference.Load(strings.NewReader(crimesCSV))
	require.NoError(t, err)

	m, summary, err := TrainRisk(records, areas, Options{})
	require.NoError(t, err)
	require.NoError(t, m.RequireFeatures(feature.NameList()))
	require.Equal(t, 200, summary.Rows)
	require.Equal(t, 40, summary.TestRows)
	require.Equal(t, 160, summary.TrainRows)
	require.Greater(t, summary.TrainR2, 0.99)

	again, _, err := TrainRisk(records, areas, Options{})
	require.NoError(t, err)
	require.Equal(t, m.Weights, again.Weights)
}

func TestTrainPremiumFeatures(t *testing.T) {
	records, _, err := ParseVehicles(strings.NewReader(vehiclesCSV(100)))
	require.NoError(t, err)
	records = append(records, VehicleRecord{})

	m, summary, err := TrainPremium(records, Options{})
	require.NoError(t, err)
	require.Equal(t, scoring.PremiumFeatures, m.Features)
	require.Equal(t, 1, summary.Skipped)
	require.Greater(t, summary.TestR2, 0.99)
}

func TestTrainRejectsTooFewRows(t *testing.T) {
	records, _, err := ParseVehicles(strings.NewReader(vehiclesCSV(3)))
	require.NoError(t, err)

	_, _, err = TrainPremium(records[:2], Options{})
	require.ErrorIs(t, err, regress.ErrTooFewSamples)
	require.Contains(t, err.Error(), "need at least 3 usable rows, got 2")

	_, summary, err := TrainPremium(records, Options{})
	require.NoError(t, err)
	require.Equal(t, 2, summary.TrainRows)
	require.Equal(t, 1, summary.TestRows)
}

func TestTrainersRunAgainstStore(t *testing.T) {
	ctx := context.Background()
	src := filestore.NewLocal(t.TempDir())
	sink := filestore.NewLocal(t.TempDir())
	require.NoError(t, filestore.WriteBytes(ctx, src, "raw/vehicles.csv", []byte(vehiclesCSV(120))))
	require.NoError(t, filestore.WriteBytes(ctx, src, "raw/crimes.csv", []byte(crimesCSV)))

	risk := &RiskTrainer{Source: src, Sink: sink, VehiclesKey: "raw/vehicles.csv", AreaCrimesKey: "raw/crimes.csv", OutputKey: "models/risk.json"}
	summary, err := risk.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Skipped)

	premium := &PremiumTrainer{Source: src, Sink: sink, VehiclesKey: "raw/vehicles.csv", OutputKey: "models/premium.json"}
	_, err = premium.Run(ctx)
	require.NoError(t, err)

	score, err := scoring.NewRiskModel(sink, "models/risk.json").Predict(ctx, feature.Encode(feature.RawAttributes{}, nil))
	require.NoError(t, err)
	require.False(t, math.IsNaN(score))
	p, err := scoring.NewPremiumCalculator(sink, "models/premium.json").Quote(ctx, score, 10000)
	require.NoError(t, err)
	require.GreaterOrEqual(t, p, scoring.MinPremium)

	_, err = (&RiskTrainer{Source: src, Sink: sink, VehiclesKey: "raw/absent.csv", AreaCrimesKey: "raw/crimes.csv", OutputKey: "x"}).Run(ctx)
	require.ErrorIs(t, err, filestore.ErrNotExist)
}

func TestParseConversation(t *testing.T) {
	q, r, ok := ParseConversation("User: \"Hi there\"  \nBot:  Hello!  ")
	require.True(t, ok)
	require.Equal(t, "Hi there", q)
	require.Equal(t, "Hello!", r)

	q, r, ok = ParseConversation("User: a\nBot: b\nUser: c\nBot: d")
	require.True(t, ok)
	require.Equal(t, "c", q)
	require.Equal(t, "d", r)

	_, _, ok = ParseConversation("Bot: only")
	require.False(t, ok)
	_, _, ok = ParseConversation("  User: indented\nBot: x")
	require.False(t, ok)
}

func TestIndexBuilderRun(t *testing.T) {
	ctx := context.Background()
	store := filestore.NewLocal(t.TempDir())
	require.NoError(t, filestore.WriteBytes(ctx, store, "raw/chat.csv", []byte(conversationsCSV)))
	embedder := ai.NewEmbedder(ai.NewLocalEmbedProvider(32), "hash")
	keys := retrieval.Keys{Vectors: "chat/index.vec", Responses: "chat/responses.json"}

	b := &IndexBuilder{Source: store, Sink: store, ConversationsKey: "raw/chat.csv", Keys: keys, Embedder: embedder}
	summary, err := b.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Rows)
	require.Equal(t, 2, summary.Skipped)
	require.Equal(t, 32, summary.Dimension)
	require.Equal(t, 1.0, summary.SelfHitRate)

	ix, err := retrieval.Load(ctx, store, keys)
	require.NoError(t, err)
	require.Equal(t, 3, ix.Len())

	answer, err := retrieval.NewEngine(embedder, store, keys).Answer(ctx, "How much will my premium be?", &retrieval.Context{})
	require.NoError(t, err)
	require.Equal(t, "Your estimated premium is {premium}.", answer)
}

func TestParseExamplesContext(t *testing.T) {
	tbl, err := parseCSV(strings.NewReader(conversationsCSV))
	require.NoError(t, err)
	examples, skipped, err := ParseExamples(tbl)
	require.NoError(t, err)
	require.Equal(t, 2, skipped)
	require.Equal(t, "London", examples[0].Context["location"])
	require.Equal(t, "Leeds", examples[1].Context["location"])
	require.Equal(t, "How much is my car worth?", examples[0].Query)
}
