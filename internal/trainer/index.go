package trainer

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insuregenie/internal/ai"
	"github.com/xxxsen/insuregenie/internal/filestore"
	"github.com/xxxsen/insuregenie/internal/retrieval"
)

const ColumnConversation = "training_conversation"

// contextColumns are copied from a conversation row into the stored
// context template when present.
var contextColumns = []string{"value", "risk_score", "premium", "vehicle_info", "location"}

// Example is one query/response pair of the assistant corpus.
type Example struct {
	Query    string
	Response string
	Context  map[string]string
}

// ParseConversation extracts the last "User:" line as the query and the
// last "Bot:" line as the response. ok is false when either is empty.
func ParseConversation(conversation string) (query string, response string, ok bool) {
	for _, line := range strings.Split(conversation, "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case strings.HasPrefix(line, "User:"):
			query = strings.Trim(strings.TrimSpace(strings.TrimPrefix(line, "User:")), `"`)
		case strings.HasPrefix(line, "Bot:"):
			response = strings.TrimSpace(strings.TrimPrefix(line, "Bot:"))
		}
	}
	return query, response, query != "" && response != ""
}

// ParseExamples reads the conversation dataset and returns the usable
// examples plus the number of rows skipped.
func ParseExamples(t *table) ([]Example, int, error) {
	if err := t.require(ColumnConversation); err != nil {
		return nil, 0, fmt.Errorf("conversations: %w", err)
	}
	examples := make([]Example, 0, len(t.rows))
	skipped := 0
	for _, row := range t.rows {
		q, r, ok := ParseConversation(t.value(row, ColumnConversation))
		if !ok {
			skipped++
			continue
		}
		fields := make(map[string]string)
		for _, col := range contextColumns {
			if t.has(col) {
				fields[col] = t.value(row, col)
			}
		}
		if loc, present := fields["location"]; present && loc == "" {
			fields["location"] = "London"
		}
		examples = append(examples, Example{Query: q, Response: r, Context: fields})
	}
	return examples, skipped, nil
}

// BuildIndex embeds every query and measures how many examples retrieve
// themselves at rank 0.
func BuildIndex(ctx context.Context, embedder ai.IEmbedder, examples []Example) (*retrieval.Index, *Summary, error) {
	if len(examples) == 0 {
		return nil, nil, fmt.Errorf("build index: no usable conversations")
	}
	vectors := make([][]float32, len(examples))
	for i, ex := range examples {
		vec, err := embedder.Embed(ctx, ex.Query, ai.TaskTypeSimilarity)
		if err != nil {
			return nil, nil, fmt.Errorf("embed example %d: %w", i, err)
		}
		vectors[i] = vec
	}
	ix := retrieval.NewIndex(embedder.ModelName(), len(vectors[0]))
	for i, ex := range examples {
		if err := ix.Add(vectors[i], ex.Response, ex.Context); err != nil {
			return nil, nil, fmt.Errorf("add example %d: %w", i, err)
		}
	}
	hits := 0
	for i, vec := range vectors {
		matches, err := ix.Search(vec, 1)
		if err != nil {
			return nil, nil, err
		}
		if matches[0].Row == i || matches[0].Response == examples[i].Response {
			hits++
		}
	}
	return ix, &Summary{
		Name:        NameIndex,
		Rows:        len(examples),
		Dimension:   ix.Dim(),
		SelfHitRate: float64(hits) / float64(len(examples)),
	}, nil
}

// IndexBuilder reads the conversation dataset from Source, embeds it and
// writes both index artifacts to Sink.
type IndexBuilder struct {
	Source           filestore.Store
	Sink             filestore.Store
	ConversationsKey string
	Keys             retrieval.Keys
	Embedder         ai.IEmbedder
}

func (b *IndexBuilder) Run(ctx context.Context) (*Summary, error) {
	t, err := readDataset(ctx, b.Source, b.ConversationsKey)
	if err != nil {
		return nil, err
	}
	examples, skipped, err := ParseExamples(t)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		logutil.GetLogger(ctx).Warn("skipped conversations without a query or response", zap.Int("count", skipped))
	}
	ix, summary, err := BuildIndex(ctx, b.Embedder, examples)
	if err != nil {
		return nil, err
	}
	summary.Skipped = skipped
	if err := retrieval.Save(ctx, b.Sink, b.Keys, ix); err != nil {
		return nil, err
	}
	summary.Output = b.Keys.Vectors
	summary.log(ctx)
	return summary, nil
}
