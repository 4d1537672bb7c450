package ai

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/viterin/vek/vek32"
)

const defaultLocalDimension = 384

type localConfig struct {
	Dimension int `json:"dimension"`
}

// localEmbedProvider is an offline feature-hashing embedder. Word tokens and
// character trigrams are hashed into signed buckets and the result is
// L2-normalised, so equal text always yields the same vector and texts that
// share vocabulary land close together.
type localEmbedProvider struct {
	dimension int
}

func NewLocalEmbedProvider(dimension int) IEmbedProvider {
	if dimension <= 0 {
		dimension = defaultLocalDimension
	}
	return &localEmbedProvider{dimension: dimension}
}

func (p *localEmbedProvider) Name() string {
	return "local"
}

func (p *localEmbedProvider) Embed(ctx context.Context, _ string, text string, _ string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float32, p.dimension)
	normalized := strings.ToLower(strings.TrimSpace(text))
	for _, tok := range tokenize(normalized) {
		p.addFeature(vec, "w:"+tok, 1.0)
	}
	for _, gram := range trigrams(normalized) {
		p.addFeature(vec, "c:"+gram, 0.5)
	}
	normSq := vek32.Dot(vec, vec)
	if normSq > 0 {
		vek32.MulNumber_Inplace(vec, float32(1/math.Sqrt(float64(normSq))))
	}
	return vec, nil
}

func (p *localEmbedProvider) addFeature(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(p.dimension))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func tokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() >= 2 {
			tokens = append(tokens, current.String())
		}
		current.Reset()
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

func trigrams(text string) []string {
	runes := []rune(text)
	if len(runes) < 3 {
		return nil
	}
	out := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		out = append(out, string(runes[i:i+3]))
	}
	return out
}

func createLocalEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &localConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Dimension < 0 {
		return nil, fmt.Errorf("local embedder dimension must be positive")
	}
	return NewLocalEmbedProvider(cfg.Dimension), nil
}

func init() {
	RegisterEmbed("local", createLocalEmbedFactory)
}
