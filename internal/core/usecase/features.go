package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/emreakar/regsearch/internal/core/domain"
	"github.com/emreakar/regsearch/internal/core/ports"
	"github.com/emreakar/regsearch/internal/prompts"
)

// FeatureExtractor turns a free-text question into a QueryDescriptor through
// one JSON-mode completion call. A completion failure is fatal for the query.
type FeatureExtractor struct {
	completions ports.CompletionClient
	now         func() time.Time
}

func NewFeatureExtractor(completions ports.CompletionClient) *FeatureExtractor {
	return &FeatureExtractor{
		completions: completions,
		now:         time.Now,
	}
}

func (e *FeatureExtractor) Extract(ctx context.Context, question string) (domain.QueryDescriptor, error) {
	prompt := prompts.BuildFeatureExtractionPrompt(question, e.now())
	raw, err := e.completions.Complete(ctx, prompt, ports.CompletionParams{
		Temperature:   0.0,
		MaxTokens:     1024,
		JSONResponse:  true,
		SystemMessage: prompts.FeatureExtractionSystemMessage,
	})
	if err != nil {
		return domain.QueryDescriptor{}, fmt.Errorf("feature extraction completion: %w", err)
	}

	var descriptor domain.QueryDescriptor
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &descriptor); err != nil {
		return domain.QueryDescriptor{}, domain.WrapError(domain.ErrInvalidInput,
			"parse feature extraction response", err)
	}

	return normalizeDescriptor(descriptor, question), nil
}

func normalizeDescriptor(d domain.QueryDescriptor, question string) domain.QueryDescriptor {
	if len(d.Queries) == 0 {
		d.Queries = []string{question}
	}
	switch strings.ToLower(strings.TrimSpace(d.Sorting)) {
	case domain.SortAscending:
		d.Sorting = domain.SortAscending
	case domain.SortDescending:
		d.Sorting = domain.SortDescending
	default:
		d.Sorting = ""
	}
	if d.TopK == 0 {
		d.TopK = -1
	}
	return d
}

// extractJSONObject trims any prose the model wrapped around the JSON body.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
