package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/emreakar/regsearch/internal/core/domain"
	"github.com/emreakar/regsearch/internal/core/ports"
)

type fakeCompletionClient struct {
	responses []string
	err       error
	calls     []ports.CompletionParams
	prompts   []string
}

func (f *fakeCompletionClient) Complete(_ context.Context, prompt string, params ports.CompletionParams) (string, error) {
	f.calls = append(f.calls, params)
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	i := len(f.calls) - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i], nil
}

func newTestExtractor(client *fakeCompletionClient) *FeatureExtractor {
	extractor := NewFeatureExtractor(client)
	extractor.now = func() time.Time {
		return time.Date(2023, 9, 5, 12, 0, 0, 0, time.UTC)
	}
	return extractor
}

func TestExtractParsesDescriptorFromProseWrappedJSON(t *testing.T) {
	client := &fakeCompletionClient{responses: []string{
		"Here is the result:\n" +
			`{"begin_date":"2023-01-01T00:00:00-00:00","end_date":"","queries":["q1","q2"],` +
			`"keywords":["emission"],"sorting":"DESC","top_k":2,"language":"English"}` +
			"\nDone.",
	}}

	descriptor, err := newTestExtractor(client).Extract(context.Background(), "latest emission rules?")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if descriptor.BeginDate != "2023-01-01T00:00:00-00:00" {
		t.Fatalf("unexpected begin date %s", descriptor.BeginDate)
	}
	if len(descriptor.Queries) != 2 {
		t.Fatalf("expected 2 queries, got %v", descriptor.Queries)
	}
	if descriptor.Sorting != domain.SortDescending {
		t.Fatalf("expected normalized desc sorting, got %q", descriptor.Sorting)
	}
	if descriptor.TopK != 2 {
		t.Fatalf("expected top_k 2, got %d", descriptor.TopK)
	}

	if len(client.calls) != 1 {
		t.Fatalf("expected one completion call, got %d", len(client.calls))
	}
	if !client.calls[0].JSONResponse {
		t.Fatalf("feature extraction must request a JSON response")
	}
	if client.calls[0].Temperature != 0.0 {
		t.Fatalf("expected deterministic extraction, got temperature %v", client.calls[0].Temperature)
	}
}

func TestExtractDefaultsMissingFields(t *testing.T) {
	client := &fakeCompletionClient{responses: []string{`{"queries":[],"sorting":"newest","top_k":0}`}}

	descriptor, err := newTestExtractor(client).Extract(context.Background(), "what changed?")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(descriptor.Queries) != 1 || descriptor.Queries[0] != "what changed?" {
		t.Fatalf("expected question fallback, got %v", descriptor.Queries)
	}
	if descriptor.Sorting != "" {
		t.Fatalf("unknown sorting must normalize to empty, got %q", descriptor.Sorting)
	}
	if descriptor.TopK != -1 {
		t.Fatalf("top_k 0 must normalize to -1, got %d", descriptor.TopK)
	}
}

func TestExtractPropagatesCompletionFailure(t *testing.T) {
	client := &fakeCompletionClient{err: errors.New("upstream unavailable")}
	if _, err := newTestExtractor(client).Extract(context.Background(), "anything"); err == nil {
		t.Fatalf("expected error when completion fails")
	}
}

func TestExtractRejectsUnparseableResponse(t *testing.T) {
	client := &fakeCompletionClient{responses: []string{"no json at all"}}
	_, err := newTestExtractor(client).Extract(context.Background(), "anything")
	if err == nil {
		t.Fatalf("expected error for unparseable response")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
