package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/emreakar/regsearch/internal/core/domain"
	"github.com/emreakar/regsearch/internal/core/ports"
)

type fakeEmbedder struct {
	failFor map[string]bool
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.failFor[text] {
		return nil, errors.New("embedding unavailable")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeSearchIndex struct {
	results        map[string][]domain.RetrievalContext
	searchErrFor   map[string]bool
	searchRequests []ports.SearchRequest

	refs          []domain.DocumentRef
	selectErr     error
	selectCalled  bool
	selectFilter  ports.SearchFilter
	selectOrderBy string

	uploaded  []domain.Chunk
	uploadErr error
	docExists bool
}

func (f *fakeSearchIndex) Create(context.Context) error         { return nil }
func (f *fakeSearchIndex) Exists(context.Context) (bool, error) { return true, nil }
func (f *fakeSearchIndex) Delete(context.Context) error         { return nil }

func (f *fakeSearchIndex) Upload(_ context.Context, chunks []domain.Chunk) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploaded = append(f.uploaded, chunks...)
	return nil
}

func (f *fakeSearchIndex) Search(_ context.Context, req ports.SearchRequest) ([]domain.RetrievalContext, error) {
	f.searchRequests = append(f.searchRequests, req)
	if f.searchErrFor[req.QueryText] {
		return nil, errors.New("search backend error")
	}
	return f.results[req.QueryText], nil
}

func (f *fakeSearchIndex) SelectDocuments(_ context.Context, filter ports.SearchFilter, orderBy string) ([]domain.DocumentRef, error) {
	f.selectCalled = true
	f.selectFilter = filter
	f.selectOrderBy = orderBy
	return f.refs, f.selectErr
}

func (f *fakeSearchIndex) DocumentExists(context.Context, string, string) (bool, error) {
	return f.docExists, nil
}

func descriptorJSON(queries []string, topK int, sorting string) string {
	parts := make([]string, len(queries))
	for i, q := range queries {
		parts[i] = `"` + q + `"`
	}
	return fmt.Sprintf(`{"begin_date":"","end_date":"","queries":[%s],"keywords":["regulation"],"sorting":"%s","top_k":%d,"language":"English"}`,
		strings.Join(parts, ","), sorting, topK)
}

func TestAnswerUnconstrainedSkipsDocumentSelection(t *testing.T) {
	client := &fakeCompletionClient{responses: []string{
		descriptorJSON([]string{"q1"}, -1, ""),
		"composed answer",
	}}
	index := &fakeSearchIndex{
		results: map[string][]domain.RetrievalContext{
			"q1": {
				{ParentID: "A", ParentChunk: "alpha"},
				{ParentID: "B", ParentChunk: "beta"},
			},
		},
	}

	uc := NewQueryUseCase(newTestExtractor(client), &fakeEmbedder{}, index, client,
		QueryConfig{}, discardLogger())

	answer, err := uc.Answer(context.Background(), "what are the rules?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if index.selectCalled {
		t.Fatalf("document selection must not run when top_k is unconstrained")
	}
	if answer.Text != "composed answer" {
		t.Fatalf("unexpected answer text %q", answer.Text)
	}
	if len(answer.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(answer.Sources))
	}
	if len(index.searchRequests) != 1 || index.searchRequests[0].Exhaustive {
		t.Fatalf("expected one non-exhaustive search, got %+v", index.searchRequests)
	}
}

func TestAnswerConstrainedRestrictsByTitles(t *testing.T) {
	client := &fakeCompletionClient{responses: []string{
		descriptorJSON([]string{"q1"}, 2, "desc"),
		"composed answer",
	}}
	index := &fakeSearchIndex{
		refs: []domain.DocumentRef{
			{Title: "Reg A", Date: "2023-01-01T00:00:00-00:00"},
			{Title: "Reg B", Date: "2024-01-01T00:00:00-00:00"},
		},
		results: map[string][]domain.RetrievalContext{
			"q1": {{ParentID: "A", ParentChunk: "alpha", Title: "Reg B"}},
		},
	}

	uc := NewQueryUseCase(newTestExtractor(client), &fakeEmbedder{}, index, client,
		QueryConfig{}, discardLogger())

	if _, err := uc.Answer(context.Background(), "latest two regs?"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !index.selectCalled {
		t.Fatalf("document selection must run when top_k > 0")
	}
	if index.selectOrderBy != "date desc" {
		t.Fatalf("expected date desc ordering, got %q", index.selectOrderBy)
	}

	req := index.searchRequests[0]
	if len(req.Filter.Titles) != 2 || req.Filter.Titles[0] != "Reg B" {
		t.Fatalf("expected title restriction sorted by date desc, got %v", req.Filter.Titles)
	}
	if !req.Exhaustive {
		t.Fatalf("title-restricted search must be exhaustive")
	}
	if req.OrderBy != "" {
		t.Fatalf("title-restricted search must rank by relevance, got order %q", req.OrderBy)
	}
}

func TestAnswerUnconstrainedForwardsSortOrder(t *testing.T) {
	client := &fakeCompletionClient{responses: []string{
		descriptorJSON([]string{"q1"}, -1, "desc"),
		"composed answer",
	}}
	index := &fakeSearchIndex{
		results: map[string][]domain.RetrievalContext{
			"q1": {{ParentID: "A", ParentChunk: "alpha"}},
		},
	}

	uc := NewQueryUseCase(newTestExtractor(client), &fakeEmbedder{}, index, client,
		QueryConfig{}, discardLogger())

	if _, err := uc.Answer(context.Background(), "newest regs?"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if got := index.searchRequests[0].OrderBy; got != "date desc" {
		t.Fatalf("unconstrained search must keep the sort order, got %q", got)
	}
}

func TestAnswerFusesAcrossParaphrases(t *testing.T) {
	client := &fakeCompletionClient{responses: []string{
		`{"queries":["q1","q2"],"top_k":-1}`,
		"composed answer",
	}}
	index := &fakeSearchIndex{
		results: map[string][]domain.RetrievalContext{
			"q1": {
				{ParentID: "A", ParentChunk: "alpha"},
				{ParentID: "B", ParentChunk: "beta"},
			},
			"q2": {
				{ParentID: "B", ParentChunk: "beta again"},
				{ParentID: "C", ParentChunk: "gamma"},
			},
		},
	}

	uc := NewQueryUseCase(newTestExtractor(client), &fakeEmbedder{}, index, client,
		QueryConfig{}, discardLogger())

	answer, err := uc.Answer(context.Background(), "question")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if len(answer.Sources) != 3 {
		t.Fatalf("expected 3 fused sources, got %d", len(answer.Sources))
	}
	// B appears in both lists and must outrank the single-list parents.
	if answer.Sources[0].ParentID != "B" {
		t.Fatalf("expected parent B first after fusion, got %s", answer.Sources[0].ParentID)
	}
	if answer.Sources[0].ParentChunk != "beta" {
		t.Fatalf("expected first-seen record for parent B, got %q", answer.Sources[0].ParentChunk)
	}
}

func TestAnswerDropsFailingParaphrases(t *testing.T) {
	client := &fakeCompletionClient{responses: []string{
		`{"queries":["good","bad-embed","bad-search"],"top_k":-1}`,
		"composed answer",
	}}
	index := &fakeSearchIndex{
		results: map[string][]domain.RetrievalContext{
			"good": {{ParentID: "A", ParentChunk: "alpha"}},
		},
		searchErrFor: map[string]bool{"bad-search": true},
	}

	uc := NewQueryUseCase(newTestExtractor(client),
		&fakeEmbedder{failFor: map[string]bool{"bad-embed": true}},
		index, client, QueryConfig{}, discardLogger())

	answer, err := uc.Answer(context.Background(), "question")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].ParentID != "A" {
		t.Fatalf("expected the single surviving paraphrase result, got %+v", answer.Sources)
	}
}

func TestAnswerFailsWhenEveryParaphraseFails(t *testing.T) {
	client := &fakeCompletionClient{responses: []string{`{"queries":["q1"],"top_k":-1}`}}
	index := &fakeSearchIndex{searchErrFor: map[string]bool{"q1": true}}

	uc := NewQueryUseCase(newTestExtractor(client), &fakeEmbedder{}, index, client,
		QueryConfig{}, discardLogger())

	_, err := uc.Answer(context.Background(), "question")
	if err == nil {
		t.Fatalf("expected error when no paraphrase search succeeds")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
}

func TestAnswerTruncatesFusedContexts(t *testing.T) {
	client := &fakeCompletionClient{responses: []string{
		`{"queries":["q1"],"top_k":-1}`,
		"composed answer",
	}}
	hits := make([]domain.RetrievalContext, 10)
	for i := range hits {
		hits[i] = domain.RetrievalContext{ParentID: string(rune('A' + i))}
	}
	index := &fakeSearchIndex{results: map[string][]domain.RetrievalContext{"q1": hits}}

	uc := NewQueryUseCase(newTestExtractor(client), &fakeEmbedder{}, index, client,
		QueryConfig{TopKContexts: 4}, discardLogger())

	answer, err := uc.Answer(context.Background(), "question")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if len(answer.Sources) != 4 {
		t.Fatalf("expected 4 contexts after truncation, got %d", len(answer.Sources))
	}
}
