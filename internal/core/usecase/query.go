package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emreakar/regsearch/internal/core/domain"
	"github.com/emreakar/regsearch/internal/core/ports"
	"github.com/emreakar/regsearch/internal/prompts"
)

type QueryConfig struct {
	TopKContexts int
	RRFK         int
	DocumentCap  int
}

func (c QueryConfig) normalize() QueryConfig {
	if c.TopKContexts <= 0 {
		c.TopKContexts = 6
	}
	if c.RRFK <= 0 {
		c.RRFK = 60
	}
	if c.DocumentCap <= 0 {
		c.DocumentCap = documentCap
	}
	return c
}

// QueryUseCase runs the retrieval path: feature extraction, optional document
// selection, per-paraphrase hybrid search, duplicate suppression, RRF fusion
// and answer composition.
type QueryUseCase struct {
	features    *FeatureExtractor
	embedder    ports.Embedder
	index       ports.SearchIndex
	completions ports.CompletionClient
	cfg         QueryConfig
	log         *slog.Logger
}

func NewQueryUseCase(
	features *FeatureExtractor,
	embedder ports.Embedder,
	index ports.SearchIndex,
	completions ports.CompletionClient,
	cfg QueryConfig,
	log *slog.Logger,
) *QueryUseCase {
	return &QueryUseCase{
		features:    features,
		embedder:    embedder,
		index:       index,
		completions: completions,
		cfg:         cfg.normalize(),
		log:         log,
	}
}

func (uc *QueryUseCase) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	descriptor, err := uc.features.Extract(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("extract query features: %w", err)
	}

	filter := ports.SearchFilter{
		BeginDate: descriptor.BeginDate,
		EndDate:   descriptor.EndDate,
	}
	orderBy := orderByClause(descriptor.Sorting)

	// When top_k constrains the answer to specific regulations, document
	// selection runs first and its titles restrict every passage search.
	if descriptor.TopK > 0 {
		refs, err := uc.index.SelectDocuments(ctx, filter, orderBy)
		if err != nil {
			return nil, fmt.Errorf("select candidate documents: %w", err)
		}
		filter.Titles = selectDistinctTitles(refs, descriptor.Sorting, uc.cfg.DocumentCap)
	}

	lists := uc.searchParaphrases(ctx, descriptor, filter, orderBy)
	if len(lists) == 0 {
		return nil, domain.WrapError(domain.ErrTemporary, "hybrid search",
			fmt.Errorf("no paraphrase search succeeded"))
	}

	fused := fuseContextsRRF(lists, uc.cfg.RRFK)
	if len(fused) > uc.cfg.TopKContexts {
		fused = fused[:uc.cfg.TopKContexts]
	}

	prompt := prompts.BuildAnsweringPrompt(question, fused, descriptor.Language)
	answerText, err := uc.completions.Complete(ctx, prompt, ports.CompletionParams{
		Temperature:   0.7,
		MaxTokens:     2048,
		TopP:          0.95,
		SystemMessage: prompts.AnsweringSystemMessage,
	})
	if err != nil {
		return nil, fmt.Errorf("compose answer: %w", err)
	}

	return &domain.Answer{
		Text:    answerText,
		Sources: fused,
	}, nil
}

// searchParaphrases runs one hybrid search per paraphrased query. A failing
// paraphrase is logged and dropped; fusion works with whatever succeeded.
func (uc *QueryUseCase) searchParaphrases(
	ctx context.Context,
	descriptor domain.QueryDescriptor,
	filter ports.SearchFilter,
	orderBy string,
) [][]domain.RetrievalContext {
	// Under a title restriction the sort order already did its job during
	// document selection; passage search must return the most relevant
	// chunks of the chosen documents, not the newest ones.
	titleRestricted := len(filter.Titles) > 0
	if titleRestricted {
		orderBy = ""
	}

	lists := make([][]domain.RetrievalContext, 0, len(descriptor.Queries))
	for _, query := range descriptor.Queries {
		vector, err := uc.embedder.Embed(ctx, query)
		if err != nil {
			uc.log.Warn("query embedding failed", "query", query, "error", err)
			continue
		}

		contexts, err := uc.index.Search(ctx, ports.SearchRequest{
			QueryText:  query,
			Keywords:   descriptor.Keywords,
			Vector:     vector,
			Filter:     filter,
			OrderBy:    orderBy,
			Top:        uc.cfg.TopKContexts,
			Exhaustive: titleRestricted,
		})
		if err != nil {
			uc.log.Warn("hybrid search failed", "query", query, "error", err)
			continue
		}
		lists = append(lists, removeDuplicateContexts(contexts))
	}
	return lists
}

func orderByClause(sorting string) string {
	switch sorting {
	case domain.SortAscending:
		return "date asc"
	case domain.SortDescending:
		return "date desc"
	default:
		return ""
	}
}
