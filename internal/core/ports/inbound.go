package ports

import (
	"context"

	"github.com/emreakar/regsearch/internal/core/domain"
)

// IndexRunner is the inbound contract for a full ingestion run over the
// document container, starting at the given listing offset.
type IndexRunner interface {
	Run(ctx context.Context, offset int) error
}

// QueryService is the inbound contract for the retrieval/answering path.
type QueryService interface {
	Answer(ctx context.Context, question string) (*domain.Answer, error)
}
