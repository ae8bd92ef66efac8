package ports

import (
	"context"

	"github.com/emreakar/regsearch/internal/core/domain"
)

// BlobStore lists and downloads source archives from the document container.
type BlobStore interface {
	List(ctx context.Context) ([]string, error)
	Download(ctx context.Context, name string) ([]byte, error)
}

// ArchiveExtractor unpacks one downloaded archive into a directory scoped to a
// single document's processing. The caller runs cleanup afterwards.
type ArchiveExtractor interface {
	ExtractZip(data []byte) (dir string, cleanup func(), err error)
}

// ContentReader walks an extracted document directory and collects its
// txt/pdf/json content plus the raw metadata file, if present.
type ContentReader interface {
	ReadContent(dir string) (domain.ExtractedContent, error)
	ReadMetadata(dir string) (map[string]any, error)
}

// Chunker splits document text into the parent/child hierarchy.
type Chunker interface {
	SplitDocument(text string) domain.ParentChildChunkMap
	SplitPages(pages []string) domain.ParentChildChunkMap
}

// Embedder builds a fixed-dimension vector for one chunk or query text.
// A failure means the text cannot be ingested or searched semantically.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CompletionParams tune one completion call.
type CompletionParams struct {
	Temperature   float64
	MaxTokens     int
	TopP          float64
	JSONResponse  bool
	SystemMessage string
	History       []CompletionMessage
}

type CompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionClient produces text from a prompt. Used for both query feature
// extraction (JSON mode) and answer composition.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, params CompletionParams) (string, error)
}

// SearchFilter constrains a hybrid search.
type SearchFilter struct {
	BeginDate string
	EndDate   string
	Titles    []string
}

// SearchRequest describes one hybrid search against the index.
type SearchRequest struct {
	QueryText string
	Keywords  []string
	Vector    []float32
	Filter    SearchFilter
	OrderBy   string
	Top       int
	// Exhaustive forces full-scan vector scoring instead of ANN. Set when a
	// title restriction narrows the candidate set.
	Exhaustive bool
}

// SearchIndex is the single versioned interface over the external index
// service. Schema evolution is a migration concern behind it.
type SearchIndex interface {
	Create(ctx context.Context) error
	Exists(ctx context.Context) (bool, error)
	Upload(ctx context.Context, chunks []domain.Chunk) error
	Search(ctx context.Context, req SearchRequest) ([]domain.RetrievalContext, error)
	SelectDocuments(ctx context.Context, filter SearchFilter, orderBy string) ([]domain.DocumentRef, error)
	DocumentExists(ctx context.Context, title, date string) (bool, error)
	Delete(ctx context.Context) error
}

// DocumentOutcome records what happened to one source document in a run.
type DocumentOutcome struct {
	BlobName   string
	Status     string
	SkipReason string
	ChunkCount int
}

// RunJournal persists ingestion run progress for resume and audit.
type RunJournal interface {
	StartRun(ctx context.Context, offset int) (runID string, err error)
	RecordDocument(ctx context.Context, runID string, outcome DocumentOutcome) error
	FinishRun(ctx context.Context, runID string, ingested, skipped int) error
}

// RunTrigger connects the HTTP trigger endpoint to the indexing worker.
type RunTrigger interface {
	PublishRunRequested(ctx context.Context, offset int) error
	SubscribeRunRequested(ctx context.Context, handler func(context.Context, int) error) error
}
