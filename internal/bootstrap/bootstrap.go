package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emreakar/regsearch/internal/config"
	"github.com/emreakar/regsearch/internal/core/ports"
	"github.com/emreakar/regsearch/internal/core/usecase"
	"github.com/emreakar/regsearch/internal/infrastructure/blob/azblob"
	bloblocal "github.com/emreakar/regsearch/internal/infrastructure/blob/localfs"
	"github.com/emreakar/regsearch/internal/infrastructure/chunking"
	"github.com/emreakar/regsearch/internal/infrastructure/extractor/archive"
	"github.com/emreakar/regsearch/internal/infrastructure/extractor/content"
	"github.com/emreakar/regsearch/internal/infrastructure/llm/azopenai"
	"github.com/emreakar/regsearch/internal/infrastructure/queue/nats"
	"github.com/emreakar/regsearch/internal/infrastructure/repository/postgres"
	"github.com/emreakar/regsearch/internal/infrastructure/resilience"
	"github.com/emreakar/regsearch/internal/infrastructure/search/azsearch"
	"github.com/emreakar/regsearch/internal/observability/logging"
	"github.com/emreakar/regsearch/internal/observability/metrics"
)

// APIApp holds everything the query-side HTTP service needs. The API never
// touches postgres or the ingestion pipeline; runs are triggered over the
// queue and executed by the worker.
type APIApp struct {
	Config  config.Config
	Log     *slog.Logger
	Query   ports.QueryService
	Trigger ports.RunTrigger
	Metrics *metrics.HTTPServerMetrics

	closeFn func()
}

// WorkerApp holds the ingestion side: the queue subscription and the full
// blob-to-index pipeline behind it.
type WorkerApp struct {
	Config  config.Config
	Log     *slog.Logger
	Queue   *nats.Queue
	Runner  ports.IndexRunner
	Metrics *metrics.IndexerMetrics

	closeFn func()
}

func NewAPI(_ context.Context, cfg config.Config) (*APIApp, error) {
	log := logging.NewJSONLogger("regsearch-api", cfg.LogLevel)
	executor := newExecutor(log)

	index := newSearchIndex(cfg, executor)
	llm := newModelClient(cfg, executor)
	embedder := azopenai.NewEmbedder(llm)
	completer := azopenai.NewCompleter(llm)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	features := usecase.NewFeatureExtractor(completer)
	query := usecase.NewQueryUseCase(features, embedder, index, completer, usecase.QueryConfig{
		TopKContexts: cfg.TopKContexts,
		RRFK:         cfg.RRFK,
		DocumentCap:  cfg.DocumentCap,
	}, log)

	return &APIApp{
		Config:  cfg,
		Log:     log,
		Query:   query,
		Trigger: queue,
		Metrics: metrics.NewHTTPServerMetrics("regsearch-api"),

		closeFn: queue.Close,
	}, nil
}

func NewWorker(ctx context.Context, cfg config.Config) (*WorkerApp, error) {
	log := logging.NewJSONLogger("regsearch-worker", cfg.LogLevel)
	executor := newExecutor(log)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	journal := postgres.NewRunJournal(db)
	if err := journal.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure journal schema: %w", err)
	}

	blobs, err := newBlobStore(cfg, executor)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	index := newSearchIndex(cfg, executor)
	llm := newModelClient(cfg, executor)
	embedder := azopenai.NewEmbedder(llm)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	rule := usecase.FilenameRule{
		DateLayout:     cfg.FilenameDateLayout,
		TitleSeparator: cfg.FilenameTitleSeparator,
	}
	ingestor := usecase.NewDocumentIngestor(
		blobs,
		archive.New(cfg.TempDir),
		content.NewReader(log),
		chunking.NewSplitter(cfg.ParentChunkSize, cfg.ChildChunkSize),
		embedder,
		index,
		usecase.NewMetadataResolver(rule, cfg.Website, log),
		rule,
		usecase.IngestConfig{
			ParentCeiling: cfg.ParentCeiling,
			ChunkDumpPath: cfg.ChunkDumpPath,
		},
		log,
	)

	indexerMetrics := metrics.NewIndexerMetrics("regsearch-worker")
	runner := usecase.NewIndexRunUseCase(blobs, index, ingestor, journal, indexerMetrics, log)

	return &WorkerApp{
		Config:  cfg,
		Log:     log,
		Queue:   queue,
		Runner:  runner,
		Metrics: indexerMetrics,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func newExecutor(log *slog.Logger) *resilience.Executor {
	cfg := resilience.DefaultConfig()
	cfg.Logger = log
	return resilience.NewExecutor(cfg)
}

func newBlobStore(cfg config.Config, executor *resilience.Executor) (ports.BlobStore, error) {
	switch cfg.BlobBackend {
	case "azure":
		return azblob.New(cfg.BlobAccountURL, cfg.BlobContainer, cfg.BlobSASToken, azblob.Options{
			ResilienceExecutor: executor,
		}), nil
	case "localfs":
		store, err := bloblocal.New(cfg.DocumentsPath)
		if err != nil {
			return nil, fmt.Errorf("init local blob store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

func newSearchIndex(cfg config.Config, executor *resilience.Executor) *azsearch.Client {
	return azsearch.New(cfg.SearchEndpoint, cfg.SearchIndexName, cfg.SearchAPIKey, azsearch.Options{
		APIVersion:         cfg.SearchAPIVersion,
		VectorDimensions:   cfg.VectorDimensions,
		ResilienceExecutor: executor,
	})
}

func newModelClient(cfg config.Config, executor *resilience.Executor) *azopenai.Client {
	return azopenai.New(cfg.OpenAIEndpoint, cfg.OpenAIAPIKey, cfg.OpenAIEmbedDeployment, cfg.OpenAIChatDeployment, azopenai.Options{
		APIVersion:         cfg.OpenAIAPIVersion,
		ResilienceExecutor: executor,
	})
}

func (a *APIApp) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func (a *WorkerApp) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
