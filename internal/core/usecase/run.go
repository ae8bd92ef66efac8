package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emreakar/regsearch/internal/core/ports"
)

// blobIngestor lets the run loop be tested against a fake pipeline.
type blobIngestor interface {
	IngestBlob(ctx context.Context, blobName string) ports.DocumentOutcome
}

// RunObserver receives per-document and per-run measurements.
// Implementations live in the observability layer.
type RunObserver interface {
	DocumentProcessed(status, reason string, chunks int, elapsed time.Duration)
	RunCompleted(ingested, skipped int, elapsed time.Duration)
}

// IndexRunUseCase drives one sequential ingestion batch over the container
// listing, starting at a resume offset. Documents are processed one at a time;
// each document's buffers are released before the next starts.
type IndexRunUseCase struct {
	blobs    ports.BlobStore
	index    ports.SearchIndex
	ingestor blobIngestor
	journal  ports.RunJournal
	observer RunObserver
	log      *slog.Logger
}

func NewIndexRunUseCase(
	blobs ports.BlobStore,
	index ports.SearchIndex,
	ingestor blobIngestor,
	journal ports.RunJournal,
	observer RunObserver,
	log *slog.Logger,
) *IndexRunUseCase {
	return &IndexRunUseCase{
		blobs:    blobs,
		index:    index,
		ingestor: ingestor,
		journal:  journal,
		observer: observer,
		log:      log,
	}
}

func (uc *IndexRunUseCase) Run(ctx context.Context, offset int) error {
	if offset < 0 {
		offset = 0
	}

	if err := uc.index.Create(ctx); err != nil {
		return fmt.Errorf("ensure search index: %w", err)
	}

	blobs, err := uc.blobs.List(ctx)
	if err != nil {
		return fmt.Errorf("list blobs: %w", err)
	}
	if offset >= len(blobs) {
		uc.log.Info("offset beyond container listing, nothing to do",
			"offset", offset, "blobs", len(blobs))
		return nil
	}

	runID := uc.startJournal(ctx, offset)
	runStart := time.Now()
	ingested, skipped := 0, 0

	for counter, blobName := range blobs[offset:] {
		if err := ctx.Err(); err != nil {
			uc.finishJournal(ctx, runID, ingested, skipped)
			return err
		}
		if !strings.HasSuffix(blobName, ".zip") {
			continue
		}

		docStart := time.Now()
		outcome := uc.ingestor.IngestBlob(ctx, blobName)
		elapsed := time.Since(docStart)

		if outcome.Status == StatusIngested {
			ingested++
		} else {
			skipped++
		}
		uc.recordJournal(ctx, runID, outcome)
		if uc.observer != nil {
			uc.observer.DocumentProcessed(outcome.Status, outcome.SkipReason, outcome.ChunkCount, elapsed)
		}
		uc.log.Info("index counter", "counter", offset+counter+1, "blob", blobName,
			"status", outcome.Status, "reason", outcome.SkipReason)
	}

	uc.finishJournal(ctx, runID, ingested, skipped)
	if uc.observer != nil {
		uc.observer.RunCompleted(ingested, skipped, time.Since(runStart))
	}
	uc.log.Info("ingestion run finished",
		"offset", offset, "ingested", ingested, "skipped", skipped)
	return nil
}

// Journal failures never interrupt a run; the journal is audit, not control.

func (uc *IndexRunUseCase) startJournal(ctx context.Context, offset int) string {
	if uc.journal == nil {
		return ""
	}
	runID, err := uc.journal.StartRun(ctx, offset)
	if err != nil {
		uc.log.Warn("run journal unavailable", "error", err)
		return ""
	}
	return runID
}

func (uc *IndexRunUseCase) recordJournal(ctx context.Context, runID string, outcome ports.DocumentOutcome) {
	if uc.journal == nil || runID == "" {
		return
	}
	if err := uc.journal.RecordDocument(ctx, runID, outcome); err != nil {
		uc.log.Warn("journal record failed", "blob", outcome.BlobName, "error", err)
	}
}

func (uc *IndexRunUseCase) finishJournal(ctx context.Context, runID string, ingested, skipped int) {
	if uc.journal == nil || runID == "" {
		return
	}
	if err := uc.journal.FinishRun(ctx, runID, ingested, skipped); err != nil {
		uc.log.Warn("journal finish failed", "error", err)
	}
}
