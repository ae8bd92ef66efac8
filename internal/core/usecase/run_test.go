package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/emreakar/regsearch/internal/core/ports"
)

type scriptedIngestor struct {
	outcomes map[string]ports.DocumentOutcome
	seen     []string
}

func (s *scriptedIngestor) IngestBlob(_ context.Context, blobName string) ports.DocumentOutcome {
	s.seen = append(s.seen, blobName)
	if outcome, ok := s.outcomes[blobName]; ok {
		return outcome
	}
	return ports.DocumentOutcome{BlobName: blobName, Status: StatusIngested, ChunkCount: 1}
}

type recordingJournal struct {
	startErr error
	started  bool
	offset   int
	records  []ports.DocumentOutcome
	finished bool
	ingested int
	skipped  int
}

func (j *recordingJournal) StartRun(_ context.Context, offset int) (string, error) {
	if j.startErr != nil {
		return "", j.startErr
	}
	j.started = true
	j.offset = offset
	return "run-1", nil
}

func (j *recordingJournal) RecordDocument(_ context.Context, runID string, outcome ports.DocumentOutcome) error {
	j.records = append(j.records, outcome)
	return nil
}

func (j *recordingJournal) FinishRun(_ context.Context, runID string, ingested, skipped int) error {
	j.finished = true
	j.ingested = ingested
	j.skipped = skipped
	return nil
}

type recordingObserver struct {
	documents int
	completed bool
}

func (o *recordingObserver) DocumentProcessed(string, string, int, time.Duration) { o.documents++ }
func (o *recordingObserver) RunCompleted(int, int, time.Duration)                 { o.completed = true }

func TestRunProcessesListingFromOffset(t *testing.T) {
	blobs := &fakeBlobStore{blobs: []string{
		"regulations/a/2023-01-01_one.zip",
		"regulations/a/2023-01-02_two.zip",
		"regulations/a/2023-01-03_three.zip",
	}}
	ingestor := &scriptedIngestor{}
	journal := &recordingJournal{}
	observer := &recordingObserver{}

	uc := NewIndexRunUseCase(blobs, &fakeSearchIndex{}, ingestor, journal, observer, discardLogger())
	if err := uc.Run(context.Background(), 1); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(ingestor.seen) != 2 {
		t.Fatalf("expected 2 documents from offset 1, got %v", ingestor.seen)
	}
	if ingestor.seen[0] != "regulations/a/2023-01-02_two.zip" {
		t.Fatalf("offset not honored, first blob %s", ingestor.seen[0])
	}
	if !journal.started || journal.offset != 1 {
		t.Fatalf("journal start missing or wrong offset: %+v", journal)
	}
	if !journal.finished || journal.ingested != 2 || journal.skipped != 0 {
		t.Fatalf("unexpected journal totals: %+v", journal)
	}
	if observer.documents != 2 || !observer.completed {
		t.Fatalf("observer not notified: %+v", observer)
	}
}

func TestRunSkipsNonArchiveBlobs(t *testing.T) {
	blobs := &fakeBlobStore{blobs: []string{
		"regulations/a/2023-01-01_one.zip",
		"regulations/a/manifest.json",
		"regulations/a/2023-01-02_two.zip",
	}}
	ingestor := &scriptedIngestor{}

	uc := NewIndexRunUseCase(blobs, &fakeSearchIndex{}, ingestor, nil, nil, discardLogger())
	if err := uc.Run(context.Background(), 0); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(ingestor.seen) != 2 {
		t.Fatalf("non-archive blob must be skipped without ingestion, got %v", ingestor.seen)
	}
}

func TestRunCountsSkippedOutcomes(t *testing.T) {
	blobs := &fakeBlobStore{blobs: []string{
		"regulations/a/2023-01-01_one.zip",
		"regulations/a/2023-01-02_two.zip",
	}}
	ingestor := &scriptedIngestor{outcomes: map[string]ports.DocumentOutcome{
		"regulations/a/2023-01-02_two.zip": {
			BlobName:   "regulations/a/2023-01-02_two.zip",
			Status:     StatusSkipped,
			SkipReason: SkipEmptyContent,
		},
	}}
	journal := &recordingJournal{}

	uc := NewIndexRunUseCase(blobs, &fakeSearchIndex{}, ingestor, journal, nil, discardLogger())
	if err := uc.Run(context.Background(), 0); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if journal.ingested != 1 || journal.skipped != 1 {
		t.Fatalf("expected 1 ingested and 1 skipped, got %+v", journal)
	}
	if len(journal.records) != 2 {
		t.Fatalf("every processed document must be journaled, got %d records", len(journal.records))
	}
}

func TestRunOffsetBeyondListingIsNoop(t *testing.T) {
	blobs := &fakeBlobStore{blobs: []string{"regulations/a/2023-01-01_one.zip"}}
	ingestor := &scriptedIngestor{}

	uc := NewIndexRunUseCase(blobs, &fakeSearchIndex{}, ingestor, nil, nil, discardLogger())
	if err := uc.Run(context.Background(), 5); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(ingestor.seen) != 0 {
		t.Fatalf("expected no processing, got %v", ingestor.seen)
	}
}

func TestRunListFailureIsFatal(t *testing.T) {
	blobs := &fakeBlobStore{listErr: errors.New("container unavailable")}
	uc := NewIndexRunUseCase(blobs, &fakeSearchIndex{}, &scriptedIngestor{}, nil, nil, discardLogger())
	if err := uc.Run(context.Background(), 0); err == nil {
		t.Fatalf("expected error when listing fails")
	}
}

func TestRunContinuesWhenJournalUnavailable(t *testing.T) {
	blobs := &fakeBlobStore{blobs: []string{"regulations/a/2023-01-01_one.zip"}}
	ingestor := &scriptedIngestor{}
	journal := &recordingJournal{startErr: errors.New("database down")}

	uc := NewIndexRunUseCase(blobs, &fakeSearchIndex{}, ingestor, journal, nil, discardLogger())
	if err := uc.Run(context.Background(), 0); err != nil {
		t.Fatalf("journal failure must not abort the run: %v", err)
	}
	if len(ingestor.seen) != 1 {
		t.Fatalf("documents must still process without a journal, got %v", ingestor.seen)
	}
}

func TestRunStopsOnContextCancellation(t *testing.T) {
	blobs := &fakeBlobStore{blobs: []string{
		"regulations/a/2023-01-01_one.zip",
		"regulations/a/2023-01-02_two.zip",
	}}
	ingestor := &scriptedIngestor{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	uc := NewIndexRunUseCase(blobs, &fakeSearchIndex{}, ingestor, nil, nil, discardLogger())
	if err := uc.Run(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(ingestor.seen) != 0 {
		t.Fatalf("cancelled run must not process documents, got %v", ingestor.seen)
	}
}
