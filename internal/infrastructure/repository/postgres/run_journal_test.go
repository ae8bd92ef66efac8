package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/emreakar/regsearch/internal/core/ports"
)

func newJournalWithMock(t *testing.T) (*RunJournal, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &RunJournal{db: db}, mock, func() { _ = db.Close() }
}

func TestStartRunInsertsAndReturnsID(t *testing.T) {
	journal, mock, done := newJournalWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO index_runs").
		WithArgs(sqlmock.AnyArg(), 5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	runID, err := journal.StartRun(context.Background(), 5)
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	if runID == "" {
		t.Fatalf("expected non-empty run id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordDocumentInsertsOutcome(t *testing.T) {
	journal, mock, done := newJournalWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO run_documents").
		WithArgs("run-1", "regulations/a/2023-01-01_one.zip", "skipped", "empty_content", 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := journal.RecordDocument(context.Background(), "run-1", ports.DocumentOutcome{
		BlobName:   "regulations/a/2023-01-01_one.zip",
		Status:     "skipped",
		SkipReason: "empty_content",
	})
	if err != nil {
		t.Fatalf("RecordDocument() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFinishRunUnknownIDIsError(t *testing.T) {
	journal, mock, done := newJournalWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE index_runs").
		WithArgs("missing", 1, 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := journal.FinishRun(context.Background(), "missing", 1, 2); err == nil {
		t.Fatalf("expected error for unknown run id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestStartRunPropagatesInsertFailure(t *testing.T) {
	journal, mock, done := newJournalWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO index_runs").
		WillReturnError(errors.New("connection refused"))

	if _, err := journal.StartRun(context.Background(), 0); err == nil {
		t.Fatalf("expected error when insert fails")
	}
}
