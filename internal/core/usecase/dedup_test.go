package usecase

import (
	"testing"

	"github.com/emreakar/regsearch/internal/core/domain"
)

func TestRemoveDuplicateContextsKeepsFirstSeen(t *testing.T) {
	contexts := []domain.RetrievalContext{
		{ParentID: "A", ParentChunk: "a first", Ranking: 1},
		{ParentID: "B", ParentChunk: "b first", Ranking: 2},
		{ParentID: "A", ParentChunk: "a second", Ranking: 3},
		{ParentID: "C", ParentChunk: "c first", Ranking: 4},
	}

	out := removeDuplicateContexts(contexts)
	if len(out) != 3 {
		t.Fatalf("expected 3 contexts, got %d", len(out))
	}

	wantParents := []string{"A", "B", "C"}
	for i, parent := range wantParents {
		if out[i].ParentID != parent {
			t.Fatalf("position %d: expected parent %s, got %s", i, parent, out[i].ParentID)
		}
		if out[i].Ranking != i+1 {
			t.Fatalf("parent %s: expected ranking %d, got %d", parent, i+1, out[i].Ranking)
		}
	}
	if out[0].ParentChunk != "a first" {
		t.Fatalf("expected the first record for parent A to survive, got %q", out[0].ParentChunk)
	}
}

func TestRemoveDuplicateContextsEmptyInput(t *testing.T) {
	if out := removeDuplicateContexts(nil); len(out) != 0 {
		t.Fatalf("expected empty output, got %d contexts", len(out))
	}
}
