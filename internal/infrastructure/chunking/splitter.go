package chunking

import (
	"strings"

	"github.com/google/uuid"

	"github.com/emreakar/regsearch/internal/core/domain"
)

// separators in preference order: paragraph, line, sentence, word, hard cut.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter produces the two-level parent/child chunk hierarchy. Boundaries are
// a pure function of the input text and the size bounds; only identifiers are
// fresh per call.
type Splitter struct {
	ParentSize int
	ChildSize  int
}

func NewSplitter(parentSize, childSize int) *Splitter {
	if parentSize <= 0 {
		parentSize = 10000
	}
	if childSize <= 0 || childSize > parentSize {
		childSize = parentSize / 5
	}
	return &Splitter{
		ParentSize: parentSize,
		ChildSize:  childSize,
	}
}

func (s *Splitter) SplitDocument(text string) domain.ParentChildChunkMap {
	out := domain.ParentChildChunkMap{
		Children: make(map[string][]domain.Chunk),
	}

	for _, parent := range splitRecursive(text, s.ParentSize, separators) {
		parent = strings.TrimSpace(parent)
		if parent == "" {
			continue
		}
		parentID := uuid.NewString()
		out.ParentIDs = append(out.ParentIDs, parentID)

		children := splitRecursive(parent, s.ChildSize, separators)
		chunks := make([]domain.Chunk, 0, len(children))
		for _, child := range children {
			child = strings.TrimSpace(child)
			if child == "" {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				ID:          uuid.NewString(),
				ParentID:    parentID,
				ParentChunk: parent,
				Text:        child,
			})
		}
		out.Children[parentID] = chunks
	}
	return out
}

func (s *Splitter) SplitPages(pages []string) domain.ParentChildChunkMap {
	return s.SplitDocument(strings.Join(pages, "\n"))
}

// splitRecursive divides text into segments of at most limit runes, cutting at
// the most semantic boundary available. Segments concatenate back to the input
// exactly, so every segment is a contiguous substring of text.
func splitRecursive(text string, limit int, seps []string) []string {
	if runeLen(text) <= limit {
		if text == "" {
			return nil
		}
		return []string{text}
	}
	if len(seps) == 0 || seps[0] == "" {
		return hardCut(text, limit)
	}

	sep := seps[0]
	pieces := strings.SplitAfter(text, sep)

	var out []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, piece := range pieces {
		pieceLen := runeLen(piece)
		if pieceLen > limit {
			flush()
			out = append(out, splitRecursive(piece, limit, seps[1:])...)
			continue
		}
		if currentLen+pieceLen > limit {
			flush()
		}
		current.WriteString(piece)
		currentLen += pieceLen
	}
	flush()
	return out
}

func hardCut(text string, limit int) []string {
	runes := []rune(text)
	out := make([]string, 0, len(runes)/limit+1)
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

func runeLen(s string) int {
	return len([]rune(s))
}
