package domain

// Chunk is the atomic retrievable unit persisted to the search index.
// Child text is always a contiguous substring of the parent text; document
// metadata is denormalized onto every chunk of the document.
type Chunk struct {
	ID              string    `json:"id"`
	ParentID        string    `json:"parent_id"`
	ParentChunk     string    `json:"parent_chunk"`
	Text            string    `json:"chunk"`
	Vector          []float32 `json:"chunk_vector,omitempty"`
	Title           string    `json:"title"`
	Date            string    `json:"date"`
	Website         string    `json:"website"`
	Keyword         string    `json:"keyword"`
	NotifiedCountry string    `json:"notified_country"`
	URL             string    `json:"url"`
}

// ParentChildChunkMap maps a parent chunk id to its ordered child chunks.
// It is the splitter's direct output, before metadata and vectors are attached.
type ParentChildChunkMap struct {
	ParentIDs []string
	Children  map[string][]Chunk
}

// ParentCount reports how many parent segments the split produced.
func (m ParentChildChunkMap) ParentCount() int {
	return len(m.ParentIDs)
}

// Flatten returns all child chunks in parent order.
func (m ParentChildChunkMap) Flatten() []Chunk {
	out := make([]Chunk, 0, len(m.ParentIDs)*4)
	for _, parentID := range m.ParentIDs {
		out = append(out, m.Children[parentID]...)
	}
	return out
}
