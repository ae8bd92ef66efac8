package domain

// QueryDescriptor is the structured form of a free-text question, produced by
// LLM feature extraction. TopK == -1 means retrieval is unconstrained by
// document identity.
type QueryDescriptor struct {
	BeginDate string   `json:"begin_date"`
	EndDate   string   `json:"end_date"`
	Queries   []string `json:"queries"`
	Keywords  []string `json:"keywords"`
	Sorting   string   `json:"sorting"`
	TopK      int      `json:"top_k"`
	Language  string   `json:"language"`
}

// HasDateFilter reports whether either date bound is set.
func (d QueryDescriptor) HasDateFilter() bool {
	return d.BeginDate != "" || d.EndDate != ""
}

const (
	SortAscending  = "asc"
	SortDescending = "desc"
)

// RetrievalContext is one hybrid-search hit. Ranking is assigned 1-based in
// first-seen order after duplicate suppression.
type RetrievalContext struct {
	ParentID    string `json:"parent_id"`
	ParentChunk string `json:"parent_chunk"`
	Title       string `json:"title"`
	Website     string `json:"website"`
	Keyword     string `json:"keyword"`
	Date        string `json:"date"`
	Ranking     int    `json:"ranking"`
}

// DocumentRef is a (title, date) pair returned by document selection.
type DocumentRef struct {
	Title string `json:"title"`
	Date  string `json:"date"`
}

// Answer is the composed response with its supporting contexts.
type Answer struct {
	Text    string             `json:"text"`
	Sources []RetrievalContext `json:"sources"`
}
