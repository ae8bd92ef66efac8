package domain

// DocumentMetadata is built once per source document and copied onto every
// chunk. Title plus NotifiedDate form the de-duplication key against the index.
type DocumentMetadata struct {
	Title           string `json:"title"`
	NotifiedDate    string `json:"notified_date"`
	Keyword         string `json:"keyword"`
	Website         string `json:"website"`
	URL             string `json:"url"`
	NotifiedCountry string `json:"notified_country"`
	// Error carries a resolution failure without aborting the pipeline;
	// the caller decides per document whether to skip.
	Error string `json:"error,omitempty"`
}

// SourceDocument describes one archive entry of the blob container before
// extraction: naming-convention fields parsed out of the blob path.
type SourceDocument struct {
	BlobName     string
	FileName     string
	Keyword      string
	NotifiedDate string
}

// ExtractedContent is what archive extraction yields for one document.
type ExtractedContent struct {
	Texts    []string
	PDFPages [][]string
	Tables   []string
}

// Empty reports whether extraction produced no usable content of any type.
func (c ExtractedContent) Empty() bool {
	return len(c.Texts) == 0 && len(c.PDFPages) == 0 && len(c.Tables) == 0
}
