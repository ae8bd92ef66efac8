package content

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/emreakar/regsearch/internal/core/domain"
)

// minTextLength filters out txt files too short to carry document content,
// such as placeholder or byte-order-mark-only files.
const minTextLength = 4

// Reader collects a document directory's text, PDF and table content.
// Unreadable individual files are logged and skipped; only a filesystem walk
// failure is an error.
type Reader struct {
	log *slog.Logger
}

func NewReader(log *slog.Logger) *Reader {
	return &Reader{log: log}
}

func (r *Reader) ReadContent(dir string) (domain.ExtractedContent, error) {
	var content domain.ExtractedContent

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt":
			if text, ok := r.readText(path); ok {
				content.Texts = append(content.Texts, text)
			}
		case ".pdf":
			pages, err := extractPDFPages(path)
			if err != nil {
				r.log.Warn("pdf extraction failed, skipping file", "path", path, "error", err)
				return nil
			}
			if len(pages) > 0 {
				content.PDFPages = append(content.PDFPages, pages)
			}
		case ".json":
			if isMetadataFile(path) {
				return nil
			}
			if table, ok := r.readTable(path); ok {
				content.Tables = append(content.Tables, table)
			}
		}
		return nil
	})
	if err != nil {
		return domain.ExtractedContent{}, fmt.Errorf("walk document dir: %w", err)
	}
	return content, nil
}

// ReadMetadata locates the document's metadata json and decodes it as a flat
// field map. A missing metadata file is an error; the caller falls back to
// filename-derived fields.
func (r *Reader) ReadMetadata(dir string) (map[string]any, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read document dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isMetadataFile(entry.Name()) {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read metadata file: %w", err)
		}
		var meta map[string]any
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("parse metadata file %s: %w", entry.Name(), err)
		}
		return meta, nil
	}
	return nil, fmt.Errorf("no metadata file in %s", dir)
}

func (r *Reader) readText(path string) (string, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		r.log.Warn("text file unreadable, skipping", "path", path, "error", err)
		return "", false
	}
	if !utf8.Valid(raw) {
		r.log.Warn("text file not valid utf-8, skipping", "path", path)
		return "", false
	}
	text := strings.TrimSpace(string(raw))
	if len(text) <= minTextLength {
		return "", false
	}
	return text, true
}

// readTable re-compacts a table json file so one table is one line of text.
func (r *Reader) readTable(path string) (string, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		r.log.Warn("table file unreadable, skipping", "path", path, "error", err)
		return "", false
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		r.log.Warn("table file not valid json, skipping", "path", path, "error", err)
		return "", false
	}
	compact, err := json.Marshal(value)
	if err != nil {
		return "", false
	}
	return string(compact), true
}

func isMetadataFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	return strings.HasPrefix(base, "metadata") && strings.HasSuffix(base, ".json")
}
