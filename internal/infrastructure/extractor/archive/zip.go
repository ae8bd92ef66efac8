package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxEntrySize bounds a single decompressed entry to keep a crafted archive
// from filling the disk.
const maxEntrySize = 256 << 20

// Extractor unpacks downloaded archives into per-document temp directories.
type Extractor struct {
	tempRoot string
}

func New(tempRoot string) *Extractor {
	return &Extractor{tempRoot: tempRoot}
}

// ExtractZip unpacks one archive and returns the directory holding its files.
// The caller owns the returned cleanup and runs it when the document's
// processing is done.
func (e *Extractor) ExtractZip(data []byte) (string, func(), error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("open zip: %w", err)
	}

	dir, err := os.MkdirTemp(e.tempRoot, "regsearch-doc-*")
	if err != nil {
		return "", nil, fmt.Errorf("create extraction dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		if err := extractEntry(dir, file); err != nil {
			cleanup()
			return "", nil, err
		}
	}
	return dir, cleanup, nil
}

func extractEntry(dir string, file *zip.File) error {
	// Zip slip guard: entry paths must stay inside the extraction dir.
	name := filepath.FromSlash(file.Name)
	if filepath.IsAbs(name) || strings.Contains(name, "..") {
		return fmt.Errorf("unsafe archive entry path: %s", file.Name)
	}

	target := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create entry dir: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %s: %w", file.Name, err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create entry file %s: %w", file.Name, err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.LimitReader(src, maxEntrySize+1))
	if err != nil {
		return fmt.Errorf("write entry file %s: %w", file.Name, err)
	}
	if written > maxEntrySize {
		return fmt.Errorf("archive entry too large: %s", file.Name)
	}
	return nil
}
