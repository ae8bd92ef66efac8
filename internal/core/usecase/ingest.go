package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/emreakar/regsearch/internal/core/domain"
	"github.com/emreakar/regsearch/internal/core/ports"
)

const (
	StatusIngested = "ingested"
	StatusSkipped  = "skipped"

	SkipInvalidName    = "invalid_name"
	SkipDownloadFailed = "download_failed"
	SkipExtractFailed  = "extract_failed"
	SkipMetadataError  = "metadata_error"
	SkipAlreadyIndexed = "already_indexed"
	SkipEmptyContent   = "empty_content"
	SkipChunkCeiling   = "chunk_ceiling"
	SkipEmbeddingFail  = "embedding_failed"
	SkipUploadFailed   = "upload_failed"
)

type IngestConfig struct {
	// ParentCeiling bounds per-document cost from pathological inputs such as
	// huge tables rendered as text. Exceeding it voids the whole document.
	ParentCeiling int
	// ChunkDumpPath, when set, writes each ingested document's chunk records
	// to a JSON file for inspection.
	ChunkDumpPath string
}

func (c IngestConfig) normalize() IngestConfig {
	if c.ParentCeiling <= 0 {
		c.ParentCeiling = 100
	}
	return c
}

// DocumentIngestor runs the per-document pipeline:
// extract, dedup-check, chunk, embed, upload. Every failure path funnels to a
// skipped outcome so the batch loop never stops for one document.
type DocumentIngestor struct {
	blobs    ports.BlobStore
	archive  ports.ArchiveExtractor
	content  ports.ContentReader
	chunker  ports.Chunker
	embedder ports.Embedder
	index    ports.SearchIndex
	resolver *MetadataResolver
	rule     FilenameRule
	cfg      IngestConfig
	log      *slog.Logger
}

func NewDocumentIngestor(
	blobs ports.BlobStore,
	archive ports.ArchiveExtractor,
	content ports.ContentReader,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.SearchIndex,
	resolver *MetadataResolver,
	rule FilenameRule,
	cfg IngestConfig,
	log *slog.Logger,
) *DocumentIngestor {
	return &DocumentIngestor{
		blobs:    blobs,
		archive:  archive,
		content:  content,
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		resolver: resolver,
		rule:     rule,
		cfg:      cfg.normalize(),
		log:      log,
	}
}

func (i *DocumentIngestor) IngestBlob(ctx context.Context, blobName string) ports.DocumentOutcome {
	src, err := ParseBlobName(blobName, i.rule)
	if err != nil {
		i.log.Error("invalid blob name, skipping", "blob", blobName, "error", err)
		return skipped(blobName, SkipInvalidName)
	}

	meta, extracted, reason := i.extractDocument(ctx, src)
	if reason != "" {
		return skipped(blobName, reason)
	}

	chunks, err := i.buildChunks(meta, extracted)
	if err != nil {
		i.log.Info("chunk generation voided, skipping", "blob", blobName, "error", err)
		return skipped(blobName, SkipChunkCeiling)
	}

	embedded := i.embedChunks(ctx, chunks)
	if len(embedded) == 0 {
		i.log.Error("no chunk could be embedded, skipping", "blob", blobName)
		return skipped(blobName, SkipEmbeddingFail)
	}

	if err := i.index.Upload(ctx, embedded); err != nil {
		i.log.Error("chunk upload failed, skipping", "blob", blobName, "error", err)
		return skipped(blobName, SkipUploadFailed)
	}
	i.dumpChunks(embedded)

	i.log.Info("document ingested", "blob", blobName, "chunks", len(embedded))
	return ports.DocumentOutcome{
		BlobName:   blobName,
		Status:     StatusIngested,
		ChunkCount: len(embedded),
	}
}

// extractDocument downloads and unpacks one archive into temporary storage
// scoped to this call: the extraction directory is removed before chunking
// starts, so peak disk usage stays at one document's worth.
func (i *DocumentIngestor) extractDocument(
	ctx context.Context,
	src domain.SourceDocument,
) (domain.DocumentMetadata, domain.ExtractedContent, string) {
	var empty domain.ExtractedContent

	data, err := i.blobs.Download(ctx, src.BlobName)
	if err != nil {
		i.log.Error("blob download failed, skipping", "blob", src.BlobName, "error", err)
		return domain.DocumentMetadata{}, empty, SkipDownloadFailed
	}

	dir, cleanup, err := i.archive.ExtractZip(data)
	if err != nil {
		i.log.Error("archive extraction failed, skipping", "blob", src.BlobName, "error", err)
		return domain.DocumentMetadata{}, empty, SkipExtractFailed
	}
	defer cleanup()
	data = nil

	rawMeta, err := i.content.ReadMetadata(dir)
	if err != nil {
		i.log.Warn("metadata file unreadable, using fallbacks", "blob", src.BlobName, "error", err)
		rawMeta = map[string]any{}
	}

	meta := i.resolver.Resolve(rawMeta, src)
	if meta.Error != "" {
		return meta, empty, SkipMetadataError
	}

	// Advisory existence check: avoids redundant chunking and model calls for
	// documents the index already holds. A check failure is not a skip.
	exists, err := i.index.DocumentExists(ctx, meta.Title, meta.NotifiedDate)
	if err != nil {
		i.log.Warn("document existence check failed, proceeding", "blob", src.BlobName, "error", err)
	} else if exists {
		i.log.Info("document already indexed", "blob", src.BlobName, "title", meta.Title)
		return meta, empty, SkipAlreadyIndexed
	}

	extracted, err := i.content.ReadContent(dir)
	if err != nil {
		i.log.Error("content extraction failed, skipping", "blob", src.BlobName, "error", err)
		return meta, empty, SkipExtractFailed
	}
	if extracted.Empty() {
		i.log.Info("no extractable content, skipping", "blob", src.BlobName)
		return meta, empty, SkipEmptyContent
	}

	return meta, extracted, ""
}

// buildChunks generates parent/child chunks for every content type and stamps
// the document metadata on each child. If any content type exceeds the parent
// ceiling the whole document's chunk set is voided, never truncated.
func (i *DocumentIngestor) buildChunks(
	meta domain.DocumentMetadata,
	extracted domain.ExtractedContent,
) ([]domain.Chunk, error) {
	var chunks []domain.Chunk

	if len(extracted.Texts) > 0 {
		split := i.chunker.SplitDocument(strings.Join(extracted.Texts, "\n\n"))
		if err := i.checkCeiling("text", split); err != nil {
			return nil, err
		}
		chunks = append(chunks, split.Flatten()...)
	}

	for _, pages := range extracted.PDFPages {
		split := i.chunker.SplitPages(pages)
		if err := i.checkCeiling("pdf", split); err != nil {
			return nil, err
		}
		chunks = append(chunks, split.Flatten()...)
	}

	for _, table := range extracted.Tables {
		split := i.chunker.SplitDocument("Table: " + table)
		if err := i.checkCeiling("table", split); err != nil {
			return nil, err
		}
		chunks = append(chunks, split.Flatten()...)
	}

	for idx := range chunks {
		chunks[idx].Title = meta.Title
		chunks[idx].Date = meta.NotifiedDate
		chunks[idx].Website = meta.Website
		chunks[idx].Keyword = meta.Keyword
		chunks[idx].NotifiedCountry = meta.NotifiedCountry
		chunks[idx].URL = meta.URL
	}
	return chunks, nil
}

func (i *DocumentIngestor) checkCeiling(contentType string, split domain.ParentChildChunkMap) error {
	if split.ParentCount() > i.cfg.ParentCeiling {
		return domain.WrapError(domain.ErrChunkCeiling, "split "+contentType+" content",
			fmt.Errorf("%d parents exceed ceiling %d", split.ParentCount(), i.cfg.ParentCeiling))
	}
	return nil
}

// embedChunks attaches a vector to every chunk it can. A chunk without a
// vector cannot be ingested and is dropped.
func (i *DocumentIngestor) embedChunks(ctx context.Context, chunks []domain.Chunk) []domain.Chunk {
	out := make([]domain.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := i.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			i.log.Error("chunk embedding failed, dropping chunk",
				"chunk_id", chunk.ID, "parent_id", chunk.ParentID, "error", err)
			continue
		}
		chunk.Vector = vector
		out = append(out, chunk)
	}
	return out
}

func (i *DocumentIngestor) dumpChunks(chunks []domain.Chunk) {
	if i.cfg.ChunkDumpPath == "" {
		return
	}
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err == nil {
		err = os.WriteFile(i.cfg.ChunkDumpPath, data, 0o644)
	}
	if err != nil {
		i.log.Warn("chunk dump failed", "path", i.cfg.ChunkDumpPath, "error", err)
	}
}

func skipped(blobName, reason string) ports.DocumentOutcome {
	return ports.DocumentOutcome{
		BlobName:   blobName,
		Status:     StatusSkipped,
		SkipReason: reason,
	}
}
