package usecase

import (
	"fmt"
	"log/slog"
	"math"
	"path"
	"strings"
	"time"

	"github.com/emreakar/regsearch/internal/core/domain"
)

// odataDateLayout is the extended ISO 8601 form the index's date fields require.
const odataDateLayout = "2006-01-02T15:04:05"

// FilenameRule makes the blob naming convention configurable instead of
// hardcoding offsets: archives are laid out as
// "<prefix>/<keyword>/<date>_<title>.zip" with the date leading the file name.
type FilenameRule struct {
	DateLayout     string
	TitleSeparator string
}

func DefaultFilenameRule() FilenameRule {
	return FilenameRule{
		DateLayout:     "2006-01-02",
		TitleSeparator: "_",
	}
}

// TitleFromFileName drops the leading date and separator from a file name.
func (r FilenameRule) TitleFromFileName(fileName string) string {
	prefix := len(r.DateLayout) + len(r.TitleSeparator)
	if len(fileName) <= prefix {
		return fileName
	}
	return fileName[prefix:]
}

// ParseBlobName extracts the convention-encoded fields from a blob path.
func ParseBlobName(blobName string, rule FilenameRule) (domain.SourceDocument, error) {
	if !strings.HasSuffix(blobName, ".zip") {
		return domain.SourceDocument{}, domain.WrapError(domain.ErrInvalidInput, "parse blob name",
			fmt.Errorf("not an archive: %s", blobName))
	}

	segments := strings.Split(blobName, "/")
	keyword := ""
	if len(segments) > 1 {
		keyword = segments[1]
	}

	fileName := strings.TrimSuffix(path.Base(blobName), ".zip")
	if len(fileName) < len(rule.DateLayout) {
		return domain.SourceDocument{}, domain.WrapError(domain.ErrInvalidInput, "parse blob name",
			fmt.Errorf("file name too short for date prefix: %s", fileName))
	}

	notifiedDate := fileName[:len(rule.DateLayout)]
	if _, err := time.Parse(rule.DateLayout, notifiedDate); err != nil {
		return domain.SourceDocument{}, domain.WrapError(domain.ErrInvalidInput, "parse blob name",
			fmt.Errorf("invalid date %q in file name %s", notifiedDate, fileName))
	}

	return domain.SourceDocument{
		BlobName:     blobName,
		FileName:     fileName,
		Keyword:      keyword,
		NotifiedDate: notifiedDate,
	}, nil
}

// MetadataResolver merges raw per-document metadata with filename-derived
// fallbacks. Resolution never fails past this boundary: problems are logged
// and annotated on the result so the pipeline can decide per document.
type MetadataResolver struct {
	rule    FilenameRule
	website string
	log     *slog.Logger
}

func NewMetadataResolver(rule FilenameRule, website string, log *slog.Logger) *MetadataResolver {
	return &MetadataResolver{
		rule:    rule,
		website: website,
		log:     log,
	}
}

func (r *MetadataResolver) Resolve(raw map[string]any, src domain.SourceDocument) domain.DocumentMetadata {
	meta := domain.DocumentMetadata{
		Website: r.website,
	}

	meta.Title = resolveField(raw, "name", r.rule.TitleFromFileName(src.FileName))
	meta.Keyword = resolveField(raw, "keyword", src.Keyword)
	meta.URL = resolveField(raw, "URL", "")
	meta.NotifiedCountry = resolveField(raw, "notified_country", "")

	rawDate := resolveField(raw, "notified_date", src.NotifiedDate)
	normalized, err := FormatDateAsODataV4(rawDate, r.rule.DateLayout)
	if err != nil {
		r.log.Error("metadata date normalization failed",
			"blob", src.BlobName, "date", rawDate, "error", err)
		meta.Error = fmt.Sprintf("normalize notified_date: %v", err)
		// keep the filename date as the best available fallback
		normalized, err = FormatDateAsODataV4(src.NotifiedDate, r.rule.DateLayout)
		if err != nil {
			normalized = ""
		}
	}
	meta.NotifiedDate = normalized

	return meta
}

// resolveField prefers the stored value unless it is absent or a
// missing-value sentinel (empty string, "nan", or a floating NaN).
func resolveField(raw map[string]any, key, fallback string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return fallback
	}
	switch value := v.(type) {
	case string:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" || strings.EqualFold(trimmed, "nan") {
			return fallback
		}
		return trimmed
	case float64:
		if math.IsNaN(value) {
			return fallback
		}
		return strings.TrimSuffix(fmt.Sprintf("%v", value), ".0")
	default:
		return fmt.Sprintf("%v", value)
	}
}

// FormatDateAsODataV4 normalizes a date string to the OData V4 form the index
// expects, e.g. "2023-09-05" -> "2023-09-05T00:00:00-00:00". Values already in
// an extended form are re-normalized rather than trusted.
func FormatDateAsODataV4(value, layout string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("empty date")
	}

	for _, l := range []string{layout, odataDateLayout + "-07:00", odataDateLayout + "Z", odataDateLayout, time.RFC3339} {
		if t, err := time.Parse(l, value); err == nil {
			return t.Format(odataDateLayout) + "-00:00", nil
		}
	}
	return "", fmt.Errorf("unrecognized date format: %q", value)
}
