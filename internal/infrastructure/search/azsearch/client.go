package azsearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emreakar/regsearch/internal/core/domain"
	"github.com/emreakar/regsearch/internal/core/ports"
	"github.com/emreakar/regsearch/internal/infrastructure/resilience"
)

const defaultAPIVersion = "2024-07-01"

// selectDocumentsTop bounds the candidate listing document selection works
// from; distinct-title capping happens client-side afterwards.
const selectDocumentsTop = 100

type Options struct {
	APIVersion         string
	VectorDimensions   int
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

// Client talks to the index service over its JSON REST API. It implements
// ports.SearchIndex.
type Client struct {
	endpoint   string
	indexName  string
	apiKey     string
	apiVersion string
	dimensions int
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(endpoint, indexName, apiKey string, options Options) *Client {
	apiVersion := options.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	dimensions := options.VectorDimensions
	if dimensions <= 0 {
		dimensions = 1536
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		indexName:  indexName,
		apiKey:     apiKey,
		apiVersion: apiVersion,
		dimensions: dimensions,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

func (c *Client) indexPath(suffix string) string {
	return "/indexes/" + url.PathEscape(c.indexName) + suffix
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.executor == nil {
		return wrapTemporaryIfNeeded(operation, fn(ctx))
	}
	return wrapTemporaryIfNeeded(operation, c.executor.Execute(ctx, operation, fn, classifySearchError))
}

// Create is create-or-update: an existing index with the same schema is a
// no-op on the service side.
func (c *Client) Create(ctx context.Context) error {
	return c.execute(ctx, "index.create", func(ctx context.Context) error {
		return c.sendJSON(ctx, http.MethodPut, c.indexPath(""), indexSchema(c.indexName, c.dimensions), nil, "create")
	})
}

func (c *Client) Exists(ctx context.Context) (bool, error) {
	var exists bool
	err := c.execute(ctx, "index.exists", func(ctx context.Context) error {
		err := c.sendJSON(ctx, http.MethodGet, c.indexPath(""), nil, &map[string]any{}, "exists")
		if isNotFound(err) {
			exists = false
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	return exists, err
}

func (c *Client) Delete(ctx context.Context) error {
	return c.execute(ctx, "index.delete", func(ctx context.Context) error {
		err := c.sendJSON(ctx, http.MethodDelete, c.indexPath(""), nil, nil, "delete")
		if isNotFound(err) {
			return domain.WrapError(domain.ErrIndexNotFound, "delete index",
				fmt.Errorf("index %s does not exist", c.indexName))
		}
		return err
	})
}

func (c *Client) Upload(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	type uploadAction struct {
		Action string `json:"@search.action"`
		domain.Chunk
	}
	actions := make([]uploadAction, 0, len(chunks))
	for _, chunk := range chunks {
		actions = append(actions, uploadAction{Action: "mergeOrUpload", Chunk: chunk})
	}

	return c.execute(ctx, "index.upload", func(ctx context.Context) error {
		var response struct {
			Value []struct {
				Key    string `json:"key"`
				Status bool   `json:"status"`
				Error  string `json:"errorMessage"`
			} `json:"value"`
		}
		err := c.sendJSON(ctx, http.MethodPost, c.indexPath("/docs/index"),
			map[string]any{"value": actions}, &response, "upload")
		if err != nil {
			return err
		}
		for _, result := range response.Value {
			if !result.Status {
				return fmt.Errorf("upload rejected for key %s: %s", result.Key, result.Error)
			}
		}
		return nil
	})
}

type searchDocument struct {
	ParentID    string `json:"parent_id"`
	ParentChunk string `json:"parent_chunk"`
	Title       string `json:"title"`
	Website     string `json:"website"`
	Keyword     string `json:"keyword"`
	Date        string `json:"date"`
}

type searchResponse struct {
	Count int64            `json:"@odata.count"`
	Value []searchDocument `json:"value"`
}

// Search runs one hybrid query: boosted lexical text and a vector query over
// the same top count, fused by the service. Results come back in service
// ranking order; Ranking is assigned positionally here.
func (c *Client) Search(ctx context.Context, req ports.SearchRequest) ([]domain.RetrievalContext, error) {
	body := map[string]any{
		"search":       buildSearchText(req.QueryText, req.Keywords),
		"queryType":    "full",
		"searchFields": "title, chunk",
		"select":       "parent_id, parent_chunk, title, website, keyword, date",
		"top":          req.Top,
	}
	if len(req.Vector) > 0 {
		body["vectorQueries"] = []map[string]any{{
			"kind":       "vector",
			"vector":     req.Vector,
			"fields":     "chunk_vector",
			"k":          req.Top,
			"exhaustive": req.Exhaustive,
		}}
	}
	if filter := buildFilter(req.Filter); filter != "" {
		body["filter"] = filter
	}
	if req.OrderBy != "" {
		body["orderby"] = req.OrderBy
	}

	var response searchResponse
	err := c.execute(ctx, "index.search", func(ctx context.Context) error {
		response = searchResponse{}
		return c.sendJSON(ctx, http.MethodPost, c.indexPath("/docs/search"), body, &response, "search")
	})
	if err != nil {
		return nil, err
	}

	contexts := make([]domain.RetrievalContext, 0, len(response.Value))
	for i, doc := range response.Value {
		contexts = append(contexts, domain.RetrievalContext{
			ParentID:    doc.ParentID,
			ParentChunk: doc.ParentChunk,
			Title:       doc.Title,
			Website:     doc.Website,
			Keyword:     doc.Keyword,
			Date:        doc.Date,
			Ranking:     i + 1,
		})
	}
	return contexts, nil
}

// SelectDocuments lists candidate (title, date) pairs under the date filter
// in the requested date order.
func (c *Client) SelectDocuments(ctx context.Context, filter ports.SearchFilter, orderBy string) ([]domain.DocumentRef, error) {
	body := map[string]any{
		"search": "*",
		"select": "title, date",
		"top":    selectDocumentsTop,
	}
	if clause := buildFilter(filter); clause != "" {
		body["filter"] = clause
	}
	if orderBy != "" {
		body["orderby"] = orderBy
	}

	var response searchResponse
	err := c.execute(ctx, "index.select_documents", func(ctx context.Context) error {
		response = searchResponse{}
		return c.sendJSON(ctx, http.MethodPost, c.indexPath("/docs/search"), body, &response, "select documents")
	})
	if err != nil {
		return nil, err
	}

	refs := make([]domain.DocumentRef, 0, len(response.Value))
	for _, doc := range response.Value {
		refs = append(refs, domain.DocumentRef{Title: doc.Title, Date: doc.Date})
	}
	return refs, nil
}

// DocumentExists checks the dedup key (title, date) with a count-only query.
func (c *Client) DocumentExists(ctx context.Context, title, date string) (bool, error) {
	filter := fmt.Sprintf("title eq '%s'", escapeODataString(title))
	if date != "" {
		filter += " and date eq " + date
	}
	body := map[string]any{
		"search": "*",
		"filter": filter,
		"top":    1,
		"count":  true,
	}

	var response searchResponse
	err := c.execute(ctx, "index.document_exists", func(ctx context.Context) error {
		response = searchResponse{}
		return c.sendJSON(ctx, http.MethodPost, c.indexPath("/docs/search"), body, &response, "document exists")
	})
	if err != nil {
		return false, err
	}
	return response.Count > 0 || len(response.Value) > 0, nil
}
