package azblob

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/emreakar/regsearch/internal/infrastructure/resilience"
)

// Client reads a blob container over the storage REST API using a SAS token.
// It implements ports.BlobStore; the ingestion side never writes blobs.
type Client struct {
	accountURL string
	container  string
	sasToken   string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(accountURL, container, sasToken string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		accountURL: strings.TrimRight(accountURL, "/"),
		container:  container,
		sasToken:   strings.TrimPrefix(sasToken, "?"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

func (c *Client) containerURL(query url.Values) string {
	raw := query.Encode()
	if c.sasToken != "" {
		raw += "&" + c.sasToken
	}
	return fmt.Sprintf("%s/%s?%s", c.accountURL, c.container, raw)
}

func (c *Client) blobURL(name string) string {
	u := fmt.Sprintf("%s/%s/%s", c.accountURL, c.container, escapeBlobPath(name))
	if c.sasToken != "" {
		u += "?" + c.sasToken
	}
	return u
}

// escapeBlobPath escapes each path segment while keeping the separators.
func escapeBlobPath(name string) string {
	segments := strings.Split(name, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

type listBlobsResponse struct {
	Blobs struct {
		Blob []struct {
			Name string `xml:"Name"`
		} `xml:"Blob"`
	} `xml:"Blobs"`
	NextMarker string `xml:"NextMarker"`
}

// List walks the container with marker pagination and returns every blob name
// in lexicographic order, so a run offset addresses a stable position.
func (c *Client) List(ctx context.Context) ([]string, error) {
	var names []string
	marker := ""

	for {
		query := url.Values{}
		query.Set("restype", "container")
		query.Set("comp", "list")
		if marker != "" {
			query.Set("marker", marker)
		}

		var page listBlobsResponse
		err := c.execute(ctx, "blob.list", func(ctx context.Context) error {
			page = listBlobsResponse{}
			return c.getXML(ctx, c.containerURL(query), &page, "list")
		})
		if err != nil {
			return nil, err
		}

		for _, blob := range page.Blobs.Blob {
			names = append(names, blob.Name)
		}
		if page.NextMarker == "" {
			break
		}
		marker = page.NextMarker
	}

	sort.Strings(names)
	return names, nil
}

func (c *Client) Download(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := c.execute(ctx, "blob.download", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.blobURL(name), nil)
		if err != nil {
			return fmt.Errorf("create download request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("blob download request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return &HTTPStatusError{
				Operation:  "download",
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Body:       string(body),
			}
		}

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read blob body: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) getXML(ctx context.Context, rawURL string, out any, operation string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("blob %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}
	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.executor == nil {
		return wrapTemporaryIfNeeded(operation, fn(ctx))
	}
	return wrapTemporaryIfNeeded(operation, c.executor.Execute(ctx, operation, fn, classifyBlobError))
}
