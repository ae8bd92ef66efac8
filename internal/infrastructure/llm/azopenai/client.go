package azopenai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emreakar/regsearch/internal/core/ports"
	"github.com/emreakar/regsearch/internal/infrastructure/resilience"
)

const defaultAPIVersion = "2024-06-01"

type Options struct {
	APIVersion         string
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

// Client talks to an OpenAI-compatible deployment endpoint. One client serves
// both the embedding and completion deployments of the same resource.
type Client struct {
	endpoint        string
	apiKey          string
	apiVersion      string
	embedDeployment string
	chatDeployment  string
	httpClient      *http.Client
	executor        *resilience.Executor
}

func New(endpoint, apiKey, embedDeployment, chatDeployment string, options Options) *Client {
	apiVersion := options.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		endpoint:        strings.TrimRight(endpoint, "/"),
		apiKey:          apiKey,
		apiVersion:      apiVersion,
		embedDeployment: embedDeployment,
		chatDeployment:  chatDeployment,
		httpClient:      &http.Client{Timeout: timeout},
		executor:        options.ResilienceExecutor,
	}
}

func (c *Client) deploymentPath(deployment, operation string) string {
	return fmt.Sprintf("/openai/deployments/%s/%s?api-version=%s",
		url.PathEscape(deployment), operation, c.apiVersion)
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.executor == nil {
		return wrapTemporaryIfNeeded(operation, fn(ctx))
	}
	return wrapTemporaryIfNeeded(operation, c.executor.Execute(ctx, operation, fn, classifyModelError))
}

// Embedder implements ports.Embedder against the embedding deployment.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	request := map[string]any{
		"input": text,
	}

	var response struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	err := e.client.execute(ctx, "model.embed", func(ctx context.Context) error {
		response.Data = nil
		return e.client.postJSON(ctx,
			e.client.deploymentPath(e.client.embedDeployment, "embeddings"),
			request, &response, "embed")
	})
	if err != nil {
		return nil, err
	}
	if len(response.Data) == 0 || len(response.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return response.Data[0].Embedding, nil
}

// Completer implements ports.CompletionClient against the chat deployment.
type Completer struct {
	client *Client
}

func NewCompleter(client *Client) *Completer {
	return &Completer{client: client}
}

func (g *Completer) Complete(ctx context.Context, prompt string, params ports.CompletionParams) (string, error) {
	messages := make([]ports.CompletionMessage, 0, len(params.History)+2)
	if params.SystemMessage != "" {
		messages = append(messages, ports.CompletionMessage{Role: "system", Content: params.SystemMessage})
	}
	messages = append(messages, params.History...)
	messages = append(messages, ports.CompletionMessage{Role: "user", Content: prompt})

	request := map[string]any{
		"messages":    messages,
		"temperature": params.Temperature,
	}
	if params.MaxTokens > 0 {
		request["max_tokens"] = params.MaxTokens
	}
	if params.TopP > 0 {
		request["top_p"] = params.TopP
	}
	if params.JSONResponse {
		request["response_format"] = map[string]string{"type": "json_object"}
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	err := g.client.execute(ctx, "model.complete", func(ctx context.Context) error {
		response.Choices = nil
		return g.client.postJSON(ctx,
			g.client.deploymentPath(g.client.chatDeployment, "chat/completions"),
			request, &response, "complete")
	})
	if err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("empty completion result")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
