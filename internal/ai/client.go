package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"people-search-platform/internal/config"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultTimeout = 60 * time.Second

	// maxErrorBody bounds how much of an upstream error body is kept for
	// error messages and logs.
	maxErrorBody = 2048
)

// APIError is a non-2xx upstream response, tagged with the status and a
// bounded copy of the body.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the failure class is transient: rate limiting
// (429) or any server-side error.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// DecodeError is a 2xx response whose body did not match the expected
// schema. It is terminal: retrying a malformed contract is pointless.
type DecodeError struct {
	Operation string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decoding response: %v", e.Operation, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Message is one turn of a chat-completions conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateOptions tunes a generation call.
type GenerateOptions struct {
	Temperature float32
	MaxTokens   int
}

// Client calls an OpenAI-compatible model API for embeddings and chat
// completions. Both operations share one retry policy; the only mutable
// state across calls is the pooled transport. Concurrency caps (8 embed,
// 2 generate) are enforced here with weighted semaphores on behalf of the
// callers.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	embedModel    string
	generateModel string

	policy      Policy
	rateLimiter *rate.Limiter
	embedSem    *semaphore.Weighted
	generateSem *semaphore.Weighted
}

// Option overrides parts of the client after config-driven construction.
type Option func(*Client)

// WithHTTPClient swaps the transport (tests point it at a stub server).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithPolicy replaces the retry policy.
func WithPolicy(p Policy) Option {
	return func(c *Client) { c.policy = p }
}

func NewClient(cfg *config.Config, opts ...Option) *Client {
	baseURL := cfg.AIBaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	embedCap := int64(cfg.EmbedConcurrency)
	if embedCap <= 0 {
		embedCap = 8
	}
	generateCap := int64(cfg.GenerateConcurrency)
	if generateCap <= 0 {
		generateCap = 2
	}

	rpm := cfg.AIRequestsPerMinute
	if rpm <= 0 {
		rpm = 300
	}

	c := &Client{
		httpClient:    &http.Client{Timeout: DefaultTimeout},
		baseURL:       baseURL,
		apiKey:        cfg.AIAPIKey,
		embedModel:    cfg.EmbedModel,
		generateModel: cfg.GenerateModel,
		policy:        DefaultPolicy(),
		rateLimiter:   rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm/10+1),
		embedSem:      semaphore.NewWeighted(embedCap),
		generateSem:   semaphore.NewWeighted(generateCap),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EmbedModel reports the configured embedding model name for the response
// envelope.
func (c *Client) EmbedModel() string { return c.embedModel }

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed returns one embedding vector per input text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if err := c.embedSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.embedSem.Release(1)

	tracer := otel.Tracer("ai-client")
	ctx, span := tracer.Start(ctx, "ai.embed")
	defer span.End()
	span.SetAttributes(
		attribute.Int("ai.input_count", len(texts)),
		attribute.String("ai.model", c.embedModel),
	)

	var decoded embeddingResponse
	err := c.policy.withRetry(ctx, "embed", func() error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return err
		}
		decoded = embeddingResponse{}
		return c.postJSON(ctx, "/embeddings", embeddingRequest{
			Model: c.embedModel,
			Input: texts,
		}, &decoded, "embed")
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("ai.error", true))
		return nil, err
	}

	if len(decoded.Data) != len(texts) {
		return nil, &DecodeError{
			Operation: "embed",
			Err:       fmt.Errorf("expected %d vectors, got %d", len(texts), len(decoded.Data)),
		}
	}

	vectors := make([][]float32, len(texts))
	for _, item := range decoded.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, &DecodeError{
				Operation: "embed",
				Err:       fmt.Errorf("vector index %d out of range", item.Index),
			}
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Generate runs a chat completion and returns the first choice's text.
func (c *Client) Generate(ctx context.Context, messages []Message, opts GenerateOptions) (string, error) {
	if err := c.generateSem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.generateSem.Release(1)

	tracer := otel.Tracer("ai-client")
	ctx, span := tracer.Start(ctx, "ai.generate")
	defer span.End()
	span.SetAttributes(
		attribute.Int("ai.message_count", len(messages)),
		attribute.String("ai.model", c.generateModel),
	)

	var decoded chatResponse
	err := c.policy.withRetry(ctx, "generate", func() error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return err
		}
		decoded = chatResponse{}
		return c.postJSON(ctx, "/chat/completions", chatRequest{
			Model:       c.generateModel,
			Messages:    messages,
			Temperature: opts.Temperature,
			MaxTokens:   opts.MaxTokens,
		}, &decoded, "generate")
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("ai.error", true))
		return "", err
	}

	if len(decoded.Choices) == 0 {
		return "", &DecodeError{Operation: "generate", Err: fmt.Errorf("no choices in response")}
	}
	return decoded.Choices[0].Message.Content, nil
}

// postJSON performs one attempt: send, classify the status, decode the body
// once into the typed shape.
func (c *Client) postJSON(ctx context.Context, path string, in, out any, operation string) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if id := CorrelationID(ctx); id != "" {
		req.Header.Set("x-correlation-id", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Operation: operation, Err: err}
	}
	return nil
}
