package ai

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/genai"
)

// EmbeddingError marks a failed embedding-model call.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string { return fmt.Sprintf("embedding: %v", e.Err) }
func (e *EmbeddingError) Unwrap() error { return e.Err }

// CompletionError marks a failed completion call (network, auth,
// quota). It is surfaced to the caller; retry policy belongs to the
// external client, not here.
type CompletionError struct {
	Err error
}

func (e *CompletionError) Error() string { return fmt.Sprintf("completion: %v", e.Err) }
func (e *CompletionError) Unwrap() error { return e.Err }

type Client struct {
	client     *genai.Client
	chatModel  string
	embedModel string
	temp       float32
	maxTokens  int32

	// token-bucket RPM limiter shared by embed and completion calls
	rpmLimit int
	mu       sync.Mutex
	tokens   int
	lastTick time.Time
}

func NewClient(ctx context.Context, apiKey, chatModel, embedModel string, temp float32, maxTokens int32, rpmLimit int) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{
		client:     client,
		chatModel:  chatModel,
		embedModel: embedModel,
		temp:       temp,
		maxTokens:  maxTokens,
		rpmLimit:   rpmLimit,
		tokens:     rpmLimit,
		lastTick:   time.Now(),
	}, nil
}

// Complete generates one answer from a system prompt, prior turns, and
// the user's message, returning the model's text verbatim.
func (c *Client) Complete(ctx context.Context, systemPrompt string, history []*genai.Content, userMsg string) (string, error) {
	if err := c.waitForToken(ctx); err != nil {
		return "", &CompletionError{Err: err}
	}

	contents := make([]*genai.Content, 0, len(history)+1)
	contents = append(contents, history...)
	contents = append(contents, genai.NewContentFromText(userMsg, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(c.temp),
		MaxOutputTokens:   c.maxTokens,
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.chatModel, contents, cfg)
	if err != nil {
		return "", &CompletionError{Err: err}
	}
	slog.Debug("generated answer", "model", c.chatModel)
	return resp.Text(), nil
}

// Embed computes the embedding vector for one text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := c.waitForToken(ctx); err != nil {
		return nil, &EmbeddingError{Err: err}
	}

	resp, err := c.client.Models.EmbedContent(ctx, c.embedModel,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, nil)
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	if len(resp.Embeddings) == 0 {
		return nil, &EmbeddingError{Err: fmt.Errorf("empty embedding response")}
	}
	return resp.Embeddings[0].Values, nil
}

// EmbedFunc adapts Embed to the chromem-go embedding function shape.
func (c *Client) EmbedFunc() func(ctx context.Context, text string) ([]float32, error) {
	return c.Embed
}

// waitForToken is a simple token bucket refilled once per minute.
func (c *Client) waitForToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rpmLimit <= 0 {
		return nil
	}

	now := time.Now()
	elapsed := now.Sub(c.lastTick)
	if elapsed >= time.Minute {
		c.tokens = c.rpmLimit
		c.lastTick = now
	}

	if c.tokens > 0 {
		c.tokens--
		return nil
	}

	wait := time.Minute - elapsed
	c.mu.Unlock()
	slog.Info("rate limit reached, waiting", "duration", wait)
	select {
	case <-ctx.Done():
		c.mu.Lock()
		return ctx.Err()
	case <-time.After(wait):
	}
	c.mu.Lock()
	c.tokens = c.rpmLimit - 1
	c.lastTick = time.Now()
	return nil
}
