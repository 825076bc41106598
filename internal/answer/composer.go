package answer

import (
	"context"
	"log/slog"

	"google.golang.org/genai"

	"github.com/wensicm/WhaRAGBot/internal/rag"
)

// Generator produces one completion. Satisfied by *ai.Client.
type Generator interface {
	Complete(ctx context.Context, systemPrompt string, history []*genai.Content, userMsg string) (string, error)
}

// Retriever fetches relevant chunks for a query. Satisfied by
// *rag.Retriever.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]rag.Result, error)
}

// Composer runs one question through retrieve → prompt → complete and
// returns the completion text verbatim. Failures from the external
// calls surface as their own error kinds; nothing is retried here.
type Composer struct {
	gen          Generator
	retriever    Retriever
	selfName     string
	profileText  string
	maxPromptLen int
}

func NewComposer(gen Generator, retriever Retriever, selfName, profileText string, maxPromptLen int) *Composer {
	return &Composer{
		gen:          gen,
		retriever:    retriever,
		selfName:     selfName,
		profileText:  profileText,
		maxPromptLen: maxPromptLen,
	}
}

// Ask answers one question. history carries the prior turns of the
// interactive session so follow-up questions resolve references.
func (c *Composer) Ask(ctx context.Context, query string, history []*genai.Content) (string, error) {
	hits, err := c.retriever.Retrieve(ctx, query)
	if err != nil {
		return "", err
	}
	if len(hits) == 0 {
		slog.Debug("no relevant chunks found", "query", query)
	}

	prompt := BuildPrompt(c.selfName, c.profileText, hits, c.maxPromptLen)
	return c.gen.Complete(ctx, prompt, history, query)
}
