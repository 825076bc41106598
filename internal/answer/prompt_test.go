package answer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/wensicm/WhaRAGBot/internal/rag"
)

func hit(id, content string) rag.Result {
	return rag.Result{
		ChunkID:  id,
		Content:  content,
		Metadata: map[string]string{"source_file": "chat.txt", "start": "2024-01-01 10:00"},
	}
}

func TestBuildPrompt_Sections(t *testing.T) {
	prompt := BuildPrompt("Alice", "- Participants: Alice, Bob\n",
		[]rag.Result{hit("c0", "Alice: hi\nBob: hello")}, 10000)

	for _, want := range []string{
		"Alice's personal chat history",
		"## The archive",
		"Participants: Alice, Bob",
		"## Relevant excerpts",
		"Excerpt 1 (from chat.txt, 2024-01-01 10:00):",
		"Bob: hello",
		"## Rules",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_BudgetDropsTrailingHits(t *testing.T) {
	long := strings.Repeat("x", 400)
	hits := []rag.Result{hit("c0", "first "+long), hit("c1", "second "+long), hit("c2", "third "+long)}

	prompt := BuildPrompt("Alice", "", hits, 600)

	if !strings.Contains(prompt, "first") {
		t.Error("most relevant excerpt must survive the budget")
	}
	if strings.Contains(prompt, "third") {
		t.Error("budget exceeded: trailing excerpt kept")
	}
}

func TestBuildPrompt_FirstHitKeptEvenWhenOversized(t *testing.T) {
	hits := []rag.Result{hit("c0", strings.Repeat("y", 2000))}
	prompt := BuildPrompt("Alice", "", hits, 500)

	if !strings.Contains(prompt, "yyyy") {
		t.Error("sole excerpt dropped; the length bound is a soft target")
	}
	if utf8.RuneCountInString(prompt) < 2000 {
		t.Error("excerpt was truncated")
	}
}

func TestBuildPrompt_NoHits(t *testing.T) {
	prompt := BuildPrompt("Alice", "", nil, 1000)
	if strings.Contains(prompt, "Relevant excerpts") {
		t.Error("excerpt section rendered with no hits")
	}
	if !strings.Contains(prompt, "## Rules") {
		t.Error("rules section missing")
	}
}
