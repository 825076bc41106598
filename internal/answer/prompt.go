package answer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wensicm/WhaRAGBot/internal/rag"
)

// BuildPrompt assembles the system prompt: archive profile, retrieved
// excerpts, and answering rules. maxLen is a rune budget; excerpts are
// added most-relevant first and the rest dropped once the budget is
// spent, so the prompt stays bounded without truncating mid-excerpt.
func BuildPrompt(selfName, profileText string, hits []rag.Result, maxLen int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You answer questions about %s's personal chat history.\n", selfName)
	fmt.Fprintf(&b, "In the excerpts below, %q is the user asking the questions.\n\n", selfName)

	if profileText != "" {
		b.WriteString("## The archive\n")
		b.WriteString(profileText)
		b.WriteString("\n")
	}

	if len(hits) > 0 {
		b.WriteString("## Relevant excerpts\n")
		used := utf8.RuneCountInString(b.String())
		for i, h := range hits {
			excerpt := formatExcerpt(i+1, h)
			l := utf8.RuneCountInString(excerpt)
			if maxLen > 0 && i > 0 && used+l > maxLen {
				break
			}
			b.WriteString(excerpt)
			used += l
		}
		b.WriteString("\n")
	}

	b.WriteString("## Rules\n")
	b.WriteString("1. Base your answer only on the excerpts above.\n")
	b.WriteString("2. Quote messages verbatim when the question asks what someone said.\n")
	b.WriteString("3. If the excerpts do not contain the answer, say so plainly instead of guessing.\n")
	b.WriteString("4. Mention dates and senders when they help, using the excerpt metadata.\n")

	return b.String()
}

func formatExcerpt(n int, h rag.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Excerpt %d", n)
	if src := h.Metadata["source_file"]; src != "" {
		fmt.Fprintf(&b, " (from %s", src)
		if start := h.Metadata["start"]; start != "" {
			fmt.Fprintf(&b, ", %s", start)
		}
		b.WriteString(")")
	}
	b.WriteString(":\n")
	b.WriteString(h.Content)
	b.WriteString("\n\n")
	return b.String()
}
