package chunk

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wensicm/WhaRAGBot/internal/parser"
)

// Policy bounds chunk construction. MaxLen is a soft rune budget: a
// single record longer than MaxLen becomes its own oversized chunk
// rather than being split or truncated. Overlap is the number of
// records shared between consecutive chunks; 0 produces a disjoint
// partition.
type Policy struct {
	MaxLen      int
	MaxMessages int
	Overlap     int
	IncludeMeta bool
}

// Chunk is one retrieval unit: consecutive records of a conversation
// rendered as "Sender: text" lines. Members keep the aggregated
// records for provenance.
type Chunk struct {
	ID      string
	Text    string
	Members []parser.MessageRecord
}

// Build groups the ordered records of one conversation into chunks.
// Meta records are excluded unless the policy includes them; every
// included record lands in at least one chunk (exactly one when
// Overlap is 0), and chunk boundaries never split a record's text.
func Build(records []parser.MessageRecord, policy Policy) []Chunk {
	kept := make([]parser.MessageRecord, 0, len(records))
	for _, r := range records {
		if r.IsMeta && !policy.IncludeMeta {
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		return nil
	}

	maxMsgs := policy.MaxMessages
	if maxMsgs < 1 {
		maxMsgs = 1
	}
	overlap := policy.Overlap
	if overlap < 0 {
		overlap = 0 // a negative overlap would skip records
	}

	var chunks []Chunk
	start := 0
	for start < len(kept) {
		// First record is always taken, even when it alone exceeds MaxLen.
		end := start + 1
		length := utf8.RuneCountInString(renderLine(kept[start]))
		for end < len(kept) && end-start < maxMsgs {
			l := utf8.RuneCountInString(renderLine(kept[end]))
			if policy.MaxLen > 0 && length+l > policy.MaxLen {
				break
			}
			length += l
			end++
		}

		chunks = append(chunks, build(kept[start:end], len(chunks)))

		if end >= len(kept) {
			break
		}
		next := end - overlap
		if next <= start {
			next = start + 1 // overlap must not stall the window
		}
		start = next
	}

	return chunks
}

func build(members []parser.MessageRecord, idx int) Chunk {
	c := Chunk{
		ID:      fmt.Sprintf("%s#chunk-%d", members[0].SourceFile, idx),
		Members: make([]parser.MessageRecord, len(members)),
	}
	copy(c.Members, members)

	lines := make([]string, 0, len(members))
	for _, m := range members {
		lines = append(lines, renderLine(m))
	}
	c.Text = strings.Join(lines, "\n")
	return c
}

func renderLine(m parser.MessageRecord) string {
	if m.Sender == "" {
		return m.Text
	}
	return m.Sender + ": " + m.Text
}
