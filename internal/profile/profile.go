package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/wensicm/WhaRAGBot/internal/parser"
)

// Profile summarizes an ingested archive: who talks, how much, over
// what period. It is written once by ingest and folded into the system
// prompt at query time so the model knows what the excerpts cover.
type Profile struct {
	SelfName     string         `json:"self_name"`
	SourceFiles  []string       `json:"source_files"`
	Participants map[string]int `json:"participants"`
	MessageCount int            `json:"message_count"`
	MetaCount    int            `json:"meta_count"`
	ChunkCount   int            `json:"chunk_count"`
	FirstMessage time.Time      `json:"first_message"`
	LastMessage  time.Time      `json:"last_message"`
	BuiltAt      time.Time      `json:"built_at"`
}

func New(selfName string) *Profile {
	return &Profile{
		SelfName:     selfName,
		Participants: map[string]int{},
		BuiltAt:      time.Now(),
	}
}

// AddRecords folds one conversation's parsed records into the profile.
func (p *Profile) AddRecords(sourceFile string, records []parser.MessageRecord) {
	p.SourceFiles = append(p.SourceFiles, sourceFile)
	for _, r := range records {
		if r.IsMeta {
			p.MetaCount++
			continue
		}
		p.MessageCount++
		if r.Sender != "" {
			p.Participants[r.Sender]++
		}
		if !r.Timestamp.IsZero() {
			if p.FirstMessage.IsZero() || r.Timestamp.Before(p.FirstMessage) {
				p.FirstMessage = r.Timestamp
			}
			if r.Timestamp.After(p.LastMessage) {
				p.LastMessage = r.Timestamp
			}
		}
	}
}

func LoadFromFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	return &p, nil
}

func (p *Profile) SaveToFile(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// FormatForPrompt renders the profile as prompt text.
func (p *Profile) FormatForPrompt() string {
	var b strings.Builder

	if len(p.SourceFiles) > 0 {
		fmt.Fprintf(&b, "- Conversations: %s\n", strings.Join(p.SourceFiles, ", "))
	}
	if len(p.Participants) > 0 {
		names := make([]string, 0, len(p.Participants))
		for name := range p.Participants {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			if p.Participants[names[i]] != p.Participants[names[j]] {
				return p.Participants[names[i]] > p.Participants[names[j]]
			}
			return names[i] < names[j]
		})
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s (%d messages)", name, p.Participants[name]))
		}
		fmt.Fprintf(&b, "- Participants: %s\n", strings.Join(parts, ", "))
	}
	if !p.FirstMessage.IsZero() {
		fmt.Fprintf(&b, "- Period: %s to %s\n",
			p.FirstMessage.Format("2006-01-02"), p.LastMessage.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "- Messages: %d", p.MessageCount)
	if p.MetaCount > 0 {
		fmt.Fprintf(&b, " (plus %d system notices)", p.MetaCount)
	}
	b.WriteString("\n")

	return b.String()
}
