package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"google.golang.org/genai"
)

type Message struct {
	Role      string    `json:"role"` // "user" / "model"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Session struct {
	Messages   []Message `json:"messages"`
	LastActive time.Time `json:"last_active"`
}

// Manager keeps the interactive ask session: a bounded history of
// question/answer turns, persisted so follow-up questions keep their
// context across runs.
type Manager struct {
	mu          sync.Mutex
	session     *Session
	maxTurns    int
	sessionFile string
}

func NewManager(maxTurns int, dataDir string) (*Manager, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	m := &Manager{
		maxTurns:    maxTurns,
		sessionFile: filepath.Join(dataDir, "session.json"),
	}

	if data, err := os.ReadFile(m.sessionFile); err == nil {
		var s Session
		if json.Unmarshal(data, &s) == nil {
			m.session = &s
		}
	}
	if m.session == nil {
		m.session = &Session{LastActive: time.Now()}
	}
	return m, nil
}

// AddQuestion records the user's question.
func (m *Manager) AddQuestion(content string) {
	m.add("user", content)
}

// AddAnswer records the model's answer.
func (m *Manager) AddAnswer(content string) {
	m.add("model", content)
}

func (m *Manager) add(role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session.Messages = append(m.session.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	m.session.LastActive = time.Now()
	m.trim()
}

// History returns the session turns as genai contents.
func (m *Manager) History() []*genai.Content {
	m.mu.Lock()
	defer m.mu.Unlock()

	contents := make([]*genai.Content, 0, len(m.session.Messages))
	for _, msg := range m.session.Messages {
		var role genai.Role = genai.RoleUser
		if msg.Role == "model" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return contents
}

// Reset discards the session history.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &Session{LastActive: time.Now()}
}

// Save persists the session to disk.
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return os.WriteFile(m.sessionFile, data, 0644)
}

func (m *Manager) trim() {
	// one turn = question + answer
	max := m.maxTurns * 2
	if max > 0 && len(m.session.Messages) > max {
		m.session.Messages = m.session.Messages[len(m.session.Messages)-max:]
	}
}
