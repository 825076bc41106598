package session

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestManager_HistoryRoles(t *testing.T) {
	m, err := NewManager(10, t.TempDir())
	require.NoError(t, err)

	m.AddQuestion("who is Bob?")
	m.AddAnswer("Bob is your climbing partner.")

	history := m.History()
	require.Len(t, history, 2)
	require.Equal(t, genai.Role(genai.RoleUser), genai.Role(history[0].Role))
	require.Equal(t, genai.Role(genai.RoleModel), genai.Role(history[1].Role))
}

func TestManager_TrimsToMaxTurns(t *testing.T) {
	m, err := NewManager(2, t.TempDir())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		m.AddQuestion("q")
		m.AddAnswer("a")
	}
	require.Len(t, m.History(), 4) // 2 turns * 2 messages
}

func TestManager_PersistsAcrossRestarts(t *testing.T) {
	dir := t.TempDir()

	m, err := NewManager(10, dir)
	require.NoError(t, err)
	m.AddQuestion("first")
	m.AddAnswer("answer")
	require.NoError(t, m.Save())

	m2, err := NewManager(10, dir)
	require.NoError(t, err)
	require.Len(t, m2.History(), 2)
}

func TestManager_Reset(t *testing.T) {
	m, err := NewManager(10, t.TempDir())
	require.NoError(t, err)

	m.AddQuestion("q")
	m.Reset()
	require.Empty(t, m.History())
}
