package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
chats:
  dir: /tmp/chats
  self_name: Alice
chunk:
  max_len: 800
gemini:
  api_key: file-key
rag:
  top_k: 4
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_FileValuesAndDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Chats.Dir != "/tmp/chats" {
		t.Errorf("Chats.Dir = %q", cfg.Chats.Dir)
	}
	if cfg.Chats.SelfName != "Alice" {
		t.Errorf("Chats.SelfName = %q", cfg.Chats.SelfName)
	}
	if cfg.Chunk.MaxLen != 800 {
		t.Errorf("Chunk.MaxLen = %d, want 800", cfg.Chunk.MaxLen)
	}
	if cfg.Chunk.MaxMessages != 12 {
		t.Errorf("Chunk.MaxMessages = %d, want default 12", cfg.Chunk.MaxMessages)
	}
	if cfg.Gemini.ChatModel != "gemini-2.5-flash" {
		t.Errorf("Gemini.ChatModel = %q, want default", cfg.Gemini.ChatModel)
	}
	if cfg.RAG.TopK != 4 {
		t.Errorf("RAG.TopK = %d, want 4", cfg.RAG.TopK)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("CHATS_DIR", "/env/chats")
	t.Setenv("SELF_NAME", "Bob")

	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gemini.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env override", cfg.Gemini.APIKey)
	}
	if cfg.Chats.Dir != "/env/chats" {
		t.Errorf("Chats.Dir = %q, want env override", cfg.Chats.Dir)
	}
	if cfg.Chats.SelfName != "Bob" {
		t.Errorf("SelfName = %q, want env override", cfg.Chats.SelfName)
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	cfg := `
chats:
  self_name: Alice
`
	if _, err := Load(writeConfig(t, cfg)); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestLoad_MissingSelfName(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("SELF_NAME", "")

	if _, err := Load(writeConfig(t, "gemini:\n  api_key: k\n")); err == nil {
		t.Fatal("expected error for missing self name")
	}
}

func TestLoad_NegativeOverlapRejected(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")

	cfg := `
chats:
  self_name: Alice
gemini:
  api_key: k
chunk:
  overlap: -2
`
	if _, err := Load(writeConfig(t, cfg)); err == nil {
		t.Fatal("expected error for negative overlap")
	}
}

func TestLoad_OverlapMustBeSmallerThanWindow(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")

	cfg := `
chats:
  self_name: Alice
gemini:
  api_key: k
chunk:
  max_messages: 5
  overlap: 5
`
	if _, err := Load(writeConfig(t, cfg)); err == nil {
		t.Fatal("expected error for overlap >= max_messages")
	}
}
