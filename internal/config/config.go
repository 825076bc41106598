package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Chats  ChatsConfig  `mapstructure:"chats"`
	Chunk  ChunkConfig  `mapstructure:"chunk"`
	Gemini GeminiConfig `mapstructure:"gemini"`
	RAG    RAGConfig    `mapstructure:"rag"`
}

type ChatsConfig struct {
	Dir        string `mapstructure:"dir"`
	SelfName   string `mapstructure:"self_name"`
	DecryptKey string `mapstructure:"decrypt_key"`
	KeepMeta   bool   `mapstructure:"keep_meta"`
}

type ChunkConfig struct {
	MaxLen      int `mapstructure:"max_len"`
	MaxMessages int `mapstructure:"max_messages"`
	Overlap     int `mapstructure:"overlap"`
}

type GeminiConfig struct {
	APIKey          string  `mapstructure:"api_key"`
	ChatModel       string  `mapstructure:"chat_model"`
	EmbeddingModel  string  `mapstructure:"embedding_model"`
	Temperature     float32 `mapstructure:"temperature"`
	MaxOutputTokens int32   `mapstructure:"max_output_tokens"`
	RPMLimit        int     `mapstructure:"rpm_limit"`
}

type RAGConfig struct {
	DataDir       string  `mapstructure:"data_dir"`
	TopK          int     `mapstructure:"top_k"`
	MinSimilarity float32 `mapstructure:"min_similarity"`
	MaxPromptLen  int     `mapstructure:"max_prompt_len"`
	MaxTurns      int     `mapstructure:"max_turns"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Secrets and per-machine paths come from the environment when present.
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		v.Set("gemini.api_key", key)
	}
	if dk := os.Getenv("DECRYPT_KEY"); dk != "" {
		v.Set("chats.decrypt_key", dk)
	}
	if dir := os.Getenv("CHATS_DIR"); dir != "" {
		v.Set("chats.dir", dir)
	}
	if name := os.Getenv("SELF_NAME"); name != "" {
		v.Set("chats.self_name", name)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("gemini.api_key is required (set in config or GEMINI_API_KEY env)")
	}
	if cfg.Chats.SelfName == "" {
		return nil, fmt.Errorf("chats.self_name is required (set in config or SELF_NAME env)")
	}
	if cfg.Chunk.Overlap < 0 {
		return nil, fmt.Errorf("chunk.overlap must not be negative, got %d", cfg.Chunk.Overlap)
	}
	if cfg.Chunk.Overlap >= cfg.Chunk.MaxMessages {
		return nil, fmt.Errorf("chunk.overlap (%d) must be smaller than chunk.max_messages (%d)",
			cfg.Chunk.Overlap, cfg.Chunk.MaxMessages)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chats.dir", "./chats")
	v.SetDefault("chunk.max_len", 1500)
	v.SetDefault("chunk.max_messages", 12)
	v.SetDefault("chunk.overlap", 0)
	v.SetDefault("gemini.chat_model", "gemini-2.5-flash")
	v.SetDefault("gemini.embedding_model", "gemini-embedding-001")
	v.SetDefault("gemini.temperature", 0.4)
	v.SetDefault("gemini.max_output_tokens", 2048)
	v.SetDefault("gemini.rpm_limit", 60)
	v.SetDefault("rag.data_dir", "./data")
	v.SetDefault("rag.top_k", 6)
	v.SetDefault("rag.min_similarity", 0.0)
	v.SetDefault("rag.max_prompt_len", 12000)
	v.SetDefault("rag.max_turns", 20)
}
