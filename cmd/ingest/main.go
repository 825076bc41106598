package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/wensicm/WhaRAGBot/internal/ai"
	"github.com/wensicm/WhaRAGBot/internal/archive"
	"github.com/wensicm/WhaRAGBot/internal/chunk"
	"github.com/wensicm/WhaRAGBot/internal/config"
	"github.com/wensicm/WhaRAGBot/internal/parser"
	"github.com/wensicm/WhaRAGBot/internal/profile"
	"github.com/wensicm/WhaRAGBot/internal/rag"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "config file path")
	skipIndex := flag.Bool("skip-index", false, "parse and chunk only, skip embedding/indexing")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// 1. Extract exports from the archive directory.
	slog.Info("loading archives", "dir", cfg.Chats.Dir)
	exports, failures, err := archive.Load(cfg.Chats.Dir, cfg.Chats.DecryptKey)
	for _, f := range failures {
		slog.Warn("archive skipped", "archive", f.Archive, "error", f.Err)
	}
	if err != nil {
		slog.Error("load archives failed", "error", err)
		os.Exit(1)
	}
	slog.Info("archives loaded", "exports", len(exports), "skipped", len(failures))

	// 2. Parse and chunk each export. A file that fails to parse is
	// reported and skipped; the batch continues.
	p := parser.New(parser.DefaultPatterns(), parser.Options{SelfName: cfg.Chats.SelfName})
	policy := chunk.Policy{
		MaxLen:      cfg.Chunk.MaxLen,
		MaxMessages: cfg.Chunk.MaxMessages,
		Overlap:     cfg.Chunk.Overlap,
		IncludeMeta: cfg.Chats.KeepMeta,
	}

	prof := profile.New(cfg.Chats.SelfName)
	var allRecords []parser.MessageRecord
	var allChunks []chunk.Chunk
	parsed := 0

	for _, exp := range exports {
		var records []parser.MessageRecord
		var warnings []parser.Warning
		var perr error
		if exp.HTML {
			records, warnings, perr = p.ParseHTML(exp.SourceFile, bytes.NewReader(exp.Content))
		} else {
			records, warnings, perr = p.Parse(exp.SourceFile, bytes.NewReader(exp.Content))
		}
		for _, w := range warnings {
			slog.Warn("parse warning", "file", w.SourceFile, "line", w.Line, "reason", w.Reason)
		}
		if perr != nil {
			slog.Warn("export skipped", "file", exp.SourceFile, "error", perr)
			continue
		}

		chunks := chunk.Build(records, policy)
		slog.Info("parsed export", "file", exp.SourceFile, "messages", len(records), "chunks", len(chunks))

		prof.AddRecords(exp.SourceFile, records)
		allRecords = append(allRecords, records...)
		allChunks = append(allChunks, chunks...)
		parsed++
	}

	if parsed == 0 {
		slog.Error("no export parsed successfully")
		os.Exit(1)
	}

	// 3. Persist the processed-message store. These are regenerable
	// caches; a model change just means re-running ingest.
	if err := os.MkdirAll(cfg.RAG.DataDir, 0755); err != nil {
		slog.Error("create data dir failed", "error", err)
		os.Exit(1)
	}
	writeJSON(filepath.Join(cfg.RAG.DataDir, "messages.json"), allRecords)
	writeJSON(filepath.Join(cfg.RAG.DataDir, "chunks.json"), allChunks)

	prof.ChunkCount = len(allChunks)
	profilePath := filepath.Join(cfg.RAG.DataDir, "profile.json")
	if err := prof.SaveToFile(profilePath); err != nil {
		slog.Error("save profile failed", "error", err)
		os.Exit(1)
	}

	// 4. Embed and index.
	if !*skipIndex {
		client, err := ai.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.ChatModel,
			cfg.Gemini.EmbeddingModel, cfg.Gemini.Temperature, cfg.Gemini.MaxOutputTokens, cfg.Gemini.RPMLimit)
		if err != nil {
			slog.Error("create AI client failed", "error", err)
			os.Exit(1)
		}

		store, err := rag.NewStore(filepath.Join(cfg.RAG.DataDir, "vectors"), client.EmbedFunc())
		if err != nil {
			slog.Error("open vector store failed", "error", err)
			os.Exit(1)
		}
		if err := store.Add(ctx, allChunks); err != nil {
			slog.Error("indexing failed", "error", err)
			os.Exit(1)
		}
	}

	report := fmt.Sprintf(`Ingest Report
=============
Exports parsed:  %d
Archives skipped: %d
Messages:        %d (%d system notices)
Chunks:          %d
Data dir:        %s
`, parsed, len(failures), prof.MessageCount, prof.MetaCount, len(allChunks), cfg.RAG.DataDir)

	os.WriteFile(filepath.Join(cfg.RAG.DataDir, "ingest_report.txt"), []byte(report), 0644)
	fmt.Println(report)
	slog.Info("done")
}

func writeJSON(path string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		slog.Warn("marshal failed", "path", path, "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		slog.Warn("write failed", "path", path, "error", err)
	}
}
