package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/wensicm/WhaRAGBot/internal/ai"
	"github.com/wensicm/WhaRAGBot/internal/answer"
	"github.com/wensicm/WhaRAGBot/internal/config"
	"github.com/wensicm/WhaRAGBot/internal/profile"
	"github.com/wensicm/WhaRAGBot/internal/rag"
	"github.com/wensicm/WhaRAGBot/internal/session"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "config file path")
	query := flag.String("q", "", "ask a single question and exit")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		cancel()
		os.Exit(0)
	}()

	client, err := ai.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.ChatModel,
		cfg.Gemini.EmbeddingModel, cfg.Gemini.Temperature, cfg.Gemini.MaxOutputTokens, cfg.Gemini.RPMLimit)
	if err != nil {
		slog.Error("create AI client failed", "error", err)
		os.Exit(1)
	}

	store, err := rag.NewStore(filepath.Join(cfg.RAG.DataDir, "vectors"), client.EmbedFunc())
	if err != nil {
		slog.Warn("open vector store failed, answering without retrieval", "error", err)
		store = nil
	}
	retriever := rag.NewRetriever(store, cfg.RAG.TopK, cfg.RAG.MinSimilarity)

	profileText := ""
	if prof, err := profile.LoadFromFile(filepath.Join(cfg.RAG.DataDir, "profile.json")); err == nil {
		profileText = prof.FormatForPrompt()
	} else {
		slog.Warn("no archive profile, run ingest first", "error", err)
	}

	composer := answer.NewComposer(client, retriever, cfg.Chats.SelfName, profileText, cfg.RAG.MaxPromptLen)

	if *query != "" {
		text, err := composer.Ask(ctx, *query, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(text)
		return
	}

	sess, err := session.NewManager(cfg.RAG.MaxTurns, cfg.RAG.DataDir)
	if err != nil {
		slog.Error("create session failed", "error", err)
		os.Exit(1)
	}

	runREPL(ctx, composer, sess, store)
}

func runREPL(ctx context.Context, composer *answer.Composer, sess *session.Manager, store *rag.Store) {
	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Println(boldGreen("WhaRAGBot"))
	if store != nil {
		fmt.Printf("%s\n", dim(fmt.Sprintf("%d chunks indexed", store.Count())))
	}
	fmt.Println(dim("Ask about your chat history. 'exit' to quit, '/reset' to clear the session."))
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(boldGreen("You: "))
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "exit", "quit":
			return
		case "/reset":
			sess.Reset()
			sess.Save()
			fmt.Println(dim("session cleared"))
			continue
		}

		text, err := composer.Ask(ctx, input, sess.History())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}

		sess.AddQuestion(input)
		sess.AddAnswer(text)
		if err := sess.Save(); err != nil {
			slog.Warn("save session failed", "error", err)
		}

		fmt.Printf("%s %s\n\n", boldCyan("Bot:"), text)
	}
}
