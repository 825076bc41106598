package rag

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/philippgille/chromem-go"

	"github.com/wensicm/WhaRAGBot/internal/chunk"
)

// IndexError marks a vector index failure (open, write, or query).
// There is no repair path: a corrupted index is rebuilt from the
// source archives by re-running ingest.
type IndexError struct {
	Op  string
	Err error
}

func (e *IndexError) Error() string { return fmt.Sprintf("index %s: %v", e.Op, e.Err) }
func (e *IndexError) Unwrap() error { return e.Err }

const collectionName = "chunks"

// addBatchSize bounds how many documents are embedded between
// checkpoint writes during ingest.
const addBatchSize = 20

type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	dir        string
}

// NewStore opens (or creates) the persistent vector store.
func NewStore(vectorsDir string, embedFunc chromem.EmbeddingFunc) (*Store, error) {
	db, err := chromem.NewPersistentDB(vectorsDir, false)
	if err != nil {
		return nil, &IndexError{Op: "open", Err: err}
	}

	col, err := db.GetOrCreateCollection(collectionName, nil, embedFunc)
	if err != nil {
		return nil, &IndexError{Op: "open collection", Err: err}
	}

	slog.Info("vector store loaded", "dir", vectorsDir, "count", col.Count())
	return &Store{db: db, collection: col, dir: vectorsDir}, nil
}

// Add embeds and persists chunks in batches, checkpointing progress so
// an interrupted ingest resumes where it stopped.
func (s *Store) Add(ctx context.Context, chunks []chunk.Chunk) error {
	progressFile := filepath.Join(s.dir, ".progress")
	startFrom := 0
	if data, err := os.ReadFile(progressFile); err == nil {
		if n, perr := strconv.Atoi(string(data)); perr == nil {
			startFrom = n
			slog.Info("resuming from checkpoint", "start", startFrom)
		}
	}

	var docs []chromem.Document
	for i, c := range chunks {
		if i < startFrom {
			continue
		}
		docs = append(docs, toDocument(c))

		if len(docs) >= addBatchSize {
			slog.Info("indexing", "progress", fmt.Sprintf("%d/%d", i+1, len(chunks)))
			if err := s.collection.AddDocuments(ctx, docs, 1); err != nil {
				return &IndexError{Op: fmt.Sprintf("add batch at %d", i), Err: err}
			}
			docs = docs[:0]
			if werr := os.WriteFile(progressFile, []byte(strconv.Itoa(i+1)), 0644); werr != nil {
				slog.Warn("checkpoint write failed, interrupted ingest will restart from zero", "error", werr)
			}
		}
	}

	if len(docs) > 0 {
		if err := s.collection.AddDocuments(ctx, docs, 1); err != nil {
			return &IndexError{Op: "add final batch", Err: err}
		}
	}

	if rerr := os.Remove(progressFile); rerr != nil && !os.IsNotExist(rerr) {
		slog.Warn("checkpoint cleanup failed, next ingest may skip chunks", "error", rerr)
	}
	slog.Info("indexing complete", "total_vectors", s.collection.Count())
	return nil
}

func toDocument(c chunk.Chunk) chromem.Document {
	meta := map[string]string{
		"source_file": c.Members[0].SourceFile,
		"msg_count":   strconv.Itoa(len(c.Members)),
	}
	if ts := c.Members[0].Timestamp; !ts.IsZero() {
		meta["start"] = ts.Format("2006-01-02 15:04")
	}
	if ts := c.Members[len(c.Members)-1].Timestamp; !ts.IsZero() {
		meta["end"] = ts.Format("2006-01-02 15:04")
	}
	return chromem.Document{
		ID:       c.ID,
		Content:  c.Text,
		Metadata: meta,
	}
}

// Query returns up to topK chunks by descending similarity, breaking
// similarity ties by original chunk order so equal hits come back in
// the same order on every run. An empty collection yields an empty
// result, never an error.
func (s *Store) Query(ctx context.Context, text string, topK int, minSimilarity float32) ([]Result, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}

	k := topK
	if k > count {
		k = count
	}

	// Ask for the whole collection, not just k: chromem's own ordering
	// of equal similarities is not stable, so selection and ordering
	// both happen here.
	docs, err := s.collection.Query(ctx, text, count, nil, nil)
	if err != nil {
		return nil, &IndexError{Op: "query", Err: err}
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Similarity != docs[j].Similarity {
			return docs[i].Similarity > docs[j].Similarity
		}
		si, pi := chunkOrder(docs[i].ID)
		sj, pj := chunkOrder(docs[j].ID)
		if si != sj {
			return si < sj
		}
		return pi < pj
	})

	var results []Result
	for _, d := range docs {
		if len(results) == k {
			break
		}
		if d.Similarity < minSimilarity {
			continue
		}
		results = append(results, Result{
			ChunkID:    d.ID,
			Content:    d.Content,
			Similarity: d.Similarity,
			Metadata:   d.Metadata,
		})
	}
	return results, nil
}

// chunkOrder splits a "source#chunk-N" ID into its source prefix and
// position. IDs without the suffix sort by the full ID with position 0.
func chunkOrder(id string) (string, int) {
	if i := strings.LastIndex(id, "#chunk-"); i >= 0 {
		if n, err := strconv.Atoi(id[i+len("#chunk-"):]); err == nil {
			return id[:i], n
		}
	}
	return id, 0
}

// Count returns the number of indexed chunks.
func (s *Store) Count() int {
	return s.collection.Count()
}

type Result struct {
	ChunkID    string
	Content    string
	Similarity float32
	Metadata   map[string]string
}
