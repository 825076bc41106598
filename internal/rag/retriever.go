package rag

import (
	"context"
	"log/slog"
)

// Retriever fetches the chunks most relevant to a query. A nil or
// empty store degrades to an empty result so querying keeps working
// before any ingest has run.
type Retriever struct {
	store         *Store
	topK          int
	minSimilarity float32
}

func NewRetriever(store *Store, topK int, minSimilarity float32) *Retriever {
	return &Retriever{
		store:         store,
		topK:          topK,
		minSimilarity: minSimilarity,
	}
}

// Retrieve returns the top-k chunks by descending similarity to the
// query, most relevant first.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]Result, error) {
	if r.store == nil || r.store.Count() == 0 {
		slog.Debug("vector store empty, nothing to retrieve")
		return nil, nil
	}

	results, err := r.store.Query(ctx, query, r.topK, r.minSimilarity)
	if err != nil {
		return nil, err
	}

	slog.Debug("retrieved context", "query", query, "count", len(results))
	return results, nil
}
