// Package rag implements hybrid lexical and vector retrieval over indexed
// documents, query preprocessing, and citation formatting.
package rag

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sdamache/konveyor/internal/embedding"
	"github.com/sdamache/konveyor/internal/vectorstore"
	"go.uber.org/zap"
)

const (
	// CollDocuments holds indexed documentation chunks.
	CollDocuments = "documents"
	// CollConversations holds prior conversation turns made searchable for
	// cross-conversation recall.
	CollConversations = "conversations"
)

// MinRelevanceScore is the default floor below which a hit is discarded as
// noise, used when no RetrievalConfig.MinScore override is configured.
const MinRelevanceScore = 0.3

// Engine coordinates embedding generation and hybrid vector/lexical search
// across Qdrant collections to provide retrieval-augmented generation.
type Engine struct {
	embedder embedding.Provider
	qdrant   *vectorstore.Client
	minScore float32
	logger   *zap.Logger
}

// NewEngine creates a retrieval engine backed by the given embedder and
// vector store. minScore overrides MinRelevanceScore when positive,
// normally sourced from RetrievalConfig.MinScore.
func NewEngine(embedder embedding.Provider, qdrant *vectorstore.Client, minScore float32, logger *zap.Logger) *Engine {
	if minScore <= 0 {
		minScore = MinRelevanceScore
	}
	return &Engine{embedder: embedder, qdrant: qdrant, minScore: minScore, logger: logger}
}

// InitCollections ensures all required Qdrant collections exist.
func (e *Engine) InitCollections(ctx context.Context) error {
	dim := uint64(e.embedder.Dimension())
	if dim == 0 {
		dim = 1024
	}
	for _, name := range []string{CollDocuments, CollConversations} {
		if err := e.qdrant.EnsureCollection(ctx, name, dim); err != nil {
			return fmt.Errorf("init collection %s: %w", name, err)
		}
	}
	return nil
}

// Result holds a single retrieval result with its source citation, blended
// relevance score, and originating collection.
type Result struct {
	Content    string
	Source     string
	Score      float32
	Collection string
}

// Query preprocesses the request, embeds it, searches the given collections
// with a blended vector/lexical score, and returns up to topK results at or
// above the engine's relevance floor (minScore) sorted by descending score. If preprocessing yields no
// results above the floor, it retries once with the original, unprocessed
// query text.
func (e *Engine) Query(ctx context.Context, query string, collections []string, topK int) ([]Result, error) {
	processed := PreprocessQuery(query)

	results, err := e.search(ctx, processed, collections, topK)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 && processed != query {
		e.logger.Info("rag query found nothing, retrying with original query", zap.String("query", query))
		results, err = e.search(ctx, query, collections, topK)
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (e *Engine) search(ctx context.Context, query string, collections []string, topK int) ([]Result, error) {
	vectors, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	qvec := vectors[0]

	var all []Result
	for _, coll := range collections {
		hits, err := e.qdrant.Search(ctx, coll, qvec, uint64(topK))
		if err != nil {
			e.logger.Warn("rag search failed", zap.String("collection", coll), zap.Error(err))
			continue
		}
		for _, h := range hits {
			content := h.Payload["content"]
			score := blendScore(h.Score, lexicalScore(query, content))
			if score < e.minScore {
				continue
			}
			all = append(all, Result{
				Content:    content,
				Source:     sourceFor(coll, h.Payload),
				Score:      score,
				Collection: coll,
			})
		}
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})
	if len(all) > topK {
		all = all[:topK]
	}
	return all, nil
}

// sourceFor builds a citation string for a hit, preferring document/chunk
// identifiers from the payload when present.
func sourceFor(collection string, payload map[string]string) string {
	if docID, ok := payload["document_id"]; ok {
		if chunkIdx, ok := payload["chunk_index"]; ok {
			return fmt.Sprintf("Document %s, Chunk %s", docID, chunkIdx)
		}
		return fmt.Sprintf("Document %s", docID)
	}
	return collection
}

// Store embeds content and upserts it into the specified collection.
// Metadata keys document_id and chunk_index, when present, are used to
// build citations at query time.
func (e *Engine) Store(ctx context.Context, collection, content string, metadata map[string]string) error {
	vectors, err := e.embedder.Embed(ctx, []string{content})
	if err != nil {
		return fmt.Errorf("embed content: %w", err)
	}
	if len(vectors) == 0 {
		return fmt.Errorf("empty embedding result")
	}

	id := uuid.New().String()
	payload := make(map[string]string, len(metadata)+2)
	for k, v := range metadata {
		payload[k] = v
	}
	payload["content"] = content
	payload["indexed_at"] = time.Now().UTC().Format(time.RFC3339)

	return e.qdrant.Upsert(ctx, collection, id, vectors[0], payload)
}
