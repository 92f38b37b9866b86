// Package knowledge holds the reference documents consulted during data
// enrichment. The index is rebuilt explicitly and queried by word overlap.
package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/claimflow/internal/cache"
	"github.com/ppiankov/claimflow/internal/model"
)

// Chunk is one indexed slice of a document
type Chunk struct {
	ID     string `json:"id"` // <document>-<n>
	Source string `json:"source"`
	Text   string `json:"text"`

	words []string
}

// Match is a ranked chunk
type Match struct {
	Chunk
	Score int `json:"score"`
}

// Stats summarizes a rebuild
type Stats struct {
	Documents int           `json:"documents"`
	Chunks    int           `json:"chunks"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Index is an in-memory chunk index. Rebuild replaces it wholesale
// under the write lock; queries run under the read lock.
type Index struct {
	cfg     model.KnowledgeConfig
	fetcher *Fetcher
	memo    *cache.MemoryCache[string]
	logger  *zap.Logger

	mu     sync.RWMutex
	chunks []Chunk
	built  time.Time
}

// NewIndex creates an empty index; fetcher may be nil when no URLs are configured
func NewIndex(cfg model.KnowledgeConfig, fetcher *Fetcher, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ChunkWords <= 0 {
		cfg.ChunkWords = 500
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	return &Index{
		cfg:     cfg,
		fetcher: fetcher,
		memo:    cache.NewMemoryCache[string](cfg.CacheTTL, time.Minute),
		logger:  logger,
	}
}

// Rebuild reloads every document and replaces the index
func (ix *Index) Rebuild(ctx context.Context) (Stats, error) {
	start := time.Now()

	if ix.fetcher != nil {
		if n, err := ix.fetcher.Prune(); err != nil {
			ix.logger.Warn("Fetch cache prune failed", zap.Error(err))
		} else if n > 0 {
			ix.logger.Debug("Fetch cache pruned", zap.Int("removed", n))
		}
	}

	docs, err := loadAll(ctx, ix.cfg.Dir, ix.cfg.URLs, ix.fetcher, ix.cfg.Concurrency, ix.logger)
	if err != nil {
		return Stats{}, fmt.Errorf("load knowledge: %w", err)
	}

	var chunks []Chunk
	for _, doc := range docs {
		for i, text := range splitIntoChunks(doc.Text, ix.cfg.ChunkWords) {
			chunks = append(chunks, Chunk{
				ID:     fmt.Sprintf("%s-%d", doc.ID, i),
				Source: doc.ID,
				Text:   text,
				words:  strings.Fields(strings.ToLower(text)),
			})
		}
	}

	ix.mu.Lock()
	ix.chunks = chunks
	ix.built = time.Now()
	_ = ix.memo.Clear()
	ix.mu.Unlock()

	stats := Stats{Documents: len(docs), Chunks: len(chunks), Elapsed: time.Since(start)}
	ix.logger.Info("Knowledge index rebuilt",
		zap.Int("documents", stats.Documents),
		zap.Int("chunks", stats.Chunks),
		zap.Duration("elapsed", stats.Elapsed))
	return stats, nil
}

// Query returns the top-K chunks for question joined by newlines, or "" when nothing is indexed
func (ix *Index) Query(question string) string {
	// The read lock also keeps a concurrent Rebuild from racing the memo
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	key := cache.Key("query", question)
	if cached, ok := ix.memo.Get(key); ok {
		return cached
	}

	matches := ix.search(question, ix.cfg.TopK)
	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	result := strings.Join(texts, "\n")

	_ = ix.memo.Set(key, result, 0)
	return result
}

// Search ranks chunks by how many of their words occur in question.
// Ties keep index order; the top k are returned even when they score zero.
func (ix *Index) Search(question string, k int) []Match {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.search(question, k)
}

func (ix *Index) search(question string, k int) []Match {
	if len(ix.chunks) == 0 || k <= 0 {
		return nil
	}

	queryWords := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(question)) {
		queryWords[w] = struct{}{}
	}

	matches := make([]Match, len(ix.chunks))
	for i, c := range ix.chunks {
		score := 0
		for _, w := range c.words {
			if _, ok := queryWords[w]; ok {
				score++
			}
		}
		matches[i] = Match{Chunk: c, Score: score}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// Chunks returns the number of indexed chunks
func (ix *Index) Chunks() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}

// BuiltAt returns the time of the last rebuild
func (ix *Index) BuiltAt() time.Time {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.built
}
