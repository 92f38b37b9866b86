package knowledge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/claimflow/internal/extract"
)

// Document is one loaded reference document
type Document struct {
	ID   string // File name or URL
	Text string
}

// supportedExt lists the file types loaded from the document directory
var supportedExt = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
}

// loadAll reads every document from dir and urls concurrently.
// Unreadable sources are logged and skipped; a missing directory is not an error.
func loadAll(ctx context.Context, dir string, urls []string, fetcher *Fetcher, concurrency int, logger *zap.Logger) ([]Document, error) {
	files, err := listFiles(dir)
	if err != nil {
		return nil, err
	}

	if concurrency <= 0 {
		concurrency = 4
	}

	var (
		mu   sync.Mutex
		docs []Document
	)
	add := func(doc Document) {
		if strings.TrimSpace(doc.Text) == "" {
			return
		}
		mu.Lock()
		docs = append(docs, doc)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := readFile(path)
			if err != nil {
				logger.Warn("Skipping knowledge document", zap.String("path", path), zap.Error(err))
				return nil
			}
			add(Document{ID: filepath.Base(path), Text: text})
			return nil
		})
	}

	for _, rawURL := range urls {
		g.Go(func() error {
			if fetcher == nil {
				return nil
			}
			result, err := fetcher.FetchWithRetry(gctx, rawURL)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn("Skipping knowledge URL", zap.String("url", rawURL), zap.Error(err))
				return nil
			}
			add(Document{ID: rawURL, Text: toText(result.Body)})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Goroutines finish in any order
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// listFiles returns the supported files under dir, sorted
func listFiles(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && supportedExt[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list knowledge dir: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return toText(string(data)), nil
}

// toText strips markup from HTML documents
func toText(content string) string {
	if extract.LooksLikeHTML(content) {
		if text, err := extract.VisibleText(content); err == nil {
			return text
		}
	}
	return content
}

// splitIntoChunks splits text into chunks of at most size words
func splitIntoChunks(text string, size int) []string {
	if size <= 0 {
		size = 500
	}
	words := strings.Fields(text)
	var chunks []string
	for i := 0; i < len(words); i += size {
		end := min(i+size, len(words))
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}
