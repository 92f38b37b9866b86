package knowledge

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimflow/internal/model"
)

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func testConfig(dir string) model.KnowledgeConfig {
	return model.KnowledgeConfig{
		Dir:         dir,
		ChunkWords:  500,
		TopK:        3,
		CacheTTL:    time.Minute,
		Concurrency: 2,
	}
}

func TestIndex_EmptyBeforeRebuild(t *testing.T) {
	ix := NewIndex(testConfig(t.TempDir()), nil, nil)
	assert.Equal(t, "", ix.Query("anything"))
	assert.Equal(t, 0, ix.Chunks())
}

func TestIndex_MissingDirIsEmpty(t *testing.T) {
	ix := NewIndex(testConfig(filepath.Join(t.TempDir(), "nope")), nil, nil)

	stats, err := ix.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Chunks)
	assert.Equal(t, "", ix.Query("water damage"))
}

func TestIndex_RebuildAndQuery(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "auto.txt", "Auto policies cover collision damage to the insured vehicle.")
	writeDoc(t, dir, "home.md", "Home policies cover water damage from burst pipes but not flooding.")
	writeDoc(t, dir, "travel.html", "<html><body><p>Travel insurance covers lost luggage.</p><script>x()</script></body></html>")
	writeDoc(t, dir, "ignored.pdf", "binary")

	cfg := testConfig(dir)
	cfg.TopK = 1
	ix := NewIndex(cfg, nil, nil)

	stats, err := ix.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Documents)
	assert.Equal(t, 3, ix.Chunks())
	assert.False(t, ix.BuiltAt().IsZero())

	assert.Contains(t, ix.Query("is water damage from pipes covered"), "burst pipes")
	assert.Equal(t, "Travel insurance covers lost luggage.", ix.Query("lost luggage"))
}

func TestIndex_TopKJoinedByNewline(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "alpha")
	writeDoc(t, dir, "b.txt", "beta")
	writeDoc(t, dir, "c.txt", "gamma")
	writeDoc(t, dir, "d.txt", "delta")

	ix := NewIndex(testConfig(dir), nil, nil)
	_, err := ix.Rebuild(context.Background())
	require.NoError(t, err)

	// No overlap at all still yields the first K chunks in index order
	assert.Equal(t, "alpha\nbeta\ngamma", ix.Query("zzz"))

	matches := ix.Search("delta", 2)
	require.Len(t, matches, 2)
	assert.Equal(t, "d.txt-0", matches[0].ID)
	assert.Equal(t, 1, matches[0].Score)
}

func TestIndex_ChunksByWordCount(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "long.txt", strings.Repeat("word ", 1200))

	ix := NewIndex(testConfig(dir), nil, nil)
	_, err := ix.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, ix.Chunks())
}

func TestIndex_RebuildFlushesMemo(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "old guidance on hail")

	ix := NewIndex(testConfig(dir), nil, nil)
	_, err := ix.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "old guidance on hail", ix.Query("hail"))

	writeDoc(t, dir, "a.txt", "new guidance on hail")
	_, err = ix.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new guidance on hail", ix.Query("hail"))
}

func TestIndex_LoadsURLs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, "<html><body><h1>Fraud guide</h1><p>Staged accidents are common.</p></body></html>")
	}))
	defer server.Close()

	cfg := testConfig("")
	cfg.URLs = []string{server.URL + "/fraud-guide.html", server.URL + "/missing"}
	ix := NewIndex(cfg, NewFetcher(model.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test"}, cfg), nil)

	stats, err := ix.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Documents)
	assert.Contains(t, ix.Query("staged accidents"), "Staged accidents are common.")
}

func TestIndex_RebuildCancelled(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "text")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ix := NewIndex(testConfig(dir), nil, nil)
	_, err := ix.Rebuild(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
