// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docindex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-assistant/pkg/types"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(types.DocIndexConfig{
		DBPath:     filepath.Join(t.TempDir(), "docindex.db"),
		MaxResults: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func writeChunkFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

const goodChunkFile = `document_id: scheduling-notes
title: Scheduling Notes
published_at: 2025-11-01T00:00:00Z
chunks:
  - The scheduler prefers idle workers over busy ones.
  - Preemption only happens above the priority threshold.
  - ""
`

func TestLoadAndSearch(t *testing.T) {
	idx := openTestIndex(t)
	dir := t.TempDir()
	writeChunkFile(t, dir, "scheduling.yaml", goodChunkFile)

	summary, err := idx.Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Documents)
	// The blank chunk is skipped.
	assert.Equal(t, 2, summary.Chunks)
	assert.Equal(t, 0, summary.Failed)

	chunks, err := idx.Search(context.Background(), "idle workers", 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "scheduling-notes#0", chunks[0].ID)
	assert.Equal(t, "Scheduling Notes", chunks[0].Title)
	assert.False(t, chunks[0].PublishedAt.IsZero())
}

func TestLoadSkipsMalformedFiles(t *testing.T) {
	idx := openTestIndex(t)
	dir := t.TempDir()
	writeChunkFile(t, dir, "good.yaml", goodChunkFile)
	writeChunkFile(t, dir, "broken.yaml", "{{{not yaml")
	writeChunkFile(t, dir, "missing-id.yaml", "title: No Document ID\nchunks:\n  - text\n")
	writeChunkFile(t, dir, "ignored.txt", "not a chunk file")

	summary, err := idx.Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Documents)
	assert.Equal(t, 2, summary.Failed)
}

func TestReloadReplacesDocument(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	dir := t.TempDir()
	writeChunkFile(t, dir, "doc.yaml", goodChunkFile)
	_, err := idx.Load(ctx, dir)
	require.NoError(t, err)

	writeChunkFile(t, dir, "doc.yaml", `document_id: scheduling-notes
title: Scheduling Notes v2
chunks:
  - Completely rewritten guidance on scheduling.
`)
	_, err = idx.Load(ctx, dir)
	require.NoError(t, err)

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	chunks, err := idx.Search(ctx, "rewritten guidance", 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Scheduling Notes v2", chunks[0].Title)
}

func TestSearchEmptyQuery(t *testing.T) {
	idx := openTestIndex(t)

	chunks, err := idx.Search(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestCountEmptyIndex(t *testing.T) {
	idx := openTestIndex(t)

	n, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
