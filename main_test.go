package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangascraper/internal/extractor"
	"mangascraper/internal/schema"
	"mangascraper/internal/scraper"
)

func TestInferFormatFromExtension(t *testing.T) {
	tests := map[string]string{
		"out.md":    "markdown",
		"out.JSON":  "json",
		"page.htm":  "html",
		"notes.txt": "text",
		"rows.csv":  "csv",
		"blob.bin":  "",
	}
	for name, want := range tests {
		assert.Equal(t, want, inferFormatFromExtension(name), name)
	}
}

func TestValidFormat(t *testing.T) {
	assert.True(t, validFormat("markdown"))
	assert.False(t, validFormat("xml"))
}

func TestScrapeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "details.html")
	page := `<html><body><main><div><section>
<section></section>
<section><picture><img src="/cover.webp"></picture></section>
</section></div></main></body></html>`
	require.NoError(t, os.WriteFile(path, []byte(page), 0644))

	reg, err := schema.Default()
	require.NoError(t, err)
	svc := scraper.NewService(reg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	resp, err := scrapeFile(context.Background(), svc, scraper.Request{PageType: "details", Slug: "abc"}, path)
	require.NoError(t, err)

	item, ok := resp.Data.(extractor.Item)
	require.True(t, ok)
	assert.Equal(t, "https://weebcentral.com/cover.webp", item["image"])
	assert.Equal(t, []string{}, item["genres"])
	assert.Equal(t, "", item["title"])
}

func TestScrapeFile_ValidationFirst(t *testing.T) {
	reg, err := schema.Default()
	require.NoError(t, err)
	svc := scraper.NewService(reg, nil, nil)

	_, err = scrapeFile(context.Background(), svc, scraper.Request{PageType: "details"}, "does-not-exist.html")
	assert.ErrorIs(t, err, scraper.ErrSlugRequired)
}
