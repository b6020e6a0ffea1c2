package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsDigest/internal/config"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/usecase"
)

const feedBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Lab Blog</title>
    <item>
      <title>Open weights model ships today</title>
      <link>https://lab.example/open-weights</link>
      <description>A new open model is available.</description>
    </item>
  </channel>
</rss>`

func testConfig(t *testing.T, feedURL string) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		Logging:   config.LoggingConfig{Level: "error"},
		Database:  config.DatabaseConfig{Driver: "sqlite3", DSN: filepath.Join(dir, "db", "digest.db")},
		Scheduler: config.SchedulerConfig{RunAt: "07:00"},
		LLM:       config.LLMConfig{Provider: config.ProviderOpenAI},
		OutputDir: filepath.Join(dir, "out"),
		Sites: []config.SiteConfig{{
			Name:       "labs",
			Scanner:    "feed",
			Categories: []config.CategoryConfig{{Name: "lab-blog", URL: feedURL}},
		}},
	}
}

func TestApplicationRunDigest(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feedBody))
	}))
	defer server.Close()

	ctx := context.Background()
	application, err := New(ctx, testConfig(t, server.URL+"/rss.xml"), logging.Discard())
	require.NoError(t, err)
	defer application.Close()

	result, err := application.RunDigest(ctx, usecase.DigestOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stored)
	assert.True(t, result.Legacy)
	require.NotEmpty(t, result.OutputPath)
	assert.Equal(t, application.Config().OutputDir, filepath.Dir(result.OutputPath))

	md, err := os.ReadFile(result.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "Open weights model ships today")

	again, err := application.RunDigest(ctx, usecase.DigestOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Stored)
	assert.Equal(t, 1, again.Duplicates)

	articles, err := application.Curation.ListArticles(ctx, "")
	require.NoError(t, err)
	assert.Len(t, articles, 1)

	_, err = application.Sender.Prepare(ctx, nil)
	require.ErrorIs(t, err, usecase.ErrNoArticles)
}

func TestApplicationRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://unused")
	cfg.Database.Driver = "oracle"

	_, err := New(context.Background(), cfg, logging.Discard())
	require.Error(t, err)
}
