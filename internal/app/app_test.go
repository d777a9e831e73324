package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HNDigest/internal/config"
)

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/v0/topstories.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1, 2, 3]`))
	})
	mux.HandleFunc("/v0/beststories.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1]`))
	})
	mux.HandleFunc("/v0/item/", func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, "/v0/item/") {
		case "1.json":
			fmt.Fprintf(w, `{"id":1,"type":"story","score":150,"title":"Queues at scale","url":"%s/article","descendants":12,"time":1700000000}`, server.URL)
		case "2.json":
			_, _ = w.Write([]byte(`{"id":2,"type":"story","score":20,"title":"Quiet post","time":1700000100}`))
		default:
			_, _ = w.Write([]byte(`null`))
		}
	})
	mux.HandleFunc("/item", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div class="comment">Great write-up</div></body></html>`))
	})
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Queues</title></head><body><article>
			<p>We moved our queue to an append-only log after measuring tail latency for a year and comparing
			several designs under production traffic. The log kept latency flat while throughput tripled.</p>
			<p>Operating it turned out to be simpler than the database table it replaced, and backups reuse
			existing tooling that the storage team maintains for every other service in the company.</p>
		</article></body></html>`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]string{"role": "assistant", "content": "- a point\n- another point"},
				"finish_reason": "stop",
			}},
		})
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRunAllEndToEnd(t *testing.T) {
	upstream := newUpstream(t)
	root := t.TempDir()

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", upstream.URL+"/v1")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("FEED_BASE_URL", "https://feeds.example.com")
	t.Setenv("HN_DIGEST_STATE_DRIVER", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	t.Setenv("LOG_LEVEL", "")

	cfgPath := filepath.Join(root, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
sources:
  - slug: hn
    apiUrl: %[1]s
    siteUrl: %[1]s
    requestsPerSecond: 1000
state:
  dir: %[2]s/state
feed:
  outDir: %[2]s/out
  publicDir: %[2]s/public
metrics:
  textfile: %[2]s/metrics/hndigest.prom
`, upstream.URL, root)), 0o644))

	cfg := config.Load(cfgPath)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	application := New(cfg, logger)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, application.RunAll(context.Background(), now))

	page, err := os.ReadFile(filepath.Join(root, "public", "hn", "feed.xml"))
	require.NoError(t, err)
	body := string(page)
	assert.Contains(t, body, "News digest bot (Hacker News 100+ points)")
	assert.Contains(t, body, "urn:news-digest:1")
	assert.NotContains(t, body, "urn:news-digest:2")
	assert.Contains(t, body, "https://feeds.example.com/hn/feed.xml")
	assert.Contains(t, body, "a point")

	state, err := os.ReadFile(filepath.Join(root, "state", "hn", "state.json"))
	require.NoError(t, err)
	assert.Contains(t, string(state), `"1": 150`)
	assert.Contains(t, string(state), `"2": 20`)

	assert.FileExists(t, filepath.Join(root, "metrics", "hndigest.prom"))

	// A second run with unchanged upstream scores publishes nothing new.
	require.NoError(t, application.RunAll(context.Background(), now))
	again, err := os.ReadFile(filepath.Join(root, "public", "hn", "feed.xml"))
	require.NoError(t, err)
	assert.Equal(t, body, string(again))
}

func TestRunAllWithSQLiteStore(t *testing.T) {
	upstream := newUpstream(t)
	root := t.TempDir()

	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("FEED_BASE_URL", "")
	t.Setenv("HN_DIGEST_STATE_DRIVER", "sqlite")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")

	cfgPath := filepath.Join(root, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
sources:
  - slug: hn
    apiUrl: %[1]s
    siteUrl: %[1]s
    options:
      list: best
state:
  dir: %[2]s/state
feed:
  outDir: %[2]s/out
`, upstream.URL, root)), 0o644))

	cfg := config.Load(cfgPath)
	application := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, application.RunAll(context.Background(), time.Now()))

	assert.FileExists(t, filepath.Join(root, "state", "hn", "state.db"))
	page, err := os.ReadFile(filepath.Join(root, "out", "hn", "feed.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "(failed to")
	assert.Contains(t, string(page), "urn:news-digest:1")
	assert.Contains(t, string(page), `rel="self" href="feed.xml"`)
}
