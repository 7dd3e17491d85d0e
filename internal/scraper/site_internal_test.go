package scraper

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixo-intel/competitor-watch/internal/config"
)

// The inter-request delay applies between page fetches even when the
// previous page failed all its attempts.
func TestScrape_DelayAppliesAfterFailedPage(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/bad", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/good", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "<html><body>ok</body></html>")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	entity := config.Entity{
		ID: "acme",
		Pages: map[string]string{
			"a-bad":  server.URL + "/bad",
			"b-good": server.URL + "/good",
		},
	}
	scraping := config.Scraping{MaxRetries: 1, Delay: 250 * time.Millisecond}

	s := NewSiteScraper(slog.New(slog.NewTextHandler(io.Discard, nil)), entity, scraping)

	var slept []time.Duration
	s.sleep = func(_ context.Context, d time.Duration) { slept = append(slept, d) }

	snapshot, err := s.Scrape(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{250 * time.Millisecond}, slept)
	assert.Contains(t, snapshot.RawPageHashes, "b-good")
	assert.NotContains(t, snapshot.RawPageHashes, "a-bad")
}
