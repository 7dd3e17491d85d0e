package scraper

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/fixo-intel/competitor-watch/internal/config"
	"github.com/fixo-intel/competitor-watch/internal/models"
)

const aboutPreviewLen = 280

// SiteScraper is the generic goquery-backed extraction strategy. It fetches
// the entity's configured pages with retries and a politeness delay, hashes
// every fetched page and applies the entity's CSS selectors to pull
// structured facts.
type SiteScraper struct {
	log      *slog.Logger
	client   *http.Client
	entity   config.Entity
	scraping config.Scraping
	sleep    func(ctx context.Context, d time.Duration)
}

// NewSiteScraper creates a scraper for one configured entity.
func NewSiteScraper(log *slog.Logger, entity config.Entity, scraping config.Scraping) *SiteScraper {
	return &SiteScraper{
		log:      log,
		client:   &http.Client{Timeout: scraping.Timeout},
		entity:   entity,
		scraping: scraping,
		sleep:    sleepCtx,
	}
}

// Scrape fetches every configured page and builds a snapshot. Pages that
// fail after all retries are skipped; their names are recorded in the
// snapshot metadata. Never returns an error for fetch failures alone.
func (s *SiteScraper) Scrape(ctx context.Context) (*models.Snapshot, error) {
	const opn = "scraper.Scrape"
	log := s.log.With("op", opn, "entity", s.entity.ID)

	snapshot := models.NewSnapshot(s.entity.ID)
	docs := make(map[string]*goquery.Document)

	var failed []string
	pageNames := sortedKeys(s.entity.Pages)
	for i, name := range pageNames {
		// Politeness delay between requests to the same host, whatever
		// came of the previous page.
		if i > 0 && s.scraping.Delay > 0 {
			s.sleep(ctx, s.scraping.Delay)
		}

		pageURL := s.entity.Pages[name]

		body, err := s.fetchPage(ctx, pageURL)
		if err != nil {
			log.WarnContext(ctx, "Page fetch failed, skipping", "page", name, "url", pageURL, "error", err)
			failed = append(failed, name)
			continue
		}

		snapshot.RawPageHashes[name] = contentHash(body)

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			log.WarnContext(ctx, "Page cannot be parsed as HTML, structured extraction skipped",
				"page", name, "error", err)
			continue
		}
		docs[name] = doc
	}

	for _, name := range sortedKeys(docs) {
		doc := docs[name]
		snapshot.Services = append(snapshot.Services, s.selectTexts(doc, s.entity.Selectors.Services)...)
		snapshot.Locations = append(snapshot.Locations, s.selectTexts(doc, s.entity.Selectors.Locations)...)
		snapshot.Promotions = append(snapshot.Promotions, s.selectTexts(doc, s.entity.Selectors.Promotions)...)
		s.extractPricing(doc, snapshot.Pricing)
	}
	snapshot.Normalize()

	s.extractBusinessInfo(docs, snapshot)

	snapshot.Metadata["pages_fetched"] = strconv.Itoa(len(snapshot.RawPageHashes))
	snapshot.Metadata["pages_failed"] = strconv.Itoa(len(failed))
	if len(failed) > 0 {
		snapshot.Metadata["failed_pages"] = strings.Join(failed, ",")
	}

	log.InfoContext(ctx, "Snapshot built",
		"services", len(snapshot.Services),
		"locations", len(snapshot.Locations),
		"prices", len(snapshot.Pricing),
		"promotions", len(snapshot.Promotions),
		"pages_failed", len(failed),
	)

	return snapshot, nil
}

// fetchPage retrieves one page, retrying transient failures with
// exponential backoff up to the configured ceiling.
func (s *SiteScraper) fetchPage(ctx context.Context, pageURL string) (string, error) {
	reqURL, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse page URL %s: %w", pageURL, err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.scraping.MaxRetries; attempt++ {
		body, err := s.doRequest(ctx, reqURL.String())
		if err == nil {
			return body, nil
		}
		lastErr = err

		s.log.WarnContext(ctx, "Fetch attempt failed",
			"url", pageURL, "attempt", attempt, "error", err)

		if ctx.Err() != nil {
			return "", fmt.Errorf("fetch canceled: %w", ctx.Err())
		}
		if attempt < s.scraping.MaxRetries {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			s.sleep(ctx, backoff)
		}
	}

	return "", fmt.Errorf("all %d attempts failed for %s: %w", s.scraping.MaxRetries, pageURL, lastErr)
}

func (s *SiteScraper) doRequest(ctx context.Context, reqURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create new request %s: %w", reqURL, err)
	}

	req.Header.Add("User-Agent", s.scraping.UserAgent)
	req.Header.Add("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	res, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request %s: %w", reqURL, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status code error: [%d] %s", res.StatusCode, res.Status)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}

// selectTexts collects trimmed, non-empty texts matching the selector.
func (s *SiteScraper) selectTexts(doc *goquery.Document, selector string) []string {
	if selector == "" {
		return nil
	}

	var texts []string
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			texts = append(texts, text)
		}
	})
	return texts
}

// extractPricing reads label/price pairs from rows matching the price-rows
// selector: first cell is the label, last cell is the price.
func (s *SiteScraper) extractPricing(doc *goquery.Document, pricing map[string]string) {
	if s.entity.Selectors.PriceRows == "" {
		return
	}

	doc.Find(s.entity.Selectors.PriceRows).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th, dt, dd")
		if cells.Length() < 2 {
			return
		}

		label := strings.TrimSpace(cells.First().Text())
		price := strings.TrimSpace(cells.Last().Text())
		if label != "" && price != "" {
			pricing[label] = price
		}
	})
}

// extractBusinessInfo hashes the first non-empty "about" narrative found
// across the fetched pages and keeps a bounded preview for display.
func (s *SiteScraper) extractBusinessInfo(docs map[string]*goquery.Document, snapshot *models.Snapshot) {
	if s.entity.Selectors.About == "" {
		return
	}

	// Prefer the page conventionally named "about" when it was fetched.
	names := sortedKeys(docs)
	if _, ok := docs["about"]; ok {
		names = append([]string{"about"}, names...)
	}

	for _, name := range names {
		texts := s.selectTexts(docs[name], s.entity.Selectors.About)
		if len(texts) == 0 {
			continue
		}

		about := strings.Join(texts, "\n")
		snapshot.BusinessInfo[models.AboutTextHashKey] = contentHash(about)
		snapshot.BusinessInfo[models.AboutTextPreviewKey] = truncateRunes(about, aboutPreviewLen)
		return
	}
}

// contentHash calculates the SHA256 hash of a page's content.
func contentHash(content string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(content)))
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
