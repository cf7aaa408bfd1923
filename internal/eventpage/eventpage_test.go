package eventpage_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/gumdrop/internal/apperr"
	"github.com/neexbeast/gumdrop/internal/eventpage"
	"github.com/neexbeast/gumdrop/internal/poll"
)

const eventbritePage = `<!doctype html>
<html><head><title>Tickets</title></head>
<body>
  <div class="event-hero">
    <h1 data-testid="event-title">  Indie   Night
      Live </h1>
  </div>
  <time datetime="2025-10-04T19:00:00Z">Saturday, October 4 · 7pm - 11pm GMT+1</time>
  <div class="location-info__address">
    <p class="location-info__address-text">The O2 Arena</p>
    Peninsula Square London SE10 0DX
    <a href="#">Get directions</a>
  </div>
</body></html>`

const ldOnlyPage = `<html><head>
<script type="application/ld+json">
[{"@type":"Organization","name":"Promoter"},
 {"@type":"MusicEvent","name":"Jazz on the Roof","startDate":"2025-11-02T20:00:00Z",
  "location":{"@type":"Place","name":"Sky Garden","address":{"streetAddress":"1 Sky Garden Walk","addressLocality":"London","postalCode":"EC3M 8AF"}}}]
</script></head><body><div>no headings here</div></body></html>`

func TestExtract_Markup(t *testing.T) {
	d, err := eventpage.Extract(strings.NewReader(eventbritePage))
	require.NoError(t, err)
	assert.Equal(t, "Indie Night Live", d.Title)
	assert.Equal(t, "Saturday, October 4 · 7pm - 11pm GMT+1", d.Date)
	assert.Equal(t, "The O2 Arena, Peninsula Square London SE10 0DX", d.Location)
	assert.Equal(t, "Peninsula Square London SE10 0DX", d.Address)
}

func TestExtract_StructuredDataFallback(t *testing.T) {
	d, err := eventpage.Extract(strings.NewReader(ldOnlyPage))
	require.NoError(t, err)
	assert.Equal(t, "Jazz on the Roof", d.Title)
	assert.Equal(t, "2025-11-02T20:00:00Z", d.Date)
	assert.Equal(t, "Sky Garden", d.Location)
	assert.Equal(t, "1 Sky Garden Walk, London, EC3M 8AF", d.Address)
}

func fastPolicy(attempts int) poll.Policy {
	return poll.Policy{Initial: time.Millisecond, Multiplier: 2, MaxDelay: 4 * time.Millisecond, MaxAttempts: attempts, Timeout: 2 * time.Second}
}

func TestScrape_RetriesUntilTitleAppears(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			_, _ = w.Write([]byte(`<html><body><div id="app">loading…</div></body></html>`))
			return
		}
		_, _ = w.Write([]byte(eventbritePage))
	}))
	t.Cleanup(srv.Close)

	d, err := eventpage.NewScraperWithClient(fastPolicy(5), srv.Client(), nil).Scrape(context.Background(), srv.URL+"/e/indie-night")

	require.NoError(t, err)
	assert.Equal(t, "Indie Night Live", d.Title)
	assert.Equal(t, srv.URL+"/e/indie-night", d.URL)
	assert.Equal(t, int32(3), hits.Load())
}

func TestScrape_NoTitleIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body></body></html>`))
	}))
	t.Cleanup(srv.Close)

	_, err := eventpage.NewScraperWithClient(fastPolicy(3), srv.Client(), nil).Scrape(context.Background(), srv.URL)
	assert.True(t, apperr.IsNotFound(err))
}

func TestScrape_ClientErrorNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	_, err := eventpage.NewScraperWithClient(fastPolicy(5), srv.Client(), nil).Scrape(context.Background(), srv.URL)

	var ue *apperr.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusNotFound, ue.Status)
	assert.Equal(t, int32(1), hits.Load())
}

func TestScrape_InvalidURL(t *testing.T) {
	_, err := eventpage.NewScraper(fastPolicy(1), nil).Scrape(context.Background(), "ftp://example.com/x")
	assert.True(t, apperr.IsValidation(err))
}

func TestScrape_RefusesInternalAddresses(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(eventbritePage))
	}))
	t.Cleanup(srv.Close)

	s := eventpage.NewScraper(fastPolicy(3), nil)

	for _, target := range []string{
		srv.URL,
		"http://169.254.169.254/latest/meta-data",
		"http://10.0.0.5/e/1",
		"http://[::1]:8080/",
	} {
		_, err := s.Scrape(context.Background(), target)
		assert.True(t, apperr.IsValidation(err), "%s: %v", target, err)
	}
	assert.Zero(t, hits.Load())
}

func TestScrape_RefusesHostnamesResolvingInternally(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(eventbritePage))
	}))
	t.Cleanup(srv.Close)

	target := strings.Replace(srv.URL, "127.0.0.1", "localhost", 1)
	_, err := eventpage.NewScraper(fastPolicy(3), nil).Scrape(context.Background(), target)

	assert.True(t, apperr.IsValidation(err), "%v", err)
	assert.Zero(t, hits.Load())
}
