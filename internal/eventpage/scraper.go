package eventpage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"syscall"
	"time"

	"github.com/neexbeast/gumdrop/internal/apperr"
	"github.com/neexbeast/gumdrop/internal/observability"
	"github.com/neexbeast/gumdrop/internal/poll"
	"github.com/neexbeast/gumdrop/internal/stay"
)

const (
	service     = "eventpage"
	httpTimeout = 10 * time.Second
	maxPage     = 4 << 20
	userAgent   = "Mozilla/5.0 (compatible; GumdropBot/1.0)"
)

// Scraper fetches event pages until a title can be extracted.
type Scraper struct {
	hc     *http.Client
	policy poll.Policy
	log    *slog.Logger
}

// ErrBlockedAddress is returned when an event URL resolves to a loopback,
// private, link-local or unspecified address.
var ErrBlockedAddress = errors.New("eventpage: destination address not allowed")

// NewScraper returns a Scraper whose client refuses to connect to internal
// addresses, including on redirect hops.
func NewScraper(policy poll.Policy, log *slog.Logger) *Scraper {
	dialer := &net.Dialer{Timeout: 5 * time.Second, Control: guardDial}
	hc := &http.Client{
		Timeout: httpTimeout,
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: 5 * time.Second,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	return NewScraperWithClient(policy, hc, log)
}

// NewScraperWithClient uses hc as is, with no address guard (for tests).
func NewScraperWithClient(policy poll.Policy, hc *http.Client, log *slog.Logger) *Scraper {
	if log == nil {
		log = slog.Default()
	}
	return &Scraper{hc: hc, policy: policy, log: log}
}

func blockedAddr(a netip.Addr) bool {
	a = a.Unmap()
	return a.IsLoopback() || a.IsPrivate() || a.IsLinkLocalUnicast() ||
		a.IsLinkLocalMulticast() || a.IsMulticast() || a.IsUnspecified()
}

// guardDial runs after DNS resolution, so hostnames that resolve to
// internal addresses are caught too.
func guardDial(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	a, err := netip.ParseAddr(host)
	if err != nil || blockedAddr(a) {
		return ErrBlockedAddress
	}
	return nil
}

func blockedURL() error {
	return apperr.Invalid("event url must point to a public address", "url")
}

// Scrape fetches rawURL under the polling policy. Pages that never yield a
// title produce a NotFoundError.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (stay.EventDetails, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return stay.EventDetails{}, apperr.Invalid("a valid http(s) event url is required", "url")
	}
	if a, err := netip.ParseAddr(u.Hostname()); err == nil && blockedAddr(a) {
		return stay.EventDetails{}, blockedURL()
	}

	var got stay.EventDetails
	attempt := 0
	err = s.policy.Run(ctx, func(ctx context.Context) (bool, error) {
		attempt++
		d, err := s.fetch(ctx, u.String())
		if err != nil {
			if errors.Is(err, ErrBlockedAddress) {
				return false, poll.Permanent(blockedURL())
			}
			var ue *apperr.UpstreamError
			if errors.As(err, &ue) && ue.Status >= 400 && ue.Status < 500 && ue.Status != http.StatusTooManyRequests {
				return false, poll.Permanent(err)
			}
			s.log.Debug("event page fetch failed", "url", rawURL, "attempt", attempt, "err", err)
			return false, err
		}
		got = d
		return d.Title != "", nil
	})

	if err == nil {
		got.URL = u.String()
		return got, nil
	}
	var ue *apperr.UpstreamError
	if errors.Is(err, poll.ErrExhausted) && !errors.As(err, &ue) {
		return stay.EventDetails{}, apperr.NotFound("event details at " + rawURL)
	}
	return stay.EventDetails{}, err
}

func (s *Scraper) fetch(ctx context.Context, rawURL string) (stay.EventDetails, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return stay.EventDetails{}, fmt.Errorf("creating event page request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := s.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(service, "fetch", 0, time.Since(start))
		return stay.EventDetails{}, &apperr.UpstreamError{Service: service, Err: err}
	}
	defer resp.Body.Close()
	observability.ObserveExternal(service, "fetch", resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return stay.EventDetails{}, &apperr.UpstreamError{Service: service, Status: resp.StatusCode, Body: string(b), Message: "event page fetch failed"}
	}

	return Extract(io.LimitReader(resp.Body, maxPage))
}
