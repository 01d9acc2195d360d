package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/clip-relay-go/internal/domain"
)

// CookiePool hands out fresh YouTube session cookies. It holds a single
// slot: Take consumes the stored cookie set, and the pool refills from a
// plain front-page request when empty. Fresh anonymous cookies avoid the
// rate limiting that a long-lived session accumulates.
type CookiePool struct {
	client    *http.Client
	userAgent string
	logger    *zap.Logger

	mu      sync.Mutex
	cookies []*http.Cookie
}

const cookieSourceURL = "https://www.youtube.com"

// NewCookiePool creates an empty pool. The first Take triggers a refill.
func NewCookiePool(userAgent string, logger *zap.Logger) *CookiePool {
	return &CookiePool{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: userAgent,
		logger:    logger,
	}
}

// Take returns the pooled cookie set, refilling when the slot is empty.
// Each returned set is consumed; the next caller gets a fresh one.
func (p *CookiePool) Take(ctx context.Context) ([]*http.Cookie, error) {
	p.mu.Lock()
	if len(p.cookies) > 0 {
		cookies := p.cookies
		p.cookies = nil
		p.mu.Unlock()
		return cookies, nil
	}
	p.mu.Unlock()

	return p.refill(ctx)
}

// refill fetches the front page and captures its Set-Cookie response.
func (p *CookiePool) refill(ctx context.Context) ([]*http.Cookie, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cookieSourceURL, nil)
	if err != nil {
		return nil, err
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, domain.Fail(domain.KindTransient, domain.PlatformYouTube, cookieSourceURL,
			fmt.Errorf("cookie refill failed: %w", err))
	}
	defer resp.Body.Close()

	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return nil, domain.Fail(domain.KindTransient, domain.PlatformYouTube, cookieSourceURL,
			fmt.Errorf("cookie refill returned no cookies (status %d)", resp.StatusCode))
	}

	p.logger.Debug("Cookie pool refilled", zap.Int("cookies", len(cookies)))
	return cookies, nil
}

// Return puts an unconsumed cookie set back in the slot, replacing whatever
// is there.
func (p *CookiePool) Return(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	p.mu.Lock()
	p.cookies = cookies
	p.mu.Unlock()
}

// cookieTransport attaches pooled cookies to each outgoing request and
// returns them for reuse when the request succeeds.
type cookieTransport struct {
	pool *CookiePool
	base http.RoundTripper
}

// NewCookieClient builds an HTTP client whose requests carry pooled
// cookies. Used by the YouTube extractor's innertube calls.
func NewCookieClient(pool *CookiePool) *http.Client {
	return &http.Client{
		Transport: &cookieTransport{pool: pool, base: http.DefaultTransport},
	}
}

func (t *cookieTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cookies, err := t.pool.Take(req.Context())
	if err != nil {
		// Cookies are an optimization; the request still goes out bare.
		return t.base.RoundTrip(req)
	}

	// RoundTrippers must not mutate the caller's request.
	clone := req.Clone(req.Context())
	for _, c := range cookies {
		clone.AddCookie(c)
	}
	resp, err := t.base.RoundTrip(clone)
	if err == nil && resp.StatusCode < 400 {
		t.pool.Return(cookies)
	}
	return resp, err
}
