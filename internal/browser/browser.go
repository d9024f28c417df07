// Package browser wraps the headless browser behind small capability
// interfaces so the analysis pipeline can run against a real Chrome (via
// chromedp) in production and a scripted fake in tests.
package browser

import (
	"context"
	"time"

	"github.com/privalens/privalens/internal/model"
)

// Session owns one browser process. One session is opened lazily per scan
// run and closed on completion or failure.
type Session interface {
	// NewPage opens a fresh page context. Pages are never shared across
	// URLs; open one per URL and close it when done.
	NewPage(ctx context.Context) (Page, error)

	Close() error
}

// Page is one isolated page context. All blocking calls take a context so
// cancellation propagates through navigation and evaluation.
type Page interface {
	// Navigate loads url, enforcing timeout, and waits for the page to
	// settle so deferred scripts have run. A timeout is returned as an
	// error; callers treat it as per-URL recoverable.
	Navigate(ctx context.Context, url string, timeout time.Duration) error

	// Content returns the rendered document HTML.
	Content(ctx context.Context) (string, error)

	// Cookies returns the cookie jar as observed after navigation.
	Cookies(ctx context.Context) ([]model.RawCookie, error)

	// Evaluate runs a JS expression and unmarshals its result into out.
	Evaluate(ctx context.Context, expr string, out any) error

	// Requests returns the network requests captured since the page was
	// opened. The interception hook is registered before navigation.
	Requests() []model.RawRequest

	Close() error
}

// Config controls the browser session.
type Config struct {
	Headless        bool
	ViewportWidth   int
	ViewportHeight  int
	AcceptLanguages string
	UserAgent       string

	// SettleDelay is how long the network must stay idle after navigation
	// before a page is considered loaded.
	SettleDelay time.Duration
}

// DefaultConfig returns browser defaults suitable for unattended scans.
func DefaultConfig() Config {
	return Config{
		Headless:        true,
		ViewportWidth:   1366,
		ViewportHeight:  768,
		AcceptLanguages: "en-US,en",
		SettleDelay:     1500 * time.Millisecond,
	}
}
