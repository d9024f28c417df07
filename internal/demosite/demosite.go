// Package demosite serves a small site that exhibits the signals the scanner
// looks for: first and third-party cookies, tracking scripts, storage writes,
// embedded frames, forms and a consent banner that can be toggled off to
// exercise the no-CMP recommendation.
package demosite

import (
	"fmt"
	"net/http"
	"sync"
)

type Config struct {
	// Port is the port on which the demo site listens.
	Port int

	// WithConsent serves the consent banner markup. Disable it to trigger
	// the "no consent management detected" finding.
	WithConsent bool
}

func DefaultConfig() Config {
	return Config{Port: 9999, WithConsent: true}
}

// DemoSite is a plain HTTP server; scan it with a depth of 2 to cover all
// pages.
type DemoSite struct {
	cfg Config
	mu  sync.RWMutex
}

func New(cfg Config) *DemoSite {
	return &DemoSite{cfg: cfg}
}

// SetConsent toggles the consent banner at runtime so two scans of the same
// demo instance produce a diff.
func (s *DemoSite) SetConsent(enabled bool) {
	s.mu.Lock()
	s.cfg.WithConsent = enabled
	s.mu.Unlock()
}

func (s *DemoSite) consentEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.WithConsent
}

// Handler returns the site's routes; exposed separately so tests can mount it
// on httptest servers.
func (s *DemoSite) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/pricing", s.handlePricing)
	mux.HandleFunc("/contact", s.handleContact)
	mux.HandleFunc("/toggle-consent", s.handleToggleConsent)
	return mux
}

// Start blocks serving the demo site.
func (s *DemoSite) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	fmt.Printf("Demo site on http://localhost%s (scan target)\n", addr)
	fmt.Printf("Toggle the consent banner at http://localhost%s/toggle-consent\n", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *DemoSite) setCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name: "session_id", Value: "a1b2c3d4", Path: "/", HttpOnly: true, MaxAge: 0,
	})
	http.SetCookie(w, &http.Cookie{
		Name: "_ga", Value: "GA1.2.123456789.1700000000", Path: "/", MaxAge: 60 * 60 * 24 * 400,
	})
	http.SetCookie(w, &http.Cookie{
		Name: "user_email", Value: "demo@example.com", Path: "/", MaxAge: 60 * 60 * 24 * 7,
	})
}

func (s *DemoSite) consentMarkup() string {
	if !s.consentEnabled() {
		return ""
	}
	return `<div id="cookie-banner">
  <p>We use cookies.</p>
  <script>window.__tcfapi = function() {};</script>
</div>`
}

func (s *DemoSite) handleHome(w http.ResponseWriter, r *http.Request) {
	s.setCookies(w)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
  <title>Demo Shop</title>
  <script src="https://www.googletagmanager.com/gtag/js?id=G-DEMO"></script>
  <script>
    window.dataLayer = window.dataLayer || [];
    function gtag(){dataLayer.push(arguments);}
    gtag('js', new Date());
    localStorage.setItem('_ga_client', 'GA1.2.123456789.1700000000');
    sessionStorage.setItem('cart', 'empty');
  </script>
</head>
<body>
  %s
  <h1>Demo Shop</h1>
  <a href="/pricing">Pricing</a>
  <a href="/contact">Contact</a>
  <iframe src="https://www.youtube.com/embed/demo" width="560" height="315"></iframe>
  <img src="https://www.facebook.com/tr?id=123&ev=PageView" width="1" height="1" />
</body>
</html>`, s.consentMarkup())
}

func (s *DemoSite) handlePricing(w http.ResponseWriter, r *http.Request) {
	s.setCookies(w)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>Pricing</title></head>
<body>
  %s
  <h1>Pricing</h1>
  <a href="/">Home</a>
  <a href="/contact">Contact</a>
</body>
</html>`, s.consentMarkup())
}

func (s *DemoSite) handleContact(w http.ResponseWriter, r *http.Request) {
	s.setCookies(w)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>Contact</title></head>
<body>
  %s
  <h1>Contact us</h1>
  <form action="https://forms.example-crm.com/submit" method="post">
    <input type="text" name="full_name" />
    <input type="email" name="email" />
    <input type="tel" name="phone" />
    <textarea name="message"></textarea>
  </form>
  <a href="/">Home</a>
</body>
</html>`, s.consentMarkup())
}

func (s *DemoSite) handleToggleConsent(w http.ResponseWriter, r *http.Request) {
	s.SetConsent(!s.consentEnabled())
	fmt.Fprintf(w, "consent banner enabled: %v\n", s.consentEnabled())
}
