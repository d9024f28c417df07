package model

import "time"

// Status is the lifecycle state of a scan. All states except running and
// pending are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether a scan in this status can never change again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Phase names the ordered stages a running scan moves through.
type Phase string

const (
	PhaseInitialization Phase = "initialization"
	PhaseDiscovery      Phase = "discovery"
	PhaseAnalysis       Phase = "analysis"
	PhaseProcessing     Phase = "processing"
	PhaseFinalization   Phase = "finalization"
)

// ScanConfig is the immutable configuration of one scan run.
type ScanConfig struct {
	// Depth is the maximum crawl depth from the seed pages.
	Depth int `json:"depth"`

	// MaxURLs bounds the total number of pages discovered and analyzed.
	MaxURLs int `json:"max_urls"`

	// IncludeSubdomains enables probing of common subdomain labels and
	// admits subdomain links during discovery.
	IncludeSubdomains bool `json:"include_subdomains"`

	// NavigationTimeout bounds every page navigation.
	NavigationTimeout time.Duration `json:"navigation_timeout"`

	// ViewportWidth/ViewportHeight set the browser viewport.
	ViewportWidth  int `json:"viewport_width"`
	ViewportHeight int `json:"viewport_height"`

	// AcceptLanguages is sent as the browser's Accept-Language preference.
	AcceptLanguages string `json:"accept_languages"`

	// Retries is the number of whole-run retries the scheduler may attempt
	// after a run-fatal failure.
	Retries int `json:"retries"`
}

// DefaultScanConfig returns the configuration used when a caller provides none.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		Depth:             2,
		MaxURLs:           50,
		IncludeSubdomains: false,
		NavigationTimeout: 30 * time.Second,
		ViewportWidth:     1366,
		ViewportHeight:    768,
		AcceptLanguages:   "en-US,en",
		Retries:           2,
	}
}

// WithDefaults fills zero-valued fields from DefaultScanConfig so a caller
// supplying a partial configuration never persists a scan that cannot crawl
// (MaxURLs of zero refuses even the seed page). IncludeSubdomains keeps its
// given value since false is a meaningful choice.
func (c ScanConfig) WithDefaults() ScanConfig {
	def := DefaultScanConfig()
	if c.Depth <= 0 {
		c.Depth = def.Depth
	}
	if c.MaxURLs <= 0 {
		c.MaxURLs = def.MaxURLs
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = def.NavigationTimeout
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = def.ViewportWidth
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = def.ViewportHeight
	}
	if c.AcceptLanguages == "" {
		c.AcceptLanguages = def.AcceptLanguages
	}
	if c.Retries <= 0 {
		c.Retries = def.Retries
	}
	return c
}

// ScanError is one recoverable per-URL error recorded during a run.
type ScanError struct {
	URL     string    `json:"url,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Progress is the externally visible advancement of a running scan.
type Progress struct {
	Phase          Phase       `json:"phase,omitempty"`
	Percent        int         `json:"percent"`
	CurrentURL     string      `json:"current_url,omitempty"`
	URLsDiscovered int         `json:"urls_discovered"`
	URLsAnalyzed   int         `json:"urls_analyzed"`
	URLsTotal      int         `json:"urls_total"`
	Errors         []ScanError `json:"errors,omitempty"`
	StartedAt      time.Time   `json:"started_at,omitempty"`
	FinishedAt     time.Time   `json:"finished_at,omitempty"`
}

// Scan is one crawl run for one domain: configuration, collected signals and
// derived results. It is created pending by the API layer, mutated exclusively
// by its owning orchestrator while running, and immutable once terminal.
type Scan struct {
	ID       string `json:"id"`
	DomainID string `json:"domain_id"`
	Domain   string `json:"domain"`

	Status Status     `json:"status"`
	Config ScanConfig `json:"config"`

	Progress Progress `json:"progress"`

	// Collected, classified signals.
	Cookies         []Cookie         `json:"cookies,omitempty"`
	Scripts         []Script         `json:"scripts,omitempty"`
	Technologies    []Technology     `json:"technologies,omitempty"`
	ConsentPlatform *ConsentPlatform `json:"consent_platform,omitempty"`
	StorageEntries  []StorageEntry   `json:"storage_entries,omitempty"`
	NetworkRequests []NetworkRequest `json:"network_requests,omitempty"`
	TrackingPixels  []TrackingPixel  `json:"tracking_pixels,omitempty"`
	Forms           []Form           `json:"forms,omitempty"`
	Iframes         []Iframe         `json:"iframes,omitempty"`

	// Derived once the crawl finishes.
	Statistics      *Statistics      `json:"statistics,omitempty"`
	Changes         *Changes         `json:"changes,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DiscoveredURL is one page found by the crawler.
type DiscoveredURL struct {
	URL      string `json:"url"`
	Depth    int    `json:"depth"`
	FoundOn  string `json:"found_on,omitempty"`
	Analyzed bool   `json:"analyzed"`
}
