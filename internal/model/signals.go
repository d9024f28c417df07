package model

import "time"

// Category is the purpose taxonomy every classified signal maps into.
type Category string

const (
	CategoryNecessary   Category = "necessary"
	CategoryFunctional  Category = "functional"
	CategoryAnalytics   Category = "analytics"
	CategoryAdvertising Category = "advertising"
	CategorySocial      Category = "social"
	CategoryUnknown     Category = "unknown"
)

// DurationBucket classifies cookie lifetime.
type DurationBucket string

const (
	DurationSession    DurationBucket = "session"
	DurationPersistent DurationBucket = "persistent"
	DurationLongTerm   DurationBucket = "long-term"
)

// ComplexityBucket classifies the shape of a cookie value.
type ComplexityBucket string

const (
	ComplexitySimple    ComplexityBucket = "simple"
	ComplexityEncrypted ComplexityBucket = "encrypted"
	ComplexityComplex   ComplexityBucket = "complex"
	ComplexityEncoded   ComplexityBucket = "encoded"
)

// Provider is the organization inferred to be responsible for a signal.
type Provider struct {
	Name   string `json:"name"`
	Domain string `json:"domain,omitempty"`
}

// Cookie is one classified cookie observation. Identity key is (Name, Domain);
// re-observing the same key bumps LastSeen/Frequency instead of duplicating.
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Secure   bool   `json:"secure"`
	HTTPOnly bool   `json:"http_only"`
	SameSite string `json:"same_site,omitempty"`

	// Expires is zero for session cookies.
	Expires time.Time `json:"expires,omitempty"`
	Session bool      `json:"session"`
	Size    int       `json:"size"`

	FirstParty bool `json:"first_party"`

	Category Category         `json:"category"`
	Provider Provider         `json:"provider"`
	Duration DurationBucket   `json:"duration"`
	Contains ContentFlags     `json:"contains"`
	Shape    ComplexityBucket `json:"shape"`

	GDPRCompliant bool `json:"gdpr_compliant"`
	CCPACompliant bool `json:"ccpa_compliant"`

	FoundOnUrls []string  `json:"found_on_urls,omitempty"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	Frequency   int       `json:"frequency"`
}

// ContentFlags are independent heuristics over a cookie value.
type ContentFlags struct {
	PII          bool `json:"pii"`
	TrackingData bool `json:"tracking_data"`
	Encrypted    bool `json:"encrypted"`
}

// Key returns the cookie identity key.
func (c Cookie) Key() string { return c.Name + "\x00" + c.Domain }

// Script is one observed script, external or inline.
type Script struct {
	Src         string    `json:"src,omitempty"`
	Inline      bool      `json:"inline"`
	Category    Category  `json:"category"`
	Provider    *Provider `json:"provider,omitempty"`
	HasTracking bool      `json:"has_tracking"`
	HasConsent  bool      `json:"has_consent"`
	FoundOnUrls []string  `json:"found_on_urls,omitempty"`
}

// Technology is a detected framework/product fingerprint.
type Technology struct {
	Name        string   `json:"name"`
	CategoryTag string   `json:"category"`
	Version     string   `json:"version,omitempty"`
	DetectedBy  []string `json:"detected_by,omitempty"`
	FoundOnUrls []string `json:"found_on_urls,omitempty"`
}

// ConsentPlatform describes a detected consent management platform.
type ConsentPlatform struct {
	Detected    bool     `json:"detected"`
	Name        string   `json:"name,omitempty"`
	Provider    string   `json:"provider,omitempty"`
	FoundOnUrls []string `json:"found_on_urls,omitempty"`
}

// StorageEntry is one localStorage/sessionStorage key observed on a page.
type StorageEntry struct {
	Kind        string    `json:"kind"` // "local" | "session"
	StorageKey  string    `json:"key"`
	Value       string    `json:"value,omitempty"`
	Category    Category  `json:"category"`
	Provider    *Provider `json:"provider,omitempty"`
	FoundOnUrls []string  `json:"found_on_urls,omitempty"`
}

// NetworkRequest is one captured request made by an analyzed page.
type NetworkRequest struct {
	URL          string    `json:"url"`
	Method       string    `json:"method"`
	ResourceType string    `json:"resource_type,omitempty"`
	ThirdParty   bool      `json:"third_party"`
	Category     Category  `json:"category"`
	Provider     *Provider `json:"provider,omitempty"`

	// Timing and size are filled once the response is observed.
	StatusCode   int           `json:"status_code,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	ResponseSize int64         `json:"response_size,omitempty"`

	FoundOnUrls []string `json:"found_on_urls,omitempty"`
}

// TrackingPixel is a 1x1 image or known beacon endpoint observed on a page.
type TrackingPixel struct {
	URL         string    `json:"url"`
	Category    Category  `json:"category"`
	Provider    *Provider `json:"provider,omitempty"`
	FoundOnUrls []string  `json:"found_on_urls,omitempty"`
}

// Form is one form observed on a page, with privacy-relevant field kinds.
type Form struct {
	Action       string   `json:"action,omitempty"`
	Method       string   `json:"method,omitempty"`
	FieldNames   []string `json:"field_names,omitempty"`
	CollectsPII  bool     `json:"collects_pii"`
	HasPassword  bool     `json:"has_password"`
	ExternalPost bool     `json:"external_post"`
	FoundOnUrls  []string `json:"found_on_urls,omitempty"`
}

// Iframe is one embedded frame observed on a page.
type Iframe struct {
	Src         string    `json:"src"`
	Category    Category  `json:"category"`
	Provider    *Provider `json:"provider,omitempty"`
	ThirdParty  bool      `json:"third_party"`
	FoundOnUrls []string  `json:"found_on_urls,omitempty"`
}
