package model

import "time"

// Raw signal variants are what the page extractor emits before
// classification. Each extractor kind has its own explicit schema; the
// extractor validates/normalizes browser-evaluated objects into these before
// anything reaches the classifier.

// RawCookie is a cookie as reported by the browser.
type RawCookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Secure   bool
	HTTPOnly bool
	SameSite string
	// Expires is zero for session cookies.
	Expires time.Time
	Session bool
	Size    int
}

// RawScript is a script element observed in the DOM.
type RawScript struct {
	Src    string // empty for inline scripts
	Inline bool
	Text   string // inline source text, possibly truncated
}

// RawStorage is one localStorage/sessionStorage entry.
type RawStorage struct {
	Kind  string // "local" | "session"
	Key   string
	Value string
}

// RawIframe is an iframe element observed in the DOM.
type RawIframe struct {
	Src string
}

// RawForm is a form element observed in the DOM.
type RawForm struct {
	Action     string
	Method     string
	FieldNames []string
	FieldTypes []string
}

// RawRequest is one network request captured during page load.
type RawRequest struct {
	URL          string
	Method       string
	ResourceType string
	StatusCode   int
	Duration     time.Duration
	ResponseSize int64
}

// RawPixel is a pixel-sized image or a request to a known beacon endpoint.
type RawPixel struct {
	URL string
}

// RawConsentHint is evidence of a consent platform found on one page.
type RawConsentHint struct {
	Name     string
	Provider string
}

// RawTechnology is a technology fingerprint match on one page.
type RawTechnology struct {
	Name       string
	Category   string
	Version    string
	DetectedBy string
}

// RawSignals is everything extracted from a single loaded page.
type RawSignals struct {
	URL          string
	Cookies      []RawCookie
	Scripts      []RawScript
	Storage      []RawStorage
	Iframes      []RawIframe
	Forms        []RawForm
	Requests     []RawRequest
	Pixels       []RawPixel
	ConsentHints []RawConsentHint
	Technologies []RawTechnology
}
