package classifier

import (
	"strings"

	"github.com/privalens/privalens/internal/model"
	"github.com/privalens/privalens/internal/utils"
)

// hostCategory applies the domain-substring heuristics to a request/script
// host. Unmatched hosts are unknown.
func (c *Classifier) hostCategory(host string) model.Category {
	host = strings.ToLower(host)
	for _, h := range c.tax.DomainHeuristics {
		if strings.Contains(host, h.Substring) {
			return h.Category
		}
	}
	return model.CategoryUnknown
}

// hostProvider resolves a vendor from a script/request host, or nil when the
// host matches no signature.
func (c *Classifier) hostProvider(host string) *model.Provider {
	host = strings.ToLower(host)
	for _, sig := range c.tax.Providers {
		for _, re := range sig.HostPatterns {
			if re.MatchString(host) {
				return &model.Provider{Name: sig.Name, Domain: sig.Domain}
			}
		}
	}
	return nil
}

// Script classifies one raw script. External scripts are categorized by host;
// inline scripts by content scans. Tracking and consent detection are
// independent boolean scans either way.
func (c *Classifier) Script(raw model.RawScript, pageURL string) model.Script {
	s := model.Script{
		Src:    raw.Src,
		Inline: raw.Inline,
	}
	if pageURL != "" {
		s.FoundOnUrls = []string{pageURL}
	}

	text := raw.Text
	for _, re := range c.tax.Content.ScriptTracking {
		if re.MatchString(text) {
			s.HasTracking = true
			break
		}
	}
	for _, re := range c.tax.Content.ScriptConsent {
		if re.MatchString(text) {
			s.HasConsent = true
			break
		}
	}

	if raw.Inline {
		if s.HasTracking {
			s.Category = model.CategoryAnalytics
		} else {
			s.Category = model.CategoryUnknown
		}
		return s
	}

	host := utils.HostOf(raw.Src)
	s.Category = c.hostCategory(host)
	s.Provider = c.hostProvider(host)
	return s
}

// Iframe classifies one raw iframe by its source host.
func (c *Classifier) Iframe(raw model.RawIframe, pageURL, siteDomain string) model.Iframe {
	host := utils.HostOf(raw.Src)
	f := model.Iframe{
		Src:        raw.Src,
		Category:   c.hostCategory(host),
		Provider:   c.hostProvider(host),
		ThirdParty: host != "" && !utils.IsSubdomainOf(host, siteDomain),
	}
	if pageURL != "" {
		f.FoundOnUrls = []string{pageURL}
	}
	return f
}

// Request classifies one captured network request.
func (c *Classifier) Request(raw model.RawRequest, pageURL, siteDomain string) model.NetworkRequest {
	host := utils.HostOf(raw.URL)
	r := model.NetworkRequest{
		URL:          raw.URL,
		Method:       raw.Method,
		ResourceType: raw.ResourceType,
		ThirdParty:   host != "" && !utils.IsSubdomainOf(host, siteDomain),
		Category:     c.hostCategory(host),
		Provider:     c.hostProvider(host),
		StatusCode:   raw.StatusCode,
		Duration:     raw.Duration,
		ResponseSize: raw.ResponseSize,
	}
	if pageURL != "" {
		r.FoundOnUrls = []string{pageURL}
	}
	return r
}

// Storage classifies one local/session storage entry. Keys reuse the cookie
// purpose table (vendors use the same naming in both stores).
func (c *Classifier) Storage(raw model.RawStorage, pageURL string) model.StorageEntry {
	category := model.CategoryUnknown
	for _, purpose := range c.tax.CookiePurposes {
		for _, re := range purpose.Patterns {
			if re.MatchString(raw.Key) {
				category = purpose.Category
				break
			}
		}
		if category != model.CategoryUnknown {
			break
		}
	}

	var provider *model.Provider
	for _, sig := range c.tax.Providers {
		for _, re := range sig.CookiePatterns {
			if re.MatchString(raw.Key) {
				provider = &model.Provider{Name: sig.Name, Domain: sig.Domain}
				break
			}
		}
		if provider != nil {
			break
		}
	}

	e := model.StorageEntry{
		Kind:       raw.Kind,
		StorageKey: raw.Key,
		Value:      raw.Value,
		Category:   category,
		Provider:   provider,
	}
	if pageURL != "" {
		e.FoundOnUrls = []string{pageURL}
	}
	return e
}

// Pixel classifies one tracking pixel; pixels default to advertising when the
// host heuristics are silent, since that is what beacons overwhelmingly are.
func (c *Classifier) Pixel(raw model.RawPixel, pageURL string) model.TrackingPixel {
	host := utils.HostOf(raw.URL)
	category := c.hostCategory(host)
	if category == model.CategoryUnknown {
		category = model.CategoryAdvertising
	}
	p := model.TrackingPixel{
		URL:      raw.URL,
		Category: category,
		Provider: c.hostProvider(host),
	}
	if pageURL != "" {
		p.FoundOnUrls = []string{pageURL}
	}
	return p
}

// piiFieldMarkers flag form fields that collect personal data.
var piiFieldMarkers = []string{
	"email", "phone", "tel", "name", "address", "zip", "postal",
	"birth", "dob", "ssn", "passport", "card",
}

// Form classifies one raw form: PII field detection, password presence and
// whether it posts off-site.
func (c *Classifier) Form(raw model.RawForm, pageURL, siteDomain string) model.Form {
	f := model.Form{
		Action:     raw.Action,
		Method:     strings.ToUpper(raw.Method),
		FieldNames: raw.FieldNames,
	}
	if f.Method == "" {
		f.Method = "GET"
	}
	if pageURL != "" {
		f.FoundOnUrls = []string{pageURL}
	}

	for _, name := range raw.FieldNames {
		lower := strings.ToLower(name)
		for _, marker := range piiFieldMarkers {
			if strings.Contains(lower, marker) {
				f.CollectsPII = true
			}
		}
	}
	for _, typ := range raw.FieldTypes {
		switch strings.ToLower(typ) {
		case "password":
			f.HasPassword = true
		case "email", "tel":
			f.CollectsPII = true
		}
	}

	if host := utils.HostOf(raw.Action); host != "" {
		f.ExternalPost = !utils.IsSubdomainOf(host, siteDomain)
	}
	return f
}
