package classifier

import (
	"strings"
	"time"

	"github.com/privalens/privalens/internal/model"
	"github.com/privalens/privalens/internal/utils"
)

// Cookie classifies one raw cookie observed on pageURL during a scan of
// siteDomain. Pure and deterministic given the taxonomy.
func (c *Classifier) Cookie(raw model.RawCookie, pageURL, siteDomain string, now time.Time) model.Cookie {
	category := c.CookieCategory(raw.Name, raw.Domain)
	duration := DurationBucket(raw.Expires, raw.Session, now)
	flags := c.ContentFlags(raw.Value)
	shape := c.Complexity(raw.Value)

	cookie := model.Cookie{
		Name:     raw.Name,
		Value:    raw.Value,
		Domain:   raw.Domain,
		Path:     raw.Path,
		Secure:   raw.Secure,
		HTTPOnly: raw.HTTPOnly,
		SameSite: raw.SameSite,
		Expires:  raw.Expires,
		Session:  raw.Session,
		Size:     raw.Size,

		FirstParty: utils.IsSubdomainOf(strings.TrimPrefix(raw.Domain, "."), siteDomain),

		Category: category,
		Provider: c.CookieProvider(raw.Name, raw.Domain),
		Duration: duration,
		Contains: flags,
		Shape:    shape,

		GDPRCompliant: GDPRCompliant(category, raw.Secure, raw.SameSite, duration),
		CCPACompliant: CCPACompliant(category, flags),

		FirstSeen: now,
		LastSeen:  now,
		Frequency: 1,
	}
	if pageURL != "" {
		cookie.FoundOnUrls = []string{pageURL}
	}
	return cookie
}

// CookieCategory resolves the purpose category for a cookie name: first match
// in the ordered pattern table wins, then domain-substring heuristics, then
// unknown.
func (c *Classifier) CookieCategory(name, domain string) model.Category {
	for _, purpose := range c.tax.CookiePurposes {
		for _, re := range purpose.Patterns {
			if re.MatchString(name) {
				return purpose.Category
			}
		}
	}
	domain = strings.ToLower(domain)
	for _, h := range c.tax.DomainHeuristics {
		if strings.Contains(domain, h.Substring) {
			return h.Category
		}
	}
	return model.CategoryUnknown
}

// CookieProvider identifies the vendor behind a cookie; first table match
// wins, unmatched cookies are attributed to an unknown provider at the
// observed domain.
func (c *Classifier) CookieProvider(name, domain string) model.Provider {
	for _, sig := range c.tax.Providers {
		for _, re := range sig.CookiePatterns {
			if re.MatchString(name) {
				return model.Provider{Name: sig.Name, Domain: sig.Domain}
			}
		}
	}
	host := strings.TrimPrefix(strings.ToLower(domain), ".")
	for _, sig := range c.tax.Providers {
		for _, re := range sig.HostPatterns {
			if re.MatchString(host) {
				return model.Provider{Name: sig.Name, Domain: sig.Domain}
			}
		}
	}
	return model.Provider{Name: "Unknown", Domain: host}
}

// DurationBucket buckets a cookie lifetime: session cookies and anything
// expiring within a day are "session", under 30 days "persistent", the rest
// "long-term".
func DurationBucket(expires time.Time, session bool, now time.Time) model.DurationBucket {
	if session || expires.IsZero() {
		return model.DurationSession
	}
	ttl := expires.Sub(now)
	switch {
	case ttl < 24*time.Hour:
		return model.DurationSession
	case ttl < 30*24*time.Hour:
		return model.DurationPersistent
	default:
		return model.DurationLongTerm
	}
}

// ContentFlags runs the independent PII / tracking-data / encoding scans over
// a cookie or storage value.
func (c *Classifier) ContentFlags(value string) model.ContentFlags {
	var flags model.ContentFlags
	for _, re := range c.tax.Content.PII {
		if re.MatchString(value) {
			flags.PII = true
			break
		}
	}
	for _, re := range c.tax.Content.Tracking {
		if re.MatchString(value) {
			flags.TrackingData = true
			break
		}
	}
	flags.Encrypted = c.looksEncoded(value)
	return flags
}

func (c *Classifier) looksEncoded(value string) bool {
	if len(value) <= c.encodedMinLen {
		return false
	}
	for _, re := range c.tax.Content.Encoded {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

// Complexity buckets a cookie value's shape.
func (c *Classifier) Complexity(value string) model.ComplexityBucket {
	switch {
	case len(value) < 10:
		return model.ComplexitySimple
	case c.looksEncoded(value):
		return model.ComplexityEncrypted
	case strings.ContainsAny(value, "|&;"):
		return model.ComplexityComplex
	default:
		return model.ComplexityEncoded
	}
}

// GDPRCompliant implements the GDPR-style rule: necessary cookies always
// pass; everything else needs secure transport, a SameSite attribute and a
// lifetime that is not long-term.
func GDPRCompliant(category model.Category, secure bool, sameSite string, duration model.DurationBucket) bool {
	if category == model.CategoryNecessary {
		return true
	}
	return secure && sameSite != "" && duration != model.DurationLongTerm
}

// CCPACompliant implements the CCPA-style rule: a cookie passes unless it
// carries PII and is not necessary.
func CCPACompliant(category model.Category, flags model.ContentFlags) bool {
	return !flags.PII || category == model.CategoryNecessary
}
