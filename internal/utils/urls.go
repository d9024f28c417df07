package utils

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

type URLTools struct {
	URL *url.URL
}

func NewURLTools(raw string) (*URLTools, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse url %s: %w", raw, err)
	}

	urlTools := &URLTools{
		URL: u,
	}
	urlTools.normalize()

	return urlTools, nil
}

func (u *URLTools) normalize() {
	u.URL.Fragment = ""
	u.URL.Scheme = strings.ToLower(u.URL.Scheme)
	u.URL.Host = strings.ToLower(u.URL.Host)

	if (u.URL.Scheme == "http" && strings.HasSuffix(u.URL.Host, ":80")) ||
		(u.URL.Scheme == "https" && strings.HasSuffix(u.URL.Host, ":443")) {
		u.URL.Host, _, _ = strings.Cut(u.URL.Host, ":")
	}

	u.URL.Path = strings.TrimRight(u.URL.Path, "/")
}

// VisitKey returns the deduplication key used by the crawler's visited set:
// scheme + host + path with the query string and fragment stripped.
func (u *URLTools) VisitKey() string {
	return u.URL.Scheme + "://" + u.URL.Host + u.URL.Path
}

func (u *URLTools) DomainIsSame(target *URLTools) bool {
	return u.URL.Hostname() == target.URL.Hostname()
}

// ResolveFullUrlString resolves targetURL against u.URL and returns a full
// absolute URL. Relative paths, absolute paths and full URLs are all accepted.
func (u *URLTools) ResolveFullUrlString(targetURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(targetURL))
	if err != nil {
		return "", fmt.Errorf("couldn't parse url %s: %w", targetURL, err)
	}

	resolved := &URLTools{URL: u.URL.ResolveReference(parsed)}
	resolved.normalize()
	return resolved.URL.String(), nil
}

// NormalizeDomain lowercases a bare domain and converts IDN labels to punycode.
func NormalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimSuffix(domain, ".")
	if puny, err := idna.Lookup.ToASCII(domain); err == nil {
		domain = puny
	}
	return domain
}

// IsSubdomainOf reports whether host is apex itself or a subdomain of apex.
func IsSubdomainOf(host, apex string) bool {
	host = NormalizeDomain(host)
	apex = NormalizeDomain(apex)
	if host == apex {
		return true
	}
	return strings.HasSuffix(host, "."+apex)
}

// SameSite reports whether host belongs to the crawl scope for apex.
// With includeSubdomains false only the exact apex host is in scope.
func SameSite(host, apex string, includeSubdomains bool) bool {
	if includeSubdomains {
		return IsSubdomainOf(host, apex)
	}
	return NormalizeDomain(host) == NormalizeDomain(apex)
}

// RootURL returns the crawl seed URL for a bare domain.
func RootURL(domain string) string {
	domain = NormalizeDomain(domain)
	if strings.Contains(domain, "://") {
		return domain
	}
	return "https://" + domain
}

// HostOf returns the hostname of a raw URL, or "" when it cannot be parsed.
func HostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
