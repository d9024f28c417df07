package report

import (
	"fmt"

	"github.com/privalens/privalens/internal/model"
)

// oversizedCookieBytes is the size above which a cookie draws a performance
// finding.
const oversizedCookieBytes = 1024

// Recommend evaluates each rule independently against the full signal set.
// A rule produces zero or one finding and never suppresses another rule.
func Recommend(scan *model.Scan) []model.Recommendation {
	var recs []model.Recommendation

	if r := insecureCookiesRule(scan.Cookies); r != nil {
		recs = append(recs, *r)
	}
	if r := noConsentRule(scan.ConsentPlatform); r != nil {
		recs = append(recs, *r)
	}
	if r := piiCookiesRule(scan.Cookies); r != nil {
		recs = append(recs, *r)
	}
	if r := oversizedCookiesRule(scan.Cookies); r != nil {
		recs = append(recs, *r)
	}

	return recs
}

func insecureCookiesRule(cookies []model.Cookie) *model.Recommendation {
	var affected []string
	for _, c := range cookies {
		if !c.Secure {
			affected = append(affected, c.Name)
		}
	}
	if len(affected) == 0 {
		return nil
	}
	return &model.Recommendation{
		Rule:     "insecure-cookies",
		Kind:     "security",
		Severity: model.SeverityWarning,
		Message:  fmt.Sprintf("%d cookie(s) are set without the Secure attribute and can be sent over plain HTTP", len(affected)),
		Affected: affected,
	}
}

func noConsentRule(cmp *model.ConsentPlatform) *model.Recommendation {
	if cmp != nil && cmp.Detected {
		return nil
	}
	return &model.Recommendation{
		Rule:     "no-consent-platform",
		Kind:     "compliance",
		Severity: model.SeverityError,
		Message:  "no consent management detected; cookies are set without a consent mechanism",
	}
}

func piiCookiesRule(cookies []model.Cookie) *model.Recommendation {
	var affected []string
	for _, c := range cookies {
		if c.Contains.PII {
			affected = append(affected, c.Name)
		}
	}
	if len(affected) == 0 {
		return nil
	}
	return &model.Recommendation{
		Rule:     "pii-in-cookies",
		Kind:     "privacy",
		Severity: model.SeverityWarning,
		Message:  fmt.Sprintf("%d cookie(s) appear to contain personally identifiable information", len(affected)),
		Affected: affected,
	}
}

func oversizedCookiesRule(cookies []model.Cookie) *model.Recommendation {
	var affected []string
	for _, c := range cookies {
		if c.Size > oversizedCookieBytes {
			affected = append(affected, c.Name)
		}
	}
	if len(affected) == 0 {
		return nil
	}
	return &model.Recommendation{
		Rule:     "oversized-cookies",
		Kind:     "performance",
		Severity: model.SeverityInfo,
		Message:  fmt.Sprintf("%d cookie(s) exceed 1KB and inflate every request to the site", len(affected)),
		Affected: affected,
	}
}
