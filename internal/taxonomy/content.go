package taxonomy

import "regexp"

// ContentPatterns are the heuristics applied to cookie and storage values.
type ContentPatterns struct {
	// PII patterns: email, SSN-like, credit-card-like, long digit runs.
	PII []*regexp.Regexp

	// Tracking patterns: GA-style dotted client ids, UUIDv4, MD5-length hex,
	// long numeric timestamps.
	Tracking []*regexp.Regexp

	// Encoded shapes: base64, hex and token-like values. Combined with a
	// minimum length they approximate "encrypted or encoded".
	Encoded []*regexp.Regexp

	// ScriptTracking/ScriptConsent are independent boolean scans over inline
	// script text.
	ScriptTracking []*regexp.Regexp
	ScriptConsent  []*regexp.Regexp
}

// EncodedMinLen is the minimum value length before the encoding heuristic
// applies; short values match the shapes too easily.
const EncodedMinLen = 20

func contentPatterns() ContentPatterns {
	return ContentPatterns{
		PII: res(
			`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`,
			`\b\d{3}-\d{2}-\d{4}\b`,
			`\b(?:\d[ -]?){13,16}\b`,
			`\d{10,}`,
		),
		Tracking: res(
			`GA\d+\.\d+\.\d+\.\d+`,
			`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-4[0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}`,
			`\b[0-9a-fA-F]{32}\b`,
			`\b1\d{9,12}\b`,
		),
		Encoded: res(
			`^[A-Za-z0-9+/]+={0,2}$`,
			`^[0-9a-fA-F]+$`,
			`^[A-Za-z0-9_.-]+$`,
		),
		ScriptTracking: res(
			`\bgtag\(`,
			`\bga\(`,
			`_gaq\.push`,
			`\bfbq\(`,
			`dataLayer\.push`,
			`analytics\.track`,
			`mixpanel\.`,
			`_paq\.push`,
			`\bhj\(`,
		),
		ScriptConsent: res(
			`__tcfapi`,
			`__cmp\(`,
			`OptanonWrapper`,
			`Cookiebot`,
			`didomi`,
			`cookieconsent`,
			`usercentrics`,
		),
	}
}
