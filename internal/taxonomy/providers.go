package taxonomy

import "regexp"

// ProviderSignature identifies a vendor by cookie-name patterns and
// script/request host patterns. Table order is the tie-break: first match wins.
type ProviderSignature struct {
	Name           string
	Domain         string
	CookiePatterns []*regexp.Regexp
	HostPatterns   []*regexp.Regexp
}

func providerTable() []ProviderSignature {
	return []ProviderSignature{
		{
			Name:           "Google Analytics",
			Domain:         "google-analytics.com",
			CookiePatterns: res(`^_ga($|_)`, `^_g(id|at)`, `^__utm[a-z]`),
			HostPatterns:   res(`(^|\.)google-analytics\.com$`, `(^|\.)analytics\.google\.com$`),
		},
		{
			Name:         "Google Tag Manager",
			Domain:       "googletagmanager.com",
			HostPatterns: res(`(^|\.)googletagmanager\.com$`),
		},
		{
			Name:           "Google Ads",
			Domain:         "doubleclick.net",
			CookiePatterns: res(`^(IDE|DSID|FLC|AID|TAID|NID|ANID|1P_JAR|test_cookie)$`, `^_gcl_`),
			HostPatterns:   res(`(^|\.)doubleclick\.net$`, `(^|\.)googlesyndication\.com$`, `(^|\.)googleadservices\.com$`),
		},
		{
			Name:           "Meta",
			Domain:         "facebook.com",
			CookiePatterns: res(`^_fb[pc]$`, `^(fr|datr|sb|c_user|xs|wd)$`),
			HostPatterns:   res(`(^|\.)facebook\.(com|net)$`, `(^|\.)fbcdn\.net$`, `(^|\.)connect\.facebook\.net$`),
		},
		{
			Name:           "LinkedIn",
			Domain:         "linkedin.com",
			CookiePatterns: res(`^(bcookie|bscookie|lidc|li_gc|li_mc|li_at|li_rm)$`),
			HostPatterns:   res(`(^|\.)linkedin\.com$`, `(^|\.)licdn\.com$`),
		},
		{
			Name:           "X (Twitter)",
			Domain:         "twitter.com",
			CookiePatterns: res(`^(personalization_id|guest_id|twid)$`),
			HostPatterns:   res(`(^|\.)twitter\.com$`, `(^|\.)twimg\.com$`, `(^|\.)x\.com$`),
		},
		{
			Name:           "Hotjar",
			Domain:         "hotjar.com",
			CookiePatterns: res(`^_hj[A-Za-z]`),
			HostPatterns:   res(`(^|\.)hotjar\.(com|io)$`),
		},
		{
			Name:           "Mixpanel",
			Domain:         "mixpanel.com",
			CookiePatterns: res(`^mp_[0-9a-f]+_mixpanel$`),
			HostPatterns:   res(`(^|\.)mixpanel\.com$`, `(^|\.)mxpnl\.com$`),
		},
		{
			Name:           "Amplitude",
			Domain:         "amplitude.com",
			CookiePatterns: res(`(?i)^amplitude`),
			HostPatterns:   res(`(^|\.)amplitude\.com$`),
		},
		{
			Name:           "Segment",
			Domain:         "segment.com",
			CookiePatterns: res(`^ajs_(user|anonymous)_id`),
			HostPatterns:   res(`(^|\.)segment\.(com|io)$`),
		},
		{
			Name:           "Matomo",
			Domain:         "matomo.org",
			CookiePatterns: res(`^_pk_(id|ses|ref)`),
			HostPatterns:   res(`(^|\.)matomo\.(org|cloud)$`),
		},
		{
			Name:           "Microsoft Clarity",
			Domain:         "clarity.ms",
			CookiePatterns: res(`^_cl(ck|sk)$`, `(?i)^(MUID|MSPTC)$`),
			HostPatterns:   res(`(^|\.)clarity\.ms$`),
		},
		{
			Name:           "Microsoft Advertising",
			Domain:         "bing.com",
			CookiePatterns: res(`^_uet(sid|vid)`),
			HostPatterns:   res(`(^|\.)bat\.bing\.com$`),
		},
		{
			Name:           "TikTok",
			Domain:         "tiktok.com",
			CookiePatterns: res(`^_ttp$`),
			HostPatterns:   res(`(^|\.)tiktok\.com$`, `(^|\.)analytics\.tiktok\.com$`),
		},
		{
			Name:           "Pinterest",
			Domain:         "pinterest.com",
			CookiePatterns: res(`^_pin_unauth$`),
			HostPatterns:   res(`(^|\.)pinterest\.com$`, `(^|\.)pinimg\.com$`),
		},
		{
			Name:           "Criteo",
			Domain:         "criteo.com",
			CookiePatterns: res(`^cto_(bundle|lwid)$`),
			HostPatterns:   res(`(^|\.)criteo\.(com|net)$`),
		},
		{
			Name:           "HubSpot",
			Domain:         "hubspot.com",
			CookiePatterns: res(`^(__hs|hubspotutk)`),
			HostPatterns:   res(`(^|\.)hubspot\.com$`, `(^|\.)hs-scripts\.com$`),
		},
		{
			Name:           "Cloudflare",
			Domain:         "cloudflare.com",
			CookiePatterns: res(`^__cf(ruid|_bm|duid)`),
			HostPatterns:   res(`(^|\.)cloudflare\.com$`, `(^|\.)cloudflareinsights\.com$`),
		},
		{
			Name:           "Stripe",
			Domain:         "stripe.com",
			CookiePatterns: res(`^__stripe_(mid|sid)$`),
			HostPatterns:   res(`(^|\.)stripe\.(com|network)$`),
		},
		{
			Name:           "YouTube",
			Domain:         "youtube.com",
			CookiePatterns: res(`^(VISITOR_INFO1_LIVE|YSC|PREF)$`),
			HostPatterns:   res(`(^|\.)youtube\.com$`, `(^|\.)ytimg\.com$`),
		},
	}
}
