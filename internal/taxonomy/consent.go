package taxonomy

import "regexp"

// ConsentSignature identifies a consent management platform by script hosts,
// DOM/HTML markers and the cookies it sets.
type ConsentSignature struct {
	Name         string
	Provider     string
	HostPatterns []*regexp.Regexp
	HTMLMarkers  []*regexp.Regexp
	CookieNames  []string
}

func consentTable() []ConsentSignature {
	return []ConsentSignature{
		{
			Name:         "OneTrust",
			Provider:     "OneTrust LLC",
			HostPatterns: res(`(^|\.)cookielaw\.org$`, `(^|\.)onetrust\.com$`),
			HTMLMarkers:  res(`onetrust-banner-sdk`, `OptanonWrapper`),
			CookieNames:  []string{"OptanonConsent", "OptanonAlertBoxClosed"},
		},
		{
			Name:         "Cookiebot",
			Provider:     "Usercentrics A/S",
			HostPatterns: res(`(^|\.)cookiebot\.com$`),
			HTMLMarkers:  res(`CybotCookiebot`, `Cookiebot`),
			CookieNames:  []string{"CookieConsent"},
		},
		{
			Name:         "TrustArc",
			Provider:     "TrustArc Inc",
			HostPatterns: res(`(^|\.)trustarc\.com$`, `(^|\.)truste\.com$`),
			HTMLMarkers:  res(`truste-consent`),
			CookieNames:  []string{"notice_behavior", "TAconsentID"},
		},
		{
			Name:         "Quantcast Choice",
			Provider:     "Quantcast",
			HostPatterns: res(`(^|\.)quantcast\.com$`),
			HTMLMarkers:  res(`qc-cmp2-container`),
			CookieNames:  []string{"euconsent-v2"},
		},
		{
			Name:         "Didomi",
			Provider:     "Didomi SAS",
			HostPatterns: res(`(^|\.)privacy-center\.org$`, `(^|\.)didomi\.io$`),
			HTMLMarkers:  res(`didomi-host`, `didomiOnReady`),
			CookieNames:  []string{"didomi_token"},
		},
		{
			Name:         "Usercentrics",
			Provider:     "Usercentrics GmbH",
			HostPatterns: res(`(^|\.)usercentrics\.eu$`),
			HTMLMarkers:  res(`usercentrics-root`),
			CookieNames:  []string{"uc_settings"},
		},
		{
			Name:         "CookieYes",
			Provider:     "CookieYes Ltd",
			HostPatterns: res(`(^|\.)cookieyes\.com$`),
			HTMLMarkers:  res(`cookieyes-consent`, `cky-consent`),
			CookieNames:  []string{"cookieyes-consent"},
		},
		{
			Name:         "Complianz",
			Provider:     "Really Simple Plugins",
			HostPatterns: res(`complianz`),
			HTMLMarkers:  res(`cmplz-cookiebanner`),
			CookieNames:  []string{"cmplz_consent_status", "cmplz_banner-status"},
		},
		{
			Name:         "Klaro",
			Provider:     "KIProtect GmbH",
			HostPatterns: res(`klaro`),
			HTMLMarkers:  res(`klaro`),
			CookieNames:  []string{"klaro"},
		},
		{
			Name:         "Osano",
			Provider:     "Osano Inc",
			HostPatterns: res(`(^|\.)osano\.com$`),
			HTMLMarkers:  res(`osano-cm-window`),
			CookieNames:  []string{"osano_consentmanager"},
		},
	}
}

// GenericConsentMarkers match CMP APIs that identify a consent platform even
// when no vendor signature applies (IAB TCF / legacy CMP JS APIs).
var GenericConsentMarkers = res(`__tcfapi`, `__cmp\(`, `cookieconsent`)
