package taxonomy

import "regexp"

// TechSignature fingerprints a technology from page HTML or script hosts.
// DetectedBy in the resulting record names which part matched.
type TechSignature struct {
	Name         string
	Category     string
	HTMLPatterns []*regexp.Regexp
	HostPatterns []*regexp.Regexp

	// VersionPattern, when set, extracts a version from HTML via the first
	// capture group.
	VersionPattern *regexp.Regexp
}

func technologyTable() []TechSignature {
	return []TechSignature{
		{
			Name:           "WordPress",
			Category:       "cms",
			HTMLPatterns:   res(`/wp-content/`, `/wp-includes/`),
			VersionPattern: regexp.MustCompile(`<meta name="generator" content="WordPress ([\d.]+)"`),
		},
		{
			Name:         "WooCommerce",
			Category:     "ecommerce",
			HTMLPatterns: res(`woocommerce`),
		},
		{
			Name:         "Shopify",
			Category:     "ecommerce",
			HTMLPatterns: res(`cdn\.shopify\.com`, `Shopify\.theme`),
			HostPatterns: res(`(^|\.)shopify\.com$`, `(^|\.)myshopify\.com$`),
		},
		{
			Name:         "Magento",
			Category:     "ecommerce",
			HTMLPatterns: res(`Magento`, `/static/version\d+/`),
		},
		{
			Name:         "Drupal",
			Category:     "cms",
			HTMLPatterns: res(`Drupal\.settings`, `/sites/default/files/`),
		},
		{
			Name:           "Next.js",
			Category:       "framework",
			HTMLPatterns:   res(`__NEXT_DATA__`),
			VersionPattern: regexp.MustCompile(`<meta name="next-head-count"[^>]*>`),
		},
		{
			Name:         "Nuxt",
			Category:     "framework",
			HTMLPatterns: res(`__NUXT__`),
		},
		{
			Name:         "Gatsby",
			Category:     "framework",
			HTMLPatterns: res(`___gatsby`),
		},
		{
			Name:         "React",
			Category:     "javascript-library",
			HTMLPatterns: res(`data-reactroot`, `react(\.production)?(\.min)?\.js`),
		},
		{
			Name:         "Vue.js",
			Category:     "javascript-library",
			HTMLPatterns: res(`data-v-[0-9a-f]{8}`, `vue(\.runtime)?(\.min)?\.js`),
		},
		{
			Name:           "Angular",
			Category:       "javascript-library",
			HTMLPatterns:   res(`ng-version`),
			VersionPattern: regexp.MustCompile(`ng-version="([\d.]+)"`),
		},
		{
			Name:           "jQuery",
			Category:       "javascript-library",
			HTMLPatterns:   res(`jquery[.-]`),
			VersionPattern: regexp.MustCompile(`jquery[/-]([\d.]+)(?:\.min)?\.js`),
		},
		{
			Name:         "Bootstrap",
			Category:     "ui-framework",
			HTMLPatterns: res(`bootstrap(\.min)?\.(css|js)`),
		},
		{
			Name:         "Google Tag Manager",
			Category:     "tag-manager",
			HTMLPatterns: res(`googletagmanager\.com/gtm\.js`, `GTM-[A-Z0-9]+`),
			HostPatterns: res(`(^|\.)googletagmanager\.com$`),
		},
		{
			Name:         "Google Analytics",
			Category:     "analytics",
			HTMLPatterns: res(`google-analytics\.com/analytics\.js`, `googletagmanager\.com/gtag/js`, `gtag\(`),
			HostPatterns: res(`(^|\.)google-analytics\.com$`),
		},
		{
			Name:         "Google Fonts",
			Category:     "font-service",
			HTMLPatterns: res(`fonts\.googleapis\.com`),
			HostPatterns: res(`(^|\.)fonts\.googleapis\.com$`, `(^|\.)fonts\.gstatic\.com$`),
		},
		{
			Name:         "Font Awesome",
			Category:     "font-service",
			HTMLPatterns: res(`font-?awesome`),
		},
		{
			Name:         "Cloudflare",
			Category:     "cdn",
			HTMLPatterns: res(`/cdn-cgi/`),
			HostPatterns: res(`(^|\.)cloudflare\.com$`, `(^|\.)cloudflareinsights\.com$`),
		},
		{
			Name:         "Wix",
			Category:     "website-builder",
			HTMLPatterns: res(`wix\.com`, `wixstatic\.com`),
		},
		{
			Name:         "Squarespace",
			Category:     "website-builder",
			HTMLPatterns: res(`squarespace\.com`, `squarespace-cdn`),
		},
	}
}

// pixelHostTable lists known tracking-pixel/beacon endpoints; image requests
// to these hosts (or 1x1 images anywhere) are recorded as tracking pixels.
func pixelHostTable() []string {
	return []string{
		"facebook.com/tr",
		"google-analytics.com/collect",
		"google-analytics.com/g/collect",
		"stats.g.doubleclick.net",
		"bat.bing.com",
		"px.ads.linkedin.com",
		"analytics.twitter.com",
		"t.co/i/adsct",
		"ct.pinterest.com",
		"analytics.tiktok.com",
	}
}
