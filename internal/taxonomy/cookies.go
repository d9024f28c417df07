package taxonomy

import (
	"regexp"

	"github.com/privalens/privalens/internal/model"
)

// PurposePatterns maps cookie-name patterns to one purpose category.
// Table order is significant: the first matching category wins.
type PurposePatterns struct {
	Category model.Category
	Patterns []*regexp.Regexp
}

// DomainHeuristic is the fallback when no name pattern matches: a substring
// of the cookie's domain implies a category.
type DomainHeuristic struct {
	Substring string
	Category  model.Category
}

func res(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

func cookiePurposeTable() []PurposePatterns {
	return []PurposePatterns{
		{
			Category: model.CategoryNecessary,
			Patterns: res(
				`(?i)^(phpsessid|jsessionid|asp\.net_sessionid|connect\.sid)$`,
				`(?i)^sess(ion)?[_-]?(id|key|token)?$`,
				`(?i)(csrf|xsrf)`,
				`(?i)^__(host|secure)-`,
				`(?i)^(auth|jwt|access)[_-]?token`,
				`(?i)^(cookieconsent_status|optanonconsent|cookieyes-consent|euconsent(-v2)?)$`,
				`(?i)^__cf(ruid|_bm|duid)`,
				`(?i)^aws(alb|elb)`,
			),
		},
		{
			Category: model.CategoryFunctional,
			Patterns: res(
				`(?i)^(lang|language|locale)$`,
				`(?i)^(currency|country|region)$`,
				`(?i)^(tz|timezone)$`,
				`(?i)^(theme|dark[_-]?mode)$`,
				`(?i)(prefs?|settings)$`,
				`(?i)^wp-settings`,
				`(?i)^(cart|basket)[_-]?`,
			),
		},
		{
			Category: model.CategoryAnalytics,
			Patterns: res(
				`^_ga($|_)`,
				`^_g(id|at)`,
				`^__utm[a-z]`,
				`^_pk_(id|ses|ref)`,
				`^_hj[A-Za-z]`,
				`(?i)^amplitude`,
				`^mp_[0-9a-f]+_mixpanel$`,
				`^_cl(ck|sk)$`,
				`^ajs_(user|anonymous)_id`,
				`(?i)^(sc_is_visitor_unique|statcounter)`,
			),
		},
		{
			Category: model.CategoryAdvertising,
			Patterns: res(
				`^_fb[pc]$`,
				`^fr$`,
				`^(IDE|DSID|FLC|AID|TAID)$`,
				`^_gcl_(au|aw|dc)`,
				`^(NID|ANID|1P_JAR)$`,
				`^test_cookie$`,
				`^_uet(sid|vid)`,
				`^_ttp$`,
				`^_pin_unauth$`,
				`^(cto_bundle|cto_lwid)$`,
				`(?i)^(MUID|MSPTC)$`,
			),
		},
		{
			Category: model.CategorySocial,
			Patterns: res(
				`^(datr|sb|c_user|xs|wd)$`,
				`^(bcookie|bscookie|lidc|li_gc|li_mc)$`,
				`^(personalization_id|guest_id|twid)$`,
				`^li_(at|rm)$`,
				`(?i)^(ig_did|ig_nrcb)$`,
			),
		},
	}
}

func domainHeuristicTable() []DomainHeuristic {
	return []DomainHeuristic{
		{Substring: "doubleclick", Category: model.CategoryAdvertising},
		{Substring: "googlesyndication", Category: model.CategoryAdvertising},
		{Substring: "googleadservices", Category: model.CategoryAdvertising},
		{Substring: "adnxs", Category: model.CategoryAdvertising},
		{Substring: "criteo", Category: model.CategoryAdvertising},
		{Substring: "facebook", Category: model.CategorySocial},
		{Substring: "linkedin", Category: model.CategorySocial},
		{Substring: "twitter", Category: model.CategorySocial},
		{Substring: "instagram", Category: model.CategorySocial},
		{Substring: "hotjar", Category: model.CategoryAnalytics},
		{Substring: "mixpanel", Category: model.CategoryAnalytics},
		{Substring: "segment", Category: model.CategoryAnalytics},
		{Substring: "matomo", Category: model.CategoryAnalytics},
		// google covers analytics properties (google-analytics, googletagmanager);
		// the ad domains above are listed first so they win.
		{Substring: "google", Category: model.CategoryAnalytics},
	}
}
