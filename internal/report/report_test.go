package report_test

import (
	"strings"
	"testing"

	"github.com/privalens/privalens/internal/model"
	"github.com/privalens/privalens/internal/report"
)

func cookie(name string, mutate func(*model.Cookie)) model.Cookie {
	c := model.Cookie{
		Name:       name,
		Domain:     "example.com",
		Secure:     true,
		HTTPOnly:   true,
		SameSite:   "Lax",
		FirstParty: true,
		Category:   model.CategoryFunctional,
		Duration:   model.DurationPersistent,

		GDPRCompliant: true,
		CCPACompliant: true,
	}
	if mutate != nil {
		mutate(&c)
	}
	return c
}

func TestRiskLevelsForCleanSite(t *testing.T) {
	risk := report.ComputeRisk([]model.Cookie{cookie("a", nil), cookie("b", nil)}, true)

	if risk.Privacy != model.RiskLow || risk.Compliance != model.RiskLow || risk.Security != model.RiskLow {
		t.Errorf("clean site should be low across the board, got %+v", risk)
	}
}

func TestRiskWeights(t *testing.T) {
	cookies := []model.Cookie{
		cookie("tracker", func(c *model.Cookie) {
			c.FirstParty = false
			c.Contains.PII = true
			c.Contains.TrackingData = true
		}),
	}
	risk := report.ComputeRisk(cookies, true)

	// PII x3 + third-party x2 + tracking x2.
	if risk.PrivacyScore != 7 {
		t.Errorf("privacy score = %d, want 7", risk.PrivacyScore)
	}
	if risk.Privacy != model.RiskMedium {
		t.Errorf("privacy level = %q, want medium (score 7 over threshold 5)", risk.Privacy)
	}
}

func TestComplianceScoreIncludesConsentPenalty(t *testing.T) {
	cookies := []model.Cookie{
		cookie("ad", func(c *model.Cookie) {
			c.Category = model.CategoryAdvertising
			c.GDPRCompliant = false
		}),
	}

	withCMP := report.ComputeRisk(cookies, true)
	withoutCMP := report.ComputeRisk(cookies, false)

	// Non-compliant x4 + advertising x2.
	if withCMP.ComplianceScore != 6 {
		t.Errorf("compliance score with CMP = %d, want 6", withCMP.ComplianceScore)
	}
	if withoutCMP.ComplianceScore != 16 {
		t.Errorf("compliance score without CMP = %d, want 16 (flat +10)", withoutCMP.ComplianceScore)
	}
}

func TestRiskMappingMonotonic(t *testing.T) {
	rank := map[model.RiskLevel]int{
		model.RiskLow: 0, model.RiskMedium: 1, model.RiskHigh: 2, model.RiskCritical: 3,
	}

	prev := -1
	for n := 0; n <= 60; n++ {
		cookies := make([]model.Cookie, n)
		for i := range cookies {
			cookies[i] = cookie("c", func(c *model.Cookie) { c.Secure = false })
		}
		level := rank[report.ComputeRisk(cookies, true).Security]
		if level < prev {
			t.Fatalf("security level decreased at %d cookies", n)
		}
		prev = level
	}
}

func TestRecommendationRulesAreIndependent(t *testing.T) {
	scan := &model.Scan{
		Cookies: []model.Cookie{
			cookie("plain", func(c *model.Cookie) { c.Secure = false }),
			cookie("who", func(c *model.Cookie) { c.Contains.PII = true }),
			cookie("fat", func(c *model.Cookie) { c.Size = 2048 }),
		},
		ConsentPlatform: &model.ConsentPlatform{Detected: false},
	}

	recs := report.Recommend(scan)
	if len(recs) != 4 {
		t.Fatalf("expected all four rules to fire, got %d: %+v", len(recs), recs)
	}

	byRule := map[string]model.Recommendation{}
	for _, r := range recs {
		byRule[r.Rule] = r
	}

	if r := byRule["insecure-cookies"]; r.Kind != "security" || r.Severity != model.SeverityWarning {
		t.Errorf("insecure rule = %+v", r)
	}
	if r := byRule["no-consent-platform"]; r.Kind != "compliance" || r.Severity != model.SeverityError {
		t.Errorf("consent rule = %+v", r)
	}
	if !strings.Contains(byRule["no-consent-platform"].Message, "no consent management detected") {
		t.Errorf("consent message = %q", byRule["no-consent-platform"].Message)
	}
	if r := byRule["pii-in-cookies"]; r.Kind != "privacy" || r.Affected[0] != "who" {
		t.Errorf("pii rule = %+v", r)
	}
	if r := byRule["oversized-cookies"]; r.Kind != "performance" || r.Severity != model.SeverityInfo {
		t.Errorf("oversized rule = %+v", r)
	}
}

func TestRecommendationsForQuietSite(t *testing.T) {
	scan := &model.Scan{
		Cookies:         []model.Cookie{cookie("fine", nil)},
		ConsentPlatform: &model.ConsentPlatform{Detected: true, Name: "Cookiebot"},
	}
	if recs := report.Recommend(scan); len(recs) != 0 {
		t.Errorf("expected no findings, got %+v", recs)
	}
}

func TestDiffIdenticalScans(t *testing.T) {
	base := &model.Scan{ID: "a", Cookies: []model.Cookie{cookie("x", nil), cookie("y", nil)}}
	head := &model.Scan{ID: "b", Cookies: []model.Cookie{cookie("x", nil), cookie("y", nil)}}

	changes := report.Diff(base, head)
	if len(changes.NewCookies) != 0 || len(changes.RemovedCookies) != 0 || len(changes.ModifiedCookies) != 0 {
		t.Errorf("identical cookie sets should diff empty, got %+v", changes)
	}
	if changes.BaselineScanID != "a" {
		t.Errorf("baseline id = %q, want a", changes.BaselineScanID)
	}
}

func TestDiffRemovedCookie(t *testing.T) {
	base := &model.Scan{ID: "a", Cookies: []model.Cookie{cookie("x", nil), cookie("y", nil)}}
	head := &model.Scan{ID: "b", Cookies: []model.Cookie{cookie("x", nil)}}

	changes := report.Diff(base, head)
	if len(changes.RemovedCookies) != 1 {
		t.Fatalf("want exactly one removed cookie, got %d", len(changes.RemovedCookies))
	}
	removed := changes.RemovedCookies[0]
	if removed.Name != "y" || removed.Domain != "example.com" {
		t.Errorf("removed = %s/%s, want y/example.com", removed.Name, removed.Domain)
	}
}

func TestDiffModifiedCookie(t *testing.T) {
	base := &model.Scan{ID: "a", Cookies: []model.Cookie{
		cookie("x", func(c *model.Cookie) { c.Value = "alpha"; c.Secure = true }),
	}}
	head := &model.Scan{ID: "b", Cookies: []model.Cookie{
		cookie("x", func(c *model.Cookie) { c.Value = "beta"; c.Secure = false }),
	}}

	changes := report.Diff(base, head)
	if len(changes.ModifiedCookies) != 1 {
		t.Fatalf("want one modified cookie, got %d", len(changes.ModifiedCookies))
	}
	mod := changes.ModifiedCookies[0]

	fields := map[string]bool{}
	for _, f := range mod.ChangedFields {
		fields[f] = true
	}
	if !fields["value"] || !fields["secure"] {
		t.Errorf("changed fields = %v, want value and secure", mod.ChangedFields)
	}
	if mod.ValueDiff == "" {
		t.Error("value change should carry a diff")
	}
}

func TestDiffWithoutBaseline(t *testing.T) {
	head := &model.Scan{ID: "b", Cookies: []model.Cookie{cookie("x", nil)}}

	changes := report.Diff(nil, head)
	if len(changes.NewCookies) != 1 {
		t.Errorf("first scan should report every cookie as new, got %d", len(changes.NewCookies))
	}
	if changes.BaselineScanID != "" {
		t.Errorf("baseline id should be empty, got %q", changes.BaselineScanID)
	}
}

func TestDiffNewProvidersAndTechnologies(t *testing.T) {
	base := &model.Scan{ID: "a"}
	head := &model.Scan{
		ID: "b",
		Cookies: []model.Cookie{
			cookie("_ga", func(c *model.Cookie) { c.Provider = model.Provider{Name: "Google Analytics"} }),
		},
		Technologies: []model.Technology{{Name: "WordPress"}},
	}

	changes := report.Diff(base, head)
	if len(changes.NewProviders) != 1 || changes.NewProviders[0] != "Google Analytics" {
		t.Errorf("new providers = %v", changes.NewProviders)
	}
	if len(changes.NewTechnologies) != 1 || changes.NewTechnologies[0] != "WordPress" {
		t.Errorf("new technologies = %v", changes.NewTechnologies)
	}
}

func TestBuildStatistics(t *testing.T) {
	scan := &model.Scan{
		Cookies: []model.Cookie{
			cookie("a", func(c *model.Cookie) { c.Category = model.CategoryAnalytics }),
			cookie("b", func(c *model.Cookie) {
				c.FirstParty = false
				c.GDPRCompliant = false
				c.Category = model.CategoryAdvertising
			}),
		},
		Scripts:         []model.Script{{Src: "https://t.example/x.js", HasTracking: true}, {Inline: true}},
		NetworkRequests: []model.NetworkRequest{{URL: "https://cdn.example/app.js", ThirdParty: true}},
		ConsentPlatform: &model.ConsentPlatform{Detected: true},
	}

	stats := report.BuildStatistics(scan)
	if stats.TotalCookies != 2 || stats.FirstPartyCookies != 1 || stats.ThirdPartyCookies != 1 {
		t.Errorf("cookie counts wrong: %+v", stats)
	}
	if stats.GDPRCompliantCookies != 1 || stats.GDPRComplianceRate != 50 {
		t.Errorf("compliance rate = %d (compliant %d), want 50", stats.GDPRComplianceRate, stats.GDPRCompliantCookies)
	}
	if stats.TrackingScripts != 1 || stats.ThirdPartyRequests != 1 {
		t.Errorf("script/request counts wrong: %+v", stats)
	}
	if stats.CookiesByCategory[model.CategoryAnalytics] != 1 {
		t.Errorf("category histogram wrong: %v", stats.CookiesByCategory)
	}
}
