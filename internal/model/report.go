package model

import "time"

// RiskLevel buckets a raw weighted score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskScores carries the three weighted scores and their mapped levels.
type RiskScores struct {
	PrivacyScore    int       `json:"privacy_score"`
	ComplianceScore int       `json:"compliance_score"`
	SecurityScore   int       `json:"security_score"`
	Privacy         RiskLevel `json:"privacy"`
	Compliance      RiskLevel `json:"compliance"`
	Security        RiskLevel `json:"security"`
}

// Statistics aggregates one completed crawl.
type Statistics struct {
	TotalCookies      int `json:"total_cookies"`
	FirstPartyCookies int `json:"first_party_cookies"`
	ThirdPartyCookies int `json:"third_party_cookies"`

	CookiesByCategory map[Category]int `json:"cookies_by_category,omitempty"`
	CookiesByProvider map[string]int   `json:"cookies_by_provider,omitempty"`

	TotalScripts        int `json:"total_scripts"`
	TrackingScripts     int `json:"tracking_scripts"`
	TotalRequests       int `json:"total_requests"`
	ThirdPartyRequests  int `json:"third_party_requests"`
	TotalStorageEntries int `json:"total_storage_entries"`
	TotalIframes        int `json:"total_iframes"`
	TotalForms          int `json:"total_forms"`
	TotalPixels         int `json:"total_pixels"`

	GDPRCompliantCookies int `json:"gdpr_compliant_cookies"`
	CCPACompliantCookies int `json:"ccpa_compliant_cookies"`

	// GDPRComplianceRate is the percentage (0-100) of GDPR-compliant cookies,
	// also used for trend series.
	GDPRComplianceRate int `json:"gdpr_compliance_rate"`

	Risk RiskScores `json:"risk"`
}

// ModifiedCookie is one cookie whose attributes changed between two runs.
type ModifiedCookie struct {
	Name          string   `json:"name"`
	Domain        string   `json:"domain"`
	ChangedFields []string `json:"changed_fields"`

	// ValueDiff is a compact unified representation of the value change,
	// empty when the value itself did not change.
	ValueDiff string `json:"value_diff,omitempty"`
}

// Changes is the diff between this scan and the most recent prior completed
// scan of the same domain, keyed by (name, domain).
type Changes struct {
	BaselineScanID  string           `json:"baseline_scan_id,omitempty"`
	NewCookies      []Cookie         `json:"new_cookies,omitempty"`
	RemovedCookies  []Cookie         `json:"removed_cookies,omitempty"`
	ModifiedCookies []ModifiedCookie `json:"modified_cookies,omitempty"`
	NewProviders    []string         `json:"new_providers,omitempty"`
	NewTechnologies []string         `json:"new_technologies,omitempty"`
}

// Severity ranks a recommendation.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Recommendation is one independent finding produced by the report engine.
type Recommendation struct {
	Rule     string   `json:"rule"`
	Kind     string   `json:"kind"` // "security" | "compliance" | "privacy" | "performance"
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Affected []string `json:"affected,omitempty"`
}

// TrendPoint is one sample of the per-domain compliance time series.
type TrendPoint struct {
	Date              time.Time `json:"date"`
	TotalCookies      int       `json:"total_cookies"`
	FirstPartyCookies int       `json:"first_party_cookies"`
	ThirdPartyCookies int       `json:"third_party_cookies"`
	ComplianceScore   int       `json:"compliance_score"`
}
