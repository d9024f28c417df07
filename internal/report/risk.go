package report

import "github.com/privalens/privalens/internal/model"

// Per-signal weights for each risk dimension.
const (
	weightPIICookie        = 3
	weightThirdPartyCookie = 2
	weightTrackingCookie   = 2

	weightNonCompliantCookie = 4
	weightAdvertisingCookie  = 2
	penaltyNoConsentPlatform = 10

	weightInsecureCookie         = 3
	weightExposedNecessaryCookie = 4
	weightNoSameSiteCookie       = 2
)

// Ascending level thresholds per dimension. A score at or below the first
// value maps to low, at or below the second to medium, at or below the third
// to high, anything above to critical.
var (
	privacyThresholds    = [3]int{5, 15, 30}
	complianceThresholds = [3]int{5, 20, 40}
	securityThresholds   = [3]int{5, 15, 25}
)

// ComputeRisk accumulates the three weighted scores over the deduplicated
// cookie set and maps each to a level.
func ComputeRisk(cookies []model.Cookie, consentDetected bool) model.RiskScores {
	var privacy, compliance, security int

	for _, c := range cookies {
		if c.Contains.PII {
			privacy += weightPIICookie
		}
		if !c.FirstParty {
			privacy += weightThirdPartyCookie
		}
		if c.Contains.TrackingData {
			privacy += weightTrackingCookie
		}

		if !c.GDPRCompliant {
			compliance += weightNonCompliantCookie
		}
		if c.Category == model.CategoryAdvertising {
			compliance += weightAdvertisingCookie
		}

		if !c.Secure {
			security += weightInsecureCookie
		}
		if c.Category == model.CategoryNecessary && !c.HTTPOnly {
			security += weightExposedNecessaryCookie
		}
		if c.SameSite == "" {
			security += weightNoSameSiteCookie
		}
	}

	if !consentDetected {
		compliance += penaltyNoConsentPlatform
	}

	return model.RiskScores{
		PrivacyScore:    privacy,
		ComplianceScore: compliance,
		SecurityScore:   security,
		Privacy:         levelFor(privacy, privacyThresholds),
		Compliance:      levelFor(compliance, complianceThresholds),
		Security:        levelFor(security, securityThresholds),
	}
}

func levelFor(score int, thresholds [3]int) model.RiskLevel {
	switch {
	case score <= thresholds[0]:
		return model.RiskLow
	case score <= thresholds[1]:
		return model.RiskMedium
	case score <= thresholds[2]:
		return model.RiskHigh
	default:
		return model.RiskCritical
	}
}
