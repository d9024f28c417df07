package extractor

import (
	"github.com/privalens/privalens/internal/model"
	"github.com/privalens/privalens/internal/taxonomy"
	"github.com/privalens/privalens/internal/utils"
)

// detectConsent matches consent-platform signatures against the page HTML,
// script hosts and cookie names. At most one hint per signature.
func (e *Extractor) detectConsent(html string, signals model.RawSignals) []model.RawConsentHint {
	var hints []model.RawConsentHint

	scriptHosts := make([]string, 0, len(signals.Scripts))
	for _, s := range signals.Scripts {
		if s.Src != "" {
			scriptHosts = append(scriptHosts, utils.HostOf(s.Src))
		}
	}

	for _, sig := range e.tax.ConsentPlatforms {
		if consentSignatureMatches(sig, html, scriptHosts, signals.Cookies) {
			hints = append(hints, model.RawConsentHint{Name: sig.Name, Provider: sig.Provider})
		}
	}
	if len(hints) > 0 {
		return hints
	}

	// No vendor matched; a generic CMP API still counts as a platform.
	for _, re := range taxonomy.GenericConsentMarkers {
		if re.MatchString(html) {
			return []model.RawConsentHint{{Name: "Generic CMP"}}
		}
	}
	return nil
}

func consentSignatureMatches(sig taxonomy.ConsentSignature, html string, scriptHosts []string, cookies []model.RawCookie) bool {
	for _, re := range sig.HTMLMarkers {
		if re.MatchString(html) {
			return true
		}
	}
	for _, re := range sig.HostPatterns {
		for _, host := range scriptHosts {
			if host != "" && re.MatchString(host) {
				return true
			}
		}
	}
	for _, name := range sig.CookieNames {
		for _, c := range cookies {
			if c.Name == name {
				return true
			}
		}
	}
	return false
}

// detectTechnologies fingerprints the page against the technology table.
func (e *Extractor) detectTechnologies(html string, signals model.RawSignals) []model.RawTechnology {
	var techs []model.RawTechnology

	scriptHosts := make([]string, 0, len(signals.Scripts))
	for _, s := range signals.Scripts {
		if s.Src != "" {
			scriptHosts = append(scriptHosts, utils.HostOf(s.Src))
		}
	}

	for _, sig := range e.tax.Technologies {
		detectedBy := ""
		for _, re := range sig.HTMLPatterns {
			if re.MatchString(html) {
				detectedBy = "html"
				break
			}
		}
		if detectedBy == "" {
			for _, re := range sig.HostPatterns {
				for _, host := range scriptHosts {
					if host != "" && re.MatchString(host) {
						detectedBy = "scripts"
						break
					}
				}
				if detectedBy != "" {
					break
				}
			}
		}
		if detectedBy == "" {
			continue
		}

		tech := model.RawTechnology{
			Name:       sig.Name,
			Category:   sig.Category,
			DetectedBy: detectedBy,
		}
		if sig.VersionPattern != nil {
			if m := sig.VersionPattern.FindStringSubmatch(html); len(m) > 1 {
				tech.Version = m[1]
			}
		}
		techs = append(techs, tech)
	}
	return techs
}
