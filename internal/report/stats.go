// Package report derives everything a finished crawl reports on: aggregate
// statistics, weighted risk scores, the diff against the previous run and the
// recommendation list.
package report

import "github.com/privalens/privalens/internal/model"

// BuildStatistics aggregates the classified signals of one scan. It is called
// once per run, after analysis and before finalization.
func BuildStatistics(scan *model.Scan) *model.Statistics {
	stats := &model.Statistics{
		CookiesByCategory: make(map[model.Category]int),
		CookiesByProvider: make(map[string]int),
	}

	for _, c := range scan.Cookies {
		stats.TotalCookies++
		if c.FirstParty {
			stats.FirstPartyCookies++
		} else {
			stats.ThirdPartyCookies++
		}
		stats.CookiesByCategory[c.Category]++
		stats.CookiesByProvider[c.Provider.Name]++
		if c.GDPRCompliant {
			stats.GDPRCompliantCookies++
		}
		if c.CCPACompliant {
			stats.CCPACompliantCookies++
		}
	}
	if stats.TotalCookies > 0 {
		stats.GDPRComplianceRate = stats.GDPRCompliantCookies * 100 / stats.TotalCookies
	} else {
		stats.GDPRComplianceRate = 100
	}

	stats.TotalScripts = len(scan.Scripts)
	for _, s := range scan.Scripts {
		if s.HasTracking {
			stats.TrackingScripts++
		}
	}

	stats.TotalRequests = len(scan.NetworkRequests)
	for _, r := range scan.NetworkRequests {
		if r.ThirdParty {
			stats.ThirdPartyRequests++
		}
	}

	stats.TotalStorageEntries = len(scan.StorageEntries)
	stats.TotalIframes = len(scan.Iframes)
	stats.TotalForms = len(scan.Forms)
	stats.TotalPixels = len(scan.TrackingPixels)

	consentDetected := scan.ConsentPlatform != nil && scan.ConsentPlatform.Detected
	stats.Risk = ComputeRisk(scan.Cookies, consentDetected)

	return stats
}
