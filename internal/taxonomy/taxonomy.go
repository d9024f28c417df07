// Package taxonomy holds the static pattern tables the classifier matches
// signals against: purpose categories, vendor identities, consent-platform
// signatures, technology fingerprints and content heuristics.
//
// All tables are process-wide, built once and read-only after that, so they
// are safe to share across concurrent scans.
package taxonomy

import "sync"

// Taxonomy bundles every pattern table. Obtain the shared instance with
// Default() and inject it into the classifier; never mutate it.
type Taxonomy struct {
	CookiePurposes   []PurposePatterns
	DomainHeuristics []DomainHeuristic
	Providers        []ProviderSignature
	ConsentPlatforms []ConsentSignature
	Technologies     []TechSignature
	Content          ContentPatterns
	PixelHosts       []string
}

var (
	defaultOnce sync.Once
	defaultTax  *Taxonomy
)

// Default returns the lazily-initialized shared taxonomy.
func Default() *Taxonomy {
	defaultOnce.Do(func() {
		defaultTax = &Taxonomy{
			CookiePurposes:   cookiePurposeTable(),
			DomainHeuristics: domainHeuristicTable(),
			Providers:        providerTable(),
			ConsentPlatforms: consentTable(),
			Technologies:     technologyTable(),
			Content:          contentPatterns(),
			PixelHosts:       pixelHostTable(),
		}
	})
	return defaultTax
}
