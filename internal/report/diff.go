package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/privalens/privalens/internal/model"
)

// Diff compares the current scan against a baseline from the same domain.
// Cookies are matched by their (name, domain) identity key. A nil baseline
// yields a Changes where every signal counts as new.
func Diff(baseline, current *model.Scan) *model.Changes {
	changes := &model.Changes{}

	var baseCookies map[string]model.Cookie
	if baseline != nil {
		changes.BaselineScanID = baseline.ID
		baseCookies = make(map[string]model.Cookie, len(baseline.Cookies))
		for _, c := range baseline.Cookies {
			baseCookies[c.Key()] = c
		}
	}

	seen := make(map[string]struct{}, len(current.Cookies))
	for _, c := range current.Cookies {
		seen[c.Key()] = struct{}{}
		prev, existed := baseCookies[c.Key()]
		if !existed {
			changes.NewCookies = append(changes.NewCookies, c)
			continue
		}
		if mod := compareCookies(prev, c); mod != nil {
			changes.ModifiedCookies = append(changes.ModifiedCookies, *mod)
		}
	}
	if baseline != nil {
		for _, c := range baseline.Cookies {
			if _, still := seen[c.Key()]; !still {
				changes.RemovedCookies = append(changes.RemovedCookies, c)
			}
		}
	}

	changes.NewProviders = newNames(providerNames(baseline), providerNames(current))
	changes.NewTechnologies = newNames(technologyNames(baseline), technologyNames(current))

	return changes
}

func compareCookies(prev, next model.Cookie) *model.ModifiedCookie {
	var changed []string
	valueDiff := ""

	if prev.Value != next.Value {
		changed = append(changed, "value")
		valueDiff = renderValueDiff(prev.Value, next.Value)
	}
	if prev.Path != next.Path {
		changed = append(changed, "path")
	}
	if prev.Secure != next.Secure {
		changed = append(changed, "secure")
	}
	if prev.HTTPOnly != next.HTTPOnly {
		changed = append(changed, "httpOnly")
	}
	if prev.SameSite != next.SameSite {
		changed = append(changed, "sameSite")
	}
	if prev.Category != next.Category {
		changed = append(changed, "category")
	}
	if prev.Duration != next.Duration {
		changed = append(changed, "duration")
	}

	if len(changed) == 0 {
		return nil
	}
	return &model.ModifiedCookie{
		Name:          next.Name,
		Domain:        next.Domain,
		ChangedFields: changed,
		ValueDiff:     valueDiff,
	}
}

// renderValueDiff produces a compact inline representation of a value change,
// keeping unchanged runs as-is and bracketing deletions and insertions.
func renderValueDiff(old, new string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(old, new, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			fmt.Fprintf(&b, "-[%s]", d.Text)
		case diffmatchpatch.DiffInsert:
			fmt.Fprintf(&b, "+[%s]", d.Text)
		default:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}

func providerNames(scan *model.Scan) map[string]struct{} {
	names := make(map[string]struct{})
	if scan == nil {
		return names
	}
	for _, c := range scan.Cookies {
		if c.Provider.Name != "" && c.Provider.Name != "Unknown" {
			names[c.Provider.Name] = struct{}{}
		}
	}
	for _, s := range scan.Scripts {
		if s.Provider != nil && s.Provider.Name != "" {
			names[s.Provider.Name] = struct{}{}
		}
	}
	return names
}

func technologyNames(scan *model.Scan) map[string]struct{} {
	names := make(map[string]struct{})
	if scan == nil {
		return names
	}
	for _, t := range scan.Technologies {
		names[t.Name] = struct{}{}
	}
	return names
}

func newNames(base, current map[string]struct{}) []string {
	var added []string
	for name := range current {
		if _, existed := base[name]; !existed {
			added = append(added, name)
		}
	}
	sort.Strings(added)
	return added
}
