package analyzer

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/privalens/privalens/internal/classifier"
	"github.com/privalens/privalens/internal/model"
)

// aggregator folds classified per-page signals into one run-wide record.
// Signals with an identity key are deduplicated across pages; re-observing a
// known signal merges the page URL and, for cookies, bumps lastSeen/frequency.
type aggregator struct {
	cls        *classifier.Classifier
	siteDomain string

	cookies     map[string]*model.Cookie
	cookieOrder []string

	scripts     map[string]*model.Script
	scriptOrder []string

	storage      map[string]*model.StorageEntry
	storageOrder []string

	requests     map[string]*model.NetworkRequest
	requestOrder []string

	pixels     map[string]*model.TrackingPixel
	pixelOrder []string

	iframes     map[string]*model.Iframe
	iframeOrder []string

	techs     map[string]*model.Technology
	techOrder []string

	forms   []model.Form
	consent model.ConsentPlatform
}

func newAggregator(cls *classifier.Classifier, siteDomain string) *aggregator {
	return &aggregator{
		cls:        cls,
		siteDomain: siteDomain,
		cookies:    make(map[string]*model.Cookie),
		scripts:    make(map[string]*model.Script),
		storage:    make(map[string]*model.StorageEntry),
		requests:   make(map[string]*model.NetworkRequest),
		pixels:     make(map[string]*model.TrackingPixel),
		iframes:    make(map[string]*model.Iframe),
		techs:      make(map[string]*model.Technology),
	}
}

// absorb classifies one page's raw signals and merges them into the record.
func (a *aggregator) absorb(signals model.RawSignals, now time.Time) {
	pageURL := signals.URL

	for _, raw := range signals.Cookies {
		c := a.cls.Cookie(raw, pageURL, a.siteDomain, now)
		if existing, ok := a.cookies[c.Key()]; ok {
			existing.Value = c.Value
			existing.LastSeen = now
			existing.Frequency++
			existing.FoundOnUrls = mergeURL(existing.FoundOnUrls, pageURL)
			continue
		}
		cookie := c
		a.cookies[cookie.Key()] = &cookie
		a.cookieOrder = append(a.cookieOrder, cookie.Key())
	}

	for _, raw := range signals.Scripts {
		s := a.cls.Script(raw, pageURL)
		key := s.Src
		if raw.Inline {
			key = fmt.Sprintf("inline:%x", fnvSum(raw.Text))
		}
		if existing, ok := a.scripts[key]; ok {
			existing.FoundOnUrls = mergeURL(existing.FoundOnUrls, pageURL)
			continue
		}
		script := s
		a.scripts[key] = &script
		a.scriptOrder = append(a.scriptOrder, key)
	}

	for _, raw := range signals.Storage {
		e := a.cls.Storage(raw, pageURL)
		key := raw.Kind + "\x00" + raw.Key
		if existing, ok := a.storage[key]; ok {
			existing.FoundOnUrls = mergeURL(existing.FoundOnUrls, pageURL)
			continue
		}
		entry := e
		a.storage[key] = &entry
		a.storageOrder = append(a.storageOrder, key)
	}

	for _, raw := range signals.Requests {
		r := a.cls.Request(raw, pageURL, a.siteDomain)
		key := raw.Method + "\x00" + raw.URL
		if existing, ok := a.requests[key]; ok {
			existing.FoundOnUrls = mergeURL(existing.FoundOnUrls, pageURL)
			continue
		}
		req := r
		a.requests[key] = &req
		a.requestOrder = append(a.requestOrder, key)
	}

	for _, raw := range signals.Pixels {
		p := a.cls.Pixel(raw, pageURL)
		if existing, ok := a.pixels[p.URL]; ok {
			existing.FoundOnUrls = mergeURL(existing.FoundOnUrls, pageURL)
			continue
		}
		pixel := p
		a.pixels[pixel.URL] = &pixel
		a.pixelOrder = append(a.pixelOrder, pixel.URL)
	}

	for _, raw := range signals.Iframes {
		f := a.cls.Iframe(raw, pageURL, a.siteDomain)
		if existing, ok := a.iframes[f.Src]; ok {
			existing.FoundOnUrls = mergeURL(existing.FoundOnUrls, pageURL)
			continue
		}
		frame := f
		a.iframes[frame.Src] = &frame
		a.iframeOrder = append(a.iframeOrder, frame.Src)
	}

	for _, raw := range signals.Forms {
		a.forms = append(a.forms, a.cls.Form(raw, pageURL, a.siteDomain))
	}

	for _, raw := range signals.Technologies {
		if existing, ok := a.techs[raw.Name]; ok {
			existing.DetectedBy = mergeURL(existing.DetectedBy, raw.DetectedBy)
			existing.FoundOnUrls = mergeURL(existing.FoundOnUrls, pageURL)
			if existing.Version == "" {
				existing.Version = raw.Version
			}
			continue
		}
		tech := model.Technology{
			Name:        raw.Name,
			CategoryTag: raw.Category,
			Version:     raw.Version,
			DetectedBy:  []string{raw.DetectedBy},
			FoundOnUrls: []string{pageURL},
		}
		a.techs[raw.Name] = &tech
		a.techOrder = append(a.techOrder, raw.Name)
	}

	for _, hint := range signals.ConsentHints {
		a.consent.Detected = true
		if a.consent.Name == "" {
			a.consent.Name = hint.Name
			a.consent.Provider = hint.Provider
		}
		a.consent.FoundOnUrls = mergeURL(a.consent.FoundOnUrls, pageURL)
	}
}

// flushInto writes the aggregated signals onto the scan in first-seen order.
func (a *aggregator) flushInto(scan *model.Scan) {
	for _, key := range a.cookieOrder {
		scan.Cookies = append(scan.Cookies, *a.cookies[key])
	}
	for _, key := range a.scriptOrder {
		scan.Scripts = append(scan.Scripts, *a.scripts[key])
	}
	for _, key := range a.storageOrder {
		scan.StorageEntries = append(scan.StorageEntries, *a.storage[key])
	}
	for _, key := range a.requestOrder {
		scan.NetworkRequests = append(scan.NetworkRequests, *a.requests[key])
	}
	for _, key := range a.pixelOrder {
		scan.TrackingPixels = append(scan.TrackingPixels, *a.pixels[key])
	}
	for _, key := range a.iframeOrder {
		scan.Iframes = append(scan.Iframes, *a.iframes[key])
	}
	for _, key := range a.techOrder {
		scan.Technologies = append(scan.Technologies, *a.techs[key])
	}
	scan.Forms = append(scan.Forms, a.forms...)

	consent := a.consent
	scan.ConsentPlatform = &consent
}

func mergeURL(urls []string, url string) []string {
	if url == "" {
		return urls
	}
	for _, u := range urls {
		if u == url {
			return urls
		}
	}
	return append(urls, url)
}

func fnvSum(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
