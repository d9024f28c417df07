// Package extractor turns one loaded browser page into raw signal records.
// Every sub-extractor is independent and best-effort: a failure in one is
// logged and never aborts the others. The extractor only inspects the page,
// it never mutates page state.
package extractor

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/privalens/privalens/internal/browser"
	"github.com/privalens/privalens/internal/logging"
	"github.com/privalens/privalens/internal/model"
	"github.com/privalens/privalens/internal/taxonomy"
)

type Extractor struct {
	tax    *taxonomy.Taxonomy
	logger logging.Logger
}

func New(tax *taxonomy.Taxonomy, logger logging.Logger) *Extractor {
	if tax == nil {
		tax = taxonomy.Default()
	}
	return &Extractor{tax: tax, logger: logger}
}

// Extract runs all sub-extractors against an already-navigated page and
// returns whatever could be observed.
func (e *Extractor) Extract(ctx context.Context, page browser.Page, pageURL string) model.RawSignals {
	signals := model.RawSignals{URL: pageURL}

	cookies, err := page.Cookies(ctx)
	if err != nil {
		e.warn("cookie extraction failed", pageURL, err)
	} else {
		signals.Cookies = cookies
	}

	if entries, err := e.extractStorage(ctx, page); err != nil {
		e.warn("storage extraction failed", pageURL, err)
	} else {
		signals.Storage = entries
	}

	html, err := page.Content(ctx)
	if err != nil {
		e.warn("content extraction failed", pageURL, err)
	}

	var doc *goquery.Document
	if html != "" {
		doc, err = goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			e.warn("parsing page content failed", pageURL, err)
			doc = nil
		}
	}

	if doc != nil {
		signals.Scripts = e.extractScripts(doc)
		signals.Iframes = e.extractIframes(doc)
		signals.Forms = e.extractForms(doc)
		signals.Pixels = e.extractPixels(doc)
	}

	signals.Requests = page.Requests()
	signals.Pixels = append(signals.Pixels, e.pixelsFromRequests(signals.Requests)...)

	signals.ConsentHints = e.detectConsent(html, signals)
	signals.Technologies = e.detectTechnologies(html, signals)

	return signals
}

func (e *Extractor) warn(msg, pageURL string, err error) {
	if e.logger == nil {
		return
	}
	e.logger.Warn(msg,
		logging.Field{Key: "url", Value: pageURL},
		logging.Field{Key: "error", Value: err.Error()})
}

// storageDumpJS serializes both web storages; values are truncated so a
// single page cannot blow up the record.
const storageDumpJS = `(() => {
	const grab = (s) => {
		const out = [];
		try {
			for (let i = 0; i < s.length; i++) {
				const k = s.key(i);
				out.push({key: k, value: String(s.getItem(k)).slice(0, 512)});
			}
		} catch (e) {}
		return out;
	};
	return {local: grab(window.localStorage), session: grab(window.sessionStorage)};
})()`

func (e *Extractor) extractStorage(ctx context.Context, page browser.Page) ([]model.RawStorage, error) {
	var dump struct {
		Local []struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		} `json:"local"`
		Session []struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		} `json:"session"`
	}
	if err := page.Evaluate(ctx, storageDumpJS, &dump); err != nil {
		return nil, err
	}

	entries := make([]model.RawStorage, 0, len(dump.Local)+len(dump.Session))
	for _, kv := range dump.Local {
		entries = append(entries, model.RawStorage{Kind: "local", Key: kv.Key, Value: kv.Value})
	}
	for _, kv := range dump.Session {
		entries = append(entries, model.RawStorage{Kind: "session", Key: kv.Key, Value: kv.Value})
	}
	return entries, nil
}
