package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/privalens/privalens/internal/model"
)

// inlineScriptLimit caps how much inline source is kept for classification.
const inlineScriptLimit = 4096

func (e *Extractor) extractScripts(doc *goquery.Document) []model.RawScript {
	var scripts []model.RawScript
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok && src != "" {
			scripts = append(scripts, model.RawScript{Src: src})
			return
		}
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		if len(text) > inlineScriptLimit {
			text = text[:inlineScriptLimit]
		}
		scripts = append(scripts, model.RawScript{Inline: true, Text: text})
	})
	return scripts
}

func (e *Extractor) extractIframes(doc *goquery.Document) []model.RawIframe {
	var iframes []model.RawIframe
	doc.Find("iframe").Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok && src != "" {
			iframes = append(iframes, model.RawIframe{Src: src})
		}
	})
	return iframes
}

func (e *Extractor) extractForms(doc *goquery.Document) []model.RawForm {
	var forms []model.RawForm
	doc.Find("form").Each(func(_ int, sel *goquery.Selection) {
		form := model.RawForm{}
		form.Action, _ = sel.Attr("action")
		form.Method, _ = sel.Attr("method")
		sel.Find("input, select, textarea").Each(func(_ int, field *goquery.Selection) {
			if name, ok := field.Attr("name"); ok && name != "" {
				form.FieldNames = append(form.FieldNames, name)
			}
			if typ, ok := field.Attr("type"); ok && typ != "" {
				form.FieldTypes = append(form.FieldTypes, typ)
			}
		})
		forms = append(forms, form)
	})
	return forms
}

// extractPixels finds 1x1 images in the DOM; beacon requests are added
// separately from the captured network traffic.
func (e *Extractor) extractPixels(doc *goquery.Document) []model.RawPixel {
	var pixels []model.RawPixel
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" {
			return
		}
		w, _ := sel.Attr("width")
		h, _ := sel.Attr("height")
		if (w == "1" && h == "1") || w == "0" || h == "0" {
			pixels = append(pixels, model.RawPixel{URL: src})
		}
	})
	return pixels
}

func (e *Extractor) pixelsFromRequests(requests []model.RawRequest) []model.RawPixel {
	var pixels []model.RawPixel
	for _, req := range requests {
		for _, host := range e.tax.PixelHosts {
			if strings.Contains(req.URL, host) {
				pixels = append(pixels, model.RawPixel{URL: req.URL})
				break
			}
		}
	}
	return pixels
}
