package discoverer_test

import (
	"context"
	"testing"

	"github.com/privalens/privalens/internal/discoverer"
	"github.com/privalens/privalens/internal/model"
	"github.com/privalens/privalens/internal/testutil"
)

func page(links ...string) testutil.PageDef {
	html := "<html><body>"
	for _, l := range links {
		html += `<a href="` + l + `">link</a>`
	}
	html += "</body></html>"
	return testutil.PageDef{HTML: html}
}

func cfg(depth, maxURLs int) model.ScanConfig {
	c := model.DefaultScanConfig()
	c.Depth = depth
	c.MaxURLs = maxURLs
	return c
}

func TestDiscoverBFSOrder(t *testing.T) {
	session := testutil.NewFakeSession(map[string]testutil.PageDef{
		"https://a.example":          page("/one", "/two"),
		"https://a.example/one":      page("/one/deep"),
		"https://a.example/two":      page(),
		"https://a.example/one/deep": page(),
	})

	d := discoverer.New(&testutil.DummyLogger{})
	got, err := d.Discover(context.Background(), session, "a.example", cfg(2, 50))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	want := []string{
		"https://a.example",
		"https://a.example/one",
		"https://a.example/two",
		"https://a.example/one/deep",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d urls, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].URL != w {
			t.Errorf("order[%d] = %q, want %q", i, got[i].URL, w)
		}
	}
	if got[3].Depth != 2 || got[3].FoundOn != "https://a.example/one" {
		t.Errorf("deep page bookkeeping wrong: %+v", got[3])
	}
}

func TestDiscoverRespectsDepth(t *testing.T) {
	session := testutil.NewFakeSession(map[string]testutil.PageDef{
		"https://a.example":          page("/one"),
		"https://a.example/one":      page("/one/deep"),
		"https://a.example/one/deep": page("/never"),
	})

	d := discoverer.New(&testutil.DummyLogger{})
	got, err := d.Discover(context.Background(), session, "a.example", cfg(1, 50))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	for _, u := range got {
		if u.Depth > 1 {
			t.Errorf("url %q exceeds depth 1 (depth %d)", u.URL, u.Depth)
		}
	}
	if len(got) != 2 {
		t.Errorf("expected root and /one only, got %+v", got)
	}
}

func TestDiscoverRespectsMaxURLs(t *testing.T) {
	session := testutil.NewFakeSession(map[string]testutil.PageDef{
		"https://a.example": page("/p1", "/p2", "/p3", "/p4", "/p5"),
	})

	d := discoverer.New(&testutil.DummyLogger{})
	got, err := d.Discover(context.Background(), session, "a.example", cfg(2, 3))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("maxURLs=3 but discovered %d urls", len(got))
	}
}

func TestDiscoverDeduplicatesByPathIgnoringQuery(t *testing.T) {
	session := testutil.NewFakeSession(map[string]testutil.PageDef{
		"https://a.example": page("/page?a=1", "/page?a=2", "/page"),
	})

	d := discoverer.New(&testutil.DummyLogger{})
	got, err := d.Discover(context.Background(), session, "a.example", cfg(1, 50))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("query variants should collapse to one page, got %+v", got)
	}
}

func TestDiscoverFiltersOffSiteLinks(t *testing.T) {
	session := testutil.NewFakeSession(map[string]testutil.PageDef{
		"https://a.example":    page("https://other.example/", "mailto:x@a.example", "/ok"),
		"https://a.example/ok": page(),
	})

	d := discoverer.New(&testutil.DummyLogger{})
	got, err := d.Discover(context.Background(), session, "a.example", cfg(1, 50))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	for _, u := range got {
		if u.URL == "https://other.example/" {
			t.Error("off-site link must not be enqueued")
		}
	}
	if len(got) != 2 {
		t.Errorf("expected root and /ok, got %+v", got)
	}
}

func TestDiscoverSubdomainProbes(t *testing.T) {
	session := testutil.NewFakeSession(map[string]testutil.PageDef{
		"https://a.example":      page(),
		"https://www.a.example":  page(),
		"https://blog.a.example": page(),
		// No other subdomain hosts exist; their probes fail navigation.
	})

	c := cfg(1, 50)
	c.IncludeSubdomains = true

	d := discoverer.New(&testutil.DummyLogger{})
	got, err := d.Discover(context.Background(), session, "a.example", c)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	urls := map[string]bool{}
	for _, u := range got {
		urls[u.URL] = true
	}
	if !urls["https://www.a.example"] || !urls["https://blog.a.example"] {
		t.Errorf("reachable subdomains missing from seeds: %+v", got)
	}
	if urls["https://api.a.example"] {
		t.Error("unreachable subdomain must not be seeded")
	}
}

func TestDiscoverSubdomainProbeChecksResponseStatus(t *testing.T) {
	doc := func(url string, status int) testutil.PageDef {
		p := page()
		p.Requests = []model.RawRequest{{URL: url, Method: "GET", ResourceType: "Document", StatusCode: status}}
		return p
	}

	// Both hosts resolve and navigation succeeds; shop serves a 404 document.
	session := testutil.NewFakeSession(map[string]testutil.PageDef{
		"https://a.example":      page(),
		"https://www.a.example":  doc("https://www.a.example/", 200),
		"https://shop.a.example": doc("https://shop.a.example/", 404),
	})

	c := cfg(1, 50)
	c.IncludeSubdomains = true

	d := discoverer.New(&testutil.DummyLogger{})
	got, err := d.Discover(context.Background(), session, "a.example", c)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	urls := map[string]bool{}
	for _, u := range got {
		urls[u.URL] = true
	}
	if !urls["https://www.a.example"] {
		t.Errorf("subdomain with a successful document response must be seeded: %+v", got)
	}
	if urls["https://shop.a.example"] {
		t.Error("subdomain answering 404 must not be seeded")
	}
}

func TestDiscoverSwallowsPageErrors(t *testing.T) {
	session := testutil.NewFakeSession(map[string]testutil.PageDef{
		"https://a.example":      page("/broken", "/fine"),
		"https://a.example/fine": page(),
		// /broken has no entry; loading it fails.
	})

	d := discoverer.New(&testutil.DummyLogger{})
	got, err := d.Discover(context.Background(), session, "a.example", cfg(2, 50))
	if err != nil {
		t.Fatalf("per-URL failures must not abort discovery: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("broken page stays discovered even when unloadable, got %+v", got)
	}
}

func TestDiscoverHonorsCancellation(t *testing.T) {
	session := testutil.NewFakeSession(map[string]testutil.PageDef{
		"https://a.example": page("/one"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := discoverer.New(&testutil.DummyLogger{})
	if _, err := d.Discover(ctx, session, "a.example", cfg(2, 50)); err == nil {
		t.Fatal("cancelled context should surface an error")
	}
}
