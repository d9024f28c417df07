// Package discoverer finds the pages of a site to analyze: a bounded
// breadth-first crawl from the domain root, optionally seeded with probed
// common subdomains.
package discoverer

import (
	"context"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/privalens/privalens/internal/browser"
	"github.com/privalens/privalens/internal/logging"
	"github.com/privalens/privalens/internal/model"
	"github.com/privalens/privalens/internal/utils"
)

// commonSubdomains is the fixed probe list used when subdomain inclusion is
// enabled.
var commonSubdomains = []string{"www", "api", "blog", "shop", "store", "admin", "app", "mobile", "m"}

// probeTimeout bounds each subdomain reachability check.
const probeTimeout = 10 * time.Second

type Discoverer struct {
	logger logging.Logger
}

func New(logger logging.Logger) *Discoverer {
	return &Discoverer{logger: logger}
}

type crawl struct {
	d       *Discoverer
	session browser.Session
	apex    string
	cfg     model.ScanConfig

	visited map[string]struct{}
	queue   []model.DiscoveredURL
}

// Discover crawls breadth-first from https://{domain} and returns the pages
// to analyze in strict FIFO discovery order. The result never exceeds
// cfg.MaxURLs and no entry exceeds cfg.Depth. Per-URL navigation errors are
// logged and swallowed; only context cancellation aborts discovery.
func (d *Discoverer) Discover(ctx context.Context, session browser.Session, domain string, cfg model.ScanConfig) ([]model.DiscoveredURL, error) {
	apex := utils.NormalizeDomain(domain)
	c := &crawl{
		d:       d,
		session: session,
		apex:    apex,
		cfg:     cfg,
		visited: make(map[string]struct{}),
	}

	c.enqueue(utils.RootURL(apex), 0, "")

	if cfg.IncludeSubdomains {
		for _, label := range commonSubdomains {
			if err := ctx.Err(); err != nil {
				return c.queue, err
			}
			seed := "https://" + label + "." + apex
			if c.reachable(ctx, seed) {
				c.enqueue(seed, 0, "")
			}
		}
	}

	for i := 0; i < len(c.queue); i++ {
		if err := ctx.Err(); err != nil {
			return c.queue, err
		}
		current := c.queue[i]
		if current.Depth >= cfg.Depth {
			continue
		}
		links, err := c.pageLinks(ctx, current.URL)
		if err != nil {
			d.log("error while crawling page", current.URL, err)
			continue
		}
		for _, link := range links {
			if len(c.visited) >= cfg.MaxURLs {
				break
			}
			c.admit(link, current.Depth+1, current.URL)
		}
	}

	return c.queue, nil
}

func (d *Discoverer) log(msg, url string, err error) {
	if d.logger == nil {
		return
	}
	d.logger.Warn(msg,
		logging.Field{Key: "url", Value: url},
		logging.Field{Key: "error", Value: err.Error()})
}

// enqueue adds a URL without scope checks (used for seeds).
func (c *crawl) enqueue(rawURL string, depth int, foundOn string) {
	u, err := utils.NewURLTools(rawURL)
	if err != nil {
		c.d.log("error parsing seed url", rawURL, err)
		return
	}
	key := u.VisitKey()
	if _, seen := c.visited[key]; seen {
		return
	}
	if len(c.visited) >= c.cfg.MaxURLs {
		return
	}
	c.visited[key] = struct{}{}
	c.queue = append(c.queue, model.DiscoveredURL{URL: u.URL.String(), Depth: depth, FoundOn: foundOn})
}

// admit enqueues a discovered link if it is in scope and unseen.
func (c *crawl) admit(rawURL string, depth int, foundOn string) {
	u, err := utils.NewURLTools(rawURL)
	if err != nil {
		return
	}
	if u.URL.Scheme != "http" && u.URL.Scheme != "https" {
		return
	}
	if !utils.SameSite(u.URL.Hostname(), c.apex, c.cfg.IncludeSubdomains) {
		return
	}
	key := u.VisitKey()
	if _, seen := c.visited[key]; seen {
		return
	}
	c.visited[key] = struct{}{}
	c.queue = append(c.queue, model.DiscoveredURL{URL: u.URL.String(), Depth: depth, FoundOn: foundOn})
}

// reachable runs the lightweight subdomain probe: navigate with a short
// timeout, keep the host only when the document response is successful.
// Navigation resolves even for error pages, so the captured document request
// carries the verdict. A probe with no captured document response (or no
// status yet) still counts as reachable.
func (c *crawl) reachable(ctx context.Context, url string) bool {
	page, err := c.session.NewPage(ctx)
	if err != nil {
		return false
	}
	defer page.Close()

	if err := page.Navigate(ctx, url, probeTimeout); err != nil {
		return false
	}
	for _, req := range page.Requests() {
		if strings.EqualFold(req.ResourceType, "document") {
			return req.StatusCode < 400
		}
	}
	return true
}

// pageLinks loads one page and returns the resolved targets of its anchors.
func (c *crawl) pageLinks(ctx context.Context, pageURL string) ([]string, error) {
	page, err := c.session.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if err := page.Navigate(ctx, pageURL, c.cfg.NavigationTimeout); err != nil {
		return nil, err
	}
	content, err := page.Content(ctx)
	if err != nil {
		return nil, err
	}

	base, err := utils.NewURLTools(pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	var links []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "a" {
			for _, attr := range node.Attr {
				if attr.Key != "href" {
					continue
				}
				resolved, err := base.ResolveFullUrlString(attr.Val)
				if err != nil {
					c.d.log("couldn't resolve link", attr.Val, err)
					continue
				}
				links = append(links, resolved)
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return links, nil
}
