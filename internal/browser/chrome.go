package browser

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/privalens/privalens/internal/logging"
	"github.com/privalens/privalens/internal/model"
)

// ChromeSession drives one headless Chrome process via chromedp. Each call
// to NewPage opens a fresh tab context.
type ChromeSession struct {
	cfg    Config
	logger logging.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc
}

// NewChromeSession launches the browser. Launch failures are run-fatal for
// the calling orchestrator.
func NewChromeSession(cfg Config, logger logging.Logger) (*ChromeSession, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.AcceptLanguages != "" {
		opts = append(opts, chromedp.Flag("accept-lang", cfg.AcceptLanguages))
	}
	if cfg.ViewportWidth > 0 && cfg.ViewportHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.ViewportWidth, cfg.ViewportHeight))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserStop := chromedp.NewContext(allocCtx)

	// Force the browser process to start now so launch failures surface
	// here instead of on the first page.
	if err := chromedp.Run(browserCtx); err != nil {
		browserStop()
		allocCancel()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	return &ChromeSession{
		cfg:         cfg,
		logger:      logger,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		browserCtx:  browserCtx,
		browserStop: browserStop,
	}, nil
}

func (s *ChromeSession) NewPage(ctx context.Context) (Page, error) {
	if err := s.browserCtx.Err(); err != nil {
		return nil, fmt.Errorf("browser session closed: %w", err)
	}

	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)
	p := &chromePage{
		cfg:       s.cfg,
		tabCtx:    tabCtx,
		tabCancel: tabCancel,
	}
	p.captureNetwork()
	return p, nil
}

func (s *ChromeSession) Close() error {
	s.browserStop()
	s.allocCancel()
	return nil
}

type chromePage struct {
	cfg       Config
	tabCtx    context.Context
	tabCancel context.CancelFunc

	reqMu    sync.Mutex
	pending  map[network.RequestID]*pendingRequest
	captured []model.RawRequest
}

type pendingRequest struct {
	req   model.RawRequest
	start time.Time
}

// captureNetwork registers the interception hook. It must run before
// Navigate so early requests are not missed.
func (p *chromePage) captureNetwork() {
	p.pending = make(map[network.RequestID]*pendingRequest)

	chromedp.ListenTarget(p.tabCtx, func(ev any) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			p.reqMu.Lock()
			p.pending[e.RequestID] = &pendingRequest{
				req: model.RawRequest{
					URL:          e.Request.URL,
					Method:       e.Request.Method,
					ResourceType: string(e.Type),
				},
				start: time.Now(),
			}
			p.reqMu.Unlock()
		case *network.EventResponseReceived:
			p.reqMu.Lock()
			if pr, ok := p.pending[e.RequestID]; ok {
				pr.req.StatusCode = int(e.Response.Status)
			}
			p.reqMu.Unlock()
		case *network.EventLoadingFinished:
			p.reqMu.Lock()
			if pr, ok := p.pending[e.RequestID]; ok {
				pr.req.Duration = time.Since(pr.start)
				pr.req.ResponseSize = int64(e.EncodedDataLength)
				p.captured = append(p.captured, pr.req)
				delete(p.pending, e.RequestID)
			}
			p.reqMu.Unlock()
		case *network.EventLoadingFailed:
			p.reqMu.Lock()
			if pr, ok := p.pending[e.RequestID]; ok {
				pr.req.Duration = time.Since(pr.start)
				p.captured = append(p.captured, pr.req)
				delete(p.pending, e.RequestID)
			}
			p.reqMu.Unlock()
		}
	})
}

// waitNetworkIdle signals once no request has been in flight for idleAfter.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) chan struct{} {
	idleChan := make(chan struct{})
	var activeReqs int32
	var timer *time.Timer
	var timerMutex sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()

		if timer != nil {
			timer.Stop()
		}

		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				once.Do(func() {
					close(idleChan)
				})
			}
		})
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&activeReqs, -1) <= 0 {
				startTimer()
			}
		}
	})
	startTimer()

	return idleChan
}

func (p *chromePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	navCtx, cancel := context.WithTimeout(p.tabCtx, timeout)
	defer cancel()

	idle := waitNetworkIdle(navCtx, p.cfg.SettleDelay)

	actions := []chromedp.Action{
		network.Enable(),
	}
	if p.cfg.ViewportWidth > 0 && p.cfg.ViewportHeight > 0 {
		actions = append(actions, chromedp.EmulateViewport(int64(p.cfg.ViewportWidth), int64(p.cfg.ViewportHeight)))
	}
	if p.cfg.AcceptLanguages != "" {
		actions = append(actions, network.SetExtraHTTPHeaders(map[string]any{
			"Accept-Language": p.cfg.AcceptLanguages,
		}))
	}
	actions = append(actions, chromedp.Navigate(url))

	if err := chromedp.Run(navCtx, actions...); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}

	// Settle: wait for network idle, bounded by the remaining nav budget
	// and the caller's context.
	select {
	case <-idle:
	case <-navCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (p *chromePage) Content(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("reading page content: %w", err)
	}
	return html, nil
}

func (p *chromePage) Cookies(ctx context.Context) ([]model.RawCookie, error) {
	var raw []model.RawCookie
	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, c := range cookies {
			rc := model.RawCookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Secure:   c.Secure,
				HTTPOnly: c.HTTPOnly,
				SameSite: string(c.SameSite),
				Session:  c.Session,
				Size:     int(c.Size),
			}
			if !c.Session && c.Expires > 0 {
				sec := int64(c.Expires)
				nsec := int64((c.Expires - float64(sec)) * 1e9)
				rc.Expires = time.Unix(sec, nsec).UTC()
			}
			raw = append(raw, rc)
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("reading cookies: %w", err)
	}
	return raw, nil
}

func (p *chromePage) Evaluate(ctx context.Context, expr string, out any) error {
	if err := p.run(ctx, chromedp.Evaluate(expr, out)); err != nil {
		return fmt.Errorf("evaluating expression: %w", err)
	}
	return nil
}

func (p *chromePage) Requests() []model.RawRequest {
	p.reqMu.Lock()
	defer p.reqMu.Unlock()
	out := make([]model.RawRequest, len(p.captured))
	copy(out, p.captured)
	return out
}

func (p *chromePage) Close() error {
	p.tabCancel()
	return nil
}

// run executes actions on the tab while honoring the caller's context.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(p.tabCtx, actions...)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
