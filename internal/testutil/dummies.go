// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without a real browser or
// network.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/privalens/privalens/internal/browser"
	"github.com/privalens/privalens/internal/logging"
	"github.com/privalens/privalens/internal/model"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ─── Browser ───────────────────────────────────────────────────────────

// PageDef scripts what the fake browser serves for one URL.
type PageDef struct {
	HTML     string
	Cookies  []model.RawCookie
	Local    map[string]string
	Session  map[string]string
	Requests []model.RawRequest

	// NavigateErr simulates a navigation failure for this URL.
	NavigateErr error
}

// FakeSession implements browser.Session over a scripted url -> page map.
// URLs without an entry fail navigation, which makes subdomain probes
// resolve naturally in tests.
type FakeSession struct {
	Pages map[string]PageDef

	mu        sync.Mutex
	Navigated []string
	closed    bool
}

func NewFakeSession(pages map[string]PageDef) *FakeSession {
	return &FakeSession{Pages: pages}
}

func (s *FakeSession) NewPage(ctx context.Context) (browser.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("session closed")
	}
	return &fakePage{session: s}, nil
}

func (s *FakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether the orchestrator tore the session down.
func (s *FakeSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakePage struct {
	session *FakeSession
	def     PageDef
	loaded  bool
}

func (p *fakePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.session.mu.Lock()
	p.session.Navigated = append(p.session.Navigated, url)
	def, ok := p.session.Pages[url]
	p.session.mu.Unlock()

	if !ok {
		return fmt.Errorf("navigating to %s: host unreachable", url)
	}
	if def.NavigateErr != nil {
		return def.NavigateErr
	}
	p.def = def
	p.loaded = true
	return nil
}

func (p *fakePage) Content(ctx context.Context) (string, error) {
	if !p.loaded {
		return "", fmt.Errorf("no page loaded")
	}
	return p.def.HTML, nil
}

func (p *fakePage) Cookies(ctx context.Context) ([]model.RawCookie, error) {
	if !p.loaded {
		return nil, fmt.Errorf("no page loaded")
	}
	return p.def.Cookies, nil
}

// Evaluate answers the storage dump expression the extractor uses; any other
// expression yields an empty object.
func (p *fakePage) Evaluate(ctx context.Context, expr string, out any) error {
	if !p.loaded {
		return fmt.Errorf("no page loaded")
	}

	type kv struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	dump := struct {
		Local   []kv `json:"local"`
		Session []kv `json:"session"`
	}{}
	for k, v := range p.def.Local {
		dump.Local = append(dump.Local, kv{Key: k, Value: v})
	}
	for k, v := range p.def.Session {
		dump.Session = append(dump.Session, kv{Key: k, Value: v})
	}

	blob, err := json.Marshal(dump)
	if err != nil {
		return err
	}
	return json.Unmarshal(blob, out)
}

func (p *fakePage) Requests() []model.RawRequest {
	if !p.loaded {
		return nil
	}
	return p.def.Requests
}

func (p *fakePage) Close() error { return nil }
