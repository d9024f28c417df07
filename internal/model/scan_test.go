package model_test

import (
	"testing"
	"time"

	"github.com/privalens/privalens/internal/model"
)

func TestScanConfigWithDefaultsFillsZeroFields(t *testing.T) {
	got := model.ScanConfig{Depth: 5}.WithDefaults()
	def := model.DefaultScanConfig()

	if got.Depth != 5 {
		t.Errorf("Depth = %d, want the given 5", got.Depth)
	}
	if got.MaxURLs != def.MaxURLs {
		t.Errorf("MaxURLs = %d, want %d", got.MaxURLs, def.MaxURLs)
	}
	if got.NavigationTimeout != def.NavigationTimeout {
		t.Errorf("NavigationTimeout = %s, want %s", got.NavigationTimeout, def.NavigationTimeout)
	}
	if got.ViewportWidth != def.ViewportWidth || got.ViewportHeight != def.ViewportHeight {
		t.Errorf("viewport = %dx%d, want %dx%d", got.ViewportWidth, got.ViewportHeight, def.ViewportWidth, def.ViewportHeight)
	}
	if got.AcceptLanguages != def.AcceptLanguages {
		t.Errorf("AcceptLanguages = %q, want %q", got.AcceptLanguages, def.AcceptLanguages)
	}
	if got.Retries != def.Retries {
		t.Errorf("Retries = %d, want %d", got.Retries, def.Retries)
	}
}

func TestScanConfigWithDefaultsKeepsExplicitValues(t *testing.T) {
	in := model.ScanConfig{
		Depth:             1,
		MaxURLs:           10,
		IncludeSubdomains: true,
		NavigationTimeout: 5 * time.Second,
		ViewportWidth:     800,
		ViewportHeight:    600,
		AcceptLanguages:   "de-DE,de",
		Retries:           1,
	}
	if got := in.WithDefaults(); got != in {
		t.Errorf("fully specified config must pass through unchanged: %+v", got)
	}
}

func TestScanConfigWithDefaultsOnZeroValue(t *testing.T) {
	if got, def := (model.ScanConfig{}).WithDefaults(), model.DefaultScanConfig(); got != def {
		t.Errorf("zero config = %+v, want defaults %+v", got, def)
	}
}
