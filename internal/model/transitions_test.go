package model_test

import (
	"errors"
	"testing"

	"github.com/privalens/privalens/internal/model"
)

func pendingScan() *model.Scan {
	return &model.Scan{ID: "s1", Status: model.StatusPending}
}

func TestCanTransitionTable(t *testing.T) {
	cases := []struct {
		from, to model.Status
		ok       bool
	}{
		{model.StatusPending, model.StatusRunning, true},
		{model.StatusPending, model.StatusCancelled, true},
		{model.StatusPending, model.StatusFailed, true},
		{model.StatusPending, model.StatusCompleted, false},
		{model.StatusRunning, model.StatusCompleted, true},
		{model.StatusRunning, model.StatusFailed, true},
		{model.StatusRunning, model.StatusCancelled, true},
		{model.StatusRunning, model.StatusPending, false},
		{model.StatusCompleted, model.StatusRunning, false},
		{model.StatusFailed, model.StatusRunning, false},
		{model.StatusCancelled, model.StatusRunning, false},
	}
	for _, tc := range cases {
		if got := model.CanTransition(tc.from, tc.to); got != tc.ok {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestMarkRunning(t *testing.T) {
	s := pendingScan()
	if err := model.MarkRunning(s); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	if s.Status != model.StatusRunning {
		t.Errorf("status = %s, want running", s.Status)
	}
	if s.Progress.StartedAt.IsZero() || s.Progress.Phase != model.PhaseInitialization {
		t.Errorf("start bookkeeping missing: %+v", s.Progress)
	}
}

func TestMarkCompletedForcesFullProgress(t *testing.T) {
	s := pendingScan()
	if err := model.MarkRunning(s); err != nil {
		t.Fatal(err)
	}
	s.Progress.Percent = 95

	if err := model.MarkCompleted(s); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if s.Progress.Percent != 100 {
		t.Errorf("percent = %d, want 100", s.Progress.Percent)
	}
	if s.Progress.FinishedAt.IsZero() {
		t.Error("FinishedAt not stamped")
	}
}

func TestMarkFailedAppendsTerminalError(t *testing.T) {
	s := pendingScan()
	if err := model.MarkRunning(s); err != nil {
		t.Fatal(err)
	}
	s.Progress.Errors = append(s.Progress.Errors, model.ScanError{Message: "page timeout"})

	if err := model.MarkFailed(s, "browser crashed"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if s.Status != model.StatusFailed {
		t.Errorf("status = %s, want failed", s.Status)
	}
	if n := len(s.Progress.Errors); n != 2 || s.Progress.Errors[1].Message != "browser crashed" {
		t.Errorf("terminal error should be appended last, got %+v", s.Progress.Errors)
	}
}

func TestCancelPendingAndRunning(t *testing.T) {
	s := pendingScan()
	if err := model.MarkCancelled(s); err != nil {
		t.Fatalf("cancel pending: %v", err)
	}
	if s.Status != model.StatusCancelled {
		t.Errorf("status = %s, want cancelled", s.Status)
	}

	s = pendingScan()
	if err := model.MarkRunning(s); err != nil {
		t.Fatal(err)
	}
	if err := model.MarkCancelled(s); err != nil {
		t.Fatalf("cancel running: %v", err)
	}
	if s.Progress.FinishedAt.IsZero() {
		t.Error("cancellation should stamp FinishedAt")
	}
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	for _, terminal := range []func(*model.Scan) error{
		model.MarkCompleted,
		func(s *model.Scan) error { return model.MarkFailed(s, "x") },
		model.MarkCancelled,
	} {
		s := pendingScan()
		if err := model.MarkRunning(s); err != nil {
			t.Fatal(err)
		}
		if err := terminal(s); err != nil {
			t.Fatal(err)
		}

		before := s.Status
		for _, again := range []func(*model.Scan) error{
			model.MarkRunning,
			model.MarkCompleted,
			func(s *model.Scan) error { return model.MarkFailed(s, "y") },
			model.MarkCancelled,
		} {
			if err := again(s); !errors.Is(err, model.ErrTerminalState) {
				t.Errorf("transition out of %s: err = %v, want ErrTerminalState", before, err)
			}
		}
		if s.Status != before {
			t.Errorf("terminal status mutated: %s -> %s", before, s.Status)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	for status, want := range map[model.Status]bool{
		model.StatusPending:   false,
		model.StatusRunning:   false,
		model.StatusCompleted: true,
		model.StatusFailed:    true,
		model.StatusCancelled: true,
	} {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}
