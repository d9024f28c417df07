package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTerminalState is returned when a transition is attempted on a scan
	// that already reached completed, failed or cancelled.
	ErrTerminalState = errors.New("scan is in a terminal state")

	// ErrInvalidTransition is returned for transitions the state machine
	// does not define.
	ErrInvalidTransition = errors.New("invalid scan state transition")
)

// CanTransition reports whether the state machine defines from -> to.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusRunning || to == StatusCancelled || to == StatusFailed
	case StatusRunning:
		return to == StatusCompleted || to == StatusFailed || to == StatusCancelled
	default:
		return false
	}
}

func transition(s *Scan, to Status) error {
	if s.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrTerminalState, s.Status)
	}
	if !CanTransition(s.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, to)
	}
	s.Status = to
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkRunning moves a pending scan to running and stamps the start time.
func MarkRunning(s *Scan) error {
	if err := transition(s, StatusRunning); err != nil {
		return err
	}
	s.Progress.StartedAt = time.Now().UTC()
	s.Progress.Phase = PhaseInitialization
	return nil
}

// MarkCompleted finalizes a running scan: percent forced to 100, end stamped.
func MarkCompleted(s *Scan) error {
	if err := transition(s, StatusCompleted); err != nil {
		return err
	}
	s.Progress.Percent = 100
	s.Progress.Phase = PhaseFinalization
	s.Progress.FinishedAt = time.Now().UTC()
	return nil
}

// MarkFailed records the terminal error message as the last progress step.
func MarkFailed(s *Scan, msg string) error {
	if err := transition(s, StatusFailed); err != nil {
		return err
	}
	s.Progress.CurrentURL = ""
	s.Progress.Errors = append(s.Progress.Errors, ScanError{
		Message: msg,
		At:      time.Now().UTC(),
	})
	s.Progress.FinishedAt = time.Now().UTC()
	return nil
}

// MarkCancelled stops a pending or running scan, keeping collected signals.
func MarkCancelled(s *Scan) error {
	if err := transition(s, StatusCancelled); err != nil {
		return err
	}
	s.Progress.FinishedAt = time.Now().UTC()
	return nil
}
