package server

import "github.com/privalens/privalens/internal/model"

// StartScanRequest is the payload for starting a scan of a domain.
type StartScanRequest struct {
	Domain   string            `json:"domain" example:"example.com"`
	Priority string            `json:"priority" example:"normal"`
	Config   *model.ScanConfig `json:"config,omitempty"`
}

// ScheduledScanRequest is the payload of the unattended scheduled-run entry
// point. It carries no priority; scheduled runs always queue as low.
type ScheduledScanRequest struct {
	Domain string            `json:"domain" example:"example.com"`
	Config *model.ScanConfig `json:"config,omitempty"`
}

// ScanStatusResponse is the status-polling payload.
type ScanStatusResponse struct {
	ID       string         `json:"id"`
	Status   model.Status   `json:"status"`
	Progress model.Progress `json:"progress"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"scan not found"`
}
