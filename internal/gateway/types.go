// Package gateway provides the client for the practice-analytics backend's
// PMS endpoints.
package gateway

import (
	"encoding/json"

	"github.com/chairside/pmsflow/internal/model"
	"github.com/chairside/pmsflow/internal/wire"
)

// KeyData is the latest PMS key data for a domain: the approved month
// records, the raw payload of the latest job, and its approval stats.
type KeyData struct {
	Stats        model.JobStats
	Sources      []string
	Months       []wire.MonthEntryForm
	LatestJobRaw []wire.MonthEntryForm
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Success bool            `json:"success"`
}

// keyDataPayload mirrors the key-data response body before normalization.
type keyDataPayload struct {
	Months       json.RawMessage `json:"months"`
	Sources      []string        `json:"sources"`
	Stats        model.JobStats  `json:"stats"`
	LatestJobRaw json.RawMessage `json:"latestJobRaw"`
}

type activeJobsPayload struct {
	Jobs []model.Job `json:"jobs"`
}

type automationStatusPayload struct {
	AutomationStatus model.AutomationStatus `json:"automationStatus"`
}

// updateResponseRequest carries the edited months back to the backend. The
// payload travels as a JSON string, matching how the job response column is
// stored.
type updateResponseRequest struct {
	Response string `json:"response"`
}

type clientApprovalRequest struct {
	Approved bool `json:"approved"`
}

type manualSubmitRequest struct {
	Domain     string                `json:"domain"`
	LocationID string                `json:"locationId,omitempty"`
	Months     []wire.MonthEntryForm `json:"months"`
}
