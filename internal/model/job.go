package model

import "time"

// AutomationState is the lifecycle state reported by the backend for one
// ingestion job's automation run.
type AutomationState string

// Automation lifecycle states.
const (
	StatePending          AutomationState = "pending"
	StateProcessing       AutomationState = "processing"
	StateAwaitingApproval AutomationState = "awaiting_approval"
	StateCompleted        AutomationState = "completed"
	StateFailed           AutomationState = "failed"
)

// StepClientApproval is the awaiting_approval sub-step where the end customer
// must confirm the extracted data. Nothing changes server-side until they act,
// so polling is suspended while a job sits here.
const StepClientApproval = "client_approval"

// AutomationStatus is the status payload for one job.
type AutomationStatus struct {
	Status      AutomationState `json:"status"`
	CurrentStep string          `json:"currentStep,omitempty"`
}

// Active reports whether the automation run is still in flight.
func (s AutomationStatus) Active() bool {
	switch s.Status {
	case StatePending, StateProcessing, StateAwaitingApproval:
		return true
	default:
		return false
	}
}

// AwaitingClientApproval reports whether the job is parked on the client
// approval step.
func (s AutomationStatus) AwaitingClientApproval() bool {
	return s.Status == StateAwaitingApproval && s.CurrentStep == StepClientApproval
}

// Terminal reports whether the run has finished, successfully or not.
func (s AutomationStatus) Terminal() bool {
	return s.Status == StateCompleted || s.Status == StateFailed
}

// Job is one ingested batch of PMS data.
type Job struct {
	ID         string           `json:"jobId"`
	Automation AutomationStatus `json:"automationStatus"`
}

// JobStats summarizes the latest job attached to a domain's key data.
type JobStats struct {
	LatestJobTimestamp        time.Time `json:"latestJobTimestamp"`
	LatestJobID               string    `json:"latestJobId"`
	LatestJobStatus           string    `json:"latestJobStatus"`
	LatestJobIsApproved       bool      `json:"latestJobIsApproved"`
	LatestJobIsClientApproved bool      `json:"latestJobIsClientApproved"`
}
