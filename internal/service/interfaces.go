// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"
)

// RetryOptions configures retry behavior for gateway operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// ProcessingFlag records that a PMS upload for a domain is being processed.
// It is the client-side marker that survives restarts; the backend job record
// remains the source of truth.
type ProcessingFlag struct {
	Domain     string
	UploadedAt time.Time
}

// Stale reports whether the flag is older than the given age. A stale flag
// with no matching active job is cleared on the next status check.
func (f ProcessingFlag) Stale(maxAge time.Duration, now time.Time) bool {
	return now.Sub(f.UploadedAt) > maxAge
}

// SetupProgress tracks per-domain onboarding step completion.
type SetupProgress struct {
	UpdatedAt time.Time
	Domain    string
	Steps     map[string]bool
}

// Well-known setup steps.
const (
	StepPMSConnected = "pms_connected"
	StepDataApproved = "data_approved"
)

// StateStore is the local persistence adapter for client-side flags that the
// dashboard keeps between sessions.
type StateStore interface {
	GetProcessingFlag(ctx context.Context, domain string) (*ProcessingFlag, error)
	SetProcessingFlag(ctx context.Context, domain string, uploadedAt time.Time) error
	ClearProcessingFlag(ctx context.Context, domain string) error

	GetSetupProgress(ctx context.Context, domain string) (*SetupProgress, error)
	SetSetupStep(ctx context.Context, domain, step string, done bool) error

	Migrate(ctx context.Context) error
	Close() error
}
