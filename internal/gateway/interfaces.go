package gateway

import (
	"context"
	"io"

	"github.com/chairside/pmsflow/internal/model"
	"github.com/chairside/pmsflow/internal/wire"
)

// Gateway defines the contract for the PMS backend endpoints. It exists so
// the poller and editor flows can be tested against a mock.
type Gateway interface {
	// GetLatestKeyData fetches the domain's current months, sources, and
	// latest-job stats.
	GetLatestKeyData(ctx context.Context, domain string) (*KeyData, error)

	// GetActiveJobs lists ingestion jobs that are currently in flight for
	// the domain.
	GetActiveJobs(ctx context.Context, domain string) ([]model.Job, error)

	// GetAutomationStatus fetches the automation status for one job.
	GetAutomationStatus(ctx context.Context, jobID string) (model.AutomationStatus, error)

	// UpdateJobResponse saves edited month data back onto a job.
	UpdateJobResponse(ctx context.Context, jobID string, months []wire.MonthEntryForm) error

	// UpdateClientApproval sets the client approval flag on a job.
	UpdateClientApproval(ctx context.Context, jobID string, approved bool) error

	// SubmitManualData submits manually entered months, bypassing approval.
	SubmitManualData(ctx context.Context, domain string, months []wire.MonthEntryForm, locationID string) error

	// UploadPMSFile uploads a PMS export for ingestion.
	UploadPMSFile(ctx context.Context, domain, pmsType, filename string, file io.Reader) error
}
