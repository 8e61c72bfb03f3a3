package gateway

import (
	"context"
	"io"
	"sync"

	"github.com/chairside/pmsflow/internal/model"
	"github.com/chairside/pmsflow/internal/wire"
)

// Mock is a test double for the Gateway interface. Behavior is controlled by
// setting the Fn fields; calls are recorded for assertions. Safe for
// concurrent use so poller tests can drive it from multiple goroutines.
type Mock struct {
	GetLatestKeyDataFn     func(ctx context.Context, domain string) (*KeyData, error)
	GetActiveJobsFn        func(ctx context.Context, domain string) ([]model.Job, error)
	GetAutomationStatusFn  func(ctx context.Context, jobID string) (model.AutomationStatus, error)
	UpdateJobResponseFn    func(ctx context.Context, jobID string, months []wire.MonthEntryForm) error
	UpdateClientApprovalFn func(ctx context.Context, jobID string, approved bool) error
	SubmitManualDataFn     func(ctx context.Context, domain string, months []wire.MonthEntryForm, locationID string) error
	UploadPMSFileFn        func(ctx context.Context, domain, pmsType, filename string, file io.Reader) error

	mu sync.Mutex

	KeyDataCalls          []string
	ActiveJobsCalls       []string
	AutomationStatusCalls []string
	UpdateResponseCalls   []UpdateResponseCall
	ClientApprovalCalls   []ClientApprovalCall
	ManualSubmitCalls     []ManualSubmitCall
	UploadCalls           []UploadCall
}

// UpdateResponseCall records one UpdateJobResponse invocation.
type UpdateResponseCall struct {
	JobID  string
	Months []wire.MonthEntryForm
}

// ClientApprovalCall records one UpdateClientApproval invocation.
type ClientApprovalCall struct {
	JobID    string
	Approved bool
}

// ManualSubmitCall records one SubmitManualData invocation.
type ManualSubmitCall struct {
	Domain     string
	LocationID string
	Months     []wire.MonthEntryForm
}

// UploadCall records one UploadPMSFile invocation.
type UploadCall struct {
	Domain   string
	PMSType  string
	Filename string
}

// NewMock creates a mock gateway with empty defaults.
func NewMock() *Mock {
	return &Mock{}
}

// GetLatestKeyData implements Gateway.
func (m *Mock) GetLatestKeyData(ctx context.Context, domain string) (*KeyData, error) {
	m.mu.Lock()
	m.KeyDataCalls = append(m.KeyDataCalls, domain)
	m.mu.Unlock()

	if m.GetLatestKeyDataFn != nil {
		return m.GetLatestKeyDataFn(ctx, domain)
	}
	return &KeyData{}, nil
}

// GetActiveJobs implements Gateway.
func (m *Mock) GetActiveJobs(ctx context.Context, domain string) ([]model.Job, error) {
	m.mu.Lock()
	m.ActiveJobsCalls = append(m.ActiveJobsCalls, domain)
	m.mu.Unlock()

	if m.GetActiveJobsFn != nil {
		return m.GetActiveJobsFn(ctx, domain)
	}
	return nil, nil
}

// GetAutomationStatus implements Gateway.
func (m *Mock) GetAutomationStatus(ctx context.Context, jobID string) (model.AutomationStatus, error) {
	m.mu.Lock()
	m.AutomationStatusCalls = append(m.AutomationStatusCalls, jobID)
	m.mu.Unlock()

	if m.GetAutomationStatusFn != nil {
		return m.GetAutomationStatusFn(ctx, jobID)
	}
	return model.AutomationStatus{}, nil
}

// UpdateJobResponse implements Gateway.
func (m *Mock) UpdateJobResponse(ctx context.Context, jobID string, months []wire.MonthEntryForm) error {
	m.mu.Lock()
	m.UpdateResponseCalls = append(m.UpdateResponseCalls, UpdateResponseCall{JobID: jobID, Months: months})
	m.mu.Unlock()

	if m.UpdateJobResponseFn != nil {
		return m.UpdateJobResponseFn(ctx, jobID, months)
	}
	return nil
}

// UpdateClientApproval implements Gateway.
func (m *Mock) UpdateClientApproval(ctx context.Context, jobID string, approved bool) error {
	m.mu.Lock()
	m.ClientApprovalCalls = append(m.ClientApprovalCalls, ClientApprovalCall{JobID: jobID, Approved: approved})
	m.mu.Unlock()

	if m.UpdateClientApprovalFn != nil {
		return m.UpdateClientApprovalFn(ctx, jobID, approved)
	}
	return nil
}

// SubmitManualData implements Gateway.
func (m *Mock) SubmitManualData(ctx context.Context, domain string, months []wire.MonthEntryForm, locationID string) error {
	m.mu.Lock()
	m.ManualSubmitCalls = append(m.ManualSubmitCalls, ManualSubmitCall{Domain: domain, Months: months, LocationID: locationID})
	m.mu.Unlock()

	if m.SubmitManualDataFn != nil {
		return m.SubmitManualDataFn(ctx, domain, months, locationID)
	}
	return nil
}

// UploadPMSFile implements Gateway.
func (m *Mock) UploadPMSFile(ctx context.Context, domain, pmsType, filename string, file io.Reader) error {
	m.mu.Lock()
	m.UploadCalls = append(m.UploadCalls, UploadCall{Domain: domain, PMSType: pmsType, Filename: filename})
	m.mu.Unlock()

	if m.UploadPMSFileFn != nil {
		return m.UploadPMSFileFn(ctx, domain, pmsType, filename, file)
	}
	return nil
}

// Snapshot helpers for concurrent tests.

// AutomationStatusCallCount returns the number of status calls recorded.
func (m *Mock) AutomationStatusCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.AutomationStatusCalls)
}

// ActiveJobsCallCount returns the number of active-job list calls recorded.
func (m *Mock) ActiveJobsCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ActiveJobsCalls)
}

// KeyDataCallCount returns the number of key-data calls recorded.
func (m *Mock) KeyDataCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.KeyDataCalls)
}
