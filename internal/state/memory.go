// Package state persists the client-side flags that outlive one run: the
// per-domain "a PMS upload is processing" marker and onboarding setup
// progress.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/chairside/pmsflow/internal/service"
)

// MemoryStore is an in-memory StateStore. It backs tests and the
// --no-persist mode; nothing survives the process.
type MemoryStore struct {
	mu       sync.Mutex
	flags    map[string]service.ProcessingFlag
	progress map[string]map[string]bool
	updated  map[string]time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flags:    make(map[string]service.ProcessingFlag),
		progress: make(map[string]map[string]bool),
		updated:  make(map[string]time.Time),
	}
}

// GetProcessingFlag implements service.StateStore.
func (m *MemoryStore) GetProcessingFlag(_ context.Context, domain string) (*service.ProcessingFlag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	flag, ok := m.flags[domain]
	if !ok {
		return nil, nil
	}
	return &flag, nil
}

// SetProcessingFlag implements service.StateStore.
func (m *MemoryStore) SetProcessingFlag(_ context.Context, domain string, uploadedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[domain] = service.ProcessingFlag{Domain: domain, UploadedAt: uploadedAt}
	return nil
}

// ClearProcessingFlag implements service.StateStore.
func (m *MemoryStore) ClearProcessingFlag(_ context.Context, domain string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flags, domain)
	return nil
}

// GetSetupProgress implements service.StateStore.
func (m *MemoryStore) GetSetupProgress(_ context.Context, domain string) (*service.SetupProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	steps := make(map[string]bool, len(m.progress[domain]))
	for step, done := range m.progress[domain] {
		steps[step] = done
	}
	return &service.SetupProgress{
		Domain:    domain,
		Steps:     steps,
		UpdatedAt: m.updated[domain],
	}, nil
}

// SetSetupStep implements service.StateStore.
func (m *MemoryStore) SetSetupStep(_ context.Context, domain, step string, done bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.progress[domain] == nil {
		m.progress[domain] = make(map[string]bool)
	}
	m.progress[domain][step] = done
	m.updated[domain] = time.Now()
	return nil
}

// Migrate implements service.StateStore. Nothing to do in memory.
func (m *MemoryStore) Migrate(_ context.Context) error {
	return nil
}

// Close implements service.StateStore.
func (m *MemoryStore) Close() error {
	return nil
}
