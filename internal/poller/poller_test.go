package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/chairside/pmsflow/internal/bus"
	"github.com/chairside/pmsflow/internal/gateway"
	"github.com/chairside/pmsflow/internal/model"
	"github.com/chairside/pmsflow/internal/state"
)

func testConfig() Config {
	return Config{
		Domain:             "smilebright.com",
		FastInterval:       5 * time.Millisecond,
		BackgroundInterval: 20 * time.Millisecond,
	}
}

func TestWatcher_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := New(gateway.NewMock(), nil, nil, testConfig(), Hooks{})
	require.NoError(t, w.Start())
	assert.Error(t, w.Start(), "double start must fail")

	w.Stop()
	w.Stop() // idempotent

	require.NoError(t, w.Start())
	w.Stop()
}

// A slow status endpoint must never cause overlapping requests: the next
// request fires only after the previous response resolves, even though the
// polling interval elapses several times in between.
func TestWatcher_SequentialPollingNeverOverlaps(t *testing.T) {
	defer goleak.VerifyNone(t)

	var inFlight, maxInFlight, calls int64
	mock := gateway.NewMock()
	mock.GetAutomationStatusFn = func(_ context.Context, _ string) (model.AutomationStatus, error) {
		current := atomic.AddInt64(&inFlight, 1)
		for {
			seen := atomic.LoadInt64(&maxInFlight)
			if current <= seen || atomic.CompareAndSwapInt64(&maxInFlight, seen, current) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond) // several fast intervals
		atomic.AddInt64(&inFlight, -1)
		atomic.AddInt64(&calls, 1)
		return model.AutomationStatus{Status: model.StateProcessing}, nil
	}

	w := New(mock, nil, nil, testConfig(), Hooks{})
	w.TrackJob("job-1")
	require.NoError(t, w.Start())

	time.Sleep(150 * time.Millisecond)
	w.Stop()

	assert.GreaterOrEqual(t, atomic.LoadInt64(&calls), int64(2), "poll loop should have run repeatedly")
	assert.Equal(t, int64(1), atomic.LoadInt64(&maxInFlight), "status requests overlapped")
}

// A job parked on the client-approval step is a deliberate no-poll state:
// nothing changes until the user acts, so after learning the status the fast
// loop must stop issuing requests.
func TestWatcher_SuspendsOnClientApproval(t *testing.T) {
	defer goleak.VerifyNone(t)

	mock := gateway.NewMock()
	mock.GetAutomationStatusFn = func(_ context.Context, _ string) (model.AutomationStatus, error) {
		return model.AutomationStatus{
			Status:      model.StateAwaitingApproval,
			CurrentStep: model.StepClientApproval,
		}, nil
	}

	cfg := testConfig()
	cfg.BackgroundInterval = time.Hour // keep the detector out of this test
	w := New(mock, nil, nil, cfg, Hooks{})
	w.TrackJob("job-1")
	require.NoError(t, w.Start())

	require.Eventually(t, func() bool {
		return mock.AutomationStatusCallCount() == 1
	}, time.Second, time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	w.Stop()

	assert.Equal(t, 1, mock.AutomationStatusCallCount(),
		"fast loop kept polling a job waiting on the user")
}

func TestWatcher_AwaitingApprovalWithoutClientStepKeepsPolling(t *testing.T) {
	defer goleak.VerifyNone(t)

	mock := gateway.NewMock()
	mock.GetAutomationStatusFn = func(_ context.Context, _ string) (model.AutomationStatus, error) {
		return model.AutomationStatus{Status: model.StateAwaitingApproval, CurrentStep: "admin_review"}, nil
	}

	cfg := testConfig()
	cfg.BackgroundInterval = time.Hour
	w := New(mock, nil, nil, cfg, Hooks{})
	w.TrackJob("job-1")
	require.NoError(t, w.Start())

	require.Eventually(t, func() bool {
		return mock.AutomationStatusCallCount() >= 3
	}, time.Second, time.Millisecond)
	w.Stop()
}

func TestWatcher_CompletionClearsStateAndRefetchesOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	mock := gateway.NewMock()
	mock.GetAutomationStatusFn = func(_ context.Context, _ string) (model.AutomationStatus, error) {
		return model.AutomationStatus{Status: model.StateCompleted}, nil
	}

	store := state.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.SetProcessingFlag(ctx, "smilebright.com", time.Now()))

	var mu sync.Mutex
	var completedJob string
	var completedData *gateway.KeyData

	cfg := testConfig()
	cfg.BackgroundInterval = time.Hour
	w := New(mock, store, nil, cfg, Hooks{
		OnCompleted: func(jobID string, data *gateway.KeyData) {
			mu.Lock()
			defer mu.Unlock()
			completedJob = jobID
			completedData = data
		},
	})
	w.TrackJob("job-1")
	require.NoError(t, w.Start())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return completedJob == "job-1"
	}, time.Second, time.Millisecond)

	// Let several more intervals pass: terminal state means no further polls
	// and no second refetch.
	time.Sleep(60 * time.Millisecond)
	w.Stop()

	mu.Lock()
	assert.NotNil(t, completedData)
	mu.Unlock()

	assert.Equal(t, 1, mock.AutomationStatusCallCount())
	assert.Equal(t, 1, mock.KeyDataCallCount())

	snap := w.State()
	assert.Empty(t, snap.JobID)
	assert.Nil(t, snap.Status)
	assert.False(t, snap.ReferralPending)

	flag, err := store.GetProcessingFlag(ctx, "smilebright.com")
	require.NoError(t, err)
	assert.Nil(t, flag, "processing flag should be cleared on completion")
}

func TestWatcher_TransitionHook(t *testing.T) {
	defer goleak.VerifyNone(t)

	var mu sync.Mutex
	var sequence []model.AutomationState

	statuses := []model.AutomationStatus{
		{Status: model.StatePending},
		{Status: model.StateProcessing},
		{Status: model.StateProcessing}, // no transition
		{Status: model.StateCompleted},
	}
	var call int
	mock := gateway.NewMock()
	mock.GetAutomationStatusFn = func(_ context.Context, _ string) (model.AutomationStatus, error) {
		mu.Lock()
		defer mu.Unlock()
		status := statuses[call]
		if call < len(statuses)-1 {
			call++
		}
		return status, nil
	}

	cfg := testConfig()
	cfg.BackgroundInterval = time.Hour
	w := New(mock, nil, nil, cfg, Hooks{
		OnTransition: func(_ string, _, to model.AutomationStatus) {
			mu.Lock()
			defer mu.Unlock()
			sequence = append(sequence, to.Status)
		},
	})
	w.TrackJob("job-1")
	require.NoError(t, w.Start())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(sequence) == 3
	}, time.Second, time.Millisecond)
	w.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []model.AutomationState{
		model.StatePending,
		model.StateProcessing,
		model.StateCompleted,
	}, sequence)
}

// The background loop exists to notice jobs started from another surface and
// promote them into the fast-poll path.
func TestWatcher_BackgroundDetectsExternalJob(t *testing.T) {
	defer goleak.VerifyNone(t)

	mock := gateway.NewMock()
	mock.GetActiveJobsFn = func(_ context.Context, _ string) ([]model.Job, error) {
		return []model.Job{{
			ID:         "job-7",
			Automation: model.AutomationStatus{Status: model.StateProcessing},
		}}, nil
	}
	mock.GetAutomationStatusFn = func(_ context.Context, _ string) (model.AutomationStatus, error) {
		return model.AutomationStatus{Status: model.StateProcessing}, nil
	}

	var promoted atomic.Int64
	w := New(mock, nil, nil, testConfig(), Hooks{
		OnPromoted: func(job model.Job) {
			assert.Equal(t, "job-7", job.ID)
			promoted.Add(1)
		},
	})
	require.NoError(t, w.Start())

	require.Eventually(t, func() bool {
		return w.State().JobID == "job-7" && mock.AutomationStatusCallCount() > 0
	}, time.Second, time.Millisecond)
	w.Stop()

	assert.Equal(t, int64(1), promoted.Load(), "promotion fires once per job")
}

func TestWatcher_StaleFlagCleared(t *testing.T) {
	defer goleak.VerifyNone(t)

	mock := gateway.NewMock() // no active jobs by default
	store := state.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.SetProcessingFlag(ctx, "smilebright.com", time.Now().Add(-48*time.Hour)))

	w := New(mock, store, nil, testConfig(), Hooks{})
	require.NoError(t, w.Start())

	require.Eventually(t, func() bool {
		flag, err := store.GetProcessingFlag(ctx, "smilebright.com")
		return err == nil && flag == nil
	}, time.Second, time.Millisecond)
	w.Stop()
}

func TestWatcher_FreshFlagKept(t *testing.T) {
	defer goleak.VerifyNone(t)

	mock := gateway.NewMock()
	store := state.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.SetProcessingFlag(ctx, "smilebright.com", time.Now()))

	w := New(mock, store, nil, testConfig(), Hooks{})
	require.NoError(t, w.Start())
	time.Sleep(60 * time.Millisecond)
	w.Stop()

	flag, err := store.GetProcessingFlag(ctx, "smilebright.com")
	require.NoError(t, err)
	assert.NotNil(t, flag, "a fresh flag must survive background reconciliation")
}

// An upload event promotes the watcher into the fast-poll path: it hunts for
// the new active job and adopts it.
func TestWatcher_UploadEventStartsTracking(t *testing.T) {
	defer goleak.VerifyNone(t)

	mock := gateway.NewMock()
	mock.GetActiveJobsFn = func(_ context.Context, _ string) ([]model.Job, error) {
		return []model.Job{{
			ID:         "job-2",
			Automation: model.AutomationStatus{Status: model.StatePending},
		}}, nil
	}

	events := bus.New()
	store := state.NewMemoryStore()
	cfg := testConfig()
	cfg.BackgroundInterval = time.Hour
	w := New(mock, store, events, cfg, Hooks{})
	require.NoError(t, w.Start())

	// Quiet before the event: nothing to track.
	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, mock.ActiveJobsCallCount())

	events.Publish(context.Background(), bus.NewJobUploaded("smilebright.com", bus.EntryPMSUpload))

	require.Eventually(t, func() bool {
		return w.State().JobID == "job-2"
	}, time.Second, time.Millisecond)
	w.Stop()

	flag, err := store.GetProcessingFlag(context.Background(), "smilebright.com")
	require.NoError(t, err)
	assert.NotNil(t, flag, "upload should persist the processing flag")
}

// Manual entries never spawn an automation job, so their broadcast must not
// send the watcher hunting for one.
func TestWatcher_ManualEntryEventIgnored(t *testing.T) {
	defer goleak.VerifyNone(t)

	mock := gateway.NewMock()
	events := bus.New()
	cfg := testConfig()
	cfg.BackgroundInterval = time.Hour
	w := New(mock, state.NewMemoryStore(), events, cfg, Hooks{})
	require.NoError(t, w.Start())

	events.Publish(context.Background(), bus.NewJobUploaded("smilebright.com", bus.EntryManual))

	time.Sleep(60 * time.Millisecond)
	w.Stop()

	assert.Zero(t, mock.ActiveJobsCallCount())
	assert.Empty(t, w.State().JobID)
}

// Stopping the watcher while a response is in flight must not mutate state
// afterwards or leak the goroutine.
func TestWatcher_StopDiscardsInFlightResult(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	mock := gateway.NewMock()
	mock.GetAutomationStatusFn = func(_ context.Context, _ string) (model.AutomationStatus, error) {
		<-release
		return model.AutomationStatus{Status: model.StateCompleted}, nil
	}

	var completed atomic.Int64
	cfg := testConfig()
	cfg.BackgroundInterval = time.Hour
	w := New(mock, nil, nil, cfg, Hooks{
		OnCompleted: func(_ string, _ *gateway.KeyData) { completed.Add(1) },
	})
	w.TrackJob("job-1")
	require.NoError(t, w.Start())

	require.Eventually(t, func() bool {
		return mock.AutomationStatusCallCount() == 1
	}, time.Second, time.Millisecond)

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()
	w.Stop()

	assert.Zero(t, completed.Load(), "result arriving after Stop must be discarded")
	snap := w.State()
	assert.Equal(t, "job-1", snap.JobID, "discarded result must not mutate state")
	assert.Nil(t, snap.Status)
}
