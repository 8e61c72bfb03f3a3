// Package editor implements the month/source editing session shared by the
// manual-entry, latest-job-review, and read-only viewer surfaces. A session
// owns one MonthBucket collection for the duration of one open editor; the
// backend record is the only state that outlives it.
package editor

import (
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/chairside/pmsflow/internal/model"
	"github.com/chairside/pmsflow/internal/transform"
	"github.com/chairside/pmsflow/internal/wire"
)

// Mode selects the session variant.
type Mode int

// Session variants.
const (
	// ModeManual enters data from scratch and submits to the manual
	// ingestion endpoint, bypassing the approval step.
	ModeManual Mode = iota
	// ModeReview edits an existing job's extracted data, then saves and
	// confirms client approval.
	ModeReview
	// ModeViewer exposes the same data with every mutation disabled.
	ModeViewer
)

// ErrReadOnly is returned by mutating operations on a viewer session.
var ErrReadOnly = errors.New("editor session is read-only")

var errUnknownBucket = errors.New("unknown month bucket")

// Session holds the editable month buckets and the transient UI state that
// goes with them. It is owned by exactly one surface at a time and is not
// safe for concurrent use.
type Session struct {
	logger   *slog.Logger
	activeID string
	months   []model.MonthBucket
	confirm  confirmState
	mode     Mode
	hydrated bool
}

// NewManualSession starts a manual-entry session with a single empty bucket
// for the previous calendar month.
func NewManualSession(now time.Time) *Session {
	bucket := model.NewMonthBucket(transform.PreviousMonth(now))
	return &Session{
		mode:     ModeManual,
		months:   []model.MonthBucket{bucket},
		activeID: bucket.ID,
		hydrated: true,
		logger:   slog.Default().With("component", "editor"),
	}
}

// NewReviewSession starts an empty review session. Call Hydrate with the
// job's normalized payload once it arrives.
func NewReviewSession() *Session {
	return &Session{
		mode:   ModeReview,
		logger: slog.Default().With("component", "editor"),
	}
}

// NewViewerSession starts an empty read-only session.
func NewViewerSession() *Session {
	return &Session{
		mode:   ModeViewer,
		logger: slog.Default().With("component", "editor"),
	}
}

// Hydrate initializes the session from backend month records. It runs at most
// once per session: a second call reports false and leaves current edits
// untouched, which is what keeps a background refresh from clobbering
// in-progress work.
func (s *Session) Hydrate(months []wire.MonthEntryForm) bool {
	if s.hydrated {
		return false
	}

	s.months = transform.BackendToUI(months)
	if len(s.months) == 0 {
		bucket := model.NewMonthBucket(transform.PreviousMonth(time.Now()))
		s.months = []model.MonthBucket{bucket}
	}
	s.activeID = s.earliestBucketID()
	s.hydrated = true

	s.logger.Debug("session hydrated", "months", len(s.months), "mode", int(s.mode))
	return true
}

// Hydrated reports whether initialization has happened.
func (s *Session) Hydrated() bool {
	return s.hydrated
}

// Mode returns the session variant.
func (s *Session) Mode() Mode {
	return s.mode
}

// ReadOnly reports whether mutations are disabled.
func (s *Session) ReadOnly() bool {
	return s.mode == ModeViewer
}

// Months returns the buckets sorted ascending by month for display. YYYY-MM
// is zero padded, so string order is chronological order.
func (s *Session) Months() []model.MonthBucket {
	sorted := make([]model.MonthBucket, len(s.months))
	copy(sorted, s.months)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Month < sorted[j].Month })
	return sorted
}

// ActiveID returns the id of the active bucket.
func (s *Session) ActiveID() string {
	return s.activeID
}

// Active returns the active bucket, or nil before hydration.
func (s *Session) Active() *model.MonthBucket {
	return s.bucketByID(s.activeID)
}

// SetActive switches the active bucket. Switching disarms any pending delete
// confirmation.
func (s *Session) SetActive(bucketID string) {
	if s.bucketByID(bucketID) == nil {
		return
	}
	s.confirm.disarm()
	s.activeID = bucketID
}

// AddMonth appends a bucket one month after the latest existing one,
// skipping forward past any month already present (a user may have a future
// month in place already), and makes the new bucket active.
func (s *Session) AddMonth() (*model.MonthBucket, error) {
	if s.ReadOnly() {
		return nil, ErrReadOnly
	}
	s.confirm.disarm()

	latest := ""
	for _, bucket := range s.months {
		if bucket.Month > latest {
			latest = bucket.Month
		}
	}

	next, err := transform.AddMonths(latest, 1)
	if err != nil {
		return nil, err
	}
	for s.hasMonth(next) {
		next, err = transform.AddMonths(next, 1)
		if err != nil {
			return nil, err
		}
	}

	bucket := model.NewMonthBucket(next)
	s.months = append(s.months, bucket)
	s.activeID = bucket.ID
	return s.bucketByID(bucket.ID), nil
}

// SetMonth changes a bucket's month. A month already used by another bucket
// is rejected at the point of change and the original value is preserved.
func (s *Session) SetMonth(bucketID, ym string) error {
	if s.ReadOnly() {
		return ErrReadOnly
	}
	s.confirm.disarm()

	bucket := s.bucketByID(bucketID)
	if bucket == nil {
		return errUnknownBucket
	}
	if _, err := transform.ParseYM(ym); err != nil {
		return &ValidationError{Month: bucket.Month, Message: "Month must be in YYYY-MM format"}
	}
	for _, other := range s.months {
		if other.ID != bucketID && other.Month == ym {
			return &ValidationError{Month: bucket.Month, Message: "That month already exists"}
		}
	}

	bucket.Month = ym
	return nil
}

// Serialize converts the current buckets back into the backend record shape.
func (s *Session) Serialize() []wire.MonthEntryForm {
	return transform.UIToBackend(s.months)
}

// Summary aggregates one bucket's rows.
func (s *Session) Summary(bucketID string) model.MonthSummary {
	bucket := s.bucketByID(bucketID)
	if bucket == nil {
		return model.MonthSummary{}
	}
	return transform.CalculateTotals(bucket.Rows)
}

func (s *Session) bucketByID(id string) *model.MonthBucket {
	for i := range s.months {
		if s.months[i].ID == id {
			return &s.months[i]
		}
	}
	return nil
}

func (s *Session) hasMonth(ym string) bool {
	for _, bucket := range s.months {
		if bucket.Month == ym {
			return true
		}
	}
	return false
}

func (s *Session) earliestBucketID() string {
	if len(s.months) == 0 {
		return ""
	}
	earliest := s.months[0]
	for _, bucket := range s.months[1:] {
		if bucket.Month < earliest.Month {
			earliest = bucket
		}
	}
	return earliest.ID
}

func (s *Session) deleteMonth(bucketID string) {
	for i := range s.months {
		if s.months[i].ID == bucketID {
			s.months = append(s.months[:i], s.months[i+1:]...)
			break
		}
	}
	if s.activeID == bucketID {
		s.activeID = s.earliestBucketID()
	}
}
