package editor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chairside/pmsflow/internal/model"
	"github.com/chairside/pmsflow/internal/wire"
)

func reviewSession(t *testing.T, months ...wire.MonthEntryForm) *Session {
	t.Helper()
	s := NewReviewSession()
	require.True(t, s.Hydrate(months))
	return s
}

func TestNewManualSession(t *testing.T) {
	now := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	s := NewManualSession(now)

	months := s.Months()
	require.Len(t, months, 1)
	assert.Equal(t, "2025-03", months[0].Month)
	assert.Empty(t, months[0].Rows)
	assert.Equal(t, months[0].ID, s.ActiveID())
	assert.Equal(t, ModeManual, s.Mode())
}

func TestHydrate_RunsOnce(t *testing.T) {
	s := NewReviewSession()
	require.False(t, s.Hydrated())

	require.True(t, s.Hydrate([]wire.MonthEntryForm{{
		Month:   "2025-01",
		Sources: []wire.SourceEntryForm{{Name: "Google", Referrals: 3}},
	}}))
	require.True(t, s.Hydrated())

	// Simulate an edit in progress, then a background refresh arriving.
	rowID := s.Months()[0].Rows[0].ID
	require.NoError(t, s.SetRowSource(rowID, "Google Ads"))

	assert.False(t, s.Hydrate([]wire.MonthEntryForm{{Month: "2025-02"}}))

	months := s.Months()
	require.Len(t, months, 1)
	assert.Equal(t, "2025-01", months[0].Month)
	assert.Equal(t, "Google Ads", months[0].Rows[0].Source)
}

func TestHydrate_EmptyPayloadSeedsOneMonth(t *testing.T) {
	s := NewReviewSession()
	require.True(t, s.Hydrate(nil))
	assert.Len(t, s.Months(), 1)
	assert.NotEmpty(t, s.ActiveID())
}

func TestMonths_SortedAscending(t *testing.T) {
	s := reviewSession(t,
		wire.MonthEntryForm{Month: "2025-03"},
		wire.MonthEntryForm{Month: "2024-12"},
		wire.MonthEntryForm{Month: "2025-01"},
	)

	months := s.Months()
	require.Len(t, months, 3)
	assert.Equal(t, "2024-12", months[0].Month)
	assert.Equal(t, "2025-01", months[1].Month)
	assert.Equal(t, "2025-03", months[2].Month)

	// Hydration activates the earliest month.
	assert.Equal(t, months[0].ID, s.ActiveID())
}

func TestAddMonth_AppendsAfterLatest(t *testing.T) {
	s := reviewSession(t, wire.MonthEntryForm{Month: "2024-12"}, wire.MonthEntryForm{Month: "2025-01"})

	bucket, err := s.AddMonth()
	require.NoError(t, err)
	assert.Equal(t, "2025-02", bucket.Month)
	assert.Equal(t, bucket.ID, s.ActiveID())
}

func TestAddMonth_FutureMonthPresent(t *testing.T) {
	// A "future" month already exists; the new month lands past it rather
	// than colliding with it.
	s := reviewSession(t,
		wire.MonthEntryForm{Month: "2025-01"},
		wire.MonthEntryForm{Month: "2025-06"},
	)

	bucket, err := s.AddMonth()
	require.NoError(t, err)
	assert.Equal(t, "2025-07", bucket.Month)

	// Year rollover.
	for i := 0; i < 5; i++ {
		bucket, err = s.AddMonth()
		require.NoError(t, err)
	}
	assert.Equal(t, "2025-12", bucket.Month)
	bucket, err = s.AddMonth()
	require.NoError(t, err)
	assert.Equal(t, "2026-01", bucket.Month)
}

func activeOf(t *testing.T, s *Session, ym string) string {
	t.Helper()
	for _, bucket := range s.Months() {
		if bucket.Month == ym {
			return bucket.ID
		}
	}
	t.Fatalf("no bucket for %s", ym)
	return ""
}

func TestSetMonth_DuplicateRejected(t *testing.T) {
	s := reviewSession(t, wire.MonthEntryForm{Month: "2025-03"}, wire.MonthEntryForm{Month: "2025-04"})
	target := activeOf(t, s, "2025-04")

	err := s.SetMonth(target, "2025-03")
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "That month already exists", vErr.Message)

	// Original month preserved.
	assert.Equal(t, "2025-04", s.Months()[1].Month)
}

func TestSetMonth_InvalidFormatRejected(t *testing.T) {
	s := NewManualSession(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	err := s.SetMonth(s.ActiveID(), "March 2025")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestSetMonth_SameBucketKeepsMonth(t *testing.T) {
	s := NewManualSession(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.SetMonth(s.ActiveID(), "2025-03"))
	assert.Equal(t, "2025-03", s.Months()[0].Month)
}

func TestRowMutations(t *testing.T) {
	s := NewManualSession(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	row, err := s.AddRow(s.ActiveID())
	require.NoError(t, err)

	require.NoError(t, s.SetRowSource(row.ID, "Google"))
	require.NoError(t, s.SetRowReferrals(row.ID, "1,2"))
	require.NoError(t, s.SetRowProduction(row.ID, "$500"))

	got, _ := s.Row(row.ID)
	assert.Equal(t, "Google", got.Source)
	assert.Equal(t, "12", got.Referrals)
	assert.Equal(t, "500", got.Production)
}

func TestToggleRowType(t *testing.T) {
	s := NewManualSession(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	row, err := s.AddRow(s.ActiveID())
	require.NoError(t, err)
	assert.Equal(t, model.ReferralSelf, row.Type)

	require.NoError(t, s.ToggleRowType(row.ID))
	got, _ := s.Row(row.ID)
	assert.Equal(t, model.ReferralDoctor, got.Type)

	require.NoError(t, s.ToggleRowType(row.ID))
	got, _ = s.Row(row.ID)
	assert.Equal(t, model.ReferralSelf, got.Type)

	// The toggle shows up in the live summary immediately.
	require.NoError(t, s.SetRowReferrals(got.ID, "4"))
	require.NoError(t, s.ToggleRowType(got.ID))
	summary := s.Summary(s.ActiveID())
	assert.Equal(t, 4, summary.DoctorReferrals)
	assert.Zero(t, summary.SelfReferrals)
}

func TestAdjustValues_ClampedAtZero(t *testing.T) {
	s := NewManualSession(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	row, err := s.AddRow(s.ActiveID())
	require.NoError(t, err)

	require.NoError(t, s.AdjustReferrals(row.ID, 3))
	require.NoError(t, s.AdjustReferrals(row.ID, -10))
	got, _ := s.Row(row.ID)
	assert.Equal(t, "0", got.Referrals)

	require.NoError(t, s.AdjustProduction(row.ID, 250))
	require.NoError(t, s.AdjustProduction(row.ID, -100))
	got, _ = s.Row(row.ID)
	assert.Equal(t, "150", got.Production)
}

func TestViewerSession_RejectsMutations(t *testing.T) {
	s := NewViewerSession()
	require.True(t, s.Hydrate([]wire.MonthEntryForm{{
		Month:   "2025-01",
		Sources: []wire.SourceEntryForm{{Name: "Google", Referrals: 2}},
	}}))
	require.True(t, s.ReadOnly())

	rowID := s.Months()[0].Rows[0].ID

	_, err := s.AddMonth()
	assert.ErrorIs(t, err, ErrReadOnly)
	_, err = s.AddRow(s.ActiveID())
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.ErrorIs(t, s.SetRowSource(rowID, "x"), ErrReadOnly)
	assert.ErrorIs(t, s.ToggleRowType(rowID), ErrReadOnly)
	assert.ErrorIs(t, s.SetMonth(s.ActiveID(), "2025-02"), ErrReadOnly)
	_, err = s.RequestDeleteRow(rowID)
	assert.ErrorIs(t, err, ErrReadOnly)
	_, err = s.RequestDeleteMonth(s.ActiveID())
	assert.ErrorIs(t, err, ErrReadOnly)
}
