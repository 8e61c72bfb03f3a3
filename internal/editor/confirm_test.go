package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chairside/pmsflow/internal/wire"
)

func twoMonthSession(t *testing.T) *Session {
	t.Helper()
	return reviewSession(t,
		wire.MonthEntryForm{
			Month: "2025-01",
			Sources: []wire.SourceEntryForm{
				{Name: "Google", Referrals: 3, InferredReferralType: "self"},
				{Name: "Dr. Patel", Referrals: 1, InferredReferralType: "doctor"},
			},
		},
		wire.MonthEntryForm{
			Month:   "2025-02",
			Sources: []wire.SourceEntryForm{{Name: "Yelp", Referrals: 2, InferredReferralType: "self"}},
		},
	)
}

func TestRequestDeleteRow_TwoPhase(t *testing.T) {
	s := twoMonthSession(t)
	rowID := s.Months()[0].Rows[0].ID

	deleted, err := s.RequestDeleteRow(rowID)
	require.NoError(t, err)
	assert.False(t, deleted, "first request only arms the confirmation")

	kind, id := s.PendingConfirm()
	assert.Equal(t, ConfirmRow, kind)
	assert.Equal(t, rowID, id)

	deleted, err = s.RequestDeleteRow(rowID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Len(t, s.Months()[0].Rows, 1)

	kind, _ = s.PendingConfirm()
	assert.Equal(t, ConfirmNone, kind)
}

func TestRequestDeleteRow_DifferentTargetRearms(t *testing.T) {
	s := twoMonthSession(t)
	first := s.Months()[0].Rows[0].ID
	second := s.Months()[0].Rows[1].ID

	_, err := s.RequestDeleteRow(first)
	require.NoError(t, err)

	deleted, err := s.RequestDeleteRow(second)
	require.NoError(t, err)
	assert.False(t, deleted, "switching targets must not commit")

	kind, id := s.PendingConfirm()
	assert.Equal(t, ConfirmRow, kind)
	assert.Equal(t, second, id)

	// The originally armed row is still present.
	assert.Len(t, s.Months()[0].Rows, 2)
}

func TestConfirm_MutuallyExclusive(t *testing.T) {
	s := twoMonthSession(t)
	rowID := s.Months()[0].Rows[0].ID
	monthID := s.Months()[1].ID

	_, err := s.RequestDeleteRow(rowID)
	require.NoError(t, err)

	_, err = s.RequestDeleteMonth(monthID)
	require.NoError(t, err)

	kind, id := s.PendingConfirm()
	assert.Equal(t, ConfirmMonth, kind)
	assert.Equal(t, monthID, id)

	// Re-requesting the row delete arms again instead of committing: the
	// month confirmation displaced it.
	deleted, err := s.RequestDeleteRow(rowID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestConfirm_DisarmedByOtherInteraction(t *testing.T) {
	s := twoMonthSession(t)
	rowID := s.Months()[0].Rows[0].ID

	_, err := s.RequestDeleteRow(rowID)
	require.NoError(t, err)

	require.NoError(t, s.SetRowSource(rowID, "Google Maps"))

	deleted, err := s.RequestDeleteRow(rowID)
	require.NoError(t, err)
	assert.False(t, deleted, "editing disarms a pending confirmation")
}

func TestRequestDeleteMonth_TwoPhase(t *testing.T) {
	s := twoMonthSession(t)
	target := s.Months()[1].ID

	deleted, err := s.RequestDeleteMonth(target)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = s.RequestDeleteMonth(target)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Len(t, s.Months(), 1)
}

func TestRequestDeleteMonth_LastMonthRefused(t *testing.T) {
	s := reviewSession(t, wire.MonthEntryForm{Month: "2025-01"})
	target := s.Months()[0].ID

	deleted, err := s.RequestDeleteMonth(target)
	assert.False(t, deleted)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "At least one month is required", vErr.Message)

	// Refusal must not mutate state, and a repeat call must not arm a
	// confirmation that could later commit.
	assert.Len(t, s.Months(), 1)
	deleted, err = s.RequestDeleteMonth(target)
	assert.False(t, deleted)
	require.Error(t, err)
	assert.Len(t, s.Months(), 1)
}

func TestRequestDeleteMonth_ActiveReassignsToEarliest(t *testing.T) {
	s := reviewSession(t,
		wire.MonthEntryForm{Month: "2025-02"},
		wire.MonthEntryForm{Month: "2025-01"},
		wire.MonthEntryForm{Month: "2025-03"},
	)

	target := activeOf(t, s, "2025-02")
	s.SetActive(target)

	_, err := s.RequestDeleteMonth(target)
	require.NoError(t, err)
	deleted, err := s.RequestDeleteMonth(target)
	require.NoError(t, err)
	require.True(t, deleted)

	active := s.Active()
	require.NotNil(t, active)
	assert.Equal(t, "2025-01", active.Month)
}
