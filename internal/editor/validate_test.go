package editor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chairside/pmsflow/internal/wire"
)

func manualWithRow(t *testing.T, source, referrals, production string) *Session {
	t.Helper()
	s := NewManualSession(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	row, err := s.AddRow(s.ActiveID())
	require.NoError(t, err)
	require.NoError(t, s.SetRowSource(row.ID, source))
	require.NoError(t, s.SetRowReferrals(row.ID, referrals))
	require.NoError(t, s.SetRowProduction(row.ID, production))
	return s
}

func TestValidateManual_MinimalValidSubmission(t *testing.T) {
	// Production of zero does not block submission when referrals > 0.
	s := manualWithRow(t, "Google", "3", "0")
	assert.NoError(t, s.Validate())
}

func TestValidateManual_ProductionOnlyIsValid(t *testing.T) {
	s := manualWithRow(t, "Google", "0", "1500")
	assert.NoError(t, s.Validate())
}

func TestValidateManual_UnnamedRowWithDataRejected(t *testing.T) {
	s := manualWithRow(t, "", "5", "100")

	err := s.Validate()
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, MsgSourceNameRequired, vErr.Message)
}

func TestValidateManual_NoValidEntryRejected(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) *Session
	}{
		{
			name: "no rows at all",
			setup: func(t *testing.T) *Session {
				return NewManualSession(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
			},
		},
		{
			name: "only a named row with zero values",
			setup: func(t *testing.T) *Session {
				return manualWithRow(t, "Google", "0", "0")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.setup(t).Validate()
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, MsgAtLeastOneValidEntry, vErr.Message)
		})
	}
}

// The asymmetry is deliberate: a named row without data is tolerated as
// staged input when some other entry is valid, while an unnamed row with data
// is always rejected.
func TestValidateManual_Asymmetry(t *testing.T) {
	s := manualWithRow(t, "Google", "3", "0")
	staged, err := s.AddRow(s.ActiveID())
	require.NoError(t, err)
	require.NoError(t, s.SetRowSource(staged.ID, "Yelp"))
	assert.NoError(t, s.Validate(), "named zero-value row is tolerated")

	unnamed, err := s.AddRow(s.ActiveID())
	require.NoError(t, err)
	require.NoError(t, s.SetRowReferrals(unnamed.ID, "2"))

	verr := s.Validate()
	var vErr *ValidationError
	require.ErrorAs(t, verr, &vErr)
	assert.Equal(t, MsgSourceNameRequired, vErr.Message)
	assert.Equal(t, unnamed.ID, vErr.RowID)
}

func TestValidateStrict(t *testing.T) {
	tests := []struct {
		name    string
		sources []wire.SourceEntryForm
		wantMsg string
	}{
		{
			name:    "all rows valid",
			sources: []wire.SourceEntryForm{{Name: "Google", Referrals: 3}},
		},
		{
			name:    "missing name",
			sources: []wire.SourceEntryForm{{Name: "", Referrals: 3}},
			wantMsg: MsgSourceNameRequired,
		},
		{
			name:    "zero referrals",
			sources: []wire.SourceEntryForm{{Name: "Google", Referrals: 0}},
			wantMsg: MsgReferralsRequired,
		},
		{
			name: "one bad row among good ones",
			sources: []wire.SourceEntryForm{
				{Name: "Google", Referrals: 3},
				{Name: "Dr. Patel", Referrals: 0},
			},
			wantMsg: MsgReferralsRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := reviewSession(t, wire.MonthEntryForm{Month: "2025-01", Sources: tt.sources})
			err := s.Validate()
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantMsg, vErr.Message)
		})
	}
}

// An error on a month other than the active one must switch the active month
// so the user sees the problem immediately.
func TestValidate_JumpsToOffendingMonth(t *testing.T) {
	s := reviewSession(t,
		wire.MonthEntryForm{Month: "2025-01", Sources: []wire.SourceEntryForm{{Name: "Google", Referrals: 3}}},
		wire.MonthEntryForm{Month: "2025-02", Sources: []wire.SourceEntryForm{{Name: "", Referrals: 1}}},
	)

	first := activeOf(t, s, "2025-01")
	s.SetActive(first)
	require.Equal(t, first, s.ActiveID())

	err := s.Validate()
	require.Error(t, err)

	active := s.Active()
	require.NotNil(t, active)
	assert.Equal(t, "2025-02", active.Month)
}
