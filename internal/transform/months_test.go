package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYM(t *testing.T) {
	tests := []struct {
		name    string
		ym      string
		want    int
		wantErr bool
	}{
		{name: "january 2025", ym: "2025-01", want: 2025 * 12},
		{name: "december 2024", ym: "2024-12", want: 2024*12 + 11},
		{name: "month zero", ym: "2024-00", wantErr: true},
		{name: "month thirteen", ym: "2024-13", wantErr: true},
		{name: "missing separator", ym: "202403", wantErr: true},
		{name: "short year", ym: "24-03", wantErr: true},
		{name: "empty", ym: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseYM(tt.ym)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name  string
		ym    string
		delta int
		want  string
	}{
		{name: "forward within year", ym: "2025-03", delta: 2, want: "2025-05"},
		{name: "forward across year", ym: "2024-11", delta: 3, want: "2025-02"},
		{name: "backward within year", ym: "2025-05", delta: -2, want: "2025-03"},
		{name: "backward across year", ym: "2025-01", delta: -1, want: "2024-12"},
		{name: "zero delta", ym: "2025-06", delta: 0, want: "2025-06"},
		{name: "several years back", ym: "2025-02", delta: -26, want: "2022-12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AddMonths(tt.ym, tt.delta)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddMonths_Inverse(t *testing.T) {
	months := []string{"2020-01", "2023-06", "2024-12", "2025-02"}
	deltas := []int{-37, -12, -1, 0, 1, 5, 12, 100}

	for _, ym := range months {
		for _, d := range deltas {
			forward, err := AddMonths(ym, d)
			require.NoError(t, err)
			back, err := AddMonths(forward, -d)
			require.NoError(t, err)
			assert.Equal(t, ym, back, "AddMonths(AddMonths(%s, %d), %d)", ym, d, -d)
		}
	}
}

func TestPreviousMonth(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{name: "mid year", now: time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), want: "2025-06"},
		{name: "january rolls back a year", now: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), want: "2024-12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PreviousMonth(tt.now))
		})
	}
}
