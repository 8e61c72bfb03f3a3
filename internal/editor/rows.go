package editor

import (
	"errors"
	"strconv"

	"github.com/chairside/pmsflow/internal/model"
	"github.com/chairside/pmsflow/internal/transform"
)

var errUnknownRow = errors.New("unknown source row")

// AddRow appends an empty row to a bucket and returns it.
func (s *Session) AddRow(bucketID string) (*model.SourceRow, error) {
	if s.ReadOnly() {
		return nil, ErrReadOnly
	}
	s.confirm.disarm()

	bucket := s.bucketByID(bucketID)
	if bucket == nil {
		return nil, errUnknownBucket
	}

	bucket.Rows = append(bucket.Rows, model.NewSourceRow())
	return &bucket.Rows[len(bucket.Rows)-1], nil
}

// SetRowSource updates a row's source name.
func (s *Session) SetRowSource(rowID, name string) error {
	return s.mutateRow(rowID, func(row *model.SourceRow) {
		row.Source = name
	})
}

// SetRowReferrals replaces a row's referral text with the sanitized digits of
// the input. Transient empty input stays empty.
func (s *Session) SetRowReferrals(rowID, text string) error {
	return s.mutateRow(rowID, func(row *model.SourceRow) {
		row.Referrals = transform.SanitizeNumber(text)
	})
}

// SetRowProduction replaces a row's production text with the sanitized digits
// of the input.
func (s *Session) SetRowProduction(rowID, text string) error {
	return s.mutateRow(rowID, func(row *model.SourceRow) {
		row.Production = transform.SanitizeNumber(text)
	})
}

// ToggleRowType flips a row between self and doctor.
func (s *Session) ToggleRowType(rowID string) error {
	return s.mutateRow(rowID, func(row *model.SourceRow) {
		row.Type = row.Type.Toggle()
	})
}

// AdjustReferrals steps a row's referral count by delta, clamped at zero.
func (s *Session) AdjustReferrals(rowID string, delta int) error {
	return s.mutateRow(rowID, func(row *model.SourceRow) {
		row.Referrals = stepValue(row.ReferralCount(), delta)
	})
}

// AdjustProduction steps a row's production amount by delta, clamped at zero.
func (s *Session) AdjustProduction(rowID string, delta int) error {
	return s.mutateRow(rowID, func(row *model.SourceRow) {
		row.Production = stepValue(int(row.ProductionAmount()), delta)
	})
}

// Row finds a row by id across all buckets.
func (s *Session) Row(rowID string) (*model.SourceRow, *model.MonthBucket) {
	for i := range s.months {
		bucket := &s.months[i]
		for j := range bucket.Rows {
			if bucket.Rows[j].ID == rowID {
				return &bucket.Rows[j], bucket
			}
		}
	}
	return nil, nil
}

func (s *Session) mutateRow(rowID string, mutate func(*model.SourceRow)) error {
	if s.ReadOnly() {
		return ErrReadOnly
	}
	s.confirm.disarm()

	row, _ := s.Row(rowID)
	if row == nil {
		return errUnknownRow
	}
	mutate(row)
	return nil
}

func stepValue(current, delta int) string {
	next := current + delta
	if next < 0 {
		next = 0
	}
	return strconv.Itoa(next)
}
