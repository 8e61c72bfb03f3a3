package editor

import "fmt"

// Validation messages shown inline in the editor.
const (
	MsgSourceNameRequired   = "All sources must have a name"
	MsgReferralsRequired    = "Referrals must be greater than zero"
	MsgAtLeastOneValidEntry = "At least one source with referrals or production is required"
)

// ValidationError is a client-local rule violation, scoped to the month (and
// row, when one is responsible) so the editor can surface it inline. It is
// never sent to the server.
type ValidationError struct {
	Month   string
	RowID   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Month != "" {
		return fmt.Sprintf("%s: %s", e.Month, e.Message)
	}
	return e.Message
}

// Validate checks the session against the rules of its variant. On failure
// the active month jumps to the offending bucket so the problem is visible
// immediately.
func (s *Session) Validate() error {
	var err *ValidationError
	switch s.mode {
	case ModeManual:
		err = s.validateManual()
	default:
		err = s.validateStrict()
	}
	if err == nil {
		return nil
	}

	s.jumpToMonth(err.Month)
	return err
}

// validateStrict is the canonical rule set, enforced by the review flow:
// every row needs a non-empty source name and a nonzero referral count.
func (s *Session) validateStrict() *ValidationError {
	for _, bucket := range s.Months() {
		for _, row := range bucket.Rows {
			if !row.HasName() {
				return &ValidationError{Month: bucket.Month, RowID: row.ID, Message: MsgSourceNameRequired}
			}
			if row.ReferralCount() <= 0 {
				return &ValidationError{Month: bucket.Month, RowID: row.ID, Message: MsgReferralsRequired}
			}
		}
	}
	return nil
}

// validateManual is deliberately looser, and deliberately asymmetric: a row
// carrying data without a name is always rejected, while a named row without
// data is tolerated as staged input, as long as at least one fully valid
// entry exists somewhere.
func (s *Session) validateManual() *ValidationError {
	hasValidEntry := false
	var firstMonth string

	for _, bucket := range s.Months() {
		if firstMonth == "" {
			firstMonth = bucket.Month
		}
		for _, row := range bucket.Rows {
			if !row.HasName() && row.HasData() {
				return &ValidationError{Month: bucket.Month, RowID: row.ID, Message: MsgSourceNameRequired}
			}
			if row.HasName() && row.HasData() {
				hasValidEntry = true
			}
		}
	}

	if !hasValidEntry {
		return &ValidationError{Month: firstMonth, Message: MsgAtLeastOneValidEntry}
	}
	return nil
}

func (s *Session) jumpToMonth(ym string) {
	if ym == "" {
		return
	}
	for _, bucket := range s.months {
		if bucket.Month == ym {
			if s.activeID != bucket.ID {
				s.confirm.disarm()
				s.activeID = bucket.ID
			}
			return
		}
	}
}
