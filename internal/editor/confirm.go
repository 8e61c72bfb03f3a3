package editor

// ConfirmKind names what a pending delete confirmation is aimed at.
type ConfirmKind int

// Confirmation states. At most one target is armed at a time; arming one
// disarms the other.
const (
	ConfirmNone ConfirmKind = iota
	ConfirmRow
	ConfirmMonth
)

// confirmState is the small state machine behind the two-phase delete:
// idle, confirmingRow(id), or confirmingMonth(id).
type confirmState struct {
	id   string
	kind ConfirmKind
}

func (c *confirmState) disarm() {
	c.kind = ConfirmNone
	c.id = ""
}

func (c *confirmState) armed(kind ConfirmKind, id string) bool {
	return c.kind == kind && c.id == id
}

func (c *confirmState) arm(kind ConfirmKind, id string) {
	c.kind = kind
	c.id = id
}

// PendingConfirm exposes the armed target, if any.
func (s *Session) PendingConfirm() (ConfirmKind, string) {
	return s.confirm.kind, s.confirm.id
}

// Disarm cancels any pending delete confirmation. Any other interaction with
// the session does the same implicitly.
func (s *Session) Disarm() {
	s.confirm.disarm()
}

// RequestDeleteRow drives the two-phase row delete. The first call for a row
// arms the confirmation and reports deleted=false; a second call for the same
// row commits the delete. Requesting a different target re-arms on that
// target instead.
func (s *Session) RequestDeleteRow(rowID string) (bool, error) {
	if s.ReadOnly() {
		return false, ErrReadOnly
	}

	row, bucket := s.Row(rowID)
	if row == nil {
		return false, errUnknownRow
	}

	if !s.confirm.armed(ConfirmRow, rowID) {
		s.confirm.arm(ConfirmRow, rowID)
		return false, nil
	}

	s.confirm.disarm()
	for i := range bucket.Rows {
		if bucket.Rows[i].ID == rowID {
			bucket.Rows = append(bucket.Rows[:i], bucket.Rows[i+1:]...)
			break
		}
	}
	return true, nil
}

// RequestDeleteMonth drives the two-phase month delete. Deleting the sole
// remaining month is refused outright with a validation error and no state
// change. Committing a delete of the active month makes the chronologically
// earliest remaining month active.
func (s *Session) RequestDeleteMonth(bucketID string) (bool, error) {
	if s.ReadOnly() {
		return false, ErrReadOnly
	}

	bucket := s.bucketByID(bucketID)
	if bucket == nil {
		return false, errUnknownBucket
	}
	if len(s.months) == 1 {
		s.confirm.disarm()
		return false, &ValidationError{Month: bucket.Month, Message: "At least one month is required"}
	}

	if !s.confirm.armed(ConfirmMonth, bucketID) {
		s.confirm.arm(ConfirmMonth, bucketID)
		return false, nil
	}

	s.confirm.disarm()
	s.deleteMonth(bucketID)
	return true, nil
}
