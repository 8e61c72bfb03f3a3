package tui

// Save pipeline messages. In review mode the response save and the approval
// are sequential; approval is only attempted after the save succeeded.
type saveResultMsg struct {
	err error
}

type approvalResultMsg struct {
	err error
}

// Column identifies one editable cell within a source row.
type Column int

// Grid columns, left to right.
const (
	ColSource Column = iota
	ColType
	ColReferrals
	ColProduction
)

func (c Column) next() Column {
	if c >= ColProduction {
		return ColSource
	}
	return c + 1
}

func (c Column) prev() Column {
	if c <= ColSource {
		return ColProduction
	}
	return c - 1
}
