// Package tui implements the interactive referral data editor using bubbletea.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chairside/pmsflow/internal/common"
	"github.com/chairside/pmsflow/internal/editor"
	"github.com/chairside/pmsflow/internal/gateway"
	"github.com/chairside/pmsflow/internal/model"
)

// State represents the current state of the TUI.
type State int

// Editor states.
const (
	StateGrid State = iota
	StateEditCell
	StateEditMonth
	StateSaving
	StateHelp
	StateDone
)

// Config carries everything the editor needs. The session must already be
// hydrated (or be a fresh manual session) before Run is called.
type Config struct {
	Session    *editor.Session
	Gateway    gateway.Gateway
	Logger     *slog.Logger
	Title      string
	Domain     string
	JobID      string
	LocationID string
	// Approve requests client approval after a successful review save.
	Approve bool
}

// Model holds the editor TUI state.
type Model struct {
	session   *editor.Session
	gw        gateway.Gateway
	logger    *slog.Logger
	config    Config
	keymap    KeyMap
	input     textinput.Model
	statusMsg string
	lastError error
	rowIdx    int
	col       Column
	width     int
	height    int
	state     State
	prevState State
	saved     bool
	quitting  bool
}

// newModel creates a new model with the given configuration.
func newModel(cfg Config) Model {
	input := textinput.New()
	input.CharLimit = 64

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return Model{
		session: cfg.Session,
		gw:      cfg.Gateway,
		logger:  logger,
		config:  cfg,
		keymap:  DefaultKeyMap(),
		input:   input,
		state:   StateGrid,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.EnterAltScreen
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case saveResultMsg:
		return m.handleSaveResult(msg)

	case approvalResultMsg:
		return m.handleApprovalResult(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.state {
	case StateEditCell, StateEditMonth:
		return m.handleInputKey(msg)
	case StateSaving:
		// Ignore input while a save is in flight.
		return m, nil
	case StateHelp:
		m.state = m.prevState
		return m, nil
	case StateDone:
		m.quitting = true
		return m, tea.Quit
	}

	return m.handleGridKey(msg)
}

func (m Model) handleGridKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	km := m.keymap

	switch {
	case key.Matches(msg, km.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, km.Help):
		m.prevState = m.state
		m.state = StateHelp
		return m, nil

	case key.Matches(msg, km.Up):
		m.session.Disarm()
		if m.rowIdx > 0 {
			m.rowIdx--
		}
		return m, nil

	case key.Matches(msg, km.Down):
		m.session.Disarm()
		if m.rowIdx < m.rowCount()-1 {
			m.rowIdx++
		}
		return m, nil

	case key.Matches(msg, km.Left):
		m.col = m.col.prev()
		return m, nil

	case key.Matches(msg, km.Right):
		m.col = m.col.next()
		return m, nil

	case key.Matches(msg, km.NextMonth):
		m.shiftMonth(1)
		return m, nil

	case key.Matches(msg, km.PrevMonth):
		m.shiftMonth(-1)
		return m, nil

	case key.Matches(msg, km.AddRow):
		return m.addRow()

	case key.Matches(msg, km.AddMonth):
		return m.addMonth()

	case key.Matches(msg, km.EditMonth):
		return m.beginMonthEdit()

	case key.Matches(msg, km.Edit):
		return m.beginCellEdit()

	case key.Matches(msg, km.ToggleType):
		return m.applyRowOp(m.session.ToggleRowType)

	case key.Matches(msg, km.Increment):
		return m.adjust(1)

	case key.Matches(msg, km.Decrement):
		return m.adjust(-1)

	case key.Matches(msg, km.DeleteRow):
		return m.deleteRow()

	case key.Matches(msg, km.DeleteMonth):
		return m.deleteMonth()

	case key.Matches(msg, km.Save):
		return m.beginSave()
	}

	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		return m.commitInput()
	case tea.KeyEsc:
		m.state = StateGrid
		m.input.Blur()
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) shiftMonth(delta int) {
	months := m.session.Months()
	if len(months) == 0 {
		return
	}

	idx := 0
	for i, b := range months {
		if b.ID == m.session.ActiveID() {
			idx = i
			break
		}
	}

	idx = (idx + delta + len(months)) % len(months)
	m.session.SetActive(months[idx].ID)
	m.rowIdx = 0
	m.statusMsg = ""
}

func (m Model) addRow() (tea.Model, tea.Cmd) {
	active := m.session.Active()
	if active == nil {
		return m, nil
	}
	if _, err := m.session.AddRow(active.ID); err != nil {
		m.setError(err)
		return m, nil
	}
	m.rowIdx = m.rowCount() - 1
	m.col = ColSource
	m.statusMsg = ""
	return m, nil
}

func (m Model) addMonth() (tea.Model, tea.Cmd) {
	if _, err := m.session.AddMonth(); err != nil {
		m.setError(err)
		return m, nil
	}
	m.rowIdx = 0
	m.statusMsg = ""
	return m, nil
}

func (m Model) beginMonthEdit() (tea.Model, tea.Cmd) {
	if m.session.ReadOnly() {
		m.setError(editor.ErrReadOnly)
		return m, nil
	}
	active := m.session.Active()
	if active == nil {
		return m, nil
	}

	m.input.SetValue(active.Month)
	m.input.CursorEnd()
	m.input.Focus()
	m.input.Placeholder = "YYYY-MM"
	m.state = StateEditMonth
	m.statusMsg = ""
	return m, textinput.Blink
}

func (m Model) beginCellEdit() (tea.Model, tea.Cmd) {
	if m.session.ReadOnly() {
		m.setError(editor.ErrReadOnly)
		return m, nil
	}
	row := m.currentRow()
	if row == nil {
		return m, nil
	}

	if m.col == ColType {
		return m.applyRowOp(m.session.ToggleRowType)
	}

	switch m.col {
	case ColSource:
		m.input.SetValue(row.Source)
		m.input.Placeholder = "Source name"
	case ColReferrals:
		m.input.SetValue(row.Referrals)
		m.input.Placeholder = "0"
	case ColProduction:
		m.input.SetValue(row.Production)
		m.input.Placeholder = "0"
	}

	m.input.CursorEnd()
	m.input.Focus()
	m.state = StateEditCell
	m.statusMsg = ""
	return m, textinput.Blink
}

func (m Model) commitInput() (tea.Model, tea.Cmd) {
	value := m.input.Value()

	if m.state == StateEditMonth {
		active := m.session.Active()
		if active != nil {
			if err := m.session.SetMonth(active.ID, value); err != nil {
				// Keep the input open so the label can be corrected.
				m.setError(err)
				return m, textinput.Blink
			}
		}
		m.input.Blur()
		m.state = StateGrid
		m.statusMsg = ""
		return m, nil
	}
	m.input.Blur()

	row := m.currentRow()
	if row == nil {
		m.state = StateGrid
		return m, nil
	}

	var err error
	switch m.col {
	case ColSource:
		err = m.session.SetRowSource(row.ID, value)
	case ColReferrals:
		err = m.session.SetRowReferrals(row.ID, value)
	case ColProduction:
		err = m.session.SetRowProduction(row.ID, value)
	}
	if err != nil {
		m.setError(err)
	} else {
		m.statusMsg = ""
	}

	m.state = StateGrid
	return m, nil
}

func (m Model) applyRowOp(op func(string) error) (tea.Model, tea.Cmd) {
	row := m.currentRow()
	if row == nil {
		return m, nil
	}
	if err := op(row.ID); err != nil {
		m.setError(err)
	} else {
		m.statusMsg = ""
	}
	return m, nil
}

func (m Model) adjust(delta int) (tea.Model, tea.Cmd) {
	row := m.currentRow()
	if row == nil {
		return m, nil
	}

	var err error
	if m.col == ColProduction {
		err = m.session.AdjustProduction(row.ID, delta)
	} else {
		err = m.session.AdjustReferrals(row.ID, delta)
	}
	if err != nil {
		m.setError(err)
	}
	return m, nil
}

func (m Model) deleteRow() (tea.Model, tea.Cmd) {
	row := m.currentRow()
	if row == nil {
		return m, nil
	}

	deleted, err := m.session.RequestDeleteRow(row.ID)
	if err != nil {
		m.setError(err)
		return m, nil
	}
	if !deleted {
		m.statusMsg = "Press d again to delete this source"
		return m, nil
	}

	if m.rowIdx >= m.rowCount() && m.rowIdx > 0 {
		m.rowIdx--
	}
	m.statusMsg = ""
	return m, nil
}

func (m Model) deleteMonth() (tea.Model, tea.Cmd) {
	active := m.session.Active()
	if active == nil {
		return m, nil
	}

	deleted, err := m.session.RequestDeleteMonth(active.ID)
	if err != nil {
		m.setError(err)
		return m, nil
	}
	if !deleted {
		m.statusMsg = "Press D again to delete month " + active.Month
		return m, nil
	}

	m.rowIdx = 0
	m.statusMsg = ""
	return m, nil
}

func (m Model) beginSave() (tea.Model, tea.Cmd) {
	if m.session.ReadOnly() {
		m.setError(editor.ErrReadOnly)
		return m, nil
	}

	if err := m.session.Validate(); err != nil {
		// Validate already switched the active month to the offender.
		m.rowIdx = 0
		m.setError(err)
		return m, nil
	}

	m.state = StateSaving
	m.statusMsg = ""
	return m, m.saveCmd()
}

func (m Model) saveCmd() tea.Cmd {
	forms := m.session.Serialize()
	mode := m.session.Mode()
	cfg := m.config
	gw := m.gw

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		switch mode {
		case editor.ModeManual:
			return saveResultMsg{err: gw.SubmitManualData(ctx, cfg.Domain, forms, cfg.LocationID)}
		case editor.ModeReview:
			return saveResultMsg{err: gw.UpdateJobResponse(ctx, cfg.JobID, forms)}
		default:
			return saveResultMsg{err: editor.ErrReadOnly}
		}
	}
}

func (m Model) approveCmd() tea.Cmd {
	cfg := m.config
	gw := m.gw

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return approvalResultMsg{err: gw.UpdateClientApproval(ctx, cfg.JobID, true)}
	}
}

func (m Model) handleSaveResult(msg saveResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Error("save failed", "error", msg.err)
		m.state = StateGrid
		m.setError(msg.err)
		return m, nil
	}

	// Approval only runs after the data save landed.
	if m.session.Mode() == editor.ModeReview && m.config.Approve {
		return m, m.approveCmd()
	}

	m.saved = true
	m.state = StateDone
	return m, nil
}

func (m Model) handleApprovalResult(msg approvalResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Error("approval failed", "error", msg.err)
		m.state = StateGrid
		m.setError(msg.err)
		return m, nil
	}

	m.saved = true
	m.state = StateDone
	return m, nil
}

// Saved reports whether the editor committed its data before exiting.
func (m Model) Saved() bool {
	return m.saved
}

func (m *Model) setError(err error) {
	m.lastError = err

	var vErr *editor.ValidationError
	if errors.As(err, &vErr) {
		m.statusMsg = vErr.Message
		return
	}
	m.statusMsg = common.UserMessage(err)
}

func (m Model) rowCount() int {
	active := m.session.Active()
	if active == nil {
		return 0
	}
	return len(active.Rows)
}

func (m Model) currentRow() *model.SourceRow {
	active := m.session.Active()
	if active == nil || m.rowIdx >= len(active.Rows) {
		return nil
	}
	return &active.Rows[m.rowIdx]
}
