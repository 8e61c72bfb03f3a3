package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chairside/pmsflow/internal/editor"
	"github.com/chairside/pmsflow/internal/gateway"
	"github.com/chairside/pmsflow/internal/model"
	"github.com/chairside/pmsflow/internal/wire"
)

func testModel(t *testing.T, cfg Config) Model {
	t.Helper()
	if cfg.Session == nil {
		cfg.Session = editor.NewManualSession(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))
	}
	if cfg.Gateway == nil {
		cfg.Gateway = &gateway.Mock{}
	}
	if cfg.Title == "" {
		cfg.Title = "Test"
	}
	if cfg.Domain == "" {
		cfg.Domain = "acme.example.com"
	}
	return newModel(cfg)
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func reviewModel(t *testing.T, gw gateway.Gateway, approve bool) Model {
	t.Helper()
	session := editor.NewReviewSession()
	session.Hydrate([]wire.MonthEntryForm{
		{Month: "2025-05", Sources: []wire.SourceEntryForm{
			{Name: "Google", Referrals: 3, Production: 900, InferredReferralType: "self"},
		}},
	})
	return testModel(t, Config{
		Session: session,
		Gateway: gw,
		JobID:   "job-1",
		Approve: approve,
	})
}

func TestEditSourceCell(t *testing.T) {
	m := testModel(t, Config{})
	m = press(t, m, "a") // add a row

	m = press(t, m, "enter")
	assert.Equal(t, StateEditCell, m.state)

	m = typeText(t, m, "Google Ads")
	m = press(t, m, "enter")
	assert.Equal(t, StateGrid, m.state)

	active := m.session.Active()
	require.Len(t, active.Rows, 1)
	assert.Equal(t, "Google Ads", active.Rows[0].Source)
}

func TestEscCancelsCellEdit(t *testing.T) {
	m := testModel(t, Config{})
	m = press(t, m, "a", "enter")
	m = typeText(t, m, "discarded")
	m = press(t, m, "esc")

	assert.Equal(t, StateGrid, m.state)
	assert.Empty(t, m.session.Active().Rows[0].Source)
}

func TestToggleTypeKey(t *testing.T) {
	m := testModel(t, Config{})
	m = press(t, m, "a", "t")

	assert.Equal(t, model.ReferralDoctor, m.session.Active().Rows[0].Type)
}

func TestIncrementReferrals(t *testing.T) {
	m := testModel(t, Config{})
	m = press(t, m, "a", "l", "l") // move to referrals column
	m = press(t, m, "+", "+", "+", "-")

	assert.Equal(t, "2", m.session.Active().Rows[0].Referrals)
}

func TestDeleteRowTwoPhase(t *testing.T) {
	m := testModel(t, Config{})
	m = press(t, m, "a")

	m = press(t, m, "d")
	require.Len(t, m.session.Active().Rows, 1, "first press only arms")
	assert.Contains(t, m.statusMsg, "again")

	m = press(t, m, "d")
	assert.Empty(t, m.session.Active().Rows)
}

func TestNavigationDisarmsDelete(t *testing.T) {
	m := testModel(t, Config{})
	m = press(t, m, "a", "a")

	m = press(t, m, "d", "j", "d")
	assert.Len(t, m.session.Active().Rows, 2, "moving re-arms against the new target")
}

func TestAddMonthSwitchesTab(t *testing.T) {
	m := testModel(t, Config{})
	before := m.session.Active().Month

	m = press(t, m, "m")
	assert.NotEqual(t, before, m.session.Active().Month)
	assert.Len(t, m.session.Months(), 2)
}

func TestSaveInvalidShowsValidationMessage(t *testing.T) {
	gw := &gateway.Mock{}
	m := testModel(t, Config{Gateway: gw})

	// Row with data but no name: always rejected.
	m = press(t, m, "a", "l", "l", "+")
	m = press(t, m, "s")

	assert.Equal(t, StateGrid, m.state)
	assert.Equal(t, editor.MsgSourceNameRequired, m.statusMsg)
	assert.Empty(t, gw.ManualSubmitCalls)
}

func TestManualSaveSubmits(t *testing.T) {
	gw := &gateway.Mock{}
	m := testModel(t, Config{Gateway: gw})

	m = press(t, m, "a", "enter")
	m = typeText(t, m, "Google")
	m = press(t, m, "enter")
	m = press(t, m, "l", "l", "+") // one referral

	m = press(t, m, "s")
	require.Equal(t, StateSaving, m.state)

	msg := m.saveCmd()()
	next, _ := m.Update(msg)
	m = next.(Model)

	assert.Equal(t, StateDone, m.state)
	assert.True(t, m.Saved())
	require.Len(t, gw.ManualSubmitCalls, 1)
	assert.Equal(t, "acme.example.com", gw.ManualSubmitCalls[0].Domain)
}

func TestReviewSaveThenApprove(t *testing.T) {
	gw := &gateway.Mock{}
	m := reviewModel(t, gw, true)

	m = press(t, m, "s")
	require.Equal(t, StateSaving, m.state)

	next, cmd := m.Update(m.saveCmd()())
	m = next.(Model)
	require.NotNil(t, cmd, "approval must follow a successful save")

	next, _ = m.Update(cmd())
	m = next.(Model)

	assert.Equal(t, StateDone, m.state)
	require.Len(t, gw.UpdateResponseCalls, 1)
	require.Len(t, gw.ClientApprovalCalls, 1)
	assert.True(t, gw.ClientApprovalCalls[0].Approved)
}

func TestReviewSaveFailureSuppressesApproval(t *testing.T) {
	gw := &gateway.Mock{
		UpdateJobResponseFn: func(context.Context, string, []wire.MonthEntryForm) error {
			return errors.New("backend down")
		},
	}
	m := reviewModel(t, gw, true)

	m = press(t, m, "s")
	next, cmd := m.Update(m.saveCmd()())
	m = next.(Model)

	assert.Nil(t, cmd)
	assert.Equal(t, StateGrid, m.state)
	assert.False(t, m.Saved())
	assert.Empty(t, gw.ClientApprovalCalls, "approval never fires after a failed save")
	assert.NotEmpty(t, m.statusMsg)
}

func TestViewerRejectsEditing(t *testing.T) {
	session := editor.NewViewerSession()
	session.Hydrate([]wire.MonthEntryForm{{Month: "2025-04"}})
	m := testModel(t, Config{Session: session})

	m = press(t, m, "a")
	assert.Empty(t, m.session.Active().Rows)

	m = press(t, m, "s")
	assert.Equal(t, StateGrid, m.state)
}

func TestHelpTogglesBack(t *testing.T) {
	m := testModel(t, Config{})
	m = press(t, m, "?")
	assert.Equal(t, StateHelp, m.state)

	m = press(t, m, "x")
	assert.Equal(t, StateGrid, m.state)
}
