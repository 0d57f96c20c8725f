package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelsos/wallet-watch/internal/models"
	"github.com/kelsos/wallet-watch/internal/services"
)

type fakeRefresher struct {
	calls  int
	result services.RefreshResult
	err    error
	apply  func(*services.AppState)
}

func (f *fakeRefresher) Refresh(ctx context.Context, state *services.AppState) (services.RefreshResult, error) {
	f.calls++
	if f.apply != nil {
		f.apply(state)
	}
	return f.result, f.err
}

// runCmd executes cmd and any batched commands, returning the produced messages
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}

	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, runCmd(c)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}

func findRefreshDone(t *testing.T, msgs []tea.Msg) refreshDone {
	t.Helper()
	for _, msg := range msgs {
		if done, ok := msg.(refreshDone); ok {
			return done
		}
	}
	t.Fatalf("no refresh result in %v", msgs)
	return refreshDone{}
}

func TestRefreshKeyRunsOneRefresh(t *testing.T) {
	state := services.NewAppState()
	refresher := &fakeRefresher{
		result: services.RefreshResult{Data: models.BitcoinData{BitcoinPrice: 50000}},
		apply: func(s *services.AppState) {
			s.ApplyParams(&models.WalletParams{Address: []string{"a"}, Currency: "USD", DarkMode: true})
		},
	}
	model := NewModel(context.Background(), refresher, state)

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m := updated.(Model)
	assert.True(t, m.refreshing)
	assert.Contains(t, m.View(), "Refreshing")

	again, againCmd := m.Update(tea.FocusMsg{})
	assert.Nil(t, againCmd)
	m = again.(Model)

	done := findRefreshDone(t, runCmd(cmd))
	assert.Equal(t, 1, refresher.calls)

	updated, _ = m.Update(done)
	m = updated.(Model)
	assert.False(t, m.refreshing)
	assert.True(t, m.view.DarkMode)
	assert.Empty(t, m.toast)
	assert.Contains(t, m.View(), "USD")
}

func TestFocusTriggersRefresh(t *testing.T) {
	refresher := &fakeRefresher{}
	model := NewModel(context.Background(), refresher, services.NewAppState())

	_, cmd := model.Update(tea.FocusMsg{})
	require.NotNil(t, cmd)
	findRefreshDone(t, runCmd(cmd))
	assert.Equal(t, 1, refresher.calls)
}

func TestRefreshRequestedRunsRefresh(t *testing.T) {
	refresher := &fakeRefresher{}
	model := NewModel(context.Background(), refresher, services.NewAppState())

	updated, cmd := model.Update(RefreshRequested{})
	require.NotNil(t, cmd)
	assert.True(t, updated.(Model).refreshing)
	findRefreshDone(t, runCmd(cmd))
	assert.Equal(t, 1, refresher.calls)
}

func TestLogMessageIsShown(t *testing.T) {
	model := NewModel(context.Background(), &fakeRefresher{}, services.NewAppState())

	updated, _ := model.Update(LogMessage{Message: "Pairing unavailable on :8765"})
	m := updated.(Model)
	require.Len(t, m.logs, 1)
	assert.Contains(t, m.logs[0], "Pairing unavailable on :8765")
}

func TestDashboardHooksBeforeStart(t *testing.T) {
	d := NewDashboard(nil, services.NewAppState())
	assert.NotPanics(t, func() {
		d.ParamsSynced(models.StoredParams{})
		d.RequestRefresh()
		d.AddLog("ignored")
	})
	assert.Error(t, d.Run())
}

func TestRefreshErrorsShowToast(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantToast bool
	}{
		{"not configured", services.ErrNotConfigured, true},
		{"cancelled", errors.New("refresh cancelled"), true},
		{"in progress", services.ErrRefreshInProgress, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := NewModel(context.Background(), &fakeRefresher{}, services.NewAppState())
			model.refreshing = true

			updated, cmd := model.Update(refreshDone{err: tt.err})
			m := updated.(Model)

			assert.False(t, m.refreshing)
			if tt.wantToast {
				assert.NotEmpty(t, m.toast)
				assert.NotNil(t, cmd)
				assert.Contains(t, m.View(), m.toast)
			} else {
				assert.Empty(t, m.toast)
				assert.Nil(t, cmd)
			}
		})
	}
}

func TestToastExpires(t *testing.T) {
	model := NewModel(context.Background(), &fakeRefresher{}, services.NewAppState())
	m, _ := model.showToast("first")
	m, _ = m.showToast("second")

	updated, _ := m.Update(toastExpired{seq: 1})
	m = updated.(Model)
	assert.Equal(t, "second", m.toast)

	updated, _ = m.Update(toastExpired{seq: 2})
	m = updated.(Model)
	assert.Empty(t, m.toast)
}

func TestParamsSyncedRethemes(t *testing.T) {
	state := services.NewAppState()
	model := NewModel(context.Background(), &fakeRefresher{}, state)

	updated, _ := model.Update(ParamsSynced{Params: models.StoredParams{BitcoinParams: &models.WalletParams{
		Address: []string{"a"}, Currency: "EUR", DarkMode: true,
	}}})
	m := updated.(Model)

	assert.True(t, m.view.DarkMode)
	assert.Equal(t, "EUR", m.view.Currency)
	assert.True(t, state.Snapshot().DarkMode)
	require.Len(t, m.logs, 1)
}

func TestQuit(t *testing.T) {
	model := NewModel(context.Background(), &fakeRefresher{}, services.NewAppState())
	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "Shutting down...\n", updated.View())
}

func TestLogsAreBounded(t *testing.T) {
	m := NewModel(context.Background(), &fakeRefresher{}, services.NewAppState())
	for i := 0; i < maxLogLines+3; i++ {
		m = m.handleLogMessage(LogMessage{Message: fmt.Sprintf("line %d", i)})
	}
	assert.Len(t, m.logs, maxLogLines)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "50,000.00", formatAmount(50000))
	assert.Equal(t, "-1,000.50", formatAmount(-1000.5))
	assert.Equal(t, "999.00", formatAmount(999))
	assert.Equal(t, "0.00", formatAmount(0))
	assert.Equal(t, "1,234,567.89", formatAmount(1234567.891))

	assert.Equal(t, "▲ 10.00%", formatVariation(10))
	assert.Equal(t, "▼ 10.00%", formatVariation(-10))

	assert.True(t, knownCurrency("BRL"))
	assert.False(t, knownCurrency("BTCX"))
}
