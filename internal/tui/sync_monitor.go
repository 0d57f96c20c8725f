package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kelsos/wallet-watch/internal/logger"
	"github.com/kelsos/wallet-watch/internal/models"
	"github.com/kelsos/wallet-watch/internal/services"
)

// Dashboard runs the terminal UI on top of the refresh pipeline
type Dashboard struct {
	refresh *services.RefreshService
	state   *services.AppState
	program *tea.Program
}

func NewDashboard(refresh *services.RefreshService, state *services.AppState) *Dashboard {
	return &Dashboard{
		refresh: refresh,
		state:   state,
	}
}

// Start shows the stored snapshot and prepares the program. No network call
// happens until the first refresh trigger.
func (d *Dashboard) Start(ctx context.Context) error {
	if d.refresh.LoadOnly(d.state) {
		logger.Info("Loaded stored snapshot")
	}

	model := NewModel(ctx, d.refresh, d.state)
	d.program = tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)

	return nil
}

// RequestRefresh triggers a refresh from outside the UI loop
func (d *Dashboard) RequestRefresh() {
	if d.program != nil {
		d.program.Send(RefreshRequested{})
	}
}

// ParamsSynced re-themes the dashboard after the companion stored new parameters
func (d *Dashboard) ParamsSynced(doc models.StoredParams) {
	if d.program != nil {
		d.program.Send(ParamsSynced{Params: doc})
	}
}

// AddLog appends a line to the dashboard's activity log
func (d *Dashboard) AddLog(message string) {
	if d.program != nil {
		d.program.Send(LogMessage{Message: message})
	}
}

// Run blocks until the user quits
func (d *Dashboard) Run() error {
	if d.program == nil {
		return fmt.Errorf("dashboard not started")
	}

	if _, err := d.program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	return nil
}
