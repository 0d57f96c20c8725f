package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kelsos/wallet-watch/internal/models"
	"github.com/kelsos/wallet-watch/internal/services"
	"github.com/kelsos/wallet-watch/internal/utils"
)

var amountPrinter = message.NewPrinter(language.English)

const (
	toastDuration = 4 * time.Second
	staleAfter    = time.Hour
	maxLogLines   = 6
)

// Refresher is the part of the refresh pipeline the dashboard drives
type Refresher interface {
	Refresh(ctx context.Context, state *services.AppState) (services.RefreshResult, error)
}

type Model struct {
	ctx        context.Context
	refresher  Refresher
	state      *services.AppState
	view       services.StateView
	spinner    spinner.Model
	refreshing bool
	toast      string
	toastSeq   int
	logs       []string
	width      int
	height     int
	quit       bool
}

// RefreshRequested asks the dashboard to run one refresh
type RefreshRequested struct{}

// ParamsSynced carries a parameters document received from the paired device
type ParamsSynced struct {
	Params models.StoredParams
}

type LogMessage struct {
	Message string
}

type refreshDone struct {
	result services.RefreshResult
	err    error
}

type toastExpired struct {
	seq int
}

func NewModel(ctx context.Context, refresher Refresher, state *services.AppState) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#f36506"))

	return Model{
		ctx:       ctx,
		refresher: refresher,
		state:     state,
		view:      state.Snapshot(),
		spinner:   sp,
		logs:      []string{},
		width:     80,
		height:    24,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quit = true
			return m, tea.Quit
		case "r":
			return m.startRefresh()
		}

	case tea.FocusMsg:
		return m.startRefresh()

	case RefreshRequested:
		return m.startRefresh()

	case refreshDone:
		return m.handleRefreshDone(msg)

	case ParamsSynced:
		m.state.ApplyParams(msg.Params.BitcoinParams)
		m.view = m.state.Snapshot()
		m = m.handleLogMessage(LogMessage{Message: "Received parameters from paired device"})

	case LogMessage:
		m = m.handleLogMessage(msg)

	case toastExpired:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) startRefresh() (Model, tea.Cmd) {
	if m.refreshing {
		return m, nil
	}
	m.refreshing = true

	ctx, refresher, state := m.ctx, m.refresher, m.state
	refresh := func() tea.Msg {
		result, err := refresher.Refresh(ctx, state)
		return refreshDone{result: result, err: err}
	}

	return m, tea.Batch(refresh, m.spinner.Tick)
}

func (m Model) handleRefreshDone(msg refreshDone) (Model, tea.Cmd) {
	m.refreshing = false
	m.view = m.state.Snapshot()

	switch {
	case errors.Is(msg.err, services.ErrRefreshInProgress):
		return m, nil
	case errors.Is(msg.err, services.ErrNotConfigured):
		m = m.handleLogMessage(LogMessage{Message: "Refresh skipped: wallet not configured"})
		return m.showToast("No wallet configured. Run: wallet-watch params set")
	case msg.err != nil:
		m = m.handleLogMessage(LogMessage{Message: fmt.Sprintf("Refresh failed: %v", msg.err)})
		return m.showToast("Refresh failed")
	}

	m = m.handleLogMessage(LogMessage{Message: fmt.Sprintf("Refreshed: price %s", formatAmount(msg.result.Data.BitcoinPrice))})
	if m.view.LastError != "" {
		return m.showToast(m.view.LastError)
	}
	return m, nil
}

func (m Model) showToast(text string) (Model, tea.Cmd) {
	m.toastSeq++
	m.toast = text
	seq := m.toastSeq
	return m, tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpired{seq: seq}
	})
}

func (m Model) handleLogMessage(msg LogMessage) Model {
	m.logs = append(m.logs, fmt.Sprintf("[%s] %s",
		time.Now().Format("15:04:05"), msg.Message))
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
	return m
}

type palette struct {
	title lipgloss.Color
	data  lipgloss.Color
	muted lipgloss.Color
	frame lipgloss.Color
}

func paletteFor(dark bool) palette {
	if dark {
		return palette{title: "#FFFFFF", data: "#f36506", muted: "244", frame: "240"}
	}
	return palette{title: "#000000", data: "#f36506", muted: "240", frame: "62"}
}

func (m Model) View() string {
	if m.quit {
		return "Shutting down...\n"
	}

	colors := paletteFor(m.view.DarkMode)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(colors.title)
	mutedStyle := lipgloss.NewStyle().Foreground(colors.muted)

	var s strings.Builder

	s.WriteString(titleStyle.Render("₿ Wallet Watch"))
	if code := m.view.Currency; code != "" {
		s.WriteString(mutedStyle.Render("  " + code))
		if !knownCurrency(code) {
			s.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render("  (unknown currency code)"))
		}
	}
	s.WriteString("\n\n")

	var values strings.Builder
	values.WriteString(m.valueLine("Price", m.view.Current.BitcoinPrice, m.view.Variation.Price, colors))
	values.WriteString(m.valueLine("Balance", m.view.Current.BitcoinBalance, m.view.Variation.Balance, colors))
	values.WriteString(m.valueLine("Profit", m.view.Current.BitcoinProfit, m.view.Variation.Profit, colors))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colors.frame).
		Padding(1, 2)
	s.WriteString(boxStyle.Render(strings.TrimRight(values.String(), "\n")))
	s.WriteString("\n")

	switch {
	case m.refreshing:
		s.WriteString(m.spinner.View() + mutedStyle.Render(" Refreshing..."))
	case !m.view.Configured:
		s.WriteString(mutedStyle.Render("Not configured"))
	default:
		status := "Updated " + utils.HumanizeAge(m.view.LastRefresh)
		if utils.IsStale(m.view.LastRefresh, staleAfter) {
			status += " (press r to refresh)"
		}
		s.WriteString(mutedStyle.Render(status))
	}
	s.WriteString("\n")

	if m.toast != "" {
		toastStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		s.WriteString(toastStyle.Render("⚠ " + m.toast))
	}
	s.WriteString("\n\n")

	if len(m.logs) > 0 {
		logStyle := lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colors.frame).
			Padding(0, 1).
			Width(max(m.width-2, 20))
		s.WriteString(logStyle.Render(strings.Join(m.logs, "\n")))
		s.WriteString("\n\n")
	}

	s.WriteString(mutedStyle.Render("r refresh | q quit | Logs: logs/wallet-watch_*.log"))

	return s.String()
}

func (m Model) valueLine(label string, value, variation float64, colors palette) string {
	labelStyle := lipgloss.NewStyle().Width(9).Foreground(colors.title)
	valueStyle := lipgloss.NewStyle().Width(16).Align(lipgloss.Right).Bold(true).Foreground(colors.data)

	return labelStyle.Render(label) +
		valueStyle.Render(formatAmount(value)) + "  " +
		variationStyle(variation).Render(formatVariation(variation)) + "\n"
}

func variationStyle(variation float64) lipgloss.Style {
	switch {
	case variation > 0:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	case variation < 0:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	}
}

func formatVariation(variation float64) string {
	switch {
	case variation > 0:
		return fmt.Sprintf("▲ %.2f%%", variation)
	case variation < 0:
		return fmt.Sprintf("▼ %.2f%%", -variation)
	default:
		return "  0.00%"
	}
}

// formatAmount renders two decimals with thousands separators
func formatAmount(value float64) string {
	return amountPrinter.Sprintf("%.2f", value)
}

func knownCurrency(code string) bool {
	_, err := currency.ParseISO(code)
	return err == nil
}
