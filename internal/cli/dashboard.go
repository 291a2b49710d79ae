package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/flowpulse/internal/core"
	"github.com/valter-silva-au/flowpulse/internal/observability"
	"github.com/valter-silva-au/flowpulse/pkg/models"
)

// barRows is how many of the newest visible events get a latency bar.
const barRows = 20

type dashboardModel struct {
	service     *core.StreamService
	alertEngine observability.AlertEngine
	interval    time.Duration
	exportDir   string

	// tickGen identifies the live tick chain. Pausing or restarting bumps
	// it, so ticks already scheduled by an older chain are dropped.
	tickGen int

	width  int
	height int
}

// tickMsg fires once per interval while the stream runs.
type tickMsg struct {
	gen  int
	seed int64
}

// stateChangedMsg reports that another process rewrote the state files.
type stateChangedMsg struct{}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	statStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 2).
			MarginRight(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Italic(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	severityInfoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	severityWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	severityErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	alertHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	alertMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	alertLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel(service *core.StreamService, alertEngine observability.AlertEngine, interval time.Duration, exportDir string) dashboardModel {
	return dashboardModel{
		service:     service,
		alertEngine: alertEngine,
		interval:    interval,
		exportDir:   exportDir,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	if m.service.State().Running {
		return m.scheduleTick()
	}
	return nil
}

// scheduleTick arms one tick for the current generation.
func (m dashboardModel) scheduleTick() tea.Cmd {
	gen := m.tickGen
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg{gen: gen, seed: t.UnixMilli()}
	})
}

// restartTicks abandons any pending tick and starts a new chain if the
// stream is running.
func (m dashboardModel) restartTicks() (dashboardModel, tea.Cmd) {
	m.tickGen++
	if !m.service.State().Running {
		return m, nil
	}
	return m, m.scheduleTick()
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.service.TogglePause()
			return m.restartTicks()
		case "ctrl+k":
			m.service.Clear()
			return m, nil
		case "ctrl+e":
			_, _, _ = m.service.Export(m.exportDir)
			return m, nil
		case "f":
			m.service.CycleFilter()
			return m, nil
		case "a":
			_, _ = m.service.SetFilter(models.FilterAll)
			return m, nil
		case "1":
			_, _ = m.service.SetFilter(models.SeverityFilter(models.SeverityInfo))
			return m, nil
		case "2":
			_, _ = m.service.SetFilter(models.SeverityFilter(models.SeverityWarn))
			return m, nil
		case "3":
			_, _ = m.service.SetFilter(models.SeverityFilter(models.SeverityError))
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if msg.gen != m.tickGen || !m.service.State().Running {
			return m, nil
		}
		m.service.Tick(msg.seed)
		return m, m.scheduleTick()

	case stateChangedMsg:
		return m.restartTicks()
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	state := m.service.State()
	visible := state.Visible()
	summary := core.Summarize(visible)

	title := titleStyle.Render(" FlowPulse · Latency Stream Playground ")
	runState := pausedStyle.Render("PAUSED")
	if state.Running {
		runState = runningStyle.Render("LIVE")
	}
	header := fmt.Sprintf("%s  %s  %s", title, runState, labelStyle.Render("filter: "+string(state.Filter)))
	help := helpStyle.Render("space: pause/resume | ctrl+k: clear | ctrl+e: export | f: cycle filter | a/1/2/3: all/info/warn/error | q: quit")

	panelWidth := m.width - 4
	if panelWidth < 40 {
		panelWidth = 40
	}

	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		renderStat("Visible events", fmt.Sprintf("%d", summary.Count)),
		renderStat("Avg latency", fmt.Sprintf("%d ms", summary.AvgLatency)),
		renderStat("Warnings", fmt.Sprintf("%d", summary.BySeverity.Warn)),
		renderStat("Errors", fmt.Sprintf("%d", summary.BySeverity.Error)),
	)

	bars := panelStyle.Width(panelWidth).Render(renderBars(visible, panelWidth-4))

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	if state.Status != "" {
		b.WriteString(statusStyle.Render(state.Status))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(stats)
	b.WriteString("\n")
	b.WriteString(bars)
	b.WriteString("\n")
	if m.alertEngine != nil {
		b.WriteString(panelStyle.Width(panelWidth).Render(renderAlerts(m.alertEngine.Evaluate(state.Events))))
		b.WriteString("\n")
	}
	b.WriteString(help)

	return b.String()
}

func renderStat(label, value string) string {
	return statStyle.Render(labelStyle.Render(label) + "\n" + lipgloss.NewStyle().Bold(true).Render(value))
}

// renderBars draws one row per event with a bar scaled to the largest
// visible latency.
func renderBars(visible []models.Event, width int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Latency Bars"))
	b.WriteString("\n")

	if len(visible) == 0 {
		b.WriteString("  No events yet.")
		return b.String()
	}

	// service (8) + spaces + "699 ms" (7)
	trackWidth := width - 20
	if trackWidth < 10 {
		trackWidth = 10
	}
	maxLatency := core.MaxLatency(visible)

	rows := visible
	if len(rows) > barRows {
		rows = rows[:barRows]
	}
	for _, e := range rows {
		filled := int(e.LatencyMs / maxLatency * float64(trackWidth))
		if filled < 1 {
			filled = 1
		}
		if filled > trackWidth {
			filled = trackWidth
		}
		bar := styleForSeverity(e.Severity).Render(strings.Repeat("█", filled)) +
			strings.Repeat("·", trackWidth-filled)
		b.WriteString(fmt.Sprintf("  %-8s %s %4.0f ms\n", e.Service, bar, e.LatencyMs))
	}

	return strings.TrimRight(b.String(), "\n")
}

func renderAlerts(alerts []observability.Alert) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Alerts"))
	b.WriteString("\n")

	if len(alerts) == 0 {
		b.WriteString("  No active alerts.")
		return b.String()
	}

	for _, a := range alerts {
		sev := styleForAlert(a.Severity).Render(fmt.Sprintf("[%s]", strings.ToUpper(string(a.Severity))))
		b.WriteString(fmt.Sprintf("  %s %s\n", sev, a.Message))
	}
	return strings.TrimRight(b.String(), "\n")
}

func styleForSeverity(severity models.Severity) lipgloss.Style {
	switch severity {
	case models.SeverityError:
		return severityErrorStyle
	case models.SeverityWarn:
		return severityWarnStyle
	default:
		return severityInfoStyle
	}
}

func styleForAlert(severity observability.AlertSeverity) lipgloss.Style {
	switch severity {
	case observability.SeverityHigh:
		return alertHigh
	case observability.SeverityMedium:
		return alertMedium
	case observability.SeverityLow:
		return alertLow
	default:
		return lipgloss.NewStyle()
	}
}

var dashboardInterval time.Duration

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for the latency stream",
	Long: `Launch an interactive terminal dashboard that synthesizes one event per
interval and shows summary stats, latency bars and active alerts.

Shortcuts: space pauses or resumes, ctrl+k clears the history, ctrl+e exports
it to JSON, f cycles the severity filter (a/1/2/3 pick one directly), q quits.
Changes made from another shell, such as "flowpulse import", show up live.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return errNotInitialized
		}

		model := newDashboardModel(Service, AlertEngine, resolveInterval(dashboardInterval), resolveExportDir())
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(commandContext(cmd)))

		ctx, cancel := context.WithCancel(commandContext(cmd))
		defer cancel()
		if err := watchState(ctx, func() { p.Send(stateChangedMsg{}) }); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: not following external changes: %v\n", err)
		}

		_, err := p.Run()
		return err
	},
}

func init() {
	dashboardCmd.Flags().DurationVar(&dashboardInterval, "interval", 0, "Tick interval (defaults to stream.interval)")
	dashboardCmd.Flags().StringVar(&exportDir, "dir", "", "Directory ctrl+e exports into (defaults to export.dir)")
	rootCmd.AddCommand(dashboardCmd)
}
