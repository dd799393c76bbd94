package watch

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/muurk/ut181a/internal/dmm"
	"github.com/muurk/ut181a/internal/logging"
	"github.com/muurk/ut181a/internal/protocol"
	"github.com/muurk/ut181a/internal/ui"
)

// Meter is the part of dmm.Client the live view drives
type Meter interface {
	MonitorOn() error
	MonitorOff() error
	Measurement() (protocol.Measurement, error)
	ToggleHold() error
	SaveMeasurement() error
	SetMinMaxMode(on bool) error
}

// Messages for async meter operations
type startedMsg struct{ err error }
type retryMsg struct{}
type stoppedMsg struct{}

type readingMsg struct {
	m   protocol.Measurement
	at  time.Time
	err error
}

type actionMsg struct {
	name string
	err  error
}

type minMaxMsg struct {
	on  bool
	err error
}

// stats tracks the primary value over the session
type stats struct {
	count    int
	min, max float32
	unit     protocol.UnitExp
}

func (s *stats) add(v protocol.Value) {
	if v.Overloaded() {
		return
	}
	if s.count == 0 || v.Unit != s.unit {
		*s = stats{min: v.Value, max: v.Value, unit: v.Unit}
	}
	s.count++
	s.min = min(s.min, v.Value)
	s.max = max(s.max, v.Value)
}

// Model is the live view
type Model struct {
	meter Meter
	retry time.Duration

	spinner spinner.Model
	help    help.Model
	keys    keyMap

	monitoring bool
	quitting   bool
	minMax     bool

	latest   protocol.Measurement
	latestAt time.Time
	readings int
	stats    stats

	status  string
	lastErr error

	width int
}

// New creates the live view. retry is the pause before live reporting is
// turned on again after the meter stops answering.
func New(meter Meter, retry time.Duration) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ui.PrimaryColor)

	return Model{
		meter:   meter,
		retry:   retry,
		spinner: s,
		help:    help.New(),
		keys:    defaultKeys(),
		width:   ui.GetTerminalWidth(),
	}
}

// Init turns live reporting on
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startCmd())
}

func (m Model) startCmd() tea.Cmd {
	meter := m.meter
	return func() tea.Msg {
		return startedMsg{err: meter.MonitorOn()}
	}
}

func (m Model) readCmd() tea.Cmd {
	meter := m.meter
	return func() tea.Msg {
		reading, err := meter.Measurement()
		return readingMsg{m: reading, at: time.Now(), err: err}
	}
}

func (m Model) retryCmd() tea.Cmd {
	return tea.Tick(m.retry, func(time.Time) tea.Msg { return retryMsg{} })
}

func (m Model) stopCmd() tea.Cmd {
	meter := m.meter
	return func() tea.Msg {
		if err := meter.MonitorOff(); err != nil {
			logging.Warn("Failed to turn off live reporting", zap.Error(err))
		}
		return stoppedMsg{}
	}
}

func (m Model) actionCmd(name string, op func() error) tea.Cmd {
	return func() tea.Msg {
		return actionMsg{name: name, err: op()}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case spinner.TickMsg:
		if m.monitoring || m.quitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case startedMsg:
		if m.quitting {
			return m, nil
		}
		if msg.err != nil {
			m.lastErr = msg.err
			return m, m.retryCmd()
		}
		m.monitoring = true
		m.lastErr = nil
		return m, m.readCmd()

	case retryMsg:
		if m.quitting {
			return m, nil
		}
		return m, tea.Batch(m.spinner.Tick, m.startCmd())

	case readingMsg:
		if m.quitting {
			return m, nil
		}
		if msg.err != nil {
			m.lastErr = msg.err
			if dmm.IsTimeout(msg.err) || dmm.IsTransportError(msg.err) {
				m.monitoring = false
				return m, m.retryCmd()
			}
			return m, m.readCmd()
		}
		m.lastErr = nil
		m.latest = msg.m
		m.latestAt = msg.at
		m.readings++
		if v, ok := primaryValue(msg.m); ok {
			m.stats.add(v)
		}
		return m, m.readCmd()

	case actionMsg:
		m.status = actionStatus(msg.name, msg.err)

	case minMaxMsg:
		if msg.err == nil {
			m.minMax = msg.on
		}
		name := "Min/max off"
		if msg.on {
			name = "Min/max on"
		}
		m.status = actionStatus(name, msg.err)

	case stoppedMsg:
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.quitting || !m.monitoring {
			m.quitting = true
			return m, tea.Quit
		}
		m.quitting = true
		m.status = "Stopping live reporting..."
		return m, m.stopCmd()

	case m.quitting:
		return m, nil

	case key.Matches(msg, m.keys.Hold):
		m.status = "Toggling hold..."
		return m, m.actionCmd("Hold toggled", m.meter.ToggleHold)

	case key.Matches(msg, m.keys.MinMax):
		on := !m.minMax
		meter := m.meter
		m.status = "Switching min/max..."
		return m, func() tea.Msg {
			return minMaxMsg{on: on, err: meter.SetMinMaxMode(on)}
		}

	case key.Matches(msg, m.keys.Save):
		m.status = "Saving reading..."
		return m, m.actionCmd("Reading saved", m.meter.SaveMeasurement)

	case key.Matches(msg, m.keys.Reset):
		m.stats = stats{}
		m.status = "Statistics reset"

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func actionStatus(name string, err error) string {
	if err != nil {
		return name + " failed: " + dmm.GetShortErrorMessage(err)
	}
	return name
}

// primaryValue returns the value shown largest on the meter's display
func primaryValue(m protocol.Measurement) (protocol.Value, bool) {
	switch m := m.(type) {
	case *protocol.NormalMeasurement:
		return m.Main, true
	case *protocol.RelativeMeasurement:
		return m.Relative, true
	case *protocol.MinMaxMeasurement:
		return m.Main, true
	case *protocol.PeakMeasurement:
		return m.Max, true
	}
	return protocol.Value{}, false
}

// formatStat renders a statistic to six significant digits
func formatStat(v float32, unit protocol.UnitExp) string {
	return strconv.FormatFloat(float64(v), 'g', 6, 32) + " " + unit.String()
}

// View renders the live view
func (m Model) View() string {
	width := max(m.width, ui.MinTerminalWidth)

	lines := []string{ui.TitleStyle.Render("UT181A LIVE"), ""}

	switch {
	case m.latest == nil:
		lines = append(lines, m.spinner.View()+" Waiting for the meter...")
	default:
		lines = append(lines, ui.FormatMeasurement(m.latest), "")
		summary := []string{
			ui.KeyStyle.Render("readings ") + ui.ValueStyle.Render(strconv.Itoa(m.readings)),
			ui.KeyStyle.Render("last ") + ui.ValueStyle.Render(m.latestAt.Format("15:04:05")),
		}
		if m.stats.count > 0 {
			summary = append(summary,
				ui.KeyStyle.Render("low ")+ui.ValueStyle.Render(formatStat(m.stats.min, m.stats.unit)),
				ui.KeyStyle.Render("high ")+ui.ValueStyle.Render(formatStat(m.stats.max, m.stats.unit)),
			)
		}
		lines = append(lines, strings.Join(summary, "   "))
	}

	if m.minMax {
		lines = append(lines, ui.FlagStyle.Render("MIN/MAX recording on the meter"))
	}
	if m.status != "" {
		lines = append(lines, "", ui.MutedStyle.Render(m.status))
	}
	if m.lastErr != nil {
		lines = append(lines, ui.ErrorMessageStyle.Render(fmt.Sprintf("%s (retrying)", dmm.GetShortErrorMessage(m.lastErr))))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.PrimaryColor).
		Width(width-2).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))

	return box + "\n" + m.help.View(m.keys) + "\n"
}
