package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/getair-community/ccapi/internal/device"
)

// DefaultRefreshInterval is how often the watch screen polls the cloud.
const DefaultRefreshInterval = 10 * time.Second

// requestTimeout bounds a single fetch or push triggered from the UI.
const requestTimeout = 15 * time.Second

// ventilationModes lists the selectable operating modes in cycle order.
var ventilationModes = []string{
	"ventilate",
	"ventilate_hr",
	"ventilate_inv",
	"night",
	"auto",
	"rush",
}

// Message types for async operations
type tickMsg time.Time

type refreshDoneMsg struct {
	ok bool
}

type applyDoneMsg struct {
	ok bool
}

// watchKeyMap defines key bindings for the watch screen
type watchKeyMap struct {
	SpeedUp   key.Binding
	SpeedDown key.Binding
	Mode      key.Binding
	Profile   key.Binding
	Apply     key.Binding
	Refresh   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.SpeedUp, k.Mode, k.Apply, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.SpeedUp, k.SpeedDown, k.Mode, k.Profile},
		{k.Apply, k.Refresh, k.Help, k.Quit},
	}
}

// WatchModel is the live telemetry and control screen for a single device.
type WatchModel struct {
	Device *device.Device

	Width  int
	Height int

	Interval    time.Duration
	Refreshing  bool
	Applying    bool
	LastRefresh time.Time
	StatusMsg   string
	ErrMsg      string

	Spinner spinner.Model
	Help    help.Model
	Keys    watchKeyMap
}

// NewWatchModel creates a watch screen bound to a device mirror.
func NewWatchModel(dev *device.Device, interval time.Duration) WatchModel {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	keys := watchKeyMap{
		SpeedUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "speed up"),
		),
		SpeedDown: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "speed down"),
		),
		Mode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "next mode"),
		),
		Profile: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "next profile"),
		),
		Apply: key.NewBinding(
			key.WithKeys("enter", "a"),
			key.WithHelp("enter", "apply"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}

	return WatchModel{
		Device:   dev,
		Interval: interval,
		Spinner:  s,
		Help:     help.New(),
		Keys:     keys,
	}
}

// Init starts the spinner and the poll loop.
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.Spinner.Tick, m.refreshCmd(), m.tickCmd())
}

func (m WatchModel) tickCmd() tea.Cmd {
	return tea.Tick(m.Interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m WatchModel) refreshCmd() tea.Cmd {
	dev := m.Device
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return refreshDoneMsg{ok: dev.Fetch(ctx)}
	}
}

func (m WatchModel) applyCmd() tea.Cmd {
	dev := m.Device
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return applyDoneMsg{ok: dev.Push(ctx)}
	}
}

// Update handles messages and updates the model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tickMsg:
		cmds := []tea.Cmd{m.tickCmd()}
		if !m.Refreshing && !m.Applying {
			m.Refreshing = true
			cmds = append(cmds, m.refreshCmd())
		}
		return m, tea.Batch(cmds...)

	case refreshDoneMsg:
		m.Refreshing = false
		if msg.ok {
			m.LastRefresh = time.Now()
			m.ErrMsg = ""
		} else {
			m.ErrMsg = "refresh failed"
		}
		return m, nil

	case applyDoneMsg:
		m.Applying = false
		if msg.ok {
			m.StatusMsg = "changes applied"
			m.ErrMsg = ""
			m.Refreshing = true
			return m, m.refreshCmd()
		}
		m.ErrMsg = "apply failed, changes kept"
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m WatchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Help):
		m.Help.ShowAll = !m.Help.ShowAll
		return m, nil

	case key.Matches(msg, m.Keys.SpeedUp):
		speed := m.Device.Speed() + 1
		if speed > 4 {
			speed = 4
		}
		m.Device.SetSpeed(speed)
		m.StatusMsg = ""
		return m, nil

	case key.Matches(msg, m.Keys.SpeedDown):
		speed := m.Device.Speed() - 1
		if speed < 0 {
			speed = 0
		}
		m.Device.SetSpeed(speed)
		m.StatusMsg = ""
		return m, nil

	case key.Matches(msg, m.Keys.Mode):
		m.Device.SetMode(nextMode(m.Device.Mode()))
		m.StatusMsg = ""
		return m, nil

	case key.Matches(msg, m.Keys.Profile):
		profile := m.Device.ActiveTimeProfile() + 1
		if profile > 10 {
			profile = 1
		}
		m.Device.SetActiveTimeProfile(profile)
		m.StatusMsg = ""
		return m, nil

	case key.Matches(msg, m.Keys.Apply):
		if m.Applying || !m.Device.Pending() {
			return m, nil
		}
		m.Applying = true
		m.StatusMsg = ""
		return m, m.applyCmd()

	case key.Matches(msg, m.Keys.Refresh):
		if m.Refreshing {
			return m, nil
		}
		m.Refreshing = true
		return m, m.refreshCmd()
	}

	return m, nil
}

// nextMode returns the mode following current in the cycle order.
func nextMode(current string) string {
	for i, mode := range ventilationModes {
		if mode == current {
			return ventilationModes[(i+1)%len(ventilationModes)]
		}
	}
	return ventilationModes[0]
}

// View renders the watch screen
func (m WatchModel) View() string {
	var b strings.Builder

	name := m.Device.Name()
	if name == "" {
		name = m.Device.ID()
	}
	b.WriteString(TitleStyle.Render(fmt.Sprintf("%s  (%s)", name, m.Device.ID())))
	b.WriteString("\n")

	var panel strings.Builder
	row := func(label, value string) {
		panel.WriteString(LabelStyle.Render(label))
		panel.WriteString(value)
		panel.WriteString("\n")
	}

	row("Temperature", ValueStyle.Render(fmt.Sprintf("%.1f °C", m.Device.Temperature())))
	row("Humidity", ValueStyle.Render(fmt.Sprintf("%.0f %%", m.Device.Humidity())))
	row("Outdoor temperature", ValueStyle.Render(fmt.Sprintf("%.1f °C", m.Device.OutdoorTemperature())))
	row("Outdoor humidity", ValueStyle.Render(fmt.Sprintf("%.0f %%", m.Device.OutdoorHumidity())))
	row("Air pressure", ValueStyle.Render(fmt.Sprintf("%.0f hPa", m.Device.AirPressure())))
	row("Air quality", ValueStyle.Render(fmt.Sprintf("%.0f", m.Device.AirQuality())))
	panel.WriteString("\n")
	row("Speed", ControlStyle.Render(fmt.Sprintf("%.0f", m.Device.Speed())))
	row("Mode", ControlStyle.Render(m.Device.Mode()))
	row("Time profile", ControlStyle.Render(fmt.Sprintf("%d", m.Device.ActiveTimeProfile())))
	row("Target temperature", ValueStyle.Render(fmt.Sprintf("%.1f °C", m.Device.TargetTemp())))
	row("Humidity target", ValueStyle.Render(m.Device.TargetHumidityLevel()))

	b.WriteString(InfoBoxStyle.Render(panel.String()))
	b.WriteString("\n")

	var status []string
	switch {
	case m.Applying:
		status = append(status, m.Spinner.View()+" applying...")
	case m.Refreshing:
		status = append(status, m.Spinner.View()+" refreshing...")
	case !m.LastRefresh.IsZero():
		status = append(status, fmt.Sprintf("updated %s", m.LastRefresh.Format("15:04:05")))
	}
	if m.Device.Pending() {
		status = append(status, PendingStyle.Render("● unsaved changes (enter to apply)"))
	}
	if m.StatusMsg != "" {
		status = append(status, m.StatusMsg)
	}
	if m.ErrMsg != "" {
		status = append(status, ErrorStyle.Render(m.ErrMsg))
	}
	b.WriteString(StatusBarStyle.Render(strings.Join(status, "  ")))
	b.WriteString("\n")

	b.WriteString(HelpStyle.Render(m.Help.View(m.Keys)))

	return b.String()
}
