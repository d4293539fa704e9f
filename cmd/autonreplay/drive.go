package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/autonreplay/pkg/clock"
	"github.com/gwillem/autonreplay/pkg/replay"
	"github.com/gwillem/autonreplay/pkg/robot"
	"github.com/gwillem/autonreplay/pkg/teleop"
)

type DriveCommand struct {
	Sim      bool `long:"sim" description:"Drive a simulated robot instead of the hardware"`
	Hz       int  `long:"hz" description:"Control loop frequency (default from config)"`
	Deadband int  `long:"deadband" default:"8" description:"Stick values below this are treated as zero"`
}

const (
	headerHeight = 2  // title + blank line
	legendHeight = 2  // legend row + blank
	footerHeight = 13 // console + log box
	maxLogs      = 5  // number of log messages to show
	maxHistory   = 4  // console entries shown next to the display
	borderSize   = 2  // chart border
	stickStep    = 32
)

// Series colors
var seriesColors = map[string]string{
	"left":    "196", // red
	"right":   "46",  // green
	"heading": "51",  // cyan
}

var seriesOrder = []string{"left", "right", "heading"}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	badgeStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	screenStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	historyStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Foreground(lipgloss.Color("241"))
)

// keyPad is a gamepad driven from the keyboard. Stick values step with
// each key press; buttons toggle between held and released.
type keyPad struct {
	mu      sync.Mutex
	left    int
	right   int
	buttons replay.Buttons
}

func (p *keyPad) Read(ctx context.Context) (replay.Input, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return replay.Input{Left: p.left, Right: p.right, Buttons: p.buttons}, nil
}

func (p *keyPad) nudge(left, right int) {
	p.mu.Lock()
	p.left = robot.ClampVelocity(p.left + left)
	p.right = robot.ClampVelocity(p.right + right)
	p.mu.Unlock()
}

func (p *keyPad) centre() {
	p.mu.Lock()
	p.left, p.right = 0, 0
	p.mu.Unlock()
}

func (p *keyPad) toggle(b replay.Button) {
	p.mu.Lock()
	p.buttons ^= replay.PackButtons(b)
	p.mu.Unlock()
}

type driveModel struct {
	ctrl     *teleop.Controller
	console  *teleop.Console
	pad      *keyPad
	chart    *streamlinechart.Model
	sim      bool
	width    int
	height   int
	logs     []string
	state    teleop.State
	quitting bool
}

func (m *driveModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the controller
type stateMsg teleop.State
type logMsg string

func waitForState(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *driveModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 16 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - footerHeight - borderSize
	if height < 8 {
		height = 8
	}
	return width, height
}

func (m *driveModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialDriveModel(ctrl *teleop.Controller, console *teleop.Console, pad *keyPad, sim bool) driveModel {
	chart := streamlinechart.New(80, 16,
		streamlinechart.WithYRange(-180, 180),
	)
	for _, name := range seriesOrder {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(seriesColors[name]))
		chart.SetDataSetStyles(name, runes.ThinLineStyle, style)
	}

	return driveModel{
		ctrl:    ctrl,
		console: console,
		pad:     pad,
		chart:   &chart,
		sim:     sim,
	}
}

func (m driveModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
	)
}

func (m driveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "w":
			m.pad.nudge(stickStep, 0)
		case "s":
			m.pad.nudge(-stickStep, 0)
		case "i":
			m.pad.nudge(0, stickStep)
		case "k":
			m.pad.nudge(0, -stickStep)
		case " ":
			m.pad.centre()
		case "enter":
			m.ctrl.ToggleRecording()
		case "p":
			m.ctrl.Playback()
		case "c":
			m.ctrl.ClearRecording()
		case "1", "2", "3", "4", "5", "6", "7":
			m.pad.toggle(replay.AllButtons()[key[0]-'1'])
		}
		return m, nil

	case stateMsg:
		m.state = teleop.State(msg)
		if m.state.Error == nil {
			m.chart.PushDataSet("left", float64(m.state.Left))
			m.chart.PushDataSet("right", float64(m.state.Right))
			m.chart.PushDataSet("heading", replay.Wrap180(m.state.Heading))
			m.chart.DrawAll()
		}
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)
	}

	return m, nil
}

func (m driveModel) View() string {
	if m.quitting {
		return "Manual control stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("autonreplay drive"))
	sb.WriteString(fmt.Sprintf(" - %d Hz", m.ctrl.Hz()))
	if m.sim {
		sb.WriteString(statusStyle.Render("  [sim]"))
	}
	sb.WriteString("  ")
	sb.WriteString(renderBadge(m.state.Status))
	sb.WriteString(statusStyle.Render(fmt.Sprintf("  L %4d  R %4d  hdg %5.1f  %s",
		m.state.Input.Left, m.state.Input.Right, m.state.Heading, m.state.Input.Buttons)))
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	// Operator display
	sb.WriteString(renderConsole(m.console, maxHistory))
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4).
		Foreground(lipgloss.Color("9")) // bright red

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("w/s i/k sticks, space centre, 1-7 buttons, enter record, p play, c clear, q quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

// renderConsole draws the two display lines next to the newest console
// history, rumbles marked with '~'.
func renderConsole(c *teleop.Console, n int) string {
	lines := c.Lines()
	screen := screenStyle.Render(lines[0] + "\n" + lines[1])

	entries := c.Recent(n)
	if len(entries) == 0 {
		return screen
	}
	rows := make([]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, e.String())
	}
	history := historyStyle.Render(strings.Join(rows, "\n"))
	return lipgloss.JoinHorizontal(lipgloss.Top, screen, " ", history)
}

func renderBadge(st replay.Status) string {
	label := st.Label()
	if label == "" {
		return ""
	}
	var bg string
	switch st.State {
	case replay.Recording:
		bg = "160" // red
	case replay.Playing:
		bg = "28" // green
	default:
		bg = "238"
	}
	return badgeStyle.Background(lipgloss.Color(bg)).Foreground(lipgloss.Color("15")).Render(label)
}

func renderLegend() string {
	var items []string
	for _, name := range seriesOrder {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(seriesColors[name])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+name)
	}
	return strings.Join(items, "  ")
}

func (c *DriveCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.Sim)
	if err != nil {
		return err
	}

	clk := clock.NewRealClock()
	hw, release, err := openHardware(cfg, c.Sim, clk)
	if err != nil {
		return err
	}
	defer release()

	hz := c.Hz
	if hz <= 0 {
		hz = cfg.Recording.Hz
	}

	pad := &keyPad{}
	console := teleop.NewConsole(clk, teleop.DefaultHistory, nil)

	// The session logs through the controller, created right after it.
	var ctrl *teleop.Controller
	session, err := replay.NewSession(replay.Config{
		Actuators: hw,
		Heading:   hw,
		Gamepad:   pad,
		Feedback:  console,
		Store:     replay.FileStore{Path: cfg.Recording.Path},
		Clock:     clk,
		Gain:      cfg.Recording.CorrectionGain,
		Logf:      func(format string, args ...any) { ctrl.Logf(format, args...) },
	})
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	ctrl, err = teleop.NewController(teleop.Config{
		Actuators: hw,
		Heading:   hw,
		Gamepad:   pad,
		Session:   session,
		Hz:        hz,
		Deadband:  c.Deadband,
	})
	if err != nil {
		log.Fatalf("Failed to create controller: %v", err)
	}

	// Start controller in background
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ctrl.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("Controller error: %v", err)
		}
	}()

	// Run TUI
	p := tea.NewProgram(initialDriveModel(ctrl, console, pad, c.Sim), tea.WithAltScreen())
	_, runErr := p.Run()
	cancel()
	<-done
	if runErr != nil {
		log.Fatalf("Error running program: %v", runErr)
	}

	if session.FrameCount() > 0 {
		fmt.Printf("%d frames in memory (%s)\n", session.FrameCount(), session.Duration())
	}
	return nil
}
