// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Algoryn

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/algoryn-nl/reachy-healthy-heartrate-breathing-app/pkg/mmwave"
	"github.com/algoryn-nl/reachy-healthy-heartrate-breathing-app/pkg/vitals"
)

var monitorShowAll bool

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live telemetry dashboard",
	Long: `Show a live dashboard of the sensor's telemetry.

The dashboard tracks the latest presence state, bio readings, target
sightings, and ambient light, plus frame and error counters. A scrollable
event log at the bottom shows recent traffic; by default only dropped
frames are logged, --show-all logs every event.

Press 'q' to quit, arrow keys or PgUp/PgDn to scroll the log.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorShowAll, "show-all", false, "Log every event (not just dropped frames)")
}

// monitorLogEntry is one line of the scrollable event log.
type monitorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// Messages sent into the TUI from the serial reader goroutine.
type monitorTickMsg time.Time
type monitorEventMsg struct {
	seq uint16
	evt mmwave.Event
}
type monitorDropMsg struct {
	reason string
}
type monitorSyncMsg struct{}
type monitorReadErrMsg struct {
	err error
}

type monitorModel struct {
	connInfo      string
	showAll       bool
	synchronized  bool
	frames        uint64
	dropped       uint64
	framesLastSec uint64
	frameRate     float64
	lastState     *mmwave.State
	lastBio       *mmwave.Bio
	lastTargets   *mmwave.Targets
	lastLight     *mmwave.Light
	lastHello     *mmwave.Hello
	log           []monitorLogEntry
	maxLogEntries int
	logView       viewport.Model
	followLog     bool
	width         int
	height        int
	readErr       error
	quitting      bool
}

func initialMonitorModel(connInfo string, showAll bool) monitorModel {
	vp := viewport.New(80, 10)
	return monitorModel{
		connInfo:      connInfo,
		showAll:       showAll,
		maxLogEntries: 200,
		logView:       vp,
		followLog:     true,
		width:         80,
		height:        24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		monitorTickCmd(),
		tea.EnterAltScreen,
	)
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "end":
			m.followLog = true
			m.logView.GotoBottom()
			return m, nil
		case "up", "down", "pgup", "pgdown", "home":
			// Manual scrolling stops follow mode until "end" resumes it.
			m.followLog = false
			var cmd tea.Cmd
			m.logView, cmd = m.logView.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLogView()

	case monitorTickMsg:
		m.frameRate = float64(m.frames - m.framesLastSec)
		m.framesLastSec = m.frames
		return m, monitorTickCmd()

	case monitorSyncMsg:
		m.synchronized = true
		m.addLogEntry("synchronized", false)

	case monitorReadErrMsg:
		m.readErr = msg.err
		m.addLogEntry(fmt.Sprintf("READ ERROR: %v", msg.err), true)

	case monitorDropMsg:
		m.dropped++
		if m.synchronized {
			m.addLogEntry(fmt.Sprintf("DROPPED: %s", msg.reason), true)
		}

	case monitorEventMsg:
		m.frames++
		switch evt := msg.evt.(type) {
		case mmwave.State:
			m.lastState = &evt
		case mmwave.Bio:
			m.lastBio = &evt
		case mmwave.Targets:
			m.lastTargets = &evt
		case mmwave.Light:
			m.lastLight = &evt
		case mmwave.Hello:
			m.lastHello = &evt
			if !m.showAll {
				m.addLogEntry(mmwave.FormatEvent(msg.seq, evt), false)
			}
		}
		if m.showAll {
			m.addLogEntry(mmwave.FormatEvent(msg.seq, msg.evt), false)
		}
	}

	return m, nil
}

func (m *monitorModel) resizeLogView() {
	logHeight := m.height - 16
	if logHeight < 5 {
		logHeight = 5
	}
	m.logView.Width = m.width - 4
	m.logView.Height = logHeight
	m.refreshLogView()
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	m.log = append(m.log, monitorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.log) > m.maxLogEntries {
		m.log = m.log[len(m.log)-m.maxLogEntries:]
	}
	m.refreshLogView()
}

var (
	monitorTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("12")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	monitorHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	monitorLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("12")).
				Bold(true)

	monitorValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("10"))

	monitorErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("9")).
				Bold(true)

	monitorWarnStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11"))

	monitorBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func (m *monitorModel) refreshLogView() {
	var b strings.Builder
	if len(m.log) == 0 {
		b.WriteString(monitorHeaderStyle.Render("  (no events yet)"))
	}
	for _, entry := range m.log {
		timestamp := entry.timestamp.Format("15:04:05.000")
		style := monitorValueStyle
		if entry.isError {
			style = monitorErrorStyle
		}
		b.WriteString(fmt.Sprintf("%s %s\n",
			monitorHeaderStyle.Render(timestamp),
			style.Render(entry.message),
		))
	}
	m.logView.SetContent(b.String())
	if m.followLog {
		m.logView.GotoBottom()
	}
}

func optFloat(v *float64, format string) string {
	if v == nil {
		return "--"
	}
	return fmt.Sprintf(format, *v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(monitorTitleStyle.Render("MMWAVE - LIVE TELEMETRY"))
	s.WriteString("\n")
	s.WriteString(monitorHeaderStyle.Render(fmt.Sprintf(
		"Connection: %s | Press 'q' to quit, arrows to scroll, 'end' to follow", m.connInfo)))
	s.WriteString("\n\n")

	if !m.synchronized {
		s.WriteString(monitorWarnStyle.Render("waiting for first valid frame..."))
		s.WriteString("\n\n")
	}
	if m.readErr != nil {
		s.WriteString(monitorErrorStyle.Render(fmt.Sprintf("read error: %v", m.readErr)))
		s.WriteString("\n\n")
	}

	// Counters
	counters := fmt.Sprintf("%s %s   %s %s   %s %s",
		monitorLabelStyle.Render("Frames:"), monitorValueStyle.Render(fmt.Sprintf("%d", m.frames)),
		monitorLabelStyle.Render("Dropped:"), func() string {
			if m.dropped > 0 {
				return monitorErrorStyle.Render(fmt.Sprintf("%d", m.dropped))
			}
			return monitorValueStyle.Render("0")
		}(),
		monitorLabelStyle.Render("Rate:"), monitorValueStyle.Render(fmt.Sprintf("%.0f frames/s", m.frameRate)),
	)
	if m.lastHello != nil {
		counters += fmt.Sprintf("   %s %s",
			monitorLabelStyle.Render("Firmware:"),
			monitorValueStyle.Render(fmt.Sprintf("proto %d features 0x%04X",
				m.lastHello.ProtoVersion, m.lastHello.FeatureBits)))
	}
	s.WriteString(monitorBoxStyle.Render(counters))
	s.WriteString("\n\n")

	// Presence and vitals panels side by side
	presence := strings.Builder{}
	presence.WriteString(monitorLabelStyle.Render("Presence") + "\n")
	if m.lastState == nil {
		presence.WriteString(monitorHeaderStyle.Render("(no state yet)"))
	} else {
		st := m.lastState
		presence.WriteString(fmt.Sprintf("%s %s\n",
			monitorLabelStyle.Render("State:"), monitorValueStyle.Render(st.State)))
		presence.WriteString(fmt.Sprintf("%s %s   %s %d\n",
			monitorLabelStyle.Render("Pose:"), monitorValueStyle.Render(st.Pose),
			monitorLabelStyle.Render("Targets:"), st.NTargets))
		presence.WriteString(fmt.Sprintf("%s %s cm   %s %s",
			monitorLabelStyle.Render("Dist:"), monitorValueStyle.Render(optFloat(st.DistCM, "%.1f")),
			monitorLabelStyle.Render("Human:"), yesNo(st.Human != 0)))
	}

	vitalsPanel := strings.Builder{}
	vitalsPanel.WriteString(monitorLabelStyle.Render("Vitals") + "\n")
	if m.lastBio == nil {
		vitalsPanel.WriteString(monitorHeaderStyle.Render("(no bio yet)"))
	} else {
		bio := m.lastBio
		hrStyle := monitorValueStyle
		if bio.Valid == 0 {
			hrStyle = monitorWarnStyle
		}
		vitalsPanel.WriteString(fmt.Sprintf("%s %s bpm   %s %s bpm\n",
			monitorLabelStyle.Render("HR:"), hrStyle.Render(optFloat(bio.HR, "%.1f")),
			monitorLabelStyle.Render("BR:"), hrStyle.Render(optFloat(bio.BR, "%.1f"))))
		vitalsPanel.WriteString(fmt.Sprintf("%s %s   %s %s",
			monitorLabelStyle.Render("Allowed:"), yesNo(bio.Allowed != 0),
			monitorLabelStyle.Render("Valid:"), yesNo(bio.Valid != 0)))
	}
	if m.lastLight != nil && m.lastLight.Lux != nil {
		vitalsPanel.WriteString(fmt.Sprintf("\n%s %s lux",
			monitorLabelStyle.Render("Light:"), monitorValueStyle.Render(fmt.Sprintf("%.1f", *m.lastLight.Lux))))
	}

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		monitorBoxStyle.Render(presence.String()),
		" ",
		monitorBoxStyle.Render(vitalsPanel.String()),
	)
	s.WriteString(panels)
	s.WriteString("\n\n")

	// Targets panel
	if m.lastTargets != nil {
		targets := strings.Builder{}
		targets.WriteString(monitorLabelStyle.Render(fmt.Sprintf("Targets (%d)", m.lastTargets.N)))
		targets.WriteString("\n")
		if m.lastTargets.Focus != nil {
			f := m.lastTargets.Focus
			targets.WriteString(fmt.Sprintf("%s cluster %d  r=%.2fm  bearing=%.1f°\n",
				monitorLabelStyle.Render("Focus:"), f.Cluster, f.R, f.Bearing))
		}
		for i, t := range m.lastTargets.List {
			targets.WriteString(fmt.Sprintf("  #%d cluster %d  x=%.2f y=%.2f r=%.2fm  v=%.1f\n",
				i, t.Cluster, t.X, t.Y, t.R, t.V))
		}
		if m.lastTargets.Truncated {
			targets.WriteString(monitorWarnStyle.Render("  (list truncated)"))
		}
		s.WriteString(monitorBoxStyle.Render(strings.TrimRight(targets.String(), "\n")))
		s.WriteString("\n\n")
	}

	// Event log viewport
	s.WriteString(monitorLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")
	s.WriteString(monitorBoxStyle.Width(m.width - 4).Render(m.logView.View()))

	return s.String()
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := openResolvedConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	m := initialMonitorModel(connInfo, monitorShowAll)
	p := tea.NewProgram(m)

	go monitorReader(conn, p)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// monitorReader feeds decoded events from the serial port into the TUI.
func monitorReader(conn vitals.Transport, p *tea.Program) {
	var buffer []byte
	chunk := make([]byte, 256)
	synchronized := false

	for {
		n, err := conn.Read(chunk)
		if err != nil {
			p.Send(monitorReadErrMsg{err: err})
			return
		}
		if n == 0 {
			continue
		}

		buffer = append(buffer, chunk[:n]...)
		for _, encoded := range mmwave.ExtractFrames(&buffer) {
			frame, err := mmwave.ParseFrame(encoded)
			if err != nil {
				p.Send(monitorDropMsg{reason: err.Error()})
				continue
			}
			if frame.Version != mmwave.ProtoVersion {
				p.Send(monitorDropMsg{reason: fmt.Sprintf("unsupported version %d", frame.Version)})
				continue
			}
			evt, err := mmwave.DecodeEvent(frame.MsgType, frame.Payload)
			if err != nil {
				p.Send(monitorDropMsg{reason: err.Error()})
				continue
			}
			if !synchronized {
				synchronized = true
				p.Send(monitorSyncMsg{})
			}
			p.Send(monitorEventMsg{seq: frame.Seq, evt: evt})
		}
	}
}
