package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/nuzDop/limitless-storage/internal/ata"
)

//nolint:gochecknoglobals
var (
	// titleStyle defines the style for a panel's title.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	// borderStyle defines the style for a panel's borders.
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))

	// infoStyle defines the style for a panel's text.
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	// helpStyle defines the style for the help panel's text.
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(0, 1)
)

// DriveStatsMsg is a [tea.Msg] containing a sampled [ata.Stats] snapshot.
type DriveStatsMsg struct {
	t     time.Time
	stats ata.Stats
}

// TeaModel is the principal [tea.Model] for the command-line user interface.
type TeaModel struct {
	width  int
	height int

	cancel context.CancelFunc

	uiHandler  *Handler
	ataHandler *ata.Handler

	fullWidthWithBorders  int
	splitWidthWithBorders int

	mounts []MountInfo
	stats  ata.Stats

	logsViewport viewport.Model
	logs         []string

	ready bool
}

// NewTeaModel returns an initial new [TeaModel].
//
//nolint:mnd
func NewTeaModel(uiHandler *Handler, ataHandler *ata.Handler, mounts []MountInfo, cancel context.CancelFunc) TeaModel {
	logsViewport := viewport.New(80, 20)

	return TeaModel{
		uiHandler:    uiHandler,
		ataHandler:   ataHandler,
		mounts:       mounts,
		logsViewport: logsViewport,
		logs:         make([]string, 0, 100),
		cancel:       cancel,
		ready:        false,
	}
}

// Init initializes the model within a [tea.Program]. Readiness is signaled
// here rather than on the first [tea.WindowSizeMsg]: a size report never
// arrives when the output is not a terminal, and the daemon must not block
// on one.
func (m TeaModel) Init() tea.Cmd {
	m.uiHandler.Ready.Store(true)

	return tea.Batch(
		tea.EnterAltScreen,
		updateDriveStats(m.ataHandler),
	)
}

// updateDriveStats produces a [tea.Cmd] for later scheduling in a
// [tea.Program]. When executed, a [DriveStatsMsg] with the driver's counter
// snapshot is returned. The counters are atomics, so sampling them from the
// program's goroutine is safe while I/O is in flight.
func updateDriveStats(a *ata.Handler) tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg { //nolint:mnd
		return DriveStatsMsg{
			t:     t,
			stats: a.Stats(),
		}
	})
}

// Update is the principal message handling method of the model.
// It sets the internal state of the model, for later rendering.
//
//nolint:mnd,ireturn
func (m TeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()

			return m, tea.Quit
		case "q":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		m.fullWidthWithBorders = m.width - 2
		m.splitWidthWithBorders = (m.width / 2) - 2

		// Upper panels take about 40% of the height.
		upperHeight := m.height * 2 / 5
		lowerHeight := m.height - upperHeight

		// Viewport height: lower section minus borders and title.
		viewportHeight := lowerHeight - 3

		m.logsViewport.Width = m.fullWidthWithBorders
		m.logsViewport.Height = viewportHeight

		if len(m.logs) > 0 {
			logs := lipgloss.NewStyle().
				Width(m.logsViewport.Width).
				Render(strings.TrimSuffix(strings.Join(m.logs, ""), "\n"))

			m.logsViewport.SetContent(logs)
			m.logsViewport.GotoBottom()
		}

		// ready gates layout-dependent rendering only; the handler's
		// readiness flag was already raised in [TeaModel.Init].
		m.ready = true

	case DriveStatsMsg:
		m.stats = msg.stats

		// Queue the next sample.
		cmds = append(cmds, updateDriveStats(m.ataHandler))

	case LogMsg:
		logMsg := string(msg)

		if len(m.logs) >= 100 {
			m.logs = m.logs[1:]
		}

		m.logs = append(m.logs, logMsg)

		logs := lipgloss.NewStyle().
			Width(m.logsViewport.Width).
			Render(strings.TrimSuffix(strings.Join(m.logs, ""), "\n"))

		m.logsViewport.SetContent(logs)
		m.logsViewport.GotoBottom()
	}

	// Handle viewport updates.
	m.logsViewport, cmd = m.logsViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View is the principal rendering function of the model.
func (m TeaModel) View() string {
	if !m.ready {
		return "Loading the GUI..."
	}

	var s strings.Builder

	drivesView := m.formatDrivesView()
	mountsView := m.formatMountsView()

	upperSection := lipgloss.JoinHorizontal(
		lipgloss.Top,
		borderStyle.Width(m.splitWidthWithBorders).Render(drivesView),
		borderStyle.Width(m.splitWidthWithBorders).Render(mountsView),
	)

	logsSection := borderStyle.
		Width(m.fullWidthWithBorders).
		Render(
			lipgloss.JoinVertical(
				lipgloss.Left,
				titleStyle.Width(m.fullWidthWithBorders).Render("Storage Log"),
				lipgloss.NewStyle().Width(m.fullWidthWithBorders).Render(m.logsViewport.View()),
			),
		)

	helpSection := helpStyle.
		Width(m.fullWidthWithBorders).
		Render("q: quit gui • ctrl+c: quit daemon")

	s.WriteString(lipgloss.JoinVertical(
		lipgloss.Left,
		upperSection,
		logsSection,
		helpSection,
	))

	return s.String()
}

// formatDrivesView renders the detected drives and the live I/O counters.
func (m TeaModel) formatDrivesView() string {
	var details strings.Builder

	devices := m.ataHandler.Devices()
	if len(devices) == 0 {
		details.WriteString("No drives detected.\n")
	}

	for _, dev := range devices {
		position := "master"
		if dev.IsSlave() {
			position = "slave"
		}

		mode := "LBA28"
		if dev.LBA48 {
			mode = "LBA48"
		}

		details.WriteString(fmt.Sprintf(
			"ata%d: %s (%s)\n"+
				"      %s %s, %s, %d sectors\n",
			dev.ID,
			dev.Model,
			dev.Serial,
			dev.Channel.Name,
			position,
			humanize.Bytes(dev.Capacity()),
			dev.Sectors,
		))
		details.WriteString("      " + mode + "\n")
	}

	details.WriteString(fmt.Sprintf(
		"\nReads: %d (%s), Errors: %d\n"+
			"Writes: %d (%s), Errors: %d\n",
		m.stats.Reads,
		humanize.Bytes(m.stats.BytesRead),
		m.stats.ReadErrors,
		m.stats.Writes,
		humanize.Bytes(m.stats.BytesWritten),
		m.stats.WriteErrors,
	))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Width(m.splitWidthWithBorders).Render("Drives"),
		"", // Empty line for spacing.
		infoStyle.Width(m.splitWidthWithBorders).Render(details.String()),
	)
}

// formatMountsView renders the mount table.
func (m TeaModel) formatMountsView() string {
	var details strings.Builder

	if len(m.mounts) == 0 {
		details.WriteString("No mounted filesystems.\n")
	}

	for _, mnt := range m.mounts {
		details.WriteString(fmt.Sprintf(
			"%s on %s (%s)\n",
			mnt.Device,
			mnt.MountPoint,
			mnt.Type,
		))
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Width(m.splitWidthWithBorders).Render("Mounts"),
		"", // Empty line for spacing.
		infoStyle.Width(m.splitWidthWithBorders).Render(details.String()),
	)
}
