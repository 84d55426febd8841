// Package tui renders a live terminal monitor for a running tilecraft
// instance, fed by the HTTP API's health, source and event endpoints.
package tui

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tilecraft/tilecraft/internal/event"
)

// --- Styles ---

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD"))

	stateReady   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	stateLoading = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
	stateError   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	stateIdle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1)
)

// --- Types ---

type sourceRow struct {
	ID      string  `json:"id"`
	Type    string  `json:"type"`
	State   string  `json:"state"`
	MinZoom float64 `json:"minzoom"`
	MaxZoom float64 `json:"maxzoom"`

	tilesLoaded int
	tileErrors  int
	lastEvent   time.Time
}

type Model struct {
	apiURL string
	token  string

	width  int
	height int

	sources   map[string]*sourceRow
	order     []string
	eventLog  []event.Event
	hubEvents chan event.Event

	health struct {
		Status        string
		UptimeSeconds int64
		SourcesLoaded int
	}

	sourceTable table.Model
}

type eventMsg event.Event
type healthMsg struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	SourcesLoaded int    `json:"sources_loaded"`
}
type sourcesMsg []sourceRow
type errMsg error

// --- Init ---

func NewMonitor(apiURL, token string) *Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ST", Width: 2},
			{Title: "Source", Width: 20},
			{Title: "Type", Width: 8},
			{Title: "Zoom", Width: 8},
			{Title: "Tiles", Width: 8},
			{Title: "Errors", Width: 8},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return &Model{
		apiURL:      apiURL,
		token:       token,
		sources:     make(map[string]*sourceRow),
		eventLog:    make([]event.Event, 0),
		hubEvents:   make(chan event.Event, 100),
		sourceTable: t,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.subscribeToEvents(),
		m.pollSources(),
		m.pollHealth(),
		tea.EnterAltScreen,
	)
}

// --- Update ---

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sourceTable.SetWidth(m.width - 6)

	case eventMsg:
		m.handleEvent(event.Event(msg))
		m.updateTable()
		return m, m.receiveNextEvent()

	case sourcesMsg:
		m.mergeSources(msg)
		m.updateTable()
		return m, tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
			return m.fetchSources()
		})

	case healthMsg:
		m.health.Status = msg.Status
		m.health.UptimeSeconds = msg.UptimeSeconds
		m.health.SourcesLoaded = msg.SourcesLoaded
		return m, tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
			return m.fetchHealth()
		})

	case errMsg:
		// Endpoints come back on the next poll tick.
	}

	m.sourceTable, cmd = m.sourceTable.Update(msg)
	return m, cmd
}

func (m *Model) handleEvent(e event.Event) {
	m.eventLog = append([]event.Event{e}, m.eventLog...)
	if len(m.eventLog) > 50 {
		m.eventLog = m.eventLog[:50]
	}

	if e.SourceID == "" {
		return
	}
	row, ok := m.sources[e.SourceID]
	if !ok {
		row = &sourceRow{ID: e.SourceID}
		m.sources[e.SourceID] = row
		m.order = append(m.order, e.SourceID)
	}
	row.lastEvent = e.At

	switch e.Type {
	case event.SourceLoad:
		row.State = "ready"
	case event.SourceError:
		row.State = "error"
	case event.TileLoaded:
		row.tilesLoaded++
	case event.TileError:
		row.tileErrors++
	}
}

func (m *Model) mergeSources(rows []sourceRow) {
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		seen[r.ID] = true
		row, ok := m.sources[r.ID]
		if !ok {
			row = &sourceRow{ID: r.ID}
			m.sources[r.ID] = row
			m.order = append(m.order, r.ID)
		}
		row.Type = r.Type
		row.State = r.State
		row.MinZoom = r.MinZoom
		row.MaxZoom = r.MaxZoom
	}

	// Drop sources removed on the server.
	kept := m.order[:0]
	for _, id := range m.order {
		if seen[id] {
			kept = append(kept, id)
		} else {
			delete(m.sources, id)
		}
	}
	m.order = kept
}

func (m *Model) updateTable() {
	rows := make([]table.Row, 0, len(m.order))
	for _, id := range m.order {
		src := m.sources[id]

		stateSym := stateIdle.Render("○")
		switch src.State {
		case "loading":
			stateSym = stateLoading.Render("◉")
		case "ready":
			stateSym = stateReady.Render("●")
		case "error":
			stateSym = stateError.Render("∅")
		case "unloaded":
			stateSym = stateIdle.Render("◔")
		}

		rows = append(rows, table.Row{
			stateSym,
			src.ID,
			src.Type,
			fmt.Sprintf("%g-%g", src.MinZoom, src.MaxZoom),
			fmt.Sprintf("%d", src.tilesLoaded),
			fmt.Sprintf("%d", src.tileErrors),
		})
	}
	m.sourceTable.SetRows(rows)
}

// --- View ---

func (m *Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	header := m.renderHeader()
	sourcesView := borderStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Sources"),
			m.sourceTable.View(),
		),
	)

	eventsView := borderStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Event Stream"),
			m.renderEvents(),
		),
	)

	help := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(" [q] Quit • [↑/↓] Scroll Sources")

	return docStyle.Render(
		lipgloss.JoinVertical(
			lipgloss.Left,
			header,
			sourcesView,
			eventsView,
			help,
		),
	)
}

func (m *Model) renderHeader() string {
	status := stateReady.Render("RUNNING")
	if m.health.Status != "ok" && m.health.Status != "" {
		status = stateError.Render("DEGRADED")
	}

	uptime := time.Duration(m.health.UptimeSeconds) * time.Second

	items := []string{
		fmt.Sprintf("Status: %s", status),
		fmt.Sprintf("Uptime: %s", uptime.String()),
		fmt.Sprintf("Sources: %d", m.health.SourcesLoaded),
	}

	return borderStyle.Width(m.width - 4).Render(
		lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width((m.width-4)/3).Render(items[0]),
			lipgloss.NewStyle().Width((m.width-4)/3).Render(items[1]),
			lipgloss.NewStyle().Width((m.width-4)/3).Render(items[2]),
		),
	)
}

func (m *Model) renderEvents() string {
	var lines []string
	for i, e := range m.eventLog {
		if i >= 10 {
			break
		}
		ts := e.At.Format("15:04:05")
		lines = append(lines, fmt.Sprintf("%s | %-14s | %-12s | %s", ts, e.Type, e.SourceID, string(e.Data)))
	}
	if len(lines) == 0 {
		return "  No events yet..."
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
}

// --- Commands ---

func (m *Model) subscribeToEvents() tea.Cmd {
	return func() tea.Msg {
		client := &http.Client{}
		req, _ := http.NewRequest(http.MethodGet, m.apiURL+"/v1/events", nil)
		req.Header.Set("Authorization", "Bearer "+m.token)

		resp, err := client.Do(req)
		if err != nil {
			return errMsg(err)
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "data: ") {
				var ev event.Event
				if err := json.Unmarshal([]byte(line[6:]), &ev); err == nil {
					m.hubEvents <- ev
				}
			}
		}
		return nil
	}
}

func (m *Model) receiveNextEvent() tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-m.hubEvents)
	}
}

func (m *Model) pollSources() tea.Cmd {
	return func() tea.Msg {
		return m.fetchSources()
	}
}

func (m *Model) fetchSources() tea.Msg {
	client := &http.Client{Timeout: 2 * time.Second}
	req, _ := http.NewRequest(http.MethodGet, m.apiURL+"/v1/sources", nil)
	req.Header.Set("Authorization", "Bearer "+m.token)

	resp, err := client.Do(req)
	if err != nil {
		return errMsg(err)
	}
	defer resp.Body.Close()

	var list struct {
		Sources []sourceRow `json:"sources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return errMsg(err)
	}
	return sourcesMsg(list.Sources)
}

func (m *Model) pollHealth() tea.Cmd {
	return func() tea.Msg {
		return m.fetchHealth()
	}
}

func (m *Model) fetchHealth() tea.Msg {
	client := &http.Client{Timeout: 2 * time.Second}
	req, _ := http.NewRequest(http.MethodGet, m.apiURL+"/healthz", nil)
	req.Header.Set("Authorization", "Bearer "+m.token)

	resp, err := client.Do(req)
	if err != nil {
		return errMsg(err)
	}
	defer resp.Body.Close()

	var h healthMsg
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return errMsg(err)
	}
	return h
}
