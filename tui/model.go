package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/zappabad/marketbubbles/internal/bubble/core"
	bubbleservice "github.com/zappabad/marketbubbles/internal/bubble/service"
	"github.com/zappabad/marketbubbles/internal/bubble/view"
	marketview "github.com/zappabad/marketbubbles/internal/market/view"
	"github.com/zappabad/marketbubbles/tui/styles"
)

// Catalog is the instrument source the terminal host listens to.
type Catalog interface {
	Events() <-chan marketview.CatalogEvent
	Refresh(ctx context.Context) (int, error)
}

// catalogMsg delivers a new instrument catalog.
type catalogMsg struct {
	event marketview.CatalogEvent
}

// refreshResultMsg is sent after a manual refresh completes.
type refreshResultMsg struct {
	count int
	err   error
}

// Model is the main TUI application model. It owns the bubble lifecycle;
// all lifecycle calls happen inside Update.
type Model struct {
	cfg     Config
	catalog Catalog
	log     zerolog.Logger

	sched     *Scheduler
	lifecycle *bubbleservice.Lifecycle

	keys keyMap
	help help.Model

	width  int
	height int

	snap    view.Snapshot
	hovered string

	statusMsg string
	ready     bool
}

// NewModel creates a new TUI model.
func NewModel(catalog Catalog, cfg Config, bubbleCfg bubbleservice.Config, log zerolog.Logger, opts ...bubbleservice.Option) *Model {
	def := DefaultConfig()
	if cfg.CellWidth <= 0 || cfg.CellHeight <= 0 {
		cfg.CellWidth, cfg.CellHeight = def.CellWidth, def.CellHeight
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = def.RefreshTimeout
	}

	sched := NewScheduler(cfg.FrameInterval)
	log = log.With().Str("component", "tui").Logger()

	return &Model{
		cfg:       cfg,
		catalog:   catalog,
		log:       log,
		sched:     sched,
		lifecycle: bubbleservice.NewLifecycle(bubbleCfg, sched, log, opts...),
		keys:      defaultKeyMap(),
		help:      help.New(),
		statusMsg: "Loading instruments...",
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	if err := m.lifecycle.Start(); err != nil {
		m.log.Error().Err(err).Msg("Lifecycle start failed")
	}
	return tea.Batch(
		m.listenCatalogEvents(),
		m.refresh(),
		m.sched.Drain(),
	)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.lifecycle.Stop()
			m.snap = m.lifecycle.Snapshot()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Close):
			_ = m.lifecycle.ClearSelection()
		case key.Matches(msg, m.keys.Refresh):
			m.statusMsg = "Refreshing..."
			cmds = append(cmds, m.refresh())
		case key.Matches(msg, m.keys.Next):
			if id, err := m.lifecycle.SelectNext(); err == nil {
				m.log.Debug().Str("symbol", id).Msg("Selected next bubble")
			}
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		if err := m.lifecycle.Resize(m.containerSize()); err != nil {
			m.log.Debug().Err(err).Msg("Resize ignored")
		}

	case tea.MouseMsg:
		m.handleMouse(msg)

	case catalogMsg:
		if err := m.lifecycle.SetInstruments(msg.event.Instruments); err == nil {
			m.statusMsg = fmt.Sprintf("%d instruments", len(msg.event.Instruments))
			if len(msg.event.Instruments) == 0 {
				m.statusMsg = "No instruments available"
			}
		}
		cmds = append(cmds, m.listenCatalogEvents())

	case refreshResultMsg:
		if msg.err != nil {
			m.statusMsg = "Refresh failed: " + msg.err.Error()
		}

	default:
		m.sched.Handle(msg)
	}

	m.snap = m.lifecycle.Snapshot()
	cmds = append(cmds, m.sched.Drain())
	return m, tea.Batch(cmds...)
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	point, ok := m.worldPoint(msg.X, msg.Y)
	if !ok {
		m.hovered = ""
		return
	}
	id, hit := m.lifecycle.HitTest(point)

	switch msg.Action {
	case tea.MouseActionMotion:
		// Push only when the pointer enters a bubble.
		if hit && id != m.hovered {
			_ = m.lifecycle.Hover(id)
		}
		if !hit {
			id = ""
		}
		m.hovered = id

	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !hit {
			return
		}
		if _, err := m.lifecycle.Tap(id); err != nil {
			m.log.Debug().Err(err).Str("symbol", id).Msg("Click ignored")
		}
	}
}

// canvasRows is the number of rows between the header and the help line.
func (m *Model) canvasRows() int {
	rows := m.height - 2
	if rows < 0 {
		return 0
	}
	return rows
}

func (m *Model) containerSize() core.Size {
	return core.Size{
		Width:  float64(m.width) * m.cfg.CellWidth,
		Height: float64(m.canvasRows()) * m.cfg.CellHeight,
	}
}

// worldPoint maps a terminal cell to the world coordinate of its center.
func (m *Model) worldPoint(x, y int) (r2.Vec, bool) {
	row := y - 1
	if x < 0 || x >= m.width || row < 0 || row >= m.canvasRows() {
		return r2.Vec{}, false
	}
	return r2.Vec{
		X: (float64(x) + 0.5) * m.cfg.CellWidth,
		Y: (float64(row) + 0.5) * m.cfg.CellHeight,
	}, true
}

// View renders the UI.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderHeader()
	body := render(m.snap, m.width, m.canvasRows(), m.cfg.CellWidth, m.cfg.CellHeight)
	footer := styles.HelpStyle.Render(m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("Market Bubbles")
	status := ""
	if m.statusMsg != "" {
		status = " │ " + styles.StatusStyle.Render(m.statusMsg)
	}
	phase := " │ " + m.lifecycle.Phase().String()
	return styles.HeaderStyle.Width(m.width).Render(title + status + phase)
}

func (m *Model) listenCatalogEvents() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.catalog.Events()
		if !ok {
			return nil
		}
		return catalogMsg{event: ev}
	}
}

func (m *Model) refresh() tea.Cmd {
	timeout := m.cfg.RefreshTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		n, err := m.catalog.Refresh(ctx)
		return refreshResultMsg{count: n, err: err}
	}
}

// Snapshot returns the last rendered snapshot.
func (m *Model) Snapshot() view.Snapshot {
	return m.snap
}

// Close tears the simulation down.
func (m *Model) Close() {
	m.lifecycle.Stop()
}

// PendingCallbacks reports the frame and timer callbacks still scheduled.
func (m *Model) PendingCallbacks() int {
	return m.sched.Pending()
}
