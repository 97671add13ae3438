// Package tui is the terminal front-end: a channel list, a braille chart of
// the controller's viewport driven by mouse and keys, and status lines.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	styles "github.com/charmbracelet/lipgloss"
	plot "github.com/chriskim06/drawille-go"

	"github.com/x-itg/ocr/internal/config"
	"github.com/x-itg/ocr/internal/orchestrator"
	"github.com/x-itg/ocr/internal/orchestrator/series"
)

const (
	defaultWidth  = 100
	defaultHeight = 30

	overviewHeight = 3
	overviewPoints = 120
	statusLines    = 2 // status or prompt, stats
)

type prompt int

const (
	promptNone prompt = iota
	promptAdd
	promptRename
)

type tickMsg time.Time

func doTick() tea.Cmd {
	return tea.Every(orchestrator.TickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model is the bubbletea model. All Manager calls happen inside Update.
type Model struct {
	ctx context.Context
	mgr *orchestrator.Manager

	width, height int
	leftWidth     int
	chartArea     area

	list     list.Model
	help     help.Model
	input    textinput.Model
	prompt   prompt
	overview *plot.Canvas
	mouse    *mouseAdapter

	status    string
	statusSty styles.Style
}

// New builds the model; ctx bounds the capture loop it starts.
func New(ctx context.Context, mgr *orchestrator.Manager) *Model {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = styles.NewStyle().
		Border(styles.NormalBorder(), false, false, false, true).
		BorderForeground(borderColor).
		Foreground(accentColor).
		Padding(0, 0, 0, 1)
	d.Styles.SelectedDesc = d.Styles.SelectedTitle
	d.ShowDescription = true

	l := list.New(nil, d, defaultWidth/3, defaultHeight)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.NoItems = l.Styles.NoItems.Padding(0, 2)

	in := textinput.New()
	in.CharLimit = 64

	m := &Model{
		ctx:       ctx,
		mgr:       mgr,
		list:      l,
		help:      help.New(),
		input:     in,
		mouse:     newMouseAdapter(),
		statusSty: borderFg,
	}
	m.resize(defaultWidth, defaultHeight)
	m.refreshList()
	return m
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, mgr *orchestrator.Manager, altScreen bool) error {
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithMouseCellMotion()}
	if altScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	_, err := tea.NewProgram(New(ctx, mgr), opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m *Model) Init() tea.Cmd {
	return doTick()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.onTick()
		return m, doTick()
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.MouseMsg:
		if m.mouse.handle(msg, m.chartArea, m.mgr.Chart(), m.mgr.Store()) {
			m.showSelection()
		}
		return m, nil
	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m, m.updatePrompt(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) onTick() {
	if m.mgr.Tick() {
		m.refreshList()
	}
	for {
		select {
		case ev := <-m.mgr.Events():
			m.setStatus(ev)
		default:
			return
		}
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	c := m.mgr.Chart()
	switch {
	case key.Matches(msg, keys.Quit):
		m.mgr.StopMonitoring()
		return tea.Quit
	case key.Matches(msg, keys.Monitor):
		if _, err := m.mgr.ToggleMonitoring(m.ctx); err != nil {
			m.fail(err)
		}
	case key.Matches(msg, keys.Next):
		m.moveCursor(1)
	case key.Matches(msg, keys.Prev):
		m.moveCursor(-1)
	case key.Matches(msg, keys.Visible):
		if ch := m.selected(); ch != nil {
			_ = m.mgr.Store().SetVisible(ch.ID, !ch.Visible)
			m.mgr.Chart().Follow(m.mgr.Store())
			m.refreshList()
		}
	case key.Matches(msg, keys.Capture):
		if ch := m.selected(); ch != nil {
			_ = m.mgr.Store().SetCaptureEnabled(ch.ID, !ch.CaptureEnabled)
			m.refreshList()
		}
	case key.Matches(msg, keys.Clear):
		if ch := m.selected(); ch != nil {
			if err := m.mgr.Clear(ch.ID); err != nil {
				m.fail(err)
			}
			m.refreshList()
		}
	case key.Matches(msg, keys.ClearAll):
		m.mgr.ClearAll()
		m.refreshList()
	case key.Matches(msg, keys.Remove):
		if ch := m.selected(); ch != nil {
			if err := m.mgr.RemoveChannel(ch.ID); err != nil {
				m.fail(err)
			}
			m.refreshList()
		}
	case key.Matches(msg, keys.Add):
		m.openPrompt(promptAdd, "region x1,y1,x2,y2: ", "")
	case key.Matches(msg, keys.Rename):
		if ch := m.selected(); ch != nil {
			m.openPrompt(promptRename, "name: ", ch.Name)
		}
	case key.Matches(msg, keys.ZoomIn):
		c.ZoomIn()
	case key.Matches(msg, keys.ZoomOut):
		c.ZoomOut()
	case key.Matches(msg, keys.Reset):
		c.Reset(m.mgr.Store())
	case key.Matches(msg, keys.Faster):
		m.stepInterval(-config.IntervalStep)
	case key.Matches(msg, keys.Slower):
		m.stepInterval(config.IntervalStep)
	// Export results arrive as manager events.
	case key.Matches(msg, keys.ExportCSV):
		_, _ = m.mgr.ExportCSV("")
	case key.Matches(msg, keys.ExportPNG):
		_, _ = m.mgr.ExportPNG("")
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize(m.width, m.height)
	case msg.Type == tea.KeyEsc:
		c.CancelDrag()
	}
	return nil
}

func (m *Model) stepInterval(delta float64) {
	v, err := m.mgr.SetInterval(m.mgr.Interval() + delta)
	if err != nil {
		return
	}
	note := ""
	if m.mgr.Monitoring() {
		note = " (applies on next start)"
	}
	m.info(fmt.Sprintf("interval %.1fs%s", v, note))
}

func (m *Model) openPrompt(p prompt, label, value string) {
	m.prompt = p
	m.input.Prompt = label
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) closePrompt() {
	m.prompt = promptNone
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) updatePrompt(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		p := m.prompt
		m.closePrompt()
		m.submit(p, value)
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) submit(p prompt, value string) {
	switch p {
	case promptAdd:
		r, err := config.ParseRegion(value)
		if err != nil {
			m.fail(err)
			return
		}
		ch, err := m.mgr.AddRegion(r)
		if err != nil {
			m.fail(err)
			return
		}
		m.refreshList()
		m.list.Select(len(m.list.Items()) - 1)
		m.info(fmt.Sprintf("added %s at %s", ch.Name, ch.Region))
	case promptRename:
		ch := m.selected()
		if ch == nil || value == "" {
			return
		}
		_ = m.mgr.Store().Rename(ch.ID, value)
		m.refreshList()
	}
}

func (m *Model) moveCursor(delta int) {
	n := len(m.list.Items())
	if n == 0 {
		return
	}
	m.list.Select(((m.list.Index()+delta)%n + n) % n)
}

// selected returns the channel under the list cursor.
func (m *Model) selected() *series.Channel {
	item, ok := m.list.SelectedItem().(channelItem)
	if !ok {
		return nil
	}
	return m.mgr.Store().Channel(item.id)
}

func (m *Model) showSelection() {
	sel := m.mgr.Chart().Selected(m.mgr.Store())
	if len(sel) == 0 {
		return
	}
	parts := make([]string, 0, len(sel))
	for _, p := range sel {
		ch := m.mgr.Store().Channel(p.ChannelID)
		if ch == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s = %.2f", ch.Name, ch.Times[p.Index].Format("15:04:05"), ch.Values[p.Index]))
	}
	m.info("selected: " + strings.Join(parts, ", "))
}

func (m *Model) info(s string) {
	m.status, m.statusSty = s, borderFg
}

func (m *Model) fail(err error) {
	m.status, m.statusSty = err.Error(), errorFg
}

func (m *Model) setStatus(ev orchestrator.Event) {
	m.status = ev.Message
	switch ev.Kind {
	case orchestrator.EventWarning:
		m.statusSty = warnFg
	case orchestrator.EventError:
		m.statusSty = errorFg
	default:
		m.statusSty = borderFg
	}
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	m.leftWidth = min(40, max(24, w*30/100))
	if w < 2*m.leftWidth {
		m.leftWidth = max(1, w/2)
	}
	helpLines := 1
	if m.help.ShowAll {
		helpLines = 5
	}
	available := max(overviewHeight+4, h-statusLines-helpLines)
	m.list.SetSize(m.leftWidth, available)

	// Inside the border: chart rows, one label row, the overview strip.
	chartW := max(1, w-m.leftWidth-2)
	chartH := max(1, available-2-1-overviewHeight)
	m.chartArea = area{x: m.leftWidth + 1, y: 1, w: chartW, h: chartH}

	p := plot.NewCanvas(chartW, overviewHeight)
	p.NumDataPoints = overviewPoints
	p.ShowAxis = false
	m.overview = &p
}
