package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	styles "github.com/charmbracelet/lipgloss"
	plot "github.com/chriskim06/drawille-go"

	"github.com/x-itg/ocr/internal/orchestrator/chart"
	"github.com/x-itg/ocr/internal/orchestrator/series"
)

type channelItem struct {
	id    int
	title string
	desc  string
}

func (i channelItem) Title() string       { return i.title }
func (i channelItem) Description() string { return i.desc }
func (i channelItem) FilterValue() string { return i.title }

func newChannelItem(ch *series.Channel) channelItem {
	dot := styles.NewStyle().Foreground(styles.Color(string(ch.Color))).Render("●")
	if !ch.Visible {
		dot = borderFg.Render("○")
	}
	desc := "  no data"
	if st := ch.Stats(); st.Count > 0 {
		desc = fmt.Sprintf("  %.2f  avg %.2f  %.2f..%.2f  n=%d", st.Latest, st.Mean, st.Min, st.Max, st.Count)
	}
	if !ch.CaptureEnabled {
		desc += "  paused"
	}
	return channelItem{
		id:    ch.ID,
		title: fmt.Sprintf("%s %s %s", dot, ch.Name, borderFg.Render(ch.Region.String())),
		desc:  desc,
	}
}

// refreshList rebuilds the items, keeping the cursor on the same channel.
func (m *Model) refreshList() {
	selected := -1
	if item, ok := m.list.SelectedItem().(channelItem); ok {
		selected = item.id
	}
	channels := m.mgr.Store().Channels()
	items := make([]list.Item, len(channels))
	cursor := 0
	for i, ch := range channels {
		items[i] = newChannelItem(ch)
		if ch.ID == selected {
			cursor = i
		}
	}
	m.list.SetItems(items)
	if len(items) > 0 {
		m.list.Select(cursor)
	}
}

func (m *Model) View() string {
	left := styles.NewStyle().Width(m.leftWidth).Render(m.list.View())
	body := styles.JoinVertical(styles.Left, m.renderChart(), m.renderLabels(), m.renderOverview())
	view := styles.JoinHorizontal(styles.Top, left, plotStyle.Render(body))

	bottom := m.statusSty.Render(m.status)
	if m.prompt != promptNone {
		bottom = m.input.View()
	}
	return styles.JoinVertical(styles.Left, view, bottom, m.renderStats(), m.help.View(keys))
}

func (m *Model) renderChart() string {
	c := m.mgr.Chart()
	store := m.mgr.Store()
	g := newGrid(m.chartArea.w, m.chartArea.h, c.Viewport())
	for _, ch := range store.Channels() {
		if !ch.Visible || ch.Len() == 0 {
			continue
		}
		color := string(ch.Color)
		prev := chart.Point{X: store.X(ch.Times[0]), Y: ch.Values[0]}
		g.line(prev, prev, color)
		for i := 1; i < ch.Len(); i++ {
			p := chart.Point{X: store.X(ch.Times[i]), Y: ch.Values[i]}
			g.line(prev, p, color)
			prev = p
		}
	}
	for _, sel := range c.Selected(store) {
		ch := store.Channel(sel.ChannelID)
		if ch == nil || !ch.Visible {
			continue
		}
		g.mark(chart.Point{X: store.X(ch.Times[sel.Index]), Y: ch.Values[sel.Index]})
	}
	return g.String()
}

func (m *Model) renderLabels() string {
	v := m.mgr.Chart().Viewport()
	mode := accentFg.Render("FOLLOW")
	if !m.mgr.Chart().Following() {
		mode = borderFg.Render("MANUAL")
	}
	state := borderFg.Render("STOP")
	if m.mgr.Monitoring() {
		state = accentFg.Render("REC")
	}
	text := fmt.Sprintf("x %.1f..%.1fs  y %.2f..%.2f  %s %s", v.X.Min, v.X.Max, v.Y.Min, v.Y.Max, mode, state)
	return styles.NewStyle().MaxWidth(m.chartArea.w).Render(text)
}

// renderOverview draws the latest samples of every visible channel with the
// selected one highlighted, independent of the chart viewport.
func (m *Model) renderOverview() string {
	var highlight, dim plot.Color
	if styles.DefaultRenderer().HasDarkBackground() {
		highlight, dim = plot.Red, plot.DimGray
	} else {
		highlight, dim = plot.Black, plot.LightGray
	}

	current := -1
	if item, ok := m.list.SelectedItem().(channelItem); ok {
		current = item.id
	}

	var data [][]float64
	var colors []plot.Color
	var last []float64
	for _, ch := range m.mgr.Store().Channels() {
		if !ch.Visible || ch.Len() == 0 {
			continue
		}
		if ch.ID == current {
			last = tail(ch.Values, overviewPoints)
			continue
		}
		data = append(data, tail(ch.Values, overviewPoints))
		colors = append(colors, dim)
	}
	if last != nil {
		data = append(data, last)
		colors = append(colors, highlight)
	}

	blank := strings.TrimSuffix(strings.Repeat(strings.Repeat(" ", m.chartArea.w)+"\n", overviewHeight), "\n")
	if len(data) == 0 {
		return blank
	}
	m.overview.LineColors = colors
	m.overview.Fill(data)
	if s := m.overview.String(); s != "" {
		return s
	}
	return blank
}

// tail returns the last n values, left padded with the first one.
func tail(values []float64, n int) []float64 {
	out := make([]float64, n)
	src := values
	if len(src) > n {
		src = src[len(src)-n:]
	}
	pad := n - len(src)
	for i := range pad {
		out[i] = src[0]
	}
	copy(out[pad:], src)
	return out
}

func (m *Model) renderStats() string {
	st := m.mgr.Stats()
	sc := st.Scheduler
	line := fmt.Sprintf("channels %d  interval %.1fs  queue %d/%d  captures %d (%d failed)  readings %d  not found %d  dropped %d  pass %s/%s",
		st.Channels, st.Interval, st.QueueLen, st.QueueCap,
		sc.Captures, sc.CaptureFailures, sc.Readings, sc.NotFound, sc.Dropped,
		sc.LastPass.Round(time.Millisecond), sc.MaxPass.Round(time.Millisecond))
	if st.CacheHits+st.CacheMisses > 0 {
		line += fmt.Sprintf("  cache %d/%d", st.CacheHits, st.CacheHits+st.CacheMisses)
	}
	return borderFg.MaxWidth(max(1, m.width)).Render(line)
}
