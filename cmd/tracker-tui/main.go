// Command tracker-tui is a terminal renderer for the tracker's snapshot
// stream. It draws the accepted/rejected spot-count chart on a braille
// canvas and feeds threshold, zoom, scroll and run-switch input back over
// the same WebSocket connection.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tui "github.com/charmbracelet/bubbletea"
	styles "github.com/charmbracelet/lipgloss"
	plot "github.com/chriskim06/drawille-go"
	"github.com/gorilla/websocket"

	"github.com/zdemat/interceptor/internal/ws"
	"github.com/zdemat/interceptor/pkg/types"
)

type Config struct {
	URL       string
	AltScreen bool
}

var config = Config{
	URL:       "ws://localhost:8090/ws/stream",
	AltScreen: true,
}

var (
	accentColor = styles.AdaptiveColor{Light: "0", Dark: "9"}
	borderColor = styles.AdaptiveColor{Light: "#555", Dark: "#555"}
	accentFg    = styles.NewStyle().Foreground(accentColor)
	borderFg    = styles.NewStyle().Foreground(borderColor)
	plotStyle   = styles.NewStyle().
			BorderStyle(styles.NormalBorder()).
			Foreground(borderColor).
			BorderForeground(borderColor)
)

func main() {
	flag.StringVar(&config.URL, "url", config.URL, "tracker WebSocket stream URL")
	flag.BoolVar(&config.AltScreen, "alt-screen", config.AltScreen, "Use the terminal alternate screen buffer")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(config.URL, nil)
	if err != nil {
		log.Fatalf("connect %s: %v", config.URL, err)
	}
	defer conn.Close()

	m := newModel(conn)
	go m.readPump()

	opts := []tui.ProgramOption{tui.WithInputTTY()}
	if config.AltScreen {
		opts = append(opts, tui.WithAltScreen())
	}
	if _, err := tui.NewProgram(m, opts...).Run(); err != nil {
		log.Fatal(err)
	}
}

type snapshotMsg types.ViewSnapshot

type errMsg struct{ err error }

type model struct {
	width, height int

	conn    *websocket.Conn
	writeMu sync.Mutex
	msgs    chan tui.Msg

	snap    types.ViewSnapshot
	hasSnap bool
	err     error

	plot     *plot.Canvas
	plotData [][]float64
	help     help.Model
}

func newModel(conn *websocket.Conn) *model {
	const (
		defaultWidth  = 80
		defaultHeight = 20
	)

	p := plot.NewCanvas(defaultWidth, defaultHeight)
	p.ShowAxis = false
	p.NumDataPoints = defaultWidth * 2
	p.LineColors = []plot.Color{plot.DimGray, plot.Red, plot.LightGray}

	return &model{
		conn: conn,
		msgs: make(chan tui.Msg, 8),
		plot: &p,
		help: help.New(),
	}
}

// readPump runs beside the bubbletea loop and turns stream messages into
// model messages.
func (m *model) readPump() {
	for {
		var msg ws.Message
		if err := m.conn.ReadJSON(&msg); err != nil {
			m.msgs <- errMsg{err}
			return
		}
		m.msgs <- snapshotMsg(msg.Data)
	}
}

func (m *model) waitMsg() tui.Cmd {
	return func() tui.Msg { return <-m.msgs }
}

func (m *model) Init() tui.Cmd {
	return m.waitMsg()
}

func (m *model) Update(msg tui.Msg) (tui.Model, tui.Cmd) {
	switch msg := msg.(type) {
	case errMsg:
		m.err = msg.err
		return m, nil
	case snapshotMsg:
		m.snap = types.ViewSnapshot(msg)
		m.hasSnap = true
		m.fillPlot()
		return m, m.waitMsg()
	case tui.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		// header + border (2) + labels + help
		plotHeight := max(1, m.height-5)
		plotWidth := max(1, m.width-2)
		m.resizePlot(plotWidth, plotHeight)
		m.fillPlot()
		return m, nil
	case tui.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleKey(msg tui.KeyMsg) (tui.Model, tui.Cmd) {
	span := m.snap.Bounds.XMax - m.snap.Bounds.XMin
	center := m.snap.Bounds.XMin + span/2

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tui.Quit
	case key.Matches(msg, keys.ThresholdUp):
		m.sendControl(ws.Control{Type: "threshold", Value: m.snap.Threshold + 1})
	case key.Matches(msg, keys.ThresholdDown):
		if m.snap.Threshold > 0 {
			m.sendControl(ws.Control{Type: "threshold", Value: m.snap.Threshold - 1})
		}
	case key.Matches(msg, keys.Zoom):
		m.sendControl(ws.Control{Type: "zoom", Min: m.snap.Bounds.XMin + span/4, Max: m.snap.Bounds.XMax - span/4})
	case key.Matches(msg, keys.ZoomOff):
		m.sendControl(ws.Control{Type: "zoom_off"})
	case key.Matches(msg, keys.Left):
		m.sendControl(ws.Control{Type: "scroll", Center: center - span/4})
	case key.Matches(msg, keys.Right):
		m.sendControl(ws.Control{Type: "scroll", Center: center + span/4})
	case key.Matches(msg, keys.Narrow):
		m.sendControl(ws.Control{Type: "range", Span: span / 2})
	case key.Matches(msg, keys.Widen):
		m.sendControl(ws.Control{Type: "range", Span: span * 2})
	case key.Matches(msg, keys.NextRun):
		if id, ok := neighborRun(m.snap.Runs, m.snap.RunID, 1); ok {
			m.sendControl(ws.Control{Type: "run", Run: id})
		}
	case key.Matches(msg, keys.PrevRun):
		if id, ok := neighborRun(m.snap.Runs, m.snap.RunID, -1); ok {
			m.sendControl(ws.Control{Type: "run", Run: id})
		}
	}
	return m, nil
}

func (m *model) sendControl(ctl ws.Control) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := m.conn.WriteJSON(ctl); err != nil {
		m.err = err
	}
}

// neighborRun picks the run adjacent to cur in ids, wrapping around.
func neighborRun(ids []int, cur, dir int) (int, bool) {
	if len(ids) < 2 {
		return 0, false
	}
	for i, id := range ids {
		if id == cur {
			next := (i + dir + len(ids)) % len(ids)
			return ids[next], true
		}
	}
	return ids[0], true
}

func (m *model) resizePlot(w, h int) {
	p := plot.NewCanvas(w, h)
	p.ShowAxis = m.plot.ShowAxis
	p.NumDataPoints = w * 2
	p.LineColors = m.plot.LineColors
	m.plot = &p
}

// fillPlot rebuilds the canvas series from the current snapshot. Points are
// bucketed into canvas columns over the view's frame bounds; each column
// keeps the column's maximum, so narrow spikes stay visible at any zoom.
func (m *model) fillPlot() {
	n := m.plot.NumDataPoints
	if n < 2 || !m.hasSnap || m.snap.Empty {
		return
	}

	rejected := make([]float64, n)
	accepted := make([]float64, n)
	indexed := make([]float64, n)

	span := m.snap.Bounds.XMax - m.snap.Bounds.XMin
	if span <= 0 {
		return
	}
	col := func(frame int) int {
		c := int(float64(n) * (float64(frame) - m.snap.Bounds.XMin) / span)
		return min(max(0, c), n-1)
	}
	for _, p := range m.snap.Rejected {
		c := col(p.Frame)
		rejected[c] = max(rejected[c], float64(p.Spots))
	}
	for _, p := range m.snap.Accepted {
		c := col(p.Frame)
		accepted[c] = max(accepted[c], float64(p.Spots))
	}
	for _, p := range m.snap.IndexedSeries {
		c := col(p.Frame)
		indexed[c] = max(indexed[c], p.Indexed)
	}
	// Pin the scale so the chart does not jump between snapshots.
	if m.snap.YMax > 0 {
		accepted[n-1] = max(accepted[n-1], m.snap.YMax)
	}
	m.plotData = [][]float64{rejected, accepted, indexed}
	m.plot.Fill(m.plotData)
}

func (m *model) View() string {
	chart := m.plot.String()
	if chart == "" || !m.hasSnap {
		chart = "waiting for snapshot stream..."
	}

	labels := ""
	if m.hasSnap && !m.snap.Empty {
		left := fmt.Sprintf("%.0f", m.snap.Bounds.XMin)
		right := fmt.Sprintf("%.0f", m.snap.Bounds.XMax)
		w := max(0, m.width-4)
		gap := max(1, w-len(left)-len(right))
		labels = left + strings.Repeat(" ", gap) + borderFg.Render(right)
	}
	body := plotStyle.Render(styles.JoinVertical(styles.Top, chart, labels))

	header := m.headerLine()
	if m.err != nil {
		errStyle := styles.NewStyle().Foreground(styles.AdaptiveColor{Light: "1", Dark: "9"})
		return styles.JoinVertical(styles.Left, header, body,
			errStyle.Render("ERROR: "+m.err.Error()), m.help.View(keys))
	}
	return styles.JoinVertical(styles.Left, header, body, m.help.View(keys))
}

func (m *model) headerLine() string {
	if !m.hasSnap {
		return borderFg.Render(config.URL)
	}
	median := "-"
	if m.snap.MedianResolution != nil {
		median = fmt.Sprintf("%.2f", *m.snap.MedianResolution)
	}
	runs := make([]string, len(m.snap.Runs))
	for i, id := range m.snap.Runs {
		label := fmt.Sprintf("run %d", id)
		if id == m.snap.RunID {
			runs[i] = accentFg.Render(label)
		} else {
			runs[i] = borderFg.Render(label)
		}
	}
	stats := fmt.Sprintf("  threshold %d  hits %d  indexed %d  median res %s",
		m.snap.Threshold, m.snap.HitCount, m.snap.IndexedCount, median)
	return strings.Join(runs, " ") + stats
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ThresholdUp, k.ThresholdDown, k.Zoom, k.ZoomOff, k.NextRun, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ThresholdUp, k.ThresholdDown, k.Quit},
		{k.Zoom, k.ZoomOff, k.Left, k.Right},
		{k.Narrow, k.Widen, k.NextRun, k.PrevRun},
	}
}

type keyMap struct {
	ThresholdUp   key.Binding
	ThresholdDown key.Binding
	Zoom          key.Binding
	ZoomOff       key.Binding
	Left          key.Binding
	Right         key.Binding
	Narrow        key.Binding
	Widen         key.Binding
	NextRun       key.Binding
	PrevRun       key.Binding
	Quit          key.Binding
}

var keys = keyMap{
	ThresholdUp: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "raise threshold"),
	),
	ThresholdDown: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "lower threshold"),
	),
	Zoom: key.NewBinding(
		key.WithKeys("z"),
		key.WithHelp("z", "zoom in"),
	),
	ZoomOff: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "full view"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "scroll left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "scroll right"),
	),
	Narrow: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "narrow range"),
	),
	Widen: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "widen range"),
	),
	NextRun: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next run"),
	),
	PrevRun: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "previous run"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q/ctrl+c", "quit"),
	),
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max[T ~int | ~float64](a, b T) T {
	if a > b {
		return a
	}
	return b
}
