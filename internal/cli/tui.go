package cli

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/gardengrid/pkg/errors"
	"github.com/matzehuels/gardengrid/pkg/garden"
	"github.com/matzehuels/gardengrid/pkg/geom"
	"github.com/matzehuels/gardengrid/pkg/notice"
	"github.com/matzehuels/gardengrid/pkg/placement"
	"github.com/matzehuels/gardengrid/pkg/planner"
)

// A terminal cell covers cellW x cellH screen pixels. Cells are about twice
// as tall as wide, so this keeps circles round.
const (
	cellW = 20.0
	cellH = 40.0

	// The plot grid starts below the header line and inside the border.
	plotTop  = 2
	plotLeft = 1
)

// Plot styles
var (
	styleSoil      = lipgloss.NewStyle().Background(colorSoil)
	styleGridLine  = styleSoil.Foreground(colorGrid)
	stylePlant     = styleSoil.Foreground(lipgloss.Color("#2e7d32"))
	stylePlantName = stylePlant.Bold(true)
	styleEdited    = styleSoil.Foreground(colorAmber).Bold(true)
	styleLegal     = styleSoil.Foreground(colorGreen)
	styleIllegal   = styleSoil.Foreground(colorRed)
	stylePointer   = styleSoil.Foreground(lipgloss.Color("0")).Bold(true)
	stylePlotFrame = lipgloss.NewStyle().Border(lipgloss.ThickBorder()).BorderForeground(lipgloss.Color("#5a3c1a"))

	stylePanelTitle = lipgloss.NewStyle().Bold(true).Foreground(colorGray)
	styleArmed      = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleBanner     = lipgloss.NewStyle().Foreground(colorGreen)
	styleHelp       = lipgloss.NewStyle().Foreground(colorDim)
)

// noticeTickMsg asks the model to drop expired notices.
type noticeTickMsg struct{}

type shownNotice struct {
	message string
	until   time.Time
}

// planModel is the bubbletea model of the terminal planner. Every key or
// mouse action becomes a placement event applied to the workspace.
type planModel struct {
	ctx     context.Context
	ws      *planner.Workspace
	inbox   *notice.Collector
	userID  string
	now     func() time.Time
	col     int // pointer cell
	row     int
	palette int // index of the template tab selects next
	shown   []shownNotice
	status  string
}

// newPlanModel builds the planner over ws. inbox must be the workspace's
// notice sink.
func newPlanModel(ctx context.Context, ws *planner.Workspace, inbox *notice.Collector) planModel {
	m := planModel{
		ctx:     ctx,
		ws:      ws,
		inbox:   inbox,
		userID:  ws.UserID(),
		now:     time.Now,
		palette: -1,
	}
	cols, rows := m.gridSize(ws.State())
	m.col, m.row = cols/2, rows/2
	m.apply(placement.Event{Kind: placement.PointerMove, X: m.pointer().X, Y: m.pointer().Y})
	return m
}

func (m planModel) Init() tea.Cmd {
	return nil
}

func (m planModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case noticeTickMsg:
		m.expireNotices()
	}
	return m, nil
}

func (m planModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		return m.movePointer(0, -1)
	case "down", "j":
		return m.movePointer(0, 1)
	case "left", "h":
		return m.movePointer(-1, 0)
	case "right", "l":
		return m.movePointer(1, 0)
	case " ", "enter":
		p := m.pointer()
		return m.do(placement.Event{Kind: placement.Click, X: p.X, Y: p.Y})
	case "tab", "shift+tab":
		return m.cyclePalette(msg.String() == "tab")
	case "e":
		p, ok := m.plantUnderPointer()
		if !ok {
			m.status = "No plant under the cursor"
			return m, nil
		}
		return m.do(placement.Event{Kind: placement.Edit, PlantID: p.ID})
	case "d", "delete":
		id := ""
		if s := m.ws.State(); s.Selection.Mode == placement.Editing {
			id = s.Selection.PlantID
		} else if p, ok := m.plantUnderPointer(); ok {
			id = p.ID
		}
		if id == "" {
			m.status = "No plant under the cursor"
			return m, nil
		}
		return m.do(placement.Event{Kind: placement.DeletePlant, PlantID: id})
	case "+", "=":
		return m.zoom(placement.ScaleStep)
	case "-", "_":
		return m.zoom(-placement.ScaleStep)
	case "esc":
		return m.do(placement.Event{Kind: placement.Cancel})
	}
	return m, nil
}

func (m planModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	cols, rows := m.gridSize(m.ws.State())
	col, row := msg.X-plotLeft, msg.Y-plotTop
	if col < 0 || row < 0 || col >= cols || row >= rows {
		return m.do(placement.Event{Kind: placement.PointerLeave})
	}
	m.col, m.row = col, row
	p := m.pointer()

	kind := placement.PointerMove
	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		kind = placement.Click
	}
	return m.do(placement.Event{Kind: kind, X: p.X, Y: p.Y})
}

func (m planModel) movePointer(dc, dr int) (tea.Model, tea.Cmd) {
	cols, rows := m.gridSize(m.ws.State())
	m.col = clampInt(m.col+dc, 0, cols-1)
	m.row = clampInt(m.row+dr, 0, rows-1)
	p := m.pointer()
	return m.do(placement.Event{Kind: placement.PointerMove, X: p.X, Y: p.Y})
}

func (m planModel) cyclePalette(forward bool) (tea.Model, tea.Cmd) {
	items := m.ws.State().Palette.Items()
	if len(items) == 0 {
		m.status = "The palette is empty; add templates with gardengrid palette add"
		return m, nil
	}
	switch {
	case forward:
		m.palette = (m.palette + 1) % len(items)
	case m.palette <= 0:
		m.palette = len(items) - 1
	default:
		m.palette--
	}
	return m.do(placement.Event{Kind: placement.Select, TemplateID: items[m.palette].ID})
}

func (m planModel) zoom(delta float64) (tea.Model, tea.Cmd) {
	scale := m.ws.State().Viewport.Scale + delta
	cmd := m.apply(placement.Event{Kind: placement.Zoom, Scale: scale})

	// Keep the pointer on the plot at the new size.
	cols, rows := m.gridSize(m.ws.State())
	m.col = clampInt(m.col, 0, cols-1)
	m.row = clampInt(m.row, 0, rows-1)
	p := m.pointer()
	m.apply(placement.Event{Kind: placement.PointerMove, X: p.X, Y: p.Y})
	return m, cmd
}

// do applies e and returns the updated model.
func (m planModel) do(e placement.Event) (tea.Model, tea.Cmd) {
	cmd := m.apply(e)
	return m, cmd
}

// apply runs e through the workspace and returns a tick for any notice it
// raised.
func (m *planModel) apply(e placement.Event) tea.Cmd {
	res := m.ws.Apply(m.ctx, e)
	if res.Err != nil && res.Notice == nil && !errors.Silent(res.Err) {
		m.status = errors.UserMessage(res.Err)
	}

	var longest time.Duration
	for _, n := range m.inbox.Drain() {
		m.shown = append(m.shown, shownNotice{message: n.Message, until: m.now().Add(n.Duration())})
		longest = max(longest, n.Duration())
	}
	if longest == 0 {
		return nil
	}
	return tea.Tick(longest, func(time.Time) tea.Msg { return noticeTickMsg{} })
}

func (m *planModel) expireNotices() {
	now := m.now()
	var kept []shownNotice
	for _, n := range m.shown {
		if now.Before(n.until) {
			kept = append(kept, n)
		}
	}
	m.shown = kept
}

// pointer returns the screen position of the pointer cell's center.
func (m planModel) pointer() geom.Point {
	return geom.Pt((float64(m.col)+0.5)*cellW, (float64(m.row)+0.5)*cellH)
}

// gridSize returns the plot size in cells at the current zoom. An
// unbounded axis is drawn at the default plot size.
func (m planModel) gridSize(s placement.State) (cols, rows int) {
	w, h := displaySize(s.Viewport.Plot)
	scale := s.Viewport.Scale
	return max(1, int(math.Ceil(w*scale/cellW))), max(1, int(math.Ceil(h*scale/cellH)))
}

func displaySize(p garden.Plot) (w, h float64) {
	w, h = p.Width, p.Height
	if w <= 0 {
		w = garden.DefaultPlot.Width
	}
	if h <= 0 {
		h = garden.DefaultPlot.Height
	}
	return w, h
}

// plantUnderPointer returns the plant whose footprint holds the pointer,
// preferring the closest center.
func (m planModel) plantUnderPointer() (garden.Plant, bool) {
	s := m.ws.State()
	at := s.Viewport.ToPlot(m.pointer())
	var (
		best  garden.Plant
		found bool
	)
	for _, p := range s.Layout.Plants() {
		d := p.Center().Distance(at)
		if d > math.Max(p.Radius(), cellW/s.Viewport.Scale/2) {
			continue
		}
		if !found || d < best.Center().Distance(at) {
			best, found = p, true
		}
	}
	return best, found
}

// =============================================================================
// View
// =============================================================================

func (m planModel) View() string {
	s := m.ws.State()

	header := StyleTitle.Render("Gardengrid") + StyleDim.Render("  "+m.userID+"  ") + modeBadge(s)
	plot := stylePlotFrame.Render(m.renderPlot(s))
	panel := m.renderPanel(s)

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, plot, "  ", panel))
	b.WriteString("\n")
	b.WriteString(styleHelp.Render("←↑↓→ move  space place  tab template  e edit  d delete  +/- zoom  esc cancel  q quit"))
	return b.String()
}

func modeBadge(s placement.State) string {
	switch s.Selection.Mode {
	case placement.Armed:
		if t, ok := s.Palette.Get(s.Selection.TemplateID); ok {
			return styleArmed.Render("placing " + t.Name)
		}
	case placement.Editing:
		return styleEdited.UnsetBackground().Render("editing")
	}
	return StyleDim.Render("idle")
}

func (m planModel) renderPlot(s placement.State) string {
	cols, rows := m.gridSize(s)
	pv, hasPV := s.Preview()
	plants := s.Layout.Plants()

	centers := make(map[[2]int]garden.Plant, len(plants))
	for _, p := range plants {
		sp := s.Viewport.ToScreen(p.Center())
		centers[[2]int{int(sp.X / cellW), int(sp.Y / cellH)}] = p
	}

	var b strings.Builder
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			b.WriteString(m.renderCell(s, plants, centers, pv, hasPV, col, row))
		}
		if row < rows-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m planModel) renderCell(s placement.State, plants []garden.Plant, centers map[[2]int]garden.Plant, pv placement.Preview, hasPV bool, col, row int) string {
	screen := geom.Pt((float64(col)+0.5)*cellW, (float64(row)+0.5)*cellH)
	at := s.Viewport.ToPlot(screen)
	editing := ""
	if s.Selection.Mode == placement.Editing {
		editing = s.Selection.PlantID
	}

	if col == m.col && row == m.row && s.Hover {
		if hasPV && !pv.Legal {
			return styleIllegal.Bold(true).Render("+")
		}
		return stylePointer.Render("+")
	}
	if p, ok := centers[[2]int{col, row}]; ok {
		if p.ID == editing {
			return styleEdited.Render(initial(p.Name))
		}
		return stylePlantName.Render(initial(p.Name))
	}
	if hasPV && at.Distance(pv.Center) <= pv.Spread/2 {
		if pv.Legal {
			return styleLegal.Render("•")
		}
		return styleIllegal.Render("•")
	}
	for _, p := range plants {
		if at.Distance(p.Center()) <= p.Radius() {
			if p.ID == editing {
				return styleEdited.Render("o")
			}
			return stylePlant.Render("o")
		}
	}
	return styleGridLine.Render(gridRune(s.Viewport.Scale, col, row))
}

// gridRune marks cells holding a grid intersection. Cells are narrower
// than the grid spacing, so full lines would fill most rows.
func gridRune(scale float64, col, row int) string {
	crosses := func(i int, size float64) bool {
		lo, hi := float64(i)*size/scale, float64(i+1)*size/scale
		return math.Ceil(lo/placement.GridSpacing)*placement.GridSpacing < hi
	}
	if crosses(col, cellW) && crosses(row, cellH) {
		return "·"
	}
	return " "
}

func initial(name string) string {
	for _, r := range name {
		return string(unicode.ToUpper(r))
	}
	return "?"
}

func (m planModel) renderPanel(s placement.State) string {
	var b strings.Builder
	usage := garden.UsageCounts(s.Layout.Plants())

	b.WriteString(stylePanelTitle.Render("Palette"))
	b.WriteString("\n")
	for _, t := range s.Palette.Items() {
		line := fmt.Sprintf("%s %s (%d)", markerOrDash(t.Marker), t.Name, usage[t.Name])
		if s.Selection.Mode == placement.Armed && s.Selection.TemplateID == t.ID {
			b.WriteString(styleArmed.Render("▸ " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(stylePanelTitle.Render("Plants"))
	b.WriteString("\n")
	plants := s.Layout.Plants()
	if len(plants) == 0 {
		b.WriteString(StyleDim.Render("  none yet"))
		b.WriteString("\n")
	}
	for _, p := range plants {
		b.WriteString("  " + p.Label())
		b.WriteString("\n")
	}
	if banner, ok := s.EditBanner(); ok {
		b.WriteString(styleBanner.Render(banner + " – move and press space"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	r := s.Readout()
	b.WriteString(StyleValue.Render(fmt.Sprintf("X:%d, Y:%d", int(r.X), int(r.Y))))
	b.WriteString(StyleDim.Render(fmt.Sprintf("   zoom %.1fx", s.Viewport.Scale)))
	b.WriteString("\n")

	for _, n := range m.shown {
		b.WriteString(noticeStyle(n.message).Render(n.message))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(StyleDim.Render(m.status))
		b.WriteString("\n")
	}
	return b.String()
}

func noticeStyle(message string) lipgloss.Style {
	if message == notice.OverlapMessage {
		return StyleError.Bold(true)
	}
	return StyleWarning.Bold(true)
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
