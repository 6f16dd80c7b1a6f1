package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/gardengrid/pkg/garden"
)

// Terminal colors. The soil and grid tones match the SVG render.
var (
	colorAccent = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorAmber  = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
	colorSoil   = lipgloss.Color("#d2b48c")
	colorGrid   = lipgloss.Color("#8b5a2b")
)

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorAccent)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleSuccess   = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorAmber)
	StyleError     = lipgloss.NewStyle().Foreground(colorRed)

	styleLabel   = lipgloss.NewStyle().Foreground(colorGray).Width(10)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleSpinner = lipgloss.NewStyle().Foreground(colorAccent)
)

// Line prefixes.
var (
	markSuccess = StyleSuccess.Render("✓")
	markWarning = StyleWarning.Render("!")
	markInfo    = lipgloss.NewStyle().Foreground(colorGray).Render("›")
	markFile    = StyleDim.Render("→")
	separator   = StyleDim.Render(" · ")
)

// printer writes styled status lines for one command.
type printer struct{ w io.Writer }

func newPrinter(w io.Writer) printer { return printer{w: w} }

func (p printer) line(s string) { fmt.Fprintln(p.w, s) }

func (p printer) success(format string, args ...any) {
	p.line(markSuccess + " " + fmt.Sprintf(format, args...))
}

func (p printer) warning(format string, args ...any) {
	p.line(markWarning + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func (p printer) info(format string, args ...any) {
	p.line(markInfo + " " + fmt.Sprintf(format, args...))
}

// detail prints an indented, muted line under the previous one.
func (p printer) detail(format string, args ...any) {
	p.line("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func (p printer) file(path string) {
	p.line("  " + markFile + " " + StyleValue.Render(path))
}

func (p printer) field(label, value string) {
	p.line(styleLabel.Render(label) + StyleValue.Render(value))
}

func (p printer) hint(what, command string) {
	p.line(StyleDim.Render(what+":") + " " + styleCommand.Render(command))
}

// gardenStats prints "N plants · M templates · cached|fresh".
func (p printer) gardenStats(plants, templates int, cached bool) {
	status := StyleDim.Render("fresh")
	if cached {
		status = StyleSuccess.Render("cached")
	}
	p.line("  " + strings.Join([]string{
		StyleDim.Render(plural(plants, "plant")),
		StyleDim.Render(plural(templates, "template")),
		status,
	}, separator))
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// paletteTable renders templates with their usage counts, keyed by name.
func paletteTable(items []garden.Template, usage map[string]int) string {
	rows := make([][]string, 0, len(items))
	for _, t := range items {
		rows = append(rows, []string{
			markerOrDash(t.Marker),
			t.Name,
			formatCM(t.Spread),
			formatCM(t.Depth),
			fmt.Sprint(usage[t.Name]),
			t.ID,
		})
	}
	const usedCol, idCol = 4, 5
	return newTable(rows, "", "Name", "Spread", "Depth", "Used", "ID").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case col == idCol:
				return StyleDim
			case col == usedCol:
				return StyleHighlight
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// plantTable renders the plant list, one "Name at (x, y)" entry per row.
func plantTable(plants []garden.Plant) string {
	rows := make([][]string, 0, len(plants))
	for i, p := range plants {
		rows = append(rows, []string{
			fmt.Sprintf("#%d", i+1),
			markerOrDash(p.Marker),
			p.Label(),
			formatCM(p.Spread),
		})
	}
	return newTable(rows, "", "", "Plant", "Spread").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case col == 0:
				return StyleDim
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func newTable(rows [][]string, headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers(headers...).
		Rows(rows...)
}

// markerOrDash returns m, or a dash for image templates and blanks.
func markerOrDash(m string) string {
	if m == "" || strings.HasPrefix(m, "http") {
		return "—"
	}
	return m
}

func formatCM(v float64) string { return fmt.Sprintf("%g cm", v) }
