package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/matzehuels/gardengrid/pkg/garden"
	"github.com/matzehuels/gardengrid/pkg/placement"
)

var tomato = garden.Template{ID: "tomato", Name: "Tomato", Marker: "🍅", Spread: 30, Depth: 20}

func plannedState(t *testing.T, events ...placement.Event) placement.State {
	t.Helper()
	s := placement.NewState(garden.Snapshot{Palette: []garden.Template{tomato}}, garden.Plot{Width: 200, Height: 100})
	for _, e := range events {
		s, _ = placement.Step(s, e)
	}
	return s
}

func count(cmds []Command, kind Kind) int {
	n := 0
	for _, c := range cmds {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func TestCommandsLayers(t *testing.T) {
	s := plannedState(t,
		placement.Event{Kind: placement.Select, TemplateID: "tomato"},
		placement.Event{Kind: placement.Click, X: 50, Y: 50},
		placement.Event{Kind: placement.PointerMove, X: 60, Y: 50},
	)
	cmds := Commands(s)

	if first := cmds[0]; first.Kind != KindRect || first.Fill != SoilColor || first.W != 200 || first.H != 100 {
		t.Errorf("first command = %+v, want soil rect 200x100", first)
	}
	if last := cmds[len(cmds)-1]; last.Stroke != BorderColor || last.StrokeWidth != BorderWidth {
		t.Errorf("last command = %+v, want border", last)
	}
	// 200/50 vertical + 100/50 horizontal grid lines.
	if got := count(cmds, KindLine); got != 6 {
		t.Errorf("grid lines = %d, want 6", got)
	}
	if got := count(cmds, KindCircle); got != 2 {
		t.Fatalf("circles = %d, want plant + preview", got)
	}

	var preview Command
	for _, c := range cmds {
		if c.Kind == KindCircle && c.Dash != "" {
			preview = c
		}
	}
	if preview.Stroke != IllegalStroke || preview.Dash != PreviewDash {
		t.Errorf("preview = %+v, want red dashed", preview)
	}
}

func TestCommandsScale(t *testing.T) {
	s := plannedState(t,
		placement.Event{Kind: placement.Zoom, Scale: 2},
		placement.Event{Kind: placement.Select, TemplateID: "tomato"},
		placement.Event{Kind: placement.Click, X: 100, Y: 100},
		placement.Event{Kind: placement.PointerLeave},
	)
	cmds := Commands(s)
	if cmds[0].W != 400 || cmds[0].H != 200 {
		t.Errorf("canvas = %vx%v, want 400x200", cmds[0].W, cmds[0].H)
	}
	for _, c := range cmds {
		if c.Kind == KindCircle {
			if c.X != 100 || c.Y != 100 || c.R != 30 {
				t.Errorf("plant circle = %+v, want (100,100) r=30", c)
			}
		}
	}
}

func TestCommandsArePure(t *testing.T) {
	s := plannedState(t,
		placement.Event{Kind: placement.Select, TemplateID: "tomato"},
		placement.Event{Kind: placement.PointerMove, X: 40, Y: 40},
	)
	a, _ := json.Marshal(Commands(s))
	b, _ := json.Marshal(Commands(s))
	if string(a) != string(b) {
		t.Error("Commands is not deterministic")
	}
	if s.Layout.Len() != 0 {
		t.Error("rendering placed a plant")
	}
}

func TestExtentUnbounded(t *testing.T) {
	s := placement.NewState(garden.Snapshot{
		Plants: []garden.Plant{{ID: "a", Spread: 30, X: 420, Y: 15}},
	}, garden.Plot{Height: 100})
	ext := Extent(s)
	if ext.Height != 100 {
		t.Errorf("height = %v, want 100", ext.Height)
	}
	if ext.Width != 550 {
		t.Errorf("width = %v, want 550", ext.Width)
	}
}

func TestRenderSVG(t *testing.T) {
	s := plannedState(t,
		placement.Event{Kind: placement.Select, TemplateID: "tomato"},
		placement.Event{Kind: placement.Click, X: 50, Y: 50},
	)
	svg := string(RenderSVG(Commands(s), WithTitle("Garden <1>")))

	for _, want := range []string{
		`width="200" height="100"`,
		`<title>Garden &lt;1&gt;</title>`,
		`fill="#d2b48c"`,
		`fill="rgba(76,175,80,0.15)"`,
		`stroke="#5a3c1a" stroke-width="3.0"`,
		">🍅</text>",
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if !strings.HasSuffix(svg, "</svg>\n") {
		t.Error("svg not closed")
	}
}

func TestRenderSVGImageMarker(t *testing.T) {
	img := garden.Template{ID: "pea", Name: "Pea", Image: "https://example.com/pea.png", Spread: 10, Depth: 5}
	s := placement.NewState(garden.Snapshot{Palette: []garden.Template{img}}, garden.DefaultPlot)
	s, _ = placement.Step(s, placement.Event{Kind: placement.Select, TemplateID: "pea"})
	s, _ = placement.Step(s, placement.Event{Kind: placement.Click, X: 100, Y: 100})

	svg := string(RenderSVG(Commands(s)))
	if !strings.Contains(svg, `<image x="84.0" y="84.0" width="32.0" height="32.0" href="https://example.com/pea.png"/>`) {
		t.Errorf("image marker not rendered:\n%s", svg)
	}
}

func TestRenderJSON(t *testing.T) {
	s := plannedState(t,
		placement.Event{Kind: placement.Select, TemplateID: "tomato"},
		placement.Event{Kind: placement.Click, X: 50, Y: 50},
		placement.Event{Kind: placement.Click, X: 120, Y: 50},
	)
	data, err := RenderJSON(s)
	if err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.Usage["Tomato"] != 2 {
		t.Errorf("usage = %v, want Tomato:2", f.Usage)
	}
	if f.Readout == nil || f.Readout.X != 120 {
		t.Errorf("readout = %v, want x=120", f.Readout)
	}
	if !strings.Contains(string(data), `"mode": "armed"`) {
		t.Errorf("selection mode not encoded by name")
	}
}

func TestToDOT(t *testing.T) {
	s := plannedState(t,
		placement.Event{Kind: placement.Select, TemplateID: "tomato"},
		placement.Event{Kind: placement.Click, X: 50, Y: 30},
	)
	dot := ToDOT(s)
	plant := s.Layout.Plants()[0]

	for _, want := range []string{
		"layout=neato;",
		"inputscale=72;",
		`"corner-max" [pos="200.00,100.00!"`,
		`"` + plant.ID + `" [label="🍅", tooltip="Tomato", pos="50.00,70.00!", width=0.4167]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}
