package render_test

import (
	"fmt"

	"github.com/matzehuels/gardengrid/pkg/garden"
	"github.com/matzehuels/gardengrid/pkg/placement"
	"github.com/matzehuels/gardengrid/pkg/render"
)

func ExampleCommands() {
	carrot := garden.Template{ID: "c", Name: "Carrot", Marker: "🥕", Spread: 20, Depth: 15}
	s := placement.NewState(garden.Snapshot{Palette: []garden.Template{carrot}}, garden.Plot{Width: 100, Height: 100})
	s, _ = placement.Step(s, placement.Event{Kind: placement.Select, TemplateID: "c"})
	s, _ = placement.Step(s, placement.Event{Kind: placement.Click, X: 50, Y: 50})
	s, _ = placement.Step(s, placement.Event{Kind: placement.PointerLeave})

	for _, c := range render.Commands(s) {
		switch c.Kind {
		case render.KindCircle:
			fmt.Printf("circle at (%v,%v) r=%v\n", c.X, c.Y, c.R)
		case render.KindText:
			fmt.Printf("%s at (%v,%v)\n", c.Text, c.X, c.Y)
		}
	}
	// Output:
	// circle at (50,50) r=10
	// 🥕 at (50,50)
}
