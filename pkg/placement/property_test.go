package placement

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/gardengrid/pkg/garden"
)

// TestRandomSessionsKeepLayoutValid drives the reducer with random events
// and checks after every step that no two plants overlap, that every plant
// lies inside the plot, and that rejected events leave the layout untouched.
func TestRandomSessionsKeepLayoutValid(t *testing.T) {
	plot := garden.Plot{Width: 400, Height: 300}
	palette := garden.DefaultPalette()

	for seed := uint64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed*7919))
		s := NewState(garden.Snapshot{Palette: palette}, plot)

		for step := 0; step < 300; step++ {
			e := randomEvent(rng, s, palette)
			before := s.Layout.Plants()

			next, r := Step(s, e)
			require.True(t, next.Layout.Valid(), "seed %d step %d: %+v", seed, step, e)

			if !r.Committed() {
				assert.Equal(t, before, next.Layout.Plants(), "seed %d step %d", seed, step)
			}
			for _, p := range next.Layout.Plants() {
				require.True(t, plot.Bounds().Contains(p.Footprint()), "seed %d: %+v outside plot", seed, p)
			}
			s = next
		}
	}
}

func randomEvent(rng *rand.Rand, s State, palette []garden.Template) Event {
	x, y := rng.Float64()*500-50, rng.Float64()*400-50
	switch n := rng.IntN(10); {
	case n < 4:
		return Event{Kind: Click, X: x, Y: y}
	case n < 6:
		return Event{Kind: Select, TemplateID: palette[rng.IntN(len(palette))].ID}
	case n < 7 && s.Layout.Len() > 0:
		plants := s.Layout.Plants()
		return Event{Kind: Edit, PlantID: plants[rng.IntN(len(plants))].ID}
	case n < 8 && s.Layout.Len() > 0:
		plants := s.Layout.Plants()
		return Event{Kind: DeletePlant, PlantID: plants[rng.IntN(len(plants))].ID}
	case n < 9:
		return Event{Kind: Zoom, Scale: MinScale + rng.Float64()*(MaxScale-MinScale)}
	default:
		return Event{Kind: PointerMove, X: x, Y: y}
	}
}

func TestDeletePreservesSurvivors(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 42))
	var l Layout
	for range 200 {
		next, _, err := l.Place(tomato, rng.Float64()*1000, rng.Float64()*1000)
		if err == nil {
			l = next
		}
	}
	require.Greater(t, l.Len(), 3)

	for l.Len() > 0 {
		plants := l.Plants()
		victim := plants[rng.IntN(len(plants))]
		next, _, err := l.Delete(victim.ID)
		require.NoError(t, err)

		var want []garden.Plant
		for _, p := range plants {
			if p.ID != victim.ID {
				want = append(want, p)
			}
		}
		assert.Equal(t, len(want), next.Len())
		if len(want) > 0 {
			assert.Equal(t, want, next.Plants())
		}
		l = next
	}
}
