// Package pkg provides the core libraries for the gardengrid planner.
//
// # Overview
//
// Gardengrid lays out plants on a garden plot. Every plant occupies a
// circular footprint whose diameter is its spread, and no two footprints
// may overlap. The pkg directory is organized into three areas:
//
//  1. Domain logic: [geom], [garden], [placement]
//  2. Orchestration: [planner], [pipeline], [render]
//  3. Infrastructure: [storage], [cache], [syncer], [session], [identity]
//
// # Architecture
//
// The typical flow of one user action:
//
//	pointer or key event
//	         ↓
//	    [planner] workspace (serializes events per user)
//	         ↓
//	    [placement] state machine (preview, overlap, clamp)
//	         ↓
//	    [notice] sink (e.g. "❌ Overlap!")  +  [syncer] (background save)
//	         ↓
//	    [storage] backend (file, SQLite, MongoDB)
//
// Rendering reads the same state: [pipeline] keys the rendered artifacts
// by garden content in [cache] and asks [render] for SVG, PNG, PDF or
// JSON.
//
// # Quick Start
//
// Place two plants and render the result:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/gardengrid/pkg/garden"
//	    "github.com/matzehuels/gardengrid/pkg/planner"
//	    "github.com/matzehuels/gardengrid/pkg/render"
//	)
//
//	snap := garden.Snapshot{Palette: garden.DefaultPalette()}
//	ws := planner.New("local", snap, planner.Options{Plot: garden.DefaultPlot})
//
//	tomato := snap.Palette[0].ID
//	ws.Place(ctx, tomato, 100, 100)
//	if _, err := ws.Place(ctx, tomato, 110, 100); err != nil {
//	    // errors.ErrCodeOverlap: footprints would intersect
//	}
//
//	svg := render.RenderSVG(render.Commands(ws.State()))
//
// # Main Packages
//
// [geom] - Points, distances and the strict circle overlap test.
//
// [garden] - Templates, plants, the palette, layouts and plot bounds.
//
// [placement] - The placement engine: selection modes (idle, armed,
// editing), hover preview, zoom and the clamp-to-plot policy. Pure values,
// no I/O.
//
// [planner] - Binds a user's placement state to notices and persistence.
// [planner.Manager] keeps one workspace per user for the HTTP server.
//
// [render] - SVG drawing of the grid, plants and preview, PNG through
// Graphviz, PDF through rsvg-convert, and a JSON view of the state.
//
// [pipeline] - Cached rendering shared by the CLI and the server.
//
// [storage] - Document stores keyed by user and collection, with memory,
// file, SQLite and MongoDB backends.
//
// [cache] - Render cache with null, file and Redis backends.
//
// [syncer] - Coalescing background saver with retry.
//
// [session] and [identity] - Accounts, bcrypt passwords, JWT bearer
// tokens and login sessions.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/placement/...          # Specific package
//	go test -run Example                 # Examples only
//
// [geom]: https://pkg.go.dev/github.com/matzehuels/gardengrid/pkg/geom
// [garden]: https://pkg.go.dev/github.com/matzehuels/gardengrid/pkg/garden
// [placement]: https://pkg.go.dev/github.com/matzehuels/gardengrid/pkg/placement
// [planner]: https://pkg.go.dev/github.com/matzehuels/gardengrid/pkg/planner
// [planner.Manager]: https://pkg.go.dev/github.com/matzehuels/gardengrid/pkg/planner#Manager
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/gardengrid/pkg/pipeline
// [render]: https://pkg.go.dev/github.com/matzehuels/gardengrid/pkg/render
// [notice]: https://pkg.go.dev/github.com/matzehuels/gardengrid/pkg/notice
// [storage]: https://pkg.go.dev/github.com/matzehuels/gardengrid/pkg/storage
// [cache]: https://pkg.go.dev/github.com/matzehuels/gardengrid/pkg/cache
// [syncer]: https://pkg.go.dev/github.com/matzehuels/gardengrid/pkg/syncer
// [session]: https://pkg.go.dev/github.com/matzehuels/gardengrid/pkg/session
// [identity]: https://pkg.go.dev/github.com/matzehuels/gardengrid/pkg/identity
package pkg
