package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/gardengrid/pkg/errors"
	"github.com/matzehuels/gardengrid/pkg/garden"
	"github.com/matzehuels/gardengrid/pkg/geom"
	"github.com/matzehuels/gardengrid/pkg/notice"
	"github.com/matzehuels/gardengrid/pkg/pipeline"
	"github.com/matzehuels/gardengrid/pkg/placement"
	"github.com/matzehuels/gardengrid/pkg/planner"
	"github.com/matzehuels/gardengrid/pkg/render"
)

type gardenView struct {
	Plot      garden.Plot         `json:"plot"`
	Scale     float64             `json:"scale"`
	Palette   []garden.Template   `json:"palette"`
	Plants    []garden.Plant      `json:"plants"`
	Selection placement.Selection `json:"selection"`
	Readout   *geom.Point         `json:"readout,omitempty"`
	Usage     map[string]int      `json:"usage"`
}

func newGardenView(s placement.State) gardenView {
	snap := s.Snapshot()
	v := gardenView{
		Plot:      s.Viewport.Plot,
		Scale:     s.Viewport.Scale,
		Palette:   snap.Palette,
		Plants:    snap.Plants,
		Selection: s.Selection,
		Usage:     garden.UsageCounts(snap.Plants),
	}
	if s.Hover {
		r := s.Readout()
		v.Readout = &r
	}
	return v
}

// workspace loads the caller's workspace or writes the error.
func (s *Server) workspace(w http.ResponseWriter, r *http.Request) (*planner.Workspace, bool) {
	ws, err := s.opts.Planners.Get(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return ws, true
}

func (s *Server) handleGarden(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newGardenView(ws.State()))
}

func (s *Server) handleAddTemplate(w http.ResponseWriter, r *http.Request) {
	var t garden.Template
	if err := decode(w, r, &t); err != nil {
		s.writeError(w, r, err)
		return
	}
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	t.ID = ""
	added, err := ws.AddTemplate(r.Context(), t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleRemoveTemplate(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	removed, err := ws.RemoveTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

type placeRequest struct {
	TemplateID    string   `json:"template_id"`
	TemplateIDAlt string   `json:"templateId"`
	X             *float64 `json:"x"`
	Y             *float64 `json:"y"`
}

type moveRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id := req.TemplateID
	if id == "" {
		id = req.TemplateIDAlt
	}
	if id == "" || req.X == nil || req.Y == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "template_id, x and y are required"))
		return
	}
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	p, err := ws.Place(r.Context(), id, *req.X, *req.Y)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.X == nil || req.Y == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "x and y are required"))
		return
	}
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	p, err := ws.Move(r.Context(), chi.URLParam(r, "id"), *req.X, *req.Y)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	p, err := ws.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type eventResponse struct {
	Change   placement.Change `json:"change,omitempty"`
	Plant    *garden.Plant    `json:"plant,omitempty"`
	Template *garden.Template `json:"template,omitempty"`
	Error    *errorBody       `json:"error,omitempty"`
	Notices  []notice.Notice  `json:"notices"`
	State    render.Frame     `json:"state"`
}

// handleEvent applies one normalized event. A rejected event is not an HTTP
// error: the rejection and its notice are part of the response.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var e placement.Event
	if err := decode(w, r, &e); err != nil {
		s.writeError(w, r, err)
		return
	}
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	res := ws.Apply(r.Context(), e)

	resp := eventResponse{Change: res.Change, Notices: []notice.Notice{}, State: render.NewFrame(ws.State())}
	switch res.Change {
	case placement.PlantPlaced, placement.PlantMoved, placement.PlantDeleted:
		resp.Plant = &res.Plant
	case placement.TemplateAdded, placement.TemplateRemoved:
		resp.Template = &res.Template
	}
	if res.Err != nil {
		resp.Error = &errorBody{Code: errors.GetCode(res.Err), Message: errors.UserMessage(res.Err)}
		if resp.Error.Code == errors.ErrCodeOverlap {
			resp.Error.Conflicts = errors.Conflicts(res.Err)
		}
	}
	if res.Notice != nil {
		resp.Notices = append(resp.Notices, *res.Notice)
	}
	writeJSON(w, http.StatusOK, resp)
}

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if !pipeline.ValidFormats[format] {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "unsupported format %q", format))
		return
	}
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	artifacts, hit, err := s.opts.Runner.RenderWithCacheInfo(r.Context(), ws.State(), pipeline.Options{
		Formats: []string{format},
		Refresh: r.URL.Query().Get("refresh") == "true",
		Logger:  s.logger,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}
