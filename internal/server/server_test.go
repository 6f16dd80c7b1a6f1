package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/matzehuels/gardengrid/pkg/garden"
	"github.com/matzehuels/gardengrid/pkg/identity"
	"github.com/matzehuels/gardengrid/pkg/notice"
	"github.com/matzehuels/gardengrid/pkg/planner"
	"github.com/matzehuels/gardengrid/pkg/session"
	"github.com/matzehuels/gardengrid/pkg/storage/memory"
)

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
	token  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	ids, err := identity.New(store, identity.Config{Secret: []byte("test-secret"), Issuer: "test", Cost: bcrypt.MinCost})
	require.NoError(t, err)

	s, err := New(Options{
		Identity: ids,
		Sessions: session.NewMemoryStore(),
		Planners: planner.NewManager(store, planner.Options{}),
		Store:    store,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return &harness{t: t, srv: srv, client: srv.Client()}
}

func (h *harness) do(method, path string, body any, hdr ...string) *http.Response {
	h.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(h.t, err)
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, rd)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func (h *harness) signUp(email string) authResponse {
	h.t.Helper()
	resp := h.do(http.MethodPost, "/api/auth/signup", credentials{Email: email, Password: "secret1"})
	require.Equal(h.t, http.StatusCreated, resp.StatusCode)
	auth := decodeBody[authResponse](h.t, resp)
	h.token = auth.Token
	return auth
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	resp := h.do(http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = h.do(http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[healthResponse](t, resp)
	assert.Equal(t, "ready", body.Status)
}

func TestAuthErrors(t *testing.T) {
	h := newHarness(t)
	h.signUp("ann@example.com")
	h.token = ""

	tests := []struct {
		name   string
		path   string
		creds  credentials
		status int
		msg    string
	}{
		{"duplicate email", "/api/auth/signup", credentials{"ann@example.com", "secret1"}, http.StatusConflict, identity.MsgEmailTaken},
		{"weak password", "/api/auth/signup", credentials{"bob@example.com", "123"}, http.StatusUnprocessableEntity, "Password should be at least 6 characters."},
		{"invalid email", "/api/auth/login", credentials{"not-an-email", "secret1"}, http.StatusUnprocessableEntity, "Invalid email address."},
		{"unknown user", "/api/auth/login", credentials{"zed@example.com", "secret1"}, http.StatusNotFound, identity.MsgUserNotFound},
		{"wrong password", "/api/auth/login", credentials{"ann@example.com", "nope123"}, http.StatusUnauthorized, identity.MsgWrongPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.do(http.MethodPost, tt.path, tt.creds)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decodeBody[errorEnvelope](t, resp)
			assert.Equal(t, tt.msg, body.Error.Message)
		})
	}
}

func TestGardenRequiresAuth(t *testing.T) {
	h := newHarness(t)
	resp := h.do(http.MethodGet, "/api/garden", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = h.do(http.MethodGet, "/api/garden", nil, "Authorization", "Bearer junk")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGardenSeededOnFirstLoad(t *testing.T) {
	h := newHarness(t)
	h.signUp("ann@example.com")

	resp := h.do(http.MethodGet, "/api/garden", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decodeBody[gardenView](t, resp)
	assert.Len(t, view.Palette, 3)
	assert.Empty(t, view.Plants)
	assert.Equal(t, garden.DefaultPlot, view.Plot)
}

func TestPlaceMoveDelete(t *testing.T) {
	h := newHarness(t)
	h.signUp("ann@example.com")

	resp := h.do(http.MethodPost, "/api/palette", garden.Template{Name: "Tomato", Marker: "🍅", Spread: 30, Depth: 20})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	tomato := decodeBody[garden.Template](t, resp)
	require.NotEmpty(t, tomato.ID)

	resp = h.do(http.MethodPost, "/api/plants", map[string]any{"templateId": tomato.ID, "x": 100, "y": 100})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := decodeBody[garden.Plant](t, resp)

	resp = h.do(http.MethodPost, "/api/plants", map[string]any{"template_id": tomato.ID, "x": 115, "y": 100})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	overlap := decodeBody[errorEnvelope](t, resp)
	assert.Equal(t, "OVERLAP", string(overlap.Error.Code))
	assert.Equal(t, []string{first.ID}, overlap.Error.Conflicts)
	require.NotNil(t, overlap.Error.Notice)
	assert.Equal(t, notice.OverlapMessage, overlap.Error.Notice.Message)
	assert.EqualValues(t, 2000, overlap.Error.Notice.DurationMS)

	resp = h.do(http.MethodPost, "/api/plants", map[string]any{"template_id": tomato.ID, "x": 130, "y": 100})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	second := decodeBody[garden.Plant](t, resp)

	resp = h.do(http.MethodPatch, "/api/plants/"+first.ID, map[string]any{"x": 300, "y": 300})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	moved := decodeBody[garden.Plant](t, resp)
	assert.Equal(t, first.ID, moved.ID)
	assert.Equal(t, 300.0, moved.X)

	resp = h.do(http.MethodDelete, "/api/plants/"+second.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = h.do(http.MethodDelete, "/api/plants/"+second.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = h.do(http.MethodGet, "/api/garden", nil)
	view := decodeBody[gardenView](t, resp)
	require.Len(t, view.Plants, 1)
	assert.Equal(t, first.ID, view.Plants[0].ID)
	assert.Equal(t, 1, view.Usage["Tomato"])
}

func TestPlaceValidation(t *testing.T) {
	h := newHarness(t)
	h.signUp("ann@example.com")

	resp := h.do(http.MethodPost, "/api/palette", garden.Template{Name: "Bean", Spread: 10, Depth: 5})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decodeBody[errorEnvelope](t, resp)
	assert.Equal(t, garden.MissingFieldsMessage, body.Error.Message)
	require.NotNil(t, body.Error.Notice)
	assert.EqualValues(t, 3000, body.Error.Notice.DurationMS)

	resp = h.do(http.MethodPost, "/api/plants", map[string]any{"template_id": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(http.MethodPost, "/api/plants", map[string]any{"template_id": "x", "x": 1, "y": 1, "extra": true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(http.MethodDelete, "/api/palette/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEvents(t *testing.T) {
	h := newHarness(t)
	h.signUp("ann@example.com")

	view := decodeBody[gardenView](t, h.do(http.MethodGet, "/api/garden", nil))
	tomato := view.Palette[0]

	post := func(body map[string]any) eventResponse {
		t.Helper()
		resp := h.do(http.MethodPost, "/api/events", body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decodeBody[eventResponse](t, resp)
	}

	got := post(map[string]any{"kind": "click", "x": 50, "y": 50})
	require.NotNil(t, got.Error)
	assert.Equal(t, "MISSING_SELECTION", string(got.Error.Code))
	assert.Empty(t, got.Notices)

	post(map[string]any{"kind": "select", "template_id": tomato.ID})
	got = post(map[string]any{"kind": "move", "x": 100, "y": 100})
	require.NotNil(t, got.State.Preview)
	assert.True(t, got.State.Preview.Legal)

	got = post(map[string]any{"kind": "click", "x": 100, "y": 100})
	assert.Equal(t, "placed", string(got.Change))
	require.NotNil(t, got.Plant)
	assert.NotEmpty(t, got.State.Commands)

	got = post(map[string]any{"kind": "click", "x": 105, "y": 100})
	require.NotNil(t, got.Error)
	assert.Equal(t, "OVERLAP", string(got.Error.Code))
	require.Len(t, got.Notices, 1)
	assert.Equal(t, notice.OverlapMessage, got.Notices[0].Message)

	got = post(map[string]any{"kind": "zoom", "scale": 5})
	assert.Equal(t, 2.0, got.State.Scale)
}

func TestRender(t *testing.T) {
	h := newHarness(t)
	h.signUp("ann@example.com")

	resp := h.do(http.MethodGet, "/api/garden/render.svg", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "<svg"))

	resp = h.do(http.MethodGet, "/api/garden/render.gif", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCookieSession(t *testing.T) {
	h := newHarness(t)
	resp := h.do(http.MethodPost, "/api/auth/signup", credentials{Email: "ann@example.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	withCookie := func(method, path string) *http.Response {
		req, err := http.NewRequestWithContext(context.Background(), method, h.srv.URL+path, nil)
		require.NoError(t, err)
		req.AddCookie(cookie)
		resp, err := h.client.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	assert.Equal(t, http.StatusOK, withCookie(http.MethodGet, "/api/garden").StatusCode)
	assert.Equal(t, http.StatusNoContent, withCookie(http.MethodPost, "/api/auth/logout").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, withCookie(http.MethodGet, "/api/garden").StatusCode)
}

func TestUsersAreIsolated(t *testing.T) {
	h := newHarness(t)
	h.signUp("ann@example.com")
	view := decodeBody[gardenView](t, h.do(http.MethodGet, "/api/garden", nil))
	resp := h.do(http.MethodPost, "/api/plants", map[string]any{"template_id": view.Palette[0].ID, "x": 100, "y": 100})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	h.signUp("bob@example.com")
	view = decodeBody[gardenView](t, h.do(http.MethodGet, "/api/garden", nil))
	assert.Empty(t, view.Plants)
}
