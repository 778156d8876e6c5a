package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/platformer/internal/game"
	"github.com/jwebster45206/platformer/pkg/inventory"
	"github.com/jwebster45206/platformer/pkg/item"
	"github.com/jwebster45206/platformer/pkg/sheet"
	"github.com/jwebster45206/platformer/pkg/world"
)

type fakeSim struct {
	mu        sync.Mutex
	frame     game.Frame
	submitted []game.Input
}

func (s *fakeSim) Latest() game.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

func (s *fakeSim) Submit(in game.Input) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = append(s.submitted, in)
}

type fakeRefresher struct {
	data *sheet.Data
	err  error
	off  bool
}

func (r fakeRefresher) Refresh(ctx context.Context, done func(*sheet.Data, error)) bool {
	if r.off {
		return false
	}
	go done(r.data, r.err)
	return true
}

func newServer(t *testing.T, h *GameHandler) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGameHandler_State(t *testing.T) {
	sim := &fakeSim{frame: game.Frame{
		Tick:   7,
		Player: game.PlayerFrame{Position: world.Vec2{X: 1, Y: 2}, Facing: world.FacingLeft, HP: 9, MaxHP: 10},
	}}
	srv := newServer(t, NewGameHandler(sim, nil, nil, testLogger()))

	resp, err := http.Get(srv.URL + "/v1/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var frame game.Frame
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&frame))
	assert.Equal(t, uint64(7), frame.Tick)
	assert.Equal(t, world.Vec2{X: 1, Y: 2}, frame.Player.Position)
	assert.Equal(t, world.FacingLeft, frame.Player.Facing)
	assert.Equal(t, 9, frame.Player.HP)
}

func TestGameHandler_Input(t *testing.T) {
	sim := &fakeSim{}
	srv := newServer(t, NewGameHandler(sim, nil, nil, testLogger()))

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"walk and jump", `{"horizontal": 1, "jump": true}`, http.StatusAccepted},
		{"choose", `{"choose": 1}`, http.StatusAccepted},
		{"malformed", `{"horizontal":`, http.StatusBadRequest},
		{"unknown field", `{"fly": true}`, http.StatusBadRequest},
		{"axis out of range", `{"horizontal": 3}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/v1/input", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	require.Len(t, sim.submitted, 2)
	assert.Equal(t, 1.0, sim.submitted[0].HorizontalAxis())
	assert.True(t, sim.submitted[0].Jump)
	require.NotNil(t, sim.submitted[1].Choose)
	assert.Equal(t, 1, *sim.submitted[1].Choose)
}

func TestHandlers_NilLogger(t *testing.T) {
	sim := &fakeSim{}
	mux := http.NewServeMux()
	mux.Handle("/health", NewHealthHandler(fakePinger{err: errors.New("down")}, sim, nil))
	NewGameHandler(sim, nil, nil, nil).Register(mux)
	srv := httptest.NewServer(LogRequests(mux, nil))
	t.Cleanup(srv.Close)

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/health", "", http.StatusServiceUnavailable},
		{http.MethodPost, "/v1/input", `{"horizontal":`, http.StatusBadRequest},
		{http.MethodPost, "/v1/sheet/refresh", "", http.StatusServiceUnavailable},
		{http.MethodGet, "/v1/inventory", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestGameHandler_MethodNotAllowed(t *testing.T) {
	srv := newServer(t, NewGameHandler(&fakeSim{}, nil, nil, testLogger()))

	resp, err := http.Post(srv.URL+"/v1/state", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestGameHandler_Inventory(t *testing.T) {
	sword := item.New("Sword", "", "", item.Equipment, false, 1)
	slots := make([]inventory.Slot, 3)
	slots[1] = inventory.Slot{Item: &sword, Equipped: true}
	sim := &fakeSim{frame: game.Frame{Inventory: slots}}
	srv := newServer(t, NewGameHandler(sim, nil, nil, testLogger()))

	resp, err := http.Get(srv.URL + "/v1/inventory")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Inventory (1/3)\n  [1] Sword x1 (Equipment) equipped\n", string(body))
}

func TestGameHandler_Refresh(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		srv := newServer(t, NewGameHandler(&fakeSim{}, nil, nil, testLogger()))
		resp, err := http.Post(srv.URL+"/v1/sheet/refresh", "", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("no fetcher", func(t *testing.T) {
		srv := newServer(t, NewGameHandler(&fakeSim{}, fakeRefresher{off: true}, nil, testLogger()))
		resp, err := http.Post(srv.URL+"/v1/sheet/refresh", "", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("delivers data", func(t *testing.T) {
		data := &sheet.Data{}
		got := make(chan *sheet.Data, 1)
		h := NewGameHandler(&fakeSim{}, fakeRefresher{data: data}, func(d *sheet.Data) { got <- d }, testLogger())
		srv := newServer(t, h)

		resp, err := http.Post(srv.URL+"/v1/sheet/refresh", "", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		select {
		case d := <-got:
			assert.Same(t, data, d)
		case <-time.After(2 * time.Second):
			t.Fatal("reload never called")
		}
	})

	t.Run("failure is not delivered", func(t *testing.T) {
		called := make(chan struct{}, 1)
		h := NewGameHandler(&fakeSim{}, fakeRefresher{err: errors.New("boom")}, func(*sheet.Data) { called <- struct{}{} }, testLogger())
		srv := newServer(t, h)

		resp, err := http.Post(srv.URL+"/v1/sheet/refresh", "", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		select {
		case <-called:
			t.Fatal("reload called on failure")
		case <-time.After(100 * time.Millisecond):
		}
	})
}
