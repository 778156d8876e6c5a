package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRequests(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rr := httptest.NewRecorder()
	LogRequests(next, log).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/state", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	id := rr.Header().Get("X-Request-ID")
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "request_id="+id)
	assert.Contains(t, out, "status=418")
	assert.Contains(t, out, "path=/v1/state")
}
