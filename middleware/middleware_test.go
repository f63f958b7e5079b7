package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "trono-server/utils/errors"
)

type stubParser map[string]string

func (p stubParser) ParseSession(token string) (string, error) {
	if id, ok := p[token]; ok {
		return id, nil
	}
	return "", errors.New("bad token")
}

func sessionEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := SessionIDFromContext(r.Context())
		_, _ = io.WriteString(w, id)
	})
}

func TestJWTMiddleware(t *testing.T) {
	h := JWTMiddleware(stubParser{"good": "session-1"})(sessionEcho())

	tests := []struct {
		name       string
		method     string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "valid token", method: http.MethodGet, header: "Bearer good", wantStatus: http.StatusOK, wantBody: "session-1"},
		{name: "missing header", method: http.MethodGet, wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", method: http.MethodGet, header: "Basic good", wantStatus: http.StatusUnauthorized},
		{name: "invalid token", method: http.MethodGet, header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "preflight passes", method: http.MethodOptions, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/user/location", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				var body apierrors.APIError
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, "UNAUTHORIZED", body.Code)
				return
			}
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestSessionIDFromContextEmpty(t *testing.T) {
	_, ok := SessionIDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}

func TestWriteError(t *testing.T) {
	t.Run("api error keeps status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, apierrors.ErrNoLocation)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		var body apierrors.APIError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "NO_LOCATION", body.Code)
		assert.Equal(t, http.StatusNotFound, body.Status)
	})

	t.Run("plain error becomes 500", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, errors.New("boom"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var body apierrors.APIError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "UNKNOWN_ERROR", body.Code)
		assert.Equal(t, "boom", body.Details)
	})
}

func TestErrorMiddlewareRecovers(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	h := ErrorMiddleware(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pois", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, logs.String(), "kaboom")
}

func TestCORSMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	t.Run("allowed origin", func(t *testing.T) {
		h := CORSMiddleware([]string{"http://localhost:5173"})(ok)
		req := httptest.NewRequest(http.MethodGet, "/pois", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		h := CORSMiddleware([]string{"*"})(ok)
		req := httptest.NewRequest(http.MethodOptions, "/user/ping", nil)
		req.Header.Set("Origin", "https://app.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		h := CORSMiddleware([]string{"http://localhost:5173"})(ok)
		req := httptest.NewRequest(http.MethodGet, "/pois", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRequestIDAndLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	h := RequestID(StructuredLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/pois", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, "req-42", entry["req_id"])
	assert.Equal(t, "/pois", entry["path"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
}
