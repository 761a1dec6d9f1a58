package logger

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func serveOnce(t *testing.T, requestID string) (*httptest.ResponseRecorder, *bytes.Buffer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(Middleware(l))
	r.GET("/v1/calls/:id", func(c *gin.Context) {
		if FromGin(c) == slog.Default() {
			t.Errorf("handler did not get the request-scoped logger")
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/calls/c-1", nil)
	if requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, &buf
}

func TestMiddleware_GeneratesRequestID(t *testing.T) {
	w, buf := serveOnce(t, "")
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id header missing")
	}
	line := buf.String()
	for _, key := range []string{`"request_id"`, `"route":"/v1/calls/:id"`, `"client_ip"`, `"status":200`} {
		if !strings.Contains(line, key) {
			t.Fatalf("summary line missing %s: %s", key, line)
		}
	}
}

func TestMiddleware_EchoesCallerRequestID(t *testing.T) {
	w, buf := serveOnce(t, "rid-42")
	if got := w.Header().Get("X-Request-Id"); got != "rid-42" {
		t.Fatalf("request id: %q", got)
	}
	if !strings.Contains(buf.String(), `"request_id":"rid-42"`) {
		t.Fatalf("summary line missing caller request id: %s", buf.String())
	}
}
