package telephony

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString([]byte("secret-key-material"))
}

func newTestACS(t *testing.T, handler http.HandlerFunc) (*ACSClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewACSClient(srv.URL, testKey(), 5*time.Second)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c, srv
}

func TestNewACSClient_RejectsBadKey(t *testing.T) {
	if _, err := NewACSClient("https://x", "not base64 !!!", 0); err == nil {
		t.Fatalf("expected error for non-base64 key")
	}
	if _, err := NewACSClient("", testKey(), 0); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
}

func TestACSAnswer_SignsAndDecodes(t *testing.T) {
	var gotReq *http.Request
	var gotBody acsAnswerRequest
	c, _ := newTestACS(t, func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(acsAnswerResponse{CallConnectionID: "conn-42"})
	})

	id, err := c.Answer(context.Background(), "ctx-1", "https://cb.example/events")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if id != "conn-42" {
		t.Fatalf("id: %q", id)
	}
	if gotBody.IncomingCallContext != "ctx-1" || gotBody.CallbackURI != "https://cb.example/events" {
		t.Fatalf("body: %+v", gotBody)
	}

	if gotReq.URL.Query().Get("api-version") != acsAPIVersion {
		t.Fatalf("api-version missing: %s", gotReq.URL.RawQuery)
	}
	if gotReq.Header.Get("x-ms-date") == "" || gotReq.Header.Get("x-ms-content-sha256") == "" {
		t.Fatalf("signing headers missing")
	}
	auth := gotReq.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "HMAC-SHA256 SignedHeaders=x-ms-date;host;x-ms-content-sha256&Signature=") {
		t.Fatalf("authorization header: %q", auth)
	}
}

func TestACSTransfer_404MapsToConnectionNotFound(t *testing.T) {
	c, _ := newTestACS(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	err := c.Transfer(context.Background(), "conn-1", "8:acs:alice")
	if !errors.Is(err, ErrConnectionNotFound) {
		t.Fatalf("expected ErrConnectionNotFound, got %v", err)
	}
}

func TestACSHangup_TerminateVsLeave(t *testing.T) {
	var method, path string
	c, _ := newTestACS(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.Hangup(context.Background(), "conn-1", true); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if method != http.MethodPost || !strings.HasSuffix(path, ":terminate") {
		t.Fatalf("terminate request: %s %s", method, path)
	}

	if err := c.Hangup(context.Background(), "conn-1", false); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if method != http.MethodDelete {
		t.Fatalf("leave request: %s %s", method, path)
	}
}

func TestACSAnswer_ErrorStatusSurfacesSnippet(t *testing.T) {
	c, _ := newTestACS(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	})
	_, err := c.Answer(context.Background(), "ctx-1", "https://cb.example/events")
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status error, got %v", err)
	}
}
