package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	cws "github.com/coder/websocket"

	"github.com/dukerupert/chorejar/internal/appdata"
	"github.com/dukerupert/chorejar/internal/backup"
	"github.com/dukerupert/chorejar/internal/issues"
	"github.com/dukerupert/chorejar/internal/kv"
	"github.com/dukerupert/chorejar/internal/model"
	"github.com/dukerupert/chorejar/internal/store"
	ws "github.com/dukerupert/chorejar/internal/websocket"
)

func setupServerTest(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	mem := kv.NewMemoryStore()
	t.Cleanup(func() { mem.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	data := appdata.NewClient(store.New(mem), logger)
	srv := New(data, issues.NewClient("", "rodlunt", "chores", logger), backup.S3Config{}, logger)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	_, ts := setupServerTest(t)

	resp := doJSON(t, "GET", ts.URL+"/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("status = %q, want %q", body["status"], "ok")
	}
}

func TestChoreFlowThroughRouter(t *testing.T) {
	_, ts := setupServerTest(t)

	resp := doJSON(t, "POST", ts.URL+"/api/children", `{"name":"Ava"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create child status = %d", resp.StatusCode)
	}
	var ava model.Child
	json.NewDecoder(resp.Body).Decode(&ava)

	resp = doJSON(t, "POST", ts.URL+"/api/children/"+ava.ID+"/complete", `{"valueCents":150}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete status = %d", resp.StatusCode)
	}
	resp = doJSON(t, "POST", ts.URL+"/api/children/"+ava.ID+"/complete", `{"valueCents":150}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete status = %d", resp.StatusCode)
	}

	resp = doJSON(t, "PUT", ts.URL+"/api/settings", `{"sounds":true,"haptics":true,"confetti":true,"displayMode":"points"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("settings status = %d", resp.StatusCode)
	}

	resp = doJSON(t, "GET", ts.URL+"/api/totals", "")
	var totals struct {
		TotalCents int64  `json:"totalCents"`
		Display    string `json:"display"`
	}
	json.NewDecoder(resp.Body).Decode(&totals)
	if totals.TotalCents != 300 || totals.Display != "300 points" {
		t.Errorf("totals = %+v, want 300 / 300 points", totals)
	}

	resp = doJSON(t, "POST", ts.URL+"/api/children/"+ava.ID+"/payout", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("payout status = %d", resp.StatusCode)
	}
	resp = doJSON(t, "POST", ts.URL+"/api/children/"+ava.ID+"/payout", "")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second payout status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	resp = doJSON(t, "GET", ts.URL+"/api/payouts", "")
	var payouts []model.Payout
	json.NewDecoder(resp.Body).Decode(&payouts)
	if len(payouts) != 1 || payouts[0].AmountCents != 300 {
		t.Errorf("payouts = %+v, want one of 300", payouts)
	}

	resp = doJSON(t, "DELETE", ts.URL+"/api/children/"+ava.ID, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp = doJSON(t, "GET", ts.URL+"/api/payouts", "")
	payouts = nil
	json.NewDecoder(resp.Body).Decode(&payouts)
	if len(payouts) != 0 {
		t.Errorf("payouts after delete = %+v, want none", payouts)
	}
}

func TestUnknownRoute(t *testing.T) {
	_, ts := setupServerTest(t)

	resp := doJSON(t, "PUT", ts.URL+"/api/chores", "{}")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestBackupsUnconfigured(t *testing.T) {
	_, ts := setupServerTest(t)

	resp := doJSON(t, "GET", ts.URL+"/api/backups/status", "")
	var status backup.Status
	json.NewDecoder(resp.Body).Decode(&status)
	if status.State != backup.StateDisabled {
		t.Errorf("state = %q, want %q", status.State, backup.StateDisabled)
	}

	resp = doJSON(t, "GET", ts.URL+"/api/backups", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("list status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestIssueEndpointRateLimited(t *testing.T) {
	_, ts := setupServerTest(t)

	body := `{"issueType":"bug","category":"UI","description":"button broken"}`
	for i := 0; i < issueRateLimit; i++ {
		resp := doJSON(t, "POST", ts.URL+"/api/issues/create", body)
		// No token is configured, so each allowed request fails upstream.
		if resp.StatusCode != http.StatusInternalServerError {
			t.Fatalf("request %d status = %d, want %d", i, resp.StatusCode, http.StatusInternalServerError)
		}
	}
	resp := doJSON(t, "POST", ts.URL+"/api/issues/create", body)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}
}

func TestMutationBroadcastsInvalidation(t *testing.T) {
	srv, ts := setupServerTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := cws.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Hub().ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	readMessage := func() ws.Message {
		t.Helper()
		_, raw, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var msg ws.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return msg
	}

	greeting := readMessage()
	if greeting.Type != ws.TypeInvalidate || len(greeting.Keys) != 4 {
		t.Errorf("greeting = %+v, want invalidate of every root key", greeting)
	}

	resp := doJSON(t, "POST", ts.URL+"/api/chores", `{"title":"Dishes","valueCents":100}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create chore status = %d", resp.StatusCode)
	}

	msg := readMessage()
	if msg.Type != ws.TypeInvalidate || len(msg.Keys) != 1 || msg.Keys[0] != "chores" {
		t.Errorf("message = %+v, want invalidate [chores]", msg)
	}
}
