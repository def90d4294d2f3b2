package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/visual-tutor/engine/core/transcript"
	"github.com/visual-tutor/engine/engine"
	"github.com/visual-tutor/engine/observability"
	"github.com/visual-tutor/engine/server"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(engine.DefaultConfig(),
		engine.WithLogger(logger),
		engine.WithObserver(observability.NoOpObserver{}),
	)
	srv := server.New(server.Defaults(), eng, logger)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func doRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	return resp
}

func startSession(t *testing.T, baseURL, id string) {
	t.Helper()
	resp := postJSON(t, baseURL+"/v1/sessions", map[string]any{"session_id": id})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start session: got status %d, want 201", resp.StatusCode)
	}
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
}

func TestStartSession(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/sessions", map[string]any{
		"session_id": "sess-1",
		"student_id": "student-42",
		"topic":      "quadratic equations",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("got status %d, want 201", resp.StatusCode)
	}

	var body map[string]string
	decodeBody(t, resp, &body)
	if body["session_id"] != "sess-1" {
		t.Errorf("got session_id %q, want %q", body["session_id"], "sess-1")
	}
	if body["status"] != "initializing" {
		t.Errorf("got status %q, want %q", body["status"], "initializing")
	}
}

func TestStartSession_Conflict(t *testing.T) {
	ts := newTestServer(t)
	startSession(t, ts.URL, "sess-1")

	resp := postJSON(t, ts.URL+"/v1/sessions", map[string]any{"session_id": "sess-2"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("got status %d, want 409", resp.StatusCode)
	}
}

func TestConfirmReady(t *testing.T) {
	ts := newTestServer(t)
	startSession(t, ts.URL, "sess-1")

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/sessions/sess-1/ready")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("got status %d, want 204", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/sessions/sess-other/ready")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("wrong id: got status %d, want 404", resp.StatusCode)
	}
}

func TestEndSession(t *testing.T) {
	ts := newTestServer(t)
	startSession(t, ts.URL, "sess-1")

	resp := doRequest(t, http.MethodDelete, ts.URL+"/v1/sessions/sess-1")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("got status %d, want 204", resp.StatusCode)
	}
}

func TestEndSession_Unknown(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, http.MethodDelete, ts.URL+"/v1/sessions/missing")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("got status %d, want 404", resp.StatusCode)
	}
}

func TestIngress(t *testing.T) {
	ts := newTestServer(t)
	startSession(t, ts.URL, "sess-1")

	resp := postJSON(t, ts.URL+"/v1/ingress", map[string]any{
		"segments": []map[string]any{
			{"type": "text", "content": "solve for x"},
			{"type": "math", "content": "2x + 3 = 11"},
		},
		"speaker":      "ai",
		"timestamp":    time.Now().UnixMilli(),
		"showThenTell": true,
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("got status %d, want 202", resp.StatusCode)
	}

	var body struct {
		ItemIDs []string `json:"item_ids"`
	}
	decodeBody(t, resp, &body)
	if len(body.ItemIDs) != 2 {
		t.Fatalf("got %d ids, want 2", len(body.ItemIDs))
	}

	itemsResp := doRequest(t, http.MethodGet, ts.URL+"/v1/items")
	var items struct {
		Items []transcript.ContentItem `json:"items"`
		Count int                      `json:"count"`
	}
	decodeBody(t, itemsResp, &items)
	if items.Count != 2 {
		t.Fatalf("got count %d, want 2", items.Count)
	}
	if items.Items[1].VisualLeadMs != 400 {
		t.Errorf("got visual lead %d, want 400", items.Items[1].VisualLeadMs)
	}
}

func TestIngress_MalformedBatch(t *testing.T) {
	ts := newTestServer(t)
	startSession(t, ts.URL, "sess-1")

	resp := postJSON(t, ts.URL+"/v1/ingress", map[string]any{"speaker": "ai"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("batch without segments: got status %d, want 400", resp.StatusCode)
	}
}

func TestIngress_InvalidJSON(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/v1/ingress", "application/json", strings.NewReader("{broken"))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", resp.StatusCode)
	}
}

func TestStats(t *testing.T) {
	ts := newTestServer(t)
	startSession(t, ts.URL, "sess-1")

	postJSON(t, ts.URL+"/v1/ingress", map[string]any{
		"segments": []map[string]any{{"type": "math", "content": "x^2 = 9"}},
		"speaker":  "teacher",
	}).Body.Close()

	resp := doRequest(t, http.MethodGet, ts.URL+"/v1/sessions/stats")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want 200", resp.StatusCode)
	}

	var stats struct {
		MessageCount      int `json:"message_count"`
		MathEquationCount int `json:"math_equation_count"`
	}
	decodeBody(t, resp, &stats)
	if stats.MessageCount != 1 || stats.MathEquationCount != 1 {
		t.Errorf("got counts %d/%d, want 1/1", stats.MessageCount, stats.MathEquationCount)
	}
}

func TestStats_NoSession(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, http.MethodGet, ts.URL+"/v1/sessions/stats")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("got status %d, want 404", resp.StatusCode)
	}
}

func TestStream_InitialSnapshotAndUpdates(t *testing.T) {
	ts := newTestServer(t)
	startSession(t, ts.URL, "sess-1")

	postJSON(t, ts.URL+"/v1/ingress", map[string]any{
		"segments": []map[string]any{{"type": "text", "content": "before connect"}},
		"speaker":  "teacher",
	}).Body.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	var first struct {
		Items []transcript.ContentItem `json:"items"`
		Count int                      `json:"count"`
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("reading initial snapshot: %v", err)
	}
	if first.Count != 1 {
		t.Fatalf("initial snapshot: got count %d, want 1", first.Count)
	}

	postJSON(t, ts.URL+"/v1/ingress", map[string]any{
		"segments": []map[string]any{{"type": "text", "content": "after connect"}},
		"speaker":  "teacher",
	}).Body.Close()

	var second struct {
		Items []transcript.ContentItem `json:"items"`
		Count int                      `json:"count"`
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("reading update snapshot: %v", err)
	}
	if second.Count != 2 {
		t.Errorf("update snapshot: got count %d, want 2", second.Count)
	}
	if second.Items[1].Content != "after connect" {
		t.Errorf("got tail content %q, want %q", second.Items[1].Content, "after connect")
	}
}

func TestStream_MultipleClients(t *testing.T) {
	ts := newTestServer(t)
	startSession(t, ts.URL, "sess-1")

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/stream"

	conns := make([]*websocket.Conn, 2)
	for i := range conns {
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("dial %d failed: %v", i, err)
		}
		if resp != nil {
			resp.Body.Close()
		}
		defer conn.Close()
		conns[i] = conn

		// Drain the initial empty snapshot.
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var initial json.RawMessage
		if err := conn.ReadJSON(&initial); err != nil {
			t.Fatalf("initial read %d failed: %v", i, err)
		}
	}

	postJSON(t, ts.URL+"/v1/ingress", map[string]any{
		"segments": []map[string]any{{"type": "text", "content": "broadcast"}},
		"speaker":  "ai",
	}).Body.Close()

	for i, conn := range conns {
		var msg struct {
			Count int `json:"count"`
		}
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("client %d read failed: %v", i, err)
		}
		if msg.Count != 1 {
			t.Errorf("client %d: got count %d, want 1", i, msg.Count)
		}
	}
}

func TestItems_EmptyWithoutSession(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, http.MethodGet, ts.URL+"/v1/items")
	var body struct {
		Count int `json:"count"`
	}
	decodeBody(t, resp, &body)
	if body.Count != 0 {
		t.Errorf("got count %d, want 0", body.Count)
	}
}

func TestIngress_ManySegmentsOrdered(t *testing.T) {
	ts := newTestServer(t)
	startSession(t, ts.URL, "sess-1")

	segments := make([]map[string]any, 10)
	for i := range segments {
		segments[i] = map[string]any{"type": "text", "content": fmt.Sprintf("segment-%d", i)}
	}
	postJSON(t, ts.URL+"/v1/ingress", map[string]any{
		"segments": segments,
		"speaker":  "teacher",
	}).Body.Close()

	resp := doRequest(t, http.MethodGet, ts.URL+"/v1/items")
	var body struct {
		Items []transcript.ContentItem `json:"items"`
	}
	decodeBody(t, resp, &body)
	for i, item := range body.Items {
		if item.Content != fmt.Sprintf("segment-%d", i) {
			t.Fatalf("item %d out of order: %q", i, item.Content)
		}
	}
}
