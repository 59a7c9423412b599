package rpc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type capturedRequest struct {
	method      string
	contentType string
	requestID   string
	body        map[string]any
}

func newTestServer(t *testing.T, status int, reply string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()

	var mu sync.Mutex
	var seen []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)

		mu.Lock()
		seen = append(seen, capturedRequest{
			method:      r.Method,
			contentType: r.Header.Get("Content-Type"),
			requestID:   r.Header.Get(RequestIDHeader),
			body:        body,
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func newTestGateway(t *testing.T, endpoint string, opts ...Option) *Gateway {
	t.Helper()

	g, err := New(endpoint, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return g
}

func TestCallSendsPlainTextJSONBody(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `{"success":true}`)
	g := newTestGateway(t, srv.URL)

	from := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	req, err := NewCreatePassRequest("E1", "doctor", from, from.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("NewCreatePassRequest failed: %v", err)
	}
	res := g.CreateExitPass(context.Background(), req)
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}

	if len(*seen) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*seen))
	}
	got := (*seen)[0]
	if got.method != http.MethodPost {
		t.Fatalf("expected POST, got %s", got.method)
	}
	if got.contentType != ContentType {
		t.Fatalf("expected content type %q, got %q", ContentType, got.contentType)
	}
	if got.requestID == "" {
		t.Fatal("expected request id header")
	}
	want := map[string]any{
		"action":    "createExitPass",
		"user_id":   "E1",
		"reason":    "doctor",
		"exit_from": "2026-03-02T09:00:00Z",
		"exit_to":   "2026-03-02T11:00:00Z",
	}
	for k, v := range want {
		if got.body[k] != v {
			t.Fatalf("expected %s=%v, got %v (body %v)", k, v, got.body[k], got.body)
		}
	}
}

func TestCallReturnsBodyVerbatim(t *testing.T) {
	reply := `{"success":true,"extra":{"nested":[1,2]},"note":"kept"}`
	srv, _ := newTestServer(t, http.StatusOK, reply)
	g := newTestGateway(t, srv.URL)

	res := g.Call(context.Background(), StatsRequest{})
	if !res.Success || res.Error != "" {
		t.Fatalf("unexpected envelope %+v", res)
	}
	if string(res.Data) != reply {
		t.Fatalf("expected verbatim body %s, got %s", reply, res.Data)
	}
}

func TestCallPassesRemoteFailureThrough(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"success":false,"error":"Pass not found"}`)
	g := newTestGateway(t, srv.URL)

	res := g.VerifyPass(context.Background(), "EP-404")
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error != "Pass not found" {
		t.Fatalf("expected remote message, got %q", res.Error)
	}
	if err := res.Err(); err == nil || err.Error() != "Pass not found" {
		t.Fatalf("expected RemoteError, got %v", err)
	}
}

func TestTransportFailureEnvelopeUniformAcrossActions(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusInternalServerError, `oops`)
	g := newTestGateway(t, srv.URL)
	ctx := context.Background()

	from := time.Now()
	create, _ := NewCreatePassRequest("E1", "lunch", from, from.Add(time.Hour))
	approve, _ := NewApproveRequest("EP-1", DecisionApproved, "Bob")
	move, _ := NewMovementRequest("EP-1", MovementExited, "Gus")

	calls := map[string]func() any{
		"loginUser":            func() any { return g.LoginUser(ctx, "E1") },
		"createExitPass":       func() any { return g.CreateExitPass(ctx, create) },
		"getMyPasses":          func() any { return g.GetMyPasses(ctx, "E1") },
		"getPendingPasses":     func() any { return g.GetPendingPasses(ctx) },
		"getAllPasses":         func() any { return g.GetAllPasses(ctx, 0) },
		"approvePass":          func() any { return g.ApprovePass(ctx, approve) },
		"verifyPass":           func() any { return g.VerifyPass(ctx, "EP-1") },
		"updateMovementStatus": func() any { return g.UpdateMovementStatus(ctx, move) },
		"getGuardLog":          func() any { return g.GetGuardLog(ctx, 0) },
		"getStats":             func() any { return g.GetStats(ctx) },
	}
	if len(calls) != len(Actions) {
		t.Fatalf("expected a call per action, have %d", len(calls))
	}

	for name, call := range calls {
		data, err := json.Marshal(call())
		if err != nil {
			t.Fatalf("%s: marshal failed: %v", name, err)
		}
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			t.Fatalf("%s: unmarshal failed: %v", name, err)
		}
		if len(fields) != 2 || fields["success"] != false || fields["error"] != "HTTP 500" {
			t.Fatalf("%s: expected uniform failure envelope, got %s", name, data)
		}
	}
}

func TestCallNetworkErrorBecomesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	g := newTestGateway(t, endpoint)
	res := g.GetStats(context.Background())
	if res.Success || res.Error == "" {
		t.Fatalf("expected failure envelope, got %+v", res)
	}
}

func TestCallMalformedBodyBecomesFailure(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "not json", reply: `<html>error</html>`},
		{name: "truncated", reply: `{"success":tr`},
		{name: "array", reply: `[1,2,3]`},
		{name: "null", reply: `null`},
		{name: "empty", reply: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, http.StatusOK, tt.reply)
			g := newTestGateway(t, srv.URL)

			res := g.Call(context.Background(), PendingPassesRequest{})
			if res.Success || res.Error == "" {
				t.Fatalf("expected failure envelope, got %+v", res)
			}
		})
	}
}

func TestCallMistypedEnvelopeBecomesFailure(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{name: "string success", reply: `{"success":"true","passes":[]}`, want: `invalid response: malformed envelope: "success" is not a boolean`},
		{name: "numeric error", reply: `{"success":false,"error":500}`, want: `invalid response: malformed envelope: "error" is not a string`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, http.StatusOK, tt.reply)
			var outcome Outcome
			g := newTestGateway(t, srv.URL, WithObserver(func(_ context.Context, info CallInfo) { outcome = info.Outcome }))

			res := g.GetPendingPasses(context.Background())
			if res.Success || res.Error != tt.want {
				t.Fatalf("expected failure %q, got %+v", tt.want, res)
			}
			if outcome != OutcomeTransportFailure {
				t.Fatalf("expected transport failure outcome, got %v", outcome)
			}
		})
	}
}

func TestDefaultLimits(t *testing.T) {
	tests := []struct {
		name string
		call func(g *Gateway)
		want float64
	}{
		{name: "all passes default", call: func(g *Gateway) { g.GetAllPasses(context.Background(), 0) }, want: 50},
		{name: "all passes explicit", call: func(g *Gateway) { g.GetAllPasses(context.Background(), 10) }, want: 10},
		{name: "guard log default", call: func(g *Gateway) { g.GetGuardLog(context.Background(), 0) }, want: 30},
		{name: "guard log explicit", call: func(g *Gateway) { g.GetGuardLog(context.Background(), 5) }, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, seen := newTestServer(t, http.StatusOK, `{"success":true}`)
			tt.call(newTestGateway(t, srv.URL))

			if len(*seen) != 1 {
				t.Fatalf("expected 1 request, got %d", len(*seen))
			}
			if got := (*seen)[0].body["limit"]; got != tt.want {
				t.Fatalf("expected limit %v, got %v", tt.want, got)
			}
		})
	}
}

func TestInvalidRequestNeverSent(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `{"success":true}`)
	g := newTestGateway(t, srv.URL)
	ctx := context.Background()

	results := []Result[json.RawMessage]{
		g.Call(ctx, LoginRequest{}),
		g.Call(ctx, ApproveRequest{PassID: "EP-1", Status: "MAYBE", ApproverName: "Bob"}),
		g.Call(ctx, MovementRequest{PassID: "EP-1", Movement: MovementReturned}),
		g.Call(ctx, AllPassesRequest{}),
		g.Call(ctx, nil),
	}
	for i, res := range results {
		if res.Success || res.Error == "" {
			t.Fatalf("case %d: expected failure envelope, got %+v", i, res)
		}
	}
	if len(*seen) != 0 {
		t.Fatalf("expected no requests sent, got %d", len(*seen))
	}
}

func TestTypedPayloadDecoding(t *testing.T) {
	reply := `{"success":true,"passes":[{"pass_id":"EP-1","user_id":"E1","reason":"bank","status":"APPROVED","exit_from":"2026-03-02T09:00:00Z","exit_to":"2026-03-02T11:00:00Z"}]}`
	srv, _ := newTestServer(t, http.StatusOK, reply)
	g := newTestGateway(t, srv.URL)

	res := g.GetMyPasses(context.Background(), "E1")
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if len(res.Data.Passes) != 1 {
		t.Fatalf("expected 1 pass, got %d", len(res.Data.Passes))
	}
	p := res.Data.Passes[0]
	if p.PassID != "EP-1" || p.Status != StatusApproved {
		t.Fatalf("unexpected pass %+v", p)
	}
}

func TestMistypedSuccessPayloadBecomesFailure(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"success":true,"stats":"not-an-object"}`)
	g := newTestGateway(t, srv.URL)

	res := g.GetStats(context.Background())
	if res.Success || !strings.HasPrefix(res.Error, "invalid response payload") {
		t.Fatalf("expected payload failure, got %+v", res)
	}
}

func TestObserverSeesOutcomes(t *testing.T) {
	var okCount, remoteCount, transportCount atomic.Int32
	observer := func(_ context.Context, info CallInfo) {
		if info.RequestID == "" {
			t.Errorf("expected request id in call info")
		}
		switch info.Outcome {
		case OutcomeSuccess:
			okCount.Add(1)
		case OutcomeRemoteFailure:
			remoteCount.Add(1)
		case OutcomeTransportFailure:
			transportCount.Add(1)
		}
	}

	okSrv, _ := newTestServer(t, http.StatusOK, `{"success":true}`)
	badSrv, _ := newTestServer(t, http.StatusOK, `{"success":false,"error":"no"}`)
	downSrv, _ := newTestServer(t, http.StatusBadGateway, ``)

	newTestGateway(t, okSrv.URL, WithObserver(observer)).GetStats(context.Background())
	newTestGateway(t, badSrv.URL, WithObserver(observer)).GetStats(context.Background())
	newTestGateway(t, downSrv.URL, WithObserver(observer)).GetStats(context.Background())

	if okCount.Load() != 1 || remoteCount.Load() != 1 || transportCount.Load() != 1 {
		t.Fatalf("unexpected outcome counts ok=%d remote=%d transport=%d",
			okCount.Load(), remoteCount.Load(), transportCount.Load())
	}
}

func TestConcurrentCallsAreIndependent(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `{"success":true}`)
	g := newTestGateway(t, srv.URL)

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if res := g.GetPendingPasses(context.Background()); !res.Success {
				t.Errorf("unexpected failure %+v", res)
			}
		}()
	}
	wg.Wait()

	ids := map[string]bool{}
	for _, r := range *seen {
		ids[r.requestID] = true
	}
	if len(ids) != n {
		t.Fatalf("expected %d distinct request ids, got %d", n, len(ids))
	}
}

func TestNewRejectsBadEndpoint(t *testing.T) {
	for _, endpoint := range []string{"", "script.google.com/exec", "ftp://host/x", "http://"} {
		if _, err := New(endpoint); err == nil {
			t.Fatalf("expected error for endpoint %q", endpoint)
		}
	}
}
