package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// ContentType is sent with every request. The backend's cross-origin policy
// only admits plain text, so the JSON body travels as text/plain.
const ContentType = "text/plain;charset=utf-8"

// RequestIDHeader carries the per-call id that also appears in log lines.
const RequestIDHeader = "X-Request-ID"

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Outcome classifies how a call ended.
type Outcome uint8

const (
	// OutcomeSuccess means the backend replied with success true.
	OutcomeSuccess Outcome = iota + 1
	// OutcomeRemoteFailure means a well-formed reply with success false.
	OutcomeRemoteFailure
	// OutcomeTransportFailure means the gateway produced the failure envelope.
	OutcomeTransportFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRemoteFailure:
		return "remote_failure"
	case OutcomeTransportFailure:
		return "transport_failure"
	default:
		return "unknown"
	}
}

// CallInfo describes one finished call.
type CallInfo struct {
	Action    Action
	RequestID string
	Outcome   Outcome
	Duration  time.Duration
	Error     string
}

// Gateway sends actions to the backend endpoint. It holds no per-call state
// and is safe for concurrent use.
type Gateway struct {
	endpoint string
	client   Doer
	logger   *slog.Logger
	observe  func(ctx context.Context, info CallInfo)
}

// Option configures a [Gateway].
type Option func(*Gateway)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(d Doer) Option {
	return func(g *Gateway) {
		if d != nil {
			g.client = d
		}
	}
}

// WithLogger sets the logger used for call diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithObserver registers a callback run after every call.
func WithObserver(fn func(ctx context.Context, info CallInfo)) Option {
	return func(g *Gateway) {
		g.observe = fn
	}
}

// New returns a Gateway posting to endpoint, which must be an absolute
// http or https URL.
func New(endpoint string, opts ...Option) (*Gateway, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("endpoint must be an absolute http(s) URL: %q", endpoint)
	}

	g := &Gateway{
		endpoint: endpoint,
		// No timeout: a call runs until the backend answers or ctx ends.
		client: &http.Client{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Endpoint returns the URL calls are posted to.
func (g *Gateway) Endpoint() string {
	return g.endpoint
}

// Call sends req and returns the reply verbatim in Data. Success and Error
// are read from the reply as sent; a reply where either has the wrong JSON
// type counts as invalid. Any failure to obtain a
// well-formed JSON object becomes the failure envelope; Call never panics on
// transport errors and has no error return.
func (g *Gateway) Call(ctx context.Context, req Request) Result[json.RawMessage] {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	requestID := uuid.NewString()

	res, transportErr := g.roundTrip(ctx, requestID, req)

	info := CallInfo{
		RequestID: requestID,
		Duration:  time.Since(start),
		Error:     res.Error,
	}
	if req != nil {
		info.Action = req.Action()
	}
	switch {
	case transportErr:
		info.Outcome = OutcomeTransportFailure
		g.logger.WarnContext(ctx, "rpc call failed",
			"action", info.Action, "request_id", requestID, "error", res.Error, "duration", info.Duration)
	case res.Success:
		info.Outcome = OutcomeSuccess
		g.logger.DebugContext(ctx, "rpc call",
			"action", info.Action, "request_id", requestID, "duration", info.Duration)
	default:
		info.Outcome = OutcomeRemoteFailure
		g.logger.InfoContext(ctx, "rpc call rejected",
			"action", info.Action, "request_id", requestID, "error", res.Error, "duration", info.Duration)
	}
	if g.observe != nil {
		g.observe(ctx, info)
	}
	return res
}

func (g *Gateway) roundTrip(ctx context.Context, requestID string, req Request) (Result[json.RawMessage], bool) {
	if req == nil {
		return Failure[json.RawMessage]("nil request"), true
	}
	if !req.Action().Valid() {
		return Failure[json.RawMessage](fmt.Sprintf("unknown action %q", req.Action())), true
	}
	if err := req.validate(); err != nil {
		return Failure[json.RawMessage](err.Error()), true
	}

	body, err := encodeRequest(req)
	if err != nil {
		return Failure[json.RawMessage](fmt.Sprintf("encode request: %v", err)), true
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return Failure[json.RawMessage](fmt.Sprintf("create request: %v", err)), true
	}
	httpReq.Header.Set("Content-Type", ContentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return Failure[json.RawMessage](err.Error()), true
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Failure[json.RawMessage](fmt.Sprintf("HTTP %d", resp.StatusCode)), true
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Failure[json.RawMessage](fmt.Sprintf("read body: %v", err)), true
	}

	var res Result[json.RawMessage]
	if err := json.Unmarshal(data, &res); err != nil {
		if errors.Is(err, errNotObject) || errors.Is(err, errMalformedEnvelope) {
			return Failure[json.RawMessage]("invalid response: " + err.Error()), true
		}
		return Failure[json.RawMessage](fmt.Sprintf("invalid JSON response: %v", err)), true
	}
	return res, false
}
