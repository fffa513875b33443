package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
)

// scriptedTransport is a fake Transport that replies to each method call
// with the next entry from a per-method queue, so a test can script a
// server's exact responses (including a failure followed by a success) and
// assert on how many requests the client actually sent.
type scriptedTransport struct {
	mu        sync.Mutex
	queued    map[string][]scriptedResponse
	calls     map[string]int
	connected bool
	events    chan *JSONRPCNotification
	requests  chan *JSONRPCRequest
}

type scriptedResponse struct {
	result json.RawMessage
	err    error
}

func newScriptedTransport() *scriptedTransport {
	return &scriptedTransport{
		queued:   make(map[string][]scriptedResponse),
		calls:    make(map[string]int),
		events:   make(chan *JSONRPCNotification, 1),
		requests: make(chan *JSONRPCRequest, 1),
	}
}

func (t *scriptedTransport) queue(method string, result json.RawMessage, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queued[method] = append(t.queued[method], scriptedResponse{result: result, err: err})
}

func (t *scriptedTransport) callCount(method string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[method]
}

func (t *scriptedTransport) Connect(ctx context.Context) error {
	t.connected = true
	return nil
}

func (t *scriptedTransport) Close() error {
	t.connected = false
	return nil
}

func (t *scriptedTransport) Connected() bool { return t.connected }

func (t *scriptedTransport) Events() <-chan *JSONRPCNotification { return t.events }

func (t *scriptedTransport) Requests() <-chan *JSONRPCRequest { return t.requests }

func (t *scriptedTransport) Notify(ctx context.Context, method string, params any) error { return nil }

func (t *scriptedTransport) Respond(ctx context.Context, id any, result any, rpcErr *JSONRPCError) error {
	return nil
}

func (t *scriptedTransport) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls[method]++

	q := t.queued[method]
	if len(q) == 0 {
		return nil, fmt.Errorf("scriptedTransport: no queued response for %q", method)
	}
	next := q[0]
	t.queued[method] = q[1:]
	return next.result, next.err
}

func newScriptedClient(transport *scriptedTransport) *Client {
	return &Client{
		config:    &ServerConfig{ID: "fake"},
		transport: transport,
		logger:    slog.Default(),
	}
}

func TestClientHandshakeThenPing(t *testing.T) {
	transport := newScriptedTransport()
	transport.queue("initialize", json.RawMessage(`{"protocolVersion":"2024-11-05","serverInfo":{"name":"fake","version":"1"},"capabilities":{}}`), nil)
	transport.queue("tools/list", json.RawMessage(`{"tools":[]}`), nil)
	transport.queue("resources/list", json.RawMessage(`{"resources":[]}`), nil)
	transport.queue("prompts/list", json.RawMessage(`{"prompts":[]}`), nil)
	transport.queue("ping", json.RawMessage(`{}`), nil)

	client := newScriptedClient(transport)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := client.ServerInfo(); got.Name != "fake" || got.Version != "1" {
		t.Fatalf("unexpected server info: %+v", got)
	}
	if client.State() != StateReady {
		t.Fatalf("expected state ready, got %v", client.State())
	}

	if !client.Ping(context.Background()) {
		t.Fatal("expected ping to succeed")
	}
	if client.State() != StateReady {
		t.Fatalf("expected state to remain ready after a successful ping, got %v", client.State())
	}
}

func TestClientCallListRetriesOnServerError(t *testing.T) {
	transport := newScriptedTransport()
	transport.queue("tools/list", nil, newRPCCallError(&JSONRPCError{Code: -32000, Message: "busy"}))
	transport.queue("tools/list", json.RawMessage(`{"tools":[{"name":"echo","description":"","inputSchema":{"type":"object","properties":{}}}]}`), nil)

	client := newScriptedClient(transport)

	result, err := client.callList(context.Background(), "tools/list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp ListToolsResult
	if err := json.Unmarshal(result, &resp); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(resp.Tools) != 1 || resp.Tools[0].Name != "echo" {
		t.Fatalf("unexpected tools: %+v", resp.Tools)
	}
	if got := transport.callCount("tools/list"); got != 2 {
		t.Fatalf("expected exactly 2 requests, got %d", got)
	}
}

func TestClientCallListNonRetryableErrorStopsAfterOneAttempt(t *testing.T) {
	transport := newScriptedTransport()
	transport.queue("tools/list", nil, newRPCCallError(&JSONRPCError{Code: ErrCodeMethodNotFound, Message: "nope"}))

	client := newScriptedClient(transport)

	_, err := client.callList(context.Background(), "tools/list")
	if err == nil {
		t.Fatal("expected an error")
	}
	var rpcErr RPCError
	if !errors.As(err, &rpcErr) || rpcErr.RPCCode() != ErrCodeMethodNotFound {
		t.Fatalf("expected a method-not-found RPCError, got %v", err)
	}
	if got := transport.callCount("tools/list"); got != 1 {
		t.Fatalf("expected exactly 1 request, got %d", got)
	}
}
