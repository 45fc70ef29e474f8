package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ggoodman/acp-go/internal/jsonrpc"
	"github.com/ggoodman/acp-go/transport/memory"
)

// funcHandler adapts plain functions to Handler.
type funcHandler struct {
	req    func(ctx context.Context, method string, params json.RawMessage) (any, error)
	notify func(ctx context.Context, method string, params json.RawMessage) error
}

func (h funcHandler) HandleRequest(ctx context.Context, method string, params json.RawMessage) (any, error) {
	if h.req == nil {
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeMethodNotFound)
	}
	return h.req(ctx, method, params)
}

func (h funcHandler) HandleNotification(ctx context.Context, method string, params json.RawMessage) error {
	if h.notify == nil {
		return nil
	}
	return h.notify(ctx, method, params)
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// startPair connects two Conns over an in-memory pipe.
func startPair(t *testing.T, a, b Handler, opts ...Option) (*Conn, *Conn) {
	t.Helper()
	sa, sb := memory.Pipe()
	ca := New(sa, a, opts...)
	cb := New(sb, b, opts...)
	go ca.Serve(context.Background())
	go cb.Serve(context.Background())
	t.Cleanup(func() {
		_ = ca.Close()
		_ = cb.Close()
	})
	return ca, cb
}

// startRaw runs a Conn against a raw stream end the test drives by hand.
func startRaw(t *testing.T, h Handler, opts ...Option) (*Conn, *memory.Stream) {
	t.Helper()
	sa, sb := memory.Pipe()
	c := New(sa, h, opts...)
	go c.Serve(context.Background())
	t.Cleanup(func() {
		_ = c.Close()
		_ = sb.Close()
	})
	return c, sb
}

func readFrame(t *testing.T, s *memory.Stream) map[string]any {
	t.Helper()
	raw, err := s.ReadMessage(testContext(t))
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode frame %s: %v", raw, err)
	}
	return m
}

func TestConn_CallRoundTrip(t *testing.T) {
	t.Parallel()

	server := funcHandler{req: func(ctx context.Context, method string, params json.RawMessage) (any, error) {
		var in struct{ N int }
		if err := json.Unmarshal(params, &in); err != nil {
			return nil, jsonrpc.InvalidParamsFrom(err)
		}
		return map[string]int{"n": in.N * 2}, nil
	}}
	client, _ := startPair(t, funcHandler{}, server)

	var out struct{ N int }
	if err := client.Call(testContext(t), "double", map[string]int{"n": 21}, &out); err != nil {
		t.Fatalf("call: %v", err)
	}
	if out.N != 42 {
		t.Fatalf("got %d, want 42", out.N)
	}
	if client.Pending() != 0 {
		t.Fatalf("pending call leaked")
	}
}

func TestConn_ConcurrentCallsResolveByID(t *testing.T) {
	t.Parallel()

	server := funcHandler{req: func(ctx context.Context, method string, params json.RawMessage) (any, error) {
		var in struct{ Delay int }
		_ = json.Unmarshal(params, &in)
		time.Sleep(time.Duration(in.Delay) * time.Millisecond)
		return in, nil
	}}
	client, _ := startPair(t, funcHandler{}, server)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			delay := (n - i) * 5
			var out struct{ Delay int }
			if err := client.Call(testContext(t), "sleep", map[string]int{"delay": delay}, &out); err != nil {
				t.Errorf("call %d: %v", i, err)
				return
			}
			if out.Delay != delay {
				t.Errorf("call %d got answer for delay %d", i, out.Delay)
			}
		}(i)
	}
	wg.Wait()
}

func TestConn_SlowHandlerDoesNotBlockReads(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := funcHandler{req: func(ctx context.Context, method string, params json.RawMessage) (any, error) {
		if method == "slow" {
			<-release
		}
		return method, nil
	}}
	client, _ := startPair(t, funcHandler{}, server)
	ctx := testContext(t)

	slowDone := make(chan error, 1)
	go func() { slowDone <- client.Call(ctx, "slow", nil, nil) }()

	var out string
	if err := client.Call(ctx, "fast", nil, &out); err != nil || out != "fast" {
		t.Fatalf("fast call blocked or failed: %q %v", out, err)
	}
	close(release)
	if err := <-slowDone; err != nil {
		t.Fatalf("slow call: %v", err)
	}
}

func TestConn_RawBytesPassThroughVerbatim(t *testing.T) {
	t.Parallel()

	const params = `{"z": 1,"a":[1.0000000000000000001, 2], "big": 12345678901234567890}`
	const result = `{ "kept" :  "as <is>", "n": 1e400 }`

	var gotParams string
	server := funcHandler{req: func(ctx context.Context, method string, p json.RawMessage) (any, error) {
		gotParams = string(p)
		return json.RawMessage(result), nil
	}}
	client, _ := startPair(t, funcHandler{}, server)

	out, err := client.CallRaw(testContext(t), "_vendor/thing", json.RawMessage(params))
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if gotParams != params {
		t.Fatalf("params altered:\n got %s\nwant %s", gotParams, params)
	}
	if string(out) != result {
		t.Fatalf("result altered:\n got %s\nwant %s", out, result)
	}
}

func TestConn_StructuredErrorsReachCaller(t *testing.T) {
	t.Parallel()

	server := funcHandler{req: func(ctx context.Context, method string, params json.RawMessage) (any, error) {
		switch method {
		case "custom":
			return nil, fmt.Errorf("wrapped: %w", &jsonrpc.Error{Code: -32123, Message: "custom", Data: json.RawMessage(`{"k":1}`)})
		case "plain":
			return nil, errors.New("disk on fire")
		}
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeMethodNotFound)
	}}
	client, _ := startPair(t, funcHandler{}, server)
	ctx := testContext(t)

	var rpcErr *jsonrpc.Error
	if err := client.Call(ctx, "custom", nil, nil); !errors.As(err, &rpcErr) || rpcErr.Code != -32123 || string(rpcErr.Data) != `{"k":1}` {
		t.Fatalf("expected custom error, got %v", err)
	}
	if err := client.Call(ctx, "plain", nil, nil); !errors.As(err, &rpcErr) || rpcErr.Code != jsonrpc.ErrorCodeInternalError || !strings.Contains(string(rpcErr.Data), "disk on fire") {
		t.Fatalf("expected internal error with description, got %v", err)
	}
	if err := client.Call(ctx, "nope", nil, nil); !errors.As(err, &rpcErr) || rpcErr.Code != jsonrpc.ErrorCodeMethodNotFound {
		t.Fatalf("expected method not found, got %v", err)
	}
}

func TestConn_HandlerPanicBecomesInternalError(t *testing.T) {
	t.Parallel()

	server := funcHandler{req: func(ctx context.Context, method string, params json.RawMessage) (any, error) {
		panic("boom")
	}}
	client, _ := startPair(t, funcHandler{}, server)

	var rpcErr *jsonrpc.Error
	err := client.Call(testContext(t), "explode", nil, nil)
	if !errors.As(err, &rpcErr) || rpcErr.Code != jsonrpc.ErrorCodeInternalError {
		t.Fatalf("expected internal error, got %v", err)
	}
	// The connection survives.
	if err := client.Call(testContext(t), "explode", nil, nil); !errors.As(err, &rpcErr) {
		t.Fatalf("connection should survive a panic, got %v", err)
	}
}

func TestConn_UnmatchedResponseIsReportedNotFatal(t *testing.T) {
	t.Parallel()

	reported := make(chan *ProtocolError, 1)
	h := funcHandler{req: func(ctx context.Context, method string, params json.RawMessage) (any, error) {
		return "pong", nil
	}}
	c, peer := startRaw(t, h, WithProtocolErrorHandler(func(e *ProtocolError) { reported <- e }))
	ctx := testContext(t)

	_ = peer.WriteMessage(ctx, []byte(`{"jsonrpc":"2.0","id":999,"result":{}}`))
	select {
	case e := <-reported:
		if e.Kind != ProtocolErrorUnmatchedResponse || e.ID != "999" {
			t.Fatalf("unexpected protocol error %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatalf("unmatched response was not reported")
	}

	_ = peer.WriteMessage(ctx, []byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	resp := readFrame(t, peer)
	if resp["result"] != "pong" {
		t.Fatalf("connection stopped serving after protocol error: %v", resp)
	}
	select {
	case <-c.Done():
		t.Fatalf("connection closed on unmatched response")
	default:
	}
}

func TestConn_InvalidEnvelopeWithIDGetsInvalidRequest(t *testing.T) {
	t.Parallel()

	reported := make(chan *ProtocolError, 2)
	_, peer := startRaw(t, funcHandler{}, WithProtocolErrorHandler(func(e *ProtocolError) { reported <- e }))
	ctx := testContext(t)

	_ = peer.WriteMessage(ctx, []byte(`{"jsonrpc":"1.0","id":"x","method":"m"}`))
	resp := readFrame(t, peer)
	errObj, _ := resp["error"].(map[string]any)
	if resp["id"] != "x" || errObj["code"] != float64(jsonrpc.ErrorCodeInvalidRequest) {
		t.Fatalf("expected InvalidRequest for id x, got %v", resp)
	}

	_ = peer.WriteMessage(ctx, []byte(`{"jsonrpc":"2.0"}`))
	for i := 0; i < 2; i++ {
		select {
		case e := <-reported:
			if e.Kind != ProtocolErrorInvalidEnvelope {
				t.Fatalf("unexpected kind %s", e.Kind)
			}
		case <-time.After(time.Second):
			t.Fatalf("invalid envelope %d not reported", i)
		}
	}
}

func TestConn_UnparsableFrameIsFatal(t *testing.T) {
	t.Parallel()

	c, peer := startRaw(t, funcHandler{})
	ctx := testContext(t)

	callErr := make(chan error, 1)
	go func() { callErr <- c.Call(ctx, "never", nil, nil) }()
	readFrame(t, peer) // the outbound request

	_ = peer.WriteMessage(ctx, []byte(`{"jsonrpc":`))

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatalf("connection did not close on unparsable frame")
	}
	if c.Err() == nil {
		t.Fatalf("expected a terminal error")
	}
	if err := <-callErr; !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("pending call should resolve with ErrConnectionClosed, got %v", err)
	}
}

func TestConn_PeerHangupResolvesPendingCalls(t *testing.T) {
	t.Parallel()

	c, peer := startRaw(t, funcHandler{})
	ctx := testContext(t)

	const n = 3
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() { errs <- c.Call(ctx, "wait", nil, nil) }()
	}
	for i := 0; i < n; i++ {
		readFrame(t, peer)
	}
	_ = peer.Close()

	for i := 0; i < n; i++ {
		if err := <-errs; !errors.Is(err, ErrConnectionClosed) {
			t.Fatalf("call %d: expected ErrConnectionClosed, got %v", i, err)
		}
	}
	<-c.Done()
	if c.Err() != nil {
		t.Fatalf("clean hangup should not be an error, got %v", c.Err())
	}
	if err := c.Notify(ctx, "late", nil); !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("notify after close: %v", err)
	}
}

func TestConn_CancelRequestCancelsHandler(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	server := funcHandler{req: func(ctx context.Context, method string, params json.RawMessage) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	_, peer := startRaw(t, server)
	ctx := testContext(t)

	_ = peer.WriteMessage(ctx, []byte(`{"jsonrpc":"2.0","id":5,"method":"long"}`))
	<-started
	_ = peer.WriteMessage(ctx, []byte(`{"jsonrpc":"2.0","method":"$/cancel_request","params":{"requestId":5}}`))

	resp := readFrame(t, peer)
	errObj, _ := resp["error"].(map[string]any)
	if resp["id"] != float64(5) || errObj["code"] != float64(jsonrpc.ErrorCodeRequestCancelled) {
		t.Fatalf("expected RequestCancelled for id 5, got %v", resp)
	}
}

func TestConn_CallerCancelSendsCancelRequest(t *testing.T) {
	t.Parallel()

	c, peer := startRaw(t, funcHandler{})
	ctx, cancel := context.WithCancel(testContext(t))

	errCh := make(chan error, 1)
	go func() { errCh <- c.Call(ctx, "long", nil, nil) }()
	req := readFrame(t, peer)
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	note := readFrame(t, peer)
	params, _ := note["params"].(map[string]any)
	if note["method"] != CancelRequestMethod || params["requestId"] != req["id"] {
		t.Fatalf("expected cancel for %v, got %v", req["id"], note)
	}
	if c.Pending() != 0 {
		t.Fatalf("abandoned call left in pending table")
	}
}

func TestConn_NotificationsHandledInOrder(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var got []int
	all := make(chan struct{})
	const n = 50
	h := funcHandler{notify: func(ctx context.Context, method string, params json.RawMessage) error {
		var p struct{ I int }
		_ = json.Unmarshal(params, &p)
		mu.Lock()
		got = append(got, p.I)
		if len(got) == n {
			close(all)
		}
		mu.Unlock()
		return nil
	}}
	sender, _ := startPair(t, funcHandler{}, h)
	ctx := testContext(t)

	for i := 0; i < n; i++ {
		if err := sender.Notify(ctx, "tick", map[string]int{"i": i}); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case <-all:
	case <-time.After(2 * time.Second):
		t.Fatalf("notifications not delivered")
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("notification %d delivered out of order: %v", i, got)
		}
	}
}

func TestConn_NotificationsBeforeResponseAreObservedFirst(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	seen := 0
	clientSide := funcHandler{notify: func(ctx context.Context, method string, params json.RawMessage) error {
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		seen++
		mu.Unlock()
		return nil
	}}

	var server *Conn
	agentSide := funcHandler{req: func(ctx context.Context, method string, params json.RawMessage) (any, error) {
		for i := 0; i < 3; i++ {
			if err := server.Notify(ctx, "update", nil); err != nil {
				return nil, err
			}
		}
		return "done", nil
	}}
	client, srv := startPair(t, clientSide, agentSide)
	server = srv

	if err := client.Call(testContext(t), "prompt", nil, nil); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	defer mu.Unlock()
	if seen != 3 {
		t.Fatalf("call returned before its notifications were handled: saw %d", seen)
	}
}

func TestConn_NotificationsAfterResponseDoNotDelayCall(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	h := funcHandler{notify: func(ctx context.Context, method string, params json.RawMessage) error {
		entered <- struct{}{}
		<-release
		return nil
	}}
	client, peer := startRaw(t, h)
	defer close(release)

	ctx := testContext(t)
	for i := range 20 {
		result := make(chan error, 1)
		go func() {
			_, err := client.CallRaw(ctx, "x", nil)
			result <- err
		}()

		req := readFrame(t, peer)
		id, err := json.Marshal(req["id"])
		if err != nil {
			t.Fatal(err)
		}
		if err := peer.WriteMessage(ctx, []byte(`{"jsonrpc":"2.0","id":`+string(id)+`,"result":"ok"}`)); err != nil {
			t.Fatal(err)
		}
		if err := peer.WriteMessage(ctx, []byte(`{"jsonrpc":"2.0","method":"later"}`)); err != nil {
			t.Fatal(err)
		}

		// The handler for "later" stays blocked while the call returns.
		select {
		case err := <-result:
			if err != nil {
				t.Fatalf("call %d: %v", i, err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("call %d waited on a notification received after its response", i)
		}
		select {
		case <-entered:
		case <-ctx.Done():
			t.Fatalf("notification %d never dispatched", i)
		}
		release <- struct{}{}
	}
}

func TestConn_NotificationHandlerMayCallPeer(t *testing.T) {
	t.Parallel()

	result := make(chan error, 1)
	var client *Conn
	clientSide := funcHandler{notify: func(ctx context.Context, method string, params json.RawMessage) error {
		result <- client.Call(ctx, "ack", nil, nil)
		return nil
	}}
	var server *Conn
	agentSide := funcHandler{req: func(ctx context.Context, method string, params json.RawMessage) (any, error) {
		return "ok", nil
	}}
	c, s := startPair(t, clientSide, agentSide)
	client, server = c, s

	if err := server.Notify(testContext(t), "poke", nil); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("call from notification handler: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("call from notification handler deadlocked")
	}
}

func TestConn_CloseBeforeServe(t *testing.T) {
	t.Parallel()

	sa, _ := memory.Pipe()
	c := New(sa, funcHandler{})
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case <-c.Done():
	default:
		t.Fatalf("Done not closed")
	}
	if err := c.Call(context.Background(), "m", nil, nil); !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("expected ErrConnectionClosed, got %v", err)
	}
}
