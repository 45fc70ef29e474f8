package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ggoodman/acp-go/internal/jsonrpc"
)

// Call sends a request and decodes its result into result, which may be nil
// to discard it or a *json.RawMessage to receive the bytes verbatim. A
// structured error from the peer is returned as *jsonrpc.Error.
func (c *Conn) Call(ctx context.Context, method string, params, result any) error {
	raw, err := marshalParams(params)
	if err != nil {
		return fmt.Errorf("encode %s params: %w", method, err)
	}

	out, err := c.CallRaw(ctx, method, raw)
	if err != nil {
		return err
	}

	switch r := result.(type) {
	case nil:
		return nil
	case *json.RawMessage:
		*r = out
		return nil
	default:
		if err := json.Unmarshal(out, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
		return nil
	}
}

// CallRaw sends a request with params spliced in verbatim and returns the
// result bytes exactly as the peer wrote them.
func (c *Conn) CallRaw(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	start := time.Now()
	log := c.log.With(slog.String("method", method))

	reply, err := c.disp.CallReply(ctx, method, params)
	if err != nil {
		log.DebugContext(ctx, "engine.call.fail", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return nil, err
	}

	// Notifications the peer sent before this response are handled first so
	// callers observe them in causal order. Later ones are not waited for.
	if c.orderedNotifications && ctx.Value(notificationWorkerKey{}) == nil {
		c.queue.waitFor(ctx, reply.Mark)
	}

	resp := reply.Response
	if resp.Error != nil {
		log.DebugContext(ctx, "engine.call.error", slog.Int("code", int(resp.Error.Code)), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return nil, resp.Error
	}
	log.DebugContext(ctx, "engine.call.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
	return resp.Result, nil
}

// Notify sends a notification. It returns once the frame is written.
func (c *Conn) Notify(ctx context.Context, method string, params any) error {
	raw, err := marshalParams(params)
	if err != nil {
		return fmt.Errorf("encode %s params: %w", method, err)
	}
	return c.NotifyRaw(ctx, method, raw)
}

// NotifyRaw sends a notification with params spliced in verbatim.
func (c *Conn) NotifyRaw(ctx context.Context, method string, params json.RawMessage) error {
	if c.closing.Load() {
		return ErrConnectionClosed
	}
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}
	frame, err := jsonrpc.EncodeRequest(jsonrpc.NewRequest(nil, method, params))
	if err != nil {
		return err
	}
	return c.write(ctx, frame)
}

// dispatcherTransport adapts Conn to outbound.Transport.
type dispatcherTransport struct{ c *Conn }

func (t dispatcherTransport) SendRequest(ctx context.Context, req *jsonrpc.Request) error {
	frame, err := jsonrpc.EncodeRequest(req)
	if err != nil {
		return err
	}
	return t.c.write(ctx, frame)
}

func (t dispatcherTransport) SendCancelled(ctx context.Context, id *jsonrpc.RequestID) error {
	return t.c.Notify(ctx, CancelRequestMethod, cancelRequestParams{RequestID: id})
}

func (c *Conn) writeResponse(ctx context.Context, resp *jsonrpc.Response) error {
	frame, err := jsonrpc.EncodeResponse(resp)
	if err != nil {
		// The handler produced something we cannot encode; tell the peer.
		frame, err = jsonrpc.EncodeResponse(jsonrpc.NewErrorResponseFrom(resp.ID, jsonrpc.InternalErrorFrom(err)))
		if err != nil {
			return err
		}
	}
	return c.write(ctx, frame)
}

// write is the single writer section: frames never interleave and are
// written in the order write is entered.
func (c *Conn) write(ctx context.Context, frame jsonrpc.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.stream.WriteMessage(ctx, frame)
}

func marshalParams(params any) (json.RawMessage, error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return p, nil
	default:
		return marshal(p)
	}
}

// marshal encodes v without HTML escaping so text content survives as
// written.
func marshal(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
