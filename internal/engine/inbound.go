package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/ggoodman/acp-go/internal/jsonrpc"
	"github.com/ggoodman/acp-go/internal/logctx"
)

// notificationWorkerKey marks contexts of handlers running on the ordered
// notification worker.
type notificationWorkerKey struct{}

// handleFrame routes a single frame. Only an unparsable frame is fatal.
func (c *Conn) handleFrame(frame []byte) error {
	msg, err := jsonrpc.Decode(frame)
	if err != nil {
		if errors.Is(err, jsonrpc.ErrInvalidEnvelope) {
			c.handleInvalidEnvelope(msg, err)
			return nil
		}
		// Tell the peer why we are hanging up; the id is unknowable.
		_ = c.writeResponse(c.ctx, jsonrpc.NewErrorResponseFrom(nil, jsonrpc.NewError(jsonrpc.ErrorCodeParseError).WithData(err.Error())))
		return fmt.Errorf("parse frame: %w", err)
	}

	switch msg.Type() {
	case jsonrpc.TypeResponse:
		c.handleResponse(msg.AsResponse())
	case jsonrpc.TypeRequest:
		c.handleRequest(msg.AsRequest())
	case jsonrpc.TypeNotification:
		c.handleNotification(msg.AsRequest())
	}
	return nil
}

func (c *Conn) handleInvalidEnvelope(msg *jsonrpc.AnyMessage, err error) {
	perr := &ProtocolError{Kind: ProtocolErrorInvalidEnvelope, Method: msg.Method, Err: err}
	if !msg.ID.IsNil() {
		perr.ID = msg.ID.String()
		resp := jsonrpc.NewErrorResponseFrom(msg.ID, jsonrpc.NewError(jsonrpc.ErrorCodeInvalidRequest).WithData(err.Error()))
		if werr := c.writeResponse(c.ctx, resp); werr != nil {
			c.log.WarnContext(c.ctx, "engine.write_response.fail", slog.String("err", werr.Error()))
		}
	}
	c.reportProtocolError(perr)
}

// handleResponse runs on the read loop, so the queue mark counts exactly the
// notifications read before this response.
func (c *Conn) handleResponse(resp *jsonrpc.Response) {
	if c.disp.Deliver(resp, c.queue.mark()) {
		return
	}
	c.reportProtocolError(&ProtocolError{Kind: ProtocolErrorUnmatchedResponse, ID: resp.ID.String()})
}

func (c *Conn) reportProtocolError(perr *ProtocolError) {
	c.log.WarnContext(c.ctx, "engine.protocol_error",
		slog.String("kind", perr.Kind),
		slog.String("id", perr.ID),
		slog.String("method", perr.Method),
		slog.Any("err", perr.Err),
	)
	if c.onProtocolError != nil {
		c.onProtocolError(perr)
	}
}

func (c *Conn) handleRequest(req *jsonrpc.Request) {
	reqID := req.ID.String()

	hctx, hcancel := context.WithCancelCause(c.ctx)
	c.inflightMu.Lock()
	if _, exists := c.inflight[reqID]; exists {
		c.inflightMu.Unlock()
		hcancel(nil)
		c.reportProtocolError(&ProtocolError{Kind: ProtocolErrorDuplicateID, ID: reqID, Method: req.Method})
		resp := jsonrpc.NewErrorResponseFrom(req.ID, jsonrpc.NewError(jsonrpc.ErrorCodeInvalidRequest).WithData("duplicate request id"))
		_ = c.writeResponse(c.ctx, resp)
		return
	}
	c.inflight[reqID] = hcancel
	c.inflightMu.Unlock()

	hctx = logctx.WithRPCMessage(hctx, &logctx.RPCMessage{Method: req.Method, ID: reqID, Type: jsonrpc.TypeRequest})

	go func() {
		defer func() {
			c.inflightMu.Lock()
			delete(c.inflight, reqID)
			c.inflightMu.Unlock()
			hcancel(nil)
		}()

		resp := c.invokeRequest(hctx, req)
		if c.ctx.Err() != nil {
			// Torn down while the handler ran; nobody is listening.
			return
		}
		if err := c.writeResponse(c.ctx, resp); err != nil {
			c.log.WarnContext(hctx, "engine.write_response.fail", slog.String("err", err.Error()))
		}
	}()
}

// invokeRequest runs the handler and converts its outcome into a response.
func (c *Conn) invokeRequest(ctx context.Context, req *jsonrpc.Request) (resp *jsonrpc.Response) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			c.log.ErrorContext(ctx, "engine.handle_request.panic",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
				slog.Int64("dur_ms", time.Since(start).Milliseconds()),
			)
			resp = jsonrpc.NewErrorResponseFrom(req.ID, jsonrpc.NewError(jsonrpc.ErrorCodeInternalError).WithData(fmt.Sprintf("panic: %v", r)))
		}
	}()

	result, err := c.h.HandleRequest(ctx, req.Method, req.Params)
	if err != nil {
		if errors.Is(context.Cause(ctx), errCancelRequested) && isContextErr(err) {
			c.log.InfoContext(ctx, "engine.handle_request.cancelled", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
			return jsonrpc.NewErrorResponseFrom(req.ID, jsonrpc.NewError(jsonrpc.ErrorCodeRequestCancelled))
		}
		rpcErr := jsonrpc.AsError(err)
		switch rpcErr.Code {
		case jsonrpc.ErrorCodeInternalError:
			c.log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		case jsonrpc.ErrorCodeInvalidParams:
			c.log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		case jsonrpc.ErrorCodeMethodNotFound:
			c.log.InfoContext(ctx, "engine.handle_request.unsupported", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		default:
			c.log.InfoContext(ctx, "engine.handle_request.error", slog.Int("code", int(rpcErr.Code)), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		}
		return jsonrpc.NewErrorResponseFrom(req.ID, rpcErr)
	}

	resp, err = resultResponse(req.ID, result)
	if err != nil {
		c.log.ErrorContext(ctx, "engine.handle_request.encode_fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponseFrom(req.ID, jsonrpc.InternalErrorFrom(err))
	}
	c.log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
	return resp
}

func resultResponse(id *jsonrpc.RequestID, result any) (*jsonrpc.Response, error) {
	switch v := result.(type) {
	case nil:
		return jsonrpc.NewRawResultResponse(id, nil), nil
	case json.RawMessage:
		return jsonrpc.NewRawResultResponse(id, v), nil
	default:
		raw, err := marshal(v)
		if err != nil {
			return nil, err
		}
		return jsonrpc.NewRawResultResponse(id, raw), nil
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *Conn) handleNotification(req *jsonrpc.Request) {
	if req.Method == CancelRequestMethod {
		c.handleCancelRequest(req.Params)
		return
	}

	run := func(ctx context.Context) {
		ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: req.Method, Type: jsonrpc.TypeNotification})
		c.invokeNotification(ctx, req)
	}

	if !c.orderedNotifications {
		go run(c.notifyCtx)
		return
	}
	ctx := context.WithValue(c.notifyCtx, notificationWorkerKey{}, true)
	if !c.queue.submit(func() { run(ctx) }) {
		c.log.DebugContext(c.ctx, "engine.handle_notification.dropped", slog.String("method", req.Method))
	}
}

func (c *Conn) invokeNotification(ctx context.Context, req *jsonrpc.Request) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.log.ErrorContext(ctx, "engine.handle_notification.panic",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	if err := c.h.HandleNotification(ctx, req.Method, req.Params); err != nil {
		c.log.WarnContext(ctx, "engine.handle_notification.fail", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return
	}
	c.log.DebugContext(ctx, "engine.handle_notification.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
}

type cancelRequestParams struct {
	RequestID *jsonrpc.RequestID `json:"requestId"`
}

// handleCancelRequest cancels the handler context of an in-flight request.
// Unknown ids are ignored: the request may already have completed.
func (c *Conn) handleCancelRequest(params json.RawMessage) {
	var p cancelRequestParams
	if err := json.Unmarshal(params, &p); err != nil || p.RequestID.IsNil() {
		c.reportProtocolError(&ProtocolError{Kind: ProtocolErrorInvalidEnvelope, Method: CancelRequestMethod, Err: err})
		return
	}

	key := p.RequestID.String()
	c.inflightMu.Lock()
	cancel, ok := c.inflight[key]
	c.inflightMu.Unlock()

	if !ok {
		c.log.DebugContext(c.ctx, "engine.cancel_request.unknown", slog.String("id", key))
		return
	}
	c.log.DebugContext(c.ctx, "engine.cancel_request.ok", slog.String("id", key))
	cancel(errCancelRequested)
}
