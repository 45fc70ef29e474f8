package acpconn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ggoodman/acp-go/acp"
	"github.com/ggoodman/acp-go/internal/logctx"
	"github.com/ggoodman/acp-go/internal/turns"
)

type requestRoute func(ctx context.Context, params json.RawMessage) (any, error)

type notificationRoute func(ctx context.Context, params json.RawMessage) error

// extHandler is the half of acp.Agent and acp.Client that handles methods
// outside the registry.
type extHandler interface {
	ExtMethod(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error)
	ExtNotification(ctx context.Context, method string, params json.RawMessage) error
}

// dispatcher implements engine.Handler for one role: registered methods are
// decoded, validated and routed to typed handlers; everything else goes to
// the extension handler with its params untouched.
type dispatcher struct {
	registry      *acp.Registry
	requests      map[string]requestRoute
	notifications map[string]notificationRoute
	ext           extHandler
	turns         *turns.Tracker
	log           *slog.Logger
}

func newDispatcher(registry *acp.Registry, ext extHandler, cfg *config) *dispatcher {
	log := logctx.Wrap(cfg.log)
	return &dispatcher{
		registry:      registry,
		requests:      make(map[string]requestRoute),
		notifications: make(map[string]notificationRoute),
		ext:           ext,
		turns:         turns.New(turns.WithLogger(log)),
		log:           log,
	}
}

func (d *dispatcher) HandleRequest(ctx context.Context, method string, params json.RawMessage) (any, error) {
	if route, ok := d.requests[method]; ok {
		return route(ctx, params)
	}
	if info, ok := d.registry.Lookup(method); ok && info.Kind == acp.KindNotification {
		return nil, acp.NewError(acp.ErrorCodeInvalidRequest).WithData(fmt.Sprintf("%s is a notification", method))
	}

	d.log.DebugContext(ctx, "acpconn.ext_method", slog.String("method", method))
	result, err := d.ext.ExtMethod(ctx, method, params)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (d *dispatcher) HandleNotification(ctx context.Context, method string, params json.RawMessage) error {
	if route, ok := d.notifications[method]; ok {
		return route(ctx, params)
	}
	if _, ok := d.requests[method]; ok {
		// Nowhere to send an answer; drop it.
		return fmt.Errorf("%s is a request but was sent without an id", method)
	}

	d.log.DebugContext(ctx, "acpconn.ext_notification", slog.String("method", method))
	return d.ext.ExtNotification(ctx, method, params)
}

// decodeParams decodes and validates inbound params. Both failures are
// InvalidParams so the handler never sees a malformed payload.
func decodeParams[T any](params json.RawMessage) (*T, error) {
	v := new(T)
	if p := bytes.TrimSpace(params); len(p) > 0 && !bytes.Equal(p, []byte("null")) {
		if err := json.Unmarshal(p, v); err != nil {
			return nil, acp.InvalidParams(err)
		}
	}
	if val, ok := any(v).(acp.Validator); ok {
		if err := val.Validate(); err != nil {
			return nil, acp.InvalidParams(err)
		}
	}
	return v, nil
}

// handle registers a typed request handler for method.
func handle[Req, Resp any](d *dispatcher, method string, fn func(context.Context, *Req) (*Resp, error)) {
	d.requests[method] = func(ctx context.Context, params json.RawMessage) (any, error) {
		req, err := decodeParams[Req](params)
		if err != nil {
			return nil, err
		}
		resp, err := fn(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp == nil {
			resp = new(Resp)
		}
		return resp, nil
	}
}

// handleNotification registers a typed notification handler for method.
func handleNotification[N any](d *dispatcher, method string, fn func(context.Context, *N) error) {
	d.notifications[method] = func(ctx context.Context, params json.RawMessage) error {
		n, err := decodeParams[N](params)
		if err != nil {
			return err
		}
		return fn(ctx, n)
	}
}

func withSession(ctx context.Context, id acp.SessionID) context.Context {
	return logctx.WithSessionData(ctx, &logctx.SessionData{SessionID: string(id)})
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
