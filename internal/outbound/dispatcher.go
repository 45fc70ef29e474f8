package outbound

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/ggoodman/acp-go/internal/jsonrpc"
)

// Transport abstracts how requests are emitted. The dispatcher registers the
// pending call before SendRequest so a fast response is never missed.
type Transport interface {
	// SendRequest writes the request carrying the pre-allocated id.
	SendRequest(ctx context.Context, req *jsonrpc.Request) error
	// SendCancelled tells the peer the caller is no longer waiting for id.
	SendCancelled(ctx context.Context, id *jsonrpc.RequestID) error
}

var (
	// ErrDispatcherClosed indicates the dispatcher is closed. Every pending
	// call resolved by Close wraps it.
	ErrDispatcherClosed = errors.New("connection closed")
)

// MaxAbandoned bounds how many cancelled-but-unanswered ids are remembered.
// Once full, the oldest id is forgotten and a late response for it is
// reported as unmatched.
const MaxAbandoned = 1024

// Reply is a response together with the mark the receiver attached when it
// read the frame.
type Reply struct {
	Response *jsonrpc.Response
	Mark     uint64
}

type pendingCall struct {
	method string
	respCh chan Reply
	errCh  chan error
}

// Dispatcher correlates locally-initiated JSON-RPC requests with their
// responses. It is transport-agnostic.
type Dispatcher struct {
	t Transport

	mu        sync.Mutex
	pending   map[string]*pendingCall // id.String() -> call
	abandoned map[string]struct{}     // ids the caller stopped waiting for
	// abandonOrder holds abandoned ids oldest first; entries already
	// resolved are skipped when trimming.
	abandonOrder []string

	nextID atomic.Uint64

	closed   atomic.Bool
	closeErr error
}

// New constructs a Dispatcher using the provided transport.
func New(t Transport) *Dispatcher {
	return &Dispatcher{
		t:         t,
		pending:   make(map[string]*pendingCall),
		abandoned: make(map[string]struct{}),
	}
}

func (d *Dispatcher) errClosed() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closeErr != nil {
		return d.closeErr
	}
	return ErrDispatcherClosed
}

// Call sends a JSON-RPC request and waits for its response, for the
// dispatcher to close, or for ctx to be cancelled. Exactly one of those
// outcomes is returned. No implicit timeout is applied.
func (d *Dispatcher) Call(ctx context.Context, method string, params json.RawMessage) (*jsonrpc.Response, error) {
	r, err := d.CallReply(ctx, method, params)
	if err != nil {
		return nil, err
	}
	return r.Response, nil
}

// CallReply is Call returning the mark passed to Deliver with the response.
func (d *Dispatcher) CallReply(ctx context.Context, method string, params json.RawMessage) (Reply, error) {
	if d.closed.Load() {
		return Reply{}, d.errClosed()
	}

	// Ids start at 0 and only grow, so an id is never reused on this connection.
	id := jsonrpc.NewRequestID(d.nextID.Add(1) - 1)
	key := id.String()

	pc := &pendingCall{method: method, respCh: make(chan Reply, 1), errCh: make(chan error, 1)}
	d.mu.Lock()
	if d.closed.Load() {
		d.mu.Unlock()
		return Reply{}, d.errClosed()
	}
	d.pending[key] = pc
	d.mu.Unlock()

	req := jsonrpc.NewRequest(id, method, params)
	if err := d.t.SendRequest(ctx, req); err != nil {
		d.mu.Lock()
		delete(d.pending, key)
		d.mu.Unlock()
		// Close may have raced us and already resolved the call.
		select {
		case cerr := <-pc.errCh:
			return Reply{}, cerr
		default:
		}
		return Reply{}, fmt.Errorf("send %s: %w", method, err)
	}

	select {
	case r := <-pc.respCh:
		return r, nil
	case err := <-pc.errCh:
		return Reply{}, err
	case <-ctx.Done():
		d.mu.Lock()
		_, stillPending := d.pending[key]
		if stillPending {
			delete(d.pending, key)
			d.abandonLocked(key)
		}
		d.mu.Unlock()
		if !stillPending {
			// Resolution won the race; honour it so the call resolves once.
			select {
			case r := <-pc.respCh:
				return r, nil
			case err := <-pc.errCh:
				return Reply{}, err
			}
		}
		_ = d.t.SendCancelled(context.WithoutCancel(ctx), id)
		return Reply{}, ctx.Err()
	}
}

func (d *Dispatcher) abandonLocked(key string) {
	d.abandoned[key] = struct{}{}
	d.abandonOrder = append(d.abandonOrder, key)
	for len(d.abandoned) > MaxAbandoned && len(d.abandonOrder) > 0 {
		oldest := d.abandonOrder[0]
		d.abandonOrder = d.abandonOrder[1:]
		delete(d.abandoned, oldest)
	}
	// Ids resolved by a late response linger in abandonOrder; compact once
	// they outnumber the live ones.
	if len(d.abandonOrder) > 2*MaxAbandoned {
		live := d.abandonOrder[:0]
		for _, k := range d.abandonOrder {
			if _, ok := d.abandoned[k]; ok {
				live = append(live, k)
			}
		}
		d.abandonOrder = slices.Clip(live)
	}
}

// Pending returns the number of outstanding calls.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Abandoned returns the number of cancelled calls still awaiting a late
// response.
func (d *Dispatcher) Abandoned() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.abandoned)
}

// OnResponse delivers an incoming response to a waiting call. It reports
// false when the id matches neither a pending nor an abandoned call, which
// the caller should surface as a protocol violation.
func (d *Dispatcher) OnResponse(resp *jsonrpc.Response) bool {
	return d.Deliver(resp, 0)
}

// Deliver is OnResponse with a mark the waiting caller receives in its
// Reply. The engine uses it to record how many notifications preceded the
// response on the wire.
func (d *Dispatcher) Deliver(resp *jsonrpc.Response, mark uint64) bool {
	if resp == nil || resp.ID.IsNil() {
		return false
	}

	key := resp.ID.String()

	d.mu.Lock()
	pc, ok := d.pending[key]
	if ok {
		delete(d.pending, key)
	}
	_, wasAbandoned := d.abandoned[key]
	if wasAbandoned {
		delete(d.abandoned, key)
	}
	d.mu.Unlock()

	if ok {
		pc.respCh <- Reply{Response: resp, Mark: mark}
		return true
	}
	return wasAbandoned
}

// Close fails all pending calls with an error wrapping ErrDispatcherClosed
// and cause, and prevents new calls.
func (d *Dispatcher) Close(cause error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.closed.CompareAndSwap(false, true) {
		return
	}

	err := ErrDispatcherClosed
	if cause != nil && !errors.Is(cause, ErrDispatcherClosed) {
		err = fmt.Errorf("%w: %w", ErrDispatcherClosed, cause)
	}
	d.closeErr = err

	for key, pc := range d.pending {
		delete(d.pending, key)
		pc.errCh <- err
	}
	clear(d.abandoned)
	d.abandonOrder = nil
}
