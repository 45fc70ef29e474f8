package memory

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ggoodman/acp-go/transport"
	"github.com/ggoodman/acp-go/transport/transporttest"
)

func TestPipe_DeliversInOrder(t *testing.T) {
	t.Parallel()

	a, b := Pipe()
	ctx := context.Background()

	for _, msg := range []string{"one", "two", "three"} {
		if err := a.WriteMessage(ctx, []byte(msg)); err != nil {
			t.Fatal(err)
		}
	}
	for _, want := range []string{"one", "two", "three"} {
		got, err := b.ReadMessage(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}
}

func TestPipe_WriteCopiesFrame(t *testing.T) {
	t.Parallel()

	a, b := Pipe()
	ctx := context.Background()
	buf := []byte("abc")
	if err := a.WriteMessage(ctx, buf); err != nil {
		t.Fatal(err)
	}
	buf[0] = 'z'
	got, _ := b.ReadMessage(ctx)
	if string(got) != "abc" {
		t.Fatalf("frame aliased caller buffer: %q", got)
	}
}

func TestPipe_CloseDrainsThenEOF(t *testing.T) {
	t.Parallel()

	a, b := Pipe()
	ctx := context.Background()
	_ = a.WriteMessage(ctx, []byte("last"))
	_ = a.Close()

	got, err := b.ReadMessage(ctx)
	if err != nil || string(got) != "last" {
		t.Fatalf("expected buffered frame, got %q %v", got, err)
	}
	if _, err := b.ReadMessage(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	if err := b.WriteMessage(ctx, []byte("x")); !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("expected ErrClosedPipe, got %v", err)
	}
	if _, err := a.ReadMessage(ctx); !errors.Is(err, transport.ErrClosed) {
		t.Fatalf("expected ErrClosed on closed end, got %v", err)
	}
}

func TestPipe_ReadHonoursContext(t *testing.T) {
	t.Parallel()

	_, b := Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.ReadMessage(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPipe_Conformance(t *testing.T) {
	transporttest.RunStreamTests(t, func(t *testing.T) (transport.Stream, transport.Stream) {
		a, b := Pipe()
		return a, b
	})
}
