// Package transporttest holds a conformance suite that every transport.Stream
// implementation in this module runs.
package transporttest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ggoodman/acp-go/transport"
)

// PipeFactory returns two connected stream ends. Frames written to a are read
// from b and vice versa.
type PipeFactory func(t *testing.T) (a, b transport.Stream)

// RunStreamTests runs the complete stream suite against the provided factory.
func RunStreamTests(t *testing.T, factory PipeFactory) {
	t.Run("DeliversInOrder", func(t *testing.T) {
		testDeliversInOrder(t, factory)
	})
	t.Run("Bidirectional", func(t *testing.T) {
		testBidirectional(t, factory)
	})
	t.Run("PreservesFrameBytes", func(t *testing.T) {
		testPreservesFrameBytes(t, factory)
	})
	t.Run("ConcurrentWriters", func(t *testing.T) {
		testConcurrentWriters(t, factory)
	})
	t.Run("ReadHonoursContext", func(t *testing.T) {
		testReadHonoursContext(t, factory)
	})
	t.Run("PeerCloseYieldsEOF", func(t *testing.T) {
		testPeerCloseYieldsEOF(t, factory)
	})
	t.Run("ClosedEndRejectsIO", func(t *testing.T) {
		testClosedEndRejectsIO(t, factory)
	})
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func testDeliversInOrder(t *testing.T, factory PipeFactory) {
	a, b := factory(t)
	defer a.Close()
	defer b.Close()
	ctx := testCtx(t)

	const n = 20
	for i := 0; i < n; i++ {
		if err := a.WriteMessage(ctx, []byte(fmt.Sprintf(`{"n":%d}`, i))); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	for i := 0; i < n; i++ {
		got, err := b.ReadMessage(ctx)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if want := fmt.Sprintf(`{"n":%d}`, i); string(got) != want {
			t.Fatalf("frame %d: got %s, want %s", i, got, want)
		}
	}
}

func testBidirectional(t *testing.T, factory PipeFactory) {
	a, b := factory(t)
	defer a.Close()
	defer b.Close()
	ctx := testCtx(t)

	if err := a.WriteMessage(ctx, []byte(`{"from":"a"}`)); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteMessage(ctx, []byte(`{"from":"b"}`)); err != nil {
		t.Fatal(err)
	}
	if got, err := b.ReadMessage(ctx); err != nil || string(got) != `{"from":"a"}` {
		t.Fatalf("b read %s %v", got, err)
	}
	if got, err := a.ReadMessage(ctx); err != nil || string(got) != `{"from":"b"}` {
		t.Fatalf("a read %s %v", got, err)
	}
}

func testPreservesFrameBytes(t *testing.T, factory PipeFactory) {
	a, b := factory(t)
	defer a.Close()
	defer b.Close()
	ctx := testCtx(t)

	frame := `{"z":1,  "a":[ 1 ,2],"s":"é <>&"}`
	if err := a.WriteMessage(ctx, []byte(frame)); err != nil {
		t.Fatal(err)
	}
	got, err := b.ReadMessage(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != frame {
		t.Fatalf("frame altered in transit:\n got %s\nwant %s", got, frame)
	}
}

func testConcurrentWriters(t *testing.T, factory PipeFactory) {
	a, b := factory(t)
	defer a.Close()
	defer b.Close()
	ctx := testCtx(t)

	const writers, each = 4, 10
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				if err := a.WriteMessage(ctx, []byte(fmt.Sprintf(`{"w":%d,"i":%d}`, w, i))); err != nil {
					t.Errorf("writer %d: %v", w, err)
					return
				}
			}
		}(w)
	}

	seen := make(map[string]bool)
	for i := 0; i < writers*each; i++ {
		got, err := b.ReadMessage(ctx)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if seen[string(got)] {
			t.Fatalf("duplicate frame %s", got)
		}
		seen[string(got)] = true
	}
	wg.Wait()
}

func testReadHonoursContext(t *testing.T, factory PipeFactory) {
	a, b := factory(t)
	defer a.Close()
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := b.ReadMessage(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func testPeerCloseYieldsEOF(t *testing.T, factory PipeFactory) {
	a, b := factory(t)
	defer b.Close()
	ctx := testCtx(t)

	if err := a.WriteMessage(ctx, []byte(`{"last":true}`)); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := b.ReadMessage(ctx)
	if err != nil || string(got) != `{"last":true}` {
		t.Fatalf("expected buffered frame before EOF, got %s %v", got, err)
	}
	if _, err := b.ReadMessage(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after peer close, got %v", err)
	}
}

func testClosedEndRejectsIO(t *testing.T, factory PipeFactory) {
	a, b := factory(t)
	defer b.Close()
	ctx := testCtx(t)

	_ = a.Close()
	if _, err := a.ReadMessage(ctx); !errors.Is(err, transport.ErrClosed) {
		t.Fatalf("expected ErrClosed on read, got %v", err)
	}
	if err := a.WriteMessage(ctx, []byte(`{}`)); !errors.Is(err, transport.ErrClosed) {
		t.Fatalf("expected ErrClosed on write, got %v", err)
	}
}
