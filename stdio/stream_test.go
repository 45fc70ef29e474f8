package stdio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/ggoodman/acp-go/transport"
)

func TestStream_ReadsOneFramePerLine(t *testing.T) {
	t.Parallel()

	in := strings.NewReader("{\"a\":1}\n\n  \r\n{\"b\":2}\r\n{\"c\":3}")
	s := NewStream(WithIO(in, io.Discard))
	ctx := context.Background()

	for _, want := range []string{`{"a":1}`, `{"b":2}`, `{"c":3}`} {
		got, err := s.ReadMessage(ctx)
		if err != nil {
			t.Fatalf("read %s: %v", want, err)
		}
		if string(got) != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}
	if _, err := s.ReadMessage(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestStream_WriteTerminatesWithNewline(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	s := NewStream(WithIO(strings.NewReader(""), &out))
	if err := s.WriteMessage(context.Background(), []byte(`{"x":1}`)); err != nil {
		t.Fatal(err)
	}
	if out.String() != "{\"x\":1}\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestStream_WriteCompactsEmbeddedNewlines(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	s := NewStream(WithIO(strings.NewReader(""), &out))
	pretty := []byte("{\n  \"x\": \"a b\",\n  \"y\": [1, 2]\n}")
	if err := s.WriteMessage(context.Background(), pretty); err != nil {
		t.Fatal(err)
	}
	if out.String() != "{\"x\":\"a b\",\"y\":[1,2]}\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestStream_ConcurrentWritesDoNotInterleave(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	s := NewStream(WithIO(strings.NewReader(""), &out))

	const n = 50
	frame := []byte(`{"payload":"` + strings.Repeat("x", 4096) + `"}`)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.WriteMessage(context.Background(), frame); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != n {
		t.Fatalf("expected %d lines, got %d", n, len(lines))
	}
	for i, line := range lines {
		if line != string(frame) {
			t.Fatalf("line %d corrupted (len %d)", i, len(line))
		}
	}
}

func TestStream_MaxFrameSize(t *testing.T) {
	t.Parallel()

	in := strings.NewReader(`{"big":"` + strings.Repeat("y", 256) + "\"}\n")
	s := NewStream(WithIO(in, io.Discard), WithMaxFrameSize(64))
	if _, err := s.ReadMessage(context.Background()); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestStream_ClosedStreamRejectsIO(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	s := NewStream(WithIO(pr, pw))
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := s.ReadMessage(context.Background()); !errors.Is(err, transport.ErrClosed) {
		t.Fatalf("expected ErrClosed on read, got %v", err)
	}
	if err := s.WriteMessage(context.Background(), []byte(`{}`)); !errors.Is(err, transport.ErrClosed) {
		t.Fatalf("expected ErrClosed on write, got %v", err)
	}
}

func TestStream_CloseUnblocksRead(t *testing.T) {
	t.Parallel()

	pr, _ := io.Pipe()
	s := NewStream(WithIO(pr, io.Discard))

	errCh := make(chan error, 1)
	go func() {
		_, err := s.ReadMessage(context.Background())
		errCh <- err
	}()

	_ = s.Close()
	if err := <-errCh; !errors.Is(err, transport.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
