package stdio

import (
	"io"
	"log/slog"
)

// Option customizes a Stream.
type Option func(*Stream)

// WithIO replaces os.Stdin and os.Stdout. A nil argument keeps the default.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(s *Stream) {
		if r != nil {
			s.r = r
		}
		if w != nil {
			s.w = w
		}
	}
}

// WithLogger sets the logger used for frame diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stream) {
		if l != nil {
			s.l = l
		}
	}
}

// WithMaxFrameSize caps the size of a single inbound line. Zero disables the
// limit.
func WithMaxFrameSize(n int) Option {
	return func(s *Stream) {
		if n >= 0 {
			s.maxFrame = n
		}
	}
}
