// Package redisstream carries an ACP connection over a pair of Redis Streams,
// one per direction. It lets an agent and a client that cannot share a pipe
// (different hosts, containers, or restarts of a relay) talk through a Redis
// instance both can reach.
//
// Layout
//
//	<prefix><channel>:to-agent   frames written by the client
//	<prefix><channel>:to-client  frames written by the agent
//
// Each stream entry holds one JSON-RPC frame in the "d" field. Close appends
// an entry with an "eof" field so the peer observes io.EOF after draining.
// Reads start at the beginning of the stream, so a side that connects late
// still sees every frame its peer already wrote. Use a fresh channel name per
// connection and call Cleanup once both sides are done.
package redisstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ggoodman/acp-go/transport"
	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"
)

const (
	fieldData = "d"
	fieldEOF  = "eof"
)

// Side selects which direction a Stream reads and which it writes.
type Side int

const (
	// AgentSide reads frames addressed to the agent and writes to the client.
	AgentSide Side = iota
	// ClientSide reads frames addressed to the client and writes to the agent.
	ClientSide
)

func (s Side) String() string {
	if s == AgentSide {
		return "agent"
	}
	return "client"
}

// Config for a Redis-backed stream. Defaults can be loaded via envdecode.
type Config struct {
	// RedisAddr like "localhost:6379". ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`
	// KeyPrefix for all keys. ENV: ACP_STREAM_PREFIX
	KeyPrefix string `env:"ACP_STREAM_PREFIX,default=acp:stream:"`
	// Block is how long a single XREAD waits before re-checking for close.
	// ENV: ACP_STREAM_BLOCK
	Block time.Duration `env:"ACP_STREAM_BLOCK,default=1s"`
	// MaxLen trims each stream approximately to this many entries. Zero
	// disables trimming. ENV: ACP_STREAM_MAXLEN
	MaxLen int64 `env:"ACP_STREAM_MAXLEN,default=0"`

	// Client, when set, is used instead of dialing RedisAddr. It is not
	// closed by Stream.Close.
	Client redis.UniversalClient
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// ConfigFromEnv populates a Config from the environment.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("redisstream: decode env: %w", err)
	}
	return cfg, nil
}

// Stream is one end of a Redis-backed ACP connection.
type Stream struct {
	client     redis.UniversalClient
	ownsClient bool
	l          *slog.Logger

	readKey  string
	writeKey string
	block    time.Duration
	maxLen   int64

	readMu  sync.Mutex
	lastID  string
	queue   [][]byte
	sawEOF  bool
	writeMu sync.Mutex

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

var _ transport.Stream = (*Stream)(nil)

// Dial connects one side of channel. It verifies Redis is reachable before
// returning.
func Dial(ctx context.Context, cfg Config, channel string, side Side) (*Stream, error) {
	if channel == "" {
		return nil, errors.New("redisstream: empty channel name")
	}

	client := cfg.Client
	owns := false
	if client == nil {
		addr := cfg.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}
		client = redis.NewClient(&redis.Options{Addr: addr})
		owns = true
	}
	if err := client.Ping(ctx).Err(); err != nil {
		if owns {
			_ = client.Close()
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "acp:stream:"
	}
	block := cfg.Block
	if block <= 0 {
		block = time.Second
	}
	l := cfg.Logger
	if l == nil {
		l = slog.Default()
	}

	toAgent, toClient := keys(prefix, channel)
	s := &Stream{
		client:     client,
		ownsClient: owns,
		l:          l.With(slog.String("channel", channel), slog.String("side", side.String())),
		block:      block,
		maxLen:     cfg.MaxLen,
		lastID:     "0",
	}
	if side == AgentSide {
		s.readKey, s.writeKey = toAgent, toClient
	} else {
		s.readKey, s.writeKey = toClient, toAgent
	}
	return s, nil
}

// DialFromEnv is Dial with a Config loaded from the environment.
func DialFromEnv(ctx context.Context, channel string, side Side) (*Stream, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return Dial(ctx, cfg, channel, side)
}

func keys(prefix, channel string) (toAgent, toClient string) {
	return prefix + channel + ":to-agent", prefix + channel + ":to-client"
}

// ReadMessage returns the next frame written by the peer. A concurrent Close
// is observed within one block interval.
func (s *Stream) ReadMessage(ctx context.Context) ([]byte, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	for {
		if s.closed.Load() {
			return nil, transport.ErrClosed
		}
		if len(s.queue) > 0 {
			frame := s.queue[0]
			s.queue = s.queue[1:]
			return frame, nil
		}
		if s.sawEOF {
			return nil, io.EOF
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := s.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{s.readKey, s.lastID},
			Count:   16,
			Block:   s.block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if s.closed.Load() {
				return nil, transport.ErrClosed
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if dl, ok := ctx.Deadline(); ok && !time.Now().Before(dl) {
				return nil, context.DeadlineExceeded
			}
			return nil, fmt.Errorf("redisstream: read %s: %w", s.readKey, err)
		}

		for _, stream := range res {
			for _, m := range stream.Messages {
				s.lastID = m.ID
				if s.sawEOF {
					continue
				}
				if _, ok := m.Values[fieldEOF]; ok {
					s.sawEOF = true
					continue
				}
				switch v := m.Values[fieldData].(type) {
				case string:
					s.queue = append(s.queue, []byte(v))
				case []byte:
					s.queue = append(s.queue, v)
				default:
					s.l.WarnContext(ctx, "redisstream.read.malformed", slog.String("entry_id", m.ID))
				}
			}
		}
	}
}

// WriteMessage appends msg to the peer's stream.
func (s *Stream) WriteMessage(ctx context.Context, msg []byte) error {
	if s.closed.Load() {
		return transport.ErrClosed
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.xadd(ctx, map[string]any{fieldData: msg})
}

func (s *Stream) xadd(ctx context.Context, values map[string]any) error {
	args := &redis.XAddArgs{Stream: s.writeKey, Values: values}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redisstream: write %s: %w", s.writeKey, err)
	}
	return nil
}

// Close signals end-of-stream to the peer and releases the Redis client if
// Dial created it.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)

		s.writeMu.Lock()
		err := s.xadd(context.Background(), map[string]any{fieldEOF: "1"})
		s.writeMu.Unlock()
		if err != nil {
			s.l.Debug("redisstream.close.eof_fail", slog.String("err", err.Error()))
		}

		if s.ownsClient {
			err = errors.Join(err, s.client.Close())
		}
		s.closeErr = err
	})
	return s.closeErr
}

// Cleanup deletes both streams of channel.
func Cleanup(ctx context.Context, client redis.UniversalClient, prefix, channel string) error {
	if prefix == "" {
		prefix = "acp:stream:"
	}
	toAgent, toClient := keys(prefix, channel)
	if err := client.Del(ctx, toAgent, toClient).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redisstream: cleanup %s: %w", channel, err)
	}
	return nil
}
