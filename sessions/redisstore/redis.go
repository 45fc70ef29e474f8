// Package redisstore is a sessions.Store backed by Redis.
//
// Layout
//
//	<prefix>rec:<id>       JSON-encoded sessions.Record
//	<prefix>history:<id>   Redis Stream, one entry per session update ("d" field)
//	<prefix>index          sorted set of ids scored by UpdatedAt (unix ms)
//
// Several agent processes may share one store. Ordering of history within a
// session follows stream entry ids.
package redisstore

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/ggoodman/acp-go/acp"
	"github.com/ggoodman/acp-go/sessions"
	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"
)

const fieldData = "d"

// Config for a Redis-backed Store. Defaults can be loaded via envdecode.
type Config struct {
	// RedisAddr like "localhost:6379". ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`
	// KeyPrefix for all keys. ENV: SESSIONS_KEY_PREFIX
	KeyPrefix string `env:"SESSIONS_KEY_PREFIX,default=acp:sessions:"`
	// TTL expires a session this long after its last write. Zero keeps
	// sessions until deleted. ENV: SESSIONS_TTL
	TTL time.Duration `env:"SESSIONS_TTL,default=0s"`

	// Client, when set, is used instead of dialing RedisAddr. It is not
	// closed by Store.Close.
	Client redis.UniversalClient
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// ConfigFromEnv populates a Config from the environment.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("redisstore: decode env: %w", err)
	}
	return cfg, nil
}

type Store struct {
	client     redis.UniversalClient
	ownsClient bool
	prefix     string
	ttl        time.Duration
	log        *slog.Logger
}

var _ sessions.Store = (*Store)(nil)

// New connects to Redis and verifies it is reachable.
func New(ctx context.Context, cfg Config) (*Store, error) {
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
		prefix = "acp:sessions:"
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Store{client: client, ownsClient: owns, prefix: prefix, ttl: cfg.TTL, log: log}, nil
}

// NewFromEnv is New with a Config loaded from the environment.
func NewFromEnv(ctx context.Context) (*Store, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg)
}

func (s *Store) recKey(id acp.SessionID) string     { return s.prefix + "rec:" + string(id) }
func (s *Store) historyKey(id acp.SessionID) string { return s.prefix + "history:" + string(id) }
func (s *Store) indexKey() string                   { return s.prefix + "index" }

func (s *Store) Create(ctx context.Context, rec sessions.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, s.recKey(rec.ID), data, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return sessions.ErrExists
	}
	return s.index(ctx, rec)
}

func (s *Store) Update(ctx context.Context, rec sessions.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ok, err := s.client.SetXX(ctx, s.recKey(rec.ID), data, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return sessions.ErrNotFound
	}
	if s.ttl > 0 {
		_ = s.client.Expire(ctx, s.historyKey(rec.ID), s.ttl).Err()
	}
	return s.index(ctx, rec)
}

func (s *Store) index(ctx context.Context, rec sessions.Record) error {
	return s.client.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(rec.UpdatedAt.UnixMilli()), Member: string(rec.ID)}).Err()
}

func (s *Store) Get(ctx context.Context, id acp.SessionID) (sessions.Record, error) {
	raw, err := s.client.Get(ctx, s.recKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return sessions.Record{}, sessions.ErrNotFound
	}
	if err != nil {
		return sessions.Record{}, err
	}
	var rec sessions.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return sessions.Record{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return rec, nil
}

func (s *Store) List(ctx context.Context, cwd string) ([]sessions.Record, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recKey(acp.SessionID(id))
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var out []sessions.Record
	var expired []any
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var rec sessions.Record
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			s.log.WarnContext(ctx, "redisstore.list.decode_fail", slog.String("session_id", ids[i]), slog.String("err", err.Error()))
			continue
		}
		if cwd == "" || rec.Cwd == cwd {
			out = append(out, rec)
		}
	}
	if len(expired) > 0 {
		_ = s.client.ZRem(ctx, s.indexKey(), expired...).Err()
	}

	slices.SortStableFunc(out, func(a, b sessions.Record) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) Append(ctx context.Context, id acp.SessionID, updates ...acp.SessionUpdate) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	frames := make([][]byte, len(updates))
	for i, u := range updates {
		b, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("encode %s update: %w", u.Kind(), err)
		}
		frames[i] = b
	}

	key := s.historyKey(id)
	_, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, f := range frames {
			p.XAdd(ctx, &redis.XAddArgs{Stream: key, Values: map[string]any{fieldData: f}})
		}
		if s.ttl > 0 {
			p.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	return err
}

func (s *Store) History(ctx context.Context, id acp.SessionID) ([]acp.SessionUpdate, error) {
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}
	msgs, err := s.client.XRange(ctx, s.historyKey(id), "-", "+").Result()
	if err != nil {
		return nil, err
	}
	out := make([]acp.SessionUpdate, 0, len(msgs))
	for _, m := range msgs {
		var raw []byte
		switch v := m.Values[fieldData].(type) {
		case string:
			raw = []byte(v)
		case []byte:
			raw = v
		default:
			return nil, fmt.Errorf("history entry %s has no data", m.ID)
		}
		var u acp.SessionUpdate
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, fmt.Errorf("decode history entry %s: %w", m.ID, err)
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id acp.SessionID) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, s.recKey(id), s.historyKey(id))
		p.ZRem(ctx, s.indexKey(), string(id))
		return nil
	})
	return err
}

// Close closes the Redis client if the Store dialed it.
func (s *Store) Close() error {
	if s.ownsClient {
		return s.client.Close()
	}
	return nil
}

func (s *Store) exists(ctx context.Context, id acp.SessionID) error {
	n, err := s.client.Exists(ctx, s.recKey(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return sessions.ErrNotFound
	}
	return nil
}
