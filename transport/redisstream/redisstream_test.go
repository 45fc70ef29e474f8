package redisstream

import (
	"context"
	"testing"
	"time"

	"github.com/ggoodman/acp-go/transport"
	"github.com/ggoodman/acp-go/transport/transporttest"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestRedisStream(t *testing.T) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}

	// Skip if Redis is not available
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	cfg.Client = client
	cfg.KeyPrefix = "test:acp:stream:"
	cfg.Block = 100 * time.Millisecond

	transporttest.RunStreamTests(t, func(t *testing.T) (transport.Stream, transport.Stream) {
		channel := uuid.NewString()
		ctx := context.Background()
		agent, err := Dial(ctx, cfg, channel, AgentSide)
		if err != nil {
			t.Fatalf("dial agent: %v", err)
		}
		cl, err := Dial(ctx, cfg, channel, ClientSide)
		if err != nil {
			t.Fatalf("dial client: %v", err)
		}
		t.Cleanup(func() {
			_ = Cleanup(context.Background(), client, cfg.KeyPrefix, channel)
		})
		return cl, agent
	})
}

func TestKeys_SidesAreMirrored(t *testing.T) {
	t.Parallel()

	toAgent, toClient := keys("p:", "ch")
	if toAgent != "p:ch:to-agent" || toClient != "p:ch:to-client" {
		t.Fatalf("unexpected keys %q %q", toAgent, toClient)
	}
}

func TestDial_RejectsEmptyChannel(t *testing.T) {
	t.Parallel()

	if _, err := Dial(context.Background(), Config{}, "", AgentSide); err == nil {
		t.Fatalf("expected error for empty channel")
	}
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("ACP_STREAM_PREFIX", "")
	t.Setenv("ACP_STREAM_BLOCK", "250ms")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("RedisAddr = %q", cfg.RedisAddr)
	}
	if cfg.KeyPrefix != "acp:stream:" {
		t.Fatalf("KeyPrefix = %q", cfg.KeyPrefix)
	}
	if cfg.Block != 250*time.Millisecond {
		t.Fatalf("Block = %v", cfg.Block)
	}
}
