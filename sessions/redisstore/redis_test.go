package redisstore

import (
	"context"
	"testing"

	"github.com/ggoodman/acp-go/sessions"
	"github.com/ggoodman/acp-go/sessions/sessionstoretest"
	"github.com/google/uuid"
)

func TestRedisStore(t *testing.T) {
	// Quick availability check to allow graceful skip in environments without Redis
	s, err := NewFromEnv(context.Background())
	if err != nil {
		t.Skipf("skipping redis store tests: %v", err)
		return
	}
	_ = s.Close()

	sessionstoretest.RunStoreTests(t, func(t *testing.T) sessions.Store {
		cfg, err := ConfigFromEnv()
		if err != nil {
			t.Fatalf("ConfigFromEnv: %v", err)
		}
		// A fresh prefix per test keeps the shared index isolated.
		cfg.KeyPrefix = "acp:test:" + uuid.NewString() + ":"
		st, err := New(context.Background(), cfg)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		t.Cleanup(func() { _ = st.Close() })
		return st
	})
}
