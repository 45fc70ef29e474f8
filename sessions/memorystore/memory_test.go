package memorystore

import (
	"testing"

	"github.com/ggoodman/acp-go/sessions"
	"github.com/ggoodman/acp-go/sessions/sessionstoretest"
)

func TestMemoryStore(t *testing.T) {
	sessionstoretest.RunStoreTests(t, func(t *testing.T) sessions.Store {
		return New()
	})
}
