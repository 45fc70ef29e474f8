package sessionstoretest

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ggoodman/acp-go/acp"
	"github.com/ggoodman/acp-go/sessions"
)

// Factory creates a new, empty Store for one test.
type Factory func(t *testing.T) sessions.Store

// RunStoreTests runs the complete Store test suite against the provided factory.
func RunStoreTests(t *testing.T, factory Factory) {
	t.Run("Records_CreateAndGet", func(t *testing.T) { testCreateAndGet(t, factory) })
	t.Run("Records_CreateDuplicate", func(t *testing.T) { testCreateDuplicate(t, factory) })
	t.Run("Records_MissingSession", func(t *testing.T) { testMissingSession(t, factory) })
	t.Run("Records_UpdateReplaces", func(t *testing.T) { testUpdateReplaces(t, factory) })
	t.Run("Records_ListFiltersAndOrders", func(t *testing.T) { testListFiltersAndOrders(t, factory) })

	t.Run("History_AppendPreservesOrder", func(t *testing.T) { testAppendPreservesOrder(t, factory) })
	t.Run("History_IsolationBetweenSessions", func(t *testing.T) { testHistoryIsolation(t, factory) })
	t.Run("History_ConcurrentAppends", func(t *testing.T) { testConcurrentAppends(t, factory) })
	t.Run("History_DeleteRemovesEverything", func(t *testing.T) { testDelete(t, factory) })
	t.Run("History_Fork", func(t *testing.T) { testFork(t, factory) })
}

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func record(id, cwd string, offset time.Duration) sessions.Record {
	return sessions.Record{
		ID:        acp.SessionID(id),
		Cwd:       cwd,
		CreatedAt: base,
		UpdatedAt: base.Add(offset),
	}
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func mustCreate(t *testing.T, ctx context.Context, s sessions.Store, rec sessions.Record) {
	t.Helper()
	if err := s.Create(ctx, rec); err != nil {
		t.Fatalf("create %s: %v", rec.ID, err)
	}
}

func texts(t *testing.T, updates []acp.SessionUpdate) []string {
	t.Helper()
	out := make([]string, len(updates))
	for i, u := range updates {
		var chunk *acp.ContentChunk
		switch {
		case u.UserMessageChunk != nil:
			chunk = u.UserMessageChunk
		case u.AgentMessageChunk != nil:
			chunk = u.AgentMessageChunk
		default:
			out[i] = u.Kind()
			continue
		}
		if chunk.Content.Text == nil {
			t.Fatalf("update %d: expected text content", i)
		}
		out[i] = chunk.Content.Text.Text
	}
	return out
}

func testCreateAndGet(t *testing.T, factory Factory) {
	s := factory(t)
	ctx := testContext(t)

	rec := record("sess-1", "/work", 0)
	rec.Title = "first"
	rec.Mode = "echo"
	mustCreate(t, ctx, s, rec)

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != rec.ID || got.Cwd != rec.Cwd || got.Title != rec.Title || got.Mode != rec.Mode {
		t.Fatalf("got %+v, want %+v", got, rec)
	}
	if !got.UpdatedAt.Equal(rec.UpdatedAt) || !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Fatalf("timestamps not preserved: %+v", got)
	}
}

func testCreateDuplicate(t *testing.T, factory Factory) {
	s := factory(t)
	ctx := testContext(t)

	mustCreate(t, ctx, s, record("dup", "/a", 0))
	err := s.Create(ctx, record("dup", "/b", time.Second))
	if !errors.Is(err, sessions.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	got, err := s.Get(ctx, "dup")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Cwd != "/a" {
		t.Fatalf("duplicate create overwrote record: %+v", got)
	}
}

func testMissingSession(t *testing.T, factory Factory) {
	s := factory(t)
	ctx := testContext(t)

	if _, err := s.Get(ctx, "nope"); !errors.Is(err, sessions.ErrNotFound) {
		t.Fatalf("Get: expected ErrNotFound, got %v", err)
	}
	if err := s.Update(ctx, record("nope", "/", 0)); !errors.Is(err, sessions.ErrNotFound) {
		t.Fatalf("Update: expected ErrNotFound, got %v", err)
	}
	if err := s.Append(ctx, "nope", acp.AgentMessageText("x")); !errors.Is(err, sessions.ErrNotFound) {
		t.Fatalf("Append: expected ErrNotFound, got %v", err)
	}
	if _, err := s.History(ctx, "nope"); !errors.Is(err, sessions.ErrNotFound) {
		t.Fatalf("History: expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "nope"); err != nil {
		t.Fatalf("Delete of unknown session: %v", err)
	}
}

func testUpdateReplaces(t *testing.T, factory Factory) {
	s := factory(t)
	ctx := testContext(t)

	rec := record("sess-u", "/work", 0)
	mustCreate(t, ctx, s, rec)

	rec.Title = "renamed"
	rec.Mode = "shout"
	rec.UpdatedAt = base.Add(time.Hour)
	if err := s.Update(ctx, rec); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "renamed" || got.Mode != "shout" || !got.UpdatedAt.Equal(rec.UpdatedAt) {
		t.Fatalf("update not applied: %+v", got)
	}
}

func testListFiltersAndOrders(t *testing.T, factory Factory) {
	s := factory(t)
	ctx := testContext(t)

	mustCreate(t, ctx, s, record("old", "/a", 0))
	mustCreate(t, ctx, s, record("new", "/a", 2*time.Second))
	mustCreate(t, ctx, s, record("other", "/b", time.Second))
	mustCreate(t, ctx, s, record("tie", "/a", 2*time.Second))

	all, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, r := range all {
		ids = append(ids, string(r.ID))
	}
	if want := []string{"new", "tie", "other", "old"}; !slices.Equal(ids, want) {
		t.Fatalf("list all = %v, want %v", ids, want)
	}

	inA, err := s.List(ctx, "/a")
	if err != nil {
		t.Fatalf("list /a: %v", err)
	}
	ids = ids[:0]
	for _, r := range inA {
		ids = append(ids, string(r.ID))
	}
	if want := []string{"new", "tie", "old"}; !slices.Equal(ids, want) {
		t.Fatalf("list /a = %v, want %v", ids, want)
	}

	// Updating moves a session to the front.
	old := record("old", "/a", time.Hour)
	if err := s.Update(ctx, old); err != nil {
		t.Fatalf("update: %v", err)
	}
	inA, err = s.List(ctx, "/a")
	if err != nil {
		t.Fatalf("list /a: %v", err)
	}
	if len(inA) != 3 || inA[0].ID != "old" {
		t.Fatalf("expected old first after update, got %+v", inA)
	}

	none, err := s.List(ctx, "/missing")
	if err != nil {
		t.Fatalf("list /missing: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no sessions, got %d", len(none))
	}
}

func testAppendPreservesOrder(t *testing.T, factory Factory) {
	s := factory(t)
	ctx := testContext(t)
	mustCreate(t, ctx, s, record("h", "/", 0))

	if err := s.Append(ctx, "h", acp.UserMessageText("hi")); err != nil {
		t.Fatalf("append: %v", err)
	}
	batch := []acp.SessionUpdate{
		acp.AgentMessageText("hello"),
		{CurrentModeUpdate: &acp.CurrentModeUpdate{CurrentModeID: "shout"}},
		acp.AgentMessageText("there"),
	}
	if err := s.Append(ctx, "h", batch...); err != nil {
		t.Fatalf("append batch: %v", err)
	}

	history, err := s.History(ctx, "h")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	want := []string{"hi", "hello", acp.UpdateCurrentModeUpdate, "there"}
	if got := texts(t, history); !slices.Equal(got, want) {
		t.Fatalf("history = %v, want %v", got, want)
	}
	if history[0].Kind() != acp.UpdateUserMessageChunk {
		t.Fatalf("first update kind = %q", history[0].Kind())
	}
	if history[2].CurrentModeUpdate.CurrentModeID != "shout" {
		t.Fatalf("mode update payload lost: %+v", history[2])
	}

	// History returns a copy.
	history[0] = acp.AgentMessageText("mutated")
	again, err := s.History(ctx, "h")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if texts(t, again)[0] != "hi" {
		t.Fatalf("history aliased caller slice")
	}
}

func testHistoryIsolation(t *testing.T, factory Factory) {
	s := factory(t)
	ctx := testContext(t)
	mustCreate(t, ctx, s, record("a", "/", 0))
	mustCreate(t, ctx, s, record("b", "/", 0))

	if err := s.Append(ctx, "a", acp.AgentMessageText("for a")); err != nil {
		t.Fatalf("append a: %v", err)
	}
	if err := s.Append(ctx, "b", acp.AgentMessageText("for b")); err != nil {
		t.Fatalf("append b: %v", err)
	}

	ha, err := s.History(ctx, "a")
	if err != nil {
		t.Fatalf("history a: %v", err)
	}
	hb, err := s.History(ctx, "b")
	if err != nil {
		t.Fatalf("history b: %v", err)
	}
	if got := texts(t, ha); !slices.Equal(got, []string{"for a"}) {
		t.Fatalf("history a = %v", got)
	}
	if got := texts(t, hb); !slices.Equal(got, []string{"for b"}) {
		t.Fatalf("history b = %v", got)
	}

	empty := record("c", "/", 0)
	mustCreate(t, ctx, s, empty)
	hc, err := s.History(ctx, "c")
	if err != nil {
		t.Fatalf("history c: %v", err)
	}
	if len(hc) != 0 {
		t.Fatalf("expected empty history, got %d", len(hc))
	}
}

func testConcurrentAppends(t *testing.T, factory Factory) {
	s := factory(t)
	ctx := testContext(t)
	mustCreate(t, ctx, s, record("c", "/", 0))

	const writers, each = 4, 10
	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range each {
				if err := s.Append(ctx, "c", acp.AgentMessageText(strconv.Itoa(w)+":"+strconv.Itoa(i))); err != nil {
					t.Errorf("append: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	history, err := s.History(ctx, "c")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != writers*each {
		t.Fatalf("expected %d updates, got %d", writers*each, len(history))
	}

	// Each writer's own updates stay in order.
	next := map[string]int{}
	for _, text := range texts(t, history) {
		w, n, _ := strings.Cut(text, ":")
		i, err := strconv.Atoi(n)
		if err != nil {
			t.Fatalf("unexpected update text %q", text)
		}
		if i != next[w] {
			t.Fatalf("writer %s out of order: got %d want %d", w, i, next[w])
		}
		next[w]++
	}
}

func testDelete(t *testing.T, factory Factory) {
	s := factory(t)
	ctx := testContext(t)
	mustCreate(t, ctx, s, record("d", "/x", 0))
	if err := s.Append(ctx, "d", acp.AgentMessageText("gone soon")); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := s.Delete(ctx, "d"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "d"); !errors.Is(err, sessions.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := s.History(ctx, "d"); !errors.Is(err, sessions.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for history after delete, got %v", err)
	}
	list, err := s.List(ctx, "/x")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("deleted session still listed: %+v", list)
	}

	// The id can be reused with a fresh history.
	mustCreate(t, ctx, s, record("d", "/x", time.Second))
	h, err := s.History(ctx, "d")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(h) != 0 {
		t.Fatalf("recreated session inherited history: %d updates", len(h))
	}
}

func testFork(t *testing.T, factory Factory) {
	s := factory(t)
	ctx := testContext(t)
	mustCreate(t, ctx, s, record("src", "/p", 0))
	if err := s.Append(ctx, "src", acp.UserMessageText("q"), acp.AgentMessageText("a")); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := sessions.Fork(ctx, s, "src", record("dst", "/p", time.Second)); err != nil {
		t.Fatalf("fork: %v", err)
	}
	if err := s.Append(ctx, "dst", acp.AgentMessageText("only in fork")); err != nil {
		t.Fatalf("append dst: %v", err)
	}

	src, err := s.History(ctx, "src")
	if err != nil {
		t.Fatalf("history src: %v", err)
	}
	dst, err := s.History(ctx, "dst")
	if err != nil {
		t.Fatalf("history dst: %v", err)
	}
	if got := texts(t, src); !slices.Equal(got, []string{"q", "a"}) {
		t.Fatalf("source history = %v", got)
	}
	if got := texts(t, dst); !slices.Equal(got, []string{"q", "a", "only in fork"}) {
		t.Fatalf("fork history = %v", got)
	}

	if err := sessions.Fork(ctx, s, "missing", record("x", "/p", 0)); !errors.Is(err, sessions.ErrNotFound) {
		t.Fatalf("fork of missing source: expected ErrNotFound, got %v", err)
	}
	if err := sessions.Fork(ctx, s, "src", record("dst", "/p", 0)); !errors.Is(err, sessions.ErrExists) {
		t.Fatalf("fork onto existing id: expected ErrExists, got %v", err)
	}
}
