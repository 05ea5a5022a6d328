package session

import (
	"context"
	"testing"
	"time"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Enabled:    true,
		Home:       t.TempDir(),
		WorkingDir: "/home/dev/project",
	}
}

func TestSQLiteStoreCreateAssignsSequentialNumbers(t *testing.T) {
	store, err := NewSQLiteStore(testConfig(t))
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	first := &Session{Provider: "anthropic", Model: "claude", Mode: ModeChat}
	second := &Session{Provider: "anthropic", Model: "claude", Mode: ModeChat}
	if err := store.Create(ctx, first); err != nil {
		t.Fatalf("create first: %v", err)
	}
	if err := store.Create(ctx, second); err != nil {
		t.Fatalf("create second: %v", err)
	}
	if first.Number != 1 || second.Number != 2 {
		t.Fatalf("expected sequential numbers 1,2 got %d,%d", first.Number, second.Number)
	}

	byNumber, err := store.GetByNumber(ctx, 2)
	if err != nil {
		t.Fatalf("get by number: %v", err)
	}
	if byNumber == nil || byNumber.ID != second.ID {
		t.Fatalf("expected session #2 to be %s, got %+v", second.ID, byNumber)
	}
}

func TestSQLiteStoreUpdateMetricsAccumulates(t *testing.T) {
	store, err := NewSQLiteStore(testConfig(t))
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	sess := &Session{Provider: "openai", Model: "gpt-5", Mode: ModeChat}
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.UpdateMetrics(ctx, sess.ID, 1, 2, 500, 100); err != nil {
		t.Fatalf("update metrics: %v", err)
	}
	if err := store.UpdateMetrics(ctx, sess.ID, 1, 1, 200, 50); err != nil {
		t.Fatalf("update metrics again: %v", err)
	}

	loaded, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.LLMTurns != 2 || loaded.ToolCalls != 3 || loaded.InputTokens != 700 || loaded.OutputTokens != 150 {
		t.Fatalf("unexpected accumulated metrics: %+v", loaded)
	}
}

func TestSQLiteStoreGetByPrefixResolvesNumberIDAndShortID(t *testing.T) {
	store, err := NewSQLiteStore(testConfig(t))
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	sess := &Session{Provider: "anthropic", Model: "claude", Mode: ModeChat}
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}

	byHash, err := store.GetByPrefix(ctx, "#1")
	if err != nil || byHash == nil || byHash.ID != sess.ID {
		t.Fatalf("expected #1 to resolve to %s, got %+v err=%v", sess.ID, byHash, err)
	}
	byID, err := store.GetByPrefix(ctx, sess.ID)
	if err != nil || byID == nil || byID.ID != sess.ID {
		t.Fatalf("expected exact ID match, got %+v err=%v", byID, err)
	}
	byShort, err := store.GetByPrefix(ctx, sess.ID[:8])
	if err != nil || byShort == nil || byShort.ID != sess.ID {
		t.Fatalf("expected short-ID prefix match, got %+v err=%v", byShort, err)
	}
}

func TestSQLiteStoreAddMessageAutoAllocatesSequence(t *testing.T) {
	store, err := NewSQLiteStore(testConfig(t))
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	sess := &Session{Provider: "anthropic", Model: "claude", Mode: ModeChat}
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}

	m1 := &Message{Sequence: -1, TextContent: "hello", CreatedAt: time.Now()}
	m2 := &Message{Sequence: -1, TextContent: "world", CreatedAt: time.Now()}
	if err := store.AddMessage(ctx, sess.ID, m1); err != nil {
		t.Fatalf("add message 1: %v", err)
	}
	if err := store.AddMessage(ctx, sess.ID, m2); err != nil {
		t.Fatalf("add message 2: %v", err)
	}
	if m1.Sequence != 0 || m2.Sequence != 1 {
		t.Fatalf("expected sequences 0,1 got %d,%d", m1.Sequence, m2.Sequence)
	}

	msgs, err := store.GetMessages(ctx, sess.ID, 0, 0)
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].TextContent != "hello" || msgs[1].TextContent != "world" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestSQLiteStoreCurrentSession(t *testing.T) {
	store, err := NewSQLiteStore(testConfig(t))
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	sess := &Session{Provider: "anthropic", Model: "claude", Mode: ModeChat}
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.SetCurrent(ctx, sess.ID); err != nil {
		t.Fatalf("set current: %v", err)
	}
	current, err := store.GetCurrent(ctx)
	if err != nil || current == nil || current.ID != sess.ID {
		t.Fatalf("expected current session %s, got %+v err=%v", sess.ID, current, err)
	}
	if err := store.ClearCurrent(ctx); err != nil {
		t.Fatalf("clear current: %v", err)
	}
	if cleared, err := store.GetCurrent(ctx); err != nil || cleared != nil {
		t.Fatalf("expected no current session after clear, got %+v err=%v", cleared, err)
	}
}
