package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"kanji-quiz-service/internal/game"
)

func TestKVStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewKVStore(newClient(mr))
	ctx := context.Background()

	if got, err := store.Get(ctx, "bgm_enabled"); err != nil || got != "" {
		t.Fatalf("unset key should read empty, got %q err %v", got, err)
	}
	if err := store.Set(ctx, "bgm_enabled", "0"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := store.Get(ctx, "bgm_enabled"); got != "0" {
		t.Fatalf("expected 0, got %q", got)
	}
}

func TestKVStoreUnavailableReturnsError(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close() // take the backing store down

	store := NewKVStore(client)
	if _, err := store.Get(context.Background(), "card_counts"); err == nil {
		t.Fatalf("expected error from unavailable store")
	}
	if err := store.Set(context.Background(), "card_counts", "{}"); err == nil {
		t.Fatalf("expected error from unavailable store")
	}
}

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)
	session := game.NewSession("s1", game.DefaultRules(), game.NopCountdown{}, nil, nil)
	defer session.Close()

	store.Put(session)
	if !mr.Exists("game:session:s1") {
		t.Fatalf("expected liveness key to be set")
	}
	if _, ok := store.Get("s1"); !ok {
		t.Fatalf("expected session retrievable")
	}

	store.Delete("s1")
	if mr.Exists("game:session:s1") {
		t.Fatalf("expected liveness key to be removed")
	}
}
