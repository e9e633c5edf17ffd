package security

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAwait_DeliveredResult(t *testing.T) {
	ch := make(chan InfoResult, 1)
	ch <- InfoResult{Info: TokenInfo{"sub": "alice"}}

	info, err := Await(context.Background(), ch)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if info.Subject() != "alice" {
		t.Errorf("subject = %q, want alice", info.Subject())
	}
}

func TestAwait_DeliveredError(t *testing.T) {
	want := errors.New("verification backend down")
	ch := make(chan InfoResult, 1)
	ch <- InfoResult{Err: want}

	_, err := Await(context.Background(), ch)
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}

func TestAwait_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Never delivers; cancellation must unblock the wait.
	ch := make(chan InfoResult)

	_, err := Await(ctx, ch)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestBlocking(t *testing.T) {
	f := Blocking(func(token string) (TokenInfo, error) {
		return TokenInfo{"sub": token}, nil
	})

	info, err := f(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Blocking: %v", err)
	}
	if info.Subject() != "alice" {
		t.Errorf("subject = %q, want alice", info.Subject())
	}
}

func TestDeferred(t *testing.T) {
	f := Deferred(func(token string) <-chan InfoResult {
		ch := make(chan InfoResult, 1)
		go func() {
			time.Sleep(5 * time.Millisecond)
			ch <- InfoResult{Info: TokenInfo{"sub": token}}
		}()
		return ch
	})

	info, err := f(context.Background(), "bob")
	if err != nil {
		t.Fatalf("Deferred: %v", err)
	}
	if info.Subject() != "bob" {
		t.Errorf("subject = %q, want bob", info.Subject())
	}
}

func TestDeferredBasic(t *testing.T) {
	f := DeferredBasic(func(username, password string) <-chan InfoResult {
		ch := make(chan InfoResult, 1)
		if password == "secret" {
			ch <- InfoResult{Info: TokenInfo{"sub": username}}
		} else {
			ch <- InfoResult{}
		}
		return ch
	})

	info, err := f(context.Background(), "alice", "secret")
	if err != nil || info.Subject() != "alice" {
		t.Errorf("got %v/%v, want alice", info, err)
	}

	info, err = f(context.Background(), "alice", "wrong")
	if err != nil || info != nil {
		t.Errorf("got %v/%v, want nil/nil for bad password", info, err)
	}
}

func TestDeferredAPIKey(t *testing.T) {
	f := DeferredAPIKey(func(key string) <-chan InfoResult {
		ch := make(chan InfoResult, 1)
		ch <- InfoResult{Info: TokenInfo{"sub": "svc-" + key}}
		return ch
	})

	info, err := f(context.Background(), "42")
	if err != nil {
		t.Fatalf("DeferredAPIKey: %v", err)
	}
	if info.Subject() != "svc-42" {
		t.Errorf("subject = %q", info.Subject())
	}
}
