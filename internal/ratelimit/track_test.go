package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestTrackUpdatesOnSuccess(t *testing.T) {
	s := NewStore()
	body := json.RawMessage(`{"success":true,"rate_limit":{"remaining":25,"limit":100}}`)

	got, err := Track(context.Background(), s, func(context.Context) (json.RawMessage, error) {
		return body, nil
	})
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if string(got) != string(body) {
		t.Errorf("result changed: %s", got)
	}
	if s.Level() != LevelDanger {
		t.Errorf("Level = %s, want danger", s.Level())
	}
}

func TestTrackPropagatesErrorWithoutUpdate(t *testing.T) {
	s := NewStore()
	s.Update([]byte(`{"rate_limit":{"remaining":90,"limit":100}}`))
	before := s.Current()

	sentinel := errors.New("boom")
	_, err := Track(context.Background(), s, func(context.Context) (json.RawMessage, error) {
		return json.RawMessage(`{"rate_limit":{"remaining":1,"limit":100}}`), sentinel
	})
	if err != sentinel {
		t.Fatalf("err = %v, want the original error", err)
	}
	if s.Current() != before {
		t.Fatal("store updated from a failed call")
	}
}

func TestTrackSkipsUpdateAfterCancel(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())

	_, err := Track(ctx, s, func(context.Context) (json.RawMessage, error) {
		cancel()
		return json.RawMessage(`{"rate_limit":{"remaining":1,"limit":100}}`), nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if s.Current().Known() {
		t.Fatal("store updated after the caller went away")
	}
}

// A is issued first but completes second; B is issued second but completes
// first. The final snapshot is A's.
func TestTrackLastCompletedWins(t *testing.T) {
	s := NewStore()
	aStarted := make(chan struct{})
	bDone := make(chan struct{})
	aDone := make(chan struct{})

	go func() {
		defer close(aDone)
		_, _ = Track(context.Background(), s, func(context.Context) (json.RawMessage, error) {
			close(aStarted)
			<-bDone
			return json.RawMessage(`{"rate_limit":{"remaining":50,"limit":100}}`), nil
		})
	}()

	<-aStarted
	_, err := Track(context.Background(), s, func(context.Context) (json.RawMessage, error) {
		return json.RawMessage(`{"rate_limit":{"remaining":90,"limit":100}}`), nil
	})
	if err != nil {
		t.Fatalf("Track B: %v", err)
	}
	if got := s.Current().Remaining; got != 90 {
		t.Fatalf("after B remaining = %d, want 90", got)
	}
	close(bDone)
	<-aDone

	if got := s.Current().Remaining; got != 50 {
		t.Fatalf("final remaining = %d, want 50 (last completed)", got)
	}
}
