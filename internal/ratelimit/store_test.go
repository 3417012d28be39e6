package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewStoreStartsUnknown(t *testing.T) {
	s := NewStore()
	if got := s.Current(); got != (Snapshot{}) {
		t.Fatalf("initial snapshot = %+v, want zero", got)
	}
	if s.Level() != LevelUnknown || s.Color() != ColorGrey {
		t.Fatalf("initial level/color = %s/%s", s.Level(), s.Color())
	}
}

func TestUpdateParsesRateLimit(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	s := NewStore(WithClock(fixedClock(now)))

	ok := s.Update([]byte(`{"success":true,"rate_limit":{"remaining":80,"limit":100,"used":20,
		"daily_remaining":4000,"daily_limit":5000,"reset":1772618400}}`))
	if !ok {
		t.Fatal("Update returned false for a body with rate_limit")
	}

	got := s.Current()
	want := Snapshot{
		Remaining: 80, Limit: 100, Used: 20,
		DailyRemaining: 4000, DailyLimit: 5000,
		ResetAt:     time.Unix(1772618400, 0),
		LastUpdated: now,
	}
	if got != want {
		t.Fatalf("snapshot = %+v\nwant %+v", got, want)
	}
	if s.Level() != LevelGood || s.Color() != ColorGreen {
		t.Fatalf("level/color = %s/%s", s.Level(), s.Color())
	}
}

func TestUpdateWithoutQuotaKeepsSnapshot(t *testing.T) {
	s := NewStore()
	s.Update([]byte(`{"rate_limit":{"remaining":5,"limit":10}}`))
	before := s.Current()

	bodies := []string{
		`{"success":true,"calendars":[]}`,
		`{"rate_limit":null}`,
		`{"rate_limit":"soon"}`,
		`{"rate_limit":[1,2]}`,
		`[1,2,3]`,
		`not json at all`,
		``,
	}
	for _, b := range bodies {
		if s.Update([]byte(b)) {
			t.Errorf("Update(%q) reported a replace", b)
		}
		if got := s.Current(); got != before {
			t.Errorf("Update(%q) changed snapshot to %+v", b, got)
		}
	}
}

func TestUpdateReplacesWholesale(t *testing.T) {
	s := NewStore()
	s.Update([]byte(`{"rate_limit":{"remaining":90,"limit":100,"used":10,"daily_remaining":900,"daily_limit":1000,"reset":1700000000}}`))
	s.Update([]byte(`{"rate_limit":{"remaining":3}}`))

	got := s.Current()
	if got.Remaining != 3 {
		t.Errorf("Remaining = %d, want 3", got.Remaining)
	}
	if got.Limit != 0 || got.Used != 0 || got.DailyRemaining != 0 || got.DailyLimit != 0 {
		t.Errorf("fields merged from the earlier snapshot: %+v", got)
	}
	if !got.ResetAt.IsZero() {
		t.Errorf("ResetAt = %v, want zero", got.ResetAt)
	}
	if s.Level() != LevelUnknown {
		t.Errorf("Level = %s, want unknown (limit missing)", s.Level())
	}
}

func TestUpdateDerivesUsed(t *testing.T) {
	s := NewStore()
	s.Update([]byte(`{"rate_limit":{"remaining":"60","limit":"100"}}`))
	got := s.Current()
	if got.Remaining != 60 || got.Limit != 100 {
		t.Fatalf("numeric strings not parsed: %+v", got)
	}
	if got.Used != 40 {
		t.Errorf("Used = %d, want derived 40", got.Used)
	}

	s.Update([]byte(`{"rate_limit":{"remaining":120,"limit":100}}`))
	if got := s.Current().Used; got != 0 {
		t.Errorf("Used = %d, want 0 when remaining exceeds limit", got)
	}
}

func TestUpdateToleratesMalformedFields(t *testing.T) {
	s := NewStore()
	ok := s.Update([]byte(`{"rate_limit":{"remaining":{"x":1},"limit":true,"reset":"never"}}`))
	if !ok {
		t.Fatal("a rate_limit object should still replace the snapshot")
	}
	got := s.Current()
	if got.Remaining != 0 || got.Limit != 0 || !got.ResetAt.IsZero() {
		t.Fatalf("malformed fields should read as zero: %+v", got)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	s := NewStore()
	ch, cancel := s.Subscribe()

	s.Update([]byte(`{"rate_limit":{"remaining":1,"limit":2}}`))
	select {
	case snap := <-ch:
		if snap.Remaining != 1 || snap.Limit != 2 {
			t.Fatalf("received %+v", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}

	cancel()
	cancel() // idempotent
	if _, open := <-ch; open {
		t.Fatal("channel still open after cancel")
	}
	s.Update([]byte(`{"rate_limit":{"remaining":2,"limit":2}}`))
}

func TestSubscriberOverflowKeepsNewest(t *testing.T) {
	s := NewStore()
	ch, cancel := s.Subscribe()

	for i := 1; i <= subscriberBuffer+2; i++ {
		s.Set(Snapshot{Remaining: int64(i), Limit: 100})
	}
	cancel()

	var last Snapshot
	n := 0
	for snap := range ch {
		last = snap
		n++
	}
	if n != subscriberBuffer {
		t.Errorf("delivered %d snapshots, want %d", n, subscriberBuffer)
	}
	if last.Remaining != s.Current().Remaining {
		t.Fatalf("last delivered Remaining = %d, store has %d", last.Remaining, s.Current().Remaining)
	}
}

func TestConcurrentUpdatesNeverTear(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Update([]byte(`{"rate_limit":{"remaining":10,"limit":10,"daily_remaining":10,"daily_limit":10}}`))
		}()
		go func() {
			defer wg.Done()
			s.Update([]byte(`{"rate_limit":{"remaining":20,"limit":20,"daily_remaining":20,"daily_limit":20}}`))
		}()
	}
	for i := 0; i < 100; i++ {
		snap := s.Current()
		if snap.Remaining != snap.Limit || snap.DailyRemaining != snap.Limit || snap.DailyLimit != snap.Limit {
			t.Fatalf("torn snapshot: %+v", snap)
		}
	}
	wg.Wait()
}
