package realtime

import (
	"errors"
	"testing"
)

func TestRecord_ReadInitial(t *testing.T) {
	r := NewRecord[int, string](7)
	var got int
	r.Read(func(v *int) { got = *v })
	if got != 7 {
		t.Errorf("got %d, want 7", got)
	}
}

func TestRecord_UpdatePublishes(t *testing.T) {
	r := NewRecord[int, string](0)
	hub := r.Broadcaster()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	err := r.Update("inc", func(v *int) error {
		*v++
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := <-ch; got != "inc" {
		t.Errorf("event %q, want inc", got)
	}
	var got int
	r.Read(func(v *int) { got = *v })
	if got != 1 {
		t.Errorf("value %d, want 1", got)
	}
}

func TestRecord_FailedUpdateDoesNotPublish(t *testing.T) {
	r := NewRecord[int, string](0)
	hub := r.Broadcaster()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	boom := errors.New("boom")
	err := r.Update("inc", func(v *int) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err %v, want boom", err)
	}
	if len(ch) != 0 {
		t.Errorf("queued %d events, want 0", len(ch))
	}
}
