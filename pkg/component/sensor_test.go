package component

import (
	"testing"
	"time"
)

func TestSensorOutOfRangeSetsErrorAndDoesNotPush(t *testing.T) {
	s := NewSensor("temperature", "C", -10, 50, 0.1, 0.5)
	pusher := &CountingPusher{}
	s.SetPusher(pusher)

	s.UpdateValue(100)
	errored, msg := s.Errored()
	if !errored {
		t.Fatalf("expected errored state for out-of-range value")
	}
	if msg != "Above bound" {
		t.Fatalf("error message = %q, want 'Above bound'", msg)
	}
	if s.Value() != nil {
		t.Fatalf("Value() should be nil while errored")
	}
	if pusher.Count() != 0 {
		t.Fatalf("expected out-of-range reading not to push, got %d", pusher.Count())
	}
}

func TestSensorHysteresisSuppressesSmallChanges(t *testing.T) {
	s := NewSensor("temperature", "C", -10, 50, 0.1, 1.0)
	pusher := &CountingPusher{}
	s.SetPusher(pusher)

	s.UpdateValue(20.0)
	if pusher.Count() != 1 {
		t.Fatalf("expected first reading to push, got %d", pusher.Count())
	}
	s.UpdateValue(20.3) // within hysteresis of 1.0
	if pusher.Count() != 1 {
		t.Fatalf("expected hysteresis to suppress small change, got %d pushes", pusher.Count())
	}
	s.UpdateValue(22.0) // outside hysteresis
	if pusher.Count() != 2 {
		t.Fatalf("expected a push for a change beyond hysteresis, got %d", pusher.Count())
	}
}

func TestSensorMinPushIntervalThrottles(t *testing.T) {
	s := NewSensor("temperature", "C", -10, 50, 0.1, 0)
	s.MinPushInterval = time.Second
	pusher := &CountingPusher{}
	s.SetPusher(pusher)

	fakeNow := time.Now()
	s.now = func() time.Time { return fakeNow }

	s.UpdateValue(20.0)
	fakeNow = fakeNow.Add(200 * time.Millisecond)
	s.UpdateValue(21.0)
	if pusher.Count() != 1 {
		t.Fatalf("expected push suppressed within MinPushInterval, got %d", pusher.Count())
	}

	fakeNow = fakeNow.Add(900 * time.Millisecond)
	s.UpdateValue(22.0)
	if pusher.Count() != 2 {
		t.Fatalf("expected push allowed after MinPushInterval elapses, got %d", pusher.Count())
	}
}

func TestSensorChangesOnlyIntervalThrottles(t *testing.T) {
	s := NewSensor("temperature", "C", -10, 50, 0.1, 0)
	s.ChangesOnlyInterval = time.Second
	pusher := &CountingPusher{}
	s.SetPusher(pusher)

	fakeNow := time.Now()
	s.now = func() time.Time { return fakeNow }

	s.UpdateValue(20.0)
	fakeNow = fakeNow.Add(300 * time.Millisecond)
	// Value within resolution of the last pushed value, and inside the
	// changes-only window: should be dropped.
	s.UpdateValue(20.04)
	if pusher.Count() != 1 {
		t.Fatalf("expected push suppressed inside changes-only interval for near-identical value, got %d", pusher.Count())
	}
}

func TestSetErrorAlwaysPushes(t *testing.T) {
	s := NewSensor("temperature", "C", -10, 50, 0.1, 0)
	pusher := &CountingPusher{}
	s.SetPusher(pusher)
	s.SetError("sensor offline")
	if pusher.Count() != 1 {
		t.Fatalf("expected SetError to push, got %d", pusher.Count())
	}
	errored, msg := s.Errored()
	if !errored || msg != "sensor offline" {
		t.Fatalf("expected errored state 'sensor offline', got (%v, %q)", errored, msg)
	}
}
