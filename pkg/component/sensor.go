package component

import (
	"math"
	"sync"
	"time"

	"github.com/vdc-project/vdchost/pkg/proptree"
)

// SensorCallback is invoked for every hysteresis-gated accepted reading,
// independent of whether the push-throttling gate ultimately sends it to
// the controller.
type SensorCallback func(value float64)

// Sensor models a measured quantity with hysteresis gating at the value
// layer and min-interval/changes-only throttling at the push layer
// (spec.md §3, §4.7.5, §4.9). Grounded on
// original_source/pyvdcapi/components/sensor.py semantics described in
// spec.md, which supersedes the Python file's own push wiring.
type Sensor struct {
	SensorType string
	Unit       string
	Min        float64
	Max        float64
	Resolution float64
	Hysteresis float64

	MinPushInterval     time.Duration
	ChangesOnlyInterval time.Duration

	mu            sync.Mutex
	value         *float64
	lastUpdate    time.Time
	lastNotified  *float64
	lastPushed    *float64
	lastPushTime  time.Time
	errored       bool
	errorMsg      string
	subs          []SensorCallback
	pusher        Pusher
	now           func() time.Time
}

// NewSensor constructs a sensor with no reading yet.
func NewSensor(sensorType, unit string, min, max, resolution, hysteresis float64) *Sensor {
	return &Sensor{
		SensorType: sensorType,
		Unit:       unit,
		Min:        min,
		Max:        max,
		Resolution: resolution,
		Hysteresis: hysteresis,
		pusher:     NoOpPusher{},
		now:        time.Now,
	}
}

// SetPusher wires the sensor's push destination.
func (s *Sensor) SetPusher(p Pusher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p == nil {
		p = NoOpPusher{}
	}
	s.pusher = p
}

// Subscribe registers a callback invoked on every hysteresis-accepted
// reading.
func (s *Sensor) Subscribe(cb SensorCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, cb)
}

func (s *Sensor) snap(v float64) float64 {
	if s.Resolution <= 0 {
		return v
	}
	return math.Round(v/s.Resolution) * s.Resolution
}

// Value returns the sensor's current reading, or nil if unset or errored
// (spec.md §4.7.5: "getValue returns null while errored").
func (s *Sensor) Value() *float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errored {
		return nil
	}
	return s.value
}

// Errored reports whether the sensor is currently in an error state.
func (s *Sensor) Errored() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errored, s.errorMsg
}

// UpdateValue runs the full hysteresis-gate / throttle-gate pipeline of
// spec.md §4.7.5 and §4.9:
//  1. out-of-range -> error state, no push;
//  2. snap to resolution, clear error;
//  3. hysteresis gate: if |delta| < Hysteresis and a prior value exists,
//     refresh timestamp only;
//  4. run subscriber callbacks;
//  5. push, subject to min-interval and changes-only throttling.
func (s *Sensor) UpdateValue(value float64) {
	s.mu.Lock()
	now := s.now()

	if value < s.Min || value > s.Max {
		s.errored = true
		if value < s.Min {
			s.errorMsg = "Below bound"
		} else {
			s.errorMsg = "Above bound"
		}
		s.mu.Unlock()
		return
	}

	snapped := s.snap(value)
	s.errored = false
	s.errorMsg = ""
	s.lastUpdate = now

	if s.lastNotified != nil && math.Abs(snapped-*s.lastNotified) < s.Hysteresis {
		s.mu.Unlock()
		return
	}
	s.lastNotified = &snapped
	s.value = &snapped
	subs := append([]SensorCallback(nil), s.subs...)
	s.mu.Unlock()

	for _, cb := range subs {
		cb(snapped)
	}

	s.tryPush(snapped, now)
}

// tryPush applies the two push-throttling gates of spec.md §4.9.
func (s *Sensor) tryPush(value float64, now time.Time) {
	s.mu.Lock()
	if !s.lastPushTime.IsZero() && s.MinPushInterval > 0 && now.Sub(s.lastPushTime) < s.MinPushInterval {
		s.mu.Unlock()
		return
	}
	if s.lastPushed != nil && s.ChangesOnlyInterval > 0 &&
		math.Abs(value-*s.lastPushed) < s.Resolution &&
		now.Sub(s.lastPushTime) < s.ChangesOnlyInterval {
		s.mu.Unlock()
		return
	}
	s.lastPushTime = now
	pushed := value
	s.lastPushed = &pushed
	pusher := s.pusher
	s.mu.Unlock()

	pusher.Push(proptree.Map(map[string]proptree.Value{
		"type":  proptree.String(s.SensorType),
		"value": proptree.Double(value),
	}))
}

// SetError marks the sensor errored and pushes the error state
// unconditionally.
func (s *Sensor) SetError(msg string) {
	s.mu.Lock()
	s.errored = true
	s.errorMsg = msg
	pusher := s.pusher
	s.mu.Unlock()

	pusher.Push(proptree.Map(map[string]proptree.Value{
		"type":  proptree.String(s.SensorType),
		"error": proptree.String(msg),
	}))
}
