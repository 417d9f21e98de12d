package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	alerts "aquarium-cloud/internal/alerts/domain"
	"aquarium-cloud/internal/observability/metrics"
	sensors "aquarium-cloud/internal/sensors/domain"
)

const (
	// EventAlert marks the transition into the alerting state, or a
	// repeat notification while still alerting.
	EventAlert = "alert"
	// EventRecovered marks the transition back to normal.
	EventRecovered = "recovered"
)

// Event is an alert lifecycle update handed to notifiers.
type Event struct {
	Type       string    `json:"type"`
	SensorID   string    `json:"sensor_id"`
	SensorName string    `json:"sensor_name"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit,omitempty"`
	Message    string    `json:"message"`
	At         time.Time `json:"at"`
}

// Notifier publishes alert lifecycle events.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type sensorState struct {
	alerting     bool
	lastNotified time.Time
}

// Tracker holds per-sensor alert state. It is process-local and not
// persisted: a restart resets it, at worst causing one extra
// notification.
type Tracker struct {
	mu     sync.Mutex
	states map[string]*sensorState
}

// NewTracker constructs an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{states: make(map[string]*sensorState)}
}

// Forget drops tracked state for a sensor, e.g. after deletion.
func (t *Tracker) Forget(sensorID string) {
	if t == nil || sensorID == "" {
		return
	}
	t.mu.Lock()
	delete(t.states, sensorID)
	t.mu.Unlock()
}

func (t *Tracker) state(sensorID string) *sensorState {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.states[sensorID]
	if !ok {
		st = &sensorState{}
		t.states[sensorID] = st
	}
	return st
}

// Service evaluates readings against sensor bounds and drives the
// per-sensor Normal/Alerting state machine.
type Service struct {
	tracker  *Tracker
	notifier Notifier
	repeat   time.Duration
	clock    Clock
}

// ServiceOption customizes the alert service.
type ServiceOption func(*Service)

// WithNotifier assigns a notifier.
func WithNotifier(notifier Notifier) ServiceOption {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithRepeatInterval enables repeat notifications while a sensor stays
// alerting. Zero disables repeats.
func WithRepeatInterval(interval time.Duration) ServiceOption {
	return func(s *Service) {
		if interval > 0 {
			s.repeat = interval
		}
	}
}

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService constructs an alert service around an injected tracker.
func NewService(tracker *Tracker, opts ...ServiceOption) (*Service, error) {
	if tracker == nil {
		return nil, errors.New("alerts: nil tracker")
	}
	service := &Service{
		tracker: tracker,
		clock:   systemClock{},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// HandleReading evaluates a persisted reading and fires notifications on
// state transitions. The returned evaluation is also used for status
// display.
//
// Transitions:
//   - Normal -> Alerting: always notify.
//   - Alerting -> Alerting: notify again only after the repeat interval.
//   - Alerting -> Normal: one recovery notification, repeat timer cleared.
//   - Normal -> Normal: nothing.
func (s *Service) HandleReading(ctx context.Context, sensor sensors.Sensor, value float64, at time.Time) alerts.Evaluation {
	eval := alerts.Evaluate(sensor, value)
	if s == nil || !sensor.AlertsEnabled {
		return eval
	}

	now := s.clock.Now().UTC()
	if at.IsZero() {
		at = now
	}
	st := s.tracker.state(sensor.ID)

	if eval.Alert {
		if !st.alerting {
			st.alerting = true
			st.lastNotified = now
			s.notify(ctx, Event{
				Type:       EventAlert,
				SensorID:   sensor.ID,
				SensorName: sensor.Name,
				Value:      value,
				Unit:       sensor.Unit,
				Message:    eval.Message,
				At:         at,
			})
			return eval
		}
		if s.repeat > 0 && now.Sub(st.lastNotified) >= s.repeat {
			st.lastNotified = now
			s.notify(ctx, Event{
				Type:       EventAlert,
				SensorID:   sensor.ID,
				SensorName: sensor.Name,
				Value:      value,
				Unit:       sensor.Unit,
				Message:    eval.Message,
				At:         at,
			})
		}
		return eval
	}

	if st.alerting {
		st.alerting = false
		st.lastNotified = time.Time{}
		s.notify(ctx, Event{
			Type:       EventRecovered,
			SensorID:   sensor.ID,
			SensorName: sensor.Name,
			Value:      value,
			Unit:       sensor.Unit,
			Message:    recoveryMessage(sensor, value),
			At:         at,
		})
	}
	return eval
}

func (s *Service) notify(ctx context.Context, event Event) {
	metrics.IncAlertEvent(event.Type)
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, event)
}

func recoveryMessage(sensor sensors.Sensor, value float64) string {
	if sensor.Unit != "" {
		return fmt.Sprintf("%s back to normal: %.2f %s", sensor.Name, value, sensor.Unit)
	}
	return fmt.Sprintf("%s back to normal: %.2f", sensor.Name, value)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
