package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	alertapp "aquarium-cloud/internal/alerts/application"
	channels "aquarium-cloud/internal/notify"
)

type recordingChannel struct {
	mu       sync.Mutex
	messages []channels.Message
	err      error
}

func (c *recordingChannel) Send(_ context.Context, msg channels.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	return c.err
}

func sampleEvent() alertapp.Event {
	return alertapp.Event{
		Type:       alertapp.EventAlert,
		SensorID:   "sensor-1",
		SensorName: "Tank Temp",
		Value:      28.5,
		Unit:       "C",
		Message:    "Tank Temp too high: 28.50 C is above the maximum of 27.00 C",
		At:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNotifierRendersDefaultTemplates(t *testing.T) {
	channel := &recordingChannel{}
	notifier, err := NewNotifier(channel, nil, nil)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	notifier.Notify(context.Background(), sampleEvent())

	if len(channel.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(channel.messages))
	}
	msg := channel.messages[0]
	if msg.Title != "Aquarium Alert: Tank Temp" {
		t.Fatalf("title = %q", msg.Title)
	}
	if !strings.Contains(msg.Body, "too high") {
		t.Fatalf("body %q missing message", msg.Body)
	}
	if !strings.Contains(msg.Body, "Value: 28.50 C") {
		t.Fatalf("body %q missing value line", msg.Body)
	}
	if msg.Priority != 1 {
		t.Fatalf("priority = %d, want 1 for alerts", msg.Priority)
	}
}

func TestNotifierRecoveryPriority(t *testing.T) {
	channel := &recordingChannel{}
	notifier, err := NewNotifier(channel, nil, nil)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	event := sampleEvent()
	event.Type = alertapp.EventRecovered
	event.Message = "Tank Temp back to normal: 25.00 C"
	notifier.Notify(context.Background(), event)

	if len(channel.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(channel.messages))
	}
	msg := channel.messages[0]
	if msg.Title != "Aquarium Recovered: Tank Temp" {
		t.Fatalf("title = %q", msg.Title)
	}
	if msg.Priority != 0 {
		t.Fatalf("priority = %d, want 0 for recoveries", msg.Priority)
	}
}

func TestNotifierSendFailureIsSwallowed(t *testing.T) {
	channel := &recordingChannel{err: errors.New("pushover down")}
	notifier, err := NewNotifier(channel, nil, nil)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	// Must not panic or retry; the failure is logged and dropped.
	notifier.Notify(context.Background(), sampleEvent())
	if len(channel.messages) != 1 {
		t.Fatalf("messages = %d, want exactly 1 attempt", len(channel.messages))
	}
}

func TestNotifierCustomTemplate(t *testing.T) {
	channel := &recordingChannel{}
	tpl, err := NewTemplate("{{.Sensor}} {{.Event}}", "{{.Value}}")
	if err != nil {
		t.Fatalf("new template: %v", err)
	}
	notifier, err := NewNotifier(channel, tpl, nil)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	notifier.Notify(context.Background(), sampleEvent())
	if len(channel.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(channel.messages))
	}
	if channel.messages[0].Title != "Tank Temp alert" {
		t.Fatalf("title = %q", channel.messages[0].Title)
	}
	if channel.messages[0].Body != "28.50 C" {
		t.Fatalf("body = %q", channel.messages[0].Body)
	}
}

func TestMultiNotifierFansOut(t *testing.T) {
	first := &recordingNotifier{}
	second := &recordingNotifier{}
	multi := NewMultiNotifier(first, second)

	multi.Notify(context.Background(), sampleEvent())
	if len(first.events) != 1 || len(second.events) != 1 {
		t.Fatalf("fan-out = %d/%d, want 1/1", len(first.events), len(second.events))
	}
}

type recordingNotifier struct {
	events []alertapp.Event
}

func (n *recordingNotifier) Notify(_ context.Context, event alertapp.Event) {
	n.events = append(n.events, event)
}
