package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	alertapp "aquarium-cloud/internal/alerts/application"
	channels "aquarium-cloud/internal/notify"
	"aquarium-cloud/internal/observability/metrics"
)

// Notifier renders alert events and pushes them through a channel.
// Delivery failures are logged and never retried; the next reading is
// the recovery mechanism.
type Notifier struct {
	channel  channels.Channel
	template *Template
	logger   *log.Logger
}

// NewNotifier constructs an alert notifier.
func NewNotifier(channel channels.Channel, template *Template, logger *log.Logger) (*Notifier, error) {
	if channel == nil {
		return nil, errors.New("alert notifier: nil channel")
	}
	if template == nil {
		defaultTemplate, err := NewTemplate("", "")
		if err != nil {
			return nil, err
		}
		template = defaultTemplate
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Notifier{channel: channel, template: template, logger: logger}, nil
}

// Notify implements the alert application Notifier.
func (n *Notifier) Notify(ctx context.Context, event alertapp.Event) {
	if n == nil || n.channel == nil {
		return
	}
	title, body, err := n.template.Render(templateData(event))
	if err != nil {
		n.logger.Printf("alert notify: render error: %v", err)
		return
	}
	msg := channels.Message{Title: title, Body: body, Priority: priorityFor(event.Type)}
	if err := n.channel.Send(ctx, msg); err != nil {
		metrics.IncNotifyFailure()
		n.logger.Printf("alert notify: send error: %v", err)
	}
}

func templateData(event alertapp.Event) TemplateData {
	value := fmt.Sprintf("%.2f", event.Value)
	if event.Unit != "" {
		value = fmt.Sprintf("%.2f %s", event.Value, event.Unit)
	}
	at := event.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return TemplateData{
		Sensor:     event.SensorName,
		Value:      value,
		Message:    event.Message,
		Time:       at.UTC().Format(time.RFC3339),
		Event:      event.Type,
		EventLabel: eventLabel(event.Type),
	}
}

func eventLabel(event string) string {
	switch event {
	case alertapp.EventAlert:
		return "Alert"
	case alertapp.EventRecovered:
		return "Recovered"
	default:
		return event
	}
}

func priorityFor(event string) int {
	if event == alertapp.EventAlert {
		return 1
	}
	return 0
}
