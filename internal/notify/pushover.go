package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultPushoverBaseURL = "https://api.pushover.net"

// Message is a rendered notification ready for delivery.
type Message struct {
	Title    string
	Body     string
	Priority int
}

// Channel delivers rendered messages.
type Channel interface {
	Send(ctx context.Context, msg Message) error
}

// PushoverChannel sends notifications through the Pushover API.
type PushoverChannel struct {
	token   string
	user    string
	device  string
	baseURL string
	client  *http.Client
}

// PushoverOption configures the channel.
type PushoverOption func(*PushoverChannel)

// WithDevice targets a specific Pushover device.
func WithDevice(device string) PushoverOption {
	return func(ch *PushoverChannel) {
		ch.device = device
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) PushoverOption {
	return func(ch *PushoverChannel) {
		if baseURL != "" {
			ch.baseURL = baseURL
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) PushoverOption {
	return func(ch *PushoverChannel) {
		if client != nil {
			ch.client = client
		}
	}
}

// NewPushoverChannel constructs a Pushover channel.
func NewPushoverChannel(token, user string, opts ...PushoverOption) (*PushoverChannel, error) {
	if token == "" {
		return nil, errors.New("pushover channel: empty token")
	}
	if user == "" {
		return nil, errors.New("pushover channel: empty user key")
	}
	channel := &PushoverChannel{
		token:   token,
		user:    user,
		baseURL: defaultPushoverBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(channel)
	}
	return channel, nil
}

type pushoverResponse struct {
	Status int      `json:"status"`
	Errors []string `json:"errors"`
}

// Send posts the message to the Pushover messages endpoint.
func (p *PushoverChannel) Send(ctx context.Context, msg Message) error {
	if p == nil || p.token == "" || p.user == "" {
		return errors.New("pushover channel: not configured")
	}
	form := url.Values{}
	form.Set("token", p.token)
	form.Set("user", p.user)
	form.Set("title", msg.Title)
	form.Set("message", msg.Body)
	form.Set("priority", strconv.Itoa(msg.Priority))
	if p.device != "" {
		form.Set("device", p.device)
	}

	endpoint := strings.TrimRight(p.baseURL, "/") + "/1/messages.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("pushover channel: non-2xx response %d", resp.StatusCode)
	}

	var parsed pushoverResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return err
	}
	if parsed.Status != 1 {
		if len(parsed.Errors) > 0 {
			return fmt.Errorf("pushover channel: %s", strings.Join(parsed.Errors, "; "))
		}
		return fmt.Errorf("pushover channel: rejected with status %d", parsed.Status)
	}
	return nil
}
