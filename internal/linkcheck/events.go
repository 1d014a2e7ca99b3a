package linkcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/handbook/internal/logfields"
)

// BrokenLinkEvent is published for every broken link when link events are
// enabled.
type BrokenLinkEvent struct {
	URL        string    `json:"url"`
	Target     string    `json:"target,omitempty"`
	Tag        string    `json:"tag"`
	Page       string    `json:"page"`
	PageURL    string    `json:"page_url,omitempty"`
	SourcePath string    `json:"source_path,omitempty"`
	Locale     string    `json:"locale,omitempty"`
	Policy     string    `json:"policy"`
	BuildID    string    `json:"build_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewEvent builds the event for one broken link.
func NewEvent(b Broken, siteURL, locale, policy, buildID string) *BrokenLinkEvent {
	e := &BrokenLinkEvent{
		URL:        b.URL,
		Target:     b.Target,
		Tag:        b.Tag,
		Page:       b.Page,
		SourcePath: b.Source,
		Locale:     locale,
		Policy:     policy,
		BuildID:    buildID,
	}
	if siteURL != "" {
		e.PageURL = siteURL + b.Page
	}
	return e
}

// Publisher delivers broken link events.
type Publisher interface {
	PublishBrokenLink(ctx context.Context, event *BrokenLinkEvent) error
	Close() error
}

// NATSPublisher publishes events as JSON on a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("handbook"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS publisher connected for broken link events", "url", url, "subject", subject)
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// PublishBrokenLink publishes event and waits for the server to process it.
func (p *NATSPublisher) PublishBrokenLink(ctx context.Context, event *BrokenLinkEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	slog.Debug("Published broken link event", logfields.Link(event.URL), logfields.Route(event.Page))
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
