// Package alertsink publishes synthesized alert events onto a NATS
// subject so downstream consumers (notification services, SIEM
// forwarders) can react without polling the analyzer. This mirrors the
// reference implementation's bare "print the alert" behavior, extended
// into the kind of fire-and-forget publish wiring the rest of this
// domain's services already use for eventing.
package alertsink

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/NetCockpit/nc-analyzer/pkg/log"
	"github.com/NetCockpit/nc-analyzer/pkg/schema"
)

// Config describes how to reach the NATS server alerts are published to.
type Config struct {
	Address       string `json:"address"`
	Subject       string `json:"subject"`
	Username      string `json:"username,omitempty"`
	Password      string `json:"password,omitempty"`
	CredsFilePath string `json:"credsFilePath,omitempty"`
}

// Sink publishes alert events to a single NATS subject.
type Sink struct {
	conn    *nats.Conn
	subject string
	mu      sync.Mutex
}

// Connect dials the configured NATS server. A Config with no Address
// yields a no-op Sink so alert publishing can be left disabled without
// special-casing every call site.
func Connect(cfg Config) (*Sink, error) {
	if cfg.Address == "" {
		log.Warn("alertsink: no NATS address configured, alert publishing disabled")
		return &Sink{}, nil
	}

	var opts []nats.Option
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.CredsFilePath != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFilePath))
	}
	opts = append(opts, nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
		if err != nil {
			log.Errorf("alertsink: NATS error: %v", err)
		}
	}))

	conn, err := nats.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("alertsink: connecting to NATS: %w", err)
	}

	subject := cfg.Subject
	if subject == "" {
		subject = "nc-analyzer.alerts"
	}
	log.Infof("alertsink: connected to %s, publishing on %s", cfg.Address, subject)
	return &Sink{conn: conn, subject: subject}, nil
}

// Publish sends every alert event as its own JSON message. A Sink with
// no live connection silently drops events rather than failing the
// caller's request processing.
func (s *Sink) Publish(events []schema.Alert) error {
	if s == nil || s.conn == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("alertsink: marshaling alert %s: %w", event.ID, err)
		}
		if err := s.conn.Publish(s.subject, data); err != nil {
			return fmt.Errorf("alertsink: publishing alert %s: %w", event.ID, err)
		}
	}
	return nil
}

// Close releases the underlying NATS connection, if any.
func (s *Sink) Close() {
	if s == nil || s.conn == nil {
		return
	}
	s.conn.Close()
}
