// Package publisher emits job lifecycle events over NATS.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/blockedby/jobpost/internal/models"
)

// SubjectJobCreated carries models.JobCreatedEvent.
const SubjectJobCreated = "jobs.created"

// NATSClient interface to allow mocking
type NATSClient interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher implements jobs.Publisher
type NATSPublisher struct {
	js NATSClient
}

// NewNATSPublisher creates a new publisher
func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{js: conn}
}

// PublishJobCreated publishes a job created event
func (p *NATSPublisher) PublishJobCreated(ctx context.Context, event models.JobCreatedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.js.Publish(SubjectJobCreated, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	return nil
}
