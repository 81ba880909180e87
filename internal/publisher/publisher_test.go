package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/jobpost/internal/models"
)

// MockNATSClient mocks the nats client operations we need
type MockNATSClient struct {
	PublishedSubject string
	PublishedData    []byte
	PublishError     error
}

func (m *MockNATSClient) Publish(subject string, data []byte) error {
	m.PublishedSubject = subject
	m.PublishedData = data
	return m.PublishError
}

func TestNATSPublisher_PublishJobCreated(t *testing.T) {
	mock := &MockNATSClient{}
	pub := &NATSPublisher{js: mock}

	event := models.JobCreatedEvent{
		EventID:        uuid.New(),
		JobID:          42,
		ClientID:       "client-1",
		CategoryID:     3,
		Status:         models.JobStatusOpen,
		PaymentModel:   models.PaymentModelProject,
		Budget:         8000,
		RequiredEscrow: 4200,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}

	require.NoError(t, pub.PublishJobCreated(context.Background(), event))
	assert.Equal(t, "jobs.created", mock.PublishedSubject)

	var got models.JobCreatedEvent
	require.NoError(t, json.Unmarshal(mock.PublishedData, &got))
	assert.Equal(t, event, got)
}

func TestNATSPublisher_PublishError(t *testing.T) {
	pub := &NATSPublisher{js: &MockNATSClient{PublishError: errors.New("nats: connection closed")}}

	err := pub.PublishJobCreated(context.Background(), models.JobCreatedEvent{JobID: 1})
	assert.ErrorContains(t, err, "publish event")
}
