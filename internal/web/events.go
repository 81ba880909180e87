package web

import (
	"encoding/json"

	"github.com/blockedby/jobpost/internal/models"
)

// WebSocket event types not produced by draft sessions.
const (
	EventJobCreated = "job.created"
)

// WSEvent represents a structured WebSocket message
type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// JobCreatedPayload is the payload for EventJobCreated.
type JobCreatedPayload struct {
	JobID          int64            `json:"job_id"`
	CategoryID     int              `json:"category_id"`
	Status         models.JobStatus `json:"status"`
	RequiredEscrow float64          `json:"required_escrow"`
}

// JobCreatedRelay returns a NATS handler that forwards jobs.created events
// to the hub. Malformed messages are logged and acknowledged.
func JobCreatedRelay(hub *Hub) func(data []byte) error {
	return func(data []byte) error {
		var evt models.JobCreatedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			hub.log.Warn().Err(err).Msg("drop malformed job created event")
			return nil
		}
		hub.Broadcast(WSEvent{
			Type: EventJobCreated,
			Payload: JobCreatedPayload{
				JobID:          evt.JobID,
				CategoryID:     evt.CategoryID,
				Status:         evt.Status,
				RequiredEscrow: evt.RequiredEscrow,
			},
		})
		return nil
	}
}
