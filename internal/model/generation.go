package model

import "time"

// GenerationStatus is the terminal state of a persisted generation.
type GenerationStatus string

const (
	GenerationCompleted GenerationStatus = "completed"
	// GenerationDegraded marks responses where every provider failed and no
	// best result exists. The response is still stored for audit.
	GenerationDegraded GenerationStatus = "degraded"
)

// Generation is one persisted request/response pair in the history store.
type Generation struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id,omitempty"`
	Status    GenerationStatus  `json:"status"`
	Request   StrategyRequest   `json:"request"`
	Response  *StrategyResponse `json:"response,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
