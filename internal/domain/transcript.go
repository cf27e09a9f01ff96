package domain

import "time"

// Transcript directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// TranscriptEntry is one recorded message of a conversation.
type TranscriptEntry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Direction string    `json:"direction"`
	Action    string    `json:"action,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
