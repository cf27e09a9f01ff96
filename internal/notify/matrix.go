package notify

import (
	"context"
	"fmt"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/id"

	"github.com/purifyx/crisp-chatbot/internal/domain"
)

// Matrix posts alerts as text messages into a Matrix room.
type Matrix struct {
	client *mautrix.Client
	roomID id.RoomID
}

// NewMatrix creates a Matrix sink that posts as userID into roomID.
func NewMatrix(homeserver, userID, accessToken, roomID string) (*Matrix, error) {
	client, err := mautrix.NewClient(homeserver, id.UserID(userID), accessToken)
	if err != nil {
		return nil, fmt.Errorf("create matrix client: %w", err)
	}
	return &Matrix{client: client, roomID: id.RoomID(roomID)}, nil
}

// Notify implements Sink.
func (m *Matrix) Notify(ctx context.Context, alert domain.Alert) error {
	if _, err := m.client.SendText(ctx, m.roomID, Format(alert)); err != nil {
		return fmt.Errorf("send matrix message to %s: %w", m.roomID, err)
	}
	return nil
}
