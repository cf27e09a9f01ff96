package domain

import (
	"fmt"
	"time"
)

// UserType classifies who sent a chat payload.
type UserType string

const (
	UserTypeVisitor  UserType = "visitor"
	UserTypeCustomer UserType = "customer"
	UserTypeClient   UserType = "client"
)

// UserFrom is the channel a chat payload arrived through.
type UserFrom string

const (
	UserFromChat  UserFrom = "chat"
	UserFromEmail UserFrom = "email"
)

// ChatPayload is a raw message submitted through the /chat endpoint.
type ChatPayload struct {
	ID        string    `json:"id,omitempty"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	FromUser  UserFrom  `json:"from_user"`
	UserType  UserType  `json:"user_type"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Validate checks required fields and enum values.
func (p *ChatPayload) Validate() error {
	if p.Content == "" {
		return fmt.Errorf("content is required")
	}
	if p.Type == "" {
		return fmt.Errorf("type is required")
	}
	switch p.FromUser {
	case UserFromChat, UserFromEmail:
	default:
		return fmt.Errorf("invalid from_user %q", p.FromUser)
	}
	switch p.UserType {
	case UserTypeVisitor, UserTypeCustomer, UserTypeClient:
	default:
		return fmt.Errorf("invalid user_type %q", p.UserType)
	}
	return nil
}
