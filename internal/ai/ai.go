// Package ai produces support answers from a hosted language model.
package ai

import (
	"context"
	"errors"
	"strings"
)

// DeferSentinel is the exact reply a model gives when the user should be
// handed to the human support flow instead of answered.
const DeferSentinel = "HUMAN_SUPPORT"

// minReplyLen is the shortest trimmed reply accepted as an answer.
const minReplyLen = 4

var (
	// ErrEmptyReply is returned when the model produced no usable text.
	ErrEmptyReply = errors.New("ai: empty reply")
	// ErrDisabled is returned by the provider used when no model is configured.
	ErrDisabled = errors.New("ai: provider disabled")
)

// Reply is the interpreted model output for one user message.
type Reply struct {
	Text  string
	Defer bool
}

// Provider answers a single user message.
type Provider interface {
	// Generate returns the model's answer to message. An error means no
	// answer is available for this turn. Replies shorter than four runes
	// after trimming ("Yes", "No", "Ok") are not answers: adapters return
	// ErrEmptyReply for them and the conversation is handed to a human.
	// A reply that is or starts with DeferSentinel comes back with Defer set.
	Generate(ctx context.Context, message string) (Reply, error)

	// Name identifies the provider in logs.
	Name() string
}

// interpret turns raw model text into a Reply.
func interpret(raw string) (Reply, error) {
	text := strings.TrimSpace(raw)
	if text == DeferSentinel || strings.HasPrefix(text, DeferSentinel) {
		return Reply{Defer: true}, nil
	}
	if len([]rune(text)) < minReplyLen {
		return Reply{}, ErrEmptyReply
	}
	return Reply{Text: text}, nil
}

// Disabled is the provider used when no model is configured. Every call
// fails, which sends the conversation to a human.
type Disabled struct{}

// Generate implements Provider.
func (Disabled) Generate(context.Context, string) (Reply, error) {
	return Reply{}, ErrDisabled
}

// Name implements Provider.
func (Disabled) Name() string { return "none" }
