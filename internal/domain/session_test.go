package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionPending(t *testing.T) {
	now := time.Now()
	s := NewSession("s1", now)
	assert.False(t, s.Pending())

	for _, st := range []Status{StatusAwaitingEmail, StatusAwaitingIssue, StatusEscalated} {
		s.Status = st
		assert.True(t, s.Pending(), st)
	}
	s.Status = StatusAIActive
	assert.False(t, s.Pending())
}

func TestSessionIsDuplicate(t *testing.T) {
	now := time.Now()
	s := NewSession("s1", now)
	assert.False(t, s.IsDuplicate("hi", now, 10*time.Second), "no previous message")

	s.LastMessage = LastMessage{Text: "hi", At: now}
	assert.True(t, s.IsDuplicate("hi", now.Add(9*time.Second), 10*time.Second))
	assert.False(t, s.IsDuplicate("hi", now.Add(10*time.Second), 10*time.Second))
	assert.False(t, s.IsDuplicate("hi ", now.Add(time.Second), 10*time.Second), "byte-identical only")
}

func TestChatPayloadValidate(t *testing.T) {
	p := ChatPayload{Content: "Hi there!", Type: "text", FromUser: UserFromChat, UserType: UserTypeCustomer}
	assert.NoError(t, p.Validate())

	bad := p
	bad.UserType = "robot"
	assert.Error(t, bad.Validate())

	bad = p
	bad.FromUser = "sms"
	assert.Error(t, bad.Validate())

	bad = p
	bad.Content = ""
	assert.Error(t, bad.Validate())
}

func TestAlertEmailOrUnknown(t *testing.T) {
	assert.Equal(t, "unknown", Alert{}.EmailOrUnknown())
	assert.Equal(t, "a@b.com", Alert{Email: "a@b.com"}.EmailOrUnknown())
}
