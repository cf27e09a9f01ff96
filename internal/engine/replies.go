package engine

import "fmt"

// Replies holds the canned messages sent to visitors.
type Replies struct {
	Welcome          string
	Resume           string
	AskIssue         string
	Deferred         string
	AskEmail         string
	EmailNoted       string
	AskClarification string
	Escalated        string
	Unavailable      string
}

// DefaultReplies returns the standard replies for brand.
func DefaultReplies(brand string) Replies {
	if brand == "" {
		brand = "PurifyX"
	}
	return Replies{
		Welcome:          fmt.Sprintf("Hi there 👋 I'm your AI assistant at %s. What can I help you with today?", brand),
		Resume:           "I'm back 😊 What would you like help with now?",
		AskIssue:         "Sure, I can get our support team involved. Could you briefly describe the issue?",
		Deferred:         "Sorry, I don't have info on that. Could you describe the issue so our team can help?",
		AskEmail:         "Thanks. Please also share your email so our support team can follow up.",
		EmailNoted:       "Thanks, I've noted your email. Could you describe the issue you're facing?",
		AskClarification: "That doesn't look like a valid email address. Could you share it again, for example name@company.com?",
		Escalated:        "Thanks! A human support agent will assist you shortly 🔄",
		Unavailable:      "I can't answer that right now, so I'm connecting you with a person from our team 🔄",
	}
}
