package ai

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-3-5-haiku-latest"

// Anthropic answers messages with the Anthropic Messages API.
type Anthropic struct {
	api       *anthropic.Client
	model     anthropic.Model
	system    string
	maxTokens int64
}

// NewAnthropic creates an Anthropic-backed provider.
func NewAnthropic(apiKey, model, system string, opts ...option.RequestOption) *Anthropic {
	if model == "" {
		model = defaultAnthropicModel
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Anthropic{
		api:       &client,
		model:     anthropic.Model(model),
		system:    system,
		maxTokens: 512,
	}
}

// Generate implements Provider.
func (a *Anthropic) Generate(ctx context.Context, message string) (Reply, error) {
	msg, err := a.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: a.system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(message)),
		},
	})
	if err != nil {
		return Reply{}, fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	return interpret(text)
}

// Name implements Provider.
func (a *Anthropic) Name() string { return "anthropic" }
