// Package agent contains CareFlow's LLM-backed collaborators: the triage
// classifier gateway, the severity rater, and the reply generators. All of
// them share one OpenAI client; callers depend on the small interfaces they
// declare for themselves, never on this package's concrete type.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"careflow/internal/routing"
)

// ErrNoCompletion indicates the API returned an empty choice list.
var ErrNoCompletion = errors.New("agent: completion returned no choices")

// Client calls the OpenAI chat completion API. API key and model come from
// configuration; the zero value is not usable.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient constructs an OpenAI-backed agent client. An empty model falls
// back to a small default.
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{api: openai.NewClient(apiKey), model: model}
}

func (c *Client) complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// Classify categorizes a message as EMERGENCY, MEDICAL or UNCLEAR and, for
// MEDICAL, extracts the specialist suggestion from the second reply line.
// It satisfies routing.Classifier.
func (c *Client) Classify(ctx context.Context, message string) (routing.Classification, error) {
	raw, err := c.complete(ctx, classifyPrompt, message, 0)
	if err != nil {
		return routing.Classification{}, err
	}
	return ParseClassification(raw)
}

// ParseClassification parses a classifier reply. The canonical shape is two
// lines (category, then specialist suggestion when MEDICAL); the legacy
// bare-category shape is accepted as well. An unrecognized category token
// maps to MEDICAL, the safe default. Only a fully empty reply is an error.
func ParseClassification(raw string) (routing.Classification, error) {
	var lines []string
	for _, ln := range strings.Split(raw, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	if len(lines) == 0 {
		return routing.Classification{}, fmt.Errorf("empty classifier reply")
	}

	category := routing.Category(strings.ToUpper(strings.Trim(lines[0], " .:")))
	switch category {
	case routing.CategoryEmergency, routing.CategoryUnclear:
		return routing.Classification{Category: category}, nil
	case routing.CategoryMedical:
	default:
		category = routing.CategoryMedical
	}

	cls := routing.Classification{Category: category}
	if len(lines) >= 2 {
		cls.Suggestion = normalizeSpecialty(lines[1])
	}
	return cls, nil
}

// normalizeSpecialty lowercases a specialist suggestion and joins words
// with underscores ("General Physician" → "general_physician").
func normalizeSpecialty(s string) string {
	s = strings.ToLower(strings.Trim(s, " .:"))
	return strings.Join(strings.Fields(s), "_")
}

// RateSeverity asks for the two severity codes for a message and returns
// the raw reply (e.g. "M2,P0"); parsing belongs to the severity package.
// It satisfies severity.Rater.
func (c *Client) RateSeverity(ctx context.Context, message string) (string, error) {
	return c.complete(ctx, severityPrompt, message, 0)
}
