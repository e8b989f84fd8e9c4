package agent

import (
	"context"
	"log/slog"
	"strings"
)

// Fixed fallbacks used when the LLM is unavailable. Replies must never be
// empty: a degraded gateway still answers the user.
const (
	unclearFallback = "I can only help with health-related questions—symptoms, finding a doctor, pharmacy, lab, or emergencies. What do you need?"

	assistantFallback = "I can only help with general health information. " +
		"For prescription advice and routing use the main chat."
)

// UnclearReply generates a short, polite redirect for a message the router
// classified as unclear. Any failure or an implausibly long reply falls
// back to fixed text.
func (c *Client) UnclearReply(ctx context.Context, message string) string {
	reply, err := c.complete(ctx, unclearPrompt, message, 0.4)
	if err != nil {
		slog.Debug("unclear-reply generation failed", "error", err)
		return unclearFallback
	}
	reply = strings.TrimSpace(reply)
	if reply == "" || len(reply) >= 200 {
		return unclearFallback
	}
	return reply
}

// HistoryMessage is one prior turn passed to the assistant bot.
type HistoryMessage struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

// AssistantReply answers a general health question, optionally continuing
// from prior turns. OTC-level guidance only; falls back to fixed text when
// the LLM call fails.
func (c *Client) AssistantReply(ctx context.Context, message string, history []HistoryMessage) string {
	message = strings.TrimSpace(message)
	if message == "" {
		return "Please type a health-related question or topic."
	}
	reply, err := c.complete(ctx, assistantPrompt, conversationContext(history, message), 0.4)
	if err != nil {
		slog.Warn("assistant reply failed", "error", err)
		return assistantFallback
	}
	if reply = strings.TrimSpace(reply); reply == "" {
		return assistantFallback
	}
	return reply
}

// conversationContext flattens history plus the latest message into one
// labelled transcript.
func conversationContext(history []HistoryMessage, latest string) string {
	var parts []string
	for _, h := range history {
		content := strings.TrimSpace(h.Content)
		if content == "" {
			continue
		}
		label := "User"
		if strings.EqualFold(h.Role, "assistant") {
			label = "Assistant"
		}
		parts = append(parts, label+": "+content)
	}
	if len(parts) == 0 {
		return latest
	}
	parts = append(parts, "User: "+latest)
	return strings.Join(parts, "\n")
}
