package agent

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"careflow/internal/platform/pubmed"
	"careflow/internal/severity"
)

// AbstractSearcher retrieves publications that ground the medical reply.
type AbstractSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]pubmed.Article, error)
}

// Pipeline produces the educational reply for messages routed to the
// medical flow: retrieve a few relevant abstracts, then ask the LLM for a
// short answer grounded in them. Every step has a safe fallback; the
// pipeline never fails the request.
type Pipeline struct {
	llm    *Client
	search AbstractSearcher
	logger *slog.Logger
}

const (
	maxSymptomsLength = 2000
	maxReplyWords     = 80
	abstractCount     = 3
)

// NewPipeline constructs the medical reply pipeline. A nil searcher skips
// retrieval and the reply is generated from the symptoms alone.
func NewPipeline(llm *Client, search AbstractSearcher, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{llm: llm, search: search, logger: logger}
}

// Reply generates the medical-flow answer for the given symptoms. The
// severity is the already-computed medical code; it only selects the
// fallback text when generation fails.
func (p *Pipeline) Reply(ctx context.Context, symptoms string, sev severity.Medical) string {
	symptoms = truncateBytes(strings.TrimSpace(symptoms), maxSymptomsLength)
	if symptoms == "" || p.llm == nil {
		return fallbackReply(sev)
	}

	var abstracts []pubmed.Article
	if p.search != nil {
		var err error
		abstracts, err = p.search.Search(ctx, symptoms, abstractCount)
		if err != nil {
			p.logger.Warn("abstract retrieval failed", "error", err)
		}
	}

	reply, err := p.llm.complete(ctx, groundedReplyPrompt, groundedReplyInput(symptoms, abstracts), 0.2)
	if err != nil {
		p.logger.Warn("grounded reply failed", "error", err)
		return fallbackReply(sev)
	}
	reply = truncateWords(dropDisclaimer(strings.TrimSpace(reply)), maxReplyWords)
	if reply == "" {
		return fallbackReply(sev)
	}
	return reply
}

func groundedReplyInput(symptoms string, abstracts []pubmed.Article) string {
	var blocks []string
	for _, a := range abstracts {
		if a.Abstract == "" {
			continue
		}
		blocks = append(blocks, strings.TrimSpace("["+a.Title+"] "+a.Abstract))
	}
	research := "(No abstracts retrieved.)"
	if len(blocks) > 0 {
		research = strings.Join(blocks, "\n\n")
	}
	return "Symptoms: " + symptoms + "\n\nResearch section above:\n" + research +
		"\n\nYour reply (60–80 words, grounded in the research):"
}

// dropDisclaimer removes boilerplate disclaimer phrases the model
// sometimes appends despite the prompt.
func dropDisclaimer(text string) string {
	for _, phrase := range []string{
		"for educational purposes only",
		"not a substitute for professional medical advice",
		"not medical advice",
	} {
		idx := strings.Index(strings.ToLower(text), phrase)
		if idx == -1 {
			continue
		}
		before := strings.TrimRight(strings.TrimSpace(text[:idx]), ".;")
		after := strings.TrimLeft(strings.TrimSpace(text[idx+len(phrase):]), ".; ")
		text = strings.TrimSpace(before + " " + after)
	}
	return strings.TrimSpace(text)
}

// truncateBytes cuts s to at most max bytes without splitting a
// multibyte rune.
func truncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func truncateWords(text string, max int) string {
	words := strings.Fields(text)
	if len(words) <= max {
		return text
	}
	return strings.Join(words[:max], " ")
}

func fallbackReply(sev severity.Medical) string {
	if sev == severity.M3 {
		return "Possible causes: Needs assessment. Urgency: High. See doctor or emergency services now."
	}
	return "Possible causes: Unclear. Urgency: Low. Consider speaking with a doctor for evaluation."
}
