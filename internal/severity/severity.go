// Package severity scores a message on two ordinal scales: medical urgency
// (M0–M3) and psychological urgency (P0–P3). Scoring is independent of
// routing; the orchestrator uses it to refine the user-facing reply after
// the routing engine has decided the flow.
package severity

import (
	"context"
	"log/slog"
	"strings"
)

// Medical severity: M0 no concern, M1 low/self-care, M2 moderate/doctor
// recommended, M3 high/emergency.
type Medical string

const (
	M0 Medical = "M0"
	M1 Medical = "M1"
	M2 Medical = "M2"
	M3 Medical = "M3"
)

// Psych severity: P0 no concern, P1 low, P2 moderate/therapist helpful,
// P3 crisis/immediate helpline.
type Psych string

const (
	P0 Psych = "P0"
	P1 Psych = "P1"
	P2 Psych = "P2"
	P3 Psych = "P3"
)

// Scorer produces a severity pair for a message. Implementations never
// fail: scoring degrades rather than erroring.
type Scorer interface {
	Score(ctx context.Context, message string) (Medical, Psych)
}

// Keyword tiers for the rule-based scorer, checked in order. Crisis
// psychological keywords take absolute precedence over all medical tiers.
var (
	crisisPsychKeywords = []string{
		"suicidal", "suicide", "self-harm", "end my life", "want to die",
	}
	moderatePsychKeywords = []string{
		"anxiety", "panic", "depressed", "insomnia", "overwhelmed",
	}
	lowPsychKeywords = []string{
		"stress", "tired", "sleep", "worried", "mood",
	}
	emergencyMedicalKeywords = []string{
		"stroke", "chest pain", "heart attack", "severe bleeding",
		"unconscious", "not breathing", "seizure", "overdose",
		"can't breathe", "suicidal", "suicide", "severe pain",
	}
	highMedicalKeywords = []string{
		"severe", "critical", "intense pain", "high fever", "vomiting blood",
		"allergic reaction", "broken bone", "deep cut", "burn",
	}
	moderateMedicalKeywords = []string{
		"fever", "cough", "headache", "stomach", "rash", "infection",
		"pain", "dizzy", "nausea", "cold", "flu",
	}
)

// RuleScorer is the deterministic fallback scorer: ordered keyword tiers,
// no I/O.
type RuleScorer struct{}

// Score evaluates the keyword tiers. An empty message scores (M0, P0);
// a message matching nothing defaults to (M1, P0).
func (RuleScorer) Score(_ context.Context, message string) (Medical, Psych) {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return M0, P0
	}

	for _, kw := range crisisPsychKeywords {
		if strings.Contains(msg, kw) {
			return M1, P3
		}
	}
	for _, kw := range moderatePsychKeywords {
		if strings.Contains(msg, kw) {
			return M1, P2
		}
	}
	for _, kw := range lowPsychKeywords {
		if strings.Contains(msg, kw) {
			return M0, P1
		}
	}
	for _, kw := range emergencyMedicalKeywords {
		if strings.Contains(msg, kw) {
			return M3, P0
		}
	}
	for _, kw := range highMedicalKeywords {
		if strings.Contains(msg, kw) {
			return M2, P0
		}
	}
	for _, kw := range moderateMedicalKeywords {
		if strings.Contains(msg, kw) {
			return M1, P0
		}
	}
	return M1, P0
}

// Rater is the classifier-backed severity capability: one short LLM call
// that replies with two codes, e.g. "M2,P0".
type Rater interface {
	RateSeverity(ctx context.Context, message string) (string, error)
}

// ClassifierScorer prefers the classifier-backed rater and falls back to
// the rule scorer on any failure or unparseable reply.
type ClassifierScorer struct {
	rater  Rater
	rules  RuleScorer
	logger *slog.Logger
}

// NewClassifierScorer wraps a rater. A nil rater makes the scorer purely
// rule-based.
func NewClassifierScorer(rater Rater, logger *slog.Logger) *ClassifierScorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassifierScorer{rater: rater, logger: logger}
}

func (s *ClassifierScorer) Score(ctx context.Context, message string) (Medical, Psych) {
	if strings.TrimSpace(message) == "" {
		return M0, P0
	}
	if s.rater == nil {
		return s.rules.Score(ctx, message)
	}
	raw, err := s.rater.RateSeverity(ctx, message)
	if err != nil {
		s.logger.Warn("severity rater failed, using rule scorer", "error", err)
		return s.rules.Score(ctx, message)
	}
	m, p, ok := ParseCodes(raw)
	if !ok {
		s.logger.Warn("severity rater reply unparseable, using rule scorer", "reply", raw)
		return s.rules.Score(ctx, message)
	}
	return m, p
}

// ParseCodes extracts the first medical and psychological codes from a
// rater reply. Tolerates commas, extra whitespace and surrounding text;
// reports ok=false when neither code is present.
func ParseCodes(raw string) (Medical, Psych, bool) {
	m, p := M1, P0
	foundM, foundP := false, false
	fields := strings.FieldsFunc(strings.ToUpper(raw), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t' || r == '.'
	})
	for _, f := range fields {
		switch f {
		case "M0", "M1", "M2", "M3":
			if !foundM {
				m, foundM = Medical(f), true
			}
		case "P0", "P1", "P2", "P3":
			if !foundP {
				p, foundP = Psych(f), true
			}
		}
	}
	return m, p, foundM || foundP
}
