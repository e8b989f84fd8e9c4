// Package routing implements the CareFlow triage decision pipeline: a
// fixed sequence of deterministic checks with short-circuit exits, followed
// by a probabilistic classifier as the last resort.
//
// Stage order is a safety contract, not an implementation detail:
//
//	greeting → guardrails → intent override → emergency keywords → classifier
//
// The emergency keyword scan runs before the only network call, so
// emergency detection never depends on classifier latency or availability.
package routing

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Classifier is the external natural-language categorization capability the
// engine invokes when no deterministic check matched.
type Classifier interface {
	Classify(ctx context.Context, message string) (Classification, error)
}

// Engine routes one message to a terminal Decision. It holds only immutable
// keyword tables and a classifier handle; Route is a pure function of
// (message, abuseStrikes) apart from the single outbound classifier call.
// Concurrent use is safe. Callers sharing one strike counter must serialize
// their own read-modify-write cycle.
type Engine struct {
	classifier Classifier
	timeout    time.Duration
	logger     *slog.Logger
}

const defaultClassifyTimeout = 10 * time.Second

// NewEngine constructs a routing engine. A non-positive timeout falls back
// to the default classifier timeout; a nil logger falls back to
// slog.Default.
func NewEngine(classifier Classifier, timeout time.Duration, logger *slog.Logger) *Engine {
	if timeout <= 0 {
		timeout = defaultClassifyTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{classifier: classifier, timeout: timeout, logger: logger}
}

// Route runs the message through the pipeline and returns a terminal
// Decision. It never returns an error: classifier failures degrade to
// RouteMedical, and failures never produce RouteBlocked or RouteEmergency.
func (e *Engine) Route(ctx context.Context, message string, abuseStrikes int) Decision {
	if abuseStrikes < 0 {
		abuseStrikes = 0
	}

	// Stage 1: greeting. Cheapest exit; no strike, no scope check.
	if IsGreeting(message) {
		return Decision{Route: RouteGreeting}
	}

	// Stage 2: guardrails. Strike gate first, then scope. A scope
	// violation costs a strike and the warning is recomputed for the new
	// count.
	if allowed, reason := StrikePolicy(abuseStrikes); !allowed {
		return Decision{Route: RouteBlocked, BlockReason: reason}
	}
	if topic, ok := MatchNonMedicalTopic(message); ok {
		updated := abuseStrikes + 1
		_, warning := StrikePolicy(updated)
		reason := strings.TrimSpace(ScopeMessage(topic) + " " + warning)
		e.logger.Info("scope violation", "topic", topic, "strikes", updated)
		return Decision{
			Route:          RouteBlocked,
			BlockReason:    reason,
			UpdatedStrikes: updated,
			StrikesChanged: true,
		}
	}

	// Stage 3: intent override. An explicit "I need a doctor" is trusted
	// immediately, bypassing both the emergency scan and the classifier.
	if route, ok := MatchIntent(message); ok {
		return Decision{Route: route}
	}

	// Stage 4: emergency keyword scan. Must stay ahead of the classifier.
	if IsEmergency(message) {
		return Decision{Route: RouteEmergency}
	}

	// Stage 5: classifier, the only blocking external call.
	return e.classify(ctx, message)
}

// classify invokes the classifier gateway and maps its category to a
// route. Any failure — unreachable gateway, timeout, unparseable output —
// degrades to RouteMedical with the classification unset: uncertain input
// goes to the human-reviewed path, never to blocked and never dropped.
func (e *Engine) classify(ctx context.Context, message string) Decision {
	if e.classifier == nil {
		return Decision{Route: RouteMedical}
	}

	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	result, err := e.classifier.Classify(cctx, message)
	if err != nil {
		e.logger.Warn("classifier failed, defaulting to medical", "error", err)
		return Decision{Route: RouteMedical}
	}

	switch result.Category {
	case CategoryEmergency:
		return Decision{Route: RouteEmergency, Classification: CategoryEmergency}
	case CategoryUnclear:
		return Decision{Route: RouteUnclear, Classification: CategoryUnclear}
	case CategoryMedical:
		return Decision{
			Route:            RouteMedical,
			Classification:   CategoryMedical,
			DoctorSuggestion: result.Suggestion,
		}
	default:
		// Unknown category is treated like malformed output.
		e.logger.Warn("classifier returned unknown category", "category", string(result.Category))
		return Decision{Route: RouteMedical}
	}
}
