package routing

import (
	"fmt"
	"strings"
	"unicode"
)

// Lexical matchers: pure functions over message text. No I/O, no state.

// Strike policy texts. A scope violation increments the count; three
// violations suspend the account.
const (
	suspendedMessage    = "Your account has been suspended due to repeated non-medical queries."
	finalWarningMessage = "Final warning: One more non-medical query will suspend your account."
	mildWarningMessage  = "Please keep questions medical-related."
)

// normalizeGreeting lowercases the message, strips punctuation and
// collapses surrounding whitespace.
func normalizeGreeting(message string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(message) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// IsGreeting reports whether the message is only a greeting or small talk.
// Empty messages count as greetings. The check is intentionally permissive:
// greetings must never reach the classifier or cost an abuse strike.
func IsGreeting(message string) bool {
	normalized := normalizeGreeting(message)
	if normalized == "" {
		return true
	}
	if _, ok := greetingPhrases[normalized]; ok {
		return true
	}
	if len(normalized) <= maxGreetingLength {
		for _, seed := range greetingSeeds {
			if strings.Contains(normalized, seed) {
				return true
			}
		}
	}
	return false
}

// MatchNonMedicalTopic returns the first out-of-scope topic found in the
// message, if any.
func MatchNonMedicalTopic(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, topic := range nonMedicalTopics {
		if strings.Contains(lower, topic) {
			return topic, true
		}
	}
	return "", false
}

// ScopeMessage is the templated rejection for an out-of-scope message,
// naming the matched topic.
func ScopeMessage(topic string) string {
	return fmt.Sprintf("CareFlow is a medical-only platform. I can't help with %s-related questions.", topic)
}

// StrikePolicy evaluates the abuse-strike count. It returns whether the
// user may interact and the warning text for the current count. Negative
// counts are treated as zero.
func StrikePolicy(strikes int) (allowed bool, message string) {
	switch {
	case strikes >= 3:
		return false, suspendedMessage
	case strikes == 2:
		return true, finalWarningMessage
	case strikes == 1:
		return true, mildWarningMessage
	default:
		return true, ""
	}
}

// IsEmergency reports whether the message contains a life-threatening
// keyword.
func IsEmergency(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range emergencyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// MatchIntent checks the message against the direct-intent phrase lists and
// returns the handoff route for the first matching category. Category order
// is fixed (doctor, pharmacy, lab, emergency) so ties break
// deterministically.
func MatchIntent(message string) (Route, bool) {
	lower := strings.ToLower(message)
	for _, cat := range intentCategories {
		for _, phrase := range cat.phrases {
			if strings.Contains(lower, phrase) {
				return cat.route, true
			}
		}
	}
	return "", false
}
