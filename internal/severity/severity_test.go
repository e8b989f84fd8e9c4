package severity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRuleScorerTiers(t *testing.T) {
	tests := []struct {
		name    string
		message string
		wantM   Medical
		wantP   Psych
	}{
		{"empty", "", M0, P0},
		{"crisis psych", "I feel suicidal", M1, P3},
		{"moderate psych", "panic attacks every night", M1, P2},
		{"low psych", "work stress is getting to me", M0, P1},
		{"emergency medical", "sudden chest pain", M3, P0},
		{"high medical", "a deep cut on my hand", M2, P0},
		{"moderate medical", "mild fever since morning", M1, P0},
		{"default", "I don't feel quite right lately", M1, P0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, p := RuleScorer{}.Score(context.Background(), tt.message)
			require.Equal(t, tt.wantM, m)
			require.Equal(t, tt.wantP, p)
		})
	}
}

// Crisis psychological keywords win even when the message also matches
// emergency or high medical tiers.
func TestRuleScorerCrisisPrecedence(t *testing.T) {
	m, p := RuleScorer{}.Score(context.Background(), "severe bleeding and I want to die")
	require.Equal(t, M1, m)
	require.Equal(t, P3, p)
}

func TestParseCodes(t *testing.T) {
	tests := []struct {
		raw    string
		wantM  Medical
		wantP  Psych
		wantOK bool
	}{
		{"M2,P0", M2, P0, true},
		{"m1, p2", M1, P2, true},
		{"M3 P1", M3, P1, true},
		{"Severity: M2, psych: P2.", M2, P2, true},
		{"M2", M2, P0, true},
		{"P3", M1, P3, true},
		{"no codes here", M1, P0, false},
		{"", M1, P0, false},
	}
	for _, tt := range tests {
		m, p, ok := ParseCodes(tt.raw)
		require.Equal(t, tt.wantOK, ok, "raw=%q", tt.raw)
		require.Equal(t, tt.wantM, m, "raw=%q", tt.raw)
		require.Equal(t, tt.wantP, p, "raw=%q", tt.raw)
	}
}

type stubRater struct {
	reply string
	err   error
}

func (s stubRater) RateSeverity(ctx context.Context, message string) (string, error) {
	return s.reply, s.err
}

func TestClassifierScorerPrefersRater(t *testing.T) {
	scorer := NewClassifierScorer(stubRater{reply: "M2,P1"}, nil)
	m, p := scorer.Score(context.Background(), "persistent migraine")
	require.Equal(t, M2, m)
	require.Equal(t, P1, p)
}

func TestClassifierScorerFallsBackOnError(t *testing.T) {
	scorer := NewClassifierScorer(stubRater{err: errors.New("down")}, nil)
	m, p := scorer.Score(context.Background(), "sudden chest pain")
	require.Equal(t, M3, m)
	require.Equal(t, P0, p)
}

func TestClassifierScorerFallsBackOnGarbage(t *testing.T) {
	scorer := NewClassifierScorer(stubRater{reply: "sorry, I cannot help"}, nil)
	m, p := scorer.Score(context.Background(), "mild fever since morning")
	require.Equal(t, M1, m)
	require.Equal(t, P0, p)
}

func TestClassifierScorerNilRaterUsesRules(t *testing.T) {
	scorer := NewClassifierScorer(nil, nil)
	m, p := scorer.Score(context.Background(), "a deep cut on my hand")
	require.Equal(t, M2, m)
	require.Equal(t, P0, p)
}

func TestClassifierScorerEmptyMessage(t *testing.T) {
	scorer := NewClassifierScorer(stubRater{reply: "M3,P3"}, nil)
	m, p := scorer.Score(context.Background(), "   ")
	require.Equal(t, M0, m)
	require.Equal(t, P0, p)
}
