package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"careflow/internal/platform/pubmed"
	"careflow/internal/severity"
)

func TestDropDisclaimer(t *testing.T) {
	in := "Possible causes: tension headache. This is not medical advice. Urgency: low."
	out := dropDisclaimer(in)
	require.NotContains(t, strings.ToLower(out), "not medical advice")
	require.Contains(t, out, "tension headache")
	require.Contains(t, out, "Urgency: low")
}

func TestDropDisclaimerNoop(t *testing.T) {
	in := "Possible causes: viral infection. Urgency: low."
	require.Equal(t, in, dropDisclaimer(in))
}

func TestTruncateBytesRuneBoundary(t *testing.T) {
	require.Equal(t, "a", truncateBytes("aé", 2))
	require.Equal(t, "aé", truncateBytes("aé", 3))
	require.Equal(t, "abc", truncateBytes("abc", 10))
}

func TestTruncateWords(t *testing.T) {
	require.Equal(t, "a b c", truncateWords("a b c", 5))
	require.Equal(t, "a b", truncateWords("a b c d", 2))
	require.Equal(t, "", truncateWords("", 3))
}

func TestFallbackReplyBySeverity(t *testing.T) {
	require.Contains(t, fallbackReply(severity.M3), "Urgency: High")
	require.Contains(t, fallbackReply(severity.M1), "Urgency: Low")
}

func TestGroundedReplyInput(t *testing.T) {
	abstracts := []pubmed.Article{
		{Title: "A", Abstract: "first abstract"},
		{Title: "B", Abstract: ""},
		{Title: "C", Abstract: "second abstract"},
	}
	got := groundedReplyInput("headache for two days", abstracts)
	require.Contains(t, got, "Symptoms: headache for two days")
	require.Contains(t, got, "[A] first abstract")
	require.Contains(t, got, "[C] second abstract")
	require.NotContains(t, got, "[B]")

	empty := groundedReplyInput("headache", nil)
	require.Contains(t, empty, "(No abstracts retrieved.)")
}
