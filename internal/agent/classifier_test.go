package agent

import (
	"testing"

	"github.com/stretchr/testify/require"

	"careflow/internal/routing"
)

func TestParseClassificationTwoLine(t *testing.T) {
	cls, err := ParseClassification("MEDICAL\npediatrician")
	require.NoError(t, err)
	require.Equal(t, routing.CategoryMedical, cls.Category)
	require.Equal(t, "pediatrician", cls.Suggestion)
}

func TestParseClassificationBareCategory(t *testing.T) {
	tests := []struct {
		raw  string
		want routing.Category
	}{
		{"EMERGENCY", routing.CategoryEmergency},
		{"MEDICAL", routing.CategoryMedical},
		{"UNCLEAR", routing.CategoryUnclear},
		{"unclear", routing.CategoryUnclear},
		{"  Medical.  ", routing.CategoryMedical},
	}
	for _, tt := range tests {
		cls, err := ParseClassification(tt.raw)
		require.NoError(t, err, "raw=%q", tt.raw)
		require.Equal(t, tt.want, cls.Category, "raw=%q", tt.raw)
		require.Empty(t, cls.Suggestion, "raw=%q", tt.raw)
	}
}

func TestParseClassificationUnknownCategoryIsMedical(t *testing.T) {
	cls, err := ParseClassification("MAYBE_MEDICAL\ncardiologist")
	require.NoError(t, err)
	require.Equal(t, routing.CategoryMedical, cls.Category)
	require.Equal(t, "cardiologist", cls.Suggestion)
}

func TestParseClassificationNormalizesSpecialty(t *testing.T) {
	cls, err := ParseClassification("MEDICAL\n General Physician ")
	require.NoError(t, err)
	require.Equal(t, "general_physician", cls.Suggestion)
}

func TestParseClassificationSkipsBlankLines(t *testing.T) {
	cls, err := ParseClassification("\n\nMEDICAL\n\n\ndermatologist\n")
	require.NoError(t, err)
	require.Equal(t, routing.CategoryMedical, cls.Category)
	require.Equal(t, "dermatologist", cls.Suggestion)
}

func TestParseClassificationNonMedicalIgnoresSecondLine(t *testing.T) {
	cls, err := ParseClassification("EMERGENCY\ncardiologist")
	require.NoError(t, err)
	require.Equal(t, routing.CategoryEmergency, cls.Category)
	require.Empty(t, cls.Suggestion)
}

func TestParseClassificationEmptyReplyErrors(t *testing.T) {
	_, err := ParseClassification("  \n \n")
	require.Error(t, err)
}

func TestConversationContext(t *testing.T) {
	history := []HistoryMessage{
		{Role: "user", Content: "I have a sore throat"},
		{Role: "assistant", Content: "How long has it lasted?"},
		{Role: "user", Content: ""},
	}
	got := conversationContext(history, "About three days")
	require.Equal(t, "User: I have a sore throat\nAssistant: How long has it lasted?\nUser: About three days", got)

	require.Equal(t, "hello", conversationContext(nil, "hello"))
}
