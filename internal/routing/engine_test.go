package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// stubClassifier returns a fixed result and records invocations.
type stubClassifier struct {
	result Classification
	err    error
	calls  int
}

func (s *stubClassifier) Classify(ctx context.Context, message string) (Classification, error) {
	s.calls++
	return s.result, s.err
}

func newTestEngine(c Classifier) *Engine {
	return NewEngine(c, time.Second, nil)
}

func TestRouteGreetingSkipsEverything(t *testing.T) {
	stub := &stubClassifier{}
	engine := newTestEngine(stub)

	for _, strikes := range []int{0, 1, 2, 3, 99} {
		d := engine.Route(context.Background(), "hello", strikes)
		require.Equal(t, RouteGreeting, d.Route)
		require.False(t, d.StrikesChanged)
		require.Empty(t, d.BlockReason)
	}
	require.Zero(t, stub.calls, "greeting must not reach the classifier")
}

func TestRouteEmptyMessageIsGreeting(t *testing.T) {
	engine := newTestEngine(&stubClassifier{})
	d := engine.Route(context.Background(), "", 0)
	require.Equal(t, RouteGreeting, d.Route)
}

func TestRouteSuspendedUserIsBlocked(t *testing.T) {
	stub := &stubClassifier{}
	engine := newTestEngine(stub)

	d := engine.Route(context.Background(), "I have a bad stomach ache", 3)
	require.Equal(t, RouteBlocked, d.Route)
	require.Equal(t, suspendedMessage, d.BlockReason)
	require.False(t, d.StrikesChanged, "suspension does not add a strike")
	require.Zero(t, stub.calls)
}

func TestRouteScopeViolationAddsStrike(t *testing.T) {
	stub := &stubClassifier{}
	engine := newTestEngine(stub)

	d := engine.Route(context.Background(), "what will the weather be tomorrow", 0)
	require.Equal(t, RouteBlocked, d.Route)
	require.True(t, d.StrikesChanged)
	require.Equal(t, 1, d.UpdatedStrikes)
	require.Contains(t, d.BlockReason, "weather")
	require.Zero(t, stub.calls)
}

func TestRouteScopeViolationWarningMatchesNewCount(t *testing.T) {
	engine := newTestEngine(&stubClassifier{})

	// 1 → 2 strikes: the recomputed warning is the final warning.
	d := engine.Route(context.Background(), "tell me about politics please", 1)
	require.Equal(t, RouteBlocked, d.Route)
	require.Equal(t, 2, d.UpdatedStrikes)
	require.Contains(t, d.BlockReason, finalWarningMessage)
}

// Guardrails run before the emergency scan: a message containing both a
// scope keyword and an emergency keyword is blocked.
func TestRouteGuardrailsPrecedeEmergencyScan(t *testing.T) {
	stub := &stubClassifier{}
	engine := newTestEngine(stub)

	d := engine.Route(context.Background(), "weather stroke", 0)
	require.Equal(t, RouteBlocked, d.Route)
	require.Equal(t, 1, d.UpdatedStrikes)
	require.Zero(t, stub.calls)
}

func TestRouteNegativeStrikesTreatedAsZero(t *testing.T) {
	engine := newTestEngine(&stubClassifier{})
	d := engine.Route(context.Background(), "what will the weather be tomorrow", -5)
	require.Equal(t, RouteBlocked, d.Route)
	require.Equal(t, 1, d.UpdatedStrikes)
}

// Direct intent is trusted before the emergency scan and the classifier.
func TestRouteIntentOverride(t *testing.T) {
	stub := &stubClassifier{}
	engine := newTestEngine(stub)

	d := engine.Route(context.Background(), "I want a doctor", 0)
	require.Equal(t, RouteDoctorHandoff, d.Route)
	require.Empty(t, d.Classification)
	require.Zero(t, stub.calls)
}

func TestRouteEmergencyKeywordSkipsClassifier(t *testing.T) {
	stub := &stubClassifier{err: errors.New("must not be called")}
	engine := newTestEngine(stub)

	d := engine.Route(context.Background(), "I am having chest pain and feel faint", 0)
	require.Equal(t, RouteEmergency, d.Route)
	require.Empty(t, d.Classification, "keyword scan does not involve the classifier")
	require.Zero(t, stub.calls)
}

func TestRouteClassifierMedicalCarriesSuggestion(t *testing.T) {
	stub := &stubClassifier{result: Classification{Category: CategoryMedical, Suggestion: "dermatologist"}}
	engine := newTestEngine(stub)

	d := engine.Route(context.Background(), "my skin is itchy and flaky", 0)
	require.Equal(t, RouteMedical, d.Route)
	require.Equal(t, CategoryMedical, d.Classification)
	require.Equal(t, "dermatologist", d.DoctorSuggestion)
	require.Equal(t, 1, stub.calls)
}

func TestRouteClassifierEmergency(t *testing.T) {
	stub := &stubClassifier{result: Classification{Category: CategoryEmergency}}
	engine := newTestEngine(stub)

	d := engine.Route(context.Background(), "my vision suddenly went dark on one side", 0)
	require.Equal(t, RouteEmergency, d.Route)
	require.Equal(t, CategoryEmergency, d.Classification)
}

func TestRouteClassifierUnclear(t *testing.T) {
	stub := &stubClassifier{result: Classification{Category: CategoryUnclear}}
	engine := newTestEngine(stub)

	d := engine.Route(context.Background(), "what is the capital of France", 0)
	require.Equal(t, RouteUnclear, d.Route)
	require.Equal(t, CategoryUnclear, d.Classification)
}

func TestRouteClassifierFailureDefaultsToMedical(t *testing.T) {
	stub := &stubClassifier{err: errors.New("gateway down")}
	engine := newTestEngine(stub)

	d := engine.Route(context.Background(), "my knee has been aching for a week", 0)
	require.Equal(t, RouteMedical, d.Route)
	require.Empty(t, d.Classification)
	require.Empty(t, d.DoctorSuggestion)
	require.Empty(t, d.BlockReason, "failures never block")
}

func TestRouteUnknownCategoryDefaultsToMedical(t *testing.T) {
	stub := &stubClassifier{result: Classification{Category: "GIBBERISH"}}
	engine := newTestEngine(stub)

	d := engine.Route(context.Background(), "my knee has been aching for a week", 0)
	require.Equal(t, RouteMedical, d.Route)
	require.Empty(t, d.Classification)
}

func TestRouteNilClassifierDefaultsToMedical(t *testing.T) {
	engine := newTestEngine(nil)
	d := engine.Route(context.Background(), "my knee has been aching for a week", 0)
	require.Equal(t, RouteMedical, d.Route)
}

// Identical inputs with a deterministic classifier produce identical
// decisions: the engine holds no hidden mutable state.
func TestRouteIdempotent(t *testing.T) {
	stub := &stubClassifier{result: Classification{Category: CategoryMedical, Suggestion: "cardiologist"}}
	engine := newTestEngine(stub)

	inputs := []struct {
		message string
		strikes int
	}{
		{"hello", 2},
		{"what will the weather be tomorrow", 1},
		{"I want a doctor", 0},
		{"I am having chest pain and feel faint", 0},
		{"my knee has been aching for a week", 0},
	}
	for _, in := range inputs {
		first := engine.Route(context.Background(), in.message, in.strikes)
		second := engine.Route(context.Background(), in.message, in.strikes)
		require.Equal(t, first, second, "message=%q", in.message)
	}
}
