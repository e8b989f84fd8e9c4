package triage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"careflow/internal/agent"
	"careflow/internal/platform/places"
	"careflow/internal/routing"
	"careflow/internal/severity"
)

type stubAssistant struct{ reply string }

type stubLocator struct {
	professionals []places.Place
}

func (s stubLocator) Geocode(_ context.Context, _, _ string) (float64, float64, error) {
	return 12.97, 77.59, nil
}

func (s stubLocator) EmergencyServices(_ context.Context, _, _ float64) ([]places.Place, []places.Place, error) {
	return nil, nil, nil
}

func (s stubLocator) Doctors(_ context.Context, _, _ float64, _ string, _, _ int) ([]places.Place, bool, error) {
	return nil, false, nil
}

func (s stubLocator) Pharmacies(_ context.Context, _, _ float64, _, _ int) ([]places.Place, bool, error) {
	return nil, false, nil
}

func (s stubLocator) Labs(_ context.Context, _, _ float64, _, _ int) ([]places.Place, bool, error) {
	return nil, false, nil
}

func (s stubLocator) MentalHealth(_ context.Context, _, _ float64, _ string, _, _ int) ([]places.Place, bool, error) {
	return s.professionals, false, nil
}

func (s stubAssistant) AssistantReply(_ context.Context, _ string, _ []agent.HistoryMessage) string {
	return s.reply
}

func newTestServer(t *testing.T, assistant Assistant) *httptest.Server {
	return newTestServerWithLocator(t, nil, assistant)
}

func newTestServerWithLocator(t *testing.T, locator Locator, assistant Assistant) *httptest.Server {
	t.Helper()
	svc := newTestService(newMemStore(), routing.Decision{Route: routing.RouteGreeting}, severity.M0, severity.P0, "")
	h := NewHandler(svc, locator, assistant)
	r := chi.NewRouter()
	RegisterRoutes(r, h)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandleChatRequiresUserID(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, _ := postJSON(t, srv.URL+"/chat", `{"message":"hello"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleChatGreeting(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, out := postJSON(t, srv.URL+"/chat", `{"user_id":"anon_abc","message":"hello"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Hi! How can I help you today?", out["message"])
}

func TestHandleAssistantUnavailable(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, out := postJSON(t, srv.URL+"/assistant", `{"message":"what is paracetamol for?"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, out["message"], "unavailable")
}

func TestHandleAssistantReplies(t *testing.T) {
	srv := newTestServer(t, stubAssistant{reply: "Paracetamol relieves pain and fever."})
	resp, out := postJSON(t, srv.URL+"/assistant", `{"message":"what is paracetamol for?"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Paracetamol relieves pain and fever.", out["message"])
}

func TestHandleEmergencyConfirmSteps(t *testing.T) {
	srv := newTestServer(t, nil)

	_, out := postJSON(t, srv.URL+"/emergency/confirm", `{"session_id":"s1","confirmed":true}`)
	require.Equal(t, float64(1), out["step"])
	require.Equal(t, false, out["ready_for_services"])

	postJSON(t, srv.URL+"/emergency/confirm", `{"session_id":"s1","confirmed":true}`)
	_, out = postJSON(t, srv.URL+"/emergency/confirm", `{"session_id":"s1","confirmed":true}`)
	require.Equal(t, float64(3), out["step"])
	require.Equal(t, true, out["ready_for_services"])
}

func TestHandleEmergencyConfirmRequiresSession(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, _ := postJSON(t, srv.URL+"/emergency/confirm", `{"confirmed":true}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleCrisisHelplines(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/mental-health/crisis-helplines")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Helplines []Helpline `json:"helplines"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Helplines, 2)
	require.Equal(t, "iCall", out.Helplines[0].Name)
	require.Equal(t, "9152987821", out.Helplines[0].Number)
}

func TestHandleMentalHealthNearby(t *testing.T) {
	locator := stubLocator{professionals: []places.Place{
		{Name: "Mind Matters Clinic", Phone: "080-1234567"},
	}}
	srv := newTestServerWithLocator(t, locator, nil)

	resp, err := http.Get(srv.URL + "/mental-health/nearby?lat=12.97&lon=77.59")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Professionals []places.Place `json:"professionals"`
		HasMore       bool           `json:"has_more"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Professionals, 1)
	require.Equal(t, "Mind Matters Clinic", out.Professionals[0].Name)
}

func TestHandleMentalHealthNearbyRequiresLocation(t *testing.T) {
	srv := newTestServerWithLocator(t, stubLocator{}, nil)
	resp, err := http.Get(srv.URL + "/mental-health/nearby")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNearbyEndpointsWithoutLocator(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, path := range []string{
		"/emergency/services?q=Hyderabad",
		"/places/doctors?q=Hyderabad",
		"/places/pharmacies?lat=12.97&lon=77.59",
		"/places/labs?q=Hyderabad",
		"/mental-health/nearby?q=Hyderabad",
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err, "path=%s", path)
		resp.Body.Close()
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, "path=%s", path)
	}
}
