package triage

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"careflow/internal/agent"
	"careflow/internal/platform/places"
)

// Locator finds nearby services for handoff and emergency flows.
type Locator interface {
	Geocode(ctx context.Context, query, region string) (lat, lon float64, err error)
	EmergencyServices(ctx context.Context, lat, lon float64) (ambulances, hospitals []places.Place, err error)
	Doctors(ctx context.Context, lat, lon float64, specialty string, skip, limit int) ([]places.Place, bool, error)
	Pharmacies(ctx context.Context, lat, lon float64, skip, limit int) ([]places.Place, bool, error)
	Labs(ctx context.Context, lat, lon float64, skip, limit int) ([]places.Place, bool, error)
	MentalHealth(ctx context.Context, lat, lon float64, specialty string, skip, limit int) ([]places.Place, bool, error)
}

// Helpline is one crisis helpline shown on the psychological flow.
type Helpline struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

var crisisHelplines = []Helpline{
	{Name: "iCall", Number: "9152987821"},
	{Name: "Vandrevala Foundation", Number: "1860-2662-345"},
}

// Assistant answers general health questions outside the triage flow.
type Assistant interface {
	AssistantReply(ctx context.Context, message string, history []agent.HistoryMessage) string
}

type Handler struct {
	svc       *Service
	locator   Locator
	assistant Assistant
}

func NewHandler(svc *Service, locator Locator, assistant Assistant) *Handler {
	return &Handler{svc: svc, locator: locator, assistant: assistant}
}

type ChatRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type TriageRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type ConfirmRequest struct {
	SessionID string `json:"session_id"`
	Confirmed bool   `json:"confirmed"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	result, err := h.svc.Chat(r.Context(), req.UserID, req.Message)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable.")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleTriage(w http.ResponseWriter, r *http.Request) {
	var req TriageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	result, err := h.svc.Triage(r.Context(), req.UserID, req.Message)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable.")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type AssistantRequest struct {
	Message string                 `json:"message"`
	History []agent.HistoryMessage `json:"history,omitempty"`
}

// HandleAssistant answers a general health question. It sits outside the
// triage flow: no routing, no session accounting.
func (h *Handler) HandleAssistant(w http.ResponseWriter, r *http.Request) {
	var req AssistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if h.assistant == nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "The assistant is unavailable right now. For symptoms or finding care, use the main chat.",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": h.assistant.AssistantReply(r.Context(), req.Message, req.History),
	})
}

func (h *Handler) HandleEmergencyConfirm(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	step, message, ready := h.svc.ConfirmEmergency(req.SessionID, req.Confirmed)
	writeJSON(w, http.StatusOK, map[string]any{
		"step":               step,
		"message":            message,
		"ready_for_services": ready,
	})
}

// resolveCoords reads lat/lon query params, falling back to geocoding the
// q param. ok is false when neither yields a location.
func (h *Handler) resolveCoords(r *http.Request) (lat, lon float64, ok bool) {
	q := r.URL.Query()
	latStr, lonStr := q.Get("lat"), q.Get("lon")
	if latStr != "" && lonStr != "" {
		var err1, err2 error
		lat, err1 = strconv.ParseFloat(latStr, 64)
		lon, err2 = strconv.ParseFloat(lonStr, 64)
		if err1 == nil && err2 == nil {
			return lat, lon, true
		}
	}
	if place := q.Get("q"); place != "" {
		lat, lon, err := h.locator.Geocode(r.Context(), place, "")
		if err == nil {
			return lat, lon, true
		}
	}
	return 0, 0, false
}

func (h *Handler) HandleEmergencyServices(w http.ResponseWriter, r *http.Request) {
	if h.locator == nil {
		writeError(w, http.StatusServiceUnavailable, "Nearby lookups are not configured.")
		return
	}
	lat, lon, ok := h.resolveCoords(r)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"emergency_number": places.EmergencyNumber,
			"ambulances":       []places.Place{},
			"hospitals":        []places.Place{},
			"error":            "Provide lat and lon, or q (e.g. city name).",
		})
		return
	}

	ambulances, hospitals, err := h.locator.EmergencyServices(r.Context(), lat, lon)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Nearby services lookup failed.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"emergency_number": places.EmergencyNumber,
		"ambulances":       ambulances,
		"hospitals":        hospitals,
	})
}

func paging(r *http.Request) (skip, limit int) {
	skip, _ = strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 20 {
		limit = 10
	}
	return skip, limit
}

func (h *Handler) HandleDoctors(w http.ResponseWriter, r *http.Request) {
	if h.locator == nil {
		writeError(w, http.StatusServiceUnavailable, "Nearby lookups are not configured.")
		return
	}
	lat, lon, ok := h.resolveCoords(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Provide lat and lon, or q (e.g. city name).")
		return
	}
	skip, limit := paging(r)

	results, hasMore, err := h.locator.Doctors(r.Context(), lat, lon, r.URL.Query().Get("specialty"), skip, limit)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Nearby doctors lookup failed.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "has_more": hasMore})
}

func (h *Handler) HandlePharmacies(w http.ResponseWriter, r *http.Request) {
	if h.locator == nil {
		writeError(w, http.StatusServiceUnavailable, "Nearby lookups are not configured.")
		return
	}
	lat, lon, ok := h.resolveCoords(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Provide lat and lon, or q (e.g. city name).")
		return
	}
	skip, limit := paging(r)

	results, hasMore, err := h.locator.Pharmacies(r.Context(), lat, lon, skip, limit)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Nearby pharmacies lookup failed.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "has_more": hasMore})
}

func (h *Handler) HandleLabs(w http.ResponseWriter, r *http.Request) {
	if h.locator == nil {
		writeError(w, http.StatusServiceUnavailable, "Nearby lookups are not configured.")
		return
	}
	lat, lon, ok := h.resolveCoords(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Provide lat and lon, or q (e.g. city name).")
		return
	}
	skip, limit := paging(r)

	results, hasMore, err := h.locator.Labs(r.Context(), lat, lon, skip, limit)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Nearby labs lookup failed.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "has_more": hasMore})
}

// HandleCrisisHelplines returns the crisis helpline numbers referenced by
// the psychological replies.
func (h *Handler) HandleCrisisHelplines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"helplines": crisisHelplines})
}

// HandleMentalHealthNearby lists nearby mental-health professionals with
// phone numbers, optionally filtered by specialty (psychologist,
// psychiatrist, counselor, therapist).
func (h *Handler) HandleMentalHealthNearby(w http.ResponseWriter, r *http.Request) {
	if h.locator == nil {
		writeError(w, http.StatusServiceUnavailable, "Nearby lookups are not configured.")
		return
	}
	lat, lon, ok := h.resolveCoords(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Provide lat and lon, or q (e.g. city name).")
		return
	}
	skip, limit := paging(r)

	results, hasMore, err := h.locator.MentalHealth(r.Context(), lat, lon, r.URL.Query().Get("specialty"), skip, limit)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Nearby mental-health lookup failed.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"professionals": results, "has_more": hasMore})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/chat", h.HandleChat)
	r.Post("/triage", h.HandleTriage)
	r.Post("/assistant", h.HandleAssistant)
	r.Post("/emergency/confirm", h.HandleEmergencyConfirm)
	r.Get("/emergency/services", h.HandleEmergencyServices)
	r.Get("/places/doctors", h.HandleDoctors)
	r.Get("/places/pharmacies", h.HandlePharmacies)
	r.Get("/places/labs", h.HandleLabs)
	r.Get("/mental-health/crisis-helplines", h.HandleCrisisHelplines)
	r.Get("/mental-health/nearby", h.HandleMentalHealthNearby)
	r.Get("/health", h.HandleHealth)
}
