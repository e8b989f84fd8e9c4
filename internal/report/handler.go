package report

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type EmailReportRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func (h *Handler) HandleEmailReport(w http.ResponseWriter, r *http.Request) {
	var req EmailReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.UserID) == "" || !strings.Contains(req.Email, "@") {
		http.Error(w, "user_id and a valid email are required", http.StatusBadRequest)
		return
	}

	if err := h.svc.EmailHealthReport(r.Context(), req.UserID, req.Email); err != nil {
		http.Error(w, "Report delivery failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "sent"})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/report/email", h.HandleEmailReport)
}
