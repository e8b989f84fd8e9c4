package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"careflow/internal/routing"
	"careflow/internal/session"
	"careflow/internal/severity"
)

// anonPrefix marks device-scoped guest identities, which get the tighter
// anonymous message limit.
const anonPrefix = "anon_"

// Router decides where a message goes before any reply is generated.
type Router interface {
	Route(ctx context.Context, message string, abuseStrikes int) routing.Decision
}

// Replier generates the short redirect for off-topic or unclear input.
type Replier interface {
	UnclearReply(ctx context.Context, message string) string
}

// PipelineRunner produces the grounded educational reply for the medical
// flow. It must not fail; implementations fall back internally.
type PipelineRunner interface {
	Reply(ctx context.Context, symptoms string, sev severity.Medical) string
}

// Store is the session-state persistence the orchestrator needs.
type Store interface {
	EnsureUser(ctx context.Context, userID string) (*session.User, error)
	SetUserStrikes(ctx context.Context, userID string, strikes int) error
	GetOrCreateSession(ctx context.Context, userID string, limits session.Limits) (*session.Session, error)
	TouchSession(ctx context.Context, sessionID uuid.UUID) (int, error)
	IncrementOTCAttempts(ctx context.Context, userID string) (int, error)
	RecordEvent(ctx context.Context, userID string, kind session.EventType, description string) error
}

// Limits bound conversation usage per user class.
type Limits struct {
	Session              session.Limits
	MaxMessagesAnonymous int
	MaxMessagesLoggedIn  int
	MaxOTCAttempts       int
}

type Service struct {
	router   Router
	scorer   severity.Scorer
	replier  Replier
	pipeline PipelineRunner
	store    Store
	limits   Limits
	logger   *slog.Logger

	mu             sync.Mutex
	emergencySteps map[string]int
}

func NewService(router Router, scorer severity.Scorer, replier Replier, pipeline PipelineRunner, store Store, limits Limits, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		router:         router,
		scorer:         scorer,
		replier:        replier,
		pipeline:       pipeline,
		store:          store,
		limits:         limits,
		logger:         logger,
		emergencySteps: make(map[string]int),
	}
}

// ChatResult is the conversational reply: a user-facing message plus an
// optional client action. Severity and route labels are never exposed.
type ChatResult struct {
	Message          string `json:"message"`
	Action           string `json:"action,omitempty"`
	DoctorSpecialty  string `json:"doctor_specialty,omitempty"`
	SessionID        string `json:"session_id"`
	RemainingPrompts *int   `json:"remaining_prompts"`
}

// TriageResult is the structured assessment for clinical consumers:
// severity codes and a recommended action alongside the message.
type TriageResult struct {
	SessionID             string `json:"session_id"`
	SeverityMedical       string `json:"severity_medical"`
	SeverityPsychological string `json:"severity_psychological"`
	RecommendedAction     string `json:"recommended_action"`
	Message               string `json:"message"`
}

func (s *Service) messageLimit(userID string, u *session.User) int {
	if strings.HasPrefix(userID, anonPrefix) {
		return s.limits.MaxMessagesAnonymous
	}
	if u != nil && u.Email != "" {
		return s.limits.MaxMessagesLoggedIn
	}
	return s.limits.MaxMessagesAnonymous
}

func (s *Service) otcAllowed(u *session.User) bool {
	if u == nil || u.OTCPrivilege == session.OTCRevoked {
		return false
	}
	return s.limits.MaxOTCAttempts <= 0 || u.OTCAttemptsUsed < s.limits.MaxOTCAttempts
}

// Chat handles one conversational turn: session gating, routing, severity
// scoring, and reply generation.
func (s *Service) Chat(ctx context.Context, userID, message string) (ChatResult, error) {
	user, err := s.store.EnsureUser(ctx, userID)
	if err != nil {
		return ChatResult{}, fmt.Errorf("load user: %w", err)
	}
	limit := s.messageLimit(userID, user)

	sess, err := s.store.GetOrCreateSession(ctx, userID, s.limits.Session)
	if errors.Is(err, session.ErrSessionLimit) {
		return ChatResult{
			Message:   "Maximum sessions per day reached. Please try again tomorrow.",
			SessionID: "none",
		}, nil
	}
	if err != nil {
		return ChatResult{}, fmt.Errorf("open session: %w", err)
	}
	if sess.MessageCount >= limit {
		zero := 0
		return ChatResult{
			Message:          limitReachedMessage(limit),
			SessionID:        sess.ID.String(),
			RemainingPrompts: &zero,
		}, nil
	}

	d := s.router.Route(ctx, message, user.AbuseStrikes)

	if d.Route == routing.RouteBlocked {
		if d.StrikesChanged {
			if err := s.store.SetUserStrikes(ctx, userID, d.UpdatedStrikes); err != nil {
				s.logger.Error("persist strikes failed", "user_id", userID, "error", err)
			}
		}
		msg, _, _ := replyFor(message, d.Route, severity.M0, severity.P0, d.BlockReason, "", false)
		remaining := limit - sess.MessageCount
		return ChatResult{
			Message:          msg,
			SessionID:        sess.ID.String(),
			RemainingPrompts: &remaining,
		}, nil
	}

	count, err := s.store.TouchSession(ctx, sess.ID)
	if err != nil {
		return ChatResult{}, fmt.Errorf("touch session: %w", err)
	}
	remaining := limit - count

	if d.Route == routing.RouteUnclear {
		msg := unclearFallbackMessage
		if s.replier != nil {
			msg = s.replier.UnclearReply(ctx, message)
		}
		return ChatResult{
			Message:          msg,
			SessionID:        sess.ID.String(),
			RemainingPrompts: &remaining,
		}, nil
	}

	med, psych := severity.M1, severity.P0
	if d.Route == routing.RouteMedical {
		med, psych = s.scorer.Score(ctx, message)
	}

	msg, action, usedOTC := replyFor(message, d.Route, med, psych, d.BlockReason, d.DoctorSuggestion, s.otcAllowed(user))

	if d.Route == routing.RouteMedical && action != ActionEmergencyServices && s.pipeline != nil {
		generated := s.pipeline.Reply(ctx, message, med)
		if generated != "" {
			if action == ActionDoctors && !strings.Contains(strings.ToLower(generated), "nearby") {
				generated = strings.TrimRight(generated, " ") + " I can help you find a doctor nearby if you share your location."
			}
			msg = generated
		}
	}

	s.recordTurn(ctx, userID, message, d, med, psych, usedOTC)

	specialty := ""
	if action == ActionDoctors {
		specialty = d.DoctorSuggestion
	}
	return ChatResult{
		Message:          msg,
		Action:           action,
		DoctorSpecialty:  specialty,
		SessionID:        sess.ID.String(),
		RemainingPrompts: &remaining,
	}, nil
}

// Triage handles one structured assessment turn for clinical consumers.
func (s *Service) Triage(ctx context.Context, userID, message string) (TriageResult, error) {
	user, err := s.store.EnsureUser(ctx, userID)
	if err != nil {
		return TriageResult{}, fmt.Errorf("load user: %w", err)
	}
	limit := s.messageLimit(userID, user)

	sess, err := s.store.GetOrCreateSession(ctx, userID, s.limits.Session)
	if errors.Is(err, session.ErrSessionLimit) {
		return TriageResult{
			SessionID:             "none",
			SeverityMedical:       string(severity.M0),
			SeverityPsychological: string(severity.P0),
			RecommendedAction:     "blocked",
			Message:               "Maximum sessions per day reached. Please try again tomorrow.",
		}, nil
	}
	if err != nil {
		return TriageResult{}, fmt.Errorf("open session: %w", err)
	}
	if sess.MessageCount >= limit {
		return TriageResult{
			SessionID:             sess.ID.String(),
			SeverityMedical:       string(severity.M0),
			SeverityPsychological: string(severity.P0),
			RecommendedAction:     "blocked",
			Message:               limitReachedMessage(limit),
		}, nil
	}

	d := s.router.Route(ctx, message, user.AbuseStrikes)

	if d.Route == routing.RouteBlocked {
		if d.StrikesChanged {
			if err := s.store.SetUserStrikes(ctx, userID, d.UpdatedStrikes); err != nil {
				s.logger.Error("persist strikes failed", "user_id", userID, "error", err)
			}
		}
		msg := d.BlockReason
		if msg == "" {
			msg = "Request blocked."
		}
		return TriageResult{
			SessionID:             sess.ID.String(),
			SeverityMedical:       string(severity.M0),
			SeverityPsychological: string(severity.P0),
			RecommendedAction:     "blocked",
			Message:               msg,
		}, nil
	}

	if _, err := s.store.TouchSession(ctx, sess.ID); err != nil {
		return TriageResult{}, fmt.Errorf("touch session: %w", err)
	}

	if d.Route == routing.RouteUnclear {
		return TriageResult{
			SessionID:             sess.ID.String(),
			SeverityMedical:       string(severity.M0),
			SeverityPsychological: string(severity.P0),
			RecommendedAction:     "unclear",
			Message:               unclearFallbackMessage,
		}, nil
	}

	action := routeAction(d.Route)
	med, psych := severity.M1, severity.P0
	if d.Route == routing.RouteMedical {
		med, psych = s.scorer.Score(ctx, message)
		if med == severity.M3 {
			action = "emergency"
		} else {
			action = "doctor_handoff"
		}
	}

	s.recordTurn(ctx, userID, message, d, med, psych, false)

	return TriageResult{
		SessionID:             sess.ID.String(),
		SeverityMedical:       string(med),
		SeverityPsychological: string(psych),
		RecommendedAction:     action,
		Message:               "Routed to " + action + ".",
	}, nil
}

// recordTurn appends health-timeline events for this turn. Failures are
// logged and never surface to the user.
func (s *Service) recordTurn(ctx context.Context, userID, message string, d routing.Decision, med severity.Medical, psych severity.Psych, usedOTC bool) {
	record := func(kind session.EventType, description string) {
		if err := s.store.RecordEvent(ctx, userID, kind, description); err != nil {
			s.logger.Error("record health event failed", "user_id", userID, "type", string(kind), "error", err)
		}
	}

	switch {
	case d.Route == routing.RouteEmergency || (d.Route == routing.RouteMedical && med == severity.M3):
		record(session.EventEmergency, message)
	case d.Route == routing.RouteMedical && (psych == severity.P2 || psych == severity.P3):
		record(session.EventMood, message)
	case d.Route == routing.RouteMedical:
		record(session.EventSymptom, message)
	case d.Route == routing.RouteDoctorHandoff:
		record(session.EventDoctorVisit, "Requested doctor handoff")
	case d.Route == routing.RouteLabHandoff:
		record(session.EventLab, "Requested lab handoff")
	}

	if usedOTC {
		if _, err := s.store.IncrementOTCAttempts(ctx, userID); err != nil {
			s.logger.Error("increment otc attempts failed", "user_id", userID, "error", err)
		}
		record(session.EventOTC, message)
	}
}

// ConfirmEmergency advances the 3-step emergency confirmation for a
// session. Ready reports that the caller should fetch nearby services.
func (s *Service) ConfirmEmergency(sessionID string, confirmed bool) (step int, message string, ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !confirmed {
		s.emergencySteps[sessionID] = 0
		return 0, "Emergency flow cancelled. If you're safe, you can describe your symptoms for triage.", false
	}

	step = s.emergencySteps[sessionID] + 1
	s.emergencySteps[sessionID] = step
	switch {
	case step == 1:
		return 1, "Are you or someone else currently experiencing a life-threatening emergency (e.g. chest pain, stroke, severe bleeding, difficulty breathing)? Reply yes to continue.", false
	case step == 2:
		return 2, "Please confirm: you need emergency services now. Reply yes to see emergency numbers and nearby help.", false
	default:
		delete(s.emergencySteps, sessionID)
		return 3, "Please share your location to see nearby emergency services.", true
	}
}
