package routing

// Route is the categorical outcome of the routing engine for one message.
type Route string

const (
	RouteGreeting        Route = "greeting"
	RouteBlocked         Route = "blocked"
	RouteEmergency       Route = "emergency"
	RouteDoctorHandoff   Route = "doctor_handoff"
	RoutePharmacyHandoff Route = "pharmacy_handoff"
	RouteLabHandoff      Route = "lab_handoff"
	RouteMedical         Route = "medical"
	RouteUnclear         Route = "unclear"
)

// Category is what the external classifier returned for a message.
type Category string

const (
	CategoryEmergency Category = "EMERGENCY"
	CategoryMedical   Category = "MEDICAL"
	CategoryUnclear   Category = "UNCLEAR"
)

// Classification is the classifier gateway's output: a category, and for
// MEDICAL an optional specialist suggestion (e.g. "pediatrician").
type Classification struct {
	Category   Category `json:"category"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Decision is the terminal result of routing one message.
//
// Exactly one route is set. BlockReason is present only when Route is
// RouteBlocked. UpdatedStrikes carries the new abuse-strike count and is
// meaningful only when StrikesChanged is true (a scope violation was
// recorded); the caller is responsible for persisting it. Classification is
// set only when the classifier was actually invoked, and DoctorSuggestion
// only when the classifier produced one for a medical message.
type Decision struct {
	Route            Route    `json:"route"`
	BlockReason      string   `json:"block_reason,omitempty"`
	UpdatedStrikes   int      `json:"updated_strikes,omitempty"`
	StrikesChanged   bool     `json:"strikes_changed,omitempty"`
	Classification   Category `json:"classification,omitempty"`
	DoctorSuggestion string   `json:"doctor_suggestion,omitempty"`
}
