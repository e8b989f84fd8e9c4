package triage

import (
	"strings"

	"careflow/internal/routing"
	"careflow/internal/severity"
)

// Client actions attached to replies. The frontend opens the matching
// panel (nearby lists, crisis resources) when one is present.
const (
	ActionEmergencyServices = "emergency_services"
	ActionDoctors           = "doctors"
	ActionPharmacy          = "pharmacy"
	ActionLabs              = "labs"
	ActionPsychological     = "psychological"
)

const unclearFallbackMessage = "I can only help with health-related questions. Tell me about a symptom or what you need (e.g. doctor, pharmacy, lab)."

// routeAction maps a route to the triage recommended_action label.
func routeAction(route routing.Route) string {
	switch route {
	case routing.RouteEmergency:
		return "emergency"
	case routing.RouteDoctorHandoff:
		return "doctor_handoff"
	case routing.RoutePharmacyHandoff:
		return "pharmacy_handoff"
	case routing.RouteLabHandoff:
		return "lab_handoff"
	case routing.RouteBlocked:
		return "blocked"
	case routing.RouteUnclear:
		return "unclear"
	default:
		return "medical"
	}
}

var specialtyLabels = map[string]string{
	"general_physician": "a general physician",
	"pediatrician":      "a pediatrician",
	"dermatologist":     "a dermatologist",
	"cardiologist":      "a cardiologist",
	"psychiatrist":      "a psychiatrist",
	"orthopedic":        "an orthopedic specialist",
	"dentist":           "a dentist",
	"gynecologist":      "a gynecologist",
}

// doctorLabel renders a specialty slug as a readable phrase with the
// right article: "pediatrician" -> "a pediatrician".
func doctorLabel(specialty string) string {
	if specialty == "" {
		return "a doctor"
	}
	if label, ok := specialtyLabels[specialty]; ok {
		return label
	}
	p := strings.TrimSpace(strings.ReplaceAll(specialty, "_", " "))
	if p == "" {
		return "a doctor"
	}
	article := "a"
	if strings.ContainsRune("aeiou", rune(p[0])) {
		article = "an"
	}
	return article + " " + p
}

// otcSuggestion returns a conservative over-the-counter suggestion for
// common mild symptoms: generic options and label-following, no dosing.
func otcSuggestion(message string) string {
	msg := strings.ToLower(message)

	for _, k := range []string{"cold", "runny nose", "stuffy nose", "congestion", "sore throat"} {
		if strings.Contains(msg, k) {
			return "For a typical cold, OTC options include acetaminophen/paracetamol for fever or aches, " +
				"saline nasal spray, and throat lozenges. Follow the label and seek care if symptoms are severe or persist"
		}
	}
	if strings.Contains(msg, "headache") || strings.Contains(msg, "head ache") {
		return "For a mild headache, OTC options include acetaminophen/paracetamol. Follow the label and seek care if severe or persistent"
	}
	return ""
}

func limitReachedMessage(limit int) string {
	if limit <= 6 {
		return "You've used your 6 free messages. Sign in to get 20 messages."
	}
	return "You've reached the message limit for this session. Sign in for more messages."
}

// replyFor builds the user-facing message and client action for a routed
// message. Severity and internal labels never leak into the text.
func replyFor(userMessage string, route routing.Route, med severity.Medical, psych severity.Psych, blockReason, doctorSpecialty string, otcAllowed bool) (msg, action string, usedOTC bool) {
	switch route {
	case routing.RouteGreeting:
		return "Hi! How can I help you today?", "", false

	case routing.RouteBlocked:
		if blockReason == "" {
			blockReason = "I can only help with health-related questions. Please ask about doctors, pharmacy, labs, or emergencies."
		}
		return blockReason, "", false

	case routing.RouteEmergency:
		return "Opening nearby emergency services.", ActionEmergencyServices, false

	case routing.RouteDoctorHandoff:
		return "I can help you find " + doctorLabel(doctorSpecialty) + ". Share your location to see nearby options.", ActionDoctors, false

	case routing.RoutePharmacyHandoff:
		if otcAllowed {
			if otc := otcSuggestion(userMessage); otc != "" {
				return otc + ". If you'd like, I can help you find a pharmacy nearby. Share your location.", ActionPharmacy, true
			}
		}
		return "I can help you find a pharmacy. Share your location for nearby pharmacies.", ActionPharmacy, false

	case routing.RouteLabHandoff:
		return "I can help you with lab tests. Share your location to find nearby labs.", ActionLabs, false

	case routing.RouteUnclear:
		return unclearFallbackMessage, "", false

	case routing.RouteMedical:
		if med == severity.M3 {
			return "Opening nearby emergency services.", ActionEmergencyServices, false
		}
		if med == severity.M1 && otcAllowed {
			if otc := otcSuggestion(userMessage); otc != "" {
				return otc + ". If you'd like, I can help you find a pharmacy nearby. Share your location.", ActionPharmacy, true
			}
		}
		if psych == severity.P3 {
			return "If you're in crisis, please reach out to a helpline. Open the link below to see numbers and find mental health support.", ActionPsychological, false
		}
		if psych == severity.P1 || psych == severity.P2 {
			return "Based on what you've shared, I recommend speaking with a mental health professional. " +
				"I can help you find a psychologist, psychiatrist, or counselor nearby, or show you crisis helpline numbers.", ActionPsychological, false
		}
		return "Based on what you've described, I recommend speaking with " + doctorLabel(doctorSpecialty) +
			". I can help you find one nearby if you share your location.", ActionDoctors, false
	}
	return "How can I help you today?", "", false
}
