package routing

// The keyword and phrase tables below are plain data on purpose: they are
// tuned independently of the state machine and the matchers iterate over
// them without any embedded control flow.

// greetingPhrases are exact matches after normalization.
var greetingPhrases = map[string]struct{}{
	"hello":          {},
	"hi":             {},
	"hey":            {},
	"hola":           {},
	"good morning":   {},
	"good afternoon": {},
	"good evening":   {},
	"good night":     {},
	"good day":       {},
	"how are you":    {},
	"how do you do":  {},
	"thanks":         {},
	"thank you":      {},
	"bye":            {},
	"goodbye":        {},
	"good bye":       {},
	"see you":        {},
	"hey there":      {},
	"hi there":       {},
}

// greetingSeeds catch short variants like "hello!" or "thanks a lot" that
// miss the exact set. Only applied to messages of at most
// maxGreetingLength normalized characters.
var greetingSeeds = []string{"hello", "hi", "hey", "thanks", "bye"}

const maxGreetingLength = 25

// nonMedicalTopics trigger the scope guardrail. A hit costs the user an
// abuse strike.
var nonMedicalTopics = []string{
	"weather", "sports", "politics", "recipe", "movie",
	"game", "joke", "story", "homework",
}

// emergencyKeywords are life-threatening terms scanned before any
// classifier call. This list must stay cheap to scan: it is the safety net
// that keeps emergency detection independent of classifier latency.
var emergencyKeywords = []string{
	"stroke", "chest pain", "heart attack", "severe bleeding",
	"unconscious", "not breathing", "seizure", "overdose",
	"can't breathe", "suicidal", "suicide", "severe pain",
}

type intentCategory struct {
	route   Route
	phrases []string
}

// intentCategories map explicit user requests to a handoff route. Order is
// significant: when a message matches phrases in more than one category the
// first category listed here wins. The lists are intentionally broad —
// single words like "doctor" are accepted so an explicit request is never
// missed, at the cost of some ambiguity.
var intentCategories = []intentCategory{
	{RouteDoctorHandoff, []string{
		"doctor", "doctors", "i want a doctor", "i want doctor", "find me a doctor",
		"book a doctor", "need a doctor", "need doctor", "talk to a doctor",
		"see a doctor", "consult a doctor", "doctor please", "find doctor",
		"get doctor", "find me doctor",
	}},
	{RoutePharmacyHandoff, []string{
		"i need medicine", "find a pharmacy", "buy medicine", "need medication",
		"pharmacy near me", "otc medicine", "medicine", "medicines", "pharmacy",
		"pharmacies", "need medicine", "want medicine", "get medicine",
		"buy medication", "find pharmacy", "nearby pharmacy", "medication",
	}},
	{RouteLabHandoff, []string{
		"book a lab test", "i need a blood test", "lab test", "need lab work",
		"diagnostic test", "find a lab", "blood test", "blood work",
		"get a blood test", "want blood test", "need blood test",
		"blood test done", "diagnostic lab", "pathology", "test", "tests",
		"scan", "scans", "diagnosis", "diagnostic",
	}},
	{RouteEmergency, []string{
		"call ambulance", "need ambulance", "call 112", "emergency",
		"i need help now", "someone is dying",
	}},
}
