package workflow

import "strings"

// Intent is the classified purpose of an incoming query.
type Intent int

const (
	// IntentNewResearch starts (or restarts) a research run.
	IntentNewResearch Intent = iota
	// IntentNewPlan asks for the research plan to be regenerated.
	IntentNewPlan
	// IntentFollowUp asks a question against the existing research context.
	IntentFollowUp
)

// IntentClassifier decides what the user wants from the query text alone.
// Implementations may be as simple as keyword matching or as involved as
// an LLM call; the router only consumes the Intent.
type IntentClassifier interface {
	Classify(query string) Intent
}

// KeywordClassifier is the default classifier: a query containing both a
// "change" and a "plan" token (case-insensitive, any order) is a request
// to regenerate the plan. Everything else is left for the router to
// resolve from conversation state.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(query string) Intent {
	q := strings.ToLower(query)
	if strings.Contains(q, "change") && strings.Contains(q, "plan") {
		return IntentNewPlan
	}
	return IntentNewResearch
}

// Router picks the entry step for a turn. It is a pure function of the
// snapshot: plan-change requests always restart planning, otherwise a
// conversation with a completed summary takes the follow-up branch and a
// fresh conversation starts planning.
type Router struct {
	Classifier IntentClassifier
}

func (r Router) Route(st State) string {
	classifier := r.Classifier
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	switch classifier.Classify(st.Query) {
	case IntentNewPlan:
		return StepPlan
	case IntentFollowUp:
		return StepFollowUp
	}
	if strings.TrimSpace(st.Summary) != "" {
		return StepFollowUp
	}
	return StepPlan
}
