package workflow

import "testing"

func TestRouterPlanChangeBeatsSummary(t *testing.T) {
	r := Router{Classifier: KeywordClassifier{}}

	cases := []string{
		"change the plan please",
		"Please CHANGE the PLAN",
		"I want my plan to change",
	}
	for _, q := range cases {
		st := State{Query: q, Summary: "previous research summary"}
		if got := r.Route(st); got != StepPlan {
			t.Fatalf("query %q routed to %s, want %s", q, got, StepPlan)
		}
	}
}

func TestRouterFollowUpWhenSummaryExists(t *testing.T) {
	r := Router{}
	st := State{Query: "what about the arctic?", Summary: "previous summary"}
	if got := r.Route(st); got != StepFollowUp {
		t.Fatalf("routed to %s, want %s", got, StepFollowUp)
	}
}

func TestRouterFreshConversationStartsPlanning(t *testing.T) {
	r := Router{}
	st := State{Query: "Impact of microplastics on marine life"}
	if got := r.Route(st); got != StepPlan {
		t.Fatalf("routed to %s, want %s", got, StepPlan)
	}
	// whitespace-only summary is not a completed run
	st.Summary = "   "
	if got := r.Route(st); got != StepPlan {
		t.Fatalf("blank summary routed to %s, want %s", got, StepPlan)
	}
}

func TestKeywordClassifierNeedsBothTokens(t *testing.T) {
	c := KeywordClassifier{}
	if c.Classify("change of scenery") != IntentNewResearch {
		t.Fatalf("'change' alone should not classify as plan change")
	}
	if c.Classify("what was the plan?") != IntentNewResearch {
		t.Fatalf("'plan' alone should not classify as plan change")
	}
	if c.Classify("plan needs a change") != IntentNewPlan {
		t.Fatalf("both tokens in any order should classify as plan change")
	}
}
