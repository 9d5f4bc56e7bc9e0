package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/mohammad-safakhou/scholar/internal/llm"
)

// ResearchResult is one retrieved source with its extracted content.
type ResearchResult struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// RenderDirective defers the final answer generation to the streaming
// layer: a prompt template id plus its bound inputs. It is a transient
// hand-off and is never persisted with the conversation state.
type RenderDirective struct {
	Template llm.Template      `json:"template_id"`
	Inputs   map[string]string `json:"inputs"`
}

// State is the conversation snapshot threaded through every step. It is a
// value type; steps never mutate it, they return a Delta and the driver
// applies it to produce the next snapshot.
type State struct {
	ConversationID string           `json:"conversation_id"`
	Query          string           `json:"query"`
	OriginalQuery  string           `json:"original_query"`
	ResearchPlan   string           `json:"research_plan"`
	RawResults     []ResearchResult `json:"raw_research_results"`
	Summary        string           `json:"summary"`
	FactCheck      string           `json:"fact_check_results"`

	// Suspended marks a pending plan-approval interrupt. Only a resume
	// call clears it.
	Suspended bool      `json:"suspended"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Delta carries only the fields a step changed. Nil means unchanged; for
// RawResults a non-nil slice (including an empty one) replaces the set
// accumulated for the current research run.
type Delta struct {
	ResearchPlan *string
	RawResults   []ResearchResult
	Summary      *string
	FactCheck    *string
	Render       *RenderDirective
}

// Apply merges a delta into the snapshot and returns the new snapshot.
// Later values overwrite earlier ones for the same field; unspecified
// fields are untouched. The render directive is intentionally dropped
// here: it never becomes part of the durable state.
func (s State) Apply(d Delta) State {
	next := s
	next.RawResults = append([]ResearchResult(nil), s.RawResults...)
	if d.ResearchPlan != nil {
		next.ResearchPlan = *d.ResearchPlan
	}
	if d.RawResults != nil {
		next.RawResults = append([]ResearchResult(nil), d.RawResults...)
	}
	if d.Summary != nil {
		next.Summary = *d.Summary
	}
	if d.FactCheck != nil {
		next.FactCheck = *d.FactCheck
	}
	next.UpdatedAt = time.Now().UTC()
	return next
}

// FormatResults renders source/content pairs into the context block the
// summarize, fact-check and follow-up prompts consume.
func FormatResults(results []ResearchResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("Source: %s\nContent: %s", r.Source, r.Content))
	}
	return strings.Join(parts, "\n\n")
}

func str(s string) *string { return &s }
