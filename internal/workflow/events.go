package workflow

// EventType tags the events a run emits, in step-execution order.
type EventType string

const (
	// EventThreadID is always the first event of a new or continuing turn.
	EventThreadID EventType = "thread_id"
	// EventResearchPlan carries the generated plan and signals that the
	// run is suspended awaiting plan approval. When produced it is always
	// the last event of the turn.
	EventResearchPlan EventType = "research_plan"
	EventRawResults   EventType = "raw_research_results"
	EventSummary      EventType = "summary"
	EventFactCheck    EventType = "fact_check_results"
	// EventRenderDirective surfaces the deferred final-answer instruction;
	// the streaming layer executes it and forwards prose chunks.
	EventRenderDirective EventType = "render_directive"
	// EventError ends a failed turn. At most one is emitted, always last.
	EventError EventType = "error"
)

// Event is one structural event of a turn's stream.
type Event struct {
	Type    EventType        `json:"type"`
	Payload string           `json:"payload,omitempty"`
	Results []ResearchResult `json:"results,omitempty"`
	Render  *RenderDirective `json:"render,omitempty"`
}
