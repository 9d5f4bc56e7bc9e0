package workflow

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"
)

// TurnRequest starts or continues a conversation.
type TurnRequest struct {
	ConversationID string `json:"thread_id"`
	Query          string `json:"query"`
}

// ResumeRequest resumes a conversation suspended at the plan-approval
// boundary, supplying the (possibly edited) research plan.
type ResumeRequest struct {
	ConversationID string `json:"thread_id"`
	ResearchPlan   string `json:"research_plan"`
}

// Driver runs the graph to completion or to the interrupt boundary,
// yielding an ordered event stream per turn. One logical run per
// conversation id executes strictly sequentially; different conversations
// are independent.
type Driver struct {
	graph  *Graph
	store  CheckpointStore
	logger *log.Logger
}

// NewDriver creates an execution driver over the graph and checkpoint store.
func NewDriver(graph *Graph, store CheckpointStore, logger *log.Logger) *Driver {
	if logger == nil {
		logger = log.New(log.Writer(), "[DRIVER] ", log.LstdFlags)
	}
	return &Driver{graph: graph, store: store, logger: logger}
}

// Turn starts or continues a conversation. The returned channel yields
// events in step-execution order and is closed when the run reaches the
// terminal step, suspends at the interrupt boundary, or fails. The first
// event is always the conversation id.
func (d *Driver) Turn(ctx context.Context, req TurnRequest) (<-chan Event, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}

	var st State
	if req.ConversationID != "" {
		loaded, ok, err := d.store.Load(ctx, req.ConversationID)
		if err != nil {
			return nil, err
		}
		if ok {
			st = loaded
		} else {
			st = State{ConversationID: req.ConversationID}
		}
	} else {
		st = State{ConversationID: uuid.NewString()}
	}

	st.Query = req.Query
	if st.OriginalQuery == "" {
		st.OriginalQuery = req.Query
	}
	st.Suspended = false

	ch := make(chan Event, 16)
	go d.run(ctx, ch, st, d.graph.Entry(st), true, false)
	return ch, nil
}

// Resume continues a conversation suspended at the plan-approval boundary.
// The supplied plan overwrites the persisted one, then execution proceeds
// from retrieve onward.
func (d *Driver) Resume(ctx context.Context, req ResumeRequest) (<-chan Event, error) {
	if strings.TrimSpace(req.ConversationID) == "" {
		return nil, ErrConversationNotFound
	}
	if strings.TrimSpace(req.ResearchPlan) == "" {
		return nil, ErrEmptyPlan
	}

	st, ok, err := d.store.Load(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConversationNotFound
	}
	if !st.Suspended {
		return nil, ErrNotSuspended
	}

	st.ResearchPlan = req.ResearchPlan
	st.Suspended = false
	if err := d.store.Save(ctx, st.ConversationID, st); err != nil {
		return nil, err
	}

	ch := make(chan Event, 16)
	go d.run(ctx, ch, st, StepRetrieve, false, true)
	return ch, nil
}

// run executes steps along graph edges, merging each delta into the
// snapshot and checkpointing after every completed step. No partial step
// result is ever persisted: on failure the last successful checkpoint
// stands.
func (d *Driver) run(ctx context.Context, ch chan<- Event, st State, step string, announce, resuming bool) {
	defer close(ch)

	emit := func(ev Event) bool {
		select {
		case ch <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if announce {
		if !emit(Event{Type: EventThreadID, Payload: st.ConversationID}) {
			return
		}
	}

	for step != StepTerminal {
		if d.graph.InterruptsBefore(step) && !resuming {
			st.Suspended = true
			if err := d.store.Save(ctx, st.ConversationID, st); err != nil {
				d.logger.Printf("checkpoint at interrupt failed for %s: %v", st.ConversationID, err)
				emit(Event{Type: EventError, Payload: err.Error()})
				return
			}
			emit(Event{Type: EventResearchPlan, Payload: st.ResearchPlan})
			return
		}
		resuming = false

		if err := ctx.Err(); err != nil {
			d.logger.Printf("run abandoned for %s before %s: %v", st.ConversationID, step, err)
			return
		}

		delta, err := d.graph.Execute(ctx, step, st)
		if err != nil {
			d.logger.Printf("step %s failed for %s: %v", step, st.ConversationID, err)
			emit(Event{Type: EventError, Payload: err.Error()})
			return
		}
		st = st.Apply(delta)
		if err := d.store.Save(ctx, st.ConversationID, st); err != nil {
			d.logger.Printf("checkpoint after %s failed for %s: %v", step, st.ConversationID, err)
			emit(Event{Type: EventError, Payload: err.Error()})
			return
		}

		switch step {
		case StepRetrieve:
			if !emit(Event{Type: EventRawResults, Results: st.RawResults}) {
				return
			}
		case StepSummarize:
			if !emit(Event{Type: EventSummary, Payload: st.Summary}) {
				return
			}
		case StepFactCheck:
			if !emit(Event{Type: EventFactCheck, Payload: st.FactCheck}) {
				return
			}
		case StepFinalize, StepFollowUp:
			if !emit(Event{Type: EventRenderDirective, Render: delta.Render}) {
				return
			}
		}

		step = d.graph.Next(step)
	}
}
