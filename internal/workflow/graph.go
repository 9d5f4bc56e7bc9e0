package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/scholar/internal/telemetry"
)

// Step names. StepTerminal is the only accepting state; no edges leave it.
const (
	StepPlan      = "plan"
	StepRetrieve  = "retrieve"
	StepSummarize = "summarize"
	StepFactCheck = "fact_check"
	StepFinalize  = "finalize"
	StepFollowUp  = "follow_up"
	StepTerminal  = "terminal"
)

type stepFunc func(ctx context.Context, st State) (Delta, error)

// Graph is the fixed execution topology: six steps, one conditional entry
// resolved by the router, one interrupt edge before retrieve, and straight
// edges everywhere else.
type Graph struct {
	steps           map[string]stepFunc
	edges           map[string]string
	interruptBefore string
	router          Router
	tele            *telemetry.Telemetry
}

// NewGraph wires the steps and router into the research topology.
func NewGraph(s *Steps, router Router, tele *telemetry.Telemetry) *Graph {
	return &Graph{
		steps: map[string]stepFunc{
			StepPlan:      s.Plan,
			StepRetrieve:  s.Retrieve,
			StepSummarize: s.Summarize,
			StepFactCheck: s.FactCheck,
			StepFinalize:  s.Finalize,
			StepFollowUp:  s.FollowUp,
		},
		edges: map[string]string{
			StepPlan:      StepRetrieve,
			StepRetrieve:  StepSummarize,
			StepSummarize: StepFactCheck,
			StepFactCheck: StepFinalize,
			StepFinalize:  StepTerminal,
			StepFollowUp:  StepTerminal,
		},
		interruptBefore: StepRetrieve,
		router:          router,
		tele:            tele,
	}
}

// Entry resolves the conditional entry point for a turn.
func (g *Graph) Entry(st State) string { return g.router.Route(st) }

// Next returns the step following the given one.
func (g *Graph) Next(step string) string {
	next, ok := g.edges[step]
	if !ok {
		return StepTerminal
	}
	return next
}

// InterruptsBefore reports whether execution must suspend before entering
// the given step.
func (g *Graph) InterruptsBefore(step string) bool { return step == g.interruptBefore }

// Execute runs one step against the snapshot and returns its delta.
func (g *Graph) Execute(ctx context.Context, step string, st State) (Delta, error) {
	fn, ok := g.steps[step]
	if !ok {
		return Delta{}, fmt.Errorf("unknown step: %s", step)
	}
	start := time.Now()
	delta, err := fn(ctx, st)
	g.tele.RecordStep(step, time.Since(start), err)
	return delta, err
}
