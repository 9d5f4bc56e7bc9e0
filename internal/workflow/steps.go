package workflow

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/mohammad-safakhou/scholar/internal/llm"
	"github.com/mohammad-safakhou/scholar/internal/search"
)

const (
	noResultsSummary = "No substantial research results were found to summarize."
	factCheckSkipped = "Fact-check skipped: No original research results."
	noSourcesContext = "No sources were retrieved."
)

var numberedLine = regexp.MustCompile(`(?m)^\s*\d+\.\s*(.*)`)

// Steps holds the collaborators the step functions call. Each step reads
// the snapshot it is given and returns only the fields it changed.
type Steps struct {
	LLM      llm.Provider
	Searcher search.Searcher
	Logger   *log.Logger
}

// NewSteps wires the step functions to their collaborators.
func NewSteps(provider llm.Provider, searcher search.Searcher, logger *log.Logger) *Steps {
	if logger == nil {
		logger = log.New(log.Writer(), "[STEPS] ", log.LstdFlags)
	}
	return &Steps{LLM: provider, Searcher: searcher, Logger: logger}
}

// Plan asks the LLM for a numbered research plan. The query is forwarded
// verbatim; a collaborator failure fails the step rather than guessing a
// plan.
func (s *Steps) Plan(ctx context.Context, st State) (Delta, error) {
	query := st.OriginalQuery
	if query == "" {
		query = st.Query
	}
	plan, err := s.LLM.Complete(ctx, llm.TemplatePlan, map[string]string{"query": query})
	if err != nil {
		return Delta{}, fmt.Errorf("plan generation: %w", err)
	}
	return Delta{ResearchPlan: str(plan)}, nil
}

// Retrieve runs one search per plan line and collects the hits. A failing
// sub-query is logged and skipped; results are deduplicated by source URL,
// first seen wins.
func (s *Steps) Retrieve(ctx context.Context, st State) (Delta, error) {
	queries := SubQueries(st.ResearchPlan)
	results := make([]ResearchResult, 0, len(queries))
	seen := make(map[string]struct{})
	for _, q := range queries {
		hits, err := s.Searcher.Search(ctx, q)
		if err != nil {
			s.Logger.Printf("retrieval failed for sub-query %q: %v", q, err)
			continue
		}
		for _, hit := range hits {
			if hit.URL == "" || hit.Snippet == "" {
				continue
			}
			if _, dup := seen[hit.URL]; dup {
				continue
			}
			seen[hit.URL] = struct{}{}
			results = append(results, ResearchResult{Source: hit.URL, Content: hit.Snippet})
		}
	}
	return Delta{RawResults: results}, nil
}

// SubQueries splits a plan into ordered sub-queries by its numbered lines.
// A plan without numbered lines is treated as a single sub-query.
func SubQueries(plan string) []string {
	matches := numberedLine.FindAllStringSubmatch(plan, -1)
	if len(matches) == 0 {
		return []string{plan}
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// Summarize condenses the retrieved results against the user's query.
// With nothing substantial retrieved it short-circuits to a fixed message
// without calling the LLM.
func (s *Steps) Summarize(ctx context.Context, st State) (Delta, error) {
	formatted := FormatResults(st.RawResults)
	if strings.TrimSpace(formatted) == "" {
		return Delta{Summary: str(noResultsSummary)}, nil
	}
	summary, err := s.LLM.Complete(ctx, llm.TemplateSummarize, map[string]string{
		"query":   st.Query,
		"results": formatted,
	})
	if err != nil {
		return Delta{}, fmt.Errorf("summarize: %w", err)
	}
	return Delta{Summary: str(summary)}, nil
}

// FactCheck compares the summary against the raw results. With no raw
// results it short-circuits to a fixed skipped message.
func (s *Steps) FactCheck(ctx context.Context, st State) (Delta, error) {
	if len(st.RawResults) == 0 {
		return Delta{FactCheck: str(factCheckSkipped)}, nil
	}
	report, err := s.LLM.Complete(ctx, llm.TemplateFactCheck, map[string]string{
		"query":   st.Query,
		"summary": st.Summary,
		"results": FormatResults(st.RawResults),
	})
	if err != nil {
		return Delta{}, fmt.Errorf("fact check: %w", err)
	}
	return Delta{FactCheck: str(report)}, nil
}

// Finalize packages the final answer as a render directive. The LLM call
// is deferred to the streaming layer so the caller receives the answer
// incrementally.
func (s *Steps) Finalize(ctx context.Context, st State) (Delta, error) {
	if strings.TrimSpace(st.Summary) == "" || strings.TrimSpace(st.FactCheck) == "" {
		return Delta{}, fmt.Errorf("finalize requires summary and fact-check results")
	}
	return Delta{Render: &RenderDirective{
		Template: llm.TemplateFinalAnswer,
		Inputs: map[string]string{
			"query":              st.Query,
			"summary":            st.Summary,
			"fact_check_results": st.FactCheck,
		},
	}}, nil
}

// FollowUp answers against the previous research context, again deferring
// the LLM call to the streaming layer. It never re-runs retrieval.
func (s *Steps) FollowUp(ctx context.Context, st State) (Delta, error) {
	summary := st.Summary
	if summary == "" {
		summary = "No previous summary available."
	}
	factCheck := st.FactCheck
	if factCheck == "" {
		factCheck = "No fact-check was performed."
	}
	formatted := FormatResults(st.RawResults)
	if strings.TrimSpace(formatted) == "" {
		formatted = noSourcesContext
	}
	return Delta{Render: &RenderDirective{
		Template: llm.TemplateFollowUpAnswer,
		Inputs: map[string]string{
			"summary":            summary,
			"fact_check_results": factCheck,
			"formatted_results":  formatted,
			"follow_up_query":    st.Query,
		},
	}}, nil
}
