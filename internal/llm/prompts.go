package llm

import "fmt"

const planSystemPrompt = `You are an expert research planner. Your task is to analyze the
user's research query and create a structured plan for investigation.
Break down the query into specific, actionable search topics.
Output the plan as a clear, numbered list.`

// BuildPrompt renders the named template with its variables into a system
// prompt (may be empty) and a user prompt. Missing variables render as
// empty strings; unknown templates are an error.
func BuildPrompt(template Template, vars map[string]string) (system string, user string, err error) {
	v := func(key string) string { return vars[key] }

	switch template {
	case TemplatePlan:
		return planSystemPrompt, fmt.Sprintf("User's research query: %s", v("query")), nil

	case TemplateSummarize:
		user = fmt.Sprintf(`You are an expert summarizer. Condense the provided research
results into a concise, objective summary that directly addresses the
user's original query: %s. Highlight key findings.

Retrieved Research Results:
%s`, v("query"), v("results"))
		return "", user, nil

	case TemplateFactCheck:
		user = fmt.Sprintf(`You are a diligent fact-checker. Review the summary and compare it
against the original research results. Identify any unsupported claims.
If the summary is accurate, state 'Fact check: OK.' Otherwise, point out discrepancies.

User's Query: %s
Summary to Fact-Check: %s
Original Research Results:
%s`, v("query"), v("summary"), v("results"))
		return "", user, nil

	case TemplateFinalAnswer:
		user = fmt.Sprintf(`You are a helpful and professional research assistant.
Synthesize the summary and fact-check report into a comprehensive, polished final answer.
Format the response well using Markdown with headings and paragraphs.

User's Original Query: %s
---
Summary: %s
---
Fact Check Report: %s`, v("query"), v("summary"), v("fact_check_results"))
		return "", user, nil

	case TemplateFollowUpAnswer:
		user = fmt.Sprintf(`You are a helpful research assistant. A user has asked a follow-up question.
Use the FULL CONTEXT of the previous research run to answer the new question.
Your context includes the summary, the fact-check report, and the raw sources.
Answer the user's question based on this existing information. Do not perform a new search.

--- PREVIOUS RESEARCH CONTEXT ---

**Summary:**
%s

**Fact-Check Report:**
%s

**Retrieved Sources:**
%s

--- END OF CONTEXT ---

USER'S FOLLOW-UP QUESTION:
%s`, v("summary"), v("fact_check_results"), v("formatted_results"), v("follow_up_query"))
		return "", user, nil

	default:
		return "", "", fmt.Errorf("unknown prompt template: %s", template)
	}
}
