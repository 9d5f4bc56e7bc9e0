package llm

import (
	"context"
	"fmt"

	"github.com/mohammad-safakhou/scholar/config"
	"github.com/mohammad-safakhou/scholar/internal/telemetry"
)

// Template identifies one of the fixed prompt templates the workflow uses.
type Template string

const (
	TemplatePlan           Template = "plan"
	TemplateSummarize      Template = "summarize"
	TemplateFactCheck      Template = "fact_check"
	TemplateFinalAnswer    Template = "final_answer"
	TemplateFollowUpAnswer Template = "follow_up_answer"
)

// Provider is the text-completion collaborator. Complete returns the whole
// response; Stream invokes fn for each incremental fragment in generation
// order and returns the first error from the transport or from fn.
type Provider interface {
	Complete(ctx context.Context, template Template, vars map[string]string) (string, error)
	Stream(ctx context.Context, template Template, vars map[string]string, fn func(chunk string) error) error
}

// NewProvider creates an LLM provider based on configuration.
func NewProvider(cfg config.LLMConfig, tele *telemetry.Telemetry) (Provider, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIClient(cfg, tele), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider type: %s", cfg.Provider)
	}
}
