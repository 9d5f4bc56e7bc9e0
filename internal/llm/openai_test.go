package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/scholar/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(config.LLMConfig{
		Provider: "openai",
		APIKey:   "test-key",
		BaseURL:  srv.URL,
		Model:    "gpt-4o",
	}, nil)
}

func TestCompleteSendsPromptAndParsesChoice(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Stream bool `json:"stream"`
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"1. Sources\n2. Effects"}}]}`)
	})

	out, err := client.Complete(context.Background(), TemplatePlan, map[string]string{"query": "microplastics"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "1. Sources\n2. Effects" {
		t.Fatalf("completion = %q", out)
	}
	if got.Model != "gpt-4o" || got.Stream {
		t.Fatalf("request = %+v", got)
	}
	// plan template carries a system message ahead of the user message
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v", got.Messages)
	}
	if !strings.Contains(got.Messages[1].Content, "microplastics") {
		t.Fatalf("query not bound into prompt: %q", got.Messages[1].Content)
	}
}

func TestCompleteRejectsNonOKStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})
	if _, err := client.Complete(context.Background(), TemplatePlan, map[string]string{"query": "q"}); err == nil {
		t.Fatalf("expected error on 429")
	}
}

func TestCompleteRejectsEmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	})
	if _, err := client.Complete(context.Background(), TemplatePlan, map[string]string{"query": "q"}); err == nil {
		t.Fatalf("expected error on empty choices")
	}
}

func TestStreamDeliversDeltasInOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Stream bool `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Stream {
			t.Errorf("stream flag not set: %v %v", req, err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"The \"}}]}\n\n")
		fmt.Fprint(w, ": keep-alive comment\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"answer\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	var chunks []string
	err := client.Stream(context.Background(), TemplateFinalAnswer, map[string]string{
		"query": "q", "summary": "s", "fact_check_results": "f",
	}, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if strings.Join(chunks, "") != "The answer" {
		t.Fatalf("chunks = %v", chunks)
	}
}

func TestStreamStopsWhenCallbackFails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n\n")
	})

	calls := 0
	err := client.Stream(context.Background(), TemplateFinalAnswer, map[string]string{
		"query": "q", "summary": "s", "fact_check_results": "f",
	}, func(string) error {
		calls++
		return fmt.Errorf("client went away")
	})
	if err == nil {
		t.Fatalf("expected callback error to surface")
	}
	if calls != 1 {
		t.Fatalf("callback called %d times after failing", calls)
	}
}

func TestBuildPromptUnknownTemplate(t *testing.T) {
	if _, _, err := BuildPrompt(Template("nonsense"), nil); err == nil {
		t.Fatalf("expected error for unknown template")
	}
}

func TestBuildPromptBindsFollowUpContext(t *testing.T) {
	_, user, err := BuildPrompt(TemplateFollowUpAnswer, map[string]string{
		"summary":            "the summary",
		"fact_check_results": "the report",
		"formatted_results":  "Source: https://a\nContent: alpha",
		"follow_up_query":    "and rivers?",
	})
	if err != nil {
		t.Fatalf("BuildPrompt: %v", err)
	}
	for _, want := range []string{"the summary", "the report", "Source: https://a", "and rivers?"} {
		if !strings.Contains(user, want) {
			t.Fatalf("prompt missing %q:\n%s", want, user)
		}
	}
}
