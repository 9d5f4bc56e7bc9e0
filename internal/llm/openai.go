package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mohammad-safakhou/scholar/config"
	"github.com/mohammad-safakhou/scholar/internal/telemetry"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIClient implements Provider using OpenAI's chat completions API.
type OpenAIClient struct {
	cfg  config.LLMConfig
	http *http.Client
	tele *telemetry.Telemetry
}

// NewOpenAIClient creates a new OpenAI-backed provider.
func NewOpenAIClient(cfg config.LLMConfig, tele *telemetry.Telemetry) *OpenAIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &OpenAIClient{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		tele: tele,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

// Complete implements Provider.
func (c *OpenAIClient) Complete(ctx context.Context, template Template, vars map[string]string) (string, error) {
	resp, err := c.send(ctx, template, vars, false)
	if err != nil {
		c.tele.RecordLLM(string(template), err)
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		err = fmt.Errorf("failed to parse response: %w", err)
		c.tele.RecordLLM(string(template), err)
		return "", err
	}
	if len(out.Choices) == 0 {
		err = fmt.Errorf("no choices in response")
		c.tele.RecordLLM(string(template), err)
		return "", err
	}
	c.tele.RecordLLM(string(template), nil)
	return out.Choices[0].Message.Content, nil
}

// Stream implements Provider. Fragments are delivered to fn in generation
// order; a non-nil error from fn aborts the stream.
func (c *OpenAIClient) Stream(ctx context.Context, template Template, vars map[string]string, fn func(chunk string) error) error {
	resp, err := c.send(ctx, template, vars, true)
	if err != nil {
		c.tele.RecordLLM(string(template), err)
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}
		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		if err := fn(chunk.Choices[0].Delta.Content); err != nil {
			c.tele.RecordLLM(string(template), err)
			return err
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		err = fmt.Errorf("stream read: %w", err)
		c.tele.RecordLLM(string(template), err)
		return err
	}
	c.tele.RecordLLM(string(template), nil)
	return nil
}

func (c *OpenAIClient) send(ctx context.Context, template Template, vars map[string]string, stream bool) (*http.Response, error) {
	system, user, err := BuildPrompt(template, vars)
	if err != nil {
		return nil, err
	}
	var messages []chatMessage
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: user})

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		Stream:      stream,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	baseURL := c.cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("OpenAI status %d", resp.StatusCode)
	}
	return resp, nil
}
