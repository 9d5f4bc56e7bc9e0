package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/scholar/internal/llm"
	"github.com/mohammad-safakhou/scholar/internal/telemetry"
	"github.com/mohammad-safakhou/scholar/internal/workflow"
)

// ChatHandler serves the research conversation endpoints. Structural step
// events and final-answer prose chunks share one SSE stream per turn,
// framed as `data: {"event": ..., "data": ...}`.
type ChatHandler struct {
	Driver *workflow.Driver
	LLM    llm.Provider
	Tele   *telemetry.Telemetry
	Logger *log.Logger
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("/chat", h.chat)
	g.POST("/chat/continue", h.chatContinue)
}

type chatRequest struct {
	ThreadID string `json:"thread_id"`
	Query    string `json:"query"`
}

type continueRequest struct {
	ThreadID     string `json:"thread_id"`
	ResearchPlan string `json:"research_plan"`
}

// chat starts or continues a conversation and streams its events.
func (h *ChatHandler) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	ctx := c.Request().Context()
	events, err := h.Driver.Turn(ctx, workflow.TurnRequest{ConversationID: req.ThreadID, Query: req.Query})
	if err != nil {
		return turnError(err)
	}
	return h.stream(c, events)
}

// chatContinue resumes a conversation suspended for plan approval.
func (h *ChatHandler) chatContinue(c echo.Context) error {
	var req continueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	if req.ThreadID == "" || req.ResearchPlan == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "thread_id and research_plan are required")
	}

	ctx := c.Request().Context()
	events, err := h.Driver.Resume(ctx, workflow.ResumeRequest{ConversationID: req.ThreadID, ResearchPlan: req.ResearchPlan})
	if err != nil {
		return turnError(err)
	}
	return h.stream(c, events)
}

func turnError(err error) error {
	switch {
	case errors.Is(err, workflow.ErrEmptyQuery), errors.Is(err, workflow.ErrEmptyPlan):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, workflow.ErrConversationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, workflow.ErrNotSuspended):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// stream forwards driver events as SSE frames and, when the run finishes
// with a render directive, executes it against the LLM in streaming mode,
// forwarding prose chunks in generation order.
func (h *ChatHandler) stream(c echo.Context, events <-chan workflow.Event) error {
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	flusher, ok := resp.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "streaming unsupported")
	}

	done := h.Tele.StreamStarted()
	defer done()

	ctx := c.Request().Context()

	send := func(event string, data any) error {
		frame := map[string]any{"event": event}
		if data != nil {
			frame["data"] = data
		}
		payload, err := json.Marshal(frame)
		if err != nil {
			return err
		}
		if _, err := resp.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	var render *workflow.RenderDirective
	for ev := range events {
		switch ev.Type {
		case workflow.EventThreadID:
			if err := send("thread_id", ev.Payload); err != nil {
				return nil
			}
		case workflow.EventResearchPlan:
			// Awaiting approval: this is the last event of the turn.
			_ = send("research_plan", ev.Payload)
			return nil
		case workflow.EventRawResults:
			if err := send("raw_research_results", ev.Results); err != nil {
				return nil
			}
		case workflow.EventSummary:
			if err := send("summary", ev.Payload); err != nil {
				return nil
			}
		case workflow.EventFactCheck:
			if err := send("fact_check_results", ev.Payload); err != nil {
				return nil
			}
		case workflow.EventRenderDirective:
			render = ev.Render
		case workflow.EventError:
			_ = send("error", ev.Payload)
			return nil
		}
	}

	if render != nil {
		if err := send("final_answer_start", nil); err != nil {
			return nil
		}
		err := h.LLM.Stream(ctx, render.Template, render.Inputs, func(chunk string) error {
			return send("final_answer_chunk", chunk)
		})
		if err != nil {
			h.Logger.Printf("final answer stream failed: %v", err)
			_ = send("error", err.Error())
			return nil
		}
	}

	_ = send("done", "Stream complete")
	return nil
}
