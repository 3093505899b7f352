package tools

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealpilot/internal/crm"
	"github.com/sells-group/dealpilot/internal/metrics"
	"github.com/sells-group/dealpilot/internal/prompts"
	"github.com/sells-group/dealpilot/internal/resilience"
)

// Tool names, also their route suffixes.
const (
	ToolAnalyzeDeal     = "analyze-deal"
	ToolCreateNextSteps = "create-next-steps"
	ToolDraftFollowup   = "draft-followup"
)

// maxBodyBytes caps a webhook body. HubSpot payloads are a few KB.
const maxBodyBytes = 1 << 20

const noDealMessage = "No deal specified. Add a deal_id input or run this action on a deal record."

var errPanic = eris.New("tools: panic")

// runFunc produces a tool's output fields for one invocation.
type runFunc func(ctx context.Context, p Payload) (map[string]string, error)

// degradeFunc produces complete output fields that explain a failure.
type degradeFunc func(msg string) map[string]string

type response struct {
	OutputFields map[string]string `json:"outputFields"`
}

// Routes mounts the tool endpoints on r.
func (s *Service) Routes(r chi.Router) {
	r.Post("/"+ToolAnalyzeDeal, s.handle(ToolAnalyzeDeal, s.runAnalyze, degradedAnalysis))
	r.Post("/"+ToolCreateNextSteps, s.handle(ToolCreateNextSteps, s.runNextSteps, degradedNextSteps))
	r.Post("/"+ToolDraftFollowup, s.handle(ToolDraftFollowup, s.runDraft, degradedDraft))
}

func (s *Service) runAnalyze(ctx context.Context, p Payload) (map[string]string, error) {
	a, err := s.Analyze(ctx, p.Origin.PortalID, p.DealID())
	if err != nil {
		return nil, err
	}
	return a.Fields(), nil
}

func (s *Service) runNextSteps(ctx context.Context, p Payload) (map[string]string, error) {
	n, err := s.PlanNextSteps(ctx, p.Origin.PortalID, p.DealID(), p.Input("urgency"), true)
	if err != nil {
		return nil, err
	}
	return n.Fields(), nil
}

func (s *Service) runDraft(ctx context.Context, p Payload) (map[string]string, error) {
	d, err := s.Draft(ctx, DraftRequest{
		PortalID: p.Origin.PortalID,
		DealID:   p.DealID(),
		Tone:     p.Input("tone"),
		Context:  p.Input("context_notes"),
	})
	if err != nil {
		return nil, err
	}
	return d.Fields(), nil
}

// handle adapts run into an HTTP handler that always answers 200 with a
// complete outputFields object.
func (s *Service) handle(tool string, run runFunc, degrade degradeFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := zap.L().With(
			zap.String("request_id", uuid.NewString()),
			zap.String("tool", tool),
		)

		ctx := r.Context()
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}

		var (
			fields map[string]string
			err    error
			p      Payload
		)
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			err = eris.Wrapf(ErrInvalidPayload, "tools: read body: %v", err)
		} else {
			p, err = ParsePayload(body)
		}
		if err == nil {
			log = log.With(
				zap.String("deal_id", p.DealID()),
				zap.Int64("portal_id", p.Origin.PortalID),
				zap.String("callback_id", p.CallbackID),
			)
			fields, err = safeRun(ctx, run, p)
		}

		outcome := metrics.OutcomeOK
		switch {
		case errors.Is(err, ErrNoDeal):
			outcome = metrics.OutcomeDegraded
			fields = degrade(noDealMessage)
			log.Info("tool invoked without a deal")
		case errors.Is(err, errPanic):
			outcome = metrics.OutcomePanic
			fields = degrade(failureMessage(tool, err))
			log.Error("tool panicked", zap.Error(err))
		case err != nil:
			outcome = metrics.OutcomeDegraded
			fields = degrade(failureMessage(tool, err))
			log.Error("tool failed", zap.Error(err))
		}

		elapsed := time.Since(start)
		metrics.ObserveTool(tool, outcome, elapsed)
		log.Info("tool complete",
			zap.String("outcome", outcome),
			zap.Duration("elapsed", elapsed),
		)
		writeFields(w, fields)
	}
}

func safeRun(ctx context.Context, run runFunc, p Payload) (fields map[string]string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			fields = nil
			err = eris.Wrapf(errPanic, "tools: recovered: %v", rec)
		}
	}()
	return run(ctx, p)
}

func writeFields(w http.ResponseWriter, fields map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response{OutputFields: fields}); err != nil {
		zap.L().Warn("write tool response", zap.Error(err))
	}
}

// reason turns err into a short explanation safe to show in the CRM.
func reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidPayload):
		return "the request payload was malformed"
	case errors.Is(err, crm.ErrDealNotFound):
		return "the deal was not found in the CRM"
	case errors.Is(err, crm.ErrNoCredentials):
		return "the app is not connected to this account"
	case errors.Is(err, ErrNoLLM):
		return "no language model is configured"
	case errors.Is(err, resilience.ErrOpen):
		return "an upstream service is temporarily unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "the request timed out"
	}
	return "an unexpected error occurred"
}

func failureMessage(tool string, err error) string {
	var what string
	switch tool {
	case ToolAnalyzeDeal:
		what = "Deal analysis"
	case ToolCreateNextSteps:
		what = "Next-step planning"
	default:
		what = "Follow-up drafting"
	}
	return what + " failed: " + reason(err) + "."
}

func degradedAnalysis(msg string) map[string]string {
	return map[string]string{
		"win_score":      "0",
		"risk_signals":   msg,
		"health_summary": msg,
		"recommendation": "Check the deal record and run this action again.",
	}
}

func degradedNextSteps(msg string) map[string]string {
	return map[string]string{
		"task_id":      "",
		"task_summary": msg,
		"next_steps":   msg,
	}
}

func degradedDraft(msg string) map[string]string {
	return map[string]string{
		"email_subject":       prompts.FallbackSubject,
		"email_body":          msg,
		"suggested_send_time": prompts.FallbackSendTime,
	}
}
