// Package tools implements the HubSpot workflow actions: deal analysis,
// next-step planning and follow-up drafting.
package tools

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/dealpilot/internal/crm"
	"github.com/sells-group/dealpilot/internal/deal"
	"github.com/sells-group/dealpilot/internal/llm"
	"github.com/sells-group/dealpilot/internal/metrics"
	"github.com/sells-group/dealpilot/internal/prompts"
)

// ErrNoDeal is returned when a request names no deal.
var ErrNoDeal = eris.New("tools: no deal specified")

// ErrNoLLM is returned by Draft when no completer is configured.
var ErrNoLLM = eris.New("tools: no LLM configured")

// DefaultTaskSubject is used when the plan yields no summary.
const DefaultTaskSubject = "Follow up on deal"

// Config wires a Service.
type Config struct {
	CRM         crm.Resolver
	LLM         llm.Completer
	Temperature float64
	// Timeout bounds one tool invocation. Zero means no limit.
	Timeout time.Duration
	Now     func() time.Time
}

// Service runs the tools against a CRM and an LLM.
type Service struct {
	crm         crm.Resolver
	llm         llm.Completer
	temperature float64
	timeout     time.Duration
	now         func() time.Time
}

// NewService creates a Service.
func NewService(cfg Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		crm:         cfg.CRM,
		llm:         cfg.LLM,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		now:         now,
	}
}

// Analyze fetches dealID and scores it.
func (s *Service) Analyze(ctx context.Context, portalID int64, dealID string) (deal.Analysis, error) {
	if dealID == "" {
		return deal.Analysis{}, ErrNoDeal
	}
	backend, err := s.crm.Resolve(ctx, portalID)
	if err != nil {
		return deal.Analysis{}, eris.Wrap(err, "tools: resolve crm")
	}
	snap, err := backend.GetDeal(ctx, dealID)
	if err != nil {
		return deal.Analysis{}, eris.Wrapf(err, "tools: get deal %s", dealID)
	}

	a := deal.Analyze(snap, s.now())
	metrics.WinScore.Observe(float64(a.Score))
	return a, nil
}

// NextSteps is a plan plus the id of the task recorded for it.
type NextSteps struct {
	Plan deal.Plan
	// TaskID is empty when no task was requested or task creation failed.
	TaskID string
}

// Fields returns the next steps as output fields.
func (n NextSteps) Fields() map[string]string {
	f := n.Plan.Fields()
	f["task_id"] = n.TaskID
	return f
}

// PlanNextSteps builds the three-step plan for dealID and, when createTask
// is set, records it as a CRM task. Task failures are logged and leave
// TaskID empty.
func (s *Service) PlanNextSteps(ctx context.Context, portalID int64, dealID, urgency string, createTask bool) (NextSteps, error) {
	if dealID == "" {
		return NextSteps{}, ErrNoDeal
	}
	backend, err := s.crm.Resolve(ctx, portalID)
	if err != nil {
		return NextSteps{}, eris.Wrap(err, "tools: resolve crm")
	}
	snap, err := backend.GetDeal(ctx, dealID)
	if err != nil {
		return NextSteps{}, eris.Wrapf(err, "tools: get deal %s", dealID)
	}

	now := s.now()
	u := deal.ParseUrgency(urgency)
	out := NextSteps{Plan: deal.BuildNextSteps(snap, deal.DeriveMetrics(snap, now), u)}
	if !createTask {
		return out, nil
	}

	subject := out.Plan.TaskSummary
	if subject == "" {
		subject = DefaultTaskSubject
	}
	taskID, err := backend.CreateTask(ctx, crm.TaskRequest{
		DealID:   dealID,
		OwnerID:  snap.GetOr(deal.PropOwnerID, ""),
		Subject:  subject,
		Body:     out.Plan.Text(),
		Priority: u.Priority(),
		Due:      u.DueAt(now),
	})
	if err != nil {
		metrics.TaskWriteFailuresTotal.WithLabelValues(backend.Name()).Inc()
		zap.L().Warn("task creation failed",
			zap.String("deal_id", dealID),
			zap.String("backend", backend.Name()),
			zap.Error(err),
		)
		return out, nil
	}
	out.TaskID = taskID
	return out, nil
}

// DraftRequest asks for a follow-up email.
type DraftRequest struct {
	PortalID int64
	DealID   string
	Tone     string
	Context  string
}

// Draft writes a follow-up email for a deal and its primary contact. The deal
// and contact are fetched concurrently; a failed contact lookup is logged and
// the draft proceeds without one.
func (s *Service) Draft(ctx context.Context, req DraftRequest) (prompts.Draft, error) {
	if req.DealID == "" {
		return prompts.Draft{}, ErrNoDeal
	}
	if s.llm == nil {
		return prompts.Draft{}, ErrNoLLM
	}
	backend, err := s.crm.Resolve(ctx, req.PortalID)
	if err != nil {
		return prompts.Draft{}, eris.Wrap(err, "tools: resolve crm")
	}

	var (
		snap    deal.Snapshot
		contact *crm.Contact
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, err = backend.GetDeal(gctx, req.DealID)
		return eris.Wrapf(err, "tools: get deal %s", req.DealID)
	})
	g.Go(func() error {
		c, err := backend.PrimaryContact(gctx, req.DealID)
		if err != nil {
			zap.L().Warn("primary contact lookup failed",
				zap.String("deal_id", req.DealID),
				zap.Error(err),
			)
			return nil
		}
		contact = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return prompts.Draft{}, err
	}

	prompt, err := prompts.DraftFollowup(prompts.FollowupInput{
		Tone:    req.Tone,
		Context: req.Context,
		Deal:    prompts.NewDealData(snap),
		Contact: prompts.NewContactData(contact),
	})
	if err != nil {
		return prompts.Draft{}, err
	}

	reply, err := s.llm.Complete(ctx, prompt, s.temperature)
	if err != nil {
		return prompts.Draft{}, eris.Wrap(err, "tools: draft followup")
	}

	d, err := prompts.ParseDraft(reply)
	if err != nil {
		zap.L().Warn("unparseable draft reply, using fallbacks",
			zap.String("deal_id", req.DealID),
			zap.Error(err),
		)
	}
	return d, nil
}
