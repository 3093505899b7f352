package tools

import (
	"context"
	"time"

	"github.com/sells-group/dealpilot/internal/crm"
	"github.com/sells-group/dealpilot/internal/deal"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func daysFromNow(n int) string {
	return testNow.AddDate(0, 0, n).Format(time.RFC3339)
}

// healthyDeal scores 95 with no risk signals.
func healthyDeal(id string) deal.Snapshot {
	return deal.NewSnapshot(id, map[string]string{
		deal.PropName:             "Acme Renewal",
		deal.PropAmount:           "50000",
		deal.PropStage:            "contractsent",
		deal.PropCloseDate:        daysFromNow(30),
		deal.PropOwnerID:          "42",
		deal.PropLastContacted:    daysFromNow(-2),
		deal.PropCreatedDate:      daysFromNow(-20),
		deal.PropLastModified:     daysFromNow(-1),
		deal.PropStageProbability: "0.8",
		deal.PropContactCount:     "3",
		deal.PropNoteCount:        "4",
	})
}

type mockBackend struct {
	getDealFn        func(ctx context.Context, id string) (deal.Snapshot, error)
	primaryContactFn func(ctx context.Context, id string) (*crm.Contact, error)
	createTaskFn     func(ctx context.Context, req crm.TaskRequest) (string, error)
}

func (m *mockBackend) GetDeal(ctx context.Context, id string) (deal.Snapshot, error) {
	return m.getDealFn(ctx, id)
}

func (m *mockBackend) PrimaryContact(ctx context.Context, id string) (*crm.Contact, error) {
	if m.primaryContactFn == nil {
		return nil, nil
	}
	return m.primaryContactFn(ctx, id)
}

func (m *mockBackend) CreateTask(ctx context.Context, req crm.TaskRequest) (string, error) {
	return m.createTaskFn(ctx, req)
}

func (m *mockBackend) Name() string { return "mock" }

type mockResolver struct {
	backend  crm.Backend
	err      error
	portalID int64
}

func (m *mockResolver) Resolve(_ context.Context, portalID int64) (crm.Backend, error) {
	m.portalID = portalID
	if m.err != nil {
		return nil, m.err
	}
	return m.backend, nil
}

type mockCompleter struct {
	completeFn func(ctx context.Context, prompt string, temperature float64) (string, error)
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	return m.completeFn(ctx, prompt, temperature)
}

func newTestService(b crm.Backend, c *mockCompleter) *Service {
	cfg := Config{
		CRM:         &mockResolver{backend: b},
		Temperature: 0.8,
		Now:         func() time.Time { return testNow },
	}
	if c != nil {
		cfg.LLM = c
	}
	return NewService(cfg)
}
