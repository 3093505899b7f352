package crm

import (
	"context"

	"github.com/sells-group/dealpilot/internal/deal"
	"github.com/sells-group/dealpilot/pkg/hubspot"
)

// mockHubSpot implements hubspot.Client for testing.
type mockHubSpot struct {
	getDealFn          func(ctx context.Context, id string, props []string) (*hubspot.Object, error)
	getContactFn       func(ctx context.Context, id string, props []string) (*hubspot.Object, error)
	listAssociationsFn func(ctx context.Context, fromType, fromID, toType string) ([]string, error)
	createTaskFn       func(ctx context.Context, task hubspot.TaskInput) (*hubspot.Object, error)
}

func (m *mockHubSpot) GetDeal(ctx context.Context, id string, props []string) (*hubspot.Object, error) {
	if m.getDealFn != nil {
		return m.getDealFn(ctx, id, props)
	}
	return &hubspot.Object{ID: id, Properties: map[string]string{}}, nil
}

func (m *mockHubSpot) GetContact(ctx context.Context, id string, props []string) (*hubspot.Object, error) {
	if m.getContactFn != nil {
		return m.getContactFn(ctx, id, props)
	}
	return &hubspot.Object{ID: id, Properties: map[string]string{}}, nil
}

func (m *mockHubSpot) ListAssociations(ctx context.Context, fromType, fromID, toType string) ([]string, error) {
	if m.listAssociationsFn != nil {
		return m.listAssociationsFn(ctx, fromType, fromID, toType)
	}
	return nil, nil
}

func (m *mockHubSpot) CreateTask(ctx context.Context, task hubspot.TaskInput) (*hubspot.Object, error) {
	if m.createTaskFn != nil {
		return m.createTaskFn(ctx, task)
	}
	return &hubspot.Object{ID: "task-1"}, nil
}

// mockSF implements salesforce.Client for testing.
type mockSF struct {
	queryFn     func(ctx context.Context, soql string, out any) error
	insertOneFn func(ctx context.Context, sObjectName string, record map[string]any) (string, error)
}

func (m *mockSF) Query(ctx context.Context, soql string, out any) error {
	if m.queryFn != nil {
		return m.queryFn(ctx, soql, out)
	}
	return nil
}

func (m *mockSF) InsertOne(ctx context.Context, sObjectName string, record map[string]any) (string, error) {
	if m.insertOneFn != nil {
		return m.insertOneFn(ctx, sObjectName, record)
	}
	return "00T000000000001", nil
}

// stubBackend implements Backend with canned results.
type stubBackend struct {
	name    string
	snap    deal.Snapshot
	contact *Contact
	taskID  string
	err     error
	calls   int
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) GetDeal(context.Context, string) (deal.Snapshot, error) {
	s.calls++
	return s.snap, s.err
}

func (s *stubBackend) PrimaryContact(context.Context, string) (*Contact, error) {
	s.calls++
	return s.contact, s.err
}

func (s *stubBackend) CreateTask(context.Context, TaskRequest) (string, error) {
	s.calls++
	return s.taskID, s.err
}
