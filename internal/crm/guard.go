package crm

import (
	"context"

	"github.com/sells-group/dealpilot/internal/deal"
	"github.com/sells-group/dealpilot/internal/resilience"
)

// Guarded wraps every Backend that r resolves in the breaker named after
// the backend.
func Guarded(r Resolver, breakers *resilience.Breakers) Resolver {
	return guardedResolver{next: r, breakers: breakers}
}

type guardedResolver struct {
	next     Resolver
	breakers *resilience.Breakers
}

func (g guardedResolver) Resolve(ctx context.Context, portalID int64) (Backend, error) {
	b, err := g.next.Resolve(ctx, portalID)
	if err != nil {
		return nil, err
	}
	return &guarded{Backend: b, breaker: g.breakers.Get("crm:" + b.Name())}, nil
}

type guarded struct {
	Backend
	breaker *resilience.Breaker
}

func (g *guarded) GetDeal(ctx context.Context, dealID string) (deal.Snapshot, error) {
	return resilience.Call(ctx, g.breaker, func(ctx context.Context) (deal.Snapshot, error) {
		return g.Backend.GetDeal(ctx, dealID)
	})
}

func (g *guarded) PrimaryContact(ctx context.Context, dealID string) (*Contact, error) {
	return resilience.Call(ctx, g.breaker, func(ctx context.Context) (*Contact, error) {
		return g.Backend.PrimaryContact(ctx, dealID)
	})
}

func (g *guarded) CreateTask(ctx context.Context, req TaskRequest) (string, error) {
	return resilience.Call(ctx, g.breaker, func(ctx context.Context) (string, error) {
		return g.Backend.CreateTask(ctx, req)
	})
}
