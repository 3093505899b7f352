package crm

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dealpilot/pkg/hubspot"
)

// ErrNoCredentials is returned when no token is available for a portal.
var ErrNoCredentials = eris.New("crm: no credentials for portal")

// Resolver picks the Backend serving a portal. Portal 0 means the request
// did not identify one.
type Resolver interface {
	Resolve(ctx context.Context, portalID int64) (Backend, error)
}

// Static serves every portal with the same Backend.
type Static struct {
	Backend Backend
}

// Resolve implements Resolver.
func (s Static) Resolve(context.Context, int64) (Backend, error) {
	return s.Backend, nil
}

// PortalTokens yields tokens for portals that installed the app.
type PortalTokens interface {
	TokenSource(portalID int64) (hubspot.TokenSource, bool)
}

// HubSpotResolver serves installed portals with their OAuth tokens and falls
// back to a private-app token for everything else. Clients are built once per
// portal over a shared http.Client, so a portal's rate limit spans requests.
type HubSpotResolver struct {
	tokens   PortalTokens
	fallback hubspot.TokenSource
	opts     []hubspot.Option

	mu      sync.Mutex
	portals map[int64]*HubSpot
	shared  *HubSpot
}

// NewHubSpotResolver creates a resolver. tokens and fallback may each be nil.
func NewHubSpotResolver(tokens PortalTokens, fallback hubspot.TokenSource, opts ...hubspot.Option) *HubSpotResolver {
	opts = append([]hubspot.Option{hubspot.WithHTTPClient(hubspot.NewHTTPClient())}, opts...)
	return &HubSpotResolver{
		tokens:   tokens,
		fallback: fallback,
		opts:     opts,
		portals:  make(map[int64]*HubSpot),
	}
}

// Resolve implements Resolver.
func (r *HubSpotResolver) Resolve(_ context.Context, portalID int64) (Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tokens != nil && portalID != 0 {
		if b, ok := r.portals[portalID]; ok {
			return b, nil
		}
		if ts, ok := r.tokens.TokenSource(portalID); ok {
			b := NewHubSpot(hubspot.NewClient(ts, r.opts...))
			r.portals[portalID] = b
			return b, nil
		}
	}
	if r.fallback != nil {
		if r.shared == nil {
			r.shared = NewHubSpot(hubspot.NewClient(r.fallback, r.opts...))
		}
		return r.shared, nil
	}
	return nil, eris.Wrapf(ErrNoCredentials, "crm: portal %d", portalID)
}
