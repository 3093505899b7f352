// Package oauth installs the app into HubSpot portals and keeps their tokens.
package oauth

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/dealpilot/pkg/hubspot"
)

// refreshSkew refreshes tokens slightly before HubSpot expires them.
const refreshSkew = time.Minute

// Refresher trades a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*hubspot.TokenResponse, error)
}

// Token is the credential set held for one portal.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Store keeps portal tokens in memory. Tokens are lost on restart.
type Store struct {
	mu        sync.RWMutex
	tokens    map[int64]Token
	refresher Refresher
	refreshes singleflight.Group
	now       func() time.Time
}

// NewStore creates an empty Store. refresher may be nil, in which case
// expired tokens are returned as-is.
func NewStore(refresher Refresher) *Store {
	return &Store{
		tokens:    make(map[int64]Token),
		refresher: refresher,
		now:       time.Now,
	}
}

// Put saves the token for portalID, replacing any previous one.
func (s *Store) Put(portalID int64, t Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[portalID] = t
}

// PutResponse saves a token endpoint response for portalID.
func (s *Store) PutResponse(portalID int64, resp *hubspot.TokenResponse) {
	s.Put(portalID, Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    s.now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	})
}

// Get returns the stored token for portalID.
func (s *Store) Get(portalID int64) (Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[portalID]
	return t, ok
}

// Len returns the number of installed portals.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// TokenSource returns a token source bound to portalID, or false if the
// portal never installed the app.
func (s *Store) TokenSource(portalID int64) (hubspot.TokenSource, bool) {
	if _, ok := s.Get(portalID); !ok {
		return nil, false
	}
	return &portalToken{store: s, portalID: portalID}, true
}

type portalToken struct {
	store    *Store
	portalID int64
}

func (p *portalToken) Token(ctx context.Context) (string, error) {
	t, ok := p.store.Get(p.portalID)
	if !ok {
		return "", eris.Errorf("oauth: portal %d is not installed", p.portalID)
	}
	if !p.store.needsRefresh(t) {
		return t.AccessToken, nil
	}

	// Concurrent callers for one portal share a single refresh.
	v, err, _ := p.store.refreshes.Do(strconv.FormatInt(p.portalID, 10), func() (any, error) {
		return p.store.refresh(ctx, p.portalID)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Store) needsRefresh(t Token) bool {
	expired := !t.ExpiresAt.IsZero() && s.now().Add(refreshSkew).After(t.ExpiresAt)
	return expired && t.RefreshToken != "" && s.refresher != nil
}

// refresh re-reads the token so a caller arriving just after another
// refresh finished reuses its result.
func (s *Store) refresh(ctx context.Context, portalID int64) (string, error) {
	t, ok := s.Get(portalID)
	if !ok {
		return "", eris.Errorf("oauth: portal %d is not installed", portalID)
	}
	if !s.needsRefresh(t) {
		return t.AccessToken, nil
	}

	resp, err := s.refresher.Refresh(ctx, t.RefreshToken)
	if err != nil {
		return "", eris.Wrapf(err, "oauth: refresh portal %d", portalID)
	}
	if resp.RefreshToken == "" {
		resp.RefreshToken = t.RefreshToken
	}
	s.PutResponse(portalID, resp)
	zap.L().Debug("refreshed portal token", zap.Int64("portal_id", portalID))
	return resp.AccessToken, nil
}
