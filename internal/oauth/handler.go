package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/dealpilot/pkg/hubspot"
)

// Scopes requested at install time.
const Scopes = "oauth crm.objects.deals.read crm.objects.deals.write crm.objects.contacts.read crm.objects.owners.read"

// CallbackPath is where HubSpot redirects after the user authorizes.
const CallbackPath = "/api/auth/callback"

// Exchanger completes the authorization code flow.
type Exchanger interface {
	ExchangeCode(ctx context.Context, code, redirectURI string) (*hubspot.TokenResponse, error)
	Info(ctx context.Context, accessToken string) (*hubspot.TokenInfo, error)
}

// Settings holds the app registration used by the handlers.
type Settings struct {
	ClientID     string
	ClientSecret string
	AppURL       string
	AuthorizeURL string
}

// Handler serves the install and callback endpoints.
type Handler struct {
	settings Settings
	client   Exchanger
	store    *Store
}

// NewHandler creates a Handler.
func NewHandler(settings Settings, client Exchanger, store *Store) *Handler {
	return &Handler{settings: settings, client: client, store: store}
}

func (h *Handler) redirectURI() string {
	return strings.TrimRight(h.settings.AppURL, "/") + CallbackPath
}

// Install redirects the browser to HubSpot's consent screen.
func (h *Handler) Install(w http.ResponseWriter, r *http.Request) {
	if h.settings.ClientID == "" {
		writeError(w, http.StatusInternalServerError, "HubSpot client ID is not configured")
		return
	}

	q := url.Values{}
	q.Set("client_id", h.settings.ClientID)
	q.Set("redirect_uri", h.redirectURI())
	q.Set("scope", Scopes)

	http.Redirect(w, r, h.settings.AuthorizeURL+"?"+q.Encode(), http.StatusFound)
}

// Callback exchanges the authorization code and stores the portal's tokens.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	if e := r.URL.Query().Get("error"); e != "" {
		writeError(w, http.StatusBadRequest, "Authorization failed: "+e)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "Missing authorization code")
		return
	}
	if h.settings.ClientID == "" || h.settings.ClientSecret == "" {
		writeError(w, http.StatusInternalServerError, "HubSpot OAuth credentials are not configured")
		return
	}

	tokens, err := h.client.ExchangeCode(r.Context(), code, h.redirectURI())
	if err != nil {
		zap.L().Error("oauth code exchange failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to exchange authorization code")
		return
	}

	info, err := h.client.Info(r.Context(), tokens.AccessToken)
	if err != nil {
		zap.L().Error("oauth token lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to identify HubSpot portal")
		return
	}

	h.store.PutResponse(info.HubID, tokens)
	zap.L().Info("app installed",
		zap.Int64("portal_id", info.HubID),
		zap.String("user", info.User),
	)

	http.Redirect(w, r, "/?installed=true", http.StatusFound)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
