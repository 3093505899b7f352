package hubspot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// OAuthClient performs HubSpot OAuth token exchanges.
type OAuthClient struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	HTTP         *http.Client
}

// TokenResponse is the body returned by POST /oauth/v1/token.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// TokenInfo is the body returned by GET /oauth/v1/access-tokens/{token}.
type TokenInfo struct {
	HubID  int64    `json:"hub_id"`
	User   string   `json:"user"`
	Scopes []string `json:"scopes"`
}

// ExchangeCode trades an authorization code for tokens.
func (o *OAuthClient) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {o.ClientID},
		"client_secret": {o.ClientSecret},
		"redirect_uri":  {redirectURI},
		"code":          {code},
	}
	tok, err := o.postToken(ctx, form)
	if err != nil {
		return nil, eris.Wrap(err, "hubspot: exchange code")
	}
	return tok, nil
}

// Refresh obtains a new access token from a refresh token.
func (o *OAuthClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {o.ClientID},
		"client_secret": {o.ClientSecret},
		"refresh_token": {refreshToken},
	}
	tok, err := o.postToken(ctx, form)
	if err != nil {
		return nil, eris.Wrap(err, "hubspot: refresh token")
	}
	return tok, nil
}

// Info looks up the portal and scopes an access token belongs to.
func (o *OAuthClient) Info(ctx context.Context, accessToken string) (*TokenInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL()+"/oauth/v1/access-tokens/"+url.PathEscape(accessToken), nil)
	if err != nil {
		return nil, eris.Wrap(err, "hubspot: create token info request")
	}

	var info TokenInfo
	if err := o.send(req, &info); err != nil {
		return nil, eris.Wrap(err, "hubspot: token info")
	}
	return &info, nil
}

func (o *OAuthClient) postToken(ctx context.Context, form url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL()+"/oauth/v1/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "hubspot: create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tok TokenResponse
	if err := o.send(req, &tok); err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, eris.New("hubspot: token response missing access_token")
	}
	return &tok, nil
}

func (o *OAuthClient) send(req *http.Request, out any) error {
	hc := o.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}

	resp, err := hc.Do(req)
	if err != nil {
		return eris.Wrap(err, "hubspot: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "hubspot: read response")
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return eris.Errorf("hubspot: unexpected status %d: %s", resp.StatusCode, apiErr.Message)
		}
		return eris.Errorf("hubspot: unexpected status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "hubspot: unmarshal response")
	}
	return nil
}

func (o *OAuthClient) baseURL() string {
	if o.BaseURL == "" {
		return defaultBaseURL
	}
	return strings.TrimRight(o.BaseURL, "/")
}
