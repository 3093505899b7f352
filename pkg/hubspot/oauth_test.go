package hubspot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOAuthClient_ExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/oauth/v1/token", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "cid", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "https://app.example.com/api/auth/callback", r.PostForm.Get("redirect_uri"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))

		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":1800,"token_type":"bearer"}`))
	}))
	defer srv.Close()

	o := &OAuthClient{ClientID: "cid", ClientSecret: "secret", BaseURL: srv.URL}
	tok, err := o.ExchangeCode(context.Background(), "the-code", "https://app.example.com/api/auth/callback")
	require.NoError(t, err)
	assert.Equal(t, "at", tok.AccessToken)
	assert.Equal(t, "rt", tok.RefreshToken)
	assert.Equal(t, 1800, tok.ExpiresIn)
}

func TestOAuthClient_ExchangeCode_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"BAD_AUTH_CODE","message":"missing or invalid auth code"}`))
	}))
	defer srv.Close()

	o := &OAuthClient{ClientID: "cid", ClientSecret: "secret", BaseURL: srv.URL}
	_, err := o.ExchangeCode(context.Background(), "bad", "https://x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing or invalid auth code")
}

func TestOAuthClient_Refresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "rt", r.PostForm.Get("refresh_token"))
		_, _ = w.Write([]byte(`{"access_token":"at2","refresh_token":"rt","expires_in":1800}`))
	}))
	defer srv.Close()

	o := &OAuthClient{ClientID: "cid", ClientSecret: "secret", BaseURL: srv.URL}
	tok, err := o.Refresh(context.Background(), "rt")
	require.NoError(t, err)
	assert.Equal(t, "at2", tok.AccessToken)
}

func TestOAuthClient_MissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"refresh_token":"rt"}`))
	}))
	defer srv.Close()

	o := &OAuthClient{BaseURL: srv.URL}
	_, err := o.Refresh(context.Background(), "rt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing access_token")
}

func TestOAuthClient_Info(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/v1/access-tokens/at", r.URL.Path)
		_, _ = w.Write([]byte(`{"hub_id":4411,"user":"rep@example.com","scopes":["oauth"]}`))
	}))
	defer srv.Close()

	o := &OAuthClient{BaseURL: srv.URL}
	info, err := o.Info(context.Background(), "at")
	require.NoError(t, err)
	assert.Equal(t, int64(4411), info.HubID)
}
