package signature

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	secret  = "shh"
	toolURL = "https://dealpilot.example.com/api/tools/analyze-deal"
)

func TestSignV2_KnownValue(t *testing.T) {
	a := SignV2(secret, "POST", toolURL, []byte("{}"))
	b := SignV2(secret, "POST", toolURL, []byte("{}"))
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, SignV2(secret, "POST", toolURL, []byte("{ }")))
	assert.NotEqual(t, a, SignV2("other", "POST", toolURL, []byte("{}")))
}

func TestSignV2_Empty(t *testing.T) {
	// sha256 of the empty string.
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", SignV2("", "", "", nil))
}

func TestVerify(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	body := []byte(`{"inputFields":{"deal_id":"123"}}`)
	ts := strconv.FormatInt(now.Add(-time.Minute).UnixMilli(), 10)
	stale := strconv.FormatInt(now.Add(-6*time.Minute).UnixMilli(), 10)

	tests := []struct {
		name    string
		headers map[string]string
		wantErr error
	}{
		{
			name:    "v2 valid",
			headers: map[string]string{HeaderV2: SignV2(secret, "POST", toolURL, body)},
		},
		{
			name:    "v2 uppercase hex",
			headers: map[string]string{HeaderV2: strings.ToUpper(SignV2(secret, "POST", toolURL, body))},
		},
		{
			name:    "v2 wrong secret",
			headers: map[string]string{HeaderV2: SignV2("nope", "POST", toolURL, body)},
			wantErr: ErrMismatch,
		},
		{
			name: "v3 valid",
			headers: map[string]string{
				HeaderV3:        SignV3(secret, "POST", toolURL, body, ts),
				HeaderTimestamp: ts,
			},
		},
		{
			name: "v3 expired",
			headers: map[string]string{
				HeaderV3:        SignV3(secret, "POST", toolURL, body, stale),
				HeaderTimestamp: stale,
			},
			wantErr: ErrExpired,
		},
		{
			name: "v3 bad timestamp",
			headers: map[string]string{
				HeaderV3:        "x",
				HeaderTimestamp: "yesterday",
			},
			wantErr: ErrMismatch,
		},
		{
			name: "v3 preferred over v2",
			headers: map[string]string{
				HeaderV3:        "bogus",
				HeaderTimestamp: ts,
				HeaderV2:        SignV2(secret, "POST", toolURL, body),
			},
			wantErr: ErrMismatch,
		},
		{
			name:    "missing",
			headers: map[string]string{},
			wantErr: ErrMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(secret)
			v.now = func() time.Time { return now }

			h := http.Header{}
			for k, val := range tt.headers {
				h.Set(k, val)
			}

			err := v.Verify(h, "POST", toolURL, body)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, eris.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestRequestURL(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "http://internal:8080/api/tools/analyze-deal?x=1", nil)
	assert.Equal(t, "https://dealpilot.example.com/api/tools/analyze-deal?x=1", RequestURL(r, "https://dealpilot.example.com/"))
	assert.Equal(t, "http://internal:8080/api/tools/analyze-deal?x=1", RequestURL(r, ""))

	r.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://internal:8080/api/tools/analyze-deal?x=1", RequestURL(r, ""))
}

func TestMiddleware(t *testing.T) {
	body := `{"inputFields":{"deal_id":"123"}}`
	appURL := "https://dealpilot.example.com"

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = string(b)
		w.WriteHeader(http.StatusOK)
	})
	h := NewValidator(secret).Middleware(appURL)(next)

	t.Run("valid passes body through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/tools/analyze-deal", strings.NewReader(body))
		req.Header.Set(HeaderV2, SignV2(secret, "POST", appURL+"/api/tools/analyze-deal", []byte(body)))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, body, seen)
	})

	t.Run("invalid is 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/tools/analyze-deal", strings.NewReader(body))
		req.Header.Set(HeaderV2, "deadbeef")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid signature"}`, rec.Body.String())
	})

	t.Run("oversized body is 413", func(t *testing.T) {
		seen = ""
		big := strings.Repeat("x", MaxBodyBytes+1)
		req := httptest.NewRequest(http.MethodPost, "/api/tools/analyze-deal", strings.NewReader(big))
		req.Header.Set(HeaderV2, SignV2(secret, "POST", appURL+"/api/tools/analyze-deal", []byte(big)))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Empty(t, seen)
	})
}
