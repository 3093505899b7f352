// Package signature verifies HubSpot request signatures.
package signature

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// HubSpot signature headers.
const (
	HeaderV2        = "X-HubSpot-Signature-V2"
	HeaderV3        = "X-HubSpot-Signature-V3"
	HeaderTimestamp = "X-HubSpot-Request-Timestamp"
)

// MaxAge bounds how old a v3 request timestamp may be.
const MaxAge = 5 * time.Minute

// MaxBodyBytes caps the body buffered for verification.
const MaxBodyBytes = 1 << 20

var (
	// ErrMissing is returned when a request carries no signature header.
	ErrMissing = eris.New("signature: missing")
	// ErrMismatch is returned when the signature does not match the request.
	ErrMismatch = eris.New("signature: mismatch")
	// ErrExpired is returned when a v3 timestamp is outside MaxAge.
	ErrExpired = eris.New("signature: timestamp expired")
)

// SignV2 computes hex(sha256(secret + method + url + body)).
func SignV2(secret, method, url string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(secret + method + url))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// SignV3 computes base64(hmac-sha256(secret, method + url + body + timestamp)).
func SignV3(secret, method, url string, body []byte, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(method + url))
	mac.Write(body)
	mac.Write([]byte(timestamp))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Validator checks signatures against one app secret.
type Validator struct {
	secret string
	now    func() time.Time
}

// NewValidator creates a Validator for secret.
func NewValidator(secret string) *Validator {
	return &Validator{secret: secret, now: time.Now}
}

// Verify checks the request's v3 signature when present, otherwise its v2
// signature. url must be the full URL HubSpot called.
func (v *Validator) Verify(h http.Header, method, url string, body []byte) error {
	if sig := h.Get(HeaderV3); sig != "" {
		ts := h.Get(HeaderTimestamp)
		ms, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return eris.Wrap(ErrMismatch, "signature: bad timestamp")
		}
		age := v.now().Sub(time.UnixMilli(ms))
		if age > MaxAge || age < -MaxAge {
			return ErrExpired
		}
		if !hmac.Equal([]byte(sig), []byte(SignV3(v.secret, method, url, body, ts))) {
			return ErrMismatch
		}
		return nil
	}

	if sig := h.Get(HeaderV2); sig != "" {
		if !hmac.Equal([]byte(strings.ToLower(sig)), []byte(SignV2(v.secret, method, url, body))) {
			return ErrMismatch
		}
		return nil
	}
	return ErrMissing
}

// RequestURL rebuilds the URL HubSpot signed. appURL, when set, replaces the
// scheme and host seen by the server.
func RequestURL(r *http.Request, appURL string) string {
	if appURL != "" {
		return strings.TrimRight(appURL, "/") + r.URL.RequestURI()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// Middleware rejects requests whose signature does not verify with 401.
// The body is buffered and restored for the next handler.
func (v *Validator) Middleware(appURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
					return
				}
				http.Error(w, "read body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			if err := v.Verify(r.Header, r.Method, RequestURL(r, appURL), body); err != nil {
				zap.L().Warn("rejected unsigned request",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid signature"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
