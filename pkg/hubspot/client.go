// Package hubspot provides REST access to the HubSpot CRM v3/v4 APIs.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/dealpilot/internal/resilience"
)

const (
	defaultBaseURL = "https://api.hubapi.com"

	// TaskToDealAssociation is HubSpot's built-in task→deal association type.
	TaskToDealAssociation = 216
)

// ErrNotFound is returned when HubSpot responds 404 for a record.
var ErrNotFound = eris.New("hubspot: record not found")

// Client defines the HubSpot CRM operations used by the tools.
type Client interface {
	GetDeal(ctx context.Context, dealID string, properties []string) (*Object, error)
	GetContact(ctx context.Context, contactID string, properties []string) (*Object, error)
	ListAssociations(ctx context.Context, fromType, fromID, toType string) ([]string, error)
	CreateTask(ctx context.Context, task TaskInput) (*Object, error)
}

// TokenSource supplies a bearer token for each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource for private-app or developer tokens.
type StaticToken string

// Token returns the token unchanged.
func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", eris.New("hubspot: no access token configured")
	}
	return string(t), nil
}

// Object is a CRM record. Null properties decode as empty strings.
type Object struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
	CreatedAt  string            `json:"createdAt,omitempty"`
	UpdatedAt  string            `json:"updatedAt,omitempty"`
	Archived   bool              `json:"archived,omitempty"`
}

// TaskInput describes a task to create and associate with a deal.
type TaskInput struct {
	Subject  string
	Body     string
	Priority string // HIGH, MEDIUM or LOW
	Due      time.Time
	OwnerID  string
	DealID   string
}

type associationSpec struct {
	Category string `json:"associationCategory"`
	TypeID   int    `json:"associationTypeId"`
}

type associationTarget struct {
	ID string `json:"id"`
}

type association struct {
	To    associationTarget `json:"to"`
	Types []associationSpec `json:"types"`
}

type createRequest struct {
	Properties   map[string]string `json:"properties"`
	Associations []association     `json:"associations,omitempty"`
}

type associationsResponse struct {
	Results []struct {
		ToObjectID json.Number `json:"toObjectId"`
	} `json:"results"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets a per-second rate limit for API calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

type httpClient struct {
	tokens  TokenSource
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewHTTPClient returns the http.Client NewClient uses by default. Clients
// created per portal should share one through WithHTTPClient.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 15 * time.Second,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// NewClient creates a HubSpot API client authenticating with tokens.
func NewClient(tokens TokenSource, opts ...Option) Client {
	c := &httpClient{
		tokens:  tokens,
		baseURL: defaultBaseURL,
		http:    NewHTTPClient(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) GetDeal(ctx context.Context, dealID string, properties []string) (*Object, error) {
	return c.getObject(ctx, "deals", dealID, properties)
}

func (c *httpClient) GetContact(ctx context.Context, contactID string, properties []string) (*Object, error) {
	return c.getObject(ctx, "contacts", contactID, properties)
}

func (c *httpClient) getObject(ctx context.Context, objectType, id string, properties []string) (*Object, error) {
	if id == "" {
		return nil, eris.Errorf("hubspot: %s id is required", objectType)
	}
	path := fmt.Sprintf("/crm/v3/objects/%s/%s", objectType, url.PathEscape(id))
	if len(properties) > 0 {
		path += "?" + url.Values{"properties": {strings.Join(properties, ",")}}.Encode()
	}

	var obj Object
	if err := c.do(ctx, http.MethodGet, path, nil, &obj); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("hubspot: get %s %s", objectType, id))
	}
	return &obj, nil
}

func (c *httpClient) ListAssociations(ctx context.Context, fromType, fromID, toType string) ([]string, error) {
	path := fmt.Sprintf("/crm/v4/objects/%s/%s/associations/%s", fromType, url.PathEscape(fromID), toType)

	var resp associationsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("hubspot: list %s associations for %s %s", toType, fromType, fromID))
	}

	ids := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		ids = append(ids, r.ToObjectID.String())
	}
	return ids, nil
}

func (c *httpClient) CreateTask(ctx context.Context, task TaskInput) (*Object, error) {
	if task.DealID == "" {
		return nil, eris.New("hubspot: deal id is required for task")
	}

	props := map[string]string{
		"hs_task_subject":  task.Subject,
		"hs_task_body":     task.Body,
		"hs_task_status":   "NOT_STARTED",
		"hs_task_priority": task.Priority,
		"hs_timestamp":     fmt.Sprintf("%d", task.Due.UnixMilli()),
	}
	if task.OwnerID != "" {
		props["hubspot_owner_id"] = task.OwnerID
	}

	req := createRequest{
		Properties: props,
		Associations: []association{{
			To:    associationTarget{ID: task.DealID},
			Types: []associationSpec{{Category: "HUBSPOT_DEFINED", TypeID: TaskToDealAssociation}},
		}},
	}

	var obj Object
	if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/tasks", req, &obj); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("hubspot: create task for deal %s", task.DealID))
	}
	return &obj, nil
}

func (c *httpClient) do(ctx context.Context, method, path string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "hubspot: rate limit")
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return eris.Wrap(err, "hubspot: resolve token")
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return eris.Wrap(err, "hubspot: marshal request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return eris.Wrap(err, "hubspot: create request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "hubspot: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "hubspot: read response")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resilience.IsTransientStatus(resp.StatusCode):
		return resilience.NewTransientError(
			eris.Errorf("hubspot: unexpected status %d: %s", resp.StatusCode, string(respBody)),
			resp.StatusCode,
		)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return eris.Errorf("hubspot: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "hubspot: unmarshal response")
	}
	return nil
}
