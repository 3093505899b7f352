// Package crm adapts CRM backends to the deal engine's Snapshot vocabulary.
package crm

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dealpilot/internal/deal"
)

// ErrDealNotFound is returned when the backend has no record for a deal id.
var ErrDealNotFound = eris.New("crm: deal not found")

// Reader fetches a deal's current field values.
type Reader interface {
	GetDeal(ctx context.Context, dealID string) (deal.Snapshot, error)
}

// ContactReader fetches the first contact associated with a deal.
// A deal without contacts yields (nil, nil).
type ContactReader interface {
	PrimaryContact(ctx context.Context, dealID string) (*Contact, error)
}

// TaskWriter records a follow-up task against a deal and returns its id.
type TaskWriter interface {
	CreateTask(ctx context.Context, req TaskRequest) (string, error)
}

// Backend is a complete CRM integration.
type Backend interface {
	Reader
	ContactReader
	TaskWriter
	Name() string
}

// Contact is the subset of contact fields the tools use.
type Contact struct {
	ID        string `json:"-"`
	FirstName string `json:"-"`
	LastName  string `json:"-"`
	Email     string `json:"email,omitempty"`
	Title     string `json:"title,omitempty"`
	Company   string `json:"company,omitempty"`
}

// Name joins first and last name, skipping blanks.
func (c *Contact) Name() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// TaskRequest describes a task to create.
type TaskRequest struct {
	DealID   string
	OwnerID  string
	Subject  string
	Body     string
	Priority string // HIGH, MEDIUM or LOW
	Due      time.Time
}
