package crm

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dealpilot/internal/deal"
	sf "github.com/sells-group/dealpilot/pkg/salesforce"
)

// Salesforce is a Backend over Opportunities. Opportunity fields are mapped
// onto the HubSpot property names the engine reads.
type Salesforce struct {
	client sf.Client
}

// NewSalesforce wraps client.
func NewSalesforce(client sf.Client) *Salesforce {
	return &Salesforce{client: client}
}

// Name implements Backend.
func (s *Salesforce) Name() string { return "salesforce" }

// GetDeal implements Reader.
func (s *Salesforce) GetDeal(ctx context.Context, dealID string) (deal.Snapshot, error) {
	opp, err := sf.FindOpportunityByID(ctx, s.client, dealID)
	if err != nil {
		return deal.Snapshot{}, eris.Wrap(err, "crm: salesforce get deal")
	}
	if opp == nil {
		return deal.Snapshot{}, eris.Wrapf(ErrDealNotFound, "crm: salesforce opportunity %s", dealID)
	}

	roles, err := sf.ListContactRoles(ctx, s.client, dealID)
	if err != nil {
		return deal.Snapshot{}, eris.Wrap(err, "crm: salesforce get deal")
	}

	return deal.NewSnapshot(opp.ID, opportunityProps(opp, len(roles))), nil
}

func opportunityProps(opp *sf.Opportunity, contacts int) map[string]string {
	props := map[string]string{
		deal.PropName:          opp.Name,
		deal.PropStage:         opp.StageName,
		deal.PropCloseDate:     opp.CloseDate,
		deal.PropOwnerID:       opp.OwnerID,
		deal.PropLastContacted: opp.LastActivityDate,
		deal.PropCreatedDate:   opp.CreatedDate,
		deal.PropLastModified:  opp.LastModifiedDate,
		deal.PropContactCount:  strconv.Itoa(contacts),
		deal.PropIsClosed:      strconv.FormatBool(opp.IsClosed),
		deal.PropIsClosedWon:   strconv.FormatBool(opp.IsWon),
	}
	if opp.Amount != nil {
		props[deal.PropAmount] = strconv.FormatFloat(*opp.Amount, 'f', -1, 64)
	}
	// Salesforce reports probability as a percentage.
	if opp.Probability != nil {
		props[deal.PropStageProbability] = strconv.FormatFloat(*opp.Probability/100, 'f', -1, 64)
	}
	return props
}

// PrimaryContact implements ContactReader. The primary contact role wins,
// otherwise the first role returned.
func (s *Salesforce) PrimaryContact(ctx context.Context, dealID string) (*Contact, error) {
	roles, err := sf.ListContactRoles(ctx, s.client, dealID)
	if err != nil {
		return nil, eris.Wrap(err, "crm: salesforce list contacts")
	}
	if len(roles) == 0 {
		return nil, nil
	}

	c, err := sf.FindContactByID(ctx, s.client, roles[0].ContactID)
	if err != nil {
		return nil, eris.Wrap(err, "crm: salesforce get contact")
	}
	if c == nil {
		return nil, nil
	}
	return &Contact{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Title:     c.Title,
	}, nil
}

var sfPriority = map[string]string{
	"HIGH":   "High",
	"MEDIUM": "Normal",
	"LOW":    "Low",
}

// CreateTask implements TaskWriter.
func (s *Salesforce) CreateTask(ctx context.Context, req TaskRequest) (string, error) {
	priority, ok := sfPriority[req.Priority]
	if !ok {
		priority = "Normal"
	}
	id, err := sf.CreateTask(ctx, s.client, sf.Task{
		Subject:     req.Subject,
		Description: req.Body,
		Priority:    priority,
		Due:         req.Due,
		OwnerID:     req.OwnerID,
		WhatID:      req.DealID,
	})
	if err != nil {
		return "", eris.Wrap(err, "crm: salesforce create task")
	}
	return id, nil
}
