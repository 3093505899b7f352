package crm

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dealpilot/internal/deal"
	"github.com/sells-group/dealpilot/pkg/hubspot"
)

var contactProperties = []string{"firstname", "lastname", "email", "jobtitle", "company"}

// HubSpot is a Backend over the HubSpot CRM API.
type HubSpot struct {
	client hubspot.Client
}

// NewHubSpot wraps client.
func NewHubSpot(client hubspot.Client) *HubSpot {
	return &HubSpot{client: client}
}

// Name implements Backend.
func (h *HubSpot) Name() string { return "hubspot" }

// GetDeal implements Reader.
func (h *HubSpot) GetDeal(ctx context.Context, dealID string) (deal.Snapshot, error) {
	obj, err := h.client.GetDeal(ctx, dealID, deal.Properties)
	if err != nil {
		if eris.Is(err, hubspot.ErrNotFound) {
			return deal.Snapshot{}, eris.Wrapf(ErrDealNotFound, "crm: hubspot deal %s", dealID)
		}
		return deal.Snapshot{}, eris.Wrap(err, "crm: hubspot get deal")
	}
	return deal.NewSnapshot(obj.ID, obj.Properties), nil
}

// PrimaryContact implements ContactReader.
func (h *HubSpot) PrimaryContact(ctx context.Context, dealID string) (*Contact, error) {
	ids, err := h.client.ListAssociations(ctx, "deals", dealID, "contacts")
	if err != nil {
		return nil, eris.Wrap(err, "crm: hubspot list contacts")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	obj, err := h.client.GetContact(ctx, ids[0], contactProperties)
	if err != nil {
		return nil, eris.Wrap(err, "crm: hubspot get contact")
	}
	p := obj.Properties
	return &Contact{
		ID:        obj.ID,
		FirstName: p["firstname"],
		LastName:  p["lastname"],
		Email:     p["email"],
		Title:     p["jobtitle"],
		Company:   p["company"],
	}, nil
}

// CreateTask implements TaskWriter.
func (h *HubSpot) CreateTask(ctx context.Context, req TaskRequest) (string, error) {
	obj, err := h.client.CreateTask(ctx, hubspot.TaskInput{
		Subject:  req.Subject,
		Body:     req.Body,
		Priority: req.Priority,
		Due:      req.Due,
		OwnerID:  req.OwnerID,
		DealID:   req.DealID,
	})
	if err != nil {
		return "", eris.Wrap(err, "crm: hubspot create task")
	}
	return obj.ID, nil
}
