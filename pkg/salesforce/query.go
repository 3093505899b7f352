package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Opportunity represents a Salesforce Opportunity record. Nullable numeric
// fields are pointers so a blank value stays distinguishable from zero.
type Opportunity struct {
	ID               string   `json:"Id" salesforce:"Id"`
	Name             string   `json:"Name" salesforce:"Name"`
	Amount           *float64 `json:"Amount" salesforce:"Amount"`
	StageName        string   `json:"StageName" salesforce:"StageName"`
	CloseDate        string   `json:"CloseDate" salesforce:"CloseDate"`
	OwnerID          string   `json:"OwnerId" salesforce:"OwnerId"`
	LastActivityDate string   `json:"LastActivityDate" salesforce:"LastActivityDate"`
	CreatedDate      string   `json:"CreatedDate" salesforce:"CreatedDate"`
	LastModifiedDate string   `json:"LastModifiedDate" salesforce:"LastModifiedDate"`
	Probability      *float64 `json:"Probability" salesforce:"Probability"`
	IsClosed         bool     `json:"IsClosed" salesforce:"IsClosed"`
	IsWon            bool     `json:"IsWon" salesforce:"IsWon"`
}

// ContactRole links a Contact to an Opportunity.
type ContactRole struct {
	ID        string `json:"Id" salesforce:"Id"`
	ContactID string `json:"ContactId" salesforce:"ContactId"`
	Role      string `json:"Role" salesforce:"Role"`
	IsPrimary bool   `json:"IsPrimary" salesforce:"IsPrimary"`
}

// Contact represents a Salesforce Contact record.
type Contact struct {
	ID        string `json:"Id" salesforce:"Id"`
	FirstName string `json:"FirstName" salesforce:"FirstName"`
	LastName  string `json:"LastName" salesforce:"LastName"`
	Email     string `json:"Email" salesforce:"Email"`
	Title     string `json:"Title" salesforce:"Title"`
}

// opportunityFields are the SOQL fields selected for Opportunity queries.
var opportunityFields = []string{
	"Id", "Name", "Amount", "StageName", "CloseDate", "OwnerId",
	"LastActivityDate", "CreatedDate", "LastModifiedDate", "Probability",
	"IsClosed", "IsWon",
}

var contactFields = []string{"Id", "FirstName", "LastName", "Email", "Title"}

// FindOpportunityByID queries Salesforce for an Opportunity by its ID.
// Returns nil if no opportunity is found.
func FindOpportunityByID(ctx context.Context, c Client, id string) (*Opportunity, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Opportunity WHERE Id = '%s' LIMIT 1",
		strings.Join(opportunityFields, ", "),
		escapeSoql(id),
	)

	var opps []Opportunity
	if err := c.Query(ctx, soql, &opps); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: find opportunity by id %s", id))
	}
	if len(opps) == 0 {
		return nil, nil
	}
	return &opps[0], nil
}

// ListContactRoles returns the contact roles on an Opportunity, primary first.
func ListContactRoles(ctx context.Context, c Client, opportunityID string) ([]ContactRole, error) {
	soql := fmt.Sprintf(
		"SELECT Id, ContactId, Role, IsPrimary FROM OpportunityContactRole WHERE OpportunityId = '%s' ORDER BY IsPrimary DESC",
		escapeSoql(opportunityID),
	)

	var roles []ContactRole
	if err := c.Query(ctx, soql, &roles); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: list contact roles for %s", opportunityID))
	}
	return roles, nil
}

// FindContactByID queries Salesforce for a Contact by its ID.
// Returns nil if no contact is found.
func FindContactByID(ctx context.Context, c Client, id string) (*Contact, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Contact WHERE Id = '%s' LIMIT 1",
		strings.Join(contactFields, ", "),
		escapeSoql(id),
	)

	var contacts []Contact
	if err := c.Query(ctx, soql, &contacts); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: find contact by id %s", id))
	}
	if len(contacts) == 0 {
		return nil, nil
	}
	return &contacts[0], nil
}

// escapeSoql escapes single quotes in SOQL string literals to prevent injection.
func escapeSoql(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
