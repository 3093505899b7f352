// Package prompts renders the LLM prompts used by the webhook tools.
package prompts

import (
	_ "embed"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dealpilot/internal/crm"
	"github.com/sells-group/dealpilot/internal/deal"
)

//go:embed templates/draft_followup.txt
var draftFollowupTemplate string

// DefaultTone is used when the workflow does not pick one.
const DefaultTone = "professional"

// DealData is the deal as shown to the model.
type DealData struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	Amount        string `json:"amount,omitempty"`
	Stage         string `json:"stage,omitempty"`
	CloseDate     string `json:"closeDate,omitempty"`
	LastContacted string `json:"lastContacted,omitempty"`
	LastModified  string `json:"lastModified,omitempty"`
}

// NewDealData copies the prompt-relevant fields out of s.
func NewDealData(s deal.Snapshot) DealData {
	return DealData{
		ID:            s.ID(),
		Name:          s.GetOr(deal.PropName, ""),
		Amount:        s.GetOr(deal.PropAmount, ""),
		Stage:         s.GetOr(deal.PropStage, ""),
		CloseDate:     s.GetOr(deal.PropCloseDate, ""),
		LastContacted: s.GetOr(deal.PropLastContacted, ""),
		LastModified:  s.GetOr(deal.PropLastModified, ""),
	}
}

// ContactData is the contact as shown to the model.
type ContactData struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Title   string `json:"title,omitempty"`
	Company string `json:"company,omitempty"`
}

// NewContactData converts c; nil yields an empty object.
func NewContactData(c *crm.Contact) ContactData {
	if c == nil {
		return ContactData{}
	}
	return ContactData{
		Name:    c.Name(),
		Email:   c.Email,
		Title:   c.Title,
		Company: c.Company,
	}
}

// FollowupInput feeds DraftFollowup.
type FollowupInput struct {
	Tone    string
	Context string
	Deal    DealData
	Contact ContactData
}

// DraftFollowup renders the follow-up email prompt.
func DraftFollowup(in FollowupInput) (string, error) {
	tone := strings.TrimSpace(in.Tone)
	if tone == "" {
		tone = DefaultTone
	}

	dealJSON, err := json.MarshalIndent(in.Deal, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "prompts: marshal deal")
	}
	contactJSON, err := json.MarshalIndent(in.Contact, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "prompts: marshal contact")
	}

	r := strings.NewReplacer(
		"{{TONE}}", tone,
		"{{CONTEXT}}", strings.TrimSpace(in.Context),
		"{{DEAL_DATA}}", string(dealJSON),
		"{{CONTACT_DATA}}", string(contactJSON),
	)
	return r.Replace(draftFollowupTemplate), nil
}

// Draft is the model's follow-up email.
type Draft struct {
	Subject  string `json:"email_subject"`
	Body     string `json:"email_body"`
	SendTime string `json:"suggested_send_time"`
}

// Draft fallbacks for fields the model leaves out.
const (
	FallbackSubject  = "Follow-up on our conversation"
	FallbackBody     = "Draft email body"
	FallbackSendTime = "Within 24 hours"
)

// ParseDraft decodes the model reply, filling blank fields with fallbacks.
// An undecodable reply yields all fallbacks and an error.
func ParseDraft(reply string) (Draft, error) {
	var d Draft
	err := json.Unmarshal([]byte(reply), &d)
	if err != nil {
		err = eris.Wrap(err, "prompts: decode draft")
		d = Draft{}
	}
	if strings.TrimSpace(d.Subject) == "" {
		d.Subject = FallbackSubject
	}
	if strings.TrimSpace(d.Body) == "" {
		d.Body = FallbackBody
	}
	if strings.TrimSpace(d.SendTime) == "" {
		d.SendTime = FallbackSendTime
	}
	return d, err
}

// Fields returns the draft as output fields.
func (d Draft) Fields() map[string]string {
	return map[string]string{
		"email_subject":       d.Subject,
		"email_body":          d.Body,
		"suggested_send_time": d.SendTime,
	}
}
