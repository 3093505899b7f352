package tools

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/payload.json
var payloadSchemaJSON []byte

var payloadSchema = gojsonschema.NewBytesLoader(payloadSchemaJSON)

// ErrInvalidPayload is returned for bodies that do not match the action
// payload schema.
var ErrInvalidPayload = eris.New("tools: invalid payload")

// Payload is the body HubSpot posts to a workflow action.
type Payload struct {
	CallbackID  string         `json:"callbackId"`
	Origin      Origin         `json:"origin"`
	Object      Object         `json:"object"`
	InputFields map[string]any `json:"inputFields"`
}

// Origin identifies the portal and action definition that fired.
type Origin struct {
	PortalID           int64 `json:"portalId"`
	ActionDefinitionID int64 `json:"actionDefinitionId"`
}

// Object is the CRM record the workflow is enrolled on.
type Object struct {
	ObjectID   json.Number `json:"objectId"`
	ObjectType string      `json:"objectType"`
}

// ParsePayload validates body against the action schema and decodes it.
func ParsePayload(body []byte) (Payload, error) {
	var p Payload
	if len(bytes.TrimSpace(body)) == 0 {
		return p, eris.Wrap(ErrInvalidPayload, "tools: empty body")
	}

	result, err := gojsonschema.Validate(payloadSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return p, eris.Wrapf(ErrInvalidPayload, "tools: %v", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return p, eris.Wrapf(ErrInvalidPayload, "tools: %s", strings.Join(msgs, "; "))
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return p, eris.Wrapf(ErrInvalidPayload, "tools: decode: %v", err)
	}
	return p, nil
}

// Input returns inputFields[key] as trimmed text. Absent and null fields
// yield "".
func (p Payload) Input(key string) string {
	v, ok := p.InputFields[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// DealID returns the deal_id input, falling back to the enrolled object
// when it is a deal.
func (p Payload) DealID() string {
	if id := p.Input("deal_id"); id != "" {
		return id
	}
	if isDealObject(p.Object.ObjectType) {
		return p.Object.ObjectID.String()
	}
	return ""
}

func isDealObject(t string) bool {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "deal", "deals", "0-3":
		return true
	}
	return false
}
