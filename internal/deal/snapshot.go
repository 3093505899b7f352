// Package deal scores CRM deals and derives next-step recommendations.
//
// Everything in this package is a pure function of a Snapshot and an
// evaluation time. Nothing here performs I/O or keeps state between calls.
package deal

import (
	"maps"
	"strconv"
	"strings"
	"time"
)

// CRM property keys. HubSpot names are the canonical vocabulary; other CRM
// adapters map their fields onto these.
const (
	PropName             = "dealname"
	PropAmount           = "amount"
	PropStage            = "dealstage"
	PropCloseDate        = "closedate"
	PropOwnerID          = "hubspot_owner_id"
	PropLastContacted    = "notes_last_contacted"
	PropCreatedDate      = "createdate"
	PropLastModified     = "hs_lastmodifieddate"
	PropStageProbability = "hs_deal_stage_probability"
	PropContactCount     = "num_associated_contacts"
	PropNoteCount        = "num_notes"
	PropIsClosed         = "hs_is_closed"
	PropIsClosedWon      = "hs_is_closed_won"
	PropPipeline         = "pipeline"
)

// Properties lists every property the engine reads, in fetch order.
var Properties = []string{
	PropName,
	PropAmount,
	PropStage,
	PropCloseDate,
	PropOwnerID,
	PropLastContacted,
	PropCreatedDate,
	PropLastModified,
	PropStageProbability,
	PropContactCount,
	PropNoteCount,
	PropIsClosed,
	PropIsClosedWon,
	PropPipeline,
}

// Snapshot is an immutable set of CRM field values for one deal at one point
// in time. Missing keys and blank values are both treated as absent.
type Snapshot struct {
	id    string
	props map[string]string
}

// NewSnapshot copies props into a new Snapshot.
func NewSnapshot(id string, props map[string]string) Snapshot {
	return Snapshot{id: id, props: maps.Clone(props)}
}

// ID returns the CRM record id, which may be empty.
func (s Snapshot) ID() string {
	return s.id
}

// Get returns the trimmed value for key and whether it is present.
func (s Snapshot) Get(key string) (string, bool) {
	v := strings.TrimSpace(s.props[key])
	return v, v != ""
}

// GetOr returns the value for key, or fallback when absent.
func (s Snapshot) GetOr(key, fallback string) string {
	if v, ok := s.Get(key); ok {
		return v
	}
	return fallback
}

// Time parses key as a timestamp. Accepted forms are RFC 3339, a plain
// YYYY-MM-DD date (UTC midnight) and an all-digit millisecond epoch.
func (s Snapshot) Time(key string) (time.Time, bool) {
	v, ok := s.Get(key)
	if !ok {
		return time.Time{}, false
	}
	return parseTime(v)
}

// Int parses key as a base-10 integer.
func (s Snapshot) Int(key string) (int, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		// HubSpot sometimes renders counts as "3.0".
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, false
		}
		return int(f), true
	}
	return n, true
}

// Float parses key as a decimal number.
func (s Snapshot) Float(key string) (float64, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Bool reports whether key holds a truthy value.
func (s Snapshot) Bool(key string) bool {
	v, _ := s.Get(key)
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// Properties returns a copy of the raw property map.
func (s Snapshot) Properties() map[string]string {
	return maps.Clone(s.props)
}

// AmountMissing reports whether no usable deal amount is set.
func (s Snapshot) AmountMissing() bool {
	v, ok := s.Get(PropAmount)
	return !ok || v == "0"
}

// ContactsMissing reports whether no contacts are associated.
func (s Snapshot) ContactsMissing() bool {
	v, ok := s.Get(PropContactCount)
	return !ok || v == "0"
}

// Closed reports whether the deal is closed, won or lost.
func (s Snapshot) Closed() bool {
	return s.Bool(PropIsClosed) || s.Bool(PropIsClosedWon)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(v string) (time.Time, bool) {
	if isDigits(v) {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isDigits(v string) bool {
	if v == "" {
		return false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
