package crm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dealpilot/internal/deal"
	sf "github.com/sells-group/dealpilot/pkg/salesforce"
)

func f64(v float64) *float64 { return &v }

func sfQueries(opps []sf.Opportunity, roles []sf.ContactRole, contacts []sf.Contact) func(context.Context, string, any) error {
	return func(_ context.Context, soql string, out any) error {
		switch {
		case strings.Contains(soql, "FROM OpportunityContactRole"):
			*out.(*[]sf.ContactRole) = roles
		case strings.Contains(soql, "FROM Opportunity"):
			*out.(*[]sf.Opportunity) = opps
		case strings.Contains(soql, "FROM Contact"):
			*out.(*[]sf.Contact) = contacts
		}
		return nil
	}
}

func TestSalesforce_GetDeal(t *testing.T) {
	opp := sf.Opportunity{
		ID:               "006xx",
		Name:             "Acme Renewal",
		Amount:           f64(50000),
		StageName:        "Negotiation",
		CloseDate:        "2025-07-15",
		OwnerID:          "005own",
		LastActivityDate: "2025-06-13",
		CreatedDate:      "2025-05-26T12:00:00.000+0000",
		LastModifiedDate: "2025-06-14T12:00:00.000+0000",
		Probability:      f64(80),
	}
	mc := &mockSF{queryFn: sfQueries(
		[]sf.Opportunity{opp},
		[]sf.ContactRole{{ContactID: "003a"}, {ContactID: "003b"}, {ContactID: "003c"}},
		nil,
	)}

	snap, err := NewSalesforce(mc).GetDeal(context.Background(), "006xx")
	require.NoError(t, err)
	assert.Equal(t, "006xx", snap.ID())
	assert.Equal(t, "50000", snap.GetOr(deal.PropAmount, ""))
	assert.Equal(t, "0.8", snap.GetOr(deal.PropStageProbability, ""))
	assert.Equal(t, "3", snap.GetOr(deal.PropContactCount, ""))
	assert.Equal(t, "005own", snap.GetOr(deal.PropOwnerID, ""))
	assert.False(t, snap.Closed())

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	m := deal.DeriveMetrics(snap, now)
	assert.Equal(t, 20, m.DealAge)
	days, ok := m.DaysSinceContact.Get()
	require.True(t, ok)
	assert.Equal(t, 2, days)
	p, ok := m.StageProbability.Get()
	require.True(t, ok)
	assert.InDelta(t, 0.8, p, 0.0001)
}

func TestSalesforce_GetDeal_NullFields(t *testing.T) {
	mc := &mockSF{queryFn: sfQueries([]sf.Opportunity{{ID: "006xx", Name: "Bare"}}, nil, nil)}

	snap, err := NewSalesforce(mc).GetDeal(context.Background(), "006xx")
	require.NoError(t, err)
	assert.True(t, snap.AmountMissing())
	assert.True(t, snap.ContactsMissing())
	_, ok := snap.Get(deal.PropStageProbability)
	assert.False(t, ok)
}

func TestSalesforce_GetDeal_NotFound(t *testing.T) {
	mc := &mockSF{queryFn: sfQueries(nil, nil, nil)}
	_, err := NewSalesforce(mc).GetDeal(context.Background(), "006missing")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDealNotFound))
}

func TestSalesforce_GetDeal_QueryError(t *testing.T) {
	mc := &mockSF{queryFn: func(context.Context, string, any) error { return errors.New("session expired") }}
	_, err := NewSalesforce(mc).GetDeal(context.Background(), "006xx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crm: salesforce get deal")
}

func TestSalesforce_PrimaryContact(t *testing.T) {
	mc := &mockSF{queryFn: sfQueries(
		nil,
		[]sf.ContactRole{{ContactID: "003a", IsPrimary: true}},
		[]sf.Contact{{ID: "003a", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Title: "CTO"}},
	)}

	c, err := NewSalesforce(mc).PrimaryContact(context.Background(), "006xx")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Ada Lovelace", c.Name())
	assert.Equal(t, "CTO", c.Title)

	mc.queryFn = sfQueries(nil, nil, nil)
	c, err = NewSalesforce(mc).PrimaryContact(context.Background(), "006xx")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestSalesforce_CreateTask(t *testing.T) {
	tests := []struct {
		priority string
		want     string
	}{
		{"HIGH", "High"},
		{"MEDIUM", "Normal"},
		{"LOW", "Low"},
		{"", "Normal"},
	}
	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.priority, func(t *testing.T) {
			var fields map[string]any
			mc := &mockSF{insertOneFn: func(_ context.Context, obj string, rec map[string]any) (string, error) {
				assert.Equal(t, "Task", obj)
				fields = rec
				return "00TNEW", nil
			}}

			id, err := NewSalesforce(mc).CreateTask(context.Background(), TaskRequest{
				DealID:   "006xx",
				Subject:  "Call",
				Priority: tt.priority,
				Due:      time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC),
			})
			require.NoError(t, err)
			assert.Equal(t, "00TNEW", id)
			assert.Equal(t, tt.want, fields["Priority"])
			assert.Equal(t, "006xx", fields["WhatId"])
		})
	}
}
