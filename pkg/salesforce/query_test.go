package salesforce

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestFindOpportunityByID(t *testing.T) {
	t.Run("returns opportunity when found", func(t *testing.T) {
		mock := &mockClient{
			queryFn: func(_ context.Context, soql string, out any) error {
				assert.Contains(t, soql, "FROM Opportunity WHERE Id = '006xx'")
				assert.Contains(t, soql, "SELECT Id, Name, Amount")

				opps := out.(*[]Opportunity)
				*opps = []Opportunity{
					{ID: "006xx", Name: "Acme Renewal", Amount: ptr(50000), Probability: ptr(80)},
				}
				return nil
			},
		}

		opp, err := FindOpportunityByID(context.Background(), mock, "006xx")
		require.NoError(t, err)
		require.NotNil(t, opp)
		assert.Equal(t, "Acme Renewal", opp.Name)
		assert.InDelta(t, 50000, *opp.Amount, 0.001)
	})

	t.Run("returns nil when not found", func(t *testing.T) {
		mock := &mockClient{
			queryFn: func(_ context.Context, _ string, out any) error {
				*out.(*[]Opportunity) = []Opportunity{}
				return nil
			},
		}

		opp, err := FindOpportunityByID(context.Background(), mock, "006missing")
		require.NoError(t, err)
		assert.Nil(t, opp)
	})

	t.Run("returns error on query failure", func(t *testing.T) {
		mock := &mockClient{
			queryFn: func(_ context.Context, _ string, _ any) error {
				return errors.New("connection refused")
			},
		}

		opp, err := FindOpportunityByID(context.Background(), mock, "006xx")
		assert.Error(t, err)
		assert.Nil(t, opp)
		assert.Contains(t, err.Error(), "find opportunity by id")
	})

	t.Run("escapes quotes", func(t *testing.T) {
		mock := &mockClient{
			queryFn: func(_ context.Context, soql string, _ any) error {
				assert.Contains(t, soql, `Id = '006\' OR Id != \''`)
				return nil
			},
		}

		_, err := FindOpportunityByID(context.Background(), mock, "006' OR Id != '")
		require.NoError(t, err)
	})
}

func TestListContactRoles(t *testing.T) {
	mock := &mockClient{
		queryFn: func(_ context.Context, soql string, out any) error {
			assert.Contains(t, soql, "FROM OpportunityContactRole WHERE OpportunityId = '006xx'")
			*out.(*[]ContactRole) = []ContactRole{
				{ID: "00K1", ContactID: "003a", IsPrimary: true},
				{ID: "00K2", ContactID: "003b"},
			}
			return nil
		},
	}

	roles, err := ListContactRoles(context.Background(), mock, "006xx")
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.True(t, roles[0].IsPrimary)

	mock.queryFn = func(_ context.Context, _ string, _ any) error {
		return errors.New("timeout")
	}
	_, err = ListContactRoles(context.Background(), mock, "006xx")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "list contact roles")
}

func TestFindContactByID(t *testing.T) {
	mock := &mockClient{
		queryFn: func(_ context.Context, soql string, out any) error {
			assert.Contains(t, soql, "FROM Contact WHERE Id = '003a'")
			*out.(*[]Contact) = []Contact{{ID: "003a", FirstName: "Ada", LastName: "Lovelace"}}
			return nil
		},
	}

	c, err := FindContactByID(context.Background(), mock, "003a")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Ada", c.FirstName)
}

func TestEscapeSoql(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"simple", "simple"},
		{"it's", "it\\'s"},
		{"a'b'c", "a\\'b\\'c"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeSoql(tt.input))
		})
	}
}
