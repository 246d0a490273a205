package salesforce

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient answers SOQL queries from canned record sets.
type fakeClient struct {
	queries  []string
	accounts []AccountRecord
	opps     []OpportunityRecord
	err      error
}

func (f *fakeClient) Query(_ context.Context, soql string, out any) error {
	f.queries = append(f.queries, soql)
	if f.err != nil {
		return f.err
	}
	switch dst := out.(type) {
	case *[]AccountRecord:
		*dst = f.accounts
	case *[]OpportunityRecord:
		*dst = f.opps
	}
	return nil
}

func TestPullRows_FlattensAccountsThenOpportunities(t *testing.T) {
	client := &fakeClient{
		accounts: []AccountRecord{
			{Name: "Dallas ISD", BillingCity: "Dallas", BillingState: "TX", NumberOfEmployees: 145000, OwnerName: "Sean Johnson"},
		},
		opps: []OpportunityRecord{
			{AccountName: "Dallas ISD", StageName: "2 - Demo", Amount: 125000, Probability: 40},
		},
	}

	rows, err := PullRows(context.Background(), client, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Account row first, shaped like a CSV export.
	assert.Equal(t, "Dallas ISD", rows[0]["account_name"])
	assert.Equal(t, "TX", rows[0]["billing_state_province"])
	assert.Equal(t, "145000", rows[0]["student_count"])

	// Opportunity row follows, keyed to the same account name.
	assert.Equal(t, "Dallas ISD", rows[1]["account_name"])
	assert.Equal(t, "2 - Demo", rows[1]["stage"])
	assert.Equal(t, "125000", rows[1]["amount"])
	assert.Equal(t, "40", rows[1]["probability"])
}

func TestPullRows_RecordTypeFilter(t *testing.T) {
	client := &fakeClient{}
	_, err := PullRows(context.Background(), client, "School District")
	require.NoError(t, err)

	require.Len(t, client.queries, 2)
	assert.Contains(t, client.queries[0], "WHERE Type = 'School District'")
	assert.Contains(t, client.queries[1], "IsClosed = false")
}

func TestPullRows_EscapesRecordType(t *testing.T) {
	client := &fakeClient{}
	_, err := PullRows(context.Background(), client, "O'Brien")
	require.NoError(t, err)
	assert.True(t, strings.Contains(client.queries[0], `O\'Brien`))
}

func TestPullRows_QueryError(t *testing.T) {
	client := &fakeClient{err: errors.New("boom")}
	_, err := PullRows(context.Background(), client, "")
	assert.Error(t, err)
}

func TestAccountRecord_SkipsZeroNumerics(t *testing.T) {
	row := AccountRecord{Name: "X"}.rawRow()
	assert.NotContains(t, row, "student_count")
	assert.NotContains(t, row, "annual_recurring_revenue")
}
