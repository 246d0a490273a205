package salesforce

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/edia/stratmap/internal/model"
)

// AccountRecord is the slice of a Salesforce Account the dashboard cares
// about.
type AccountRecord struct {
	ID                string  `json:"Id"`
	Name              string  `json:"Name"`
	BillingStreet     string  `json:"BillingStreet"`
	BillingCity       string  `json:"BillingCity"`
	BillingState      string  `json:"BillingState"`
	Type              string  `json:"Type"`
	NumberOfEmployees int     `json:"NumberOfEmployees"`
	AnnualRevenue     float64 `json:"AnnualRevenue"`
	OwnerName         string  `json:"Owner.Name"`
}

// OpportunityRecord is one open opportunity row, joined to its account name.
type OpportunityRecord struct {
	AccountName string  `json:"Account.Name"`
	StageName   string  `json:"StageName"`
	Amount      float64 `json:"Amount"`
	Probability float64 `json:"Probability"`
	NextStep    string  `json:"NextStep"`
	OwnerName   string  `json:"Owner.Name"`
}

var accountFields = []string{
	"Id", "Name", "BillingStreet", "BillingCity", "BillingState",
	"Type", "NumberOfEmployees", "AnnualRevenue", "Owner.Name",
}

var opportunityFields = []string{
	"Account.Name", "StageName", "Amount", "Probability",
	"NextStep", "Owner.Name",
}

// PullRows queries accounts (optionally filtered by record type) and their
// open opportunities, and flattens both into raw rows shaped like a CSV
// export: the same column names, one row per account plus one per
// opportunity, so the field mapper and reconciler treat a pull and an
// upload identically.
func PullRows(ctx context.Context, c Client, recordType string) ([]model.RawRow, error) {
	soql := fmt.Sprintf("SELECT %s FROM Account", strings.Join(accountFields, ", "))
	if recordType != "" {
		soql += fmt.Sprintf(" WHERE Type = '%s'", escapeSoql(recordType))
	}

	var accounts []AccountRecord
	if err := c.Query(ctx, soql, &accounts); err != nil {
		return nil, eris.Wrap(err, "sf: pull accounts")
	}

	oppSoql := fmt.Sprintf("SELECT %s FROM Opportunity WHERE IsClosed = false",
		strings.Join(opportunityFields, ", "))
	var opps []OpportunityRecord
	if err := c.Query(ctx, oppSoql, &opps); err != nil {
		return nil, eris.Wrap(err, "sf: pull opportunities")
	}

	rows := make([]model.RawRow, 0, len(accounts)+len(opps))
	for _, a := range accounts {
		rows = append(rows, a.rawRow())
	}
	// Opportunity rows follow their accounts so the reconciler folds them
	// into the entity the account row already produced.
	for _, o := range opps {
		rows = append(rows, o.rawRow())
	}

	zap.L().Info("sf: pulled rows",
		zap.Int("accounts", len(accounts)),
		zap.Int("opportunities", len(opps)),
	)
	return rows, nil
}

func (a AccountRecord) rawRow() model.RawRow {
	row := model.RawRow{
		"account_name":           a.Name,
		"billing_address_line_1": a.BillingStreet,
		"billing_city":           a.BillingCity,
		"billing_state_province": a.BillingState,
		"account_owner":          a.OwnerName,
	}
	if a.NumberOfEmployees > 0 {
		row["student_count"] = strconv.Itoa(a.NumberOfEmployees)
	}
	if a.AnnualRevenue > 0 {
		row["annual_recurring_revenue"] = strconv.FormatFloat(a.AnnualRevenue, 'f', -1, 64)
	}
	return row
}

func (o OpportunityRecord) rawRow() model.RawRow {
	row := model.RawRow{
		"account_name": o.AccountName,
		"stage":        o.StageName,
		"next_step":    o.NextStep,
	}
	if o.Amount > 0 {
		row["amount"] = strconv.FormatFloat(o.Amount, 'f', -1, 64)
	}
	if o.Probability > 0 {
		row["probability"] = strconv.FormatFloat(o.Probability, 'f', -1, 64)
	}
	if o.OwnerName != "" {
		row["account_owner"] = o.OwnerName
	}
	return row
}
