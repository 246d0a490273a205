package importer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/edia/stratmap/internal/model"
)

// fieldSynonyms maps normalized CRM export column names to canonical field
// names. Exports from different report builders (and different years) label
// the same column a dozen ways; anything not listed passes through under its
// normalized name so no data is lost.
var fieldSynonyms = map[string]string{
	// Name variations
	"district_name": "name",
	"account_name":  "name",
	"district":      "name",
	"account":       "name",
	"organization":  "name",
	"org_name":      "name",
	// Location
	"latitude":  "lat",
	"longitude": "lng",
	"long":      "lng",
	// People
	"account_executive":        "ae",
	"account_owner":            "ae",
	"owner":                    "ae",
	"ae_name":                  "ae",
	"csm_name":                 "csm",
	"customer_success_manager": "csm",
	"sdr_name":                 "opp_sdr",
	"sales_develop":            "opp_sdr",
	"primary_contact":          "opp_contact",
	"contact_name":             "opp_contact",
	"contact_title":            "opp_contact_title",
	// Enrollment
	"enrollment_count":     "enrollment",
	"student_count":        "enrollment",
	"total_students":       "enrollment",
	"students":             "enrollment",
	"total_enrollment":     "enrollment",
	"students_in_d":        "enrollment",
	"students_in_district": "enrollment",
	// SIS
	"sis_platform":               "sis",
	"sis_system":                 "sis",
	"student_information_system": "sis",
	// Opportunity fields
	"opportunity_stage":       "opp_stage",
	"stage":                   "opp_stage",
	"forecast_category":       "opp_forecast",
	"forecast":                "opp_forecast",
	"active_forecast":         "opp_forecast",
	"probability":             "opp_probability",
	"probability_%":           "opp_probability",
	"probability_(%)":         "opp_probability",
	"acv":                     "opp_acv",
	"amount":                  "opp_acv",
	"opportunity_amount":      "opp_acv",
	"year_1_acv":              "opp_acv",
	"next_step":               "opp_next_step",
	"next_steps":              "opp_next_step",
	"intro_meeting_next_step": "opp_next_step",
	"last_activity_date":      "opp_last_activity",
	"competition":             "opp_competition",
	"competitors":             "opp_competition",
	"economic_buyer":          "opp_economic_buyer",
	"champion":                "opp_champion",
	"opportunity_areas":       "opp_areas",
	"areas":                   "opp_areas",
	"product_areas":           "opp_areas",
	"areas_of_interest":       "opp_areas",
	// Revenue
	"annual_recurring_revenue":               "arr",
	"active_arr":                             "arr",
	"total_active_arr":                       "arr",
	"revenue":                                "arr",
	"total_active_arr_total_12_months_ago":   "arr_12mo_ago",
	// State / address, as SFDC names them
	"billing_state_province":  "state",
	"billing_state":           "state",
	"shipping_state_province": "state",
	"shipping_state":          "state",
	"billing_address_line_1":  "address",
	"billing_address":         "address",
	"shipping_address_line_1": "address",
	"shipping_address":        "address",
	"billing_city":            "city",
	"shipping_city":           "city",
	// Customer fields
	"last_modified_date": "last_modified",
	// Leadership
	"superintendent": "superintendent",
	"super":          "superintendent",
}

// numericFields are re-parsed from string to float64 after mapping.
// Non-parseable values are left as-is; a stray "N/A" enrollment is data,
// not an error.
var numericFields = []string{
	"lat", "lng", "enrollment", "students", "opp_acv",
	"opp_probability", "arr", "gdr", "ndr", "opp_count",
}

var (
	punctToUnderscore = regexp.MustCompile(`[/()]+`)
	spaceToUnderscore = regexp.MustCompile(`\s+`)
	repeatUnderscore  = regexp.MustCompile(`_+`)
)

// MapColumnName translates a raw CRM column name to its canonical field
// name. The raw name is normalized (lowercase, slashes/parens and whitespace
// to underscores, runs collapsed, edges trimmed) and then looked up in the
// synonym table; unmapped columns keep their normalized name.
func MapColumnName(raw string) string {
	n := strings.ToLower(raw)
	n = punctToUnderscore.ReplaceAllString(n, "_")
	n = spaceToUnderscore.ReplaceAllString(n, "_")
	n = repeatUnderscore.ReplaceAllString(n, "_")
	n = strings.Trim(n, "_")
	if mapped, ok := fieldSynonyms[n]; ok {
		return mapped
	}
	return n
}

// MapRow converts a raw row into an account-shaped record with canonical
// field names and parsed numeric fields. Blank cells are dropped.
func MapRow(row model.RawRow) model.Account {
	out := make(model.Account, len(row))
	for k, v := range row {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out[MapColumnName(k)] = v
	}
	ParseNumericFields(out)
	return out
}

// ParseNumericFields converts the known numeric fields from string to
// float64 in place when parseable.
func ParseNumericFields(rec model.Account) {
	for _, field := range numericFields {
		s, ok := rec[field].(string)
		if !ok || s == "" {
			continue
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			rec[field] = f
		}
	}
}
