// Package model defines the core data types for the territory dataset:
// raw spreadsheet rows, canonical accounts, and merge outcomes.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Variant identifies which canonical dataset an account belongs to.
type Variant string

const (
	VariantStrategic Variant = "strategic"
	VariantCustomers Variant = "customers"
)

// FileName returns the seed-data file name for the variant.
func (v Variant) FileName() string {
	if v == VariantCustomers {
		return "customers.json"
	}
	return "strategic.json"
}

// RawRow is one parsed spreadsheet row: normalized column name -> raw cell
// value. Keys are lowercased with whitespace collapsed to underscores by the
// fetcher. RawRow is the only type the Field Mapper accepts; it never leaks
// past the import boundary.
type RawRow map[string]string

// Account is a canonical account record: field name -> value. Values are
// strings except the numeric fields (lat, lng, enrollment, opp_acv, ...),
// which are float64 once parsed. Identity is the "name" field; there is no
// surrogate key.
type Account map[string]any

// Str returns the account field as a string, formatting numeric values with
// their shortest representation. Missing fields return "".
func (a Account) Str(field string) string {
	v, ok := a[field]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return formatFloat(t)
	default:
		return fmt.Sprint(v)
	}
}

// Num returns the account field as a float64 and whether it was numeric.
func (a Account) Num(field string) (float64, bool) {
	v, ok := a[field]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// Name returns the account's display name.
func (a Account) Name() string { return a.Str("name") }

// State returns the account's state, uppercased and trimmed.
func (a Account) State() string {
	return strings.ToUpper(strings.TrimSpace(a.Str("state")))
}

// AE returns the account's recorded account executive.
func (a Account) AE() string { return a.Str("ae") }

// Coordinates returns lat/lng and whether both are present.
func (a Account) Coordinates() (lat, lng float64, ok bool) {
	lat, latOK := a.Num("lat")
	lng, lngOK := a.Num("lng")
	return lat, lng, latOK && lngOK && (lat != 0 || lng != 0)
}

// SetCoordinates stores lat/lng on the account.
func (a Account) SetCoordinates(lat, lng float64) {
	a["lat"] = lat
	a["lng"] = lng
}

// IsCustomer reports whether a strategic account is also an active customer.
func (a Account) IsCustomer() bool {
	v, ok := a["is_customer"]
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true") || t == "1" || strings.EqualFold(t, "yes")
	case float64:
		return t != 0
	}
	return false
}

// Clone returns a shallow copy of the account.
func (a Account) Clone() Account {
	out := make(Account, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// formatFloat renders a numeric field the way it was written: "125000"
// round-trips as "125000", not "125000.000000". Change detection depends on
// this when comparing stored numbers against incoming strings.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
