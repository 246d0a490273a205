package geocode

import (
	"regexp"
	"strings"

	"github.com/edia/stratmap/internal/model"
)

// coreNameRe chops an entity name at its organizational suffix: everything
// from "Independent School District", "ISD", etc. onward is dropped, leaving
// the part that usually doubles as a place name.
var coreNameRe = regexp.MustCompile(`(?i)\s*(Independent School District|School District|Public Schools|County Schools|City Schools|Parish Schools|ISD|USD|CSD|Schools|District).*$`)

// coreName returns the place-like part of an entity name.
func coreName(name string) string {
	return strings.TrimSpace(coreNameRe.ReplaceAllString(name, ""))
}

// BuildQueries produces the ordered list of query strings to try for a
// record lacking coordinates, most specific first:
//
//	street address + city + state
//	city + state
//	core name + state
//	core name + "County" + state
//	full name + state
//	core name + "city" + state
//	full name + "school district" + state
//
// Duplicates and variants missing a component are dropped.
func BuildQueries(rec model.Account) []string {
	name := rec.Name()
	state := rec.State()
	base := coreName(name)

	address := firstNonEmpty(rec,
		"billing_address_line_1", "address", "street_address",
		"billing_address", "mailing_address", "billing_street")
	city := firstNonEmpty(rec, "billing_city", "city", "mailing_city")

	var queries []string
	if address != "" && city != "" && state != "" {
		queries = append(queries, join(address, city, state, "USA"))
	}
	if city != "" && state != "" {
		queries = append(queries, join(city, state, "USA"))
	}
	if base != "" {
		queries = append(queries,
			join(base, state, "USA"),
			join(base+" County", state, "USA"),
		)
	}
	if name != "" {
		queries = append(queries, join(name, state, "USA"))
	}
	if base != "" {
		queries = append(queries, join(base+" city", state, "USA"))
	}
	if name != "" {
		queries = append(queries, join(name+" school district", state, "USA"))
	}

	seen := make(map[string]struct{}, len(queries))
	out := queries[:0]
	for _, q := range queries {
		if q == "" {
			continue
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}

// join assembles a query from non-empty parts; a blank leading component
// invalidates the whole variant.
func join(parts ...string) string {
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return ""
		}
	}
	return strings.Join(parts, ", ")
}

func firstNonEmpty(rec model.Account, fields ...string) string {
	for _, f := range fields {
		if v := strings.TrimSpace(rec.Str(f)); v != "" {
			return v
		}
	}
	return ""
}
