// Package importer implements the CRM import merge engine: field-name
// mapping, entity-name normalization, tiered entity matching, and the merge
// reconciler that turns an uploaded batch of rows into a pending merge.
package importer

import (
	"regexp"
	"strings"
)

// districtSuffixes lists organizational-unit suffixes stripped during name
// normalization. Order matters: longer, more specific patterns come first so
// "independent school district" is removed before the bare "district"
// abbreviations get a chance to misfire. Geographic qualifiers like "county"
// and "parish" are part of the entity name, never part of the suffix:
// "DeSoto County Schools" keeps "desoto county".
var districtSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`\s+independent school district$`),
	regexp.MustCompile(`\s+unified school district$`),
	regexp.MustCompile(`\s+consolidated school district$`),
	regexp.MustCompile(`\s+central school district$`),
	regexp.MustCompile(`\s+city school district$`),
	regexp.MustCompile(`\s+union free school district$`),
	regexp.MustCompile(`\s+public school district$`),
	regexp.MustCompile(`\s+school district$`),
	regexp.MustCompile(`\s+public schools$`),
	regexp.MustCompile(`\s+city schools$`),
	regexp.MustCompile(`\s+area schools$`),
	regexp.MustCompile(`\s+schools$`),
	regexp.MustCompile(`\s+school system$`),
	regexp.MustCompile(`\s+school board$`),
	regexp.MustCompile(`\s+isd$`),
	regexp.MustCompile(`\s+usd$`),
	regexp.MustCompile(`\s+csd$`),
	regexp.MustCompile(`\s+sd$`),
	regexp.MustCompile(`\s+ps$`),
}

var multiSpace = regexp.MustCompile(`\s{2,}`)

// NormalizeDistrictName returns the canonical key for an entity name:
// lowercase, every recognized organizational suffix stripped, whitespace
// collapsed. Idempotent and pure.
//
//	"Dallas Independent School District" -> "dallas"
//	"Dallas ISD"                         -> "dallas"
//	"DeSoto County Schools"              -> "desoto county"
func NormalizeDistrictName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))

	for _, re := range districtSuffixes {
		n = re.ReplaceAllString(n, "")
	}

	n = multiSpace.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}
