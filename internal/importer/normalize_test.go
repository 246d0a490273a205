package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDistrictName_StripsISDSuffixes(t *testing.T) {
	assert.Equal(t, "dallas", NormalizeDistrictName("Dallas Independent School District"))
	assert.Equal(t, "dallas", NormalizeDistrictName("Dallas ISD"))
	assert.Equal(t, "desoto county", NormalizeDistrictName("DeSoto County Schools"))
	assert.Equal(t, "desoto county", NormalizeDistrictName("DeSoto County School District"))
}

func TestNormalizeDistrictName_LongestPatternFirst(t *testing.T) {
	// "union free school district" must be stripped whole, not leave
	// "union free" -> stripped "school district" only.
	assert.Equal(t, "half hollow hills", NormalizeDistrictName("Half Hollow Hills Central School District"))
	assert.Equal(t, "ascension parish", NormalizeDistrictName("Ascension Parish School Board"))
	assert.Equal(t, "topeka", NormalizeDistrictName("Topeka USD"))
}

func TestNormalizeDistrictName_Idempotent(t *testing.T) {
	inputs := []string{
		"Dallas Independent School District",
		"DeSoto County Schools",
		"Springfield",
		"  Plano ISD  ",
		"",
	}
	for _, in := range inputs {
		once := NormalizeDistrictName(in)
		assert.Equal(t, once, NormalizeDistrictName(once), "input %q", in)
	}
}

func TestNormalizeDistrictName_KeepsGeographicQualifiers(t *testing.T) {
	// "county" and "parish" belong to the entity, not the suffix: stripping
	// them would collide "DeSoto County Schools" with a city named DeSoto.
	assert.Equal(t, "desoto county", NormalizeDistrictName("DeSoto County Public Schools"))
	assert.Equal(t, "ascension parish", NormalizeDistrictName("Ascension Parish School System"))
	assert.Equal(t, "desoto county", NormalizeDistrictName("desoto county"))
}

func TestNormalizeDistrictName_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "los angeles", NormalizeDistrictName("  Los   Angeles  Unified School District "))
}

func TestNormalizeDistrictName_NoSuffix(t *testing.T) {
	assert.Equal(t, "springfield", NormalizeDistrictName("Springfield"))
}
