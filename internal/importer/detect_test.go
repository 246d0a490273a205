package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edia/stratmap/internal/model"
)

func TestDetectVariant_CustomerSignalsOverride(t *testing.T) {
	rows := []model.RawRow{{"account_name": "Plano ISD", "arr": "120000", "csm": "A. Chen", "gdr": "0.98"}}
	assert.Equal(t, model.VariantCustomers, DetectVariant(rows, model.VariantStrategic))
}

func TestDetectVariant_StrategicSignalsOverride(t *testing.T) {
	rows := []model.RawRow{{"district": "Plano ISD", "superintendent": "Dr. Lee", "sis": "PowerSchool"}}
	assert.Equal(t, model.VariantStrategic, DetectVariant(rows, model.VariantCustomers))
}

func TestDetectVariant_WeakSignalKeepsDeclared(t *testing.T) {
	// One hit apiece is not enough evidence to override the operator.
	rows := []model.RawRow{{"district": "Plano ISD", "arr": "120000", "sis": "PowerSchool"}}
	assert.Equal(t, model.VariantCustomers, DetectVariant(rows, model.VariantCustomers))
	assert.Equal(t, model.VariantStrategic, DetectVariant(rows, model.VariantStrategic))
}

func TestDetectVariant_EmptyBatch(t *testing.T) {
	assert.Equal(t, model.VariantStrategic, DetectVariant(nil, model.VariantStrategic))
}
