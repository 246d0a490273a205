package importer

import (
	"go.uber.org/zap"

	"github.com/edia/stratmap/internal/model"
)

// Column signals that only ever appear in one export flavor. Customer
// reports carry revenue/CSM columns; strategic (prospect) reports carry
// district-research columns.
var (
	customerSignals = []string{
		"arr", "active_arr", "annual_recurring_revenue", "revenue",
		"csm", "csm_name", "customer_success_manager",
		"segment", "gdr", "ndr", "lapsed_renewal", "arr_12mo_ago",
	}
	strategicSignals = []string{
		"superintendent", "super", "sis", "sis_platform", "sis_system",
		"ada_adm", "math_products", "attendance",
	}
)

// DetectVariant inspects the first row's columns and auto-detects which
// dataset an upload belongs to, overriding the caller's declared variant
// when the signal is unambiguous: at least two hits and a strict majority
// for one flavor. Ties and weak signals keep the declared variant.
func DetectVariant(rows []model.RawRow, declared model.Variant) model.Variant {
	if len(rows) == 0 {
		return declared
	}
	cols := make(map[string]struct{}, len(rows[0]))
	for k := range rows[0] {
		cols[k] = struct{}{}
	}

	custHits := countHits(cols, customerSignals)
	stratHits := countHits(cols, strategicSignals)

	switch {
	case custHits > stratHits && custHits >= 2:
		if declared != model.VariantCustomers {
			zap.L().Info("import: auto-detected customer data",
				zap.Int("signals", custHits))
		}
		return model.VariantCustomers
	case stratHits > custHits && stratHits >= 2:
		if declared != model.VariantStrategic {
			zap.L().Info("import: auto-detected strategic data",
				zap.Int("signals", stratHits))
		}
		return model.VariantStrategic
	default:
		zap.L().Debug("import: could not auto-detect variant",
			zap.Int("customer_signals", custHits),
			zap.Int("strategic_signals", stratHits),
			zap.String("declared", string(declared)),
		)
		return declared
	}
}

func countHits(cols map[string]struct{}, signals []string) int {
	n := 0
	for _, s := range signals {
		if _, ok := cols[s]; ok {
			n++
		}
	}
	return n
}
