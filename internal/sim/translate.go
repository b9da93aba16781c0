package sim

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppadillaq/sammoo/internal/errors"
)

// Translation maps user-facing objective names, sign prefix included, to
// the simulator's internal output field names. It is configuration data:
// extra entries can be merged in from a YAML file without code changes.
type Translation map[string]string

// DefaultTranslation returns the built-in name map. The user does not
// need to know how the simulator calls its outputs internally.
func DefaultTranslation() Translation {
	return Translation{
		"LCOE":                      "lcoe_real",
		"-NPV":                      "npv",
		"Payback":                   "payback",
		"-Capacity Factor":          "capacity_factor",
		"-Savings":                  "savings_year1",
		"CF":                        "capacity_factor",
		"utility_bill_wo_sys_year1": "utility_bill_wo_sys_year1",
		"utility_bill_w_sys_year1":  "utility_bill_w_sys_year1",
		"annual_energy":             "annual_energy",
		"-annual_energy":            "annual_energy",
		"-LCS":                      "cf_discounted_savings",
		"Land Area":                 "total_land_area",
	}
}

// Resolve returns the internal field name for a user-facing objective
// name. Unmapped names fall back to the name itself with the sign prefix
// stripped.
func (t Translation) Resolve(name string) string {
	if field, ok := t[name]; ok {
		return field
	}
	return strings.TrimPrefix(name, "-")
}

// Merge overlays other onto t, other winning on conflicts.
func (t Translation) Merge(other Translation) {
	for k, v := range other {
		t[k] = v
	}
}

// LoadTranslation reads additional name mappings from a YAML file.
func LoadTranslation(path string) (Translation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "read translation file %q", path).
			WithComponent("sim")
	}

	var t Translation
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrapf(err, errors.KindConfiguration, "parse translation file %q", path).
			WithComponent("sim")
	}
	return t, nil
}
