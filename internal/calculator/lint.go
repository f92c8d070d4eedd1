package calculator

import (
	"fmt"
	"slices"

	"github.com/iwvelando/calcsite/pkg/constants"
	"github.com/iwvelando/calcsite/pkg/units"
	"github.com/iwvelando/calcsite/pkg/validation"
)

// Lint reports authoring mistakes that would otherwise surface as blank or
// wrong text on the page. It never fails; each problem is one warning.
func Lint(d Definition) []string {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf("Calculator '%s': ", d.ID)+fmt.Sprintf(format, args...))
	}

	if d.ID == "" {
		warn("missing id")
	}
	if d.Category == "" {
		warn("missing category")
	}
	if d.Calculate == nil {
		warn("no calculate function bound")
	}
	if len(d.Results) == 0 {
		warn("declares no results")
	}
	if _, ok := d.T[constants.DefaultLocale]; !ok {
		warn("missing translation block for default locale %s", constants.DefaultLocale)
	}

	inputIDs := make(map[string]InputField, len(d.Inputs))
	for _, field := range d.Inputs {
		if _, dup := inputIDs[field.ID]; dup {
			warn("duplicate input id %s", field.ID)
		}
		inputIDs[field.ID] = field

		if w := validation.ValidateBounds(field.ID, field.Min, field.Max, field.Step); w != "" {
			warn("%s", w)
		}
		warnings = append(warnings, lintUnits(d.ID, field)...)
		if field.Required && field.Default != nil {
			warn("required input %s declares a default", field.ID)
		}
		if field.Type == FieldSelect && len(field.Options) == 0 {
			warn("select input %s declares no options", field.ID)
		}
	}

	resultIDs := make(map[string]struct{}, len(d.Results))
	for _, result := range d.Results {
		if _, dup := resultIDs[result.ID]; dup {
			warn("duplicate result id %s", result.ID)
		}
		resultIDs[result.ID] = struct{}{}
	}

	presetIDs := make(map[string]struct{}, len(d.Presets))
	for _, preset := range d.Presets {
		presetIDs[preset.ID] = struct{}{}
		for _, id := range sortedKeys(preset.Values) {
			if _, ok := inputIDs[id]; !ok {
				warn("preset %s sets undeclared input %s", preset.ID, id)
			}
		}
		for _, id := range sortedKeys(preset.FieldUnits) {
			unit := preset.FieldUnits[id]
			field, ok := inputIDs[id]
			if !ok {
				warn("preset %s sets unit for undeclared input %s", preset.ID, id)
				continue
			}
			if len(field.Units) > 0 && !slices.Contains(field.Units, unit) {
				warn("preset %s uses unit %s not offered by input %s", preset.ID, unit, id)
			}
		}
	}

	for _, locale := range d.Locales() {
		t := d.T[locale]
		if t.Title == "" {
			warn("locale %s: missing title", locale)
		}
		for _, field := range d.Inputs {
			if t.Labels[field.ID] == "" {
				warn("locale %s: missing label for input %s", locale, field.ID)
			}
		}
		for _, result := range d.Results {
			if t.Results[result.ID] == "" {
				warn("locale %s: missing label for result %s", locale, result.ID)
			}
		}
		for _, preset := range d.Presets {
			if t.Presets[preset.ID] == "" {
				warn("locale %s: missing name for preset %s", locale, preset.ID)
			}
		}
		for _, id := range sortedKeys(t.Presets) {
			if _, ok := presetIDs[id]; !ok {
				warn("locale %s: names unknown preset %s", locale, id)
			}
		}
	}

	return warnings
}

func lintUnits(calculatorID string, field InputField) []string {
	if field.UnitType == "" {
		if field.DefaultUnit != "" || len(field.Units) > 0 {
			return []string{fmt.Sprintf("Calculator '%s': input %s lists units without a unitType", calculatorID, field.ID)}
		}
		return nil
	}

	var warnings []string
	unitType := units.Type(field.UnitType)
	check := func(id string) {
		if _, err := units.Lookup(unitType, id); err != nil {
			warnings = append(warnings, fmt.Sprintf("Calculator '%s': input %s: %v", calculatorID, field.ID, err))
		}
	}
	for _, id := range field.Units {
		check(id)
	}
	if field.DefaultUnit != "" {
		check(field.DefaultUnit)
		if len(field.Units) > 0 && !slices.Contains(field.Units, field.DefaultUnit) {
			warnings = append(warnings, fmt.Sprintf("Calculator '%s': input %s default unit %s is not in its unit list",
				calculatorID, field.ID, field.DefaultUnit))
		}
	}
	return warnings
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
