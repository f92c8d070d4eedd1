package calculator

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/iwvelando/calcsite/pkg/constants"
	"github.com/iwvelando/calcsite/pkg/validation"
)

var (
	// ErrNotFound is returned when a calculator id is not registered.
	ErrNotFound = errors.New("calculator not found")

	// ErrDuplicate is returned when a calculator id is registered twice.
	ErrDuplicate = errors.New("calculator already registered")

	// ErrPresetNotFound is returned when a preset id is not declared.
	ErrPresetNotFound = errors.New("preset not found")
)

// Invalid returns the canonical invalid result: empty maps and no summary.
func Invalid() Result {
	return Result{
		Values:    map[string]float64{},
		Formatted: map[string]string{},
	}
}

// Evaluate prepares in according to the config and runs the calculate
// function. Defaults fill missing optional values and units, a missing
// required value makes the result invalid, declared bounds are
// enforced and the locale's translation block is resolved into in.T when
// the caller did not supply one. The caller's input is never modified.
func (d Definition) Evaluate(in Input) Result {
	if d.Calculate == nil {
		return Invalid()
	}

	prepared := in.Clone()
	if prepared.Locale == "" {
		prepared.Locale = constants.DefaultLocale
	}

	for _, field := range d.Inputs {
		if _, ok := prepared.Values[field.ID]; !ok && field.Default != nil && !field.Required {
			prepared.Values[field.ID] = field.Default
		}
		if field.DefaultUnit != "" && strings.TrimSpace(prepared.FieldUnits[field.ID]) == "" {
			prepared.FieldUnits[field.ID] = field.DefaultUnit
		}
		if !fieldAccepts(field, prepared) {
			return Invalid()
		}
	}

	if prepared.T == nil {
		prepared.T = d.Localize(prepared.Locale).Groups()
	}

	result := d.Calculate(prepared)
	if !result.IsValid {
		return Invalid()
	}
	if result.Values == nil {
		result.Values = map[string]float64{}
	}
	if result.Formatted == nil {
		result.Formatted = map[string]string{}
	}
	return result
}

// fieldAccepts applies the declarative checks of one field.
func fieldAccepts(field InputField, in Input) bool {
	if len(field.Units) > 0 {
		if unit := in.FieldUnits[field.ID]; unit != "" && !slices.Contains(field.Units, unit) {
			return false
		}
	}

	if !field.IsNumeric() {
		if field.Type == FieldSelect && len(field.Options) > 0 {
			opt := in.Option(field.ID)
			if opt == "" {
				return !field.Required
			}
			return slices.Contains(field.Options, opt)
		}
		return !field.Required || in.Option(field.ID) != ""
	}

	v, ok := in.Number(field.ID)
	if !ok {
		return !field.Required
	}
	if field.Required && !field.Signed && v <= 0 {
		return false
	}
	return validation.WithinBounds(v, field.Min, field.Max)
}

// ApplyPreset merges a preset's values and units into in and returns the
// merged copy. Values the preset does not name are kept.
func (d Definition) ApplyPreset(presetID string, in Input) (Input, error) {
	for _, preset := range d.Presets {
		if preset.ID != presetID {
			continue
		}
		merged := in.Clone()
		for k, v := range preset.Values {
			merged.Values[k] = v
		}
		for k, v := range preset.FieldUnits {
			merged.FieldUnits[k] = v
		}
		return merged, nil
	}
	return in, fmt.Errorf("%w: %s/%s", ErrPresetNotFound, d.ID, presetID)
}

// Localize resolves the translation block for locale. The default locale
// block is used as a base and the most specific match is layered on top, so
// keys missing from a locale fall back to the default text.
func (c Config) Localize(locale string) Translation {
	base := c.T[constants.DefaultLocale]
	out := merge(Translation{}, base)

	locale = strings.TrimSpace(locale)
	if locale == "" || locale == constants.DefaultLocale {
		return out
	}
	if lang, _, found := strings.Cut(locale, "-"); found {
		if t, ok := c.T[lang]; ok && lang != constants.DefaultLocale {
			out = merge(out, t)
		}
	}
	if t, ok := c.T[locale]; ok {
		out = merge(out, t)
	}
	return out
}

// Locales lists the locales the config carries a block for.
func (c Config) Locales() []string {
	locales := make([]string, 0, len(c.T))
	for locale := range c.T {
		locales = append(locales, locale)
	}
	slices.Sort(locales)
	return locales
}

// Groups flattens a translation into the nested maps passed as Input.T.
func (t Translation) Groups() map[string]map[string]string {
	return map[string]map[string]string{
		GroupText: {
			"title":       t.Title,
			"description": t.Description,
			"summary":     t.Summary,
		},
		GroupLabels:   copyMap(t.Labels),
		GroupResults:  copyMap(t.Results),
		GroupPresets:  copyMap(t.Presets),
		GroupUnits:    copyMap(t.Units),
		GroupMessages: copyMap(t.Messages),
	}
}

// Label returns the label of an input, or its id when untranslated.
func (t Translation) Label(id string) string {
	if s := t.Labels[id]; s != "" {
		return s
	}
	return id
}

// ResultLabel returns the label of a result, or its id when untranslated.
func (t Translation) ResultLabel(id string) string {
	if s := t.Results[id]; s != "" {
		return s
	}
	return id
}

func merge(dst, src Translation) Translation {
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.Description != "" {
		dst.Description = src.Description
	}
	if src.Summary != "" {
		dst.Summary = src.Summary
	}
	if src.Education != "" {
		dst.Education = src.Education
	}
	if len(src.FAQ) > 0 {
		dst.FAQ = append([]FAQ(nil), src.FAQ...)
	}
	dst.Labels = overlay(dst.Labels, src.Labels)
	dst.Results = overlay(dst.Results, src.Results)
	dst.Presets = overlay(dst.Presets, src.Presets)
	dst.Units = overlay(dst.Units, src.Units)
	dst.Messages = overlay(dst.Messages, src.Messages)
	return dst
}

func overlay(dst, src map[string]string) map[string]string {
	out := copyMap(dst)
	for k, v := range src {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
