package catalog

import (
	"fmt"

	"github.com/iwvelando/calcsite/internal/calculator"
	"github.com/iwvelando/calcsite/pkg/format"
	"github.com/iwvelando/calcsite/pkg/mathutil"
	"github.com/iwvelando/calcsite/pkg/units"
)

// inputDecimals bounds the precision an echoed input is shown with.
const inputDecimals = 6

// Conversion declares a unit converter: one numeric input converted into
// one or more target units of the same type.
type Conversion struct {
	// Input is the id of the numeric input field holding the amount.
	Input    string `yaml:"input"`
	UnitType string `yaml:"unitType"`
	// From is the source unit used when the input carries no unit choice.
	From    string   `yaml:"from,omitempty"`
	Targets []Target `yaml:"targets"`
	// Signed accepts zero and negative amounts, e.g. temperatures.
	Signed bool `yaml:"signed,omitempty"`
	// Table lists source amounts rendered as a reference table.
	Table []float64 `yaml:"table,omitempty"`
}

// Target is one output unit of a conversion.
type Target struct {
	ID       string `yaml:"id"`
	Unit     string `yaml:"unit"`
	Decimals int    `yaml:"decimals,omitempty"`
}

func (c *Conversion) validate(calculatorID string) error {
	if c.Input == "" {
		return fmt.Errorf("calculator %s: conversion has no input", calculatorID)
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("calculator %s: conversion has no targets", calculatorID)
	}
	unitType := units.Type(c.UnitType)
	if c.From != "" {
		if _, err := units.Lookup(unitType, c.From); err != nil {
			return fmt.Errorf("calculator %s: %w", calculatorID, err)
		}
	}
	for _, target := range c.Targets {
		if target.ID == "" {
			return fmt.Errorf("calculator %s: conversion target has no id", calculatorID)
		}
		if _, err := units.Lookup(unitType, target.Unit); err != nil {
			return fmt.Errorf("calculator %s: target %s: %w", calculatorID, target.ID, err)
		}
	}
	return nil
}

// results derives result descriptors from the targets; the first target is
// highlighted.
func (c *Conversion) results() []calculator.ResultField {
	fields := make([]calculator.ResultField, 0, len(c.Targets))
	for i, target := range c.Targets {
		fields = append(fields, calculator.ResultField{
			ID:        target.ID,
			Type:      calculator.ResultNumber,
			Unit:      target.Unit,
			Decimals:  target.Decimals,
			Highlight: i == 0,
		})
	}
	if len(c.Table) > 0 {
		fields = append(fields, calculator.ResultField{ID: "table", Type: calculator.ResultTable})
	}
	return fields
}

// Func returns the calculate function of the conversion. Each target value
// is kept unrounded in Values; Formatted carries the rounded amount and the
// unit symbol. The summary template may reference the input id, {from} and
// every target id.
func (c Conversion) Func() calculator.Func {
	unitType := units.Type(c.UnitType)
	return func(in calculator.Input) calculator.Result {
		amount, ok := in.Number(c.Input)
		if !ok || (!c.Signed && !mathutil.IsPositive(amount)) {
			return calculator.Invalid()
		}
		from, err := units.Lookup(unitType, in.Unit(c.Input, c.From))
		if err != nil {
			return calculator.Invalid()
		}
		base := from.ToBase(amount)
		if !units.Attainable(unitType, base) {
			return calculator.Invalid()
		}

		result := calculator.Result{
			Values:    make(map[string]float64, len(c.Targets)),
			Formatted: make(map[string]string, len(c.Targets)),
			IsValid:   true,
		}
		vars := map[string]string{
			c.Input: format.Number(in.Locale, amount, inputDecimals),
			"from":  symbol(in, from),
		}
		for _, target := range c.Targets {
			to, err := units.Lookup(unitType, target.Unit)
			if err != nil {
				return calculator.Invalid()
			}
			value := to.FromBase(base)
			if !mathutil.IsFinite(value) {
				return calculator.Invalid()
			}
			result.Values[target.ID] = value
			result.Formatted[target.ID] = format.WithUnit(in.Locale, value, target.Decimals, symbol(in, to))
			vars[target.ID] = result.Formatted[target.ID]
		}
		result.Summary = format.Template(in.T[calculator.GroupText]["summary"], vars)

		if len(c.Table) > 0 {
			result.Metadata = &calculator.Metadata{TableData: c.table(from)}
		}
		return result
	}
}

// table converts every reference amount, expressed in the selected source
// unit, into the targets.
func (c Conversion) table(from units.Unit) []map[string]any {
	rows := make([]map[string]any, 0, len(c.Table))
	for _, amount := range c.Table {
		row := map[string]any{c.Input: amount}
		base := from.ToBase(amount)
		for _, target := range c.Targets {
			to, err := units.Lookup(units.Type(c.UnitType), target.Unit)
			if err != nil {
				continue
			}
			row[target.ID] = mathutil.RoundTo(to.FromBase(base), target.Decimals)
		}
		rows = append(rows, row)
	}
	return rows
}

// symbol returns the translated unit symbol when the locale provides one.
func symbol(in calculator.Input, u units.Unit) string {
	if s := in.T[calculator.GroupUnits][u.ID]; s != "" {
		return s
	}
	return u.Symbol
}
