package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iwvelando/calcsite/internal/calculator"
	"github.com/iwvelando/calcsite/pkg/constants"
	"github.com/iwvelando/calcsite/pkg/output"
	"github.com/iwvelando/calcsite/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errInvalidInput = errors.New("input is incomplete or out of range")

func newListCmd(a *app) *cobra.Command {
	var category, locale string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the calculators in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, _, err := a.loadRegistry()
			if err != nil {
				return err
			}
			if locale == "" {
				locale = a.conf.Locales.Default
			}

			defs := reg.List()
			if category != "" {
				defs = reg.ByCategory(calculator.Category(category))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-24s | %-10s | %s\n", "ID", "Category", "Title")
			fmt.Fprintf(out, "%-24s | %-10s | %s\n", "__", "________", "_____")
			for _, def := range defs {
				fmt.Fprintf(out, "%-24s | %-10s | %s\n", def.ID, def.Category, def.Localize(locale).Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list calculators of this category")
	cmd.Flags().StringVar(&locale, "locale", "", "locale of the titles")
	return cmd
}

// parseValues turns --value flags into input values. Numeric text becomes a
// number; anything else is kept as an option string.
func parseValues(raw map[string]string) map[string]any {
	values := make(map[string]any, len(raw))
	for id, text := range raw {
		if n, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			values[id] = n
			continue
		}
		values[id] = text
	}
	return values
}

func newCalcCmd(a *app) *cobra.Command {
	var (
		rawValues    map[string]string
		fieldUnits   map[string]string
		locale       string
		preset       string
		outputFormat string
	)
	cmd := &cobra.Command{
		Use:   "calc <calculator-id>",
		Short: "Run one calculator and print its result",
		Example: `  calcsite calc mph-to-kmh --value amount=60
  calcsite calc fanegadas-to-hectares --preset small-farm --locale es
  calcsite calc bmi --value weight=70 --value height=175 --output-format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := a.conf.Output.Format
			if outputFormat != "" {
				format = outputFormat
			}
			if format == "" {
				format = constants.OutputFormatPretty
			}
			if err := validation.ValidateOutputFormat(format); err != nil {
				return err
			}

			reg, _, err := a.loadRegistry()
			if err != nil {
				return err
			}
			def, err := reg.Get(args[0])
			if err != nil {
				return err
			}

			if locale == "" {
				locale = a.conf.Locales.Default
			}
			in := calculator.Input{
				Values:     parseValues(rawValues),
				FieldUnits: fieldUnits,
				Locale:     locale,
			}
			if preset != "" {
				// Explicit values win over the preset's.
				merged, err := def.ApplyPreset(preset, calculator.Input{Locale: locale})
				if err != nil {
					return err
				}
				for k, v := range in.Values {
					merged.Values[k] = v
				}
				for k, v := range in.FieldUnits {
					merged.FieldUnits[k] = v
				}
				in = merged
			}

			result := def.Evaluate(in)
			a.logger.Debug("evaluated calculator",
				zap.String("op", "main.calc"),
				zap.String("id", def.ID),
				zap.String("locale", locale),
				zap.Bool("valid", result.IsValid),
			)

			if err := output.Write(cmd.OutOrStdout(), format, output.NewReport(def, locale, result)); err != nil {
				return err
			}
			if !result.IsValid {
				return errInvalidInput
			}
			return nil
		},
	}
	cmd.Flags().StringToStringVar(&rawValues, "value", nil, "input value as id=value, repeatable")
	cmd.Flags().StringToStringVar(&fieldUnits, "unit", nil, "input unit as id=unit, repeatable")
	cmd.Flags().StringVar(&locale, "locale", "", "locale for labels and number formatting")
	cmd.Flags().StringVar(&preset, "preset", "", "apply a named preset before the given values")
	cmd.Flags().StringVar(&outputFormat, "output-format", "", "type of output override: pretty, csv, json")
	return cmd
}

func newLintCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Check every calculator for missing text and inconsistent declarations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, problems, err := a.loadRegistry()
			if err != nil {
				return err
			}
			warnings := append(problems, reg.Lint()...)
			for _, warning := range warnings {
				fmt.Fprintln(cmd.OutOrStdout(), warning)
			}
			if len(warnings) > 0 {
				return fmt.Errorf("%d lint warnings across %d calculators", len(warnings), reg.Len())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d calculators, no warnings\n", reg.Len())
			return nil
		},
	}
}
