// Package output provides utilities for formatting and displaying calculator results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/iwvelando/calcsite/internal/calculator"
	"github.com/iwvelando/calcsite/pkg/constants"
	"github.com/iwvelando/calcsite/pkg/format"
)

// Report is one evaluated calculator ready to be printed.
type Report struct {
	Definition  calculator.Definition
	Translation calculator.Translation
	Locale      string
	Result      calculator.Result
}

// NewReport bundles result with the translation block resolved for locale.
func NewReport(def calculator.Definition, locale string, result calculator.Result) Report {
	return Report{Definition: def, Translation: def.Localize(locale), Locale: locale, Result: result}
}

// Write prints the report in the requested output format.
func Write(w io.Writer, outputFormat string, report Report) error {
	switch outputFormat {
	case "", constants.OutputFormatPretty:
		return PrettyFormat(w, report)
	case constants.OutputFormatCSV:
		return CsvFormat(w, report)
	case constants.OutputFormatJSON:
		return JSONFormat(w, report)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, report Report) error {
	p := format.Printer(report.Locale)
	title := report.Translation.Title
	if title == "" {
		title = report.Definition.ID
	}
	if _, err := fmt.Fprintf(w, "--- %s ---\n", title); err != nil {
		return err
	}
	if !report.Result.IsValid {
		_, err := fmt.Fprintf(w, "Input is incomplete or out of range\n")
		return err
	}

	labels := resultLabels(report)
	width := 0
	for _, label := range labels {
		if len(label.text) > width {
			width = len(label.text)
		}
	}
	for _, label := range labels {
		marker := " "
		if label.highlight {
			marker = "*"
		}
		if _, err := fmt.Fprintf(w, "%s %-*s | %s\n", marker, width, label.text, label.formatted); err != nil {
			return err
		}
	}
	if report.Result.Summary != "" {
		if _, err := fmt.Fprintf(w, "\n%s\n", report.Result.Summary); err != nil {
			return err
		}
	}

	if report.Result.Metadata != nil && len(report.Result.Metadata.TableData) > 0 {
		rows := report.Result.Metadata.TableData
		columns := tableColumns(rows)
		underscores := make([]string, len(columns))
		for i, column := range columns {
			underscores[i] = strings.Repeat("_", len(column))
		}
		if _, err := fmt.Fprintf(w, "\n%s\n%s\n", strings.Join(columns, " | "), strings.Join(underscores, " | ")); err != nil {
			return err
		}
		for _, row := range rows {
			cells := make([]string, len(columns))
			for i, column := range columns {
				cells[i] = p.Sprint(row[column])
			}
			if _, err := fmt.Fprintf(w, "%s\n", strings.Join(cells, " | ")); err != nil {
				return err
			}
		}
	}
	return nil
}

// CsvFormat outputs in comma-separated value format: one row per result with
// its raw and formatted value.
func CsvFormat(w io.Writer, report Report) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"result", "label", "value", "formatted"}); err != nil {
		return err
	}
	if report.Result.IsValid {
		for _, label := range resultLabels(report) {
			value := ""
			if v, ok := report.Result.Values[label.id]; ok {
				value = fmt.Sprintf("%g", v)
			}
			if err := writer.Write([]string{label.id, label.text, value, label.formatted}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// JSONFormat outputs the raw result as indented JSON.
func JSONFormat(w io.Writer, report Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(struct {
		ID     string            `json:"id"`
		Locale string            `json:"locale"`
		Result calculator.Result `json:"result"`
	}{report.Definition.ID, report.Locale, report.Result})
}

type resultLabel struct {
	id        string
	text      string
	formatted string
	highlight bool
}

// resultLabels lists the results that have a formatted value, in declared
// order.
func resultLabels(report Report) []resultLabel {
	var labels []resultLabel
	for _, field := range report.Definition.Results {
		formatted, ok := report.Result.Formatted[field.ID]
		if !ok {
			continue
		}
		labels = append(labels, resultLabel{
			id:        field.ID,
			text:      report.Translation.ResultLabel(field.ID),
			formatted: formatted,
			highlight: field.Highlight,
		})
	}
	return labels
}

func tableColumns(rows []map[string]any) []string {
	seen := make(map[string]struct{})
	var columns []string
	for _, row := range rows {
		for key := range row {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			columns = append(columns, key)
		}
	}
	sort.Strings(columns)
	return columns
}
