// Package calculator defines the declarative calculator schema and the
// evaluation contract shared by every calculator in the catalog.
//
// A calculator is a Config describing its inputs, results, presets and
// per-locale text, bound to a pure Func that maps an Input to a Result.
// Invalid input is never an error: it yields a Result with IsValid false
// and empty value maps.
package calculator

// Category groups calculators on the site.
type Category string

// Known categories.
const (
	CategoryFinance    Category = "finance"
	CategoryHealth     Category = "health"
	CategoryConversion Category = "conversion"
	CategoryMath       Category = "math"
)

// Input field types.
const (
	FieldNumber = "number"
	FieldSelect = "select"
	FieldText   = "text"
)

// Result display types.
const (
	ResultNumber   = "number"
	ResultCurrency = "currency"
	ResultPercent  = "percent"
	ResultText     = "text"
	ResultTable    = "table"
)

// Config describes one calculator. It is immutable once registered.
type Config struct {
	ID       string                 `yaml:"id" json:"id"`
	Category Category               `yaml:"category" json:"category"`
	Icon     string                 `yaml:"icon,omitempty" json:"icon,omitempty"`
	Currency string                 `yaml:"currency,omitempty" json:"currency,omitempty"`
	Inputs   []InputField           `yaml:"inputs" json:"inputs"`
	Results  []ResultField          `yaml:"results" json:"results"`
	Presets  []Preset               `yaml:"presets,omitempty" json:"presets,omitempty"`
	T        map[string]Translation `yaml:"t" json:"t,omitempty"`
}

// InputField describes one user-editable input.
type InputField struct {
	ID       string   `yaml:"id" json:"id"`
	Type     string   `yaml:"type,omitempty" json:"type"`
	Required bool     `yaml:"required,omitempty" json:"required,omitempty"`
	Signed   bool     `yaml:"signed,omitempty" json:"signed,omitempty"`
	Min      *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max      *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Step     *float64 `yaml:"step,omitempty" json:"step,omitempty"`
	Default  any      `yaml:"default,omitempty" json:"default,omitempty"`
	// UnitType names the pkg/units type whose units this field accepts.
	UnitType    string   `yaml:"unitType,omitempty" json:"unitType,omitempty"`
	DefaultUnit string   `yaml:"defaultUnit,omitempty" json:"defaultUnit,omitempty"`
	Units       []string `yaml:"units,omitempty" json:"units,omitempty"`
	Options     []string `yaml:"options,omitempty" json:"options,omitempty"`
}

// IsNumeric reports whether the field carries a number.
func (f InputField) IsNumeric() bool {
	return f.Type == "" || f.Type == FieldNumber
}

// ResultField describes one output value.
type ResultField struct {
	ID        string `yaml:"id" json:"id"`
	Type      string `yaml:"type,omitempty" json:"type"`
	Unit      string `yaml:"unit,omitempty" json:"unit,omitempty"`
	Decimals  int    `yaml:"decimals,omitempty" json:"decimals,omitempty"`
	Highlight bool   `yaml:"highlight,omitempty" json:"highlight,omitempty"`
}

// Preset is a named set of input values a user can pick instead of typing.
type Preset struct {
	ID         string            `yaml:"id" json:"id"`
	Values     map[string]any    `yaml:"values" json:"values"`
	FieldUnits map[string]string `yaml:"fieldUnits,omitempty" json:"fieldUnits,omitempty"`
}

// FAQ is one question and answer pair of a calculator page.
type FAQ struct {
	Question string `yaml:"q" json:"question"`
	Answer   string `yaml:"a" json:"answer"`
}

// Translation holds every user-facing string of a calculator for one locale.
type Translation struct {
	Title       string            `yaml:"title" json:"title"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Summary     string            `yaml:"summary,omitempty" json:"summary,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
	Results     map[string]string `yaml:"results,omitempty" json:"results,omitempty"`
	Presets     map[string]string `yaml:"presets,omitempty" json:"presets,omitempty"`
	Units       map[string]string `yaml:"units,omitempty" json:"units,omitempty"`
	Messages    map[string]string `yaml:"messages,omitempty" json:"messages,omitempty"`
	FAQ         []FAQ             `yaml:"faq,omitempty" json:"faq,omitempty"`
	Education   string            `yaml:"education,omitempty" json:"education,omitempty"`
}

// Translation groups used in Input.T.
const (
	GroupText     = "text"
	GroupLabels   = "labels"
	GroupResults  = "results"
	GroupPresets  = "presets"
	GroupUnits    = "units"
	GroupMessages = "messages"
)

// Input is the per-request calculator input.
type Input struct {
	// Values holds numbers, strings or nil keyed by input id.
	Values map[string]any `json:"values"`
	// FieldUnits holds the unit chosen for unit-aware inputs.
	FieldUnits map[string]string `json:"fieldUnits,omitempty"`
	// T holds the resolved translation groups, e.g. T["labels"]["amount"].
	T map[string]map[string]string `json:"t,omitempty"`
	// Locale selects number formatting and the translation block.
	Locale string `json:"locale,omitempty"`
}

// Metadata carries optional structured output.
type Metadata struct {
	TableData []map[string]any `json:"tableData,omitempty"`
}

// Result is the output of a calculation.
type Result struct {
	Values    map[string]float64 `json:"values"`
	Formatted map[string]string  `json:"formatted"`
	Summary   string             `json:"summary"`
	IsValid   bool               `json:"isValid"`
	Metadata  *Metadata          `json:"metadata,omitempty"`
}

// Func maps an input to a result. It must be pure and total.
type Func func(Input) Result

// Definition binds a Config to its calculate function.
type Definition struct {
	Config
	Calculate Func `yaml:"-" json:"-"`
}
