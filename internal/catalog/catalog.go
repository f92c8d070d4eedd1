// Package catalog loads the calculators shipped with the site.
//
// Calculators are authored as YAML documents. A document either names a Go
// builder with `func:` or declares a `conversion:` block that is interpreted
// by the generic unit conversion function.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/iwvelando/calcsite/internal/calculator"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed defs/*.yaml
var defsFS embed.FS

var (
	// ErrUnknownFunc is returned when a document names a builder that does not exist.
	ErrUnknownFunc = errors.New("unknown calculate function")

	// ErrInvalidFile wraps the error of a calculator file that could not be
	// applied. The other files of the directory are unaffected.
	ErrInvalidFile = errors.New("invalid calculator file")
)

// document is the on-disk form of one calculator.
type document struct {
	calculator.Config `yaml:",inline"`
	Func              string      `yaml:"func,omitempty"`
	Conversion        *Conversion `yaml:"conversion,omitempty"`
}

// Builder binds a config to its calculate function.
type Builder func(cfg calculator.Config) calculator.Func

var builders = map[string]Builder{
	"loan-payment":      loanPayment,
	"compound-interest": compoundInterest,
	"tip":               tip,
	"bmi":               bmi,
	"bmr":               bmr,
	"percentage":        percentage,
}

// Builders lists the names a document may use in `func:`.
func Builders() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse decodes one YAML document into a definition.
func Parse(data []byte) (calculator.Definition, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return calculator.Definition{}, fmt.Errorf("failed to decode calculator: %w", err)
	}
	if doc.ID == "" {
		return calculator.Definition{}, fmt.Errorf("calculator has no id")
	}

	switch {
	case doc.Func != "" && doc.Conversion != nil:
		return calculator.Definition{}, fmt.Errorf("calculator %s declares both func and conversion", doc.ID)
	case doc.Conversion != nil:
		if err := doc.Conversion.validate(doc.ID); err != nil {
			return calculator.Definition{}, err
		}
		if len(doc.Results) == 0 {
			doc.Results = doc.Conversion.results()
		}
		return calculator.Definition{Config: doc.Config, Calculate: doc.Conversion.Func()}, nil
	case doc.Func != "":
		build, ok := builders[doc.Func]
		if !ok {
			return calculator.Definition{}, fmt.Errorf("%w: %s (calculator %s)", ErrUnknownFunc, doc.Func, doc.ID)
		}
		return calculator.Definition{Config: doc.Config, Calculate: build(doc.Config)}, nil
	default:
		return calculator.Definition{}, fmt.Errorf("calculator %s declares neither func nor conversion", doc.ID)
	}
}

// Load returns a registry holding every embedded calculator.
func Load(logger *zap.Logger) (*calculator.Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sub, err := fs.Sub(defsFS, "defs")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded calculators: %w", err)
	}
	reg := calculator.NewRegistry(logger)
	if err := LoadFS(logger, reg, sub); err != nil {
		return nil, err
	}
	logger.Info("loaded calculator catalog",
		zap.String("op", "catalog.Load"),
		zap.Int("calculators", reg.Len()),
	)
	return reg, nil
}

// LoadFS registers every *.yaml file at the root of fsys. Any duplicate id
// or malformed document aborts the load.
func LoadFS(logger *zap.Logger, reg *calculator.Registry, fsys fs.FS) error {
	names, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return fmt.Errorf("failed to list calculators: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		def, err := Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := reg.Register(def); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		logger.Debug("loaded calculator",
			zap.String("op", "catalog.LoadFS"),
			zap.String("file", name),
			zap.String("id", def.ID),
		)
	}
	return nil
}

// LoadDir adds or overrides calculators from the YAML files in dir. Files
// that fail to parse are skipped and reported as ErrInvalidFile; the rest are
// applied. It returns the number of definitions applied.
func LoadDir(logger *zap.Logger, reg *calculator.Registry, dir string) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read calculator directory %s: %w", dir, err)
	}

	var (
		applied int
		errs    []error
	)
	for _, entry := range entries {
		if entry.IsDir() || !isDefinitionFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := loadFile(logger, reg, path); err != nil {
			errs = append(errs, err)
			continue
		}
		applied++
	}
	return applied, errors.Join(errs...)
}

func loadFile(logger *zap.Logger, reg *calculator.Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: failed to read %s: %w", ErrInvalidFile, path, err)
	}
	def, err := Parse(data)
	if err != nil {
		logger.Warn("skipping calculator file",
			zap.String("op", "catalog.LoadDir"),
			zap.String("file", path),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %s: %w", ErrInvalidFile, path, err)
	}
	existed, err := reg.Replace(def)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidFile, path, err)
	}
	logger.Info("applied calculator file",
		zap.String("op", "catalog.LoadDir"),
		zap.String("file", path),
		zap.String("id", def.ID),
		zap.Bool("override", existed),
	)
	return nil
}

func isDefinitionFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
