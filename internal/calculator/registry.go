package calculator

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry is the catalog of calculators. It is safe for concurrent use;
// definitions are read-only once registered.
type Registry struct {
	logger *zap.Logger

	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{logger: logger, defs: make(map[string]Definition)}
}

// Register adds a definition. Registering an id twice fails with ErrDuplicate.
func (r *Registry) Register(def Definition) error {
	if def.ID == "" {
		return fmt.Errorf("calculator id cannot be empty")
	}
	if def.Calculate == nil {
		return fmt.Errorf("calculator %s has no calculate function", def.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, def.ID)
	}
	r.defs[def.ID] = def
	r.logger.Debug("registered calculator",
		zap.String("op", "calculator.Register"),
		zap.String("id", def.ID),
		zap.String("category", string(def.Category)),
	)
	return nil
}

// Replace adds or overwrites a definition, returning whether one existed.
func (r *Registry) Replace(def Definition) (bool, error) {
	if def.ID == "" {
		return false, fmt.Errorf("calculator id cannot be empty")
	}
	if def.Calculate == nil {
		return false, fmt.Errorf("calculator %s has no calculate function", def.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, existed := r.defs[def.ID]
	r.defs[def.ID] = def
	r.logger.Debug("replaced calculator",
		zap.String("op", "calculator.Replace"),
		zap.String("id", def.ID),
		zap.Bool("existed", existed),
	)
	return existed, nil
}

// Get returns the definition registered under id.
func (r *Registry) Get(id string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[id]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return def, nil
}

// Len returns the number of registered calculators.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// List returns every definition ordered by category and then id.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	list := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		list = append(list, def)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].Category != list[j].Category {
			return list[i].Category < list[j].Category
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// ByCategory returns the definitions of one category ordered by id.
func (r *Registry) ByCategory(category Category) []Definition {
	var out []Definition
	for _, def := range r.List() {
		if def.Category == category {
			out = append(out, def)
		}
	}
	return out
}

// Categories returns the distinct categories in use, sorted.
func (r *Registry) Categories() []Category {
	seen := make(map[Category]struct{})
	var out []Category
	for _, def := range r.List() {
		if _, ok := seen[def.Category]; ok {
			continue
		}
		seen[def.Category] = struct{}{}
		out = append(out, def.Category)
	}
	return out
}

// Evaluate runs the calculator registered under id.
func (r *Registry) Evaluate(id string, in Input) (Result, error) {
	def, err := r.Get(id)
	if err != nil {
		return Result{}, err
	}
	return def.Evaluate(in), nil
}

// Lint lints every registered calculator.
func (r *Registry) Lint() []string {
	var warnings []string
	for _, def := range r.List() {
		warnings = append(warnings, Lint(def)...)
	}
	return warnings
}
