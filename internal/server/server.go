// Package server exposes the calculator catalog over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/calcsite/internal/calculator"
	"github.com/iwvelando/calcsite/internal/history"
	"github.com/iwvelando/calcsite/pkg/constants"
	"github.com/iwvelando/calcsite/pkg/units"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// HistoryStore persists saved calculations.
type HistoryStore interface {
	Save(ctx context.Context, entry history.Entry) (history.Entry, error)
	Get(ctx context.Context, id string) (history.Entry, error)
	List(ctx context.Context, calculatorID string, limit int) ([]history.Entry, error)
	Delete(ctx context.Context, id string) error
}

// Options configures the handler. A nil History disables the history API
// and a non-positive RateLimit disables rate limiting.
type Options struct {
	Registry      *calculator.Registry
	History       HistoryStore
	HistoryLimit  int
	DefaultLocale string
	Locales       []string
	MaxUploadSize int64
	RateLimit     float64
	RateBurst     int
	Version       string
}

type handler struct {
	logger        *zap.Logger
	registry      *calculator.Registry
	history       HistoryStore
	historyLimit  int
	defaultLocale string
	locales       []string
	matcher       language.Matcher
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the calculator API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Registry == nil {
		opts.Registry = calculator.NewRegistry(logger)
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = constants.DefaultMaxUploadSizeBytes
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = constants.DefaultHistoryLimit
	}
	if opts.DefaultLocale == "" {
		opts.DefaultLocale = constants.DefaultLocale
	}
	if len(opts.Locales) == 0 {
		opts.Locales = []string{opts.DefaultLocale}
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	// The default locale goes first so unmatched requests fall back to it.
	locales := []string{opts.DefaultLocale}
	for _, l := range opts.Locales {
		if l != opts.DefaultLocale {
			locales = append(locales, l)
		}
	}
	tags := make([]language.Tag, 0, len(locales))
	for _, l := range locales {
		tags = append(tags, language.Make(l))
	}

	h := &handler{
		logger:        logger,
		registry:      opts.Registry,
		history:       opts.History,
		historyLimit:  opts.HistoryLimit,
		defaultLocale: opts.DefaultLocale,
		locales:       locales,
		matcher:       language.NewMatcher(tags),
		maxUploadSize: opts.MaxUploadSize,
		version:       trimmedVersion,
	}

	router := httprouter.New()
	router.GET("/api/version", h.handleVersion)
	router.GET("/api/units", h.handleUnits)
	router.GET("/api/calculators", h.handleList)
	router.GET("/api/calculators/:id", h.handleGet)
	router.GET("/api/calculators/:id/lint", h.handleLint)
	router.GET("/api/calculators/:id/export", h.handleExport)
	router.POST("/api/calculators/:id/calculate", h.handleCalculate)
	router.GET("/api/history", h.handleHistoryList)
	router.POST("/api/history", h.handleHistorySave)
	router.GET("/api/history/:id", h.handleHistoryGet)
	router.DELETE("/api/history/:id", h.handleHistoryDelete)
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.respondErrorWithOp(w, http.StatusNotFound, "no such endpoint: "+r.URL.Path, "server.notFound")
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("internal error: %v", v), "server.panic")
	}

	if opts.RateLimit > 0 {
		return newRateLimiter(logger, opts.RateLimit, opts.RateBurst).middleware(router)
	}
	return router
}

// resolveLocale picks the locale of a request: an explicit locale wins over
// the Accept-Language header and is returned in canonical BCP 47 form.
// Unsupported locales resolve to the default.
func (h *handler) resolveLocale(r *http.Request, explicit string) string {
	explicit = strings.TrimSpace(explicit)
	if explicit == "" {
		explicit = strings.TrimSpace(r.URL.Query().Get("locale"))
	}
	if explicit != "" {
		tag, err := language.Parse(explicit)
		if err != nil {
			return h.defaultLocale
		}
		if _, _, confidence := h.matcher.Match(tag); confidence == language.No {
			return h.defaultLocale
		}
		return tag.String()
	}

	accepted, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(accepted) == 0 {
		return h.defaultLocale
	}
	_, index, confidence := h.matcher.Match(accepted...)
	if confidence == language.No {
		return h.defaultLocale
	}
	return h.locales[index]
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

type calculatorSummary struct {
	ID          string              `json:"id"`
	Category    calculator.Category `json:"category"`
	Icon        string              `json:"icon,omitempty"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
}

type listResponse struct {
	Locale      string                `json:"locale"`
	Categories  []calculator.Category `json:"categories"`
	Calculators []calculatorSummary   `json:"calculators"`
}

func (h *handler) handleList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	locale := h.resolveLocale(r, "")
	defs := h.registry.List()
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		defs = h.registry.ByCategory(calculator.Category(category))
	}

	response := listResponse{
		Locale:      locale,
		Categories:  h.registry.Categories(),
		Calculators: make([]calculatorSummary, 0, len(defs)),
	}
	for _, def := range defs {
		t := def.Localize(locale)
		response.Calculators = append(response.Calculators, calculatorSummary{
			ID:          def.ID,
			Category:    def.Category,
			Icon:        def.Icon,
			Title:       t.Title,
			Description: t.Description,
		})
	}
	h.writeJSON(w, http.StatusOK, response)
}

type detailResponse struct {
	calculator.Config
	Locale      string                  `json:"locale"`
	Translation calculator.Translation  `json:"translation"`
	Locales     []string                `json:"locales"`
	UnitChoices map[string][]unitChoice `json:"unitChoices,omitempty"`
}

type unitChoice struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
}

type unitGroup struct {
	Type  units.Type   `json:"type"`
	Units []unitChoice `json:"units"`
}

// unitChoices lists the units an input offers, smallest first, with symbols
// from the translation when it overrides them. An input without a unit list
// offers every unit of its type.
func unitChoices(field calculator.InputField, t calculator.Translation) []unitChoice {
	var choices []unitChoice
	for _, u := range units.Units(units.Type(field.UnitType)) {
		if len(field.Units) > 0 && !slices.Contains(field.Units, u.ID) {
			continue
		}
		symbol := u.Symbol
		if s := t.Units[u.ID]; s != "" {
			symbol = s
		}
		choices = append(choices, unitChoice{ID: u.ID, Symbol: symbol})
	}
	return choices
}

func (h *handler) handleUnits(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	types := units.Types()
	groups := make([]unitGroup, 0, len(types))
	for _, t := range types {
		group := unitGroup{Type: t}
		for _, u := range units.Units(t) {
			group.Units = append(group.Units, unitChoice{ID: u.ID, Symbol: u.Symbol})
		}
		groups = append(groups, group)
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"types": groups,
	})
}

func (h *handler) lookup(w http.ResponseWriter, ps httprouter.Params, op string) (calculator.Definition, bool) {
	def, err := h.registry.Get(ps.ByName("id"))
	if err != nil {
		if errors.Is(err, calculator.ErrNotFound) {
			h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		} else {
			h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		}
		return calculator.Definition{}, false
	}
	return def, true
}

func (h *handler) handleGet(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	def, ok := h.lookup(w, ps, "server.handleGet")
	if !ok {
		return
	}
	locale := h.resolveLocale(r, "")

	t := def.Localize(locale)
	choices := make(map[string][]unitChoice)
	for _, field := range def.Inputs {
		if field.UnitType == "" {
			continue
		}
		choices[field.ID] = unitChoices(field, t)
	}

	cfg := def.Config
	cfg.T = nil
	h.writeJSON(w, http.StatusOK, detailResponse{
		Config:      cfg,
		Locale:      locale,
		Translation: t,
		Locales:     def.Locales(),
		UnitChoices: choices,
	})
}

func (h *handler) handleLint(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	def, ok := h.lookup(w, ps, "server.handleLint")
	if !ok {
		return
	}
	warnings := calculator.Lint(def)
	if warnings == nil {
		warnings = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":       def.ID,
		"warnings": warnings,
	})
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	def, ok := h.lookup(w, ps, "server.handleExport")
	if !ok {
		return
	}
	yamlBytes, err := yaml.Marshal(def.Config)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode calculator: %v", err), "server.handleExport")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

type calculateRequest struct {
	Values     map[string]interface{} `json:"values"`
	FieldUnits map[string]string      `json:"fieldUnits,omitempty"`
	Locale     string                 `json:"locale,omitempty"`
	Preset     string                 `json:"preset,omitempty"`
	Save       interface{}            `json:"save,omitempty"`
	Label      string                 `json:"label,omitempty"`
}

type calculateResponse struct {
	calculator.Result
	CalculatorID string `json:"calculatorId"`
	Locale       string `json:"locale"`
	EntryID      string `json:"entryId,omitempty"`
}

func (h *handler) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	const op = "server.handleCalculate"
	start := time.Now()

	def, ok := h.lookup(w, ps, op)
	if !ok {
		return
	}
	var req calculateRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}

	in := calculator.Input{
		Values:     req.Values,
		FieldUnits: req.FieldUnits,
		Locale:     h.resolveLocale(r, req.Locale),
	}
	if req.Preset != "" {
		merged, err := def.ApplyPreset(req.Preset, in)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
			return
		}
		in = merged
	}

	result := def.Evaluate(in)
	response := calculateResponse{Result: result, CalculatorID: def.ID, Locale: in.Locale}

	if coerceBool(req.Save) && result.IsValid {
		if h.history == nil {
			h.respondErrorWithOp(w, http.StatusNotImplemented, "history is disabled", op)
			return
		}
		entry, err := h.history.Save(r.Context(), history.Entry{
			CalculatorID: def.ID,
			Locale:       in.Locale,
			Label:        req.Label,
			Values:       in.Values,
			FieldUnits:   in.FieldUnits,
			Result:       result,
		})
		if err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
			return
		}
		response.EntryID = entry.ID
	}

	h.logger.Debug("calculation evaluated",
		zap.String("op", op),
		zap.String("id", def.ID),
		zap.String("locale", in.Locale),
		zap.Bool("valid", result.IsValid),
		zap.Duration("duration", time.Since(start)),
	)
	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) historyEnabled(w http.ResponseWriter, op string) bool {
	if h.history == nil {
		h.respondErrorWithOp(w, http.StatusNotImplemented, "history is disabled", op)
		return false
	}
	return true
}

func (h *handler) respondHistoryError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, history.ErrNotFound) {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}
	h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
}

type saveRequest struct {
	CalculatorID string                 `json:"calculatorId"`
	Values       map[string]interface{} `json:"values"`
	FieldUnits   map[string]string      `json:"fieldUnits,omitempty"`
	Locale       string                 `json:"locale,omitempty"`
	Label        string                 `json:"label,omitempty"`
}

// handleHistorySave recomputes the result server side so only genuine
// results are stored.
func (h *handler) handleHistorySave(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	const op = "server.handleHistorySave"
	if !h.historyEnabled(w, op) {
		return
	}
	var req saveRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}
	def, err := h.registry.Get(req.CalculatorID)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	locale := h.resolveLocale(r, req.Locale)
	result := def.Evaluate(calculator.Input{Values: req.Values, FieldUnits: req.FieldUnits, Locale: locale})
	if !result.IsValid {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, "calculation is not valid, nothing to save", op)
		return
	}

	entry, err := h.history.Save(r.Context(), history.Entry{
		CalculatorID: def.ID,
		Locale:       locale,
		Label:        req.Label,
		Values:       req.Values,
		FieldUnits:   req.FieldUnits,
		Result:       result,
	})
	if err != nil {
		h.respondHistoryError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusCreated, entry)
}

func (h *handler) handleHistoryList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	const op = "server.handleHistoryList"
	if !h.historyEnabled(w, op) {
		return
	}
	limit := h.historyLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw), op)
			return
		}
		if n < limit {
			limit = n
		}
	}
	entries, err := h.history.List(r.Context(), r.URL.Query().Get("calculator"), limit)
	if err != nil {
		h.respondHistoryError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (h *handler) handleHistoryGet(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	const op = "server.handleHistoryGet"
	if !h.historyEnabled(w, op) {
		return
	}
	entry, err := h.history.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		h.respondHistoryError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, entry)
}

func (h *handler) handleHistoryDelete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	const op = "server.handleHistoryDelete"
	if !h.historyEnabled(w, op) {
		return
	}
	if err := h.history.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.respondHistoryError(w, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	} else {
		h.logger.Info("request rejected",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	writeJSON(h.logger, w, status, payload)
}

func writeJSON(logger *zap.Logger, w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func coerceBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return false
		}
		if parsed, err := strconv.ParseBool(trimmed); err == nil {
			return parsed
		}
	case float64:
		return v != 0
	case json.Number:
		if parsed, err := strconv.ParseFloat(v.String(), 64); err == nil {
			return parsed != 0
		}
	}
	return false
}
