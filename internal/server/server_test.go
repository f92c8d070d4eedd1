package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iwvelando/calcsite/internal/calculator"
	"github.com/iwvelando/calcsite/internal/catalog"
	"github.com/iwvelando/calcsite/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestHandler(t *testing.T, withHistory bool) http.Handler {
	t.Helper()
	reg, err := catalog.Load(zap.NewNop())
	require.NoError(t, err)

	opts := Options{
		Registry:      reg,
		DefaultLocale: "en",
		Locales:       []string{"en", "es"},
		Version:       "1.2.3",
	}
	if withHistory {
		store, err := history.Open(context.Background(), zap.NewNop(), ":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		opts.History = store
	}
	return NewHandler(zap.NewNop(), opts)
}

func perform(t *testing.T, h http.Handler, method, target string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), dst), rr.Body.String())
}

func TestHandleVersion(t *testing.T) {
	h := newTestHandler(t, false)
	rr := perform(t, h, http.MethodGet, "/api/version", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	decode(t, rr, &resp)
	assert.Equal(t, "1.2.3", resp["version"])

	defaulted := NewHandler(nil, Options{})
	rr = perform(t, defaulted, http.MethodGet, "/api/version", nil)
	decode(t, rr, &resp)
	assert.Equal(t, "dev", resp["version"])
}

func TestHandleList(t *testing.T) {
	h := newTestHandler(t, false)

	rr := perform(t, h, http.MethodGet, "/api/calculators?locale=es", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp listResponse
	decode(t, rr, &resp)
	assert.Equal(t, "es", resp.Locale)
	assert.Len(t, resp.Calculators, 12)
	assert.Len(t, resp.Categories, 4)

	titles := map[string]string{}
	for _, c := range resp.Calculators {
		titles[c.ID] = c.Title
	}
	assert.Equal(t, "Conversor de MPH a km/h", titles["mph-to-kmh"])

	rr = perform(t, h, http.MethodGet, "/api/calculators?category=health", nil)
	decode(t, rr, &resp)
	require.Len(t, resp.Calculators, 2)
	assert.Equal(t, "bmi", resp.Calculators[0].ID)
	assert.Equal(t, "BMI Calculator", resp.Calculators[0].Title)
}

func TestResolveLocale(t *testing.T) {
	h := newTestHandler(t, false)

	tests := []struct {
		name     string
		target   string
		header   string
		expected string
	}{
		{"Query parameter", "/api/calculators?locale=es", "", "es"},
		{"Regional variant kept", "/api/calculators?locale=es-MX", "", "es-MX"},
		{"Underscore separator canonicalized", "/api/calculators?locale=es_MX", "", "es-MX"},
		{"Upper case canonicalized", "/api/calculators?locale=ES", "", "es"},
		{"Mixed case region canonicalized", "/api/calculators?locale=ES-mx", "", "es-MX"},
		{"Unsupported falls back", "/api/calculators?locale=fr", "", "en"},
		{"Malformed falls back", "/api/calculators?locale=%21%21", "", "en"},
		{"Accept-Language", "/api/calculators", "es-CO,es;q=0.9,en;q=0.5", "es"},
		{"Query wins over header", "/api/calculators?locale=en", "es", "en"},
		{"No preference", "/api/calculators", "", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var headers []string
			if tt.header != "" {
				headers = []string{"Accept-Language", tt.header}
			}
			rr := perform(t, h, http.MethodGet, tt.target, nil, headers...)
			var resp listResponse
			decode(t, rr, &resp)
			assert.Equal(t, tt.expected, resp.Locale)
		})
	}
}

func TestHandleGet(t *testing.T) {
	h := newTestHandler(t, false)

	rr := perform(t, h, http.MethodGet, "/api/calculators/fanegadas-to-hectares?locale=es", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp detailResponse
	decode(t, rr, &resp)
	assert.Equal(t, "fanegadas-to-hectares", resp.ID)
	assert.Equal(t, "Hectáreas", resp.Translation.Results["hectares"])
	assert.Equal(t, []string{"en", "es"}, resp.Locales)
	assert.Nil(t, resp.T, "raw translation blocks are not exposed")
	assert.Len(t, resp.Inputs, 1)
	assert.Equal(t, []unitChoice{{ID: "fan", Symbol: "fan"}}, resp.UnitChoices["fanValue"])

	rr = perform(t, h, http.MethodGet, "/api/calculators/nope", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleGetUnitChoices(t *testing.T) {
	h := newTestHandler(t, false)

	rr := perform(t, h, http.MethodGet, "/api/calculators/length?locale=es", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp detailResponse
	decode(t, rr, &resp)
	choices := resp.UnitChoices["value"]
	require.Len(t, choices, 9)
	assert.Equal(t, "mm", choices[0].ID)
	assert.Equal(t, "nmi", choices[len(choices)-1].ID)
	for _, c := range choices {
		if c.ID == "in" {
			assert.Equal(t, "pulg", c.Symbol, "localized symbol")
		}
	}

	rr = perform(t, h, http.MethodGet, "/api/calculators/tip", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	resp = detailResponse{}
	decode(t, rr, &resp)
	assert.Empty(t, resp.UnitChoices, "inputs without a unit type offer no units")
}

func TestHandleUnits(t *testing.T) {
	h := newTestHandler(t, false)

	rr := perform(t, h, http.MethodGet, "/api/units", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Types []unitGroup `json:"types"`
	}
	decode(t, rr, &resp)
	require.NotEmpty(t, resp.Types)

	var length *unitGroup
	for i := range resp.Types {
		if i > 0 {
			assert.Less(t, string(resp.Types[i-1].Type), string(resp.Types[i].Type))
		}
		if resp.Types[i].Type == "length" {
			length = &resp.Types[i]
		}
	}
	require.NotNil(t, length)
	assert.Equal(t, unitChoice{ID: "mm", Symbol: "mm"}, length.Units[0])
}

func TestHandleCalculate(t *testing.T) {
	h := newTestHandler(t, false)

	rr := perform(t, h, http.MethodPost, "/api/calculators/mph-to-kmh/calculate", map[string]interface{}{
		"values":     map[string]interface{}{"amount": 60},
		"fieldUnits": map[string]string{"amount": "mph"},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp calculateResponse
	decode(t, rr, &resp)
	assert.True(t, resp.IsValid)
	assert.Equal(t, "mph-to-kmh", resp.CalculatorID)
	assert.Equal(t, "en", resp.Locale)
	assert.InDelta(t, 96.56064, resp.Values["kmh"], 1e-9)
	assert.Equal(t, "60 mph = 96.56 km/h", resp.Summary)
	assert.Empty(t, resp.EntryID)
}

func TestHandleCalculateInvalidInputIsNotAnError(t *testing.T) {
	h := newTestHandler(t, false)

	rr := perform(t, h, http.MethodPost, "/api/calculators/fanegadas-to-hectares/calculate", map[string]interface{}{
		"values": map[string]interface{}{"fanValue": 0},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var raw map[string]interface{}
	decode(t, rr, &raw)
	assert.Equal(t, false, raw["isValid"])
	assert.Equal(t, map[string]interface{}{}, raw["values"])
	assert.Equal(t, map[string]interface{}{}, raw["formatted"])
	assert.Equal(t, "", raw["summary"])
}

func TestHandleCalculateWithPreset(t *testing.T) {
	h := newTestHandler(t, false)

	rr := perform(t, h, http.MethodPost, "/api/calculators/fanegadas-to-hectares/calculate", map[string]interface{}{
		"preset": "small-farm",
		"locale": "es",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	var resp calculateResponse
	decode(t, rr, &resp)
	assert.True(t, resp.IsValid)
	assert.Equal(t, "5,12 ha", resp.Formatted["hectares"])

	rr = perform(t, h, http.MethodPost, "/api/calculators/fanegadas-to-hectares/calculate", map[string]interface{}{
		"preset": "nope",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleCalculateErrors(t *testing.T) {
	h := newTestHandler(t, false)

	rr := perform(t, h, http.MethodPost, "/api/calculators/unknown/calculate", map[string]interface{}{})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/calculators/tip/calculate", strings.NewReader("{not json"))
	bad := httptest.NewRecorder()
	h.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	var errResp map[string]string
	decode(t, bad, &errResp)
	assert.Contains(t, errResp["error"], "failed to decode request")

	rr = perform(t, h, http.MethodGet, "/api/calculators/tip/calculate", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = perform(t, h, http.MethodPost, "/api/calculators/tip/calculate", map[string]interface{}{
		"values": map[string]interface{}{"bill": 10},
		"save":   true,
	})
	assert.Equal(t, http.StatusNotImplemented, rr.Code, "saving needs history")
}

func TestHandleCalculateBodyLimit(t *testing.T) {
	reg, err := catalog.Load(zap.NewNop())
	require.NoError(t, err)
	h := NewHandler(zap.NewNop(), Options{Registry: reg, MaxUploadSize: 64})

	big := map[string]interface{}{"values": map[string]interface{}{"bill": strings.Repeat("9", 200)}}
	rr := perform(t, h, http.MethodPost, "/api/calculators/tip/calculate", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestHandleLintAndExport(t *testing.T) {
	h := newTestHandler(t, false)

	rr := perform(t, h, http.MethodGet, "/api/calculators/bmi/lint", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var lint struct {
		ID       string   `json:"id"`
		Warnings []string `json:"warnings"`
	}
	decode(t, rr, &lint)
	assert.Equal(t, "bmi", lint.ID)
	assert.NotNil(t, lint.Warnings)
	assert.Empty(t, lint.Warnings)

	rr = perform(t, h, http.MethodGet, "/api/calculators/bmi/export", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var export map[string]string
	decode(t, rr, &export)

	var cfg calculator.Config
	require.NoError(t, yaml.Unmarshal([]byte(export["configYaml"]), &cfg))
	assert.Equal(t, "bmi", cfg.ID)
	assert.Equal(t, calculator.CategoryHealth, cfg.Category)
	assert.Equal(t, "Peso", cfg.T["es"].Labels["weight"])
}

func TestHistoryEndpoints(t *testing.T) {
	h := newTestHandler(t, true)

	rr := perform(t, h, http.MethodPost, "/api/history", map[string]interface{}{
		"calculatorId": "tip",
		"values":       map[string]interface{}{"bill": 100, "people": 4},
		"label":        "team lunch",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var saved history.Entry
	decode(t, rr, &saved)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "team lunch", saved.Label)
	assert.InDelta(t, 28.75, saved.Result.Values["perPerson"], 1e-9)

	rr = perform(t, h, http.MethodPost, "/api/calculators/tip/calculate", map[string]interface{}{
		"values": map[string]interface{}{"bill": 50},
		"save":   "true",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	var calc calculateResponse
	decode(t, rr, &calc)
	assert.NotEmpty(t, calc.EntryID)

	rr = perform(t, h, http.MethodGet, "/api/history?calculator=tip&limit=10", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Entries []history.Entry `json:"entries"`
	}
	decode(t, rr, &list)
	require.Len(t, list.Entries, 2)

	rr = perform(t, h, http.MethodGet, "/api/history/"+saved.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = perform(t, h, http.MethodDelete, "/api/history/"+saved.ID, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = perform(t, h, http.MethodGet, "/api/history/"+saved.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = perform(t, h, http.MethodDelete, "/api/history/"+saved.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = perform(t, h, http.MethodPost, "/api/history", map[string]interface{}{
		"calculatorId": "tip",
		"values":       map[string]interface{}{"bill": 0},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = perform(t, h, http.MethodPost, "/api/history", map[string]interface{}{"calculatorId": "nope"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = perform(t, h, http.MethodGet, "/api/history?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHistoryDisabled(t *testing.T) {
	h := newTestHandler(t, false)
	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/api/history"},
		{http.MethodPost, "/api/history"},
		{http.MethodGet, "/api/history/x"},
		{http.MethodDelete, "/api/history/x"},
	} {
		rr := perform(t, h, tc.method, tc.target, map[string]interface{}{})
		assert.Equal(t, http.StatusNotImplemented, rr.Code, "%s %s", tc.method, tc.target)
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	h := newTestHandler(t, false)
	rr := perform(t, h, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestRateLimit(t *testing.T) {
	reg, err := catalog.Load(zap.NewNop())
	require.NoError(t, err)
	h := NewHandler(zap.NewNop(), Options{Registry: reg, RateLimit: 0.001, RateBurst: 2})

	for i := 0; i < 2; i++ {
		rr := perform(t, h, http.MethodGet, "/api/version", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	}
	rr := perform(t, h, http.MethodGet, "/api/version", nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Equal(t, "2", rr.Header().Get("X-RateLimit-Limit"))

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	other := httptest.NewRecorder()
	h.ServeHTTP(other, req)
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestCoerceBool(t *testing.T) {
	tests := map[interface{}]bool{
		true:               true,
		false:              false,
		"true":             true,
		"0":                false,
		"":                 false,
		"maybe":            false,
		1.0:                true,
		0.0:                false,
		json.Number("2"):   true,
		json.Number("0.0"): false,
	}
	for input, expected := range tests {
		assert.Equal(t, expected, coerceBool(input), "%v", input)
	}
	assert.False(t, coerceBool(nil))
}
