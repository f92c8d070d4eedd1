// Package constants provides shared constants for the calcsite application.
package constants

// Locale constants
const (
	// DefaultLocale is the locale used when a request names none or an
	// unsupported one. Every calculator must carry a block for it.
	DefaultLocale = "en"
)

// SupportedLocales lists the locales shipped with the built-in catalog.
var SupportedLocales = []string{"en", "es"}

// Conversion factors. Each value converts one of the named unit into the
// base unit of its unit type.
const (
	// FanegadaToM2 is the area of one fanegada in square meters.
	FanegadaToM2 = 6400.0

	// HectareToM2 is the area of one hectare in square meters.
	HectareToM2 = 10000.0

	// AcreToM2 is the area of one international acre in square meters.
	AcreToM2 = 4046.8564224

	// MileToKm is the length of one international mile in kilometers.
	MileToKm = 1.609344

	// InchToM is the length of one inch in meters.
	InchToM = 0.0254

	// FootToM is the length of one foot in meters.
	FootToM = 0.3048

	// YardToM is the length of one yard in meters.
	YardToM = 0.9144

	// USGallonToLiter is the volume of one US liquid gallon in liters.
	USGallonToLiter = 3.785411784

	// ImperialGallonToLiter is the volume of one imperial gallon in liters.
	ImperialGallonToLiter = 4.54609

	// PoundToKg is the mass of one avoirdupois pound in kilograms.
	PoundToKg = 0.45359237

	// OunceToKg is the mass of one avoirdupois ounce in kilograms.
	OunceToKg = 0.028349523125

	// KnotToKmh is one knot expressed in kilometers per hour.
	KnotToKmh = 1.852

	// MpsToKmh is one meter per second expressed in kilometers per hour.
	MpsToKmh = 3.6

	// AbsoluteZeroC is absolute zero in degrees Celsius.
	AbsoluteZeroC = -273.15
)

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// DefaultCurrency is the ISO 4217 code used when a calculator names none.
	DefaultCurrency = "USD"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "calcsite.yaml"

	// EnvPrefix prefixes environment overrides, e.g. CALCSITE_SERVER_ADDRESS.
	EnvPrefix = "CALCSITE"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultRateLimit is the default number of requests per second per client
	DefaultRateLimit = 20

	// DefaultRateBurst is the default burst size per client
	DefaultRateBurst = 40

	// DefaultHistoryPath is the default SQLite file for saved calculations
	DefaultHistoryPath = "data/history.db"

	// DefaultHistoryLimit caps history listings when the caller names no limit
	DefaultHistoryLimit = 50
)
