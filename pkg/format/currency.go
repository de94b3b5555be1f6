package format

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/aspectstore/storekit/pkg/config"
)

// Config holds the display currency and locale, read once at startup.
type Config struct {
	Currency string `env:"CURRENCY" envDefault:"USD"`        // ISO 4217 code used for cart totals.
	Locale   string `env:"DEFAULT_LOCALE" envDefault:"en-US"` // BCP 47 tag passed through to the formatter.
}

// LoadConfig reads the display configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Formatter renders monetary amounts for display. Construction resolves the
// locale and currency once; formatting itself never fails.
type Formatter struct {
	printer *message.Printer
	unit    currency.Unit
	valid   bool
}

// New creates a Formatter for the configured currency and locale. Unknown
// values do not fail construction; the formatter falls back to a plain
// dollar rendering, matching how the storefront behaves with odd env values.
func New(cfg Config) *Formatter {
	tag, tagErr := language.Parse(cfg.Locale)
	unit, unitErr := currency.ParseISO(cfg.Currency)
	if tagErr != nil || unitErr != nil {
		return &Formatter{}
	}
	return &Formatter{
		printer: message.NewPrinter(tag),
		unit:    unit,
		valid:   true,
	}
}

// Currency renders an amount with the configured currency symbol, falling
// back to "$<amount>" with two decimals when the configuration was invalid.
func (f *Formatter) Currency(amount float64) string {
	if !f.valid {
		return fmt.Sprintf("$%.2f", amount)
	}
	return f.printer.Sprintf("%v", currency.NarrowSymbol(f.unit.Amount(amount)))
}

// Currency is a convenience for one-off formatting with explicit currency
// and locale.
func Currency(amount float64, currencyCode, locale string) string {
	return New(Config{Currency: currencyCode, Locale: locale}).Currency(amount)
}
