package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// AppSettings holds the house billing defaults. Companies can override the
// tax rate and warranty keywords on their own profile.
type AppSettings struct {
	DefaultTaxRate   decimal.Decimal
	WarrantyKeywords []string
	OverdueAfterDays int
}

var Settings AppSettings

func LoadSettings() {
	Settings = AppSettings{
		DefaultTaxRate:   decimal.NewFromFloat(0.10),
		WarrantyKeywords: []string{"warranty", "protection"},
		OverdueAfterDays: 14,
	}

	if v := os.Getenv("BILLING_DEFAULT_TAX_RATE"); v != "" {
		if rate, err := decimal.NewFromString(v); err == nil && !rate.IsNegative() {
			Settings.DefaultTaxRate = rate
		}
	}
	if v := os.Getenv("WARRANTY_KEYWORDS"); v != "" {
		var keywords []string
		for _, kw := range strings.Split(v, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				keywords = append(keywords, kw)
			}
		}
		if len(keywords) > 0 {
			Settings.WarrantyKeywords = keywords
		}
	}
	if v := os.Getenv("OVERDUE_AFTER_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			Settings.OverdueAfterDays = days
		}
	}
}
