// Package format turns distances, prices, ratings and addresses into display strings.
// Every function is total: malformed input degrades to a fallback string.
package format

import (
	"fmt"
	"math"
	"strings"
)

// Labels holds the localized strings used by the formatters.
type Labels struct {
	Free      string `mapstructure:"free"`
	Currency  string `mapstructure:"currency"`
	NoAddress string `mapstructure:"no_address"`
}

// DefaultLabels returns the Spanish (Bolivia) labels the app ships with.
func DefaultLabels() Labels {
	return Labels{
		Free:      "Gratis",
		Currency:  "Bs",
		NoAddress: "Sin dirección",
	}
}

// roundHalfUp rounds .5 towards positive infinity so that 95 and -95 behave like a JS readout would.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// FormatDistance formats meters with tiered rounding so that small position changes
// don't make the label flicker:
//   - under 100 m: nearest 10 m, never below 10 m
//   - 100 m up to 1 km: nearest 50 m, never above 950 m
//   - 1 km and above: kilometers with one decimal
func FormatDistance(meters float64) string {
	if meters < 100 {
		rounded := roundHalfUp(meters/10) * 10
		return fmt.Sprintf("%.0fm", math.Max(10, rounded))
	}
	if meters < 1000 {
		rounded := roundHalfUp(meters/50) * 50
		return fmt.Sprintf("%.0fm", math.Min(950, rounded))
	}
	km := roundHalfUp(meters/100) / 10
	return fmt.Sprintf("%.1fkm", km)
}

// FormatPrice returns the free label for zero, otherwise the whole-unit amount followed by the currency.
func FormatPrice(price float64, labels Labels) string {
	if price == 0 {
		return labels.Free
	}
	return fmt.Sprintf("%.0f %s", roundHalfUp(price), labels.Currency)
}

// FormatRating always renders one decimal place.
func FormatRating(rating float64) string {
	return fmt.Sprintf("%.1f", roundHalfUp(rating*10)/10)
}

// ParsedAddress splits a comma-delimited address, most specific part first.
// Parts that are not present are left empty.
type ParsedAddress struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
	Full    string `json:"full"`
}

// ParseAddress is a heuristic, not an address parser: it assumes
// "Street, City, State, Country" and ignores anything past the fourth segment.
func ParseAddress(full string) ParsedAddress {
	parsed := ParsedAddress{Full: full}

	var parts []string
	for _, p := range strings.Split(full, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	fields := []*string{&parsed.Street, &parsed.City, &parsed.State, &parsed.Country}
	for i := 0; i < len(parts) && i < len(fields); i++ {
		*fields[i] = parts[i]
	}

	return parsed
}

// FormatShortAddress prefers "street, city", then the street, then the raw address, then fallback.
func FormatShortAddress(full, fallback string) string {
	parsed := ParseAddress(full)

	switch {
	case parsed.Street != "" && parsed.City != "":
		return parsed.Street + ", " + parsed.City
	case parsed.Street != "":
		return parsed.Street
	case strings.TrimSpace(parsed.Full) != "":
		return parsed.Full
	default:
		return fallback
	}
}
