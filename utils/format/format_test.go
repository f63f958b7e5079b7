package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		name     string
		meters   float64
		expected string
	}{
		{name: "zero shows minimum", meters: 0, expected: "10m"},
		{name: "tiny distance shows minimum", meters: 3, expected: "10m"},
		{name: "half step rounds up", meters: 5, expected: "10m"},
		{name: "rounds to nearest ten", meters: 73, expected: "70m"},
		{name: "jittery neighbour rounds the same", meters: 74, expected: "70m"},
		{name: "95 rounds up", meters: 95, expected: "100m"},
		{name: "lower bound of fifty band", meters: 100, expected: "100m"},
		{name: "rounds to nearest fifty", meters: 123.7, expected: "100m"},
		{name: "half step of fifty rounds up", meters: 125, expected: "150m"},
		{name: "mid band", meters: 500, expected: "500m"},
		{name: "top of band is capped", meters: 999, expected: "950m"},
		{name: "one kilometer", meters: 1000, expected: "1.0km"},
		{name: "one and a half kilometers", meters: 1500, expected: "1.5km"},
		{name: "rounds down to one decimal", meters: 2345, expected: "2.3km"},
		{name: "rounds up to next kilometer", meters: 1999, expected: "2.0km"},
		{name: "long distance", meters: 123456, expected: "123.5km"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDistance(tt.meters))
		})
	}
}

func TestFormatPrice(t *testing.T) {
	labels := DefaultLabels()

	tests := []struct {
		name     string
		price    float64
		expected string
	}{
		{name: "free", price: 0, expected: "Gratis"},
		{name: "whole amount", price: 5, expected: "5 Bs"},
		{name: "half rounds up", price: 10.5, expected: "11 Bs"},
		{name: "rounds down", price: 2.4, expected: "2 Bs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatPrice(tt.price, labels))
		})
	}

	t.Run("custom labels", func(t *testing.T) {
		custom := Labels{Free: "Free", Currency: "MXN"}
		assert.Equal(t, "Free", FormatPrice(0, custom))
		assert.Equal(t, "7 MXN", FormatPrice(7, custom))
	})
}

func TestFormatRating(t *testing.T) {
	assert.Equal(t, "4.6", FormatRating(4.567))
	assert.Equal(t, "3.0", FormatRating(3))
	assert.Equal(t, "0.0", FormatRating(0))
	assert.Equal(t, "5.0", FormatRating(5))
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected ParsedAddress
	}{
		{
			name:     "empty",
			input:    "",
			expected: ParsedAddress{},
		},
		{
			name:     "street only",
			input:    "Main St 123",
			expected: ParsedAddress{Street: "Main St 123", Full: "Main St 123"},
		},
		{
			name:  "full address",
			input: "Main St 123, Springfield, IL, USA",
			expected: ParsedAddress{
				Street:  "Main St 123",
				City:    "Springfield",
				State:   "IL",
				Country: "USA",
				Full:    "Main St 123, Springfield, IL, USA",
			},
		},
		{
			name:  "extra segments are ignored",
			input: "Av. Busch 10, Santa Cruz, SCZ, Bolivia, 0000",
			expected: ParsedAddress{
				Street:  "Av. Busch 10",
				City:    "Santa Cruz",
				State:   "SCZ",
				Country: "Bolivia",
				Full:    "Av. Busch 10, Santa Cruz, SCZ, Bolivia, 0000",
			},
		},
		{
			name:     "blank segments are skipped",
			input:    " , Calle 5 ,, Centro ",
			expected: ParsedAddress{Street: "Calle 5", City: "Centro", Full: " , Calle 5 ,, Centro "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseAddress(tt.input))
		})
	}
}

func TestFormatShortAddress(t *testing.T) {
	assert.Equal(t, "Main St 123, Springfield", FormatShortAddress("Main St 123, Springfield, IL, USA", "No address"))
	assert.Equal(t, "Main St 123", FormatShortAddress("Main St 123", "No address"))
	assert.Equal(t, "No address", FormatShortAddress("", "No address"))
	assert.Equal(t, "No address", FormatShortAddress("   ", "No address"))
	assert.Equal(t, "Sin dirección", FormatShortAddress("", DefaultLabels().NoAddress))
}
