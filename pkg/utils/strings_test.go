package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	cases := map[string]string{
		"Men's T-Shirt!":       "mens-t-shirt",
		"  Linen   Shirt  ":    "linen-shirt",
		"Été--Collection 2025": "t-collection-2025",
		"UPPER case":           "upper-case",
	}
	for input, want := range cases {
		assert.Equal(t, want, GenerateSlug(input), input)
	}
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 42, ParseInt("42", 0))
	assert.Equal(t, 7, ParseInt("", 7))
	assert.Equal(t, 7, ParseInt("abc", 7))
}

func TestParseFloat(t *testing.T) {
	assert.Equal(t, 1.5, ParseFloat("1.5", 0))
	assert.Equal(t, 2.0, ParseFloat("", 2.0))
	assert.Equal(t, 2.0, ParseFloat("x", 2.0))
}
