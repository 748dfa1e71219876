package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyInventoryDerivation(t *testing.T) {
	t.Run("sums variant stock and collects sizes", func(t *testing.T) {
		p := Product{
			Stock:   999,
			Sizes:   []string{"XS"},
			InStock: false,
			Variants: []Variant{
				{Size: "M", Stock: 2},
				{Size: "L", Stock: 3},
				{Size: "M", Stock: 1},
			},
		}
		p.ApplyInventoryDerivation()

		assert.Equal(t, 6, p.Stock)
		assert.True(t, p.InStock)
		assert.Equal(t, []string{"M", "L"}, p.Sizes)
	})

	t.Run("all variants empty means out of stock", func(t *testing.T) {
		p := Product{Variants: []Variant{{Size: "M", Stock: 0}, {Size: "L", Stock: 0}}}
		p.ApplyInventoryDerivation()

		assert.Equal(t, 0, p.Stock)
		assert.False(t, p.InStock)
	})

	t.Run("no variants leaves flat fields alone", func(t *testing.T) {
		p := Product{Stock: 7, InStock: true, Sizes: []string{"One Size"}}
		p.ApplyInventoryDerivation()

		assert.Equal(t, 7, p.Stock)
		assert.True(t, p.InStock)
		assert.Equal(t, []string{"One Size"}, p.Sizes)
	})

	t.Run("idempotent", func(t *testing.T) {
		p := Product{Variants: []Variant{{Size: "M", Stock: 4}}}
		p.ApplyInventoryDerivation()
		first := p
		p.ApplyInventoryDerivation()
		assert.Equal(t, first.Stock, p.Stock)
		assert.Equal(t, first.Sizes, p.Sizes)
		assert.Equal(t, first.InStock, p.InStock)
	})
}

func TestDiscountPercent(t *testing.T) {
	orig := func(f float64) *float64 { return &f }

	assert.Equal(t, 0, (&Product{Price: 100}).DiscountPercent())
	assert.Equal(t, 0, (&Product{Price: 100, OriginalPrice: orig(100)}).DiscountPercent())
	assert.Equal(t, 0, (&Product{Price: 100, OriginalPrice: orig(80)}).DiscountPercent())
	assert.Equal(t, 25, (&Product{Price: 75, OriginalPrice: orig(100)}).DiscountPercent())
	assert.Equal(t, 33, (&Product{Price: 100, OriginalPrice: orig(150)}).DiscountPercent())
}

func TestResolveUnitPrice(t *testing.T) {
	override := 550.0
	p := Product{
		Price: 500,
		Variants: []Variant{
			{Size: "M", Stock: 1},
			{Size: "L", Stock: 1, Price: &override},
		},
	}

	m, l, xl := "M", "L", "XL"
	assert.Equal(t, 500.0, p.ResolveUnitPrice(nil))
	assert.Equal(t, 500.0, p.ResolveUnitPrice(&m))
	assert.Equal(t, 550.0, p.ResolveUnitPrice(&l))
	assert.Equal(t, 500.0, p.ResolveUnitPrice(&xl))
}

func TestVariantForSize(t *testing.T) {
	p := Product{Variants: []Variant{{Size: "M", Stock: 2}}}
	v := p.VariantForSize("M")
	if assert.NotNil(t, v) {
		assert.Equal(t, 2, v.Stock)
	}
	assert.Nil(t, p.VariantForSize("L"))
}
