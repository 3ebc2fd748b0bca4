package dropshipping

import (
	"sort"
	"strings"
	"unicode/utf8"
)

var lowQualityIndicators = []string{
	"wholesale",
	"bulk",
	"cheap",
	"low quality",
	"factory direct",
}

// PassesQuality is the hard metrics gate. Any single violation excludes the product.
func PassesQuality(p Product) bool {
	if p.Rating < MinRating {
		return false
	}
	if p.Orders < MinOrders {
		return false
	}
	if p.ShippingDays != nil && *p.ShippingDays > MaxShippingDays {
		return false
	}
	return p.Available()
}

func QualityFilter(products []Product) []Product {
	return filter(products, PassesQuality)
}

// PassesText rejects listings whose copy signals a low-effort seller.
func PassesText(p Product) bool {
	name := strings.ToLower(p.Name)
	description := strings.ToLower(p.Description)

	if strings.Contains(name, "generic") {
		return false
	}
	if n := utf8.RuneCountInString(description); n > 0 && n < MinDescriptionLength {
		return false
	}

	combined := name + " " + description
	for _, indicator := range lowQualityIndicators {
		if strings.Contains(combined, indicator) {
			return false
		}
	}
	return true
}

func TextFilter(products []Product) []Product {
	return filter(products, PassesText)
}

// Rank returns a copy sorted by Score, highest first. Ties keep input order.
func Rank(products []Product) []Product {
	ranked := make([]Product, len(products))
	copy(ranked, products)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score() > ranked[j].Score()
	})
	return ranked
}

func top(products []Product, n int) []Product {
	if len(products) > n {
		return products[:n]
	}
	return products
}

func filter(products []Product, keep func(Product) bool) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
