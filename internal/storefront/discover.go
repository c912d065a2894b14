// Package storefront holds the presentation rules of the storefront pages:
// the discover listing, the budget finder, the cart summary and the
// comparison table.
package storefront

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"xcar/internal/domain"
)

var ErrUnknownCategory = errors.New("unknown category")

// AllCategories selects every car in Discover.
const AllCategories = "All"

// Discover filters cars by category and lists favorites first. Order is
// otherwise preserved.
func Discover(cars []domain.Car, category string, favorites []string) ([]domain.Car, error) {
	if category == "" {
		category = AllCategories
	}
	if category != AllCategories && !domain.Category(category).Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	out := make([]domain.Car, 0, len(cars))
	for _, car := range cars {
		if category == AllCategories || string(car.Category) == category {
			out = append(out, car)
		}
	}

	favorite := make(map[string]bool, len(favorites))
	for _, id := range favorites {
		favorite[id] = true
	}
	slices.SortStableFunc(out, func(a, b domain.Car) int {
		switch {
		case favorite[a.ID] && !favorite[b.ID]:
			return -1
		case !favorite[a.ID] && favorite[b.ID]:
			return 1
		default:
			return 0
		}
	})
	return out, nil
}

// Comparison returns the compared cars in catalog order. Ids no longer in
// the catalog are skipped.
func Comparison(cars []domain.Car, compare []string) []domain.Car {
	var out []domain.Car
	for _, car := range cars {
		if slices.Contains(compare, car.ID) {
			out = append(out, car)
		}
	}
	return out
}

// FormatPrice renders a price in whole dollars with thousands separators.
func FormatPrice(price float64) string {
	digits := strconv.FormatFloat(price, 'f', 0, 64)
	neg := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}
