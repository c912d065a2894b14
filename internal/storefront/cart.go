package storefront

import "xcar/internal/domain"

// CartLine is a cart item resolved to its car.
type CartLine struct {
	Car      domain.Car
	Quantity int
	Subtotal float64
}

type CartSummary struct {
	Lines []CartLine
	Total float64
	// Items is the number of units.
	Items int
}

// SummarizeCart resolves items against the catalog. Items whose car no
// longer exists are left out of lines and totals.
func SummarizeCart(items []domain.CartItem, cars []domain.Car) CartSummary {
	var summary CartSummary
	for _, item := range items {
		i := domain.IndexOfCar(cars, item.CarID)
		if i < 0 {
			continue
		}
		line := CartLine{
			Car:      cars[i],
			Quantity: item.Quantity,
			Subtotal: cars[i].Price * float64(item.Quantity),
		}
		summary.Lines = append(summary.Lines, line)
		summary.Total += line.Subtotal
		summary.Items += item.Quantity
	}
	return summary
}
