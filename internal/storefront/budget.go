package storefront

import (
	"errors"
	"fmt"
	"math"

	"xcar/internal/domain"
)

var (
	ErrInvalidIncome = errors.New("monthly income must be positive")
	ErrIncomeTooLow  = errors.New("monthly income is too low to ever afford this car")
)

// SavingRatio is the share of monthly income put aside for the car.
const SavingRatio = 0.3

// BudgetLine is one row of the budget finder.
type BudgetLine struct {
	Car      domain.Car
	Months   int
	Duration string
}

// MonthsToAfford is how many months of saving buy a car at price.
func MonthsToAfford(price, monthlyIncome float64) (int, error) {
	if monthlyIncome <= 0 || math.IsNaN(monthlyIncome) {
		return 0, ErrInvalidIncome
	}
	months := math.Ceil(price / (monthlyIncome * SavingRatio))
	if months >= math.MaxInt32 || math.IsNaN(months) {
		return 0, ErrIncomeTooLow
	}
	return int(months), nil
}

// FormatDuration renders months as "N months" below a year and "Yy Mm"
// otherwise.
func FormatDuration(months int) string {
	years, rest := months/12, months%12
	if years == 0 {
		return fmt.Sprintf("%d months", rest)
	}
	return fmt.Sprintf("%dy %dm", years, rest)
}

// Budget computes the saving time for every car.
func Budget(cars []domain.Car, monthlyIncome float64) ([]BudgetLine, error) {
	lines := make([]BudgetLine, 0, len(cars))
	for _, car := range cars {
		months, err := MonthsToAfford(car.Price, monthlyIncome)
		if err != nil {
			return nil, err
		}
		lines = append(lines, BudgetLine{Car: car, Months: months, Duration: FormatDuration(months)})
	}
	return lines, nil
}
