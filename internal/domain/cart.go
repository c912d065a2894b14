package domain

// CartItem references a car by id. Quantity is always positive.
type CartItem struct {
	CarID    string `json:"carId"`
	Quantity int    `json:"quantity"`
}

// CompareLimit caps the compare-list.
const CompareLimit = 3
