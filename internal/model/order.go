package model

import "time"

// Order represents a diner order as stored in the `orders` table with
// its `order_items` rows. Item descriptions and prices are copied from
// the menu at order time so later menu edits do not rewrite history.
type Order struct {
	ID          uint64      `json:"id"`
	DinerID     uint64      `json:"-"`
	FranchiseID uint64      `json:"franchiseId"`
	StoreID     uint64      `json:"storeId"`
	Items       []OrderItem `json:"items"`
	Date        time.Time   `json:"date"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ID          uint64  `json:"id,omitempty"`
	MenuID      uint64  `json:"menuId"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// Total sums the line prices of the order.
func (o Order) Total() float64 {
	var sum float64
	for _, it := range o.Items {
		sum += it.Price
	}
	return sum
}
