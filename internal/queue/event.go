// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderPlacedEvent is published when a diner's order has been stored
// and relayed. It carries enough information for downstream consumers
// to log, notify, or feed analytics without querying the primary
// database.
type OrderPlacedEvent struct {
	OrderID     uint64   `json:"order_id"`
	DinerID     uint64   `json:"diner_id"`
	FranchiseID uint64   `json:"franchise_id"`
	StoreID     uint64   `json:"store_id"`
	Items       []string `json:"items"`
	Total       float64  `json:"total"`
	Fulfilled   bool     `json:"fulfilled"`
	PlacedAt    string   `json:"placed_at"`
}
