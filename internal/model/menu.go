package model

// MenuItem represents a row in the `menu_items` table. The menu is
// global: every store sells the same items.
type MenuItem struct {
	ID          uint64  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
}
