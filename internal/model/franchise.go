package model

// Franchise represents a row in the `franchises` table together with its
// stores and, for privileged views, the users who administer it.
//
// Fields:
//  ID     – primary key identifier of the franchise.
//  Name   – unique franchise name.
//  Admins – users holding a franchisee role scoped to this franchise.
//           Only populated for admin callers; omitted from public views.
//  Stores – stores belonging to the franchise.
type Franchise struct {
	ID     uint64           `json:"id"`
	Name   string           `json:"name"`
	Admins []FranchiseAdmin `json:"admins,omitempty"`
	Stores []Store          `json:"stores"`
}

// FranchiseAdmin is the slim user view embedded in privileged franchise
// listings.
type FranchiseAdmin struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Store represents a row in the `stores` table. TotalRevenue is an
// aggregate over the store's orders and only appears in admin views.
type Store struct {
	ID           uint64  `json:"id"`
	FranchiseID  uint64  `json:"-"`
	Name         string  `json:"name"`
	TotalRevenue float64 `json:"totalRevenue,omitempty"`
}
