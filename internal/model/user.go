package model

import "time"

// Role is the closed set of role kinds a user can hold. Unknown role
// strings coming out of the database or a token payload must be checked
// with IsValid before use.
type Role string

const (
	RoleDiner      Role = "diner"      // default role granted on registration
	RoleFranchisee Role = "franchisee" // scoped to one franchise via ObjectID
	RoleAdmin      Role = "admin"      // unscoped, ObjectID is always 0
)

// IsValid reports whether r is one of the known role kinds.
func (r Role) IsValid() bool {
	switch r {
	case RoleDiner, RoleFranchisee, RoleAdmin:
		return true
	}
	return false
}

// RoleAssignment pairs a role kind with the object it is scoped to.
// ObjectID is a franchise id for franchisee assignments and 0 otherwise.
type RoleAssignment struct {
	Role     Role   `json:"role"`
	ObjectID uint64 `json:"objectId,omitempty"`
}

// User mirrors the `users` table plus its role assignments from
// `user_roles`. PasswordHash never leaves the repository layer; handlers
// expose users through PublicUser.
type User struct {
	ID           uint64           // users.id
	Name         string           // users.name
	Email        string           // users.email (unique, lower-cased)
	PasswordHash string           // users.password_hash (bcrypt)
	Roles        []RoleAssignment // user_roles rows for this user
	CreatedAt    time.Time        // users.created_at
	UpdatedAt    time.Time        // users.updated_at
}

// PublicUser is the wire view of a user: everything except the password
// hash. It is what login, registration and profile endpoints return.
type PublicUser struct {
	ID    uint64           `json:"id"`
	Name  string           `json:"name"`
	Email string           `json:"email"`
	Roles []RoleAssignment `json:"roles"`
}

// Public converts a stored user into its wire view.
func (u User) Public() PublicUser {
	roles := u.Roles
	if roles == nil {
		roles = []RoleAssignment{}
	}
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Roles: roles}
}

// Caller is the identity resolved from a bearer token, built once per
// request by the authentication middleware and handed to handlers. It
// carries the role assignments embedded in the token at issuance time,
// not the current database state.
type Caller struct {
	ID    uint64
	Name  string
	Email string
	Roles []RoleAssignment
}

// HasRole tests membership by role kind only. Scope checks (e.g. "admin
// of this particular franchise") are the responsibility of the route
// that knows which object is being touched.
func (c Caller) HasRole(kind Role) bool {
	for _, r := range c.Roles {
		if r.Role == kind {
			return true
		}
	}
	return false
}

// IsSelf reports whether the caller is the user identified by id.
func (c Caller) IsSelf(id uint64) bool { return c.ID == id }
