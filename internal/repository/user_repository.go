package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/slicemill/pizza-order-service/internal/model"
)

// UserRepo is the MySQL implementation of UserStore. Users live in the
// `users` table, role assignments in `user_roles` (user_id, role,
// object_id).
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts the user and its role rows in one transaction so a
// rejected franchisee scope leaves nothing behind.
func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash string, roles []model.RoleAssignment) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.User{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash) VALUES (?,?,?)",
		name, email, passwordHash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}

	for _, ra := range roles {
		if ra.Role == model.RoleFranchisee {
			var n int
			if err := tx.QueryRowContext(ctx,
				"SELECT COUNT(*) FROM franchises WHERE id=?", ra.ObjectID).Scan(&n); err != nil {
				return model.User{}, err
			}
			if n == 0 {
				return model.User{}, ErrUnknownFranchise
			}
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO user_roles (user_id, role, object_id) VALUES (?,?,?)",
			id, string(ra.Role), ra.ObjectID); err != nil {
			return model.User{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return model.User{}, err
	}
	return model.User{ID: uint64(id), Name: name, Email: email, PasswordHash: passwordHash, Roles: roles}, nil
}

// GetByEmail fetches a user with roles by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getWhere(ctx, "email=?", email)
}

// GetByID fetches a user with roles by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getWhere(ctx, "id=?", id)
}

func (r *UserRepo) getWhere(ctx context.Context, cond string, arg interface{}) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,created_at,updated_at FROM users WHERE "+cond+" LIMIT 1",
		arg).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.Roles, err = r.rolesFor(ctx, u.ID)
	return u, err
}

func (r *UserRepo) rolesFor(ctx context.Context, userID uint64) ([]model.RoleAssignment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT role, object_id FROM user_roles WHERE user_id=? ORDER BY id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []model.RoleAssignment{}
	for rows.Next() {
		var (
			role string
			obj  uint64
		)
		if err := rows.Scan(&role, &obj); err != nil {
			return nil, err
		}
		roles = append(roles, model.RoleAssignment{Role: model.Role(role), ObjectID: obj})
	}
	return roles, rows.Err()
}

// Update changes email and/or password hash for the user and returns
// the refreshed record. Empty arguments leave a column untouched.
func (r *UserRepo) Update(ctx context.Context, id uint64, email, passwordHash string) (model.User, error) {
	sets := []string{}
	args := []interface{}{}
	if email != "" {
		sets = append(sets, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(email)))
	}
	if passwordHash != "" {
		sets = append(sets, "password_hash=?")
		args = append(args, passwordHash)
	}
	if len(sets) > 0 {
		args = append(args, id)
		_, err := r.DB.ExecContext(ctx,
			"UPDATE users SET "+strings.Join(sets, ",")+" WHERE id=?", args...)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "1062") {
				return model.User{}, ErrEmailExists
			}
			return model.User{}, err
		}
	}
	return r.GetByID(ctx, id)
}
