package sqlite

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/tickbox/internal/tickbox/domain"
)

type usersRepo struct {
	q querier
}

const userColumns = `id, username, email, password_hash, security_stamp, created_at, updated_at`

func (r *usersRepo) getUser(ctx context.Context, where string, arg any) (domain.User, error) {
	var u domain.User
	err := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` = ?`, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.SecurityStamp, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	roles, err := r.listRoles(ctx, u.ID)
	if err != nil {
		return domain.User{}, err
	}
	u.Roles = roles
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func (r *usersRepo) listRoles(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT role FROM user_roles WHERE user_id = ? ORDER BY role`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.getUser(ctx, "id", id)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.getUser(ctx, "username", username)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getUser(ctx, "email", email)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.SecurityStamp, u.CreatedAt.UTC(), u.UpdatedAt.UTC(),
	)
	if err != nil {
		return mapConstraint(err)
	}

	for _, role := range u.Roles {
		if err := r.AddUserRole(ctx, u.ID, role); err != nil {
			return fmt.Errorf("add role %q: %w", role, err)
		}
	}
	return nil
}

func (r *usersRepo) AddUserRole(ctx context.Context, userID, role string) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES (?, ?) ON CONFLICT (user_id, role) DO NOTHING`,
		userID, role,
	)
	return err
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	return err
}
