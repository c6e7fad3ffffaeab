package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/harborworks/gatehouse/internal/auth/domain"
)

type rolesRepo struct {
	db *sql.DB
}

func (r *rolesRepo) GetRolesForUser(ctx context.Context, userID string) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.name, r.permissions, r.created_at, r.updated_at
		 FROM roles r
		 JOIN user_roles ur ON ur.role_id = r.id
		 WHERE ur.user_id = ?
		 ORDER BY r.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		var permissions string
		if err := rows.Scan(&role.ID, &role.Name, &permissions, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		role.Permissions = splitPermissions(permissions)
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *rolesRepo) GetRoleByName(ctx context.Context, name string) (domain.Role, error) {
	var role domain.Role
	var permissions string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, permissions, created_at, updated_at
		 FROM roles WHERE name = ?`, name).
		Scan(&role.ID, &role.Name, &permissions, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	role.Permissions = splitPermissions(permissions)
	return role, nil
}

func (r *rolesRepo) CreateRole(ctx context.Context, role domain.Role) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO roles (id, name, permissions) VALUES (?, ?, ?)`,
		role.ID, role.Name, strings.Join(role.Permissions, " "))
	return mapConstraint(err)
}

func (r *rolesRepo) AssignRole(ctx context.Context, userID, roleID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_roles (user_id, role_id) VALUES (?, ?)`,
		userID, roleID)
	return err
}

// Permissions are stored space-delimited, matching how claims carry them.
func splitPermissions(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}
