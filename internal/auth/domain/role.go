package domain

import "time"

type Role struct {
	ID          string
	Name        string
	Permissions []string // Parsed from space-delimited storage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FlattenRoles collapses a role set into the name and permission lists
// that token claims carry. Permissions are deduplicated, order of first
// appearance preserved.
func FlattenRoles(roles []Role) (names []string, permissions []string) {
	seen := make(map[string]struct{})
	for _, r := range roles {
		names = append(names, r.Name)
		for _, p := range r.Permissions {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			permissions = append(permissions, p)
		}
	}
	return names, permissions
}
