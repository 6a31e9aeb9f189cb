package auth

import (
	"context"
	"database/sql"
	"fmt"
)

const userPermissionsQuery = `
SELECT permission
FROM user_permissions
WHERE user_id = $1 AND source_type = $2
ORDER BY permission`

// PostgresStore reads user permissions from the user_permissions table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) UserPermissions(ctx context.Context, userID, sourceType string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, userPermissionsQuery, userID, sourceType)
	if err != nil {
		if err == sql.ErrNoRows {
			return []string{}, nil
		}
		return nil, fmt.Errorf("postgres permission lookup failed: %w", err)
	}
	defer rows.Close()

	perms := []string{}
	for rows.Next() {
		var perm string
		if err := rows.Scan(&perm); err != nil {
			return nil, fmt.Errorf("postgres permission scan failed: %w", err)
		}
		perms = append(perms, perm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres permission iteration failed: %w", err)
	}

	return perms, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
