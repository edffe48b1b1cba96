package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/formalin/internal/core/domain"
)

func (a *SQLAdapter) ListUsernames(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT username FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return names, nil
}

func (a *SQLAdapter) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := a.db.QueryRowContext(ctx, `
		SELECT id, username, password, is_admin
		FROM users WHERE username = ? LIMIT 1`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

func (a *SQLAdapter) CreateUser(ctx context.Context, user domain.User) (int64, error) {
	result, err := a.db.ExecContext(ctx, `
		INSERT INTO users (username, password, is_admin) VALUES (?, ?, ?)`,
		user.Username, user.PasswordHash, user.IsAdmin,
	)
	if isUniqueViolation(err) {
		return 0, domain.ErrUsernameTaken
	}
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

func (a *SQLAdapter) UpdateCredentials(ctx context.Context, username string, passwordHash *string, isAdmin *bool) error {
	return a.inTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE username = ?`+a.dialect.lockClause(), username).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("query user: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE users
			SET password = COALESCE(?, password),
			    is_admin = COALESCE(?, is_admin)
			WHERE id = ?`,
			passwordHash, isAdmin, id,
		)
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		return nil
	})
}
