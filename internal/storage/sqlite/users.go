package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ykarpov/chorebank/internal/models"
	"github.com/ykarpov/chorebank/internal/storage"
)

// UpsertUser inserts a user or refreshes their first name if already known.
// Group membership is left untouched on conflict; use SetUserGroup for that.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}

	var groupID any
	if user.GroupID != "" {
		groupID = user.GroupID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, group_id, first_name, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET first_name = excluded.first_name`,
		user.ID, groupID, user.FirstName, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by chat-account ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user := &models.User{}
	var groupID sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, group_id, first_name, created_at FROM users WHERE id = ?",
		userID,
	).Scan(&user.ID, &groupID, &user.FirstName, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %d: %w", userID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if groupID.Valid {
		user.GroupID = groupID.String
	}
	return user, nil
}

// ListGroupUsers retrieves all current members of a group.
func (s *SQLiteStore) ListGroupUsers(ctx context.Context, groupID string) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, first_name, created_at FROM users WHERE group_id = ? ORDER BY id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list group users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user := models.User{GroupID: groupID}
		if err := rows.Scan(&user.ID, &user.FirstName, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// SetUserGroup moves a user into a group, or out of any group when groupID
// is empty.
func (s *SQLiteStore) SetUserGroup(ctx context.Context, userID int64, groupID string) error {
	var value any
	if groupID != "" {
		value = groupID
	}
	res, err := s.db.ExecContext(ctx, "UPDATE users SET group_id = ? WHERE id = ?", value, userID)
	if err != nil {
		return fmt.Errorf("failed to set user group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check user update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", userID, storage.ErrNotFound)
	}
	return nil
}
