package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ykarpov/chorebank/internal/models"
	"github.com/ykarpov/chorebank/internal/storage"
)

const groupColumns = "id, name, secret_hash, start_day, sprint_duration, owner_id, group_balance, weights, last_settled_on, created_at"

// CreateGroup persists a new group to the database.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if group.Weights == nil {
		group.Weights = models.Weights{}
	}

	weights, err := json.Marshal(group.Weights)
	if err != nil {
		return fmt.Errorf("failed to encode weights: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO groups (`+groupColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		group.ID, group.Name, group.SecretHash, group.StartDay, group.SprintDuration,
		group.OwnerID, group.GroupBalance.String(), string(weights), group.LastSettledOn, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}
	return nil
}

func scanGroup(row interface{ Scan(...any) error }) (*models.Group, error) {
	group := &models.Group{}
	var balance, weights string
	err := row.Scan(&group.ID, &group.Name, &group.SecretHash, &group.StartDay,
		&group.SprintDuration, &group.OwnerID, &balance, &weights,
		&group.LastSettledOn, &group.CreatedAt)
	if err != nil {
		return nil, err
	}

	group.GroupBalance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("failed to parse group balance: %w", err)
	}
	if err := json.Unmarshal([]byte(weights), &group.Weights); err != nil {
		return nil, fmt.Errorf("failed to decode weights: %w", err)
	}
	return group, nil
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := scanGroup(s.db.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE id = ?", groupID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// GetGroupByName retrieves a group by its unique name.
func (s *SQLiteStore) GetGroupByName(ctx context.Context, name string) (*models.Group, error) {
	group, err := scanGroup(s.db.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE name = ?", name))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %q: %w", name, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group by name: %w", err)
	}
	return group, nil
}

// ListGroups retrieves all groups.
func (s *SQLiteStore) ListGroups(ctx context.Context) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+groupColumns+" FROM groups ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// UpdateGroup updates an existing group's settings, owner and weights.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, group *models.Group) error {
	weights, err := json.Marshal(group.Weights)
	if err != nil {
		return fmt.Errorf("failed to encode weights: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE groups SET name = ?, secret_hash = ?, start_day = ?, sprint_duration = ?,
		 owner_id = ?, weights = ? WHERE id = ?`,
		group.Name, group.SecretHash, group.StartDay, group.SprintDuration,
		group.OwnerID, string(weights), group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check group update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", group.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteGroup removes a group by ID.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check group delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return nil
}
