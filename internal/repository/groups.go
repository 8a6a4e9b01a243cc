package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/anchor-labs/anchor/internal/models"
)

// PostgresGroupRepository implements group persistence.
type PostgresGroupRepository struct {
	DB *sql.DB
}

// NewPostgresGroupRepository creates the repository using the provided *sql.DB.
func NewPostgresGroupRepository(db *sql.DB) *PostgresGroupRepository {
	return &PostgresGroupRepository{DB: db}
}

const groupColumns = `id, user_id, name, color, is_default, created_at, updated_at`

func scanGroup(row interface{ Scan(...any) error }) (models.Group, error) {
	var g models.Group
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.Color, &g.IsDefault, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

// List returns all of the user's groups, defaults first, then by creation.
func (r *PostgresGroupRepository) List(ctx context.Context, userID string) ([]models.Group, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+groupColumns+` FROM groups
		 WHERE user_id = $1
		 ORDER BY is_default DESC, created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// Get returns one group, or models.ErrNotFound.
func (r *PostgresGroupRepository) Get(ctx context.Context, userID, id string) (*models.Group, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+groupColumns+` FROM groups WHERE user_id = $1 AND id = $2
	`, userID, id)
	g, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return &g, nil
}

// Insert stores a new group.
func (r *PostgresGroupRepository) Insert(ctx context.Context, g models.Group) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO groups (id, user_id, name, color, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, g.ID, g.UserID, g.Name, g.Color, g.IsDefault, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

// Update renames and recolors the group, returning the stored row.
func (r *PostgresGroupRepository) Update(ctx context.Context, userID, id, name, color string) (*models.Group, error) {
	row := r.DB.QueryRowContext(ctx, `
		UPDATE groups SET name = $3, color = $4, updated_at = now()
		 WHERE user_id = $1 AND id = $2
		RETURNING `+groupColumns, userID, id, name, color)
	g, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update group: %w", err)
	}
	return &g, nil
}

// Delete removes the group. Items keep running via ON DELETE SET NULL.
func (r *PostgresGroupRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM groups WHERE user_id = $1 AND id = $2
	`, userID, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return models.ErrNotFound
	}
	return nil
}
