// Package repository provides the emulator's persistence layer over
// PostgreSQL. Every query is scoped by user ID, standing in for the row-level
// security the hosted platform enforces.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/anchor-labs/anchor/internal/models"
)

// PostgresItemRepository implements item persistence against PostgreSQL.
type PostgresItemRepository struct {
	DB *sql.DB
}

// NewPostgresItemRepository creates the repository using the provided *sql.DB.
func NewPostgresItemRepository(db *sql.DB) *PostgresItemRepository {
	return &PostgresItemRepository{DB: db}
}

const itemColumns = `id, user_id, url, normalized_url, title, description,
	thumbnail_url, domain, note, group_id, created_at, updated_at, opened_at, deleted`

func scanItem(row interface{ Scan(...any) error }) (models.Item, error) {
	var it models.Item
	var groupID sql.NullString
	var openedAt sql.NullTime
	err := row.Scan(&it.ID, &it.UserID, &it.URL, &it.NormalizedURL, &it.Title,
		&it.Description, &it.ThumbnailURL, &it.Domain, &it.Note, &groupID,
		&it.CreatedAt, &it.UpdatedAt, &openedAt, &it.Deleted)
	if err != nil {
		return models.Item{}, err
	}
	if groupID.Valid {
		it.GroupID = &groupID.String
	}
	if openedAt.Valid {
		it.OpenedAt = &openedAt.Time
	}
	return it, nil
}

// List returns one page of the user's live items, newest first, optionally
// restricted to a group.
func (r *PostgresItemRepository) List(ctx context.Context, userID string, groupID *string, offset, limit int) ([]models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE user_id = $1 AND deleted = false`
	args := []any{userID}
	if groupID != nil {
		query += ` AND group_id = $2`
		args = append(args, *groupID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC OFFSET %d LIMIT %d`, offset, limit)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// FindByNormalizedURL returns the user's live item holding the normalized
// URL, or models.ErrNotFound.
func (r *PostgresItemRepository) FindByNormalizedURL(ctx context.Context, userID, normalized string) (*models.Item, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+itemColumns+` FROM items
		 WHERE user_id = $1 AND normalized_url = $2 AND deleted = false
	`, userID, normalized)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find item by url: %w", err)
	}
	return &it, nil
}

// Insert stores a new item.
func (r *PostgresItemRepository) Insert(ctx context.Context, it models.Item) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO items (id, user_id, url, normalized_url, title, description,
			thumbnail_url, domain, note, group_id, created_at, updated_at, opened_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, false)
	`, it.ID, it.UserID, it.URL, it.NormalizedURL, it.Title, it.Description,
		it.ThumbnailURL, it.Domain, it.Note, it.GroupID, it.CreatedAt, it.UpdatedAt, it.OpenedAt)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// Update applies the patch's non-nil fields and returns the stored row.
// Returns models.ErrNotFound when the user holds no live item with that ID.
func (r *PostgresItemRepository) Update(ctx context.Context, userID, id string, patch models.ItemPatch) (*models.Item, error) {
	sets := []string{"updated_at = now()"}
	args := []any{userID, id}
	n := 3
	add := func(col string, val any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, n))
		args = append(args, val)
		n++
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Note != nil {
		add("note", *patch.Note)
	}
	if patch.GroupID != nil {
		if *patch.GroupID == "" {
			sets = append(sets, "group_id = NULL")
		} else {
			add("group_id", *patch.GroupID)
		}
	}
	if patch.OpenedAt != nil {
		add("opened_at", *patch.OpenedAt)
	}

	query := `UPDATE items SET ` + strings.Join(sets, ", ") + `
		WHERE user_id = $1 AND id = $2 AND deleted = false
		RETURNING ` + itemColumns
	row := r.DB.QueryRowContext(ctx, query, args...)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return &it, nil
}

// SoftDelete marks the item deleted. The cleaner purges it after retention.
func (r *PostgresItemRepository) SoftDelete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE items SET deleted = true, updated_at = now()
		 WHERE user_id = $1 AND id = $2 AND deleted = false
	`, userID, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return models.ErrNotFound
	}
	return nil
}
