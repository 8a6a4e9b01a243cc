package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/anchor-labs/anchor/internal/models"
)

// PostgresLabelRepository implements label and join-row persistence.
type PostgresLabelRepository struct {
	DB *sql.DB
}

// NewPostgresLabelRepository creates the repository using the provided *sql.DB.
func NewPostgresLabelRepository(db *sql.DB) *PostgresLabelRepository {
	return &PostgresLabelRepository{DB: db}
}

// FindByName returns the user's label with the given name, compared
// case-insensitively, or models.ErrNotFound.
func (r *PostgresLabelRepository) FindByName(ctx context.Context, userID, name string) (*models.Label, error) {
	var l models.Label
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, name, color, usage_count FROM labels
		 WHERE user_id = $1 AND lower(name) = lower($2)
	`, userID, name).Scan(&l.ID, &l.UserID, &l.Name, &l.Color, &l.UsageCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find label: %w", err)
	}
	return &l, nil
}

// Insert stores a new label.
func (r *PostgresLabelRepository) Insert(ctx context.Context, l models.Label) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO labels (id, user_id, name, color, usage_count)
		VALUES ($1, $2, $3, $4, 0)
	`, l.ID, l.UserID, l.Name, l.Color)
	if err != nil {
		return fmt.Errorf("insert label: %w", err)
	}
	return nil
}

// ListItemLabels returns, in one query, all join rows with their labels
// expanded for every item in itemIDs.
func (r *PostgresLabelRepository) ListItemLabels(ctx context.Context, userID string, itemIDs []string) ([]models.ItemLabel, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT il.item_id, il.label_id, l.id, l.user_id, l.name, l.color, l.usage_count
		  FROM item_labels il
		  JOIN labels l ON l.id = il.label_id
		 WHERE l.user_id = $1 AND il.item_id = ANY($2)
	`, userID, pq.Array(itemIDs))
	if err != nil {
		return nil, fmt.Errorf("list item labels: %w", err)
	}
	defer rows.Close()

	out := []models.ItemLabel{}
	for rows.Next() {
		var row models.ItemLabel
		var l models.Label
		if err := rows.Scan(&row.ItemID, &row.LabelID, &l.ID, &l.UserID, &l.Name, &l.Color, &l.UsageCount); err != nil {
			return nil, fmt.Errorf("scan item label: %w", err)
		}
		row.Label = &l
		out = append(out, row)
	}
	return out, rows.Err()
}

// SetItemLabels replaces the item's label set within a transaction and
// recomputes usage counters for every label touched.
func (r *PostgresLabelRepository) SetItemLabels(ctx context.Context, itemID string, labelIDs []string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM item_labels WHERE item_id = $1`, itemID); err != nil {
		return fmt.Errorf("clear item labels: %w", err)
	}
	for _, labelID := range labelIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO item_labels (item_id, label_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, itemID, labelID)
		if err != nil {
			return fmt.Errorf("bind label %s: %w", labelID, err)
		}
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE labels SET usage_count = (
			SELECT count(*) FROM item_labels WHERE label_id = labels.id
		)
	`)
	if err != nil {
		return fmt.Errorf("recount labels: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
