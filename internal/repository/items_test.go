package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/anchor-labs/anchor/internal/models"
)

func setupItemMock(t *testing.T) (*PostgresItemRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresItemRepository(db)
	cleanup := func() {
		db.Close()
	}
	return repo, mock, cleanup
}

var itemRowCols = []string{"id", "user_id", "url", "normalized_url", "title", "description",
	"thumbnail_url", "domain", "note", "group_id", "created_at", "updated_at", "opened_at", "deleted"}

func addItemRow(rows *sqlmock.Rows, id string, groupID any) *sqlmock.Rows {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return rows.AddRow(id, "user1", "https://example.com/"+id, "https://example.com/"+id,
		"", "", "", "example.com", "", groupID, now, now, nil, false)
}

func TestItemList_Success(t *testing.T) {
	repo, mock, cleanup := setupItemMock(t)
	defer cleanup()

	rows := sqlmock.NewRows(itemRowCols)
	addItemRow(rows, "i1", nil)
	addItemRow(rows, "i2", "g1")

	mock.ExpectQuery(regexp.QuoteMeta(`FROM items WHERE user_id = $1 AND deleted = false`)).
		WithArgs("user1").
		WillReturnRows(rows)

	items, err := repo.List(context.Background(), "user1", nil, 0, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].GroupID != nil {
		t.Errorf("expected nil group for i1, got %v", *items[0].GroupID)
	}
	if items[1].GroupID == nil || *items[1].GroupID != "g1" {
		t.Errorf("expected group g1 for i2, got %v", items[1].GroupID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestItemList_GroupFilter(t *testing.T) {
	repo, mock, cleanup := setupItemMock(t)
	defer cleanup()

	rows := sqlmock.NewRows(itemRowCols)
	addItemRow(rows, "i2", "g1")

	mock.ExpectQuery(regexp.QuoteMeta(`AND group_id = $2`)).
		WithArgs("user1", "g1").
		WillReturnRows(rows)

	groupID := "g1"
	items, err := repo.List(context.Background(), "user1", &groupID, 0, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "i2" {
		t.Errorf("unexpected items: %+v", items)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestItemList_QueryError(t *testing.T) {
	repo, mock, cleanup := setupItemMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM items WHERE user_id = $1`)).
		WithArgs("user1").
		WillReturnError(errors.New("query fail"))

	_, err := repo.List(context.Background(), "user1", nil, 0, 30)
	if err == nil || !regexp.MustCompile(`list items`).MatchString(err.Error()) {
		t.Errorf("expected list items error, got %v", err)
	}
}

func TestFindByNormalizedURL_Success(t *testing.T) {
	repo, mock, cleanup := setupItemMock(t)
	defer cleanup()

	rows := sqlmock.NewRows(itemRowCols)
	addItemRow(rows, "i1", nil)

	mock.ExpectQuery(regexp.QuoteMeta(`AND normalized_url = $2 AND deleted = false`)).
		WithArgs("user1", "https://example.com/i1").
		WillReturnRows(rows)

	it, err := repo.FindByNormalizedURL(context.Background(), "user1", "https://example.com/i1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.ID != "i1" {
		t.Errorf("expected i1, got %s", it.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestFindByNormalizedURL_NotFound(t *testing.T) {
	repo, mock, cleanup := setupItemMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`AND normalized_url = $2`)).
		WithArgs("user1", "https://example.com/none").
		WillReturnRows(sqlmock.NewRows(itemRowCols))

	_, err := repo.FindByNormalizedURL(context.Background(), "user1", "https://example.com/none")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestItemInsert_Success(t *testing.T) {
	repo, mock, cleanup := setupItemMock(t)
	defer cleanup()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	it := models.Item{
		ID: "i1", UserID: "user1",
		URL: "https://example.com/a", NormalizedURL: "https://example.com/a",
		Domain: "example.com", CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO items`)).
		WithArgs(it.ID, it.UserID, it.URL, it.NormalizedURL, it.Title, it.Description,
			it.ThumbnailURL, it.Domain, it.Note, nil, it.CreatedAt, it.UpdatedAt, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Insert(context.Background(), it); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestItemUpdate_NoteOnly(t *testing.T) {
	repo, mock, cleanup := setupItemMock(t)
	defer cleanup()

	rows := sqlmock.NewRows(itemRowCols)
	addItemRow(rows, "i1", nil)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE items SET updated_at = now(), note = $3`)).
		WithArgs("user1", "i1", "a note").
		WillReturnRows(rows)

	note := "a note"
	it, err := repo.Update(context.Background(), "user1", "i1", models.ItemPatch{Note: &note})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.ID != "i1" {
		t.Errorf("expected i1, got %s", it.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestItemUpdate_ClearGroup(t *testing.T) {
	repo, mock, cleanup := setupItemMock(t)
	defer cleanup()

	rows := sqlmock.NewRows(itemRowCols)
	addItemRow(rows, "i1", nil)

	mock.ExpectQuery(regexp.QuoteMeta(`group_id = NULL`)).
		WithArgs("user1", "i1").
		WillReturnRows(rows)

	empty := ""
	_, err := repo.Update(context.Background(), "user1", "i1", models.ItemPatch{GroupID: &empty})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestItemUpdate_NotFound(t *testing.T) {
	repo, mock, cleanup := setupItemMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE items SET`)).
		WithArgs("user1", "missing", "x").
		WillReturnRows(sqlmock.NewRows(itemRowCols))

	note := "x"
	_, err := repo.Update(context.Background(), "user1", "missing", models.ItemPatch{Note: &note})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSoftDelete_Success(t *testing.T) {
	repo, mock, cleanup := setupItemMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE items SET deleted = true`)).
		WithArgs("user1", "i1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SoftDelete(context.Background(), "user1", "i1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSoftDelete_NotFound(t *testing.T) {
	repo, mock, cleanup := setupItemMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE items SET deleted = true`)).
		WithArgs("user1", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SoftDelete(context.Background(), "user1", "missing")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
