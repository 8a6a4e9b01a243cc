package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/anchor-labs/anchor/internal/models"
)

// ItemQuery selects a page of items.
type ItemQuery struct {
	// GroupID restricts the page to one group; nil means all items.
	GroupID *string
	// Offset is the number of records to skip.
	Offset int
	// Limit caps the page size.
	Limit int
}

// ListItems fetches one filtered, ordered (created_at desc), range-limited
// page of the user's items.
func (c *Client) ListItems(ctx context.Context, q ItemQuery) ([]models.Item, error) {
	v := url.Values{}
	v.Set("offset", strconv.Itoa(q.Offset))
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("order", "created_at.desc")
	if q.GroupID != nil {
		v.Set("group_id", *q.GroupID)
	}

	var items []models.Item
	if err := c.do(ctx, "list items", http.MethodGet, "/api/items?"+v.Encode(), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FindItemByNormalizedURL looks up the user's item holding the given
// normalized URL. Returns models.ErrNotFound (wrapped) when there is none.
func (c *Client) FindItemByNormalizedURL(ctx context.Context, normalized string) (*models.Item, error) {
	v := url.Values{}
	v.Set("normalized_url", normalized)

	var items []models.Item
	if err := c.do(ctx, "find item", http.MethodGet, "/api/items?"+v.Encode(), nil, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, models.NewError("find item", models.KindNotFound, models.ErrNotFound)
	}
	return &items[0], nil
}

// InsertItem creates item remotely and returns the stored row.
func (c *Client) InsertItem(ctx context.Context, item models.Item) (models.Item, error) {
	var stored models.Item
	if err := c.do(ctx, "insert item", http.MethodPost, "/api/items", item, &stored); err != nil {
		return models.Item{}, err
	}
	return stored, nil
}

// UpdateItem applies patch to the item and returns the stored row.
func (c *Client) UpdateItem(ctx context.Context, id string, patch models.ItemPatch) (models.Item, error) {
	var stored models.Item
	path := "/api/items/" + url.PathEscape(id)
	if err := c.do(ctx, "update item", http.MethodPatch, path, patch, &stored); err != nil {
		return models.Item{}, err
	}
	return stored, nil
}

// DeleteItem soft-deletes the item remotely.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	path := "/api/items/" + url.PathEscape(id)
	return c.do(ctx, "delete item", http.MethodDelete, path, nil, nil)
}

// SetItemLabels replaces the item's label set with the given label IDs.
func (c *Client) SetItemLabels(ctx context.Context, itemID string, labelIDs []string) error {
	path := fmt.Sprintf("/api/items/%s/labels", url.PathEscape(itemID))
	body := map[string][]string{"label_ids": labelIDs}
	return c.do(ctx, "set item labels", http.MethodPut, path, body, nil)
}

// ListItemLabels fetches, in a single query, all join rows (with the label
// expanded) for every item in itemIDs. An empty itemIDs slice short-circuits
// without a network call.
func (c *Client) ListItemLabels(ctx context.Context, itemIDs []string) ([]models.ItemLabel, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	v := url.Values{}
	v.Set("item_ids", strings.Join(itemIDs, ","))

	var rows []models.ItemLabel
	if err := c.do(ctx, "list item labels", http.MethodGet, "/api/item-labels?"+v.Encode(), nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
