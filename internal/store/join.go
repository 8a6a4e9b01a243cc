package store

import (
	"context"

	"github.com/anchor-labs/anchor/internal/gateway"
	"github.com/anchor-labs/anchor/internal/models"
)

// fetchJoined fetches one page of items and all of their label rows in
// exactly two queries, then joins them in memory. An empty parent page
// short-circuits without issuing the child query. A parent without children
// gets an empty, non-nil label slice.
func fetchJoined(ctx context.Context, gw Gateway, q gateway.ItemQuery) ([]models.JoinedItem, error) {
	items, err := gw.ListItems(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []models.JoinedItem{}, nil
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}

	rows, err := gw.ListItemLabels(ctx, ids)
	if err != nil {
		return nil, err
	}

	byItem := make(map[string][]models.Label, len(items))
	for _, row := range rows {
		if row.Label == nil {
			continue
		}
		byItem[row.ItemID] = append(byItem[row.ItemID], *row.Label)
	}

	joined := make([]models.JoinedItem, len(items))
	for i, it := range items {
		labels := byItem[it.ID]
		if labels == nil {
			labels = []models.Label{}
		}
		joined[i] = models.JoinedItem{Item: it, Labels: labels}
	}
	return joined, nil
}
