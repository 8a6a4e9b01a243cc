// Package models defines the core data structures for saved items, labels,
// and groups, along with the error taxonomy shared across the data layer.
package models

import "time"

// Item represents a saved link belonging to a single user.
type Item struct {
	// ID is the unique identifier for the item.
	ID string `json:"id"`
	// UserID is the identifier of the owning user.
	UserID string `json:"user_id"`
	// URL is the link exactly as the user saved it.
	URL string `json:"url"`
	// NormalizedURL is the canonical form used for duplicate detection.
	// (UserID, NormalizedURL) is unique per user; duplicates are surfaced
	// as a warning, not rejected.
	NormalizedURL string `json:"normalized_url"`
	// Title is scraped from the page by the enrichment job, empty until then.
	Title string `json:"title"`
	// Description is scraped from the page's meta description.
	Description string `json:"description"`
	// ThumbnailURL references a preview image, if any.
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	// Domain is the registrable host of the URL, e.g. "example.com".
	Domain string `json:"domain"`
	// Note is a free-text annotation, at most 200 characters.
	Note string `json:"note"`
	// GroupID references the group the item belongs to; nil means ungrouped.
	// An item belongs to at most one group.
	GroupID *string `json:"group_id,omitempty"`
	// CreatedAt is when the item was saved.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the item was last modified.
	UpdatedAt time.Time `json:"updated_at"`
	// OpenedAt is when the user last opened the link; nil if never.
	OpenedAt *time.Time `json:"opened_at,omitempty"`
	// Deleted marks a soft-deleted item awaiting purge.
	Deleted bool `json:"deleted,omitempty"`
}

// Label is a user-defined tag. Labels are many-to-many with items and are
// created implicitly the first time a name is used.
type Label struct {
	ID string `json:"id"`
	// UserID is the identifier of the owning user.
	UserID string `json:"user_id"`
	// Name is unique per user, compared case-insensitively.
	Name string `json:"name"`
	// Color is a display hint, e.g. "#FFAA00".
	Color string `json:"color,omitempty"`
	// UsageCount tracks how many items carry this label.
	UsageCount int `json:"usage_count"`
}

// ItemLabel is a join row linking one item to one label. It has no lifecycle
// of its own; rows are created and destroyed as an item's label set changes.
type ItemLabel struct {
	ItemID  string `json:"item_id"`
	LabelID string `json:"label_id"`
	// Label is the expanded label row when the query asked for it.
	Label *Label `json:"labels,omitempty"`
}

// Group is a mutually exclusive organizational bucket ("space" in product
// terms). Two default groups are provisioned per user and cannot be deleted.
type Group struct {
	ID string `json:"id"`
	// UserID is the identifier of the owning user.
	UserID string `json:"user_id"`
	// Name is 1-50 characters, unique per user case-insensitively.
	Name string `json:"name"`
	// Color is a display hint.
	Color string `json:"color,omitempty"`
	// IsDefault marks the auto-provisioned groups.
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JoinedItem is an item together with its labels, the shape the UI consumes.
// Labels is always non-nil; an item without labels carries an empty slice.
type JoinedItem struct {
	Item
	Labels []Label `json:"labels"`
}

// ItemPatch describes a partial update to an item. Nil fields are untouched.
type ItemPatch struct {
	Title    *string    `json:"title,omitempty"`
	Note     *string    `json:"note,omitempty" validate:"omitempty,max=200"`
	GroupID  *string    `json:"group_id,omitempty"`
	OpenedAt *time.Time `json:"opened_at,omitempty"`
}

// DefaultGroupNames are provisioned for every user on first contact.
var DefaultGroupNames = [2]string{"Reading List", "Archive"}
