package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/anchor-labs/anchor/internal/models"
	handler "github.com/anchor-labs/anchor/internal/server/handler/http"
)

// fakeItemService records calls and returns preconfigured results.
type fakeItemService struct {
	listGroupID  *string
	listOffset   int
	listLimit    int
	listResult   []models.Item
	listErr      error
	findResult   *models.Item
	findErr      error
	inserted     []models.Item
	insertErr    error
	updated      map[string]models.ItemPatch
	updateResult *models.Item
	updateErr    error
	deletedIDs   []string
	deleteErr    error
	labelRows    []models.ItemLabel
	labelItemIDs []string
	ensured      []string
	setItemID    string
	setLabelIDs  []string
}

func (f *fakeItemService) List(_ context.Context, _ string, groupID *string, offset, limit int) ([]models.Item, error) {
	f.listGroupID, f.listOffset, f.listLimit = groupID, offset, limit
	return f.listResult, f.listErr
}

func (f *fakeItemService) FindByNormalizedURL(context.Context, string, string) (*models.Item, error) {
	return f.findResult, f.findErr
}

func (f *fakeItemService) Insert(_ context.Context, _ string, it models.Item) (models.Item, error) {
	f.inserted = append(f.inserted, it)
	if it.ID == "" {
		it.ID = "generated"
	}
	return it, f.insertErr
}

func (f *fakeItemService) Update(_ context.Context, _ string, id string, patch models.ItemPatch) (*models.Item, error) {
	if f.updated == nil {
		f.updated = map[string]models.ItemPatch{}
	}
	f.updated[id] = patch
	return f.updateResult, f.updateErr
}

func (f *fakeItemService) Delete(_ context.Context, _ string, id string) error {
	f.deletedIDs = append(f.deletedIDs, id)
	return f.deleteErr
}

func (f *fakeItemService) ItemLabels(_ context.Context, _ string, itemIDs []string) ([]models.ItemLabel, error) {
	f.labelItemIDs = itemIDs
	return f.labelRows, nil
}

func (f *fakeItemService) EnsureLabel(_ context.Context, _ string, name string) (models.Label, error) {
	f.ensured = append(f.ensured, name)
	return models.Label{ID: "label-" + name, Name: name}, nil
}

func (f *fakeItemService) SetItemLabels(_ context.Context, itemID string, labelIDs []string) error {
	f.setItemID, f.setLabelIDs = itemID, labelIDs
	return nil
}

// fakeGroupService satisfies the router's second dependency; the group tests
// live in groups_test.go.
type fakeGroupService struct {
	listResult   []models.Group
	listErr      error
	created      []models.GroupInput
	createResult models.Group
	createErr    error
	renameResult *models.Group
	renameErr    error
	deletedIDs   []string
	deleteErr    error
}

func (f *fakeGroupService) List(context.Context, string) ([]models.Group, error) {
	return f.listResult, f.listErr
}

func (f *fakeGroupService) Create(_ context.Context, _ string, in models.GroupInput) (models.Group, error) {
	f.created = append(f.created, in)
	return f.createResult, f.createErr
}

func (f *fakeGroupService) Rename(_ context.Context, _, _ string, in models.GroupInput) (*models.Group, error) {
	return f.renameResult, f.renameErr
}

func (f *fakeGroupService) Delete(_ context.Context, _, id string) error {
	f.deletedIDs = append(f.deletedIDs, id)
	return f.deleteErr
}

func newTestRouter(items *fakeItemService, groups *fakeGroupService) http.Handler {
	return handler.NewRouter(
		&handler.ItemHandler{Items: items},
		&handler.GroupHandler{Groups: groups},
		zap.NewNop(),
	)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "u1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestItemsList_PassesPagination(t *testing.T) {
	items := &fakeItemService{listResult: []models.Item{{ID: "i1"}}}
	router := newTestRouter(items, &fakeGroupService{})

	w := doJSON(t, router, http.MethodGet, "/api/items?offset=30&limit=30&group_id=g1", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusOK)
	}
	if items.listOffset != 30 || items.listLimit != 30 {
		t.Errorf("pagination = (%d, %d); want (30, 30)", items.listOffset, items.listLimit)
	}
	if items.listGroupID == nil || *items.listGroupID != "g1" {
		t.Errorf("group filter not forwarded: %v", items.listGroupID)
	}

	var got []models.Item
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 || got[0].ID != "i1" {
		t.Errorf("response = %+v", got)
	}
}

func TestItemsList_MissingIdentity(t *testing.T) {
	router := newTestRouter(&fakeItemService{}, &fakeGroupService{})

	req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestItemsList_NormalizedURLLookup(t *testing.T) {
	t.Run("hit returns one-element array", func(t *testing.T) {
		items := &fakeItemService{findResult: &models.Item{ID: "i1"}}
		router := newTestRouter(items, &fakeGroupService{})

		w := doJSON(t, router, http.MethodGet, "/api/items?normalized_url=https%3A%2F%2Fexample.com%2Fa", nil)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var got []models.Item
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(got) != 1 || got[0].ID != "i1" {
			t.Errorf("response = %+v; want [i1]", got)
		}
	})

	t.Run("miss returns empty array", func(t *testing.T) {
		items := &fakeItemService{findErr: models.ErrNotFound}
		router := newTestRouter(items, &fakeGroupService{})

		w := doJSON(t, router, http.MethodGet, "/api/items?normalized_url=https%3A%2F%2Fexample.com%2Fnone", nil)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		if body := w.Body.String(); body != "[]\n" {
			t.Errorf("body = %q; want empty JSON array", body)
		}
	})
}

func TestItemsCreate_Success(t *testing.T) {
	items := &fakeItemService{}
	router := newTestRouter(items, &fakeGroupService{})

	w := doJSON(t, router, http.MethodPost, "/api/items", models.Item{URL: "https://example.com/a"})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusCreated)
	}
	if len(items.inserted) != 1 || items.inserted[0].URL != "https://example.com/a" {
		t.Errorf("inserted = %+v", items.inserted)
	}
}

func TestItemsCreate_BadJSON(t *testing.T) {
	router := newTestRouter(&fakeItemService{}, &fakeGroupService{})

	req := httptest.NewRequest(http.MethodPost, "/api/items", bytes.NewBufferString("not-a-json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "u1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want %d", w.Code, http.StatusBadRequest)
	}
}

func TestItemsUpdate_ForwardsPatch(t *testing.T) {
	items := &fakeItemService{updateResult: &models.Item{ID: "i1", Note: "updated"}}
	router := newTestRouter(items, &fakeGroupService{})

	note := "updated"
	w := doJSON(t, router, http.MethodPatch, "/api/items/i1", models.ItemPatch{Note: &note})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	patch, ok := items.updated["i1"]
	if !ok || patch.Note == nil || *patch.Note != "updated" {
		t.Errorf("patch not forwarded: %+v", items.updated)
	}
}

func TestItemsUpdate_NotFound(t *testing.T) {
	items := &fakeItemService{updateErr: models.ErrNotFound}
	router := newTestRouter(items, &fakeGroupService{})

	note := "x"
	w := doJSON(t, router, http.MethodPatch, "/api/items/missing", models.ItemPatch{Note: &note})

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d; want %d", w.Code, http.StatusNotFound)
	}
}

func TestItemsDelete_Success(t *testing.T) {
	items := &fakeItemService{}
	router := newTestRouter(items, &fakeGroupService{})

	w := doJSON(t, router, http.MethodDelete, "/api/items/i1", nil)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusNoContent)
	}
	if len(items.deletedIDs) != 1 || items.deletedIDs[0] != "i1" {
		t.Errorf("deleted = %v", items.deletedIDs)
	}
}

func TestItemLabels_SplitsIDs(t *testing.T) {
	items := &fakeItemService{labelRows: []models.ItemLabel{}}
	router := newTestRouter(items, &fakeGroupService{})

	w := doJSON(t, router, http.MethodGet, "/api/item-labels?item_ids=a,b,c", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	want := []string{"a", "b", "c"}
	if len(items.labelItemIDs) != 3 {
		t.Fatalf("item IDs = %v; want %v", items.labelItemIDs, want)
	}
	for i, id := range want {
		if items.labelItemIDs[i] != id {
			t.Errorf("item IDs = %v; want %v", items.labelItemIDs, want)
		}
	}
}

func TestEnsureLabel_RequiresName(t *testing.T) {
	router := newTestRouter(&fakeItemService{}, &fakeGroupService{})

	w := doJSON(t, router, http.MethodPost, "/api/labels/ensure", map[string]string{"name": "  "})

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSetLabels_ForwardsIDs(t *testing.T) {
	items := &fakeItemService{}
	router := newTestRouter(items, &fakeGroupService{})

	w := doJSON(t, router, http.MethodPut, "/api/items/i1/labels",
		map[string][]string{"label_ids": {"l1", "l2"}})

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if items.setItemID != "i1" || len(items.setLabelIDs) != 2 {
		t.Errorf("set labels call = (%q, %v)", items.setItemID, items.setLabelIDs)
	}
}
