package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/enums"
	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/model"
	authsvc "github.com/Jelisos/wallpaper-site-sub000/internal/services/auth"
	moderationsvc "github.com/Jelisos/wallpaper-site-sub000/internal/services/moderation"
	syncbus "github.com/Jelisos/wallpaper-site-sub000/internal/services/sync"
)

type memStatusStore struct {
	status  map[int64]model.VisibilityStatus
	events  []model.ModerationEvent
	failIDs map[int64]bool
	nextID  int64
	clock   time.Time
}

func newMemStatusStore() *memStatusStore {
	return &memStatusStore{
		status:  make(map[int64]model.VisibilityStatus),
		failIDs: make(map[int64]bool),
		clock:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *memStatusStore) GetStatus(_ context.Context, itemID int64) (model.VisibilityStatus, error) {
	if status, ok := s.status[itemID]; ok {
		return status, nil
	}
	return model.VisibilityStatus{ItemID: itemID, State: enums.VisibilityNormal}, nil
}

func (s *memStatusStore) Transition(_ context.Context, itemID, actorID int64, action enums.ModerationAction, comment *string) (model.ModerationEvent, error) {
	if s.failIDs[itemID] {
		return model.ModerationEvent{}, errors.New("storage hiccup")
	}

	old := enums.VisibilityNormal
	if status, ok := s.status[itemID]; ok {
		old = status.State
	}

	s.nextID++
	s.clock = s.clock.Add(time.Second)
	event := model.ModerationEvent{
		ID:        s.nextID,
		ItemID:    itemID,
		Action:    action,
		ActorID:   actorID,
		OldState:  old,
		NewState:  action.TargetState(),
		Comment:   comment,
		CreatedAt: s.clock,
	}

	s.status[itemID] = model.VisibilityStatus{ItemID: itemID, State: event.NewState, UpdatedAt: event.CreatedAt}
	s.events = append(s.events, event)
	return event, nil
}

func (s *memStatusStore) ListExiled(_ context.Context) ([]model.ExiledEntry, error) {
	var entries []model.ExiledEntry
	for _, status := range s.status {
		if status.State == enums.VisibilityExiled {
			entries = append(entries, model.ExiledEntry{ItemID: status.ItemID, ExiledAt: status.UpdatedAt})
		}
	}
	return entries, nil
}

func (s *memStatusStore) ListEvents(_ context.Context, itemID int64, limit, offset int) ([]model.ModerationEvent, error) {
	var filtered []model.ModerationEvent
	for i := len(s.events) - 1; i >= 0; i-- {
		if itemID > 0 && s.events[i].ItemID != itemID {
			continue
		}
		filtered = append(filtered, s.events[i])
	}
	if offset >= len(filtered) {
		return nil, nil
	}
	filtered = filtered[offset:]
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

type memExistsCatalog struct {
	known map[int64]bool
}

func (c *memExistsCatalog) Exists(_ context.Context, itemID int64) (bool, error) {
	return c.known[itemID], nil
}

func newModerationHandler(store *memStatusStore, known ...int64) *ModerationHandler {
	catalog := &memExistsCatalog{known: make(map[int64]bool)}
	for _, id := range known {
		catalog.known[id] = true
	}
	return NewModerationHandler(moderationsvc.NewService(store, catalog, syncbus.NewBus()))
}

func withURLParam(ctx context.Context, key, value string) context.Context {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
}

func privilegedCtx() context.Context {
	return authsvc.WithIdentity(context.Background(), authsvc.Identity{UserID: 7, Privileged: true})
}

func TestModerationHandlerExileReturnsAuditEvent(t *testing.T) {
	h := newModerationHandler(newMemStatusStore(), 42)

	body := bytes.NewBufferString(`{"comment":"duplicate upload"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/moderation/items/42/exile", body)
	req = req.WithContext(withURLParam(privilegedCtx(), "id", "42"))
	rec := httptest.NewRecorder()

	h.Exile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var payload struct {
		ItemID   int64  `json:"item_id"`
		Action   string `json:"action"`
		OldState string `json:"old_state"`
		NewState string `json:"new_state"`
		Comment  string `json:"comment"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if payload.ItemID != 42 || payload.Action != "exile" {
		t.Fatalf("unexpected event: %+v", payload)
	}
	if payload.OldState != "normal" || payload.NewState != "exiled" {
		t.Fatalf("unexpected state transition: %s -> %s", payload.OldState, payload.NewState)
	}
	if payload.Comment != "duplicate upload" {
		t.Fatalf("comment lost: %q", payload.Comment)
	}
}

func TestModerationHandlerRequiresIdentity(t *testing.T) {
	h := newModerationHandler(newMemStatusStore(), 42)

	req := httptest.NewRequest(http.MethodPost, "/admin/moderation/items/42/exile", nil)
	req = req.WithContext(withURLParam(context.Background(), "id", "42"))
	rec := httptest.NewRecorder()

	h.Exile(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestModerationHandlerRejectsUnprivilegedActor(t *testing.T) {
	h := newModerationHandler(newMemStatusStore(), 42)

	ctx := authsvc.WithIdentity(context.Background(), authsvc.Identity{UserID: 7})
	req := httptest.NewRequest(http.MethodPost, "/admin/moderation/items/42/exile", nil)
	req = req.WithContext(withURLParam(ctx, "id", "42"))
	rec := httptest.NewRecorder()

	h.Exile(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusForbidden)
	}
}

func TestModerationHandlerExileUnknownItemIs404(t *testing.T) {
	h := newModerationHandler(newMemStatusStore(), 42)

	req := httptest.NewRequest(http.MethodPost, "/admin/moderation/items/99/exile", nil)
	req = req.WithContext(withURLParam(privilegedCtx(), "id", "99"))
	rec := httptest.NewRecorder()

	h.Exile(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusNotFound)
	}
}

func TestModerationHandlerBatchPartialFailureIs409(t *testing.T) {
	store := newMemStatusStore()
	store.failIDs[2] = true
	h := newModerationHandler(store, 1, 2, 3)

	body := bytes.NewBufferString(`{"item_ids":[1,2,3]}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/moderation/batch/exile", body)
	req = req.WithContext(privilegedCtx())
	rec := httptest.NewRecorder()

	h.BatchExile(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("unexpected status: got %d want %d (%s)", rec.Code, http.StatusConflict, rec.Body.String())
	}

	var payload struct {
		Succeeded int     `json:"succeeded"`
		Failed    []int64 `json:"failed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Succeeded != 2 {
		t.Fatalf("unexpected succeeded count: got %d want 2", payload.Succeeded)
	}
	if len(payload.Failed) != 1 || payload.Failed[0] != 2 {
		t.Fatalf("unexpected failed list: %v", payload.Failed)
	}
}

func TestModerationHandlerAuditLogFiltersByItem(t *testing.T) {
	store := newMemStatusStore()
	h := newModerationHandler(store, 1, 2)

	for _, id := range []string{"1", "2", "1"} {
		action := "/exile"
		req := httptest.NewRequest(http.MethodPost, "/admin/moderation/items/"+id+action, nil)
		req = req.WithContext(withURLParam(privilegedCtx(), "id", id))
		rec := httptest.NewRecorder()
		if id == "1" && len(store.events) > 1 {
			h.Recall(rec, req)
		} else {
			h.Exile(rec, req)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("seed transition failed for item %s: %d", id, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/moderation/audit?item_id=1", nil)
	req = req.WithContext(privilegedCtx())
	rec := httptest.NewRecorder()

	h.AuditLog(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d (%s)", rec.Code, rec.Body.String())
	}

	var payload struct {
		Events []struct {
			ItemID int64  `json:"item_id"`
			Action string `json:"action"`
		} `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Events) != 2 {
		t.Fatalf("unexpected event count: got %d want 2", len(payload.Events))
	}
	for _, event := range payload.Events {
		if event.ItemID != 1 {
			t.Fatalf("audit filter leaked item %d", event.ItemID)
		}
	}
	if payload.Events[0].Action != "recall" {
		t.Fatalf("expected newest-first ordering, got %q first", payload.Events[0].Action)
	}
}
