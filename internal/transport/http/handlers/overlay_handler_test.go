package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/Jelisos/wallpaper-site-sub000/internal/repo/redis"
	authsvc "github.com/Jelisos/wallpaper-site-sub000/internal/services/auth"
	overlaysvc "github.com/Jelisos/wallpaper-site-sub000/internal/services/overlay"
	ratesvc "github.com/Jelisos/wallpaper-site-sub000/internal/services/rate"
	syncbus "github.com/Jelisos/wallpaper-site-sub000/internal/services/sync"
)

func newOverlayHandler(t *testing.T, perMinute, per10Sec int, known ...int64) *OverlayHandler {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	catalog := &memExistsCatalog{known: make(map[int64]bool)}
	for _, id := range known {
		catalog.known[id] = true
	}

	svc := overlaysvc.NewService(
		redrepo.NewOverlayRepo(redisClient),
		catalog,
		ratesvc.NewLimiter(redrepo.NewRateRepo(redisClient), perMinute, per10Sec),
		syncbus.NewBus(),
	)
	return NewOverlayHandler(svc)
}

func performToggle(t *testing.T, h *OverlayHandler, path, itemID string, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, nil)
	ctx := withURLParam(req.Context(), "id", itemID)
	if authed {
		ctx = authsvc.WithIdentity(ctx, authsvc.Identity{UserID: 101})
	}
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ToggleLike(rec, req)
	return rec
}

func TestOverlayHandlerToggleFlipsState(t *testing.T) {
	h := newOverlayHandler(t, 60, 10, 42)

	first := performToggle(t, h, "/items/42/like", "42", true)
	if first.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d (%s)", first.Code, first.Body.String())
	}

	var payload struct {
		ItemID   int64 `json:"item_id"`
		NewState bool  `json:"new_state"`
	}
	if err := json.Unmarshal(first.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.ItemID != 42 || !payload.NewState {
		t.Fatalf("expected liked=true for item 42, got %+v", payload)
	}

	second := performToggle(t, h, "/items/42/like", "42", true)
	if err := json.Unmarshal(second.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode second response: %v", err)
	}
	if payload.NewState {
		t.Fatalf("expected second toggle to clear the like")
	}
}

func TestOverlayHandlerRequiresIdentity(t *testing.T) {
	h := newOverlayHandler(t, 60, 10, 42)

	rec := performToggle(t, h, "/items/42/like", "42", false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestOverlayHandlerReturnsTooFastOnBurst(t *testing.T) {
	h := newOverlayHandler(t, 60, 2, 42)

	for i := 0; i < 2; i++ {
		if rec := performToggle(t, h, "/items/42/like", "42", true); rec.Code != http.StatusOK {
			t.Fatalf("warmup toggle %d failed: %d", i, rec.Code)
		}
	}

	rec := performToggle(t, h, "/items/42/like", "42", true)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status on burst: got %d want %d", rec.Code, http.StatusTooManyRequests)
	}

	var payload struct {
		Code          string `json:"code"`
		RetryAfterSec int64  `json:"retry_after_sec"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "TOO_FAST" {
		t.Fatalf("unexpected error code: got %q want %q", payload.Code, "TOO_FAST")
	}
	if payload.RetryAfterSec <= 0 {
		t.Fatalf("expected positive retry_after_sec, got %d", payload.RetryAfterSec)
	}
}

func TestOverlayHandlerMineListsSortedIDs(t *testing.T) {
	h := newOverlayHandler(t, 60, 10, 3, 1, 2)

	for _, id := range []string{"3", "1", "2"} {
		if rec := performToggle(t, h, "/items/"+id+"/like", id, true); rec.Code != http.StatusOK {
			t.Fatalf("seed toggle for item %s failed: %d", id, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/me/overlay", nil)
	req = req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{UserID: 101}))
	rec := httptest.NewRecorder()
	h.Mine(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d (%s)", rec.Code, rec.Body.String())
	}

	var payload struct {
		LikedIDs     []int64 `json:"liked_ids"`
		FavoritedIDs []int64 `json:"favorited_ids"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.LikedIDs) != 3 {
		t.Fatalf("unexpected liked count: got %d want 3", len(payload.LikedIDs))
	}
	for i, want := range []int64{1, 2, 3} {
		if payload.LikedIDs[i] != want {
			t.Fatalf("liked ids not sorted: %v", payload.LikedIDs)
		}
	}
	if len(payload.FavoritedIDs) != 0 {
		t.Fatalf("expected no favorites, got %v", payload.FavoritedIDs)
	}
}
