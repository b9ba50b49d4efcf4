package handlers

import (
	"context"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/Jelisos/wallpaper-site-sub000/internal/services/auth"
	overlaysvc "github.com/Jelisos/wallpaper-site-sub000/internal/services/overlay"
	"github.com/Jelisos/wallpaper-site-sub000/internal/transport/http/dto"
	httperrors "github.com/Jelisos/wallpaper-site-sub000/internal/transport/http/errors"
)

type OverlayHandler struct {
	service *overlaysvc.Service
}

func NewOverlayHandler(service *overlaysvc.Service) *OverlayHandler {
	return &OverlayHandler{service: service}
}

func (h *OverlayHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, func(ctx context.Context, actorID, itemID int64) (bool, error) {
		return h.service.ToggleLike(ctx, actorID, itemID)
	})
}

func (h *OverlayHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, func(ctx context.Context, actorID, itemID int64) (bool, error) {
		return h.service.ToggleFavorite(ctx, actorID, itemID)
	})
}

func (h *OverlayHandler) toggle(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, actorID, itemID int64) (bool, error),
) {
	if h.service == nil {
		writeInternal(w, "OVERLAY_SERVICE_UNAVAILABLE", "overlay service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	itemID, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid item id")
		return
	}

	newState, err := apply(r.Context(), identity.UserID, itemID)
	if err != nil {
		if tooFast, ok := overlaysvc.IsTooFast(err); ok {
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
				Code:          "TOO_FAST",
				Message:       "slow down",
				RetryAfterSec: tooFast.RetryAfterSec,
			})
			return
		}
		httperrors.WriteFault(w, err, "INTERNAL_ERROR", "failed to toggle")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ToggleResponse{
		ItemID:   itemID,
		NewState: newState,
	})
}

// Mine returns the caller's full liked and favorited id sets, sorted for
// a stable payload.
func (h *OverlayHandler) Mine(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "OVERLAY_SERVICE_UNAVAILABLE", "overlay service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	overlay, err := h.service.ListMine(r.Context(), identity.UserID)
	if err != nil {
		httperrors.WriteFault(w, err, "INTERNAL_ERROR", "failed to load overlay")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OverlayResponse{
		LikedIDs:     sortedIDs(overlay.LikedIDs),
		FavoritedIDs: sortedIDs(overlay.FavoritedIDs),
	})
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
