package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/enums"
	"github.com/Jelisos/wallpaper-site-sub000/internal/pkg/validate"
	pgrepo "github.com/Jelisos/wallpaper-site-sub000/internal/repo/postgres"
	authsvc "github.com/Jelisos/wallpaper-site-sub000/internal/services/auth"
	deliverysvc "github.com/Jelisos/wallpaper-site-sub000/internal/services/delivery"
	"github.com/Jelisos/wallpaper-site-sub000/internal/transport/http/dto"
	httperrors "github.com/Jelisos/wallpaper-site-sub000/internal/transport/http/errors"
)

type ViewCounter interface {
	IncrementViews(ctx context.Context, itemID int64) error
}

type GalleryHandler struct {
	service *deliverysvc.Service
	views   ViewCounter
}

func NewGalleryHandler(service *deliverysvc.Service, views ViewCounter) *GalleryHandler {
	return &GalleryHandler{service: service, views: views}
}

// OpenSession starts a browsing session; anonymous viewers are allowed.
func (h *GalleryHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "DELIVERY_SERVICE_UNAVAILABLE", "delivery service is unavailable")
		return
	}

	var userID int64
	if identity, ok := authsvc.IdentityFromContext(r.Context()); ok {
		userID = identity.UserID
	}

	info := h.service.Open(userID)
	httperrors.Write(w, http.StatusOK, dto.SessionOpenResponse{
		SessionID: info.ID,
		Mode:      string(info.Mode),
	})
}

func (h *GalleryHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "DELIVERY_SERVICE_UNAVAILABLE", "delivery service is unavailable")
		return
	}

	h.service.Close(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *GalleryHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "DELIVERY_SERVICE_UNAVAILABLE", "delivery service is unavailable")
		return
	}

	var req dto.SetModeRequest
	if err := decodeJSON(r, &req); err != nil || !validate.Required(req.Mode) {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid mode payload")
		return
	}

	mode := enums.DisplayMode(strings.ToLower(strings.TrimSpace(req.Mode)))
	if err := h.service.SetMode(chi.URLParam(r, "id"), mode); err != nil {
		httperrors.WriteFault(w, err, "INTERNAL_ERROR", "failed to switch mode")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GalleryHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "DELIVERY_SERVICE_UNAVAILABLE", "delivery service is unavailable")
		return
	}

	var req dto.SetFilterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid filter payload")
		return
	}

	err := h.service.SetFilter(chi.URLParam(r, "id"), deliverysvc.Filter{
		Category: strings.TrimSpace(req.Category),
		Search:   strings.TrimSpace(req.Search),
	})
	if err != nil {
		httperrors.WriteFault(w, err, "INTERNAL_ERROR", "failed to apply filter")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// NextPage draws the next page. Exhaustion is a 200 with an empty item
// list, not an error; a transient failure is surfaced so the client can
// offer a retry instead of an empty grid.
func (h *GalleryHandler) NextPage(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "DELIVERY_SERVICE_UNAVAILABLE", "delivery service is unavailable")
		return
	}

	page, err := h.service.NextPage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperrors.WriteFault(w, err, "INTERNAL_ERROR", "failed to draw page")
		return
	}

	items := make([]dto.GalleryItemResponse, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, dto.GalleryItemResponse{
			ID:         item.ID,
			Name:       item.Name,
			Width:      item.Width,
			Height:     item.Height,
			Category:   item.Category,
			Tags:       item.Tags,
			Views:      item.Views,
			Likes:      item.Likes,
			PreviewURL: item.PreviewURL,
			Liked:      item.Liked,
			Favorited:  item.Favorited,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.GalleryPageResponse{
		Items:     items,
		PageIndex: page.PageIndex,
		Exhausted: page.Exhausted,
	})
}

func (h *GalleryHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	if h.views == nil {
		writeInternal(w, "CATALOG_UNAVAILABLE", "catalog is unavailable")
		return
	}

	itemID, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid item id")
		return
	}

	if err := h.views.IncrementViews(r.Context(), itemID); err != nil {
		if errors.Is(err, pgrepo.ErrContentItemNotFound) {
			httperrors.Write(w, http.StatusNotFound, httperrors.APIError{
				Code:    "NOT_FOUND",
				Message: "content item not found",
			})
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to record view")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
