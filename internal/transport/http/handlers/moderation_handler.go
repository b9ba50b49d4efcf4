package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/model"
	authsvc "github.com/Jelisos/wallpaper-site-sub000/internal/services/auth"
	moderationsvc "github.com/Jelisos/wallpaper-site-sub000/internal/services/moderation"
	"github.com/Jelisos/wallpaper-site-sub000/internal/transport/http/dto"
	httperrors "github.com/Jelisos/wallpaper-site-sub000/internal/transport/http/errors"
)

type ModerationHandler struct {
	service *moderationsvc.Service
}

func NewModerationHandler(service *moderationsvc.Service) *ModerationHandler {
	return &ModerationHandler{service: service}
}

func (h *ModerationHandler) Exile(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	actor, ok := actorFromRequest(r)
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	itemID, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid item id")
		return
	}

	var req dto.ExileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid exile payload")
		return
	}

	event, err := h.service.Exile(r.Context(), itemID, actor, req.Comment)
	if err != nil {
		httperrors.WriteFault(w, err, "INTERNAL_ERROR", "failed to exile item")
		return
	}

	httperrors.Write(w, http.StatusOK, toEventResponse(event))
}

func (h *ModerationHandler) Recall(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	actor, ok := actorFromRequest(r)
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	itemID, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid item id")
		return
	}

	event, err := h.service.Recall(r.Context(), itemID, actor)
	if err != nil {
		httperrors.WriteFault(w, err, "INTERNAL_ERROR", "failed to recall item")
		return
	}

	httperrors.Write(w, http.StatusOK, toEventResponse(event))
}

// BatchExile reports partial failure with a 409 carrying the aggregate
// outcome; items that succeeded stay transitioned.
func (h *ModerationHandler) BatchExile(w http.ResponseWriter, r *http.Request) {
	h.batch(w, r, func(r *http.Request, actor moderationsvc.Actor, req dto.BatchModerationRequest) (moderationsvc.BatchResult, error) {
		return h.service.BatchExile(r.Context(), req.ItemIDs, actor, req.Comment)
	})
}

func (h *ModerationHandler) BatchRecall(w http.ResponseWriter, r *http.Request) {
	h.batch(w, r, func(r *http.Request, actor moderationsvc.Actor, req dto.BatchModerationRequest) (moderationsvc.BatchResult, error) {
		return h.service.BatchRecall(r.Context(), req.ItemIDs, actor)
	})
}

func (h *ModerationHandler) batch(
	w http.ResponseWriter,
	r *http.Request,
	apply func(*http.Request, moderationsvc.Actor, dto.BatchModerationRequest) (moderationsvc.BatchResult, error),
) {
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	actor, ok := actorFromRequest(r)
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.BatchModerationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid batch payload")
		return
	}

	result, err := apply(r, actor, req)
	if err != nil {
		httperrors.WriteFault(w, err, "INTERNAL_ERROR", "failed to apply batch")
		return
	}

	status := http.StatusOK
	if len(result.Failed) > 0 {
		status = http.StatusConflict
	}

	httperrors.Write(w, status, dto.BatchModerationResponse{
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
	})
}

func (h *ModerationHandler) ListExiled(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	if _, ok := actorFromRequest(r); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	entries, err := h.service.ListExiled(r.Context())
	if err != nil {
		httperrors.WriteFault(w, err, "INTERNAL_ERROR", "failed to list exiled items")
		return
	}

	items := make([]dto.ExiledEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.ExiledEntryResponse{
			ItemID:   entry.ItemID,
			ExiledAt: entry.ExiledAt,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.ExiledListResponse{Items: items})
}

// AuditLog lists moderation events, newest first. An item_id query param
// narrows the log to one item.
func (h *ModerationHandler) AuditLog(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	if _, ok := actorFromRequest(r); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var itemID int64
	if raw := r.URL.Query().Get("item_id"); raw != "" {
		parsed, ok := parseID(raw)
		if !ok {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid item_id")
			return
		}
		itemID = parsed
	}

	page := parseIntOrDefault(r.URL.Query().Get("page"), 1)
	perPage := parseIntOrDefault(r.URL.Query().Get("per_page"), 0)

	events, err := h.service.AuditLog(r.Context(), itemID, page, perPage)
	if err != nil {
		httperrors.WriteFault(w, err, "INTERNAL_ERROR", "failed to read audit log")
		return
	}

	responses := make([]dto.ModerationEventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, toEventResponse(event))
	}

	httperrors.Write(w, http.StatusOK, dto.AuditLogResponse{
		Events: responses,
		Page:   page,
	})
}

func toEventResponse(event model.ModerationEvent) dto.ModerationEventResponse {
	return dto.ModerationEventResponse{
		ID:        event.ID,
		ItemID:    event.ItemID,
		Action:    string(event.Action),
		ActorID:   event.ActorID,
		OldState:  string(event.OldState),
		NewState:  string(event.NewState),
		Comment:   event.Comment,
		CreatedAt: event.CreatedAt,
	}
}

func actorFromRequest(r *http.Request) (moderationsvc.Actor, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		return moderationsvc.Actor{}, false
	}
	return moderationsvc.Actor{ID: identity.UserID, Privileged: identity.Privileged}, true
}
