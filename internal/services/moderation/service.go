package moderation

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/enums"
	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/fault"
	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/model"
	syncbus "github.com/Jelisos/wallpaper-site-sub000/internal/services/sync"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

// Actor is the identity attempting a moderation write. Exile and recall
// require the privileged capability.
type Actor struct {
	ID         int64
	Privileged bool
}

type StatusStore interface {
	GetStatus(ctx context.Context, itemID int64) (model.VisibilityStatus, error)
	Transition(ctx context.Context, itemID, actorID int64, action enums.ModerationAction, comment *string) (model.ModerationEvent, error)
	ListExiled(ctx context.Context) ([]model.ExiledEntry, error)
	ListEvents(ctx context.Context, itemID int64, limit, offset int) ([]model.ModerationEvent, error)
}

type Catalog interface {
	Exists(ctx context.Context, itemID int64) (bool, error)
}

type EventPublisher interface {
	Publish(event syncbus.Event)
}

// BatchResult is the aggregate outcome of a batch transition. Items that
// already succeeded are never rolled back by a later failure.
type BatchResult struct {
	Succeeded int
	Failed    []int64
}

// Service is the sole writer of visibility state. Every transition,
// including an idempotent one, lands in the audit log with its true old
// state.
type Service struct {
	store   StatusStore
	catalog Catalog
	bus     EventPublisher
}

func NewService(store StatusStore, catalog Catalog, bus EventPublisher) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		bus:     bus,
	}
}

func (s *Service) Exile(ctx context.Context, itemID int64, actor Actor, comment *string) (model.ModerationEvent, error) {
	return s.transition(ctx, itemID, actor, enums.ActionExile, comment)
}

func (s *Service) Recall(ctx context.Context, itemID int64, actor Actor) (model.ModerationEvent, error) {
	return s.transition(ctx, itemID, actor, enums.ActionRecall, nil)
}

// BatchExile applies the exile transition per item. A failed item does
// not stop or undo the others; the caller gets the aggregate outcome.
func (s *Service) BatchExile(ctx context.Context, itemIDs []int64, actor Actor, comment *string) (BatchResult, error) {
	return s.batch(ctx, itemIDs, actor, enums.ActionBatchExile, comment)
}

func (s *Service) BatchRecall(ctx context.Context, itemIDs []int64, actor Actor) (BatchResult, error) {
	return s.batch(ctx, itemIDs, actor, enums.ActionBatchRecall, nil)
}

// GetStatus reads the current visibility of one item; absence of a
// record reads as Normal.
func (s *Service) GetStatus(ctx context.Context, itemID int64) (model.VisibilityStatus, error) {
	if itemID <= 0 {
		return model.VisibilityStatus{}, fault.New(fault.NotFound, "invalid item id %d", itemID)
	}
	if s.store == nil {
		return model.VisibilityStatus{}, fmt.Errorf("moderation service dependencies are not configured")
	}

	status, err := s.store.GetStatus(ctx, itemID)
	if err != nil {
		return model.VisibilityStatus{}, fault.Wrap(fault.Transient, err, "read visibility status")
	}

	return status, nil
}

// ListExiled returns exiled items ordered by most recent transition
// first. The delivery engine's exiled view pages over this order.
func (s *Service) ListExiled(ctx context.Context) ([]model.ExiledEntry, error) {
	if s.store == nil {
		return nil, fmt.Errorf("moderation service dependencies are not configured")
	}

	entries, err := s.store.ListExiled(ctx)
	if err != nil {
		return nil, fault.Wrap(fault.Transient, err, "list exiled items")
	}

	return entries, nil
}

// ExiledIDSet is the excluded-item set the delivery engine filters with.
func (s *Service) ExiledIDSet(ctx context.Context) (map[int64]struct{}, error) {
	entries, err := s.ListExiled(ctx)
	if err != nil {
		return nil, err
	}

	ids := make(map[int64]struct{}, len(entries))
	for _, entry := range entries {
		ids[entry.ItemID] = struct{}{}
	}
	return ids, nil
}

func (s *Service) AuditLog(ctx context.Context, itemID int64, page, perPage int) ([]model.ModerationEvent, error) {
	if s.store == nil {
		return nil, fmt.Errorf("moderation service dependencies are not configured")
	}

	if perPage <= 0 {
		perPage = defaultAuditPageSize
	}
	if perPage > maxAuditPageSize {
		perPage = maxAuditPageSize
	}
	if page < 1 {
		page = 1
	}

	events, err := s.store.ListEvents(ctx, itemID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fault.Wrap(fault.Transient, err, "list moderation events")
	}

	return events, nil
}

func (s *Service) transition(ctx context.Context, itemID int64, actor Actor, action enums.ModerationAction, comment *string) (model.ModerationEvent, error) {
	if err := s.authorize(actor); err != nil {
		return model.ModerationEvent{}, err
	}
	if s.store == nil || s.catalog == nil {
		return model.ModerationEvent{}, fmt.Errorf("moderation service dependencies are not configured")
	}
	if itemID <= 0 {
		return model.ModerationEvent{}, fault.New(fault.NotFound, "invalid item id %d", itemID)
	}

	exists, err := s.catalog.Exists(ctx, itemID)
	if err != nil {
		return model.ModerationEvent{}, fault.Wrap(fault.Transient, err, "check catalog item %d", itemID)
	}
	if !exists {
		return model.ModerationEvent{}, fault.New(fault.NotFound, "content item %d does not exist", itemID)
	}

	if comment != nil && strings.TrimSpace(*comment) == "" {
		comment = nil
	}

	event, err := s.store.Transition(ctx, itemID, actor.ID, action, comment)
	if err != nil {
		// Failed writes are never retried here: a blind retry could
		// duplicate audit entries. The caller re-invokes explicitly.
		return model.ModerationEvent{}, fault.Wrap(fault.Transient, err, "apply %s to item %d", action, itemID)
	}

	s.publish(event)

	return event, nil
}

func (s *Service) batch(ctx context.Context, itemIDs []int64, actor Actor, action enums.ModerationAction, comment *string) (BatchResult, error) {
	if err := s.authorize(actor); err != nil {
		return BatchResult{}, err
	}
	if len(itemIDs) == 0 {
		return BatchResult{}, fault.New(fault.Conflict, "batch operation requires at least one item id")
	}

	var result BatchResult
	for _, itemID := range itemIDs {
		if _, err := s.transition(ctx, itemID, actor, action, comment); err != nil {
			result.Failed = append(result.Failed, itemID)
			continue
		}
		result.Succeeded++
	}

	return result, nil
}

func (s *Service) authorize(actor Actor) error {
	if actor.ID <= 0 {
		return fault.New(fault.Unauthenticated, "moderation write requires an authenticated actor")
	}
	if !actor.Privileged {
		return fault.New(fault.Forbidden, "actor %d lacks the moderation capability", actor.ID)
	}
	return nil
}

func (s *Service) publish(event model.ModerationEvent) {
	if s.bus == nil {
		return
	}

	kind := syncbus.EventExile
	if event.NewState == enums.VisibilityNormal {
		kind = syncbus.EventRecall
	}

	s.bus.Publish(syncbus.Event{
		ItemID:   event.ItemID,
		Kind:     kind,
		NewState: event.NewState == enums.VisibilityExiled,
	})
}
