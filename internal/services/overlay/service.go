// Package overlay manages per-user liked/favorited sets and broadcasts
// toggle outcomes so every rendered copy of an item stays in sync.
package overlay

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/fault"
	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/model"
	syncbus "github.com/Jelisos/wallpaper-site-sub000/internal/services/sync"
)

type Store interface {
	ToggleLiked(ctx context.Context, userID, itemID int64) (bool, error)
	ToggleFavorited(ctx context.Context, userID, itemID int64) (bool, error)
	GetOverlay(ctx context.Context, userID int64) (model.UserOverlay, error)
}

type Catalog interface {
	Exists(ctx context.Context, itemID int64) (bool, error)
}

type Limiter interface {
	AllowToggle(ctx context.Context, userID int64) (int64, bool, error)
}

type Publisher interface {
	Publish(event syncbus.Event)
}

type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return "too fast"
}

func IsTooFast(err error) (*TooFastError, bool) {
	var tf TooFastError
	if errors.As(err, &tf) {
		return &tf, true
	}
	return nil, false
}

type Service struct {
	store   Store
	catalog Catalog
	limiter Limiter
	bus     Publisher
}

func NewService(store Store, catalog Catalog, limiter Limiter, bus Publisher) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		limiter: limiter,
		bus:     bus,
	}
}

// ToggleLike flips the liked flag for the actor and returns the new
// state.
func (s *Service) ToggleLike(ctx context.Context, actorID, itemID int64) (bool, error) {
	return s.toggle(ctx, actorID, itemID, syncbus.EventLike)
}

func (s *Service) ToggleFavorite(ctx context.Context, actorID, itemID int64) (bool, error) {
	return s.toggle(ctx, actorID, itemID, syncbus.EventFavorite)
}

func (s *Service) toggle(ctx context.Context, actorID, itemID int64, kind syncbus.EventKind) (bool, error) {
	if actorID <= 0 {
		return false, fault.New(fault.Unauthenticated, "overlay toggle requires an authenticated actor")
	}
	if s.store == nil || s.catalog == nil {
		return false, fmt.Errorf("overlay service dependencies are not configured")
	}

	if s.limiter != nil {
		retryAfter, allowed, err := s.limiter.AllowToggle(ctx, actorID)
		if err != nil {
			return false, fault.Wrap(fault.Transient, err, "toggle rate check")
		}
		if !allowed {
			return false, TooFastError{RetryAfterSec: retryAfter}
		}
	}

	exists, err := s.catalog.Exists(ctx, itemID)
	if err != nil {
		return false, fault.Wrap(fault.Transient, err, "check catalog item %d", itemID)
	}
	if !exists {
		return false, fault.New(fault.NotFound, "content item %d does not exist", itemID)
	}

	var newState bool
	switch kind {
	case syncbus.EventLike:
		newState, err = s.store.ToggleLiked(ctx, actorID, itemID)
	default:
		newState, err = s.store.ToggleFavorited(ctx, actorID, itemID)
	}
	if err != nil {
		return false, fault.Wrap(fault.Transient, err, "toggle %s for item %d", kind, itemID)
	}

	if s.bus != nil {
		s.bus.Publish(syncbus.Event{ItemID: itemID, Kind: kind, NewState: newState})
	}

	return newState, nil
}

// ListMine returns the actor's overlay sets.
func (s *Service) ListMine(ctx context.Context, actorID int64) (model.UserOverlay, error) {
	if actorID <= 0 {
		return model.UserOverlay{}, fault.New(fault.Unauthenticated, "overlay listing requires an authenticated actor")
	}
	if s.store == nil {
		return model.UserOverlay{}, fmt.Errorf("overlay service dependencies are not configured")
	}

	overlay, err := s.store.GetOverlay(ctx, actorID)
	if err != nil {
		return model.UserOverlay{}, fault.Wrap(fault.Transient, err, "load overlay")
	}

	return overlay, nil
}
