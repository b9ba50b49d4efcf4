package model

import (
	"time"

	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/enums"
)

// VisibilityStatus is the current moderation state of one content item.
// A missing row means VisibilityNormal; rows are created on the first
// transition and never deleted.
type VisibilityStatus struct {
	ItemID    int64                 `json:"item_id"`
	State     enums.VisibilityState `json:"state"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// ModerationEvent is one row of the append-only audit log. Replaying an
// item's events in timestamp order reproduces its VisibilityStatus.
type ModerationEvent struct {
	ID        int64                  `json:"id"`
	ItemID    int64                  `json:"item_id"`
	Action    enums.ModerationAction `json:"action"`
	ActorID   int64                  `json:"actor_id"`
	OldState  enums.VisibilityState  `json:"old_state"`
	NewState  enums.VisibilityState  `json:"new_state"`
	Comment   *string                `json:"comment,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type ExiledEntry struct {
	ItemID   int64     `json:"item_id"`
	ExiledAt time.Time `json:"exiled_at"`
}
