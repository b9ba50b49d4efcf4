package dto

import "time"

type ExileRequest struct {
	Comment *string `json:"comment,omitempty"`
}

type BatchModerationRequest struct {
	ItemIDs []int64 `json:"item_ids"`
	Comment *string `json:"comment,omitempty"`
}

type ModerationEventResponse struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	Action    string    `json:"action"`
	ActorID   int64     `json:"actor_id"`
	OldState  string    `json:"old_state"`
	NewState  string    `json:"new_state"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type BatchModerationResponse struct {
	Succeeded int     `json:"succeeded"`
	Failed    []int64 `json:"failed"`
}

type ExiledEntryResponse struct {
	ItemID   int64     `json:"item_id"`
	ExiledAt time.Time `json:"exiled_at"`
}

type ExiledListResponse struct {
	Items []ExiledEntryResponse `json:"items"`
}

type AuditLogResponse struct {
	Events []ModerationEventResponse `json:"events"`
	Page   int                       `json:"page"`
}
