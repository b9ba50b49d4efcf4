package dto

type ToggleResponse struct {
	ItemID   int64 `json:"item_id"`
	NewState bool  `json:"new_state"`
}

type OverlayResponse struct {
	LikedIDs     []int64 `json:"liked_ids"`
	FavoritedIDs []int64 `json:"favorited_ids"`
}
