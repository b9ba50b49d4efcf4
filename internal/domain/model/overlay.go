package model

// UserOverlay carries one user's liked and favorited item id sets. The
// delivery core reads it, never mutates it.
type UserOverlay struct {
	LikedIDs     map[int64]struct{} `json:"-"`
	FavoritedIDs map[int64]struct{} `json:"-"`
}

func (o UserOverlay) Empty() bool {
	return len(o.LikedIDs) == 0 && len(o.FavoritedIDs) == 0
}

// Contains reports whether the item is liked or favorited.
func (o UserOverlay) Contains(itemID int64) bool {
	if _, ok := o.LikedIDs[itemID]; ok {
		return true
	}
	_, ok := o.FavoritedIDs[itemID]
	return ok
}
