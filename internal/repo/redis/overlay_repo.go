package redis

import (
	"context"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/model"
)

const (
	likedPrefix     = "overlay:liked:"
	favoritedPrefix = "overlay:favorited:"
)

// OverlayRepo keeps per-user liked and favorited item id sets.
type OverlayRepo struct {
	client *goredis.Client
}

func NewOverlayRepo(client *goredis.Client) *OverlayRepo {
	return &OverlayRepo{client: client}
}

// ToggleLiked flips the liked flag for one item and returns the new state.
func (r *OverlayRepo) ToggleLiked(ctx context.Context, userID, itemID int64) (bool, error) {
	return r.toggle(ctx, likedKey(userID), itemID)
}

// ToggleFavorited flips the favorited flag for one item and returns the new state.
func (r *OverlayRepo) ToggleFavorited(ctx context.Context, userID, itemID int64) (bool, error) {
	return r.toggle(ctx, favoritedKey(userID), itemID)
}

func (r *OverlayRepo) toggle(ctx context.Context, key string, itemID int64) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if itemID <= 0 {
		return false, fmt.Errorf("invalid item id")
	}

	member := strconv.FormatInt(itemID, 10)
	added, err := r.client.SAdd(ctx, key, member).Result()
	if err != nil {
		return false, fmt.Errorf("toggle overlay member: %w", err)
	}
	if added == 1 {
		return true, nil
	}

	if err := r.client.SRem(ctx, key, member).Err(); err != nil {
		return false, fmt.Errorf("remove overlay member: %w", err)
	}
	return false, nil
}

// GetOverlay loads both sets for a user in one round trip.
func (r *OverlayRepo) GetOverlay(ctx context.Context, userID int64) (model.UserOverlay, error) {
	if r.client == nil {
		return model.UserOverlay{}, fmt.Errorf("redis client is nil")
	}
	if userID <= 0 {
		return model.UserOverlay{}, fmt.Errorf("invalid user id")
	}

	pipe := r.client.Pipeline()
	likedCmd := pipe.SMembers(ctx, likedKey(userID))
	favoritedCmd := pipe.SMembers(ctx, favoritedKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return model.UserOverlay{}, fmt.Errorf("load overlay sets: %w", err)
	}

	liked, err := parseIDSet(likedCmd.Val())
	if err != nil {
		return model.UserOverlay{}, fmt.Errorf("parse liked set: %w", err)
	}
	favorited, err := parseIDSet(favoritedCmd.Val())
	if err != nil {
		return model.UserOverlay{}, fmt.Errorf("parse favorited set: %w", err)
	}

	return model.UserOverlay{LikedIDs: liked, FavoritedIDs: favorited}, nil
}

func likedKey(userID int64) string {
	return likedPrefix + strconv.FormatInt(userID, 10)
}

func favoritedKey(userID int64) string {
	return favoritedPrefix + strconv.FormatInt(userID, 10)
}

func parseIDSet(members []string) (map[int64]struct{}, error) {
	ids := make(map[int64]struct{}, len(members))
	for _, member := range members {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad overlay member %q: %w", member, err)
		}
		ids[id] = struct{}{}
	}
	return ids, nil
}
