package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/enums"
	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/model"
)

type ModerationRepo struct {
	pool *pgxpool.Pool
}

func NewModerationRepo(pool *pgxpool.Pool) *ModerationRepo {
	return &ModerationRepo{pool: pool}
}

// GetStatus treats a missing row as Normal, so callers never see a
// "no status yet" case.
func (r *ModerationRepo) GetStatus(ctx context.Context, itemID int64) (model.VisibilityStatus, error) {
	if r.pool == nil {
		return model.VisibilityStatus{}, fmt.Errorf("postgres pool is nil")
	}
	if itemID <= 0 {
		return model.VisibilityStatus{}, fmt.Errorf("invalid item id")
	}

	status := model.VisibilityStatus{ItemID: itemID, State: enums.VisibilityNormal}
	err := r.pool.QueryRow(ctx, `
SELECT item_id, state, updated_at
FROM visibility_status
WHERE item_id = $1
`, itemID).Scan(&status.ItemID, &status.State, &status.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.VisibilityStatus{ItemID: itemID, State: enums.VisibilityNormal}, nil
		}
		return model.VisibilityStatus{}, fmt.Errorf("get visibility status: %w", err)
	}

	return status, nil
}

// Transition applies one moderation action to one item: it upserts the
// visibility row and appends the audit event inside a single transaction,
// serialized per item with an advisory lock. Either both writes land or
// neither does.
func (r *ModerationRepo) Transition(ctx context.Context, itemID, actorID int64, action enums.ModerationAction, comment *string) (model.ModerationEvent, error) {
	if r.pool == nil {
		return model.ModerationEvent{}, fmt.Errorf("postgres pool is nil")
	}
	if itemID <= 0 || actorID <= 0 {
		return model.ModerationEvent{}, fmt.Errorf("invalid transition payload")
	}
	if !action.Valid() {
		return model.ModerationEvent{}, fmt.Errorf("invalid moderation action %q", action)
	}

	event := model.ModerationEvent{
		ItemID:   itemID,
		Action:   action,
		ActorID:  actorID,
		NewState: action.TargetState(),
		Comment:  comment,
	}

	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, itemID); err != nil {
			return fmt.Errorf("acquire item lock: %w", err)
		}

		oldState := enums.VisibilityNormal
		err := tx.QueryRow(ctx, `
SELECT state FROM visibility_status WHERE item_id = $1
`, itemID).Scan(&oldState)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("read current state: %w", err)
		}
		event.OldState = oldState

		if _, err := tx.Exec(ctx, `
INSERT INTO visibility_status (item_id, state, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (item_id) DO UPDATE SET state = EXCLUDED.state, updated_at = NOW()
`, itemID, event.NewState); err != nil {
			return fmt.Errorf("upsert visibility status: %w", err)
		}

		if err := tx.QueryRow(ctx, `
INSERT INTO moderation_events (item_id, action, actor_id, old_state, new_state, comment, created_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())
RETURNING id, created_at
`, itemID, event.Action, actorID, event.OldState, event.NewState, comment).Scan(&event.ID, &event.CreatedAt); err != nil {
			return fmt.Errorf("append moderation event: %w", err)
		}

		return nil
	})
	if err != nil {
		return model.ModerationEvent{}, err
	}

	return event, nil
}

// ListExiled returns exiled items ordered by most recent transition first.
// The query runs in one statement, so readers see a consistent snapshot
// under concurrent transitions.
func (r *ModerationRepo) ListExiled(ctx context.Context) ([]model.ExiledEntry, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT item_id, updated_at
FROM visibility_status
WHERE state = $1
ORDER BY updated_at DESC, item_id DESC
`, enums.VisibilityExiled)
	if err != nil {
		return nil, fmt.Errorf("list exiled items: %w", err)
	}
	defer rows.Close()

	var entries []model.ExiledEntry
	for rows.Next() {
		var entry model.ExiledEntry
		if err := rows.Scan(&entry.ItemID, &entry.ExiledAt); err != nil {
			return nil, fmt.Errorf("scan exiled entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exiled entries: %w", err)
	}

	return entries, nil
}

func (r *ModerationRepo) ListEvents(ctx context.Context, itemID int64, limit, offset int) ([]model.ModerationEvent, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
SELECT id, item_id, action, actor_id, old_state, new_state, comment, created_at
FROM moderation_events
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2
`
	args := []any{limit, offset}
	if itemID > 0 {
		query = `
SELECT id, item_id, action, actor_id, old_state, new_state, comment, created_at
FROM moderation_events
WHERE item_id = $3
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2
`
		args = append(args, itemID)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list moderation events: %w", err)
	}
	defer rows.Close()

	var events []model.ModerationEvent
	for rows.Next() {
		var event model.ModerationEvent
		if err := rows.Scan(
			&event.ID,
			&event.ItemID,
			&event.Action,
			&event.ActorID,
			&event.OldState,
			&event.NewState,
			&event.Comment,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan moderation event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate moderation events: %w", err)
	}

	return events, nil
}
