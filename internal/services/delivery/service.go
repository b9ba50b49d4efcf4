// Package delivery produces deduplicated pages of catalog items for
// browsing sessions: random order with no repeats in the normal mode,
// recency order in the exiled view, with preview URLs prefetched through
// the derivative cache.
package delivery

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/enums"
	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/fault"
	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/model"
)

const (
	defaultPageSize            = 20
	maxPageSize                = 50
	defaultPrefetchConcurrency = 5
)

type Catalog interface {
	ListAll(ctx context.Context) ([]model.ContentItem, error)
}

type Moderation interface {
	ExiledIDSet(ctx context.Context) (map[int64]struct{}, error)
	ListExiled(ctx context.Context) ([]model.ExiledEntry, error)
}

type Overlay interface {
	GetOverlay(ctx context.Context, userID int64) (model.UserOverlay, error)
}

type Resolver interface {
	Resolve(ctx context.Context, sourcePath string, variant enums.Variant) (string, error)
}

type Config struct {
	PageSize            int
	PrefetchConcurrency int
}

type Item struct {
	model.ContentItem
	PreviewURL string
	Liked      bool
	Favorited  bool
}

type Page struct {
	Items     []Item
	PageIndex int
	Exhausted bool
}

type SessionInfo struct {
	ID        string
	Mode      enums.DisplayMode
	Filter    Filter
	PageIndex int
}

type Service struct {
	catalog    Catalog
	moderation Moderation
	overlay    Overlay
	resolver   Resolver
	cfg        Config
	logger     *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session

	rngMu sync.Mutex
	rng   *rand.Rand

	now func() time.Time
}

func NewService(catalog Catalog, moderation Moderation, overlay Overlay, resolver Resolver, cfg Config, logger *zap.Logger) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.PageSize > maxPageSize {
		cfg.PageSize = maxPageSize
	}
	if cfg.PrefetchConcurrency <= 0 {
		cfg.PrefetchConcurrency = defaultPrefetchConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		catalog:    catalog,
		moderation: moderation,
		overlay:    overlay,
		resolver:   resolver,
		cfg:        cfg,
		logger:     logger,
		sessions:   make(map[string]*session),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now:        time.Now,
	}
}

// Open starts a browsing session. userID may be 0 for anonymous viewers;
// the favorites mode then has nothing to overlay and falls back to the
// normal eligible set.
func (s *Service) Open(userID int64) SessionInfo {
	id := uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = newSession(id, userID, s.now())
	s.mu.Unlock()

	return SessionInfo{ID: id, Mode: enums.ModeNormal}
}

func (s *Service) Close(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// SetMode switches the display mode, discarding paging progress and
// invalidating any draw still in flight for the old configuration.
func (s *Service) SetMode(sessionID string, mode enums.DisplayMode) error {
	if !mode.Valid() {
		return fault.New(fault.Invalid, "unknown display mode %q", mode)
	}

	sess, err := s.get(sessionID)
	if err != nil {
		return err
	}

	sess.reconfigure(s.now(), func(sess *session) {
		sess.mode = mode
	})

	return nil
}

// SetFilter replaces the category/search filter and discards progress.
func (s *Service) SetFilter(sessionID string, filter Filter) error {
	sess, err := s.get(sessionID)
	if err != nil {
		return err
	}

	sess.reconfigure(s.now(), func(sess *session) {
		sess.filter = filter
	})

	return nil
}

// NextPage draws the next page for the session. An empty page with
// Exhausted set means the eligible set ran out, a terminal signal, not
// an error. Draws serialize per session so each page's shown ids are
// committed before the next page is computed.
func (s *Service) NextPage(ctx context.Context, sessionID string) (Page, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return Page{}, err
	}

	sess.drawMu.Lock()
	defer sess.drawMu.Unlock()

	snap := sess.snapshot()

	eligible, err := s.eligible(ctx, sess.userID, snap)
	if err != nil {
		return Page{}, err
	}

	if len(eligible) == 0 {
		return Page{Exhausted: true}, nil
	}

	var drawn []model.ContentItem
	if snap.mode == enums.ModeExiled {
		// The exiled view pages the recency order sequentially; no
		// resampling.
		n := s.cfg.PageSize
		if n > len(eligible) {
			n = len(eligible)
		}
		drawn = eligible[:n]
	} else {
		drawn = s.sample(eligible, s.cfg.PageSize)
	}

	ids := make([]int64, 0, len(drawn))
	for _, item := range drawn {
		ids = append(ids, item.ID)
	}

	pageIndex, ok := sess.commit(snap.generation, ids, s.now())
	if !ok {
		// The configuration changed while this draw was in flight; the
		// result belongs to the old mode/filter and must not reach the
		// new list.
		return Page{}, fault.New(fault.Conflict, "session reconfigured during page draw")
	}

	items := s.decorate(ctx, sess.userID, drawn)
	s.prefetch(sess, snap.generation, eligible, ids)

	return Page{Items: items, PageIndex: pageIndex}, nil
}

// SweepIdle closes sessions idle past the ttl and reports how many were
// reaped.
func (s *Service) SweepIdle(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	reaped := 0
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			delete(s.sessions, id)
			reaped++
		}
	}
	return reaped
}

func (s *Service) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Service) get(sessionID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fault.New(fault.NotFound, "unknown session %q", sessionID)
	}
	return sess, nil
}

// eligible computes the draw set for the snapshot's mode. Exiled mode
// returns items in the moderation service's recency order; the other
// modes return an unordered set the sampler shuffles.
func (s *Service) eligible(ctx context.Context, userID int64, snap drawSnapshot) ([]model.ContentItem, error) {
	if s.catalog == nil || s.moderation == nil {
		return nil, fmt.Errorf("delivery service dependencies are not configured")
	}

	catalog, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, fault.Wrap(fault.Transient, err, "load catalog snapshot")
	}

	excluded, err := s.moderation.ExiledIDSet(ctx)
	if err != nil {
		return nil, fault.Wrap(fault.Transient, err, "load excluded set")
	}

	switch snap.mode {
	case enums.ModeExiled:
		entries, err := s.moderation.ListExiled(ctx)
		if err != nil {
			return nil, fault.Wrap(fault.Transient, err, "load exiled list")
		}

		byID := make(map[int64]model.ContentItem, len(catalog))
		for _, item := range catalog {
			byID[item.ID] = item
		}

		var eligible []model.ContentItem
		for _, entry := range entries {
			item, ok := byID[entry.ItemID]
			if !ok {
				continue
			}
			if _, seen := snap.shown[item.ID]; seen {
				continue
			}
			if !matchesFilter(item, snap.filter) {
				continue
			}
			eligible = append(eligible, item)
		}
		return eligible, nil

	case enums.ModeFavorites:
		overlay := model.UserOverlay{}
		if s.overlay != nil && userID > 0 {
			overlay, err = s.overlay.GetOverlay(ctx, userID)
			if err != nil {
				return nil, fault.Wrap(fault.Transient, err, "load user overlay")
			}
		}
		if overlay.Empty() {
			// Nothing liked or favorited yet: fall back to normal
			// browsing rather than a dead-end empty grid.
			return filterEligible(catalog, excluded, snap, nil), nil
		}
		keep := func(item model.ContentItem) bool {
			return overlay.Contains(item.ID)
		}
		return filterEligible(catalog, excluded, snap, keep), nil

	default:
		return filterEligible(catalog, excluded, snap, nil), nil
	}
}

func filterEligible(catalog []model.ContentItem, excluded map[int64]struct{}, snap drawSnapshot, keep func(model.ContentItem) bool) []model.ContentItem {
	var eligible []model.ContentItem
	for _, item := range catalog {
		if _, out := excluded[item.ID]; out {
			continue
		}
		if _, seen := snap.shown[item.ID]; seen {
			continue
		}
		if !matchesFilter(item, snap.filter) {
			continue
		}
		if keep != nil && !keep(item) {
			continue
		}
		eligible = append(eligible, item)
	}
	return eligible
}

func matchesFilter(item model.ContentItem, filter Filter) bool {
	if filter.Category != "" && !strings.EqualFold(item.Category, filter.Category) {
		return false
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	if search == "" {
		return true
	}
	if strings.Contains(strings.ToLower(item.Name), search) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}

// sample draws min(n, len(eligible)) items uniformly without
// replacement. Every call reshuffles; no seed is persisted, so no two
// sessions see the same order.
func (s *Service) sample(eligible []model.ContentItem, n int) []model.ContentItem {
	if n > len(eligible) {
		n = len(eligible)
	}

	picked := make([]model.ContentItem, len(eligible))
	copy(picked, eligible)

	s.rngMu.Lock()
	s.rng.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	s.rngMu.Unlock()

	return picked[:n]
}

// decorate attaches preview URLs and overlay flags to drawn items. A
// failed resolution leaves the URL empty for the client to render a
// placeholder; the page itself still goes out.
func (s *Service) decorate(ctx context.Context, userID int64, drawn []model.ContentItem) []Item {
	overlay := model.UserOverlay{}
	if s.overlay != nil && userID > 0 {
		loaded, err := s.overlay.GetOverlay(ctx, userID)
		if err != nil {
			s.logger.Warn("overlay load failed, rendering without flags", zap.Error(err))
		} else {
			overlay = loaded
		}
	}

	items := make([]Item, 0, len(drawn))
	for _, contentItem := range drawn {
		item := Item{ContentItem: contentItem}
		if _, ok := overlay.LikedIDs[contentItem.ID]; ok {
			item.Liked = true
		}
		if _, ok := overlay.FavoritedIDs[contentItem.ID]; ok {
			item.Favorited = true
		}
		if s.resolver != nil {
			url, err := s.resolver.Resolve(ctx, contentItem.Path, enums.VariantPreview)
			if err != nil {
				s.logger.Warn("preview resolution failed",
					zap.Int64("item_id", contentItem.ID),
					zap.Error(err),
				)
			} else {
				item.PreviewURL = url
			}
		}
		items = append(items, item)
	}
	return items
}

// prefetch warms the derivative cache for likely next-page items in
// small concurrent batches. It never mutates shown ids, aborts once the
// session is reconfigured, and swallows failures: prefetch is an
// optimization, not correctness.
func (s *Service) prefetch(sess *session, generation uint64, eligible []model.ContentItem, drawnIDs []int64) {
	if s.resolver == nil {
		return
	}

	drawn := make(map[int64]struct{}, len(drawnIDs))
	for _, id := range drawnIDs {
		drawn[id] = struct{}{}
	}

	var candidates []model.ContentItem
	for _, item := range eligible {
		if _, ok := drawn[item.ID]; ok {
			continue
		}
		candidates = append(candidates, item)
		if len(candidates) >= s.cfg.PageSize {
			break
		}
	}
	if len(candidates) == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		sem := make(chan struct{}, s.cfg.PrefetchConcurrency)
		var wg sync.WaitGroup
		for _, item := range candidates {
			if sess.currentGeneration() != generation {
				break
			}

			sem <- struct{}{}
			wg.Add(1)
			go func(item model.ContentItem) {
				defer wg.Done()
				defer func() { <-sem }()

				if _, err := s.resolver.Resolve(ctx, item.Path, enums.VariantPreview); err != nil {
					s.logger.Debug("prefetch resolution failed",
						zap.Int64("item_id", item.ID),
						zap.Error(err),
					)
				}
			}(item)
		}
		wg.Wait()
	}()
}
