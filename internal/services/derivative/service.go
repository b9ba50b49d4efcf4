// Package derivative resolves (source path, variant) pairs to servable
// URLs, caching resolutions under a byte budget. Derivatives themselves
// are produced by an offline asset pipeline; this package only locates
// them.
package derivative

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/enums"
)

const resolvedURLTTL = 30 * time.Minute

// ObjectProber checks whether a precomputed derivative exists in the
// asset store.
type ObjectProber interface {
	Exists(ctx context.Context, key string) (bool, error)
}

type URLSigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Service struct {
	cache  *Cache
	prober ObjectProber
	signer URLSigner
}

func NewService(cache *Cache, prober ObjectProber, signer URLSigner) *Service {
	return &Service{
		cache:  cache,
		prober: prober,
		signer: signer,
	}
}

// Resolve returns a URL for the requested variant. A preview request
// probes for the precomputed preview object and falls back to the
// original source path when none exists. Results are cached; cache
// entries are immutable, so a hit can never serve a wrong URL.
func (s *Service) Resolve(ctx context.Context, sourcePath string, variant enums.Variant) (string, error) {
	sourcePath = strings.TrimSpace(sourcePath)
	if sourcePath == "" {
		return "", fmt.Errorf("source path is required")
	}
	if !variant.Valid() {
		return "", fmt.Errorf("invalid variant %q", variant)
	}
	if s.cache == nil || s.prober == nil || s.signer == nil {
		return "", fmt.Errorf("derivative service dependencies are not configured")
	}

	if url, ok := s.cache.Get(sourcePath, variant); ok {
		return url, nil
	}

	key := sourcePath
	if variant == enums.VariantPreview {
		previewKey := previewPath(sourcePath)
		exists, err := s.prober.Exists(ctx, previewKey)
		if err != nil {
			return "", fmt.Errorf("probe preview object: %w", err)
		}
		if exists {
			key = previewKey
		}
	}

	url, err := s.signer.PresignGet(ctx, key, resolvedURLTTL)
	if err != nil {
		return "", fmt.Errorf("sign derivative url: %w", err)
	}

	s.cache.Put(sourcePath, variant, url, int64(len(url)))

	return url, nil
}

// previewPath maps "a/b/c.jpg" to "a/b/preview/c.jpg", the layout the
// offline pipeline writes previews to.
func previewPath(sourcePath string) string {
	dir, file := path.Split(sourcePath)
	return path.Join(dir, "preview", file)
}
