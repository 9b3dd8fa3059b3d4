package platform

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/jafarshop/catalogsync/internal/domain"
	"github.com/jafarshop/catalogsync/pkg/errors"
)

// Adapter normalizes one marketplace's raw export record into the canonical
// intermediate shape. A failed Normalize is fatal to that record only.
type Adapter interface {
	Platform() string
	Normalize(raw json.RawMessage) (*domain.CanonicalRecord, error)
}

// Registry resolves adapters by platform identifier.
type Registry struct {
	adapters map[string]Adapter
	logger   *zap.Logger
}

// NewRegistry creates a registry with the built-in adapters wired to a
// shared estimator.
func NewRegistry(logger *zap.Logger) *Registry {
	est := NewEstimator()
	r := &Registry{
		adapters: make(map[string]Adapter),
		logger:   logger,
	}
	r.Register(NewShopeeAdapter(est, logger))
	r.Register(NewTikTokAdapter(est, logger))
	return r
}

// Register adds or replaces the adapter for its platform.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Platform()] = a
}

// ForPlatform returns the adapter for the given platform.
func (r *Registry) ForPlatform(platform string) (Adapter, error) {
	a, ok := r.adapters[platform]
	if !ok {
		return nil, &errors.ErrConfiguration{Platform: platform, Message: "no adapter registered"}
	}
	return a, nil
}

// Platforms lists the registered platform identifiers.
func (r *Registry) Platforms() []string {
	out := make([]string, 0, len(r.adapters))
	for p := range r.adapters {
		out = append(out, p)
	}
	return out
}
