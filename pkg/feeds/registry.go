package feeds

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Registry maps feed codes to their backend. It is built once at startup
// from configuration and passed by handle to everything that needs it.
type Registry struct {
	backends map[string]Backend
}

func NewRegistry() *Registry {
	return &Registry{
		backends: map[string]Backend{},
	}
}

func (r *Registry) Register(feedCode string, backend Backend) {
	r.backends[feedCode] = backend

	log.Info().Str("feed", feedCode).Str("backend", backend.Name()).Msg("Registered feed backend")
}

func (r *Registry) Get(feedCode string) (Backend, error) {
	backend, exists := r.backends[feedCode]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeed, feedCode)
	}

	return backend, nil
}

func (r *Registry) Codes() []string {
	codes := maps.Keys(r.backends)
	slices.Sort(codes)

	return codes
}
