// Package scope manages the named pools an application enters and leaves,
// such as a session pool that lives for a whole capture and a unit-of-work
// pool that is reset after every packet.
//
// The Registry is safe for concurrent use. The pools it hands out are not:
// Spawn gives each worker a pool of its own.
package scope

import (
	"log/slog"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/pavanmanishd/pktmem"
)

var (
	// ErrUnknownScope indicates a scope name missing from the configuration.
	ErrUnknownScope = errors.New("scope: unknown scope")

	// ErrAlreadyEntered indicates Enter on a scope that is already active.
	ErrAlreadyEntered = errors.New("scope: already entered")

	// ErrNotEntered indicates use of a scope outside Enter and Leave.
	ErrNotEntered = errors.New("scope: not entered")

	// ErrClosed indicates use of a closed registry.
	ErrClosed = errors.New("scope: registry closed")
)

type state struct {
	spec   Spec
	kind   pktmem.Kind
	cfg    *pktmem.Config
	pool   *pktmem.Pool
	active bool
}

// Registry owns one lazily created pool per configured scope.
type Registry struct {
	mu     sync.Mutex
	order  []string
	scopes map[string]*state
	log    *slog.Logger
	closed bool
}

// NewRegistry validates cfg and returns a registry for its scopes. A nil
// logger discards output.
func NewRegistry(cfg Config, logger *slog.Logger) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Registry{scopes: make(map[string]*state, len(cfg.Scopes)), log: logger}
	for _, s := range cfg.Scopes {
		kind, pc, err := s.PoolConfig(logger)
		if err != nil {
			return nil, err
		}
		r.order = append(r.order, s.Name)
		r.scopes[s.Name] = &state{spec: s, kind: kind, cfg: pc}
	}
	return r, nil
}

// Names returns the configured scope names in configuration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// Spec returns the configuration of a scope.
func (r *Registry) Spec(name string) (Spec, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.lookup(name)
	if err != nil {
		return Spec{}, err
	}
	return st.spec, nil
}

// Enter activates a scope and returns its pool, creating the pool on first
// use.
func (r *Registry) Enter(name string) (*pktmem.Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if st.active {
		return nil, errors.Wrapf(ErrAlreadyEntered, "%q", name)
	}
	if st.pool == nil {
		st.pool = pktmem.NewPool(st.kind, st.cfg)
	}
	st.active = true
	r.log.Debug("scope: entered", "scope", name)
	return st.pool, nil
}

// Pool returns the pool of an active scope.
func (r *Registry) Pool(name string) (*pktmem.Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if !st.active {
		return nil, errors.Wrapf(ErrNotEntered, "%q", name)
	}
	return st.pool, nil
}

// Leave deactivates a scope and resets its pool, invalidating everything
// allocated in it. The pool is kept for the next Enter.
func (r *Registry) Leave(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.lookup(name)
	if err != nil {
		return err
	}
	if !st.active {
		return errors.Wrapf(ErrNotEntered, "%q", name)
	}
	st.pool.Reset()
	st.active = false
	r.log.Debug("scope: left", "scope", name)
	return nil
}

// Spawn returns a new pool configured like the named scope but owned by the
// caller, who must Destroy it. Workers use it to get private pools.
func (r *Registry) Spawn(name string) (*pktmem.Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	cfg := *st.cfg
	return pktmem.NewPool(st.kind, &cfg), nil
}

// Close destroys every pool the registry created. The registry cannot be
// used afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	for _, name := range r.order {
		st := r.scopes[name]
		if st.pool != nil {
			st.pool.Destroy()
			st.pool = nil
		}
		st.active = false
	}
	r.closed = true
	return nil
}

func (r *Registry) lookup(name string) (*state, error) {
	if r.closed {
		return nil, ErrClosed
	}
	st, ok := r.scopes[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownScope, "%q", name)
	}
	return st, nil
}
