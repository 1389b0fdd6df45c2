package editor

import (
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Registry keeps sessions in memory. When it is full the least recently used
// session is dropped; nothing is persisted.
type Registry struct {
	opts     Options
	sessions *lru.Cache[string, *Session]
	log      *zap.Logger
	onChange func(n int)
}

// NewRegistry returns a registry holding at most size sessions. onChange, if
// set, is called with the new session count after every add or removal.
func NewRegistry(size int, opts Options, onChange func(n int)) (*Registry, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{opts: opts, log: log, onChange: onChange}
	cache, err := lru.NewWithEvict[string, *Session](size, func(id string, _ *Session) {
		r.log.Debug("session dropped", zap.String("session", id))
	})
	if err != nil {
		return nil, fmt.Errorf("create session registry: %w", err)
	}
	r.sessions = cache
	return r, nil
}

// Create starts a new session.
func (r *Registry) Create() *Session {
	s := NewSession(uuid.NewString(), r.opts)
	r.sessions.Add(s.ID, s)
	r.changed()
	r.log.Info("session created", zap.String("session", s.ID))
	return s
}

// Get looks up a session and marks it as recently used.
func (r *Registry) Get(id string) (*Session, bool) {
	return r.sessions.Get(id)
}

// Delete ends a session. It reports whether the session existed.
func (r *Registry) Delete(id string) bool {
	ok := r.sessions.Remove(id)
	if ok {
		r.changed()
	}
	return ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int { return r.sessions.Len() }

func (r *Registry) changed() {
	if r.onChange != nil {
		r.onChange(r.sessions.Len())
	}
}
