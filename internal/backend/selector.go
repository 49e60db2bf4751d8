// Package backend holds the process-wide choice of which storage backend
// serves student records.
//
// A Selector starts with no backend selected. Clients pick one at runtime
// with Select; record operations read the choice with Active at the moment
// they are dispatched. The last Select wins, and an operation already in
// flight keeps the backend it started with.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aanand-mishra/alunos-api/internal/storage"
)

// Kind names a storage backend. The values are the tokens clients send.
type Kind string

const (
	None       Kind = ""
	Relational Kind = "sqlite"
	Document   Kind = "mongodb"
)

// Kinds lists every selectable backend.
var Kinds = []Kind{Relational, Document}

// ParseKind validates a client token.
func ParseKind(token string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == token {
			return k, nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrInvalidBackend, token)
}

var (
	// ErrInvalidBackend is returned by Select for an unknown token.
	ErrInvalidBackend = errors.New("invalid backend")

	// ErrNoBackendSelected is returned by Active before any Select.
	ErrNoBackendSelected = errors.New("no backend selected")
)

// ConnectError is returned by Select when a backend could not be reached.
type ConnectError struct {
	Kind Kind
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Kind, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// Connector opens a backend. It is called at most once per successful
// connection.
type Connector func(ctx context.Context) (storage.Storage, error)

// Selector is safe for concurrent use.
type Selector struct {
	connectors map[Kind]Connector
	log        *slog.Logger

	// connectMu serialises connection attempts so two concurrent selects
	// of the same backend dial it once. It is never held together with mu
	// while dialling, so record operations are not blocked by a slow
	// connection.
	connectMu sync.Mutex

	mu        sync.RWMutex
	active    Kind
	connected map[Kind]storage.Storage
}

// NewSelector returns a Selector with nothing selected. connectors must
// have an entry for every Kind in Kinds.
func NewSelector(connectors map[Kind]Connector, log *slog.Logger) *Selector {
	if log == nil {
		log = slog.Default()
	}
	return &Selector{
		connectors: connectors,
		log:        log,
		connected:  make(map[Kind]storage.Storage),
	}
}

// Select makes kind the active backend, connecting to it first if this
// is the first time it is used. Selecting an already connected backend
// does not reconnect. On failure the active backend is unchanged.
func (s *Selector) Select(ctx context.Context, kind Kind) error {
	connect, ok := s.connectors[kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidBackend, string(kind))
	}

	if _, err := s.ensureConnected(ctx, kind, connect); err != nil {
		return err
	}

	s.mu.Lock()
	previous := s.active
	s.active = kind
	s.mu.Unlock()

	s.log.Info("backend selected",
		slog.String("backend", string(kind)),
		slog.String("previous", string(previous)))

	return nil
}

func (s *Selector) ensureConnected(ctx context.Context, kind Kind, connect Connector) (storage.Storage, error) {
	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	s.mu.RLock()
	store, ok := s.connected[kind]
	s.mu.RUnlock()
	if ok {
		return store, nil
	}

	s.log.Info("connecting to backend", slog.String("backend", string(kind)))

	store, err := connect(ctx)
	if err != nil {
		s.log.Error("backend connection failed",
			slog.String("backend", string(kind)),
			slog.String("error", err.Error()))
		return nil, &ConnectError{Kind: kind, Err: err}
	}

	s.mu.Lock()
	s.connected[kind] = store
	s.mu.Unlock()

	s.log.Info("backend connected", slog.String("backend", string(kind)))
	return store, nil
}

// Current returns the active backend, or None.
func (s *Selector) Current() Kind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Active returns the active backend and its adapter, or
// ErrNoBackendSelected.
func (s *Selector) Active() (Kind, storage.Storage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active == None {
		return None, nil, ErrNoBackendSelected
	}
	return s.active, s.connected[s.active], nil
}

// Close closes every backend that was connected, whether or not it is
// the active one.
func (s *Selector) Close(ctx context.Context) error {
	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for kind, store := range s.connected {
		if err := store.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", kind, err))
		}
		delete(s.connected, kind)
	}
	s.active = None

	return errors.Join(errs...)
}
