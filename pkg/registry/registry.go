// Package registry is a thin multiplexer over the storage engine: it holds
// a concurrent map of name -> open Engine so a single process can host
// multiple independent databases without threading name resolution through
// every call site (§4.2).
package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kodewerx/memoria/pkg/log"
	"github.com/kodewerx/memoria/pkg/storage"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrAlreadyRegistered is returned by AddStorage when name is already open.
var ErrAlreadyRegistered = fmt.Errorf("registry: storage already registered")

// ErrUnknownStorage is returned when an operation names a storage that has
// not been registered.
var ErrUnknownStorage = fmt.Errorf("registry: unknown storage")

// Registry multiplexes named storage engines rooted under a single base
// directory. It does not itself understand record classes or tiers; the
// coordinator builds that semantics on top.
type Registry struct {
	mu      sync.RWMutex
	baseDir string
	engines map[string]*storage.Engine
	logger  zerolog.Logger
}

// New creates a registry rooted at baseDir. No engines are opened until
// AddStorage is called.
func New(baseDir string) *Registry {
	return &Registry{
		baseDir: baseDir,
		engines: make(map[string]*storage.Engine),
		logger:  log.WithComponent("registry"),
	}
}

// AddStorage opens the engine at <baseDir>/name, opens each named
// collection (sub-tree), and registers it under name. It fails if name is
// already registered.
func (r *Registry) AddStorage(name string, collections []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.engines[name]; exists {
		return ErrAlreadyRegistered
	}

	engine, err := storage.Open(filepath.Join(r.baseDir, name))
	if err != nil {
		return fmt.Errorf("registry: open %s: %w", name, err)
	}

	for _, collection := range collections {
		if err := engine.OpenTree(collection); err != nil {
			_ = engine.Close()
			return fmt.Errorf("registry: open tree %s/%s: %w", name, collection, err)
		}
	}

	r.engines[name] = engine
	r.logger.Debug().Str("storage", name).Strs("collections", collections).Msg("storage registered")
	return nil
}

// RemoveStorage closes and drops the handle for name. It does not delete
// the underlying files.
func (r *Registry) RemoveStorage(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	engine, exists := r.engines[name]
	if !exists {
		return ErrUnknownStorage
	}
	delete(r.engines, name)
	return engine.Close()
}

// Has reports whether name is currently registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.engines[name]
	return exists
}

// NamesWithPrefix returns every registered storage name beginning with
// prefix, in no particular order. Used by the coordinator to enumerate
// already-opened archive quarters for a class.
func (r *Registry) NamesWithPrefix(prefix string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name := range r.engines {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names
}

func (r *Registry) lookup(name string) (*storage.Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	engine, exists := r.engines[name]
	if !exists {
		return nil, ErrUnknownStorage
	}
	return engine, nil
}

// Insert routes an insert to the named storage/collection.
func (r *Registry) Insert(dbName, collection string, key, value []byte) error {
	engine, err := r.lookup(dbName)
	if err != nil {
		return err
	}
	return engine.Insert(collection, key, value)
}

// Get routes a get to the named storage/collection.
func (r *Registry) Get(dbName, collection string, key []byte) (*storage.ReadGuard, error) {
	engine, err := r.lookup(dbName)
	if err != nil {
		return nil, err
	}
	return engine.Get(collection, key)
}

// Remove routes a remove to the named storage/collection.
func (r *Registry) Remove(dbName, collection string, key []byte) error {
	engine, err := r.lookup(dbName)
	if err != nil {
		return err
	}
	return engine.Remove(collection, key)
}

// ScanPrefix routes a prefix scan to the named storage/collection.
func (r *Registry) ScanPrefix(dbName, collection string, prefix []byte) (*storage.PrefixIterator, error) {
	engine, err := r.lookup(dbName)
	if err != nil {
		return nil, err
	}
	return engine.ScanPrefix(collection, prefix)
}

// FlushAll flushes every registered engine concurrently, since each engine
// is an independent lock domain, and returns the first error encountered
// (if any).
func (r *Registry) FlushAll(ctx context.Context) error {
	r.mu.RLock()
	engines := make([]*storage.Engine, 0, len(r.engines))
	for _, engine := range r.engines {
		engines = append(engines, engine)
	}
	r.mu.RUnlock()

	g, _ := errgroup.WithContext(ctx)
	for _, engine := range engines {
		engine := engine
		g.Go(func() error {
			return engine.Flush()
		})
	}
	return g.Wait()
}

// FindKeyAnywhere is stubbed: the spec treats it as optional and the
// coordinator does not depend on it (§9, open question).
func (r *Registry) FindKeyAnywhere(collection string, key []byte) (*storage.ReadGuard, error) {
	return nil, nil
}

// Close closes every registered engine.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for name, engine := range r.engines {
		if err := engine.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.engines, name)
	}
	return firstErr
}
