package tree

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

/*
Store is an interface to manage a store where encoded
trees and the records that describe them are kept as
blobs under string keys.

All its methods take a context that may allow cancelling
the operation (thus forcing the return of an error) if the
implementation allows it.
*/
type Store interface {
	// Put takes a key and a blob and stores the blob
	// under the key, replacing anything stored with it
	// before. It returns an error if the blob cannot be
	// stored.
	Put(ctx context.Context, key string, data []byte) error
	// Get takes a key and returns the blob stored under
	// it, ErrNotFound if there is none or another error
	// if the store cannot be queried.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete takes a key and removes the blob stored
	// under it. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close closes the store, freeing any resources in
	// use.
	Close() error
}

// StoreError represents an error related with tree stores
type StoreError string

func (se StoreError) Error() string {
	return string(se)
}

// ErrNotFound is returned by stores when asked for a key they do not hold.
const ErrNotFound = StoreError("no blob stored under the key")

// SaveTree encodes the tree and puts it in the store under the given key.
func SaveTree(ctx context.Context, s Store, key string, t *Tree) error {
	data, err := t.MarshalBinary()
	if err != nil {
		return err
	}
	return s.Put(ctx, key, data)
}

// LoadTree gets the blob under the given key from the store and
// returns the tree it encodes, named after the key.
func LoadTree(ctx context.Context, s Store, key string) (*Tree, error) {
	data, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	t := New(key)
	if err := t.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return t, nil
}

type memoryStore struct {
	blobs map[string][]byte
	lock  *sync.RWMutex
}

// NewMemoryStore returns an implementation
// of Store with the process memory space
// as underlying backend
func NewMemoryStore() Store {
	return &memoryStore{
		blobs: make(map[string][]byte),
		lock:  &sync.RWMutex{},
	}
}

func (ms *memoryStore) Put(ctx context.Context, key string, data []byte) error {
	blob := append([]byte(nil), data...)
	return ms.withLock(ctx, func(ctx context.Context) error {
		ms.blobs[key] = blob
		return nil
	})
}

func (ms *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := ms.withRLock(ctx, func(ctx context.Context) error {
		b, ok := ms.blobs[key]
		if !ok {
			return ErrNotFound
		}
		blob = append([]byte(nil), b...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blob, nil
}

func (ms *memoryStore) Delete(ctx context.Context, key string) error {
	return ms.withLock(ctx, func(ctx context.Context) error {
		delete(ms.blobs, key)
		return nil
	})
}

func (ms *memoryStore) Close() error {
	return nil
}

func (ms *memoryStore) withLock(ctx context.Context, f func(ctx context.Context) error) error {
	gotLock := make(chan struct{})
	go func() {
		ms.lock.Lock()
		select {
		case <-ctx.Done():
			ms.lock.Unlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer ms.lock.Unlock()
	}
	return f(ctx)
}

func (ms *memoryStore) withRLock(ctx context.Context, f func(ctx context.Context) error) error {
	gotLock := make(chan struct{})
	go func() {
		ms.lock.RLock()
		select {
		case <-ctx.Done():
			ms.lock.RUnlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer ms.lock.RUnlock()
	}
	return f(ctx)
}

type dirStore struct {
	dir string
}

// NewDirStore takes a directory path, creates it if missing and returns
// an implementation of Store that keeps every blob in a file of the
// directory named after its key.
func NewDirStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &dirStore{dir: dir}, nil
}

func (ds *dirStore) path(key string) string {
	return filepath.Join(ds.dir, filepath.FromSlash(strings.TrimLeft(key, "/")))
}

func (ds *dirStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := ds.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

func (ds *dirStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(ds.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return data, err
}

func (ds *dirStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(ds.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (ds *dirStore) Close() error {
	return nil
}
