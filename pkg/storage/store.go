// Package storage persists collections and saved requests as YAML files and
// loads environment files used for {{VAR}} substitution.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/postboy/postboy/pkg/core"
)

var (
	// ErrNotFound is returned when a collection or request does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNameRequired is returned for a blank collection name.
	ErrNameRequired = errors.New("collection name is required")
)

// Store is the authoritative collection store served over REST.
type Store interface {
	ListCollections(ctx context.Context) ([]core.Collection, error)
	CreateCollection(ctx context.Context, name string) (core.Collection, error)
	ListRequests(ctx context.Context, collectionID int64) ([]core.SavedRequest, error)
	CreateRequest(ctx context.Context, collectionID int64, req core.SavedRequest) (core.SavedRequest, error)
	GetRequest(ctx context.Context, id string) (core.SavedRequest, error)
	UpdateRequest(ctx context.Context, req core.SavedRequest) (core.SavedRequest, error)
	DeleteRequest(ctx context.Context, id string) error
}

// FileStore keeps one YAML file per collection under dir.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// ListCollections returns every collection with its requests, ordered by ID.
func (s *FileStore) ListCollections(ctx context.Context) ([]core.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.loadAll()
	if err != nil {
		return nil, err
	}
	collections := make([]core.Collection, 0, len(files))
	for _, f := range files {
		collections = append(collections, f.toCollection())
	}
	return collections, nil
}

// CreateCollection allocates the next collection ID.
func (s *FileStore) CreateCollection(ctx context.Context, name string) (core.Collection, error) {
	if err := ctx.Err(); err != nil {
		return core.Collection{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Collection{}, ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.loadAll()
	if err != nil {
		return core.Collection{}, err
	}
	var next int64 = 1
	for _, f := range files {
		if f.ID >= next {
			next = f.ID + 1
		}
	}

	f := &collectionFile{ID: next, Name: name}
	if err := s.write(f); err != nil {
		return core.Collection{}, err
	}
	return f.toCollection(), nil
}

// ListRequests returns the requests of one collection in order.
func (s *FileStore) ListRequests(ctx context.Context, collectionID int64) ([]core.SavedRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load(collectionID)
	if err != nil {
		return nil, err
	}
	return f.toCollection().Requests, nil
}

// CreateRequest appends req to the collection under a fresh ID.
func (s *FileStore) CreateRequest(ctx context.Context, collectionID int64, req core.SavedRequest) (core.SavedRequest, error) {
	if err := ctx.Err(); err != nil {
		return core.SavedRequest{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load(collectionID)
	if err != nil {
		return core.SavedRequest{}, err
	}

	req.ID = uuid.NewString()
	req.CollectionID = collectionID
	f.Requests = append(f.Requests, req)
	if err := s.write(f); err != nil {
		return core.SavedRequest{}, err
	}
	return req, nil
}

// GetRequest finds a request in any collection.
func (s *FileStore) GetRequest(ctx context.Context, id string) (core.SavedRequest, error) {
	if err := ctx.Err(); err != nil {
		return core.SavedRequest{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, idx, err := s.find(id)
	if err != nil {
		return core.SavedRequest{}, err
	}
	return f.Requests[idx], nil
}

// UpdateRequest replaces the stored request with the same ID. A changed
// CollectionID moves the request to the end of the target collection.
func (s *FileStore) UpdateRequest(ctx context.Context, req core.SavedRequest) (core.SavedRequest, error) {
	if err := ctx.Err(); err != nil {
		return core.SavedRequest{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, idx, err := s.find(req.ID)
	if err != nil {
		return core.SavedRequest{}, err
	}

	if req.CollectionID == 0 || req.CollectionID == f.ID {
		req.CollectionID = f.ID
		f.Requests[idx] = req
		return req, s.write(f)
	}

	target, err := s.load(req.CollectionID)
	if err != nil {
		return core.SavedRequest{}, err
	}
	f.Requests = append(f.Requests[:idx], f.Requests[idx+1:]...)
	target.Requests = append(target.Requests, req)
	if err := s.write(target); err != nil {
		return core.SavedRequest{}, err
	}
	return req, s.write(f)
}

// DeleteRequest removes a request from its collection.
func (s *FileStore) DeleteRequest(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, idx, err := s.find(id)
	if err != nil {
		return err
	}
	f.Requests = append(f.Requests[:idx], f.Requests[idx+1:]...)
	return s.write(f)
}

func (s *FileStore) find(requestID string) (*collectionFile, int, error) {
	files, err := s.loadAll()
	if err != nil {
		return nil, -1, err
	}
	for _, f := range files {
		if idx := f.indexOf(requestID); idx >= 0 {
			return f, idx, nil
		}
	}
	return nil, -1, fmt.Errorf("request %s: %w", requestID, ErrNotFound)
}

func (s *FileStore) path(id int64) string {
	return filepath.Join(s.dir, strconv.FormatInt(id, 10)+".yaml")
}

func (s *FileStore) load(id int64) (*collectionFile, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("collection %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var f collectionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &f, nil
}

func (s *FileStore) loadAll() ([]*collectionFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	var files []*collectionFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSuffix(entry.Name(), ".yaml"), 10, 64)
		if err != nil {
			continue
		}
		f, err := s.load(id)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].ID < files[j].ID })
	return files, nil
}

// write replaces the collection file atomically.
func (s *FileStore) write(f *collectionFile) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal collection: %w", err)
	}

	tmp := s.path(f.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, s.path(f.ID)); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}
