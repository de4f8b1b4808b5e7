package storage

import "github.com/postboy/postboy/pkg/core"

// collectionFile is the on-disk YAML layout of one collection.
type collectionFile struct {
	ID       int64               `yaml:"id"`                 // Collection ID, also the file name
	Name     string              `yaml:"name"`               // Display name
	Requests []core.SavedRequest `yaml:"requests,omitempty"` // Saved requests in display order
}

func (f *collectionFile) toCollection() core.Collection {
	requests := make([]core.SavedRequest, len(f.Requests))
	copy(requests, f.Requests)
	return core.Collection{ID: f.ID, Name: f.Name, Requests: requests}
}

func (f *collectionFile) indexOf(requestID string) int {
	for i, r := range f.Requests {
		if r.ID == requestID {
			return i
		}
	}
	return -1
}
