package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/theneural/backend/database"
	"github.com/theneural/backend/errs"
	"github.com/theneural/backend/models"
)

// In-memory doubles for the Postgres repo, the blob store and the event bus.

type fakeProjectStore struct {
	mu       sync.Mutex
	projects map[uuid.UUID]models.Project
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{projects: map[uuid.UUID]models.Project{}}
}

func (f *fakeProjectStore) FindAll(filter database.ProjectFilter) ([]*models.Project, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matches []*models.Project
	for id := range f.projects {
		project := f.projects[id]
		if filter.Status != "" && string(project.Status) != filter.Status {
			continue
		}
		if filter.Type != "" && string(project.Type) != filter.Type {
			continue
		}
		if filter.CreatedBy != "" && project.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(project.Name), needle) &&
				!strings.Contains(strings.ToLower(project.Description), needle) {
				continue
			}
		}
		matches = append(matches, &project)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	total := int64(len(matches))
	if filter.Offset >= len(matches) {
		return []*models.Project{}, total, nil
	}
	matches = matches[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matches) {
		matches = matches[:filter.Limit]
	}
	return matches, total, nil
}

func (f *fakeProjectStore) FindByID(id uuid.UUID) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	project, ok := f.projects[id]
	if !ok {
		return nil, nil
	}
	return &project, nil
}

func (f *fakeProjectStore) Add(project *models.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects[project.ID] = *project
	return nil
}

// Update enforces the same version guard as the Postgres repo: a writer
// carrying a stale version gets a conflict.
func (f *fakeProjectStore) Update(project *models.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.projects[project.ID]
	if !ok || stored.Version != project.Version {
		return errs.NewConflict("project was modified concurrently")
	}
	project.Version++
	f.projects[project.ID] = *project
	return nil
}

func (f *fakeProjectStore) Delete(id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.projects[id]
	delete(f.projects, id)
	return ok, nil
}

type fakeBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: map[string][]byte{}}
}

func (f *fakeBlobStore) Put(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = content
	return "mem://" + key, nil
}

func (f *fakeBlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.blobs[key]
	if !ok {
		return nil, fmt.Errorf("blob %q not found", key)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (f *fakeBlobStore) DeletePrefix(ctx context.Context, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.blobs {
		if strings.HasPrefix(key, prefix) {
			delete(f.blobs, key)
		}
	}
	return nil
}

func (f *fakeBlobStore) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.blobs))
	for key := range f.blobs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

type fakePublisher struct {
	mu       sync.Mutex
	messages [][]byte
}

func (f *fakePublisher) Publish(ctx context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, data)
	return nil
}

func (f *fakePublisher) published() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte{}, f.messages...)
}

func newTestService(limits Limits) (*ProjectService, *fakeProjectStore, *fakeBlobStore, *fakePublisher) {
	store := newFakeProjectStore()
	blobs := newFakeBlobStore()
	bus := &fakePublisher{}
	svc := NewProjectService(store, blobs, bus, limits, DefaultTrainingConfig)
	return svc, store, blobs, bus
}
