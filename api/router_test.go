package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/theneural/backend/database"
	"github.com/theneural/backend/errs"
	"github.com/theneural/backend/models"
	"github.com/theneural/backend/services"
)

// In-memory doubles standing in for Postgres, object storage and the bus so
// handler tests exercise the full router without any infrastructure.

type memProjectStore struct {
	mu       sync.Mutex
	projects map[uuid.UUID]models.Project
}

func (m *memProjectStore) FindAll(filter database.ProjectFilter) ([]*models.Project, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matches []*models.Project
	for id := range m.projects {
		project := m.projects[id]
		if filter.Status != "" && string(project.Status) != filter.Status {
			continue
		}
		if filter.CreatedBy != "" && project.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(project.Name), strings.ToLower(filter.Search)) {
			continue
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

func (m *memProjectStore) FindByID(id uuid.UUID) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	project, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	return &project, nil
}

func (m *memProjectStore) Add(project *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[project.ID] = *project
	return nil
}

func (m *memProjectStore) Update(project *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.projects[project.ID]
	if !ok || stored.Version != project.Version {
		return errs.NewConflict("project was modified concurrently")
	}
	project.Version++
	m.projects[project.ID] = *project
	return nil
}

func (m *memProjectStore) Delete(id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.projects[id]
	delete(m.projects, id)
	return ok, nil
}

type memBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func (m *memBlobStore) Put(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = content
	return "mem://" + key, nil
}

func (m *memBlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.blobs[key]
	if !ok {
		return nil, fmt.Errorf("blob %q not found", key)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (m *memBlobStore) DeletePrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.blobs {
		if strings.HasPrefix(key, prefix) {
			delete(m.blobs, key)
		}
	}
	return nil
}

type memPublisher struct{}

func (memPublisher) Publish(ctx context.Context, data []byte) error { return nil }

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
}

func (m *memSessionStore) Add(session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = *session
	return nil
}

func (m *memSessionStore) FindByID(id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (m *memSessionStore) Update(session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = *session
	return nil
}

func (m *memSessionStore) Delete(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	return ok, nil
}

func (m *memSessionStore) DeleteExpired(now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var swept int64
	for id, session := range m.sessions {
		if session.Expired(now) {
			delete(m.sessions, id)
			swept++
		}
	}
	return swept, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	projects := services.NewProjectService(
		&memProjectStore{projects: map[uuid.UUID]models.Project{}},
		&memBlobStore{blobs: map[string][]byte{}},
		memPublisher{},
		services.DefaultLimits,
		services.DefaultTrainingConfig,
	)
	sessions := services.NewSessionService(
		&memSessionStore{sessions: map[string]models.Session{}},
		[]byte("test-secret"),
		time.Hour,
	)
	return newRouter(projects, sessions, withConfig(nil), withStartupTime(time.Now()))
}

// doJSON sends body (JSON-encoded unless nil) and decodes the envelope.
func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers ...map[string]string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, extra := range headers {
		for key, value := range extra {
			req.Header.Set(key, value)
		}
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

// dataAsMap re-decodes the envelope's data field into a map for assertions.
func dataAsMap(t *testing.T, resp envelope) map[string]any {
	t.Helper()
	encoded, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var asMap map[string]any
	require.NoError(t, json.Unmarshal(encoded, &asMap))
	return asMap
}
