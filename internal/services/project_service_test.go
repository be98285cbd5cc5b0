package services

import (
	"context"
	"errors"
	"testing"

	"cs-simulator/internal/models"
	"cs-simulator/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeProjectStore struct {
	store.Store
	projects map[uuid.UUID]*models.Project

	migrated      []uuid.UUID
	migratedTo    uuid.UUID
	migrateResult int64
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{projects: make(map[uuid.UUID]*models.Project)}
}

func (f *fakeProjectStore) seed(userID *uuid.UUID, name string) *models.Project {
	p := &models.Project{ID: uuid.New(), UserID: userID, Name: name, UploadPercentage: 100}
	f.projects[p.ID] = p
	return p
}

func (f *fakeProjectStore) CreateProject(_ context.Context, arg store.CreateProjectParams) (*models.Project, error) {
	p := &models.Project{
		ID:               arg.ID,
		UserID:           arg.UserID,
		Name:             arg.Name,
		Category:         arg.Category,
		Guidelines:       arg.Guidelines,
		UploadPercentage: arg.UploadPercentage,
		IsExpanded:       arg.IsExpanded,
	}
	f.projects[p.ID] = p
	return p, nil
}

func (f *fakeProjectStore) GetProjectByID(_ context.Context, id uuid.UUID) (*models.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeProjectStore) ListProjects(_ context.Context, userID *uuid.UUID) ([]models.Project, error) {
	var out []models.Project
	for _, p := range f.projects {
		switch {
		case userID == nil && p.UserID == nil:
			out = append(out, *p)
		case userID != nil && p.UserID != nil && *p.UserID == *userID:
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProjectStore) UpdateProject(_ context.Context, arg store.UpdateProjectParams) (*models.Project, error) {
	p, ok := f.projects[arg.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if arg.Name != nil {
		p.Name = *arg.Name
	}
	if arg.UploadPercentage != nil {
		p.UploadPercentage = *arg.UploadPercentage
	}
	return p, nil
}

func (f *fakeProjectStore) DeleteProject(_ context.Context, id uuid.UUID) error {
	if _, ok := f.projects[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.projects, id)
	return nil
}

func (f *fakeProjectStore) MigrateProjects(_ context.Context, ids []uuid.UUID, userID uuid.UUID) (int64, error) {
	f.migrated = ids
	f.migratedTo = userID
	return f.migrateResult, nil
}

func (f *fakeProjectStore) ListConversations(_ context.Context, _ *uuid.UUID) ([]models.Conversation, error) {
	return nil, nil
}

func (f *fakeProjectStore) ListMessagesByConversation(_ context.Context, _ uuid.UUID) ([]models.Message, error) {
	return nil, nil
}

func (f *fakeProjectStore) ListFilesByProject(_ context.Context, _ uuid.UUID) ([]models.ProjectFile, error) {
	return nil, nil
}

type recordingCleaner struct {
	deleted []string
	err     error
}

func (c *recordingCleaner) DeleteProjectFiles(_ context.Context, projectID string) error {
	c.deleted = append(c.deleted, projectID)
	return c.err
}

func TestCreateProjectDefaults(t *testing.T) {
	fs := newFakeProjectStore()
	svc := NewProjectService(fs, nil)

	resp, err := svc.Create(context.Background(), models.CreateProjectRequest{Name: "Returns"}, nil)
	require.NoError(t, err)
	require.Equal(t, "Returns", resp.Name)
	require.Equal(t, 100, resp.UploadPercentage)
	require.True(t, resp.IsExpanded)
	require.Nil(t, resp.UserID, "guest-created projects are unowned")
	require.NotNil(t, resp.Conversations, "children are embedded even when empty")
	require.NotNil(t, resp.Files)
}

func TestCreateProjectValidation(t *testing.T) {
	svc := NewProjectService(newFakeProjectStore(), nil)

	_, err := svc.Create(context.Background(), models.CreateProjectRequest{}, nil)
	require.ErrorIs(t, err, ErrValidation)

	bad := 150
	_, err = svc.Create(context.Background(), models.CreateProjectRequest{Name: "x", UploadPercentage: &bad}, nil)
	require.ErrorIs(t, err, ErrValidation)
}

func TestGetEnforcesOwnership(t *testing.T) {
	fs := newFakeProjectStore()
	svc := NewProjectService(fs, nil)

	owner := uuid.New()
	stranger := uuid.New()
	owned := fs.seed(&owner, "mine")
	unowned := fs.seed(nil, "guest pool")

	_, err := svc.Get(context.Background(), owned.ID, &owner)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), owned.ID, &stranger)
	require.ErrorIs(t, err, ErrForbidden)

	// Guests and authenticated users may both read unowned projects.
	_, err = svc.Get(context.Background(), unowned.ID, nil)
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), unowned.ID, &stranger)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.New(), nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTriggersEmbeddingCleanup(t *testing.T) {
	fs := newFakeProjectStore()
	cleaner := &recordingCleaner{}
	svc := NewProjectService(fs, cleaner)

	p := fs.seed(nil, "doomed")
	require.NoError(t, svc.Delete(context.Background(), p.ID, nil))
	require.Equal(t, []string{p.ID.String()}, cleaner.deleted)
	require.NotContains(t, fs.projects, p.ID)
}

func TestDeleteSurvivesCleanupFailure(t *testing.T) {
	fs := newFakeProjectStore()
	cleaner := &recordingCleaner{err: errors.New("ai service down")}
	svc := NewProjectService(fs, cleaner)

	p := fs.seed(nil, "doomed")
	require.NoError(t, svc.Delete(context.Background(), p.ID, nil), "cleanup failure is logged, not surfaced")
}

func TestMigrateRequiresIDs(t *testing.T) {
	fs := newFakeProjectStore()
	svc := NewProjectService(fs, nil)
	userID := uuid.New()

	err := svc.Migrate(context.Background(), nil, userID)
	require.ErrorIs(t, err, ErrValidation)

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	fs.migrateResult = 2
	require.NoError(t, svc.Migrate(context.Background(), ids, userID))
	require.Equal(t, ids, fs.migrated)
	require.Equal(t, userID, fs.migratedTo)
}

func TestUpdateValidatesPercentage(t *testing.T) {
	fs := newFakeProjectStore()
	svc := NewProjectService(fs, nil)
	p := fs.seed(nil, "proj")

	bad := -1
	_, err := svc.Update(context.Background(), p.ID, models.UpdateProjectRequest{UploadPercentage: &bad}, nil)
	require.ErrorIs(t, err, ErrValidation)

	name := "renamed"
	resp, err := svc.Update(context.Background(), p.ID, models.UpdateProjectRequest{Name: &name}, nil)
	require.NoError(t, err)
	require.Equal(t, "renamed", resp.Name)
}
