package session

import (
	"context"
	"errors"
	"testing"

	"cs-simulator/internal/client/reconcile"
	"cs-simulator/internal/client/state"
	"cs-simulator/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeGateway records every call so tests can assert exactly which network
// traffic a transition produced.
type fakeGateway struct {
	authenticated bool
	user          *models.UserResponse

	loginErr         error
	migrateErr       error
	createProjectErr error
	projects         []models.ProjectResponse
	settings         *models.UserSettings
	migrated         [][]uuid.UUID
	loginCalls       int
	logoutCalls      int
	listCalls        int

	createdProjects        []models.CreateProjectRequest
	createdProjectIDs      []uuid.UUID
	createdConversations   []models.CreateConversationRequest
	createdConversationIDs []uuid.UUID
	messageBatches         [][]models.CreateMessageRequest
	fileBatches            [][]models.CreateFileRequest
}

func (f *fakeGateway) Authenticated() bool        { return f.authenticated }
func (f *fakeGateway) User() *models.UserResponse { return f.user }

func (f *fakeGateway) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	f.loginCalls++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.authenticated = true
	if f.user == nil {
		id := uuid.New()
		f.user = &models.UserResponse{ID: id, Email: email}
	}
	return &models.AuthResponse{AccessToken: "a", RefreshToken: "r", User: *f.user}, nil
}

func (f *fakeGateway) Register(ctx context.Context, email, password, name string) (*models.AuthResponse, error) {
	return f.Login(ctx, email, password)
}

func (f *fakeGateway) Logout(ctx context.Context) error {
	f.logoutCalls++
	f.authenticated = false
	f.user = nil
	return nil
}

func (f *fakeGateway) MigrateProjects(ctx context.Context, projectIDs []uuid.UUID) error {
	f.migrated = append(f.migrated, projectIDs)
	return f.migrateErr
}

func (f *fakeGateway) CreateProject(ctx context.Context, req models.CreateProjectRequest) (*models.ProjectResponse, error) {
	if f.createProjectErr != nil {
		return nil, f.createProjectErr
	}
	f.createdProjects = append(f.createdProjects, req)
	id := uuid.New()
	f.createdProjectIDs = append(f.createdProjectIDs, id)
	return &models.ProjectResponse{ID: id, Name: req.Name}, nil
}

func (f *fakeGateway) CreateConversation(ctx context.Context, req models.CreateConversationRequest) (*models.ConversationResponse, error) {
	f.createdConversations = append(f.createdConversations, req)
	id := uuid.New()
	f.createdConversationIDs = append(f.createdConversationIDs, id)
	return &models.ConversationResponse{ID: id, Title: req.Title, Role: req.Role, ProjectID: req.ProjectID}, nil
}

func (f *fakeGateway) CreateMessagesBatch(ctx context.Context, reqs []models.CreateMessageRequest) ([]models.ChatMessageModel, error) {
	f.messageBatches = append(f.messageBatches, reqs)
	return nil, nil
}

func (f *fakeGateway) CreateFilesBatch(ctx context.Context, reqs []models.CreateFileRequest) ([]models.FileResponse, error) {
	f.fileBatches = append(f.fileBatches, reqs)
	return nil, nil
}

func (f *fakeGateway) ListProjects(ctx context.Context) ([]models.ProjectResponse, error) {
	f.listCalls++
	return f.projects, nil
}

func (f *fakeGateway) GetSettings(ctx context.Context) (*models.UserSettings, error) {
	if f.settings == nil {
		return nil, errors.New("no settings")
	}
	return f.settings, nil
}

func addGuestProject(ws *state.Workspace, name string) uuid.UUID {
	p := &state.Project{ID: uuid.New(), Name: name}
	ws.AddProject(p)
	return p.ID
}

func TestStartWithStoredCredentials(t *testing.T) {
	gw := &fakeGateway{authenticated: true, user: &models.UserResponse{ID: uuid.New()}}
	ws := state.NewWorkspace()
	c := NewController(gw, ws, nil)

	require.NoError(t, c.Start(context.Background()))
	require.Equal(t, StateAuthenticated, c.State())
	require.Equal(t, reconcile.ModeAuthenticated, c.Mode())
	require.Equal(t, 1, gw.listCalls)
	require.Zero(t, gw.loginCalls, "stored pair is trusted without server validation")
}

func TestStartWithoutCredentialsIsGuest(t *testing.T) {
	gw := &fakeGateway{}
	c := NewController(gw, state.NewWorkspace(), nil)

	require.NoError(t, c.Start(context.Background()))
	require.Equal(t, StateGuest, c.State())
	require.Equal(t, reconcile.ModeGuest, c.Mode())
	require.Empty(t, c.UserID())
	require.Zero(t, gw.listCalls, "guest start issues no network calls")
}

func TestLoginMigratesExactlyTheUnownedProjects(t *testing.T) {
	gw := &fakeGateway{}
	ws := state.NewWorkspace()
	guest1 := addGuestProject(ws, "one")
	guest2 := addGuestProject(ws, "two")
	otherOwner := uuid.New()
	ws.AddProject(&state.Project{ID: uuid.New(), Name: "theirs", UserID: &otherOwner})

	var prompted []uuid.UUID
	consent := func(ids []uuid.UUID) bool {
		prompted = ids
		return true
	}
	c := NewController(gw, ws, consent)

	require.NoError(t, c.Login(context.Background(), "a@b.c", "pw"))
	require.Equal(t, StateAuthenticated, c.State())
	require.Equal(t, []uuid.UUID{guest1, guest2}, prompted)
	require.Len(t, gw.migrated, 1, "exactly one batch migration call")
	require.Equal(t, []uuid.UUID{guest1, guest2}, gw.migrated[0])
}

func TestLoginUploadsGuestWork(t *testing.T) {
	// Guest entities only exist in this process, so accepting the consent
	// prompt must recreate them server-side: project, conversation, the
	// message batch, and the file records.
	gw := &fakeGateway{}
	ws := state.NewWorkspace()
	guidelines := "be polite"
	project := &state.Project{ID: uuid.New(), Name: "Returns", Guidelines: guidelines, UploadPercentage: 80}
	ws.AddProject(project)
	conv := &state.Conversation{ID: uuid.New(), Title: "New Chat", Preview: "How do I return?", Role: models.RoleCustomer, ProjectID: project.ID}
	require.True(t, ws.AddConversation(conv))
	ws.AppendMessage(conv.ID, &state.Message{ID: uuid.New(), Role: models.MessageRoleUser, Content: "How do I return?"})
	ws.AppendMessage(conv.ID, &state.Message{ID: uuid.New(), Role: models.MessageRoleAssistant, Content: "Within 30", FullContent: "Within 30 days."})
	require.True(t, ws.AddFile(&state.File{ID: uuid.New(), Name: "faq.txt", Type: "text/plain", Size: 42, EmbeddingFileID: "emb-1", ProjectID: project.ID}))

	c := NewController(gw, ws, func(ids []uuid.UUID) bool { return true })
	require.NoError(t, c.Login(context.Background(), "a@b.c", "pw"))

	require.Len(t, gw.createdProjects, 1)
	require.Equal(t, "Returns", gw.createdProjects[0].Name)
	require.Equal(t, &guidelines, gw.createdProjects[0].Guidelines)
	require.Equal(t, 80, *gw.createdProjects[0].UploadPercentage)

	require.Len(t, gw.createdConversations, 1)
	require.Equal(t, "New Chat", gw.createdConversations[0].Title)
	require.Equal(t, gw.createdProjectIDs[0], gw.createdConversations[0].ProjectID,
		"conversation targets the server-issued project id")

	require.Len(t, gw.messageBatches, 1)
	batch := gw.messageBatches[0]
	require.Len(t, batch, 2)
	require.Equal(t, gw.createdConversationIDs[0], batch[0].ConversationID)
	require.Equal(t, "How do I return?", batch[0].Content)
	require.Equal(t, "Within 30 days.", batch[1].Content, "full text, not the partially revealed view")

	require.Len(t, gw.fileBatches, 1)
	require.Equal(t, "faq.txt", gw.fileBatches[0][0].Name)
	require.Equal(t, gw.createdProjectIDs[0], gw.fileBatches[0][0].ProjectID)
	require.Equal(t, "emb-1", *gw.fileBatches[0][0].EmbeddingFileID)
}

func TestFailedUploadKeepsGuestProject(t *testing.T) {
	gw := &fakeGateway{createProjectErr: errors.New("server unavailable")}
	ws := state.NewWorkspace()
	id := addGuestProject(ws, "draft")

	c := NewController(gw, ws, func(ids []uuid.UUID) bool { return true })
	require.NoError(t, c.Login(context.Background(), "a@b.c", "pw"))

	kept := ws.Project(id)
	require.NotNil(t, kept, "unuploaded guest work survives the server snapshot")
	require.Nil(t, kept.UserID, "still unowned, claimable on a later attempt")
}

func TestLoginWithoutGuestProjectsSkipsPrompt(t *testing.T) {
	gw := &fakeGateway{}
	ws := state.NewWorkspace()

	consentCalled := false
	c := NewController(gw, ws, func(ids []uuid.UUID) bool {
		consentCalled = true
		return true
	})

	require.NoError(t, c.Login(context.Background(), "a@b.c", "pw"))
	require.False(t, consentCalled, "prompt fires only when N>0 guest projects exist")
	require.Empty(t, gw.migrated)
}

func TestLoginDeclinedConsentSkipsMigration(t *testing.T) {
	gw := &fakeGateway{}
	ws := state.NewWorkspace()
	addGuestProject(ws, "keep local")

	c := NewController(gw, ws, func(ids []uuid.UUID) bool { return false })

	require.NoError(t, c.Login(context.Background(), "a@b.c", "pw"))
	require.Empty(t, gw.migrated)
	require.Empty(t, gw.createdProjects, "declined consent uploads nothing")
}

func TestLoginLoadsServerProjectsAndSettings(t *testing.T) {
	serverProject := models.ProjectResponse{ID: uuid.New(), Name: "from server", UploadPercentage: 100}
	serverSettings := models.UserSettings{
		APIKeys:       models.APIKeys{GPT: "sk-live"},
		EnabledModels: []string{"gpt-4o"},
		SelectedModel: "gpt-4o",
	}
	gw := &fakeGateway{projects: []models.ProjectResponse{serverProject}, settings: &serverSettings}
	ws := state.NewWorkspace()
	addGuestProject(ws, "local draft")

	c := NewController(gw, ws, func(ids []uuid.UUID) bool { return true })
	require.NoError(t, c.Login(context.Background(), "a@b.c", "pw"))

	projects := ws.Projects()
	require.Len(t, projects, 1)
	require.Equal(t, serverProject.ID, projects[0].ID, "local set replaced by server view")
	require.Equal(t, "sk-live", ws.Settings().APIKeys.GPT)
}

func TestFailedLoginStaysGuest(t *testing.T) {
	gw := &fakeGateway{loginErr: errors.New("invalid email or password")}
	ws := state.NewWorkspace()
	id := addGuestProject(ws, "draft")

	c := NewController(gw, ws, nil)
	require.Error(t, c.Login(context.Background(), "a@b.c", "bad"))
	require.Equal(t, StateGuest, c.State())
	require.NotNil(t, ws.Project(id), "guest data untouched")
	require.Empty(t, gw.migrated)
}

func TestLogoutDiscardsServerStateAndResetsDefaults(t *testing.T) {
	gw := &fakeGateway{
		projects: []models.ProjectResponse{{ID: uuid.New(), Name: "server project"}},
		settings: &models.UserSettings{SelectedModel: "claude-3-opus", EnabledModels: []string{"claude-3-opus"}},
	}
	ws := state.NewWorkspace()
	c := NewController(gw, ws, nil)
	require.NoError(t, c.Login(context.Background(), "a@b.c", "pw"))
	require.Equal(t, "claude-3-opus", ws.Settings().SelectedModel)

	require.NoError(t, c.Logout(context.Background()))
	require.Equal(t, StateGuest, c.State())
	require.Equal(t, 1, gw.logoutCalls)
	require.Empty(t, ws.Projects(), "server-derived entities are discarded, not merged")
	require.Equal(t, models.DefaultSettings(), ws.Settings())
}
