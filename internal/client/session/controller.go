// Package session tracks guest versus member mode and owns the two state
// transitions with side effects: login (offer to migrate guest projects,
// then load server state) and logout (discard server state, restore
// defaults, clear credentials).
package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"cs-simulator/internal/client/reconcile"
	"cs-simulator/internal/client/state"
	"cs-simulator/internal/models"

	"github.com/google/uuid"
)

// State is the controller's position in the session lifecycle.
type State int

const (
	StateGuest State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateGuest:
		return "guest"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// Gateway is the slice of the HTTP client the controller needs.
type Gateway interface {
	Authenticated() bool
	User() *models.UserResponse
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Register(ctx context.Context, email, password, name string) (*models.AuthResponse, error)
	Logout(ctx context.Context) error
	MigrateProjects(ctx context.Context, projectIDs []uuid.UUID) error
	CreateProject(ctx context.Context, req models.CreateProjectRequest) (*models.ProjectResponse, error)
	CreateConversation(ctx context.Context, req models.CreateConversationRequest) (*models.ConversationResponse, error)
	CreateMessagesBatch(ctx context.Context, reqs []models.CreateMessageRequest) ([]models.ChatMessageModel, error)
	CreateFilesBatch(ctx context.Context, reqs []models.CreateFileRequest) ([]models.FileResponse, error)
	ListProjects(ctx context.Context) ([]models.ProjectResponse, error)
	GetSettings(ctx context.Context) (*models.UserSettings, error)
}

// MigrationConsent is asked once per login when unowned guest projects
// exist. Returning true authorizes the ownership transfer.
type MigrationConsent func(projectIDs []uuid.UUID) bool

// Controller drives session transitions. While in guest state it issues no
// entity-persistence calls; all entity mutation stays in the workspace.
type Controller struct {
	gw        Gateway
	workspace *state.Workspace
	consent   MigrationConsent

	mu    sync.Mutex
	state State
}

func NewController(gw Gateway, workspace *state.Workspace, consent MigrationConsent) *Controller {
	return &Controller{
		gw:        gw,
		workspace: workspace,
		consent:   consent,
		state:     StateGuest,
	}
}

// Start sets the initial state from durable credentials. Stored tokens are
// trusted without a server round trip; a stale pair surfaces naturally as a
// 401 on the first call and runs the refresh path.
func (c *Controller) Start(ctx context.Context) error {
	if c.gw.Authenticated() {
		c.setState(StateAuthenticated)
		return c.loadServerState(ctx)
	}
	c.setState(StateGuest)
	return nil
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Mode maps the session state onto the reconciliation policy's key.
func (c *Controller) Mode() reconcile.Mode {
	if c.State() == StateAuthenticated {
		return reconcile.ModeAuthenticated
	}
	return reconcile.ModeGuest
}

// UserID returns the authenticated user's id, or "" in guest mode.
func (c *Controller) UserID() string {
	if c.State() != StateAuthenticated {
		return ""
	}
	user := c.gw.User()
	if user == nil {
		return ""
	}
	return user.ID.String()
}

// Login authenticates and completes the guest-to-member transition.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	c.setState(StateAuthenticating)
	auth, err := c.gw.Login(ctx, email, password)
	if err != nil {
		c.setState(StateGuest)
		return err
	}
	return c.becomeMember(ctx, auth)
}

// Register creates an account and completes the same transition as Login.
func (c *Controller) Register(ctx context.Context, email, password, name string) error {
	c.setState(StateAuthenticating)
	auth, err := c.gw.Register(ctx, email, password, name)
	if err != nil {
		c.setState(StateGuest)
		return err
	}
	return c.becomeMember(ctx, auth)
}

// Logout tears the session down: server-side refresh credential cleared,
// server-derived entities discarded, settings back to defaults. The local
// teardown happens even when the server call fails.
func (c *Controller) Logout(ctx context.Context) error {
	err := c.gw.Logout(ctx)
	c.workspace.Reset()
	c.setState(StateGuest)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// becomeMember claims and uploads consented guest projects, then replaces
// local state with the server's view.
func (c *Controller) becomeMember(ctx context.Context, auth *models.AuthResponse) error {
	guestIDs := c.workspace.GuestProjectIDs()
	var unsynced []*state.Project
	if len(guestIDs) > 0 && c.consent != nil && c.consent(guestIDs) {
		// Claim any unowned server rows under these ids, then upload the
		// local-only guest work. Guest mutations never left this process, so
		// the upload is what actually carries the data over.
		if err := c.gw.MigrateProjects(ctx, guestIDs); err != nil {
			log.Printf("WARN: project migration for user %s failed: %v", auth.User.ID, err)
		}
		unsynced = c.uploadGuestProjects(ctx, guestIDs)
	}

	c.setState(StateAuthenticated)
	if err := c.loadServerState(ctx); err != nil {
		return err
	}
	// A project whose upload failed stays in the workspace as guest data
	// instead of vanishing under the server snapshot.
	for _, p := range unsynced {
		c.workspace.AddProject(p)
	}
	return nil
}

// uploadGuestProjects recreates local guest projects under the new account.
// Returns the projects that could not be uploaded.
func (c *Controller) uploadGuestProjects(ctx context.Context, ids []uuid.UUID) []*state.Project {
	var failed []*state.Project
	for _, id := range ids {
		p := c.workspace.Project(id)
		if p == nil {
			continue
		}
		if err := c.uploadProject(ctx, p); err != nil {
			log.Printf("WARN: failed to upload guest project %q (%s): %v", p.Name, p.ID, err)
			failed = append(failed, p)
		}
	}
	return failed
}

// uploadProject pushes one guest project: the project itself, each
// conversation with its messages in one batch, and the file records.
func (c *Controller) uploadProject(ctx context.Context, p *state.Project) error {
	req := models.CreateProjectRequest{Name: p.Name, UploadPercentage: &p.UploadPercentage}
	if p.Category != "" {
		req.Category = &p.Category
	}
	if p.Guidelines != "" {
		req.Guidelines = &p.Guidelines
	}
	created, err := c.gw.CreateProject(ctx, req)
	if err != nil {
		return err
	}

	for _, conv := range p.Conversations {
		convReq := models.CreateConversationRequest{
			Title:     conv.Title,
			Role:      conv.Role,
			ProjectID: created.ID,
		}
		if conv.Preview != "" {
			convReq.Preview = &conv.Preview
		}
		remote, err := c.gw.CreateConversation(ctx, convReq)
		if err != nil {
			return err
		}

		batch := make([]models.CreateMessageRequest, 0, len(conv.Messages))
		for _, m := range conv.Messages {
			if m.IsLoading {
				continue
			}
			content := m.Content
			if m.FullContent != "" {
				content = m.FullContent
			}
			batch = append(batch, models.CreateMessageRequest{
				Role:           m.Role,
				Content:        content,
				ConversationID: remote.ID,
			})
		}
		if len(batch) == 0 {
			continue
		}
		if _, err := c.gw.CreateMessagesBatch(ctx, batch); err != nil {
			return err
		}
	}

	if len(p.Files) == 0 {
		return nil
	}
	files := make([]models.CreateFileRequest, 0, len(p.Files))
	for _, f := range p.Files {
		fileReq := models.CreateFileRequest{
			Name:      f.Name,
			Type:      f.Type,
			Size:      f.Size,
			ProjectID: created.ID,
		}
		if f.EmbeddingFileID != "" {
			fileReq.EmbeddingFileID = &f.EmbeddingFileID
		}
		files = append(files, fileReq)
	}
	_, err = c.gw.CreateFilesBatch(ctx, files)
	return err
}

// loadServerState pulls the account's projects and settings into the
// workspace, replacing whatever was there.
func (c *Controller) loadServerState(ctx context.Context) error {
	projects, err := c.gw.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to load projects: %w", err)
	}
	loaded := make([]*state.Project, len(projects))
	for i, p := range projects {
		loaded[i] = state.ProjectFromResponse(p)
	}
	c.workspace.ReplaceProjects(loaded)

	settings, err := c.gw.GetSettings(ctx)
	if err != nil {
		log.Printf("WARN: failed to load settings, keeping defaults: %v", err)
		return nil
	}
	c.workspace.SetSettings(*settings)
	return nil
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
