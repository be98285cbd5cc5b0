// Package client assembles the synchronization subsystem: durable
// credential storage, the HTTP gateway, the in-memory workspace, the
// session controller and the chat orchestrator.
package client

import (
	"context"
	"fmt"

	"cs-simulator/internal/client/chat"
	"cs-simulator/internal/client/gateway"
	"cs-simulator/internal/client/session"
	"cs-simulator/internal/client/state"
	"cs-simulator/internal/client/storage"
)

// App bundles the wired client components.
type App struct {
	Storage   *storage.SQLiteStore
	Gateway   *gateway.Client
	Workspace *state.Workspace
	Session   *session.Controller
	Chat      *chat.Orchestrator
}

// New wires the full client against a backend. metadataPath is the sqlite
// file holding the credential pair; a previously persisted session is
// restored and trusted until the first 401.
func New(ctx context.Context, baseURL, metadataPath string, consent session.MigrationConsent) (*App, error) {
	store, err := storage.OpenSQLite(ctx, metadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open client storage: %w", err)
	}

	gw := gateway.NewClient(baseURL, store)
	if err := gw.Restore(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	workspace := state.NewWorkspace()
	controller := session.NewController(gw, workspace, consent)
	orchestrator := chat.NewOrchestrator(gw, workspace, controller)

	if err := controller.Start(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	return &App{
		Storage:   store,
		Gateway:   gw,
		Workspace: workspace,
		Session:   controller,
		Chat:      orchestrator,
	}, nil
}

// Close releases the durable storage handle.
func (a *App) Close() error {
	return a.Storage.Close()
}
