// Package chat drives the send-message flow: optimistic local appends, the
// AI round trip, the character-by-character reveal, and rollback when the
// AI call fails.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"cs-simulator/internal/client/reconcile"
	"cs-simulator/internal/client/state"
	"cs-simulator/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrSendInFlight rejects a second send while one is running. Sends are
	// rejected, never queued.
	ErrSendInFlight = errors.New("a send is already in flight")
	// ErrNoActiveConversation is returned when no conversation is selected.
	ErrNoActiveConversation = errors.New("no active conversation selected")
	// ErrEmptyMessage rejects blank input.
	ErrEmptyMessage = errors.New("message content is empty")
)

// defaultRevealInterval is the fixed tick between revealed characters.
const defaultRevealInterval = 30 * time.Millisecond

// Gateway is the slice of the HTTP client the orchestrator needs.
type Gateway interface {
	CreateMessage(ctx context.Context, req models.CreateMessageRequest) (*models.ChatMessageModel, error)
	UpdateConversation(ctx context.Context, id uuid.UUID, req models.UpdateConversationRequest) (*models.ConversationResponse, error)
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
	GenerateScenario(ctx context.Context, req models.ScenarioRequest) (*models.ScenarioResponse, error)
}

// Session is the slice of the session controller the orchestrator needs.
type Session interface {
	Mode() reconcile.Mode
	UserID() string
}

// Orchestrator coordinates one send at a time against the active
// conversation. All entity mutation goes through the workspace so the
// single-writer invariant holds.
type Orchestrator struct {
	gw             Gateway
	workspace      *state.Workspace
	session        Session
	revealInterval time.Duration

	mu           sync.Mutex
	sendInFlight bool
	reveals      map[uuid.UUID]chan struct{}
}

func NewOrchestrator(gw Gateway, workspace *state.Workspace, session Session) *Orchestrator {
	o := &Orchestrator{
		gw:             gw,
		workspace:      workspace,
		session:        session,
		revealInterval: defaultRevealInterval,
		reveals:        make(map[uuid.UUID]chan struct{}),
	}
	workspace.OnConversationRemove(o.cancelReveal)
	return o
}

// SetRevealInterval overrides the reveal tick. Mostly for tests.
func (o *Orchestrator) SetRevealInterval(d time.Duration) {
	o.revealInterval = d
}

// Send runs the full send-message sequence against the active conversation
// and blocks until the assistant reply is fully revealed and persisted.
// On AI failure both optimistic messages are removed and the error is
// returned; a failed user-message persist is non-fatal.
func (o *Orchestrator) Send(ctx context.Context, content string) (*state.Message, error) {
	if content == "" {
		return nil, ErrEmptyMessage
	}
	conversationID := o.workspace.ActiveConversationID()
	if conversationID == uuid.Nil {
		return nil, ErrNoActiveConversation
	}
	conversation := o.workspace.Conversation(conversationID)
	if conversation == nil {
		return nil, ErrNoActiveConversation
	}

	o.mu.Lock()
	if o.sendInFlight {
		o.mu.Unlock()
		return nil, ErrSendInFlight
	}
	o.sendInFlight = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.sendInFlight = false
		o.mu.Unlock()
	}()

	// History for the AI call is captured before the optimistic appends so
	// it carries neither the placeholder nor the just-sent message.
	history := buildHistory(o.workspace.Messages(conversationID))

	userMessage := &state.Message{
		ID:        uuid.New(),
		Role:      models.MessageRoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
	o.workspace.AppendMessage(conversationID, userMessage)

	placeholder := &state.Message{
		ID:        uuid.New(),
		Role:      models.MessageRoleAssistant,
		IsLoading: true,
		Timestamp: time.Now(),
	}
	o.workspace.AppendMessage(conversationID, placeholder)

	mode := o.session.Mode()
	if d := reconcile.Decide(reconcile.KindMessage, reconcile.OpCreate, mode); d.Action == reconcile.RemoteThenReconcileID {
		persisted, err := o.gw.CreateMessage(ctx, models.CreateMessageRequest{
			Role:           models.MessageRoleUser,
			Content:        content,
			ConversationID: conversationID,
		})
		if err != nil {
			log.Printf("WARN: failed to persist user message: %v", err)
		} else {
			o.workspace.RewriteID(userMessage.ID, persisted.ID)
			userMessage.ID = persisted.ID
		}
	}

	chatResp, err := o.gw.Chat(ctx, o.buildChatRequest(conversation, content, history))
	if err != nil {
		o.workspace.RemoveMessages(conversationID, userMessage.ID, placeholder.ID)
		return nil, fmt.Errorf("ai request failed: %w", err)
	}

	assistant := &state.Message{
		ID:          uuid.New(),
		Role:        models.MessageRoleAssistant,
		FullContent: chatResp.Response,
		IsTyping:    true,
		Timestamp:   time.Now(),
	}
	o.workspace.ReplaceMessage(conversationID, placeholder.ID, assistant)

	o.reveal(ctx, conversationID, assistant.ID)
	o.finalize(ctx, conversationID, content, mode)

	if final := findMessage(o.workspace.Messages(conversationID), assistant.ID); final != nil {
		return final, nil
	}
	return assistant, nil
}

// SeedScenario asks the AI service for a customer scenario and appends its
// opening message to the given conversation. Used to start a customer-role
// conversation with a generated situation.
func (o *Orchestrator) SeedScenario(ctx context.Context, conversationID uuid.UUID) (*state.Message, error) {
	conversation := o.workspace.Conversation(conversationID)
	if conversation == nil {
		return nil, ErrNoActiveConversation
	}
	project := o.workspace.Project(conversation.ProjectID)
	if project == nil {
		return nil, ErrNoActiveConversation
	}

	settings := o.workspace.Settings()
	req := models.ScenarioRequest{
		ProjectID:  project.ID.String(),
		ModelID:    settings.SelectedModel,
		APIKeys:    &settings.APIKeys,
		Guidelines: project.Guidelines,
	}
	if reconcile.Decide(reconcile.KindFile, reconcile.OpEmbed, o.session.Mode()).AttachUserID {
		req.UserID = o.session.UserID()
	}

	scenario, err := o.gw.GenerateScenario(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("scenario generation failed: %w", err)
	}

	opening := &state.Message{
		ID:        uuid.New(),
		Role:      models.MessageRoleAssistant,
		Content:   scenario.FirstMessage,
		Timestamp: time.Now(),
	}
	o.workspace.AppendMessage(conversationID, opening)
	o.workspace.SetPreview(conversationID, scenario.FirstMessage)
	return opening, nil
}

// buildChatRequest assembles the AI payload from the conversation, project
// and settings state. The user identity rides along only when the policy
// says so.
func (o *Orchestrator) buildChatRequest(conversation *state.Conversation, content string, history []models.HistoryEntry) models.ChatRequest {
	settings := o.workspace.Settings()
	req := models.ChatRequest{
		Message:             content,
		ProjectID:           conversation.ProjectID.String(),
		ConversationID:      conversation.ID.String(),
		Role:                string(conversation.Role),
		ModelID:             settings.SelectedModel,
		APIKeys:             &settings.APIKeys,
		ConversationHistory: history,
	}
	if project := o.workspace.Project(conversation.ProjectID); project != nil {
		req.Guidelines = project.Guidelines
	}
	if reconcile.Decide(reconcile.KindFile, reconcile.OpEmbed, o.session.Mode()).AttachUserID {
		req.UserID = o.session.UserID()
	}
	return req
}

// reveal runs the fixed-interval typing animation until the message is
// fully shown, the conversation disappears, or the context ends. The full
// text is already in FullContent before the first tick.
func (o *Orchestrator) reveal(ctx context.Context, conversationID, messageID uuid.UUID) {
	cancel := make(chan struct{})
	o.mu.Lock()
	o.reveals[conversationID] = cancel
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		if o.reveals[conversationID] == cancel {
			delete(o.reveals, conversationID)
		}
		o.mu.Unlock()
	}()

	ticker := time.NewTicker(o.revealInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cancel:
			return
		case <-ticker.C:
			done, ok := o.workspace.AdvanceReveal(conversationID, messageID)
			if done || !ok {
				return
			}
		}
	}
}

// cancelReveal stops an active reveal when its conversation is removed.
func (o *Orchestrator) cancelReveal(conversationID uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if cancel, ok := o.reveals[conversationID]; ok {
		close(cancel)
		delete(o.reveals, conversationID)
	}
}

// finalize persists the assistant message and conversation preview after
// the reveal. Failures here never disturb the local state.
func (o *Orchestrator) finalize(ctx context.Context, conversationID uuid.UUID, userContent string, mode reconcile.Mode) {
	o.workspace.SetPreview(conversationID, userContent)

	assistantContent := ""
	messages := o.workspace.Messages(conversationID)
	if len(messages) > 0 {
		last := messages[len(messages)-1]
		if last.Role == models.MessageRoleAssistant {
			assistantContent = last.FullContent
			if assistantContent == "" {
				assistantContent = last.Content
			}

			if d := reconcile.Decide(reconcile.KindMessage, reconcile.OpCreate, mode); d.Action == reconcile.RemoteThenReconcileID {
				persisted, err := o.gw.CreateMessage(ctx, models.CreateMessageRequest{
					Role:           models.MessageRoleAssistant,
					Content:        assistantContent,
					ConversationID: conversationID,
				})
				if err != nil {
					log.Printf("WARN: failed to persist assistant message: %v", err)
				} else {
					o.workspace.RewriteID(last.ID, persisted.ID)
				}
			}
		}
	}

	if d := reconcile.Decide(reconcile.KindConversation, reconcile.OpUpdate, mode); d.Action == reconcile.RemoteMirror {
		preview := state.DerivePreview(userContent)
		if _, err := o.gw.UpdateConversation(ctx, conversationID, models.UpdateConversationRequest{Preview: &preview}); err != nil {
			log.Printf("WARN: failed to update conversation preview: %v", err)
		}
	}
}

// buildHistory converts stored messages into AI history entries, skipping
// transient placeholders.
func buildHistory(messages []*state.Message) []models.HistoryEntry {
	var history []models.HistoryEntry
	for _, m := range messages {
		if m.IsLoading {
			continue
		}
		content := m.Content
		if m.FullContent != "" {
			content = m.FullContent
		}
		history = append(history, models.HistoryEntry{
			Role:    string(m.Role),
			Content: content,
		})
	}
	return history
}

func findMessage(messages []*state.Message, id uuid.UUID) *state.Message {
	for _, m := range messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}
