package state

import (
	"sync"
	"unicode/utf8"

	"cs-simulator/internal/models"

	"github.com/google/uuid"
)

// previewLimit is the rune budget for a conversation preview snippet.
const previewLimit = 50

// Workspace is the single-writer in-memory entity store. All mutation goes
// through its mutex so the store stays consistent when the reveal ticker
// and a network callback race.
type Workspace struct {
	mu sync.Mutex

	projects []*Project
	settings models.UserSettings

	activeProjectID      uuid.UUID
	activeConversationID uuid.UUID

	removeHooks []func(conversationID uuid.UUID)
}

func NewWorkspace() *Workspace {
	return &Workspace{
		settings: models.DefaultSettings(),
	}
}

// OnConversationRemove registers a hook fired (outside entity iteration,
// inside the store lock) whenever a conversation leaves the store, directly
// or via a project cascade. The reveal ticker uses this to cancel itself.
func (w *Workspace) OnConversationRemove(hook func(conversationID uuid.UUID)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.removeHooks = append(w.removeHooks, hook)
}

// --- Projects ---

// AddProject inserts a project and returns its deep copy.
func (w *Workspace) AddProject(p *Project) *Project {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.projects = append(w.projects, p.clone())
	return p.clone()
}

// Projects returns a deep-copied snapshot.
func (w *Workspace) Projects() []*Project {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*Project, len(w.projects))
	for i, p := range w.projects {
		out[i] = p.clone()
	}
	return out
}

// Project returns a deep copy of one project, or nil.
func (w *Workspace) Project(id uuid.UUID) *Project {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p := w.findProject(id); p != nil {
		return p.clone()
	}
	return nil
}

// UpdateProject applies fn to the live project under the lock.
func (w *Workspace) UpdateProject(id uuid.UUID, fn func(*Project)) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.findProject(id)
	if p == nil {
		return false
	}
	fn(p)
	return true
}

// RemoveProject deletes a project and cascades to its conversations,
// messages and files. Active pointers into the removed subtree are cleared.
func (w *Workspace) RemoveProject(id uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, p := range w.projects {
		if p.ID != id {
			continue
		}
		for _, c := range p.Conversations {
			w.fireRemoveHooks(c.ID)
			if w.activeConversationID == c.ID {
				w.activeConversationID = uuid.Nil
			}
		}
		if w.activeProjectID == id {
			w.activeProjectID = uuid.Nil
		}
		w.projects = append(w.projects[:i], w.projects[i+1:]...)
		return true
	}
	return false
}

// GuestProjectIDs lists projects that have no owner, in insertion order.
func (w *Workspace) GuestProjectIDs() []uuid.UUID {
	w.mu.Lock()
	defer w.mu.Unlock()
	var ids []uuid.UUID
	for _, p := range w.projects {
		if p.UserID == nil {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// ReplaceProjects swaps the whole project set for server-loaded state.
func (w *Workspace) ReplaceProjects(projects []*Project) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.projects {
		for _, c := range p.Conversations {
			w.fireRemoveHooks(c.ID)
		}
	}
	w.projects = make([]*Project, len(projects))
	for i, p := range projects {
		w.projects[i] = p.clone()
	}
	w.activeProjectID = uuid.Nil
	w.activeConversationID = uuid.Nil
}

// Reset discards every entity and restores default settings. Used on logout
// and guest-session entry.
func (w *Workspace) Reset() {
	w.ReplaceProjects(nil)
	w.mu.Lock()
	w.settings = models.DefaultSettings()
	w.mu.Unlock()
}

// --- Conversations ---

// AddConversation appends a conversation to its project.
func (w *Workspace) AddConversation(c *Conversation) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.findProject(c.ProjectID)
	if p == nil {
		return false
	}
	p.Conversations = append(p.Conversations, c.clone())
	return true
}

// Conversation returns a deep copy of one conversation, or nil.
func (w *Workspace) Conversation(id uuid.UUID) *Conversation {
	w.mu.Lock()
	defer w.mu.Unlock()
	if c := w.findConversation(id); c != nil {
		return c.clone()
	}
	return nil
}

// UpdateConversation applies fn to the live conversation under the lock.
func (w *Workspace) UpdateConversation(id uuid.UUID, fn func(*Conversation)) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := w.findConversation(id)
	if c == nil {
		return false
	}
	fn(c)
	return true
}

// RemoveConversation deletes one conversation, firing removal hooks.
func (w *Workspace) RemoveConversation(id uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.projects {
		for i, c := range p.Conversations {
			if c.ID != id {
				continue
			}
			w.fireRemoveHooks(id)
			if w.activeConversationID == id {
				w.activeConversationID = uuid.Nil
			}
			p.Conversations = append(p.Conversations[:i], p.Conversations[i+1:]...)
			return true
		}
	}
	return false
}

// SetPreview derives and stores the preview snippet from a message's text.
func (w *Workspace) SetPreview(conversationID uuid.UUID, content string) bool {
	preview := DerivePreview(content)
	return w.UpdateConversation(conversationID, func(c *Conversation) {
		c.Preview = preview
	})
}

// DerivePreview truncates message text to the preview budget, appending an
// ellipsis marker only when truncation happened.
func DerivePreview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLimit {
		return content
	}
	return string(runes[:previewLimit]) + "..."
}

// --- Active selection ---

func (w *Workspace) SetActiveProject(id uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.activeProjectID = id
}

func (w *Workspace) ActiveProjectID() uuid.UUID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.activeProjectID
}

func (w *Workspace) SetActiveConversation(id uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.activeConversationID = id
}

func (w *Workspace) ActiveConversationID() uuid.UUID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.activeConversationID
}

// --- Messages ---

// AppendMessage adds a message to the end of a conversation's sequence.
func (w *Workspace) AppendMessage(conversationID uuid.UUID, m *Message) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := w.findConversation(conversationID)
	if c == nil {
		return false
	}
	c.Messages = append(c.Messages, m.clone())
	return true
}

// Messages returns a deep-copied snapshot of a conversation's sequence.
func (w *Workspace) Messages(conversationID uuid.UUID) []*Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := w.findConversation(conversationID)
	if c == nil {
		return nil
	}
	out := make([]*Message, len(c.Messages))
	for i, m := range c.Messages {
		out[i] = m.clone()
	}
	return out
}

// ReplaceMessage swaps a message in place, preserving its position.
func (w *Workspace) ReplaceMessage(conversationID, messageID uuid.UUID, m *Message) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := w.findConversation(conversationID)
	if c == nil {
		return false
	}
	for i, existing := range c.Messages {
		if existing.ID == messageID {
			c.Messages[i] = m.clone()
			return true
		}
	}
	return false
}

// RemoveMessages drops the listed messages from a conversation.
func (w *Workspace) RemoveMessages(conversationID uuid.UUID, messageIDs ...uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := w.findConversation(conversationID)
	if c == nil {
		return false
	}
	drop := make(map[uuid.UUID]bool, len(messageIDs))
	for _, id := range messageIDs {
		drop[id] = true
	}
	kept := c.Messages[:0]
	for _, m := range c.Messages {
		if !drop[m.ID] {
			kept = append(kept, m)
		}
	}
	c.Messages = kept
	return true
}

// AdvanceReveal appends the next rune of the message's FullContent to its
// displayed Content. done is true once the content is complete and
// IsTyping has been cleared; ok is false when the message no longer exists
// (conversation deleted mid-reveal).
func (w *Workspace) AdvanceReveal(conversationID, messageID uuid.UUID) (done, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := w.findConversation(conversationID)
	if c == nil {
		return false, false
	}
	for _, m := range c.Messages {
		if m.ID != messageID {
			continue
		}
		if len(m.Content) >= len(m.FullContent) {
			m.IsTyping = false
			return true, true
		}
		_, size := utf8.DecodeRuneInString(m.FullContent[len(m.Content):])
		m.Content = m.FullContent[:len(m.Content)+size]
		if len(m.Content) == len(m.FullContent) {
			m.IsTyping = false
			return true, true
		}
		return false, true
	}
	return false, false
}

// --- Files ---

// AddFile attaches a file record to its project.
func (w *Workspace) AddFile(f *File) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.findProject(f.ProjectID)
	if p == nil {
		return false
	}
	p.Files = append(p.Files, f.clone())
	return true
}

// RemoveFile drops one file record.
func (w *Workspace) RemoveFile(id uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.projects {
		for i, f := range p.Files {
			if f.ID == id {
				p.Files = append(p.Files[:i], p.Files[i+1:]...)
				return true
			}
		}
	}
	return false
}

// --- Identity reconciliation ---

// RewriteID replaces a locally generated identifier with its server-issued
// one, in place, across every entity and both active-selection pointers.
// The swap is atomic under the store lock so no reader can observe a
// half-rewritten reference.
func (w *Workspace) RewriteID(oldID, newID uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	found := false
	for _, p := range w.projects {
		if p.ID == oldID {
			p.ID = newID
			found = true
		}
		for _, c := range p.Conversations {
			if c.ID == oldID {
				c.ID = newID
				found = true
			}
			if c.ProjectID == oldID {
				c.ProjectID = newID
			}
			for _, m := range c.Messages {
				if m.ID == oldID {
					m.ID = newID
					found = true
				}
			}
		}
		for _, f := range p.Files {
			if f.ID == oldID {
				f.ID = newID
				found = true
			}
			if f.ProjectID == oldID {
				f.ProjectID = newID
			}
		}
	}

	if w.activeProjectID == oldID {
		w.activeProjectID = newID
	}
	if w.activeConversationID == oldID {
		w.activeConversationID = newID
	}
	return found
}

// --- Settings ---

// Settings returns a copy of the current settings bundle.
func (w *Workspace) Settings() models.UserSettings {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.settings
	out.EnabledModels = append([]string(nil), w.settings.EnabledModels...)
	return out
}

// SetSettings replaces the settings bundle.
func (w *Workspace) SetSettings(s models.UserSettings) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s.EnabledModels = append([]string(nil), s.EnabledModels...)
	w.settings = s
}

// --- internal lookups (callers hold the lock) ---

func (w *Workspace) findProject(id uuid.UUID) *Project {
	for _, p := range w.projects {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (w *Workspace) findConversation(id uuid.UUID) *Conversation {
	for _, p := range w.projects {
		for _, c := range p.Conversations {
			if c.ID == id {
				return c
			}
		}
	}
	return nil
}

func (w *Workspace) fireRemoveHooks(conversationID uuid.UUID) {
	for _, hook := range w.removeHooks {
		hook(conversationID)
	}
}
