package state

import (
	"strings"
	"testing"

	"cs-simulator/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestProject(ws *Workspace) *Project {
	p := &Project{ID: uuid.New(), Name: "Returns", UploadPercentage: 100, IsExpanded: true}
	ws.AddProject(p)
	return p
}

func TestRewriteIDUpdatesAllReferences(t *testing.T) {
	ws := NewWorkspace()
	p := newTestProject(ws)

	localID := uuid.New()
	serverID := uuid.New()
	conv := &Conversation{ID: localID, Title: "Chat", Role: models.RoleCustomer, ProjectID: p.ID}
	require.True(t, ws.AddConversation(conv))
	ws.SetActiveConversation(localID)

	require.True(t, ws.RewriteID(localID, serverID))

	require.Nil(t, ws.Conversation(localID))
	require.NotNil(t, ws.Conversation(serverID))
	require.Equal(t, serverID, ws.ActiveConversationID(), "active pointer must follow the rewritten id")
}

func TestRewriteIDRetargetsChildReferences(t *testing.T) {
	ws := NewWorkspace()
	localProject := uuid.New()
	serverProject := uuid.New()
	ws.AddProject(&Project{ID: localProject, Name: "Guest project"})

	conv := &Conversation{ID: uuid.New(), Title: "Chat", Role: models.RoleEmployee, ProjectID: localProject}
	require.True(t, ws.AddConversation(conv))
	require.True(t, ws.AddFile(&File{ID: uuid.New(), Name: "faq.pdf", ProjectID: localProject}))

	require.True(t, ws.RewriteID(localProject, serverProject))

	got := ws.Project(serverProject)
	require.NotNil(t, got)
	require.Equal(t, serverProject, got.Conversations[0].ProjectID)
	require.Equal(t, serverProject, got.Files[0].ProjectID)
}

func TestRewriteIDUnknownIDReturnsFalse(t *testing.T) {
	ws := NewWorkspace()
	newTestProject(ws)
	require.False(t, ws.RewriteID(uuid.New(), uuid.New()))
}

func TestDerivePreviewTruncation(t *testing.T) {
	short := "How do I return an item?"
	require.Equal(t, short, DerivePreview(short), "content within budget is untouched")

	long := strings.Repeat("a", 60)
	got := DerivePreview(long)
	require.Equal(t, strings.Repeat("a", 50)+"...", got)

	exact := strings.Repeat("b", 50)
	require.Equal(t, exact, DerivePreview(exact))

	// Rune-based, not byte-based.
	cyrillic := strings.Repeat("ж", 51)
	require.Equal(t, strings.Repeat("ж", 50)+"...", DerivePreview(cyrillic))
}

func TestAdvanceRevealPassesThroughEachState(t *testing.T) {
	ws := NewWorkspace()
	p := newTestProject(ws)
	conv := &Conversation{ID: uuid.New(), Title: "Chat", Role: models.RoleCustomer, ProjectID: p.ID}
	require.True(t, ws.AddConversation(conv))

	full := "héllo"
	msg := &Message{ID: uuid.New(), Role: models.MessageRoleAssistant, FullContent: full, IsTyping: true}
	require.True(t, ws.AppendMessage(conv.ID, msg))

	var states []string
	states = append(states, ws.Messages(conv.ID)[0].Content)
	for {
		done, ok := ws.AdvanceReveal(conv.ID, msg.ID)
		require.True(t, ok)
		current := ws.Messages(conv.ID)[0]
		states = append(states, current.Content)
		if done {
			require.False(t, current.IsTyping)
			break
		}
		require.True(t, current.IsTyping, "typing flag clears only on the final state")
	}

	runeLen := len([]rune(full))
	require.Len(t, states, runeLen+1, "reveal must pass through exactly L+1 states")
	require.Equal(t, "", states[0])
	require.Equal(t, full, states[len(states)-1])
	for i := 1; i < len(states); i++ {
		require.NotEqual(t, states[i-1], states[i])
	}
}

func TestAdvanceRevealAfterConversationRemoval(t *testing.T) {
	ws := NewWorkspace()
	p := newTestProject(ws)
	conv := &Conversation{ID: uuid.New(), Title: "Chat", Role: models.RoleCustomer, ProjectID: p.ID}
	require.True(t, ws.AddConversation(conv))
	msg := &Message{ID: uuid.New(), Role: models.MessageRoleAssistant, FullContent: "hi", IsTyping: true}
	require.True(t, ws.AppendMessage(conv.ID, msg))

	require.True(t, ws.RemoveConversation(conv.ID))
	_, ok := ws.AdvanceReveal(conv.ID, msg.ID)
	require.False(t, ok)
}

func TestRemoveProjectCascadesAndFiresHooks(t *testing.T) {
	ws := NewWorkspace()
	p := newTestProject(ws)
	conv := &Conversation{ID: uuid.New(), Title: "Chat", Role: models.RoleCustomer, ProjectID: p.ID}
	require.True(t, ws.AddConversation(conv))
	ws.SetActiveProject(p.ID)
	ws.SetActiveConversation(conv.ID)

	var removed []uuid.UUID
	ws.OnConversationRemove(func(id uuid.UUID) { removed = append(removed, id) })

	require.True(t, ws.RemoveProject(p.ID))
	require.Equal(t, []uuid.UUID{conv.ID}, removed)
	require.Equal(t, uuid.Nil, ws.ActiveProjectID())
	require.Equal(t, uuid.Nil, ws.ActiveConversationID())
	require.Nil(t, ws.Conversation(conv.ID))
}

func TestGuestProjectIDs(t *testing.T) {
	ws := NewWorkspace()
	owner := uuid.New()
	guest1 := &Project{ID: uuid.New(), Name: "guest one"}
	owned := &Project{ID: uuid.New(), Name: "owned", UserID: &owner}
	guest2 := &Project{ID: uuid.New(), Name: "guest two"}
	ws.AddProject(guest1)
	ws.AddProject(owned)
	ws.AddProject(guest2)

	require.Equal(t, []uuid.UUID{guest1.ID, guest2.ID}, ws.GuestProjectIDs())
}

func TestResetRestoresDefaultSettings(t *testing.T) {
	ws := NewWorkspace()
	newTestProject(ws)
	ws.SetSettings(models.UserSettings{
		APIKeys:       models.APIKeys{GPT: "sk-test"},
		EnabledModels: []string{"gpt-4o"},
		SelectedModel: "claude-3-opus",
	})

	ws.Reset()

	require.Empty(t, ws.Projects())
	settings := ws.Settings()
	require.Equal(t, models.DefaultSettings(), settings)
	require.Equal(t, models.DefaultOllamaURL, settings.APIKeys.Ollama)
}

func TestReplaceMessagePreservesPosition(t *testing.T) {
	ws := NewWorkspace()
	p := newTestProject(ws)
	conv := &Conversation{ID: uuid.New(), Title: "Chat", Role: models.RoleCustomer, ProjectID: p.ID}
	require.True(t, ws.AddConversation(conv))

	first := &Message{ID: uuid.New(), Role: models.MessageRoleUser, Content: "hello"}
	placeholder := &Message{ID: uuid.New(), Role: models.MessageRoleAssistant, IsLoading: true}
	require.True(t, ws.AppendMessage(conv.ID, first))
	require.True(t, ws.AppendMessage(conv.ID, placeholder))

	reply := &Message{ID: uuid.New(), Role: models.MessageRoleAssistant, FullContent: "hi there", IsTyping: true}
	require.True(t, ws.ReplaceMessage(conv.ID, placeholder.ID, reply))

	messages := ws.Messages(conv.ID)
	require.Len(t, messages, 2)
	require.Equal(t, reply.ID, messages[1].ID)
	require.False(t, messages[1].IsLoading)
}
