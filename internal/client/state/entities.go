// Package state is the client's in-memory entity store: projects with
// nested conversations, messages and files, plus the session settings
// bundle. In guest mode this store is the only persistence there is.
package state

import (
	"time"

	"cs-simulator/internal/models"

	"github.com/google/uuid"
)

// Message is the client-side message shape. Content and FullContent differ
// only while a typing reveal is in progress: FullContent holds the complete
// response text, Content what is currently displayed.
type Message struct {
	ID          uuid.UUID
	Role        models.MessageRole
	Content     string
	FullContent string
	IsLoading   bool
	IsTyping    bool
	Timestamp   time.Time
}

// Conversation holds an ordered, append-only message sequence. Role is
// fixed at creation.
type Conversation struct {
	ID        uuid.UUID
	Title     string
	Preview   string
	Role      models.ConversationRole
	ProjectID uuid.UUID
	Messages  []*Message
}

// File is the client-side metadata record of an uploaded document.
type File struct {
	ID              uuid.UUID
	Name            string
	Type            string
	Size            int64
	EmbeddingFileID string
	ProjectID       uuid.UUID
}

// Project is the root entity. A nil UserID marks a guest-created project
// that has not been migrated to an account.
type Project struct {
	ID               uuid.UUID
	Name             string
	Category         string
	Guidelines       string
	UploadPercentage int
	IsExpanded       bool
	UserID           *uuid.UUID
	Conversations    []*Conversation
	Files            []*File
}

// clone helpers produce deep copies so snapshots handed to callers never
// alias store-internal slices.

func (m *Message) clone() *Message {
	out := *m
	return &out
}

func (c *Conversation) clone() *Conversation {
	out := *c
	out.Messages = make([]*Message, len(c.Messages))
	for i, m := range c.Messages {
		out.Messages[i] = m.clone()
	}
	return &out
}

func (f *File) clone() *File {
	out := *f
	return &out
}

func (p *Project) clone() *Project {
	out := *p
	if p.UserID != nil {
		id := *p.UserID
		out.UserID = &id
	}
	out.Conversations = make([]*Conversation, len(p.Conversations))
	for i, c := range p.Conversations {
		out.Conversations[i] = c.clone()
	}
	out.Files = make([]*File, len(p.Files))
	for i, f := range p.Files {
		out.Files[i] = f.clone()
	}
	return &out
}

// ProjectFromResponse converts a server project (with nested children) into
// the client shape.
func ProjectFromResponse(resp models.ProjectResponse) *Project {
	p := &Project{
		ID:               resp.ID,
		Name:             resp.Name,
		UploadPercentage: resp.UploadPercentage,
		IsExpanded:       resp.IsExpanded,
		UserID:           resp.UserID,
	}
	if resp.Category != nil {
		p.Category = *resp.Category
	}
	if resp.Guidelines != nil {
		p.Guidelines = *resp.Guidelines
	}
	for _, c := range resp.Conversations {
		p.Conversations = append(p.Conversations, ConversationFromResponse(c))
	}
	for _, f := range resp.Files {
		file := &File{
			ID:        f.ID,
			Name:      f.Name,
			Type:      f.Type,
			Size:      f.Size,
			ProjectID: f.ProjectID,
		}
		if f.EmbeddingFileID != nil {
			file.EmbeddingFileID = *f.EmbeddingFileID
		}
		p.Files = append(p.Files, file)
	}
	return p
}

// ConversationFromResponse converts a server conversation into the client
// shape.
func ConversationFromResponse(resp models.ConversationResponse) *Conversation {
	c := &Conversation{
		ID:        resp.ID,
		Title:     resp.Title,
		Role:      resp.Role,
		ProjectID: resp.ProjectID,
	}
	if resp.Preview != nil {
		c.Preview = *resp.Preview
	}
	for _, m := range resp.Messages {
		c.Messages = append(c.Messages, &Message{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}
	return c
}
