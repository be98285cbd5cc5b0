package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"

	db_models "cs-simulator/internal/models"
	"cs-simulator/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const conversationColumns = `id, project_id, title, preview, role, created_at, updated_at`

func scanConversation(row pgx.Row) (*db_models.Conversation, error) {
	c := &db_models.Conversation{}
	err := row.Scan(
		&c.ID,
		&c.ProjectID,
		&c.Title,
		&c.Preview,
		&c.Role,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CreateConversation inserts a new conversation record.
func (s *PostgresStore) CreateConversation(ctx context.Context, arg store.CreateConversationParams) (*db_models.Conversation, error) {
	query := `
		INSERT INTO conversations (id, project_id, title, preview, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + conversationColumns

	c, err := scanConversation(s.db.QueryRow(ctx, query,
		arg.ID,
		arg.ProjectID,
		arg.Title,
		arg.Preview,
		arg.Role,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			log.Printf("WARN [PostgresStore] CreateConversation: Unknown project %s", arg.ProjectID)
			return nil, fmt.Errorf("invalid project ID provided")
		}
		log.Printf("ERROR [PostgresStore] CreateConversation: Failed exec/scan for project %s: %v", arg.ProjectID, err)
		return nil, fmt.Errorf("database error creating conversation: %w", err)
	}
	return c, nil
}

// GetConversationByID retrieves a conversation by primary key.
func (s *PostgresStore) GetConversationByID(ctx context.Context, id uuid.UUID) (*db_models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`

	c, err := scanConversation(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] GetConversationByID: Failed query/scan for ID %s: %v", id, err)
		return nil, fmt.Errorf("database error fetching conversation: %w", err)
	}
	return c, nil
}

// ListConversations lists all conversations, optionally scoped to one
// project, newest first.
func (s *PostgresStore) ListConversations(ctx context.Context, projectID *uuid.UUID) ([]db_models.Conversation, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if projectID != nil {
		query := `SELECT ` + conversationColumns + ` FROM conversations WHERE project_id = $1 ORDER BY created_at DESC`
		rows, err = s.db.Query(ctx, query, *projectID)
	} else {
		query := `SELECT ` + conversationColumns + ` FROM conversations ORDER BY created_at DESC`
		rows, err = s.db.Query(ctx, query)
	}
	if err != nil {
		log.Printf("ERROR [PostgresStore] ListConversations: Failed query: %v", err)
		return nil, fmt.Errorf("database error listing conversations: %w", err)
	}
	defer rows.Close()

	conversations := []db_models.Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning conversation: %w", err)
		}
		conversations = append(conversations, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating conversations: %w", err)
	}
	return conversations, nil
}

// UpdateConversation applies a partial title/preview update and returns the
// updated row. Role never changes after creation.
func (s *PostgresStore) UpdateConversation(ctx context.Context, arg store.UpdateConversationParams) (*db_models.Conversation, error) {
	query := `
		UPDATE conversations SET
			title = COALESCE($2, title),
			preview = COALESCE($3, preview),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + conversationColumns

	c, err := scanConversation(s.db.QueryRow(ctx, query, arg.ID, arg.Title, arg.Preview))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] UpdateConversation: Failed update for ID %s: %v", arg.ID, err)
		return nil, fmt.Errorf("database error updating conversation: %w", err)
	}
	return c, nil
}

// DeleteConversation removes a conversation; its messages cascade.
func (s *PostgresStore) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		log.Printf("ERROR [PostgresStore] DeleteConversation: Failed delete for ID %s: %v", id, err)
		return fmt.Errorf("database error deleting conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
