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

const messageColumns = `id, conversation_id, role, content, timestamp`

func scanMessage(row pgx.Row) (*db_models.Message, error) {
	m := &db_models.Message{}
	err := row.Scan(
		&m.ID,
		&m.ConversationID,
		&m.Role,
		&m.Content,
		&m.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// CreateMessage inserts one message record.
func (s *PostgresStore) CreateMessage(ctx context.Context, arg store.CreateMessageParams) (*db_models.Message, error) {
	query := `
		INSERT INTO messages (id, conversation_id, role, content)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + messageColumns

	m, err := scanMessage(s.db.QueryRow(ctx, query,
		arg.ID,
		arg.ConversationID,
		arg.Role,
		arg.Content,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			log.Printf("WARN [PostgresStore] CreateMessage: Unknown conversation %s", arg.ConversationID)
			return nil, fmt.Errorf("invalid conversation ID provided")
		}
		log.Printf("ERROR [PostgresStore] CreateMessage: Failed exec/scan for conversation %s: %v", arg.ConversationID, err)
		return nil, fmt.Errorf("database error creating message: %w", err)
	}
	return m, nil
}

// CreateMessages inserts a batch of messages inside one transaction so a
// partial sync never leaves half a conversation behind.
func (s *PostgresStore) CreateMessages(ctx context.Context, args []store.CreateMessageParams) ([]db_models.Message, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("database error starting batch insert: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO messages (id, conversation_id, role, content)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + messageColumns

	messages := make([]db_models.Message, 0, len(args))
	for _, arg := range args {
		m, err := scanMessage(tx.QueryRow(ctx, query, arg.ID, arg.ConversationID, arg.Role, arg.Content))
		if err != nil {
			log.Printf("ERROR [PostgresStore] CreateMessages: Failed insert for conversation %s: %v", arg.ConversationID, err)
			return nil, fmt.Errorf("database error creating message batch: %w", err)
		}
		messages = append(messages, *m)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("database error committing message batch: %w", err)
	}
	return messages, nil
}

// ListMessagesByConversation returns the conversation's messages in
// chronological order.
func (s *PostgresStore) ListMessagesByConversation(ctx context.Context, conversationID uuid.UUID) ([]db_models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE conversation_id = $1 ORDER BY timestamp ASC`

	rows, err := s.db.Query(ctx, query, conversationID)
	if err != nil {
		log.Printf("ERROR [PostgresStore] ListMessagesByConversation: Failed query for %s: %v", conversationID, err)
		return nil, fmt.Errorf("database error listing messages: %w", err)
	}
	defer rows.Close()

	messages := []db_models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning message: %w", err)
		}
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating messages: %w", err)
	}
	return messages, nil
}

// DeleteMessage removes one message.
func (s *PostgresStore) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		log.Printf("ERROR [PostgresStore] DeleteMessage: Failed delete for ID %s: %v", id, err)
		return fmt.Errorf("database error deleting message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
