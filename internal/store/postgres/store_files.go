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

const fileColumns = `id, project_id, name, type, size, embedding_file_id, created_at`

func scanFile(row pgx.Row) (*db_models.ProjectFile, error) {
	f := &db_models.ProjectFile{}
	err := row.Scan(
		&f.ID,
		&f.ProjectID,
		&f.Name,
		&f.Type,
		&f.Size,
		&f.EmbeddingFileID,
		&f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// CreateFile inserts one file metadata record.
func (s *PostgresStore) CreateFile(ctx context.Context, arg store.CreateFileParams) (*db_models.ProjectFile, error) {
	query := `
		INSERT INTO project_files (id, project_id, name, type, size, embedding_file_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + fileColumns

	f, err := scanFile(s.db.QueryRow(ctx, query,
		arg.ID,
		arg.ProjectID,
		arg.Name,
		arg.Type,
		arg.Size,
		arg.EmbeddingFileID,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			log.Printf("WARN [PostgresStore] CreateFile: Unknown project %s", arg.ProjectID)
			return nil, fmt.Errorf("invalid project ID provided")
		}
		log.Printf("ERROR [PostgresStore] CreateFile: Failed exec/scan for project %s: %v", arg.ProjectID, err)
		return nil, fmt.Errorf("database error creating file record: %w", err)
	}
	return f, nil
}

// CreateFiles inserts a batch of file records inside one transaction.
func (s *PostgresStore) CreateFiles(ctx context.Context, args []store.CreateFileParams) ([]db_models.ProjectFile, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("database error starting batch insert: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO project_files (id, project_id, name, type, size, embedding_file_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + fileColumns

	files := make([]db_models.ProjectFile, 0, len(args))
	for _, arg := range args {
		f, err := scanFile(tx.QueryRow(ctx, query, arg.ID, arg.ProjectID, arg.Name, arg.Type, arg.Size, arg.EmbeddingFileID))
		if err != nil {
			log.Printf("ERROR [PostgresStore] CreateFiles: Failed insert for project %s: %v", arg.ProjectID, err)
			return nil, fmt.Errorf("database error creating file batch: %w", err)
		}
		files = append(files, *f)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("database error committing file batch: %w", err)
	}
	return files, nil
}

// ListFilesByProject returns the project's file records, newest first.
func (s *PostgresStore) ListFilesByProject(ctx context.Context, projectID uuid.UUID) ([]db_models.ProjectFile, error) {
	query := `SELECT ` + fileColumns + ` FROM project_files WHERE project_id = $1 ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, projectID)
	if err != nil {
		log.Printf("ERROR [PostgresStore] ListFilesByProject: Failed query for %s: %v", projectID, err)
		return nil, fmt.Errorf("database error listing files: %w", err)
	}
	defer rows.Close()

	files := []db_models.ProjectFile{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning file: %w", err)
		}
		files = append(files, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating files: %w", err)
	}
	return files, nil
}

// DeleteFile removes one file metadata record.
func (s *PostgresStore) DeleteFile(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM project_files WHERE id = $1`, id)
	if err != nil {
		log.Printf("ERROR [PostgresStore] DeleteFile: Failed delete for ID %s: %v", id, err)
		return fmt.Errorf("database error deleting file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
