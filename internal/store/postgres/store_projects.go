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
)

const projectColumns = `id, user_id, name, category, guidelines, upload_percentage, is_expanded, created_at, updated_at`

func scanProject(row pgx.Row) (*db_models.Project, error) {
	p := &db_models.Project{}
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Category,
		&p.Guidelines,
		&p.UploadPercentage,
		&p.IsExpanded,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreateProject inserts a new project record.
func (s *PostgresStore) CreateProject(ctx context.Context, arg store.CreateProjectParams) (*db_models.Project, error) {
	log.Printf("[PostgresStore] CreateProject called for Name: %s", arg.Name)
	query := `
		INSERT INTO projects (id, user_id, name, category, guidelines, upload_percentage, is_expanded)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + projectColumns

	p, err := scanProject(s.db.QueryRow(ctx, query,
		arg.ID,
		arg.UserID,
		arg.Name,
		arg.Category,
		arg.Guidelines,
		arg.UploadPercentage,
		arg.IsExpanded,
	))
	if err != nil {
		log.Printf("ERROR [PostgresStore] CreateProject: Failed exec/scan for Name %s: %v", arg.Name, err)
		return nil, fmt.Errorf("database error creating project: %w", err)
	}
	return p, nil
}

// GetProjectByID retrieves a project by primary key.
func (s *PostgresStore) GetProjectByID(ctx context.Context, id uuid.UUID) (*db_models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	p, err := scanProject(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] GetProjectByID: Failed query/scan for ID %s: %v", id, err)
		return nil, fmt.Errorf("database error fetching project: %w", err)
	}
	return p, nil
}

// ListProjects returns the caller's projects (userID non-nil) or the unowned
// guest pool (userID nil), newest first.
func (s *PostgresStore) ListProjects(ctx context.Context, userID *uuid.UUID) ([]db_models.Project, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if userID != nil {
		query := `SELECT ` + projectColumns + ` FROM projects WHERE user_id = $1 ORDER BY created_at DESC`
		rows, err = s.db.Query(ctx, query, *userID)
	} else {
		query := `SELECT ` + projectColumns + ` FROM projects WHERE user_id IS NULL ORDER BY created_at DESC`
		rows, err = s.db.Query(ctx, query)
	}
	if err != nil {
		log.Printf("ERROR [PostgresStore] ListProjects: Failed query: %v", err)
		return nil, fmt.Errorf("database error listing projects: %w", err)
	}
	defer rows.Close()

	projects := []db_models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning project: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating projects: %w", err)
	}
	return projects, nil
}

// UpdateProject applies a partial update and returns the updated row.
func (s *PostgresStore) UpdateProject(ctx context.Context, arg store.UpdateProjectParams) (*db_models.Project, error) {
	query := `
		UPDATE projects SET
			name = COALESCE($2, name),
			category = COALESCE($3, category),
			guidelines = COALESCE($4, guidelines),
			upload_percentage = COALESCE($5, upload_percentage),
			is_expanded = COALESCE($6, is_expanded),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + projectColumns

	p, err := scanProject(s.db.QueryRow(ctx, query,
		arg.ID,
		arg.Name,
		arg.Category,
		arg.Guidelines,
		arg.UploadPercentage,
		arg.IsExpanded,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] UpdateProject: Failed update for ID %s: %v", arg.ID, err)
		return nil, fmt.Errorf("database error updating project: %w", err)
	}
	return p, nil
}

// DeleteProject removes a project. Conversations, messages and files cascade
// via foreign keys.
func (s *PostgresStore) DeleteProject(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		log.Printf("ERROR [PostgresStore] DeleteProject: Failed delete for ID %s: %v", id, err)
		return fmt.Errorf("database error deleting project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// MigrateProjects claims the listed unowned projects for userID. Rows that
// already have an owner are left untouched; a transfer never reassigns.
func (s *PostgresStore) MigrateProjects(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `
		UPDATE projects SET user_id = $1, updated_at = NOW()
		WHERE id = ANY($2) AND user_id IS NULL`

	tag, err := s.db.Exec(ctx, query, userID, ids)
	if err != nil {
		log.Printf("ERROR [PostgresStore] MigrateProjects: Failed update for user %s: %v", userID, err)
		return 0, fmt.Errorf("database error migrating projects: %w", err)
	}
	log.Printf("[PostgresStore] MigrateProjects: Claimed %d of %d projects for user %s", tag.RowsAffected(), len(ids), userID)
	return tag.RowsAffected(), nil
}
