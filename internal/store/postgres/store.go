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
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time check to ensure PostgresStore implements store.Store
var _ store.Store = (*PostgresStore)(nil)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, email, name, hashed_password, refresh_token_hash, api_keys, enabled_models, selected_model, created_at, updated_at`

func scanUser(row pgx.Row) (*db_models.User, error) {
	user := &db_models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.HashedPassword,
		&user.RefreshTokenHash,
		&user.APIKeys,
		&user.EnabledModels,
		&user.SelectedModel,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByEmail retrieves a user by their email address.
// Returns store.ErrNotFound if the user does not exist.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*db_models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(s.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] GetUserByEmail: Failed to query/scan user for email %s: %v", email, err)
		return nil, fmt.Errorf("database error fetching user by email: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by primary key.
func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*db_models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] GetUserByID: Failed to query/scan user %s: %v", id, err)
		return nil, fmt.Errorf("database error fetching user by id: %w", err)
	}
	return user, nil
}

// CreateUser inserts a new user record into the database.
func (s *PostgresStore) CreateUser(ctx context.Context, user *db_models.User) error {
	log.Printf("[PostgresStore] CreateUser called for: %s (UserID: %s)", user.Email, user.ID)
	query := `
		INSERT INTO users (id, email, name, hashed_password)
		VALUES ($1, $2, $3, $4)`
	// created_at and updated_at have database defaults (NOW())

	_, err := s.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.HashedPassword,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			log.Printf("WARN [PostgresStore] CreateUser: Duplicate email %s", user.Email)
			return fmt.Errorf("user with email %s already exists: %w", user.Email, err)
		}
		log.Printf("ERROR [PostgresStore] CreateUser: Failed insert for %s: %v", user.Email, err)
		return fmt.Errorf("database error creating user: %w", err)
	}
	return nil
}

// UpdateUserRefreshToken stores (or clears, when nil) the bcrypt hash of the
// user's current refresh token.
func (s *PostgresStore) UpdateUserRefreshToken(ctx context.Context, id uuid.UUID, refreshTokenHash *string) error {
	query := `UPDATE users SET refresh_token_hash = $2, updated_at = NOW() WHERE id = $1`

	tag, err := s.db.Exec(ctx, query, id, refreshTokenHash)
	if err != nil {
		log.Printf("ERROR [PostgresStore] UpdateUserRefreshToken: Failed update for user %s: %v", id, err)
		return fmt.Errorf("database error updating refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UpdateUserSettings applies a partial settings update and returns the
// updated user row.
func (s *PostgresStore) UpdateUserSettings(ctx context.Context, arg store.UpdateUserSettingsParams) (*db_models.User, error) {
	query := `
		UPDATE users SET
			api_keys = COALESCE($2, api_keys),
			enabled_models = COALESCE($3, enabled_models),
			selected_model = COALESCE($4, selected_model),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(s.db.QueryRow(ctx, query, arg.UserID, arg.APIKeys, arg.EnabledModels, arg.SelectedModel))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] UpdateUserSettings: Failed update for user %s: %v", arg.UserID, err)
		return nil, fmt.Errorf("database error updating settings: %w", err)
	}
	return user, nil
}
