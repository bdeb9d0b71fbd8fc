package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"gift-api/models"
	"gift-api/storage"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	var passwordHash sql.NullString
	if user.PasswordHash != "" {
		passwordHash = sql.NullString{String: user.PasswordHash, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, parent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, user.ID, user.Email, passwordHash, user.Name, user.ParentID, user.CreatedAt, user.UpdatedAt)

	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	return err
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, parent_id, totp_secret, totp_enabled, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, parent_id, totp_secret, totp_enabled, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email))
}

func (s *Store) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var passwordHash, totpSecret sql.NullString

	err := row.Scan(&user.ID, &user.Email, &passwordHash, &user.Name, &user.ParentID,
		&totpSecret, &user.TOTPEnabled, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	user.PasswordHash = passwordHash.String
	user.TOTPSecret = totpSecret.String
	return &user, nil
}

func (s *Store) ListChildren(ctx context.Context, parentID string) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, parent_id, created_at, updated_at
		FROM users
		WHERE parent_id = $1
		ORDER BY created_at
	`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var children []models.User
	for rows.Next() {
		var child models.User
		if err := rows.Scan(&child.ID, &child.Name, &child.ParentID, &child.CreatedAt, &child.UpdatedAt); err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, rows.Err()
}

func (s *Store) UpdateUserTOTP(ctx context.Context, userID, secret string, enabled bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET totp_secret = $2, totp_enabled = $3, updated_at = NOW()
		WHERE id = $1
	`, userID, secret, enabled)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context, userID, refreshToken string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, refresh_token, expires_at)
		VALUES ($1, $2, $3)
	`, userID, refreshToken, expiresAt)
	return err
}
