package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"gift-api/models"
	"gift-api/storage"
)

func (s *Store) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	inv.CreatedAt = time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invitations (id, group_id, email, role, invited_by, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, inv.ID, inv.GroupID, inv.Email, inv.Role, inv.InvitedBy, inv.Token, inv.ExpiresAt, inv.CreatedAt)

	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	return err
}

func (s *Store) GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error) {
	var inv models.Invitation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, group_id, email, role, invited_by, token, expires_at, created_at
		FROM invitations
		WHERE token = $1
	`, token).Scan(&inv.ID, &inv.GroupID, &inv.Email, &inv.Role, &inv.InvitedBy,
		&inv.Token, &inv.ExpiresAt, &inv.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *Store) RecordRedemption(ctx context.Context, invitationID, userID string) error {
	// ON CONFLICT DO NOTHING keeps repeated acceptance idempotent.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invitation_redemptions (invitation_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (invitation_id, user_id) DO NOTHING
	`, invitationID, userID)
	return err
}
