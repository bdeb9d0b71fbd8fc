package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"gift-api/models"
	"gift-api/storage"
)

const giftColumns = `id, group_id, title, description, price, link, image_url, status, created_by, buyer_id, created_at, updated_at`

func (s *Store) CreateGift(ctx context.Context, gift *models.GiftIdea) error {
	if gift.ID == "" {
		gift.ID = uuid.New().String()
	}
	now := time.Now()
	gift.CreatedAt = now
	gift.UpdatedAt = now
	gift.Status = models.GiftProposed

	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO gift_ideas (id, group_id, title, description, price, link, image_url, status, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, gift.ID, gift.GroupID, gift.Title, gift.Description, gift.Price, gift.Link,
			gift.ImageURL, gift.Status, gift.CreatedBy, gift.CreatedAt, gift.UpdatedAt)
		if err != nil {
			return err
		}

		for _, recipientID := range gift.RecipientIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO gift_recipients (gift_id, user_id)
				VALUES ($1, $2)
				ON CONFLICT (gift_id, user_id) DO NOTHING
			`, gift.ID, recipientID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetGift(ctx context.Context, id string) (*models.GiftIdea, error) {
	gift, err := s.scanGift(s.db.QueryRowContext(ctx,
		`SELECT `+giftColumns+` FROM gift_ideas WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	if err := s.loadRecipients(ctx, gift); err != nil {
		return nil, err
	}
	return gift, nil
}

func (s *Store) ListGiftsByGroup(ctx context.Context, groupID string) ([]models.GiftIdea, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+giftColumns+` FROM gift_ideas WHERE group_id = $1 ORDER BY created_at DESC`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gifts []models.GiftIdea
	for rows.Next() {
		var gift models.GiftIdea
		if err := rows.Scan(&gift.ID, &gift.GroupID, &gift.Title, &gift.Description, &gift.Price,
			&gift.Link, &gift.ImageURL, &gift.Status, &gift.CreatedBy, &gift.BuyerID,
			&gift.CreatedAt, &gift.UpdatedAt); err != nil {
			return nil, err
		}
		gifts = append(gifts, gift)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range gifts {
		if err := s.loadRecipients(ctx, &gifts[i]); err != nil {
			return nil, err
		}
	}
	return gifts, nil
}

// ClaimGift performs the proposed→buying compare-and-swap. The WHERE
// clause is the check; zero rows affected means another caller moved the
// gift first.
func (s *Store) ClaimGift(ctx context.Context, giftID, buyerID string) (*models.GiftIdea, error) {
	return s.casGift(ctx, giftID, `
		UPDATE gift_ideas
		SET status = 'buying', buyer_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'proposed'
	`, giftID, buyerID)
}

func (s *Store) MarkGiftBought(ctx context.Context, giftID, buyerID string) (*models.GiftIdea, error) {
	return s.casGift(ctx, giftID, `
		UPDATE gift_ideas
		SET status = 'bought', updated_at = NOW()
		WHERE id = $1 AND status = 'buying' AND buyer_id = $2
	`, giftID, buyerID)
}

func (s *Store) ReleaseGift(ctx context.Context, giftID, buyerID string) (*models.GiftIdea, error) {
	return s.casGift(ctx, giftID, `
		UPDATE gift_ideas
		SET status = 'proposed', buyer_id = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'buying' AND buyer_id = $2
	`, giftID, buyerID)
}

func (s *Store) casGift(ctx context.Context, giftID, query string, args ...interface{}) (*models.GiftIdea, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Distinguish a missing gift from a stale observed state.
		if _, err := s.GetGift(ctx, giftID); err != nil {
			return nil, err
		}
		return nil, storage.ErrConflict
	}

	return s.GetGift(ctx, giftID)
}

func (s *Store) DeleteGift(ctx context.Context, giftID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM gift_ideas WHERE id = $1`, giftID)
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

func (s *Store) scanGift(row *sql.Row) (*models.GiftIdea, error) {
	var gift models.GiftIdea
	err := row.Scan(&gift.ID, &gift.GroupID, &gift.Title, &gift.Description, &gift.Price,
		&gift.Link, &gift.ImageURL, &gift.Status, &gift.CreatedBy, &gift.BuyerID,
		&gift.CreatedAt, &gift.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &gift, nil
}

func (s *Store) loadRecipients(ctx context.Context, gift *models.GiftIdea) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM gift_recipients WHERE gift_id = $1 ORDER BY user_id
	`, gift.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	gift.RecipientIDs = nil
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return err
		}
		gift.RecipientIDs = append(gift.RecipientIDs, userID)
	}
	return rows.Err()
}
