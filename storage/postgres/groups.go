package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"gift-api/models"
	"gift-api/storage"
)

func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	now := time.Now()
	group.CreatedAt = now
	group.UpdatedAt = now

	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO groups (id, name, description, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, group.ID, group.Name, group.Description, group.CreatedBy, group.CreatedAt, group.UpdatedAt)
		if err != nil {
			return err
		}

		// The creator joins as the first admin in the same transaction so
		// the group never exists without one.
		_, err = tx.ExecContext(ctx, `
			INSERT INTO group_members (id, group_id, user_id, role, joined_at)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.New().String(), group.ID, group.CreatedBy, models.RoleAdmin, now)
		return err
	})
}

func (s *Store) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_by, created_at, updated_at
		FROM groups
		WHERE id = $1
	`, id).Scan(&group.ID, &group.Name, &group.Description, &group.CreatedBy, &group.CreatedAt, &group.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (s *Store) ListGroupsForUser(ctx context.Context, userID string) ([]models.Group, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.description, g.created_by, g.created_at, g.updated_at
		FROM groups g
		INNER JOIN group_members gm ON g.id = gm.group_id
		WHERE gm.user_id = $1
		ORDER BY g.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var group models.Group
		if err := rows.Scan(&group.ID, &group.Name, &group.Description, &group.CreatedBy,
			&group.CreatedAt, &group.UpdatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (s *Store) ListMembers(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT gm.id, gm.group_id, gm.user_id, gm.role, gm.joined_at, u.name
		FROM group_members gm
		INNER JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.GroupMember
	for rows.Next() {
		var member models.GroupMember
		if err := rows.Scan(&member.ID, &member.GroupID, &member.UserID, &member.Role,
			&member.JoinedAt, &member.UserName); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (s *Store) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM group_members
			WHERE group_id = $1 AND user_id = $2
		)
	`, groupID, userID).Scan(&exists)
	return exists, err
}

func (s *Store) AddMember(ctx context.Context, member *models.GroupMember) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	member.JoinedAt = time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO group_members (id, group_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4, $5)
	`, member.ID, member.GroupID, member.UserID, member.Role, member.JoinedAt)

	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	return err
}

func (s *Store) GetMember(ctx context.Context, groupID, memberID string) (*models.GroupMember, error) {
	var member models.GroupMember
	err := s.db.QueryRowContext(ctx, `
		SELECT id, group_id, user_id, role, joined_at
		FROM group_members
		WHERE id = $1 AND group_id = $2
	`, memberID, groupID).Scan(&member.ID, &member.GroupID, &member.UserID, &member.Role, &member.JoinedAt)

	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *Store) UpdateMemberRole(ctx context.Context, groupID, memberID, role string) (*models.GroupMember, error) {
	var member models.GroupMember

	err := s.withTx(func(tx *sql.Tx) error {
		currentRole, err := lockMember(ctx, tx, groupID, memberID)
		if err != nil {
			return err
		}

		if currentRole == models.RoleAdmin && role != models.RoleAdmin {
			count, err := lockAdminCount(ctx, tx, groupID)
			if err != nil {
				return err
			}
			if count <= 1 {
				return storage.ErrLastAdmin
			}
		}

		return tx.QueryRowContext(ctx, `
			UPDATE group_members
			SET role = $3
			WHERE id = $1 AND group_id = $2
			RETURNING id, group_id, user_id, role, joined_at
		`, memberID, groupID, role).Scan(&member.ID, &member.GroupID, &member.UserID, &member.Role, &member.JoinedAt)
	})

	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *Store) RemoveMember(ctx context.Context, groupID, memberID string) error {
	return s.withTx(func(tx *sql.Tx) error {
		currentRole, err := lockMember(ctx, tx, groupID, memberID)
		if err != nil {
			return err
		}

		if currentRole == models.RoleAdmin {
			count, err := lockAdminCount(ctx, tx, groupID)
			if err != nil {
				return err
			}
			if count <= 1 {
				return storage.ErrLastAdmin
			}
		}

		_, err = tx.ExecContext(ctx, `
			DELETE FROM group_members
			WHERE id = $1 AND group_id = $2
		`, memberID, groupID)
		return err
	})
}

// lockMember row-locks a membership and returns its current role.
func lockMember(ctx context.Context, tx *sql.Tx, groupID, memberID string) (string, error) {
	var role string
	err := tx.QueryRowContext(ctx, `
		SELECT role FROM group_members
		WHERE id = $1 AND group_id = $2
		FOR UPDATE
	`, memberID, groupID).Scan(&role)

	if err == sql.ErrNoRows {
		return "", storage.ErrNotFound
	}
	return role, err
}

// lockAdminCount locks every admin row of the group and returns how many
// there are, so two concurrent downgrades cannot both see a spare admin.
func lockAdminCount(ctx context.Context, tx *sql.Tx, groupID string) (int, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM group_members
		WHERE group_id = $1 AND role = $2
		FOR UPDATE
	`, groupID, models.RoleAdmin)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		count++
	}
	return count, rows.Err()
}
