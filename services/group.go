package services

import (
	"context"
	"log/slog"

	"gift-api/models"
	"gift-api/storage"
)

// GroupService handles the supporting group records and the membership
// mutations with the last-admin invariant. The invariant itself is
// enforced atomically by the store; this layer adds the actor checks.
type GroupService struct {
	store storage.Store
}

func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// Create makes a group with the creator as its first admin.
func (s *GroupService) Create(ctx context.Context, creatorID string, req models.CreateGroupRequest) (*models.Group, error) {
	group := &models.Group{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   creatorID,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, err
	}

	slog.Info("group created", "group_id", group.ID, "created_by", creatorID)
	return group, nil
}

// Get returns a group with its members, for members only.
func (s *GroupService) Get(ctx context.Context, groupID, userID string) (*models.Group, error) {
	isMember, err := s.store.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotAuthorized
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	group.Members = members
	return group, nil
}

func (s *GroupService) ListForUser(ctx context.Context, userID string) ([]models.Group, error) {
	return s.store.ListGroupsForUser(ctx, userID)
}

// UpdateMemberRole changes a membership's role. Admin-only; demoting the
// last admin fails with storage.ErrLastAdmin and changes nothing.
func (s *GroupService) UpdateMemberRole(ctx context.Context, groupID, memberID, role, actorID string) (*models.GroupMember, error) {
	if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
		return nil, err
	}

	member, err := s.store.UpdateMemberRole(ctx, groupID, memberID, role)
	if err != nil {
		return nil, err
	}

	slog.Info("member role updated", "group_id", groupID, "member_id", memberID, "role", role)
	return member, nil
}

// RemoveMember deletes a membership. Admins may remove anyone; a member
// may remove themselves (leave). Removing the last admin fails with
// storage.ErrLastAdmin.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, memberID, actorID string) error {
	member, err := s.store.GetMember(ctx, groupID, memberID)
	if err != nil {
		return err
	}

	if member.UserID != actorID {
		if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
			return err
		}
	}

	if err := s.store.RemoveMember(ctx, groupID, memberID); err != nil {
		return err
	}

	slog.Info("member removed", "group_id", groupID, "member_id", memberID, "actor_id", actorID)
	return nil
}

func (s *GroupService) requireAdmin(ctx context.Context, groupID, userID string) error {
	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return err
	}
	for _, member := range members {
		if member.UserID == userID {
			if member.Role == models.RoleAdmin {
				return nil
			}
			return ErrNotAuthorized
		}
	}
	return ErrNotAuthorized
}
