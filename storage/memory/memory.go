// Package memory implements storage.Store with in-process maps. It backs
// tests and runs the server without a database; a single mutex makes every
// mutating method atomic, which is the same guarantee the postgres store
// gets from conditional UPDATEs.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"gift-api/models"
	"gift-api/storage"
)

type Store struct {
	mu sync.Mutex

	users       map[string]*models.User
	usersByMail map[string]string
	groups      map[string]*models.Group
	members     map[string]*models.GroupMember
	invitations map[string]*models.Invitation
	redemptions map[string]bool // invitationID + "/" + userID
	gifts       map[string]*models.GiftIdea
	sessions    map[string]string // refresh token -> user id
}

func New() *Store {
	return &Store{
		users:       make(map[string]*models.User),
		usersByMail: make(map[string]string),
		groups:      make(map[string]*models.Group),
		members:     make(map[string]*models.GroupMember),
		invitations: make(map[string]*models.Invitation),
		redemptions: make(map[string]bool),
		gifts:       make(map[string]*models.GiftIdea),
		sessions:    make(map[string]string),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Email != nil {
		if _, exists := s.usersByMail[*user.Email]; exists {
			return storage.ErrDuplicate
		}
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	copied := *user
	s.users[user.ID] = &copied
	if user.Email != nil {
		s.usersByMail[*user.Email] = user.ID
	}
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.usersByMail[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *s.users[id]
	return &copied, nil
}

func (s *Store) ListChildren(_ context.Context, parentID string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var children []models.User
	for _, user := range s.users {
		if user.ParentID != nil && *user.ParentID == parentID {
			children = append(children, *user)
		}
	}
	return children, nil
}

func (s *Store) UpdateUserTOTP(_ context.Context, userID, secret string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	user.TOTPSecret = secret
	user.TOTPEnabled = enabled
	user.UpdatedAt = time.Now()
	return nil
}

func (s *Store) CreateSession(_ context.Context, userID, refreshToken string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[refreshToken] = userID
	return nil
}

func (s *Store) CreateGroup(_ context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	now := time.Now()
	group.CreatedAt = now
	group.UpdatedAt = now

	copied := *group
	copied.Members = nil
	s.groups[group.ID] = &copied

	member := &models.GroupMember{
		ID:       uuid.New().String(),
		GroupID:  group.ID,
		UserID:   group.CreatedBy,
		Role:     models.RoleAdmin,
		JoinedAt: now,
	}
	s.members[member.ID] = member
	return nil
}

func (s *Store) GetGroup(_ context.Context, id string) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *group
	return &copied, nil
}

func (s *Store) ListGroupsForUser(_ context.Context, userID string) ([]models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var groups []models.Group
	for _, member := range s.members {
		if member.UserID == userID {
			if group, ok := s.groups[member.GroupID]; ok {
				groups = append(groups, *group)
			}
		}
	}
	return groups, nil
}

func (s *Store) ListMembers(_ context.Context, groupID string) ([]models.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var members []models.GroupMember
	for _, member := range s.members {
		if member.GroupID == groupID {
			copied := *member
			if user, ok := s.users[member.UserID]; ok {
				copied.UserName = user.Name
			}
			members = append(members, copied)
		}
	}
	return members, nil
}

func (s *Store) IsMember(_ context.Context, groupID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findMember(groupID, userID) != nil, nil
}

func (s *Store) AddMember(_ context.Context, member *models.GroupMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findMember(member.GroupID, member.UserID) != nil {
		return storage.ErrDuplicate
	}
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	member.JoinedAt = time.Now()

	copied := *member
	s.members[member.ID] = &copied
	return nil
}

func (s *Store) GetMember(_ context.Context, groupID, memberID string) (*models.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	member, ok := s.members[memberID]
	if !ok || member.GroupID != groupID {
		return nil, storage.ErrNotFound
	}
	copied := *member
	return &copied, nil
}

func (s *Store) UpdateMemberRole(_ context.Context, groupID, memberID, role string) (*models.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	member, ok := s.members[memberID]
	if !ok || member.GroupID != groupID {
		return nil, storage.ErrNotFound
	}

	if member.Role == models.RoleAdmin && role != models.RoleAdmin && s.adminCount(groupID) <= 1 {
		return nil, storage.ErrLastAdmin
	}

	member.Role = role
	copied := *member
	return &copied, nil
}

func (s *Store) RemoveMember(_ context.Context, groupID, memberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	member, ok := s.members[memberID]
	if !ok || member.GroupID != groupID {
		return storage.ErrNotFound
	}

	if member.Role == models.RoleAdmin && s.adminCount(groupID) <= 1 {
		return storage.ErrLastAdmin
	}

	delete(s.members, memberID)
	return nil
}

func (s *Store) CreateInvitation(_ context.Context, inv *models.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	inv.CreatedAt = time.Now()

	for _, existing := range s.invitations {
		if existing.Token == inv.Token {
			return storage.ErrDuplicate
		}
	}

	copied := *inv
	s.invitations[inv.ID] = &copied
	return nil
}

func (s *Store) GetInvitationByToken(_ context.Context, token string) (*models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, inv := range s.invitations {
		if inv.Token == token {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) RecordRedemption(_ context.Context, invitationID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.redemptions[invitationID+"/"+userID] = true
	return nil
}

func (s *Store) CreateGift(_ context.Context, gift *models.GiftIdea) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gift.ID == "" {
		gift.ID = uuid.New().String()
	}
	now := time.Now()
	gift.CreatedAt = now
	gift.UpdatedAt = now
	gift.Status = models.GiftProposed
	gift.BuyerID = nil

	copied := *gift
	copied.RecipientIDs = append([]string(nil), gift.RecipientIDs...)
	s.gifts[gift.ID] = &copied
	return nil
}

func (s *Store) GetGift(_ context.Context, id string) (*models.GiftIdea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyGift(id)
}

func (s *Store) ListGiftsByGroup(_ context.Context, groupID string) ([]models.GiftIdea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var gifts []models.GiftIdea
	for id, gift := range s.gifts {
		if gift.GroupID == groupID {
			copied, _ := s.copyGift(id)
			gifts = append(gifts, *copied)
		}
	}
	return gifts, nil
}

func (s *Store) ClaimGift(_ context.Context, giftID, buyerID string) (*models.GiftIdea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gift, ok := s.gifts[giftID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if gift.Status != models.GiftProposed {
		return nil, storage.ErrConflict
	}

	gift.Status = models.GiftBuying
	buyer := buyerID
	gift.BuyerID = &buyer
	gift.UpdatedAt = time.Now()
	return s.copyGift(giftID)
}

func (s *Store) MarkGiftBought(_ context.Context, giftID, buyerID string) (*models.GiftIdea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gift, ok := s.gifts[giftID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if gift.Status != models.GiftBuying || gift.BuyerID == nil || *gift.BuyerID != buyerID {
		return nil, storage.ErrConflict
	}

	gift.Status = models.GiftBought
	gift.UpdatedAt = time.Now()
	return s.copyGift(giftID)
}

func (s *Store) ReleaseGift(_ context.Context, giftID, buyerID string) (*models.GiftIdea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gift, ok := s.gifts[giftID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if gift.Status != models.GiftBuying || gift.BuyerID == nil || *gift.BuyerID != buyerID {
		return nil, storage.ErrConflict
	}

	gift.Status = models.GiftProposed
	gift.BuyerID = nil
	gift.UpdatedAt = time.Now()
	return s.copyGift(giftID)
}

func (s *Store) DeleteGift(_ context.Context, giftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.gifts[giftID]; !ok {
		return storage.ErrNotFound
	}
	delete(s.gifts, giftID)
	return nil
}

// callers must hold s.mu
func (s *Store) findMember(groupID, userID string) *models.GroupMember {
	for _, member := range s.members {
		if member.GroupID == groupID && member.UserID == userID {
			return member
		}
	}
	return nil
}

func (s *Store) adminCount(groupID string) int {
	count := 0
	for _, member := range s.members {
		if member.GroupID == groupID && member.Role == models.RoleAdmin {
			count++
		}
	}
	return count
}

func (s *Store) copyGift(id string) (*models.GiftIdea, error) {
	gift, ok := s.gifts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *gift
	copied.RecipientIDs = append([]string(nil), gift.RecipientIDs...)
	if gift.BuyerID != nil {
		buyer := *gift.BuyerID
		copied.BuyerID = &buyer
	}
	return &copied, nil
}
