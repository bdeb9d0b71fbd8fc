package services

import (
	"context"
	"log/slog"

	"gift-api/models"
	"gift-api/storage"
)

// AccountService is the directory of principal accounts and the managed
// accounts they control. Acting-on-behalf decisions go through
// IsControlledBy; client-supplied ids are never trusted directly.
type AccountService struct {
	store storage.Store
}

func NewAccountService(store storage.Store) *AccountService {
	return &AccountService{store: store}
}

func (s *AccountService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}

// IsControlledBy reports whether principalID may act as accountID: either
// they are the same account, or the principal is the account's parent.
func (s *AccountService) IsControlledBy(ctx context.Context, accountID, principalID string) (bool, error) {
	if accountID == principalID {
		return true, nil
	}

	account, err := s.store.GetUserByID(ctx, accountID)
	if err != nil {
		return false, err
	}
	return account.ParentID != nil && *account.ParentID == principalID, nil
}

// CreateChild adds a managed account under parentID. Managed accounts
// cannot own dependents, so a managed parent is rejected.
func (s *AccountService) CreateChild(ctx context.Context, parentID, name string) (*models.User, error) {
	parent, err := s.store.GetUserByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.IsManaged() {
		return nil, ErrNotAuthorized
	}

	child := &models.User{
		Name:     name,
		ParentID: &parentID,
	}
	if err := s.store.CreateUser(ctx, child); err != nil {
		return nil, err
	}

	slog.Info("managed account created", "parent_id", parentID, "child_id", child.ID)
	return child, nil
}

func (s *AccountService) ListChildren(ctx context.Context, parentID string) ([]models.User, error) {
	return s.store.ListChildren(ctx, parentID)
}
