package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gift-api/models"
	"gift-api/storage"
)

func TestResolveInvitation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.user(t, "alice")
	group := f.group(t, alice)

	inv, err := f.invites.Create(ctx, group.ID, alice.ID, models.InvitationRequest{})
	if err != nil {
		t.Fatalf("Create invitation failed: %v", err)
	}

	t.Run("known token", func(t *testing.T) {
		resolved, err := f.invites.Resolve(ctx, inv.Token)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if resolved.GroupID != group.ID || resolved.Role != models.RoleMember {
			t.Errorf("unexpected resolution: %+v", resolved)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := f.invites.Resolve(ctx, "no-such-token")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		expired := &models.Invitation{
			GroupID:   group.ID,
			Role:      models.RoleMember,
			InvitedBy: alice.ID,
			Token:     "expired-token",
			ExpiresAt: time.Now().Add(-time.Hour),
		}
		if err := f.store.CreateInvitation(ctx, expired); err != nil {
			t.Fatalf("CreateInvitation failed: %v", err)
		}
		if _, err := f.invites.Resolve(ctx, expired.Token); !errors.Is(err, ErrExpired) {
			t.Errorf("expected ErrExpired, got %v", err)
		}
	})

	t.Run("non-member cannot invite", func(t *testing.T) {
		outsider := f.user(t, "outsider")
		_, err := f.invites.Create(ctx, group.ID, outsider.ID, models.InvitationRequest{})
		if !errors.Is(err, ErrNotAuthorized) {
			t.Errorf("expected ErrNotAuthorized, got %v", err)
		}
	})
}

func TestAcceptIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.user(t, "owner")
	group := f.group(t, owner)
	parent := f.user(t, "parent")
	kid := f.child(t, parent, "kid")

	inv, err := f.invites.Create(ctx, group.ID, owner.ID, models.InvitationRequest{})
	if err != nil {
		t.Fatalf("Create invitation failed: %v", err)
	}

	accountIDs := []string{parent.ID, kid.ID}

	first, err := f.invites.Accept(ctx, inv.Token, accountIDs, parent.ID)
	if err != nil {
		t.Fatalf("first Accept failed: %v", err)
	}
	if len(first.CreatedMemberships) != 2 || len(first.AlreadyMember) != 0 {
		t.Fatalf("expected 2 created / 0 already, got %d/%d",
			len(first.CreatedMemberships), len(first.AlreadyMember))
	}

	// Re-submitting the identical request succeeds and creates nothing.
	second, err := f.invites.Accept(ctx, inv.Token, accountIDs, parent.ID)
	if err != nil {
		t.Fatalf("second Accept failed: %v", err)
	}
	if len(second.CreatedMemberships) != 0 || len(second.AlreadyMember) != 2 {
		t.Fatalf("expected 0 created / 2 already, got %d/%d",
			len(second.CreatedMemberships), len(second.AlreadyMember))
	}

	members, err := f.store.ListMembers(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	counts := make(map[string]int)
	for _, m := range members {
		counts[m.UserID]++
	}
	if counts[parent.ID] != 1 || counts[kid.ID] != 1 {
		t.Errorf("expected each account to be a member exactly once, got %v", counts)
	}
}

func TestAcceptAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.user(t, "owner")
	group := f.group(t, owner)
	parent := f.user(t, "parent")
	kid := f.child(t, parent, "kid")
	stranger := f.user(t, "stranger")

	inv, err := f.invites.Create(ctx, group.ID, owner.ID, models.InvitationRequest{})
	if err != nil {
		t.Fatalf("Create invitation failed: %v", err)
	}

	t.Run("stranger cannot accept for someone else's child", func(t *testing.T) {
		_, err := f.invites.Accept(ctx, inv.Token, []string{kid.ID}, stranger.ID)
		if !errors.Is(err, ErrNotAuthorized) {
			t.Fatalf("expected ErrNotAuthorized, got %v", err)
		}

		isMember, err := f.store.IsMember(ctx, group.ID, kid.ID)
		if err != nil {
			t.Fatalf("IsMember failed: %v", err)
		}
		if isMember {
			t.Error("no membership should have been created")
		}
	})

	t.Run("one unauthorized id aborts the whole batch", func(t *testing.T) {
		_, err := f.invites.Accept(ctx, inv.Token, []string{stranger.ID, kid.ID}, stranger.ID)
		if !errors.Is(err, ErrNotAuthorized) {
			t.Fatalf("expected ErrNotAuthorized, got %v", err)
		}

		// The authorized id in the batch was not joined either.
		isMember, err := f.store.IsMember(ctx, group.ID, stranger.ID)
		if err != nil {
			t.Fatalf("IsMember failed: %v", err)
		}
		if isMember {
			t.Error("nothing should be created when any id fails authorization")
		}
	})

	t.Run("unknown account id is invalid input", func(t *testing.T) {
		_, err := f.invites.Accept(ctx, inv.Token, []string{"missing-id"}, parent.ID)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("expired token cannot be accepted", func(t *testing.T) {
		expired := &models.Invitation{
			GroupID:   group.ID,
			Role:      models.RoleMember,
			InvitedBy: owner.ID,
			Token:     "expired-accept",
			ExpiresAt: time.Now().Add(-time.Minute),
		}
		if err := f.store.CreateInvitation(ctx, expired); err != nil {
			t.Fatalf("CreateInvitation failed: %v", err)
		}
		if _, err := f.invites.Accept(ctx, expired.Token, []string{parent.ID}, parent.ID); !errors.Is(err, ErrExpired) {
			t.Errorf("expected ErrExpired, got %v", err)
		}
	})
}

func TestAcceptGrantsInvitationRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.user(t, "owner")
	group := f.group(t, owner)
	invitee := f.user(t, "invitee")

	inv, err := f.invites.Create(ctx, group.ID, owner.ID, models.InvitationRequest{Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("Create invitation failed: %v", err)
	}

	resp, err := f.invites.Accept(ctx, inv.Token, []string{invitee.ID}, invitee.ID)
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if len(resp.CreatedMemberships) != 1 || resp.CreatedMemberships[0].Role != models.RoleAdmin {
		t.Errorf("expected one admin membership, got %+v", resp.CreatedMemberships)
	}
}
