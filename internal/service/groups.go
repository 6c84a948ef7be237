package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sarankoundinya2000/smartsplit/internal/models"
	"github.com/sarankoundinya2000/smartsplit/internal/storage"
)

// GroupService manages groups, memberships and user profiles.
type GroupService struct {
	store  storage.Store
	logger *slog.Logger
}

// NewGroupService creates a new group service.
func NewGroupService(store storage.Store, logger *slog.Logger) *GroupService {
	return &GroupService{store: store, logger: logger}
}

// CreateGroup creates a group with the creator as its first member. Group
// names are unique across the system.
func (s *GroupService) CreateGroup(ctx context.Context, name, creatorEmail string) (*models.Group, error) {
	group, err := models.NewGroup(name, creatorEmail)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, err
	}
	s.logger.Info("group created", "group", group.Name, "creator", creatorEmail)
	return group, nil
}

// GetGroup returns a group. Only members may view it.
func (s *GroupService) GetGroup(ctx context.Context, name, requester string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, name)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(requester) {
		return nil, ErrNotMember
	}
	return group, nil
}

// ListGroups returns the groups the user belongs to.
func (s *GroupService) ListGroups(ctx context.Context, email string) ([]*models.Group, error) {
	return s.store.ListGroups(ctx, email)
}

// AddMember adds a member to a group. Unknown emails get a user record
// created on the spot so they can be referenced before they ever log in.
// Adding an existing member is a no-op.
func (s *GroupService) AddMember(ctx context.Context, groupName, requester, memberEmail string) error {
	group, err := s.store.GetGroup(ctx, groupName)
	if err != nil {
		return err
	}
	if !group.HasMember(requester) {
		return ErrNotMember
	}
	member, err := models.NewUser(memberEmail, "")
	if err != nil {
		return err
	}
	if err := s.store.AddMember(ctx, groupName, member); err != nil {
		return err
	}
	s.logger.Info("member added", "group", groupName, "member", memberEmail, "by", requester)
	return nil
}

// RemoveMember removes a member from a group. Committed expenses that
// reference the member are kept; their identity resolves to the bare email
// from then on.
func (s *GroupService) RemoveMember(ctx context.Context, groupName, requester, memberEmail string) error {
	group, err := s.store.GetGroup(ctx, groupName)
	if err != nil {
		return err
	}
	if !group.HasMember(requester) {
		return ErrNotMember
	}
	if err := s.store.RemoveMember(ctx, groupName, memberEmail); err != nil {
		return err
	}
	s.logger.Info("member removed", "group", groupName, "member", memberEmail, "by", requester)
	return nil
}

// DeleteGroup deletes a group and its expense history.
func (s *GroupService) DeleteGroup(ctx context.Context, groupName, requester string) error {
	group, err := s.store.GetGroup(ctx, groupName)
	if err != nil {
		return err
	}
	if !group.HasMember(requester) {
		return ErrNotMember
	}
	if err := s.store.DeleteGroup(ctx, groupName); err != nil {
		return err
	}
	s.logger.Info("group deleted", "group", groupName, "by", requester)
	return nil
}

// RenameUser updates a user's display name. Expense history references
// users by email, so past records are untouched.
func (s *GroupService) RenameUser(ctx context.Context, email, newName string) (*models.User, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, fmt.Errorf("%w: display name required", models.ErrInvalidUser)
	}
	if err := s.store.RenameUser(ctx, email, newName); err != nil {
		return nil, err
	}
	return s.store.GetUser(ctx, email)
}

// ResolveName returns the display name for an email, falling back to the
// email itself.
func (s *GroupService) ResolveName(ctx context.Context, email string) string {
	return resolveName(ctx, s.store, email)
}
