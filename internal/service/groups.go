package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/anchor-labs/anchor/internal/models"
)

// ErrDefaultGroup is returned when a caller tries to delete one of the
// auto-provisioned default groups.
var ErrDefaultGroup = errors.New("default groups cannot be deleted")

// GroupRepository defines the persistence operations the GroupService needs.
type GroupRepository interface {
	List(ctx context.Context, userID string) ([]models.Group, error)
	Get(ctx context.Context, userID, id string) (*models.Group, error)
	Insert(ctx context.Context, g models.Group) error
	Update(ctx context.Context, userID, id, name, color string) (*models.Group, error)
	Delete(ctx context.Context, userID, id string) error
}

// GroupService implements group rules: default provisioning, the
// no-deleting-defaults rule, and name validation.
type GroupService struct {
	repo GroupRepository
}

// NewGroupService constructs a GroupService with the provided repository.
func NewGroupService(repo GroupRepository) *GroupService {
	return &GroupService{repo: repo}
}

// List returns the user's groups, provisioning the two defaults on the
// user's first contact.
func (s *GroupService) List(ctx context.Context, userID string) ([]models.Group, error) {
	groups, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(groups) > 0 {
		return groups, nil
	}

	now := time.Now().UTC()
	for _, name := range models.DefaultGroupNames {
		g := models.Group{
			ID:        uuid.NewString(),
			UserID:    userID,
			Name:      name,
			IsDefault: true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Insert(ctx, g); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// Create adds a user-defined group.
func (s *GroupService) Create(ctx context.Context, userID string, in models.GroupInput) (models.Group, error) {
	if err := models.Validate("create group", in); err != nil {
		return models.Group{}, err
	}
	now := time.Now().UTC()
	g := models.Group{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      in.Name,
		Color:     in.Color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// Rename updates a group's name and color.
func (s *GroupService) Rename(ctx context.Context, userID, id string, in models.GroupInput) (*models.Group, error) {
	if err := models.Validate("rename group", in); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, userID, id, in.Name, in.Color)
}

// Delete removes a non-default group. Default groups are refused.
func (s *GroupService) Delete(ctx context.Context, userID, id string) error {
	g, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if g.IsDefault {
		return ErrDefaultGroup
	}
	return s.repo.Delete(ctx, userID, id)
}
