package service

import (
	"errors"
	"fmt"
	"strings"

	"playdates/internal/database"
	"playdates/internal/models"
	"playdates/internal/repository"
	"playdates/internal/validation"
)

// Profile errors
var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrChildNotFound    = errors.New("child not found")
	ErrNotChildOwner    = errors.New("child belongs to another parent")
	ErrBlockedContent   = errors.New("content contains blocked words")
	ErrProfileNotPublic = errors.New("profile is not viewable")
)

// ProfileService manages parent and child profiles
type ProfileService struct {
	db        *database.DB
	parents   *repository.ParentRepository
	children  *repository.ChildRepository
	interests *repository.InterestRepository
}

// NewProfileService creates a new profile service
func NewProfileService(db *database.DB, parents *repository.ParentRepository, children *repository.ChildRepository, interests *repository.InterestRepository) *ProfileService {
	return &ProfileService{
		db:        db,
		parents:   parents,
		children:  children,
		interests: interests,
	}
}

func (s *ProfileService) screenContent(text string) error {
	if text == "" {
		return nil
	}
	blocked, err := s.db.FindBlockedWords(text)
	if err != nil {
		return err
	}
	if len(blocked) > 0 {
		return fmt.Errorf("%w: %s", ErrBlockedContent, strings.Join(blocked, ", "))
	}
	return nil
}

// GetProfile retrieves a parent with interests and children attached
func (s *ProfileService) GetProfile(parentID int64) (*models.Parent, []models.Child, error) {
	parent, err := s.parents.GetParentByID(parentID)
	if err != nil {
		return nil, nil, err
	}
	if parent == nil {
		return nil, nil, ErrProfileNotFound
	}

	parent.Interests, err = s.interests.GetParentInterestNames(parentID)
	if err != nil {
		return nil, nil, err
	}

	children, err := s.children.GetParentChildren(parentID)
	if err != nil {
		return nil, nil, err
	}
	for i := range children {
		children[i].Interests, err = s.interests.GetChildInterestNames(children[i].ID)
		if err != nil {
			return nil, nil, err
		}
	}

	return parent, children, nil
}

// GetPublicProfile retrieves a parent profile as seen by other users.
// The ZIP code stays private; only the city is exposed.
func (s *ProfileService) GetPublicProfile(parentID int64) (*models.Parent, []models.Child, error) {
	parent, children, err := s.GetProfile(parentID)
	if err != nil {
		return nil, nil, err
	}
	parent.ZipCode = ""
	parent.Email = ""
	parent.PasswordHash = ""
	return parent, children, nil
}

// UpdateProfile updates a parent's profile and interest set
func (s *ProfileService) UpdateProfile(parentID int64, name, bio, city, zipCode, avatarURL string, interests []string) error {
	if err := validation.ValidateName(name); err != nil {
		return err
	}
	if err := validation.ValidateZipCode(zipCode); err != nil {
		return err
	}
	if err := s.screenContent(bio); err != nil {
		return err
	}

	if err := s.parents.UpdateProfile(parentID, name, bio, city, zipCode, avatarURL); err != nil {
		return err
	}
	return s.setInterests(interests, func(ids []int64) error {
		return s.interests.SetParentInterests(parentID, ids)
	})
}

// AddChild creates a child profile with interests
func (s *ProfileService) AddChild(parentID int64, name, age, bio string, interests []string) (*models.Child, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}
	if err := s.screenContent(bio); err != nil {
		return nil, err
	}

	child, err := s.children.CreateChild(parentID, name, age, bio)
	if err != nil {
		return nil, err
	}
	err = s.setInterests(interests, func(ids []int64) error {
		return s.interests.SetChildInterests(child.ID, ids)
	})
	if err != nil {
		return nil, err
	}
	child.Interests = interests
	return child, nil
}

// UpdateChild updates a child profile owned by the given parent
func (s *ProfileService) UpdateChild(parentID, childID int64, name, age, bio string, interests []string) error {
	child, err := s.ownedChild(parentID, childID)
	if err != nil {
		return err
	}
	if err := validation.ValidateName(name); err != nil {
		return err
	}
	if err := s.screenContent(bio); err != nil {
		return err
	}

	if err := s.children.UpdateChild(child.ID, name, age, bio); err != nil {
		return err
	}
	return s.setInterests(interests, func(ids []int64) error {
		return s.interests.SetChildInterests(child.ID, ids)
	})
}

// RemoveChild deletes a child profile owned by the given parent
func (s *ProfileService) RemoveChild(parentID, childID int64) error {
	child, err := s.ownedChild(parentID, childID)
	if err != nil {
		return err
	}
	return s.children.DeleteChild(child.ID)
}

func (s *ProfileService) ownedChild(parentID, childID int64) (*models.Child, error) {
	child, err := s.children.GetChildByID(childID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	if child.ParentID != parentID {
		return nil, ErrNotChildOwner
	}
	return child, nil
}

// setInterests resolves names to catalog ids (creating missing
// entries) and applies them through the given setter
func (s *ProfileService) setInterests(names []string, set func([]int64) error) error {
	ids := make([]int64, 0, len(names))
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		id, err := s.interests.UpsertByName(name)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	return set(ids)
}
