package service

import (
	"errors"

	"playdates/internal/database"
	"playdates/internal/models"
	"playdates/internal/repository"
)

// Roster errors
var (
	ErrNoChildrenSelected = errors.New("at least one child must be selected")
	ErrPlaydateFull       = errors.New("playdate is full")
	ErrPlaydateEnded      = errors.New("playdate has already ended")
	ErrNotJoined          = errors.New("guardian has not joined this playdate")
	ErrChildNotOnRoster   = errors.New("child is not on the roster")
	ErrNotRosterOwner     = errors.New("only the guardian or the host can change this entry")
)

// RosterService manages who attends a playdate. Each guardian holds at
// most one roster entry per playdate; the entry carries the set of
// attending children and a primary child that always belongs to the
// set. Joins and removals run in a transaction so concurrent updates
// to the same entry cannot lose children.
type RosterService struct {
	db               *database.DB
	playdates        *repository.PlaydateRepository
	participants     *repository.ParticipantRepository
	children         *repository.ChildRepository
	capacityEnforced bool
}

// NewRosterService creates a new roster service
func NewRosterService(
	db *database.DB,
	playdates *repository.PlaydateRepository,
	participants *repository.ParticipantRepository,
	children *repository.ChildRepository,
	capacityEnforced bool,
) *RosterService {
	return &RosterService{
		db:               db,
		playdates:        playdates,
		participants:     participants,
		children:         children,
		capacityEnforced: capacityEnforced,
	}
}

// Join adds the selected children to the guardian's roster entry on a
// playdate, creating the entry if needed. Joining again with an
// overlapping selection unions the child sets; re-joining with the
// same children is a no-op. The primary child becomes the first child
// of the latest selection.
func (s *RosterService) Join(playdateID, guardianID int64, childIDs []int64) (*models.Participant, error) {
	if len(childIDs) == 0 {
		return nil, ErrNoChildrenSelected
	}

	playdate, err := s.playdates.GetPlaydateByID(playdateID)
	if err != nil {
		return nil, err
	}
	if playdate == nil {
		return nil, ErrPlaydateNotFound
	}
	if playdate.IsCancelled {
		return nil, ErrPlaydateCancelled
	}
	if playdate.IsPast() {
		return nil, ErrPlaydateEnded
	}

	// Every selected child must belong to the joining guardian
	for _, childID := range childIDs {
		child, err := s.children.GetChildByID(childID)
		if err != nil {
			return nil, err
		}
		if child == nil {
			return nil, ErrChildNotFound
		}
		if child.ParentID != guardianID {
			return nil, ErrNotChildOwner
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txParticipants := s.participants.WithTx(tx)

	existing, err := txParticipants.GetByPlaydateAndGuardian(playdateID, guardianID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		if s.capacityEnforced && playdate.MaxParticipants > 0 {
			count, err := txParticipants.CountForPlaydate(playdateID)
			if err != nil {
				return nil, err
			}
			if count >= playdate.MaxParticipants {
				return nil, ErrPlaydateFull
			}
		}

		id, err := txParticipants.CreateParticipant(playdateID, guardianID, childIDs, childIDs[0])
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return &models.Participant{
			ID:             id,
			PlaydateID:     playdateID,
			GuardianID:     guardianID,
			ChildIDs:       childIDs,
			PrimaryChildID: childIDs[0],
		}, nil
	}

	merged := mergeChildIDs(existing.ChildIDs, childIDs)
	primary := childIDs[0]
	if err := txParticipants.UpdateChildren(existing.ID, merged, primary); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	existing.ChildIDs = merged
	existing.PrimaryChildID = primary
	return existing, nil
}

// RemoveChild takes one child off the guardian's roster entry. The
// acting parent must be the guardian or the playdate host. When the
// removed child was the primary, the first remaining child is
// promoted; removing the last child deletes the entry.
func (s *RosterService) RemoveChild(playdateID, guardianID, childID, actorID int64) error {
	if err := s.authorizeRosterChange(playdateID, guardianID, actorID); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	txParticipants := s.participants.WithTx(tx)

	entry, err := txParticipants.GetByPlaydateAndGuardian(playdateID, guardianID)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrNotJoined
	}
	if !entry.HasChild(childID) {
		return ErrChildNotOnRoster
	}

	remaining := removeChildID(entry.ChildIDs, childID)
	if len(remaining) == 0 {
		if err := txParticipants.DeleteParticipant(entry.ID); err != nil {
			return err
		}
		return tx.Commit()
	}

	primary := entry.PrimaryChildID
	if primary == childID {
		primary = remaining[0]
	}
	if err := txParticipants.UpdateChildren(entry.ID, remaining, primary); err != nil {
		return err
	}
	return tx.Commit()
}

// Leave removes the guardian's whole roster entry from a playdate. The
// acting parent must be the guardian or the playdate host.
func (s *RosterService) Leave(playdateID, guardianID, actorID int64) error {
	if err := s.authorizeRosterChange(playdateID, guardianID, actorID); err != nil {
		return err
	}

	entry, err := s.participants.GetByPlaydateAndGuardian(playdateID, guardianID)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrNotJoined
	}
	return s.participants.DeleteParticipant(entry.ID)
}

// AvailableChildren returns the guardian's children not yet on their
// roster entry for a playdate
func (s *RosterService) AvailableChildren(playdateID, guardianID int64) ([]models.Child, error) {
	children, err := s.children.GetParentChildren(guardianID)
	if err != nil {
		return nil, err
	}

	entry, err := s.participants.GetByPlaydateAndGuardian(playdateID, guardianID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return children, nil
	}

	available := make([]models.Child, 0, len(children))
	for _, child := range children {
		if !entry.HasChild(child.ID) {
			available = append(available, child)
		}
	}
	return available, nil
}

func (s *RosterService) authorizeRosterChange(playdateID, guardianID, actorID int64) error {
	if actorID == guardianID {
		return nil
	}
	playdate, err := s.playdates.GetPlaydateByID(playdateID)
	if err != nil {
		return err
	}
	if playdate == nil {
		return ErrPlaydateNotFound
	}
	if playdate.CreatorID != actorID {
		return ErrNotRosterOwner
	}
	return nil
}

// mergeChildIDs unions two child id lists, keeping existing order and
// appending unseen incoming ids in order
func mergeChildIDs(existing, incoming []int64) []int64 {
	seen := make(map[int64]bool, len(existing))
	merged := make([]int64, 0, len(existing)+len(incoming))
	for _, id := range existing {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	for _, id := range incoming {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	return merged
}

// removeChildID returns ids without the given id, preserving order
func removeChildID(ids []int64, childID int64) []int64 {
	remaining := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id != childID {
			remaining = append(remaining, id)
		}
	}
	return remaining
}
