package models

import "time"

// Participant is the roster entry linking one guardian and their
// attending children to one playdate. At most one entry exists per
// (playdate, guardian) pair; multiple children are held in ChildIDs.
// PrimaryChildID duplicates the first child of the latest selection
// and must stay in sync with ChildIDs.
type Participant struct {
	ID             int64
	PlaydateID     int64
	GuardianID     int64
	ChildIDs       []int64
	PrimaryChildID int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasChild reports whether the given child is on the roster entry
func (p *Participant) HasChild(childID int64) bool {
	for _, id := range p.ChildIDs {
		if id == childID {
			return true
		}
	}
	return false
}
