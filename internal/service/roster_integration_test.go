package service

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"playdates/internal/database"
	"playdates/internal/repository"
)

type rosterFixture struct {
	db       *database.DB
	roster   *RosterService
	parents  *repository.ParentRepository
	children *repository.ChildRepository
}

func newRosterFixture(t *testing.T) *rosterFixture {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	parents := repository.NewParentRepository(db)
	children := repository.NewChildRepository(db)
	playdates := repository.NewPlaydateRepository(db)
	participants := repository.NewParticipantRepository(db)

	return &rosterFixture{
		db:       db,
		roster:   NewRosterService(db, playdates, participants, children, false),
		parents:  parents,
		children: children,
	}
}

func (f *rosterFixture) createParent(t *testing.T, email, name string) int64 {
	t.Helper()
	parent, err := f.parents.CreateParent(email, "hash", name)
	if err != nil {
		t.Fatalf("failed to create parent: %v", err)
	}
	return parent.ID
}

func (f *rosterFixture) createChild(t *testing.T, parentID int64, name string) int64 {
	t.Helper()
	child, err := f.children.CreateChild(parentID, name, "6", "")
	if err != nil {
		t.Fatalf("failed to create child: %v", err)
	}
	return child.ID
}

func (f *rosterFixture) createPlaydate(t *testing.T, creatorID int64) int64 {
	t.Helper()
	playdates := NewPlaydateService(
		repository.NewPlaydateRepository(f.db),
		repository.NewParticipantRepository(f.db),
		f.parents,
		NewLocationService(nil, time.Second, time.Minute),
		10,
	)
	playdate, err := playdates.Create(creatorID, "Park afternoon", "", "Riverside Park",
		time.Now().Add(24*time.Hour), time.Now().Add(26*time.Hour), 0, nil, nil)
	if err != nil {
		t.Fatalf("failed to create playdate: %v", err)
	}
	return playdate.ID
}

func TestRosterJoinUnionsChildSets(t *testing.T) {
	f := newRosterFixture(t)

	host := f.createParent(t, "host@example.com", "Host")
	guardian := f.createParent(t, "guardian@example.com", "Guardian")
	childA := f.createChild(t, guardian, "Ada")
	childB := f.createChild(t, guardian, "Ben")
	playdateID := f.createPlaydate(t, host)

	entry, err := f.roster.Join(playdateID, guardian, []int64{childA})
	if err != nil {
		t.Fatalf("first join failed: %v", err)
	}
	if len(entry.ChildIDs) != 1 || entry.ChildIDs[0] != childA {
		t.Fatalf("ChildIDs = %v, want [%d]", entry.ChildIDs, childA)
	}
	if entry.PrimaryChildID != childA {
		t.Errorf("PrimaryChildID = %d, want %d", entry.PrimaryChildID, childA)
	}

	// Joining again with an overlapping selection unions the sets
	entry, err = f.roster.Join(playdateID, guardian, []int64{childA, childB})
	if err != nil {
		t.Fatalf("second join failed: %v", err)
	}
	if len(entry.ChildIDs) != 2 {
		t.Fatalf("ChildIDs = %v, want two children", entry.ChildIDs)
	}
	if !entry.HasChild(childA) || !entry.HasChild(childB) {
		t.Errorf("ChildIDs = %v, want both %d and %d", entry.ChildIDs, childA, childB)
	}

	// Re-joining with the same selection changes nothing
	again, err := f.roster.Join(playdateID, guardian, []int64{childA, childB})
	if err != nil {
		t.Fatalf("idempotent join failed: %v", err)
	}
	if len(again.ChildIDs) != 2 {
		t.Errorf("ChildIDs = %v after re-join, want two children", again.ChildIDs)
	}

	// The guardian still holds a single entry for the playdate
	entries, err := repository.NewParticipantRepository(f.db).GetForGuardian(guardian)
	if err != nil {
		t.Fatalf("failed to load guardian entries: %v", err)
	}
	if len(entries) != 1 || entries[0].PlaydateID != playdateID {
		t.Errorf("guardian entries = %+v, want one entry for playdate %d", entries, playdateID)
	}
}

func TestRosterRemovePromotesPrimary(t *testing.T) {
	f := newRosterFixture(t)

	host := f.createParent(t, "host@example.com", "Host")
	guardian := f.createParent(t, "guardian@example.com", "Guardian")
	childA := f.createChild(t, guardian, "Ada")
	childB := f.createChild(t, guardian, "Ben")
	playdateID := f.createPlaydate(t, host)

	if _, err := f.roster.Join(playdateID, guardian, []int64{childA, childB}); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	// Removing the primary child promotes the next one
	if err := f.roster.RemoveChild(playdateID, guardian, childA, guardian); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	participants := repository.NewParticipantRepository(f.db)
	entry, err := participants.GetByPlaydateAndGuardian(playdateID, guardian)
	if err != nil {
		t.Fatalf("failed to load entry: %v", err)
	}
	if entry == nil {
		t.Fatal("entry deleted after removing one of two children")
	}
	if entry.PrimaryChildID != childB {
		t.Errorf("PrimaryChildID = %d, want promoted child %d", entry.PrimaryChildID, childB)
	}

	// Removing the last child deletes the whole entry
	if err := f.roster.RemoveChild(playdateID, guardian, childB, guardian); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	entry, err = participants.GetByPlaydateAndGuardian(playdateID, guardian)
	if err != nil {
		t.Fatalf("failed to load entry: %v", err)
	}
	if entry != nil {
		t.Errorf("entry still present after removing last child: %+v", entry)
	}
}

func TestRosterRemoveAuthorization(t *testing.T) {
	f := newRosterFixture(t)

	host := f.createParent(t, "host@example.com", "Host")
	guardian := f.createParent(t, "guardian@example.com", "Guardian")
	stranger := f.createParent(t, "stranger@example.com", "Stranger")
	child := f.createChild(t, guardian, "Ada")
	playdateID := f.createPlaydate(t, host)

	if _, err := f.roster.Join(playdateID, guardian, []int64{child}); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	if err := f.roster.RemoveChild(playdateID, guardian, child, stranger); !errors.Is(err, ErrNotRosterOwner) {
		t.Errorf("stranger removal error = %v, want ErrNotRosterOwner", err)
	}

	// The host may remove another family's child
	if err := f.roster.RemoveChild(playdateID, guardian, child, host); err != nil {
		t.Errorf("host removal failed: %v", err)
	}
}

func TestRosterRejectsForeignChild(t *testing.T) {
	f := newRosterFixture(t)

	host := f.createParent(t, "host@example.com", "Host")
	guardian := f.createParent(t, "guardian@example.com", "Guardian")
	other := f.createParent(t, "other@example.com", "Other")
	foreignChild := f.createChild(t, other, "Zoe")
	playdateID := f.createPlaydate(t, host)

	if _, err := f.roster.Join(playdateID, guardian, []int64{foreignChild}); !errors.Is(err, ErrNotChildOwner) {
		t.Errorf("join with foreign child error = %v, want ErrNotChildOwner", err)
	}
}

func TestRosterAvailableChildren(t *testing.T) {
	f := newRosterFixture(t)

	host := f.createParent(t, "host@example.com", "Host")
	guardian := f.createParent(t, "guardian@example.com", "Guardian")
	childA := f.createChild(t, guardian, "Ada")
	childB := f.createChild(t, guardian, "Ben")
	playdateID := f.createPlaydate(t, host)

	if _, err := f.roster.Join(playdateID, guardian, []int64{childA}); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	available, err := f.roster.AvailableChildren(playdateID, guardian)
	if err != nil {
		t.Fatalf("AvailableChildren failed: %v", err)
	}
	if len(available) != 1 || available[0].ID != childB {
		t.Errorf("available = %v, want only child %d", available, childB)
	}
}

func TestRosterCapacityEnforced(t *testing.T) {
	f := newRosterFixture(t)

	host := f.createParent(t, "host@example.com", "Host")
	first := f.createParent(t, "first@example.com", "First")
	second := f.createParent(t, "second@example.com", "Second")
	firstChild := f.createChild(t, first, "Ada")
	secondChild := f.createChild(t, second, "Ben")

	playdates := repository.NewPlaydateRepository(f.db)
	participants := repository.NewParticipantRepository(f.db)
	enforced := NewRosterService(f.db, playdates, participants, f.children, true)

	playdateService := NewPlaydateService(playdates, participants, f.parents, NewLocationService(nil, time.Second, time.Minute), 10)
	playdate, err := playdateService.Create(host, "Small gathering", "", "",
		time.Now().Add(time.Hour), time.Now().Add(2*time.Hour), 1, nil, nil)
	if err != nil {
		t.Fatalf("failed to create playdate: %v", err)
	}

	if _, err := enforced.Join(playdate.ID, first, []int64{firstChild}); err != nil {
		t.Fatalf("first join failed: %v", err)
	}
	if _, err := enforced.Join(playdate.ID, second, []int64{secondChild}); !errors.Is(err, ErrPlaydateFull) {
		t.Errorf("second join error = %v, want ErrPlaydateFull", err)
	}

	// Existing families can still update their own entry when full
	if _, err := enforced.Join(playdate.ID, first, []int64{firstChild}); err != nil {
		t.Errorf("re-join by existing family failed: %v", err)
	}
}
