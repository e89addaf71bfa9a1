package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"playdates/internal/database"
	"playdates/internal/models"
	"playdates/internal/repository"
)

type suggestionFixture struct {
	db          *database.DB
	parents     *repository.ParentRepository
	children    *repository.ChildRepository
	interests   *repository.InterestRepository
	connections *repository.ConnectionRepository
	suggestions *SuggestionService
}

func newSuggestionFixture(t *testing.T, limit int) *suggestionFixture {
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
	interests := repository.NewInterestRepository(db)
	connections := repository.NewConnectionRepository(db)
	location := NewLocationService(nil, time.Second, time.Minute)

	return &suggestionFixture{
		db:          db,
		parents:     parents,
		children:    children,
		interests:   interests,
		connections: connections,
		suggestions: NewSuggestionService(parents, children, interests, connections, location, limit, time.Minute),
	}
}

func (f *suggestionFixture) createApprovedParent(t *testing.T, email, name string) int64 {
	t.Helper()
	parent, err := f.parents.CreateParent(email, "hash", name)
	if err != nil {
		t.Fatalf("failed to create parent: %v", err)
	}
	if err := f.parents.SetApproved(parent.ID, true); err != nil {
		t.Fatalf("failed to approve parent: %v", err)
	}
	return parent.ID
}

func (f *suggestionFixture) connect(t *testing.T, requester, recipient int64, status string) {
	t.Helper()
	conn, err := f.connections.CreateConnection(requester, recipient)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	if status != models.ConnectionPending {
		if err := f.connections.UpdateConnectionStatus(conn.ID, status); err != nil {
			t.Fatalf("failed to update connection status: %v", err)
		}
	}
}

func (f *suggestionFixture) addChild(t *testing.T, parentID int64, name, age string, interests []string) {
	t.Helper()
	child, err := f.children.CreateChild(parentID, name, age, "")
	if err != nil {
		t.Fatalf("failed to create child: %v", err)
	}
	var ids []int64
	for _, interest := range interests {
		id, err := f.interests.UpsertByName(interest)
		if err != nil {
			t.Fatalf("failed to upsert interest: %v", err)
		}
		ids = append(ids, id)
	}
	if len(ids) > 0 {
		if err := f.interests.SetChildInterests(child.ID, ids); err != nil {
			t.Fatalf("failed to set child interests: %v", err)
		}
	}
}

func TestSuggestionsExcludeSelfAndConnectedParents(t *testing.T) {
	f := newSuggestionFixture(t, 10)
	ctx := context.Background()

	viewer := f.createApprovedParent(t, "viewer@example.com", "Viewer")
	accepted := f.createApprovedParent(t, "accepted@example.com", "Accepted")
	pending := f.createApprovedParent(t, "pending@example.com", "Pending")
	declined := f.createApprovedParent(t, "declined@example.com", "Declined")
	free := f.createApprovedParent(t, "free@example.com", "Free")

	// An unapproved signup never surfaces
	if _, err := f.parents.CreateParent("waiting@example.com", "hash", "Waiting"); err != nil {
		t.Fatalf("failed to create parent: %v", err)
	}

	f.connect(t, viewer, accepted, models.ConnectionAccepted)
	f.connect(t, pending, viewer, models.ConnectionPending)
	f.connect(t, viewer, declined, models.ConnectionDeclined)

	suggestions, err := f.suggestions.Suggestions(ctx, viewer)
	if err != nil {
		t.Fatalf("Suggestions failed: %v", err)
	}

	// With one eligible candidate the shuffle cannot hide it
	if len(suggestions) != 1 {
		t.Fatalf("len(suggestions) = %d, want 1: %+v", len(suggestions), suggestions)
	}
	if suggestions[0].ID != free {
		t.Errorf("suggestion ID = %d, want unconnected parent %d", suggestions[0].ID, free)
	}
}

func TestSuggestionSummaryFromChildren(t *testing.T) {
	f := newSuggestionFixture(t, 10)
	ctx := context.Background()

	viewer := f.createApprovedParent(t, "viewer@example.com", "Viewer")
	candidate := f.createApprovedParent(t, "candidate@example.com", "Dana")

	f.addChild(t, candidate, "Mia", "5", []string{"Art", "Music"})
	f.addChild(t, candidate, "Noah", "7", []string{"Art", "Sports"})
	// A third child's interests stay off the summary
	f.addChild(t, candidate, "Zoe", "3", []string{"Chess"})

	suggestions, err := f.suggestions.Suggestions(ctx, viewer)
	if err != nil {
		t.Fatalf("Suggestions failed: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("len(suggestions) = %d, want 1", len(suggestions))
	}

	got := suggestions[0]
	if got.ChildSummary != "Mia (5) +2 more" {
		t.Errorf("ChildSummary = %q, want %q", got.ChildSummary, "Mia (5) +2 more")
	}

	want := map[string]bool{"Art": true, "Music": true, "Sports": true}
	if len(got.Interests) != len(want) {
		t.Fatalf("Interests = %v, want %v", got.Interests, want)
	}
	for _, interest := range got.Interests {
		if !want[interest] {
			t.Errorf("unexpected interest %q in %v", interest, got.Interests)
		}
	}
	if got.Distance != nil {
		t.Errorf("Distance = %v without viewer location, want nil", *got.Distance)
	}
}

func TestSuggestionsCachedUntilInvalidated(t *testing.T) {
	f := newSuggestionFixture(t, 10)
	ctx := context.Background()

	viewer := f.createApprovedParent(t, "viewer@example.com", "Viewer")
	f.createApprovedParent(t, "first@example.com", "First")

	suggestions, err := f.suggestions.Suggestions(ctx, viewer)
	if err != nil {
		t.Fatalf("Suggestions failed: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("len(suggestions) = %d, want 1", len(suggestions))
	}

	// A parent approved after the first load stays hidden behind the
	// cached result until the cache entry is dropped
	f.createApprovedParent(t, "second@example.com", "Second")

	cached, err := f.suggestions.Suggestions(ctx, viewer)
	if err != nil {
		t.Fatalf("Suggestions failed: %v", err)
	}
	if len(cached) != 1 {
		t.Errorf("len(cached suggestions) = %d, want 1", len(cached))
	}

	f.suggestions.Invalidate(viewer)

	fresh, err := f.suggestions.Suggestions(ctx, viewer)
	if err != nil {
		t.Fatalf("Suggestions failed: %v", err)
	}
	if len(fresh) != 2 {
		t.Errorf("len(suggestions after invalidate) = %d, want 2", len(fresh))
	}
}

func TestSuggestionsLimited(t *testing.T) {
	f := newSuggestionFixture(t, 2)
	ctx := context.Background()

	viewer := f.createApprovedParent(t, "viewer@example.com", "Viewer")
	f.createApprovedParent(t, "a@example.com", "A")
	f.createApprovedParent(t, "b@example.com", "B")
	f.createApprovedParent(t, "c@example.com", "C")

	suggestions, err := f.suggestions.Suggestions(ctx, viewer)
	if err != nil {
		t.Fatalf("Suggestions failed: %v", err)
	}
	if len(suggestions) != 2 {
		t.Errorf("len(suggestions) = %d, want limit 2", len(suggestions))
	}
	for _, suggestion := range suggestions {
		if suggestion.ID == viewer {
			t.Error("viewer suggested to themselves")
		}
	}
}
