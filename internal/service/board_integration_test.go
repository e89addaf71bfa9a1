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

func TestLoadBoardPartitions(t *testing.T) {
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
	playdateRepo := repository.NewPlaydateRepository(db)
	participants := repository.NewParticipantRepository(db)
	location := NewLocationService(nil, time.Second, time.Minute)
	playdates := NewPlaydateService(playdateRepo, participants, parents, location, 10)
	roster := NewRosterService(db, playdateRepo, participants, children, false)

	host, err := parents.CreateParent("host@example.com", "hash", "Dana")
	if err != nil {
		t.Fatalf("failed to create host: %v", err)
	}
	viewer, err := parents.CreateParent("viewer@example.com", "hash", "Viewer")
	if err != nil {
		t.Fatalf("failed to create viewer: %v", err)
	}
	child, err := children.CreateChild(viewer.ID, "Ada", "6", "")
	if err != nil {
		t.Fatalf("failed to create child: %v", err)
	}

	now := time.Now()

	joined, err := playdates.Create(host.ID, "Joined playdate", "", "Park", now.Add(2*time.Hour), now.Add(4*time.Hour), 0, nil, nil)
	if err != nil {
		t.Fatalf("failed to create playdate: %v", err)
	}
	if _, err := playdates.Create(host.ID, "Other playdate", "", "Library", now.Add(24*time.Hour), now.Add(26*time.Hour), 0, nil, nil); err != nil {
		t.Fatalf("failed to create playdate: %v", err)
	}
	hosted, err := playdates.Create(viewer.ID, "My own playdate", "", "Museum", now.Add(48*time.Hour), now.Add(50*time.Hour), 0, nil, nil)
	if err != nil {
		t.Fatalf("failed to create playdate: %v", err)
	}
	past, err := playdates.Create(host.ID, "Past playdate", "", "Beach", now.Add(-4*time.Hour), now.Add(-2*time.Hour), 0, nil, nil)
	if err != nil {
		t.Fatalf("failed to create playdate: %v", err)
	}
	cancelled, err := playdates.Create(host.ID, "Cancelled playdate", "", "Zoo", now.Add(3*time.Hour), now.Add(5*time.Hour), 0, nil, nil)
	if err != nil {
		t.Fatalf("failed to create playdate: %v", err)
	}
	if err := playdates.Cancel(host.ID, cancelled.ID); err != nil {
		t.Fatalf("failed to cancel playdate: %v", err)
	}
	cancelledPast, err := playdates.Create(host.ID, "Cancelled past playdate", "", "Pool", now.Add(-8*time.Hour), now.Add(-6*time.Hour), 0, nil, nil)
	if err != nil {
		t.Fatalf("failed to create playdate: %v", err)
	}
	if err := playdates.Cancel(host.ID, cancelledPast.ID); err != nil {
		t.Fatalf("failed to cancel playdate: %v", err)
	}

	if _, err := roster.Join(joined.ID, viewer.ID, []int64{child.ID}); err != nil {
		t.Fatalf("failed to join playdate: %v", err)
	}

	board, err := playdates.LoadBoard(context.Background(), viewer.ID)
	if err != nil {
		t.Fatalf("LoadBoard failed: %v", err)
	}

	// Cancelled playdates drop out of upcoming only; the rest split by
	// end time
	if len(board.AllPlaydates) != 3 {
		t.Errorf("len(AllPlaydates) = %d, want 3", len(board.AllPlaydates))
	}
	for _, summary := range board.AllPlaydates {
		if summary.ID == cancelled.ID {
			t.Error("cancelled playdate in the upcoming partition")
		}
	}

	// Upcoming sorts soonest first
	if len(board.AllPlaydates) == 3 && board.AllPlaydates[0].ID != joined.ID {
		t.Errorf("AllPlaydates[0].ID = %d, want soonest %d", board.AllPlaydates[0].ID, joined.ID)
	}

	// Mine holds only the playdates the viewer created; joining
	// someone else's playdate does not claim it
	if len(board.MyPlaydates) != 1 || board.MyPlaydates[0].ID != hosted.ID {
		t.Errorf("MyPlaydates = %+v, want only hosted playdate %d", board.MyPlaydates, hosted.ID)
	}

	// Past keeps cancelled playdates that have since ended
	if len(board.PastPlaydates) != 2 {
		t.Fatalf("len(PastPlaydates) = %d, want 2", len(board.PastPlaydates))
	}
	if board.PastPlaydates[0].ID != past.ID || board.PastPlaydates[1].ID != cancelledPast.ID {
		t.Errorf("PastPlaydates ids = [%d, %d], want [%d, %d]",
			board.PastPlaydates[0].ID, board.PastPlaydates[1].ID, past.ID, cancelledPast.ID)
	}

	// Families counts roster entries, not children
	for _, summary := range board.AllPlaydates {
		want := 0
		if summary.ID == joined.ID {
			want = 1
		}
		if summary.Families != want {
			t.Errorf("playdate %d Families = %d, want %d", summary.ID, summary.Families, want)
		}
	}

	// Host names resolve
	for _, summary := range board.AllPlaydates {
		if summary.ID == hosted.ID {
			if summary.HostName != "Viewer" {
				t.Errorf("hosted HostName = %q, want %q", summary.HostName, "Viewer")
			}
		} else if summary.HostName != "Dana" {
			t.Errorf("HostName = %q, want %q", summary.HostName, "Dana")
		}
	}

	// No known viewer location means an empty nearby partition
	if len(board.NearbyPlaydates) != 0 {
		t.Errorf("len(NearbyPlaydates) = %d without viewer location, want 0", len(board.NearbyPlaydates))
	}
}

func TestLoadBoardNearbyWithLocation(t *testing.T) {
	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	parents := repository.NewParentRepository(db)
	playdateRepo := repository.NewPlaydateRepository(db)
	participants := repository.NewParticipantRepository(db)
	location := NewLocationService(nil, time.Second, time.Minute)
	playdates := NewPlaydateService(playdateRepo, participants, parents, location, 10)

	host, err := parents.CreateParent("host@example.com", "hash", "Dana")
	if err != nil {
		t.Fatalf("failed to create host: %v", err)
	}

	now := time.Now()
	nearLat, nearLon := 43.66, -79.39
	farLat, farLon := 44.5, -80.0

	near, err := playdates.Create(host.ID, "Near", "", "Park", now.Add(time.Hour), now.Add(2*time.Hour), 0, &nearLat, &nearLon)
	if err != nil {
		t.Fatalf("failed to create playdate: %v", err)
	}
	if _, err := playdates.Create(host.ID, "Far", "", "Cottage", now.Add(time.Hour), now.Add(2*time.Hour), 0, &farLat, &farLon); err != nil {
		t.Fatalf("failed to create playdate: %v", err)
	}

	location.Report(host.ID, models.Coordinates{Latitude: 43.6532, Longitude: -79.3832})

	board, err := playdates.LoadBoard(context.Background(), host.ID)
	if err != nil {
		t.Fatalf("LoadBoard failed: %v", err)
	}

	if len(board.NearbyPlaydates) != 1 {
		t.Fatalf("len(NearbyPlaydates) = %d, want 1", len(board.NearbyPlaydates))
	}
	if board.NearbyPlaydates[0].ID != near.ID {
		t.Errorf("NearbyPlaydates[0].ID = %d, want %d", board.NearbyPlaydates[0].ID, near.ID)
	}
	if board.NearbyPlaydates[0].Distance == nil {
		t.Error("Distance not set on nearby playdate")
	}

	// Every record with coordinates carries a distance, not just the
	// nearby copies
	for _, summary := range board.AllPlaydates {
		if summary.Distance == nil {
			t.Errorf("Distance not set on playdate %d in the All partition", summary.ID)
		} else if summary.ID == near.ID && *summary.Distance > 10 {
			t.Errorf("near playdate distance = %.2f km, want within radius", *summary.Distance)
		}
	}
}
