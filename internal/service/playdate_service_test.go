package service

import (
	"testing"
	"time"

	"playdates/internal/models"
)

func TestBuildSummary(t *testing.T) {
	start := time.Date(2026, time.March, 14, 15, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	playdate := &models.Playdate{
		ID:              7,
		CreatorID:       3,
		Title:           "Park afternoon",
		Location:        "Riverside Park",
		StartTime:       start,
		EndTime:         end,
		MaxParticipants: 4,
	}
	hostNames := map[int64]string{3: "Dana"}

	summary := buildSummary(playdate, 2, hostNames)

	if summary.Date != "Mar 14, 2026" {
		t.Errorf("Date = %q, want %q", summary.Date, "Mar 14, 2026")
	}
	if summary.TimeRange != "3:00 PM - 4:30 PM" {
		t.Errorf("TimeRange = %q, want %q", summary.TimeRange, "3:00 PM - 4:30 PM")
	}
	if summary.HostName != "Dana" {
		t.Errorf("HostName = %q, want %q", summary.HostName, "Dana")
	}
	if summary.Families != 2 {
		t.Errorf("Families = %d, want 2", summary.Families)
	}
	if summary.IsFull {
		t.Error("IsFull = true for 2 of 4 entries")
	}

	full := buildSummary(playdate, 4, hostNames)
	if !full.IsFull {
		t.Error("IsFull = false for 4 of 4 entries")
	}
}

func TestBuildSummaryUnknownHost(t *testing.T) {
	playdate := &models.Playdate{
		ID:        1,
		CreatorID: 99,
		StartTime: time.Now(),
		EndTime:   time.Now().Add(time.Hour),
	}

	summary := buildSummary(playdate, 0, map[int64]string{})
	if summary.HostName != "Unknown Host" {
		t.Errorf("HostName = %q, want %q", summary.HostName, "Unknown Host")
	}
}

func TestBuildSummaryNoCapacity(t *testing.T) {
	playdate := &models.Playdate{
		StartTime:       time.Now(),
		EndTime:         time.Now().Add(time.Hour),
		MaxParticipants: 0,
	}

	summary := buildSummary(playdate, 50, map[int64]string{})
	if summary.IsFull {
		t.Error("IsFull = true with no capacity limit")
	}
}

func TestNearbySummaries(t *testing.T) {
	coord := func(lat, lon float64) (*float64, *float64) {
		return &lat, &lon
	}

	// Viewer in central Toronto
	viewer := models.Coordinates{Latitude: 43.6532, Longitude: -79.3832}

	var summaries []models.PlaydateSummary

	near := models.PlaydateSummary{ID: 1, Title: "near"}
	near.Latitude, near.Longitude = coord(43.66, -79.39) // ~0.9 km
	summaries = append(summaries, near)

	far := models.PlaydateSummary{ID: 2, Title: "far"}
	far.Latitude, far.Longitude = coord(44.5, -80.0) // ~100 km
	summaries = append(summaries, far)

	noGeo := models.PlaydateSummary{ID: 3, Title: "no coordinates"}
	summaries = append(summaries, noGeo)

	nearer := models.PlaydateSummary{ID: 4, Title: "nearer"}
	nearer.Latitude, nearer.Longitude = coord(43.654, -79.384) // ~0.1 km
	summaries = append(summaries, nearer)

	attachDistances(summaries, viewer)
	for _, summary := range summaries {
		if summary.ID == noGeo.ID {
			if summary.Distance != nil {
				t.Error("Distance set on playdate without coordinates")
			}
		} else if summary.Distance == nil {
			t.Errorf("Distance not set on playdate %d", summary.ID)
		}
	}

	nearby := nearbySummaries(summaries, 10)

	if len(nearby) != 2 {
		t.Fatalf("len(nearby) = %d, want 2", len(nearby))
	}
	if nearby[0].ID != 4 || nearby[1].ID != 1 {
		t.Errorf("nearby order = [%d, %d], want [4, 1]", nearby[0].ID, nearby[1].ID)
	}
	for _, summary := range nearby {
		if summary.Distance == nil {
			t.Errorf("Distance not set on playdate %d", summary.ID)
		} else if *summary.Distance > 10 {
			t.Errorf("playdate %d distance %.2f km exceeds radius", summary.ID, *summary.Distance)
		}
	}
}

func TestNearbySummariesEmptyWhenNoneInRange(t *testing.T) {
	lat, lon := 10.0, 10.0
	summaries := []models.PlaydateSummary{
		{ID: 1, Latitude: &lat, Longitude: &lon},
	}
	viewer := models.Coordinates{Latitude: 43.65, Longitude: -79.38}

	attachDistances(summaries, viewer)
	if nearby := nearbySummaries(summaries, 10); len(nearby) != 0 {
		t.Errorf("len(nearby) = %d, want 0", len(nearby))
	}
}
