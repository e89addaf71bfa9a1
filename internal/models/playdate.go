package models

import "time"

// Playdate statuses. "completed" is derived from end time, never stored.
const (
	PlaydateActive    = "active"
	PlaydateCancelled = "cancelled"
	PlaydateCompleted = "completed"
)

// Coordinates is a latitude/longitude pair
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Playdate represents a playdate or event created by a parent or admin
type Playdate struct {
	ID              int64
	CreatorID       int64
	Title           string
	Description     string
	Location        string
	Latitude        *float64
	Longitude       *float64
	StartTime       time.Time
	EndTime         time.Time
	MaxParticipants int
	IsCancelled     bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Status derives the playdate status from cancellation and end time
func (p *Playdate) Status() string {
	if p.IsCancelled {
		return PlaydateCancelled
	}
	if time.Now().After(p.EndTime) {
		return PlaydateCompleted
	}
	return PlaydateActive
}

// IsPast reports whether the playdate has ended
func (p *Playdate) IsPast() bool {
	return time.Now().After(p.EndTime)
}

// HasCoordinates reports whether both geo coordinates are present
func (p *Playdate) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// PlaydateSummary is the view model the aggregator produces for each playdate
type PlaydateSummary struct {
	ID          int64
	Title       string
	Description string
	Date        string
	TimeRange   string
	Location    string
	Families    int
	Status      string
	HostName    string
	HostID      int64
	StartTime   time.Time
	EndTime     time.Time
	Latitude    *float64
	Longitude   *float64
	Distance    *float64
	IsFull      bool
}

// PlaydateBoard holds the four partitions returned by a board load
type PlaydateBoard struct {
	AllPlaydates    []PlaydateSummary
	MyPlaydates     []PlaydateSummary
	PastPlaydates   []PlaydateSummary
	NearbyPlaydates []PlaydateSummary
}
