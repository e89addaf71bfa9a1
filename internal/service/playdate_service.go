package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"playdates/internal/geo"
	"playdates/internal/models"
	"playdates/internal/repository"
	"playdates/internal/validation"
)

// Playdate errors
var (
	ErrPlaydateNotFound  = errors.New("playdate not found")
	ErrNotPlaydateHost   = errors.New("only the host can modify a playdate")
	ErrInvalidTimeRange  = errors.New("end time must be after start time")
	ErrPlaydateCancelled = errors.New("playdate is cancelled")
)

const unknownHostName = "Unknown Host"

const pastPlaydatesLimit = 50

// PlaydateService creates playdates and assembles the playdate board.
// A board load runs in stages (fetch, enrich, partition) and checks
// the context between stages so an abandoned request stops early.
type PlaydateService struct {
	playdates    *repository.PlaydateRepository
	participants *repository.ParticipantRepository
	parents      *repository.ParentRepository
	location     *LocationService
	nearbyRadius float64
}

// NewPlaydateService creates a new playdate service
func NewPlaydateService(
	playdates *repository.PlaydateRepository,
	participants *repository.ParticipantRepository,
	parents *repository.ParentRepository,
	location *LocationService,
	nearbyRadiusKm float64,
) *PlaydateService {
	return &PlaydateService{
		playdates:    playdates,
		participants: participants,
		parents:      parents,
		location:     location,
		nearbyRadius: nearbyRadiusKm,
	}
}

// Create validates and stores a new playdate
func (s *PlaydateService) Create(creatorID int64, title, description, location string, start, end time.Time, maxParticipants int, lat, lon *float64) (*models.Playdate, error) {
	if err := validation.ValidateName(title); err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, ErrInvalidTimeRange
	}
	if lat != nil && lon != nil {
		if err := validation.ValidateCoordinates(*lat, *lon); err != nil {
			return nil, err
		}
	}

	playdate := &models.Playdate{
		CreatorID:       creatorID,
		Title:           title,
		Description:     description,
		Location:        location,
		StartTime:       start,
		EndTime:         end,
		MaxParticipants: maxParticipants,
	}
	if s.playdates.HasGeoColumns() {
		playdate.Latitude = lat
		playdate.Longitude = lon
	}

	id, err := s.playdates.CreatePlaydate(playdate)
	if err != nil {
		return nil, err
	}
	playdate.ID = id
	return playdate, nil
}

// Update modifies a playdate; only the host may update
func (s *PlaydateService) Update(parentID int64, updated *models.Playdate) error {
	existing, err := s.hostedPlaydate(parentID, updated.ID)
	if err != nil {
		return err
	}
	if existing.IsCancelled {
		return ErrPlaydateCancelled
	}
	if !updated.EndTime.After(updated.StartTime) {
		return ErrInvalidTimeRange
	}
	return s.playdates.UpdatePlaydate(updated)
}

// Cancel marks a playdate as cancelled; only the host may cancel
func (s *PlaydateService) Cancel(parentID, playdateID int64) error {
	if _, err := s.hostedPlaydate(parentID, playdateID); err != nil {
		return err
	}
	return s.playdates.CancelPlaydate(playdateID)
}

// Get retrieves a playdate with its roster
func (s *PlaydateService) Get(playdateID int64) (*models.Playdate, []models.Participant, error) {
	playdate, err := s.playdates.GetPlaydateByID(playdateID)
	if err != nil {
		return nil, nil, err
	}
	if playdate == nil {
		return nil, nil, ErrPlaydateNotFound
	}
	roster, err := s.participants.GetForPlaydate(playdateID)
	if err != nil {
		return nil, nil, err
	}
	return playdate, roster, nil
}

func (s *PlaydateService) hostedPlaydate(parentID, playdateID int64) (*models.Playdate, error) {
	playdate, err := s.playdates.GetPlaydateByID(playdateID)
	if err != nil {
		return nil, err
	}
	if playdate == nil {
		return nil, ErrPlaydateNotFound
	}
	if playdate.CreatorID != parentID {
		return nil, ErrNotPlaydateHost
	}
	return playdate, nil
}

// LoadBoard assembles the four board partitions for a viewer
func (s *PlaydateService) LoadBoard(ctx context.Context, viewerID int64) (*models.PlaydateBoard, error) {
	now := time.Now()

	upcoming, err := s.playdates.GetUpcomingPlaydates(now)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	past, err := s.playdates.GetPastPlaydates(now, pastPlaydatesLimit)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all := append(append([]models.Playdate{}, upcoming...), past...)

	ids := make([]int64, len(all))
	for i, p := range all {
		ids[i] = p.ID
	}
	counts, err := s.participants.CountsByPlaydate(ids)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hostNames, err := s.hostNames(all)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	board := &models.PlaydateBoard{}
	for _, playdate := range upcoming {
		summary := buildSummary(&playdate, counts[playdate.ID], hostNames)
		board.AllPlaydates = append(board.AllPlaydates, summary)
		if playdate.CreatorID == viewerID {
			board.MyPlaydates = append(board.MyPlaydates, summary)
		}
	}
	for _, playdate := range past {
		summary := buildSummary(&playdate, counts[playdate.ID], hostNames)
		board.PastPlaydates = append(board.PastPlaydates, summary)
	}

	// Distance and the nearby partition are best effort: no viewer
	// location means no distances and an empty partition
	viewerCoords, err := s.location.Resolve(ctx, viewerID)
	if err == nil && viewerCoords != nil {
		attachDistances(board.AllPlaydates, *viewerCoords)
		attachDistances(board.MyPlaydates, *viewerCoords)
		attachDistances(board.PastPlaydates, *viewerCoords)
		board.NearbyPlaydates = nearbySummaries(board.AllPlaydates, s.nearbyRadius)
	}

	return board, nil
}

func (s *PlaydateService) hostNames(playdates []models.Playdate) (map[int64]string, error) {
	idSet := make(map[int64]bool)
	var ids []int64
	for _, p := range playdates {
		if !idSet[p.CreatorID] {
			idSet[p.CreatorID] = true
			ids = append(ids, p.CreatorID)
		}
	}

	hosts, err := s.parents.GetParentsByIDs(ids)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(hosts))
	for _, host := range hosts {
		names[host.ID] = host.Name
	}
	return names, nil
}

// buildSummary converts a playdate row into its board view model.
// A host whose account no longer resolves displays as "Unknown Host".
func buildSummary(p *models.Playdate, families int, hostNames map[int64]string) models.PlaydateSummary {
	hostName, ok := hostNames[p.CreatorID]
	if !ok {
		hostName = unknownHostName
	}

	return models.PlaydateSummary{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Date:        p.StartTime.Format("Jan 2, 2006"),
		TimeRange:   formatTimeRange(p.StartTime, p.EndTime),
		Location:    p.Location,
		Families:    families,
		Status:      p.Status(),
		HostName:    hostName,
		HostID:      p.CreatorID,
		StartTime:   p.StartTime,
		EndTime:     p.EndTime,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		IsFull:      p.MaxParticipants > 0 && families >= p.MaxParticipants,
	}
}

// formatTimeRange renders "3:04 PM - 5:30 PM"
func formatTimeRange(start, end time.Time) string {
	return start.Format("3:04 PM") + " - " + end.Format("3:04 PM")
}

// attachDistances sets the distance from the viewer on every summary
// carrying coordinates; summaries without coordinates keep a nil
// distance
func attachDistances(summaries []models.PlaydateSummary, viewer models.Coordinates) {
	for i := range summaries {
		if summaries[i].Latitude == nil || summaries[i].Longitude == nil {
			continue
		}
		d := geo.DistanceKm(viewer.Latitude, viewer.Longitude, *summaries[i].Latitude, *summaries[i].Longitude)
		summaries[i].Distance = &d
	}
}

// nearbySummaries filters summaries with an attached distance to those
// within radiusKm and sorts them nearest first. The sort is stable so
// equidistant playdates keep their start-time order.
func nearbySummaries(summaries []models.PlaydateSummary, radiusKm float64) []models.PlaydateSummary {
	var nearby []models.PlaydateSummary
	for _, summary := range summaries {
		if summary.Distance != nil && *summary.Distance <= radiusKm {
			nearby = append(nearby, summary)
		}
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return *nearby[i].Distance < *nearby[j].Distance
	})
	return nearby
}
