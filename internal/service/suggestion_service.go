package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"playdates/internal/geo"
	"playdates/internal/models"
	"playdates/internal/repository"
)

type cachedSuggestions struct {
	suggestions []models.SuggestedConnection
	expiresAt   time.Time
}

// SuggestionService surfaces candidate parents to connect with. Picks
// are uniformly random among eligible candidates and cached per viewer
// for a short TTL so the board does not reshuffle on every load.
type SuggestionService struct {
	parents     *repository.ParentRepository
	children    *repository.ChildRepository
	interests   *repository.InterestRepository
	connections *repository.ConnectionRepository
	location    *LocationService
	limit       int
	cacheTTL    time.Duration

	mu    sync.Mutex
	cache map[int64]cachedSuggestions
}

// NewSuggestionService creates a new suggestion service
func NewSuggestionService(
	parents *repository.ParentRepository,
	children *repository.ChildRepository,
	interests *repository.InterestRepository,
	connections *repository.ConnectionRepository,
	location *LocationService,
	limit int,
	cacheTTL time.Duration,
) *SuggestionService {
	return &SuggestionService{
		parents:     parents,
		children:    children,
		interests:   interests,
		connections: connections,
		location:    location,
		limit:       limit,
		cacheTTL:    cacheTTL,
		cache:       make(map[int64]cachedSuggestions),
	}
}

// Suggestions returns up to the configured number of candidate
// connections for the viewer. Excluded: the viewer themselves and any
// parent they already have a connection row with, in any status.
func (s *SuggestionService) Suggestions(ctx context.Context, viewerID int64) ([]models.SuggestedConnection, error) {
	s.mu.Lock()
	if entry, ok := s.cache[viewerID]; ok && time.Now().Before(entry.expiresAt) {
		suggestions := entry.suggestions
		s.mu.Unlock()
		return suggestions, nil
	}
	s.mu.Unlock()

	candidates, err := s.parents.GetApprovedParents()
	if err != nil {
		return nil, err
	}

	connections, err := s.connections.GetConnectionsForParent(viewerID, "")
	if err != nil {
		return nil, err
	}
	excluded := make(map[int64]bool, len(connections)+1)
	excluded[viewerID] = true
	for _, conn := range connections {
		excluded[conn.OtherParty(viewerID)] = true
	}

	eligible := filterCandidates(candidates, excluded)
	rand.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})
	if len(eligible) > s.limit {
		eligible = eligible[:s.limit]
	}

	viewerCoords, err := s.location.Resolve(ctx, viewerID)
	if err != nil {
		// Distance is decoration; suggestions still work without it
		viewerCoords = nil
	}

	suggestions := make([]models.SuggestedConnection, 0, len(eligible))
	for _, candidate := range eligible {
		suggestion, err := s.buildSuggestion(ctx, candidate, viewerCoords)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, suggestion)
	}

	s.mu.Lock()
	s.cache[viewerID] = cachedSuggestions{
		suggestions: suggestions,
		expiresAt:   time.Now().Add(s.cacheTTL),
	}
	s.mu.Unlock()

	return suggestions, nil
}

// Invalidate drops a viewer's cached suggestions, used after their
// connection set changes
func (s *SuggestionService) Invalidate(viewerID int64) {
	s.mu.Lock()
	delete(s.cache, viewerID)
	s.mu.Unlock()
}

// Sweep removes expired cache entries; run periodically from the server
func (s *SuggestionService) Sweep() {
	now := time.Now()
	s.mu.Lock()
	for id, entry := range s.cache {
		if now.After(entry.expiresAt) {
			delete(s.cache, id)
		}
	}
	s.mu.Unlock()
}

func (s *SuggestionService) buildSuggestion(ctx context.Context, candidate models.Parent, viewerCoords *models.Coordinates) (models.SuggestedConnection, error) {
	children, err := s.children.GetParentChildren(candidate.ID)
	if err != nil {
		return models.SuggestedConnection{}, err
	}

	interests, err := s.collectChildInterests(children)
	if err != nil {
		return models.SuggestedConnection{}, err
	}

	suggestion := models.SuggestedConnection{
		ID:           candidate.ID,
		Name:         candidate.Name,
		City:         candidate.City,
		ChildSummary: childSummary(children),
		Interests:    interests,
	}

	if viewerCoords != nil {
		if candidateCoords, err := s.location.Resolve(ctx, candidate.ID); err == nil && candidateCoords != nil {
			d := geo.DistanceKm(viewerCoords.Latitude, viewerCoords.Longitude, candidateCoords.Latitude, candidateCoords.Longitude)
			suggestion.Distance = &d
		}
	}

	return suggestion, nil
}

// collectChildInterests gathers deduplicated interests from the first
// two children, preserving first-seen order
func (s *SuggestionService) collectChildInterests(children []models.Child) ([]string, error) {
	var interests []string
	seen := make(map[string]bool)
	for i, child := range children {
		if i >= 2 {
			break
		}
		names, err := s.interests.GetChildInterestNames(child.ID)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				interests = append(interests, name)
			}
		}
	}
	return interests, nil
}

// filterCandidates drops excluded parents from the candidate pool
func filterCandidates(candidates []models.Parent, excluded map[int64]bool) []models.Parent {
	eligible := make([]models.Parent, 0, len(candidates))
	for _, candidate := range candidates {
		if !excluded[candidate.ID] {
			eligible = append(eligible, candidate)
		}
	}
	return eligible
}

// childSummary formats a candidate's children as "Name (age)" with a
// "+N more" suffix when there are several
func childSummary(children []models.Child) string {
	if len(children) == 0 {
		return ""
	}
	first := children[0].Name
	if children[0].Age != "" {
		first = fmt.Sprintf("%s (%s)", first, children[0].Age)
	}
	if len(children) == 1 {
		return first
	}
	return fmt.Sprintf("%s +%d more", first, len(children)-1)
}
