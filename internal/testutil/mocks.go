// Package testutil - In-memory mocks for the external interfaces
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sowhan/seavoyage/internal/database"
	"github.com/sowhan/seavoyage/internal/models"
	"github.com/sowhan/seavoyage/pkg/geo"
)

// MemoryPortStore implements database.PortStore over a fixed port slice.
// FailNext injects transient failures per operation to exercise the
// upstream-failure and stale-snapshot paths; the store itself does not retry.
type MemoryPortStore struct {
	mu    sync.Mutex
	ports map[string]models.Port

	// FailNext[op] holds the number of upcoming calls that will fail
	FailNext map[string]int

	// Calls counts invocations per operation
	Calls map[string]int
}

// NewMemoryPortStore creates a store over the given fixture ports
func NewMemoryPortStore(ports []models.Port) *MemoryPortStore {
	byCode := make(map[string]models.Port, len(ports))
	for _, p := range ports {
		byCode[p.UNLocode] = p
	}
	return &MemoryPortStore{
		ports:    byCode,
		FailNext: map[string]int{},
		Calls:    map[string]int{},
	}
}

var _ database.PortStore = (*MemoryPortStore)(nil)

// SetStatus overrides the operational status of a fixture port
func (s *MemoryPortStore) SetStatus(unlocode string, status models.OperationalStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	port := s.ports[unlocode]
	port.OperationalStatus = status
	s.ports[unlocode] = port
}

func (s *MemoryPortStore) fail(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls[op]++
	if s.FailNext[op] > 0 {
		s.FailNext[op]--
		return fmt.Errorf("injected %s failure", op)
	}
	return nil
}

// GetPort returns the fixture port or (nil, nil)
func (s *MemoryPortStore) GetPort(ctx context.Context, unlocode string) (*models.Port, error) {
	if err := s.fail("get_port"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if port, ok := s.ports[strings.ToUpper(unlocode)]; ok {
		copied := port
		return &copied, nil
	}
	return nil, nil
}

// SearchPorts applies the fixed relevance ladder in memory
func (s *MemoryPortStore) SearchPorts(ctx context.Context, query string, limit int, opts database.SearchOptions) ([]models.PortSearchResult, error) {
	if err := s.fail("search_ports"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var results []models.PortSearchResult
	for _, port := range s.ports {
		if !opts.IncludeInactive && !port.IsActive() {
			continue
		}
		if opts.Country != "" && !strings.EqualFold(port.Country, opts.Country) {
			continue
		}
		if opts.Vessel != nil && !port.IsCompatibleWithVessel(
			opts.Vessel.LengthMeters, opts.Vessel.BeamMeters, opts.Vessel.DraftMeters) {
			continue
		}

		relevance := database.SearchRelevance(query, &port)
		if relevance <= 30 && !matchesLoosely(query, &port) {
			continue
		}
		copied := port
		results = append(results, models.PortSearchResult{Port: copied, RelevanceScore: relevance})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].RelevanceScore != results[j].RelevanceScore {
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
		return results[i].Port.Name < results[j].Port.Name
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func matchesLoosely(query string, port *models.Port) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(port.Name), q) ||
		strings.Contains(strings.ToLower(port.Country), q) ||
		strings.Contains(port.UNLocode, strings.ToUpper(query))
}

// NearbyPorts ranks active ports by great-circle distance
func (s *MemoryPortStore) NearbyPorts(ctx context.Context, center geo.Coordinates, radiusNM float64, limit int, vessel *models.VesselConstraints) ([]models.PortSearchResult, error) {
	if err := s.fail("nearby_ports"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var results []models.PortSearchResult
	for _, port := range s.ports {
		if !port.IsActive() {
			continue
		}
		if vessel != nil && !port.IsCompatibleWithVessel(
			vessel.LengthMeters, vessel.BeamMeters, vessel.DraftMeters) {
			continue
		}
		dist := geo.Distance(center, port.Coordinates)
		if dist > radiusNM {
			continue
		}
		d := dist
		copied := port
		results = append(results, models.PortSearchResult{
			Port:           copied,
			RelevanceScore: 100 - minFloat(dist/radiusNM*50, 50),
			DistanceNM:     &d,
		})
	}

	sort.Slice(results, func(i, j int) bool { return *results[i].DistanceNM < *results[j].DistanceNM })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ListActivePorts returns the active fixture ports sorted by code
func (s *MemoryPortStore) ListActivePorts(ctx context.Context) ([]models.Port, error) {
	if err := s.fail("list_active_ports"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var ports []models.Port
	for _, port := range s.ports {
		if port.IsActive() {
			ports = append(ports, port)
		}
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i].UNLocode < ports[j].UNLocode })
	return ports, nil
}

// Statistics summarizes the fixture set
func (s *MemoryPortStore) Statistics(ctx context.Context) (*models.PortStatistics, error) {
	if err := s.fail("statistics"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats := models.PortStatistics{TotalPorts: len(s.ports)}
	countries := map[string]bool{}
	types := map[models.PortType]bool{}
	for _, port := range s.ports {
		if port.IsActive() {
			stats.ActivePorts++
		}
		countries[port.Country] = true
		types[port.PortType] = true
	}
	stats.Countries = len(countries)
	stats.PortTypes = len(types)
	return &stats, nil
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// MemorySharedCache is a map-backed SharedCache with TTL support and
// optional failure injection
type MemorySharedCache struct {
	mu      sync.Mutex
	entries map[string]memoryCacheEntry

	// Broken makes every operation fail, exercising graceful degradation
	Broken bool

	// Sets and Gets count operations
	Sets int
	Gets int
}

type memoryCacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemorySharedCache creates an empty in-memory shared cache
func NewMemorySharedCache() *MemorySharedCache {
	return &MemorySharedCache{entries: map[string]memoryCacheEntry{}}
}

// Get returns the stored value if present and unexpired
func (c *MemorySharedCache) Get(ctx context.Context, namespace, identifier string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Gets++
	if c.Broken {
		return nil, false
	}

	entry, ok := c.entries[namespace+":"+identifier]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

// Set stores a value with TTL
func (c *MemorySharedCache) Set(ctx context.Context, namespace, identifier string, value []byte, ttlSeconds int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sets++
	if c.Broken {
		return false
	}

	c.entries[namespace+":"+identifier] = memoryCacheEntry{
		value:     append([]byte{}, value...),
		expiresAt: time.Now().Add(time.Duration(ttlSeconds) * time.Second),
	}
	return true
}

// Delete removes a value
func (c *MemorySharedCache) Delete(ctx context.Context, namespace, identifier string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Broken {
		return false
	}
	delete(c.entries, namespace+":"+identifier)
	return true
}

// Health reports availability
func (c *MemorySharedCache) Health(ctx context.Context) bool {
	return !c.Broken
}

// Len returns the live entry count
func (c *MemorySharedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
