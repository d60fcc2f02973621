package conquest

// ProvinceType classifies a province as inland, ocean, or coastal.
type ProvinceType int

const (
	Inland  ProvinceType = iota // Interior province (land units only)
	Ocean                       // Open water (sea units only)
	Coastal                     // Shoreline province (either kind)
)

// Province represents a single province on the world map.
type Province struct {
	ID          string
	Name        string
	Type        ProvinceType
	Stronghold  bool    // Counts toward victory when occupied
	HomeFaction Faction // Faction whose home province this is ("" if neutral)
}

// WorldMap holds the province graph: nodes, edges, and precomputed
// all-pairs shortest-path distances.
type WorldMap struct {
	Provinces   map[string]*Province
	Adjacencies map[string][]string // keyed by province ID
	distances   map[string]map[string]int
}

// NewWorldMap builds a WorldMap from provinces and an adjacency list,
// precomputing shortest-path distances between every pair of provinces.
func NewWorldMap(provinces map[string]*Province, adjacencies map[string][]string) *WorldMap {
	m := &WorldMap{
		Provinces:   provinces,
		Adjacencies: adjacencies,
	}
	m.distances = make(map[string]map[string]int, len(provinces))
	for id := range provinces {
		m.distances[id] = m.bfs(id)
	}
	return m
}

// HasProvince returns true if the province ID exists on the map.
func (m *WorldMap) HasProvince(id string) bool {
	_, ok := m.Provinces[id]
	return ok
}

// Adjacent returns true if dst is directly reachable from src.
func (m *WorldMap) Adjacent(src, dst string) bool {
	for _, n := range m.Adjacencies[src] {
		if n == dst {
			return true
		}
	}
	return false
}

// Neighbors returns the provinces directly reachable from the given province.
func (m *WorldMap) Neighbors(id string) []string {
	return m.Adjacencies[id]
}

// Distance returns the shortest-path distance between two provinces,
// or -1 if no path exists.
func (m *WorldMap) Distance(from, to string) int {
	if d, ok := m.distances[from][to]; ok {
		return d
	}
	return -1
}

// CanOccupy returns true if a unit of the given kind may occupy the province.
func (m *WorldMap) CanOccupy(kind UnitKind, provID string) bool {
	p, ok := m.Provinces[provID]
	if !ok {
		return false
	}
	switch p.Type {
	case Inland:
		return kind == LandUnit
	case Ocean:
		return kind == SeaUnit
	default:
		return true
	}
}

// bfs computes shortest-path distances from a single province.
func (m *WorldMap) bfs(start string) map[string]int {
	dist := map[string]int{start: 0}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range m.Adjacencies[cur] {
			if _, seen := dist[n]; !seen {
				dist[n] = dist[cur] + 1
				queue = append(queue, n)
			}
		}
	}
	return dist
}
