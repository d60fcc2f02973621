package conquest

import "sync"

// ProvinceCount is the number of provinces on the default map.
const ProvinceCount = 20

var (
	defaultMapOnce sync.Once
	defaultMapInst *WorldMap
)

// DefaultMap returns the standard 20-province map: a four-by-four
// continental grid ringed by four seas. The map is built once and cached;
// callers must not mutate the returned map.
func DefaultMap() *WorldMap {
	defaultMapOnce.Do(func() {
		defaultMapInst = buildDefaultMap()
	})
	return defaultMapInst
}

func buildDefaultMap() *WorldMap {
	provinces := make(map[string]*Province, ProvinceCount)
	adjacencies := make(map[string][]string, ProvinceCount)

	prov := func(id, name string, pt ProvinceType, stronghold bool, home Faction) {
		provinces[id] = &Province{
			ID:          id,
			Name:        name,
			Type:        pt,
			Stronghold:  stronghold,
			HomeFaction: home,
		}
	}

	// connect adds a bidirectional adjacency between two provinces.
	connect := func(a, b string) {
		adjacencies[a] = append(adjacencies[a], b)
		adjacencies[b] = append(adjacencies[b], a)
	}

	// Northern tier
	prov("nor", "Nordhold", Coastal, true, Aldren)
	prov("kel", "Keldra", Coastal, true, Nobody)
	prov("vys", "Vysmark", Coastal, false, Nobody)
	prov("tor", "Torvane", Coastal, true, Beryn)
	// Upper midlands
	prov("wes", "Westvale", Coastal, true, Aldren)
	prov("gly", "Glynmoor", Inland, false, Nobody)
	prov("har", "Harrow", Inland, false, Nobody)
	prov("ost", "Ostmere", Coastal, true, Beryn)
	// Lower midlands
	prov("bre", "Brevik", Coastal, false, Nobody)
	prov("mid", "Midreach", Inland, true, Nobody)
	prov("cal", "Caldera", Inland, true, Nobody)
	prov("dra", "Drakmoor", Coastal, true, Nobody)
	// Southern tier
	prov("sud", "Sudvale", Coastal, true, Corvath)
	prov("mor", "Morvane", Coastal, true, Corvath)
	prov("zan", "Zanfell", Coastal, true, Dazhan)
	prov("qar", "Qarath", Coastal, true, Dazhan)
	// Seas
	prov("nse", "Northern Sea", Ocean, false, Nobody)
	prov("wse", "Western Sea", Ocean, false, Nobody)
	prov("ese", "Eastern Sea", Ocean, false, Nobody)
	prov("sse", "Southern Sea", Ocean, false, Nobody)

	// Continental grid, west to east within each tier
	connect("nor", "kel")
	connect("kel", "vys")
	connect("vys", "tor")
	connect("wes", "gly")
	connect("gly", "har")
	connect("har", "ost")
	connect("bre", "mid")
	connect("mid", "cal")
	connect("cal", "dra")
	connect("sud", "mor")
	connect("mor", "zan")
	connect("zan", "qar")
	// North to south between tiers
	connect("nor", "wes")
	connect("kel", "gly")
	connect("vys", "har")
	connect("tor", "ost")
	connect("wes", "bre")
	connect("gly", "mid")
	connect("har", "cal")
	connect("ost", "dra")
	connect("bre", "sud")
	connect("mid", "mor")
	connect("cal", "zan")
	connect("dra", "qar")
	// Sea lanes along each coast
	connect("nse", "nor")
	connect("nse", "kel")
	connect("nse", "vys")
	connect("nse", "tor")
	connect("wse", "nor")
	connect("wse", "wes")
	connect("wse", "bre")
	connect("wse", "sud")
	connect("ese", "tor")
	connect("ese", "ost")
	connect("ese", "dra")
	connect("ese", "qar")
	connect("sse", "sud")
	connect("sse", "mor")
	connect("sse", "zan")
	connect("sse", "qar")
	// Open water between adjoining seas
	connect("nse", "wse")
	connect("nse", "ese")
	connect("sse", "wse")
	connect("sse", "ese")

	return NewWorldMap(provinces, adjacencies)
}
