package domain

// NoRegionFilter is the region name that disables geographic filtering.
// Any name missing from the registry behaves the same way.
const NoRegionFilter = "none"

// RegionBounds is a named latitude/longitude rectangle. Bounds are inclusive.
type RegionBounds struct {
	Name  string  `json:"name"`
	North float64 `json:"north"`
	South float64 `json:"south"`
	West  float64 `json:"west"`
	East  float64 `json:"east"`
}

// Contains reports whether the position lies within the bounds, edges included.
func (b RegionBounds) Contains(p Position) bool {
	return p.Lat >= b.South && p.Lat <= b.North &&
		p.Lon >= b.West && p.Lon <= b.East
}

var regions = []RegionBounds{
	{Name: "california", North: 42, South: 32, West: -125, East: -114},
	{Name: "australia", North: -10, South: -44, West: 113, East: 154},
	{Name: "global", North: 90, South: -90, West: -180, East: 180},
}

// Regions returns the region registry in a stable order.
func Regions() []RegionBounds {
	out := make([]RegionBounds, len(regions))
	copy(out, regions)
	return out
}

// LookupRegion finds a registered region by name.
func LookupRegion(name string) (RegionBounds, bool) {
	for _, r := range regions {
		if r.Name == name {
			return r, true
		}
	}
	return RegionBounds{}, false
}

// FilterByRegion keeps detections inside the named region. Unknown names pass
// everything through.
func FilterByRegion(dets []Detection, region string) []Detection {
	bounds, ok := LookupRegion(region)
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if !ok || bounds.Contains(d.Position) {
			out = append(out, d)
		}
	}
	return out
}
