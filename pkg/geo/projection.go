package geo

import "math"

// minCosLat keeps the east-west scale finite near the poles.
const minCosLat = 1e-9

// LocalProjection is an equirectangular plane centred on an origin coordinate.
// x grows east, y grows north, both in metres. Box and segment distances are
// measured in the same plane so box distances are lower bounds of segment
// distances.
type LocalProjection struct {
	originLat float64
	originLon float64
	cosLat    float64
}

func NewLocalProjection(lat, lon float64) LocalProjection {
	return LocalProjection{
		originLat: lat,
		originLon: lon,
		cosLat:    math.Max(math.Cos(degreeToRadians(lat)), minCosLat),
	}
}

func (p LocalProjection) Origin() Coordinate {
	return Coordinate{Lat: p.originLat, Lon: p.originLon}
}

func (p LocalProjection) Project(lat, lon float64) (float64, float64) {
	x := degreeToRadians(lon-p.originLon) * p.cosLat * earthRadiusM
	y := degreeToRadians(lat-p.originLat) * earthRadiusM
	return x, y
}

func (p LocalProjection) Unproject(x, y float64) (float64, float64) {
	lat := p.originLat + radiansToDegree(y/earthRadiusM)
	lon := p.originLon + radiansToDegree(x/(earthRadiusM*p.cosLat))
	return lat, lon
}

// Distance between the origin and a point.
func (p LocalProjection) Distance(lat, lon float64) float64 {
	x, y := p.Project(lat, lon)
	return math.Hypot(x, y)
}

// DistanceToBox is the distance from the origin to the closest point of a
// lat/lon box. Zero when the origin lies inside it.
func (p LocalProjection) DistanceToBox(minLat, minLon, maxLat, maxLon float64) float64 {
	minX, minY := p.Project(minLat, minLon)
	maxX, maxY := p.Project(maxLat, maxLon)

	dx := 0.0
	if minX > 0 {
		dx = minX
	} else if maxX < 0 {
		dx = -maxX
	}

	dy := 0.0
	if minY > 0 {
		dy = minY
	} else if maxY < 0 {
		dy = -maxY
	}

	return math.Hypot(dx, dy)
}

// BoxAround returns the lat/lon box containing every point within radius metres of the origin.
func (p LocalProjection) BoxAround(radius float64) (minLat, minLon, maxLat, maxLon float64) {
	minLat, minLon = p.Unproject(-radius, -radius)
	maxLat, maxLon = p.Unproject(radius, radius)
	return minLat, minLon, maxLat, maxLon
}

type SegmentProjection struct {
	// Distance from the origin to the projected point, in metres.
	Distance float64
	// Ratio of the projected point along the segment, in [0,1].
	Ratio float64
	Lat   float64
	Lon   float64
}

// ProjectOntoSegment finds the point of segment a-b closest to the origin.
func (p LocalProjection) ProjectOntoSegment(aLat, aLon, bLat, bLon float64) SegmentProjection {
	ax, ay := p.Project(aLat, aLon)
	bx, by := p.Project(bLat, bLon)

	dx, dy := bx-ax, by-ay
	lengthSq := dx*dx + dy*dy

	t := 0.0
	if lengthSq > 0 {
		t = -(ax*dx + ay*dy) / lengthSq
		t = math.Max(0, math.Min(1, t))
	}

	px, py := ax+t*dx, ay+t*dy
	lat, lon := p.Unproject(px, py)
	if t == 0 {
		lat, lon = aLat, aLon
	} else if t == 1 {
		lat, lon = bLat, bLon
	}

	return SegmentProjection{
		Distance: math.Hypot(px, py),
		Ratio:    t,
		Lat:      lat,
		Lon:      lon,
	}
}

// PerpendicularDistance is the distance in metres from c to segment a-b, measured in a plane centred on c.
func PerpendicularDistance(a, b, c Coordinate) float64 {
	return NewLocalProjection(c.Lat, c.Lon).ProjectOntoSegment(a.Lat, a.Lon, b.Lat, b.Lon).Distance
}
