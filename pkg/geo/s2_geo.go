package geo

import (
	"github.com/golang/geo/s2"
)

type Coordinate struct {
	Lat float64
	Lon float64
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{Lat: lat, Lon: lon}
}

// GreatCircleDistance returns the distance in metres between a and b on the sphere.
func GreatCircleDistance(latA, lonA, latB, lonB float64) float64 {
	a := s2.LatLngFromDegrees(latA, lonA)
	b := s2.LatLngFromDegrees(latB, lonB)
	return a.Distance(b).Radians() * earthRadiusM
}

// PolylineLength sums the great circle length of consecutive points.
func PolylineLength(coords []Coordinate) float64 {
	length := 0.0
	for i := 1; i < len(coords); i++ {
		length += GreatCircleDistance(coords[i-1].Lat, coords[i-1].Lon, coords[i].Lat, coords[i].Lon)
	}
	return length
}

// Interpolate returns the point at fraction t along the great circle from a to b.
func Interpolate(a, b Coordinate, t float64) Coordinate {
	pa := s2.PointFromLatLng(s2.LatLngFromDegrees(a.Lat, a.Lon))
	pb := s2.PointFromLatLng(s2.LatLngFromDegrees(b.Lat, b.Lon))
	p := s2.Interpolate(t, pa, pb)
	ll := s2.LatLngFromPoint(p)
	return Coordinate{Lat: ll.Lat.Degrees(), Lon: ll.Lng.Degrees()}
}
