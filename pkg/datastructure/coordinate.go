package datastructure

import (
	"math"

	"github.com/twpayne/go-polyline"
)

// CoordinatePrecision is the number of fixed point units per degree.
const CoordinatePrecision = 1e6

// FixedPointCoordinate stores latitude and longitude in micro-degrees.
type FixedPointCoordinate struct {
	Lat int32 `json:"lat"`
	Lon int32 `json:"lon"`
}

// 8 byte

func NewFixedPointCoordinate(lat, lon float64) FixedPointCoordinate {
	return FixedPointCoordinate{
		Lat: int32(math.Round(lat * CoordinatePrecision)),
		Lon: int32(math.Round(lon * CoordinatePrecision)),
	}
}

func (c FixedPointCoordinate) LatDegrees() float64 {
	return float64(c.Lat) / CoordinatePrecision
}

func (c FixedPointCoordinate) LonDegrees() float64 {
	return float64(c.Lon) / CoordinatePrecision
}

func (c FixedPointCoordinate) IsValid() bool {
	return c.Lat >= -90*CoordinatePrecision && c.Lat <= 90*CoordinatePrecision &&
		c.Lon >= -180*CoordinatePrecision && c.Lon <= 180*CoordinatePrecision
}

// CreatePolyline encodes coordinates with the google polyline algorithm.
func CreatePolyline(path []FixedPointCoordinate) string {
	coords := make([][]float64, 0, len(path))
	for _, p := range path {
		coords = append(coords, []float64{p.LatDegrees(), p.LonDegrees()})
	}
	return string(polyline.EncodeCoords(coords))
}

// DecodePolyline is the inverse of CreatePolyline.
func DecodePolyline(s string) ([]FixedPointCoordinate, error) {
	coords, _, err := polyline.DecodeCoords([]byte(s))
	if err != nil {
		return nil, err
	}
	path := make([]FixedPointCoordinate, 0, len(coords))
	for _, c := range coords {
		path = append(path, NewFixedPointCoordinate(c[0], c[1]))
	}
	return path, nil
}
