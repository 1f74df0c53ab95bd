package geo_test

import (
	"testing"

	"github.com/lintang-b-s/roadfacade/pkg/geo"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
)

func TestBearing(t *testing.T) {
	tests := []struct {
		name                   string
		latA, lonA, latB, lonB float64
		expected               float64
	}{
		{"north", 0, 0, 1, 0, 0},
		{"east", 0, 0, 0, 1, 90},
		{"south", 1, 0, 0, 0, 180},
		{"west", 0, 1, 0, 0, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, geo.Bearing(tt.latA, tt.lonA, tt.latB, tt.lonB), 1e-9)
		})
	}
}

func TestBearingWithinRange(t *testing.T) {
	tests := []struct {
		name         string
		heading      float64
		bearing      float64
		bearingRange float64
		expected     bool
	}{
		{"small deviation", 91, 90, 10, true},
		{"large deviation", 120, 90, 10, false},
		{"boundary is inclusive", 95, 90, 10, true},
		{"across the 0/360 seam", 355, 5, 20, true},
		{"across the seam outside window", 340, 5, 20, false},
		{"full circle", 270, 90, 360, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, geo.BearingWithinRange(tt.heading, tt.bearing, tt.bearingRange))
		})
	}
}

func TestAngularDeviation(t *testing.T) {
	assert.InDelta(t, 20.0, geo.AngularDeviation(350, 10), 1e-9)
	assert.InDelta(t, 180.0, geo.AngularDeviation(0, 180), 1e-9)
	assert.InDelta(t, 1.0, geo.AngularDeviation(-269, 90), 1e-9)
	assert.InDelta(t, 0.0, geo.NormalizeBearing(360), 1e-9)
}

func TestGreatCircleDistance(t *testing.T) {
	// one degree of latitude
	assert.InDelta(t, 111195.0, geo.GreatCircleDistance(0, 0, 1, 0), 1.0)
	assert.InDelta(t, 0.0, geo.GreatCircleDistance(-7.55, 110.78, -7.55, 110.78), 1e-9)

	length := geo.PolylineLength([]geo.Coordinate{{Lat: 0, Lon: 0}, {Lat: 0.5, Lon: 0}, {Lat: 1, Lon: 0}})
	assert.InDelta(t, 111195.0, length, 1.0)
}

func TestProjectOntoSegment(t *testing.T) {
	proj := geo.NewLocalProjection(0, 0)

	t.Run("perpendicular foot inside segment", func(t *testing.T) {
		res := proj.ProjectOntoSegment(-0.001, 0.001, 0.001, 0.001)
		assert.InDelta(t, 111.195, res.Distance, 0.01)
		assert.InDelta(t, 0.5, res.Ratio, 1e-9)
		assert.InDelta(t, 0.0, res.Lat, 1e-9)
		assert.InDelta(t, 0.001, res.Lon, 1e-9)
	})

	t.Run("clamped to segment start", func(t *testing.T) {
		res := proj.ProjectOntoSegment(0.001, 0.001, 0.002, 0.001)
		assert.Equal(t, 0.0, res.Ratio)
		assert.Equal(t, 0.001, res.Lat)
		assert.Equal(t, 0.001, res.Lon)
		assert.InDelta(t, 157.25, res.Distance, 0.01)
	})

	t.Run("degenerate segment", func(t *testing.T) {
		res := proj.ProjectOntoSegment(0, 0, 0, 0)
		assert.Equal(t, 0.0, res.Distance)
		assert.Equal(t, 0.0, res.Ratio)
	})
}

func TestDistanceToBoxIsLowerBound(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		originLat := -60 + rng.Float64()*120
		originLon := -170 + rng.Float64()*340
		proj := geo.NewLocalProjection(originLat, originLon)

		aLat, aLon := originLat+(rng.Float64()-0.5)*0.02, originLon+(rng.Float64()-0.5)*0.02
		bLat, bLon := originLat+(rng.Float64()-0.5)*0.02, originLon+(rng.Float64()-0.5)*0.02

		boxDist := proj.DistanceToBox(min(aLat, bLat), min(aLon, bLon), max(aLat, bLat), max(aLon, bLon))
		segDist := proj.ProjectOntoSegment(aLat, aLon, bLat, bLon).Distance
		assert.LessOrEqual(t, boxDist, segDist+1e-6)
	}

	assert.Equal(t, 0.0, geo.NewLocalProjection(1, 1).DistanceToBox(0, 0, 2, 2))
}

func TestBoxAround(t *testing.T) {
	proj := geo.NewLocalProjection(-7.55, 110.78)
	minLat, minLon, maxLat, maxLon := proj.BoxAround(100)

	assert.Less(t, minLat, -7.55)
	assert.Greater(t, maxLat, -7.55)
	assert.Less(t, minLon, 110.78)
	assert.Greater(t, maxLon, 110.78)
	assert.InDelta(t, 100.0, proj.Distance(maxLat, 110.78), 1e-6)
	assert.InDelta(t, 100.0, proj.Distance(-7.55, maxLon), 1e-6)
}

func TestRamerDouglasPeucker(t *testing.T) {
	lineCoords := []geo.Coordinate{
		{Lat: -7.565837, Lon: 110.831586},
		{Lat: -7.566063, Lon: 110.832379},
		{Lat: -7.566406, Lon: 110.833232},
	}

	simplified := geo.RamerDouglasPeucker(lineCoords, 0)
	assert.Len(t, simplified, 2)

	zigzag := []geo.Coordinate{
		{Lat: 0, Lon: 0},
		{Lat: 0.01, Lon: 0.005},
		{Lat: 0, Lon: 0.01},
	}
	assert.Len(t, geo.RamerDouglasPeucker(zigzag, 7), 3)
}
