package geo

import "math"

const (
	earthRadiusM = 6371007.0
)

func degreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

func radiansToDegree(angle float64) float64 {
	return angle * (180.0 / math.Pi)
}

// Bearing returns the initial heading in degrees [0,360) of the great circle path from a to b.
func Bearing(latA, lonA, latB, lonB float64) float64 {
	phiA := degreeToRadians(latA)
	phiB := degreeToRadians(latB)
	deltaLambda := degreeToRadians(lonB - lonA)

	y := math.Sin(deltaLambda) * math.Cos(phiB)
	x := math.Cos(phiA)*math.Sin(phiB) - math.Sin(phiA)*math.Cos(phiB)*math.Cos(deltaLambda)

	return NormalizeBearing(radiansToDegree(math.Atan2(y, x)))
}

// NormalizeBearing maps any angle in degrees into [0,360).
func NormalizeBearing(bearing float64) float64 {
	b := math.Mod(bearing, 360)
	if b < 0 {
		b += 360
	}
	if b >= 360 {
		b = 0
	}
	return b
}

// AngularDeviation is the shorter arc between two headings, in [0,180].
func AngularDeviation(a, b float64) float64 {
	diff := math.Abs(NormalizeBearing(a) - NormalizeBearing(b))
	return math.Min(diff, 360-diff)
}

// BearingWithinRange reports whether heading lies inside the closed window of
// width bearingRange centred on bearing.
func BearingWithinRange(heading, bearing, bearingRange float64) bool {
	return AngularDeviation(heading, bearing) <= bearingRange/2
}
