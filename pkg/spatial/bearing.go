package spatial

import "github.com/lintang-b-s/roadfacade/pkg/geo"

const (
	DEFAULT_BEARING       = 0
	DEFAULT_BEARING_RANGE = 180
)

type bearingFilter struct {
	bearing      float64
	bearingRange float64
	enabled      bool
}

// newBearingFilter treats the (0, 180) default and any range of a full circle or more as no filter.
func newBearingFilter(bearing, bearingRange float64) bearingFilter {
	// (0, 180) is the documented "no bearing given" value of every query, so
	// it stays unfiltered even though any other 180 range is a half circle.
	if (bearing == DEFAULT_BEARING && bearingRange == DEFAULT_BEARING_RANGE) || bearingRange >= 360 {
		return bearingFilter{}
	}
	return bearingFilter{bearing: geo.NormalizeBearing(bearing), bearingRange: bearingRange, enabled: true}
}

func (f bearingFilter) active() bool {
	return f.enabled
}

func (f bearingFilter) accepts(heading float64) bool {
	return !f.enabled || geo.BearingWithinRange(heading, f.bearing, f.bearingRange)
}
