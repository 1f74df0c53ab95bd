package storage

// ResourceName identifies one co-versioned resource of a dataset.
type ResourceName string

const (
	ResourceGraph       ResourceName = "graph"
	ResourceCoordinates ResourceName = "coordinates"
	ResourceGeometry    ResourceName = "geometry"
	ResourceEdgeInfo    ResourceName = "edgeinfo"
	ResourceNames       ResourceName = "names"
	ResourceSegments    ResourceName = "segments"
	ResourceCore        ResourceName = "core"
	ResourceTimestamp   ResourceName = "timestamp"

	RESOURCE_FILE_EXT = ".nvx"
	FORMAT_VERSION    = 2
	HEADER_SIZE       = 12
)

// AllResources lists every resource a complete dataset carries.
var AllResources = []ResourceName{
	ResourceGraph,
	ResourceCoordinates,
	ResourceGeometry,
	ResourceEdgeInfo,
	ResourceNames,
	ResourceSegments,
	ResourceCore,
	ResourceTimestamp,
}

var resourceMagic = [4]byte{'N', 'V', 'X', 'R'}
