// Package osmparser imports an OpenStreetMap extract into a dataset builder.
// Ways are split into one edge per piece between junctions.
package osmparser

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/rs/zerolog"

	"github.com/lintang-b-s/roadfacade/pkg/dataset"
	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/geo"
)

type NodeType uint8

const (
	END_NODE NodeType = iota
	BETWEEN_NODE
	JUNCTION_NODE
)

var (
	skipHighway = map[string]struct{}{
		"footway":                {},
		"construction":           {},
		"cycleway":               {},
		"path":                   {},
		"pedestrian":             {},
		"busway":                 {},
		"steps":                  {},
		"bridleway":              {},
		"corridor":               {},
		"street_lamp":            {},
		"bus_stop":               {},
		"crossing":               {},
		"cyclist_waiting_aid":    {},
		"elevator":               {},
		"emergency_bay":          {},
		"emergency_access_point": {},
		"give_way":               {},
		"phone":                  {},
		"ladder":                 {},
		"milestone":              {},
		"passing_place":          {},
		"platform":               {},
		"speed_camera":           {},
		"track":                  {},
		"bus_guideway":           {},
		"speed_display":          {},
		"stop":                   {},
		"toll_gantry":            {},
		"traffic_mirror":         {},
		"traffic_signals":        {},
		"trailhead":              {},
	}
)

// ScannerFunc opens a fresh scanner over the extract. Parse reads it twice.
type ScannerFunc func(ctx context.Context) (osm.Scanner, error)

type OsmParser struct {
	wayNodeMap map[osm.NodeID]NodeType
	nodeCoords map[osm.NodeID]datastructure.FixedPointCoordinate
	nodeIDMap  map[osm.NodeID]datastructure.NodeID

	builder *dataset.Builder[datastructure.QueryEdgeData]
	edgeID  uint32
	skipped int
	log     zerolog.Logger
}

func NewOSMParser(b *dataset.Builder[datastructure.QueryEdgeData], log zerolog.Logger) *OsmParser {
	return &OsmParser{
		wayNodeMap: make(map[osm.NodeID]NodeType),
		nodeCoords: make(map[osm.NodeID]datastructure.FixedPointCoordinate),
		nodeIDMap:  make(map[osm.NodeID]datastructure.NodeID),
		builder:    b,
		log:        log,
	}
}

// FileScanner opens path as pbf, or as xml when it ends in .osm.
func FileScanner(path string) ScannerFunc {
	return func(ctx context.Context) (osm.Scanner, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open osm file %s: %w", path, err)
		}
		if strings.HasSuffix(path, ".osm") {
			return &fileScanner{Scanner: osmxml.New(ctx, f), f: f}, nil
		}
		return &fileScanner{Scanner: osmpbf.New(ctx, f, 0), f: f}, nil
	}
}

type fileScanner struct {
	osm.Scanner
	f *os.File
}

func (s *fileScanner) Close() error {
	err := s.Scanner.Close()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Parse adds every accepted way of the extract to the builder.
func (p *OsmParser) Parse(ctx context.Context, open ScannerFunc) error {
	scanner, err := open(ctx)
	if err != nil {
		return err
	}
	countWays := 0
	for scanner.Scan() {
		way, ok := scanner.Object().(*osm.Way)
		if !ok || len(way.Nodes) < 2 || !acceptOsmWay(way) {
			continue
		}
		countWays++
		for i, node := range way.Nodes {
			if _, ok := p.wayNodeMap[node.ID]; ok {
				p.wayNodeMap[node.ID] = JUNCTION_NODE
			} else if i == 0 || i == len(way.Nodes)-1 {
				p.wayNodeMap[node.ID] = END_NODE
			} else {
				p.wayNodeMap[node.ID] = BETWEEN_NODE
			}
		}
	}
	if err := closeScanner(scanner); err != nil {
		return err
	}
	p.log.Info().Int("ways", countWays).Int("way_nodes", len(p.wayNodeMap)).Msg("reading openstreetmap ways done")

	scanner, err = open(ctx)
	if err != nil {
		return err
	}
	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			if _, ok := p.wayNodeMap[o.ID]; ok {
				p.nodeCoords[o.ID] = datastructure.NewFixedPointCoordinate(o.Lat, o.Lon)
			}
		case *osm.Way:
			if len(o.Nodes) < 2 || !acceptOsmWay(o) {
				continue
			}
			p.processWay(o)
		}
	}
	if err := closeScanner(scanner); err != nil {
		return err
	}

	p.log.Info().
		Int("nodes", len(p.nodeIDMap)).
		Uint32("edges", p.edgeID).
		Int("skipped_pieces", p.skipped).
		Msg("processing openstreetmap ways done")
	return nil
}

func closeScanner(s osm.Scanner) error {
	scanErr := s.Err()
	if err := s.Close(); err != nil && scanErr == nil {
		scanErr = err
	}
	if scanErr != nil {
		return fmt.Errorf("scan osm objects: %w", scanErr)
	}
	return nil
}

type wayInfo struct {
	name     string
	forward  bool
	backward bool
	speed    float64 // km/h
	turn     datastructure.TurnInstruction
	mode     datastructure.TravelMode
}

func newWayInfo(way *osm.Way) wayInfo {
	info := wayInfo{
		name:     way.Tags.Find("name"),
		forward:  true,
		backward: true,
		speed:    roadTypeMaxSpeed(way.Tags.Find("highway")),
		turn:     datastructure.NoTurn,
		mode:     datastructure.TravelModeDriving,
	}
	if info.name == "" {
		info.name = way.Tags.Find("ref")
	}
	if way.Tags.Find("route") == "ferry" {
		info.mode = datastructure.TravelModeFerry
	}

	switch way.Tags.Find("oneway") {
	case "yes", "1", "true":
		info.backward = false
	case "-1", "reverse":
		info.forward = false
	}
	if way.Tags.Find("junction") == "roundabout" {
		info.backward = false
		info.turn = datastructure.StayOnRoundAbout
	}
	if isRestricted(way.Tags.Find("vehicle:forward")) || isRestricted(way.Tags.Find("motor_vehicle:forward")) {
		info.forward = false
	}
	if isRestricted(way.Tags.Find("vehicle:backward")) || isRestricted(way.Tags.Find("motor_vehicle:backward")) {
		info.backward = false
	}

	if speed, ok := parseMaxSpeed(way.Tags.Find("maxspeed")); ok {
		info.speed = speed
	}
	return info
}

func (p *OsmParser) processWay(way *osm.Way) {
	info := newWayInfo(way)
	if !info.forward && !info.backward {
		return
	}

	piece := []osm.NodeID{way.Nodes[0].ID}
	for _, wayNode := range way.Nodes[1:] {
		piece = append(piece, wayNode.ID)
		if p.wayNodeMap[wayNode.ID] != BETWEEN_NODE {
			p.processPiece(piece, info)
			piece = []osm.NodeID{wayNode.ID}
		}
	}
	if len(piece) > 1 {
		p.processPiece(piece, info)
	}
}

// processPiece splits a piece that starts and ends at the same node in two.
func (p *OsmParser) processPiece(piece []osm.NodeID, info wayInfo) {
	if piece[0] != piece[len(piece)-1] {
		p.addEdges(piece, info)
		return
	}
	if len(piece) < 3 {
		p.skipped++
		return
	}
	mid := len(piece) / 2
	p.addEdges(piece[:mid+1], info)
	p.addEdges(piece[mid:], info)
}

func (p *OsmParser) graphNode(id osm.NodeID) datastructure.NodeID {
	if n, ok := p.nodeIDMap[id]; ok {
		return n
	}
	n := p.builder.AddNode(p.nodeCoords[id])
	p.nodeIDMap[id] = n
	return n
}

func (p *OsmParser) addEdges(piece []osm.NodeID, info wayInfo) {
	coords := make([]datastructure.FixedPointCoordinate, 0, len(piece))
	line := make([]geo.Coordinate, 0, len(piece))
	for _, id := range piece {
		coord, ok := p.nodeCoords[id]
		if !ok {
			p.skipped++
			return
		}
		coords = append(coords, coord)
		line = append(line, geo.NewCoordinate(coord.LatDegrees(), coord.LonDegrees()))
	}

	distance := geo.PolylineLength(line)
	// travel time in deciseconds
	weight := int32(math.Max(1, math.Round(distance/(info.speed/3.6)*10)))

	from, to := p.graphNode(piece[0]), p.graphNode(piece[len(piece)-1])
	shape := coords[1 : len(coords)-1]

	if info.forward {
		p.builder.AddEdge(from, to, datastructure.NewQueryEdgeData(p.edgeID, weight, distance, false, true, false),
			dataset.EdgeAnnotation{Name: info.name, Turn: info.turn, Mode: info.mode, Shape: shape})
		p.edgeID++
	}
	if info.backward {
		reversed := make([]datastructure.FixedPointCoordinate, len(shape))
		for i := range shape {
			reversed[i] = shape[len(shape)-1-i]
		}
		p.builder.AddEdge(to, from, datastructure.NewQueryEdgeData(p.edgeID, weight, distance, false, true, false),
			dataset.EdgeAnnotation{Name: info.name, Turn: info.turn, Mode: info.mode, Shape: reversed})
		p.edgeID++
	}
}

func acceptOsmWay(way *osm.Way) bool {
	highway := way.Tags.Find("highway")
	if highway != "" {
		_, skip := skipHighway[highway]
		return !skip
	}
	route := way.Tags.Find("route")
	return route == "road" || route == "ferry" || way.Tags.Find("junction") != ""
}

func isRestricted(value string) bool {
	switch value {
	case "no", "restricted", "military", "emergency", "private", "permit":
		return true
	}
	return false
}

// parseMaxSpeed reads a maxspeed tag in km/h, mph or knots.
func parseMaxSpeed(value string) (float64, bool) {
	factor := 1.0
	switch {
	case strings.HasSuffix(value, "mph"):
		factor, value = 1.60934, strings.TrimSuffix(value, "mph")
	case strings.HasSuffix(value, "knots"):
		factor, value = 1.852, strings.TrimSuffix(value, "knots")
	case strings.HasSuffix(value, "km/h"):
		value = strings.TrimSuffix(value, "km/h")
	}
	speed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || speed <= 0 {
		return 0, false
	}
	return speed * factor, true
}

func roadTypeMaxSpeed(roadType string) float64 {
	switch roadType {
	case "motorway":
		return 100
	case "trunk":
		return 70
	case "primary":
		return 65
	case "secondary":
		return 60
	case "tertiary":
		return 50
	case "unclassified", "residential":
		return 30
	case "service":
		return 20
	case "motorway_link":
		return 70
	case "trunk_link":
		return 65
	case "primary_link":
		return 60
	case "secondary_link":
		return 50
	case "tertiary_link":
		return 40
	case "living_street":
		return 10
	case "road":
		return 20
	default:
		return 40
	}
}
