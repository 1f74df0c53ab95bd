package datastructure

import (
	"github.com/lintang-b-s/roadfacade/pkg/util"
)

// GeometryTable holds the intermediate nodes of every compressed edge in one
// flat slice. Entry i spans Nodes[Offsets[i]:Offsets[i+1]].
type GeometryTable struct {
	Offsets []uint32
	Nodes   []NodeID
}

func NewGeometryTable() *GeometryTable {
	return &GeometryTable{
		Offsets: []uint32{0},
		Nodes:   make([]NodeID, 0),
	}
}

func (g *GeometryTable) Add(nodes []NodeID) GeometryID {
	id := GeometryID(len(g.Offsets) - 1)
	g.Nodes = append(g.Nodes, nodes...)
	g.Offsets = append(g.Offsets, uint32(len(g.Nodes)))
	return id
}

func (g *GeometryTable) Len() int {
	return len(g.Offsets) - 1
}

// Entry returns a read-only view of the entry, valid as long as the table lives.
func (g *GeometryTable) Entry(id GeometryID) []NodeID {
	begin, end := g.Offsets[id], g.Offsets[id+1]
	return g.Nodes[begin:end:end]
}

// NameTable stores every street name back to back in Blob.
type NameTable struct {
	Offsets []uint32
	Blob    []byte
}

func NewNameTable(names []string) *NameTable {
	t := &NameTable{Offsets: make([]uint32, 0, len(names)+1)}
	t.Offsets = append(t.Offsets, 0)
	for _, name := range names {
		t.Blob = append(t.Blob, name...)
		t.Offsets = append(t.Offsets, uint32(len(t.Blob)))
	}
	return t
}

func (t *NameTable) Len() int {
	return len(t.Offsets) - 1
}

func (t *NameTable) Name(id NameID) string {
	return string(t.Blob[t.Offsets[id]:t.Offsets[id+1]])
}

// Names expands the table back into one string per id.
func (t *NameTable) Names() []string {
	names := make([]string, t.Len())
	for i := range names {
		names[i] = t.Name(NameID(i))
	}
	return names
}

const (
	turnInstructionBits = 8
	travelModeBits      = 4
	compressedBit       = 16
)

// EdgeInfoTable keeps per edge metadata. Turn instruction, travel mode and
// the compressed flag share one packed word.
type EdgeInfoTable struct {
	Packed      []uint32
	NameIDs     []NameID
	GeometryIDs []GeometryID
}

func NewEdgeInfoTable(capacity int) *EdgeInfoTable {
	return &EdgeInfoTable{
		Packed:      make([]uint32, 0, capacity),
		NameIDs:     make([]NameID, 0, capacity),
		GeometryIDs: make([]GeometryID, 0, capacity),
	}
}

// Append adds the metadata of the next edge. Pass InvalidGeometryID for uncompressed edges.
func (t *EdgeInfoTable) Append(turn TurnInstruction, mode TravelMode, name NameID, geometry GeometryID) {
	packed := util.BitPack(uint32(turn), uint32(mode), turnInstructionBits)
	packed = util.BitPackBool(packed, geometry != InvalidGeometryID, compressedBit)

	t.Packed = append(t.Packed, packed)
	t.NameIDs = append(t.NameIDs, name)
	t.GeometryIDs = append(t.GeometryIDs, geometry)
}

func (t *EdgeInfoTable) Len() int {
	return len(t.Packed)
}

func (t *EdgeInfoTable) TurnInstruction(e EdgeID) TurnInstruction {
	turn, _ := util.BitUnpack(t.Packed[e], turnInstructionBits)
	return TurnInstruction(turn)
}

func (t *EdgeInfoTable) TravelMode(e EdgeID) TravelMode {
	_, rest := util.BitUnpack(t.Packed[e], turnInstructionBits)
	mode, _ := util.BitUnpack(rest, travelModeBits)
	return TravelMode(mode)
}

func (t *EdgeInfoTable) IsCompressed(e EdgeID) bool {
	return util.BitUnpackBool(t.Packed[e], compressedBit)
}

func (t *EdgeInfoTable) NameID(e EdgeID) NameID {
	return t.NameIDs[e]
}

func (t *EdgeInfoTable) GeometryID(e EdgeID) (GeometryID, bool) {
	if !t.IsCompressed(e) {
		return InvalidGeometryID, false
	}
	return t.GeometryIDs[e], true
}
