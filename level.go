// Copyright (C) 2025, j-martina
//
// This file is part of znbx.
//
// znbx is free software: you can redistribute it
// and/or modify it under the terms of GNU General Public License
// as published by the Free Software Foundation, either version 2 of
// the License, or (at your option) any later version.
//
// znbx is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with znbx.  If not, see <https://www.gnu.org/licenses/>.

package znbx

// level.go - the normalized level model. Both loaders (fixed-layout
// binary and text) produce this; all builders and writers consume it.
// Entity indices are uint32 with NO_INDEX32 as the absent sentinel, so
// one model serves both 16-bit and extended output encodings.

// VertexEx - a map coordinate in 16.16 fixed point. Original vertices
// occupy the front of the sequence and are immutable; vertices born
// from seg splits are appended after them.
type VertexEx struct {
	X int32
	Y int32
}

// UdmfKey - one retained text-format property. Both slices are backed
// by the compile's string arena.
type UdmfKey struct {
	Key   []byte
	Value []byte
}

type IntLinedef struct {
	V1    uint32
	V2    uint32
	Flags uint16
	// Special and Args cover both record variants: the Doom tag lives
	// in Args[0], the extended variant carries all five args
	Special uint16
	Args    [5]int16
	Sidenum [2]uint32 // front, back; NO_INDEX32 when absent
	Props   []UdmfKey
}

type IntSidedef struct {
	XOffset int16
	YOffset int16
	UpName  [8]byte
	LoName  [8]byte
	MidName [8]byte
	Sector  uint32
	Props   []UdmfKey
}

type IntSector struct {
	FloorHeight int16
	CeilHeight  int16
	FloorName   [8]byte
	CeilName    [8]byte
	LightLevel  int16
	Special     int16
	Tag         int16
	Props       []UdmfKey
}

type IntThing struct {
	// 16.16 fixed; text maps position things fractionally and the
	// write-back must not lose that. Binary records narrow on output.
	X      int32
	Y      int32
	Height int16
	Angle  int16
	Type   int16
	Flags  int16
	TID    int16
	Action uint8
	Args   [5]byte
	Props  []UdmfKey
}

// SegEx - one builder-output seg. Covers classic, extended and GL
// encodings; writers narrow the fields per format.
type SegEx struct {
	V1      uint32
	V2      uint32
	Linedef uint32 // NO_INDEX32 for minisegs
	Side    uint16 // 0 front, 1 back
	Partner uint32 // NO_INDEX32 when unpaired; GL builds only
	Angle   uint16 // binary angle, classic SEGS only
	Offset  uint16 // distance along linedef, classic SEGS only
}

type SubsectorEx struct {
	FirstSeg uint32
	NumSegs  uint32
}

// NodeEx - one BSP node with full-precision partition line. Children
// carry SSECTOR_DEEP_MASK when they are subsector references; writers
// re-mask per format. Child 0 is the right side.
type NodeEx struct {
	X        int32 // 16.16 fixed
	Y        int32
	Dx       int32
	Dy       int32
	Bbox     [2][4]int16 // map units, BB_* indexing; [0] right, [1] left
	Children [2]uint32
}

const NODE_RIGHT = 0
const NODE_LEFT = 1

// PolyStart - a polyobject anchor or spawn spot, kept so the builder
// can identify sectors that polyobjects operate in
type PolyStart struct {
	PolyNum int16
	X       int32 // 16.16 fixed
	Y       int32
}

type Level struct {
	Vertices    []VertexEx
	NumOrgVerts int // vertices beyond this index were added by the builder
	Linedefs    []IntLinedef
	Sidedefs    []IntSidedef
	Sectors     []IntSector
	Things      []IntThing

	// Extended is true for the Hexen fixed-layout record variant
	Extended bool
	// TextFormat is true when the map came in through the text loader
	TextFormat bool
	MapProps   []UdmfKey

	PolySpots   []PolyStart
	PolyAnchors []PolyStart

	// Builder outputs
	Segs         []SegEx
	Subsectors   []SubsectorEx
	Nodes        []NodeEx
	GLSegs       []SegEx
	GLSubsectors []SubsectorEx
	GLNodes      []NodeEx
	Blockmap     []uint16
	Reject       []byte
}

// Bounds returns the axis-aligned extent of all vertices, in map units
// (fixed point truncated). An empty level reports a zero box.
func (lvl *Level) Bounds() (xmin, ymin, xmax, ymax int) {
	if len(lvl.Vertices) == 0 {
		return 0, 0, 0, 0
	}
	xmin, ymin = int(lvl.Vertices[0].X>>FRACBITS), int(lvl.Vertices[0].Y>>FRACBITS)
	xmax, ymax = xmin, ymin
	for _, v := range lvl.Vertices[1:] {
		x, y := int(v.X>>FRACBITS), int(v.Y>>FRACBITS)
		if x < xmin {
			xmin = x
		}
		if x > xmax {
			xmax = x
		}
		if y < ymin {
			ymin = y
		}
		if y > ymax {
			ymax = y
		}
	}
	return xmin, ymin, xmax, ymax
}

// sectorOfLinedefSide resolves linedef side -> sector, NO_INDEX32 when
// the side has no sidedef
func (lvl *Level) sectorOfLinedefSide(line uint32, side uint16) uint32 {
	sd := lvl.Linedefs[line].Sidenum[side]
	if sd == NO_INDEX32 {
		return NO_INDEX32
	}
	return lvl.Sidedefs[sd].Sector
}

// pruneUnusedVertices drops vertices no linedef references and renumbers
// linedef endpoints. Runs before the node build unless no_prune is set;
// things and stale editing leftovers otherwise inflate every vertex-
// indexed lump.
func (lvl *Level) pruneUnusedVertices() {
	used := make([]bool, len(lvl.Vertices))
	for i := range lvl.Linedefs {
		used[lvl.Linedefs[i].V1] = true
		used[lvl.Linedefs[i].V2] = true
	}
	remap := make([]uint32, len(lvl.Vertices))
	kept := 0
	for i, u := range used {
		if u {
			remap[i] = uint32(kept)
			lvl.Vertices[kept] = lvl.Vertices[i]
			kept++
		}
	}
	if kept == len(lvl.Vertices) {
		return
	}
	Log.Verbose(1, "Pruned %d unused vertices\n", len(lvl.Vertices)-kept)
	lvl.Vertices = lvl.Vertices[:kept]
	lvl.NumOrgVerts = kept
	for i := range lvl.Linedefs {
		lvl.Linedefs[i].V1 = remap[lvl.Linedefs[i].V1]
		lvl.Linedefs[i].V2 = remap[lvl.Linedefs[i].V2]
	}
}

// getPolySpots collects polyobject anchors and spawn spots from things.
// Both the Hexen and the ZDoom type code ranges count.
func (lvl *Level) getPolySpots() {
	lvl.PolySpots = lvl.PolySpots[:0]
	lvl.PolyAnchors = lvl.PolyAnchors[:0]
	for i := range lvl.Things {
		t := &lvl.Things[i]
		fx := t.X
		fy := t.Y
		switch t.Type {
		case PO_ANCHOR_TYPE, ZDOOM_PO_ANCHOR_TYPE:
			lvl.PolyAnchors = append(lvl.PolyAnchors, PolyStart{
				PolyNum: t.Angle, X: fx, Y: fy,
			})
		case PO_SPAWN_TYPE, PO_SPAWNCRUSH_TYPE,
			ZDOOM_PO_SPAWN_TYPE, ZDOOM_PO_SPAWNCRUSH_TYPE:
			lvl.PolySpots = append(lvl.PolySpots, PolyStart{
				PolyNum: t.Angle, X: fx, Y: fy,
			})
		}
	}
}

// preciousLinedefs marks linedefs whose splitting would disturb a
// polyobject: lines of any sector containing a polyobject spot or
// anchor. The partition picker penalizes splitting these.
func (lvl *Level) preciousLinedefs() []bool {
	precious := make([]bool, len(lvl.Linedefs))
	if lvl.Extended || lvl.TextFormat {
		// polyobject lines are glued by their action, not placed by a
		// thing; they count even without an anchor in sight
		for i := range lvl.Linedefs {
			switch lvl.Linedefs[i].Special {
			case HEXEN_ACTION_POLY_START, HEXEN_ACTION_POLY_EXPLICIT:
				precious[i] = true
			}
		}
	}
	if len(lvl.PolySpots) == 0 && len(lvl.PolyAnchors) == 0 {
		return precious
	}
	hot := make([]bool, len(lvl.Sectors))
	mark := func(spots []PolyStart) {
		for _, ps := range spots {
			sec := lvl.sectorAtPoint(ps.X, ps.Y)
			if sec != NO_INDEX32 {
				hot[sec] = true
			}
		}
	}
	mark(lvl.PolySpots)
	mark(lvl.PolyAnchors)
	for i := range lvl.Linedefs {
		for side := uint16(0); side < 2; side++ {
			sec := lvl.sectorOfLinedefSide(uint32(i), side)
			if sec != NO_INDEX32 && hot[sec] {
				precious[i] = true
			}
		}
	}
	return precious
}

// sectorAtPoint finds the sector enclosing a point by casting a ray in
// +x and taking the nearest crossing linedef's facing side. Coarse, but
// polyobject spots sit well inside their sectors.
func (lvl *Level) sectorAtPoint(fx, fy int32) uint32 {
	x := float64(fx) / FIXED16DOT16_MULTIPLIER
	y := float64(fy) / FIXED16DOT16_MULTIPLIER
	bestDist := 0.0
	bestSec := NO_INDEX32
	for i := range lvl.Linedefs {
		ld := &lvl.Linedefs[i]
		v1 := &lvl.Vertices[ld.V1]
		v2 := &lvl.Vertices[ld.V2]
		y1 := float64(v1.Y) / FIXED16DOT16_MULTIPLIER
		y2 := float64(v2.Y) / FIXED16DOT16_MULTIPLIER
		if (y1 > y) == (y2 > y) {
			continue
		}
		x1 := float64(v1.X) / FIXED16DOT16_MULTIPLIER
		x2 := float64(v2.X) / FIXED16DOT16_MULTIPLIER
		cross := x1 + (y-y1)/(y2-y1)*(x2-x1)
		if cross <= x {
			continue
		}
		dist := cross - x
		if bestSec != NO_INDEX32 && dist >= bestDist {
			continue
		}
		// line going upward at the crossing faces the point with its
		// left side, downward with its right
		side := uint16(1)
		if y2 < y1 {
			side = 0
		}
		sec := lvl.sectorOfLinedefSide(uint32(i), side)
		if sec != NO_INDEX32 {
			bestDist = dist
			bestSec = sec
		}
	}
	return bestSec
}
