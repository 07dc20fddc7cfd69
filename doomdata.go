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

// Wad specifications for Doom-engine family of games, restricted to the
// lump families this compiler reads and emits.
package znbx

// Fixed-point 16.16 coordinates are used throughout the normalized level
// model; the classic lumps store only the integral part.
const FRACBITS = 16
const FRACUNIT = 1 << FRACBITS

// Sentinel for "no sidedef" in the 16-bit linedef record
const SIDEDEF_NONE = uint16(0xFFFF)

// Sentinel for "no linedef / no partner / no sidedef" in 32-bit builder
// references
const NO_INDEX32 = ^uint32(0)

// COMMON linedef flags: for Doom & derivatives
const LF_IMPASSABLE = uint16(0x0001)
const LF_BLOCK_MONSTER = uint16(0x0002)
const LF_TWOSIDED = uint16(0x0004)
const LF_UPPER_UNPEGGED = uint16(0x0008)
const LF_LOWER_UNPEGGED = uint16(0x0010)
const LF_SECRET = uint16(0x0020) // shown as 1-sided on automap
const LF_BLOCK_SOUND = uint16(0x0040)
const LF_NEVER_ON_AUTOMAP = uint16(0x0080)
const LF_ALWAYS_ON_AUTOMAP = uint16(0x0100)

// Subsector flag on node child references
const SSECTOR_NORMAL_MASK = uint32(0x8000)
const SSECTOR_DEEP_MASK = uint32(0x80000000)

// Flag on GL seg vertex references that marks a builder-added vertex
// (an index into the appended part of the vertex sequence)
const VERT_IS_GL_V1 = uint32(1 << 15)
const VERT_IS_GL_V5 = uint32(1 << 31)

// Sentinel for "no partner seg" in GL seg records
const GL_NO_PARTNER_V1 = uint16(0xFFFF)
const GL_NO_PARTNER_V5 = uint32(0xFFFFFFFF)

const BLOCK_WIDTH = 128
const BLOCK_BITS = uint(7) // replaces division by BLOCK_WIDTH with right shift

// Hexen linedef actions that glue linedefs into polyobjects
const HEXEN_ACTION_POLY_START = 1
const HEXEN_ACTION_POLY_EXPLICIT = 5

// Thing type codes that mark polyobject anchors and spawn spots
const PO_ANCHOR_TYPE = 3000
const PO_SPAWN_TYPE = 3001
const PO_SPAWNCRUSH_TYPE = 3002

const ZDOOM_PO_ANCHOR_TYPE = 9300
const ZDOOM_PO_SPAWN_TYPE = 9301
const ZDOOM_PO_SPAWNCRUSH_TYPE = 9302

// Starting signature "XNOD" of NODES for Zdoom extended non-GL nodes format
var ZNODES_PLAIN_SIG = [4]byte{'X', 'N', 'O', 'D'}

// Starting signature "ZNOD" of NODES for Zdoom extended COMPRESSED non-GL
// nodes format
var ZNODES_COMPRESSED_SIG = [4]byte{'Z', 'N', 'O', 'D'}

// Extended GL node signatures, stored at the start of the SSECTORS lump
// (or of the ZNODES lump for text-format maps). One uncompressed and one
// deflate-compressed signature per GL node version
var GLNODES_PLAIN_SIG = [3][4]byte{
	{'X', 'G', 'L', 'N'}, // v1
	{'X', 'G', 'L', '2'}, // v2
	{'X', 'G', 'L', '3'}, // v3 ("v5gl": fixed-point partition lines)
}

var GLNODES_COMPRESSED_SIG = [3][4]byte{
	{'Z', 'G', 'L', 'N'},
	{'Z', 'G', 'L', '2'},
	{'Z', 'G', 'L', '3'},
}

// Classic GL_VERT signatures for GL nodes written as separate GL_* lumps
var GLVERT_V2_SIG = [4]byte{'g', 'N', 'd', '2'}
var GLVERT_V5_SIG = [4]byte{'g', 'N', 'd', '5'}

const DOOM_LINEDEF_SIZE = 14  // Size of "MapLinedef" struct
const HEXEN_LINEDEF_SIZE = 16 // Size of "MapLinedefExt" struct
const DOOM_SIDEDEF_SIZE = 30  // Size of "MapSidedef" struct
const DOOM_SECTOR_SIZE = 26   // Size of "MapSector" struct
const DOOM_VERTEX_SIZE = 4    // Size of "MapVertex" struct
const DOOM_THING_SIZE = 10    // Size of "MapThing" struct
const HEXEN_THING_SIZE = 20   // Size of "MapThingExt" struct
const DOOM_SEG_SIZE = 12      // Size of "MapSeg" struct
const DOOM_SSECTOR_SIZE = 4   // Size of "MapSubsector" struct
const DOOM_NODE_SIZE = 28     // Size of "MapNode" struct

// This is Doom/Heretic/Strife thing. Not Hexen thing
type MapThing struct {
	XPos  int16
	YPos  int16
	Angle int16
	Type  int16
	Flags int16
}

// Hexen/ZDoom extended thing record
type MapThingExt struct {
	TID            int16
	XPos           int16
	YPos           int16
	StartingHeight int16
	Angle          int16
	Type           int16
	Flags          int16
	Action         uint8
	Args           [5]byte
}

// Doom/Heretic linedef format
type MapLinedef struct {
	// Vanilla treats ALL fields as signed int16
	StartVertex uint16
	EndVertex   uint16
	Flags       uint16
	Action      uint16
	Tag         uint16
	FrontSdef   uint16
	BackSdef    uint16 // 0xFFFF special value for one-sided line
}

// Hexen linedef format - the "extended" fixed-layout record variant
type MapLinedefExt struct {
	StartVertex uint16
	EndVertex   uint16
	Flags       uint16
	Action      uint8
	Args        [5]uint8
	FrontSdef   uint16
	BackSdef    uint16
}

type MapSidedef struct {
	XOffset int16
	YOffset int16
	UpName  [8]byte // name of upper texture
	LoName  [8]byte // name of lower texture
	MidName [8]byte // name of middle texture
	Sector  uint16  // sector number; vanilla treats this as signed int16
}

// A vertex is a coordinate on the map, referenced by linedefs and segs.
// The VERTEXES lump gets rewritten after nodes are built, to also carry
// vertices introduced by seg splits
type MapVertex struct {
	XPos int16
	YPos int16
}

type MapSector struct {
	FloorHeight int16
	CeilHeight  int16
	FloorName   [8]byte
	CeilName    [8]byte
	LightLevel  uint16
	Special     uint16
	Tag         uint16
}

type MapSeg struct {
	// Vanilla treats ALL fields as signed int16
	StartVertex uint16
	EndVertex   uint16
	Angle       uint16
	Linedef     uint16
	Flip        int16  // 0 - seg follows same direction as linedef, 1 - the opposite
	Offset      uint16 // distance along linedef to start of seg
}

// Each subsector has only these two fields, yes. Segs in the SEGS lump
// are ordered so that FirstSeg..FirstSeg+SegCount-1 all belong to this
// subsector; each seg is part of one and only one subsector
type MapSubsector struct {
	SegCount uint16
	FirstSeg uint16
}

type MapNode struct {
	X      int16
	Y      int16
	Dx     int16
	Dy     int16
	Rbox   [4]int16 // right bounding box
	Lbox   [4]int16 // left bounding box
	RChild int16    // -| if sign bit = 0 then this is a subnode number
	LChild int16    // ->     else 0-14 bits are subsector number
}

// GL v1 seg record; vertex references may carry VERT_IS_GL_V1
type MapSegGL struct {
	StartVertex uint16
	EndVertex   uint16
	Linedef     uint16 // 0xFFFF for partition-only segs (minisegs)
	Side        uint16
	Partner     uint16 // 0xFFFF when no partner
}

// GL v5 seg record; 32-bit references, VERT_IS_GL_V5 on new vertices
type MapSegGLEx struct {
	StartVertex uint32
	EndVertex   uint32
	Linedef     uint16
	Side        uint16
	Partner     uint32
}

type MapSubsectorGLEx struct {
	SegCount uint32
	FirstSeg uint32
}

// GL v5 node record; same layout as DeePBSP "standard V4" nodes
type MapNodeEx struct {
	X      int16
	Y      int16
	Dx     int16
	Dy     int16
	Rbox   [4]int16
	Lbox   [4]int16
	RChild int32
	LChild int32
}

const BB_TOP = 0
const BB_BOTTOM = 1
const BB_LEFT = 2
const BB_RIGHT = 3

// Blockmap consists of: header, followed by XBlocks*YBlocks offsets,
// followed by blocklists (arbitrary size)
type BlockMapHeader struct {
	XMin    int16
	YMin    int16
	XBlocks uint16 // vanilla treats this as signed int16
	YBlocks uint16 // vanilla treats this as signed int16
}

func IsEmptyTexture(lumpName []byte) bool {
	return lumpName[0] == '-' && lumpName[1] == 0
}
