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

import (
	"bytes"
	"encoding/binary"
)

// lumpwrite.go - classic 16-bit lump writers and the shared
// serialization helper. Capacity is verified per lump before a single
// byte goes out; the same Level can be written repeatedly with
// identical results.

// writeLumpStruct serializes any fixed-size value or slice as
// little-endian and hands it to the writer
func writeLumpStruct(lw LumpWriter, name string, data interface{}) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, data); err != nil {
		return err
	}
	return lw.WriteLump(name, nonNilLump(buf.Bytes()))
}

// CheckClassicCaps verifies the level fits the 16-bit encoding. base
// is the number of vertices the VERTEXES lump will carry.
func CheckClassicCaps(lvl *Level, base int) error {
	if base > 65536 {
		return &CapacityExceededError{What: "vertices",
			Count: base, Limit: 65536}
	}
	if len(lvl.Segs) > 65536 {
		return &CapacityExceededError{What: "segs",
			Count: len(lvl.Segs), Limit: 65536}
	}
	if len(lvl.Subsectors) > 32768 {
		return &CapacityExceededError{What: "subsectors",
			Count: len(lvl.Subsectors), Limit: 32768}
	}
	if len(lvl.Nodes) > 32768 {
		return &CapacityExceededError{What: "nodes",
			Count: len(lvl.Nodes), Limit: 32768}
	}
	return nil
}

func WriteVertexes(lw LumpWriter, lvl *Level, base int) error {
	raw := make([]MapVertex, base)
	for i, v := range lvl.Vertices[:base] {
		raw[i] = MapVertex{
			XPos: int16(v.X >> FRACBITS),
			YPos: int16(v.Y >> FRACBITS),
		}
	}
	return writeLumpStruct(lw, "VERTEXES", raw)
}

func sidenumToRaw(v uint32) uint16 {
	if v == NO_INDEX32 {
		return SIDEDEF_NONE
	}
	return uint16(v)
}

func WriteLinedefs(lw LumpWriter, lvl *Level) error {
	if lvl.Extended {
		raw := make([]MapLinedefExt, len(lvl.Linedefs))
		for i := range lvl.Linedefs {
			ld := &lvl.Linedefs[i]
			raw[i] = MapLinedefExt{
				StartVertex: uint16(ld.V1),
				EndVertex:   uint16(ld.V2),
				Flags:       ld.Flags,
				Action:      uint8(ld.Special),
				FrontSdef:   sidenumToRaw(ld.Sidenum[0]),
				BackSdef:    sidenumToRaw(ld.Sidenum[1]),
			}
			for j := 0; j < 5; j++ {
				raw[i].Args[j] = uint8(ld.Args[j])
			}
		}
		return writeLumpStruct(lw, "LINEDEFS", raw)
	}
	raw := make([]MapLinedef, len(lvl.Linedefs))
	for i := range lvl.Linedefs {
		ld := &lvl.Linedefs[i]
		raw[i] = MapLinedef{
			StartVertex: uint16(ld.V1),
			EndVertex:   uint16(ld.V2),
			Flags:       ld.Flags,
			Action:      ld.Special,
			Tag:         uint16(ld.Args[0]),
			FrontSdef:   sidenumToRaw(ld.Sidenum[0]),
			BackSdef:    sidenumToRaw(ld.Sidenum[1]),
		}
	}
	return writeLumpStruct(lw, "LINEDEFS", raw)
}

func WriteSidedefs(lw LumpWriter, lvl *Level) error {
	raw := make([]MapSidedef, len(lvl.Sidedefs))
	for i := range lvl.Sidedefs {
		sd := &lvl.Sidedefs[i]
		raw[i] = MapSidedef{
			XOffset: sd.XOffset,
			YOffset: sd.YOffset,
			UpName:  sd.UpName,
			LoName:  sd.LoName,
			MidName: sd.MidName,
			Sector:  uint16(sd.Sector),
		}
	}
	return writeLumpStruct(lw, "SIDEDEFS", raw)
}

func WriteSectors(lw LumpWriter, lvl *Level) error {
	raw := make([]MapSector, len(lvl.Sectors))
	for i := range lvl.Sectors {
		sec := &lvl.Sectors[i]
		raw[i] = MapSector{
			FloorHeight: sec.FloorHeight,
			CeilHeight:  sec.CeilHeight,
			FloorName:   sec.FloorName,
			CeilName:    sec.CeilName,
			LightLevel:  uint16(sec.LightLevel),
			Special:     uint16(sec.Special),
			Tag:         uint16(sec.Tag),
		}
	}
	return writeLumpStruct(lw, "SECTORS", raw)
}

func WriteThings(lw LumpWriter, lvl *Level) error {
	if lvl.Extended {
		raw := make([]MapThingExt, len(lvl.Things))
		for i := range lvl.Things {
			t := &lvl.Things[i]
			raw[i] = MapThingExt{
				TID:            t.TID,
				XPos:           int16(t.X >> FRACBITS),
				YPos:           int16(t.Y >> FRACBITS),
				StartingHeight: t.Height,
				Angle:          t.Angle,
				Type:           t.Type,
				Flags:          t.Flags,
				Action:         t.Action,
				Args:           t.Args,
			}
		}
		return writeLumpStruct(lw, "THINGS", raw)
	}
	raw := make([]MapThing, len(lvl.Things))
	for i := range lvl.Things {
		t := &lvl.Things[i]
		raw[i] = MapThing{
			XPos:  int16(t.X >> FRACBITS),
			YPos:  int16(t.Y >> FRACBITS),
			Angle: t.Angle,
			Type:  t.Type,
			Flags: t.Flags,
		}
	}
	return writeLumpStruct(lw, "THINGS", raw)
}

func WriteClassicSegs(lw LumpWriter, lvl *Level) error {
	raw := make([]MapSeg, len(lvl.Segs))
	for i := range lvl.Segs {
		seg := &lvl.Segs[i]
		raw[i] = MapSeg{
			StartVertex: uint16(seg.V1),
			EndVertex:   uint16(seg.V2),
			Angle:       seg.Angle,
			Linedef:     uint16(seg.Linedef),
			Flip:        int16(seg.Side),
			Offset:      seg.Offset,
		}
	}
	return writeLumpStruct(lw, "SEGS", raw)
}

func WriteClassicSubsectors(lw LumpWriter, lvl *Level) error {
	raw := make([]MapSubsector, len(lvl.Subsectors))
	for i := range lvl.Subsectors {
		raw[i] = MapSubsector{
			SegCount: uint16(lvl.Subsectors[i].NumSegs),
			FirstSeg: uint16(lvl.Subsectors[i].FirstSeg),
		}
	}
	return writeLumpStruct(lw, "SSECTORS", raw)
}

func classicChild(child uint32) int16 {
	if child&SSECTOR_DEEP_MASK != 0 {
		return int16(uint16(child&0x7FFF) | uint16(SSECTOR_NORMAL_MASK))
	}
	return int16(child)
}

func WriteClassicNodes(lw LumpWriter, lvl *Level) error {
	raw := make([]MapNode, len(lvl.Nodes))
	for i := range lvl.Nodes {
		n := &lvl.Nodes[i]
		raw[i] = MapNode{
			X:      int16(n.X >> FRACBITS),
			Y:      int16(n.Y >> FRACBITS),
			Dx:     int16(n.Dx >> FRACBITS),
			Dy:     int16(n.Dy >> FRACBITS),
			Rbox:   n.Bbox[NODE_RIGHT],
			Lbox:   n.Bbox[NODE_LEFT],
			RChild: classicChild(n.Children[NODE_RIGHT]),
			LChild: classicChild(n.Children[NODE_LEFT]),
		}
	}
	return writeLumpStruct(lw, "NODES", raw)
}

// WriteBlockmapLump lays the word sequence out as the header record
// followed by the offset and list words
func WriteBlockmapLump(lw LumpWriter, blockmap []uint16) error {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, BlockMapHeader{
		XMin:    int16(blockmap[0]),
		YMin:    int16(blockmap[1]),
		XBlocks: blockmap[2],
		YBlocks: blockmap[3],
	})
	binary.Write(&buf, binary.LittleEndian, blockmap[4:])
	return lw.WriteLump("BLOCKMAP", buf.Bytes())
}

func WriteRejectLump(lw LumpWriter, reject []byte) error {
	return lw.WriteLump("REJECT", nonNilLump(reject))
}
