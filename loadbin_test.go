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
	"errors"
	"testing"
)

func lumpBytes(t *testing.T, records interface{}) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, records); err != nil {
		t.Fatalf("building lump: %v", err)
	}
	return buf.Bytes()
}

func tex(s string) [8]byte {
	var ret [8]byte
	copy(ret[:], s)
	return ret
}

// squareLumps assembles a binary square map equivalent to
// makeSquareLevel
func squareLumps(t *testing.T) *MemLumps {
	t.Helper()
	src := NewMemLumps()
	src.WriteLump("VERTEXES", lumpBytes(t, []MapVertex{
		{0, 0}, {0, 128}, {128, 128}, {128, 0},
	}))
	src.WriteLump("SECTORS", lumpBytes(t, []MapSector{
		{FloorHeight: 0, CeilHeight: 128, FloorName: tex("FLAT1"),
			CeilName: tex("FLAT1"), LightLevel: 160},
	}))
	sides := make([]MapSidedef, 4)
	for i := range sides {
		sides[i] = MapSidedef{MidName: tex("STARTAN2")}
	}
	src.WriteLump("SIDEDEFS", lumpBytes(t, sides))
	src.WriteLump("LINEDEFS", lumpBytes(t, []MapLinedef{
		{StartVertex: 0, EndVertex: 1, Flags: LF_IMPASSABLE, FrontSdef: 0, BackSdef: 0xFFFF},
		{StartVertex: 1, EndVertex: 2, Flags: LF_IMPASSABLE, FrontSdef: 1, BackSdef: 0xFFFF},
		{StartVertex: 2, EndVertex: 3, Flags: LF_IMPASSABLE, FrontSdef: 2, BackSdef: 0xFFFF},
		{StartVertex: 3, EndVertex: 0, Flags: LF_IMPASSABLE, FrontSdef: 3, BackSdef: 0xFFFF},
	}))
	src.WriteLump("THINGS", lumpBytes(t, []MapThing{
		{XPos: 64, YPos: 64, Angle: 90, Type: 1, Flags: 7},
	}))
	return src
}

func TestLoadLevelBinary(t *testing.T) {
	lvl, err := LoadLevelBinary(squareLumps(t), false)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(lvl.Vertices) != 4 || lvl.NumOrgVerts != 4 {
		t.Errorf("vertices: %d orig %d", len(lvl.Vertices), lvl.NumOrgVerts)
	}
	if lvl.Vertices[2].X != 128<<FRACBITS || lvl.Vertices[2].Y != 128<<FRACBITS {
		t.Errorf("vertex 2 not in fixed point: %+v", lvl.Vertices[2])
	}
	if len(lvl.Linedefs) != 4 || len(lvl.Sidedefs) != 4 ||
		len(lvl.Sectors) != 1 || len(lvl.Things) != 1 {
		t.Fatalf("counts: %d lines %d sides %d sectors %d things",
			len(lvl.Linedefs), len(lvl.Sidedefs), len(lvl.Sectors),
			len(lvl.Things))
	}
	if lvl.Linedefs[0].Sidenum[1] != NO_INDEX32 {
		t.Errorf("0xFFFF back sidedef should load as NO_INDEX32, got %d",
			lvl.Linedefs[0].Sidenum[1])
	}
	if lvl.Extended {
		t.Error("Doom-variant load must not set Extended")
	}
}

func TestLoadLevelBinaryExtended(t *testing.T) {
	src := squareLumps(t)
	src.WriteLump("LINEDEFS", lumpBytes(t, []MapLinedefExt{
		{StartVertex: 0, EndVertex: 1, Flags: LF_IMPASSABLE, Action: 121,
			Args: [5]uint8{1, 2, 3, 4, 5}, FrontSdef: 0, BackSdef: 0xFFFF},
		{StartVertex: 1, EndVertex: 2, Flags: LF_IMPASSABLE, FrontSdef: 1, BackSdef: 0xFFFF},
		{StartVertex: 2, EndVertex: 3, Flags: LF_IMPASSABLE, FrontSdef: 2, BackSdef: 0xFFFF},
		{StartVertex: 3, EndVertex: 0, Flags: LF_IMPASSABLE, FrontSdef: 3, BackSdef: 0xFFFF},
	}))
	src.WriteLump("THINGS", lumpBytes(t, []MapThingExt{
		{TID: 9, XPos: 64, YPos: 64, Angle: 90, Type: 1, Flags: 7},
	}))
	lvl, err := LoadLevelBinary(src, true)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !lvl.Extended {
		t.Error("Hexen-variant load must set Extended")
	}
	if lvl.Linedefs[0].Special != 121 || lvl.Linedefs[0].Args != [5]int16{1, 2, 3, 4, 5} {
		t.Errorf("extended linedef action/args lost: %+v", lvl.Linedefs[0])
	}
	if lvl.Things[0].TID != 9 {
		t.Errorf("thing TID lost: %+v", lvl.Things[0])
	}
}

func TestLoadRejectsMissingLump(t *testing.T) {
	src := squareLumps(t)
	src.data["SECTORS"] = nil
	_, err := LoadLevelBinary(src, false)
	var mr *MalformedRecordError
	if !errors.As(err, &mr) || mr.Lump != "SECTORS" {
		t.Fatalf("expected MalformedRecordError for SECTORS, got %v", err)
	}
}

func TestLoadRejectsTruncatedLump(t *testing.T) {
	src := squareLumps(t)
	verts := src.Lump("VERTEXES")
	src.WriteLump("VERTEXES", verts[:len(verts)-1])
	_, err := LoadLevelBinary(src, false)
	var mr *MalformedRecordError
	if !errors.As(err, &mr) || mr.Lump != "VERTEXES" {
		t.Fatalf("expected MalformedRecordError for VERTEXES, got %v", err)
	}
}

func TestLoadRejectsOneGreaterVertexRef(t *testing.T) {
	src := squareLumps(t)
	src.WriteLump("LINEDEFS", lumpBytes(t, []MapLinedef{
		// EndVertex == vertex count, one past the last valid index
		{StartVertex: 0, EndVertex: 4, Flags: LF_IMPASSABLE, FrontSdef: 0, BackSdef: 0xFFFF},
	}))
	_, err := LoadLevelBinary(src, false)
	var ior *IndexOutOfRangeError
	if !errors.As(err, &ior) {
		t.Fatalf("expected IndexOutOfRangeError, got %v", err)
	}
	if ior.Kind != "vertex" || ior.Index != 4 || ior.Count != 4 {
		t.Errorf("wrong error detail: %+v", ior)
	}
}

func TestLoadRejectsDanglingSectorRef(t *testing.T) {
	src := squareLumps(t)
	sides := make([]MapSidedef, 4)
	sides[3].Sector = 2
	src.WriteLump("SIDEDEFS", lumpBytes(t, sides))
	_, err := LoadLevelBinary(src, false)
	var ior *IndexOutOfRangeError
	if !errors.As(err, &ior) || ior.Kind != "sector" {
		t.Fatalf("expected sector IndexOutOfRangeError, got %v", err)
	}
}

func TestLoadRejectsMissingFrontSidedef(t *testing.T) {
	src := squareLumps(t)
	src.WriteLump("LINEDEFS", lumpBytes(t, []MapLinedef{
		{StartVertex: 0, EndVertex: 1, FrontSdef: 0xFFFF, BackSdef: 0xFFFF},
	}))
	_, err := LoadLevelBinary(src, false)
	var mr *MalformedRecordError
	if !errors.As(err, &mr) || mr.Lump != "LINEDEFS" || mr.Index != 0 {
		t.Fatalf("expected MalformedRecordError for linedef 0, got %v", err)
	}
}
