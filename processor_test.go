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
	"testing"
)

// twoRoomLumps assembles the binary form of makeTwoRoomLevel
func twoRoomLumps(t *testing.T) *MemLumps {
	t.Helper()
	src := NewMemLumps()
	src.WriteLump("VERTEXES", lumpBytes(t, []MapVertex{
		{0, 0}, {0, 128}, {128, 128}, {128, 0}, {256, 128}, {256, 0},
	}))
	src.WriteLump("SECTORS", lumpBytes(t, []MapSector{
		{CeilHeight: 128, FloorName: tex("FLAT1"), CeilName: tex("FLAT1"),
			LightLevel: 160},
		{CeilHeight: 128, FloorName: tex("FLAT1"), CeilName: tex("FLAT1"),
			LightLevel: 160},
	}))
	sides := make([]MapSidedef, 8)
	for i := range sides {
		sides[i] = MapSidedef{MidName: tex("STARTAN2")}
	}
	for _, right := range []int{3, 4, 5, 7} {
		sides[right].Sector = 1
	}
	src.WriteLump("SIDEDEFS", lumpBytes(t, sides))
	one := func(v1, v2, sd uint16) MapLinedef {
		return MapLinedef{StartVertex: v1, EndVertex: v2,
			Flags: LF_IMPASSABLE, FrontSdef: sd, BackSdef: 0xFFFF}
	}
	src.WriteLump("LINEDEFS", lumpBytes(t, []MapLinedef{
		one(0, 1, 0), one(1, 2, 1), one(3, 0, 2),
		one(2, 4, 3), one(4, 5, 4), one(5, 3, 5),
		{StartVertex: 2, EndVertex: 3, Flags: LF_TWOSIDED,
			FrontSdef: 6, BackSdef: 7},
	}))
	src.WriteLump("THINGS", lumpBytes(t, []MapThing{
		{XPos: 64, YPos: 64, Angle: 90, Type: 1, Flags: 7},
	}))
	return src
}

func processTwoRoom(t *testing.T, cfg *NodeConfig) (*Processor, *MemLumps) {
	t.Helper()
	p, err := NewProcessor(twoRoomLumps(t), false)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	out := NewMemLumps()
	if err := p.Process(out, cfg); err != nil {
		t.Fatalf("Process: %v", err)
	}
	return p, out
}

func TestProcessDefaultLumps(t *testing.T) {
	_, out := processTwoRoom(t, nil)
	for _, name := range []string{
		"THINGS", "LINEDEFS", "SIDEDEFS", "VERTEXES", "SECTORS",
		"SEGS", "SSECTORS", "NODES", "REJECT", "BLOCKMAP",
	} {
		if out.Lump(name) == nil {
			t.Errorf("lump %s missing", name)
		}
	}
	if len(out.Lump("SEGS")) != 8*DOOM_SEG_SIZE {
		t.Errorf("SEGS size %d, want %d", len(out.Lump("SEGS")),
			8*DOOM_SEG_SIZE)
	}
	if len(out.Lump("SSECTORS")) != 2*DOOM_SSECTOR_SIZE {
		t.Errorf("SSECTORS size %d", len(out.Lump("SSECTORS")))
	}
	if len(out.Lump("NODES")) != 1*DOOM_NODE_SIZE {
		t.Errorf("NODES size %d", len(out.Lump("NODES")))
	}
	// default reject policy pads out a missing source table with zeros
	rej := out.Lump("REJECT")
	if len(rej) != 1 {
		t.Fatalf("REJECT size %d for 2 sectors", len(rej))
	}
	if rej[0] != 0 {
		t.Errorf("REJECT not zero: %#x", rej[0])
	}
}

func TestProcessDeterministic(t *testing.T) {
	_, first := processTwoRoom(t, nil)
	_, second := processTwoRoom(t, nil)
	names := first.Names()
	if len(names) != len(second.Names()) {
		t.Fatal("lump sets differ between runs")
	}
	for _, name := range names {
		if !bytes.Equal(first.Lump(name), second.Lump(name)) {
			t.Errorf("lump %s differs between identical runs", name)
		}
	}
}

func TestProcessGLNodes(t *testing.T) {
	cfg := DefaultNodeConfig()
	cfg.BuildGLNodes = true
	_, out := processTwoRoom(t, cfg)
	for _, name := range []string{"GL_VERT", "GL_SEGS", "GL_SSECT", "GL_NODES"} {
		if out.Lump(name) == nil {
			t.Errorf("lump %s missing", name)
		}
	}
	// the classic tree must still be present alongside
	if len(out.Lump("NODES")) == 0 {
		t.Error("plain NODES lost when GL nodes were requested")
	}
}

func TestProcessGLOnly(t *testing.T) {
	cfg := DefaultNodeConfig()
	cfg.GLOnly = true
	_, out := processTwoRoom(t, cfg)
	if len(out.Lump("SEGS")) != 0 || len(out.Lump("NODES")) != 0 {
		t.Error("gl_only must leave the classic lumps empty")
	}
	if out.Lump("GL_SEGS") == nil {
		t.Error("GL_SEGS missing under gl_only")
	}
}

func TestProcessCompressedNodes(t *testing.T) {
	cfg := DefaultNodeConfig()
	cfg.CompressNodes = true
	_, out := processTwoRoom(t, cfg)
	nodes := out.Lump("NODES")
	if !bytes.Equal(nodes[:4], []byte("ZNOD")) {
		t.Errorf("NODES signature %q, want ZNOD", nodes[:4])
	}
	if len(out.Lump("SEGS")) != 0 || len(out.Lump("SSECTORS")) != 0 {
		t.Error("extended nodes must empty SEGS and SSECTORS")
	}
}

func TestProcessExtendedGLIntoSsectors(t *testing.T) {
	cfg := DefaultNodeConfig()
	cfg.BuildNodes = false
	cfg.BuildGLNodes = true
	cfg.CompressGLNodes = true
	_, out := processTwoRoom(t, cfg)
	ss := out.Lump("SSECTORS")
	if len(ss) < 4 || !bytes.Equal(ss[:4], []byte("ZGLN")) {
		t.Errorf("SSECTORS should hold compressed GL nodes, got %q", ss[:4])
	}
	if out.Lump("GL_SEGS") != nil {
		t.Error("GL_* lumps must not appear when SSECTORS carries the tree")
	}
}

func TestProcessRejectModes(t *testing.T) {
	cfg := DefaultNodeConfig()
	cfg.Reject = REJECT_REBUILD
	_, out := processTwoRoom(t, cfg)
	rej := out.Lump("REJECT")
	// both sectors are connected through the divider
	if len(rej) != 1 || rej[0] != 0 {
		t.Errorf("connected map should reject nothing: % X", rej)
	}

	cfg = DefaultNodeConfig()
	cfg.Reject = REJECT_ZEROFILL
	_, out = processTwoRoom(t, cfg)
	if len(out.Lump("REJECT")) != 1 {
		t.Errorf("zerofill size %d", len(out.Lump("REJECT")))
	}
}

func TestProcessBlockmapModes(t *testing.T) {
	cfg := DefaultNodeConfig()
	cfg.Blockmap = BLOCKMAP_ZERO
	_, out := processTwoRoom(t, cfg)
	bm := out.Lump("BLOCKMAP")
	if len(bm) == 0 {
		t.Fatal("zeroed blockmap missing")
	}

	// pass-through keeps the source lump byte for byte
	src := twoRoomLumps(t)
	canned := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	src.WriteLump("BLOCKMAP", canned)
	p, err := NewProcessor(src, false)
	if err != nil {
		t.Fatal(err)
	}
	out = NewMemLumps()
	cfg = DefaultNodeConfig()
	cfg.Blockmap = BLOCKMAP_DONTTOUCH
	if err := p.Process(out, cfg); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Lump("BLOCKMAP"), canned) {
		t.Error("dont-touch blockmap was not passed through")
	}
}

func TestProcessTextMap(t *testing.T) {
	p, err := NewProcessorText(NewTextScanner([]byte(textMapSample)), nil)
	if err != nil {
		t.Fatalf("NewProcessorText: %v", err)
	}
	out := NewMemLumps()
	if err := p.Process(out, nil); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Lump("TEXTMAP") == nil {
		t.Fatal("TEXTMAP missing")
	}
	zn := out.Lump("ZNODES")
	if len(zn) < 4 || !bytes.Equal(zn[:4], []byte("XGLN")) {
		t.Errorf("ZNODES signature %q, want XGLN", zn[:4])
	}
	for _, name := range []string{"SEGS", "SSECTORS", "NODES"} {
		if out.Lump(name) != nil {
			t.Errorf("binary lump %s has no place in a text map", name)
		}
	}
}

func TestProcessCollectsDiagnostics(t *testing.T) {
	src := twoRoomLumps(t)
	// a zero-length linedef degrades to a diagnostic, not an error
	src.WriteLump("LINEDEFS", append(src.Lump("LINEDEFS"),
		lumpBytes(t, []MapLinedef{
			{StartVertex: 0, EndVertex: 0, FrontSdef: 0, BackSdef: 0xFFFF},
		})...))
	p, err := NewProcessor(src, false)
	if err != nil {
		t.Fatal(err)
	}
	out := NewMemLumps()
	if err := p.Process(out, nil); err != nil {
		t.Fatalf("zero-length linedef must not abort: %v", err)
	}
	if len(p.Diagnostics) == 0 {
		t.Error("expected a diagnostic for the degenerate linedef")
	}
}

func TestCheckClassicCapsLimits(t *testing.T) {
	lvl := &Level{Subsectors: make([]SubsectorEx, 32769)}
	if err := CheckClassicCaps(lvl, 0); err == nil {
		t.Error("32769 subsectors should not fit the classic encoding")
	}
	lvl = &Level{Segs: make([]SegEx, 65537)}
	if err := CheckClassicCaps(lvl, 0); err == nil {
		t.Error("65537 segs should not fit the classic encoding")
	}
	lvl = &Level{}
	if err := CheckClassicCaps(lvl, 65537); err == nil {
		t.Error("65537 vertices should not fit the classic encoding")
	}
	if err := CheckClassicCaps(&Level{}, 100); err != nil {
		t.Errorf("small map rejected: %v", err)
	}
}
