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
	"compress/zlib"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

// byteScanner walks a serialized node lump in tests
type byteScanner struct {
	t    *testing.T
	data []byte
	pos  int
}

func (bs *byteScanner) u32() uint32 {
	bs.t.Helper()
	if bs.pos+4 > len(bs.data) {
		bs.t.Fatal("lump truncated")
	}
	v := binary.LittleEndian.Uint32(bs.data[bs.pos:])
	bs.pos += 4
	return v
}

func (bs *byteScanner) u16() uint16 {
	bs.t.Helper()
	if bs.pos+2 > len(bs.data) {
		bs.t.Fatal("lump truncated")
	}
	v := binary.LittleEndian.Uint16(bs.data[bs.pos:])
	bs.pos += 2
	return v
}

func (bs *byteScanner) u8() uint8 {
	bs.t.Helper()
	if bs.pos >= len(bs.data) {
		bs.t.Fatal("lump truncated")
	}
	v := bs.data[bs.pos]
	bs.pos++
	return v
}

func (bs *byteScanner) skip(n int) {
	bs.pos += n
}

func builtTwoRoom(t *testing.T, gl bool) *Level {
	t.Helper()
	lvl := makeTwoRoomLevel()
	nodes, subs, segs := buildFor(t, lvl, gl)
	if gl {
		lvl.GLNodes, lvl.GLSubsectors, lvl.GLSegs = nodes, subs, segs
	} else {
		lvl.Nodes, lvl.Subsectors, lvl.Segs = nodes, subs, segs
	}
	return lvl
}

func TestGetXNodesBytesLayout(t *testing.T) {
	lvl := builtTwoRoom(t, false)
	data, err := GetXNodesBytes(lvl, lvl.NumOrgVerts, false, 0)
	if err != nil {
		t.Fatalf("GetXNodesBytes: %v", err)
	}
	if !bytes.Equal(data[:4], []byte("XNOD")) {
		t.Fatalf("signature %q", data[:4])
	}
	bs := &byteScanner{t: t, data: data, pos: 4}
	if got := bs.u32(); got != uint32(lvl.NumOrgVerts) {
		t.Errorf("orgVerts %d, want %d", got, lvl.NumOrgVerts)
	}
	if got := bs.u32(); got != 0 {
		t.Errorf("newVerts %d, want 0", got)
	}
	if got := bs.u32(); got != uint32(len(lvl.Subsectors)) {
		t.Fatalf("subsector count %d, want %d", got, len(lvl.Subsectors))
	}
	total := uint32(0)
	for range lvl.Subsectors {
		total += bs.u32()
	}
	if total != uint32(len(lvl.Segs)) {
		t.Errorf("subsector seg counts sum to %d, %d segs exist", total,
			len(lvl.Segs))
	}
	if got := bs.u32(); got != uint32(len(lvl.Segs)) {
		t.Fatalf("seg count %d, want %d", got, len(lvl.Segs))
	}
	for i := range lvl.Segs {
		v1, v2 := bs.u32(), bs.u32()
		line, side := bs.u16(), bs.u8()
		seg := &lvl.Segs[i]
		if v1 != seg.V1 || v2 != seg.V2 || line != uint16(seg.Linedef) ||
			side != uint8(seg.Side) {
			t.Errorf("seg %d mismatch", i)
		}
	}
	if got := bs.u32(); got != uint32(len(lvl.Nodes)) {
		t.Fatalf("node count %d, want %d", got, len(lvl.Nodes))
	}
	// root node: 8 coord bytes, 16 bbox bytes, then children
	bs.skip(8 + 16)
	right, left := bs.u32(), bs.u32()
	if right&SSECTOR_DEEP_MASK == 0 || left&SSECTOR_DEEP_MASK == 0 {
		t.Errorf("root children %#x/%#x should both flag subsectors", right, left)
	}
	if bs.pos != len(data) {
		t.Errorf("%d trailing bytes", len(data)-bs.pos)
	}
}

func TestGetXNodesBytesCompressed(t *testing.T) {
	lvl := builtTwoRoom(t, false)
	plain, err := GetXNodesBytes(lvl, lvl.NumOrgVerts, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	packed, err := GetXNodesBytes(lvl, lvl.NumOrgVerts, true,
		zlib.BestCompression)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(packed[:4], []byte("ZNOD")) {
		t.Fatalf("signature %q", packed[:4])
	}
	r, err := zlib.NewReader(bytes.NewReader(packed[4:]))
	if err != nil {
		t.Fatalf("body is not a zlib stream: %v", err)
	}
	defer r.Close()
	body, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(body, plain[4:]) {
		t.Error("compressed body differs from the plain body")
	}
}

func TestGetXGLNodesBytesVersions(t *testing.T) {
	lvl := builtTwoRoom(t, true)
	for _, tc := range []struct {
		version int
		sig     string
	}{
		{XGL_VERSION_1, "XGLN"},
		{XGL_VERSION_2, "XGL2"},
		{XGL_VERSION_3, "XGL3"},
	} {
		data, err := GetXGLNodesBytes(lvl, lvl.NumOrgVerts, tc.version,
			false, 0)
		if err != nil {
			t.Fatalf("version %d: %v", tc.version, err)
		}
		if !bytes.Equal(data[:4], []byte(tc.sig)) {
			t.Errorf("version %d: signature %q, want %q", tc.version,
				data[:4], tc.sig)
		}
	}
}

func TestGetXGLNodesBytesSegRecord(t *testing.T) {
	lvl := builtTwoRoom(t, true)
	data, err := GetXGLNodesBytes(lvl, lvl.NumOrgVerts, XGL_VERSION_1,
		false, 0)
	if err != nil {
		t.Fatal(err)
	}
	bs := &byteScanner{t: t, data: data, pos: 4}
	bs.skip(8) // vertex header, no new verts
	subCount := int(bs.u32())
	bs.skip(4 * subCount)
	segCount := int(bs.u32())
	if segCount != len(lvl.GLSegs) {
		t.Fatalf("seg count %d, want %d", segCount, len(lvl.GLSegs))
	}
	for i := 0; i < segCount; i++ {
		bs.u32() // v1
		partner := bs.u32()
		line := bs.u16()
		bs.u8()
		want := lvl.GLSegs[i].Partner
		if partner != want {
			t.Errorf("seg %d partner %#x, want %#x", i, partner, want)
		}
		if line != uint16(lvl.GLSegs[i].Linedef) {
			t.Errorf("seg %d linedef %d", i, line)
		}
	}
}

func TestGetXGLNodesBytesFixedPointNodes(t *testing.T) {
	lvl := builtTwoRoom(t, true)
	data, err := GetXGLNodesBytes(lvl, lvl.NumOrgVerts, XGL_VERSION_3,
		false, 0)
	if err != nil {
		t.Fatal(err)
	}
	bs := &byteScanner{t: t, data: data, pos: 4}
	bs.skip(8)
	subCount := int(bs.u32())
	bs.skip(4 * subCount)
	segCount := int(bs.u32())
	bs.skip(13 * segCount) // v1 + partner + linedef u32 + side
	nodeCount := int(bs.u32())
	if nodeCount != len(lvl.GLNodes) {
		t.Fatalf("node count %d, want %d", nodeCount, len(lvl.GLNodes))
	}
	if got := int32(bs.u32()); got != lvl.GLNodes[0].X {
		t.Errorf("node x %#x, want fixed-point %#x", got, lvl.GLNodes[0].X)
	}
}

func TestGetXNodesBytesLinedefCap(t *testing.T) {
	lvl := builtTwoRoom(t, false)
	lvl.Linedefs = make([]IntLinedef, 65536)
	_, err := GetXNodesBytes(lvl, lvl.NumOrgVerts, false, 0)
	var ce *CapacityExceededError
	if !errors.As(err, &ce) || ce.What != "linedefs" {
		t.Fatalf("expected linedef CapacityExceededError, got %v", err)
	}
	// version 2 widens the linedef field and must accept the same count
	lvl2 := builtTwoRoom(t, true)
	lvl2.Linedefs = make([]IntLinedef, 65536)
	if _, err := GetXGLNodesBytes(lvl2, lvl2.NumOrgVerts, XGL_VERSION_2,
		false, 0); err != nil {
		t.Errorf("version 2 should accept 65536 linedefs: %v", err)
	}
}
