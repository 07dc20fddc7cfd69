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

// glnodes.go - writers for the standalone GL lump family (GL_VERT,
// GL_SEGS, GL_SSECT, GL_NODES) in versions 1, 2 and 5. Version 1
// stores builder vertices as plain 16-bit pairs, version 2 upgrades
// them to fixed point behind a "gNd2" signature, version 5 widens
// every reference to 32 bits behind "gNd5".

// CheckGLV1Caps verifies the GL tree fits the 16-bit GL records.
// base is the count of vertices living in the VERTEXES lump; GL_VERT
// holds the rest.
func CheckGLV1Caps(lvl *Level, base int) error {
	newVerts := len(lvl.Vertices) - base
	if base > 32768 || newVerts > 32768 {
		return &CapacityExceededError{What: "GL vertices",
			Count: len(lvl.Vertices), Limit: 32768}
	}
	if len(lvl.GLSegs) > 65535 {
		return &CapacityExceededError{What: "GL segs",
			Count: len(lvl.GLSegs), Limit: 65535}
	}
	if len(lvl.GLSubsectors) > 32768 {
		return &CapacityExceededError{What: "GL subsectors",
			Count: len(lvl.GLSubsectors), Limit: 32768}
	}
	if len(lvl.GLNodes) > 32768 {
		return &CapacityExceededError{What: "GL nodes",
			Count: len(lvl.GLNodes), Limit: 32768}
	}
	return nil
}

// WriteGLVert writes the builder-added vertices. Version 1 loses the
// fractional part; 2 and 5 store 16.16 fixed point.
func WriteGLVert(lw LumpWriter, lvl *Level, base int, version int) error {
	var buf bytes.Buffer
	newVerts := lvl.Vertices[base:]
	switch version {
	case 1:
		for _, v := range newVerts {
			binary.Write(&buf, binary.LittleEndian, MapVertex{
				XPos: int16(v.X >> FRACBITS),
				YPos: int16(v.Y >> FRACBITS),
			})
		}
	case 2:
		buf.Write(GLVERT_V2_SIG[:])
		writeFixedVerts(&buf, newVerts)
	case 5:
		buf.Write(GLVERT_V5_SIG[:])
		writeFixedVerts(&buf, newVerts)
	}
	// a GL build can add no vertices at all; the lump is still written
	return lw.WriteLump("GL_VERT", nonNilLump(buf.Bytes()))
}

func writeFixedVerts(buf *bytes.Buffer, verts []VertexEx) {
	for _, v := range verts {
		binary.Write(buf, binary.LittleEndian, uint32(v.X))
		binary.Write(buf, binary.LittleEndian, uint32(v.Y))
	}
}

// glVertRef maps an absolute vertex index to a GL seg reference with
// the new-vertex flag when needed
func glVertRef(idx uint32, flag uint32, base int) uint32 {
	if int(idx) >= base {
		return flag | (idx - uint32(base))
	}
	return idx
}

func WriteGLSegs(lw LumpWriter, lvl *Level, base int, version int) error {
	if version == 5 {
		raw := make([]MapSegGLEx, len(lvl.GLSegs))
		for i := range lvl.GLSegs {
			seg := &lvl.GLSegs[i]
			raw[i] = MapSegGLEx{
				StartVertex: glVertRef(seg.V1, VERT_IS_GL_V5, base),
				EndVertex:   glVertRef(seg.V2, VERT_IS_GL_V5, base),
				Linedef:     uint16(seg.Linedef),
				Side:        seg.Side,
				Partner:     seg.Partner,
			}
			if seg.Linedef == NO_INDEX32 {
				raw[i].Linedef = 0xFFFF
			}
			if seg.Partner == NO_INDEX32 {
				raw[i].Partner = GL_NO_PARTNER_V5
			}
		}
		return writeLumpStruct(lw, "GL_SEGS", raw)
	}
	raw := make([]MapSegGL, len(lvl.GLSegs))
	for i := range lvl.GLSegs {
		seg := &lvl.GLSegs[i]
		raw[i] = MapSegGL{
			StartVertex: uint16(glVertRef(seg.V1, VERT_IS_GL_V1, base)),
			EndVertex:   uint16(glVertRef(seg.V2, VERT_IS_GL_V1, base)),
			Linedef:     uint16(seg.Linedef),
			Side:        seg.Side,
			Partner:     uint16(seg.Partner),
		}
		if seg.Linedef == NO_INDEX32 {
			raw[i].Linedef = 0xFFFF
		}
		if seg.Partner == NO_INDEX32 {
			raw[i].Partner = GL_NO_PARTNER_V1
		}
	}
	return writeLumpStruct(lw, "GL_SEGS", raw)
}

func WriteGLSsect(lw LumpWriter, lvl *Level, version int) error {
	if version == 5 {
		raw := make([]MapSubsectorGLEx, len(lvl.GLSubsectors))
		for i := range lvl.GLSubsectors {
			raw[i] = MapSubsectorGLEx{
				SegCount: lvl.GLSubsectors[i].NumSegs,
				FirstSeg: lvl.GLSubsectors[i].FirstSeg,
			}
		}
		return writeLumpStruct(lw, "GL_SSECT", raw)
	}
	raw := make([]MapSubsector, len(lvl.GLSubsectors))
	for i := range lvl.GLSubsectors {
		raw[i] = MapSubsector{
			SegCount: uint16(lvl.GLSubsectors[i].NumSegs),
			FirstSeg: uint16(lvl.GLSubsectors[i].FirstSeg),
		}
	}
	return writeLumpStruct(lw, "GL_SSECT", raw)
}

// children already carry SSECTOR_DEEP_MASK internally, the 32-bit
// formats store them as-is
func glChildV5(child uint32) int32 {
	return int32(child)
}

func WriteGLNodes(lw LumpWriter, lvl *Level, version int) error {
	if version == 5 {
		raw := make([]MapNodeEx, len(lvl.GLNodes))
		for i := range lvl.GLNodes {
			n := &lvl.GLNodes[i]
			raw[i] = MapNodeEx{
				X:      int16(n.X >> FRACBITS),
				Y:      int16(n.Y >> FRACBITS),
				Dx:     int16(n.Dx >> FRACBITS),
				Dy:     int16(n.Dy >> FRACBITS),
				Rbox:   n.Bbox[NODE_RIGHT],
				Lbox:   n.Bbox[NODE_LEFT],
				RChild: glChildV5(n.Children[NODE_RIGHT]),
				LChild: glChildV5(n.Children[NODE_LEFT]),
			}
		}
		return writeLumpStruct(lw, "GL_NODES", raw)
	}
	raw := make([]MapNode, len(lvl.GLNodes))
	for i := range lvl.GLNodes {
		n := &lvl.GLNodes[i]
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
	return writeLumpStruct(lw, "GL_NODES", raw)
}

// WriteGLNodeLumps emits the full GL lump family in one version
func WriteGLNodeLumps(lw LumpWriter, lvl *Level, base int, version int) error {
	if version != 5 {
		if err := CheckGLV1Caps(lvl, base); err != nil {
			return err
		}
	}
	if err := WriteGLVert(lw, lvl, base, version); err != nil {
		return err
	}
	if err := WriteGLSegs(lw, lvl, base, version); err != nil {
		return err
	}
	if err := WriteGLSsect(lw, lvl, version); err != nil {
		return err
	}
	return WriteGLNodes(lw, lvl, version)
}
