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

// xznodes.go - the extended node encodings: "XNOD" (plain) / "ZNOD"
// (deflate) for the non-GL tree, and "XGLN"/"XGL2"/"XGL3" with their
// "Z" siblings for the GL tree. All share one body layout - vertex
// header, subsector counts, segs, nodes - behind a 4-byte signature;
// the compressed variants differ only by running the body through the
// ZStream's compressor.

// GetXNodesBytes serializes the non-GL tree. orgVerts is the number of
// vertices the VERTEXES lump (or TEXTMAP) carries; vertices past it
// are embedded here.
func GetXNodesBytes(lvl *Level, orgVerts int, compressed bool,
	zlibLevel int) ([]byte, error) {

	if len(lvl.Linedefs) > 65535 {
		return nil, &CapacityExceededError{What: "linedefs",
			Count: len(lvl.Linedefs), Limit: 65535}
	}
	sig := ZNODES_PLAIN_SIG
	if compressed {
		sig = ZNODES_COMPRESSED_SIG
	}
	z, err := CreateZStream(sig[:], compressed, zlibLevel)
	if err != nil {
		return nil, err
	}
	writeXVertexHeader(z, lvl, orgVerts)
	writeXSubsectors(z, lvl.Subsectors)
	z.WriteUint32(uint32(len(lvl.Segs)))
	for i := range lvl.Segs {
		seg := &lvl.Segs[i]
		z.WriteUint32(seg.V1)
		z.WriteUint32(seg.V2)
		z.WriteUint16(uint16(seg.Linedef))
		z.WriteUint8(uint8(seg.Side))
	}
	writeXNodes(z, lvl.Nodes, false)
	return z.FinalizeAndGetBytes()
}

// GL node format versions for the extended encodings
const XGL_VERSION_1 = 1
const XGL_VERSION_2 = 2
const XGL_VERSION_3 = 3

// GetXGLNodesBytes serializes the GL tree in the requested extended
// version. Version 3 stores partition lines in fixed point, which
// CheckForFracSplitters may make mandatory.
func GetXGLNodesBytes(lvl *Level, orgVerts int, version int,
	compressed bool, zlibLevel int) ([]byte, error) {

	if version == XGL_VERSION_1 && len(lvl.Linedefs) > 65535 {
		return nil, &CapacityExceededError{What: "linedefs",
			Count: len(lvl.Linedefs), Limit: 65535}
	}
	sig := GLNODES_PLAIN_SIG[version-1]
	if compressed {
		sig = GLNODES_COMPRESSED_SIG[version-1]
	}
	z, err := CreateZStream(sig[:], compressed, zlibLevel)
	if err != nil {
		return nil, err
	}
	writeXVertexHeader(z, lvl, orgVerts)
	writeXSubsectors(z, lvl.GLSubsectors)
	z.WriteUint32(uint32(len(lvl.GLSegs)))
	for i := range lvl.GLSegs {
		seg := &lvl.GLSegs[i]
		z.WriteUint32(seg.V1)
		z.WriteUint32(seg.Partner)
		if version >= XGL_VERSION_2 {
			z.WriteUint32(seg.Linedef)
		} else {
			z.WriteUint16(uint16(seg.Linedef))
		}
		z.WriteUint8(uint8(seg.Side))
	}
	writeXNodes(z, lvl.GLNodes, version == XGL_VERSION_3)
	return z.FinalizeAndGetBytes()
}

func writeXVertexHeader(z *ZStream, lvl *Level, orgVerts int) {
	z.WriteUint32(uint32(orgVerts))
	z.WriteUint32(uint32(len(lvl.Vertices) - orgVerts))
	for _, v := range lvl.Vertices[orgVerts:] {
		z.WriteFixed(v.X)
		z.WriteFixed(v.Y)
	}
}

func writeXSubsectors(z *ZStream, subs []SubsectorEx) {
	z.WriteUint32(uint32(len(subs)))
	for i := range subs {
		// FirstSeg is implied by the running total
		z.WriteUint32(subs[i].NumSegs)
	}
}

func writeXNodes(z *ZStream, nodes []NodeEx, fixedPoint bool) {
	z.WriteUint32(uint32(len(nodes)))
	for i := range nodes {
		n := &nodes[i]
		if fixedPoint {
			z.WriteFixed(n.X)
			z.WriteFixed(n.Y)
			z.WriteFixed(n.Dx)
			z.WriteFixed(n.Dy)
		} else {
			z.WriteInt16(int16(n.X >> FRACBITS))
			z.WriteInt16(int16(n.Y >> FRACBITS))
			z.WriteInt16(int16(n.Dx >> FRACBITS))
			z.WriteInt16(int16(n.Dy >> FRACBITS))
		}
		for side := 0; side < 2; side++ {
			for _, bb := range n.Bbox[side] {
				z.WriteInt16(bb)
			}
		}
		z.WriteUint32(n.Children[NODE_RIGHT])
		z.WriteUint32(n.Children[NODE_LEFT])
	}
}
