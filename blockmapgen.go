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

// blockmapgen.go - BLOCKMAP regeneration. A grid of 128x128-unit
// blocks anchored at the level's lower-left corner; each block's list
// enumerates the linedefs that touch it, led by 0x0000 and terminated
// by 0xFFFF. The lump is a word sequence: header, offset table, lists.

// CreateBlockmap builds the blockmap word sequence for the level
func CreateBlockmap(lvl *Level) ([]uint16, error) {
	xmin, ymin, xmax, ymax := lvl.Bounds()
	xblocks := (xmax-xmin)>>BLOCK_BITS + 1
	yblocks := (ymax-ymin)>>BLOCK_BITS + 1

	lists := make([][]uint16, xblocks*yblocks)
	for i := range lvl.Linedefs {
		ld := &lvl.Linedefs[i]
		x1 := int(lvl.Vertices[ld.V1].X>>FRACBITS) - xmin
		y1 := int(lvl.Vertices[ld.V1].Y>>FRACBITS) - ymin
		x2 := int(lvl.Vertices[ld.V2].X>>FRACBITS) - xmin
		y2 := int(lvl.Vertices[ld.V2].Y>>FRACBITS) - ymin
		traceLine(lists, xblocks, yblocks, x1, y1, x2, y2, uint16(i))
	}

	// header + offsets + per-block "0x0000 ... 0xFFFF"
	size := 4 + len(lists)
	for _, l := range lists {
		size += 2 + len(l)
	}
	if size > 65535 {
		// offsets are 16-bit words; a bigger lump cannot be addressed
		return nil, &CapacityExceededError{What: "blockmap words",
			Count: size, Limit: 65535}
	}

	bm := make([]uint16, 4+len(lists), size)
	bm[0], bm[1] = uint16(xmin), uint16(ymin)
	bm[2], bm[3] = uint16(xblocks), uint16(yblocks)
	offset := 4 + len(lists)
	for bi, l := range lists {
		bm[4+bi] = uint16(offset)
		bm = append(bm, 0x0000)
		bm = append(bm, l...)
		bm = append(bm, 0xFFFF)
		offset += 2 + len(l)
	}
	return bm, nil
}

// CreateBlockmapZero emits a header-only blockmap whose every block is
// empty. Used when the caller wants the lump present but irrelevant.
func CreateBlockmapZero(lvl *Level) []uint16 {
	xmin, ymin, xmax, ymax := lvl.Bounds()
	xblocks := (xmax-xmin)>>BLOCK_BITS + 1
	yblocks := (ymax-ymin)>>BLOCK_BITS + 1
	bm := make([]uint16, 0, 4+xblocks*yblocks+2)
	bm = append(bm, uint16(xmin), uint16(ymin), uint16(xblocks), uint16(yblocks))
	shared := uint16(4 + xblocks*yblocks)
	for i := 0; i < xblocks*yblocks; i++ {
		bm = append(bm, shared)
	}
	bm = append(bm, 0x0000, 0xFFFF)
	return bm
}

// traceLine appends line to the list of every block the segment
// touches. Walks the bounding rectangle of blocks and keeps those the
// segment actually intersects.
func traceLine(lists [][]uint16, xblocks, yblocks, x1, y1, x2, y2 int,
	line uint16) {

	bx1, bx2 := x1>>BLOCK_BITS, x2>>BLOCK_BITS
	by1, by2 := y1>>BLOCK_BITS, y2>>BLOCK_BITS
	if bx2 < bx1 {
		bx1, bx2 = bx2, bx1
	}
	if by2 < by1 {
		by1, by2 = by2, by1
	}
	for by := by1; by <= by2; by++ {
		for bx := bx1; bx <= bx2; bx++ {
			if bx < 0 || by < 0 || bx >= xblocks || by >= yblocks {
				continue
			}
			if !lineTouchesBlock(x1, y1, x2, y2, bx<<BLOCK_BITS, by<<BLOCK_BITS) {
				continue
			}
			idx := by*xblocks + bx
			lists[idx] = append(lists[idx], line)
		}
	}
}

// lineTouchesBlock tests segment against one 128x128 block by endpoint
// containment and edge crossing
func lineTouchesBlock(x1, y1, x2, y2, bx, by int) bool {
	inBlock := func(x, y int) bool {
		return x >= bx && x < bx+BLOCK_WIDTH && y >= by && y < by+BLOCK_WIDTH
	}
	if inBlock(x1, y1) || inBlock(x2, y2) {
		return true
	}
	// segment-segment crossing against all four block edges
	corners := [4][4]int{
		{bx, by, bx + BLOCK_WIDTH, by},
		{bx, by + BLOCK_WIDTH, bx + BLOCK_WIDTH, by + BLOCK_WIDTH},
		{bx, by, bx, by + BLOCK_WIDTH},
		{bx + BLOCK_WIDTH, by, bx + BLOCK_WIDTH, by + BLOCK_WIDTH},
	}
	for _, e := range corners {
		if segmentsCross(x1, y1, x2, y2, e[0], e[1], e[2], e[3]) {
			return true
		}
	}
	return false
}

func segmentsCross(ax1, ay1, ax2, ay2, bx1, by1, bx2, by2 int) bool {
	d1 := crossSign(bx1, by1, bx2, by2, ax1, ay1)
	d2 := crossSign(bx1, by1, bx2, by2, ax2, ay2)
	d3 := crossSign(ax1, ay1, ax2, ay2, bx1, by1)
	d4 := crossSign(ax1, ay1, ax2, ay2, bx2, by2)
	if d1*d2 < 0 && d3*d4 < 0 {
		return true
	}
	// collinear overlaps count as touching
	return d1 == 0 && onSpan(bx1, by1, bx2, by2, ax1, ay1) ||
		d2 == 0 && onSpan(bx1, by1, bx2, by2, ax2, ay2) ||
		d3 == 0 && onSpan(ax1, ay1, ax2, ay2, bx1, by1) ||
		d4 == 0 && onSpan(ax1, ay1, ax2, ay2, bx2, by2)
}

func crossSign(x1, y1, x2, y2, px, py int) int {
	v := (x2-x1)*(py-y1) - (y2-y1)*(px-x1)
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

func onSpan(x1, y1, x2, y2, px, py int) bool {
	return min(x1, x2) <= px && px <= max(x1, x2) &&
		min(y1, y2) <= py && py <= max(y1, y2)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
