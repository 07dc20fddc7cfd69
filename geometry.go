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
	"math"
)

// geometry.go - line/partition classification on float64 coordinates.
// Coordinates enter as 16.16 fixed point and are worked on as floats;
// the epsilons below keep the float path consistent with the fixed
// grid the results are snapped back to.

const FIXED16DOT16_MULTIPLIER = 65536.0

// Vertices closer than this (in map units) are considered the same
const VERTEX_EPSILON = 6.0 / FIXED16DOT16_MULTIPLIER

// Distance from the partition line under which an endpoint counts as
// lying on it
const SIDE_EPSILON = 0.0001

// IntersectionContext carries a partition line (ps/pe, deltas
// precomputed) and one checked line (ls/le)
type IntersectionContext struct {
	psx, psy, pex, pey float64 // partition line
	pdx, pdy           float64 // pex-psx, pey-psy
	lsx, lsy, lex, ley float64 // checked line
}

// computeIntersection returns the point where the checked line crosses
// the partition. Intercept-vector method: project the offset between
// the two starts onto the partition normal, scale by the divisor of
// the two direction vectors.
func (c *IntersectionContext) computeIntersection() (float64, float64) {
	ldx := c.lex - c.lsx
	ldy := c.ley - c.lsy
	den := c.pdy*ldx - c.pdx*ldy
	if den == 0.0 {
		// parallel; callers only ask after detecting a crossing
		return c.lsx, c.lsy
	}
	num := (c.psx-c.lsx)*c.pdy - (c.psy-c.lsy)*c.pdx
	frac := num / den
	return c.lsx + frac*ldx, c.lsy + frac*ldy
}

// Bit codes of doLinesIntersect:
// start point: 16 on the line, 32 left of it, 64 right of it
// end point:    1 on the line,  2 left of it,  4 right of it
const (
	LINE_START_ON    = uint8(16)
	LINE_START_LEFT  = uint8(32)
	LINE_START_RIGHT = uint8(64)
	LINE_END_ON      = uint8(1)
	LINE_END_LEFT    = uint8(2)
	LINE_END_RIGHT   = uint8(4)
)

// doLinesIntersect classifies both endpoints of the checked line
// against the partition. An endpoint within SIDE_EPSILON distance of
// the partition counts as on it; this must agree with the splitting
// code or segs get split at their own endpoints forever.
func (c *IntersectionContext) doLinesIntersect() uint8 {
	dx2 := c.psx - c.lsx
	dy2 := c.psy - c.lsy
	dx3 := c.psx - c.lex
	dy3 := c.psy - c.ley

	a := c.pdy*dx2 - c.pdx*dy2
	b := c.pdy*dx3 - c.pdx*dy3
	if a != 0 && b != 0 && a*b < 0 {
		// endpoints straddle the partition; if the crossing lands on
		// an endpoint, reclassify that endpoint as on the line
		x, y := c.computeIntersection()
		dx2 = c.lsx - x
		dy2 = c.lsy - y
		l := dx2*dx2 + dy2*dy2
		if l < VERTEX_EPSILON*VERTEX_EPSILON {
			a = 0
		}
		dx3 = c.lex - x
		dy3 = c.ley - y
		l = dx3*dx3 + dy3*dy3
		if l < VERTEX_EPSILON*VERTEX_EPSILON {
			b = 0
		}
	}

	plen := math.Sqrt(c.pdx*c.pdx + c.pdy*c.pdy)
	if plen > 0 {
		// a and b are cross products, scale to distances
		if math.Abs(a)/plen < SIDE_EPSILON {
			a = 0
		}
		if math.Abs(b)/plen < SIDE_EPSILON {
			b = 0
		}
	}

	var val uint8
	if a == 0 {
		val |= LINE_START_ON
	} else if a < 0 {
		val |= LINE_START_RIGHT
	} else {
		val |= LINE_START_LEFT
	}
	if b == 0 {
		val |= LINE_END_ON
	} else if b < 0 {
		val |= LINE_END_RIGHT
	} else {
		val |= LINE_END_LEFT
	}
	return val
}

// pointOnSide reports which side of the partition a point lies on:
// 0 right, 1 left, 2 on the line
func (c *IntersectionContext) pointOnSide(x, y float64) int {
	a := c.pdy*(c.psx-x) - c.pdx*(c.psy-y)
	plen := math.Sqrt(c.pdx*c.pdx + c.pdy*c.pdy)
	if plen > 0 && math.Abs(a)/plen < SIDE_EPSILON {
		return 2
	}
	if a < 0 {
		return 0
	}
	if a > 0 {
		return 1
	}
	return 2
}

// computeAngle returns the binary angle of a direction vector, the way
// the classic SEGS lump stores it (0x8000 = 180 degrees)
func computeAngle(dx, dy float64) uint16 {
	w := math.Atan2(dy, dx) * (65536.0 / (math.Pi * 2))
	if w < 0 {
		w += 65536.0
	}
	return uint16(int(w) & 0xFFFF)
}

func fixedToFloat(v int32) float64 {
	return float64(v) / FIXED16DOT16_MULTIPLIER
}

func floatToFixed(v float64) int32 {
	return int32(math.Round(v * FIXED16DOT16_MULTIPLIER))
}
