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
	"testing"
)

// upward partition at x=64
func partitionX64() *IntersectionContext {
	return &IntersectionContext{
		psx: 64, psy: 0, pex: 64, pey: 128,
		pdx: 0, pdy: 128,
	}
}

func TestDoLinesIntersectSides(t *testing.T) {
	cases := []struct {
		name     string
		lsx, lsy float64
		lex, ley float64
		want     uint8
	}{
		{"both left", 0, 0, 0, 128,
			LINE_START_LEFT | LINE_END_LEFT},
		{"both right", 128, 0, 128, 128,
			LINE_START_RIGHT | LINE_END_RIGHT},
		{"straddles", 0, 64, 128, 64,
			LINE_START_LEFT | LINE_END_RIGHT},
		{"collinear", 64, 10, 64, 100,
			LINE_START_ON | LINE_END_ON},
		{"starts on it", 64, 64, 0, 64,
			LINE_START_ON | LINE_END_LEFT},
		{"ends on it", 128, 64, 64, 64,
			LINE_START_RIGHT | LINE_END_ON},
	}
	for _, tc := range cases {
		c := partitionX64()
		c.lsx, c.lsy, c.lex, c.ley = tc.lsx, tc.lsy, tc.lex, tc.ley
		if got := c.doLinesIntersect(); got != tc.want {
			t.Errorf("%s: got %#b, want %#b", tc.name, got, tc.want)
		}
	}
}

func TestDoLinesIntersectNearMiss(t *testing.T) {
	// crossing within vertex epsilon of an endpoint must classify the
	// endpoint as on the line, or splitting would mint a duplicate vertex
	c := partitionX64()
	c.lsx, c.lsy = 64.00001, 64
	c.lex, c.ley = 128, 64
	got := c.doLinesIntersect()
	if got&LINE_START_ON == 0 {
		t.Errorf("start within epsilon of the partition got %#b", got)
	}
}

func TestComputeIntersection(t *testing.T) {
	c := partitionX64()
	c.lsx, c.lsy = 0, 0
	c.lex, c.ley = 128, 128
	x, y := c.computeIntersection()
	if math.Abs(x-64) > 1e-9 || math.Abs(y-64) > 1e-9 {
		t.Errorf("intersection (%v,%v), want (64,64)", x, y)
	}
}

func TestPointOnSide(t *testing.T) {
	c := partitionX64()
	if got := c.pointOnSide(128, 64); got != 0 {
		t.Errorf("point right of an upward partition: %d", got)
	}
	if got := c.pointOnSide(0, 64); got != 1 {
		t.Errorf("point left of an upward partition: %d", got)
	}
	if got := c.pointOnSide(64, 999); got != 2 {
		t.Errorf("point on the partition: %d", got)
	}
}

func TestComputeAngle(t *testing.T) {
	cases := []struct {
		dx, dy float64
		want   uint16
	}{
		{1, 0, 0x0000},
		{0, 1, 0x4000},
		{-1, 0, 0x8000},
		{0, -1, 0xC000},
	}
	for _, tc := range cases {
		if got := computeAngle(tc.dx, tc.dy); got != tc.want {
			t.Errorf("angle(%v,%v) = %#x, want %#x", tc.dx, tc.dy, got, tc.want)
		}
	}
}

func TestFixedFloatConversion(t *testing.T) {
	if fixedToFloat(96<<FRACBITS+0x8000) != 96.5 {
		t.Error("fixedToFloat(96.5) wrong")
	}
	if floatToFixed(96.5) != 96<<FRACBITS+0x8000 {
		t.Error("floatToFixed(96.5) wrong")
	}
	if floatToFixed(fixedToFloat(-12345678)) != -12345678 {
		t.Error("fixed round trip lost precision")
	}
}
