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

// vmap.go - spatial grid for epsilon vertex lookup. Split points that
// land within VERTEX_EPSILON of an existing vertex must reuse it, or
// float jitter would mint a fresh vertex per split and re-split segs
// at their own endpoints.

const VMAP_BLOCK_SHIFT = 8 + FRACBITS

const VMAP_BLOCK_SIZE = 1 << VMAP_BLOCK_SHIFT

// Bounds padding; intersection points can land slightly outside the
// vertex bounding box
const VMAP_SAFE_MARGIN = 2.0

type FloatVertex struct {
	X  float64
	Y  float64
	Id int // index into Level.Vertices, -1 until assigned
}

type VertexMap struct {
	Grid       [][]*FloatVertex
	BlocksWide int
	BlocksTall int
	MinX, MinY float64
	MaxX, MaxY float64
}

func CreateVertexMap(minx, miny, maxx, maxy int) *VertexMap {
	minx -= VMAP_SAFE_MARGIN
	miny -= VMAP_SAFE_MARGIN
	maxx += VMAP_SAFE_MARGIN
	maxy += VMAP_SAFE_MARGIN

	vm := &VertexMap{
		MinX: float64(minx),
		MinY: float64(miny),
		BlocksWide: int((float64(maxx-minx+1)*
			FIXED16DOT16_MULTIPLIER + float64(VMAP_BLOCK_SIZE-1)) /
			float64(VMAP_BLOCK_SIZE)),
		BlocksTall: int((float64(maxy-miny+1)*
			FIXED16DOT16_MULTIPLIER + float64(VMAP_BLOCK_SIZE-1)) /
			float64(VMAP_BLOCK_SIZE)),
	}
	vm.MaxX = vm.MinX + float64(vm.BlocksWide*VMAP_BLOCK_SIZE-1)/FIXED16DOT16_MULTIPLIER
	vm.MaxY = vm.MinY + float64(vm.BlocksTall*VMAP_BLOCK_SIZE-1)/FIXED16DOT16_MULTIPLIER
	vm.Grid = make([][]*FloatVertex, vm.BlocksWide*vm.BlocksTall)
	return vm
}

func (vm *VertexMap) getBlock(x, y float64) int {
	// Float drift can push coordinates a hair past the borders; such
	// cases still index in range because of the safe margin, but guard
	// anyway rather than panic
	ret := int(uint((x-vm.MinX)*FIXED16DOT16_MULTIPLIER)>>VMAP_BLOCK_SHIFT +
		(uint((y-vm.MinY)*FIXED16DOT16_MULTIPLIER)>>VMAP_BLOCK_SHIFT)*
			uint(vm.BlocksWide))
	if ret < 0 || ret >= len(vm.Grid) {
		Log.Verbose(2, "Vertex map index out of range: x=%f, y=%f bounds (%f,%f)-(%f,%f)\n",
			x, y, vm.MinX, vm.MinY, vm.MaxX, vm.MaxY)
		return 0
	}
	return ret
}

// SelectVertexExact returns the vertex at exactly (x, y), inserting it
// with the given id when absent. Used to seed the map with original
// vertices.
func (vm *VertexMap) SelectVertexExact(x, y float64, id int) *FloatVertex {
	block := vm.Grid[vm.getBlock(x, y)]
	for _, it := range block {
		if it.X == x && it.Y == y {
			return it
		}
	}
	return vm.insertVertex(x, y, id)
}

// SelectVertexClose returns a vertex within VERTEX_EPSILON of (x, y),
// inserting a new unassigned one when none is close enough
func (vm *VertexMap) SelectVertexClose(x, y float64) *FloatVertex {
	block := vm.Grid[vm.getBlock(x, y)]
	for _, it := range block {
		if math.Abs(it.X-x) < VERTEX_EPSILON &&
			math.Abs(it.Y-y) < VERTEX_EPSILON {
			return it
		}
	}
	return vm.insertVertex(x, y, -1)
}

func (vm *VertexMap) insertVertex(x, y float64, id int) *FloatVertex {
	ret := &FloatVertex{
		X:  x,
		Y:  y,
		Id: id,
	}
	// A vertex near a block boundary goes into every block its epsilon
	// neighborhood touches, so lookups check a single block only
	minx := math.Max(vm.MinX, x-VERTEX_EPSILON)
	maxx := math.Min(vm.MaxX, x+VERTEX_EPSILON)
	miny := math.Max(vm.MinY, y-VERTEX_EPSILON)
	maxy := math.Min(vm.MaxY, y+VERTEX_EPSILON)
	blk := [4]int{
		vm.getBlock(minx, miny),
		vm.getBlock(maxx, miny),
		vm.getBlock(minx, maxy),
		vm.getBlock(maxx, maxy),
	}
	blcount := [4]int{
		len(vm.Grid[blk[0]]),
		len(vm.Grid[blk[1]]),
		len(vm.Grid[blk[2]]),
		len(vm.Grid[blk[3]]),
	}
	for i := 0; i < 4; i++ {
		if len(vm.Grid[blk[i]]) == blcount[i] {
			vm.Grid[blk[i]] = append(vm.Grid[blk[i]], ret)
		}
	}
	return ret
}
