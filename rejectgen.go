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

// rejectgen.go - REJECT table policies. The table is a bit matrix,
// sector x sector, row-major, bit set = "never check sight between
// this pair". A wrong clear bit costs a sight check; a wrong set bit
// breaks gameplay, so the rebuild must never set a bit for a pair that
// could see each other.

func rejectSize(numSectors int) int {
	return (numSectors*numSectors + 7) / 8
}

// ZeroReject returns an all-visible table
func ZeroReject(numSectors int) []byte {
	return make([]byte, rejectSize(numSectors))
}

// FixReject adapts an existing table to the current sector count:
// truncated or zero-padded, never reinterpreted. Keeps a stale but
// plausible table usable after sectors were added or removed.
func FixReject(numSectors int, old []byte) []byte {
	want := rejectSize(numSectors)
	ret := make([]byte, want)
	copy(ret, old)
	return ret
}

// RebuildReject recomputes the table from sector adjacency: two
// sectors connected through any chain of two-sided linedefs might see
// each other, so only pairs in different connected components are
// rejected. Conservative by construction - no false positives.
func RebuildReject(lvl *Level) []byte {
	numSectors := len(lvl.Sectors)
	ret := make([]byte, rejectSize(numSectors))
	if numSectors == 0 {
		return ret
	}

	group := make([]int, numSectors)
	for i := range group {
		group[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for group[x] != x {
			group[x] = group[group[x]]
			x = group[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			group[rb] = ra
		}
	}

	for i := range lvl.Linedefs {
		front := lvl.sectorOfLinedefSide(uint32(i), 0)
		back := lvl.sectorOfLinedefSide(uint32(i), 1)
		if front != NO_INDEX32 && back != NO_INDEX32 && front != back {
			union(int(front), int(back))
		}
	}

	for i := 0; i < numSectors; i++ {
		for j := 0; j < numSectors; j++ {
			if find(i) != find(j) {
				bit := i*numSectors + j
				ret[bit>>3] |= 1 << (uint(bit) & 7)
			}
		}
	}
	return ret
}
