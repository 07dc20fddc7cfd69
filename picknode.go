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

// picknode.go - partition candidate evaluation. The cost function is
// the classic one: every seg the candidate would split adds SplitCost
// (times PRECIOUS_MULTIPLY when the split would cut a polyobject
// sector's line), and the final seg-count imbalance between the two
// sides is added on top. A candidate must leave at least one seg on
// each side. Candidates are visited in list order and only a strictly
// lower cost replaces the leader, so the choice is deterministic for
// identical input.

func (w *nodesWork) pickNode(ts *nodeSeg) *nodeSeg {
	var best *nodeSeg
	bestcost := int(^uint(0) >> 1)

	w.pickTick++
	for part := ts; part != nil; part = part.next {
		part.mark = w.pickTick
	}
	for part := ts; part != nil; part = part.next {
		if part.Linedef == NO_INDEX32 {
			// minisegs bound open space, they never partition it
			continue
		}
		if part.Flip != 0 && part.partner != nil &&
			part.partner.mark == w.pickTick {
			// the partner prices the same line from the other side. When
			// an earlier partition carried it into the sibling region,
			// this seg is the line's only candidate here and must run.
			continue
		}
		cost := w.evalPartition(ts, part, bestcost)
		if cost < 0 {
			continue
		}
		if cost < bestcost {
			bestcost = cost
			best = part
		}
	}
	return best
}

// evalPartition prices one candidate. Returns -1 when the candidate is
// unusable or already costs more than the current leader.
func (w *nodesWork) evalPartition(ts, part *nodeSeg, bestcost int) int {
	cost := 0
	leftcount := 0
	rightcount := 0

	c := &IntersectionContext{
		psx: part.psx, psy: part.psy, pex: part.pex, pey: part.pey,
		pdx: part.pdx, pdy: part.pdy,
	}

	for check := ts; check != nil; check = check.next {
		if check == part {
			rightcount++
			continue
		}
		if part.partner != nil && check == part.partner {
			leftcount++
			continue
		}
		c.lsx, c.lsy = check.psx, check.psy
		c.lex, c.ley = check.pex, check.pey
		val := c.doLinesIntersect()

		onLine := val&LINE_START_ON != 0 && val&LINE_END_ON != 0
		hasLeft := val&(LINE_START_LEFT|LINE_END_LEFT) != 0
		hasRight := val&(LINE_START_RIGHT|LINE_END_RIGHT) != 0

		switch {
		case onLine:
			if check.pdx*c.pdx+check.pdy*c.pdy > 0 {
				rightcount++
			} else {
				leftcount++
			}
		case !hasLeft:
			rightcount++
		case !hasRight:
			leftcount++
		default:
			factor := w.cfg.SplitCost
			if check.precious {
				factor *= PRECIOUS_MULTIPLY
			}
			cost += factor
			if cost > bestcost {
				return -1
			}
			leftcount++
			rightcount++
		}
	}

	if leftcount == 0 || rightcount == 0 {
		return -1
	}
	diff := leftcount - rightcount
	if diff < 0 {
		diff = -diff
	}
	cost += diff
	if cost >= bestcost {
		return -1
	}
	return cost
}
