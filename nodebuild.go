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
	"sort"
)

// nodebuild.go - the recursive BSP builder. Segs are generated from
// linedef sides, then the seg set is partitioned recursively until
// every region is convex; each split picks the minimum-cost partition
// candidate (picknode.go) and divides crossing segs, reusing vertices
// within VERTEX_EPSILON. GL builds additionally close each subsector
// boundary with minisegs along the partition and record explicit
// partner indices.
//
// Nodes are emitted post-order, children before parent, so the root is
// the last node of the sequence, which is what every consumer of the
// NODES lump expects.

type nodeVertex struct {
	X   float64
	Y   float64
	idx uint32 // index into Level.Vertices
}

type nodeSeg struct {
	StartVertex *nodeVertex
	EndVertex   *nodeVertex
	Angle       uint16
	Linedef     uint32 // NO_INDEX32 for minisegs
	Flip        int16  // 1 when seg runs opposite its linedef
	Offset      uint16
	next        *nodeSeg
	partner     *nodeSeg
	mark        uint32 // membership stamp for the current pickNode pass
	// precomputed scalars of the seg's own line
	psx, psy, pex, pey float64
	pdx, pdy           float64
	sector             uint32
	precious           bool
}

type nodesWork struct {
	lvl   *Level
	cfg   *NodeConfig
	gl    bool
	round bool // snap split vertices to the integer grid
	vmap  *VertexMap

	nodes      []NodeEx
	subsectors []SubsectorEx
	segsOut    []SegEx
	emitted    []*nodeSeg
	segIndex   map[*nodeSeg]uint32

	totalSplits    int
	sectorsUnclose int
	pickTick       uint32
	diags          *[]Diagnostic
}

// buildNodes runs one full tree build over the level's linedefs.
// precious marks linedefs whose splits the partition picker penalizes.
// round snaps every split vertex to the integer grid, which the
// classic 16-bit vertex encoding requires. The returned seg sequence
// is grouped by subsector without gaps.
func buildNodes(lvl *Level, cfg *NodeConfig, gl bool, round bool,
	precious []bool, diags *[]Diagnostic) ([]NodeEx, []SubsectorEx, []SegEx, error) {

	xmin, ymin, xmax, ymax := lvl.Bounds()
	w := &nodesWork{
		lvl:      lvl,
		cfg:      cfg,
		gl:       gl,
		round:    round,
		vmap:     CreateVertexMap(xmin, ymin, xmax, ymax),
		segIndex: make(map[*nodeSeg]uint32),
		diags:    diags,
	}
	for i := range lvl.Vertices {
		w.vmap.SelectVertexExact(fixedToFloat(lvl.Vertices[i].X),
			fixedToFloat(lvl.Vertices[i].Y), i)
	}

	ts := w.createSegs(precious)
	if ts == nil {
		return nil, nil, nil, &DegenerateGeometryError{
			Detail: "no usable segs could be created from linedefs"}
	}

	w.createNode(ts)

	// resolve partner pointers into emitted indices
	for i, seg := range w.emitted {
		if seg.partner == nil {
			continue
		}
		if idx, ok := w.segIndex[seg.partner]; ok {
			w.segsOut[i].Partner = idx
		}
	}

	Log.Verbose(1, "Built %d nodes, %d subsectors, %d segs (%d splits)\n",
		len(w.nodes), len(w.subsectors), len(w.segsOut), w.totalSplits)
	return w.nodes, w.subsectors, w.segsOut, nil
}

// createSegs makes the initial seg list: one seg per linedef side.
// Partner segs are kept adjacent in the list, the splitting code
// relies on that.
func (w *nodesWork) createSegs(precious []bool) *nodeSeg {
	var head, tail *nodeSeg
	link := func(s *nodeSeg) {
		if head == nil {
			head = s
		} else {
			tail.next = s
		}
		tail = s
	}
	for i := range w.lvl.Linedefs {
		ld := &w.lvl.Linedefs[i]
		v1 := &w.lvl.Vertices[ld.V1]
		v2 := &w.lvl.Vertices[ld.V2]
		if v1.X == v2.X && v1.Y == v2.Y {
			diagf(w.diags, "degenerate-geometry",
				"linedef %d has zero length, skipped", i)
			continue
		}
		front := w.makeSeg(uint32(i), ld.V1, ld.V2, 0, precious[i])
		link(front)
		if ld.Sidenum[1] != NO_INDEX32 {
			back := w.makeSeg(uint32(i), ld.V2, ld.V1, 1, precious[i])
			front.partner = back
			back.partner = front
			link(back)
		}
	}
	return head
}

func (w *nodesWork) makeSeg(line uint32, vfrom, vto uint32, flip int16,
	precious bool) *nodeSeg {

	sv := &nodeVertex{
		X:   fixedToFloat(w.lvl.Vertices[vfrom].X),
		Y:   fixedToFloat(w.lvl.Vertices[vfrom].Y),
		idx: vfrom,
	}
	ev := &nodeVertex{
		X:   fixedToFloat(w.lvl.Vertices[vto].X),
		Y:   fixedToFloat(w.lvl.Vertices[vto].Y),
		idx: vto,
	}
	seg := &nodeSeg{
		StartVertex: sv,
		EndVertex:   ev,
		Linedef:     line,
		Flip:        flip,
		sector:      w.lvl.sectorOfLinedefSide(line, uint16(flip)),
		precious:    precious,
	}
	seg.recompute()
	return seg
}

// recompute refreshes the scalar cache, angle and offset after the
// endpoints changed
func (seg *nodeSeg) recompute() {
	seg.psx = seg.StartVertex.X
	seg.psy = seg.StartVertex.Y
	seg.pex = seg.EndVertex.X
	seg.pey = seg.EndVertex.Y
	seg.pdx = seg.pex - seg.psx
	seg.pdy = seg.pey - seg.psy
	seg.Angle = computeAngle(seg.pdx, seg.pdy)
}

// computeOffset sets the distance from the seg's linedef start (honors
// Flip) to the seg's start vertex
func (w *nodesWork) computeOffset(seg *nodeSeg) {
	if seg.Linedef == NO_INDEX32 {
		seg.Offset = 0
		return
	}
	ld := &w.lvl.Linedefs[seg.Linedef]
	org := ld.V1
	if seg.Flip != 0 {
		org = ld.V2
	}
	ox := fixedToFloat(w.lvl.Vertices[org].X)
	oy := fixedToFloat(w.lvl.Vertices[org].Y)
	dx := seg.psx - ox
	dy := seg.psy - oy
	seg.Offset = uint16(int(math.Round(math.Sqrt(dx*dx+dy*dy))) & 0xFFFF)
}

// createNode recursively partitions the seg list and returns a child
// reference: a node index, or a subsector index with SSECTOR_DEEP_MASK.
func (w *nodesWork) createNode(ts *nodeSeg) uint32 {
	if w.isItConvex(ts) {
		return w.createSSector(ts) | SSECTOR_DEEP_MASK
	}
	best := w.pickNode(ts)
	if best == nil {
		// no candidate leaves segs on both sides; the region cannot be
		// usefully divided further
		diagf(w.diags, "degenerate-geometry",
			"no valid partition for a non-convex region, forcing a subsector")
		return w.createSSector(ts) | SSECTOR_DEEP_MASK
	}

	rights, lefts := w.divideSegs(ts, best)

	node := NodeEx{
		X:  floatToFixed(best.psx),
		Y:  floatToFixed(best.psy),
		Dx: floatToFixed(best.pdx),
		Dy: floatToFixed(best.pdy),
	}
	node.Bbox[NODE_RIGHT] = findLimits(rights)
	node.Bbox[NODE_LEFT] = findLimits(lefts)
	node.Children[NODE_RIGHT] = w.createNode(rights)
	node.Children[NODE_LEFT] = w.createNode(lefts)
	w.nodes = append(w.nodes, node)
	return uint32(len(w.nodes) - 1)
}

// isItConvex reports whether no seg's line has any other seg partly on
// its left. Seg fronts face their sector, so a fully
// right-side-or-on-line arrangement is a finished convex leaf.
func (w *nodesWork) isItConvex(ts *nodeSeg) bool {
	var sector = NO_INDEX32
	mixed := false
	for p := ts; p != nil; p = p.next {
		if p.sector != NO_INDEX32 {
			if sector == NO_INDEX32 {
				sector = p.sector
			} else if sector != p.sector {
				mixed = true
			}
		}
		c := &IntersectionContext{
			psx: p.psx, psy: p.psy, pex: p.pex, pey: p.pey,
			pdx: p.pdx, pdy: p.pdy,
		}
		for check := ts; check != nil; check = check.next {
			if check == p {
				continue
			}
			if c.pointOnSide(check.psx, check.psy) == 1 ||
				c.pointOnSide(check.pex, check.pey) == 1 {
				return false
			}
		}
	}
	if mixed {
		w.sectorsUnclose++
		diagf(w.diags, "unclosed-sector",
			"convex region contains more than one sector (near sector %d)",
			sector)
	}
	return true
}

// createSSector emits the seg chain as one subsector. Seg order within
// the chain is preserved; the global seg sequence therefore partitions
// exactly into subsector ranges.
func (w *nodesWork) createSSector(ts *nodeSeg) uint32 {
	first := uint32(len(w.segsOut))
	count := uint32(0)
	for seg := ts; seg != nil; seg = seg.next {
		w.computeOffset(seg)
		idx := uint32(len(w.segsOut))
		w.segIndex[seg] = idx
		w.segsOut = append(w.segsOut, SegEx{
			V1:      seg.StartVertex.idx,
			V2:      seg.EndVertex.idx,
			Linedef: seg.Linedef,
			Side:    uint16(seg.Flip),
			Partner: NO_INDEX32,
			Angle:   seg.Angle,
			Offset:  seg.Offset,
		})
		w.emitted = append(w.emitted, seg)
		count++
	}
	w.subsectors = append(w.subsectors, SubsectorEx{
		FirstSeg: first,
		NumSegs:  count,
	})
	return uint32(len(w.subsectors) - 1)
}

// divideSegs splits the seg list along the best partition into right
// and left sublists. The partition seg itself goes right, its partner
// left. Crossing segs are split, both halves of a partnered pair at
// the same vertex so partners stay mutual.
func (w *nodesWork) divideSegs(ts, best *nodeSeg) (*nodeSeg, *nodeSeg) {
	var rights, lefts *nodeSeg
	c := &IntersectionContext{
		psx: best.psx, psy: best.psy, pex: best.pex, pey: best.pey,
		pdx: best.pdx, pdy: best.pdy,
	}
	addTo := func(list **nodeSeg, seg *nodeSeg) {
		seg.next = *list
		*list = seg
	}

	seg := ts
	for seg != nil {
		next := seg.next
		pair := seg.partner != nil && seg.partner == next
		if pair {
			next = next.next
		}

		w.placeSeg(c, best, seg, pair, addTo, &rights, &lefts)
		seg = next
	}

	if w.gl {
		w.addMinisegs(c, &rights, &lefts)
	}
	if rights == nil || lefts == nil {
		// pickNode guarantees both sides populated; minisegs never
		// remove segs, so this indicates an epsilon disagreement
		diagf(w.diags, "partition-imbalance",
			"partition produced an empty side")
		if rights == nil {
			rights, lefts = lefts, rights
		}
	}
	return rights, lefts
}

// placeSeg classifies one seg (and its partner, when adjacent) against
// the partition and links the pieces into the side lists
func (w *nodesWork) placeSeg(c *IntersectionContext, best, seg *nodeSeg,
	pair bool, addTo func(**nodeSeg, *nodeSeg), rights, lefts **nodeSeg) {

	partner := seg.partner

	if seg == best {
		addTo(rights, seg)
		if pair {
			addTo(lefts, partner)
		}
		return
	}
	if best.partner != nil && seg == best.partner {
		addTo(lefts, seg)
		if pair {
			addTo(rights, partner)
		}
		return
	}

	c.lsx, c.lsy = seg.psx, seg.psy
	c.lex, c.ley = seg.pex, seg.pey
	val := c.doLinesIntersect()

	onLine := val&LINE_START_ON != 0 && val&LINE_END_ON != 0
	hasLeft := val&(LINE_START_LEFT|LINE_END_LEFT) != 0
	hasRight := val&(LINE_START_RIGHT|LINE_END_RIGHT) != 0

	switch {
	case onLine:
		// collinear with the partition; side by direction
		if seg.pdx*c.pdx+seg.pdy*c.pdy > 0 {
			addTo(rights, seg)
			if pair {
				addTo(lefts, partner)
			}
		} else {
			addTo(lefts, seg)
			if pair {
				addTo(rights, partner)
			}
		}
	case !hasLeft:
		addTo(rights, seg)
		if pair {
			addTo(rights, partner)
		}
	case !hasRight:
		addTo(lefts, seg)
		if pair {
			addTo(lefts, partner)
		}
	default:
		// the seg crosses the partition: split at the intersection
		x, y := c.computeIntersection()
		nv := w.addVertex(x, y)
		w.totalSplits++

		segFar := w.splitSeg(seg, nv)
		var partnerFar *nodeSeg
		if pair {
			// partner runs the other way: its far half mirrors the
			// near half of seg
			partnerFar = w.splitSeg(partner, nv)
			seg.partner = partnerFar
			partnerFar.partner = seg
			segFar.partner = partner
			partner.partner = segFar
		}
		if val&LINE_START_RIGHT != 0 {
			addTo(rights, seg)
			addTo(lefts, segFar)
			if pair {
				addTo(rights, partnerFar)
				addTo(lefts, partner)
			}
		} else {
			addTo(lefts, seg)
			addTo(rights, segFar)
			if pair {
				addTo(lefts, partnerFar)
				addTo(rights, partner)
			}
		}
	}
}

// splitSeg cuts seg at vertex nv; seg keeps the near half, the far
// half is returned as a new seg
func (w *nodesWork) splitSeg(seg *nodeSeg, nv *nodeVertex) *nodeSeg {
	far := &nodeSeg{
		StartVertex: nv,
		EndVertex:   seg.EndVertex,
		Linedef:     seg.Linedef,
		Flip:        seg.Flip,
		sector:      seg.sector,
		precious:    seg.precious,
	}
	far.recompute()
	seg.EndVertex = nv
	seg.recompute()
	return far
}

// addVertex returns the index-carrying vertex at (x, y), reusing any
// existing vertex within VERTEX_EPSILON and appending to the level's
// vertex sequence otherwise
func (w *nodesWork) addVertex(x, y float64) *nodeVertex {
	if w.round {
		x = math.Round(x)
		y = math.Round(y)
	}
	fv := w.vmap.SelectVertexClose(x, y)
	if fv.Id == -1 {
		fv.Id = len(w.lvl.Vertices)
		w.lvl.Vertices = append(w.lvl.Vertices, VertexEx{
			X: floatToFixed(fv.X),
			Y: floatToFixed(fv.Y),
		})
	}
	return &nodeVertex{X: fv.X, Y: fv.Y, idx: uint32(fv.Id)}
}

// findLimits computes the bounding box of a seg list in map units
func findLimits(ts *nodeSeg) [4]int16 {
	if ts == nil {
		return [4]int16{}
	}
	minx, maxx := ts.psx, ts.psx
	miny, maxy := ts.psy, ts.psy
	for seg := ts; seg != nil; seg = seg.next {
		minx = math.Min(minx, math.Min(seg.psx, seg.pex))
		maxx = math.Max(maxx, math.Max(seg.psx, seg.pex))
		miny = math.Min(miny, math.Min(seg.psy, seg.pey))
		maxy = math.Max(maxy, math.Max(seg.psy, seg.pey))
	}
	var box [4]int16
	box[BB_TOP] = clamp16(int(math.Ceil(maxy)))
	box[BB_BOTTOM] = clamp16(int(math.Floor(miny)))
	box[BB_LEFT] = clamp16(int(math.Floor(minx)))
	box[BB_RIGHT] = clamp16(int(math.Ceil(maxx)))
	return box
}

func clamp16(v int) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// addMinisegs closes the gap the partition cuts through open space.
// Every seg endpoint lying on the partition line becomes an event on
// the partition axis; a gap between consecutive events is sealed with
// a mirrored miniseg pair when geometry on both sides overlaps it.
func (w *nodesWork) addMinisegs(c *IntersectionContext, rights,
	lefts **nodeSeg) {

	plen2 := c.pdx*c.pdx + c.pdy*c.pdy
	if plen2 == 0 {
		return
	}
	plen := math.Sqrt(plen2)
	project := func(x, y float64) float64 {
		return ((x-c.psx)*c.pdx + (y-c.psy)*c.pdy) / plen2
	}
	onPart := func(x, y float64) bool {
		d := c.pdy*(c.psx-x) - c.pdx*(c.psy-y)
		return math.Abs(d)/plen < SIDE_EPSILON
	}

	var events []float64
	var occupied [][2]float64
	collect := func(list *nodeSeg) {
		for seg := list; seg != nil; seg = seg.next {
			sOn := onPart(seg.psx, seg.psy)
			eOn := onPart(seg.pex, seg.pey)
			if sOn {
				events = append(events, project(seg.psx, seg.psy))
			}
			if eOn {
				events = append(events, project(seg.pex, seg.pey))
			}
			if sOn && eOn {
				// a real seg already runs along the partition here
				t1 := project(seg.psx, seg.psy)
				t2 := project(seg.pex, seg.pey)
				if t2 < t1 {
					t1, t2 = t2, t1
				}
				occupied = append(occupied, [2]float64{t1, t2})
			}
		}
	}
	collect(*rights)
	collect(*lefts)
	if len(events) < 2 {
		return
	}
	sort.Float64s(events)

	// covered reports the seg whose axis projection spans t, nil when
	// that side has no geometry there
	covered := func(list *nodeSeg, t float64) *nodeSeg {
		for seg := list; seg != nil; seg = seg.next {
			t1 := project(seg.psx, seg.psy)
			t2 := project(seg.pex, seg.pey)
			if t2 < t1 {
				t1, t2 = t2, t1
			}
			if t1 <= t && t <= t2 {
				return seg
			}
		}
		return nil
	}

	minGap := 2 * VERTEX_EPSILON / plen
	for i := 0; i+1 < len(events); i++ {
		t0, t1 := events[i], events[i+1]
		if t1-t0 < minGap {
			continue
		}
		tm := (t0 + t1) / 2
		blocked := false
		for _, occ := range occupied {
			if occ[0] <= tm && tm <= occ[1] {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}
		rseg := covered(*rights, tm)
		lseg := covered(*lefts, tm)
		if rseg == nil || lseg == nil {
			continue
		}
		v0 := w.addVertex(c.psx+t0*c.pdx, c.psy+t0*c.pdy)
		v1 := w.addVertex(c.psx+t1*c.pdx, c.psy+t1*c.pdy)
		if v0 == v1 || v0.idx == v1.idx {
			continue
		}
		mright := &nodeSeg{
			StartVertex: v0,
			EndVertex:   v1,
			Linedef:     NO_INDEX32,
			sector:      rseg.sector,
		}
		mleft := &nodeSeg{
			StartVertex: v1,
			EndVertex:   v0,
			Linedef:     NO_INDEX32,
			sector:      lseg.sector,
		}
		mright.recompute()
		mleft.recompute()
		mright.partner = mleft
		mleft.partner = mright
		mright.next = *rights
		*rights = mright
		mleft.next = *lefts
		*lefts = mleft
	}
}

// CheckForFracSplitters counts nodes whose partition line does not lie
// on the integer grid. Such nodes lose precision in every encoding
// that stores 16-bit partition deltas; the GL "v3" encodings keep the
// fixed-point values intact.
func CheckForFracSplitters(nodes []NodeEx) int {
	frac := 0
	for i := range nodes {
		if (nodes[i].X|nodes[i].Y|nodes[i].Dx|nodes[i].Dy)&0xFFFF != 0 {
			frac++
		}
	}
	return frac
}
