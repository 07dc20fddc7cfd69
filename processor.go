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

// processor.go - one compiler instance per map. Construction loads and
// validates the level; Process builds the requested trees and writes
// every output lump through the LumpWriter. A Processor is
// single-threaded and holds no global state; run several of them for
// several maps.

type Processor struct {
	Level *Level
	Arena *StringBuffer
	// Diagnostics collects non-fatal anomalies of the last Process run
	Diagnostics []Diagnostic

	src LumpReader
}

// NewProcessor loads a binary-format map. extended selects the Hexen
// record variants.
func NewProcessor(src LumpReader, extended bool) (*Processor, error) {
	lvl, err := LoadLevelBinary(src, extended)
	if err != nil {
		return nil, err
	}
	return &Processor{
		Level: lvl,
		Arena: CreateStringBuffer(),
		src:   src,
	}, nil
}

// NewProcessorText loads a text-format map from a token stream. src
// may be nil when the caller has no sibling lumps to pass through.
func NewProcessorText(sc Scanner, src LumpReader) (*Processor, error) {
	arena := CreateStringBuffer()
	lvl, err := ParseTextMap(sc, arena)
	if err != nil {
		return nil, err
	}
	return &Processor{
		Level: lvl,
		Arena: arena,
		src:   src,
	}, nil
}

// Process compiles the level per cfg and emits all output lumps.
// Passing nil cfg uses the defaults. Running Process twice with the
// same configuration produces byte-identical lumps.
func (p *Processor) Process(lw LumpWriter, cfg *NodeConfig) error {
	if cfg == nil {
		cfg = DefaultNodeConfig()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	p.Diagnostics = p.Diagnostics[:0]
	lvl := p.Level

	wantGL := cfg.buildGL()
	if lvl.TextFormat && !wantGL {
		// text-format consumers read nodes from ZNODES, which is a GL
		// encoding
		wantGL = true
	}
	wantPlain := cfg.buildPlain() && !lvl.TextFormat

	if cfg.CheckPolyobjs {
		lvl.getPolySpots()
	}
	precious := lvl.preciousLinedefs()

	if !cfg.NoPrune && (wantPlain || wantGL) {
		lvl.pruneUnusedVertices()
	}

	if wantPlain && !cfg.ConformNodes {
		nodes, subs, segs, err := buildNodes(lvl, cfg, false, true,
			precious, &p.Diagnostics)
		if err != nil {
			return err
		}
		lvl.Nodes, lvl.Subsectors, lvl.Segs = nodes, subs, segs
	}

	glStart := len(lvl.Vertices)
	fracSplitters := 0
	if wantGL {
		nodes, subs, segs, err := buildNodes(lvl, cfg, true,
			cfg.ConformNodes, precious, &p.Diagnostics)
		if err != nil {
			return err
		}
		lvl.GLNodes, lvl.GLSubsectors, lvl.GLSegs = nodes, subs, segs
		fracSplitters = CheckForFracSplitters(lvl.GLNodes)
		if fracSplitters > 0 {
			diagf(&p.Diagnostics, "frac-splitters",
				"%d node partition lines are off the integer grid",
				fracSplitters)
		}
	}

	if cfg.ConformNodes && cfg.buildPlain() && !lvl.TextFormat {
		p.deriveConformedPlain()
		glStart = len(lvl.Vertices)
	}

	if lvl.TextFormat {
		return p.writeTextOutput(lw, cfg, fracSplitters)
	}
	return p.writeBinaryOutput(lw, cfg, wantPlain || cfg.ConformNodes,
		wantGL, glStart, fracSplitters)
}

// deriveConformedPlain copies the GL tree into the plain slot with
// minisegs removed. The GL build ran with integer vertex snapping, so
// the result is classic-encodable and matches the GL tree exactly.
func (p *Processor) deriveConformedPlain() {
	lvl := p.Level
	segs := make([]SegEx, 0, len(lvl.GLSegs))
	subs := make([]SubsectorEx, len(lvl.GLSubsectors))
	for i := range lvl.GLSubsectors {
		gss := &lvl.GLSubsectors[i]
		first := uint32(len(segs))
		for j := gss.FirstSeg; j < gss.FirstSeg+gss.NumSegs; j++ {
			if lvl.GLSegs[j].Linedef == NO_INDEX32 {
				continue
			}
			s := lvl.GLSegs[j]
			s.Partner = NO_INDEX32
			segs = append(segs, s)
		}
		subs[i] = SubsectorEx{FirstSeg: first, NumSegs: uint32(len(segs)) - first}
		if subs[i].NumSegs == 0 {
			diagf(&p.Diagnostics, "empty-subsector",
				"subsector %d has only minisegs, empty in the plain tree", i)
		}
	}
	lvl.Segs = segs
	lvl.Subsectors = subs
	lvl.Nodes = append([]NodeEx(nil), lvl.GLNodes...)
}

func (p *Processor) writeTextOutput(lw LumpWriter, cfg *NodeConfig,
	frac int) error {

	lvl := p.Level
	if err := WriteTextMap(lw, lvl, cfg); err != nil {
		return err
	}
	base := len(lvl.Vertices) // every vertex lives in TEXTMAP
	version := chooseXGLVersion(lvl, cfg, frac)
	compressed := cfg.CompressGLNodes || cfg.ForceCompression
	data, err := GetXGLNodesBytes(lvl, base, version, compressed,
		cfg.ZlibLevel)
	if err != nil {
		return err
	}
	return lw.WriteLump("ZNODES", data)
}

func (p *Processor) writeBinaryOutput(lw LumpWriter, cfg *NodeConfig,
	havePlain, haveGL bool, glStart, frac int) error {

	lvl := p.Level

	// plain tree encoding: classic unless requested or forced extended
	plainExt := false
	if havePlain {
		plainExt = cfg.CompressNodes
		if !plainExt {
			if err := CheckClassicCaps(lvl, glStart); err != nil {
				diagf(&p.Diagnostics, "capacity",
					"classic node encoding impossible (%v), extended used", err)
				plainExt = true
			}
		}
	}

	base := glStart
	if plainExt || !havePlain {
		base = lvl.NumOrgVerts
	}

	if err := WriteThings(lw, lvl); err != nil {
		return err
	}
	if err := WriteLinedefs(lw, lvl); err != nil {
		return err
	}
	if err := WriteSidedefs(lw, lvl); err != nil {
		return err
	}
	if err := WriteVertexes(lw, lvl, base); err != nil {
		return err
	}
	if err := WriteSectors(lw, lvl); err != nil {
		return err
	}

	ssectorsTaken := false
	switch {
	case havePlain && !plainExt:
		if err := WriteClassicSegs(lw, lvl); err != nil {
			return err
		}
		if err := WriteClassicSubsectors(lw, lvl); err != nil {
			return err
		}
		if err := WriteClassicNodes(lw, lvl); err != nil {
			return err
		}
		ssectorsTaken = true
	case havePlain:
		compressed := cfg.CompressNodes || cfg.ForceCompression
		data, err := GetXNodesBytes(lvl, base, compressed, cfg.ZlibLevel)
		if err != nil {
			return err
		}
		if err := lw.WriteLump("SEGS", nil); err != nil {
			return err
		}
		if err := lw.WriteLump("SSECTORS", nil); err != nil {
			return err
		}
		if err := lw.WriteLump("NODES", data); err != nil {
			return err
		}
	default:
		if err := lw.WriteLump("SEGS", nil); err != nil {
			return err
		}
		if err := lw.WriteLump("SSECTORS", nil); err != nil {
			return err
		}
		if err := lw.WriteLump("NODES", nil); err != nil {
			return err
		}
	}

	if haveGL {
		extGL := cfg.CompressGLNodes || cfg.ForceCompression
		if extGL && ssectorsTaken {
			diagf(&p.Diagnostics, "gl-placement",
				"classic subsectors occupy SSECTORS, GL nodes written as GL lumps")
			extGL = false
		}
		if extGL {
			version := chooseXGLVersion(lvl, cfg, frac)
			compressed := cfg.CompressGLNodes || cfg.ForceCompression
			data, err := GetXGLNodesBytes(lvl, base, version, compressed,
				cfg.ZlibLevel)
			if err != nil {
				return err
			}
			if err := lw.WriteLump("SSECTORS", data); err != nil {
				return err
			}
		} else {
			version := chooseGLVersion(lvl, cfg, base)
			if err := WriteGLNodeLumps(lw, lvl, base, version); err != nil {
				return err
			}
		}
	}

	if err := p.writeReject(lw, cfg); err != nil {
		return err
	}
	return p.writeBlockmap(lw, cfg)
}

func (p *Processor) writeReject(lw LumpWriter, cfg *NodeConfig) error {
	lvl := p.Level
	switch cfg.Reject {
	case REJECT_ZEROFILL:
		lvl.Reject = ZeroReject(len(lvl.Sectors))
	case REJECT_REBUILD:
		lvl.Reject = RebuildReject(lvl)
	default:
		var old []byte
		if p.src != nil {
			old = p.src.Lump("REJECT")
		}
		lvl.Reject = FixReject(len(lvl.Sectors), old)
	}
	return WriteRejectLump(lw, lvl.Reject)
}

func (p *Processor) writeBlockmap(lw LumpWriter, cfg *NodeConfig) error {
	lvl := p.Level
	switch cfg.Blockmap {
	case BLOCKMAP_REBUILD:
		bm, err := CreateBlockmap(lvl)
		if err != nil {
			return err
		}
		lvl.Blockmap = bm
	case BLOCKMAP_ZERO:
		lvl.Blockmap = CreateBlockmapZero(lvl)
	default:
		if p.src != nil {
			if old := p.src.Lump("BLOCKMAP"); old != nil {
				return lw.WriteLump("BLOCKMAP", old)
			}
		}
		// nothing to pass through; the engine rebuilds on load
		return nil
	}
	return WriteBlockmapLump(lw, lvl.Blockmap)
}

// chooseXGLVersion picks the lowest extended GL version that encodes
// the tree losslessly
func chooseXGLVersion(lvl *Level, cfg *NodeConfig, frac int) int {
	if cfg.V5GL || frac > 0 {
		return XGL_VERSION_3
	}
	if len(lvl.Linedefs) > 65535 {
		return XGL_VERSION_2
	}
	return XGL_VERSION_1
}

// chooseGLVersion picks the classic GL lump version: 5 when requested
// or when 16-bit records cannot hold the counts, 2 when builder
// vertices carry fractions, 1 otherwise
func chooseGLVersion(lvl *Level, cfg *NodeConfig, base int) int {
	if cfg.V5GL || CheckGLV1Caps(lvl, base) != nil {
		return 5
	}
	for _, v := range lvl.Vertices[base:] {
		if (v.X|v.Y)&0xFFFF != 0 {
			return 2
		}
	}
	return 1
}
