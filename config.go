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
	"compress/zlib"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// config.go - the options record that steers one compile. Plain data,
// no behavior; a zero/default value produces a vanilla-compatible
// rebuild of nodes and blockmap while leaving the reject alone.

type RejectMode int

const (
	// REJECT_DONTTOUCH - keep the incoming table, resized to fit the
	// sector count if stale
	REJECT_DONTTOUCH RejectMode = iota
	// REJECT_ZEROFILL - emit an all-visible table
	REJECT_ZEROFILL
	// REJECT_REBUILD - conservative rebuild from sector adjacency
	REJECT_REBUILD
)

type BlockmapMode int

const (
	// BLOCKMAP_DONTTOUCH - pass the incoming lump through unchanged
	BLOCKMAP_DONTTOUCH BlockmapMode = iota
	// BLOCKMAP_REBUILD - regenerate from linedef geometry
	BLOCKMAP_REBUILD
	// BLOCKMAP_ZERO - emit a header-only blockmap with empty lists
	BLOCKMAP_ZERO
)

// Cost of splitting a seg when evaluating partition candidates.
// BSP v5.2 value
const PICKNODE_FACTOR = 17

// Cost multiplier for splitting a line that belongs to a polyobject's
// sector. Splits there displace rendering of the polyobject
const PRECIOUS_MULTIPLY = 64

type NodeConfig struct {
	BuildNodes    bool `yaml:"build_nodes"`
	BuildGLNodes  bool `yaml:"build_gl_nodes"`
	ConformNodes  bool `yaml:"conform_nodes"`
	GLOnly        bool `yaml:"gl_only"`
	CheckPolyobjs bool `yaml:"check_poly_objs"`
	NoPrune       bool `yaml:"no_prune"`
	WriteComments bool `yaml:"write_comments"`
	V5GL          bool `yaml:"v5gl"`

	CompressNodes    bool `yaml:"compress_nodes"`
	CompressGLNodes  bool `yaml:"compress_gl_nodes"`
	ForceCompression bool `yaml:"force_compression"`

	Reject   RejectMode   `yaml:"reject_mode"`
	Blockmap BlockmapMode `yaml:"blockmap_mode"`

	// SplitCost is added to a candidate's cost for every seg it would
	// split. Higher values prefer unbalanced trees with fewer splits
	SplitCost int `yaml:"split_cost"`

	// ZlibLevel applies to the compressed node variants
	ZlibLevel int `yaml:"zlib_level"`

	Verbosity int `yaml:"verbosity"`
}

func DefaultNodeConfig() *NodeConfig {
	return &NodeConfig{
		BuildNodes:    true,
		CheckPolyobjs: true,
		Reject:        REJECT_DONTTOUCH,
		Blockmap:      BLOCKMAP_REBUILD,
		SplitCost:     PICKNODE_FACTOR,
		ZlibLevel:     zlib.BestCompression,
	}
}

// LoadNodeConfig reads a YAML options file over the defaults
func LoadNodeConfig(path string) (*NodeConfig, error) {
	cfg := DefaultNodeConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *NodeConfig) Validate() error {
	if cfg.Reject < REJECT_DONTTOUCH || cfg.Reject > REJECT_REBUILD {
		return fmt.Errorf("invalid reject_mode %d", cfg.Reject)
	}
	if cfg.Blockmap < BLOCKMAP_DONTTOUCH || cfg.Blockmap > BLOCKMAP_ZERO {
		return fmt.Errorf("invalid blockmap_mode %d", cfg.Blockmap)
	}
	if cfg.ZlibLevel < zlib.HuffmanOnly || cfg.ZlibLevel > zlib.BestCompression {
		return fmt.Errorf("invalid zlib_level %d", cfg.ZlibLevel)
	}
	if cfg.SplitCost < 1 {
		return fmt.Errorf("invalid split_cost %d", cfg.SplitCost)
	}
	return nil
}

// buildGL reports whether a GL tree is needed at all
func (cfg *NodeConfig) buildGL() bool {
	return cfg.BuildGLNodes || cfg.GLOnly || cfg.ConformNodes
}

// buildPlain reports whether the classic (non-GL) tree slot is wanted
func (cfg *NodeConfig) buildPlain() bool {
	return cfg.BuildNodes && !cfg.GLOnly
}
