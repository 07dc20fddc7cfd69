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
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultNodeConfigValid(t *testing.T) {
	cfg := DefaultNodeConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if !cfg.BuildNodes || cfg.GLOnly {
		t.Error("defaults should build the plain tree")
	}
	if cfg.Blockmap != BLOCKMAP_REBUILD || cfg.Reject != REJECT_DONTTOUCH {
		t.Error("default lump policies wrong")
	}
	if cfg.SplitCost != PICKNODE_FACTOR {
		t.Errorf("default split cost %d", cfg.SplitCost)
	}
}

func TestLoadNodeConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "znbx.yml")
	body := `build_gl_nodes: true
compress_gl_nodes: true
reject_mode: 2
split_cost: 30
verbosity: 2
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadNodeConfig(path)
	if err != nil {
		t.Fatalf("LoadNodeConfig: %v", err)
	}
	if !cfg.BuildGLNodes || !cfg.CompressGLNodes {
		t.Error("yaml booleans not applied")
	}
	if cfg.Reject != REJECT_REBUILD || cfg.SplitCost != 30 || cfg.Verbosity != 2 {
		t.Errorf("yaml values not applied: %+v", cfg)
	}
	// untouched keys keep their defaults
	if !cfg.BuildNodes || cfg.Blockmap != BLOCKMAP_REBUILD {
		t.Error("defaults lost under partial yaml")
	}
}

func TestLoadNodeConfigRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "znbx.yml")
	if err := os.WriteFile(path, []byte("split_cost: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadNodeConfig(path); err == nil {
		t.Error("split_cost 0 should fail validation")
	}
	if _, err := LoadNodeConfig(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("missing file should be an error")
	}
}

func TestNodeConfigBuildSelectors(t *testing.T) {
	cfg := DefaultNodeConfig()
	if cfg.buildGL() || !cfg.buildPlain() {
		t.Error("defaults: plain only")
	}
	cfg.ConformNodes = true
	if !cfg.buildGL() {
		t.Error("conform_nodes implies a GL build")
	}
	cfg = DefaultNodeConfig()
	cfg.GLOnly = true
	if cfg.buildPlain() || !cfg.buildGL() {
		t.Error("gl_only must suppress the plain tree")
	}
}
